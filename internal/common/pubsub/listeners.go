package pubsub

import (
	"sync"

	"github.com/tinarmengineering/ltc/pkg/monitor"
	"github.com/tinarmengineering/ltc/pkg/progress"
)

// listenerSet is the list of connection-level listeners. Frames are delivered outside the
// lock so listeners may add or remove listeners while handling a frame.
type listenerSet struct {
	mutex     sync.RWMutex
	listeners []monitor.Listener
}

func (s *listenerSet) add(listener monitor.Listener) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.listeners = append(s.listeners, listener)
}

func (s *listenerSet) remove(listener monitor.Listener) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	for i, l := range s.listeners {
		if l == listener {
			s.listeners = append(s.listeners[:i:i], s.listeners[i+1:]...)
			return
		}
	}
}

func (s *listenerSet) len() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return len(s.listeners)
}

func (s *listenerSet) deliver(frame *progress.Frame) {
	s.mutex.RLock()
	listeners := make([]monitor.Listener, len(s.listeners))
	copy(listeners, s.listeners)
	s.mutex.RUnlock()

	for _, l := range listeners {
		l.OnMessage(frame)
	}
}
