package pubsub

import (
	"sync"

	"golang.org/x/exp/slices"

	"github.com/tinarmengineering/ltc/pkg/monitor"
	"github.com/tinarmengineering/ltc/pkg/progress"
)

// MemoryConnection is an in-process connection. Publish delivers synchronously, once per
// matching subscription, to every listener on the calling goroutine.
type MemoryConnection struct {
	listeners     listenerSet
	mutex         sync.Mutex
	subscriptions map[string]string
}

func NewMemoryConnection() *MemoryConnection {
	return &MemoryConnection{subscriptions: map[string]string{}}
}

func (c *MemoryConnection) Subscribe(destination string, id string) error {
	subject, err := Subject(destination)
	if err != nil {
		return err
	}
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if _, exists := c.subscriptions[id]; exists {
		return &ErrSubscription{Id: id, Message: "already subscribed"}
	}
	c.subscriptions[id] = subject
	return nil
}

func (c *MemoryConnection) Unsubscribe(id string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if _, exists := c.subscriptions[id]; !exists {
		return &ErrSubscription{Id: id, Message: "not subscribed"}
	}
	delete(c.subscriptions, id)
	return nil
}

func (c *MemoryConnection) AddListener(listener monitor.Listener) {
	c.listeners.add(listener)
}

func (c *MemoryConnection) RemoveListener(listener monitor.Listener) {
	c.listeners.remove(listener)
}

// Subscriptions returns the destinations currently subscribed to, keyed by subscription id.
func (c *MemoryConnection) Subscriptions() map[string]string {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	result := make(map[string]string, len(c.subscriptions))
	for id, subject := range c.subscriptions {
		result[id] = Destination(subject)
	}
	return result
}

func (c *MemoryConnection) Listeners() int {
	return c.listeners.len()
}

// Publish sends body to destination. It returns the number of subscriptions it matched.
func (c *MemoryConnection) Publish(destination string, body []byte) (int, error) {
	subject, err := Subject(destination)
	if err != nil {
		return 0, err
	}

	c.mutex.Lock()
	var ids []string
	for id, pattern := range c.subscriptions {
		if Matches(pattern, subject) {
			ids = append(ids, id)
		}
	}
	c.mutex.Unlock()
	slices.Sort(ids)

	for _, id := range ids {
		c.listeners.deliver(&progress.Frame{
			Headers: map[string]string{
				progress.HeaderDestination:  destination,
				progress.HeaderSubscription: id,
			},
			Body: body,
		})
	}
	return len(ids), nil
}
