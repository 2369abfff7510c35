package progress

import (
	"sync"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// BatchFunc receives the payload of every accepted frame, with the job it belongs to.
type BatchFunc func(jobId string, payload Payload)

// BatchListener routes frames for a fixed set of jobs to one callback, using the job id in
// each frame's destination. It keeps no completion state of its own.
//
// Once any subscription has been added, frames carrying a subscription header are accepted
// only from those subscriptions. A connection delivers a frame once per matching
// subscription, so without this a listener would also see the copies addressed to another
// watcher of the same job.
type BatchListener struct {
	tracked map[string]bool
	fn      BatchFunc

	mutex         sync.RWMutex
	subscriptions map[string]bool
}

func NewBatchListener(jobIds []string, fn BatchFunc) *BatchListener {
	tracked := make(map[string]bool, len(jobIds))
	for _, id := range jobIds {
		tracked[id] = true
	}
	return &BatchListener{tracked: tracked, fn: fn, subscriptions: map[string]bool{}}
}

// AddSubscription marks a subscription as belonging to this listener. Call it before
// subscribing so no frame of the subscription is missed.
func (l *BatchListener) AddSubscription(id string) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	l.subscriptions[id] = true
}

func (l *BatchListener) addressed(frame *Frame) bool {
	id, ok := frame.Subscription()
	if !ok {
		return true
	}
	l.mutex.RLock()
	defer l.mutex.RUnlock()
	return len(l.subscriptions) == 0 || l.subscriptions[id]
}

func (l *BatchListener) Tracks(jobId string) bool {
	return l.tracked[jobId]
}

// JobIds returns the tracked job ids, sorted.
func (l *BatchListener) JobIds() []string {
	ids := maps.Keys(l.tracked)
	slices.Sort(ids)
	return ids
}

// HandleFrame returns the tracked job a frame belongs to and its payload.
// ok is false when the frame should be ignored.
func (l *BatchListener) HandleFrame(frame *Frame) (jobId string, payload Payload, ok bool) {
	jobId, payload, _, _ = l.handle(frame)
	return jobId, payload, payload != nil
}

func (l *BatchListener) handle(frame *Frame) (string, Payload, string, error) {
	if !l.addressed(frame) {
		return "", nil, reasonNotAddressed, nil
	}
	jobId, _, err := ExtractEntityID(frame.Destination())
	if err != nil {
		return "", nil, reasonMalformedDest, err
	}
	if !l.tracked[jobId] {
		return "", nil, reasonUntracked, nil
	}
	payload, err := ParseBody(frame.Body)
	if err != nil {
		return "", nil, reasonMalformedBody, err
	}
	return jobId, payload, "", nil
}

// OnMessage invokes the callback synchronously, once per accepted frame.
func (l *BatchListener) OnMessage(frame *Frame) {
	jobId, payload, reason, err := l.handle(frame)
	if payload == nil {
		dropped(listenerBatch, reason, frame, err)
		return
	}
	framesHandled.WithLabelValues(listenerBatch).Inc()
	if l.fn != nil {
		l.fn(jobId, payload)
	}
}
