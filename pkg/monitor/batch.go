package monitor

import (
	"context"
	"sync"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/tinarmengineering/ltc/pkg/api"
	"github.com/tinarmengineering/ltc/pkg/progress"
)

// batchTracker records the last known status of each job in a batch. Once a job reports a
// terminal status it is resolved and later frames for it are ignored.
type batchTracker struct {
	mu       sync.Mutex
	statuses map[string]api.JobStatus
	resolved map[string]bool
	pending  int
	done     chan struct{}
}

func newBatchTracker(jobIds []string) *batchTracker {
	t := &batchTracker{
		statuses: make(map[string]api.JobStatus, len(jobIds)),
		resolved: make(map[string]bool, len(jobIds)),
		pending:  len(jobIds),
		done:     make(chan struct{}),
	}
	if t.pending == 0 {
		close(t.done)
	}
	return t
}

func (t *batchTracker) observe(jobId string, payload progress.Payload) {
	status, ok := payload.Status()
	if !ok {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.resolved[jobId] {
		return
	}
	t.statuses[jobId] = status
	if status.IsTerminal() {
		t.resolved[jobId] = true
		t.pending--
		if t.pending == 0 {
			close(t.done)
		}
	}
}

func (t *batchTracker) snapshot() map[string]api.JobStatus {
	t.mu.Lock()
	defer t.mu.Unlock()
	result := make(map[string]api.JobStatus, len(t.statuses))
	for id, status := range t.statuses {
		result[id] = status
	}
	return result
}

// WatchBatch watches several jobs through one shared listener and blocks until every job has
// reported a terminal status, returning the final status of each. fn, if not nil, receives
// every accepted payload. When ctx is done the statuses known so far are returned with the error.
func (m *Monitor) WatchBatch(ctx context.Context, jobIds []string, fn progress.BatchFunc) (map[string]api.JobStatus, error) {
	jobIds = unique(jobIds)
	tracker := newBatchTracker(jobIds)
	listener := progress.NewBatchListener(jobIds, func(jobId string, payload progress.Payload) {
		tracker.observe(jobId, payload)
		if fn != nil {
			fn(jobId, payload)
		}
	})

	m.conn.AddListener(listener)
	var subscriptions []string
	defer func() {
		m.conn.RemoveListener(listener)
		var result *multierror.Error
		for _, id := range subscriptions {
			if err := m.conn.Unsubscribe(id); err != nil {
				result = multierror.Append(result, errors.WithMessagef(err, "unsubscribing %s", id))
			}
		}
		if err := result.ErrorOrNil(); err != nil {
			log.WithError(err).Warn("Failed to clean up batch subscriptions")
		}
	}()

	for _, jobId := range jobIds {
		subscriptionId := m.newId()
		destination := m.Destination(jobId)
		listener.AddSubscription(subscriptionId)
		if err := m.conn.Subscribe(destination, subscriptionId); err != nil {
			return tracker.snapshot(), errors.WithMessagef(err, "subscribing to %s", destination)
		}
		subscriptions = append(subscriptions, subscriptionId)
	}
	for _, jobId := range jobIds {
		if err := m.api.UpdateJobStatus(ctx, jobId, m.queued); err != nil {
			return tracker.snapshot(), errors.WithMessagef(err, "marking job %s as %s", jobId, m.queued)
		}
	}
	log.WithField("jobs", len(jobIds)).Info("Watching batch")

	select {
	case <-tracker.done:
		return tracker.snapshot(), nil
	case <-ctx.Done():
		return tracker.snapshot(), errors.WithStack(ctx.Err())
	}
}

func unique(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	result := make([]string, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			result = append(result, id)
		}
	}
	return result
}
