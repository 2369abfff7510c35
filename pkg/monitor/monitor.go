// Package monitor waits for simulation jobs to finish by listening to their progress topics.
package monitor

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/tinarmengineering/ltc/pkg/api"
	"github.com/tinarmengineering/ltc/pkg/progress"
)

const (
	JobIdPlaceholder = "{job_id}"
	DefaultTopic     = progress.TopicPrefix + JobIdPlaceholder + ".*.progress"
)

type Monitor struct {
	conn         Connection
	api          JobAPI
	topic        string
	queued       api.JobStatus
	newId        func() string
	listenerOpts []progress.JobListenerOption
}

type Option func(*Monitor)

// WithTopic sets the destination pattern subscribed to per job. {job_id} is replaced by the job id.
func WithTopic(pattern string) Option {
	return func(m *Monitor) {
		m.topic = pattern
	}
}

// WithQueuedStatus sets the status a job is moved to once its subscription is in place.
func WithQueuedStatus(status api.JobStatus) Option {
	return func(m *Monitor) {
		m.queued = status
	}
}

func WithIdGenerator(newId func() string) Option {
	return func(m *Monitor) {
		m.newId = newId
	}
}

func WithListenerOptions(opts ...progress.JobListenerOption) Option {
	return func(m *Monitor) {
		m.listenerOpts = append(m.listenerOpts, opts...)
	}
}

func New(conn Connection, jobApi JobAPI, opts ...Option) *Monitor {
	m := &Monitor{
		conn:   conn,
		api:    jobApi,
		topic:  DefaultTopic,
		queued: api.QueuedForMeshing,
		newId:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Destination returns the destination subscribed to for a job.
func (m *Monitor) Destination(jobId string) string {
	return strings.ReplaceAll(m.topic, JobIdPlaceholder, jobId)
}

// WatchJob subscribes to the job's progress, marks it queued and blocks until the job reaches
// terminal state or ctx is done. fn is called for every update, on the connection's delivery
// goroutine. The returned status is read back from the service once the job has finished.
func (m *Monitor) WatchJob(ctx context.Context, jobId string, fn progress.UpdateFunc) (api.JobStatus, error) {
	subscriptionId := m.newId()
	listener := progress.NewJobListener(jobId, subscriptionId, fn, m.listenerOpts...)
	logger := log.WithFields(log.Fields{"job": jobId, "subscription": subscriptionId})

	m.conn.AddListener(listener)
	defer m.conn.RemoveListener(listener)

	destination := m.Destination(jobId)
	if err := m.conn.Subscribe(destination, subscriptionId); err != nil {
		return api.New, errors.WithMessagef(err, "subscribing to %s", destination)
	}
	defer func() {
		if err := m.conn.Unsubscribe(subscriptionId); err != nil {
			logger.WithError(err).Warn("Failed to unsubscribe")
		}
	}()

	if err := m.api.UpdateJobStatus(ctx, jobId, m.queued); err != nil {
		return api.New, errors.WithMessagef(err, "marking job %s as %s", jobId, m.queued)
	}
	logger.Infof("Watching %s", destination)

	select {
	case <-listener.Done():
	case <-ctx.Done():
		return api.New, errors.WithStack(ctx.Err())
	}

	job, err := m.api.GetJob(ctx, jobId)
	if err != nil {
		return api.New, errors.WithMessagef(err, "reading final status of job %s", jobId)
	}
	logger.Infof("Job finished with status %s", job.Status)
	return job.Status, nil
}
