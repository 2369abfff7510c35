package progress

import (
	"sync"

	"github.com/tinarmengineering/ltc/pkg/api"
)

type UpdateKind int

const (
	// ProgressUpdate reports fractional progress (Done out of Total).
	ProgressUpdate UpdateKind = iota
	// StatusUpdate reports a job status and the worker that sent it.
	StatusUpdate
)

func (k UpdateKind) String() string {
	if k == StatusUpdate {
		return "status"
	}
	return "progress"
}

// Update is emitted by a JobListener for every frame it accepts.
type Update struct {
	JobId   string
	Kind    UpdateKind
	Done    float64
	Total   float64
	Status  api.JobStatus
	Worker  string
	Payload Payload
}

type UpdateFunc func(Update)

// JobState is the correlation state for a single monitored job.
type JobState struct {
	JobId          string
	SubscriptionId string
	// Strict disables the destination fallback: only frames carrying a matching
	// subscription header are accepted.
	Strict bool
	Done   bool
}

// Handle applies a frame to the state. It returns the next state and the update to emit,
// or a nil update when the frame is not addressed to this job or cannot be understood.
func (s JobState) Handle(frame *Frame) (JobState, *Update) {
	next, update, _, _ := s.handle(frame)
	return next, update
}

func (s JobState) handle(frame *Frame) (JobState, *Update, string, error) {
	if !s.addressed(frame) {
		return s, nil, reasonNotAddressed, nil
	}
	payload, err := ParseBody(frame.Body)
	if err != nil {
		return s, nil, reasonMalformedBody, err
	}

	if done, total, ok := payload.Progress(); ok {
		if done == total {
			s.Done = true
		}
		return s, &Update{JobId: s.JobId, Kind: ProgressUpdate, Done: done, Total: total, Payload: payload}, "", nil
	}
	if status, ok := payload.Status(); ok {
		if status.IsTerminal() {
			s.Done = true
		}
		return s, &Update{
			JobId:   s.JobId,
			Kind:    StatusUpdate,
			Status:  status,
			Worker:  Worker(frame.Destination()),
			Payload: payload,
		}, "", nil
	}
	return s, nil, reasonUnrecognisedPayload, nil
}

// addressed accepts frames from our own subscription and, unless strict, frames whose
// destination names our job. Brokers do not reliably echo the subscription id.
func (s JobState) addressed(frame *Frame) bool {
	if sub, ok := frame.Subscription(); ok && sub == s.SubscriptionId {
		return true
	}
	if s.Strict {
		return false
	}
	id, _, err := ExtractEntityID(frame.Destination())
	return err == nil && id == s.JobId
}

type JobListenerOption func(*JobState)

// WithStrictSubscription only accepts frames whose subscription header matches.
func WithStrictSubscription() JobListenerOption {
	return func(s *JobState) {
		s.Strict = true
	}
}

// JobListener tracks the progress of one job. OnMessage is called by the connection's
// delivery goroutine; Done is closed exactly once, when the job reaches terminal state.
type JobListener struct {
	deliver  sync.Mutex
	state    JobState
	fn       UpdateFunc
	done     chan struct{}
	doneOnce sync.Once
}

func NewJobListener(jobId, subscriptionId string, fn UpdateFunc, opts ...JobListenerOption) *JobListener {
	state := JobState{JobId: jobId, SubscriptionId: subscriptionId}
	for _, opt := range opts {
		opt(&state)
	}
	return &JobListener{
		state: state,
		fn:    fn,
		done:  make(chan struct{}),
	}
}

func (l *JobListener) JobId() string {
	return l.state.JobId
}

func (l *JobListener) SubscriptionId() string {
	return l.state.SubscriptionId
}

// Done is closed when the job reaches terminal state.
func (l *JobListener) Done() <-chan struct{} {
	return l.done
}

func (l *JobListener) IsDone() bool {
	select {
	case <-l.done:
		return true
	default:
		return false
	}
}

func (l *JobListener) OnMessage(frame *Frame) {
	l.deliver.Lock()
	defer l.deliver.Unlock()

	next, update, reason, err := l.state.handle(frame)
	l.state = next
	if update == nil {
		dropped(listenerJob, reason, frame, err)
		return
	}
	framesHandled.WithLabelValues(listenerJob).Inc()
	if l.fn != nil {
		l.fn(*update)
	}
	if next.Done {
		l.doneOnce.Do(func() { close(l.done) })
	}
}
