package monitor

import (
	"context"

	"github.com/tinarmengineering/ltc/pkg/api"
	"github.com/tinarmengineering/ltc/pkg/progress"
)

// Listener receives every frame delivered on a Connection. Listeners filter frames themselves.
type Listener interface {
	OnMessage(frame *progress.Frame)
}

// Connection is a pub/sub connection shared by any number of unrelated monitors.
type Connection interface {
	Subscribe(destination string, id string) error
	Unsubscribe(id string) error
	AddListener(listener Listener)
	RemoveListener(listener Listener)
}

// JobAPI is the part of the compute service a monitor talks to.
type JobAPI interface {
	UpdateJobStatus(ctx context.Context, jobId string, status api.JobStatus) error
	GetJob(ctx context.Context, jobId string) (*api.Job, error)
}
