package monitor_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tinarmengineering/ltc/internal/common/pubsub"
	"github.com/tinarmengineering/ltc/pkg/api"
	"github.com/tinarmengineering/ltc/pkg/monitor"
	"github.com/tinarmengineering/ltc/pkg/progress"
)

type statusChange struct {
	jobId  string
	status api.JobStatus
}

type fakeJobAPI struct {
	mutex   sync.Mutex
	changes []statusChange
	final   map[string]api.JobStatus
	queued  chan string

	updateErr error
	getErr    error
}

func newFakeJobAPI() *fakeJobAPI {
	return &fakeJobAPI{final: map[string]api.JobStatus{}, queued: make(chan string, 100)}
}

func (f *fakeJobAPI) UpdateJobStatus(_ context.Context, jobId string, status api.JobStatus) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.mutex.Lock()
	f.changes = append(f.changes, statusChange{jobId: jobId, status: status})
	f.mutex.Unlock()
	f.queued <- jobId
	return nil
}

func (f *fakeJobAPI) GetJob(_ context.Context, jobId string) (*api.Job, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return &api.Job{Id: jobId, Status: f.final[jobId]}, nil
}

func (f *fakeJobAPI) statusChanges() []statusChange {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return append([]statusChange{}, f.changes...)
}

func awaitQueued(t *testing.T, f *fakeJobAPI, jobId string) {
	select {
	case id := <-f.queued:
		require.Equal(t, jobId, id)
	case <-time.After(5 * time.Second):
		t.Fatalf("job %s was never queued", jobId)
	}
}

func sequentialIds() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("sub-%d", n)
	}
}

type watchResult struct {
	status api.JobStatus
	err    error
}

func TestWatchJob(t *testing.T) {
	conn := pubsub.NewMemoryConnection()
	jobApi := newFakeJobAPI()
	jobApi.final["job-1"] = api.Complete
	m := monitor.New(conn, jobApi, monitor.WithIdGenerator(sequentialIds()))

	var mutex sync.Mutex
	var updates []progress.Update
	result := make(chan watchResult, 1)
	go func() {
		status, err := m.WatchJob(context.Background(), "job-1", func(u progress.Update) {
			mutex.Lock()
			defer mutex.Unlock()
			updates = append(updates, u)
		})
		result <- watchResult{status: status, err: err}
	}()

	awaitQueued(t, jobApi, "job-1")
	assert.Equal(t, map[string]string{"sub-1": "/topic/job-1.*.progress"}, conn.Subscriptions())

	_, err := conn.Publish("/topic/job-1.solver.progress", []byte(`{"done": 50, "total": 100}`))
	require.NoError(t, err)
	_, err = conn.Publish("/topic/job-2.solver.progress", []byte(`{"done": 100, "total": 100}`))
	require.NoError(t, err)
	_, err = conn.Publish("/topic/job-1.solver.progress", []byte(`{"done": 100, "total": 100}`))
	require.NoError(t, err)

	select {
	case r := <-result:
		require.NoError(t, r.err)
		assert.Equal(t, api.Complete, r.status)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not finish")
	}

	mutex.Lock()
	assert.Len(t, updates, 2)
	mutex.Unlock()
	assert.Equal(t, []statusChange{{jobId: "job-1", status: api.QueuedForMeshing}}, jobApi.statusChanges())
	assert.Empty(t, conn.Subscriptions())
	assert.Equal(t, 0, conn.Listeners())
}

func TestWatchJob_TerminalStatusFrame(t *testing.T) {
	conn := pubsub.NewMemoryConnection()
	jobApi := newFakeJobAPI()
	jobApi.final["job-1"] = api.Quarantined
	m := monitor.New(conn, jobApi)

	result := make(chan watchResult, 1)
	go func() {
		status, err := m.WatchJob(context.Background(), "job-1", nil)
		result <- watchResult{status: status, err: err}
	}()

	awaitQueued(t, jobApi, "job-1")
	_, err := conn.Publish("/topic/job-1.worker.progress", []byte(`23:46:46 - PROGRESS - {"job_id": "job-1", "status": 80}`))
	require.NoError(t, err)

	select {
	case r := <-result:
		require.NoError(t, r.err)
		assert.Equal(t, api.Quarantined, r.status)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not finish")
	}
}

func TestWatchJob_Cancelled(t *testing.T) {
	conn := pubsub.NewMemoryConnection()
	jobApi := newFakeJobAPI()
	m := monitor.New(conn, jobApi)

	ctx, cancel := context.WithCancel(context.Background())
	result := make(chan watchResult, 1)
	go func() {
		status, err := m.WatchJob(ctx, "job-1", nil)
		result <- watchResult{status: status, err: err}
	}()

	awaitQueued(t, jobApi, "job-1")
	cancel()

	select {
	case r := <-result:
		assert.True(t, errors.Is(r.err, context.Canceled))
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not return after cancellation")
	}
	assert.Empty(t, conn.Subscriptions())
	assert.Equal(t, 0, conn.Listeners())
}

func TestWatchJob_UpdateStatusFails(t *testing.T) {
	conn := pubsub.NewMemoryConnection()
	jobApi := newFakeJobAPI()
	jobApi.updateErr = errors.New("service unavailable")
	m := monitor.New(conn, jobApi)

	_, err := m.WatchJob(context.Background(), "job-1", nil)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "service unavailable")
	assert.Empty(t, conn.Subscriptions())
	assert.Equal(t, 0, conn.Listeners())
}

func TestWatchJob_GetJobFails(t *testing.T) {
	conn := pubsub.NewMemoryConnection()
	jobApi := newFakeJobAPI()
	jobApi.getErr = errors.New("not found")
	m := monitor.New(conn, jobApi)

	result := make(chan watchResult, 1)
	go func() {
		status, err := m.WatchJob(context.Background(), "job-1", nil)
		result <- watchResult{status: status, err: err}
	}()
	awaitQueued(t, jobApi, "job-1")
	_, err := conn.Publish("/topic/job-1.solver.progress", []byte(`{"done": 1, "total": 1}`))
	require.NoError(t, err)

	select {
	case r := <-result:
		assert.Error(t, r.err)
		assert.Contains(t, r.err.Error(), "not found")
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not finish")
	}
}

func TestWatchJob_InvalidTopic(t *testing.T) {
	conn := pubsub.NewMemoryConnection()
	jobApi := newFakeJobAPI()
	m := monitor.New(conn, jobApi, monitor.WithTopic("/queue/{job_id}"))

	_, err := m.WatchJob(context.Background(), "job-1", nil)
	assert.Error(t, err)
	assert.Empty(t, jobApi.statusChanges())
	assert.Equal(t, 0, conn.Listeners())
}

func TestDestination(t *testing.T) {
	m := monitor.New(pubsub.NewMemoryConnection(), newFakeJobAPI())
	assert.Equal(t, "/topic/abc.*.progress", m.Destination("abc"))

	m = monitor.New(pubsub.NewMemoryConnection(), newFakeJobAPI(), monitor.WithTopic("/topic/{job_id}.solver.*.progress"))
	assert.Equal(t, "/topic/abc.solver.*.progress", m.Destination("abc"))
}

func TestWatchJob_QueuedStatusOption(t *testing.T) {
	conn := pubsub.NewMemoryConnection()
	jobApi := newFakeJobAPI()
	jobApi.final["job-1"] = api.Complete
	m := monitor.New(conn, jobApi, monitor.WithQueuedStatus(api.QueuedForSolving))

	result := make(chan watchResult, 1)
	go func() {
		status, err := m.WatchJob(context.Background(), "job-1", nil)
		result <- watchResult{status: status, err: err}
	}()
	awaitQueued(t, jobApi, "job-1")
	_, err := conn.Publish("/topic/job-1.solver.progress", []byte(`{"done": 3, "total": 3}`))
	require.NoError(t, err)

	r := <-result
	require.NoError(t, r.err)
	assert.Equal(t, []statusChange{{jobId: "job-1", status: api.QueuedForSolving}}, jobApi.statusChanges())
}
