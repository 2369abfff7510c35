package progress

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type batchCall struct {
	jobId   string
	payload Payload
}

type batchRecorder struct {
	calls []batchCall
}

func (r *batchRecorder) record(jobId string, payload Payload) {
	r.calls = append(r.calls, batchCall{jobId: jobId, payload: payload})
}

func jsonBody(t *testing.T, v interface{}) string {
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return string(data)
}

func TestBatchListener_TrackedJob(t *testing.T) {
	rec := &batchRecorder{}
	l := NewBatchListener([]string{"job-1", "job-2"}, rec.record)

	l.OnMessage(frame("", "/topic/job-1.worker.progress", jsonBody(t, map[string]string{"status": "running"})))

	require.Len(t, rec.calls, 1)
	assert.Equal(t, "job-1", rec.calls[0].jobId)
	assert.Equal(t, Payload{"status": "running"}, rec.calls[0].payload)
}

func TestBatchListener_TimePrefixed(t *testing.T) {
	rec := &batchRecorder{}
	l := NewBatchListener([]string{"job-1"}, rec.record)

	body := fmt.Sprintf("12:34:56 - INFO - %s", jsonBody(t, map[string]string{"status": "complete"}))
	l.OnMessage(frame("", "/topic/job-1.worker.progress", body))

	require.Len(t, rec.calls, 1)
	assert.Equal(t, Payload{"status": "complete"}, rec.calls[0].payload)
}

func TestBatchListener_Ignores(t *testing.T) {
	tests := map[string]*Frame{
		"untracked job":         frame("", "/topic/job-3.worker.progress", `{"status": "running"}`),
		"malformed destination": frame("", "/topic/", `{"status": "running"}`),
		"missing destination":   {Headers: map[string]string{}, Body: []byte(`{"status": "running"}`)},
		"malformed json":        frame("", "/topic/job-1.worker.progress", "this is not json"),
	}
	for name, f := range tests {
		t.Run(name, func(t *testing.T) {
			rec := &batchRecorder{}
			l := NewBatchListener([]string{"job-1", "job-2"}, rec.record)
			l.OnMessage(f)
			assert.Empty(t, rec.calls)
		})
	}
}

func TestBatchListener_OneCallPerFrame(t *testing.T) {
	rec := &batchRecorder{}
	l := NewBatchListener([]string{"job-1", "job-2"}, rec.record)

	l.OnMessage(frame("", "/topic/job-2.solver.progress", `{"done": 1, "total": 2}`))
	l.OnMessage(frame("", "/topic/job-1.solver.progress", `{"done": 1, "total": 2}`))
	l.OnMessage(frame("", "/topic/job-2.solver.progress", `{"done": 2, "total": 2}`))

	require.Len(t, rec.calls, 3)
	assert.Equal(t, []string{"job-2", "job-1", "job-2"}, []string{rec.calls[0].jobId, rec.calls[1].jobId, rec.calls[2].jobId})
}

func TestBatchListener_HandleFrame(t *testing.T) {
	l := NewBatchListener([]string{"b", "a"}, nil)
	assert.Equal(t, []string{"a", "b"}, l.JobIds())
	assert.True(t, l.Tracks("a"))
	assert.False(t, l.Tracks("c"))

	jobId, payload, ok := l.HandleFrame(frame("", "/topic/a.worker.progress", `{"status": 70}`))
	assert.True(t, ok)
	assert.Equal(t, "a", jobId)
	assert.Equal(t, Payload{"status": 70.0}, payload)

	_, _, ok = l.HandleFrame(frame("", "/topic/c.worker.progress", `{"status": 70}`))
	assert.False(t, ok)

	// a nil callback is tolerated
	l.OnMessage(frame("", "/topic/a.worker.progress", `{"status": 70}`))
}

func TestBatchListener_OwnSubscriptionsOnly(t *testing.T) {
	rec := &batchRecorder{}
	l := NewBatchListener([]string{"job-1"}, rec.record)
	l.AddSubscription("mine")

	body := `{"status": 40}`
	l.OnMessage(frame("mine", "/topic/job-1.solver.progress", body))
	l.OnMessage(frame("theirs", "/topic/job-1.solver.progress", body))
	l.OnMessage(frame("", "/topic/job-1.solver.progress", body))

	require.Len(t, rec.calls, 2)
	_, _, ok := l.HandleFrame(frame("theirs", "/topic/job-1.solver.progress", body))
	assert.False(t, ok)
}
