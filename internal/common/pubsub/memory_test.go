package pubsub

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tinarmengineering/ltc/pkg/progress"
)

type frameCollector struct {
	mutex  sync.Mutex
	frames []*progress.Frame
}

func (c *frameCollector) OnMessage(frame *progress.Frame) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.frames = append(c.frames, frame)
}

func (c *frameCollector) received() []*progress.Frame {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return append([]*progress.Frame{}, c.frames...)
}

func TestMemoryConnection_Publish(t *testing.T) {
	conn := NewMemoryConnection()
	collector := &frameCollector{}
	conn.AddListener(collector)

	require.NoError(t, conn.Subscribe("/topic/job-1.*.progress", "sub-1"))
	require.NoError(t, conn.Subscribe("/topic/job-2.*.progress", "sub-2"))

	matched, err := conn.Publish("/topic/job-1.solver.progress", []byte(`{"done": 1, "total": 2}`))
	require.NoError(t, err)
	assert.Equal(t, 1, matched)

	frames := collector.received()
	require.Len(t, frames, 1)
	assert.Equal(t, "/topic/job-1.solver.progress", frames[0].Destination())
	id, ok := frames[0].Subscription()
	assert.True(t, ok)
	assert.Equal(t, "sub-1", id)
	assert.Equal(t, `{"done": 1, "total": 2}`, string(frames[0].Body))
}

func TestMemoryConnection_UnmatchedPublishIsDropped(t *testing.T) {
	conn := NewMemoryConnection()
	collector := &frameCollector{}
	conn.AddListener(collector)
	require.NoError(t, conn.Subscribe("/topic/job-1.*.progress", "sub-1"))

	matched, err := conn.Publish("/topic/job-3.solver.progress", []byte(`{}`))
	require.NoError(t, err)
	assert.Equal(t, 0, matched)
	assert.Empty(t, collector.received())
}

func TestMemoryConnection_DeliversOncePerSubscription(t *testing.T) {
	conn := NewMemoryConnection()
	collector := &frameCollector{}
	conn.AddListener(collector)
	require.NoError(t, conn.Subscribe("/topic/job-1.*.progress", "a"))
	require.NoError(t, conn.Subscribe("/topic/job-1.>", "b"))

	matched, err := conn.Publish("/topic/job-1.solver.progress", []byte(`{}`))
	require.NoError(t, err)
	assert.Equal(t, 2, matched)

	frames := collector.received()
	require.Len(t, frames, 2)
	first, _ := frames[0].Subscription()
	second, _ := frames[1].Subscription()
	assert.Equal(t, []string{"a", "b"}, []string{first, second})
}

func TestMemoryConnection_Subscriptions(t *testing.T) {
	conn := NewMemoryConnection()
	require.NoError(t, conn.Subscribe("/topic/job-1.*.progress", "sub-1"))

	err := conn.Subscribe("/topic/job-1.*.progress", "sub-1")
	var subErr *ErrSubscription
	assert.True(t, errors.As(err, &subErr))

	assert.Equal(t, map[string]string{"sub-1": "/topic/job-1.*.progress"}, conn.Subscriptions())

	require.NoError(t, conn.Unsubscribe("sub-1"))
	assert.Empty(t, conn.Subscriptions())

	err = conn.Unsubscribe("sub-1")
	assert.True(t, errors.As(err, &subErr))
}

func TestMemoryConnection_RemoveListener(t *testing.T) {
	conn := NewMemoryConnection()
	first := &frameCollector{}
	second := &frameCollector{}
	conn.AddListener(first)
	conn.AddListener(second)
	assert.Equal(t, 2, conn.Listeners())

	conn.RemoveListener(first)
	assert.Equal(t, 1, conn.Listeners())
	// removing twice is a no-op
	conn.RemoveListener(first)
	assert.Equal(t, 1, conn.Listeners())

	require.NoError(t, conn.Subscribe("/topic/job-1.*.progress", "sub-1"))
	_, err := conn.Publish("/topic/job-1.solver.progress", []byte(`{}`))
	require.NoError(t, err)

	assert.Empty(t, first.received())
	assert.Len(t, second.received(), 1)
}

type selfRemovingListener struct {
	conn  *MemoryConnection
	calls int
}

func (l *selfRemovingListener) OnMessage(*progress.Frame) {
	l.calls++
	l.conn.RemoveListener(l)
}

func TestMemoryConnection_ListenerMayRemoveItself(t *testing.T) {
	conn := NewMemoryConnection()
	listener := &selfRemovingListener{conn: conn}
	conn.AddListener(listener)
	require.NoError(t, conn.Subscribe("/topic/job-1.*.progress", "sub-1"))

	_, err := conn.Publish("/topic/job-1.solver.progress", []byte(`{}`))
	require.NoError(t, err)
	_, err = conn.Publish("/topic/job-1.solver.progress", []byte(`{}`))
	require.NoError(t, err)

	assert.Equal(t, 1, listener.calls)
	assert.Equal(t, 0, conn.Listeners())
}

func TestMemoryConnection_InvalidDestination(t *testing.T) {
	conn := NewMemoryConnection()
	var invalid *ErrInvalidDestination

	err := conn.Subscribe("/queue/job-1", "sub-1")
	assert.True(t, errors.As(err, &invalid))

	_, err = conn.Publish("job-1.progress", []byte(`{}`))
	assert.True(t, errors.As(err, &invalid))
}
