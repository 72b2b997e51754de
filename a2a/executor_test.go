package a2a

import (
	"context"
	"sync"
	"testing"

	"github.com/a2aproject/a2a-go/a2a"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type statusRecorder struct {
	mu     sync.Mutex
	events []*TaskStatusUpdateEvent
}

func (r *statusRecorder) Write(_ context.Context, ev a2a.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if su, ok := ev.(*TaskStatusUpdateEvent); ok {
		r.events = append(r.events, su)
	}
	return nil
}

func TestTaskUpdater(t *testing.T) {
	rec := &statusRecorder{}
	reqCtx := &RequestContext{TaskID: "task-1", ContextID: "ctx-1", Message: NewUserMessage("hi")}
	u := NewTaskUpdater(rec, reqCtx)
	ctx := context.Background()

	_, ok := u.Status()
	assert.False(t, ok)

	require.NoError(t, u.UpdateStatus(ctx, TaskStateWorking, "thinking"))
	assert.False(t, u.Finished())
	require.NoError(t, u.Complete(ctx, "done"))
	assert.True(t, u.Finished())

	require.Len(t, rec.events, 2)
	assert.False(t, rec.events[0].Final)
	assert.True(t, rec.events[1].Final)
	assert.Equal(t, a2a.TaskID("task-1"), rec.events[1].TaskID)
	assert.Equal(t, "ctx-1", rec.events[1].ContextID)
	assert.Equal(t, a2a.MessageRoleAgent, rec.events[1].Status.Message.Role)
	assert.Equal(t, "done", MessageText(rec.events[1].Status.Message))

	status, ok := u.Status()
	require.True(t, ok)
	assert.Equal(t, TaskStateCompleted, status.State)
}

func TestAgentExecutor_MissingFinalStatusFails(t *testing.T) {
	silent := executorFunc(func(context.Context, *RequestContext, *TaskUpdater) error { return nil })
	exec := NewAgentExecutor(silent, nil)

	rec := &statusRecorder{}
	queue := &recordingQueue{statusRecorder: rec}
	require.NoError(t, exec.Execute(context.Background(), &RequestContext{TaskID: "t", ContextID: "c"}, queue))

	require.Len(t, rec.events, 1)
	assert.Equal(t, TaskStateFailed, rec.events[0].Status.State)
	assert.True(t, rec.events[0].Final)
	assert.Equal(t, "Agent finished without a final status.", MessageText(rec.events[0].Status.Message))
}

func TestAgentExecutor_CancelUnsupported(t *testing.T) {
	exec := NewAgentExecutor(echo(), nil)
	err := exec.Cancel(context.Background(), &RequestContext{TaskID: "t"}, &recordingQueue{statusRecorder: &statusRecorder{}})
	assert.ErrorIs(t, err, a2a.ErrUnsupportedOperation)
}

func TestUserInputJoinsTextParts(t *testing.T) {
	msg := a2a.NewMessage(a2a.MessageRoleUser, a2a.TextPart{Text: "sell"}, a2a.DataPart{Data: map[string]any{"k": 1}}, a2a.TextPart{Text: "onions"})
	assert.Equal(t, "sell\nonions", UserInput(&RequestContext{Message: msg}))
	assert.Empty(t, UserInput(nil))
}

type executorFunc func(ctx context.Context, reqCtx *RequestContext, updater *TaskUpdater) error

func (f executorFunc) Execute(ctx context.Context, reqCtx *RequestContext, updater *TaskUpdater) error {
	return f(ctx, reqCtx, updater)
}

// recordingQueue is an eventqueue.Queue that only records writes.
type recordingQueue struct {
	*statusRecorder
}

func (q *recordingQueue) WriteVersioned(ctx context.Context, ev a2a.Event, _ a2a.TaskVersion) error {
	return q.Write(ctx, ev)
}

func (q *recordingQueue) Read(ctx context.Context) (a2a.Event, a2a.TaskVersion, error) {
	<-ctx.Done()
	return nil, a2a.TaskVersionMissing, ctx.Err()
}

func (q *recordingQueue) Close() error { return nil }
