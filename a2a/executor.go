package a2a

import (
	"context"

	"github.com/a2aproject/a2a-go/a2a"
	"github.com/a2aproject/a2a-go/a2asrv"
	"github.com/a2aproject/a2a-go/a2asrv/eventqueue"

	"github.com/hupe1980/agriconnect/core"
	"github.com/hupe1980/agriconnect/logging"
)

// EventWriter receives task events in order. eventqueue.Queue satisfies it.
type EventWriter interface {
	Write(ctx context.Context, event a2a.Event) error
}

// Executor runs the agent logic for one task and reports progress through
// the updater. Returning an error without a final update marks the task failed.
type Executor interface {
	Execute(ctx context.Context, reqCtx *RequestContext, updater *TaskUpdater) error
}

// ExecutorFunc adapts a function returning the final answer to an Executor.
type ExecutorFunc func(ctx context.Context, input string) (string, error)

// Execute implements Executor.
func (f ExecutorFunc) Execute(ctx context.Context, reqCtx *RequestContext, updater *TaskUpdater) error {
	if err := updater.UpdateStatus(ctx, TaskStateWorking, "Agent is processing..."); err != nil {
		return err
	}
	out, err := f(ctx, UserInput(reqCtx))
	if err != nil {
		return err
	}
	return updater.Complete(ctx, out)
}

// TaskUpdater publishes status updates for a single task.
type TaskUpdater struct {
	info a2a.TaskInfoProvider
	w    EventWriter
	last *TaskStatus
}

// NewTaskUpdater creates an updater writing events for the task described
// by info to w.
func NewTaskUpdater(w EventWriter, info a2a.TaskInfoProvider) *TaskUpdater {
	return &TaskUpdater{info: info, w: w}
}

// UpdateStatus writes a status event with an agent text message. Completed
// and failed updates are final.
func (u *TaskUpdater) UpdateStatus(ctx context.Context, state TaskState, text string) error {
	var msg *Message
	if text != "" {
		msg = a2a.NewMessageForTask(a2a.MessageRoleAgent, u.info, a2a.TextPart{Text: text})
	}
	ev := a2a.NewStatusUpdateEvent(u.info, state, msg)
	ev.Final = state.Terminal()
	u.last = &ev.Status
	return u.w.Write(ctx, ev)
}

// Complete marks the task completed with the final answer.
func (u *TaskUpdater) Complete(ctx context.Context, text string) error {
	return u.UpdateStatus(ctx, TaskStateCompleted, text)
}

// Fail marks the task failed with an explanation.
func (u *TaskUpdater) Fail(ctx context.Context, text string) error {
	return u.UpdateStatus(ctx, TaskStateFailed, text)
}

// Finished reports whether a final status was written.
func (u *TaskUpdater) Finished() bool {
	return u.last != nil && u.last.State.Terminal()
}

// Status returns the last written status.
func (u *TaskUpdater) Status() (TaskStatus, bool) {
	if u.last == nil {
		return TaskStatus{}, false
	}
	return *u.last, true
}

// agentExecutor runs an Executor inside the a2asrv request handler.
type agentExecutor struct {
	*core.LoggerAdapter
	exec Executor
}

// NewAgentExecutor adapts exec to the a2asrv executor contract. Executor
// errors become a failed status carrying the error text.
func NewAgentExecutor(exec Executor, logger logging.Logger) a2asrv.AgentExecutor {
	return &agentExecutor{LoggerAdapter: core.NewLoggerAdapter(logger), exec: exec}
}

// Execute implements a2asrv.AgentExecutor.
func (ae *agentExecutor) Execute(ctx context.Context, reqCtx *a2asrv.RequestContext, queue eventqueue.Queue) error {
	ae.LogInfo("Executing task", "task_id", reqCtx.TaskID, "context_id", reqCtx.ContextID)

	updater := NewTaskUpdater(queue, reqCtx)
	if err := ae.exec.Execute(ctx, reqCtx, updater); err != nil {
		ae.LogError("Error during agent execution", "task_id", reqCtx.TaskID, "error", err)
		if updater.Finished() {
			return nil
		}
		return updater.Fail(context.WithoutCancel(ctx), "An error occurred: "+err.Error())
	}
	if !updater.Finished() {
		ae.LogWarn("Agent finished without a final status", "task_id", reqCtx.TaskID)
		return updater.Fail(context.WithoutCancel(ctx), "Agent finished without a final status.")
	}
	ae.LogInfo("Task finished", "task_id", reqCtx.TaskID)
	return nil
}

// Cancel implements a2asrv.AgentExecutor. Tasks run to completion.
func (ae *agentExecutor) Cancel(_ context.Context, reqCtx *a2asrv.RequestContext, _ eventqueue.Queue) error {
	ae.LogWarn("Cancellation is not supported by this agent", "task_id", reqCtx.TaskID)
	return a2a.ErrUnsupportedOperation
}
