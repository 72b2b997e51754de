package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hupe1980/agriconnect/core"
	"github.com/hupe1980/agriconnect/logging"
)

// Stage is one step of a workflow.
type Stage interface {
	// Name keys the stage output in the RunState.
	Name() string
	// Reaches is the state entered when the stage succeeds.
	Reaches() State
	Run(ctx context.Context, rs *RunState) (map[string]any, error)
}

// StageFunc is the body of a stage built with NewStage.
type StageFunc func(ctx context.Context, rs *RunState) (map[string]any, error)

type funcStage struct {
	name    string
	reaches State
	fn      StageFunc
}

// NewStage builds a Stage from a function.
func NewStage(name string, reaches State, fn StageFunc) Stage {
	return &funcStage{name: name, reaches: reaches, fn: fn}
}

func (s *funcStage) Name() string   { return s.name }
func (s *funcStage) Reaches() State { return s.reaches }
func (s *funcStage) Run(ctx context.Context, rs *RunState) (map[string]any, error) {
	return s.fn(ctx, rs)
}

// Options configures an Engine.
type Options struct {
	Logger logging.Logger
	// OnTransition is called after every state change.
	OnTransition func(from, to State)
}

// Engine executes stages in order, stopping on the first error.
type Engine struct {
	*core.LoggerAdapter
	name         string
	stages       []Stage
	onTransition func(from, to State)
}

// New creates an Engine running stages in the given order.
func New(name string, stages []Stage, optFns ...func(o *Options)) *Engine {
	opts := Options{}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Engine{
		LoggerAdapter: core.NewLoggerAdapter(opts.Logger),
		name:          name,
		stages:        append([]Stage(nil), stages...),
		onTransition:  opts.OnTransition,
	}
}

// Name returns the workflow name.
func (e *Engine) Name() string { return e.name }

// Run executes every stage against a fresh RunState built from input. On
// failure the returned RunState is in StateFailed and the error is a
// *StageError.
func (e *Engine) Run(ctx context.Context, input map[string]any) (*RunState, error) {
	rs := NewRunState(input)
	start := time.Now()

	for n, stage := range e.stages {
		if err := ctx.Err(); err != nil {
			return rs, e.fail(rs, stage, err)
		}

		stageStart := time.Now()
		out, err := stage.Run(ctx, rs)
		if err != nil {
			e.LogError("Workflow stage failed", "workflow", e.name, "stage", stage.Name(), "duration", time.Since(stageStart), "error", err)
			return rs, e.fail(rs, stage, err)
		}
		rs.set(stage.Name(), out)
		e.transition(rs, stage.Reaches())
		e.LogInfo("Workflow stage completed", "workflow", e.name, "stage", stage.Name(), "step", n+1, "state", stage.Reaches(), "duration", time.Since(stageStart))
	}

	e.transition(rs, StateComplete)
	e.LogInfo("Workflow execution completed", "workflow", e.name, "step_count", len(e.stages), "duration", time.Since(start))
	return rs, nil
}

func (e *Engine) fail(rs *RunState, stage Stage, err error) error {
	reached := rs.State()
	e.transition(rs, StateFailed)

	var se *StageError
	if errors.As(err, &se) {
		return err
	}
	return &StageError{Stage: stage.Name(), State: reached, Err: err}
}

func (e *Engine) transition(rs *RunState, to State) {
	from := rs.State()
	rs.setState(to)
	if e.onTransition != nil {
		e.onTransition(from, to)
	}
}

// Describe lists the stage names and the state each reaches.
func (e *Engine) Describe() []string {
	out := make([]string, 0, len(e.stages))
	for _, s := range e.stages {
		out = append(out, fmt.Sprintf("%s -> %s", s.Name(), s.Reaches()))
	}
	return out
}
