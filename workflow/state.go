package workflow

import (
	"fmt"
	"sync"
)

// State is the position of a run in the workflow state machine.
type State string

const (
	StatePending      State = "PENDING"
	StateInitiated    State = "INITIATED"
	StateLogisticsSet State = "LOGISTICS_SET"
	StatePaymentSet   State = "PAYMENT_SET"
	StateNotified     State = "NOTIFIED"
	StateComplete     State = "COMPLETE"
	StateFailed       State = "FAILED"
)

// InputKey is the RunState key holding the run input.
const InputKey = "input"

// RunState accumulates stage outputs for a single run. Outputs are only
// ever added, never removed.
type RunState struct {
	mu      sync.RWMutex
	state   State
	outputs map[string]map[string]any
	order   []string
}

// NewRunState creates a RunState holding input under InputKey.
func NewRunState(input map[string]any) *RunState {
	rs := &RunState{state: StatePending, outputs: map[string]map[string]any{}}
	rs.set(InputKey, input)
	return rs
}

// State returns the current state.
func (r *RunState) State() State {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state
}

func (r *RunState) setState(s State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state = s
}

func (r *RunState) set(name string, out map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if out == nil {
		out = map[string]any{}
	}
	if _, exists := r.outputs[name]; !exists {
		r.order = append(r.order, name)
	}
	r.outputs[name] = out
}

// Output returns the output stored under name.
func (r *RunState) Output(name string) (map[string]any, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out, ok := r.outputs[name]
	return out, ok
}

// Input returns the run input.
func (r *RunState) Input() map[string]any {
	out, _ := r.Output(InputKey)
	return out
}

// Value returns key from the output of stage name.
func (r *RunState) Value(name, key string) (any, bool) {
	out, ok := r.Output(name)
	if !ok {
		return nil, false
	}
	v, ok := out[key]
	return v, ok
}

// String returns a non-empty string value from the output of stage name.
func (r *RunState) String(name, key string) (string, bool) {
	v, ok := r.Value(name, key)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok && s != ""
}

// Stages returns the names of stored outputs in insertion order, input first.
func (r *RunState) Stages() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// StageError reports the fatal failure of a stage.
type StageError struct {
	Stage string
	// State is the last state reached before the failure.
	State State
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s failed after %s: %v", e.Stage, e.State, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }
