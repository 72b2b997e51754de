// Package workflow runs an ordered list of stages against a shared RunState.
//
// Each stage reads prior stage outputs, performs its side effects and
// returns its own output, which is stored under the stage name. A stage
// failure is fatal: the run stops, the state becomes StateFailed and the
// error is returned as a *StageError naming the stage and the last state
// reached. There is no retry and no partial resume.
package workflow
