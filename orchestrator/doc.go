// Package orchestrator holds the conversational side of AgriConnect: the
// Delegator that routes a task to the best specialist through discovery
// and A2A, and the model-backed Specialist executors serving price
// prediction and buyer matching.
package orchestrator
