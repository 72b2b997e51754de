// Package trade implements the trade coordinator: the four stage trade
// setup workflow (initiation, logistics, payment, notification), single
// field updates guarded against unknown fields, canned trade queries and
// an a2a.Executor exposing all three as an agent.
package trade
