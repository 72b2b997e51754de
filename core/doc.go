// Package core provides the foundational domain types and collaborator
// interfaces shared by the AgriConnect routing layer and the trade workflow.
// It defines:
//
//   - Agent descriptors (the routable metadata of a specialist agent)
//   - The record store contract used for trade documents
//   - The notification channel contract used for fire-and-forget alerts
//   - Sentinel errors shared across packages
//
// The package keeps implementation concerns (sqlite, NATS, HTTP) out of scope,
// exposing small interfaces so components can be wired with fakes in tests.
package core
