// Package store holds helpers shared by the core.RecordStore backends.
//
// Records are JSON documents: field values are normalized through a JSON
// round trip on write, so every backend compares and returns the same
// representation (numbers as float64, nested objects as map[string]any).
package store
