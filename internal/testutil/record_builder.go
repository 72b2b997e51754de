package testutil

import (
	"errors"
	"time"

	"github.com/hupe1980/agriconnect/core"
)

// ErrEmbedFailed is returned by fakes configured to fail.
var ErrEmbedFailed = errors.New("embedding provider failed")

// RecordBuilder helps construct trade records with fluent chaining for tests.
// Example:
//
//	rec := NewRecordBuilder("t-1").Field("product_name", "tomatoes").Build()
type RecordBuilder struct {
	id     string
	fields map[string]any
	at     time.Time
}

// NewRecordBuilder creates a builder for a record with the given id.
func NewRecordBuilder(id string) *RecordBuilder {
	return &RecordBuilder{id: id, fields: map[string]any{}, at: time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)}
}

// Field sets or overwrites a top-level field (chainable).
func (b *RecordBuilder) Field(key string, val any) *RecordBuilder {
	b.fields[key] = val
	return b
}

// At sets both store timestamps (chainable).
func (b *RecordBuilder) At(t time.Time) *RecordBuilder {
	b.at = t
	return b
}

// Build returns the record.
func (b *RecordBuilder) Build() core.Record {
	fields := make(map[string]any, len(b.fields))
	for k, v := range b.fields {
		fields[k] = v
	}
	return core.Record{ID: b.id, Fields: fields, CreatedAt: b.at, LastUpdatedAt: b.at}
}

// FixedClock returns a clock function that always reports t.
func FixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
