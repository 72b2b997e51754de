package core

import (
	"context"
	"time"
)

// Record is one stored document. Fields holds the caller supplied top-level
// keys; ID and the timestamps are assigned by the store.
type Record struct {
	ID            string         `json:"trade_id"`
	Fields        map[string]any `json:"data"`
	CreatedAt     time.Time      `json:"created_at"`
	LastUpdatedAt time.Time      `json:"last_updated_at"`
}

// Has reports whether field is a top-level key of the record.
func (r Record) Has(field string) bool {
	_, ok := r.Fields[field]
	return ok
}

// String returns the field value as a string, or "" when absent or not a string.
func (r Record) String(field string) string {
	s, _ := r.Fields[field].(string)
	return s
}

// Flatten returns the fields merged with id and timestamps, the shape
// reported to callers and notification consumers.
func (r Record) Flatten() map[string]any {
	out := make(map[string]any, len(r.Fields)+3)
	for k, v := range r.Fields {
		out[k] = v
	}
	out["trade_id"] = r.ID
	out["created_at"] = r.CreatedAt.Format(time.RFC3339Nano)
	out["last_updated_at"] = r.LastUpdatedAt.Format(time.RFC3339Nano)
	return out
}

// RecordStore is the document backend holding trade records. Implementations
// must make Create and Update atomic per document and be safe for concurrent use.
//
// Update applies a partial merge, never a full overwrite, and returns
// ErrTradeNotFound for unknown ids. Get returns ErrTradeNotFound likewise.
// Query matches documents whose fields equal every filter value.
type RecordStore interface {
	Create(ctx context.Context, fields map[string]any) (string, error)
	Update(ctx context.Context, id string, partial map[string]any) error
	Get(ctx context.Context, id string) (Record, error)
	Query(ctx context.Context, filters map[string]any) ([]Record, error)
}
