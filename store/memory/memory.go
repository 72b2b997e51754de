// Package memory is an in-process core.RecordStore for tests and local runs.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hupe1980/agriconnect/core"
	"github.com/hupe1980/agriconnect/store"
)

// Options configures a Store.
type Options struct {
	// Now is the timestamp source; defaults to time.Now.
	Now func() time.Time
	// NewID generates record identifiers; defaults to uuid.NewString.
	NewID func() string
}

// Store keeps records in memory. It is safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	records map[string]core.Record
	order   []string
	now     func() time.Time
	newID   func() string
}

// New creates an empty Store.
func New(optFns ...func(o *Options)) *Store {
	opts := Options{Now: time.Now, NewID: uuid.NewString}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Store{records: map[string]core.Record{}, now: opts.Now, newID: opts.NewID}
}

// Create implements core.RecordStore.
func (s *Store) Create(ctx context.Context, fields map[string]any) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	doc, err := store.Normalize(fields)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.newID()
	if _, exists := s.records[id]; exists {
		return "", fmt.Errorf("%w: duplicate id %q", core.ErrStoreUnavailable, id)
	}
	now := s.now().UTC()
	s.records[id] = core.Record{ID: id, Fields: doc, CreatedAt: now, LastUpdatedAt: now}
	s.order = append(s.order, id)
	return id, nil
}

// Update implements core.RecordStore.
func (s *Store) Update(ctx context.Context, id string, partial map[string]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	doc, err := store.Normalize(partial)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok {
		return fmt.Errorf("update %q: %w", id, core.ErrTradeNotFound)
	}
	store.Merge(rec.Fields, doc)
	rec.LastUpdatedAt = s.now().UTC()
	s.records[id] = rec
	return nil
}

// Get implements core.RecordStore.
func (s *Store) Get(ctx context.Context, id string) (core.Record, error) {
	if err := ctx.Err(); err != nil {
		return core.Record{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	if !ok {
		return core.Record{}, fmt.Errorf("get %q: %w", id, core.ErrTradeNotFound)
	}
	return clone(rec)
}

// Query implements core.RecordStore. Results are in creation order.
func (s *Store) Query(ctx context.Context, filters map[string]any) ([]core.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	want, err := store.Normalize(filters)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []core.Record{}
	for _, id := range s.order {
		rec := s.records[id]
		if !store.Matches(rec.Fields, want) {
			continue
		}
		c, err := clone(rec)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func clone(r core.Record) (core.Record, error) {
	fields, err := store.Normalize(r.Fields)
	if err != nil {
		return core.Record{}, err
	}
	r.Fields = fields
	return r, nil
}
