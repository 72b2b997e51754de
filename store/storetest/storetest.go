// Package storetest is a conformance suite for core.RecordStore backends.
package storetest

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agriconnect/core"
)

// Clock is a settable time source for deterministic timestamps.
type Clock struct {
	mu sync.Mutex
	t  time.Time
}

// NewClock returns a clock starting at t.
func NewClock(t time.Time) *Clock { return &Clock{t: t} }

// Now returns the current clock time.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// Factory builds a fresh, empty store using clock for timestamps.
type Factory func(t *testing.T, clock *Clock) core.RecordStore

// Run executes the suite against stores built by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Run("CreateAssignsIDAndTimestamps", func(t *testing.T) {
		clock := NewClock(time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC))
		s := newStore(t, clock)
		ctx := context.Background()

		id, err := s.Create(ctx, map[string]any{"product_name": "tomatoes", "quantity": 500})
		require.NoError(t, err)
		require.NotEmpty(t, id)

		rec, err := s.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, id, rec.ID)
		assert.Equal(t, "tomatoes", rec.Fields["product_name"])
		assert.Equal(t, float64(500), rec.Fields["quantity"])
		assert.True(t, rec.CreatedAt.Equal(clock.Now()))
		assert.True(t, rec.LastUpdatedAt.Equal(clock.Now()))

		other, err := s.Create(ctx, map[string]any{})
		require.NoError(t, err)
		assert.NotEqual(t, id, other)
	})

	t.Run("UpdateMergesPartially", func(t *testing.T) {
		clock := NewClock(time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC))
		s := newStore(t, clock)
		ctx := context.Background()

		id, err := s.Create(ctx, map[string]any{"product_name": "tomatoes", "payment_status": "PENDING_SETUP"})
		require.NoError(t, err)

		clock.Advance(time.Minute)
		require.NoError(t, s.Update(ctx, id, map[string]any{"payment_status": "processing", "payment_medium": "UPI"}))

		rec, err := s.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "tomatoes", rec.Fields["product_name"])
		assert.Equal(t, "processing", rec.Fields["payment_status"])
		assert.Equal(t, "UPI", rec.Fields["payment_medium"])
		assert.True(t, rec.LastUpdatedAt.After(rec.CreatedAt))
	})

	t.Run("NotFound", func(t *testing.T) {
		s := newStore(t, NewClock(time.Now()))
		ctx := context.Background()

		_, err := s.Get(ctx, "missing")
		assert.ErrorIs(t, err, core.ErrTradeNotFound)
		assert.ErrorIs(t, s.Update(ctx, "missing", map[string]any{"a": 1}), core.ErrTradeNotFound)
	})

	t.Run("QueryEqualityFilters", func(t *testing.T) {
		clock := NewClock(time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC))
		s := newStore(t, clock)
		ctx := context.Background()

		mk := func(farmer, pay, logi string) string {
			clock.Advance(time.Second)
			id, err := s.Create(ctx, map[string]any{"farmer_id": farmer, "payment_status": pay, "logistics_status": logi})
			require.NoError(t, err)
			return id
		}
		a := mk("F1", "PENDING_SETUP", "PENDING_SETUP")
		b := mk("F1", "PAID", "DELIVERED")
		mk("F2", "PENDING_SETUP", "PENDING_SETUP")
		c := mk("F1", "PENDING_SETUP", "PENDING_SETUP_LAD")

		got, err := s.Query(ctx, map[string]any{"farmer_id": "F1", "payment_status": "PENDING_SETUP"})
		require.NoError(t, err)
		assert.Equal(t, []string{a, c}, ids(got))

		got, err = s.Query(ctx, map[string]any{"farmer_id": "F1", "logistics_status": "DELIVERED", "payment_status": "PAID"})
		require.NoError(t, err)
		assert.Equal(t, []string{b}, ids(got))

		got, err = s.Query(ctx, map[string]any{"farmer_id": "nobody"})
		require.NoError(t, err)
		assert.Empty(t, got)

		got, err = s.Query(ctx, map[string]any{})
		require.NoError(t, err)
		assert.Len(t, got, 4)
	})

	t.Run("QueryNumericFilter", func(t *testing.T) {
		s := newStore(t, NewClock(time.Now()))
		ctx := context.Background()

		id, err := s.Create(ctx, map[string]any{"quantity": 500})
		require.NoError(t, err)
		_, err = s.Create(ctx, map[string]any{"quantity": 20})
		require.NoError(t, err)

		got, err := s.Query(ctx, map[string]any{"quantity": 500})
		require.NoError(t, err)
		assert.Equal(t, []string{id}, ids(got))
	})

	t.Run("ReturnedRecordsAreCopies", func(t *testing.T) {
		s := newStore(t, NewClock(time.Now()))
		ctx := context.Background()

		id, err := s.Create(ctx, map[string]any{"product_name": "onions"})
		require.NoError(t, err)
		rec, err := s.Get(ctx, id)
		require.NoError(t, err)
		rec.Fields["product_name"] = "mutated"

		rec, err = s.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "onions", rec.Fields["product_name"])
	})

	t.Run("ConcurrentUpdatesKeepAllFields", func(t *testing.T) {
		s := newStore(t, NewClock(time.Now()))
		ctx := context.Background()

		id, err := s.Create(ctx, map[string]any{"base": true})
		require.NoError(t, err)

		var wg sync.WaitGroup
		for n := range 8 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				assert.NoError(t, s.Update(ctx, id, map[string]any{fmt.Sprintf("f%d", n): n}))
			}()
		}
		wg.Wait()

		rec, err := s.Get(ctx, id)
		require.NoError(t, err)
		assert.Len(t, rec.Fields, 9)
	})
}

func ids(recs []core.Record) []string {
	out := make([]string, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.ID)
	}
	return out
}
