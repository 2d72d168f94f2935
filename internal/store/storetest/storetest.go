// Package storetest runs the behaviour every store.Store backend must share.
package storetest

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shipments/internal/core"
	"shipments/internal/store"
)

// Factory returns a fresh, empty backend built with opts.
type Factory func(t *testing.T, opts ...store.Option) store.Store

// Clock hands out strictly increasing times one second apart.
type Clock struct {
	mu   sync.Mutex
	next time.Time
}

func NewClock(start time.Time) *Clock {
	return &Clock{next: start}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.next
	c.next = c.next.Add(time.Second)
	return now
}

// Record builds a valid record for date with the given quantity.
func Record(date core.Date, staff, vegetable, quantity string) core.ShipmentRecord {
	return core.ShipmentRecord{
		ShipmentDate: date,
		StaffName:    staff,
		Vegetable:    vegetable,
		Quantity:     decimal.RequireFromString(quantity),
	}
}

// Run exercises newStore against the record store contract.
func Run(t *testing.T, newStore Factory) {
	t.Helper()
	start := time.Date(2026, 1, 30, 17, 45, 2, 400_000_000, time.Local)

	t.Run("ensure initialized is idempotent", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)
		require.NoError(t, s.EnsureInitialized(ctx))
		require.NoError(t, s.EnsureInitialized(ctx))

		records, err := s.Load(ctx)
		require.NoError(t, err)
		assert.Empty(t, records)
	})

	t.Run("append then load returns the stored record", func(t *testing.T) {
		ctx := context.Background()
		clock := NewClock(start)
		s := newStore(t, store.WithClock(clock.Now))
		require.NoError(t, s.EnsureInitialized(ctx))

		in := Record(core.NewDate(2026, 1, 31), "Staff 3", "Tomato", "12.25")
		in.RecordedAt = time.Date(1999, 12, 31, 23, 59, 59, 0, time.UTC)

		stored, err := s.Append(ctx, in)
		require.NoError(t, err)
		assert.True(t, stored.RecordedAt.Equal(start.Truncate(time.Second)), "recorded_at comes from the store clock, got %v", stored.RecordedAt)

		records, err := s.Load(ctx)
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.True(t, stored.Equal(records[0]), "loaded %+v, stored %+v", records[0], stored)
		assert.Equal(t, "2026-01-31", records[0].ShipmentDate.String())
		assert.Equal(t, "12.25", records[0].Quantity.String())
	})

	t.Run("n appends load n unaltered records", func(t *testing.T) {
		ctx := context.Background()
		clock := NewClock(start)
		s := newStore(t, store.WithClock(clock.Now))
		require.NoError(t, s.EnsureInitialized(ctx))

		vegetables := []string{"トマト", "Cucumber", "Green pepper", "Cabbage", "Tomato"}
		stored := make([]core.ShipmentRecord, 0, len(vegetables))
		for i, veg := range vegetables {
			rec := Record(core.NewDate(2026, 2, i+1), fmt.Sprintf("Staff %d", i+1), veg, fmt.Sprintf("%d.5", i+1))
			out, err := s.Append(ctx, rec)
			require.NoError(t, err)
			stored = append(stored, out)
		}

		records, err := s.Load(ctx)
		require.NoError(t, err)
		require.Len(t, records, len(stored))
		for _, want := range stored {
			assert.True(t, contains(records, want), "missing %+v", want)
		}
	})

	t.Run("initialization keeps existing records", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)
		require.NoError(t, s.EnsureInitialized(ctx))
		_, err := s.Append(ctx, Record(core.NewDate(2026, 1, 31), "Staff 1", "Lettuce", "1"))
		require.NoError(t, err)
		require.NoError(t, s.EnsureInitialized(ctx))

		records, err := s.Load(ctx)
		require.NoError(t, err)
		assert.Len(t, records, 1)
	})

	t.Run("records in a repeated daylight saving hour keep their order", func(t *testing.T) {
		ny, err := time.LoadLocation("America/New_York")
		require.NoError(t, err)
		local := time.Local
		time.Local = ny
		t.Cleanup(func() { time.Local = local })

		ctx := context.Background()
		// 05:30 UTC and 06:30 UTC are both 01:30 on 2025-11-02 in New York.
		times := []time.Time{
			time.Date(2025, 11, 2, 5, 30, 0, 0, time.UTC),
			time.Date(2025, 11, 2, 6, 30, 0, 0, time.UTC),
		}
		next := 0
		s := newStore(t, store.WithClock(func() time.Time {
			now := times[next]
			next++
			return now
		}))
		require.NoError(t, s.EnsureInitialized(ctx))

		date := core.NewDate(2025, 11, 2)
		first, err := s.Append(ctx, Record(date, "Staff 1", "Tomato", "1"))
		require.NoError(t, err)
		second, err := s.Append(ctx, Record(date, "Staff 2", "Tomato", "2"))
		require.NoError(t, err)

		records, err := s.Load(ctx)
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.True(t, contains(records, first), "missing %+v", first)
		assert.True(t, contains(records, second), "missing %+v", second)

		sum := core.BuildDaySummary(records, date)
		require.Len(t, sum.Records, 2)
		assert.Equal(t, "Staff 2", sum.Records[0].StaffName, "newest first")
		assert.True(t, sum.Records[0].RecordedAt.After(sum.Records[1].RecordedAt))
	})

	t.Run("cancelled context is reported as unavailable", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.EnsureInitialized(context.Background()))

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := s.Load(ctx)
		assert.True(t, store.IsUnavailable(err), "load: %v", err)
		_, err = s.Append(ctx, Record(core.NewDate(2026, 1, 31), "Staff 1", "Tomato", "1"))
		assert.True(t, store.IsUnavailable(err), "append: %v", err)
		assert.True(t, store.IsUnavailable(s.EnsureInitialized(ctx)), "ensure initialized")
	})
}

func contains(records []core.ShipmentRecord, want core.ShipmentRecord) bool {
	for _, r := range records {
		if r.Equal(want) {
			return true
		}
	}
	return false
}
