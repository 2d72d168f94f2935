package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shipments/internal/core"
	"shipments/internal/store"
	"shipments/internal/store/storetest"
)

func openTemp(t *testing.T, opts ...store.Option) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "db", "shipments.db"), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T, opts ...store.Option) store.Store {
		return openTemp(t, opts...)
	})
}

func TestLoadBeforeInitializeIsUnavailable(t *testing.T) {
	s := openTemp(t)
	_, err := s.Load(context.Background())
	assert.True(t, store.IsUnavailable(err), "got %v", err)
}

func TestMirrorRecordKeepsTimestamp(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t)
	require.NoError(t, s.EnsureInitialized(ctx))

	rec := storetest.Record(core.NewDate(2026, 1, 31), "Staff 2", "Eggplant", "0.75")
	rec.RecordedAt = time.Date(2026, 1, 29, 6, 30, 0, 0, time.Local)
	require.NoError(t, s.MirrorRecord(ctx, rec))

	records, err := s.Load(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.True(t, rec.Equal(records[0]))
}

func TestEnsureInitializedRecordsSchemaVersion(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t)
	require.NoError(t, s.EnsureInitialized(ctx))
	require.NoError(t, s.EnsureInitialized(ctx))

	var version int
	var dirty bool
	require.NoError(t, s.db.QueryRowContext(ctx, `SELECT version, dirty FROM schema_migrations`).Scan(&version, &dirty))
	assert.Equal(t, 1, version)
	assert.False(t, dirty)
}

func TestRecordedAtStoredAsUTC(t *testing.T) {
	ctx := context.Background()
	at := time.Date(2026, 1, 31, 2, 45, 2, 0, time.FixedZone("JST", 9*3600))
	s := openTemp(t, store.WithClock(func() time.Time { return at }))
	require.NoError(t, s.EnsureInitialized(ctx))

	_, err := s.Append(ctx, storetest.Record(core.NewDate(2026, 1, 31), "Staff 1", "Tomato", "1"))
	require.NoError(t, err)

	var raw string
	require.NoError(t, s.db.QueryRowContext(ctx, `SELECT recorded_at FROM shipments`).Scan(&raw))
	assert.Equal(t, "2026-01-30 17:45:02", raw)
}

func TestRecordsSurviveReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "shipments.db")

	first, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, first.EnsureInitialized(ctx))
	stored, err := first.Append(ctx, storetest.Record(core.NewDate(2026, 1, 31), "Staff 1", "Cabbage", "8"))
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := Open(path)
	require.NoError(t, err)
	defer second.Close()
	require.NoError(t, second.EnsureInitialized(ctx))

	records, err := second.Load(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.True(t, stored.Equal(records[0]))
}
