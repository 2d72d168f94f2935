// Package memory keeps shipment records in process memory. It backs local
// development and tests.
package memory

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"shipments/internal/core"
	"shipments/internal/log"
	"shipments/internal/store"
)

const backendName = "memory"

type Store struct {
	mu    sync.Mutex
	items []core.ShipmentRecord
	opts  store.Options
}

var (
	_ store.Store        = (*Store)(nil)
	_ store.RecordMirror = (*Store)(nil)
)

func New(opts ...store.Option) *Store {
	return &Store{opts: store.NewOptions(opts...)}
}

// NewWithRecords seeds the store with already stamped records.
func NewWithRecords(records []core.ShipmentRecord, opts ...store.Option) *Store {
	s := New(opts...)
	s.items = append(s.items, records...)
	return s
}

func (s *Store) EnsureInitialized(ctx context.Context) error {
	return store.Unavailable(backendName, log.OpInit, ctx.Err())
}

func (s *Store) Load(ctx context.Context) ([]core.ShipmentRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, store.Unavailable(backendName, log.OpLoad, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return append(make([]core.ShipmentRecord, 0, len(s.items)), s.items...), nil
}

func (s *Store) Append(ctx context.Context, rec core.ShipmentRecord) (core.ShipmentRecord, error) {
	if err := ctx.Err(); err != nil {
		return core.ShipmentRecord{}, store.Unavailable(backendName, log.OpAppend, err)
	}
	rec = s.opts.Stamp(rec)
	s.mu.Lock()
	s.items = append(s.items, rec)
	n := len(s.items)
	s.mu.Unlock()
	s.opts.Logger.Debug("record appended", zap.Int(log.FieldRecordCount, n))
	return rec, nil
}

// MirrorRecord stores rec as given.
func (s *Store) MirrorRecord(ctx context.Context, rec core.ShipmentRecord) error {
	if err := ctx.Err(); err != nil {
		return store.Unavailable(backendName, log.OpMirror, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, rec)
	return nil
}
