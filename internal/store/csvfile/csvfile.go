// Package csvfile stores shipment records in a local CSV file with a header
// row. Every append rewrites the whole file; a process-local mutex
// serializes writers inside one process only.
package csvfile

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"shipments/internal/core"
	"shipments/internal/log"
	"shipments/internal/store"
)

const backendName = "csv"

type Store struct {
	path string
	mu   sync.Mutex
	opts store.Options
}

var _ store.Store = (*Store)(nil)

// New binds the store to path. Nothing touches the disk until the first call.
func New(path string, opts ...store.Option) *Store {
	return &Store{path: path, opts: store.NewOptions(opts...)}
}

// Path returns the file backing the store.
func (s *Store) Path() string {
	return s.path
}

// EnsureInitialized creates the directory and a header-only file when the
// file does not exist. An existing file is left untouched.
func (s *Store) EnsureInitialized(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return store.Unavailable(backendName, log.OpInit, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := os.Stat(s.path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return store.Unavailable(backendName, log.OpInit, err)
	}

	if err := s.writeAll(nil); err != nil {
		return store.Unavailable(backendName, log.OpInit, err)
	}
	s.opts.Logger.Info("created shipment file", zap.String("path", s.path))
	return nil
}

// Load reads every record. A missing file reads as empty.
func (s *Store) Load(ctx context.Context) ([]core.ShipmentRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, store.Unavailable(backendName, log.OpLoad, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.readAll()
	if err != nil {
		return nil, store.Unavailable(backendName, log.OpLoad, err)
	}
	return records, nil
}

// Append stamps rec, then reads, extends and rewrites the file.
func (s *Store) Append(ctx context.Context, rec core.ShipmentRecord) (core.ShipmentRecord, error) {
	if err := ctx.Err(); err != nil {
		return core.ShipmentRecord{}, store.Unavailable(backendName, log.OpAppend, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.readAll()
	if err != nil {
		return core.ShipmentRecord{}, store.Unavailable(backendName, log.OpAppend, err)
	}
	rec = s.opts.Stamp(rec)
	records = append(records, rec)
	if err := s.writeAll(records); err != nil {
		return core.ShipmentRecord{}, store.Unavailable(backendName, log.OpAppend, err)
	}

	s.opts.Logger.Debug("record appended",
		append(log.Record(rec), zap.Int(log.FieldRecordCount, len(records)))...)
	return rec, nil
}

func (s *Store) readAll() ([]core.ShipmentRecord, error) {
	f, err := os.Open(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []core.ShipmentRecord{}, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", s.path, err)
	}

	records := make([]core.ShipmentRecord, 0, len(rows))
	if len(rows) == 0 {
		return records, nil
	}
	if !store.IsHeader(rows[0]) {
		return nil, fmt.Errorf("parse %s: unexpected header %v", s.path, rows[0])
	}
	for i, row := range rows[1:] {
		rec, err := store.DecodeRow(row)
		if err != nil {
			return nil, fmt.Errorf("parse %s line %d: %w", s.path, i+2, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// writeAll replaces the file via a temporary sibling and a rename.
func (s *Store) writeAll(records []core.ShipmentRecord) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.Write(store.Columns); err != nil {
		tmp.Close()
		return err
	}
	for _, rec := range records {
		if err := w.Write(store.EncodeRow(rec)); err != nil {
			tmp.Close()
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("write csv: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}
