// Package store defines the record store port and the pieces every backend
// shares: the unavailable error, construction options and the tabular row
// codec.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"shipments/internal/core"
)

// Ports for outbound adapters.
type (
	// Store persists shipment records. Load returns every record ever
	// appended; Append assigns RecordedAt and returns the stored record.
	Store interface {
		EnsureInitialized(ctx context.Context) error
		Load(ctx context.Context) ([]core.ShipmentRecord, error)
		Append(ctx context.Context, rec core.ShipmentRecord) (core.ShipmentRecord, error)
	}

	// RecordMirror copies an already stamped record without touching RecordedAt.
	RecordMirror interface {
		MirrorRecord(ctx context.Context, rec core.ShipmentRecord) error
	}
)

// ErrUnavailable is matched by every storage failure regardless of backend.
var ErrUnavailable = errors.New("store unavailable")

// UnavailableError carries the backend and operation that failed.
type UnavailableError struct {
	Backend string
	Op      string
	Err     error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("%s store %s: %v", e.Backend, e.Op, e.Err)
}

func (e *UnavailableError) Unwrap() []error {
	return []error{ErrUnavailable, e.Err}
}

// Unavailable wraps err as a storage failure. A nil err stays nil.
func Unavailable(backend, op string, err error) error {
	if err == nil {
		return nil
	}
	var ue *UnavailableError
	if errors.As(err, &ue) {
		return err
	}
	return &UnavailableError{Backend: backend, Op: op, Err: err}
}

// IsUnavailable reports whether err is a storage failure.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}

// Options are shared by all backend constructors.
type Options struct {
	Now    func() time.Time
	Logger *zap.Logger
}

type Option func(*Options)

// WithClock replaces time.Now as the source of RecordedAt.
func WithClock(now func() time.Time) Option {
	return func(o *Options) {
		if now != nil {
			o.Now = now
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(o *Options) {
		if logger != nil {
			o.Logger = logger
		}
	}
}

// NewOptions applies opts over the defaults.
func NewOptions(opts ...Option) Options {
	o := Options{Now: time.Now, Logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Stamp sets RecordedAt to the current UTC time at second resolution,
// discarding whatever the caller supplied.
func (o Options) Stamp(rec core.ShipmentRecord) core.ShipmentRecord {
	rec.RecordedAt = o.Now().UTC().Truncate(time.Second)
	return rec
}
