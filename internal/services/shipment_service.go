// Package services orchestrates recording and summarizing shipments over a
// record store, with an optional event publisher for the spreadsheet mirror.
package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"shipments/internal/core"
	"shipments/internal/log"
	"shipments/internal/store"
)

// Publisher announces records that were stored successfully.
type Publisher interface {
	PublishShipmentRecorded(ctx context.Context, rec core.ShipmentRecord) error
}

type closer struct {
	name string
	fn   func() error
}

// ShipmentService validates input, writes through the store and publishes
// a ShipmentRecorded event. All calls are synchronous and never retried.
type ShipmentService struct {
	store     store.Store
	publisher Publisher
	policy    core.QuantityPolicy
	logger    *zap.Logger
	closers   []closer
}

type Option func(*ShipmentService)

// WithPublisher enables events after each successful append.
func WithPublisher(p Publisher) Option {
	return func(s *ShipmentService) { s.publisher = p }
}

func WithPolicy(p core.QuantityPolicy) Option {
	return func(s *ShipmentService) { s.policy = p }
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *ShipmentService) { s.logger = log.Named(logger, log.ComponentShipment) }
}

// WithCloser registers a resource released by Close, in registration order.
func WithCloser(name string, fn func() error) Option {
	return func(s *ShipmentService) {
		if fn != nil {
			s.closers = append(s.closers, closer{name: name, fn: fn})
		}
	}
}

func NewShipmentService(st store.Store, opts ...Option) *ShipmentService {
	s := &ShipmentService{
		store:  st,
		policy: core.FractionalPolicy,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Policy returns the quantity policy records are validated against.
func (s *ShipmentService) Policy() core.QuantityPolicy {
	return s.policy
}

// Record validates rec and appends it. Invalid input never reaches the
// store. A publish failure is logged; the record is already stored.
func (s *ShipmentService) Record(ctx context.Context, rec core.ShipmentRecord) (core.ShipmentRecord, error) {
	if err := rec.Validate(s.policy); err != nil {
		return core.ShipmentRecord{}, err
	}

	stored, err := s.store.Append(ctx, rec)
	if err != nil {
		s.logger.Error("failed to store shipment",
			append(log.Record(rec), log.Op(log.OpAppend), log.ErrorType(log.ErrorTypeStorage), zap.Error(err))...)
		return core.ShipmentRecord{}, err
	}
	s.logger.Info("shipment recorded", log.Record(stored)...)

	if s.publisher != nil {
		if err := s.publisher.PublishShipmentRecorded(ctx, stored); err != nil {
			s.logger.Error("failed to publish shipment recorded event",
				append(log.Record(stored), log.Op(log.OpPublish), log.ErrorType(log.ErrorTypeNetwork), zap.Error(err))...)
		}
	}

	return stored, nil
}

// Summary loads every record and aggregates the ones shipped on date.
func (s *ShipmentService) Summary(ctx context.Context, date core.Date) (core.DaySummary, error) {
	if err := date.Validate(); err != nil {
		return core.DaySummary{}, err
	}
	records, err := s.store.Load(ctx)
	if err != nil {
		return core.DaySummary{}, err
	}
	summary := core.BuildDaySummary(records, date)
	s.logger.Debug("summary built",
		log.Op(log.OpSummary),
		zap.String(log.FieldShipmentDate, date.String()),
		zap.Int(log.FieldRecordCount, len(summary.Records)))
	return summary, nil
}

// List returns every record, or only those shipped on date when it is set.
func (s *ShipmentService) List(ctx context.Context, date *core.Date) ([]core.ShipmentRecord, error) {
	records, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	if date == nil {
		return records, nil
	}
	return core.FilterByDate(records, *date), nil
}

// Initialize prepares the underlying store.
func (s *ShipmentService) Initialize(ctx context.Context) error {
	return s.store.EnsureInitialized(ctx)
}

// Ready reports whether the store can be read.
func (s *ShipmentService) Ready(ctx context.Context) error {
	_, err := s.store.Load(ctx)
	return err
}

// Close releases the registered resources and reports every failure.
func (s *ShipmentService) Close() error {
	var errs []error
	for _, c := range s.closers {
		if err := c.fn(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", c.name, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close shipment service: %w", errors.Join(errs...))
	}
	return nil
}
