// Package worker copies recorded shipments into a secondary store, the
// shared spreadsheet in production.
package worker

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"shipments/internal/amqp"
	"shipments/internal/log"
	"shipments/internal/store"
)

// MirrorWorker appends every announced record to target unchanged,
// RecordedAt included. Redelivered messages are appended again.
type MirrorWorker struct {
	target store.RecordMirror
	logger *zap.Logger
}

func NewMirrorWorker(target store.RecordMirror, logger *zap.Logger) *MirrorWorker {
	return &MirrorWorker{
		target: target,
		logger: log.Named(logger, log.ComponentWorker),
	}
}

// Handle implements amqp.Handler. A returned error requeues the message.
func (w *MirrorWorker) Handle(ctx context.Context, msg *amqp.ShipmentRecordedMessage) error {
	if msg == nil {
		return errors.New("nil message")
	}
	rec, err := msg.Record()
	if err != nil {
		// a message that cannot be decoded will never succeed
		w.logger.Error("dropping malformed message",
			zap.String("message_id", msg.ID), log.ErrorType(log.ErrorTypeValidation), zap.Error(err))
		return nil
	}

	if err := w.target.MirrorRecord(ctx, rec); err != nil {
		w.logger.Error("failed to mirror shipment",
			append(log.Record(rec), log.Op(log.OpMirror), zap.String("message_id", msg.ID), zap.Error(err))...)
		return fmt.Errorf("mirror shipment %s: %w", msg.ID, err)
	}

	w.logger.Info("shipment mirrored", append(log.Record(rec), zap.String("message_id", msg.ID))...)
	return nil
}

var _ amqp.Handler = (*MirrorWorker)(nil).Handle
