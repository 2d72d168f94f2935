package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"shipments/internal/core"
)

// ShipmentRecordedMessage announces a record that has been stored locally.
// It carries the whole stamped record so consumers never read the store.
type ShipmentRecordedMessage struct {
	ID           string          `json:"id"`
	ShipmentDate string          `json:"shipment_date"`
	StaffName    string          `json:"staff_name"`
	Vegetable    string          `json:"vegetable"`
	Quantity     decimal.Decimal `json:"quantity"`
	RecordedAt   time.Time       `json:"recorded_at"`
	Timestamp    time.Time       `json:"timestamp"`
}

// NewShipmentRecordedMessage wraps rec with a fresh message ID.
func NewShipmentRecordedMessage(rec core.ShipmentRecord) *ShipmentRecordedMessage {
	return &ShipmentRecordedMessage{
		ID:           uuid.NewString(),
		ShipmentDate: rec.ShipmentDate.String(),
		StaffName:    rec.StaffName,
		Vegetable:    rec.Vegetable,
		Quantity:     rec.Quantity,
		RecordedAt:   rec.RecordedAt,
		Timestamp:    time.Now(),
	}
}

// Record rebuilds the stored record. RecordedAt is returned in UTC.
func (m *ShipmentRecordedMessage) Record() (core.ShipmentRecord, error) {
	date, err := core.ParseDate(m.ShipmentDate)
	if err != nil {
		return core.ShipmentRecord{}, fmt.Errorf("message %s: %w", m.ID, err)
	}
	return core.ShipmentRecord{
		ShipmentDate: date,
		StaffName:    m.StaffName,
		Vegetable:    m.Vegetable,
		Quantity:     m.Quantity,
		RecordedAt:   m.RecordedAt.UTC(),
	}, nil
}

// ToJSON converts the message to JSON bytes
func (m *ShipmentRecordedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ShipmentRecordedMessageFromJSON creates a message from JSON bytes
func ShipmentRecordedMessageFromJSON(data []byte) (*ShipmentRecordedMessage, error) {
	var msg ShipmentRecordedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
