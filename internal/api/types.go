// Package api defines the JSON bodies of the /api/v1 endpoints. The server
// and the Go client share these types.
package api

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"shipments/internal/core"
)

// BasePath prefixes every JSON endpoint.
const BasePath = "/api/v1"

// Error codes returned in Error.Code.
const (
	CodeInvalidRequest   = "invalid_request"
	CodeValidationFailed = "validation_failed"
	CodeStoreUnavailable = "store_unavailable"
)

type (
	// Catalog lists the suggestions offered by the entry form.
	Catalog struct {
		Staff          []string `json:"staff"`
		Vegetables     []string `json:"vegetables"`
		QuantityPolicy string   `json:"quantity_policy"`
		QuantityUnit   string   `json:"quantity_unit,omitempty"`
		QuantityStep   string   `json:"quantity_step"`
	}

	// CreateShipmentRequest is the body of POST /shipments. Quantity may be
	// sent as a JSON number or a string.
	CreateShipmentRequest struct {
		ShipmentDate string          `json:"shipment_date"`
		StaffName    string          `json:"staff_name"`
		Vegetable    string          `json:"vegetable"`
		Quantity     decimal.Decimal `json:"quantity"`
	}

	Shipment struct {
		ShipmentDate string          `json:"shipment_date"`
		StaffName    string          `json:"staff_name"`
		Vegetable    string          `json:"vegetable"`
		Quantity     decimal.Decimal `json:"quantity"`
		RecordedAt   string          `json:"recorded_at"` // RFC 3339, local offset
	}

	ShipmentList struct {
		Shipments []Shipment `json:"shipments"`
		Count     int        `json:"count"`
	}

	VegetableTotal struct {
		Vegetable string          `json:"vegetable"`
		Quantity  decimal.Decimal `json:"quantity"`
	}

	// Summary is the aggregate of one shipment date.
	Summary struct {
		Date        string           `json:"date"`
		Totals      []VegetableTotal `json:"totals"`
		Total       decimal.Decimal  `json:"total"`
		Shipments   []Shipment       `json:"shipments"`
		DatasetSize int              `json:"dataset_size"`
	}

	Error struct {
		Error string `json:"error"`
		Code  string `json:"code,omitempty"`
	}
)

// Record converts the request into a record to validate and store. Only
// the date is checked here.
func (r CreateShipmentRequest) Record() (core.ShipmentRecord, error) {
	date, err := core.ParseDate(r.ShipmentDate)
	if err != nil {
		return core.ShipmentRecord{}, err
	}
	return core.ShipmentRecord{
		ShipmentDate: date,
		StaffName:    strings.TrimSpace(r.StaffName),
		Vegetable:    strings.TrimSpace(r.Vegetable),
		Quantity:     r.Quantity,
	}, nil
}

func FromRecord(rec core.ShipmentRecord) Shipment {
	return Shipment{
		ShipmentDate: rec.ShipmentDate.String(),
		StaffName:    rec.StaffName,
		Vegetable:    rec.Vegetable,
		Quantity:     rec.Quantity,
		RecordedAt:   rec.RecordedAt.In(time.Local).Format(time.RFC3339),
	}
}

// Record parses a shipment returned by the server.
func (s Shipment) Record() (core.ShipmentRecord, error) {
	date, err := core.ParseDate(s.ShipmentDate)
	if err != nil {
		return core.ShipmentRecord{}, err
	}
	at, err := time.Parse(time.RFC3339, s.RecordedAt)
	if err != nil {
		return core.ShipmentRecord{}, fmt.Errorf("recorded_at %q: %w", s.RecordedAt, err)
	}
	return core.ShipmentRecord{
		ShipmentDate: date,
		StaffName:    s.StaffName,
		Vegetable:    s.Vegetable,
		Quantity:     s.Quantity,
		RecordedAt:   at,
	}, nil
}

func FromRecords(records []core.ShipmentRecord) ShipmentList {
	out := make([]Shipment, 0, len(records))
	for _, r := range records {
		out = append(out, FromRecord(r))
	}
	return ShipmentList{Shipments: out, Count: len(out)}
}

func FromSummary(s core.DaySummary) Summary {
	totals := make([]VegetableTotal, 0, len(s.Totals))
	for _, t := range s.Totals {
		totals = append(totals, VegetableTotal{Vegetable: t.Vegetable, Quantity: t.Quantity})
	}
	return Summary{
		Date:        s.Date.String(),
		Totals:      totals,
		Total:       s.Total(),
		Shipments:   FromRecords(s.Records).Shipments,
		DatasetSize: s.DatasetSize,
	}
}
