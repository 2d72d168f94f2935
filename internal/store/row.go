package store

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"shipments/internal/core"
)

// Column names of the tabular backends, in storage order.
const (
	ColShipmentDate = "shipment_date"
	ColStaffName    = "staff_name"
	ColVegetable    = "vegetable"
	ColQuantity     = "quantity"
	ColRecordedAt   = "recorded_at"
)

// Columns is the header row written by the file and spreadsheet backends.
var Columns = []string{ColShipmentDate, ColStaffName, ColVegetable, ColQuantity, ColRecordedAt}

// IsHeader reports whether row is the column header, ignoring case, padding
// and a leading byte order mark.
func IsHeader(row []string) bool {
	if len(row) < len(Columns) {
		return false
	}
	for i, col := range Columns {
		cell := strings.TrimSpace(row[i])
		if i == 0 {
			cell = strings.TrimPrefix(cell, "\ufeff")
		}
		if !strings.EqualFold(cell, col) {
			return false
		}
	}
	return true
}

// EncodeRow renders rec in column order.
func EncodeRow(rec core.ShipmentRecord) []string {
	return []string{
		rec.ShipmentDate.String(),
		rec.StaffName,
		rec.Vegetable,
		rec.Quantity.String(),
		core.FormatRecordedAt(rec.RecordedAt),
	}
}

// DecodeRow parses a stored row. Extra trailing cells are ignored. The
// quantity is read as stored; positivity is an input rule, not a storage one.
func DecodeRow(row []string) (core.ShipmentRecord, error) {
	if len(row) < len(Columns) {
		return core.ShipmentRecord{}, fmt.Errorf("expected %d columns, got %d", len(Columns), len(row))
	}
	date, err := core.ParseDate(row[0])
	if err != nil {
		return core.ShipmentRecord{}, fmt.Errorf("%s: %w", ColShipmentDate, err)
	}
	q, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(row[3]), ",", "."))
	if err != nil {
		return core.ShipmentRecord{}, fmt.Errorf("%s %q: %w", ColQuantity, row[3], err)
	}
	at, err := core.ParseRecordedAt(row[4])
	if err != nil {
		return core.ShipmentRecord{}, fmt.Errorf("%s %q: %w", ColRecordedAt, row[4], err)
	}
	return core.ShipmentRecord{
		ShipmentDate: date,
		StaffName:    row[1],
		Vegetable:    row[2],
		Quantity:     q,
		RecordedAt:   at,
	}, nil
}
