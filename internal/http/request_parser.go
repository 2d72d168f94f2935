package http

import (
	"net/url"
	"strings"
	"time"

	"shipments/internal/core"
)

// Form field names of the entry form.
const (
	fieldDate      = "shipment_date"
	fieldStaff     = "staff_name"
	fieldVegetable = "vegetable"
	fieldQuantity  = "quantity"
)

// ParseShipmentForm builds a record from the entry form. The record is
// fully validated against policy, so a nil error means it can be stored.
func ParseShipmentForm(form url.Values, policy core.QuantityPolicy) (core.ShipmentRecord, error) {
	date, err := core.ParseDate(form.Get(fieldDate))
	if err != nil {
		return core.ShipmentRecord{}, err
	}
	qty, err := core.ParseQuantity(form.Get(fieldQuantity), policy)
	if err != nil {
		return core.ShipmentRecord{}, err
	}

	rec := core.ShipmentRecord{
		ShipmentDate: date,
		StaffName:    sanitizeInput(form.Get(fieldStaff)),
		Vegetable:    sanitizeInput(form.Get(fieldVegetable)),
		Quantity:     qty,
	}
	if err := rec.Validate(policy); err != nil {
		return core.ShipmentRecord{}, err
	}
	return rec, nil
}

// ParseDateParam reads an optional date query value. Empty means today in
// the server's local zone.
func ParseDateParam(value string, now time.Time) (core.Date, error) {
	if strings.TrimSpace(value) == "" {
		return core.DateOf(now.In(time.Local)), nil
	}
	return core.ParseDate(value)
}
