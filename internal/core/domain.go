package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	// DateLayout is the canonical rendering of a shipment date.
	DateLayout = "2006-01-02"
	// RecordedAtLayout is the second-resolution timestamp layout used by every backend.
	RecordedAtLayout = "2006-01-02 15:04:05"
)

type (
	// Date is a calendar day without time of day. The zero value means "unset".
	Date struct {
		time.Time
	}

	// ShipmentRecord is one forecast entry submitted by a staff member.
	ShipmentRecord struct {
		ShipmentDate Date
		StaffName    string
		Vegetable    string
		Quantity     decimal.Decimal
		RecordedAt   time.Time // assigned by the store on append
	}
)

// ErrValidation is wrapped by every input validation failure so callers can
// tell bad input apart from storage problems.
var ErrValidation = errors.New("validation failed")

var (
	ErrInvalidDate         = fmt.Errorf("%w: invalid shipment date", ErrValidation)
	ErrEmptyStaff          = fmt.Errorf("%w: empty staff name", ErrValidation)
	ErrEmptyVegetable      = fmt.Errorf("%w: empty vegetable", ErrValidation)
	ErrInvalidQuantity     = fmt.Errorf("%w: quantity is not a number", ErrValidation)
	ErrNonPositiveQuantity = fmt.Errorf("%w: quantity must be greater than zero", ErrValidation)
	ErrQuantityPrecision   = fmt.Errorf("%w: quantity has too many decimal places", ErrValidation)
)

// IsValidation reports whether err is an input validation failure.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

var dateLayouts = []string{
	DateLayout,
	"2006/01/02",
	RecordedAtLayout,
	time.RFC3339,
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf returns the calendar day of t in t's own location.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// ParseDate accepts the canonical layout plus the slash, timestamp and RFC3339
// forms found in hand-edited sheets. Any time of day is dropped.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, ErrInvalidDate
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return DateOf(t), nil
		}
	}
	return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// SameDay compares year, month and day only.
func (d Date) SameDay(o Date) bool {
	y1, m1, d1 := d.Date()
	y2, m2, d2 := o.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// FormatRecordedAt renders a timestamp the way the stores persist it: UTC,
// without a zone suffix. Local wall clock is ambiguous across DST changes.
func FormatRecordedAt(t time.Time) string {
	return t.UTC().Format(RecordedAtLayout)
}

// ParseRecordedAt reads a persisted timestamp as UTC.
func ParseRecordedAt(s string) (time.Time, error) {
	return time.ParseInLocation(RecordedAtLayout, strings.TrimSpace(s), time.UTC)
}

// DisplayRecordedAt renders a timestamp in the local time zone for people.
func DisplayRecordedAt(t time.Time) string {
	return t.In(time.Local).Format(RecordedAtLayout)
}

// Validate checks the submitted fields. RecordedAt is not checked because the
// store assigns it.
func (r ShipmentRecord) Validate(policy QuantityPolicy) error {
	if err := r.ShipmentDate.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(r.StaffName) == "" {
		return ErrEmptyStaff
	}
	if strings.TrimSpace(r.Vegetable) == "" {
		return ErrEmptyVegetable
	}
	return policy.Validate(r.Quantity)
}

// Equal reports whether both records carry the same values.
func (r ShipmentRecord) Equal(o ShipmentRecord) bool {
	return r.ShipmentDate.SameDay(o.ShipmentDate) &&
		r.StaffName == o.StaffName &&
		r.Vegetable == o.Vegetable &&
		r.Quantity.Equal(o.Quantity) &&
		r.RecordedAt.Equal(o.RecordedAt)
}
