package core

import (
	"errors"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/shopspring/decimal"
)

func qty(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestParseDate(t *testing.T) {
	cases := []struct {
		in   string
		want Date
		ok   bool
	}{
		{"2026-01-31", NewDate(2026, 1, 31), true},
		{" 2026-01-31 ", NewDate(2026, 1, 31), true},
		{"2026/01/31", NewDate(2026, 1, 31), true},
		{"2026-01-31 17:45:02", NewDate(2026, 1, 31), true},
		{"2026-01-31T23:30:00+09:00", NewDate(2026, 1, 31), true},
		{"", Date{}, false},
		{"31/01/2026", Date{}, false},
		{"tomorrow", Date{}, false},
	}
	for _, tc := range cases {
		got, err := ParseDate(tc.in)
		if tc.ok && err != nil {
			t.Fatalf("ParseDate(%q) unexpected error: %v", tc.in, err)
		}
		if !tc.ok {
			if !errors.Is(err, ErrInvalidDate) {
				t.Fatalf("ParseDate(%q) expected ErrInvalidDate, got %v", tc.in, err)
			}
			continue
		}
		if !got.SameDay(tc.want) || got.String() != tc.want.String() {
			t.Fatalf("ParseDate(%q) = %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestDateSameDayIgnoresClock(t *testing.T) {
	a := DateOf(time.Date(2026, 1, 31, 8, 0, 0, 0, time.Local))
	if !a.SameDay(NewDate(2026, 1, 31)) {
		t.Fatalf("expected same day")
	}
	if a.SameDay(NewDate(2026, 2, 1)) {
		t.Fatalf("expected different day")
	}
	if (Date{}).String() != "" {
		t.Fatalf("zero date should render empty")
	}
}

func TestRecordedAtRoundTrip(t *testing.T) {
	at := time.Date(2026, 1, 30, 17, 45, 2, 0, time.Local)
	got, err := ParseRecordedAt(FormatRecordedAt(at))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !got.Equal(at) {
		t.Fatalf("got %v, want %v", got, at)
	}
}

func TestRecordedAtAcrossDaylightSavingEnd(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	// Both instants read 01:30 on a New York wall clock.
	first := time.Date(2025, 11, 2, 5, 30, 0, 0, time.UTC).In(ny)
	second := time.Date(2025, 11, 2, 6, 30, 0, 0, time.UTC).In(ny)

	a, b := FormatRecordedAt(first), FormatRecordedAt(second)
	if a != "2025-11-02 05:30:00" || b != "2025-11-02 06:30:00" {
		t.Fatalf("stored as %q and %q", a, b)
	}
	for _, want := range []time.Time{first, second} {
		got, err := ParseRecordedAt(FormatRecordedAt(want))
		if err != nil {
			t.Fatalf("parse: %v", err)
		}
		if !got.Equal(want) {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestDisplayRecordedAtUsesLocalZone(t *testing.T) {
	at := time.Date(2026, 1, 30, 17, 45, 2, 0, time.UTC)
	if got, want := DisplayRecordedAt(at), at.In(time.Local).Format(RecordedAtLayout); got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestShipmentRecordValidate(t *testing.T) {
	good := ShipmentRecord{
		ShipmentDate: NewDate(2026, 1, 31),
		StaffName:    "Staff 3",
		Vegetable:    "Tomato",
		Quantity:     qty("12.5"),
	}
	if err := good.Validate(FractionalPolicy); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*ShipmentRecord)
		policy QuantityPolicy
		want   error
	}{
		{"zero date", func(r *ShipmentRecord) { r.ShipmentDate = Date{} }, FractionalPolicy, ErrInvalidDate},
		{"blank staff", func(r *ShipmentRecord) { r.StaffName = "  " }, FractionalPolicy, ErrEmptyStaff},
		{"blank vegetable", func(r *ShipmentRecord) { r.Vegetable = "" }, FractionalPolicy, ErrEmptyVegetable},
		{"zero quantity", func(r *ShipmentRecord) { r.Quantity = decimal.Zero }, FractionalPolicy, ErrNonPositiveQuantity},
		{"negative quantity", func(r *ShipmentRecord) { r.Quantity = qty("-1") }, FractionalPolicy, ErrNonPositiveQuantity},
		{"fraction under integer policy", func(r *ShipmentRecord) {}, IntegerPolicy, ErrQuantityPrecision},
		{"three decimals", func(r *ShipmentRecord) { r.Quantity = qty("1.125") }, FractionalPolicy, ErrQuantityPrecision},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := good
			tc.mutate(&r)
			err := r.Validate(tc.policy)
			if !errors.Is(err, tc.want) {
				t.Fatalf("got %v, want %v", err, tc.want)
			}
			if !IsValidation(err) {
				t.Fatalf("expected a validation error, got %v", err)
			}
		})
	}
}

func TestShipmentRecordEqual(t *testing.T) {
	at := time.Date(2026, 1, 30, 17, 45, 2, 0, time.Local)
	a := ShipmentRecord{NewDate(2026, 1, 31), "Staff 3", "Tomato", qty("2.50"), at}
	b := ShipmentRecord{NewDate(2026, 1, 31), "Staff 3", "Tomato", qty("2.5"), at.In(time.UTC)}
	if !a.Equal(b) {
		t.Fatalf("expected equal records")
	}
	b.Vegetable = "Cucumber"
	if a.Equal(b) {
		t.Fatalf("expected records to differ")
	}
}
