package core

import (
	"slices"

	"github.com/shopspring/decimal"
)

// CategoryTotal is the summed quantity of one vegetable.
type CategoryTotal struct {
	Vegetable string
	Quantity  decimal.Decimal
}

// DaySummary is everything the supervisor view shows for one date.
type DaySummary struct {
	Date        Date
	Totals      []CategoryTotal
	Records     []ShipmentRecord // newest first
	DatasetSize int              // number of records in the whole store
}

// FilterByDate keeps the records whose shipment date equals date.
func FilterByDate(records []ShipmentRecord, date Date) []ShipmentRecord {
	out := make([]ShipmentRecord, 0)
	for _, r := range records {
		if r.ShipmentDate.SameDay(date) {
			out = append(out, r)
		}
	}
	return out
}

// Summarize groups the records of date by vegetable and sums their
// quantities. Vegetables are listed in order of first appearance. No match
// yields an empty slice.
func Summarize(records []ShipmentRecord, date Date) []CategoryTotal {
	totals := make([]CategoryTotal, 0)
	index := make(map[string]int)
	for _, r := range records {
		if !r.ShipmentDate.SameDay(date) {
			continue
		}
		i, ok := index[r.Vegetable]
		if !ok {
			index[r.Vegetable] = len(totals)
			totals = append(totals, CategoryTotal{Vegetable: r.Vegetable, Quantity: r.Quantity})
			continue
		}
		totals[i].Quantity = totals[i].Quantity.Add(r.Quantity)
	}
	return totals
}

// BuildDaySummary combines the totals with the detail rows of date.
func BuildDaySummary(records []ShipmentRecord, date Date) DaySummary {
	totals := Summarize(records, date)
	matched := FilterByDate(records, date)
	slices.SortStableFunc(matched, func(a, b ShipmentRecord) int {
		return b.RecordedAt.Compare(a.RecordedAt)
	})
	return DaySummary{
		Date:        date,
		Totals:      totals,
		Records:     matched,
		DatasetSize: len(records),
	}
}

// HasData reports whether anything at all has been recorded.
func (s DaySummary) HasData() bool {
	return s.DatasetSize > 0
}

// Empty reports whether nothing matched the date.
func (s DaySummary) Empty() bool {
	return len(s.Totals) == 0
}

// Max returns the largest category total, zero when empty.
func (s DaySummary) Max() decimal.Decimal {
	top := decimal.Zero
	for _, t := range s.Totals {
		if t.Quantity.GreaterThan(top) {
			top = t.Quantity
		}
	}
	return top
}

// Total sums all categories.
func (s DaySummary) Total() decimal.Decimal {
	sum := decimal.Zero
	for _, t := range s.Totals {
		sum = sum.Add(t.Quantity)
	}
	return sum
}
