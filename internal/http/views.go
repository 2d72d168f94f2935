package http

import (
	"shipments/internal/catalog"
	"shipments/internal/core"
)

type entryView struct {
	Today      string
	Staff      []string
	Vegetables []string
	Step       string
	Min        string
	Unit       string
}

func newEntryView(cat catalog.Catalog, policy core.QuantityPolicy, today core.Date) entryView {
	step := policy.Step().String()
	return entryView{
		Today:      today.String(),
		Staff:      cat.Staff,
		Vegetables: cat.Vegetables,
		Step:       step,
		Min:        step,
		Unit:       policy.Unit,
	}
}

type barView struct {
	Vegetable string
	Quantity  string
	Width     int
}

type rowView struct {
	RecordedAt string
	StaffName  string
	Vegetable  string
	Quantity   string
}

type summaryView struct {
	Date    string
	Today   string
	Unit    string
	Total   string
	Count   int
	Bars    []barView
	Rows    []rowView
	Info    string // nothing recorded at all
	Warning string // nothing for this date
	Error   string
}

func newSummaryView(sum core.DaySummary, policy core.QuantityPolicy, today core.Date) summaryView {
	v := summaryView{
		Date:  sum.Date.String(),
		Today: today.String(),
		Unit:  policy.Unit,
	}
	switch {
	case !sum.HasData():
		v.Info = "No shipments recorded yet."
		return v
	case sum.Empty():
		v.Warning = "No shipments for " + v.Date + "."
		return v
	}

	top := sum.Max()
	v.Total = policy.Format(sum.Total())
	v.Count = len(sum.Records)
	v.Bars = make([]barView, 0, len(sum.Totals))
	for _, t := range sum.Totals {
		v.Bars = append(v.Bars, barView{
			Vegetable: t.Vegetable,
			Quantity:  policy.Format(t.Quantity),
			Width:     barWidth(t.Quantity, top),
		})
	}
	v.Rows = make([]rowView, 0, len(sum.Records))
	for _, r := range sum.Records {
		v.Rows = append(v.Rows, rowView{
			RecordedAt: core.DisplayRecordedAt(r.RecordedAt),
			StaffName:  r.StaffName,
			Vegetable:  r.Vegetable,
			Quantity:   policy.Format(r.Quantity),
		})
	}
	return v
}

type savedView struct {
	ShipmentDate string
	StaffName    string
	Vegetable    string
	Quantity     string
	RecordedAt   string
}

func newSavedView(rec core.ShipmentRecord, policy core.QuantityPolicy) savedView {
	return savedView{
		ShipmentDate: rec.ShipmentDate.String(),
		StaffName:    rec.StaffName,
		Vegetable:    rec.Vegetable,
		Quantity:     policy.Format(rec.Quantity),
		RecordedAt:   core.DisplayRecordedAt(rec.RecordedAt),
	}
}
