package api

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shipments/internal/core"
)

func TestCreateShipmentRequestAcceptsNumberOrString(t *testing.T) {
	for _, body := range []string{
		`{"shipment_date":"2026-01-31","staff_name":" Staff 1 ","vegetable":"Tomato","quantity":2.5}`,
		`{"shipment_date":"2026-01-31","staff_name":"Staff 1","vegetable":"Tomato","quantity":"2.5"}`,
	} {
		var req CreateShipmentRequest
		require.NoError(t, json.Unmarshal([]byte(body), &req))

		rec, err := req.Record()
		require.NoError(t, err)
		assert.Equal(t, "Staff 1", rec.StaffName)
		assert.Equal(t, "2.5", rec.Quantity.String())
		assert.Equal(t, "2026-01-31", rec.ShipmentDate.String())
	}
}

func TestCreateShipmentRequestBadDate(t *testing.T) {
	_, err := CreateShipmentRequest{ShipmentDate: "31/01/2026"}.Record()
	assert.True(t, core.IsValidation(err))
}

func TestFromSummary(t *testing.T) {
	at := time.Date(2026, 1, 30, 9, 0, 0, 0, time.Local)
	records := []core.ShipmentRecord{
		{ShipmentDate: core.NewDate(2026, 1, 31), StaffName: "Staff 1", Vegetable: "Tomato", Quantity: decimal.NewFromInt(3), RecordedAt: at},
		{ShipmentDate: core.NewDate(2026, 1, 31), StaffName: "Staff 2", Vegetable: "Tomato", Quantity: decimal.NewFromInt(2), RecordedAt: at.Add(time.Minute)},
	}

	s := FromSummary(core.BuildDaySummary(records, core.NewDate(2026, 1, 31)))

	assert.Equal(t, "2026-01-31", s.Date)
	require.Len(t, s.Totals, 1)
	assert.Equal(t, "5", s.Total.String())
	require.Len(t, s.Shipments, 2)
	assert.Equal(t, "Staff 2", s.Shipments[0].StaffName, "newest first")

	back, err := s.Shipments[1].Record()
	require.NoError(t, err)
	assert.True(t, back.Equal(records[0]))
}

func TestShipmentRecordedAtCarriesOffset(t *testing.T) {
	at := time.Date(2025, 11, 2, 6, 30, 0, 0, time.UTC)
	rec := core.ShipmentRecord{ShipmentDate: core.NewDate(2025, 11, 2), StaffName: "Staff 1", Vegetable: "Tomato", Quantity: decimal.NewFromInt(1), RecordedAt: at}

	s := FromRecord(rec)
	assert.Equal(t, at.In(time.Local).Format(time.RFC3339), s.RecordedAt)

	back, err := s.Record()
	require.NoError(t, err)
	assert.True(t, back.RecordedAt.Equal(at))

	s.RecordedAt = "2025-11-02 01:30:00"
	_, err = s.Record()
	assert.Error(t, err, "a timestamp without offset is ambiguous")
}

func TestEmptyListEncodesAsArray(t *testing.T) {
	data, err := json.Marshal(FromRecords(nil))
	require.NoError(t, err)
	assert.JSONEq(t, `{"shipments":[],"count":0}`, string(data))
}
