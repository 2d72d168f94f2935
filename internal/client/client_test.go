package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shipments/internal/api"
	"shipments/internal/core"
)

func TestRecord(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/shipments", r.URL.Path)

		var req api.CreateShipmentRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(api.Shipment{
			ShipmentDate: req.ShipmentDate,
			StaffName:    req.StaffName,
			Vegetable:    req.Vegetable,
			Quantity:     req.Quantity,
			RecordedAt:   "2026-01-30T09:00:00+01:00",
		})
	}))
	defer srv.Close()

	c := New(srv.URL+"/", 0)
	got, err := c.Record(context.Background(), api.CreateShipmentRequest{
		ShipmentDate: "2026-01-31",
		StaffName:    "Staff 1",
		Vegetable:    "Tomato",
		Quantity:     decimal.RequireFromString("2.5"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Tomato", got.Vegetable)
	assert.Equal(t, "2.5", got.Quantity.String())
	assert.Equal(t, "2026-01-30T09:00:00+01:00", got.RecordedAt)
}

func TestListAndSummaryQuery(t *testing.T) {
	var queries []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		queries = append(queries, r.URL.Path+"?"+r.URL.RawQuery)
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/v1/shipments":
			_, _ = w.Write([]byte(`{"shipments":[],"count":0}`))
		case "/api/v1/summary":
			_, _ = w.Write([]byte(`{"date":"2026-01-31","totals":[{"vegetable":"Tomato","quantity":"8"}],"total":"8","shipments":[],"dataset_size":3}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := New(srv.URL, 0)
	ctx := context.Background()
	d := core.NewDate(2026, 1, 31)

	list, err := c.List(ctx, &d)
	require.NoError(t, err)
	assert.Equal(t, 0, list.Count)

	_, err = c.List(ctx, nil)
	require.NoError(t, err)

	sum, err := c.Summary(ctx, d)
	require.NoError(t, err)
	require.Len(t, sum.Totals, 1)
	assert.Equal(t, "8", sum.Total.String())
	assert.Equal(t, 3, sum.DatasetSize)

	assert.Equal(t, []string{
		"/api/v1/shipments?date=2026-01-31",
		"/api/v1/shipments?",
		"/api/v1/summary?date=2026-01-31",
	}, queries)
}

func TestErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/catalog":
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"error":"shipment store is unavailable","code":"store_unavailable"}`))
		default:
			http.Error(w, "boom", http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	c := New(srv.URL, 0)
	_, err := c.Catalog(context.Background())
	require.Error(t, err)
	assert.True(t, IsUnavailable(err))

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.Status)
	assert.Equal(t, "shipment store is unavailable", apiErr.Message)

	_, err = c.Summary(context.Background(), core.Date{})
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
	assert.Equal(t, "boom", apiErr.Message)
	assert.False(t, IsUnavailable(err))
}
