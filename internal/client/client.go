// Package client talks to the shipments JSON API. It backs the shipmentsctl
// command.
package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"shipments/internal/api"
	"shipments/internal/core"
)

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("shipments api: %d %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("shipments api: %d: %s", e.Status, e.Message)
}

// IsUnavailable reports whether the server could not reach its store.
func IsUnavailable(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == api.CodeStoreUnavailable
}

// Client is a resty-backed client of the /api/v1 endpoints.
type Client struct {
	http *resty.Client
}

// New builds a client for the server at baseURL, e.g. http://localhost:8081.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	r := resty.New().
		SetBaseURL(strings.TrimSuffix(baseURL, "/")+api.BasePath).
		SetHeader("Accept", "application/json").
		SetTimeout(timeout)
	return &Client{http: r}
}

// Catalog fetches the staff roster, vegetables and quantity policy.
func (c *Client) Catalog(ctx context.Context) (api.Catalog, error) {
	var out api.Catalog
	if err := c.get(ctx, "/catalog", nil, &out); err != nil {
		return api.Catalog{}, err
	}
	return out, nil
}

// Record submits one shipment and returns it as stored.
func (c *Client) Record(ctx context.Context, req api.CreateShipmentRequest) (api.Shipment, error) {
	var out api.Shipment
	apiErr := new(api.Error)

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(req).
		SetResult(&out).
		SetError(apiErr).
		Post("/shipments")
	if err != nil {
		return api.Shipment{}, fmt.Errorf("record shipment: %w", err)
	}
	if err := checkResponse(resp, apiErr); err != nil {
		return api.Shipment{}, err
	}
	return out, nil
}

// List returns every shipment, or those of date when it is set.
func (c *Client) List(ctx context.Context, date *core.Date) (api.ShipmentList, error) {
	params := map[string]string{}
	if date != nil {
		params["date"] = date.String()
	}
	var out api.ShipmentList
	if err := c.get(ctx, "/shipments", params, &out); err != nil {
		return api.ShipmentList{}, err
	}
	return out, nil
}

// Summary fetches the aggregate of date; the zero date asks for today.
func (c *Client) Summary(ctx context.Context, date core.Date) (api.Summary, error) {
	params := map[string]string{}
	if !date.IsZero() {
		params["date"] = date.String()
	}
	var out api.Summary
	if err := c.get(ctx, "/summary", params, &out); err != nil {
		return api.Summary{}, err
	}
	return out, nil
}

func (c *Client) get(ctx context.Context, path string, params map[string]string, result any) error {
	apiErr := new(api.Error)
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(params).
		SetResult(result).
		SetError(apiErr).
		Get(path)
	if err != nil {
		return fmt.Errorf("get %s: %w", path, err)
	}
	return checkResponse(resp, apiErr)
}

func checkResponse(resp *resty.Response, apiErr *api.Error) error {
	if resp.StatusCode() < http.StatusBadRequest {
		return nil
	}
	msg := apiErr.Error
	if msg == "" {
		msg = strings.TrimSpace(resp.String())
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode())
	}
	return &APIError{Status: resp.StatusCode(), Code: apiErr.Code, Message: msg}
}
