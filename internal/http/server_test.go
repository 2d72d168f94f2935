package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/goleak"

	"shipments/internal/api"
	"shipments/internal/catalog"
	"shipments/internal/core"
	"shipments/internal/middleware/ratelimit"
	"shipments/internal/services"
	"shipments/internal/store"
	"shipments/internal/store/memory"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func qty(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

var testNow = time.Date(2026, 1, 30, 9, 0, 0, 0, time.Local)

// downStore fails every call the way an unreachable backend does.
type downStore struct{}

func (downStore) EnsureInitialized(context.Context) error {
	return store.Unavailable("test", "ensure_initialized", errors.New("connection refused"))
}

func (downStore) Load(context.Context) ([]core.ShipmentRecord, error) {
	return nil, store.Unavailable("test", "load", errors.New("connection refused"))
}

func (downStore) Append(context.Context, core.ShipmentRecord) (core.ShipmentRecord, error) {
	return core.ShipmentRecord{}, store.Unavailable("test", "append", errors.New("connection refused"))
}

func seed() []core.ShipmentRecord {
	d := core.NewDate(2026, 1, 31)
	at := func(h int) time.Time { return time.Date(2026, 1, 30, h, 0, 0, 0, time.Local) }
	return []core.ShipmentRecord{
		{ShipmentDate: d, StaffName: "Staff 1", Vegetable: "Tomato", Quantity: qty("5"), RecordedAt: at(8)},
		{ShipmentDate: d, StaffName: "Staff 2", Vegetable: "Cucumber", Quantity: qty("2.5"), RecordedAt: at(9)},
		{ShipmentDate: d, StaffName: "Staff 3", Vegetable: "Tomato", Quantity: qty("3"), RecordedAt: at(10)},
		{ShipmentDate: core.NewDate(2026, 2, 1), StaffName: "Staff 1", Vegetable: "Lettuce", Quantity: qty("1"), RecordedAt: at(11)},
	}
}

func newTestServer(t *testing.T, st store.Store, opts ...func(*Options)) *Server {
	t.Helper()
	o := Options{Now: func() time.Time { return testNow }}
	for _, fn := range opts {
		fn(&o)
	}
	svc := services.NewShipmentService(st)
	srv := NewServer(":0", svc, catalog.Default(), o)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv
}

func do(srv *Server, method, target string, body string, headers map[string]string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

var formHeaders = map[string]string{"Content-Type": "application/x-www-form-urlencoded"}

func entryForm(quantity string) string {
	return url.Values{
		"shipment_date": {"2026-01-31"},
		"staff_name":    {"Staff 4"},
		"vegetable":     {"Eggplant"},
		"quantity":      {quantity},
	}.Encode()
}

func TestHealthAndReadiness(t *testing.T) {
	srv := newTestServer(t, memory.New())
	for _, path := range []string{"/healthz", "/readyz"} {
		if rr := do(srv, http.MethodGet, path, "", nil); rr.Code != http.StatusOK {
			t.Fatalf("%s status=%d", path, rr.Code)
		}
	}

	down := newTestServer(t, downStore{})
	if rr := do(down, http.MethodGet, "/healthz", "", nil); rr.Code != http.StatusOK {
		t.Fatalf("healthz should not depend on the store, got %d", rr.Code)
	}
	if rr := do(down, http.MethodGet, "/readyz", "", nil); rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("readyz status=%d, want 503", rr.Code)
	}
}

func TestEntryPage(t *testing.T) {
	srv := newTestServer(t, memory.New())

	rr := do(srv, http.MethodGet, "/", "", nil)
	if rr.Code != http.StatusFound || rr.Header().Get("Location") != "/entry" {
		t.Fatalf("root should redirect to /entry, got %d %q", rr.Code, rr.Header().Get("Location"))
	}

	rr = do(srv, http.MethodGet, "/entry", "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("entry status=%d", rr.Code)
	}
	body := rr.Body.String()
	for _, want := range []string{"Shipment forecast", `value="2026-01-30"`, "Staff 15", "Green pepper", `step="0.01"`} {
		if !strings.Contains(body, want) {
			t.Errorf("entry page missing %q", want)
		}
	}
	if rr.Header().Get("Content-Security-Policy") == "" {
		t.Error("security headers not applied")
	}
}

func TestCreateShipmentForm(t *testing.T) {
	st := memory.New(store.WithClock(func() time.Time { return testNow }))
	srv := newTestServer(t, st)

	rr := do(srv, http.MethodGet, "/shipments", "", nil)
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("GET /shipments status=%d, want 405", rr.Code)
	}

	rr = do(srv, http.MethodPost, "/shipments", entryForm("0"), formHeaders)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("zero quantity status=%d, want 422", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "Please enter a quantity.") {
		t.Errorf("unexpected body %q", rr.Body.String())
	}

	rr = do(srv, http.MethodPost, "/shipments", entryForm("4.25"), formHeaders)
	if rr.Code != http.StatusOK {
		t.Fatalf("valid entry status=%d body=%s", rr.Code, rr.Body.String())
	}
	trigger := rr.Header().Get("HX-Trigger")
	for _, want := range []string{"shipment:recorded", "form:reset", "show-notification"} {
		if !strings.Contains(trigger, want) {
			t.Errorf("HX-Trigger %q missing %s", trigger, want)
		}
	}
	if !strings.Contains(rr.Body.String(), "4.25 kg of Eggplant") {
		t.Errorf("confirmation fragment missing record: %q", rr.Body.String())
	}

	records, err := st.Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 || !records[0].RecordedAt.Equal(testNow) {
		t.Fatalf("records = %+v", records)
	}
}

func TestCreateShipmentStoreDown(t *testing.T) {
	srv := newTestServer(t, downStore{})
	rr := do(srv, http.MethodPost, "/shipments", entryForm("1"), formHeaders)
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d, want 500", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "could not be saved") {
		t.Errorf("unexpected body %q", rr.Body.String())
	}
	if trigger := rr.Header().Get("HX-Trigger"); !strings.Contains(trigger, `"type":"error"`) {
		t.Errorf("HX-Trigger %q should carry an error notification", trigger)
	}
}

func TestSummaryPage(t *testing.T) {
	srv := newTestServer(t, memory.NewWithRecords(seed()))

	rr := do(srv, http.MethodGet, "/summary?date=2026-01-31", "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	body := rr.Body.String()
	for _, want := range []string{"8 kg", "2.5 kg", "10.5 kg", "width: 100%", "<html"} {
		if !strings.Contains(body, want) {
			t.Errorf("summary missing %q", want)
		}
	}
	if strings.Index(body, "Staff 3") > strings.Index(body, "Staff 1") {
		t.Error("detail rows should be newest first")
	}

	rr = do(srv, http.MethodGet, "/summary?date=2026-03-01", "", map[string]string{"HX-Request": "true"})
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "No shipments for 2026-03-01.") {
		t.Errorf("missing warning: %q", rr.Body.String())
	}
	if strings.Contains(rr.Body.String(), "<html") {
		t.Error("HTMX request should get the panel only")
	}

	rr = do(srv, http.MethodGet, "/summary?date=someday", "", nil)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("bad date status=%d", rr.Code)
	}
}

func TestSummaryPageEmptyAndDown(t *testing.T) {
	srv := newTestServer(t, memory.New())
	rr := do(srv, http.MethodGet, "/summary", "", nil)
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "No shipments recorded yet.") {
		t.Fatalf("empty store: %d %q", rr.Code, rr.Body.String())
	}

	down := newTestServer(t, downStore{})
	rr = do(down, http.MethodGet, "/summary", "", nil)
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status=%d, want 503", rr.Code)
	}
}

func TestAPI(t *testing.T) {
	srv := newTestServer(t, memory.NewWithRecords(seed()))
	jsonHeaders := map[string]string{"Content-Type": "application/json"}

	rr := do(srv, http.MethodGet, api.BasePath+"/catalog", "", nil)
	var cat api.Catalog
	if err := json.Unmarshal(rr.Body.Bytes(), &cat); err != nil {
		t.Fatal(err)
	}
	if cat.QuantityPolicy != "fractional" || cat.QuantityStep != "0.01" || len(cat.Staff) != catalog.DefaultStaffCount {
		t.Errorf("catalog = %+v", cat)
	}

	rr = do(srv, http.MethodPost, api.BasePath+"/shipments",
		`{"shipment_date":"2026-01-31","staff_name":"Staff 5","vegetable":"Cucumber","quantity":1.5}`, jsonHeaders)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create status=%d body=%s", rr.Code, rr.Body.String())
	}

	rr = do(srv, http.MethodPost, api.BasePath+"/shipments",
		`{"shipment_date":"2026-01-31","staff_name":"Staff 5","vegetable":"Cucumber","quantity":"-1"}`, jsonHeaders)
	if rr.Code != http.StatusUnprocessableEntity || !strings.Contains(rr.Body.String(), api.CodeValidationFailed) {
		t.Fatalf("invalid create: %d %s", rr.Code, rr.Body.String())
	}

	rr = do(srv, http.MethodPost, api.BasePath+"/shipments", `{`, jsonHeaders)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("malformed JSON status=%d", rr.Code)
	}

	rr = do(srv, http.MethodGet, api.BasePath+"/shipments?date=2026-01-31", "", nil)
	var list api.ShipmentList
	if err := json.Unmarshal(rr.Body.Bytes(), &list); err != nil {
		t.Fatal(err)
	}
	if list.Count != 4 {
		t.Errorf("filtered count = %d, want 4", list.Count)
	}

	rr = do(srv, http.MethodGet, api.BasePath+"/summary?date=2026-01-31", "", nil)
	var sum api.Summary
	if err := json.Unmarshal(rr.Body.Bytes(), &sum); err != nil {
		t.Fatal(err)
	}
	if len(sum.Totals) != 2 || sum.Totals[0].Vegetable != "Tomato" || !sum.Totals[1].Quantity.Equal(qty("4")) {
		t.Errorf("summary totals = %+v", sum.Totals)
	}
	if !sum.Total.Equal(qty("12")) || sum.DatasetSize != 5 {
		t.Errorf("summary = %+v", sum)
	}

	down := newTestServer(t, downStore{})
	rr = do(down, http.MethodGet, api.BasePath+"/shipments", "", nil)
	if rr.Code != http.StatusServiceUnavailable || !strings.Contains(rr.Body.String(), api.CodeStoreUnavailable) {
		t.Fatalf("down store: %d %s", rr.Code, rr.Body.String())
	}
}

func TestRateLimitOnWrites(t *testing.T) {
	srv := newTestServer(t, memory.New(), func(o *Options) {
		o.RateLimit = ratelimit.Config{RequestsPerMinute: 2}
	})

	for i := 0; i < 2; i++ {
		if rr := do(srv, http.MethodPost, "/shipments", entryForm("1"), formHeaders); rr.Code != http.StatusOK {
			t.Fatalf("request %d status=%d", i, rr.Code)
		}
	}
	if rr := do(srv, http.MethodPost, "/shipments", entryForm("1"), formHeaders); rr.Code != http.StatusTooManyRequests {
		t.Fatalf("third write status=%d, want 429", rr.Code)
	}
	if rr := do(srv, http.MethodGet, "/summary", "", nil); rr.Code != http.StatusOK {
		t.Fatalf("reads are not limited, got %d", rr.Code)
	}
}
