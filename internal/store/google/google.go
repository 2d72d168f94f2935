// Package google stores shipment records in one sheet of a Google
// Spreadsheet. Each record is one row; the first row is the header.
package google

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"shipments/internal/core"
	"shipments/internal/log"
	"shipments/internal/store"
)

const backendName = "sheets"

// Credentials selects the service account used to reach the Sheets API.
// JSON wins over File when both are set.
type Credentials struct {
	JSON string
	File string
}

// Config binds a store to one sheet.
type Config struct {
	SpreadsheetID string
	SheetName     string
	Credentials   Credentials
}

type Store struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
	opts          store.Options
}

// Ensure interface conformance
var (
	_ store.Store        = (*Store)(nil)
	_ store.RecordMirror = (*Store)(nil)
)

// Open builds the Sheets service from cfg.Credentials and binds the store.
func Open(ctx context.Context, cfg Config, opts ...store.Option) (*Store, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	if strings.TrimSpace(cfg.SheetName) == "" {
		return nil, errors.New("missing sheet name")
	}
	o := store.NewOptions(opts...)
	svc, err := NewService(ctx, cfg.Credentials, o.Logger)
	if err != nil {
		return nil, store.Unavailable(backendName, "connect", err)
	}
	return New(svc, cfg.SpreadsheetID, cfg.SheetName, opts...), nil
}

// New binds an existing service to a spreadsheet and sheet.
func New(svc *gsheet.Service, spreadsheetID, sheetName string, opts ...store.Option) *Store {
	return &Store{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
		opts:          store.NewOptions(opts...),
	}
}

// NewService initializes a Sheets service using service account credentials.
// Extra client options are appended, which lets tests point it at a fake
// endpoint.
func NewService(ctx context.Context, creds Credentials, logger *zap.Logger, extra ...goption.ClientOption) (*gsheet.Service, error) {
	logger = log.OrNop(logger)

	var credentialsJSON []byte
	switch {
	case strings.TrimSpace(creds.JSON) != "":
		logger.Info("using inline service account credentials")
		credentialsJSON = []byte(creds.JSON)
	case strings.TrimSpace(creds.File) != "":
		logger.Info("reading service account credentials", zap.String("path", creds.File))
		data, err := os.ReadFile(creds.File)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = data
	}

	opts := make([]goption.ClientOption, 0, 2+len(extra))
	if credentialsJSON != nil {
		opts = append(opts,
			goption.WithCredentialsJSON(credentialsJSON),
			goption.WithScopes(gsheet.SpreadsheetsScope))
	}
	opts = append(opts, extra...)
	if len(opts) == 0 {
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return svc, nil
}

// EnsureInitialized adds the sheet when it is missing and writes the header
// row when the first row is empty. Existing rows are never touched.
func (s *Store) EnsureInitialized(ctx context.Context) error {
	ss, err := s.svc.Spreadsheets.Get(s.spreadsheetID).
		Fields("sheets.properties.title").
		Context(ctx).Do()
	if err != nil {
		return store.Unavailable(backendName, log.OpInit, fmt.Errorf("get spreadsheet: %w", err))
	}

	exists := false
	for _, sh := range ss.Sheets {
		if sh.Properties != nil && sh.Properties.Title == s.sheetName {
			exists = true
			break
		}
	}

	if !exists {
		req := &gsheet.BatchUpdateSpreadsheetRequest{
			Requests: []*gsheet.Request{{
				AddSheet: &gsheet.AddSheetRequest{
					Properties: &gsheet.SheetProperties{Title: s.sheetName},
				},
			}},
		}
		if _, err := s.svc.Spreadsheets.BatchUpdate(s.spreadsheetID, req).Context(ctx).Do(); err != nil {
			return store.Unavailable(backendName, log.OpInit, fmt.Errorf("add sheet %q: %w", s.sheetName, err))
		}
		s.opts.Logger.Info("created sheet", zap.String("sheet", s.sheetName))
	}

	headerRange := s.rangeOf("A1:E1")
	vr, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, headerRange).Context(ctx).Do()
	if err != nil {
		return store.Unavailable(backendName, log.OpInit, fmt.Errorf("read header: %w", err))
	}
	if len(vr.Values) > 0 && len(vr.Values[0]) > 0 {
		return nil
	}

	header := make([]interface{}, len(store.Columns))
	for i, c := range store.Columns {
		header[i] = c
	}
	_, err = s.svc.Spreadsheets.Values.Update(s.spreadsheetID, headerRange, &gsheet.ValueRange{
		Values: [][]interface{}{header},
	}).ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return store.Unavailable(backendName, log.OpInit, fmt.Errorf("write header: %w", err))
	}
	return nil
}

// Load reads the whole sheet on every call. Rows that cannot be decoded,
// typically hand edits, are skipped with a warning.
func (s *Store) Load(ctx context.Context) ([]core.ShipmentRecord, error) {
	vr, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, s.rangeOf("A:E")).
		ValueRenderOption("UNFORMATTED_VALUE").
		Context(ctx).Do()
	if err != nil {
		return nil, store.Unavailable(backendName, log.OpLoad, fmt.Errorf("read %s: %w", s.sheetName, err))
	}

	records := make([]core.ShipmentRecord, 0, len(vr.Values))
	for i, raw := range vr.Values {
		if isBlank(raw) {
			continue
		}
		cells := toStrings(raw)
		if i == 0 && store.IsHeader(cells) {
			continue
		}
		rec, err := store.DecodeRow(cells)
		if err != nil {
			s.opts.Logger.Warn("skipping unreadable row",
				zap.String("sheet", s.sheetName), zap.Int("row", i+1), zap.Error(err))
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// Append stamps rec and inserts it as a new row after the last one.
func (s *Store) Append(ctx context.Context, rec core.ShipmentRecord) (core.ShipmentRecord, error) {
	rec = s.opts.Stamp(rec)
	if err := s.appendRow(ctx, rec); err != nil {
		return core.ShipmentRecord{}, store.Unavailable(backendName, log.OpAppend, err)
	}
	s.opts.Logger.Debug("row appended", log.Record(rec)...)
	return rec, nil
}

// MirrorRecord appends rec keeping its RecordedAt.
func (s *Store) MirrorRecord(ctx context.Context, rec core.ShipmentRecord) error {
	if err := s.appendRow(ctx, rec); err != nil {
		return store.Unavailable(backendName, log.OpMirror, err)
	}
	return nil
}

func (s *Store) appendRow(ctx context.Context, rec core.ShipmentRecord) error {
	row := store.EncodeRow(rec)
	// text cells; the quantity keeps every digit
	values := make([]interface{}, len(row))
	for i, cell := range row {
		values[i] = cell
	}
	_, err := s.svc.Spreadsheets.Values.Append(s.spreadsheetID, s.rangeOf("A:E"), &gsheet.ValueRange{
		Values: [][]interface{}{values},
	}).ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append row to %s: %w", s.sheetName, err)
	}
	return nil
}

func (s *Store) rangeOf(cells string) string {
	return quoteSheet(s.sheetName) + "!" + cells
}

// quoteSheet wraps a sheet title for A1 notation.
func quoteSheet(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}

// serialEpoch is day zero of spreadsheet date serial numbers.
var serialEpoch = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)

// toStrings renders unformatted cell values. Numbers in the date and
// timestamp columns are spreadsheet serials left by hand edits.
func toStrings(row []interface{}) []string {
	out := make([]string, len(row))
	for i, v := range row {
		switch x := v.(type) {
		case string:
			out[i] = x
		case float64:
			switch i {
			case 0:
				out[i] = serialToTime(x).Format(core.DateLayout)
			case 4:
				out[i] = core.FormatRecordedAt(serialToTime(x))
			default:
				out[i] = strconv.FormatFloat(x, 'f', -1, 64)
			}
		case bool:
			out[i] = strconv.FormatBool(x)
		case nil:
			out[i] = ""
		default:
			out[i] = fmt.Sprint(x)
		}
	}
	return out
}

// serialToTime converts a serial day count to a wall clock time in the
// local zone, rounded to the second.
func serialToTime(serial float64) time.Time {
	days := math.Floor(serial)
	secs := math.Round((serial - days) * 86400)
	t := serialEpoch.AddDate(0, 0, int(days)).Add(time.Duration(secs) * time.Second)
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.Local)
}

func isBlank(row []interface{}) bool {
	for _, v := range row {
		if s, ok := v.(string); ok && strings.TrimSpace(s) == "" {
			continue
		}
		if v == nil {
			continue
		}
		return false
	}
	return true
}
