// Package sqlite stores shipment records in a SQLite database file.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	msqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"

	"shipments/internal/core"
	"shipments/internal/log"
	"shipments/internal/store"

	_ "modernc.org/sqlite"
)

const backendName = "sqlite"

//go:embed migrations/*.sql
var migrations embed.FS

type Store struct {
	db     *sql.DB
	dbPath string
	opts   store.Options
}

var (
	_ store.Store        = (*Store)(nil)
	_ store.RecordMirror = (*Store)(nil)
)

// Open connects to the database at dbPath, creating its directory.
// EnsureInitialized must run before the first Load or Append.
func Open(dbPath string, opts ...store.Option) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, store.Unavailable(backendName, "open", fmt.Errorf("create db directory: %w", err))
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, store.Unavailable(backendName, "open", err)
	}
	// single connection: writes are serialized
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, store.Unavailable(backendName, "open", fmt.Errorf("ping database: %w", err))
	}

	return &Store{db: db, dbPath: dbPath, opts: store.NewOptions(opts...)}, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// EnsureInitialized applies pending migrations.
func (s *Store) EnsureInitialized(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return store.Unavailable(backendName, log.OpInit, err)
	}
	return store.Unavailable(backendName, log.OpInit, s.applyMigrations())
}

// applyMigrations runs on a connection of its own because the migrate
// driver closes the handle it is given.
func (s *Store) applyMigrations() error {
	conn, err := sql.Open("sqlite", s.dbPath)
	if err != nil {
		return fmt.Errorf("open migration connection: %w", err)
	}
	driver, err := msqlite.WithInstance(conn, &msqlite.Config{})
	if err != nil {
		conn.Close()
		return fmt.Errorf("sqlite migration driver: %w", err)
	}
	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		driver.Close()
		return fmt.Errorf("embedded migrations: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, backendName, driver)
	if err != nil {
		driver.Close()
		return fmt.Errorf("migrator: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate up: %w", err)
	}
	return nil
}

func (s *Store) Load(ctx context.Context) ([]core.ShipmentRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT shipment_date, staff_name, vegetable, quantity, recorded_at FROM shipments ORDER BY id`)
	if err != nil {
		return nil, store.Unavailable(backendName, log.OpLoad, err)
	}
	defer rows.Close()

	records := make([]core.ShipmentRecord, 0)
	for rows.Next() {
		var date, staff, veg, qty, at string
		if err := rows.Scan(&date, &staff, &veg, &qty, &at); err != nil {
			return nil, store.Unavailable(backendName, log.OpLoad, err)
		}
		rec, err := store.DecodeRow([]string{date, staff, veg, qty, at})
		if err != nil {
			return nil, store.Unavailable(backendName, log.OpLoad, err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, store.Unavailable(backendName, log.OpLoad, err)
	}
	return records, nil
}

func (s *Store) Append(ctx context.Context, rec core.ShipmentRecord) (core.ShipmentRecord, error) {
	rec = s.opts.Stamp(rec)
	id, err := s.insert(ctx, rec)
	if err != nil {
		return core.ShipmentRecord{}, store.Unavailable(backendName, log.OpAppend, err)
	}
	s.opts.Logger.Debug("record appended", append(log.Record(rec), zap.Int64("id", id))...)
	return rec, nil
}

// MirrorRecord inserts rec keeping its RecordedAt.
func (s *Store) MirrorRecord(ctx context.Context, rec core.ShipmentRecord) error {
	_, err := s.insert(ctx, rec)
	return store.Unavailable(backendName, log.OpMirror, err)
}

func (s *Store) insert(ctx context.Context, rec core.ShipmentRecord) (int64, error) {
	row := store.EncodeRow(rec)
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO shipments (shipment_date, staff_name, vegetable, quantity, recorded_at) VALUES (?, ?, ?, ?, ?)`,
		row[0], row[1], row[2], row[3], row[4])
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}
