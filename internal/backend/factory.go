package backend

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"shipments/internal/log"
	"shipments/internal/store"
	"shipments/internal/store/csvfile"
	"shipments/internal/store/google"
	"shipments/internal/store/memory"
	"shipments/internal/store/mongo"
	"shipments/internal/store/sqlite"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *zap.Logger
	opts   []store.Option
}

// NewFactory creates a new backend factory. opts are passed to every store.
func NewFactory(logger *zap.Logger, opts ...store.Option) *DefaultFactory {
	logger = log.OrNop(logger)
	return &DefaultFactory{
		logger: logger,
		opts:   append([]store.Option{store.WithLogger(log.Named(logger, log.ComponentStore))}, opts...),
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*Result, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case CSVBackend:
		return f.createCSVBackend(config)
	case SheetsBackend:
		return f.createSheetsBackend(ctx, config)
	case SQLiteBackend:
		return f.createSQLiteBackend(config)
	case MongoBackend:
		return f.createMongoBackend(ctx, config)
	case MemoryBackend:
		return f.createMemoryBackend()
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createCSVBackend(config Config) (*Result, error) {
	s := csvfile.New(config.CSVFilePath, f.opts...)
	f.logger.Info("Initialized csv backend", zap.String("path", config.CSVFilePath))
	return &Result{Store: s}, nil
}

func (f *DefaultFactory) createSheetsBackend(ctx context.Context, config Config) (*Result, error) {
	s, err := google.Open(ctx, google.Config{
		SpreadsheetID: config.GoogleSpreadsheetID,
		SheetName:     config.GoogleSheetName,
		Credentials: google.Credentials{
			JSON: config.GoogleServiceAccountJSON,
			File: config.GoogleServiceAccountFile,
		},
	}, f.opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}

	f.logger.Info("Initialized Google Sheets backend",
		zap.String("spreadsheet_id", config.GoogleSpreadsheetID),
		zap.String("sheet", config.GoogleSheetName))
	return &Result{Store: s}, nil
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*Result, error) {
	s, err := sqlite.Open(config.SQLiteDBPath, f.opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite store: %w", err)
	}

	f.logger.Info("Initialized SQLite backend", zap.String("db_path", config.SQLiteDBPath))
	return &Result{Store: s, Cleanup: s.Close}, nil
}

func (f *DefaultFactory) createMongoBackend(ctx context.Context, config Config) (*Result, error) {
	s, err := mongo.Open(ctx, config.MongoURI, config.MongoDBName, config.MongoCollection, f.opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	f.logger.Info("Initialized MongoDB backend",
		zap.String("database", config.MongoDBName),
		zap.String("collection", config.MongoCollection))
	return &Result{
		Store:   s,
		Cleanup: func() error { return s.Close(context.Background()) },
	}, nil
}

func (f *DefaultFactory) createMemoryBackend() (*Result, error) {
	f.logger.Info("Initialized memory backend")
	return &Result{Store: memory.New(f.opts...)}, nil
}
