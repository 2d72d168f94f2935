// Package cli holds the start-up steps shared by cmd/shipments and
// cmd/shipments-mirror.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"shipments/internal/config"
	"shipments/internal/log"
)

// SetupLogger builds the process logger. An invalid level falls back to info
// and is reported once the logger exists.
func SetupLogger(level string) *zap.Logger {
	logger, err := log.New(log.Config{Level: level})
	if err == nil {
		return logger
	}
	logger = log.Must(log.New(log.DefaultConfig()))
	logger.Warn("invalid LOG_LEVEL, using info", zap.Error(err))
	return logger
}

// LoadEnvFile loads .env files for local development. A missing file is not
// an error; variables already set in the environment win.
func LoadEnvFile(paths ...string) {
	_ = godotenv.Load(paths...)
}

// LoadConfig reads the environment and runs validate on the result, exiting
// the process when it fails. A nil validate means cfg.Validate.
func LoadConfig(validate func(*config.Config) error) (*config.Config, *zap.Logger) {
	cfg := config.Load()
	logger := SetupLogger(cfg.LogLevel)
	if validate == nil {
		validate = (*config.Config).Validate
	}
	if err := validate(cfg); err != nil {
		logger.Error("configuration validation failed",
			log.ErrorType(log.ErrorTypeConfiguration), zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
	return cfg, logger
}

// SignalContext is cancelled on SIGINT or SIGTERM.
func SignalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}

// Fatal logs err and exits.
func Fatal(logger *zap.Logger, msg string, err error, fields ...zap.Field) {
	logger.Error(msg, append(fields, zap.Error(err))...)
	_ = logger.Sync()
	os.Exit(1)
}
