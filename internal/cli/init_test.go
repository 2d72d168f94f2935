package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestSetupLoggerFallsBackToInfo(t *testing.T) {
	logger := SetupLogger("loud")
	require.NotNil(t, logger)
	assert.True(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.False(t, logger.Core().Enabled(zapcore.DebugLevel))

	logger = SetupLogger("debug")
	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))
}

func TestLoadEnvFileKeepsExistingValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("SHIPMENTS_TEST_FROM_FILE=file\nSHIPMENTS_TEST_PRESET=file\n"), 0o600))

	t.Setenv("SHIPMENTS_TEST_PRESET", "env")
	t.Cleanup(func() { _ = os.Unsetenv("SHIPMENTS_TEST_FROM_FILE") })

	LoadEnvFile(path)

	assert.Equal(t, "file", os.Getenv("SHIPMENTS_TEST_FROM_FILE"))
	assert.Equal(t, "env", os.Getenv("SHIPMENTS_TEST_PRESET"))

	LoadEnvFile(filepath.Join(t.TempDir(), "missing.env"))
}

func TestSignalContextCancel(t *testing.T) {
	ctx, cancel := SignalContext(context.Background())
	cancel()
	<-ctx.Done()
	assert.Error(t, ctx.Err())
}
