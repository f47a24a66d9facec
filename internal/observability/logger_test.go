// File: internal/observability/logger_test.go
package observability

import (
	"bytes"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/canvaspress/canvaspress/internal/config"
)

// syncBuffer is a minimal WriteSyncer backed by a bytes.Buffer.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) Sync() error { return nil }

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

var _ zapcore.WriteSyncer = (*syncBuffer)(nil)

func TestInitializeWritesToConsole(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)

	out := &syncBuffer{}
	Initialize(config.LoggerConfig{Level: "debug", Format: "json", ServiceName: "canvaspress-test"}, out)

	GetLogger().Info("document rendered")

	logged := out.String()
	assert.Contains(t, logged, "document rendered")
	assert.Contains(t, logged, "canvaspress-test")
}

func TestInitializeRunsOnce(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)

	first := &syncBuffer{}
	second := &syncBuffer{}
	Initialize(config.LoggerConfig{Level: "info", Format: "json", ServiceName: "first"}, first)
	Initialize(config.LoggerConfig{Level: "info", Format: "json", ServiceName: "second"}, second)

	GetLogger().Info("only the first writer wins")

	assert.Contains(t, first.String(), "only the first writer wins")
	assert.Empty(t, second.String())
}

func TestInvalidLevelFallsBackToInfo(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)

	out := &syncBuffer{}
	Initialize(config.LoggerConfig{Level: "chatty", Format: "json", ServiceName: "lvl"}, out)

	logger := GetLogger()
	logger.Debug("suppressed")
	logger.Info("visible")

	logged := out.String()
	assert.NotContains(t, logged, "suppressed")
	assert.Contains(t, logged, "visible")
}

func TestGetLoggerBeforeInitialize(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)

	require.NotNil(t, GetLogger(), "fallback logger must always be available")
}
