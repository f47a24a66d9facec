package renderer

import (
	"bytes"
	"context"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/canvaspress/canvaspress/api/schemas"
	"github.com/canvaspress/canvaspress/internal/config"
)

const sampleDoc = `<!DOCTYPE html>
<html><head><style>
#canvas { position: relative; width: 400px; height: 300px; background: #ffffff; }
.box { position: absolute; left: 20px; top: 20px; width: 100px; height: 40px; background: #1a73e8; }
</style></head>
<body><div id="canvas"><div class="box"></div><p>render fixture</p></div></body></html>`

func testRenderConfig() config.RenderConfig {
	return config.RenderConfig{
		Timeout:        30 * time.Second,
		SettleDelay:    50 * time.Millisecond,
		QuietPeriod:    100 * time.Millisecond,
		ViewportWidth:  400,
		ViewportHeight: 300,
		DeviceScale:    1.0,
		PaperWidth:     8.5,
		PaperHeight:    11.0,
	}
}

// newTestManager skips the test when no Chrome binary is on the host.
func newTestManager(t *testing.T) *Manager {
	t.Helper()

	var execPath string
	for _, name := range []string{"chromium", "chromium-browser", "google-chrome", "google-chrome-stable", "chrome"} {
		if p, err := exec.LookPath(name); err == nil {
			execPath = p
			break
		}
	}
	if execPath == "" {
		t.Skip("no chrome binary available on this host")
	}

	m := NewManager(config.BrowserConfig{
		Headless:      true,
		ExecPath:      execPath,
		LaunchTimeout: 60 * time.Second,
	}, testRenderConfig(), zap.NewNop())

	t.Cleanup(func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
		defer cancel()
		require.NoError(t, m.Shutdown(shutdownCtx))
	})
	return m
}

func TestHealthCheckLaunchesLazily(t *testing.T) {
	m := newTestManager(t)

	m.mu.Lock()
	started := m.started
	m.mu.Unlock()
	assert.False(t, started, "browser must not launch at construction")

	require.NoError(t, m.HealthCheck(context.Background()))

	m.mu.Lock()
	started = m.started
	m.mu.Unlock()
	assert.True(t, started, "health check should have launched the browser")
}

func TestRenderRasterProducesPNG(t *testing.T) {
	m := newTestManager(t)

	artifact, err := m.RenderRaster(context.Background(), sampleDoc, schemas.RasterOptions{})
	require.NoError(t, err)
	require.NotNil(t, artifact)

	assert.Equal(t, schemas.ArtifactRaster, artifact.Format)
	assert.True(t, bytes.HasPrefix(artifact.Buffer, []byte("\x89PNG")), "buffer should carry the PNG signature")
	assert.Equal(t, len(artifact.Buffer), artifact.SizeBytes)
	assert.Equal(t, 400, artifact.Width)
	assert.Equal(t, 300, artifact.Height)
	assert.Greater(t, artifact.Duration, time.Duration(0))
}

func TestRenderPDFProducesPDF(t *testing.T) {
	m := newTestManager(t)

	artifact, err := m.RenderPDF(context.Background(), sampleDoc, schemas.PDFOptions{PrintBackground: true})
	require.NoError(t, err)
	require.NotNil(t, artifact)

	assert.Equal(t, schemas.ArtifactPaginated, artifact.Format)
	assert.True(t, bytes.HasPrefix(artifact.Buffer, []byte("%PDF-")), "buffer should carry the PDF header")
	assert.Equal(t, "8.50x11.00in", artifact.PageFormat)
}

func TestRenderBothProducesBothArtifacts(t *testing.T) {
	m := newTestManager(t)

	result, err := m.RenderBoth(context.Background(), sampleDoc, schemas.RasterOptions{}, schemas.PDFOptions{})
	require.NoError(t, err)
	require.NotNil(t, result)

	require.NotNil(t, result.Raster)
	require.NotNil(t, result.Paginated)
	assert.Empty(t, result.Warnings)
	assert.True(t, bytes.HasPrefix(result.Raster.Buffer, []byte("\x89PNG")))
	assert.True(t, bytes.HasPrefix(result.Paginated.Buffer, []byte("%PDF-")))
}

func TestConcurrentRendersAreIsolated(t *testing.T) {
	m := newTestManager(t)
	require.NoError(t, m.HealthCheck(context.Background()))

	const workers = 4
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		go func() {
			_, err := m.RenderRaster(context.Background(), sampleDoc, schemas.RasterOptions{})
			errs <- err
		}()
	}
	for i := 0; i < workers; i++ {
		assert.NoError(t, <-errs)
	}
}

func TestLaunchFailureIsFatal(t *testing.T) {
	m := NewManager(config.BrowserConfig{
		Headless:      true,
		ExecPath:      "/nonexistent/chrome-binary",
		LaunchTimeout: 5 * time.Second,
	}, testRenderConfig(), zap.NewNop())

	_, err := m.RenderRaster(context.Background(), sampleDoc, schemas.RasterOptions{})
	require.Error(t, err)

	var re *schemas.RenderError
	require.ErrorAs(t, err, &re)
	assert.True(t, re.Launch)
}

func TestShutdownWithoutLaunchIsNoop(t *testing.T) {
	m := NewManager(config.BrowserConfig{Headless: true}, testRenderConfig(), zap.NewNop())
	assert.NoError(t, m.Shutdown(context.Background()))
}
