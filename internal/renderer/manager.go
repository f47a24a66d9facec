// Package renderer drives a shared headless Chrome process over CDP to
// rasterize finished documents into raster and paginated artifacts.
//
// The Manager owns the browser process explicitly: it is injected where
// rendering is needed, starts lazily on first use, and is shut down by
// whoever constructed it. Each render call runs in its own isolated tab,
// so concurrent renders cannot interfere with each other's content.
package renderer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/canvaspress/canvaspress/api/schemas"
	"github.com/canvaspress/canvaspress/internal/config"
)

const shutdownGracePeriod = 15 * time.Second

// Manager handles the browser process lifecycle and per-call page
// creation. It implements schemas.Renderer.
type Manager struct {
	cfg    config.BrowserConfig
	render config.RenderConfig
	logger *zap.Logger

	mu          sync.Mutex
	allocCtx    context.Context
	allocCancel context.CancelFunc
	browserCtx  context.Context
	browserStop context.CancelFunc
	started     bool
}

var _ schemas.Renderer = (*Manager)(nil)

// NewManager creates a browser manager. The browser process itself is not
// launched until the first render or health check.
func NewManager(cfg config.BrowserConfig, render config.RenderConfig, logger *zap.Logger) *Manager {
	return &Manager{
		cfg:    cfg,
		render: render,
		logger: logger.Named("renderer"),
	}
}

// ensureBrowser launches the shared browser if needed, and relaunches it
// when the existing process no longer answers. Callers get a context that
// new tabs derive from.
func (m *Manager) ensureBrowser(ctx context.Context) (context.Context, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.started {
		if err := m.probeLocked(ctx); err == nil {
			return m.browserCtx, nil
		}
		// The shared process died underneath us. Tear down and relaunch.
		m.logger.Warn("Shared browser process unresponsive; reinitializing.")
		m.teardownLocked()
	}

	if err := m.launchLocked(ctx); err != nil {
		return nil, &schemas.RenderError{Stage: "launch", Launch: true, Err: err}
	}
	return m.browserCtx, nil
}

// launchLocked starts the allocator and the browser process. Must hold mu.
func (m *Manager) launchLocked(ctx context.Context) error {
	m.logger.Info("Launching headless browser.",
		zap.Bool("headless", m.cfg.Headless),
		zap.String("exec_path", m.cfg.ExecPath))

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", m.cfg.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("hide-scrollbars", true),
		chromedp.Flag("force-color-profile", "srgb"),
	)
	if m.cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(m.cfg.ExecPath))
	}
	for _, arg := range m.cfg.Args {
		opts = append(opts, chromedp.Flag(arg, true))
	}

	// The allocator outlives any single call; it is torn down only in
	// Shutdown or on relaunch.
	m.allocCtx, m.allocCancel = chromedp.NewExecAllocator(context.Background(), opts...)

	ctxOpts := []chromedp.ContextOption{}
	if m.cfg.Debug {
		ctxOpts = append(ctxOpts, chromedp.WithLogf(func(format string, args ...interface{}) {
			m.logger.Debug(fmt.Sprintf("chromedp: "+format, args...))
		}))
	}
	m.browserCtx, m.browserStop = chromedp.NewContext(m.allocCtx, ctxOpts...)

	launchCtx := m.browserCtx
	if m.cfg.LaunchTimeout > 0 {
		var cancel context.CancelFunc
		launchCtx, cancel = context.WithTimeout(m.browserCtx, m.cfg.LaunchTimeout)
		defer cancel()
	}

	// Running an empty task forces the process to start and the CDP
	// connection to come up.
	if err := chromedp.Run(launchCtx); err != nil {
		m.teardownLocked()
		return fmt.Errorf("failed to start browser process: %w", err)
	}

	m.started = true
	m.logger.Info("Browser process ready.")
	return nil
}

// probeLocked checks that the shared process still answers CDP requests.
// Must hold mu.
func (m *Manager) probeLocked(ctx context.Context) error {
	if m.browserCtx == nil || m.browserCtx.Err() != nil {
		return fmt.Errorf("browser context is gone")
	}

	tabCtx, closeTab := chromedp.NewContext(m.browserCtx)
	defer closeTab()

	probeCtx, cancel := context.WithTimeout(tabCtx, 5*time.Second)
	defer cancel()

	var one int
	if err := chromedp.Run(probeCtx, chromedp.Evaluate("1", &one)); err != nil {
		return fmt.Errorf("browser connectivity probe failed: %w", err)
	}
	return nil
}

// teardownLocked releases the browser and allocator contexts. Must hold mu.
func (m *Manager) teardownLocked() {
	if m.browserStop != nil {
		m.browserStop()
	}
	if m.allocCancel != nil {
		m.allocCancel()
	}
	m.browserCtx, m.browserStop = nil, nil
	m.allocCtx, m.allocCancel = nil, nil
	m.started = false
}

// HealthCheck verifies the browser can be reached (launching it if this is
// the first call) and that a fresh page evaluates script.
func (m *Manager) HealthCheck(ctx context.Context) error {
	if _, err := m.ensureBrowser(ctx); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.probeLocked(ctx)
}

// Shutdown closes the browser process and releases all resources. The
// manager can be reused afterwards; the next call relaunches.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.started {
		m.logger.Debug("Shutdown with no running browser; nothing to do.")
		return nil
	}

	m.logger.Info("Shutting down browser process.")

	done := make(chan struct{})
	go func() {
		// Cancelling the browser context asks chromedp to close the
		// process and waits for the websocket to drain.
		m.browserStop()
		close(done)
	}()

	graceCtx, cancel := context.WithTimeout(ctx, shutdownGracePeriod)
	defer cancel()

	select {
	case <-done:
	case <-graceCtx.Done():
		m.logger.Warn("Timeout waiting for browser to close; forcing allocator teardown.")
	}

	if m.allocCancel != nil {
		m.allocCancel()
	}
	m.browserCtx, m.browserStop = nil, nil
	m.allocCtx, m.allocCancel = nil, nil
	m.started = false

	m.logger.Info("Browser shutdown complete.")
	return nil
}
