package renderer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/canvaspress/canvaspress/api/schemas"
)

// RenderRaster renders the document in an isolated tab and captures a
// bitmap of the viewport (or the full page when requested).
func (m *Manager) RenderRaster(ctx context.Context, html string, opts schemas.RasterOptions) (*schemas.RenderArtifact, error) {
	opts = m.normalizeRaster(opts)
	start := time.Now()

	var buf []byte
	capture := chromedp.ActionFunc(func(ctx context.Context) error {
		if opts.TransparentBG {
			if err := emulation.SetDefaultBackgroundColorOverride().
				WithColor(&cdp.RGBA{R: 0, G: 0, B: 0, A: 0}).Do(ctx); err != nil {
				return err
			}
		}

		params := page.CaptureScreenshot().
			WithFromSurface(true).
			WithCaptureBeyondViewport(opts.FullPage)
		if opts.QualityOverride > 0 && opts.QualityOverride < 100 {
			params = params.WithFormat(page.CaptureScreenshotFormatJpeg).
				WithQuality(int64(opts.QualityOverride))
		} else {
			params = params.WithFormat(page.CaptureScreenshotFormatPng)
		}

		var err error
		buf, err = params.Do(ctx)
		return err
	})

	if err := m.onLoadedPage(ctx, html, opts.Width, opts.Height, opts.DeviceScale, capture); err != nil {
		return nil, wrapRenderErr("raster", err)
	}

	artifact := &schemas.RenderArtifact{
		Format:    schemas.ArtifactRaster,
		Buffer:    buf,
		SizeBytes: len(buf),
		Width:     int(float64(opts.Width) * opts.DeviceScale),
		Height:    int(float64(opts.Height) * opts.DeviceScale),
		Duration:  time.Since(start),
	}
	m.logger.Info("Raster capture complete.",
		zap.Int("bytes", artifact.SizeBytes),
		zap.Duration("elapsed", artifact.Duration))
	return artifact, nil
}

// RenderPDF renders the document in an isolated tab and captures a
// paginated artifact via the print endpoint.
func (m *Manager) RenderPDF(ctx context.Context, html string, opts schemas.PDFOptions) (*schemas.RenderArtifact, error) {
	opts = m.normalizePDF(opts)
	start := time.Now()

	var buf []byte
	capture := chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		buf, _, err = page.PrintToPDF().
			WithPaperWidth(opts.PaperWidth).
			WithPaperHeight(opts.PaperHeight).
			WithMarginTop(opts.MarginTop).
			WithMarginBottom(opts.MarginBottom).
			WithMarginLeft(opts.MarginLeft).
			WithMarginRight(opts.MarginRight).
			WithLandscape(opts.Landscape).
			WithPrintBackground(opts.PrintBackground).
			WithScale(opts.Scale).
			Do(ctx)
		return err
	})

	err := m.onLoadedPage(ctx, html,
		m.render.ViewportWidth, m.render.ViewportHeight, m.render.DeviceScale, capture)
	if err != nil {
		return nil, wrapRenderErr("paginated", err)
	}

	artifact := &schemas.RenderArtifact{
		Format:     schemas.ArtifactPaginated,
		Buffer:     buf,
		SizeBytes:  len(buf),
		PageFormat: fmt.Sprintf("%.2fx%.2fin", opts.PaperWidth, opts.PaperHeight),
		Duration:   time.Since(start),
	}
	m.logger.Info("Paginated capture complete.",
		zap.Int("bytes", artifact.SizeBytes),
		zap.Duration("elapsed", artifact.Duration))
	return artifact, nil
}

// RenderBoth captures raster and paginated artifacts concurrently, each on
// its own tab. A single failed capture degrades to a warning as long as
// the other succeeds; both failing, or the browser failing to launch, is
// an error.
func (m *Manager) RenderBoth(ctx context.Context, html string, raster schemas.RasterOptions, pdf schemas.PDFOptions) (*schemas.RenderResult, error) {
	// Launch up front so a dead browser fails once instead of twice.
	if _, err := m.ensureBrowser(ctx); err != nil {
		return nil, err
	}

	var (
		result    schemas.RenderResult
		rasterErr error
		pdfErr    error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		result.Raster, rasterErr = m.RenderRaster(gctx, html, raster)
		return nil
	})
	g.Go(func() error {
		result.Paginated, pdfErr = m.RenderPDF(gctx, html, pdf)
		return nil
	})
	_ = g.Wait()

	if rasterErr != nil && pdfErr != nil {
		return nil, multierr.Combine(rasterErr, pdfErr)
	}
	if rasterErr != nil {
		m.logger.Warn("Raster capture failed; continuing with paginated artifact only.", zap.Error(rasterErr))
		result.Warnings = append(result.Warnings, schemas.Warning{
			Kind:    schemas.WarnFormat,
			Message: fmt.Sprintf("raster capture failed: %v", rasterErr),
		})
	}
	if pdfErr != nil {
		m.logger.Warn("Paginated capture failed; continuing with raster artifact only.", zap.Error(pdfErr))
		result.Warnings = append(result.Warnings, schemas.Warning{
			Kind:    schemas.WarnFormat,
			Message: fmt.Sprintf("paginated capture failed: %v", pdfErr),
		})
	}
	return &result, nil
}

// onLoadedPage opens a fresh tab, loads the document into it, waits for
// the network to go quiet, runs the capture action, and always closes the
// tab afterwards.
func (m *Manager) onLoadedPage(ctx context.Context, html string, width, height int, scale float64, capture chromedp.Action) error {
	browserCtx, err := m.ensureBrowser(ctx)
	if err != nil {
		return err
	}

	tabCtx, closeTab := chromedp.NewContext(browserCtx)
	defer closeTab()

	callCtx := tabCtx
	if m.render.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(tabCtx, m.render.Timeout)
		defer cancel()
	}
	// Honor the caller's deadline too; the tab chain only carries ours.
	stop := context.AfterFunc(ctx, closeTab)
	defer stop()

	waiter := trackNetwork(tabCtx)

	return chromedp.Run(callCtx,
		chromedp.EmulateViewport(int64(width), int64(height), chromedp.EmulateScale(scale)),
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(tree.Frame.ID, html).Do(ctx)
		}),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			// Quiet-wire expiry is tolerable; capture what has loaded.
			if err := waiter.waitIdle(ctx, m.render.QuietPeriod); err != nil && !errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			return nil
		}),
		chromedp.Sleep(m.render.SettleDelay),
		capture,
	)
}

func (m *Manager) normalizeRaster(opts schemas.RasterOptions) schemas.RasterOptions {
	if opts.Width <= 0 {
		opts.Width = m.render.ViewportWidth
	}
	if opts.Height <= 0 {
		opts.Height = m.render.ViewportHeight
	}
	if opts.DeviceScale <= 0 {
		opts.DeviceScale = m.render.DeviceScale
	}
	return opts
}

func (m *Manager) normalizePDF(opts schemas.PDFOptions) schemas.PDFOptions {
	if opts.PaperWidth <= 0 {
		opts.PaperWidth = m.render.PaperWidth
	}
	if opts.PaperHeight <= 0 {
		opts.PaperHeight = m.render.PaperHeight
	}
	if opts.Scale <= 0 {
		opts.Scale = 1.0
	}
	if opts.MarginTop == 0 && opts.MarginBottom == 0 && opts.MarginLeft == 0 && opts.MarginRight == 0 {
		opts.MarginTop, opts.MarginBottom = m.render.Margin, m.render.Margin
		opts.MarginLeft, opts.MarginRight = m.render.Margin, m.render.Margin
	}
	return opts
}

func wrapRenderErr(stage string, err error) error {
	var re *schemas.RenderError
	if errors.As(err, &re) {
		return err
	}
	return &schemas.RenderError{Stage: stage, Err: err}
}
