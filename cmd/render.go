// -- cmd/render.go --
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/canvaspress/canvaspress/api/schemas"
	"github.com/canvaspress/canvaspress/internal/observability"
	"github.com/canvaspress/canvaspress/internal/renderer"
)

var renderFlags struct {
	out      string
	format   string
	fullPage bool
}

// renderCmd rasterizes an already-resolved HTML document. Useful for
// re-rendering persisted documents without rerunning the conversion.
var renderCmd = &cobra.Command{
	Use:   "render <document.html>",
	Short: "Rasterize a finished HTML document to PNG or PDF.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := observability.GetLogger()
		ctx := cmd.Context()

		html, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read document %q: %w", args[0], err)
		}

		manager := renderer.NewManager(appConfig.Browser, appConfig.Render, logger)
		defer func() {
			if err := manager.Shutdown(ctx); err != nil {
				logger.Warn("Browser shutdown reported an error", zap.Error(err))
			}
		}()

		var artifact *schemas.RenderArtifact
		switch renderFlags.format {
		case "png":
			artifact, err = manager.RenderRaster(ctx, string(html), schemas.RasterOptions{FullPage: renderFlags.fullPage})
		case "pdf":
			artifact, err = manager.RenderPDF(ctx, string(html), schemas.PDFOptions{PrintBackground: true})
		default:
			return fmt.Errorf("unknown format %q: want png or pdf", renderFlags.format)
		}
		if err != nil {
			return err
		}

		out := renderFlags.out
		if out == "" {
			out = strings.TrimSuffix(args[0], ".html") + "." + renderFlags.format
		}
		if err := os.WriteFile(out, artifact.Buffer, 0o644); err != nil {
			return fmt.Errorf("failed to write artifact: %w", err)
		}

		logger.Info("Artifact written",
			zap.String("path", out),
			zap.Int("bytes", artifact.SizeBytes),
			zap.Duration("elapsed", artifact.Duration))
		return nil
	},
}

func init() {
	renderCmd.Flags().StringVarP(&renderFlags.out, "out", "o", "", "artifact path (default: document path with the format extension)")
	renderCmd.Flags().StringVarP(&renderFlags.format, "format", "f", "png", "artifact format: png or pdf")
	renderCmd.Flags().BoolVar(&renderFlags.fullPage, "full-page", false, "capture the full page instead of the viewport")
	rootCmd.AddCommand(renderCmd)
}
