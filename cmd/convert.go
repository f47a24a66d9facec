// -- cmd/convert.go --
package cmd

import (
	"fmt"
	"os"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/canvaspress/canvaspress/api/schemas"
	"github.com/canvaspress/canvaspress/internal/observability"
	"github.com/canvaspress/canvaspress/internal/output"
	"github.com/canvaspress/canvaspress/internal/pipeline"
	"github.com/canvaspress/canvaspress/internal/renderer"
	"github.com/canvaspress/canvaspress/internal/worker"
)

var convertFlags struct {
	dataFile    string
	format      string
	missing     string
	placeholder string
	noEscape    bool
	noPersist   bool
	fullPage    bool
	transparent bool
	landscape   bool
	ratePerSec  float64
	concurrency int
}

var convertCmd = &cobra.Command{
	Use:   "convert <design.json> [design.json...]",
	Short: "Run the full conversion for one or more designs.",
	Long: `Convert normalizes each design, builds its variable catalog, generates
positioned markup, resolves variables against the --data document, renders the
requested artifacts, and writes everything under the output directory.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runConvert,
}

func init() {
	convertCmd.Flags().StringVarP(&convertFlags.dataFile, "data", "d", "", "JSON file with variable data")
	convertCmd.Flags().StringVarP(&convertFlags.format, "format", "f", "both", "artifacts to render: png, pdf, both, or none")
	convertCmd.Flags().StringVar(&convertFlags.missing, "missing", "keep", "missing-token policy: keep, remove, or placeholder")
	convertCmd.Flags().StringVar(&convertFlags.placeholder, "placeholder", "[N/A]", "substitute text under --missing=placeholder")
	convertCmd.Flags().BoolVar(&convertFlags.noEscape, "no-escape", false, "disable HTML escaping of substituted values (trusted data only)")
	convertCmd.Flags().BoolVar(&convertFlags.noPersist, "no-persist", false, "skip writing outputs to disk; print the summary only")
	convertCmd.Flags().BoolVar(&convertFlags.fullPage, "full-page", false, "capture the full page instead of the viewport")
	convertCmd.Flags().BoolVar(&convertFlags.transparent, "transparent", false, "capture the raster with a transparent background")
	convertCmd.Flags().BoolVar(&convertFlags.landscape, "landscape", false, "paginate in landscape orientation")
	convertCmd.Flags().Float64Var(&convertFlags.ratePerSec, "rate", 0, "max conversions per second in batch mode (0 = unlimited)")
	convertCmd.Flags().IntVar(&convertFlags.concurrency, "concurrency", 2, "max conversions in flight at once")
	rootCmd.AddCommand(convertCmd)
}

func runConvert(cmd *cobra.Command, args []string) error {
	logger := observability.GetLogger()
	ctx := cmd.Context()

	raster, pdf, err := artifactSelection()
	if err != nil {
		return err
	}
	resolveOpts, err := resolveOptions()
	if err != nil {
		return err
	}

	data, err := loadData(convertFlags.dataFile)
	if err != nil {
		return err
	}

	var rend schemas.Renderer
	if raster != nil || pdf != nil {
		manager := renderer.NewManager(appConfig.Browser, appConfig.Render, logger)
		defer func() {
			if err := manager.Shutdown(ctx); err != nil {
				logger.Warn("Browser shutdown reported an error", zap.Error(err))
			}
		}()
		rend = manager
	}

	var router schemas.OutputRouter
	if !convertFlags.noPersist {
		fsRouter, err := output.NewFilesystemRouter(appConfig.Output, logger)
		if err != nil {
			return err
		}
		router = fsRouter
	}

	p := pipeline.New(appConfig, rend, router, logger)

	var limiter *rate.Limiter
	if convertFlags.ratePerSec > 0 {
		limiter = rate.NewLimiter(rate.Limit(convertFlags.ratePerSec), 1)
	}

	jobs := make([]worker.Job, 0, len(args))
	for _, designPath := range args {
		design, err := os.ReadFile(designPath)
		if err != nil {
			return fmt.Errorf("failed to read design %q: %w", designPath, err)
		}
		jobs = append(jobs, worker.Job{
			Source: designPath,
			Request: pipeline.ConvertRequest{
				Design:   design,
				Data:     data,
				Resolve:  resolveOpts,
				Raster:   raster,
				PDF:      pdf,
				Persist:  !convertFlags.noPersist,
				Metadata: map[string]string{"design": designPath, "convertedAt": time.Now().UTC().Format(time.RFC3339)},
			},
		})
	}

	pool := worker.NewPool(p, convertFlags.concurrency, limiter, logger)
	outcomes := pool.Run(ctx, jobs)
	recordHistory(ctx, outcomes)

	enc := jsoniter.ConfigCompatibleWithStandardLibrary.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	var failures int
	for _, outcome := range outcomes {
		if outcome.Err != nil {
			failures++
			logger.Error("Conversion failed", zap.String("design", outcome.Source), zap.Error(outcome.Err))
			continue
		}
		if err := enc.Encode(summarize(outcome.Source, outcome.Result)); err != nil {
			return err
		}
	}

	if failures > 0 {
		return fmt.Errorf("%d of %d conversions failed", failures, len(args))
	}
	return nil
}

// conversionSummary is the per-design line printed to stdout.
type conversionSummary struct {
	Design       string                   `json:"design"`
	ConversionID string                   `json:"conversionId"`
	Variables    int                      `json:"variables"`
	Resolved     int                      `json:"resolved"`
	Missing      []string                 `json:"missing,omitempty"`
	Warnings     []schemas.Warning        `json:"warnings,omitempty"`
	Locations    []schemas.OutputLocation `json:"locations,omitempty"`
	DurationMS   int64                    `json:"durationMs"`
}

func summarize(designPath string, result *pipeline.ConvertResult) conversionSummary {
	warnings := result.Resolution.Warnings
	if result.Render != nil {
		warnings = append(warnings, result.Render.Warnings...)
	}
	return conversionSummary{
		Design:       designPath,
		ConversionID: result.ConversionID,
		Variables:    result.Catalog.Statistics.TotalVariables,
		Resolved:     result.Resolution.ResolvedCount,
		Missing:      result.Resolution.Missing,
		Warnings:     warnings,
		Locations:    result.Locations,
		DurationMS:   result.Duration.Milliseconds(),
	}
}

func artifactSelection() (*schemas.RasterOptions, *schemas.PDFOptions, error) {
	raster := &schemas.RasterOptions{
		FullPage:      convertFlags.fullPage,
		TransparentBG: convertFlags.transparent,
	}
	pdf := &schemas.PDFOptions{
		Landscape:       convertFlags.landscape,
		PrintBackground: true,
	}

	switch convertFlags.format {
	case "png":
		return raster, nil, nil
	case "pdf":
		return nil, pdf, nil
	case "both":
		return raster, pdf, nil
	case "none":
		return nil, nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown format %q: want png, pdf, both, or none", convertFlags.format)
	}
}

func resolveOptions() (schemas.ResolveOptions, error) {
	opts := schemas.ResolveOptions{MissingText: convertFlags.placeholder}

	switch schemas.MissingPolicy(convertFlags.missing) {
	case schemas.MissingKeep, schemas.MissingRemove, schemas.MissingPlaceholder:
		opts.MissingPolicy = schemas.MissingPolicy(convertFlags.missing)
	default:
		return opts, fmt.Errorf("unknown missing-token policy %q: want keep, remove, or placeholder", convertFlags.missing)
	}

	if convertFlags.noEscape {
		escape := false
		opts.EscapeHTML = &escape
	}
	return opts, nil
}

func loadData(path string) (map[string]interface{}, error) {
	if path == "" {
		return nil, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read data file %q: %w", path, err)
	}
	var data map[string]interface{}
	if err := jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("failed to parse data file %q: %w", path, err)
	}
	return data, nil
}
