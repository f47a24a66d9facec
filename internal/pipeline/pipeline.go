// Package pipeline wires the conversion stages together: normalize the
// design, build the variable catalog, generate positioned markup, resolve
// variables against caller data, and optionally rasterize and persist.
package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/canvaspress/canvaspress/api/schemas"
	"github.com/canvaspress/canvaspress/internal/catalog"
	"github.com/canvaspress/canvaspress/internal/config"
	"github.com/canvaspress/canvaspress/internal/markup"
	"github.com/canvaspress/canvaspress/internal/normalizer"
	"github.com/canvaspress/canvaspress/internal/resolver"
)

// ConvertRequest describes one conversion. Raster and PDF select which
// artifacts to render; leaving both nil stops the pipeline after variable
// resolution, which is what catalog- and markup-only callers want.
type ConvertRequest struct {
	Design  []byte
	Data    map[string]interface{}
	Resolve schemas.ResolveOptions
	Raster  *schemas.RasterOptions
	PDF     *schemas.PDFOptions
	// Persist routes the outputs through the configured router.
	Persist bool
	// Metadata is carried through to the output router unchanged.
	Metadata map[string]string
}

// ConvertResult carries every stage's output for one conversion.
type ConvertResult struct {
	ConversionID string                   `json:"conversionId"`
	Catalog      *schemas.VariableCatalog `json:"catalog"`
	Markup       string                   `json:"markup"`
	Resolution   *schemas.ResolveResult   `json:"resolution"`
	Render       *schemas.RenderResult    `json:"render,omitempty"`
	Locations    []schemas.OutputLocation `json:"locations,omitempty"`
	Duration     time.Duration            `json:"durationMs"`
}

// Pipeline executes conversions. It is safe for concurrent use; the
// renderer serializes browser access internally.
type Pipeline struct {
	logger     *zap.Logger
	normalizer *normalizer.Normalizer
	catalog    *catalog.Builder
	markup     *markup.Generator
	resolver   *resolver.Resolver
	renderer   schemas.Renderer
	router     schemas.OutputRouter
}

// New assembles a pipeline. The renderer may be nil for callers that never
// request artifacts, and the router may be nil when persistence is not
// wanted.
func New(cfg *config.Config, renderer schemas.Renderer, router schemas.OutputRouter, logger *zap.Logger) *Pipeline {
	return &Pipeline{
		logger:     logger.Named("pipeline"),
		normalizer: normalizer.New(logger),
		catalog:    catalog.NewBuilder(logger),
		markup:     markup.NewGenerator(logger),
		resolver:   resolver.New(logger, cfg.Resolver.MaxDocumentBytes),
		renderer:   renderer,
		router:     router,
	}
}

// Convert runs the full conversion for one design.
func (p *Pipeline) Convert(ctx context.Context, req ConvertRequest) (*ConvertResult, error) {
	conversionID := uuid.NewString()
	start := time.Now()
	log := p.logger.With(zap.String("conversion_id", conversionID))
	log.Info("Starting conversion.", zap.Int("design_bytes", len(req.Design)))

	result := &ConvertResult{ConversionID: conversionID}

	design, err := p.stageNormalize(log, req.Design)
	if err != nil {
		return nil, err
	}

	result.Catalog = p.stageCatalog(log, design)

	result.Markup, err = p.stageMarkup(log, design)
	if err != nil {
		return nil, err
	}

	result.Resolution, err = p.stageResolve(log, result.Markup, req, result.Catalog)
	if err != nil {
		return nil, err
	}

	if req.Raster != nil || req.PDF != nil {
		result.Render, err = p.stageRender(ctx, log, result.Resolution.Document, req)
		if err != nil {
			return nil, err
		}
	}

	if req.Persist && p.router != nil {
		result.Locations, err = p.stagePersist(ctx, log, conversionID, result, req.Metadata)
		if err != nil {
			return nil, err
		}
	}

	result.Duration = time.Since(start)
	log.Info("Conversion complete.",
		zap.Int("variables", len(result.Catalog.Variables)),
		zap.Int("resolved", result.Resolution.ResolvedCount),
		zap.Int("missing", result.Resolution.MissingCount),
		zap.Duration("elapsed", result.Duration))
	return result, nil
}

// BuildCatalog runs only the normalize and catalog stages.
func (p *Pipeline) BuildCatalog(design []byte) (*schemas.VariableCatalog, error) {
	d, err := p.stageNormalize(p.logger, design)
	if err != nil {
		return nil, err
	}
	return p.stageCatalog(p.logger, d), nil
}

// GenerateMarkup runs only the normalize and markup stages, returning the
// positioned document with its variable tokens intact.
func (p *Pipeline) GenerateMarkup(design []byte) (string, error) {
	d, err := p.stageNormalize(p.logger, design)
	if err != nil {
		return "", err
	}
	return p.stageMarkup(p.logger, d)
}

func (p *Pipeline) stageNormalize(log *zap.Logger, input []byte) (*schemas.Design, error) {
	stageStart := time.Now()
	design, err := p.normalizer.Normalize(input)
	if err != nil {
		log.Error("Design normalization failed.", zap.Error(err))
		return nil, err
	}
	log.Debug("Design normalized.",
		zap.Int("elements", len(design.Elements)),
		zap.Duration("elapsed", time.Since(stageStart)))
	return design, nil
}

func (p *Pipeline) stageCatalog(log *zap.Logger, design *schemas.Design) *schemas.VariableCatalog {
	stageStart := time.Now()
	cat := p.catalog.Build(design)
	log.Debug("Variable catalog built.",
		zap.Int("variables", cat.Statistics.TotalVariables),
		zap.Duration("elapsed", time.Since(stageStart)))
	return cat
}

func (p *Pipeline) stageMarkup(log *zap.Logger, design *schemas.Design) (string, error) {
	stageStart := time.Now()
	doc, err := p.markup.Generate(design)
	if err != nil {
		log.Error("Markup generation failed.", zap.Error(err))
		return "", err
	}
	log.Debug("Markup generated.",
		zap.Int("bytes", len(doc)),
		zap.Duration("elapsed", time.Since(stageStart)))
	return doc, nil
}

func (p *Pipeline) stageResolve(log *zap.Logger, doc string, req ConvertRequest, cat *schemas.VariableCatalog) (*schemas.ResolveResult, error) {
	stageStart := time.Now()
	res, err := p.resolver.Resolve(doc, req.Data, cat.DefaultValues, req.Resolve)
	if err != nil {
		log.Error("Variable resolution failed.", zap.Error(err))
		return nil, err
	}
	log.Debug("Variables resolved.",
		zap.Int("resolved", res.ResolvedCount),
		zap.Int("missing", res.MissingCount),
		zap.Int("warnings", len(res.Warnings)),
		zap.Duration("elapsed", time.Since(stageStart)))
	return res, nil
}

func (p *Pipeline) stageRender(ctx context.Context, log *zap.Logger, doc string, req ConvertRequest) (*schemas.RenderResult, error) {
	if p.renderer == nil {
		return nil, schemas.NewValidationError("render", "artifacts requested but no renderer configured")
	}
	stageStart := time.Now()

	var (
		render *schemas.RenderResult
		err    error
	)
	switch {
	case req.Raster != nil && req.PDF != nil:
		render, err = p.renderer.RenderBoth(ctx, doc, *req.Raster, *req.PDF)
	case req.Raster != nil:
		var artifact *schemas.RenderArtifact
		artifact, err = p.renderer.RenderRaster(ctx, doc, *req.Raster)
		if err == nil {
			render = &schemas.RenderResult{Raster: artifact}
		}
	default:
		var artifact *schemas.RenderArtifact
		artifact, err = p.renderer.RenderPDF(ctx, doc, *req.PDF)
		if err == nil {
			render = &schemas.RenderResult{Paginated: artifact}
		}
	}
	if err != nil {
		log.Error("Render failed.", zap.Error(err))
		return nil, err
	}
	log.Debug("Artifacts rendered.", zap.Duration("elapsed", time.Since(stageStart)))
	return render, nil
}

func (p *Pipeline) stagePersist(ctx context.Context, log *zap.Logger, conversionID string, result *ConvertResult, metadata map[string]string) ([]schemas.OutputLocation, error) {
	payload := schemas.OutputPayload{
		ConversionID: conversionID,
		Document:     result.Resolution.Document,
		Metadata:     metadata,
	}
	if result.Render != nil {
		if result.Render.Raster != nil {
			payload.Artifacts = append(payload.Artifacts, *result.Render.Raster)
		}
		if result.Render.Paginated != nil {
			payload.Artifacts = append(payload.Artifacts, *result.Render.Paginated)
		}
	}

	locations, err := p.router.Route(ctx, payload)
	if err != nil {
		log.Error("Failed to persist outputs.", zap.Error(err))
		return nil, err
	}
	return locations, nil
}
