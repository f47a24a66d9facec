package schemas

import "context"

// -- Collaborator Interfaces --
//
// These decouple the conversion core from the parties around it. The core
// performs no identity checks itself; an upstream boundary is assumed to
// have authorized the caller already.

// Renderer drives a headless browser to rasterize a finished document.
// Implementations own the shared browser process; every call must use an
// isolated page so concurrent renders cannot interfere.
type Renderer interface {
	RenderRaster(ctx context.Context, html string, opts RasterOptions) (*RenderArtifact, error)
	RenderPDF(ctx context.Context, html string, opts PDFOptions) (*RenderArtifact, error)
	RenderBoth(ctx context.Context, html string, raster RasterOptions, pdf PDFOptions) (*RenderResult, error)
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}

// OutputPayload is what a conversion hands to the Output Router.
type OutputPayload struct {
	ConversionID string
	Document     string
	Artifacts    []RenderArtifact
	Metadata     map[string]string
}

// OutputLocation is where a router persisted one piece of a payload.
type OutputLocation struct {
	Format ArtifactFormat `json:"format,omitempty"`
	Path   string         `json:"path"`
	Bytes  int            `json:"bytes"`
}

// OutputRouter persists a conversion's outputs. The core is agnostic to
// where and how; a router may return raw locations on local disk, object
// store keys, or anything else addressable.
type OutputRouter interface {
	Route(ctx context.Context, payload OutputPayload) ([]OutputLocation, error)
}
