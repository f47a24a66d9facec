package schemas

import "time"

// -- Render Schemas --

// ArtifactFormat identifies the output format of a rendered artifact.
type ArtifactFormat string

const (
	// ArtifactRaster is a bitmap capture (PNG).
	ArtifactRaster ArtifactFormat = "raster"
	// ArtifactPaginated is a paginated capture (PDF).
	ArtifactPaginated ArtifactFormat = "paginated"
)

// RasterOptions configures a bitmap capture.
type RasterOptions struct {
	Width           int     `json:"width"`
	Height          int     `json:"height"`
	DeviceScale     float64 `json:"deviceScale"`
	FullPage        bool    `json:"fullPage"`
	TransparentBG   bool    `json:"transparentBackground"`
	QualityOverride int     `json:"quality,omitempty"`
}

// PDFOptions configures a paginated capture. Dimensions and margins are in
// inches, as the print endpoint expects.
type PDFOptions struct {
	PaperWidth      float64 `json:"paperWidth"`
	PaperHeight     float64 `json:"paperHeight"`
	MarginTop       float64 `json:"marginTop"`
	MarginBottom    float64 `json:"marginBottom"`
	MarginLeft      float64 `json:"marginLeft"`
	MarginRight     float64 `json:"marginRight"`
	Landscape       bool    `json:"landscape"`
	PrintBackground bool    `json:"printBackground"`
	Scale           float64 `json:"scale"`
}

// RenderArtifact is one captured output buffer plus its metadata.
type RenderArtifact struct {
	Format    ArtifactFormat `json:"format"`
	Buffer    []byte         `json:"-"`
	SizeBytes int            `json:"sizeBytes"`
	// Width and Height are pixel dimensions for raster artifacts.
	Width  int `json:"width,omitempty"`
	Height int `json:"height,omitempty"`
	// PageFormat describes the paper size for paginated artifacts.
	PageFormat string        `json:"pageFormat,omitempty"`
	Duration   time.Duration `json:"generationTimeMs"`
}

// RenderResult aggregates the artifacts of one render request. A partial
// failure of RenderBoth leaves the failed slot nil and records the error.
type RenderResult struct {
	Raster    *RenderArtifact `json:"raster,omitempty"`
	Paginated *RenderArtifact `json:"paginated,omitempty"`
	Warnings  []Warning       `json:"warnings,omitempty"`
}
