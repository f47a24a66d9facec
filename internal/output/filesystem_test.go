package output

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/andybalholm/brotli"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/canvaspress/canvaspress/api/schemas"
	"github.com/canvaspress/canvaspress/internal/config"
)

func newTestRouter(t *testing.T, compress bool) (*FilesystemRouter, string) {
	t.Helper()
	dir := t.TempDir()
	router, err := NewFilesystemRouter(config.OutputConfig{Dir: dir, CompressDocument: compress}, zap.NewNop())
	require.NoError(t, err)
	return router, dir
}

func TestRouteWritesDocumentAndArtifacts(t *testing.T) {
	router, dir := newTestRouter(t, false)

	locations, err := router.Route(context.Background(), schemas.OutputPayload{
		ConversionID: "conv-123",
		Document:     "<html><body>done</body></html>",
		Artifacts: []schemas.RenderArtifact{
			{Format: schemas.ArtifactRaster, Buffer: []byte("\x89PNGfake")},
			{Format: schemas.ArtifactPaginated, Buffer: []byte("%PDF-fake")},
		},
		Metadata: map[string]string{"source": "unit-test"},
	})
	require.NoError(t, err)
	require.Len(t, locations, 3)

	convDir := filepath.Join(dir, "conv-123")

	doc, err := os.ReadFile(filepath.Join(convDir, "document.html"))
	require.NoError(t, err)
	assert.Equal(t, "<html><body>done</body></html>", string(doc))

	png, err := os.ReadFile(filepath.Join(convDir, "artifact.png"))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, []byte("\x89PNG")))

	pdf, err := os.ReadFile(filepath.Join(convDir, "artifact.pdf"))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF-")))

	meta, err := os.ReadFile(filepath.Join(convDir, "metadata.json"))
	require.NoError(t, err)
	assert.Contains(t, string(meta), `"source": "unit-test"`)

	for _, loc := range locations {
		info, err := os.Stat(loc.Path)
		require.NoError(t, err)
		assert.Equal(t, int64(loc.Bytes), info.Size())
	}
}

func TestRouteCompressedDocumentRoundTrips(t *testing.T) {
	router, dir := newTestRouter(t, true)

	const document = "<html><body>compress me</body></html>"
	_, err := router.Route(context.Background(), schemas.OutputPayload{
		ConversionID: "conv-br",
		Document:     document,
	})
	require.NoError(t, err)

	raw, err := os.ReadFile(filepath.Join(dir, "conv-br", "document.html.br"))
	require.NoError(t, err)

	decompressed, err := io.ReadAll(brotli.NewReader(bytes.NewReader(raw)))
	require.NoError(t, err)
	assert.Equal(t, document, string(decompressed))
}

func TestRouteRequiresConversionID(t *testing.T) {
	router, _ := newTestRouter(t, false)

	_, err := router.Route(context.Background(), schemas.OutputPayload{Document: "<html></html>"})
	require.Error(t, err)

	var verr *schemas.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestRouteSkipsUnknownArtifactFormat(t *testing.T) {
	router, dir := newTestRouter(t, false)

	locations, err := router.Route(context.Background(), schemas.OutputPayload{
		ConversionID: "conv-odd",
		Artifacts:    []schemas.RenderArtifact{{Format: "hologram", Buffer: []byte("x")}},
	})
	require.NoError(t, err)
	assert.Empty(t, locations)

	entries, err := os.ReadDir(filepath.Join(dir, "conv-odd"))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestNoTempFilesLeftBehind(t *testing.T) {
	router, dir := newTestRouter(t, false)

	_, err := router.Route(context.Background(), schemas.OutputPayload{
		ConversionID: "conv-clean",
		Document:     "<html></html>",
		Artifacts:    []schemas.RenderArtifact{{Format: schemas.ArtifactRaster, Buffer: []byte("png")}},
	})
	require.NoError(t, err)

	matches, err := filepath.Glob(filepath.Join(dir, "conv-clean", ".canvaspress-*"))
	require.NoError(t, err)
	assert.Empty(t, matches)
}
