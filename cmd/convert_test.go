// -- cmd/convert_test.go --
package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canvaspress/canvaspress/api/schemas"
)

func TestArtifactSelection(t *testing.T) {
	tests := []struct {
		format     string
		wantRaster bool
		wantPDF    bool
		wantErr    bool
	}{
		{format: "png", wantRaster: true},
		{format: "pdf", wantPDF: true},
		{format: "both", wantRaster: true, wantPDF: true},
		{format: "none"},
		{format: "tiff", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			convertFlags.format = tt.format
			raster, pdf, err := artifactSelection()
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantRaster, raster != nil)
			assert.Equal(t, tt.wantPDF, pdf != nil)
		})
	}
}

func TestResolveOptionsMapping(t *testing.T) {
	convertFlags.missing = "placeholder"
	convertFlags.placeholder = "[N/A]"
	convertFlags.noEscape = true

	opts, err := resolveOptions()
	require.NoError(t, err)
	assert.Equal(t, schemas.MissingPlaceholder, opts.Policy())
	assert.Equal(t, "[N/A]", opts.MissingText)
	assert.False(t, opts.ShouldEscape())

	convertFlags.missing = "panic"
	_, err = resolveOptions()
	assert.Error(t, err)

	convertFlags.missing = "keep"
	convertFlags.noEscape = false
}

func TestLoadData(t *testing.T) {
	data, err := loadData("")
	require.NoError(t, err)
	assert.Nil(t, data)

	path := filepath.Join(t.TempDir(), "data.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"name": "World", "nested": {"k": 1}}`), 0o644))

	data, err = loadData(path)
	require.NoError(t, err)
	assert.Equal(t, "World", data["name"])

	_, err = loadData(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
