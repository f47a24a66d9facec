// Package output persists conversion results. The filesystem router writes
// each conversion into its own directory under a configured root; other
// routers (object stores, archives) can stand in behind the same interface.
package output

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/andybalholm/brotli"
	jsoniter "github.com/json-iterator/go"
	"github.com/mitchellh/go-homedir"
	"go.uber.org/zap"

	"github.com/canvaspress/canvaspress/api/schemas"
	"github.com/canvaspress/canvaspress/internal/config"
)

const dirPerm = 0o755

// FilesystemRouter writes payloads to local disk, one directory per
// conversion.
type FilesystemRouter struct {
	root     string
	compress bool
	logger   *zap.Logger
}

var _ schemas.OutputRouter = (*FilesystemRouter)(nil)

// NewFilesystemRouter resolves the configured directory (expanding a
// leading ~) and ensures it exists.
func NewFilesystemRouter(cfg config.OutputConfig, logger *zap.Logger) (*FilesystemRouter, error) {
	root, err := homedir.Expand(cfg.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to expand output directory %q: %w", cfg.Dir, err)
	}
	if err := os.MkdirAll(root, dirPerm); err != nil {
		return nil, fmt.Errorf("failed to create output directory %q: %w", root, err)
	}
	return &FilesystemRouter{
		root:     root,
		compress: cfg.CompressDocument,
		logger:   logger.Named("output"),
	}, nil
}

// Route writes the resolved document and every artifact under a directory
// named after the conversion. Files land via a temp-file rename so a
// crashed write never leaves a truncated output behind.
func (r *FilesystemRouter) Route(ctx context.Context, payload schemas.OutputPayload) ([]schemas.OutputLocation, error) {
	if payload.ConversionID == "" {
		return nil, schemas.NewValidationError("conversionId", "conversion id is required")
	}

	dir := filepath.Join(r.root, payload.ConversionID)
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return nil, fmt.Errorf("failed to create conversion directory: %w", err)
	}

	var locations []schemas.OutputLocation

	if payload.Document != "" {
		loc, err := r.writeDocument(dir, payload.Document)
		if err != nil {
			return nil, err
		}
		locations = append(locations, loc)
	}

	for _, artifact := range payload.Artifacts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		name := artifactFilename(artifact.Format)
		if name == "" {
			r.logger.Warn("Skipping artifact with unknown format.", zap.String("format", string(artifact.Format)))
			continue
		}
		path := filepath.Join(dir, name)
		if err := writeAtomic(path, artifact.Buffer); err != nil {
			return nil, fmt.Errorf("failed to write %s artifact: %w", artifact.Format, err)
		}
		locations = append(locations, schemas.OutputLocation{
			Format: artifact.Format,
			Path:   path,
			Bytes:  len(artifact.Buffer),
		})
	}

	if len(payload.Metadata) > 0 {
		if err := r.writeMetadata(dir, payload.Metadata); err != nil {
			return nil, err
		}
	}

	r.logger.Info("Conversion outputs written.",
		zap.String("conversion_id", payload.ConversionID),
		zap.String("dir", dir),
		zap.Int("files", len(locations)))
	return locations, nil
}

func (r *FilesystemRouter) writeDocument(dir, document string) (schemas.OutputLocation, error) {
	data := []byte(document)
	name := "document.html"
	if r.compress {
		compressed, err := brotliCompress(data)
		if err != nil {
			return schemas.OutputLocation{}, fmt.Errorf("failed to compress document: %w", err)
		}
		data = compressed
		name = "document.html.br"
	}

	path := filepath.Join(dir, name)
	if err := writeAtomic(path, data); err != nil {
		return schemas.OutputLocation{}, fmt.Errorf("failed to write document: %w", err)
	}
	return schemas.OutputLocation{Path: path, Bytes: len(data)}, nil
}

func (r *FilesystemRouter) writeMetadata(dir string, metadata map[string]string) error {
	data, err := jsoniter.ConfigCompatibleWithStandardLibrary.MarshalIndent(metadata, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode metadata: %w", err)
	}
	if err := writeAtomic(filepath.Join(dir, "metadata.json"), data); err != nil {
		return fmt.Errorf("failed to write metadata: %w", err)
	}
	return nil
}

func artifactFilename(format schemas.ArtifactFormat) string {
	switch format {
	case schemas.ArtifactRaster:
		return "artifact.png"
	case schemas.ArtifactPaginated:
		return "artifact.pdf"
	default:
		return ""
	}
}

// writeAtomic writes data to a temp file in the target directory and
// renames it into place.
func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".canvaspress-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

func brotliCompress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := brotli.NewWriterLevel(&buf, brotli.BestCompression)
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
