package file

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/reforestamx/kobo-portal-etl/internal/config"
	"github.com/reforestamx/kobo-portal-etl/internal/domain"
)

// Writer persists the two portal documents. It implements pipeline.DocWriter.
type Writer struct {
	geojsonPath string
	resumenPath string
	logger      *slog.Logger
}

// NewWriter creates a document writer for the configured output paths.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	return &Writer{
		geojsonPath: cfg.OutGeoJSON,
		resumenPath: cfg.OutResumen,
		logger:      logger,
	}
}

// WriteDocuments writes the feature collection and the summary. Each file
// lands via temp-file-plus-rename so a frontend reading mid-run never sees a
// half-written document.
func (w *Writer) WriteDocuments(fc domain.FeatureCollection, sum domain.Summary) error {
	if err := writeJSON(w.geojsonPath, fc); err != nil {
		return fmt.Errorf("write geojson: %w", err)
	}
	if err := writeJSON(w.resumenPath, sum); err != nil {
		return fmt.Errorf("write resumen: %w", err)
	}

	w.logger.Info("documents written",
		"geojson", w.geojsonPath,
		"resumen", w.resumenPath,
		"features", len(fc.Features))
	return nil
}

// writeJSON encodes v with the portal's formatting: two-space indent, HTML
// escaping off so media URLs stay readable.
func writeJSON(path string, v any) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}()

	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename into place: %w", err)
	}
	return nil
}
