package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/reforestamx/kobo-portal-etl/internal/domain"
	"github.com/reforestamx/kobo-portal-etl/internal/observability"
)

// Source produces the raw export bytes for one run.
type Source interface {
	FetchExport(ctx context.Context) ([]byte, error)
}

// DocWriter persists the generated portal documents.
type DocWriter interface {
	WriteDocuments(fc domain.FeatureCollection, sum domain.Summary) error
}

// Pipeline orchestrates one fetch-decode-build-write run.
type Pipeline struct {
	source  Source
	writer  DocWriter
	logger  *slog.Logger
	metrics *observability.Metrics
}

// New creates a Pipeline with the given stages and observability.
func New(source Source, writer DocWriter, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		source:  source,
		writer:  writer,
		logger:  logger,
		metrics: metrics,
	}
}

// Run executes one complete sync. Any returned error is fatal for the run
// and means no documents were written; an export with zero submissions is
// not an error and produces valid empty documents.
func (p *Pipeline) Run(ctx context.Context) error {
	start := time.Now()

	raw, err := p.source.FetchExport(ctx)
	if err != nil {
		return fmt.Errorf("fetch export: %w", err)
	}

	table, err := domain.DecodeTable(raw)
	if err != nil {
		return fmt.Errorf("decode export: %w", err)
	}

	p.metrics.RowsDecoded.Add(float64(len(table.Rows)))
	p.logger.Info("export decoded", "columns", len(table.Columns), "rows", len(table.Rows))

	if len(table.Rows) == 0 {
		p.logger.Warn("export has no rows, writing empty documents")
		return p.finish(start,
			domain.NewFeatureCollection(nil),
			domain.NewSummary(domain.Totals{}, time.Time{}))
	}

	mode, err := domain.SniffGeopoint(table.Columns)
	if err != nil {
		return fmt.Errorf("sniff schema: %w", err)
	}
	dateColumn := domain.SniffDateColumn(table.Columns)
	p.logger.Info("schema sniffed", "geopoint", mode.String(), "date_column", dateColumn)

	result := domain.BuildFeatures(table, mode, dateColumn)

	skipped := len(table.Rows) - len(result.Features)
	p.metrics.RowsSkipped.Add(float64(skipped))
	p.metrics.FeaturesBuilt.Add(float64(len(result.Features)))
	if skipped > 0 {
		p.logger.Warn("rows without coordinates skipped", "skipped", skipped)
	}

	return p.finish(start,
		domain.NewFeatureCollection(result.Features),
		domain.NewSummary(result.Totals, result.LatestTime))
}

// finish writes both documents and records the run outcome.
func (p *Pipeline) finish(start time.Time, fc domain.FeatureCollection, sum domain.Summary) error {
	if err := p.writer.WriteDocuments(fc, sum); err != nil {
		return fmt.Errorf("write documents: %w", err)
	}

	p.metrics.RunDuration.Observe(time.Since(start).Seconds())
	p.logger.Info("sync complete",
		"features", len(fc.Features),
		"total_boletas", sum.KPIs.Boletas,
		"total_plantas", sum.KPIs.Plantas,
		"total_participantes", sum.KPIs.Participantes,
		"ultima_actualizacion", sum.UltimaActualizacion,
		"duration", time.Since(start))
	return nil
}
