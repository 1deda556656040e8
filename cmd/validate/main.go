// Command validate performs integrity checks on the documents the portal
// sync publishes: the GeoJSON feature collection and the KPI summary. It
// verifies document structure, coordinate and value ranges, and
// cross-document consistency, and can re-run the decode and build stages
// against a downloaded CSV export to confirm the published numbers.
//
// Usage:
//
//	go run ./cmd/validate -geojson data/puntos.geojson -resumen data/resumen.json
//	go run ./cmd/validate -geojson data/puntos.geojson -resumen data/resumen.json \
//	  -export portal_export.csv
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/reforestamx/kobo-portal-etl/internal/domain"
)

// dateLayouts mirror the reference-date shapes the build stage accepts.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	geojsonPath := flag.String("geojson", "data/puntos.geojson", "path to the published GeoJSON document")
	resumenPath := flag.String("resumen", "data/resumen.json", "path to the published summary document")
	exportPath := flag.String("export", "", "optional CSV export to re-derive the documents from")
	flag.Parse()

	if code := run(*geojsonPath, *resumenPath, *exportPath); code != 0 {
		os.Exit(code)
	}
}

func run(geojsonPath, resumenPath, exportPath string) int {
	// ── Load the published documents ──
	fmt.Println("=== Portal Document Validation ===")
	fmt.Println()

	fc, err := loadDoc[domain.FeatureCollection](geojsonPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load geojson: %v\n", err)
		return 1
	}
	sum, err := loadDoc[domain.Summary](resumenPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load resumen: %v\n", err)
		return 1
	}

	// ── Run validation phases ──
	phases := []*phase{
		validateGeoJSON(fc),
		validateSummary(sum),
		validateConsistency(fc, sum),
	}
	if exportPath != "" {
		phases = append(phases, validateAgainstExport(exportPath, fc, sum))
	}

	// ── Report results ──
	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Documents: %d features, %d boletas, updated %s\n",
		len(fc.Features), sum.KPIs.Boletas, sum.UltimaActualizacion)

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

func loadDoc[T any](path string) (*T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc T
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// ── Phase 1: GeoJSON Structure ──
// Validates the feature collection shape and every feature's geometry and
// property bag.

func validateGeoJSON(fc *domain.FeatureCollection) *phase {
	p := &phase{name: "Phase 1: GeoJSON Structure"}

	if fc.Type != "FeatureCollection" {
		p.errorf("document type is %q, expected \"FeatureCollection\"", fc.Type)
	}
	if fc.Features == nil {
		p.errorf("features is null; an empty export must publish []")
	}

	seenIDs := map[string]int{}
	for i, f := range fc.Features {
		if f.Type != "Feature" {
			p.errorf("feature %d: type is %q, expected \"Feature\"", i, f.Type)
		}
		if f.Geometry.Type != "Point" {
			p.errorf("feature %d: geometry type is %q, expected \"Point\"", i, f.Geometry.Type)
		}

		lon, lat := f.Geometry.Coordinates[0], f.Geometry.Coordinates[1]
		if lon < -180 || lon > 180 {
			p.errorf("feature %d: longitude %g out of range", i, lon)
		}
		if lat < -90 || lat > 90 {
			p.errorf("feature %d: latitude %g out of range", i, lat)
		}
		if lon == 0 && lat == 0 {
			p.errorf("feature %d: coordinates are (0, 0); rows without a location must be dropped, not zeroed", i)
		}

		if f.Properties.ID == "" {
			p.errorf("feature %d: id is empty", i)
		} else {
			seenIDs[f.Properties.ID]++
		}
		if f.Properties.Municipios == nil {
			p.errorf("feature %d: municipios is null, expected []", i)
		}
		if f.Properties.Instituciones == nil {
			p.errorf("feature %d: instituciones is null, expected []", i)
		}
		if f.Properties.TotalPlantas < 0 || f.Properties.TotalParticipantes < 0 || f.Properties.AreaM2 < 0 {
			p.errorf("feature %d: negative count property", i)
		}
	}

	for id, n := range seenIDs {
		if n > 1 {
			p.errorf("id %q appears %d times", id, n)
		}
	}
	return p
}

// ── Phase 2: Summary Structure ──

func validateSummary(sum *domain.Summary) *phase {
	p := &phase{name: "Phase 2: Summary Structure"}

	if sum.UltimaActualizacion == "" {
		p.errorf("ultima_actualizacion is empty")
	} else if _, err := time.Parse(time.RFC3339, sum.UltimaActualizacion); err != nil {
		p.errorf("ultima_actualizacion %q is not RFC 3339: %v", sum.UltimaActualizacion, err)
	}

	if sum.KPIs.Boletas < 0 || sum.KPIs.Plantas < 0 || sum.KPIs.Participantes < 0 {
		p.errorf("negative KPI: %+v", sum.KPIs)
	}
	if sum.KPIs.Boletas == 0 && (sum.KPIs.Plantas > 0 || sum.KPIs.Participantes > 0) {
		p.errorf("zero boletas but non-zero totals: %+v", sum.KPIs)
	}
	return p
}

// ── Phase 3: Cross-Document Consistency ──
// The summary KPIs must be derivable from the published features.

func validateConsistency(fc *domain.FeatureCollection, sum *domain.Summary) *phase {
	p := &phase{name: "Phase 3: Cross-Document Consistency"}

	if sum.KPIs.Boletas != len(fc.Features) {
		p.errorf("total_boletas is %d, document has %d features", sum.KPIs.Boletas, len(fc.Features))
	}

	var plantas, participantes int
	var latest time.Time
	for _, f := range fc.Features {
		plantas += f.Properties.TotalPlantas
		participantes += f.Properties.TotalParticipantes
		if ts, ok := parseDate(f.Properties.FechaActividad); ok && ts.After(latest) {
			latest = ts
		}
	}

	if sum.KPIs.Plantas != plantas {
		p.errorf("total_plantas is %d, features sum to %d", sum.KPIs.Plantas, plantas)
	}
	if sum.KPIs.Participantes != participantes {
		p.errorf("total_participantes is %d, features sum to %d", sum.KPIs.Participantes, participantes)
	}

	// The published timestamp is the latest submission date, or the
	// generation time when no row carried one. Either way it may not
	// precede the latest feature date.
	if updated, err := time.Parse(time.RFC3339, sum.UltimaActualizacion); err == nil && !latest.IsZero() {
		if updated.Before(latest) {
			p.errorf("ultima_actualizacion %s precedes the latest feature date %s",
				sum.UltimaActualizacion, latest.Format(time.RFC3339))
		}
	}
	return p
}

// ── Phase 4: Export Re-derivation ──
// Re-runs the decode and build stages on a local copy of the CSV export and
// compares the derived numbers with the published ones.

func validateAgainstExport(path string, fc *domain.FeatureCollection, sum *domain.Summary) *phase {
	p := &phase{name: "Phase 4: Export Re-derivation"}

	raw, err := os.ReadFile(path)
	if err != nil {
		p.errorf("read export: %v", err)
		return p
	}
	table, err := domain.DecodeTable(raw)
	if err != nil {
		p.errorf("decode export: %v", err)
		return p
	}

	mode, err := domain.SniffGeopoint(table.Columns)
	if err != nil {
		p.errorf("sniff geopoint: %v", err)
		return p
	}
	result := domain.BuildFeatures(table, mode, domain.SniffDateColumn(table.Columns))

	if len(result.Features) != len(fc.Features) {
		p.errorf("export derives %d features, document has %d", len(result.Features), len(fc.Features))
	}
	if result.Totals != sum.KPIs {
		p.errorf("export derives KPIs %+v, document has %+v", result.Totals, sum.KPIs)
	}
	if !result.LatestTime.IsZero() {
		want := result.LatestTime.UTC().Format(time.RFC3339)
		if sum.UltimaActualizacion != want {
			p.errorf("export derives ultima_actualizacion %s, document has %s", want, sum.UltimaActualizacion)
		}
	}
	return p
}

// ── Helpers ──

func parseDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if ts, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}
