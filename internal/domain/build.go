package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// idColumns are the submission-identity columns, in precedence order.
var idColumns = []string{"_id", "_uuid", "meta/instanceID", "id"}

// Numeric KPI columns. Candidate lists so renamed fields in future form
// versions only need a new entry here.
var (
	plantasColumns       = []string{"total_plantas"}
	participantesColumns = []string{"total_participantes"}
)

// timestampLayouts are the accepted reference-date shapes: RFC 3339 (covers
// the trailing-Z form), naive date-times, and bare dates. Naive values are
// taken as UTC.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// BuildResult is everything one pass over the rows produces.
type BuildResult struct {
	Features []Feature
	Totals   Totals
	// LatestTime is the maximum parsed reference date, zero when the export
	// has no date column or no row carried a parsable value.
	LatestTime time.Time
}

// BuildFeatures converts rows into GeoJSON features and accumulates the
// portal KPIs. Rows without a resolvable location are dropped and do not
// count. dateColumn may be "" to disable latest-submission tracking.
func BuildFeatures(table Table, mode GeopointMode, dateColumn string) BuildResult {
	plantasCol := kpiColumn(table.Columns, plantasColumns)
	participantesCol := kpiColumn(table.Columns, participantesColumns)

	var result BuildResult
	for _, row := range table.Rows {
		pos, ok := mode.Coordinates(row)
		if !ok {
			continue
		}

		props := Properties{
			ID:                  submissionID(row, len(result.Features)+1),
			FechaActividad:      referenceDate(row, dateColumn),
			Municipios:          Multiselect(row, table.Columns, "municipios"),
			Comunidad:           row["comunidad"],
			SitioNombre:         row["sitio_nombre"],
			Instituciones:       Multiselect(row, table.Columns, "institucion_resp"),
			InstitucionRespOtro: row["institucion_resp_otro"],
			AreaM2:              countOrZero(row["area_m2"]),
			Tenencia:            row["tenencia"],
			TotalPlantas:        countOrZero(row[plantasCol]),
			TotalParticipantes:  countOrZero(row[participantesCol]),
			AutorizaFotos:       row["autoriza_fotos"],
			FotoSitioURL:        photoURL(row, "foto_sitio"),
			FotoActividadURL:    photoURL(row, "foto_actividad"),
			Observaciones:       row["observaciones"],
		}

		result.Totals.Boletas++
		result.Totals.Plantas += props.TotalPlantas
		result.Totals.Participantes += props.TotalParticipantes

		if dateColumn != "" {
			if ts, ok := parseTimestamp(row[dateColumn]); ok && ts.After(result.LatestTime) {
				result.LatestTime = ts
			}
		}

		result.Features = append(result.Features, Feature{
			Type:       "Feature",
			Geometry:   Geometry{Type: "Point", Coordinates: pos},
			Properties: props,
		})
	}
	return result
}

// kpiColumn resolves a candidate list against the header once per run; the
// first candidate doubles as the read key when none is present, so absent
// columns degrade to zero-valued cells.
func kpiColumn(columns, candidates []string) string {
	if col := firstPresent(columns, candidates); col != "" {
		return col
	}
	return candidates[0]
}

// submissionID returns the first well-known identity cell, or a synthetic
// row-N id numbered over the kept features.
func submissionID(row Row, n int) string {
	for _, col := range idColumns {
		if v := strings.TrimSpace(row[col]); v != "" {
			return v
		}
	}
	return fmt.Sprintf("row-%d", n)
}

// referenceDate prefers the form's own fecha_actividad cell and falls back
// to the sniffed date column.
func referenceDate(row Row, dateColumn string) string {
	if v := row["fecha_actividad"]; v != "" {
		return v
	}
	if dateColumn != "" {
		return row[dateColumn]
	}
	return ""
}

// photoURL prefers the "<field>_URL" column Kobo adds when media URLs are
// included in the export, falling back to the bare field.
func photoURL(row Row, field string) string {
	if v := row[field+"_URL"]; v != "" {
		return v
	}
	return row[field]
}

// countOrZero parses a KPI cell. Empty, unparsable, and negative values all
// become 0; fractional values round half away from zero.
func countOrZero(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	n := int(math.Round(v))
	if n < 0 {
		return 0
	}
	return n
}

// parseTimestamp tries the accepted layouts in order. Naive layouts parse
// in UTC.
func parseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}
