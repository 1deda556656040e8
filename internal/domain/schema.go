package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// geopointRoots are the logical field names that may carry the submission
// location, in priority order: the form's own question first, then Kobo's
// internal geolocation field, then generic aliases.
var geopointRoots = []string{"ubicacion", "_geolocation", "geopoint", "location"}

// dateColumnCandidates are the columns that may carry the submission's
// reference date, in priority order.
var dateColumnCandidates = []string{
	"fecha_actividad",
	"_submission_time",
	"endtime",
	"starttime",
	"today",
	"start",
	"end",
}

// truthyTokens are the cell values that mark an exploded multiselect option
// as chosen. Kobo renders booleans differently depending on export language
// and version, so this is an explicit set rather than a strconv.ParseBool.
var truthyTokens = map[string]struct{}{
	"1":         {},
	"true":      {},
	"t":         {},
	"yes":       {},
	"y":         {},
	"si":        {},
	"sí":        {},
	"verdadero": {},
}

// GeopointMode is how the export encodes the submission location, resolved
// once per run from the header and applied uniformly to every row.
type GeopointMode interface {
	// Coordinates extracts the row's position in GeoJSON [lon, lat] order.
	// ok is false when the row has no parsable location.
	Coordinates(row Row) (pos Position, ok bool)
	// String describes the mode for logs and diagnostics.
	String() string
}

// CombinedGeopoint is a single column holding "lat lon [alt] [acc]"
// separated by whitespace.
type CombinedGeopoint struct {
	Column string
}

func (g CombinedGeopoint) Coordinates(row Row) (Position, bool) {
	fields := strings.Fields(row[g.Column])
	if len(fields) < 2 {
		return Position{}, false
	}
	lat, okLat := parseCoordinate(fields[0])
	lon, okLon := parseCoordinate(fields[1])
	if !okLat || !okLon {
		return Position{}, false
	}
	return Position{lon, lat}, true
}

func (g CombinedGeopoint) String() string {
	return fmt.Sprintf("combined(%s)", g.Column)
}

// SplitGeopoint is a pair of columns holding latitude and longitude
// separately.
type SplitGeopoint struct {
	LatColumn string
	LonColumn string
}

func (g SplitGeopoint) Coordinates(row Row) (Position, bool) {
	lat, okLat := parseCoordinate(row[g.LatColumn])
	lon, okLon := parseCoordinate(row[g.LonColumn])
	if !okLat || !okLon {
		return Position{}, false
	}
	return Position{lon, lat}, true
}

func (g SplitGeopoint) String() string {
	return fmt.Sprintf("split(%s, %s)", g.LatColumn, g.LonColumn)
}

// parseCoordinate parses a decimal-degree cell. NaN and ±Inf parse under
// strconv but cannot be represented in JSON, so they count as missing.
func parseCoordinate(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// NoGeopointError reports that no known geopoint column layout matched the
// header. It carries what was searched so the operator can fix the export
// without re-running with extra instrumentation.
type NoGeopointError struct {
	Roots   []string
	Columns []string
}

func (e *NoGeopointError) Error() string {
	cols := e.Columns
	suffix := ""
	if len(cols) > 40 {
		cols = cols[:40]
		suffix = ", ..."
	}
	return fmt.Sprintf(
		"no geopoint column found: tried roots %v as a combined column and as <root>_latitude/_longitude, <root>/latitude/longitude and _<root>_latitude/_longitude pairs; columns available: %v%s",
		e.Roots, cols, suffix)
}

// SniffGeopoint resolves the geopoint layout from the header columns. For
// each candidate root it prefers the combined single-column form, then the
// three split naming variants. The first root that matches any form wins.
func SniffGeopoint(columns []string) (GeopointMode, error) {
	present := make(map[string]struct{}, len(columns))
	for _, c := range columns {
		present[c] = struct{}{}
	}
	has := func(c string) bool {
		_, ok := present[c]
		return ok
	}

	for _, root := range geopointRoots {
		if has(root) {
			return CombinedGeopoint{Column: root}, nil
		}
		for _, v := range [][2]string{
			{root + "_latitude", root + "_longitude"},
			{root + "/latitude", root + "/longitude"},
			{"_" + root + "_latitude", "_" + root + "_longitude"},
		} {
			if has(v[0]) && has(v[1]) {
				return SplitGeopoint{LatColumn: v[0], LonColumn: v[1]}, nil
			}
		}
	}
	return nil, &NoGeopointError{Roots: geopointRoots, Columns: columns}
}

// SniffDateColumn returns the first date candidate present in the header, or
// "" when the export carries no usable date column. Absence is not an error;
// it only disables latest-submission tracking.
func SniffDateColumn(columns []string) string {
	return firstPresent(columns, dateColumnCandidates)
}

// firstPresent returns the first candidate that appears among columns.
func firstPresent(columns, candidates []string) string {
	present := make(map[string]struct{}, len(columns))
	for _, c := range columns {
		present[c] = struct{}{}
	}
	for _, cand := range candidates {
		if _, ok := present[cand]; ok {
			return cand
		}
	}
	return ""
}

// Multiselect reconstructs the chosen options of a select_multiple question.
// A non-empty inline column named exactly base wins and is split on
// whitespace. Otherwise every "base/option" or "base_option" column whose
// cell is truthy contributes its option suffix, in header order. The result
// is never nil so it serializes as [] rather than null.
func Multiselect(row Row, columns []string, base string) []string {
	if v := strings.TrimSpace(row[base]); v != "" {
		return strings.Fields(v)
	}

	options := []string{}
	for _, col := range columns {
		var option string
		switch {
		case strings.HasPrefix(col, base+"/"):
			option = col[len(base)+1:]
		case strings.HasPrefix(col, base+"_"):
			option = col[len(base)+1:]
		default:
			continue
		}
		if option == "" || !isTruthy(row[col]) {
			continue
		}
		options = append(options, option)
	}
	return options
}

func isTruthy(cell string) bool {
	_, ok := truthyTokens[strings.ToLower(strings.TrimSpace(cell))]
	return ok
}
