package domain

import "time"

// NewFeatureCollection packages features in build order. A nil slice becomes
// an empty one so the document always carries "features": [].
func NewFeatureCollection(features []Feature) FeatureCollection {
	if features == nil {
		features = []Feature{}
	}
	return FeatureCollection{Type: "FeatureCollection", Features: features}
}

// NewSummary builds the resumen document. The timestamp is the latest parsed
// submission date at second precision; when no row yielded one it falls back
// to the package clock's current UTC time, which keeps data-driven output
// independent of the wall clock.
func NewSummary(totals Totals, latest time.Time) Summary {
	if latest.IsZero() {
		latest = clock.Now().UTC()
	}
	return Summary{
		UltimaActualizacion: latest.Truncate(time.Second).Format(time.RFC3339),
		KPIs:                totals,
	}
}
