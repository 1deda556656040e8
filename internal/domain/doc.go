// Package domain models KoboToolbox survey submissions and their conversion
// into the portal's GeoJSON and summary documents.
//
// # Data Source
//
// Submissions come from a saved export configuration on a KoboToolbox asset,
// rendered synchronously as CSV via the export-settings data endpoint. The
// same form has been exported with different settings over time, so the CSV
// shape is not stable: the delimiter varies (comma, semicolon, tab), a UTF-8
// BOM may or may not be present, and several logical fields appear under
// more than one column layout. This package normalizes all of those shapes.
//
// # Kobo CSV Conventions
//
// Geopoint columns (one logical location per submission):
//
//	Combined: a single column holding "lat lon [alt] [acc]" separated by
//	spaces, e.g. "19.4326 -99.1332 2240.0 8.0". Only the first two tokens
//	are used. Note the data order is latitude first; GeoJSON output is
//	always [longitude, latitude].
//	Split: separate latitude/longitude columns named "<root>_latitude" /
//	"<root>_longitude", "<root>/latitude" / "<root>/longitude", or
//	"_<root>_latitude" / "_<root>_longitude" depending on export settings.
//	Candidate roots, in priority order: "ubicacion" (the form's question),
//	"_geolocation" (Kobo's internal field), "geopoint", "location".
//
// Multiselect (select_multiple) columns:
//
//	Inline: one column named after the question holding the chosen option
//	codes separated by spaces, e.g. municipios = "tlalpan xochimilco".
//	Exploded: one column per option named "<question>/<option>" or
//	"<question>_<option>" holding a boolean-ish cell ("1", "True", "sí",
//	...). Option order follows column order. When both forms are present
//	the inline column wins.
//
// Reference date:
//
//	First present of: fecha_actividad, _submission_time, endtime,
//	starttime, today, start, end. Values are ISO-8601-ish; a trailing "Z"
//	means UTC, naive values are taken as UTC, date-only values are
//	midnight. Unparsable values simply don't advance the latest-submission
//	timestamp.
//
// Numeric fields:
//
//	area_m2, total_plantas, total_participantes arrive as free text.
//	Empty, unparsable, or negative cells become 0; fractional values round
//	half away from zero. These feed the portal KPIs, which must stay
//	non-negative.
//
// Submission identity:
//
//	First non-empty of: _id, _uuid, meta/instanceID, id. Rows with none of
//	these get a synthetic "row-N" id numbered over the kept features.
//
// # Output
//
// Every submission with a resolvable location becomes one GeoJSON Point
// feature with a fixed Spanish-keyed property bag (see [Properties]); the
// run's totals and latest submission time become the resumen document (see
// [Summary]). Rows without a location are skipped and do not count.
package domain
