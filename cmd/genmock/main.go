// Command genmock generates a deterministic mock Kobo CSV export for local
// development and test fixtures. It can also run the actual decode and build
// stages on the generated file to produce the matching portal documents, so
// fixture numbers always track real pipeline behavior.
//
// Usage:
//
//	go run ./cmd/genmock -shape combined -rows 25 -csv-out data/mock/portal_export.csv
//	go run ./cmd/genmock -shape choices \
//	  -csv-out data/mock/portal_export.csv \
//	  -geojson-out data/mock/puntos.geojson \
//	  -resumen-out data/mock/resumen.json
package main

import (
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/reforestamx/kobo-portal-etl/internal/domain"
)

var municipioOptions = []string{"tlalpan", "xochimilco", "milpa_alta", "tlahuac", "magdalena_contreras"}

var institucionOptions = []string{"conafor", "sedema", "semarnat", "brigada_vecinal"}

var (
	comunidades = []string{
		"San Miguel Topilejo", "Parres el Guarda", "San Andrés Totoltepec",
		"Santa Cecilia Tepetlapa", "San Luis Tlaxialtemalco",
	}
	sitios = []string{
		"Paraje El Encinal", "Ladera Norte", "Cañada del Agua",
		"Predio La Palma", "Lomas del Ocotal",
	}
	tenencias     = []string{"ejidal", "comunal", "privada"}
	observaciones = []string{
		"", "", "Suelo pedregoso en la ladera", "Se requiere riego de auxilio",
		"Reposición de fallas del año pasado", "",
	}
)

// submission is one generated boleta, independent of the export shape it is
// rendered into.
type submission struct {
	id            int
	uuid          string
	submitted     string
	fecha         string
	comunidad     string
	sitio         string
	hasLocation   bool
	lat, lon      float64
	alt           int
	acc           float64
	municipios    []string
	instituciones []string
	otro          string
	area          int
	plantas       int
	participantes int
	autoriza      string
	foto          string
	observacion   string
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	shape := flag.String("shape", "combined", "export shape: combined, split or choices")
	rows := flag.Int("rows", 25, "number of submissions to generate")
	seed := flag.Int64("seed", 1, "random seed")
	csvOut := flag.String("csv-out", "data/mock/portal_export.csv", "output path for the mock CSV export")
	geojsonOut := flag.String("geojson-out", "", "optional output path for the derived GeoJSON document")
	resumenOut := flag.String("resumen-out", "", "optional output path for the derived summary document")
	flag.Parse()

	if *shape != "combined" && *shape != "split" && *shape != "choices" {
		flag.Usage()
		return fmt.Errorf("invalid -shape %q: want combined, split or choices", *shape)
	}

	// Fixed clock so the derived summary is reproducible even when no row
	// carries a parsable date.
	domain.SetClock(clockwork.NewFakeClockAt(
		time.Date(2025, time.July, 15, 6, 0, 0, 0, time.UTC),
	))
	defer domain.SetClock(nil)

	subs := generate(*rows, rand.New(rand.NewSource(*seed)))
	records := render(*shape, subs)

	if err := writeCSV(*csvOut, records); err != nil {
		return fmt.Errorf("writing mock export: %w", err)
	}
	log.Printf("wrote mock export: %s (%d rows, shape=%s)", *csvOut, len(subs), *shape)

	if *geojsonOut == "" && *resumenOut == "" {
		return nil
	}

	// Derive the portal documents from the file just written, so the
	// fixtures reflect the full decode path including BOM and delimiter.
	raw, err := os.ReadFile(*csvOut)
	if err != nil {
		return fmt.Errorf("re-reading mock export: %w", err)
	}
	table, err := domain.DecodeTable(raw)
	if err != nil {
		return fmt.Errorf("decoding mock export: %w", err)
	}
	mode, err := domain.SniffGeopoint(table.Columns)
	if err != nil {
		return fmt.Errorf("sniffing mock export: %w", err)
	}
	result := domain.BuildFeatures(table, mode, domain.SniffDateColumn(table.Columns))

	if *geojsonOut != "" {
		if err := writeJSON(*geojsonOut, domain.NewFeatureCollection(result.Features)); err != nil {
			return fmt.Errorf("writing geojson fixture: %w", err)
		}
		log.Printf("wrote geojson fixture: %s", *geojsonOut)
	}
	if *resumenOut != "" {
		if err := writeJSON(*resumenOut, domain.NewSummary(result.Totals, result.LatestTime)); err != nil {
			return fmt.Errorf("writing resumen fixture: %w", err)
		}
		log.Printf("wrote resumen fixture: %s", *resumenOut)
	}

	printStats(subs, result)
	return nil
}

// ── Generation ──

func generate(rows int, r *rand.Rand) []submission {
	base := time.Date(2025, time.May, 1, 0, 0, 0, 0, time.UTC)

	subs := make([]submission, 0, rows)
	for i := 0; i < rows; i++ {
		day := base.AddDate(0, 0, r.Intn(90))
		s := submission{
			id:        1001 + i,
			uuid:      fmt.Sprintf("uuid-%04d-%08x", i, r.Uint32()),
			fecha:     day.Format("2006-01-02"),
			submitted: day.Add(time.Duration(8+r.Intn(10)) * time.Hour).Format("2006-01-02T15:04:05"),
			comunidad: pick(r, comunidades),
			sitio:     pick(r, sitios),
			// Every eighth boleta has no location, so drop handling
			// stays visible in fixtures.
			hasLocation:   i%8 != 7,
			lat:           19.10 + r.Float64()*0.25,
			lon:           -99.30 + r.Float64()*0.30,
			alt:           2200 + r.Intn(400),
			acc:           3 + r.Float64()*7,
			municipios:    choose(r, municipioOptions, 0.35, true),
			instituciones: choose(r, institucionOptions, 0.30, false),
			area:          500 + r.Intn(4500),
			plantas:       20 + r.Intn(280),
			participantes: 3 + r.Intn(37),
			autoriza:      "no",
			observacion:   pick(r, observaciones),
		}
		if r.Float64() < 0.8 {
			s.autoriza = "si"
		}
		if r.Float64() < 0.15 {
			s.otro = "Vivero municipal"
		}
		if r.Float64() < 0.5 {
			s.foto = fmt.Sprintf("https://kc.kobotoolbox.org/media/original?media_file=reforestamx/attachments/sitio_%04d.jpg", s.id)
		}
		subs = append(subs, s)
	}
	return subs
}

func pick(r *rand.Rand, options []string) string {
	return options[r.Intn(len(options))]
}

// choose includes each option independently with probability p, in option
// order. With atLeastOne it never returns an empty selection.
func choose(r *rand.Rand, options []string, p float64, atLeastOne bool) []string {
	chosen := []string{}
	for _, opt := range options {
		if r.Float64() < p {
			chosen = append(chosen, opt)
		}
	}
	if atLeastOne && len(chosen) == 0 {
		chosen = append(chosen, options[r.Intn(len(options))])
	}
	return chosen
}

// ── Rendering ──

// render lays the submissions out as CSV records in the requested shape:
// a combined "ubicacion" column, a split latitude/longitude pair, or the
// combined column with exploded multiselect choice columns.
func render(shape string, subs []submission) [][]string {
	header := []string{"_id", "_uuid", "_submission_time", "fecha_actividad", "comunidad", "sitio_nombre"}
	switch shape {
	case "split":
		header = append(header, "ubicacion_latitude", "ubicacion_longitude")
	default:
		header = append(header, "ubicacion")
	}
	if shape == "choices" {
		for _, opt := range municipioOptions {
			header = append(header, "municipios/"+opt)
		}
		for _, opt := range institucionOptions {
			header = append(header, "institucion_resp/"+opt)
		}
	} else {
		header = append(header, "municipios", "institucion_resp")
	}
	header = append(header,
		"institucion_resp_otro", "area_m2", "tenencia",
		"total_plantas", "total_participantes", "autoriza_fotos",
		"foto_sitio_URL", "observaciones")

	records := [][]string{header}
	for i := range subs {
		records = append(records, renderRow(shape, &subs[i]))
	}
	return records
}

func renderRow(shape string, s *submission) []string {
	row := []string{
		fmt.Sprintf("%d", s.id), s.uuid, s.submitted, s.fecha, s.comunidad, s.sitio,
	}

	switch shape {
	case "split":
		if s.hasLocation {
			row = append(row, fmt.Sprintf("%.5f", s.lat), fmt.Sprintf("%.5f", s.lon))
		} else {
			row = append(row, "", "")
		}
	default:
		if s.hasLocation {
			row = append(row, fmt.Sprintf("%.5f %.5f %d.0 %.1f", s.lat, s.lon, s.alt, s.acc))
		} else {
			row = append(row, "")
		}
	}

	if shape == "choices" {
		for _, opt := range municipioOptions {
			row = append(row, chosenFlag(s.municipios, opt))
		}
		for _, opt := range institucionOptions {
			row = append(row, chosenFlag(s.instituciones, opt))
		}
	} else {
		row = append(row, strings.Join(s.municipios, " "), strings.Join(s.instituciones, " "))
	}

	return append(row,
		s.otro, fmt.Sprintf("%d", s.area), pickTenencia(s),
		fmt.Sprintf("%d", s.plantas), fmt.Sprintf("%d", s.participantes), s.autoriza,
		s.foto, s.observacion)
}

func chosenFlag(chosen []string, opt string) string {
	for _, c := range chosen {
		if c == opt {
			return "1"
		}
	}
	return "0"
}

// pickTenencia derives tenure from the id so rendering stays free of random
// state and identical rows render identically across shapes.
func pickTenencia(s *submission) string {
	return tenencias[s.id%len(tenencias)]
}

// ── Output ──

// writeCSV writes the records the way Kobo renders exports: UTF-8 BOM and a
// semicolon delimiter.
func writeCSV(path string, records [][]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := f.Write([]byte("\xef\xbb\xbf")); err != nil {
		f.Close()
		return err
	}

	w := csv.NewWriter(f)
	w.Comma = ';'
	if err := w.WriteAll(records); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ── Stats ──

type optionCount struct {
	option string
	count  int
}

func printStats(subs []submission, result domain.BuildResult) {
	var withoutLocation int
	municipioCounts := map[string]int{}
	for i := range subs {
		if !subs[i].hasLocation {
			withoutLocation++
		}
		for _, m := range subs[i].municipios {
			municipioCounts[m]++
		}
	}

	fmt.Println("\n=== Stats for updating test assertions ===")
	fmt.Printf("Rows: %d (%d without location)\n", len(subs), withoutLocation)
	fmt.Printf("Features derived: %d\n", len(result.Features))
	fmt.Printf("KPIs: boletas=%d plantas=%d participantes=%d\n",
		result.Totals.Boletas, result.Totals.Plantas, result.Totals.Participantes)
	if !result.LatestTime.IsZero() {
		fmt.Printf("Latest activity: %s\n", result.LatestTime.UTC().Format(time.RFC3339))
	}

	mc := make([]optionCount, 0, len(municipioCounts))
	for m, c := range municipioCounts {
		mc = append(mc, optionCount{m, c})
	}
	sort.Slice(mc, func(i, j int) bool { return mc[i].count > mc[j].count })
	fmt.Printf("Municipios: ")
	for _, m := range mc {
		fmt.Printf("%s=%d ", m.option, m.count)
	}
	fmt.Println()

	if len(result.Features) > 0 {
		f := result.Features[0]
		fmt.Println("\nFirst feature:")
		fmt.Printf("  ID: %s\n", f.Properties.ID)
		fmt.Printf("  Coordinates: [%g, %g]\n", f.Geometry.Coordinates[0], f.Geometry.Coordinates[1])
		fmt.Printf("  Municipios: %v\n", f.Properties.Municipios)
		fmt.Printf("  Plantas: %d, Participantes: %d\n",
			f.Properties.TotalPlantas, f.Properties.TotalParticipantes)
	}
}
