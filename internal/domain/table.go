package domain

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// Row maps column names to the raw cell text of one submission.
// Cells missing from a short CSV record are simply absent.
type Row map[string]string

// Table is a decoded CSV export: the header columns in file order plus one
// Row per data line. Duplicate header names keep their last value, Python
// DictReader style, but Columns retains every occurrence for prefix scans.
type Table struct {
	Columns []string
	Rows    []Row
}

// utf8BOM is the byte order mark some Kobo exports prepend.
const utf8BOM = "\xef\xbb\xbf"

// sniffSample is how much of the text the delimiter heuristic looks at.
const sniffSample = 8192

// DecodeTable parses raw CSV/TSV bytes into a Table. It strips a leading
// UTF-8 BOM, replaces invalid byte sequences, auto-detects the delimiter
// among ';', ',' and tab, and re-parses with ';' when the first parse
// collapses to a single column (the usual symptom of a wrong guess).
// Empty input or a lone header line yields a Table with zero rows, not an
// error.
func DecodeTable(raw []byte) (Table, error) {
	text := strings.TrimPrefix(string(raw), utf8BOM)
	text = strings.ToValidUTF8(text, "�")

	delim := sniffDelimiter(text)
	table, err := parseCSV(text, delim)
	if err != nil {
		return Table{}, err
	}

	if len(table.Columns) == 1 && delim != ';' {
		if retry, retryErr := parseCSV(text, ';'); retryErr == nil && len(retry.Columns) > 1 {
			return retry, nil
		}
	}
	return table, nil
}

// sniffDelimiter counts candidate delimiters in the leading portion of the
// text and picks the most frequent. Ties and all-zero counts fall back to
// comma.
func sniffDelimiter(text string) rune {
	sample := text
	if len(sample) > sniffSample {
		sample = sample[:sniffSample]
	}
	// Limit to the first couple of lines so a long free-text cell far into
	// the file cannot outvote the header.
	if i := indexNthLine(sample, 2); i > 0 {
		sample = sample[:i]
	}

	best := ','
	bestCount := 0
	for _, cand := range []rune{';', ',', '\t'} {
		if n := strings.Count(sample, string(cand)); n > bestCount {
			best = cand
			bestCount = n
		}
	}
	return best
}

// indexNthLine returns the offset just past the n-th newline, or -1 if the
// sample has fewer lines.
func indexNthLine(s string, n int) int {
	offset := 0
	for ; n > 0; n-- {
		i := strings.IndexByte(s[offset:], '\n')
		if i < 0 {
			return -1
		}
		offset += i + 1
	}
	return offset
}

func parseCSV(text string, delim rune) (Table, error) {
	r := csv.NewReader(strings.NewReader(text))
	r.Comma = delim
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if err == io.EOF {
		return Table{}, nil
	}
	if err != nil {
		return Table{}, fmt.Errorf("read header: %w", err)
	}

	table := Table{Columns: header}
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Table{}, fmt.Errorf("read record %d: %w", len(table.Rows)+2, err)
		}

		row := make(Row, len(header))
		for i, col := range header {
			if i < len(record) {
				row[col] = record[i]
			}
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}
