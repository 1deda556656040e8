package domain

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSniffGeopoint(t *testing.T) {
	tests := []struct {
		name    string
		columns []string
		want    string
	}{
		{
			name:    "combined form question",
			columns: []string{"id", "ubicacion", "comunidad"},
			want:    "combined(ubicacion)",
		},
		{
			name:    "combined internal geolocation",
			columns: []string{"id", "_geolocation"},
			want:    "combined(_geolocation)",
		},
		{
			name:    "split with underscore suffixes",
			columns: []string{"id", "ubicacion_latitude", "ubicacion_longitude"},
			want:    "split(ubicacion_latitude, ubicacion_longitude)",
		},
		{
			name:    "split with slash suffixes",
			columns: []string{"id", "ubicacion/latitude", "ubicacion/longitude"},
			want:    "split(ubicacion/latitude, ubicacion/longitude)",
		},
		{
			name:    "split with leading underscore",
			columns: []string{"id", "_geopoint_latitude", "_geopoint_longitude"},
			want:    "split(_geopoint_latitude, _geopoint_longitude)",
		},
		{
			name:    "combined beats split for the same root",
			columns: []string{"ubicacion", "ubicacion_latitude", "ubicacion_longitude"},
			want:    "combined(ubicacion)",
		},
		{
			name:    "earlier root beats later root",
			columns: []string{"location", "_geolocation"},
			want:    "combined(_geolocation)",
		},
		{
			name:    "half a split pair does not match",
			columns: []string{"ubicacion_latitude", "location"},
			want:    "combined(location)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mode, err := SniffGeopoint(tt.columns)
			require.NoError(t, err)
			assert.Equal(t, tt.want, mode.String())
		})
	}
}

func TestSniffGeopoint_NoMatch(t *testing.T) {
	mode, err := SniffGeopoint([]string{"id", "comunidad", "total_plantas"})
	require.Error(t, err)
	assert.Nil(t, mode)

	var noGeo *NoGeopointError
	require.ErrorAs(t, err, &noGeo)
	assert.Contains(t, err.Error(), "no geopoint column found")
	assert.Contains(t, err.Error(), "comunidad")
}

func TestNoGeopointError_TruncatesColumnList(t *testing.T) {
	columns := make([]string, 60)
	for i := range columns {
		columns[i] = fmt.Sprintf("col_%02d", i)
	}

	_, err := SniffGeopoint(columns)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "col_39")
	assert.NotContains(t, err.Error(), "col_40")
	assert.Contains(t, err.Error(), ", ...")
}

func TestCombinedGeopoint_Coordinates(t *testing.T) {
	mode := CombinedGeopoint{Column: "ubicacion"}

	tests := []struct {
		name   string
		cell   string
		want   Position
		wantOK bool
	}{
		{
			name:   "lat lon alt acc",
			cell:   "19.43 -99.13 10 5",
			want:   Position{-99.13, 19.43},
			wantOK: true,
		},
		{
			name:   "lat lon only",
			cell:   "19.5 -99.2",
			want:   Position{-99.2, 19.5},
			wantOK: true,
		},
		{
			name:   "extra internal whitespace",
			cell:   "  19.43   -99.13  ",
			want:   Position{-99.13, 19.43},
			wantOK: true,
		},
		{name: "single token", cell: "19.43"},
		{name: "empty cell", cell: ""},
		{name: "non numeric latitude", cell: "norte -99.13"},
		{name: "non numeric longitude", cell: "19.43 oeste"},
		{name: "nan token", cell: "NaN -99.13"},
		{name: "inf token", cell: "19.43 +Inf"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pos, ok := mode.Coordinates(Row{"ubicacion": tt.cell})
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, pos)
			}
		})
	}
}

func TestCombinedGeopoint_ColumnAbsent(t *testing.T) {
	mode := CombinedGeopoint{Column: "ubicacion"}
	_, ok := mode.Coordinates(Row{"otra": "19.43 -99.13"})
	assert.False(t, ok)
}

func TestSplitGeopoint_Coordinates(t *testing.T) {
	mode := SplitGeopoint{LatColumn: "ubicacion_latitude", LonColumn: "ubicacion_longitude"}

	t.Run("both columns parse", func(t *testing.T) {
		pos, ok := mode.Coordinates(Row{
			"ubicacion_latitude":  "19.43",
			"ubicacion_longitude": "-99.13",
		})
		require.True(t, ok)
		assert.Equal(t, Position{-99.13, 19.43}, pos)
	})

	t.Run("missing longitude", func(t *testing.T) {
		_, ok := mode.Coordinates(Row{"ubicacion_latitude": "19.43"})
		assert.False(t, ok)
	})

	t.Run("non numeric latitude", func(t *testing.T) {
		_, ok := mode.Coordinates(Row{
			"ubicacion_latitude":  "n/a",
			"ubicacion_longitude": "-99.13",
		})
		assert.False(t, ok)
	})
}

func TestSniffDateColumn(t *testing.T) {
	tests := []struct {
		name    string
		columns []string
		want    string
	}{
		{
			name:    "form date beats submission time",
			columns: []string{"_submission_time", "fecha_actividad"},
			want:    "fecha_actividad",
		},
		{
			name:    "submission time fallback",
			columns: []string{"id", "_submission_time", "endtime"},
			want:    "_submission_time",
		},
		{
			name:    "endtime before starttime",
			columns: []string{"starttime", "endtime"},
			want:    "endtime",
		},
		{
			name:    "no candidate present",
			columns: []string{"id", "comunidad"},
			want:    "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SniffDateColumn(tt.columns))
		})
	}
}

func TestMultiselect_Inline(t *testing.T) {
	columns := []string{"id", "municipios"}

	t.Run("splits on whitespace", func(t *testing.T) {
		got := Multiselect(Row{"municipios": "A C"}, columns, "municipios")
		assert.Equal(t, []string{"A", "C"}, got)
	})

	t.Run("collapses repeated spaces", func(t *testing.T) {
		got := Multiselect(Row{"municipios": "  A   B  "}, columns, "municipios")
		assert.Equal(t, []string{"A", "B"}, got)
	})

	t.Run("empty cell yields empty non nil slice", func(t *testing.T) {
		got := Multiselect(Row{"municipios": "   "}, columns, "municipios")
		require.NotNil(t, got)
		assert.Empty(t, got)
	})
}

func TestMultiselect_Exploded(t *testing.T) {
	t.Run("slash columns in header order", func(t *testing.T) {
		columns := []string{"id", "municipios/A", "municipios/B", "municipios/C"}
		row := Row{"municipios/A": "1", "municipios/B": "0", "municipios/C": "1"}
		assert.Equal(t, []string{"A", "C"}, Multiselect(row, columns, "municipios"))
	})

	t.Run("underscore columns", func(t *testing.T) {
		columns := []string{"municipios_norte", "municipios_sur"}
		row := Row{"municipios_norte": "true", "municipios_sur": ""}
		assert.Equal(t, []string{"norte"}, Multiselect(row, columns, "municipios"))
	})

	t.Run("spanish affirmatives count", func(t *testing.T) {
		columns := []string{"municipios/A", "municipios/B", "municipios/C"}
		row := Row{"municipios/A": "Sí", "municipios/B": "si", "municipios/C": "no"}
		assert.Equal(t, []string{"A", "B"}, Multiselect(row, columns, "municipios"))
	})

	t.Run("free text cell is not a choice", func(t *testing.T) {
		columns := []string{"institucion_resp/conafor", "institucion_resp_otro"}
		row := Row{"institucion_resp/conafor": "1", "institucion_resp_otro": "Vivero municipal"}
		assert.Equal(t, []string{"conafor"}, Multiselect(row, columns, "institucion_resp"))
	})

	t.Run("inline value wins over exploded columns", func(t *testing.T) {
		columns := []string{"municipios", "municipios/A", "municipios/B"}
		row := Row{"municipios": "B", "municipios/A": "1", "municipios/B": "0"}
		assert.Equal(t, []string{"B"}, Multiselect(row, columns, "municipios"))
	})

	t.Run("nothing chosen yields empty non nil slice", func(t *testing.T) {
		columns := []string{"municipios/A", "municipios/B"}
		got := Multiselect(Row{"municipios/A": "0", "municipios/B": "no"}, columns, "municipios")
		require.NotNil(t, got)
		assert.Empty(t, got)
	})
}

func TestIsTruthy(t *testing.T) {
	for _, cell := range []string{"1", "true", "T", "yes", "Y", "si", "Sí", "SÍ", "verdadero", " 1 "} {
		assert.True(t, isTruthy(cell), "cell %q", cell)
	}
	for _, cell := range []string{"", "0", "no", "false", "2", "Vivero municipal"} {
		assert.False(t, isTruthy(cell), "cell %q", cell)
	}
}
