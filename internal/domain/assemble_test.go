package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFeatureCollection(t *testing.T) {
	t.Run("wraps features in build order", func(t *testing.T) {
		features := []Feature{
			{Type: "Feature", Properties: Properties{ID: "1"}},
			{Type: "Feature", Properties: Properties{ID: "2"}},
		}

		fc := NewFeatureCollection(features)
		assert.Equal(t, "FeatureCollection", fc.Type)
		require.Len(t, fc.Features, 2)
		assert.Equal(t, "1", fc.Features[0].Properties.ID)
	})

	t.Run("nil slice serializes as empty array", func(t *testing.T) {
		fc := NewFeatureCollection(nil)

		raw, err := json.Marshal(fc)
		require.NoError(t, err)
		assert.JSONEq(t, `{"type":"FeatureCollection","features":[]}`, string(raw))
	})
}

func TestNewSummary(t *testing.T) {
	t.Run("data-driven timestamp at second precision", func(t *testing.T) {
		latest := time.Date(2025, 6, 14, 9, 30, 12, 987654321, time.UTC)

		sum := NewSummary(Totals{Boletas: 3, Plantas: 150, Participantes: 24}, latest)
		assert.Equal(t, "2025-06-14T09:30:12Z", sum.UltimaActualizacion)
		assert.Equal(t, Totals{Boletas: 3, Plantas: 150, Participantes: 24}, sum.KPIs)
	})

	t.Run("zero timestamp falls back to the clock", func(t *testing.T) {
		fixedTime := time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)
		SetClock(clockwork.NewFakeClockAt(fixedTime))
		defer SetClock(nil)

		sum := NewSummary(Totals{}, time.Time{})
		assert.Equal(t, "2025-07-01T12:00:00Z", sum.UltimaActualizacion)
		assert.Equal(t, Totals{}, sum.KPIs)
	})
}

func TestSummaryJSON(t *testing.T) {
	sum := NewSummary(
		Totals{Boletas: 2, Plantas: 80, Participantes: 11},
		time.Date(2025, 6, 14, 9, 30, 0, 0, time.UTC),
	)

	raw, err := json.Marshal(sum)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"ultima_actualizacion": "2025-06-14T09:30:00Z",
		"kpis": {"total_boletas": 2, "total_plantas": 80, "total_participantes": 11}
	}`, string(raw))
}

func TestFeatureJSON(t *testing.T) {
	f := Feature{
		Type:     "Feature",
		Geometry: Geometry{Type: "Point", Coordinates: Position{-99.13, 19.43}},
		Properties: Properties{
			ID:             "1042",
			FechaActividad: "2025-06-14",
			Municipios:     []string{"tlalpan"},
			Comunidad:      "San Pedro",
			Instituciones:  []string{},
			TotalPlantas:   120,
		},
	}

	raw, err := json.Marshal(f)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"type": "Feature",
		"geometry": {"type": "Point", "coordinates": [-99.13, 19.43]},
		"properties": {
			"id": "1042",
			"fecha_actividad": "2025-06-14",
			"municipios": ["tlalpan"],
			"comunidad": "San Pedro",
			"sitio_nombre": "",
			"instituciones": [],
			"institucion_resp_otro": "",
			"area_m2": 0,
			"tenencia": "",
			"total_plantas": 120,
			"total_participantes": 0,
			"autoriza_fotos": "",
			"foto_sitio_url": "",
			"foto_actividad_url": "",
			"observaciones": ""
		}
	}`, string(raw))
}

func TestSetClock(t *testing.T) {
	t.Run("set custom clock", func(t *testing.T) {
		fixedTime := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
		SetClock(clockwork.NewFakeClockAt(fixedTime))
		assert.Equal(t, fixedTime, clock.Now())

		SetClock(nil) // reset
	})

	t.Run("reset to real clock", func(t *testing.T) {
		SetClock(clockwork.NewFakeClockAt(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)))
		SetClock(nil)

		assert.Less(t, time.Since(clock.Now()), time.Second)
	})
}
