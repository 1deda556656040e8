package domain

// Position is a GeoJSON coordinate pair, always [longitude, latitude].
type Position [2]float64

// Geometry is a GeoJSON Point geometry.
type Geometry struct {
	Type        string   `json:"type"`
	Coordinates Position `json:"coordinates"`
}

// Properties is the fixed property bag the portal map reads per feature.
// Keys stay in the form's Spanish so the published documents remain
// compatible with the existing frontend.
type Properties struct {
	ID                  string   `json:"id"`
	FechaActividad      string   `json:"fecha_actividad"`
	Municipios          []string `json:"municipios"`
	Comunidad           string   `json:"comunidad"`
	SitioNombre         string   `json:"sitio_nombre"`
	Instituciones       []string `json:"instituciones"`
	InstitucionRespOtro string   `json:"institucion_resp_otro"`
	AreaM2              int      `json:"area_m2"`
	Tenencia            string   `json:"tenencia"`
	TotalPlantas        int      `json:"total_plantas"`
	TotalParticipantes  int      `json:"total_participantes"`
	AutorizaFotos       string   `json:"autoriza_fotos"`
	FotoSitioURL        string   `json:"foto_sitio_url"`
	FotoActividadURL    string   `json:"foto_actividad_url"`
	Observaciones       string   `json:"observaciones"`
}

// Feature is one submission as a GeoJSON Point feature.
type Feature struct {
	Type       string     `json:"type"`
	Geometry   Geometry   `json:"geometry"`
	Properties Properties `json:"properties"`
}

// FeatureCollection is the puntos.geojson document.
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

// Totals are the portal KPIs accumulated over the kept features.
type Totals struct {
	Boletas       int `json:"total_boletas"`
	Plantas       int `json:"total_plantas"`
	Participantes int `json:"total_participantes"`
}

// Summary is the resumen.json document.
type Summary struct {
	UltimaActualizacion string `json:"ultima_actualizacion"`
	KPIs                Totals `json:"kpis"`
}
