// Package catalog provides typed access to the PulsePass artist, concert and
// statistics endpoints on top of the paginated collector.
package catalog

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// DefaultStatus is assumed for concerts that carry no status.
const DefaultStatus = "Planeado"

// Artist is a record of /api/artistas.
type Artist struct {
	ID              int    `json:"id"`
	Nombre          string `json:"nombre" validate:"required,min=1,max=100"`
	Genero          string `json:"genero" validate:"max=50"`
	Pais            string `json:"pais" validate:"max=50"`
	Popularidad     *int   `json:"popularidad,omitempty" validate:"omitempty,min=0,max=100"`
	ImagenURL       string `json:"imagen_url,omitempty" validate:"max=500"`
	Biografia       string `json:"biografia,omitempty"`
	TotalConciertos *int   `json:"total_conciertos,omitempty" validate:"omitempty,min=0"`
}

// Validate checks the record against the API's field constraints.
func (a Artist) Validate() error {
	if err := validate.Struct(a); err != nil {
		return fmt.Errorf("artist %d: %w", a.ID, err)
	}
	return nil
}

// Concert is a record of /api/conciertos.
type Concert struct {
	ID                   int      `json:"id"`
	ArtistaID            int      `json:"artista_id" validate:"required,gt=0"`
	NombreEvento         string   `json:"nombre_evento" validate:"max=150"`
	Venue                string   `json:"venue" validate:"max=100"`
	Ciudad               string   `json:"ciudad" validate:"max=100"`
	Pais                 string   `json:"pais" validate:"max=100"`
	Fecha                string   `json:"fecha"`
	Status               string   `json:"status,omitempty" validate:"max=50"`
	AsistenciaProyectada *int     `json:"asistencia_proyectada,omitempty" validate:"omitempty,gte=0"`
	AsistenciaReal       *int     `json:"asistencia_real,omitempty" validate:"omitempty,gte=0"`
	CostosProduccion     *float64 `json:"costos_produccion,omitempty" validate:"omitempty,gte=0"`
	IngresosTaquilla     *float64 `json:"ingresos_taquilla,omitempty" validate:"omitempty,gte=0"`
	Latitud              *float64 `json:"latitud,omitempty" validate:"omitempty,gte=-90,lte=90"`
	Longitud             *float64 `json:"longitud,omitempty" validate:"omitempty,gte=-180,lte=180"`
	ArtistaNombre        string   `json:"artista_nombre,omitempty"`
	ArtistaGenero        string   `json:"artista_genero,omitempty"`
	ArtistaPais          string   `json:"artista_pais,omitempty"`
}

// Validate checks the record against the API's field constraints.
func (c Concert) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("concert %d: %w", c.ID, err)
	}
	return nil
}

// EffectiveStatus returns Status, or DefaultStatus when empty.
func (c Concert) EffectiveStatus() string {
	if strings.TrimSpace(c.Status) == "" {
		return DefaultStatus
	}
	return c.Status
}

// HasLocation reports whether both coordinates are set and non-zero.
func (c Concert) HasLocation() bool {
	return c.Latitud != nil && c.Longitud != nil && *c.Latitud != 0 && *c.Longitud != 0
}

// Stats is the payload of /api/estadisticas/.
type Stats struct {
	Financieros        FinancialKPIs  `json:"kpis_financieros"`
	Asistencia         AttendanceKPIs `json:"kpis_asistencia"`
	TopArtistas        []TopArtist    `json:"grafica_top_artistas"`
	RentabilidadCiudad []CityProfit   `json:"grafica_rentabilidad_ciudad"`
}

// FinancialKPIs sums confirmed concerts.
type FinancialKPIs struct {
	TotalIngresos float64 `json:"total_ingresos"`
	TotalCostos   float64 `json:"total_costos"`
	GananciaNeta  float64 `json:"ganancia_neta"`
}

// AttendanceKPIs sums confirmed concerts.
type AttendanceKPIs struct {
	TotalAsistenciaProyectada int     `json:"total_asistencia_proyectada"`
	TotalAsistenciaReal       int     `json:"total_asistencia_real"`
	TasaCumplimiento          float64 `json:"tasa_cumplimiento_asistencia"`
}

// TopArtist is one bar of the top artists chart.
type TopArtist struct {
	Nombre      string `json:"nombre"`
	Popularidad int    `json:"popularidad"`
}

// CityProfit is one bar of the profit-by-city chart.
type CityProfit struct {
	Ciudad             string  `json:"ciudad"`
	GananciaNetaCiudad float64 `json:"ganancia_neta_ciudad"`
}

// fechaLayouts are the ISO 8601 forms the API accepts: a date, optionally
// followed by T or a space, a time to the hour, minute or second, and an
// optional Z or numeric offset. Fractional seconds need no layout of their
// own since time.Parse accepts them after the seconds field.
var fechaLayouts = buildFechaLayouts()

func buildFechaLayouts() []string {
	layouts := make([]string, 0, 19)
	for _, sep := range []string{"T", " "} {
		for _, clock := range []string{"15:04:05", "15:04", "15"} {
			for _, zone := range []string{"Z07:00", "Z0700", ""} {
				layouts = append(layouts, "2006-01-02"+sep+clock+zone)
			}
		}
	}
	return append(layouts, "2006-01-02")
}

// ParseFecha parses an ISO 8601 date. A trailing Z is accepted; values
// without a zone are read as UTC.
func ParseFecha(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}

	for _, layout := range fechaLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid ISO 8601 date %q", value)
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}
