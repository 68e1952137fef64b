package catalog

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }

func TestArtist_Validate(t *testing.T) {
	tests := []struct {
		name    string
		artist  Artist
		wantErr string
	}{
		{"minimal", Artist{ID: 1, Nombre: "Natalia Lafourcade"}, ""},
		{"full", Artist{ID: 2, Nombre: "Café Tacvba", Genero: "Rock", Pais: "México", Popularidad: intPtr(88)}, ""},
		{"zero popularity", Artist{ID: 3, Nombre: "A", Popularidad: intPtr(0)}, ""},
		{"missing name", Artist{ID: 4}, "nombre"},
		{"name too long", Artist{ID: 5, Nombre: strings.Repeat("a", 101)}, "nombre"},
		{"popularity above range", Artist{ID: 6, Nombre: "A", Popularidad: intPtr(101)}, "popularidad"},
		{"genre too long", Artist{ID: 7, Nombre: "A", Genero: strings.Repeat("g", 51)}, "genero"},
		{"image url too long", Artist{ID: 8, Nombre: "A", ImagenURL: strings.Repeat("u", 501)}, "imagen_url"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.artist.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConcert_Validate(t *testing.T) {
	base := func() Concert {
		return Concert{ID: 1, ArtistaID: 7, NombreEvento: "Gira 2025", Fecha: "2025-11-20T20:00:00Z"}
	}

	tests := []struct {
		name    string
		mutate  func(*Concert)
		wantErr string
	}{
		{"valid", func(c *Concert) {}, ""},
		{"naive datetime", func(c *Concert) { c.Fecha = "2025-11-20T20:00:00" }, ""},
		{"date only", func(c *Concert) { c.Fecha = "2025-11-20" }, ""},
		{"no date", func(c *Concert) { c.Fecha = "" }, ""},
		{"minute precision with zone", func(c *Concert) { c.Fecha = "2025-11-20T20:00-06:00" }, ""},
		{"unparseable date is kept", func(c *Concert) { c.Fecha = "20/11/2025" }, ""},
		{"missing artist", func(c *Concert) { c.ArtistaID = 0 }, "artista_id"},
		{"negative attendance", func(c *Concert) { c.AsistenciaReal = intPtr(-1) }, "asistencia_real"},
		{"negative costs", func(c *Concert) { c.CostosProduccion = floatPtr(-10) }, "costos_produccion"},
		{"zero revenue", func(c *Concert) { c.IngresosTaquilla = floatPtr(0) }, ""},
		{"latitude out of range", func(c *Concert) { c.Latitud = floatPtr(91) }, "latitud"},
		{"event name too long", func(c *Concert) { c.NombreEvento = strings.Repeat("e", 151) }, "nombre_evento"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base()
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConcert_DecodeFromAPI(t *testing.T) {
	body := `{
		"id": 12, "artista_id": 3, "nombre_evento": "Noche de Gala", "venue": "Auditorio Nacional",
		"ciudad": "CDMX", "pais": "México", "fecha": "2025-11-20T20:00:00Z", "status": "Confirmado",
		"asistencia_proyectada": 10000, "asistencia_real": 9500,
		"costos_produccion": 150000.5, "ingresos_taquilla": 420000,
		"latitud": 19.4326, "longitud": -99.1332,
		"artista_nombre": "Natalia Lafourcade", "artista_genero": "Pop", "artista_pais": "México"
	}`

	var c Concert
	require.NoError(t, json.Unmarshal([]byte(body), &c))
	require.NoError(t, c.Validate())

	assert.Equal(t, 3, c.ArtistaID)
	assert.Equal(t, 9500, *c.AsistenciaReal)
	assert.Equal(t, 150000.5, *c.CostosProduccion)
	assert.True(t, c.HasLocation())

	date, err := ParseFecha(c.Fecha)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 11, 20, 20, 0, 0, 0, time.UTC), date.UTC())
}

func TestConcert_EffectiveStatus(t *testing.T) {
	assert.Equal(t, DefaultStatus, Concert{}.EffectiveStatus())
	assert.Equal(t, DefaultStatus, Concert{Status: "  "}.EffectiveStatus())
	assert.Equal(t, "Cancelado", Concert{Status: "Cancelado"}.EffectiveStatus())
}

func TestConcert_HasLocation(t *testing.T) {
	assert.False(t, Concert{}.HasLocation())
	assert.False(t, Concert{Latitud: floatPtr(19.4)}.HasLocation())
	assert.False(t, Concert{Latitud: floatPtr(0), Longitud: floatPtr(-99.1)}.HasLocation())
	assert.True(t, Concert{Latitud: floatPtr(19.4), Longitud: floatPtr(-99.1)}.HasLocation())
}

func TestParseFecha(t *testing.T) {
	tests := []struct {
		input   string
		want    time.Time
		wantErr bool
	}{
		{"2025-11-20T20:00:00Z", time.Date(2025, 11, 20, 20, 0, 0, 0, time.UTC), false},
		{"2025-11-20T20:00:00-06:00", time.Date(2025, 11, 21, 2, 0, 0, 0, time.UTC), false},
		{"2025-11-20T20:00:00.123", time.Date(2025, 11, 20, 20, 0, 0, 123000000, time.UTC), false},
		{"2025-11-20T20:00", time.Date(2025, 11, 20, 20, 0, 0, 0, time.UTC), false},
		{"2025-11-20 20:00:00", time.Date(2025, 11, 20, 20, 0, 0, 0, time.UTC), false},
		{"2025-11-20", time.Date(2025, 11, 20, 0, 0, 0, 0, time.UTC), false},
		{"2025-11-20T20:00Z", time.Date(2025, 11, 20, 20, 0, 0, 0, time.UTC), false},
		{"2025-11-20T20:00-06:00", time.Date(2025, 11, 21, 2, 0, 0, 0, time.UTC), false},
		{"2025-11-20T20:00:00+0000", time.Date(2025, 11, 20, 20, 0, 0, 0, time.UTC), false},
		{"2025-11-20T20:00:00.5-0600", time.Date(2025, 11, 21, 2, 0, 0, 500000000, time.UTC), false},
		{"2025-11-20 20:00+01:00", time.Date(2025, 11, 20, 19, 0, 0, 0, time.UTC), false},
		{"2025-11-20T20", time.Date(2025, 11, 20, 20, 0, 0, 0, time.UTC), false},
		{"", time.Time{}, true},
		{"mañana", time.Time{}, true},
		{"2025-13-01", time.Time{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseFecha(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "ParseFecha(%q) = %v, want %v", tt.input, got, tt.want)
		})
	}
}
