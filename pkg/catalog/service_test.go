package catalog

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/pulsepass/pulsepass-client/internal/testutil"
	"github.com/pulsepass/pulsepass-client/pkg/client"
	"github.com/pulsepass/pulsepass-client/pkg/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T, mock *testutil.MockAPI) *Service {
	t.Helper()

	c, err := client.New(client.DefaultConfig(mock.URL(), "PulsePassTest/1.0"))
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })

	return NewService(c, pagination.DefaultConfig())
}

func artistItems(n int) []map[string]any {
	items := make([]map[string]any, n)
	for i := range items {
		items[i] = map[string]any{
			"id":          i + 1,
			"nombre":      "Artista " + string(rune('A'+i%26)),
			"genero":      "Pop",
			"pais":        "México",
			"popularidad": 50 + i%50,
		}
	}
	return items
}

func TestService_Artists(t *testing.T) {
	mock := testutil.NewMockAPI()
	defer mock.Close()
	mock.SetItems(ArtistsEndpoint, artistItems(45))

	svc := newTestService(t, mock)

	idx, result := svc.Artists(context.Background())

	require.NoError(t, result.Err)
	assert.Equal(t, 45, idx.Len())
	assert.Equal(t, 3, result.Pages)
	assert.Equal(t, 1, idx.All()[0].ID)
	assert.Equal(t, 45, idx.All()[44].ID)

	for _, req := range mock.Requests() {
		assert.Equal(t, "20", req.Query.Get("limit"))
	}
}

func TestService_ArtistsSkipsInvalidRecords(t *testing.T) {
	mock := testutil.NewMockAPI()
	defer mock.Close()
	mock.SetItems(ArtistsEndpoint, []map[string]any{
		{"id": 1, "nombre": "Válido"},
		{"id": 2, "nombre": ""},
		{"id": 3, "nombre": "Popular", "popularidad": 150},
		{"id": 4, "nombre": "También válido"},
	})

	svc := newTestService(t, mock)

	idx, result := svc.Artists(context.Background())

	require.NoError(t, result.Err)
	assert.Equal(t, 2, idx.Len())
	assert.Equal(t, 2, result.Skipped)
	assert.Len(t, result.Items, 4)
}

func TestService_ArtistsPartial(t *testing.T) {
	mock := testutil.NewMockAPI()
	defer mock.Close()
	mock.SetItems(ArtistsEndpoint, artistItems(45))
	mock.FailPage(ArtistsEndpoint, 2, http.StatusInternalServerError)

	svc := newTestService(t, mock)

	idx, result := svc.Artists(context.Background())

	assert.Error(t, result.Err)
	assert.True(t, result.Partial())
	assert.Equal(t, 20, idx.Len())
}

func TestService_ConcertsByArtist(t *testing.T) {
	var concerts []map[string]any
	for i := 1; i <= 120; i++ {
		artistID := 7
		if i%3 == 0 {
			artistID = 8
		}
		concerts = append(concerts, map[string]any{
			"id":            i,
			"artista_id":    artistID,
			"nombre_evento": "Show",
			"fecha":         "2025-11-20T20:00:00Z",
		})
	}

	mock := testutil.NewMockAPI()
	defer mock.Close()
	mock.SetItems(ConcertsEndpoint, concerts)

	svc := newTestService(t, mock)

	got, result := svc.ConcertsByArtist(context.Background(), 7)

	require.NoError(t, result.Err)
	assert.Len(t, got, 80)
	assert.Equal(t, 2, result.Pages)
	for _, c := range got {
		assert.Equal(t, 7, c.ArtistaID)
	}

	for _, req := range mock.Requests() {
		assert.Equal(t, "7", req.Query.Get("artista_id"))
		assert.Equal(t, "50", req.Query.Get("limit"))
	}
}

// fullConcert is a concert as the API returns it, every field present.
func fullConcert(fecha any) map[string]any {
	return map[string]any{
		"id":                    31,
		"artista_id":            7,
		"nombre_evento":         "Gira Mundial 2026",
		"venue":                 "Arena Principal",
		"ciudad":                "Monterrey",
		"pais":                  "México",
		"fecha":                 fecha,
		"status":                "Confirmado",
		"asistencia_proyectada": 12000,
		"asistencia_real":       11850,
		"costos_produccion":     250000,
		"ingresos_taquilla":     610000,
		"latitud":               25.6866,
		"longitud":              -100.3161,
		"artista_nombre":        "Natalia Lafourcade",
		"artista_genero":        "Folk",
		"artista_pais":          "México",
	}
}

func TestService_ConcertsByArtistKeepsAPIPayloads(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(map[string]any)
		wantDate string
	}{
		{"seconds with Z", func(m map[string]any) {}, "20 nov 2025, 20:00"},
		{"minutes with Z", func(m map[string]any) { m["fecha"] = "2025-11-20T20:00Z" }, "20 nov 2025, 20:00"},
		{"minutes with offset", func(m map[string]any) { m["fecha"] = "2025-11-20T20:00-06:00" }, "21 nov 2025, 02:00"},
		{"offset without colon", func(m map[string]any) { m["fecha"] = "2025-11-20T20:00:00+0000" }, "20 nov 2025, 20:00"},
		{"microseconds", func(m map[string]any) { m["fecha"] = "2025-11-20T20:00:00.123456+00:00" }, "20 nov 2025, 20:00"},
		{"space separator", func(m map[string]any) { m["fecha"] = "2025-11-20 20:00:00" }, "20 nov 2025, 20:00"},
		{"unparseable date", func(m map[string]any) { m["fecha"] = "pronto" }, NoDate},
		{"status null", func(m map[string]any) { m["status"] = nil }, "20 nov 2025, 20:00"},
		{"optional figures null", func(m map[string]any) {
			for _, k := range []string{"asistencia_proyectada", "asistencia_real", "costos_produccion", "ingresos_taquilla", "latitud", "longitud"} {
				m[k] = nil
			}
		}, "20 nov 2025, 20:00"},
		{"joined artist fields missing", func(m map[string]any) {
			delete(m, "artista_nombre")
			delete(m, "artista_genero")
			delete(m, "artista_pais")
		}, "20 nov 2025, 20:00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record := fullConcert("2025-11-20T20:00:00Z")
			tt.mutate(record)

			mock := testutil.NewMockAPI()
			defer mock.Close()
			mock.SetItems(ConcertsEndpoint, []map[string]any{record})

			svc := newTestService(t, mock)

			concerts, result := svc.ConcertsByArtist(context.Background(), 7)
			require.NoError(t, result.Err)
			assert.Zero(t, result.Skipped)
			require.Len(t, concerts, 1)
			assert.Equal(t, tt.wantDate, FormatFecha(concerts[0].Fecha, time.UTC))
		})
	}
}

func TestService_ArtistsKeepsAPIPayloads(t *testing.T) {
	full := func() map[string]any {
		return map[string]any{
			"id":               7,
			"nombre":           "Natalia Lafourcade",
			"genero":           "Folk",
			"pais":             "México",
			"popularidad":      95,
			"imagen_url":       "https://example.com/natalia.jpg",
			"biografia":        "Cantautora veracruzana.",
			"total_conciertos": 4,
		}
	}

	tests := []struct {
		name   string
		mutate func(map[string]any)
	}{
		{"all fields", func(m map[string]any) {}},
		{"popularidad null", func(m map[string]any) { m["popularidad"] = nil }},
		{"popularidad zero", func(m map[string]any) { m["popularidad"] = 0 }},
		{"optional text null", func(m map[string]any) {
			m["imagen_url"] = nil
			m["biografia"] = nil
		}},
		{"total_conciertos missing", func(m map[string]any) { delete(m, "total_conciertos") }},
		{"name at length limit", func(m map[string]any) { m["nombre"] = strings.Repeat("ñ", 100) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record := full()
			tt.mutate(record)

			mock := testutil.NewMockAPI()
			defer mock.Close()
			mock.SetItems(ArtistsEndpoint, []map[string]any{record})

			svc := newTestService(t, mock)

			idx, result := svc.Artists(context.Background())
			require.NoError(t, result.Err)
			assert.Zero(t, result.Skipped)
			assert.Equal(t, 1, idx.Len())
		})
	}
}

func TestService_ConcertsByArtistEmpty(t *testing.T) {
	mock := testutil.NewMockAPI()
	defer mock.Close()
	mock.SetItems(ConcertsEndpoint, nil)

	svc := newTestService(t, mock)

	got, result := svc.ConcertsByArtist(context.Background(), 1)

	require.NoError(t, result.Err)
	assert.Empty(t, got)
	assert.Equal(t, 1, result.Pages)
}

func TestService_Stats(t *testing.T) {
	mock := testutil.NewMockAPI()
	defer mock.Close()
	mock.SetResponse(StatsEndpoint, testutil.NewHealthyResponse(`{
		"success": true,
		"data": {
			"kpis_financieros": {"total_ingresos": 500000, "total_costos": 200000, "ganancia_neta": 300000},
			"kpis_asistencia": {"total_asistencia_proyectada": 20000, "total_asistencia_real": 19000, "tasa_cumplimiento_asistencia": 95.0},
			"grafica_top_artistas": [{"nombre": "Natalia Lafourcade", "popularidad": 95}],
			"grafica_rentabilidad_ciudad": [{"ciudad": "CDMX", "ganancia_neta_ciudad": 180000}]
		}
	}`))

	svc := newTestService(t, mock)

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 300000.0, stats.Financieros.GananciaNeta)
	assert.Equal(t, 19000, stats.Asistencia.TotalAsistenciaReal)
	assert.Equal(t, 95.0, stats.Asistencia.TasaCumplimiento)
	require.Len(t, stats.TopArtistas, 1)
	assert.Equal(t, "Natalia Lafourcade", stats.TopArtistas[0].Nombre)
	require.Len(t, stats.RentabilidadCiudad, 1)
	assert.Equal(t, "CDMX", stats.RentabilidadCiudad[0].Ciudad)
}

func TestService_StatsUnavailable(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"success false", `{"success": false, "data": {}}`},
		{"no data", `{"success": true}`},
		{"null data", `{"success": true, "data": null}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := testutil.NewMockAPI()
			defer mock.Close()
			mock.SetResponse(StatsEndpoint, testutil.NewHealthyResponse(tt.body))

			svc := newTestService(t, mock)

			_, err := svc.Stats(context.Background())
			assert.True(t, errors.Is(err, ErrStatsUnavailable), "error = %v", err)
		})
	}
}

func TestService_StatsServerError(t *testing.T) {
	mock := testutil.NewMockAPI()
	defer mock.Close()
	mock.SetResponse(StatsEndpoint, testutil.NewServerErrorResponse())

	svc := newTestService(t, mock)

	_, err := svc.Stats(context.Background())

	var apiErr *client.APIError
	require.True(t, errors.As(err, &apiErr), "error = %v", err)
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
}
