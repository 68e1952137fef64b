package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/pulsepass/pulsepass-client/pkg/pagination"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// API endpoints.
const (
	ArtistsEndpoint  = "/api/artistas"
	ConcertsEndpoint = "/api/conciertos"
	StatsEndpoint    = "/api/estadisticas/"
)

// Page sizes used by the list views.
const (
	ArtistPageSize  = 20
	ConcertPageSize = 50
)

// ErrStatsUnavailable is returned when the stats endpoint answers without data.
var ErrStatsUnavailable = errors.New("statistics unavailable")

// API is what the service needs from the HTTP client.
type API interface {
	pagination.PageFetcher
	GetBody(ctx context.Context, endpoint string, query url.Values) ([]byte, error)
}

// Service reads artists, concerts and statistics.
type Service struct {
	api      API
	artists  *pagination.Collector
	concerts *pagination.Collector
	logger   zerolog.Logger
}

// NewService creates a service. cfg supplies the page cap and per-page
// timeout; page sizes are fixed per endpoint.
func NewService(api API, cfg pagination.Config) *Service {
	artistCfg := cfg
	artistCfg.PageSize = ArtistPageSize

	concertCfg := cfg
	concertCfg.PageSize = ConcertPageSize

	return &Service{
		api:      api,
		artists:  pagination.NewCollector(api, artistCfg),
		concerts: pagination.NewCollector(api, concertCfg),
		logger:   log.With().Str("component", "catalog").Logger(),
	}
}

// Artists collects every artist. Records that fail validation are skipped
// and counted in Result.Skipped.
func (s *Service) Artists(ctx context.Context) (ArtistIndex, pagination.Result) {
	artists, result := pagination.CollectAs[Artist](ctx, s.artists, ArtistsEndpoint, nil)
	artists, dropped := keepValid(artists, s.logger)
	result.Skipped += dropped
	return NewArtistIndex(artists), result
}

// ConcertsByArtist collects every concert of one artist.
func (s *Service) ConcertsByArtist(ctx context.Context, artistID int) ([]Concert, pagination.Result) {
	params := url.Values{"artista_id": {strconv.Itoa(artistID)}}
	concerts, result := pagination.CollectAs[Concert](ctx, s.concerts, ConcertsEndpoint, params)
	concerts, dropped := keepValid(concerts, s.logger)
	result.Skipped += dropped
	return concerts, result
}

// Stats fetches the dashboard statistics. The endpoint is not paginated.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	body, err := s.api.GetBody(ctx, StatsEndpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch stats: %w", err)
	}

	var envelope struct {
		Success *bool  `json:"success"`
		Data    *Stats `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("decode stats: %w", err)
	}

	if envelope.Success != nil && !*envelope.Success {
		return nil, fmt.Errorf("%w: success=false", ErrStatsUnavailable)
	}
	if envelope.Data == nil {
		return nil, fmt.Errorf("%w: no data", ErrStatsUnavailable)
	}

	return envelope.Data, nil
}

type validatable interface {
	Validate() error
}

// keepValid drops records that fail validation.
func keepValid[T validatable](records []T, logger zerolog.Logger) ([]T, int) {
	out := records[:0]
	dropped := 0
	for _, r := range records {
		if err := r.Validate(); err != nil {
			dropped++
			logger.Warn().Err(err).Msg("Skipping invalid record")
			continue
		}
		out = append(out, r)
	}
	return out, dropped
}
