package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/pulsepass/pulsepass-client/pkg/metrics"
	"github.com/pulsepass/pulsepass-client/pkg/pagination"
	"github.com/spf13/cobra"
)

var proxyRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "pulsepass_proxy_requests_total",
		Help: "Requests served by pulsepass serve, by route and status code",
	},
	[]string{"route", "code"},
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(opts *rootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the aggregated artist, concert and statistics lists over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd, opts)
			if err != nil {
				return err
			}
			defer a.Close()

			if addr == "" {
				addr = a.cfg.ListenAddr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return a.serve(ctx, addr, opts.timeout)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides PULSEPASS_LISTEN_ADDR)")
	return cmd
}

// serve runs the HTTP server until ctx is done.
func (a *app) serve(ctx context.Context, addr string, requestTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           newRouter(a, requestTimeout),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info().Str("addr", addr).Msg("Starting HTTP server")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	a.logger.Info().Msg("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// listResponse mirrors the API envelope and adds the collection outcome.
type listResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data"`
	Pages   int    `json:"pages"`
	Partial bool   `json:"partial"`
	Skipped int    `json:"skipped,omitempty"`
	Error   string `json:"error,omitempty"`
}

func newRouter(a *app, requestTimeout time.Duration) *mux.Router {
	r := mux.NewRouter()
	r.Use(countRequests)

	r.HandleFunc("/health", healthHandler).Methods(http.MethodGet)
	r.HandleFunc("/ready", a.readyHandler).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	h := &handlers{app: a, timeout: requestTimeout}
	r.HandleFunc("/artists", h.artists).Methods(http.MethodGet)
	r.HandleFunc("/artists/{id}/concerts", h.concerts).Methods(http.MethodGet)
	r.HandleFunc("/stats", h.stats).Methods(http.MethodGet)

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "OK")
}

// readyHandler reports 503 while a configured Redis is unreachable.
func (a *app) readyHandler(w http.ResponseWriter, r *http.Request) {
	if a.redis != nil {
		if err := a.redis.Ping(r.Context()).Err(); err != nil {
			a.logger.Warn().Err(err).Msg("Readiness check failed")
			http.Error(w, "redis unavailable", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "READY")
}

type handlers struct {
	app     *app
	timeout time.Duration
}

func (h *handlers) artists(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	idx, result := h.app.catalog.Artists(ctx)
	h.writeList(w, idx.All(), result)
}

func (h *handlers) concerts(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil || id <= 0 {
		h.writeJSON(w, http.StatusBadRequest, listResponse{Error: "artist id must be a positive integer"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	concerts, result := h.app.catalog.ConcertsByArtist(ctx, id)
	h.writeList(w, concerts, result)
}

func (h *handlers) stats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	stats, err := h.app.catalog.Stats(ctx)
	if err != nil {
		h.app.logger.Error().Err(err).Msg("Stats request failed")
		h.writeJSON(w, http.StatusBadGateway, listResponse{Error: err.Error()})
		return
	}
	h.writeJSON(w, http.StatusOK, struct {
		Success bool `json:"success"`
		Data    any  `json:"data"`
	}{true, stats})
}

// writeList always answers 200: a partial collection still carries data.
func (h *handlers) writeList(w http.ResponseWriter, data any, result pagination.Result) {
	resp := listResponse{
		Success: result.Err == nil,
		Data:    data,
		Pages:   result.Pages,
		Partial: result.Partial(),
		Skipped: result.Skipped,
	}
	if result.Err != nil {
		resp.Error = result.Err.Error()
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *handlers) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.app.logger.Error().Err(err).Msg("Failed to write response")
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// countRequests records pulsepass_proxy_requests_total by route template.
func countRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := "unknown"
		if cur := mux.CurrentRoute(r); cur != nil {
			if tpl, err := cur.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		proxyRequestsTotal.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
	})
}
