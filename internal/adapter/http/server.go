package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/couchcryptid/campcast-forecast/internal/domain"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Forecaster produces a fused forecast for one request.
type Forecaster interface {
	Forecast(ctx context.Context, req domain.ForecastRequest) (domain.Forecast, error)
}

// Server exposes the forecast API alongside health, readiness, and metrics
// endpoints.
type Server struct {
	httpServer *http.Server
	forecaster Forecaster
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /v1/forecast, /v1/grid, /healthz,
// /readyz, and /metrics routes.
func NewServer(addr string, forecaster Forecaster, ready sharedobs.ReadinessChecker, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 90 * time.Second, // outlook retries can take a while
			IdleTimeout:  60 * time.Second,
		},
		forecaster: forecaster,
		logger:     logger,
	}

	mux.HandleFunc("GET /v1/forecast", s.handleForecast)
	mux.HandleFunc("GET /v1/grid", s.handleGrid)
	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

// handleForecast answers GET /v1/forecast?lon=&lat= or ?nx=&ny=, with
// optional land=, ta=, name= and address=.
func (s *Server) handleForecast(w http.ResponseWriter, r *http.Request) {
	req, err := forecastRequestFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	fc, err := s.forecaster.Forecast(r.Context(), req)
	switch {
	case err == nil:
		sharedobs.WriteJSON(w, http.StatusOK, fc)
	case errors.Is(err, domain.ErrInvalidRequest):
		writeError(w, http.StatusBadRequest, err)
	case errors.Is(err, domain.ErrForecastUnavailable):
		s.logger.Error("forecast unavailable", "error", err, "query", r.URL.RawQuery)
		writeError(w, http.StatusServiceUnavailable, err)
	default:
		s.logger.Error("forecast failed", "error", err, "query", r.URL.RawQuery)
		writeError(w, http.StatusInternalServerError, err)
	}
}

type gridResponse struct {
	Cell    domain.GridCell `json:"cell"`
	Regions *domain.Regions `json:"regions,omitempty"`
}

// handleGrid answers GET /v1/grid?lon=&lat= with the projected cell, plus
// the outlook regions when an address= is given and recognized.
func (s *Server) handleGrid(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	lon, errLon := queryFloat(q.Get("lon"))
	lat, errLat := queryFloat(q.Get("lat"))
	if errLon != nil || errLat != nil || lon == nil || lat == nil {
		writeError(w, http.StatusBadRequest, errors.New("lon and lat are required numbers"))
		return
	}

	resp := gridResponse{Cell: domain.ProjectGrid(*lon, *lat)}
	if regions, ok := domain.ResolveRegions(q.Get("address")); ok {
		resp.Regions = &regions
	}
	sharedobs.WriteJSON(w, http.StatusOK, resp)
}

func forecastRequestFromQuery(r *http.Request) (domain.ForecastRequest, error) {
	q := r.URL.Query()
	req := domain.ForecastRequest{
		ID:         q.Get("id"),
		Name:       q.Get("name"),
		Address:    q.Get("address"),
		LandRegion: q.Get("land"),
		TempRegion: q.Get("ta"),
	}

	var err error
	if req.Lon, err = queryFloat(q.Get("lon")); err != nil {
		return req, errors.New("lon must be a number")
	}
	if req.Lat, err = queryFloat(q.Get("lat")); err != nil {
		return req, errors.New("lat must be a number")
	}

	if q.Has("nx") || q.Has("ny") {
		nx, errX := strconv.Atoi(q.Get("nx"))
		ny, errY := strconv.Atoi(q.Get("ny"))
		if errX != nil || errY != nil {
			return req, errors.New("nx and ny must both be integers")
		}
		req.Cell = &domain.GridCell{NX: nx, NY: ny}
	}
	return req, nil
}

func queryFloat(s string) (*float64, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func writeError(w http.ResponseWriter, status int, err error) {
	sharedobs.WriteJSON(w, status, map[string]string{"error": err.Error()})
}
