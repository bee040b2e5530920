// Package api exposes the light-curve service over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"github.com/okian/lcarchive/internal/adapters/archive"
	"github.com/okian/lcarchive/internal/adapters/repository"
	service "github.com/okian/lcarchive/internal/app"
	"github.com/okian/lcarchive/internal/domain/band"
	"github.com/okian/lcarchive/internal/domain/lightcurve"
	"github.com/okian/lcarchive/pkg/logger"
)

// Dependencies required by HTTP handlers.
type Dependencies interface {
	IDs(ctx context.Context) ([]repository.IDEntry, error)
	Sources(ctx context.Context) ([]string, error)
	Catalog(ctx context.Context, source string) (*archive.Table, error)
	CatalogMeta(ctx context.Context, source string) (map[string]string, error)
	Object(ctx context.Context, id int64) (repository.Record, error)
	LightCurveKey(ctx context.Context, id int64) (string, error)

	LightCurve(ctx context.Context, id int64, opts service.RetrieveOptions) (*lightcurve.Curve, error)
	Plot(ctx context.Context, id int64, opts service.PlotOptions) ([]lightcurve.Series, error)
	Merge(ctx context.Context, id int64, how lightcurve.Normalization) ([]lightcurve.Series, error)
	Defaults() service.RetrieveOptions

	Reload(ctx context.Context) error
}

// Server wires HTTP routes for the retrieval API.
type Server struct {
	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
	catalogHandler *CatalogHandler
	curveHandler   *CurveHandler
	adminHandler   *AdminHandler

	limiter *RateLimiter
	docs    func(chi.Router)
	logger  logger.Logger
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	s := &Server{
		healthHandler:  NewHealthHandler(statsProvider),
		statsHandler:   NewStatsHandler(statsProvider),
		catalogHandler: NewCatalogHandler(deps),
		curveHandler:   NewCurveHandler(deps),
		adminHandler:   NewAdminHandler(deps),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}
	s.curveHandler.logger = s.logger
	s.adminHandler.logger = s.logger
	return s
}

// Router returns the route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if s.limiter != nil {
		r.Use(s.limiter.Middleware)
	}

	r.Get("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	r.Get("/metrics", s.healthHandler.HandleMetrics)
	r.Get("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	if s.docs != nil {
		s.docs(r)
	}

	r.Get("/ids", MetricsMiddleware(s.catalogHandler.HandleIDs, "ids"))
	r.Route("/catalogs/{source}", func(r chi.Router) {
		r.Get("/", MetricsMiddleware(s.catalogHandler.HandleCatalog, "catalog"))
		r.Get("/meta", MetricsMiddleware(s.catalogHandler.HandleCatalogMeta, "catalog_meta"))
	})
	r.Route("/objects/{id}", func(r chi.Router) {
		r.Get("/", MetricsMiddleware(s.catalogHandler.HandleObject, "object"))
		r.Get("/lightcurve-key", MetricsMiddleware(s.catalogHandler.HandleLightCurveKey, "lightcurve_key"))
		r.Get("/lightcurve", MetricsMiddleware(s.curveHandler.HandleLightCurve, "lightcurve"))
		r.Get("/lightcurve.csv", MetricsMiddleware(s.curveHandler.HandleCSV, "lightcurve_csv"))
		r.Get("/lightcurve.xlsx", MetricsMiddleware(s.curveHandler.HandleXLSX, "lightcurve_xlsx"))
		r.Get("/plot", MetricsMiddleware(s.curveHandler.HandlePlot, "plot"))
		r.Get("/merged", MetricsMiddleware(s.curveHandler.HandleMerged, "merged"))
	})
	r.Post("/admin/reload", MetricsMiddleware(s.adminHandler.HandleReload, "reload"))
	return r
}

// Close stops background work owned by the server.
func (s *Server) Close() {
	if s.limiter != nil {
		s.limiter.Stop()
	}
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	render.Status(r, status)
	render.JSON(w, r, v)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, r, status, errorResponse{Code: code, Message: msg})
}

// errorStatus maps service errors to a status code and error code.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, repository.ErrUnknownObjectID):
		return http.StatusNotFound, "unknown_object_id"
	case errors.Is(err, repository.ErrUnknownSource):
		return http.StatusNotFound, "unknown_source"
	case errors.Is(err, lightcurve.ErrMissingBand):
		return http.StatusUnprocessableEntity, "missing_band"
	case errors.Is(err, archive.ErrLightCurveNotFound):
		return http.StatusInternalServerError, "light_curve_not_found"
	case errors.Is(err, band.ErrUnknownBand),
		errors.Is(err, lightcurve.ErrInvalidNormalization),
		errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, archive.ErrInvalidArchive):
		return http.StatusInternalServerError, "invalid_archive"
	case errors.Is(err, service.ErrNotStarted):
		return http.StatusServiceUnavailable, "not_started"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := errorStatus(err)
	writeError(w, r, status, code, err)
}
