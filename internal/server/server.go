// Package server exposes dashboard sessions over HTTP.
package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/basin-cli/internal/hydro"
	"github.com/sells-group/basin-cli/internal/store"
)

// Options configure a Server.
type Options struct {
	Sessions       *Sessions
	Store          store.Store        // optional; calculated runs are saved when set
	Tiles          *hydro.TileHandler // optional
	CalcRPS        float64            // <= 0 disables throttling
	AllowedOrigins []string
}

// Server routes dashboard requests to sessions.
type Server struct {
	sessions *Sessions
	store    store.Store
	tiles    *hydro.TileHandler
	calc     *rate.Limiter
	origins  []string
	log      *zap.Logger
}

// New creates a Server.
func New(opts Options) *Server {
	s := &Server{
		sessions: opts.Sessions,
		store:    opts.Store,
		tiles:    opts.Tiles,
		origins:  opts.AllowedOrigins,
		log:      zap.L().With(zap.String("component", "server")),
	}
	if opts.CalcRPS > 0 {
		s.calc = rate.NewLimiter(rate.Limit(opts.CalcRPS), max(1, int(opts.CalcRPS)))
	}
	if len(s.origins) == 0 {
		s.origins = []string{"*"}
	}
	return s
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Accept-Language", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.health)

	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", s.createSession)
		r.Route("/{sessionID}", func(r chi.Router) {
			r.Get("/", s.getSession)
			r.Delete("/", s.deleteSession)
			r.Post("/aoi", s.setAOI)
			r.Post("/click", s.click)
			r.Post("/coordinates", s.coordinates)
			r.Put("/params", s.setParams)
			r.Get("/upstream", s.upstream)
			r.Get("/catchments.geojson", s.catchmentsGeoJSON)
			r.Get("/catchments/{hybasID}", s.inspect)
			r.Post("/statistics", s.calculate)
			r.Get("/statistics", s.statistics)
			r.Get("/statistics/csv", s.statisticsCSV)
			r.Get("/statistics/xlsx", s.statisticsXLSX)
			r.Get("/dashboard", s.dashboard)
			r.Put("/dashboard", s.setDashboard)
		})
	})

	r.Route("/runs", func(r chi.Router) {
		r.Get("/", s.listRuns)
		r.Get("/{runID}", s.getRun)
		r.Delete("/{runID}", s.deleteRun)
		r.Get("/{runID}/csv", s.runCSV)
	})

	if s.tiles != nil {
		r.Get("/tiles/catchments/*", s.tiles.ServeHTTP)
		r.Get("/tiles/stats", s.tiles.StatsHandler)
	}
	return r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "sessions": s.sessions.Len()})
}
