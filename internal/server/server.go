package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"golang.org/x/time/rate"

	"github.com/joseph-ayodele/proforma-consolidator/internal/entity"
	"github.com/joseph-ayodele/proforma-consolidator/internal/metrics"
	"github.com/joseph-ayodele/proforma-consolidator/internal/pipeline"
)

// Processor runs one consolidation submission.
type Processor interface {
	Process(ctx context.Context, sub pipeline.Submission) (*pipeline.Result, error)
}

// Renderer turns a record into workbook bytes.
type Renderer interface {
	RenderXLSX(ctx context.Context, rec entity.ConsolidatedRecord) ([]byte, error)
}

// Options configures the HTTP surface.
type Options struct {
	MaxTotalBytes int64
	RatePerSecond float64 // <= 0 disables the consolidate rate limit
	RateBurst     int
}

// Server serves the consolidation and export API.
type Server struct {
	opts      Options
	processor Processor
	renderer  Renderer
	limiter   *rate.Limiter
	logger    *slog.Logger
}

func NewServer(opts Options, processor Processor, renderer Renderer, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{opts: opts, processor: processor, renderer: renderer, logger: logger}
	if opts.RatePerSecond > 0 {
		burst := opts.RateBurst
		if burst <= 0 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(opts.RatePerSecond), burst)
	}
	return s
}

// Handler returns the routed API wrapped in CORS, request ID and access-log middleware.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter().StrictSlash(true)
	r.Use(s.requestContext, s.accessLog)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	api.Handle("/consolidate", s.rateLimited(http.HandlerFunc(s.handleConsolidate))).Methods(http.MethodPost)
	api.HandleFunc("/export-xlsx", s.handleExportXLSX).Methods(http.MethodPost)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"Content-Disposition", headerRequestID},
		AllowCredentials: true,
	})
	return c.Handler(r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
