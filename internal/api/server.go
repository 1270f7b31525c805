package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"golang.org/x/time/rate"

	"studiobook/internal/models"
)

// BookingService is the booking core exposed over HTTP.
type BookingService interface {
	CreateBooking(ctx context.Context, in models.BookingInput) (*models.Booking, error)
	ListBookings(ctx context.Context) ([]models.Booking, error)
	CancelBooking(ctx context.Context, id int64) error
}

// Exporter writes an audit workbook.
type Exporter interface {
	Export(ctx context.Context, out io.Writer) error
}

// ReadinessCheck reports whether a dependency is reachable.
type ReadinessCheck func(ctx context.Context) error

type Config struct {
	StaticDir string
	RateLimit rate.Limit
	RateBurst int
}

// HTTPServer serves the booking JSON API and the static site.
type HTTPServer struct {
	svc      BookingService
	exporter Exporter
	cfg      Config
	log      *zerolog.Logger
	limiter  *clientLimiter
	checks   map[string]ReadinessCheck
}

func NewHTTPServer(svc BookingService, exporter Exporter, cfg Config, logger *zerolog.Logger) *HTTPServer {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &HTTPServer{
		svc:      svc,
		exporter: exporter,
		cfg:      cfg,
		log:      logger,
		limiter:  newClientLimiter(cfg.RateLimit, cfg.RateBurst),
		checks:   make(map[string]ReadinessCheck),
	}
}

// AddReadinessCheck registers a dependency probed by /readyz.
func (s *HTTPServer) AddReadinessCheck(name string, check ReadinessCheck) {
	s.checks[name] = check
}

// Handler returns the routed handler wrapped in the middleware stack.
func (s *HTTPServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/bookings", s.handleListBookings)
	mux.HandleFunc("POST /api/bookings", s.handleCreateBooking)
	mux.HandleFunc("DELETE /api/bookings/{id}", s.handleCancelBooking)
	mux.HandleFunc("GET /api/bookings/export", s.handleExport)
	mux.HandleFunc("GET /healthz", s.Healthz)
	mux.HandleFunc("GET /readyz", s.Readyz)
	mux.Handle("GET /metrics", promhttp.Handler())
	if s.cfg.StaticDir != "" {
		mux.Handle("GET /", http.FileServer(http.Dir(s.cfg.StaticDir)))
	}

	var h http.Handler = mux
	h = s.rateLimit(h)
	h = cors(h)
	h = s.recovery(h)
	h = hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("http request")
	})(h)
	h = hlog.RemoteAddrHandler("remote_addr")(h)
	h = requestID(h)
	h = hlog.NewHandler(*s.log)(h)
	return h
}

// Healthz reports liveness.
func (s *HTTPServer) Healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

// Readyz runs every registered readiness check.
func (s *HTTPServer) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	failed := make(map[string]string)
	for name, check := range s.checks {
		if err := check(ctx); err != nil {
			failed[name] = err.Error()
		}
	}
	if len(failed) > 0 {
		s.log.Warn().Interface("failed", failed).Msg("readiness check failed")
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "unavailable", "failed": failed})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ready"})
}

type errorResponse struct {
	Error  string   `json:"error"`
	Fields []string `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
