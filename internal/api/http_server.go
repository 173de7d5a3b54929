package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"studiodesk/internal/config"
	"studiodesk/internal/export"
	"studiodesk/internal/invoice"
	"studiodesk/internal/service"
	"studiodesk/internal/storage"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const apiPrefix = "/api/v1"

// Deps are the collaborators behind the HTTP routes.
type Deps struct {
	Bookings      *service.BookingService
	Notifications *service.NotificationService
	Logos         *service.LogoService
	Invoices      *invoice.Renderer
	Exporter      *export.Exporter
	// LogoFiles serves uploaded logos and resolves them for invoices. Optional.
	LogoFiles *storage.LocalStorage
	// LogoURLPrefix is the public path LogoFiles is mounted under.
	LogoURLPrefix string
	Store         Pinger
}

// HTTPServer exposes the dashboard JSON API.
type HTTPServer struct {
	cfg    config.APIConfig
	deps   Deps
	server *http.Server
	auth   *HTTPAuth
	log    zerolog.Logger
}

func NewHTTPServer(cfg *config.APIConfig, deps Deps, limiter *RateLimiter, logger *zerolog.Logger) *HTTPServer {
	srv := &HTTPServer{cfg: *cfg, deps: deps, log: zerolog.Nop()}
	if logger != nil {
		srv.log = logger.With().Str("component", "http").Logger()
	}
	srv.auth = NewHTTPAuth(*cfg, limiter)

	mux := http.NewServeMux()
	srv.routes(mux)

	handler := recoverMiddleware(srv.log, loggingMiddleware(srv.log, mux))
	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           otelhttp.NewHandler(handler, "studiodesk.http"),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
	}
	return srv
}

func (s *HTTPServer) routes(mux *http.ServeMux) {
	mux.Handle("GET /healthz", counted("GET /healthz", http.HandlerFunc(s.handleHealthz)))
	mux.Handle("GET /readyz", counted("GET /readyz", http.HandlerFunc(s.handleReadyz)))

	s.handle(mux, "GET /bookings", PermReadBookings, s.handleListBookings)
	s.handle(mux, "POST /bookings", PermWriteBookings, s.handleCreateBooking)
	s.handle(mux, "GET /bookings/{id}", PermReadBookings, s.handleGetBooking)
	s.handle(mux, "PATCH /bookings/{id}", PermWriteBookings, s.handleEditBooking)
	s.handle(mux, "DELETE /bookings/{id}", PermWriteBookings, s.handleDeleteBooking)
	s.handle(mux, "POST /bookings/{id}/cancel", PermWriteBookings, s.transition((*service.BookingService).Cancel))
	s.handle(mux, "POST /bookings/{id}/complete", PermWriteBookings, s.transition((*service.BookingService).Complete))
	s.handle(mux, "POST /bookings/{id}/confirm", PermWriteBookings, s.transition((*service.BookingService).Confirm))
	s.handle(mux, "GET /bookings/{id}/invoice", PermReadBookings, s.handleInvoice)

	s.handle(mux, "GET /due-payments", PermReadBookings, s.handleDuePayments)
	s.handle(mux, "GET /dashboard", PermReadBookings, s.handleDashboard)
	s.handle(mux, "GET /upcoming", PermReadBookings, s.handleUpcoming)
	s.handle(mux, "GET /export", PermReadBookings, s.handleExport)

	s.handle(mux, "GET /notifications", PermReadNotifications, s.handleListNotifications)
	s.handle(mux, "POST /notifications/read-all", PermWriteNotifications, s.handleMarkAllRead)
	s.handle(mux, "POST /notifications/{id}/read", PermWriteNotifications, s.handleMarkRead)

	s.handle(mux, "GET /logo", "", s.handleGetLogo)
	s.handle(mux, "POST /logo", PermWriteLogo, s.handleUploadLogo)

	if s.deps.LogoFiles != nil && strings.HasPrefix(s.deps.LogoURLPrefix, "/") {
		prefix := s.deps.LogoURLPrefix + "/"
		files := http.StripPrefix(prefix, http.FileServer(http.Dir(s.deps.LogoFiles.Dir())))
		mux.Handle("GET "+prefix, counted("GET "+prefix, files))
	}
}

// handle mounts h under the API prefix behind auth and request counting.
func (s *HTTPServer) handle(mux *http.ServeMux, route, permission string, h http.HandlerFunc) {
	method, path, _ := strings.Cut(route, " ")
	pattern := method + " " + apiPrefix + path
	mux.Handle(pattern, counted(pattern, s.auth.Require(permission, h)))
}

// Handler returns the root handler, for tests and embedding.
func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

func (s *HTTPServer) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	s.log.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *HTTPServer) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *HTTPServer) handleReadyz(w http.ResponseWriter, r *http.Request) {
	if s.deps.Store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), probeTimeout)
		defer cancel()
		if err := s.deps.Store.Ping(ctx); err != nil {
			s.log.Warn().Err(err).Msg("readiness check failed")
			writeError(w, http.StatusServiceUnavailable, "store unavailable")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
