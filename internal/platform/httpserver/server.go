package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	tenantsession "tenantgate/contexts/identity-access/tenant-session"
	"tenantgate/contexts/identity-access/tenant-session/application/presenter"
	"tenantgate/contexts/identity-access/tenant-session/domain/entities"
	tenanterrors "tenantgate/contexts/identity-access/tenant-session/domain/errors"
	tenanthttp "tenantgate/contexts/identity-access/tenant-session/transport/http"
	"tenantgate/internal/platform/metrics"

	"github.com/prometheus/client_golang/prometheus"
	httpSwagger "github.com/swaggo/http-swagger"
	_ "tenantgate/internal/platform/httpserver/docs"
)

const (
	defaultSessionCookie = "session"
	userHeader           = "X-User-Id"
	shutdownTimeout      = 10 * time.Second
)

// Options carries optional server collaborators.
type Options struct {
	SessionCookie string
	Metrics       *metrics.Metrics
	Gatherer      prometheus.Gatherer
}

type Server struct {
	mux           *http.ServeMux
	logger        *slog.Logger
	addr          string
	sessionCookie string
	tenant        tenantsession.Module
	metrics       *metrics.Metrics
	gatherer      prometheus.Gatherer
}

func New(
	tenant tenantsession.Module,
	logger *slog.Logger,
	addr string,
	options Options,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}
	cookie := strings.TrimSpace(options.SessionCookie)
	if cookie == "" {
		cookie = defaultSessionCookie
	}

	s := &Server{
		mux:           http.NewServeMux(),
		logger:        logger,
		addr:          addr,
		sessionCookie: cookie,
		tenant:        tenant,
		metrics:       options.Metrics,
		gatherer:      options.Gatherer,
	}
	s.registerRoutes()
	return s
}

// Handler returns the instrumented route table.
func (s *Server) Handler() http.Handler {
	return s.instrument(s.mux)
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.logger.Info("http server stopping",
			"event", "http_server_stopping",
			"module", "internal/platform/httpserver",
			"layer", "platform",
		)
		return server.Shutdown(shutdownCtx)
	}
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
	if s.gatherer != nil {
		s.mux.Handle("GET /metrics", metrics.HandlerFor(s.gatherer))
	}
	s.mux.HandleFunc("GET /healthz", s.handleHealth)

	s.mux.HandleFunc("GET /t/{slug}", s.handleOpenTenantRoute)
	s.mux.HandleFunc("GET /t/{slug}/{rest...}", s.handleOpenTenantRoute)
	s.mux.HandleFunc("GET /views", s.handleOpenView)

	s.mux.HandleFunc("GET /session", s.handleSession)
	s.mux.HandleFunc("POST /session/hydrate", s.handleHydrate)
	s.mux.HandleFunc("POST /session/tenants/refresh", s.handleRefreshTenants)
	s.mux.HandleFunc("POST /session/logout", s.handleLogout)
	s.mux.HandleFunc("POST /session/denials", s.handleReportDenial)

	s.mux.HandleFunc("POST /support/copy-message", s.handleCopySupportMessage)
	s.mux.HandleFunc("POST /support/copy-request-id", s.handleCopyRequestID)
}

// handleOpenTenantRoute renders a tenant-scoped route.
// @Summary Render a tenant route
// @Tags session
// @Produce json
// @Param slug path string true "Tenant slug"
// @Success 200 {object} tenanthttp.ViewResponse
// @Failure 401 {object} tenanthttp.ErrorResponse
// @Router /t/{slug} [get]
func (s *Server) handleOpenTenantRoute(w http.ResponseWriter, r *http.Request) {
	s.openRoute(w, r, r.URL.Path)
}

// handleOpenView renders any route of the application shell.
// @Summary Render a route
// @Tags session
// @Produce json
// @Param route query string true "Route path"
// @Success 200 {object} tenanthttp.ViewResponse
// @Router /views [get]
func (s *Server) handleOpenView(w http.ResponseWriter, r *http.Request) {
	route := strings.TrimSpace(r.URL.Query().Get("route"))
	if route == "" || !strings.HasPrefix(route, "/") {
		writeTenantError(w, http.StatusBadRequest, "invalid_route", "route must be an absolute path")
		return
	}
	s.openRoute(w, r, route)
}

func (s *Server) openRoute(w http.ResponseWriter, r *http.Request, route string) {
	resp, err := s.tenant.Handler.OpenRouteHandler(r.Context(), s.sessionID(r), r.Header.Get(userHeader), route)
	if err != nil {
		writeTenantDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// @Summary Current session snapshot
// @Tags session
// @Produce json
// @Success 200 {object} tenanthttp.SessionResponse
// @Router /session [get]
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	resp, err := s.tenant.Handler.SessionHandler(r.Context(), s.sessionID(r))
	if err != nil {
		writeTenantDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// @Summary Load the entry profile into the session
// @Tags session
// @Produce json
// @Success 200 {object} tenanthttp.HydrateResponse
// @Router /session/hydrate [post]
func (s *Server) handleHydrate(w http.ResponseWriter, r *http.Request) {
	resp, err := s.tenant.Handler.HydrateHandler(r.Context(), s.sessionID(r))
	if err != nil {
		writeTenantDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// @Summary Refresh available tenants
// @Tags session
// @Produce json
// @Success 200 {object} tenanthttp.RefreshTenantsResponse
// @Router /session/tenants/refresh [post]
func (s *Server) handleRefreshTenants(w http.ResponseWriter, r *http.Request) {
	resp, err := s.tenant.Handler.RefreshTenantsHandler(r.Context(), s.sessionID(r))
	if err != nil {
		writeTenantDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// @Summary Clear the session
// @Tags session
// @Success 204
// @Router /session/logout [post]
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.tenant.Handler.LogoutHandler(r.Context(), s.sessionID(r)); err != nil {
		writeTenantDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// @Summary Report a failed data fetch
// @Tags denials
// @Accept json
// @Produce json
// @Param request body tenanthttp.ReportDenialRequest true "Failed fetch"
// @Success 200 {object} tenanthttp.ReportDenialResponse
// @Router /session/denials [post]
func (s *Server) handleReportDenial(w http.ResponseWriter, r *http.Request) {
	var req tenanthttp.ReportDenialRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeTenantError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.tenant.Handler.ReportDenialHandler(r.Context(), s.sessionID(r), r.Header.Get(userHeader), req)
	if err != nil {
		writeTenantDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// @Summary Support message for the presented denial
// @Tags denials
// @Produce json
// @Success 200 {object} tenanthttp.CopyResponse
// @Failure 404 {object} tenanthttp.ErrorResponse
// @Router /support/copy-message [post]
func (s *Server) handleCopySupportMessage(w http.ResponseWriter, r *http.Request) {
	resp, err := s.tenant.Handler.CopySupportMessageHandler(r.Context(), s.sessionID(r))
	if err != nil {
		writeTenantDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// @Summary Request id of the presented denial
// @Tags denials
// @Produce json
// @Success 200 {object} tenanthttp.CopyResponse
// @Failure 404 {object} tenanthttp.ErrorResponse
// @Router /support/copy-request-id [post]
func (s *Server) handleCopyRequestID(w http.ResponseWriter, r *http.Request) {
	resp, err := s.tenant.Handler.CopyRequestIDHandler(r.Context(), s.sessionID(r))
	if err != nil {
		writeTenantDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	sessions := 0
	if s.tenant.Shells != nil {
		sessions = len(s.tenant.Shells.Sessions())
	}
	writeJSON(w, http.StatusOK, tenanthttp.HealthResponse{Status: "ok", Sessions: sessions})
}

func (s *Server) sessionID(r *http.Request) string {
	cookie, err := r.Cookie(s.sessionCookie)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(cookie.Value)
}

func (s *Server) instrument(next http.Handler) http.Handler {
	if s.metrics == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)
		s.metrics.ObserveRequest(r.Pattern, recorder.status, time.Since(started))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// writeTenantDomainError maps tenant-session errors onto fixed client
// messages. Upstream text is only echoed when it reads as a plain reason.
func writeTenantDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, tenanterrors.ErrUnauthenticated):
		writeTenantError(w, http.StatusUnauthorized, "unauthenticated", "sign in to continue")
	case errors.Is(err, tenanterrors.ErrNoDenial):
		writeTenantError(w, http.StatusNotFound, "no_denial", "no access denial is being shown")
	case errors.Is(err, tenanterrors.ErrInvalidSlug):
		writeTenantError(w, http.StatusBadRequest, "invalid_slug", "tenant slug is required")
	case errors.Is(err, tenanterrors.ErrForbidden):
		writeTenantError(w, http.StatusForbidden, "forbidden", "access denied")
	case errors.Is(err, tenanterrors.ErrDependencyUnavailable):
		writeTenantError(w, http.StatusServiceUnavailable, "dependency_unavailable", "a required service is unavailable")
	case isUpstreamFailure(err):
		message := presenter.ReasonSummary(firstLine(entities.ErrorMessage(err)))
		if message == "" {
			message = "upstream request failed"
		}
		writeTenantError(w, http.StatusBadGateway, "upstream_error", message)
	default:
		writeTenantError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func firstLine(value string) string {
	if idx := strings.IndexAny(value, "\r\n"); idx >= 0 {
		value = value[:idx]
	}
	return strings.TrimSpace(value)
}

func isUpstreamFailure(err error) bool {
	var apiErr *entities.APIError
	return errors.As(err, &apiErr)
}

func writeTenantError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, tenanthttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
