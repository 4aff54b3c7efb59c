// Package chi implements the HTTP API on top of the query and resolve
// usecases.
package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	chiv5 "github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/boardex/internal/domain"
	"github.com/kailas-cloud/boardex/internal/domain/board"
	healthuc "github.com/kailas-cloud/boardex/internal/usecase/health"
	queryuc "github.com/kailas-cloud/boardex/internal/usecase/query"
	resolveuc "github.com/kailas-cloud/boardex/internal/usecase/resolve"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Router is the route surface the server mounts its handlers on. *chi.Mux
// satisfies it.
type Router interface {
	Get(pattern string, h http.HandlerFunc)
	Post(pattern string, h http.HandlerFunc)
	Delete(pattern string, h http.HandlerFunc)
}

// Server exposes board queries and drop-resolution sessions over HTTP.
type Server struct {
	query         *queryuc.Service
	resolutions   *resolveuc.Registry
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	query *queryuc.Service,
	resolutions *resolveuc.Registry,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	s := &Server{
		query:       query,
		resolutions: resolutions,
		health:      health,
		logger:      logger,
	}
	s.errorHandlers = []errorHandler{
		configFieldHandler,
		sentinelHandler(domain.ErrInvalidConfig, http.StatusBadRequest, codeInvalidConfig),
		sentinelHandler(domain.ErrDocumentNotFound, http.StatusNotFound, codeDocumentNotFound),
		sentinelHandler(domain.ErrReadonlyAxis, http.StatusBadRequest, codeReadonlyAxis),
		sentinelHandler(domain.ErrResolutionActive, http.StatusConflict, codeResolutionConflict),
		sentinelHandler(domain.ErrResolutionNotFound, http.StatusNotFound, codeResolutionNotFound),
		sentinelHandler(domain.ErrUnavailable, http.StatusBadGateway, codeVaultUnavailable),
		sentinelHandler(domain.ErrWriteFailed, http.StatusBadGateway, codeWriteFailed),
	}
	return s
}

// Register mounts the API routes.
func (s *Server) Register(r Router) {
	r.Post("/api/v1/query", s.Query)
	r.Post("/api/v1/resolutions", s.BeginResolution)
	r.Post("/api/v1/resolutions/{token}", s.CommitResolution)
	r.Delete("/api/v1/resolutions/{token}", s.CancelResolution)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

// Query handles POST /api/v1/query.
func (s *Server) Query(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if req.Config == "" {
		writeError(w, http.StatusBadRequest, codeInvalidConfig, "Board config is required")
		return
	}

	spec, err := board.ParseSpec(req.Config)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	res, err := s.query.Run(r.Context(), spec)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resultToDTO(spec, res))
}

// BeginResolution handles POST /api/v1/resolutions. The response carries
// either an immediate outcome or a session token plus the prompts the client
// must answer before committing.
func (s *Server) BeginResolution(w http.ResponseWriter, r *http.Request) {
	var req beginResolutionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if req.Config == "" {
		writeError(w, http.StatusBadRequest, codeInvalidConfig, "Board config is required")
		return
	}

	spec, err := board.ParseSpec(req.Config)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	begin, err := s.resolutions.Begin(r.Context(), resolveuc.Request{
		Spec:     spec,
		Document: req.Document,
		XTarget:  req.XTarget,
		YTarget:  req.YTarget,
	})
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	resp := beginResolutionResponse{
		Token:   begin.Token,
		Prompts: promptsToDTO(begin.Prompts),
	}
	if begin.Outcome != nil {
		resp.Outcome = outcomeToDTO(*begin.Outcome)
	}

	status := http.StatusOK
	if begin.Token != "" {
		status = http.StatusAccepted
	}
	writeJSON(w, status, resp)
}

// CommitResolution handles POST /api/v1/resolutions/{token}.
func (s *Server) CommitResolution(w http.ResponseWriter, r *http.Request) {
	var req commitResolutionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	outcome, err := s.resolutions.Commit(r.Context(), chiv5.URLParam(r, "token"), req.Choices)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, outcomeToDTO(outcome))
}

// CancelResolution handles DELETE /api/v1/resolutions/{token}.
func (s *Server) CancelResolution(w http.ResponseWriter, r *http.Request) {
	if err := s.resolutions.Cancel(chiv5.URLParam(r, "token")); err != nil {
		s.handleDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HealthCheck handles GET /health. The vault is the authoritative store, so
// only a vault failure makes the endpoint report unavailable; a degraded
// cache or index keeps serving.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, healthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code errorCode, message string) {
	writeJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrInvalidConfig,
		domain.ErrDocumentNotFound,
		domain.ErrReadonlyAxis,
		domain.ErrResolutionActive,
		domain.ErrResolutionNotFound,
		domain.ErrUnavailable,
		domain.ErrWriteFailed,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code errorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

// configFieldHandler reports the offending field for config validation errors.
func configFieldHandler(w http.ResponseWriter, err error, _ string) bool {
	var cfe *domain.ConfigFieldError
	if !errors.As(err, &cfe) {
		return false
	}
	writeError(w, http.StatusBadRequest, codeInvalidConfig, cfe.Error())
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
