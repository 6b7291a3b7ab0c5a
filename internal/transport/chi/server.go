// Package chi is the HTTP transport: the reconciliation API on a chi router.
package chi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/reconciler/internal/domain"
	"github.com/kailas-cloud/reconciler/internal/domain/candidate"
	"github.com/kailas-cloud/reconciler/internal/domain/entity"
	healthuc "github.com/kailas-cloud/reconciler/internal/usecase/health"
	"github.com/kailas-cloud/reconciler/internal/usecase/usage"
)

// Error codes returned in error bodies.
const (
	codeBadRequest        = "bad_request"
	codeUnknownEntityType = "unknown_entity_type"
	codeInvalidQuery      = "invalid_query"
	codeInvalidProperty   = "invalid_property"
	codeInvalidIdentifier = "invalid_identifier"
	codeInvalidColumn     = "invalid_column"
	codeNotFound          = "not_found"
	codeNotImplemented    = "not_implemented"
	codeQuotaExceeded     = "llm_quota_exceeded"
	codeChannelError      = "channel_error"
	codeInternalError     = "internal_error"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// Manifest describes the service to reconciliation clients.
type Manifest struct {
	Name            string
	IdentifierSpace string
	SchemaSpace     string
}

// Server serves the reconciliation API.
type Server struct {
	reconciler    Reconciler
	health        HealthChecker
	usage         UsageReporter
	manifest      Manifest
	maxBodyBytes  int64
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	reconciler Reconciler, health HealthChecker, manifest Manifest,
	maxBodyBytes int64, logger *zap.Logger,
) *Server {
	s := &Server{
		reconciler:   reconciler,
		health:       health,
		manifest:     manifest,
		maxBodyBytes: maxBodyBytes,
		logger:       logger,
	}
	// Order matters: ErrLLMResponse wraps ErrChannel.
	s.errorHandlers = []errorHandler{
		callerHandler(domain.ErrUnknownEntityType, codeUnknownEntityType),
		callerHandler(domain.ErrInvalidProperty, codeInvalidProperty),
		callerHandler(domain.ErrInvalidIdentifier, codeInvalidIdentifier),
		callerHandler(domain.ErrInvalidColumn, codeInvalidColumn),
		callerHandler(domain.ErrInvalidQuery, codeInvalidQuery),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, codeNotFound),
		sentinelHandler(domain.ErrNotImplemented, http.StatusNotImplemented, codeNotImplemented),
		sentinelHandler(domain.ErrLLMQuotaExceeded, http.StatusTooManyRequests, codeQuotaExceeded),
		sentinelHandler(domain.ErrLLMResponse, http.StatusBadGateway, codeChannelError),
		sentinelHandler(domain.ErrChannel, http.StatusBadGateway, codeChannelError),
	}
	return s
}

// WithUsage enables GET /usage.
func (s *Server) WithUsage(u UsageReporter) *Server {
	s.usage = u
	return s
}

// Register mounts the API routes on r.
func (s *Server) Register(r chi.Router) {
	r.Get("/reconcile", s.Manifest)
	r.Post("/reconcile", s.Reconcile)
	r.Get("/entities/{type}/{id}", s.GetEntity)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
	if s.usage != nil {
		r.Get("/usage", s.GetUsage)
	}
}

// Reconcile handles POST /reconcile. The batch is either the JSON body or the
// form field "queries".
func (s *Server) Reconcile(w http.ResponseWriter, r *http.Request) {
	if s.maxBodyBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.maxBodyBytes)
	}
	data, err := batchPayload(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	s.reconcile(w, r, data)
}

// Manifest handles GET /reconcile. A "queries" parameter runs a batch instead.
func (s *Server) Manifest(w http.ResponseWriter, r *http.Request) {
	if q := r.URL.Query().Get("queries"); q != "" {
		s.reconcile(w, r, []byte(q))
		return
	}
	writeJSON(w, http.StatusOK, s.manifestResponse())
}

func (s *Server) reconcile(w http.ResponseWriter, r *http.Request, data []byte) {
	items, err := decodeBatch(data)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	results, err := s.reconciler.Reconcile(r.Context(), items)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	// Encode by hand so the response keeps the request's key order.
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, res := range results {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(res.ID)
		if err != nil {
			s.handleDomainError(w, r, err)
			return
		}
		envs := res.Candidates
		if envs == nil {
			envs = []candidate.Envelope{}
		}
		body, err := json.Marshal(resultResponse{Result: envs})
		if err != nil {
			s.handleDomainError(w, r, err)
			return
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(body)
	}
	buf.WriteString("}\n")

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// GetEntity handles GET /entities/{type}/{id}.
func (s *Server) GetEntity(w http.ResponseWriter, r *http.Request) {
	d, err := s.reconciler.Details(r.Context(), chi.URLParam(r, "type"), chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}
	writeJSON(w, httpStatus, healthResponse{Status: string(report.Status), Checks: report.Checks})
}

// GetUsage handles GET /usage?period=day|month.
func (s *Server) GetUsage(w http.ResponseWriter, r *http.Request) {
	period, err := usage.ParsePeriod(r.URL.Query().Get("period"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	report := s.usage.GetReport(r.Context(), period)
	resp := make([]usageResponse, len(report))
	for i, u := range report {
		resp[i] = usageResponse{
			Provider:        u.Provider,
			Period:          string(u.Period),
			PeriodStartMs:   u.PeriodStart,
			PeriodEndMs:     u.PeriodEnd,
			TokensLimit:     u.Limit,
			TokensUsed:      u.Used,
			TokensRemaining: u.Remaining,
			Exhausted:       u.Exhausted,
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func batchPayload(r *http.Request) ([]byte, error) {
	ct := r.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "application/x-www-form-urlencoded") || strings.HasPrefix(ct, "multipart/form-data") {
		if err := r.ParseMultipartForm(1 << 20); err != nil && !errors.Is(err, http.ErrNotMultipart) {
			return nil, err
		}
		q := r.PostFormValue("queries")
		if q == "" {
			return nil, fmt.Errorf("form field \"queries\" is required")
		}
		return []byte(q), nil
	}
	return io.ReadAll(r.Body)
}

func (s *Server) manifestResponse() manifestResponse {
	specs := s.reconciler.Types()
	resp := manifestResponse{
		Versions:        []string{"0.2"},
		Name:            s.manifest.Name,
		IdentifierSpace: s.manifest.IdentifierSpace,
		SchemaSpace:     s.manifest.SchemaSpace,
		DefaultTypes:    make([]typeResponse, 0, len(specs)),
		Types:           make([]typeDetailResponse, 0, len(specs)),
	}
	for _, spec := range specs {
		resp.DefaultTypes = append(resp.DefaultTypes, typeResponse{ID: spec.Key(), Name: spec.Name()})
		props := spec.Properties()
		if props == nil {
			props = []entity.Property{}
		}
		resp.Types = append(resp.Types, typeDetailResponse{
			ID:         spec.Key(),
			Name:       spec.Name(),
			Properties: props,
		})
	}
	return resp
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}

// callerHandler maps a caller error to 400. Caller errors only echo request input,
// so the full message is returned.
func callerHandler(sentinel error, code string) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, http.StatusBadRequest, code, err.Error())
		return true
	}
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
// Only the sentinel's message reaches the client.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, sentinel.Error())
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := s.logger.With(zap.String("path", r.URL.Path))
	if domain.IsCallerError(err) {
		log.Info("rejected request", zap.Error(err))
	} else {
		log.Warn("domain error", zap.Error(err))
	}
	for _, h := range s.errorHandlers {
		if h(w, err) {
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
