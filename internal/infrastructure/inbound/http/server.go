package http

import (
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/sophialabs/wirecheck/internal/domain/contract"
	"github.com/sophialabs/wirecheck/internal/domain/trace"
	"github.com/sophialabs/wirecheck/internal/infrastructure/outbound/report"
	"github.com/sophialabs/wirecheck/internal/infrastructure/ports"
	"github.com/sophialabs/wirecheck/internal/infrastructure/services"
	"github.com/sophialabs/wirecheck/internal/infrastructure/usecases"
)

const maxBodySize = 64 << 10

// MarkdownRenderer renders the report document as markdown.
type MarkdownRenderer interface {
	Markdown(doc *report.Document) ([]byte, error)
}

// Server exposes the latest audit, the run history and on-demand traces.
type Server struct {
	router   *chi.Mux
	auditUC  *usecases.RunAuditUseCase
	traceUC  *usecases.TraceWiringUseCase
	markdown MarkdownRenderer
	limiter  ports.RateLimiter
	history  *trace.RingBuffer
	pages    services.PageOptions
	logger   ports.Logger
}

// NewServer creates a Server and builds its router.
func NewServer(
	auditUC *usecases.RunAuditUseCase,
	traceUC *usecases.TraceWiringUseCase,
	markdown MarkdownRenderer,
	limiter ports.RateLimiter,
	history *trace.RingBuffer,
	logger ports.Logger,
) *Server {
	s := &Server{
		auditUC:  auditUC,
		traceUC:  traceUC,
		markdown: markdown,
		limiter:  limiter,
		history:  history,
		pages:    services.DefaultPageOptions(),
		logger:   logger,
	}
	s.router = s.buildRouter()
	return s
}

func (s *Server) buildRouter() *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)

	r.Get("/healthz", s.handleHealth)
	r.Get("/report", s.handleReport)

	r.Route("/api", func(r chi.Router) {
		r.Get("/audit", s.handleAudit)
		r.Get("/audit/missing", s.handleMissing)
		r.Post("/audit/run", s.handleRun)
		r.Get("/runs", s.handleRuns)
		r.Get("/trace", s.handleTrace)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not_found", "no such endpoint: "+r.URL.Path)
	})
	return r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	_, ready := s.auditUC.Latest()
	writeJSONStatus(w, http.StatusOK, map[string]any{"status": "ok", "ready": ready})
}

// latest writes a 503 and reports false when no audit has completed yet.
func (s *Server) latest(w http.ResponseWriter) (*usecases.AuditOutcome, bool) {
	out, ok := s.auditUC.Latest()
	if !ok {
		writeError(w, http.StatusServiceUnavailable, "not_ready", "no audit has completed yet")
	}
	return out, ok
}

func (s *Server) handleAudit(w http.ResponseWriter, r *http.Request) {
	out, ok := s.latest(w)
	if !ok {
		return
	}
	selected, err := services.Select(out.Document, r.URL.Query().Get("select"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_select", err.Error())
		return
	}
	writeJSONStatus(w, http.StatusOK, selected)
}

func (s *Server) handleMissing(w http.ResponseWriter, r *http.Request) {
	out, ok := s.latest(w)
	if !ok {
		return
	}
	writeJSONStatus(w, http.StatusOK, services.Paginate(out.Document.Missing, s.pages, queryParams(r)))
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	out, ok := s.latest(w)
	if !ok {
		return
	}

	format := services.NegotiateFormat(r.URL.Query().Get("format"), r.Header.Get("Accept"))
	if format == services.FormatJSON {
		writeJSONStatus(w, http.StatusOK, out.Document)
		return
	}

	body, err := s.markdown.Markdown(out.Document)
	if err != nil {
		s.logger.Error("failed to render report", "error", err)
		writeError(w, http.StatusInternalServerError, "render_failed", "report rendering failed, check server logs")
		return
	}
	w.Header().Set("Content-Type", services.ContentType(format))
	_, _ = w.Write(body)
}

type runRequest struct {
	Trigger string `json:"trigger"`
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	key := clientKey(r)
	if !s.limiter.Allow(key) {
		s.logger.Warn("audit re-run throttled", "client", key)
		w.Header().Set("Retry-After", "1")
		writeError(w, http.StatusTooManyRequests, "rate_limited", "too many audit runs, try again shortly")
		return
	}

	req := runRequest{Trigger: "api"}
	if err := services.DecodeJSON(http.MaxBytesReader(w, r.Body, maxBodySize), &req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body: "+err.Error())
		return
	}

	out, err := s.auditUC.Execute(r.Context(), req.Trigger)
	if err != nil {
		s.logger.Error("audit run failed", "error", err)
		writeError(w, http.StatusInternalServerError, "audit_failed", "audit run failed, check server logs")
		return
	}
	writeJSONStatus(w, http.StatusOK, map[string]any{
		"summary":   out.Document.Summary,
		"artifacts": out.Artifacts,
		"run":       out.Entry,
	})
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	n := 10
	if lastParam := r.URL.Query().Get("last"); lastParam != "" {
		if parsed, err := strconv.Atoi(lastParam); err == nil && parsed > 0 {
			n = parsed
		}
	}
	writeJSONStatus(w, http.StatusOK, s.history.Last(n))
}

func (s *Server) handleTrace(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	rep, err := s.traceUC.Execute(r.Context(), usecases.TraceRequest{Route: q.Get("route"), File: q.Get("file")})
	switch {
	case errors.Is(err, contract.ErrUsage):
		writeError(w, http.StatusBadRequest, "usage", err.Error())
	case errors.Is(err, contract.ErrPageNotFound):
		writeJSONStatus(w, http.StatusNotFound, rep)
	case err != nil:
		s.logger.Error("wiring trace failed", "error", err)
		writeError(w, http.StatusInternalServerError, "trace_failed", "wiring trace failed, check server logs")
	default:
		writeJSONStatus(w, http.StatusOK, rep)
	}
}

// clientKey identifies the caller for rate limiting. RealIP has already
// replaced RemoteAddr with any forwarded address.
func clientKey(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

func queryParams(r *http.Request) map[string]string {
	qp := make(map[string]string)
	for k, v := range r.URL.Query() {
		if len(v) > 0 {
			qp[k] = v[0]
		}
	}
	return qp
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSONStatus(w, status, map[string]string{"error": code, "message": message})
}

func writeJSONStatus(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
