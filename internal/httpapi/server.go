// Package httpapi serves check results and on-demand runs over HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	apimw "github.com/hamed0406/wazuhcheck/internal/httpapi/middleware"
	"github.com/hamed0406/wazuhcheck/internal/repo"
	"github.com/hamed0406/wazuhcheck/internal/suite"
)

// RunFunc runs the named checks (all when none) and stores the report.
type RunFunc func(ctx context.Context, names ...string) (*suite.Report, error)

type Server struct {
	Logger  *zap.Logger
	Checks  []suite.Check
	Reports repo.ReportStore
	Run     RunFunc
}

func NewServer(l *zap.Logger, checks []suite.Check, reports repo.ReportStore, run RunFunc) *Server {
	if l == nil {
		l = zap.NewNop()
	}
	return &Server{Logger: l, Checks: checks, Reports: reports, Run: run}
}

// Limits are requests per minute and burst for the two key classes.
type Limits struct {
	PublicRPM, PublicBurst int
	AdminRPM, AdminBurst   int
}

func (s *Server) Router(keys apimw.Keys, allowedOrigins []string, lim Limits) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(s.accessLog)
	r.Use(corsHandler(allowedOrigins))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Group(func(r chi.Router) {
		r.Use(apimw.RequireAny(keys))
		r.Use(apimw.RateLimit(lim.PublicRPM, lim.PublicBurst))
		r.Get("/api/checks", s.handleListChecks)
		r.Get("/api/results/latest", s.handleLatest)
		r.Get("/api/results", s.handleListResults)
	})

	r.Group(func(r chi.Router) {
		r.Use(apimw.RequireAdmin(keys))
		r.Use(apimw.RateLimit(lim.AdminRPM, lim.AdminBurst))
		r.Post("/api/runs", s.handleRun)
	})

	return r
}

func corsHandler(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		return cors.AllowAll().Handler
	}
	return cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "X-API-Key", "Content-Type"},
		MaxAge:         300,
	})
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.Logger.Debug("http_request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.String("request_id", chimw.GetReqID(r.Context())),
		)
	})
}

func (s *Server) handleListChecks(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Checks)
}

func (s *Server) handleLatest(w http.ResponseWriter, r *http.Request) {
	rep, err := s.Reports.Latest(r.Context())
	if errors.Is(err, repo.ErrNotFound) {
		apimw.WriteError(w, http.StatusNotFound, "no runs yet")
		return
	}
	if err != nil {
		s.Logger.Warn("latest_error", zap.Error(err))
		apimw.WriteError(w, http.StatusInternalServerError, "latest error")
		return
	}
	writeJSON(w, http.StatusOK, view(rep))
}

func (s *Server) handleListResults(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			apimw.WriteError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}
	reps, err := s.Reports.List(r.Context(), limit)
	if err != nil {
		s.Logger.Warn("list_error", zap.Error(err))
		apimw.WriteError(w, http.StatusInternalServerError, "list error")
		return
	}
	out := make([]reportView, 0, len(reps))
	for _, rep := range reps {
		out = append(out, view(rep))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	names := r.URL.Query()["check"]
	rep, err := s.Run(r.Context(), names...)
	switch {
	case errors.Is(err, suite.ErrUnknownCheck):
		apimw.WriteError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil && rep == nil:
		s.Logger.Warn("run_error", zap.Strings("checks", names), zap.Error(err))
		apimw.WriteError(w, http.StatusInternalServerError, "run error")
		return
	}
	s.Logger.Info("run_requested",
		zap.String("run_id", rep.RunID),
		zap.Strings("checks", names),
		zap.Bool("passed", rep.Passed()),
	)
	writeJSON(w, http.StatusOK, view(rep))
}

// reportView is the API shape of a report: the stored report plus its
// verdict.
type reportView struct {
	*suite.Report
	Passed bool `json:"passed"`
}

func view(rep *suite.Report) reportView {
	return reportView{Report: rep, Passed: rep.Passed()}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
