package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/facetdash/internal/domain"
	"github.com/kailas-cloud/facetdash/internal/domain/filterset"
	"github.com/kailas-cloud/facetdash/internal/domain/query"
	"github.com/kailas-cloud/facetdash/internal/domain/query/mode"
	"github.com/kailas-cloud/facetdash/internal/logger"
	"github.com/kailas-cloud/facetdash/internal/usecase/compose"
	dashboarduc "github.com/kailas-cloud/facetdash/internal/usecase/dashboard"
	healthuc "github.com/kailas-cloud/facetdash/internal/usecase/health"
	"github.com/kailas-cloud/facetdash/internal/version"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// Server serves the dashboard HTTP API.
type Server struct {
	dashboards    *dashboarduc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(dashboards *dashboarduc.Service, health *healthuc.Service, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		dashboards: dashboards,
		health:     health,
		logger:     logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, ErrorCodeDashboardNotFound),
		sentinelHandler(domain.ErrQueryNotFound, http.StatusNotFound, ErrorCodeQueryNotFound),
		sentinelHandler(domain.ErrFilterNotFound, http.StatusNotFound, ErrorCodeFilterNotFound),
		validationHandler(domain.ErrInvalidDashboard),
		validationHandler(domain.ErrInvalidQuery),
		validationHandler(domain.ErrInvalidFilter),
		sentinelHandler(domain.ErrResolution, http.StatusBadGateway, ErrorCodeResolutionFailed),
	}
	return s
}

// Routes registers the API on r.
func (s *Server) Routes(r chi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	r.Get("/dashboards", s.ListDashboards)
	r.Route("/dashboards/{dashboard}", func(r chi.Router) {
		r.Use(dashboardLogger)
		r.Delete("/", s.DeleteDashboard)

		r.Get("/queries", s.ListQueries)
		r.Post("/queries", s.AddQuery)
		r.Get("/queries/select", s.SelectQueries)
		r.Patch("/queries/{id}", s.UpdateQuery)
		r.Delete("/queries/{id}", s.RemoveQuery)
		r.Post("/queries/{id}/facet-filter", s.FacetFilterByQueryID)

		r.Post("/resolve", s.Resolve)
		r.Post("/compose", s.Compose)

		r.Get("/filters", s.ListFilters)
		r.Post("/filters", s.SetFilter)
		r.Delete("/filters/{id}", s.RemoveFilter)
	})
}

// ListDashboards handles GET /dashboards.
func (s *Server) ListDashboards(w http.ResponseWriter, r *http.Request) {
	names, err := s.dashboards.List(r.Context())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse[string]{Items: nonNil(names)})
}

// DeleteDashboard handles DELETE /dashboards/{dashboard}.
func (s *Server) DeleteDashboard(w http.ResponseWriter, r *http.Request) {
	if err := s.dashboards.Delete(r.Context(), dashboardParam(r)); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListQueries handles GET /dashboards/{dashboard}/queries. With ?text= it
// lists only the first query whose text matches exactly.
func (s *Server) ListQueries(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Has("text") {
		s.findQuery(w, r, r.URL.Query().Get("text"))
		return
	}
	qs, err := s.dashboards.Queries(r.Context(), dashboardParam(r))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse[query.Query]{Items: nonNil(qs)})
}

func (s *Server) findQuery(w http.ResponseWriter, r *http.Request, text string) {
	q, err := s.dashboards.FindQuery(r.Context(), dashboardParam(r), text)
	switch {
	case errors.Is(err, domain.ErrQueryNotFound):
		writeJSON(w, http.StatusOK, listResponse[query.Query]{Items: []query.Query{}})
	case err != nil:
		s.handleDomainError(w, r, err)
	default:
		writeJSON(w, http.StatusOK, listResponse[query.Query]{Items: []query.Query{q}})
	}
}

// AddQuery handles POST /dashboards/{dashboard}/queries.
func (s *Server) AddQuery(w http.ResponseWriter, r *http.Request) {
	var spec query.Spec
	if err := decodeBody(r, &spec); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	q, err := s.dashboards.AddQuery(r.Context(), dashboardParam(r), spec)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, q)
}

// UpdateQuery handles PATCH /dashboards/{dashboard}/queries/{id}.
func (s *Server) UpdateQuery(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var spec query.Spec
	if err := decodeBody(r, &spec); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	q, err := s.dashboards.UpdateQuery(r.Context(), dashboardParam(r), id, spec)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

// RemoveQuery handles DELETE /dashboards/{dashboard}/queries/{id}.
func (s *Server) RemoveQuery(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	if err := s.dashboards.RemoveQuery(r.Context(), dashboardParam(r), id); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SelectQueries handles GET /dashboards/{dashboard}/queries/select?mode=&ids=.
func (s *Server) SelectQueries(w http.ResponseWriter, r *http.Request) {
	ids, err := parseIDList(r.URL.Query().Get("ids"))
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, err.Error())
		return
	}
	sel := mode.Selection{Mode: mode.Mode(r.URL.Query().Get("mode")), IDs: ids}

	got, err := s.dashboards.Select(r.Context(), dashboardParam(r), sel)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, selectResponse{IDs: nonNil(got)})
}

// Resolve handles POST /dashboards/{dashboard}/resolve.
func (s *Server) Resolve(w http.ResponseWriter, r *http.Request) {
	res, gen, err := s.dashboards.Resolve(r.Context(), dashboardParam(r))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resolveResponse{Generation: gen, Items: nonNil(res)})
}

// Compose handles POST /dashboards/{dashboard}/compose.
func (s *Server) Compose(w http.ResponseWriter, r *http.Request) {
	var req composeRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	creq := compose.Request{
		Selection: mode.Selection{Mode: req.Mode, IDs: req.IDs},
		AdHoc:     req.QueryString,
		Stacked:   req.Stacked,
		Highlight: req.Highlight,
	}
	name := dashboardParam(r)

	var (
		resp composeResponse
		err  error
	)
	switch req.Wrap {
	case "", WrapParts:
		var c dashboarduc.Composition
		if c, err = s.dashboards.Compose(r.Context(), name, creq); err == nil {
			resp = composeResponse{Query: queryJSON(c.Query), Filter: filterJSON(c.Filter), Generation: c.Generation}
		}
	case WrapFacetFilter:
		f, ferr := s.dashboards.FacetFilter(r.Context(), name, creq)
		resp, err = composeResponse{Filter: filterJSON(f)}, ferr
	case WrapFacetQuery:
		q, qerr := s.dashboards.FacetQuery(r.Context(), name, creq)
		resp, err = composeResponse{Query: queryJSON(q)}, qerr
	case WrapPanel:
		q, qerr := s.dashboards.PanelQuery(r.Context(), name, creq)
		resp, err = composeResponse{Query: queryJSON(q)}, qerr
	default:
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, fmt.Sprintf("unknown wrap %q", req.Wrap))
		return
	}
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// FacetFilterByQueryID handles POST /dashboards/{dashboard}/queries/{id}/facet-filter.
// The id is a resolved query id.
func (s *Server) FacetFilterByQueryID(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var req facetFilterRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	f, err := s.dashboards.FacetFilterByQueryID(r.Context(), dashboardParam(r), id, req.QueryString)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, filterResponse{Filter: filterJSON(f)})
}

// ListFilters handles GET /dashboards/{dashboard}/filters, optionally
// narrowed to one filter type with ?type=.
func (s *Server) ListFilters(w http.ResponseWriter, r *http.Request) {
	var (
		fs  []filterset.Filter
		err error
	)
	if t := r.URL.Query().Get("type"); t != "" {
		fs, err = s.dashboards.FiltersByType(r.Context(), dashboardParam(r), filterset.Type(t))
	} else {
		fs, err = s.dashboards.Filters(r.Context(), dashboardParam(r))
	}
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse[filterset.Filter]{Items: nonNil(fs)})
}

// SetFilter handles POST /dashboards/{dashboard}/filters.
func (s *Server) SetFilter(w http.ResponseWriter, r *http.Request) {
	var req filterRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	f, err := s.dashboards.SetFilter(r.Context(), dashboardParam(r), req.ID, req.Filter)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	status := http.StatusOK
	if req.ID == nil {
		status = http.StatusCreated
	}
	writeJSON(w, status, f)
}

// RemoveFilter handles DELETE /dashboards/{dashboard}/filters/{id}.
func (s *Server) RemoveFilter(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	if err := s.dashboards.RemoveFilter(r.Context(), dashboardParam(r), id); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, healthResponse{
		Status:  string(report.Status),
		Checks:  checks,
		Version: version.Get(),
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

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// decodeBody decodes a JSON body. An empty body leaves v untouched.
func decodeBody(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err //nolint:wrapcheck // message goes to the client as is
	}
	return nil
}

func dashboardParam(r *http.Request) string {
	return chi.URLParam(r, "dashboard")
}

// idParam parses the {id} path parameter, writing a 400 when it is not an integer.
func idParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.Atoi(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, fmt.Sprintf("invalid id %q", raw))
		return 0, false
	}
	return id, true
}

// parseIDList parses a comma-separated id list. An empty string yields nil.
func parseIDList(raw string) ([]int, error) {
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	ids := make([]int, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("invalid id %q in ids", p)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrNotFound,
		domain.ErrQueryNotFound,
		domain.ErrFilterNotFound,
		domain.ErrResolution,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, safeDomainMessage(err))
		return true
	}
}

// validationHandler reports input errors with their full message; they carry no internals.
func validationHandler(sentinel error) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, err.Error())
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContext(r.Context())
	log.Warn("domain error", zap.Error(err))
	for _, h := range s.errorHandlers {
		if h(w, err) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, ErrorCodeInternalError, "internal error")
}
