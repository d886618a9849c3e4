// Package chi serves the coffee finder HTTP API on a chi router.
package chi

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	cataloguc "github.com/kailas-cloud/coffeefinder/internal/usecase/catalog"
	healthuc "github.com/kailas-cloud/coffeefinder/internal/usecase/health"
	searchuc "github.com/kailas-cloud/coffeefinder/internal/usecase/search"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 64 << 10

// Server holds the HTTP handlers of the API.
type Server struct {
	search        *searchuc.Service
	catalog       *cataloguc.Service
	health        *healthuc.Service
	validate      *validator.Validate
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	search *searchuc.Service,
	catalog *cataloguc.Service,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	return &Server{
		search:        search,
		catalog:       catalog,
		health:        health,
		validate:      newValidator(),
		logger:        logger,
		errorHandlers: defaultErrorHandlers(),
	}
}

// Search handles POST /api/v1/search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	resp, ok := s.runSearch(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, searchResponseToDTO(&resp))
}

// ExportSearch handles POST /api/v1/search/export.
func (s *Server) ExportSearch(w http.ResponseWriter, r *http.Request) {
	resp, ok := s.runSearch(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="results.csv"`)
	w.WriteHeader(http.StatusOK)
	if err := writeCSV(w, &resp); err != nil {
		s.logger.Warn("csv export aborted", zap.Error(err))
	}
}

// runSearch decodes, validates and executes a search. It writes the error
// response itself and returns false on failure.
func (s *Server) runSearch(w http.ResponseWriter, r *http.Request) (searchuc.Response, bool) {
	var req SearchRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body")
		return searchuc.Response{}, false
	}
	if err := s.validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, validationMessage(err))
		return searchuc.Response{}, false
	}

	resp, err := s.search.Search(r.Context(), req.toUsecase())
	if err != nil {
		s.handleDomainError(w, err)
		return searchuc.Response{}, false
	}
	return resp, true
}

// GetVenue handles GET /api/v1/venues/{id}.
func (s *Server) GetVenue(w http.ResponseWriter, r *http.Request) {
	v, err := s.search.Venue(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, venueToDTO(&v))
}

// GetCatalog handles GET /api/v1/catalog.
func (s *Server) GetCatalog(w http.ResponseWriter, _ *http.Request) {
	snap, err := s.catalog.Snapshot()
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, catalogToDTO(snap))
}

// RefreshCatalog handles POST /api/v1/catalog/refresh.
func (s *Server) RefreshCatalog(w http.ResponseWriter, r *http.Request) {
	snap, err := s.catalog.Refresh(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, catalogToDTO(snap))
}

// HealthCheck handles GET /health.
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

	writeJSON(w, httpStatus, HealthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// validationMessage renders the first failing field of a validator error.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "invalid request"
	}
	fe := verrs[0]
	field := fe.Namespace()
	if _, rest, ok := strings.Cut(field, "."); ok {
		field = rest
	}
	if fe.Param() != "" {
		return fmt.Sprintf("%s failed %s=%s", field, fe.Tag(), fe.Param())
	}
	return fmt.Sprintf("%s failed %s", field, fe.Tag())
}
