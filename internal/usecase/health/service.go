package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure; searches are still served.
	Degraded Status = "degraded"
	// Unhealthy indicates no catalog is available, so searches fail.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	catalog CatalogChecker
	db      DBPinger
}

// New creates a Service. db can be nil when the catalog is file-backed.
func New(catalog CatalogChecker, db DBPinger) *Service {
	return &Service{catalog: catalog, db: db}
}

// Check runs health checks against all components.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	catalogOK := s.catalog.HealthCheck(ctx) == nil
	checks["catalog"] = result(catalogOK)

	if s.db != nil {
		checks["database"] = result(s.db.Ping(ctx) == nil)
	}

	status := Healthy
	switch {
	case !catalogOK:
		status = Unhealthy
	case checks["database"] == CheckError:
		status = Degraded
	}

	return Report{Status: status, Checks: checks}
}

func result(ok bool) CheckResult {
	if ok {
		return CheckOK
	}
	return CheckError
}
