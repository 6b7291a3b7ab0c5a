package health

import (
	"context"
	"maps"
	"slices"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates an LLM provider is failing; template channels still work.
	Degraded Status = "degraded"
	// Unhealthy indicates the database is unreachable.
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
	db        DBPinger
	providers map[string]ProviderChecker
}

// New creates a Service. providers maps a check name to an LLM provider and may be empty.
func New(db DBPinger, providers map[string]ProviderChecker) *Service {
	return &Service{db: db, providers: providers}
}

// Check runs health checks against all components.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult, len(s.providers)+1)
	status := Healthy

	if err := s.db.Ping(ctx); err != nil {
		checks["database"] = CheckError
		status = Unhealthy
	} else {
		checks["database"] = CheckOK
	}

	for _, name := range slices.Sorted(maps.Keys(s.providers)) {
		if err := s.providers[name].HealthCheck(ctx); err != nil {
			checks["llm:"+name] = CheckError
			if status == Healthy {
				status = Degraded
			}
			continue
		}
		checks["llm:"+name] = CheckOK
	}

	return Report{Status: status, Checks: checks}
}
