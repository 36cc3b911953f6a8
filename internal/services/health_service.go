package services

import (
	"context"
	"errors"
	"time"

	domain "github.com/stockroute/api/internal/domain"
	"github.com/stockroute/api/internal/repositories"
)

// HealthServiceDeps wires the dependencies required by the health service.
type HealthServiceDeps struct {
	Health      repositories.HealthRepository
	Version     string
	Environment string
	StartedAt   time.Time
	Clock       func() time.Time
}

type healthService struct {
	health      repositories.HealthRepository
	version     string
	environment string
	startedAt   time.Time
	now         func() time.Time
}

// NewHealthService constructs a HealthService validating required dependencies.
func NewHealthService(deps HealthServiceDeps) (HealthService, error) {
	if deps.Health == nil {
		return nil, errors.New("health service: health repository is required")
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	startedAt := deps.StartedAt
	if startedAt.IsZero() {
		startedAt = clock().UTC()
	}
	return &healthService{
		health:      deps.Health,
		version:     deps.Version,
		environment: deps.Environment,
		startedAt:   startedAt,
		now:         clock,
	}, nil
}

// Check probes dependencies and annotates the report with build metadata.
func (s *healthService) Check(ctx context.Context) (SystemHealthReport, error) {
	if s == nil || s.health == nil {
		return SystemHealthReport{}, errors.New("health service not initialised")
	}
	report, err := s.health.Collect(ctx)
	if err != nil {
		report = domain.SystemHealthReport{
			Status:      domain.HealthStatusError,
			GeneratedAt: s.now().UTC(),
		}
	}
	report.Version = s.version
	report.Environment = s.environment
	report.Uptime = s.now().UTC().Sub(s.startedAt)
	return report, nil
}
