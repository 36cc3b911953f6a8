package firestore

import (
	"context"
	"errors"
	"time"

	"google.golang.org/api/iterator"

	domain "github.com/stockroute/api/internal/domain"
	pfirestore "github.com/stockroute/api/internal/platform/firestore"
	"github.com/stockroute/api/internal/repositories"
)

const healthProbeTimeout = 2 * time.Second

// HealthRepository probes Firestore connectivity for readiness checks.
type HealthRepository struct {
	provider *pfirestore.Provider
	now      func() time.Time
}

// NewHealthRepository constructs a Firestore-backed health repository.
func NewHealthRepository(provider *pfirestore.Provider) (*HealthRepository, error) {
	if provider == nil {
		return nil, errors.New("health repository requires firestore provider")
	}
	return &HealthRepository{provider: provider, now: time.Now}, nil
}

// Collect runs a bounded single-document read against the datastore and
// reports the outcome.
func (r *HealthRepository) Collect(ctx context.Context) (domain.SystemHealthReport, error) {
	if r == nil || r.provider == nil {
		return domain.SystemHealthReport{}, errors.New("health repository not initialised")
	}

	probeCtx, cancel := context.WithTimeout(ctx, healthProbeTimeout)
	defer cancel()

	started := r.now().UTC()
	check := domain.SystemHealthCheck{
		Status:    domain.HealthStatusOK,
		Detail:    "firestore reachable",
		CheckedAt: started,
	}

	if err := r.probe(probeCtx); err != nil {
		check.Status = domain.HealthStatusError
		check.Detail = "firestore unreachable"
		check.Error = err.Error()
	}
	check.Latency = r.now().UTC().Sub(started)

	report := domain.SystemHealthReport{
		Status:      check.Status,
		Checks:      map[string]domain.SystemHealthCheck{"firestore": check},
		GeneratedAt: r.now().UTC(),
	}
	return report, nil
}

func (r *HealthRepository) probe(ctx context.Context) error {
	client, err := r.provider.Client(ctx)
	if err != nil {
		return err
	}
	iter := client.Collection(warehouseCollection).Limit(1).Documents(ctx)
	defer iter.Stop()
	if _, err := iter.Next(); err != nil && !errors.Is(err, iterator.Done) {
		return err
	}
	return nil
}

// Ensure interface compliance.
var _ repositories.HealthRepository = (*HealthRepository)(nil)
