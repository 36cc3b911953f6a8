package di

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/stockroute/api/internal/platform/config"
	"github.com/stockroute/api/internal/repositories"
	"github.com/stockroute/api/internal/services"
)

// Services bundles the service-layer contracts that handlers rely upon. Concrete implementations
// are assembled via dependency injection in NewContainer.
type Services struct {
	DeliveryPlans services.DeliveryPlanService
	PickupPoints  services.PickupPointService
	Health        services.HealthService
}

// ContainerDeps carries externally constructed collaborators into wiring.
type ContainerDeps struct {
	Events    services.PlanEventPublisher
	Logger    func(ctx context.Context, event string, fields map[string]any)
	Version   string
	StartedAt time.Time
}

// Container wires repositories and services for runtime use.
type Container struct {
	Config       config.Config
	Repositories repositories.Registry
	Services     Services
}

// NewContainer constructs the runtime dependencies. Production wiring provides
// the Firestore registry, while tests can supply in-memory registries.
func NewContainer(_ context.Context, cfg config.Config, reg repositories.Registry, deps ContainerDeps) (*Container, error) {
	if reg == nil {
		return nil, errors.New("repositories registry is required")
	}

	svc, err := buildServices(reg, cfg, deps)
	if err != nil {
		return nil, err
	}

	return &Container{
		Config:       cfg,
		Repositories: reg,
		Services:     svc,
	}, nil
}

// Close releases resources such as repository clients.
func (c *Container) Close(ctx context.Context) error {
	if c == nil || c.Repositories == nil {
		return nil
	}
	return c.Repositories.Close(ctx)
}

func buildServices(reg repositories.Registry, cfg config.Config, deps ContainerDeps) (Services, error) {
	var svc Services

	planSvc, err := services.NewDeliveryPlanService(services.DeliveryPlanServiceDeps{
		Variations: reg.Variations(),
		Warehouses: reg.Warehouses(),
		Stock:      reg.Stock(),
		Methods:    reg.DeliveryMethods(),
		Events:     deps.Events,
		Clock:      time.Now,
		Logger:     deps.Logger,
		Timeline: services.TimelineSettings{
			AssemblyOffsetDays: cfg.Planning.AssemblyOffsetDays,
			DistanceDivisorKm:  cfg.Planning.DistanceDivisorKm,
			PartStaggerDays:    cfg.Planning.PartStaggerDays,
		},
		DefaultLocale: cfg.Planning.DefaultLocale,
	})
	if err != nil {
		return Services{}, fmt.Errorf("build delivery plan service: %w", err)
	}
	svc.DeliveryPlans = planSvc

	pickupSvc, err := services.NewPickupPointService(services.PickupPointServiceDeps{
		Warehouses: reg.Warehouses(),
	})
	if err != nil {
		return Services{}, fmt.Errorf("build pickup point service: %w", err)
	}
	svc.PickupPoints = pickupSvc

	if healthRepo := reg.Health(); healthRepo != nil {
		healthSvc, err := services.NewHealthService(services.HealthServiceDeps{
			Health:      healthRepo,
			Version:     deps.Version,
			Environment: cfg.Security.Environment,
			StartedAt:   deps.StartedAt,
			Clock:       time.Now,
		})
		if err != nil {
			return Services{}, fmt.Errorf("build health service: %w", err)
		}
		svc.Health = healthSvc
	}

	return svc, nil
}
