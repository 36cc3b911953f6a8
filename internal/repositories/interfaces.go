package repositories

import (
	"context"

	domain "github.com/stockroute/api/internal/domain"
)

// Registry exposes typed repository accessors and lifecycle hooks for dependency injection.
type Registry interface {
	Close(ctx context.Context) error

	Variations() VariationRepository
	Warehouses() WarehouseRepository
	Stock() StockRepository
	DeliveryMethods() DeliveryMethodRepository
	Health() HealthRepository
}

// RepositoryError wraps low-level persistence failures with categorisation used by services.
type RepositoryError interface {
	error
	IsNotFound() bool
	IsConflict() bool
	IsUnavailable() bool
}

// VariationRepository reads physical attributes for product variations.
type VariationRepository interface {
	// GetAttributes returns attributes keyed by variation id. Unknown ids are
	// simply absent from the result.
	GetAttributes(ctx context.Context, variationIDs []string) (map[string]domain.VariationAttributes, error)
}

// WarehouseRepository reads warehouse master data.
type WarehouseRepository interface {
	ListActive(ctx context.Context) ([]domain.Warehouse, error)
	FindByID(ctx context.Context, warehouseID string) (domain.Warehouse, error)
}

// StockRepository reads per-warehouse stock levels.
type StockRepository interface {
	// ListForVariations returns every stock record matching the given
	// variation ids across all warehouses.
	ListForVariations(ctx context.Context, variationIDs []string) ([]domain.StockRecord, error)
}

// DeliveryMethodRepository reads delivery method configuration.
type DeliveryMethodRepository interface {
	ListActive(ctx context.Context, fulfillment domain.FulfillmentType) ([]domain.DeliveryMethod, error)
}

// HealthRepository reports datastore connectivity for readiness probes.
type HealthRepository interface {
	Collect(ctx context.Context) (domain.SystemHealthReport, error)
}
