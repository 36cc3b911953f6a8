package firestore

import (
	"context"
	"errors"

	pfirestore "github.com/stockroute/api/internal/platform/firestore"
	"github.com/stockroute/api/internal/repositories"
)

// Registry bundles Firestore-backed repositories behind the repositories.Registry contract.
type Registry struct {
	provider        *pfirestore.Provider
	variations      *VariationRepository
	warehouses      *WarehouseRepository
	stock           *StockRepository
	deliveryMethods *DeliveryMethodRepository
	health          *HealthRepository
}

// NewRegistry wires all repositories against a shared Firestore provider.
func NewRegistry(provider *pfirestore.Provider) (*Registry, error) {
	if provider == nil {
		return nil, errors.New("registry requires firestore provider")
	}

	variations, err := NewVariationRepository(provider)
	if err != nil {
		return nil, err
	}
	warehouses, err := NewWarehouseRepository(provider)
	if err != nil {
		return nil, err
	}
	stock, err := NewStockRepository(provider)
	if err != nil {
		return nil, err
	}
	deliveryMethods, err := NewDeliveryMethodRepository(provider)
	if err != nil {
		return nil, err
	}
	health, err := NewHealthRepository(provider)
	if err != nil {
		return nil, err
	}

	return &Registry{
		provider:        provider,
		variations:      variations,
		warehouses:      warehouses,
		stock:           stock,
		deliveryMethods: deliveryMethods,
		health:          health,
	}, nil
}

// Close releases the underlying Firestore client.
func (r *Registry) Close(ctx context.Context) error {
	if r == nil || r.provider == nil {
		return nil
	}
	return r.provider.Close(ctx)
}

// Variations returns the variation attribute repository.
func (r *Registry) Variations() repositories.VariationRepository { return r.variations }

// Warehouses returns the warehouse repository.
func (r *Registry) Warehouses() repositories.WarehouseRepository { return r.warehouses }

// Stock returns the stock level repository.
func (r *Registry) Stock() repositories.StockRepository { return r.stock }

// DeliveryMethods returns the delivery method repository.
func (r *Registry) DeliveryMethods() repositories.DeliveryMethodRepository { return r.deliveryMethods }

// Health returns the datastore health repository.
func (r *Registry) Health() repositories.HealthRepository { return r.health }

// Ensure interface compliance.
var _ repositories.Registry = (*Registry)(nil)
