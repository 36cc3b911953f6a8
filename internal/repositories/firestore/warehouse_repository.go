package firestore

import (
	"context"
	"errors"
	"sort"
	"strings"

	"cloud.google.com/go/firestore"

	domain "github.com/stockroute/api/internal/domain"
	pfirestore "github.com/stockroute/api/internal/platform/firestore"
	"github.com/stockroute/api/internal/repositories"
)

const warehouseCollection = "warehouses"

// WarehouseRepository reads warehouse master data from Firestore.
type WarehouseRepository struct {
	base *pfirestore.BaseRepository[warehouseDocument]
}

// NewWarehouseRepository constructs a Firestore-backed warehouse repository.
func NewWarehouseRepository(provider *pfirestore.Provider) (*WarehouseRepository, error) {
	if provider == nil {
		return nil, errors.New("warehouse repository requires firestore provider")
	}
	return &WarehouseRepository{
		base: pfirestore.NewBaseRepository[warehouseDocument](provider, warehouseCollection, nil),
	}, nil
}

// ListActive returns active warehouses sorted by id for deterministic iteration.
func (r *WarehouseRepository) ListActive(ctx context.Context) ([]domain.Warehouse, error) {
	if r == nil || r.base == nil {
		return nil, errors.New("warehouse repository not initialised")
	}

	docs, err := r.base.Query(ctx, func(query firestore.Query) firestore.Query {
		return query.Where("active", "==", true)
	})
	if err != nil {
		return nil, err
	}

	warehouses := make([]domain.Warehouse, 0, len(docs))
	for _, doc := range docs {
		warehouses = append(warehouses, doc.Data.toDomain(doc.ID))
	}
	sort.Slice(warehouses, func(i, j int) bool {
		return warehouses[i].ID < warehouses[j].ID
	})
	return warehouses, nil
}

// FindByID loads a single warehouse by id.
func (r *WarehouseRepository) FindByID(ctx context.Context, warehouseID string) (domain.Warehouse, error) {
	if r == nil || r.base == nil {
		return domain.Warehouse{}, errors.New("warehouse repository not initialised")
	}
	id := strings.TrimSpace(warehouseID)
	if id == "" {
		return domain.Warehouse{}, errors.New("warehouse repository: id is required")
	}
	doc, err := r.base.Get(ctx, id)
	if err != nil {
		return domain.Warehouse{}, err
	}
	return doc.Data.toDomain(doc.ID), nil
}

type warehouseDocument struct {
	Name        string           `firestore:"name"`
	Location    geoPointDocument `firestore:"location"`
	PickupPoint bool             `firestore:"pickupPoint"`
	Active      bool             `firestore:"active"`
}

type geoPointDocument struct {
	Latitude  float64 `firestore:"latitude"`
	Longitude float64 `firestore:"longitude"`
}

func (d warehouseDocument) toDomain(id string) domain.Warehouse {
	return domain.Warehouse{
		ID:   id,
		Name: strings.TrimSpace(d.Name),
		Location: domain.GeoPoint{
			Latitude:  d.Location.Latitude,
			Longitude: d.Location.Longitude,
		},
		PickupPoint: d.PickupPoint,
		Active:      d.Active,
	}
}

// Ensure interface compliance.
var _ repositories.WarehouseRepository = (*WarehouseRepository)(nil)
