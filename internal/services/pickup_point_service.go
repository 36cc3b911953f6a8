package services

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/stockroute/api/internal/repositories"
)

var (
	// ErrPickupInvalidInput indicates the caller supplied invalid listing parameters.
	ErrPickupInvalidInput = errors.New("pickup points: invalid input")
	// ErrPickupUnavailable indicates the warehouse directory is currently unavailable.
	ErrPickupUnavailable = errors.New("pickup points: unavailable")
)

// PickupPointServiceDeps wires the dependencies required by the pickup point service.
type PickupPointServiceDeps struct {
	Warehouses repositories.WarehouseRepository
}

type pickupPointService struct {
	warehouses repositories.WarehouseRepository
}

// NewPickupPointService constructs a PickupPointService validating required dependencies.
func NewPickupPointService(deps PickupPointServiceDeps) (PickupPointService, error) {
	if deps.Warehouses == nil {
		return nil, errors.New("pickup point service: warehouse repository is required")
	}
	return &pickupPointService{warehouses: deps.Warehouses}, nil
}

// ListPickupPoints returns active pickup-capable warehouses. With an origin the
// result carries distances and is ordered nearest first; otherwise it is
// ordered by name.
func (s *pickupPointService) ListPickupPoints(ctx context.Context, query ListPickupPointsQuery) ([]PickupPoint, error) {
	if s == nil || s.warehouses == nil {
		return nil, ErrPickupUnavailable
	}
	if query.Limit < 0 {
		return nil, ErrPickupInvalidInput
	}

	warehouses, err := s.warehouses.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPickupUnavailable, err)
	}

	points := make([]PickupPoint, 0, len(warehouses))
	for _, warehouse := range warehouses {
		if !warehouse.PickupPoint {
			continue
		}
		point := PickupPoint{
			WarehouseID: warehouse.ID,
			Name:        warehouse.Name,
			Location:    warehouse.Location,
		}
		if query.Origin != nil {
			if km, known := warehouseDistanceKm(warehouse, query.Origin); known {
				distance := km
				point.DistanceKm = &distance
			}
		}
		points = append(points, point)
	}

	if query.Origin != nil {
		sort.SliceStable(points, func(i, j int) bool {
			di, dj := points[i].DistanceKm, points[j].DistanceKm
			switch {
			case di == nil && dj == nil:
				return points[i].Name < points[j].Name
			case di == nil:
				return false
			case dj == nil:
				return true
			case *di != *dj:
				return *di < *dj
			default:
				return points[i].WarehouseID < points[j].WarehouseID
			}
		})
	} else {
		sort.SliceStable(points, func(i, j int) bool {
			if points[i].Name != points[j].Name {
				return points[i].Name < points[j].Name
			}
			return points[i].WarehouseID < points[j].WarehouseID
		})
	}

	if query.Limit > 0 && len(points) > query.Limit {
		points = points[:query.Limit]
	}
	return points, nil
}
