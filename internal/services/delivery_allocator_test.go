package services

import (
	"testing"

	domain "github.com/stockroute/api/internal/domain"
)

func warehouseStock(id string, quantities map[string]int) domain.WarehouseStock {
	return domain.WarehouseStock{
		Warehouse:  domain.Warehouse{ID: id, Name: id, Active: true},
		Quantities: quantities,
	}
}

func TestAllocatePartsConservation(t *testing.T) {
	warehouses := []domain.WarehouseStock{
		warehouseStock("wh-1", map[string]int{"a": 2, "b": 1}),
		warehouseStock("wh-2", map[string]int{"a": 3, "b": 4}),
	}
	requested := map[string]int{"a": 4, "b": 3}

	parts, shortfalls := allocateParts(warehouses, requested, []string{"a", "b"})
	if len(shortfalls) != 0 {
		t.Fatalf("expected full coverage, got shortfalls %+v", shortfalls)
	}

	assigned := map[string]int{}
	for _, part := range parts {
		for _, item := range part.Items {
			assigned[item.VariationID] += item.Quantity
		}
	}
	for variationID, want := range requested {
		if assigned[variationID] != want {
			t.Fatalf("expected %d of %s assigned, got %d", want, variationID, assigned[variationID])
		}
	}
}

func TestAllocatePartsDisjointWarehouses(t *testing.T) {
	warehouses := []domain.WarehouseStock{
		warehouseStock("wh-1", map[string]int{"a": 1}),
		warehouseStock("wh-2", map[string]int{"a": 5}),
	}
	parts, _ := allocateParts(warehouses, map[string]int{"a": 4}, []string{"a"})

	seen := map[string]bool{}
	for _, part := range parts {
		if seen[part.WarehouseID] {
			t.Fatalf("warehouse %s appears in more than one part", part.WarehouseID)
		}
		seen[part.WarehouseID] = true
	}
}

func TestAllocatePartsSkipsEmptyWarehouses(t *testing.T) {
	warehouses := []domain.WarehouseStock{
		warehouseStock("wh-1", map[string]int{"b": 9}),
		warehouseStock("wh-2", map[string]int{"a": 2}),
	}
	parts, _ := allocateParts(warehouses, map[string]int{"a": 2}, []string{"a"})
	if len(parts) != 1 || parts[0].WarehouseID != "wh-2" {
		t.Fatalf("expected only wh-2 to contribute, got %+v", parts)
	}
}

func TestAllocatePartsZeroStockShortfall(t *testing.T) {
	warehouses := []domain.WarehouseStock{
		warehouseStock("wh-1", map[string]int{"a": 3}),
	}
	requested := map[string]int{"a": 3, "missing": 2}

	parts, shortfalls := allocateParts(warehouses, requested, []string{"a", "missing"})
	if len(parts) != 1 {
		t.Fatalf("expected one part, got %d", len(parts))
	}
	if len(shortfalls) != 1 {
		t.Fatalf("expected one shortfall, got %+v", shortfalls)
	}
	if shortfalls[0].VariationID != "missing" || shortfalls[0].Allocated != 0 || shortfalls[0].Requested != 2 {
		t.Fatalf("unexpected shortfall %+v", shortfalls[0])
	}
}

func TestAllocatePartsStopsOnceSatisfied(t *testing.T) {
	warehouses := []domain.WarehouseStock{
		warehouseStock("wh-1", map[string]int{"a": 5}),
		warehouseStock("wh-2", map[string]int{"a": 5}),
	}
	parts, _ := allocateParts(warehouses, map[string]int{"a": 4}, []string{"a"})
	if len(parts) != 1 {
		t.Fatalf("expected allocation to stop after first warehouse, got %+v", parts)
	}
}

func TestFirstCoveringWarehousePicksFirstInOrder(t *testing.T) {
	warehouses := []domain.WarehouseStock{
		warehouseStock("wh-1", map[string]int{"a": 1}),
		warehouseStock("wh-2", map[string]int{"a": 10}),
		warehouseStock("wh-3", map[string]int{"a": 10}),
	}
	cover := firstCoveringWarehouse(warehouses, map[string]int{"a": 5})
	if cover == nil || cover.Warehouse.ID != "wh-2" {
		t.Fatalf("expected wh-2 to be selected, got %+v", cover)
	}
}

func TestFirstCoveringWarehouseNilWhenInfeasible(t *testing.T) {
	warehouses := []domain.WarehouseStock{
		warehouseStock("wh-1", map[string]int{"a": 1}),
	}
	if cover := firstCoveringWarehouse(warehouses, map[string]int{"a": 5}); cover != nil {
		t.Fatalf("expected nil, got %+v", cover)
	}
}
