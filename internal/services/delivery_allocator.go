package services

import (
	domain "github.com/stockroute/api/internal/domain"
)

const reasonPartialFulfillment = "partial fulfillment"

// allocateParts distributes the requested quantities across warehouses with a
// greedy single pass in warehouse order, no backtracking. Each warehouse
// contributes min(remaining, stocked) per variation; warehouses contributing
// nothing emit no part. Quantities left unassigned after the pass are returned
// as shortfalls. First-fit by design: the result is not cost or distance
// optimal.
func allocateParts(warehouses []domain.WarehouseStock, requested map[string]int, itemOrder []string) ([]domain.AllocationPart, []domain.Shortfall) {
	remaining := make(map[string]int, len(requested))
	outstanding := 0
	for id, qty := range requested {
		remaining[id] = qty
		outstanding += qty
	}

	var parts []domain.AllocationPart
	for _, stock := range warehouses {
		if outstanding == 0 {
			break
		}

		var items []domain.AllocationItem
		partial := false
		for _, variationID := range itemOrder {
			need := remaining[variationID]
			if need <= 0 {
				continue
			}
			have := stock.Quantities[variationID]
			if have <= 0 {
				continue
			}
			assign := need
			if have < assign {
				assign = have
				partial = true
			}
			items = append(items, domain.AllocationItem{VariationID: variationID, Quantity: assign})
			remaining[variationID] -= assign
			outstanding -= assign
		}
		if len(items) == 0 {
			continue
		}

		part := domain.AllocationPart{
			WarehouseID:   stock.Warehouse.ID,
			WarehouseName: stock.Warehouse.Name,
			Items:         items,
		}
		if partial {
			part.Reason = reasonPartialFulfillment
		}
		parts = append(parts, part)
	}

	var shortfalls []domain.Shortfall
	for _, variationID := range itemOrder {
		if left := remaining[variationID]; left > 0 {
			shortfalls = append(shortfalls, domain.Shortfall{
				VariationID: variationID,
				Requested:   requested[variationID],
				Allocated:   requested[variationID] - left,
			})
		}
	}
	return parts, shortfalls
}

// singlePart builds the one-warehouse allocation covering the whole request.
func singlePart(stock domain.WarehouseStock, requested map[string]int, itemOrder []string) domain.AllocationPart {
	items := make([]domain.AllocationItem, 0, len(itemOrder))
	for _, variationID := range itemOrder {
		qty := requested[variationID]
		if qty <= 0 {
			continue
		}
		items = append(items, domain.AllocationItem{VariationID: variationID, Quantity: qty})
	}
	return domain.AllocationPart{
		WarehouseID:   stock.Warehouse.ID,
		WarehouseName: stock.Warehouse.Name,
		Items:         items,
	}
}
