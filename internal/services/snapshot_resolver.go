package services

import (
	"context"
	"sort"
	"strings"
	"sync"

	domain "github.com/stockroute/api/internal/domain"
	"github.com/stockroute/api/internal/repositories"
)

const (
	skipReasonUnknownVariation    = "unknown variation"
	skipReasonNonPositiveQuantity = "non-positive quantity"
)

// resolvedItem is a requested line joined with its variation attributes.
type resolvedItem struct {
	VariationID string
	Quantity    int
	Attributes  domain.VariationAttributes
}

// orderSnapshot is the fully materialised read model a planning call operates
// on. It is built once per call and never mutated afterwards.
type orderSnapshot struct {
	items       map[string]resolvedItem
	itemOrder   []string
	warehouses  []domain.WarehouseStock
	skipped     []domain.SkippedItem
	totalWeight float64
	totalVolume float64
	totalAmount int64
}

// requestedQuantities returns variation id to requested quantity for resolved items.
func (s orderSnapshot) requestedQuantities() map[string]int {
	out := make(map[string]int, len(s.items))
	for id, item := range s.items {
		out[id] = item.Quantity
	}
	return out
}

func (s orderSnapshot) empty() bool {
	return len(s.items) == 0
}

type snapshotResolver struct {
	variations repositories.VariationRepository
	warehouses repositories.WarehouseRepository
	stock      repositories.StockRepository
}

// resolve reads variation attributes, warehouse metadata, and stock levels,
// then joins them into a snapshot. The three reads are independent and run
// concurrently; the snapshot is complete before the caller sees it.
func (r snapshotResolver) resolve(ctx context.Context, requested []RequestedItem) (orderSnapshot, error) {
	quantities := make(map[string]int, len(requested))
	var order []string
	var skipped []domain.SkippedItem

	for _, item := range requested {
		id := strings.TrimSpace(item.VariationID)
		if id == "" {
			continue
		}
		if item.Quantity <= 0 {
			skipped = append(skipped, domain.SkippedItem{
				VariationID: id,
				Quantity:    item.Quantity,
				Reason:      skipReasonNonPositiveQuantity,
			})
			continue
		}
		if _, seen := quantities[id]; !seen {
			order = append(order, id)
		}
		quantities[id] += item.Quantity
	}

	snapshot := orderSnapshot{
		items:   make(map[string]resolvedItem, len(quantities)),
		skipped: skipped,
	}
	if len(quantities) == 0 {
		return snapshot, nil
	}

	var (
		wg            sync.WaitGroup
		attributes    map[string]domain.VariationAttributes
		warehouseList []domain.Warehouse
		stockRecords  []domain.StockRecord
		attrErr       error
		warehouseErr  error
		stockErr      error
	)

	wg.Add(3)
	go func() {
		defer wg.Done()
		attributes, attrErr = r.variations.GetAttributes(ctx, order)
	}()
	go func() {
		defer wg.Done()
		warehouseList, warehouseErr = r.warehouses.ListActive(ctx)
	}()
	go func() {
		defer wg.Done()
		stockRecords, stockErr = r.stock.ListForVariations(ctx, order)
	}()
	wg.Wait()

	if attrErr != nil {
		return orderSnapshot{}, attrErr
	}
	if warehouseErr != nil {
		return orderSnapshot{}, warehouseErr
	}
	if stockErr != nil {
		return orderSnapshot{}, stockErr
	}

	for _, id := range order {
		attrs, ok := attributes[id]
		if !ok {
			snapshot.skipped = append(snapshot.skipped, domain.SkippedItem{
				VariationID: id,
				Quantity:    quantities[id],
				Reason:      skipReasonUnknownVariation,
			})
			continue
		}
		qty := quantities[id]
		snapshot.items[id] = resolvedItem{VariationID: id, Quantity: qty, Attributes: attrs}
		snapshot.itemOrder = append(snapshot.itemOrder, id)
		snapshot.totalWeight += attrs.WeightKg * float64(qty)
		snapshot.totalVolume += attrs.EffectiveVolume() * float64(qty)
		snapshot.totalAmount += attrs.Price * int64(qty)
	}

	snapshot.warehouses = joinWarehouseStock(warehouseList, stockRecords, snapshot.items)
	return snapshot, nil
}

// joinWarehouseStock groups stock records under their active warehouse,
// dropping records for inactive warehouses or unresolved variations. The
// result is sorted by warehouse id so allocation order is reproducible.
func joinWarehouseStock(warehouses []domain.Warehouse, records []domain.StockRecord, items map[string]resolvedItem) []domain.WarehouseStock {
	byID := make(map[string]domain.Warehouse, len(warehouses))
	for _, warehouse := range warehouses {
		byID[warehouse.ID] = warehouse
	}

	grouped := make(map[string]map[string]int)
	for _, record := range records {
		if record.Quantity <= 0 {
			continue
		}
		if _, ok := byID[record.WarehouseID]; !ok {
			continue
		}
		if _, ok := items[record.VariationID]; !ok {
			continue
		}
		if grouped[record.WarehouseID] == nil {
			grouped[record.WarehouseID] = make(map[string]int)
		}
		grouped[record.WarehouseID][record.VariationID] += record.Quantity
	}

	out := make([]domain.WarehouseStock, 0, len(grouped))
	for warehouseID, quantities := range grouped {
		out = append(out, domain.WarehouseStock{
			Warehouse:  byID[warehouseID],
			Quantities: quantities,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Warehouse.ID < out[j].Warehouse.ID
	})
	return out
}

// firstCoveringWarehouse returns the first warehouse in iteration order whose
// stock covers every requested line, or nil when none does.
func firstCoveringWarehouse(warehouses []domain.WarehouseStock, requested map[string]int) *domain.WarehouseStock {
	for i := range warehouses {
		if warehouses[i].Covers(requested) {
			return &warehouses[i]
		}
	}
	return nil
}
