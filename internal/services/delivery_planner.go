package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	domain "github.com/stockroute/api/internal/domain"
	"github.com/stockroute/api/internal/repositories"
)

var (
	// ErrPlanInvalidInput indicates the caller supplied invalid planning parameters.
	ErrPlanInvalidInput = errors.New("delivery plan: invalid input")
	// ErrPlanUnavailable indicates planning dependencies are currently unavailable.
	ErrPlanUnavailable = errors.New("delivery plan: unavailable")
)

// DeliveryPlanServiceDeps wires the dependencies required by the delivery planner.
type DeliveryPlanServiceDeps struct {
	Variations    repositories.VariationRepository
	Warehouses    repositories.WarehouseRepository
	Stock         repositories.StockRepository
	Methods       repositories.DeliveryMethodRepository
	Events        PlanEventPublisher
	Clock         func() time.Time
	IDGenerator   func() string
	Logger        func(ctx context.Context, event string, fields map[string]any)
	Timeline      TimelineSettings
	DefaultLocale string
}

type deliveryPlanService struct {
	resolver      snapshotResolver
	warehouses    repositories.WarehouseRepository
	methods       repositories.DeliveryMethodRepository
	events        PlanEventPublisher
	now           func() time.Time
	newID         func() string
	logger        func(ctx context.Context, event string, fields map[string]any)
	timeline      TimelineSettings
	defaultLocale string
}

// NewDeliveryPlanService constructs a DeliveryPlanService validating required dependencies.
func NewDeliveryPlanService(deps DeliveryPlanServiceDeps) (DeliveryPlanService, error) {
	if deps.Variations == nil {
		return nil, errors.New("delivery plan service: variation repository is required")
	}
	if deps.Warehouses == nil {
		return nil, errors.New("delivery plan service: warehouse repository is required")
	}
	if deps.Stock == nil {
		return nil, errors.New("delivery plan service: stock repository is required")
	}
	if deps.Methods == nil {
		return nil, errors.New("delivery plan service: delivery method repository is required")
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = func() string { return ulid.Make().String() }
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	locale := strings.TrimSpace(deps.DefaultLocale)
	if locale == "" {
		locale = "en"
	}

	return &deliveryPlanService{
		resolver: snapshotResolver{
			variations: deps.Variations,
			warehouses: deps.Warehouses,
			stock:      deps.Stock,
		},
		warehouses: deps.Warehouses,
		methods:    deps.Methods,
		events:     deps.Events,
		now: func() time.Time {
			return clock().UTC()
		},
		newID:         idGen,
		logger:        logger,
		timeline:      deps.Timeline.withDefaults(),
		defaultLocale: locale,
	}, nil
}

// PlanDelivery materialises a stock snapshot, allocates the order across
// warehouses, evaluates delivery method rules, and synthesises priced, dated
// options. Business-level gaps (unknown variations, stock shortfalls, no
// applicable methods) are reported inside the plan; only infrastructure
// failures surface as errors.
func (s *deliveryPlanService) PlanDelivery(ctx context.Context, cmd PlanDeliveryCommand) (DeliveryPlan, error) {
	if s == nil || s.methods == nil {
		return DeliveryPlan{}, ErrPlanUnavailable
	}
	if !cmd.Fulfillment.Valid() {
		return DeliveryPlan{}, ErrPlanInvalidInput
	}
	if len(cmd.Items) == 0 {
		return DeliveryPlan{}, ErrPlanInvalidInput
	}

	destination := cmd.Destination
	pickupWarehouseID := strings.TrimSpace(cmd.PickupWarehouseID)
	if cmd.Fulfillment == domain.FulfillmentPickup {
		if pickupWarehouseID == "" {
			return DeliveryPlan{}, ErrPlanInvalidInput
		}
		warehouse, err := s.warehouses.FindByID(ctx, pickupWarehouseID)
		if err != nil {
			return DeliveryPlan{}, s.translateLookupError(err)
		}
		if !warehouse.Active || !warehouse.PickupPoint {
			return DeliveryPlan{}, ErrPlanInvalidInput
		}
		location := warehouse.Location
		destination = &location
	}

	snapshot, err := s.resolver.resolve(ctx, cmd.Items)
	if err != nil {
		return DeliveryPlan{}, s.translateInfraError(err)
	}

	plan := DeliveryPlan{
		ID:           s.newID(),
		GeneratedAt:  s.now(),
		Fulfillment:  cmd.Fulfillment,
		SkippedItems: snapshot.skipped,
	}
	if snapshot.empty() {
		return plan, nil
	}

	methods, err := s.methods.ListActive(ctx, cmd.Fulfillment)
	if err != nil {
		return DeliveryPlan{}, s.translateInfraError(err)
	}

	warehouses := snapshot.warehouses
	if cmd.Fulfillment == domain.FulfillmentPickup {
		warehouses = preferWarehouse(warehouses, pickupWarehouseID)
	}

	requested := snapshot.requestedQuantities()
	cover := firstCoveringWarehouse(warehouses, requested)

	var (
		parts      []domain.AllocationPart
		shortfalls []domain.Shortfall
		collapse   bool
	)
	if cover != nil {
		parts = []domain.AllocationPart{singlePart(*cover, requested, snapshot.itemOrder)}
		collapse = cmd.Fulfillment == domain.FulfillmentPickup && cover.Warehouse.ID == pickupWarehouseID
	} else {
		parts, shortfalls = allocateParts(warehouses, requested, snapshot.itemOrder)
	}
	plan.Shortfalls = shortfalls

	locale := strings.TrimSpace(cmd.Locale)
	if locale == "" {
		locale = s.defaultLocale
	}

	measures := planMeasures{
		weightKg:  snapshot.totalWeight,
		volumeCm3: snapshot.totalVolume,
		amount:    snapshot.totalAmount,
	}
	distanceEligible := cmd.Fulfillment == domain.FulfillmentCourier && destination != nil
	today := midnightUTC(s.now())
	locations := warehouseLocations(warehouses)

	for _, method := range methods {
		cost, applicable := evaluateMethodCost(method, measures, destination, distanceEligible)
		if !applicable {
			continue
		}
		displayName := localizedMethodName(method, locale)

		if cover != nil {
			plan.Options = append(plan.Options, s.singleOption(method, displayName, cmd.Fulfillment, cost, parts[0], today, collapse))
			continue
		}
		if len(parts) == 0 {
			continue
		}
		plan.Options = append(plan.Options, s.multiOptions(method, displayName, cmd.Fulfillment, cost, parts, destination, locations, today)...)
	}

	sortOptions(plan.Options)
	s.publishShortfalls(ctx, plan)
	return plan, nil
}

func (s *deliveryPlanService) singleOption(method domain.DeliveryMethod, displayName string, fulfillment FulfillmentType, cost int64, part domain.AllocationPart, today time.Time, collapse bool) DeliveryOption {
	window := singleWindow(today, method, collapse)
	return DeliveryOption{
		ID:          s.newID(),
		MethodID:    method.ID,
		DisplayName: displayName,
		Kind:        domain.OptionSingle,
		Fulfillment: fulfillment,
		TotalCost:   cost,
		Window:      window,
		Parts: []DeliveryPart{{
			WarehouseID:   part.WarehouseID,
			WarehouseName: part.WarehouseName,
			Items:         part.Items,
			EstimatedDate: window.Max,
			Cost:          cost,
			Reason:        part.Reason,
		}},
	}
}

// multiOptions produces the split and combined renderings of a multi-part
// allocation. Split bills the method cost per part and lets each part ship on
// its own date; combined consolidates everything into one shipment billed once
// and dated at the slowest part. A one-part allocation yields only the split
// form since both renderings would coincide.
func (s *deliveryPlanService) multiOptions(method domain.DeliveryMethod, displayName string, fulfillment FulfillmentType, cost int64, parts []domain.AllocationPart, destination *domain.GeoPoint, locations map[string]domain.Warehouse, today time.Time) []DeliveryOption {
	deliveryParts := make([]DeliveryPart, 0, len(parts))
	var splitWindow, latest domain.DateWindow
	for i, part := range parts {
		var distanceKm float64
		if warehouse, ok := locations[part.WarehouseID]; ok {
			if km, known := warehouseDistanceKm(warehouse, destination); known {
				distanceKm = km
			}
		}
		window := partWindow(today, method, s.timeline.partOffsetDays(distanceKm, i))

		deliveryParts = append(deliveryParts, DeliveryPart{
			WarehouseID:   part.WarehouseID,
			WarehouseName: part.WarehouseName,
			Items:         part.Items,
			EstimatedDate: window.Max,
			Cost:          cost,
			Reason:        part.Reason,
		})

		if i == 0 {
			splitWindow = window
			latest = window
			continue
		}
		if window.Min.Before(splitWindow.Min) {
			splitWindow.Min = window.Min
		}
		if window.Max.After(splitWindow.Max) {
			splitWindow.Max = window.Max
		}
		if window.Min.After(latest.Min) {
			latest.Min = window.Min
		}
		if window.Max.After(latest.Max) {
			latest.Max = window.Max
		}
	}

	options := []DeliveryOption{{
		ID:          s.newID(),
		MethodID:    method.ID,
		DisplayName: displayName,
		Kind:        domain.OptionSplit,
		Fulfillment: fulfillment,
		TotalCost:   cost * int64(len(parts)),
		Window:      splitWindow,
		Parts:       deliveryParts,
	}}
	if len(parts) == 1 {
		return options
	}

	options = append(options, DeliveryOption{
		ID:          s.newID(),
		MethodID:    method.ID,
		DisplayName: displayName,
		Kind:        domain.OptionCombined,
		Fulfillment: fulfillment,
		TotalCost:   cost,
		Window:      domain.DateWindow{Min: latest.Min, Max: latest.Max},
		Parts: []DeliveryPart{{
			WarehouseName: consolidatedPartName(parts),
			Items:         mergeItems(parts),
			EstimatedDate: latest.Max,
			Cost:          cost,
			Reason:        "consolidated shipment",
			Sources:       partSources(parts),
		}},
	})
	return options
}

// partSources keeps the warehouse attribution of each allocation part on the
// consolidated shipment.
func partSources(parts []domain.AllocationPart) []domain.PartSource {
	sources := make([]domain.PartSource, 0, len(parts))
	for _, part := range parts {
		sources = append(sources, domain.PartSource{
			WarehouseID:   part.WarehouseID,
			WarehouseName: part.WarehouseName,
			Items:         part.Items,
		})
	}
	return sources
}

func (s *deliveryPlanService) publishShortfalls(ctx context.Context, plan DeliveryPlan) {
	if s.events == nil || len(plan.Shortfalls) == 0 {
		return
	}
	message := PlanShortfallMessage{
		PlanID:      plan.ID,
		Fulfillment: string(plan.Fulfillment),
		Shortfalls:  plan.Shortfalls,
		OccurredAt:  plan.GeneratedAt,
	}
	if _, err := s.events.PublishShortfall(ctx, message); err != nil {
		s.logger(ctx, "delivery_plan.shortfall_publish_failed", map[string]any{
			"plan_id": plan.ID,
			"error":   err.Error(),
		})
	}
}

func (s *deliveryPlanService) translateLookupError(err error) error {
	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) && repoErr.IsNotFound() {
		return ErrPlanInvalidInput
	}
	return s.translateInfraError(err)
}

func (s *deliveryPlanService) translateInfraError(err error) error {
	return fmt.Errorf("%w: %v", ErrPlanUnavailable, err)
}

// preferWarehouse moves the named warehouse to the front so feasibility and
// allocation consider the pickup location first.
func preferWarehouse(warehouses []domain.WarehouseStock, warehouseID string) []domain.WarehouseStock {
	if warehouseID == "" {
		return warehouses
	}
	for i := range warehouses {
		if warehouses[i].Warehouse.ID != warehouseID {
			continue
		}
		if i == 0 {
			return warehouses
		}
		reordered := make([]domain.WarehouseStock, 0, len(warehouses))
		reordered = append(reordered, warehouses[i])
		reordered = append(reordered, warehouses[:i]...)
		reordered = append(reordered, warehouses[i+1:]...)
		return reordered
	}
	return warehouses
}

func warehouseLocations(warehouses []domain.WarehouseStock) map[string]domain.Warehouse {
	out := make(map[string]domain.Warehouse, len(warehouses))
	for _, stock := range warehouses {
		out[stock.Warehouse.ID] = stock.Warehouse
	}
	return out
}

func mergeItems(parts []domain.AllocationPart) []domain.AllocationItem {
	totals := make(map[string]int)
	var order []string
	for _, part := range parts {
		for _, item := range part.Items {
			if _, seen := totals[item.VariationID]; !seen {
				order = append(order, item.VariationID)
			}
			totals[item.VariationID] += item.Quantity
		}
	}
	items := make([]domain.AllocationItem, 0, len(order))
	for _, id := range order {
		items = append(items, domain.AllocationItem{VariationID: id, Quantity: totals[id]})
	}
	return items
}

func consolidatedPartName(parts []domain.AllocationPart) string {
	names := make([]string, 0, len(parts))
	for _, part := range parts {
		name := part.WarehouseName
		if name == "" {
			name = part.WarehouseID
		}
		names = append(names, name)
	}
	return strings.Join(names, " + ")
}

func sortOptions(options []DeliveryOption) {
	sort.SliceStable(options, func(i, j int) bool {
		if options[i].TotalCost != options[j].TotalCost {
			return options[i].TotalCost < options[j].TotalCost
		}
		if options[i].MethodID != options[j].MethodID {
			return options[i].MethodID < options[j].MethodID
		}
		return options[i].Kind < options[j].Kind
	})
}
