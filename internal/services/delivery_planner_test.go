package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	domain "github.com/stockroute/api/internal/domain"
)

type stubVariationRepo struct {
	attrs map[string]domain.VariationAttributes
	err   error
}

func (s *stubVariationRepo) GetAttributes(_ context.Context, ids []string) (map[string]domain.VariationAttributes, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make(map[string]domain.VariationAttributes, len(ids))
	for _, id := range ids {
		if attrs, ok := s.attrs[id]; ok {
			out[id] = attrs
		}
	}
	return out, nil
}

type stubWarehouseRepo struct {
	warehouses []domain.Warehouse
	err        error
}

func (s *stubWarehouseRepo) ListActive(context.Context) ([]domain.Warehouse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.warehouses, nil
}

func (s *stubWarehouseRepo) FindByID(_ context.Context, id string) (domain.Warehouse, error) {
	if s.err != nil {
		return domain.Warehouse{}, s.err
	}
	for _, warehouse := range s.warehouses {
		if warehouse.ID == id {
			return warehouse, nil
		}
	}
	return domain.Warehouse{}, errors.New("warehouse not found")
}

type stubStockRepo struct {
	records []domain.StockRecord
	err     error
}

func (s *stubStockRepo) ListForVariations(_ context.Context, ids []string) ([]domain.StockRecord, error) {
	if s.err != nil {
		return nil, s.err
	}
	wanted := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		wanted[id] = struct{}{}
	}
	var out []domain.StockRecord
	for _, record := range s.records {
		if _, ok := wanted[record.VariationID]; ok {
			out = append(out, record)
		}
	}
	return out, nil
}

type stubMethodRepo struct {
	methods []domain.DeliveryMethod
	err     error
}

func (s *stubMethodRepo) ListActive(_ context.Context, fulfillment domain.FulfillmentType) ([]domain.DeliveryMethod, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out []domain.DeliveryMethod
	for _, method := range s.methods {
		if method.Fulfillment == fulfillment && method.Active {
			out = append(out, method)
		}
	}
	return out, nil
}

type stubShortfallPublisher struct {
	messages []PlanShortfallMessage
	err      error
}

func (s *stubShortfallPublisher) PublishShortfall(_ context.Context, message PlanShortfallMessage) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.messages = append(s.messages, message)
	return fmt.Sprintf("msg-%d", len(s.messages)), nil
}

var testClock = func() time.Time {
	return time.Date(2026, time.March, 10, 15, 4, 5, 0, time.UTC)
}

func testToday() time.Time {
	return time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC)
}

type plannerFixture struct {
	variations *stubVariationRepo
	warehouses *stubWarehouseRepo
	stock      *stubStockRepo
	methods    *stubMethodRepo
	events     *stubShortfallPublisher
}

func newPlannerFixture() *plannerFixture {
	return &plannerFixture{
		variations: &stubVariationRepo{attrs: map[string]domain.VariationAttributes{}},
		warehouses: &stubWarehouseRepo{},
		stock:      &stubStockRepo{},
		methods:    &stubMethodRepo{},
		events:     &stubShortfallPublisher{},
	}
}

func (f *plannerFixture) service(t *testing.T) DeliveryPlanService {
	t.Helper()
	var counter int
	svc, err := NewDeliveryPlanService(DeliveryPlanServiceDeps{
		Variations: f.variations,
		Warehouses: f.warehouses,
		Stock:      f.stock,
		Methods:    f.methods,
		Events:     f.events,
		Clock:      testClock,
		IDGenerator: func() string {
			counter++
			return fmt.Sprintf("id-%d", counter)
		},
	})
	if err != nil {
		t.Fatalf("NewDeliveryPlanService returned error: %v", err)
	}
	return svc
}

func courierMethod(id string, baseCost int64, minDays, maxDays int) domain.DeliveryMethod {
	return domain.DeliveryMethod{
		ID:          id,
		Name:        "Standard",
		BaseCost:    baseCost,
		MinDays:     minDays,
		MaxDays:     maxDays,
		Fulfillment: domain.FulfillmentCourier,
		Active:      true,
	}
}

func TestPlanDeliverySingleWarehouse(t *testing.T) {
	f := newPlannerFixture()
	f.variations.attrs["variation-a"] = domain.VariationAttributes{VariationID: "variation-a", WeightKg: 1, Price: 1000}
	f.warehouses.warehouses = []domain.Warehouse{
		{ID: "wh-1", Name: "Central", Active: true},
	}
	f.stock.records = []domain.StockRecord{
		{WarehouseID: "wh-1", VariationID: "variation-a", Quantity: 5},
	}
	f.methods.methods = []domain.DeliveryMethod{courierMethod("method-1", 200, 1, 2)}

	destination := domain.GeoPoint{Latitude: 0, Longitude: 0}
	plan, err := f.service(t).PlanDelivery(context.Background(), PlanDeliveryCommand{
		Items:       []RequestedItem{{VariationID: "variation-a", Quantity: 3}},
		Fulfillment: domain.FulfillmentCourier,
		Destination: &destination,
	})
	if err != nil {
		t.Fatalf("PlanDelivery returned error: %v", err)
	}

	if len(plan.Options) != 1 {
		t.Fatalf("expected exactly one option, got %d", len(plan.Options))
	}
	option := plan.Options[0]
	if option.TotalCost != 200 {
		t.Fatalf("expected cost 200, got %d", option.TotalCost)
	}
	if option.Kind != domain.OptionSingle {
		t.Fatalf("expected single option, got %s", option.Kind)
	}
	wantMin := testToday().AddDate(0, 0, 1)
	wantMax := testToday().AddDate(0, 0, 2)
	if !option.Window.Min.Equal(wantMin) || !option.Window.Max.Equal(wantMax) {
		t.Fatalf("expected window [%s, %s], got [%s, %s]", wantMin, wantMax, option.Window.Min, option.Window.Max)
	}
	if len(option.Parts) != 1 || option.Parts[0].WarehouseID != "wh-1" {
		t.Fatalf("expected one part from wh-1, got %+v", option.Parts)
	}
	if len(plan.Shortfalls) != 0 {
		t.Fatalf("expected no shortfalls, got %+v", plan.Shortfalls)
	}
}

func TestPlanDeliverySplitAndCombined(t *testing.T) {
	f := newPlannerFixture()
	f.variations.attrs["variation-a"] = domain.VariationAttributes{VariationID: "variation-a", WeightKg: 1, Price: 1000}
	// Both warehouses sit roughly 400 km north of the destination, so each
	// part picks up a two day transfer offset.
	f.warehouses.warehouses = []domain.Warehouse{
		{ID: "wh-1", Name: "North", Location: domain.GeoPoint{Latitude: 3.6, Longitude: 0}, Active: true},
		{ID: "wh-2", Name: "South", Location: domain.GeoPoint{Latitude: 3.6, Longitude: 0}, Active: true},
	}
	f.stock.records = []domain.StockRecord{
		{WarehouseID: "wh-1", VariationID: "variation-a", Quantity: 2},
		{WarehouseID: "wh-2", VariationID: "variation-a", Quantity: 3},
	}
	f.methods.methods = []domain.DeliveryMethod{courierMethod("method-1", 100, 1, 2)}

	destination := domain.GeoPoint{Latitude: 0, Longitude: 0}
	plan, err := f.service(t).PlanDelivery(context.Background(), PlanDeliveryCommand{
		Items:       []RequestedItem{{VariationID: "variation-a", Quantity: 5}},
		Fulfillment: domain.FulfillmentCourier,
		Destination: &destination,
	})
	if err != nil {
		t.Fatalf("PlanDelivery returned error: %v", err)
	}

	if len(plan.Options) != 2 {
		t.Fatalf("expected split and combined options, got %d", len(plan.Options))
	}

	var split, combined *DeliveryOption
	for i := range plan.Options {
		switch plan.Options[i].Kind {
		case domain.OptionSplit:
			split = &plan.Options[i]
		case domain.OptionCombined:
			combined = &plan.Options[i]
		}
	}
	if split == nil || combined == nil {
		t.Fatalf("expected both kinds, got %+v", plan.Options)
	}

	if split.TotalCost != 200 {
		t.Fatalf("expected split cost 200, got %d", split.TotalCost)
	}
	if len(split.Parts) != 2 {
		t.Fatalf("expected two split parts, got %d", len(split.Parts))
	}
	// First part: assembly 1 + distance 2 = offset 3; second adds a 2 day stagger.
	firstDate := testToday().AddDate(0, 0, 2+3)
	secondDate := testToday().AddDate(0, 0, 2+5)
	if !split.Parts[0].EstimatedDate.Equal(firstDate) {
		t.Fatalf("expected first part date %s, got %s", firstDate, split.Parts[0].EstimatedDate)
	}
	if !split.Parts[1].EstimatedDate.Equal(secondDate) {
		t.Fatalf("expected second part date %s, got %s", secondDate, split.Parts[1].EstimatedDate)
	}
	if split.Parts[0].Reason != reasonPartialFulfillment {
		t.Fatalf("expected partial fulfillment annotation on first part, got %q", split.Parts[0].Reason)
	}

	if combined.TotalCost != 100 {
		t.Fatalf("expected combined cost 100, got %d", combined.TotalCost)
	}
	if len(combined.Parts) != 1 {
		t.Fatalf("expected one consolidated part, got %d", len(combined.Parts))
	}
	if !combined.Parts[0].EstimatedDate.Equal(secondDate) {
		t.Fatalf("expected consolidated part dated %s, got %s", secondDate, combined.Parts[0].EstimatedDate)
	}
	if got := combined.Parts[0].Items; len(got) != 1 || got[0].Quantity != 5 {
		t.Fatalf("expected consolidated items qty 5, got %+v", got)
	}
	sources := combined.Parts[0].Sources
	if len(sources) != 2 {
		t.Fatalf("expected warehouse attribution for both parts, got %+v", sources)
	}
	if sources[0].WarehouseID != "wh-1" || len(sources[0].Items) != 1 || sources[0].Items[0].Quantity != 2 {
		t.Fatalf("unexpected first source %+v", sources[0])
	}
	if sources[1].WarehouseID != "wh-2" || len(sources[1].Items) != 1 || sources[1].Items[0].Quantity != 3 {
		t.Fatalf("unexpected second source %+v", sources[1])
	}
	if len(plan.Shortfalls) != 0 {
		t.Fatalf("expected no shortfalls, got %+v", plan.Shortfalls)
	}
}

func TestPlanDeliveryNilDestinationSkipsDistanceMethods(t *testing.T) {
	f := newPlannerFixture()
	f.variations.attrs["variation-a"] = domain.VariationAttributes{VariationID: "variation-a", WeightKg: 1, Price: 1000}
	f.warehouses.warehouses = []domain.Warehouse{
		{ID: "wh-1", Name: "Central", Active: true},
	}
	f.stock.records = []domain.StockRecord{
		{WarehouseID: "wh-1", VariationID: "variation-a", Quantity: 5},
	}
	zoned := courierMethod("method-zoned", 300, 1, 3)
	zoned.Conditions = []domain.DeliveryCondition{
		{Type: domain.ConditionDistance, Min: 0, Max: 500, CostModifier: 50},
	}
	f.methods.methods = []domain.DeliveryMethod{
		zoned,
		courierMethod("method-flat", 200, 1, 2),
	}

	plan, err := f.service(t).PlanDelivery(context.Background(), PlanDeliveryCommand{
		Items:       []RequestedItem{{VariationID: "variation-a", Quantity: 3}},
		Fulfillment: domain.FulfillmentCourier,
	})
	if err != nil {
		t.Fatalf("PlanDelivery returned error: %v", err)
	}

	if len(plan.Options) != 1 {
		t.Fatalf("expected only the flat method without a destination, got %+v", plan.Options)
	}
	if plan.Options[0].MethodID != "method-flat" {
		t.Fatalf("expected method-flat, got %q", plan.Options[0].MethodID)
	}
	if plan.Options[0].TotalCost != 200 {
		t.Fatalf("expected cost 200, got %d", plan.Options[0].TotalCost)
	}
}

func TestPlanDeliveryPickupCollapse(t *testing.T) {
	f := newPlannerFixture()
	f.variations.attrs["variation-a"] = domain.VariationAttributes{VariationID: "variation-a", Price: 500}
	f.warehouses.warehouses = []domain.Warehouse{
		{ID: "wh-1", Name: "Store", PickupPoint: true, Active: true},
	}
	f.stock.records = []domain.StockRecord{
		{WarehouseID: "wh-1", VariationID: "variation-a", Quantity: 4},
	}
	f.methods.methods = []domain.DeliveryMethod{{
		ID:          "pickup-1",
		Name:        "Store pickup",
		BaseCost:    0,
		MinDays:     1,
		MaxDays:     3,
		Fulfillment: domain.FulfillmentPickup,
		Active:      true,
	}}

	plan, err := f.service(t).PlanDelivery(context.Background(), PlanDeliveryCommand{
		Items:             []RequestedItem{{VariationID: "variation-a", Quantity: 2}},
		Fulfillment:       domain.FulfillmentPickup,
		PickupWarehouseID: "wh-1",
	})
	if err != nil {
		t.Fatalf("PlanDelivery returned error: %v", err)
	}
	if len(plan.Options) != 1 {
		t.Fatalf("expected one option, got %d", len(plan.Options))
	}
	window := plan.Options[0].Window
	if !window.Min.Equal(testToday()) || !window.Max.Equal(testToday()) {
		t.Fatalf("expected same-day window, got [%s, %s]", window.Min, window.Max)
	}
}

func TestPlanDeliveryPickupRequiresWarehouse(t *testing.T) {
	f := newPlannerFixture()
	_, err := f.service(t).PlanDelivery(context.Background(), PlanDeliveryCommand{
		Items:       []RequestedItem{{VariationID: "variation-a", Quantity: 1}},
		Fulfillment: domain.FulfillmentPickup,
	})
	if !errors.Is(err, ErrPlanInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestPlanDeliveryFreeShippingOverride(t *testing.T) {
	threshold := int64(5000)
	f := newPlannerFixture()
	f.variations.attrs["variation-a"] = domain.VariationAttributes{VariationID: "variation-a", WeightKg: 2, Price: 2500}
	f.warehouses.warehouses = []domain.Warehouse{{ID: "wh-1", Name: "Central", Active: true}}
	f.stock.records = []domain.StockRecord{{WarehouseID: "wh-1", VariationID: "variation-a", Quantity: 10}}
	method := courierMethod("method-1", 300, 1, 2)
	method.FreeFromAmount = &threshold
	method.Conditions = []domain.DeliveryCondition{
		{Type: domain.ConditionWeight, Min: 0, Max: 100, CostModifier: 150},
	}
	f.methods.methods = []domain.DeliveryMethod{method}

	destination := domain.GeoPoint{}
	plan, err := f.service(t).PlanDelivery(context.Background(), PlanDeliveryCommand{
		Items:       []RequestedItem{{VariationID: "variation-a", Quantity: 2}},
		Fulfillment: domain.FulfillmentCourier,
		Destination: &destination,
	})
	if err != nil {
		t.Fatalf("PlanDelivery returned error: %v", err)
	}
	if len(plan.Options) != 1 {
		t.Fatalf("expected one option, got %d", len(plan.Options))
	}
	if plan.Options[0].TotalCost != 0 {
		t.Fatalf("expected free shipping, got cost %d", plan.Options[0].TotalCost)
	}
}

func TestPlanDeliveryUnknownVariationSkipped(t *testing.T) {
	f := newPlannerFixture()
	f.variations.attrs["variation-a"] = domain.VariationAttributes{VariationID: "variation-a", Price: 1000}
	f.warehouses.warehouses = []domain.Warehouse{{ID: "wh-1", Name: "Central", Active: true}}
	f.stock.records = []domain.StockRecord{{WarehouseID: "wh-1", VariationID: "variation-a", Quantity: 5}}
	f.methods.methods = []domain.DeliveryMethod{courierMethod("method-1", 100, 1, 2)}

	destination := domain.GeoPoint{}
	plan, err := f.service(t).PlanDelivery(context.Background(), PlanDeliveryCommand{
		Items: []RequestedItem{
			{VariationID: "variation-a", Quantity: 1},
			{VariationID: "ghost", Quantity: 2},
		},
		Fulfillment: domain.FulfillmentCourier,
		Destination: &destination,
	})
	if err != nil {
		t.Fatalf("PlanDelivery returned error: %v", err)
	}
	if len(plan.SkippedItems) != 1 {
		t.Fatalf("expected one skipped item, got %+v", plan.SkippedItems)
	}
	skipped := plan.SkippedItems[0]
	if skipped.VariationID != "ghost" || skipped.Reason != skipReasonUnknownVariation {
		t.Fatalf("unexpected skipped item %+v", skipped)
	}
	if len(plan.Options) != 1 {
		t.Fatalf("expected planning to continue for resolved items, got %d options", len(plan.Options))
	}
}

func TestPlanDeliveryShortfallReportedAndPublished(t *testing.T) {
	f := newPlannerFixture()
	f.variations.attrs["variation-a"] = domain.VariationAttributes{VariationID: "variation-a", Price: 1000}
	f.warehouses.warehouses = []domain.Warehouse{{ID: "wh-1", Name: "Central", Active: true}}
	f.stock.records = []domain.StockRecord{{WarehouseID: "wh-1", VariationID: "variation-a", Quantity: 2}}
	f.methods.methods = []domain.DeliveryMethod{courierMethod("method-1", 100, 1, 2)}

	destination := domain.GeoPoint{}
	plan, err := f.service(t).PlanDelivery(context.Background(), PlanDeliveryCommand{
		Items:       []RequestedItem{{VariationID: "variation-a", Quantity: 5}},
		Fulfillment: domain.FulfillmentCourier,
		Destination: &destination,
	})
	if err != nil {
		t.Fatalf("PlanDelivery returned error: %v", err)
	}
	if len(plan.Shortfalls) != 1 {
		t.Fatalf("expected one shortfall, got %+v", plan.Shortfalls)
	}
	shortfall := plan.Shortfalls[0]
	if shortfall.Requested != 5 || shortfall.Allocated != 2 {
		t.Fatalf("unexpected shortfall %+v", shortfall)
	}
	if len(f.events.messages) != 1 {
		t.Fatalf("expected one published shortfall message, got %d", len(f.events.messages))
	}
	if f.events.messages[0].PlanID != plan.ID {
		t.Fatalf("expected message for plan %s, got %s", plan.ID, f.events.messages[0].PlanID)
	}
}

func TestPlanDeliveryNoMethodsYieldsEmptyOptions(t *testing.T) {
	f := newPlannerFixture()
	f.variations.attrs["variation-a"] = domain.VariationAttributes{VariationID: "variation-a", Price: 1000}
	f.warehouses.warehouses = []domain.Warehouse{{ID: "wh-1", Name: "Central", Active: true}}
	f.stock.records = []domain.StockRecord{{WarehouseID: "wh-1", VariationID: "variation-a", Quantity: 5}}

	destination := domain.GeoPoint{}
	plan, err := f.service(t).PlanDelivery(context.Background(), PlanDeliveryCommand{
		Items:       []RequestedItem{{VariationID: "variation-a", Quantity: 1}},
		Fulfillment: domain.FulfillmentCourier,
		Destination: &destination,
	})
	if err != nil {
		t.Fatalf("PlanDelivery returned error: %v", err)
	}
	if len(plan.Options) != 0 {
		t.Fatalf("expected no options, got %d", len(plan.Options))
	}
}

func TestPlanDeliveryInfrastructureFailure(t *testing.T) {
	f := newPlannerFixture()
	f.variations.attrs["variation-a"] = domain.VariationAttributes{VariationID: "variation-a", Price: 1000}
	f.stock.err = errors.New("datastore unreachable")

	destination := domain.GeoPoint{}
	_, err := f.service(t).PlanDelivery(context.Background(), PlanDeliveryCommand{
		Items:       []RequestedItem{{VariationID: "variation-a", Quantity: 1}},
		Fulfillment: domain.FulfillmentCourier,
		Destination: &destination,
	})
	if !errors.Is(err, ErrPlanUnavailable) {
		t.Fatalf("expected unavailable error, got %v", err)
	}
}

func TestPlanDeliveryValidatesInput(t *testing.T) {
	f := newPlannerFixture()
	svc := f.service(t)

	if _, err := svc.PlanDelivery(context.Background(), PlanDeliveryCommand{Fulfillment: domain.FulfillmentCourier}); !errors.Is(err, ErrPlanInvalidInput) {
		t.Fatalf("expected invalid input for empty items, got %v", err)
	}
	if _, err := svc.PlanDelivery(context.Background(), PlanDeliveryCommand{
		Items:       []RequestedItem{{VariationID: "variation-a", Quantity: 1}},
		Fulfillment: domain.FulfillmentType("drone"),
	}); !errors.Is(err, ErrPlanInvalidInput) {
		t.Fatalf("expected invalid input for unknown fulfillment, got %v", err)
	}
}
