package domain

import (
	"time"
)

// FulfillmentType distinguishes courier delivery to an address from pickup at a warehouse.
type FulfillmentType string

const (
	// FulfillmentCourier delivers the order to a customer address.
	FulfillmentCourier FulfillmentType = "courier"
	// FulfillmentPickup hands the order over at a warehouse or store pickup point.
	FulfillmentPickup FulfillmentType = "pickup"
)

// Valid reports whether the fulfillment type is one of the supported values.
func (f FulfillmentType) Valid() bool {
	return f == FulfillmentCourier || f == FulfillmentPickup
}

// GeoPoint is a WGS84 coordinate pair in degrees.
type GeoPoint struct {
	Latitude  float64
	Longitude float64
}

// RequestedItem is a single cart line submitted to the planner.
type RequestedItem struct {
	VariationID string
	Quantity    int
}

// VariationAttributes carries the physical and monetary attributes of a product
// variation needed for delivery pricing. Price is the unit price net of the
// variation's own discount, in minor currency units.
type VariationAttributes struct {
	VariationID string
	WeightKg    float64
	VolumeCm3   float64
	LengthCm    float64
	WidthCm     float64
	HeightCm    float64
	Price       int64
}

// EffectiveVolume returns the declared volume, falling back to the bounding box
// computed from the variation dimensions when no volume is recorded.
func (v VariationAttributes) EffectiveVolume() float64 {
	if v.VolumeCm3 > 0 {
		return v.VolumeCm3
	}
	return v.LengthCm * v.WidthCm * v.HeightCm
}

// Warehouse describes a stock location from the warehouse directory.
type Warehouse struct {
	ID          string
	Name        string
	Location    GeoPoint
	PickupPoint bool
	Active      bool
}

// StockRecord is one warehouse/variation quantity-on-hand pair from the
// inventory store.
type StockRecord struct {
	WarehouseID string
	VariationID string
	Quantity    int
}

// WarehouseStock groups a warehouse with its available quantities for the
// requested variations. Built fresh per planning call and never mutated.
type WarehouseStock struct {
	Warehouse  Warehouse
	Quantities map[string]int
}

// Covers reports whether this warehouse alone can satisfy every requested line.
func (w WarehouseStock) Covers(requested map[string]int) bool {
	for variationID, qty := range requested {
		if w.Quantities[variationID] < qty {
			return false
		}
	}
	return true
}

// ConditionType enumerates the measured values a delivery condition ranges over.
type ConditionType string

const (
	// ConditionWeight ranges over the total shipment weight in kilograms.
	ConditionWeight ConditionType = "weight"
	// ConditionVolume ranges over the total shipment volume in cubic centimetres.
	ConditionVolume ConditionType = "volume"
	// ConditionDistance ranges over the haversine distance in kilometres from the
	// destination to the method's zone reference point.
	ConditionDistance ConditionType = "distance"
	// ConditionOrderAmount ranges over the order total in minor currency units.
	ConditionOrderAmount ConditionType = "orderAmount"
)

// DeliveryCondition is an inclusive numeric range gate with a cost modifier.
// A measured value outside [Min, Max] disqualifies the whole method; a value
// inside adds CostModifier to the method cost.
type DeliveryCondition struct {
	Type         ConditionType
	Min          float64
	Max          float64
	CostModifier int64
}

// DeliveryMethod is a configured delivery product from the method catalog.
// Names maps BCP 47 locale tags to localized display names; Name is the
// default. FreeFromAmount, when set, forces the cost to zero for orders at or
// above the threshold.
type DeliveryMethod struct {
	ID             string
	Name           string
	Names          map[string]string
	BaseCost       int64
	MinDays        int
	MaxDays        int
	Fulfillment    FulfillmentType
	Zone           GeoPoint
	ZoneName       string
	Conditions     []DeliveryCondition
	FreeFromAmount *int64
	Active         bool
}

// HasDistanceCondition reports whether any condition requires a destination
// coordinate to evaluate.
func (m DeliveryMethod) HasDistanceCondition() bool {
	for _, c := range m.Conditions {
		if c.Type == ConditionDistance {
			return true
		}
	}
	return false
}

// AllocationItem is a variation/quantity pair assigned to a shipment part.
type AllocationItem struct {
	VariationID string
	Quantity    int
}

// AllocationPart is a warehouse-scoped sub-shipment produced by the allocator.
// Reason carries an optional human-readable annotation such as "partial fulfillment".
type AllocationPart struct {
	WarehouseID   string
	WarehouseName string
	Items         []AllocationItem
	Reason        string
}

// DateWindow is an inclusive calendar date range. Both bounds are midnight UTC.
type DateWindow struct {
	Min time.Time
	Max time.Time
}

// OptionKind labels how a delivery option ships the order.
type OptionKind string

const (
	// OptionSingle ships everything from one warehouse in one shipment.
	OptionSingle OptionKind = "single"
	// OptionSplit ships each warehouse part independently as it becomes ready.
	OptionSplit OptionKind = "split"
	// OptionCombined consolidates all parts and ships once the slowest is ready.
	OptionCombined OptionKind = "combined"
)

// DeliveryPart is an allocation part augmented with its per-shipment cost and
// estimated delivery date. A consolidated part keeps Sources so the order
// commit step can still derive per-warehouse pick tasks from one shipment.
type DeliveryPart struct {
	WarehouseID   string
	WarehouseName string
	Items         []AllocationItem
	EstimatedDate time.Time
	Cost          int64
	Reason        string
	Sources       []PartSource
}

// PartSource attributes a slice of a consolidated shipment to the warehouse
// that assembles it.
type PartSource struct {
	WarehouseID   string
	WarehouseName string
	Items         []AllocationItem
}

// DeliveryOption is one priced, dated delivery choice surfaced to checkout.
type DeliveryOption struct {
	ID          string
	MethodID    string
	DisplayName string
	Kind        OptionKind
	Fulfillment FulfillmentType
	TotalCost   int64
	Window      DateWindow
	Parts       []DeliveryPart
}

// SkippedItem records a requested variation the planner could not resolve and
// therefore excluded from cost and weight accumulation.
type SkippedItem struct {
	VariationID string
	Quantity    int
	Reason      string
}

// Shortfall records a variation whose cross-warehouse stock could not cover the
// requested quantity.
type Shortfall struct {
	VariationID string
	Requested   int
	Allocated   int
}

// DeliveryPlan is the planner's response: a ranked option list plus the
// diagnostics callers need to distinguish "no methods" from "no stock".
type DeliveryPlan struct {
	ID           string
	GeneratedAt  time.Time
	Fulfillment  FulfillmentType
	Options      []DeliveryOption
	SkippedItems []SkippedItem
	Shortfalls   []Shortfall
}

// PickupPoint is a warehouse surfaced as a customer-facing pickup destination.
type PickupPoint struct {
	WarehouseID string
	Name        string
	Location    GeoPoint
	DistanceKm  *float64
}

const (
	// HealthStatusOK indicates all dependencies are healthy.
	HealthStatusOK = "ok"
	// HealthStatusDegraded indicates at least one dependency is degraded but service remains running.
	HealthStatusDegraded = "degraded"
	// HealthStatusError indicates the service or a critical dependency is unavailable.
	HealthStatusError = "error"
)

// SystemHealthCheck describes the outcome of an individual dependency probe.
type SystemHealthCheck struct {
	Status    string
	Detail    string
	Error     string
	Latency   time.Duration
	CheckedAt time.Time
}

// SystemHealthReport aggregates dependency status for health endpoints.
type SystemHealthReport struct {
	Status      string
	Checks      map[string]SystemHealthCheck
	Version     string
	Environment string
	Uptime      time.Duration
	GeneratedAt time.Time
}
