package services

import (
	"context"
	"time"

	domain "github.com/stockroute/api/internal/domain"
)

// Type aliases keep handler signatures in domain vocabulary.
type (
	// FulfillmentType aliases domain.FulfillmentType.
	FulfillmentType = domain.FulfillmentType
	// GeoPoint aliases domain.GeoPoint.
	GeoPoint = domain.GeoPoint
	// RequestedItem aliases domain.RequestedItem.
	RequestedItem = domain.RequestedItem
	// DeliveryPlan aliases domain.DeliveryPlan.
	DeliveryPlan = domain.DeliveryPlan
	// DeliveryOption aliases domain.DeliveryOption.
	DeliveryOption = domain.DeliveryOption
	// DeliveryPart aliases domain.DeliveryPart.
	DeliveryPart = domain.DeliveryPart
	// PickupPoint aliases domain.PickupPoint.
	PickupPoint = domain.PickupPoint
	// SystemHealthReport aliases domain.SystemHealthReport.
	SystemHealthReport = domain.SystemHealthReport
)

// PlanDeliveryCommand captures a single planning request.
type PlanDeliveryCommand struct {
	Items             []RequestedItem
	Fulfillment       FulfillmentType
	Destination       *GeoPoint
	PickupWarehouseID string
	Locale            string
}

// ListPickupPointsQuery filters and sorts the pickup point listing. Origin, when
// set, enables distance computation and nearest-first ordering.
type ListPickupPointsQuery struct {
	Origin *GeoPoint
	Limit  int
}

// DeliveryPlanService computes delivery options for a set of requested items.
type DeliveryPlanService interface {
	PlanDelivery(ctx context.Context, cmd PlanDeliveryCommand) (DeliveryPlan, error)
}

// PickupPointService lists warehouses that accept customer pickup.
type PickupPointService interface {
	ListPickupPoints(ctx context.Context, query ListPickupPointsQuery) ([]PickupPoint, error)
}

// HealthService aggregates dependency probes for readiness endpoints.
type HealthService interface {
	Check(ctx context.Context) (SystemHealthReport, error)
}

// PlanShortfallMessage is the payload emitted when a plan could not cover the
// requested quantities from available stock.
type PlanShortfallMessage struct {
	PlanID      string             `json:"planId"`
	Fulfillment string             `json:"fulfillment"`
	Shortfalls  []domain.Shortfall `json:"shortfalls"`
	OccurredAt  time.Time          `json:"occurredAt"`
}

// PlanEventPublisher emits planning diagnostics to interested consumers.
// Publishing is best effort; failures never affect the plan response.
type PlanEventPublisher interface {
	PublishShortfall(ctx context.Context, message PlanShortfallMessage) (string, error)
}
