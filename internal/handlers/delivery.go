package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	domain "github.com/stockroute/api/internal/domain"
	"github.com/stockroute/api/internal/platform/httpx"
	"github.com/stockroute/api/internal/services"
)

const (
	maxPlanBodySize = 32 * 1024
	dateLayout      = "2006-01-02"
)

// DeliveryHandlers exposes the delivery option planning endpoint.
type DeliveryHandlers struct {
	plans   services.DeliveryPlanService
	limiter RateLimiter
}

// NewDeliveryHandlers constructs handlers invoking the delivery planner.
func NewDeliveryHandlers(plans services.DeliveryPlanService, limiter RateLimiter) *DeliveryHandlers {
	return &DeliveryHandlers{
		plans:   plans,
		limiter: limiter,
	}
}

// Routes wires the /delivery endpoints onto the provided router.
func (h *DeliveryHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Post("/options", h.planOptions)
}

func (h *DeliveryHandlers) planOptions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.plans == nil {
		httpx.WriteError(ctx, w, httpx.NewError("delivery_service_unavailable", "delivery planning is unavailable", http.StatusServiceUnavailable))
		return
	}
	if h.limiter != nil && !h.limiter.Allow(clientKey(r)) {
		httpx.WriteError(ctx, w, httpx.NewError("rate_limited", "too many planning requests", http.StatusTooManyRequests))
		return
	}

	body, err := readLimitedBody(r, maxPlanBodySize)
	if err != nil {
		switch {
		case errors.Is(err, errBodyTooLarge):
			httpx.WriteError(ctx, w, httpx.NewError("payload_too_large", "request body exceeds allowed size", http.StatusRequestEntityTooLarge))
		default:
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		}
		return
	}

	var req deliveryPlanRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "request body must be valid JSON", http.StatusBadRequest))
		return
	}

	cmd, err := req.toCommand()
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}
	cmd.Locale = strings.TrimSpace(r.Header.Get("Accept-Language"))

	plan, err := h.plans.PlanDelivery(ctx, cmd)
	if err != nil {
		h.writePlanError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, buildPlanPayload(plan))
}

func (h *DeliveryHandlers) writePlanError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrPlanInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrPlanUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("delivery_service_unavailable", "delivery planning is unavailable", http.StatusServiceUnavailable))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("delivery_error", "failed to plan delivery", http.StatusInternalServerError))
	}
}

type deliveryPlanRequest struct {
	Items       []deliveryPlanItem       `json:"items"`
	Destination *deliveryPlanDestination `json:"destination"`
}

type deliveryPlanItem struct {
	VariationID string `json:"variationId"`
	Quantity    int    `json:"quantity"`
}

type deliveryPlanDestination struct {
	FulfillmentType string            `json:"fulfillmentType"`
	Location        *locationPayload  `json:"location,omitempty"`
	WarehouseID     string            `json:"warehouseId,omitempty"`
}

type locationPayload struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"long"`
}

func (r deliveryPlanRequest) toCommand() (services.PlanDeliveryCommand, error) {
	if len(r.Items) == 0 {
		return services.PlanDeliveryCommand{}, errors.New("items are required")
	}
	if r.Destination == nil {
		return services.PlanDeliveryCommand{}, errors.New("destination is required")
	}

	fulfillment := domain.FulfillmentType(strings.ToLower(strings.TrimSpace(r.Destination.FulfillmentType)))
	if !fulfillment.Valid() {
		return services.PlanDeliveryCommand{}, fmt.Errorf("unknown fulfillment type %q", r.Destination.FulfillmentType)
	}

	cmd := services.PlanDeliveryCommand{
		Fulfillment:       fulfillment,
		PickupWarehouseID: strings.TrimSpace(r.Destination.WarehouseID),
	}
	if r.Destination.Location != nil {
		cmd.Destination = &domain.GeoPoint{
			Latitude:  r.Destination.Location.Latitude,
			Longitude: r.Destination.Location.Longitude,
		}
	}

	cmd.Items = make([]services.RequestedItem, 0, len(r.Items))
	for _, item := range r.Items {
		cmd.Items = append(cmd.Items, services.RequestedItem{
			VariationID: strings.TrimSpace(item.VariationID),
			Quantity:    item.Quantity,
		})
	}
	return cmd, nil
}

type planResponse struct {
	PlanID       string             `json:"planId"`
	Fulfillment  string             `json:"fulfillment"`
	Options      []optionPayload    `json:"options"`
	SkippedItems []skippedPayload   `json:"skippedItems,omitempty"`
	Shortfalls   []shortfallPayload `json:"shortfalls,omitempty"`
}

type optionPayload struct {
	ID          string        `json:"id"`
	MethodID    string        `json:"methodId"`
	DisplayName string        `json:"displayName"`
	Kind        string        `json:"kind"`
	TotalCost   int64         `json:"totalCost"`
	Window      windowPayload `json:"estimatedDeliveryWindow"`
	Parts       []partPayload `json:"parts"`
}

type windowPayload struct {
	MinDate string `json:"minDate"`
	MaxDate string `json:"maxDate"`
}

type partPayload struct {
	WarehouseID   string          `json:"warehouseId,omitempty"`
	WarehouseName string          `json:"warehouseName,omitempty"`
	Items         []itemPayload   `json:"items"`
	EstimatedDate string          `json:"estimatedDate"`
	Cost          int64           `json:"cost"`
	Reason        string          `json:"reason,omitempty"`
	Sources       []sourcePayload `json:"sources,omitempty"`
}

type sourcePayload struct {
	WarehouseID   string        `json:"warehouseId"`
	WarehouseName string        `json:"warehouseName,omitempty"`
	Items         []itemPayload `json:"items"`
}

type itemPayload struct {
	VariationID string `json:"variationId"`
	Quantity    int    `json:"quantity"`
}

type skippedPayload struct {
	VariationID string `json:"variationId"`
	Quantity    int    `json:"quantity"`
	Reason      string `json:"reason"`
}

type shortfallPayload struct {
	VariationID string `json:"variationId"`
	Requested   int    `json:"requested"`
	Allocated   int    `json:"allocated"`
}

func buildPlanPayload(plan services.DeliveryPlan) planResponse {
	resp := planResponse{
		PlanID:      plan.ID,
		Fulfillment: string(plan.Fulfillment),
		Options:     make([]optionPayload, 0, len(plan.Options)),
	}
	for _, option := range plan.Options {
		resp.Options = append(resp.Options, buildOptionPayload(option))
	}
	for _, skipped := range plan.SkippedItems {
		resp.SkippedItems = append(resp.SkippedItems, skippedPayload{
			VariationID: skipped.VariationID,
			Quantity:    skipped.Quantity,
			Reason:      skipped.Reason,
		})
	}
	for _, shortfall := range plan.Shortfalls {
		resp.Shortfalls = append(resp.Shortfalls, shortfallPayload{
			VariationID: shortfall.VariationID,
			Requested:   shortfall.Requested,
			Allocated:   shortfall.Allocated,
		})
	}
	return resp
}

func buildOptionPayload(option services.DeliveryOption) optionPayload {
	payload := optionPayload{
		ID:          option.ID,
		MethodID:    option.MethodID,
		DisplayName: option.DisplayName,
		Kind:        string(option.Kind),
		TotalCost:   option.TotalCost,
		Window: windowPayload{
			MinDate: formatDate(option.Window.Min),
			MaxDate: formatDate(option.Window.Max),
		},
		Parts: make([]partPayload, 0, len(option.Parts)),
	}
	for _, part := range option.Parts {
		items := make([]itemPayload, 0, len(part.Items))
		for _, item := range part.Items {
			items = append(items, itemPayload{VariationID: item.VariationID, Quantity: item.Quantity})
		}
		var sources []sourcePayload
		for _, source := range part.Sources {
			sourceItems := make([]itemPayload, 0, len(source.Items))
			for _, item := range source.Items {
				sourceItems = append(sourceItems, itemPayload{VariationID: item.VariationID, Quantity: item.Quantity})
			}
			sources = append(sources, sourcePayload{
				WarehouseID:   source.WarehouseID,
				WarehouseName: source.WarehouseName,
				Items:         sourceItems,
			})
		}
		payload.Parts = append(payload.Parts, partPayload{
			WarehouseID:   part.WarehouseID,
			WarehouseName: part.WarehouseName,
			Items:         items,
			EstimatedDate: formatDate(part.EstimatedDate),
			Cost:          part.Cost,
			Reason:        part.Reason,
			Sources:       sources,
		})
	}
	return payload
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateLayout)
}
