package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	domain "github.com/stockroute/api/internal/domain"
	"github.com/stockroute/api/internal/platform/httpx"
	"github.com/stockroute/api/internal/services"
)

// PickupPointHandlers exposes the pickup point directory endpoint.
type PickupPointHandlers struct {
	points services.PickupPointService
}

// NewPickupPointHandlers constructs handlers invoking the pickup point service.
func NewPickupPointHandlers(points services.PickupPointService) *PickupPointHandlers {
	return &PickupPointHandlers{points: points}
}

// Routes wires the /pickup-points endpoints onto the provided router.
func (h *PickupPointHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/pickup-points", h.listPickupPoints)
}

func (h *PickupPointHandlers) listPickupPoints(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.points == nil {
		httpx.WriteError(ctx, w, httpx.NewError("pickup_service_unavailable", "pickup point listing is unavailable", http.StatusServiceUnavailable))
		return
	}

	query := services.ListPickupPointsQuery{}

	latRaw := strings.TrimSpace(r.URL.Query().Get("lat"))
	lngRaw := strings.TrimSpace(r.URL.Query().Get("lng"))
	if (latRaw == "") != (lngRaw == "") {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "lat and lng must be provided together", http.StatusBadRequest))
		return
	}
	if latRaw != "" {
		lat, latErr := strconv.ParseFloat(latRaw, 64)
		lng, lngErr := strconv.ParseFloat(lngRaw, 64)
		if latErr != nil || lngErr != nil {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "lat and lng must be numeric", http.StatusBadRequest))
			return
		}
		query.Origin = &domain.GeoPoint{Latitude: lat, Longitude: lng}
	}

	if limitRaw := strings.TrimSpace(r.URL.Query().Get("limit")); limitRaw != "" {
		limit, err := strconv.Atoi(limitRaw)
		if err != nil || limit < 0 {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "limit must be a non-negative integer", http.StatusBadRequest))
			return
		}
		query.Limit = limit
	}

	points, err := h.points.ListPickupPoints(ctx, query)
	if err != nil {
		h.writePickupError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, buildPickupPointsPayload(points))
}

func (h *PickupPointHandlers) writePickupError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrPickupInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrPickupUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("pickup_service_unavailable", "pickup point listing is unavailable", http.StatusServiceUnavailable))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("pickup_error", "failed to list pickup points", http.StatusInternalServerError))
	}
}

type pickupPointsResponse struct {
	PickupPoints []pickupPointPayload `json:"pickupPoints"`
}

type pickupPointPayload struct {
	WarehouseID string   `json:"warehouseId"`
	Name        string   `json:"name"`
	Location    location `json:"location"`
	DistanceKm  *float64 `json:"distanceKm,omitempty"`
}

type location struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lng"`
}

func buildPickupPointsPayload(points []services.PickupPoint) pickupPointsResponse {
	resp := pickupPointsResponse{PickupPoints: make([]pickupPointPayload, 0, len(points))}
	for _, point := range points {
		resp.PickupPoints = append(resp.PickupPoints, pickupPointPayload{
			WarehouseID: point.WarehouseID,
			Name:        point.Name,
			Location: location{
				Latitude:  point.Location.Latitude,
				Longitude: point.Location.Longitude,
			},
			DistanceKm: point.DistanceKm,
		})
	}
	return resp
}
