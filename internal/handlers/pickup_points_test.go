package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	domain "github.com/stockroute/api/internal/domain"
	"github.com/stockroute/api/internal/services"
)

type stubPickupService struct {
	points    []services.PickupPoint
	err       error
	lastQuery services.ListPickupPointsQuery
}

func (s *stubPickupService) ListPickupPoints(_ context.Context, query services.ListPickupPointsQuery) ([]services.PickupPoint, error) {
	s.lastQuery = query
	if s.err != nil {
		return nil, s.err
	}
	return s.points, nil
}

func TestListPickupPointsHandler(t *testing.T) {
	distance := 12.5
	svc := &stubPickupService{
		points: []services.PickupPoint{{
			WarehouseID: "wh-1",
			Name:        "Harbor",
			Location:    domain.GeoPoint{Latitude: 35.6, Longitude: 139.7},
			DistanceKm:  &distance,
		}},
	}
	handlers := NewPickupPointHandlers(svc)

	req := httptest.NewRequest(http.MethodGet, "/delivery/pickup-points?lat=35.0&lng=139.0&limit=5", nil)
	rr := httptest.NewRecorder()
	handlers.listPickupPoints(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var body struct {
		PickupPoints []struct {
			WarehouseID string   `json:"warehouseId"`
			DistanceKm  *float64 `json:"distanceKm"`
		} `json:"pickupPoints"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if len(body.PickupPoints) != 1 || body.PickupPoints[0].WarehouseID != "wh-1" {
		t.Fatalf("unexpected payload %+v", body.PickupPoints)
	}
	if body.PickupPoints[0].DistanceKm == nil || *body.PickupPoints[0].DistanceKm != 12.5 {
		t.Fatalf("expected distance in payload, got %+v", body.PickupPoints[0].DistanceKm)
	}

	if svc.lastQuery.Origin == nil || svc.lastQuery.Origin.Latitude != 35.0 {
		t.Fatalf("expected origin forwarded, got %+v", svc.lastQuery.Origin)
	}
	if svc.lastQuery.Limit != 5 {
		t.Fatalf("expected limit forwarded, got %d", svc.lastQuery.Limit)
	}
}

func TestListPickupPointsRejectsPartialCoordinates(t *testing.T) {
	handlers := NewPickupPointHandlers(&stubPickupService{})

	req := httptest.NewRequest(http.MethodGet, "/delivery/pickup-points?lat=35.0", nil)
	rr := httptest.NewRecorder()
	handlers.listPickupPoints(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for lat without lng, got %d", rr.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/delivery/pickup-points?lat=abc&lng=139.0", nil)
	rr = httptest.NewRecorder()
	handlers.listPickupPoints(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed lat, got %d", rr.Code)
	}
}

func TestListPickupPointsServiceUnavailable(t *testing.T) {
	handlers := NewPickupPointHandlers(&stubPickupService{err: services.ErrPickupUnavailable})

	req := httptest.NewRequest(http.MethodGet, "/delivery/pickup-points", nil)
	rr := httptest.NewRecorder()
	handlers.listPickupPoints(rr, req)
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}
}
