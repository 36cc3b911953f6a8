package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	domain "github.com/stockroute/api/internal/domain"
	"github.com/stockroute/api/internal/services"
)

type stubPlanService struct {
	plan    services.DeliveryPlan
	err     error
	lastCmd services.PlanDeliveryCommand
}

func (s *stubPlanService) PlanDelivery(_ context.Context, cmd services.PlanDeliveryCommand) (services.DeliveryPlan, error) {
	s.lastCmd = cmd
	if s.err != nil {
		return services.DeliveryPlan{}, s.err
	}
	return s.plan, nil
}

func planRequestBody() string {
	return `{
		"items": [{"variationId": "variation-a", "quantity": 2}],
		"destination": {"fulfillmentType": "courier", "location": {"lat": 35.6, "long": 139.7}}
	}`
}

func TestPlanOptionsSuccess(t *testing.T) {
	date := time.Date(2026, time.March, 12, 0, 0, 0, 0, time.UTC)
	svc := &stubPlanService{
		plan: services.DeliveryPlan{
			ID:          "plan-1",
			Fulfillment: domain.FulfillmentCourier,
			Options: []services.DeliveryOption{{
				ID:          "option-1",
				MethodID:    "method-1",
				DisplayName: "Standard",
				Kind:        domain.OptionSingle,
				Fulfillment: domain.FulfillmentCourier,
				TotalCost:   200,
				Window:      domain.DateWindow{Min: date.AddDate(0, 0, -1), Max: date},
				Parts: []services.DeliveryPart{{
					WarehouseID:   "wh-1",
					WarehouseName: "Central",
					Items:         []domain.AllocationItem{{VariationID: "variation-a", Quantity: 2}},
					EstimatedDate: date,
					Cost:          200,
				}},
			}},
		},
	}
	handlers := NewDeliveryHandlers(svc, nil)

	req := httptest.NewRequest(http.MethodPost, "/delivery/options", strings.NewReader(planRequestBody()))
	req.Header.Set("Accept-Language", "ja")
	rr := httptest.NewRecorder()

	handlers.planOptions(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var body struct {
		PlanID  string `json:"planId"`
		Options []struct {
			MethodID string `json:"methodId"`
			Kind     string `json:"kind"`
			Window   struct {
				MinDate string `json:"minDate"`
				MaxDate string `json:"maxDate"`
			} `json:"estimatedDeliveryWindow"`
			Parts []struct {
				WarehouseID   string `json:"warehouseId"`
				EstimatedDate string `json:"estimatedDate"`
			} `json:"parts"`
		} `json:"options"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if body.PlanID != "plan-1" {
		t.Fatalf("expected plan id, got %q", body.PlanID)
	}
	if len(body.Options) != 1 || body.Options[0].MethodID != "method-1" {
		t.Fatalf("unexpected options %+v", body.Options)
	}
	if body.Options[0].Window.MinDate != "2026-03-11" || body.Options[0].Window.MaxDate != "2026-03-12" {
		t.Fatalf("unexpected window %+v", body.Options[0].Window)
	}
	if body.Options[0].Parts[0].EstimatedDate != "2026-03-12" {
		t.Fatalf("unexpected part date %q", body.Options[0].Parts[0].EstimatedDate)
	}

	if svc.lastCmd.Locale != "ja" {
		t.Fatalf("expected locale from Accept-Language, got %q", svc.lastCmd.Locale)
	}
	if svc.lastCmd.Destination == nil || svc.lastCmd.Destination.Latitude != 35.6 || svc.lastCmd.Destination.Longitude != 139.7 {
		t.Fatalf("expected destination forwarded, got %+v", svc.lastCmd.Destination)
	}
}

func TestPlanOptionsRejectsInvalidBody(t *testing.T) {
	handlers := NewDeliveryHandlers(&stubPlanService{}, nil)

	tests := []struct {
		name string
		body string
	}{
		{"empty body", ""},
		{"not json", "not-json"},
		{"no items", `{"items": [], "destination": {"fulfillmentType": "courier"}}`},
		{"no destination", `{"items": [{"variationId": "a", "quantity": 1}]}`},
		{"bad fulfillment", `{"items": [{"variationId": "a", "quantity": 1}], "destination": {"fulfillmentType": "drone"}}`},
	}
	for _, tc := range tests {
		req := httptest.NewRequest(http.MethodPost, "/delivery/options", strings.NewReader(tc.body))
		rr := httptest.NewRecorder()
		handlers.planOptions(rr, req)
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", tc.name, rr.Code)
		}
	}
}

func TestPlanOptionsTranslatesServiceErrors(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{services.ErrPlanInvalidInput, http.StatusBadRequest},
		{services.ErrPlanUnavailable, http.StatusServiceUnavailable},
	}
	for _, tc := range tests {
		handlers := NewDeliveryHandlers(&stubPlanService{err: tc.err}, nil)
		req := httptest.NewRequest(http.MethodPost, "/delivery/options", strings.NewReader(planRequestBody()))
		rr := httptest.NewRecorder()
		handlers.planOptions(rr, req)
		if rr.Code != tc.want {
			t.Fatalf("error %v: expected %d, got %d", tc.err, tc.want, rr.Code)
		}
	}
}

func TestPlanOptionsRateLimited(t *testing.T) {
	limiter := NewRequestRateLimiter(1, time.Minute, nil)
	handlers := NewDeliveryHandlers(&stubPlanService{}, limiter)

	first := httptest.NewRequest(http.MethodPost, "/delivery/options", strings.NewReader(planRequestBody()))
	first.RemoteAddr = "10.0.0.1:1234"
	rr := httptest.NewRecorder()
	handlers.planOptions(rr, first)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected first call to pass, got %d", rr.Code)
	}

	second := httptest.NewRequest(http.MethodPost, "/delivery/options", strings.NewReader(planRequestBody()))
	second.RemoteAddr = "10.0.0.1:1234"
	rr = httptest.NewRecorder()
	handlers.planOptions(rr, second)
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected rate limit rejection, got %d", rr.Code)
	}
}

func TestRouterWiresDeliveryRoutes(t *testing.T) {
	svc := &stubPlanService{plan: services.DeliveryPlan{ID: "plan-1"}}
	deliveries := NewDeliveryHandlers(svc, nil)

	router := NewRouter(WithDeliveryRoutes(deliveries.Routes))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/delivery/options", strings.NewReader(planRequestBody()))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 through the router, got %d: %s", rr.Code, rr.Body.String())
	}

	missing := httptest.NewRequest(http.MethodGet, "/api/v1/unknown", nil)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, missing)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown route, got %d", rr.Code)
	}
}
