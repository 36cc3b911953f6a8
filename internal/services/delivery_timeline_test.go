package services

import (
	"testing"
	"time"

	domain "github.com/stockroute/api/internal/domain"
)

func TestDistanceOffsetDays(t *testing.T) {
	settings := TimelineSettings{}.withDefaults()

	tests := []struct {
		distanceKm float64
		want       int
	}{
		{0, 0},
		{-5, 0},
		{1, 1},
		{300, 1},
		{300.5, 2},
		{400, 2},
		{900, 3},
	}
	for _, tc := range tests {
		if got := settings.distanceOffsetDays(tc.distanceKm); got != tc.want {
			t.Fatalf("distance %v: expected %d days, got %d", tc.distanceKm, tc.want, got)
		}
	}
}

func TestDistanceOffsetMonotonic(t *testing.T) {
	settings := TimelineSettings{}.withDefaults()
	previous := 0
	for km := 0.0; km <= 3000; km += 50 {
		offset := settings.distanceOffsetDays(km)
		if offset < previous {
			t.Fatalf("offset decreased at %v km: %d -> %d", km, previous, offset)
		}
		previous = offset
	}
}

func TestPartOffsetDaysStagger(t *testing.T) {
	settings := TimelineSettings{}.withDefaults()

	if got := settings.partOffsetDays(0, 0); got != 1 {
		t.Fatalf("expected assembly-only offset 1, got %d", got)
	}
	if got := settings.partOffsetDays(400, 0); got != 3 {
		t.Fatalf("expected 3 for first part at 400 km, got %d", got)
	}
	if got := settings.partOffsetDays(400, 1); got != 5 {
		t.Fatalf("expected 5 for second part at 400 km, got %d", got)
	}
	if got := settings.partOffsetDays(400, 2); got != 7 {
		t.Fatalf("expected 7 for third part at 400 km, got %d", got)
	}
}

func TestSingleWindow(t *testing.T) {
	today := time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC)
	method := domain.DeliveryMethod{MinDays: 1, MaxDays: 3}

	window := singleWindow(today, method, false)
	if !window.Min.Equal(today.AddDate(0, 0, 1)) || !window.Max.Equal(today.AddDate(0, 0, 3)) {
		t.Fatalf("unexpected window [%s, %s]", window.Min, window.Max)
	}

	collapsed := singleWindow(today, method, true)
	if !collapsed.Min.Equal(today) || !collapsed.Max.Equal(today) {
		t.Fatalf("expected collapsed window, got [%s, %s]", collapsed.Min, collapsed.Max)
	}
}

func TestMidnightUTC(t *testing.T) {
	stamp := time.Date(2026, time.March, 10, 23, 59, 59, 0, time.FixedZone("JST", 9*3600))
	got := midnightUTC(stamp)
	want := time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("expected %s, got %s", want, got)
	}
}
