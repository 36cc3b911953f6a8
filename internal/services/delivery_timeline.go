package services

import (
	"math"
	"time"

	domain "github.com/stockroute/api/internal/domain"
	"github.com/stockroute/api/internal/platform/geo"
)

// TimelineSettings tunes delivery date estimation. Zero values fall back to
// the defaults used in production configuration.
type TimelineSettings struct {
	AssemblyOffsetDays int
	DistanceDivisorKm  int
	PartStaggerDays    int
}

func (s TimelineSettings) withDefaults() TimelineSettings {
	if s.AssemblyOffsetDays <= 0 {
		s.AssemblyOffsetDays = 1
	}
	if s.DistanceDivisorKm <= 0 {
		s.DistanceDivisorKm = 300
	}
	if s.PartStaggerDays <= 0 {
		s.PartStaggerDays = 2
	}
	return s
}

// distanceOffsetDays converts warehouse-to-destination distance into whole
// transfer days, rounding up. Unknown or zero distance contributes nothing.
func (s TimelineSettings) distanceOffsetDays(distanceKm float64) int {
	if distanceKm <= 0 {
		return 0
	}
	return int(math.Ceil(distanceKm / float64(s.DistanceDivisorKm)))
}

// partOffsetDays is the extra lead applied to a multi-warehouse part: one
// assembly day, the distance-derived transfer days, and a serial-handling
// stagger that grows with the part's position.
func (s TimelineSettings) partOffsetDays(distanceKm float64, partIndex int) int {
	offset := s.AssemblyOffsetDays + s.distanceOffsetDays(distanceKm)
	if partIndex > 0 {
		offset += s.PartStaggerDays * partIndex
	}
	return offset
}

// midnightUTC truncates a timestamp to its calendar date in UTC.
func midnightUTC(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func addDays(date time.Time, days int) time.Time {
	return date.AddDate(0, 0, days)
}

// singleWindow is the delivery window for an order shipped whole from one
// warehouse. Pickup orders fully stocked at the pickup warehouse collapse to
// same-day handover.
func singleWindow(today time.Time, method domain.DeliveryMethod, collapse bool) domain.DateWindow {
	if collapse {
		return domain.DateWindow{Min: today, Max: today}
	}
	return domain.DateWindow{
		Min: addDays(today, method.MinDays),
		Max: addDays(today, method.MaxDays),
	}
}

// partWindow shifts the method's base window by the part's offset.
func partWindow(today time.Time, method domain.DeliveryMethod, offsetDays int) domain.DateWindow {
	return domain.DateWindow{
		Min: addDays(today, method.MinDays+offsetDays),
		Max: addDays(today, method.MaxDays+offsetDays),
	}
}

// warehouseDistanceKm measures warehouse to destination, reporting false when
// the destination is unknown.
func warehouseDistanceKm(warehouse domain.Warehouse, destination *domain.GeoPoint) (float64, bool) {
	if destination == nil {
		return 0, false
	}
	return geo.DistanceKm(
		warehouse.Location.Latitude, warehouse.Location.Longitude,
		destination.Latitude, destination.Longitude,
	), true
}
