package services

import (
	"sort"
	"strings"

	"golang.org/x/text/language"

	domain "github.com/stockroute/api/internal/domain"
	"github.com/stockroute/api/internal/platform/geo"
)

// planMeasures carries the order-level quantities delivery conditions range over.
type planMeasures struct {
	weightKg  float64
	volumeCm3 float64
	amount    int64
}

// evaluateMethodCost gates a delivery method against the order measures and
// returns its cost when applicable. Conditions are AND-ed: any measured value
// outside its inclusive [min, max] range disqualifies the method. Satisfied
// conditions accumulate their cost modifiers on top of the base cost, and a
// configured free-shipping threshold forces the cost to zero for orders at or
// above it. Distance conditions measure destination to the method's zone
// reference point and require a courier destination; without one the method is
// excluded rather than evaluated on a guess.
func evaluateMethodCost(method domain.DeliveryMethod, measures planMeasures, destination *domain.GeoPoint, distanceEligible bool) (int64, bool) {
	cost := method.BaseCost

	for _, condition := range method.Conditions {
		var measured float64
		switch condition.Type {
		case domain.ConditionWeight:
			measured = measures.weightKg
		case domain.ConditionVolume:
			measured = measures.volumeCm3
		case domain.ConditionOrderAmount:
			measured = float64(measures.amount)
		case domain.ConditionDistance:
			if !distanceEligible || destination == nil {
				return 0, false
			}
			measured = geo.DistanceKm(destination.Latitude, destination.Longitude, method.Zone.Latitude, method.Zone.Longitude)
		default:
			return 0, false
		}

		if measured < condition.Min || measured > condition.Max {
			return 0, false
		}
		cost += condition.CostModifier
	}

	if method.FreeFromAmount != nil && measures.amount >= *method.FreeFromAmount {
		return 0, true
	}
	return cost, true
}

// localizedMethodName resolves the display name for a delivery method against
// the caller's locale using BCP 47 matching, falling back to the default name.
func localizedMethodName(method domain.DeliveryMethod, locale string) string {
	locale = strings.TrimSpace(locale)
	if locale == "" || len(method.Names) == 0 {
		return method.Name
	}

	desired, err := language.Parse(locale)
	if err != nil {
		return method.Name
	}

	candidates := make([]string, 0, len(method.Names))
	for tag := range method.Names {
		candidates = append(candidates, tag)
	}
	sort.Strings(candidates)

	supported := make([]language.Tag, 0, len(candidates)+1)
	supported = append(supported, language.Und)
	keys := make([]string, 0, len(candidates)+1)
	keys = append(keys, "")
	for _, raw := range candidates {
		tag, parseErr := language.Parse(raw)
		if parseErr != nil {
			continue
		}
		supported = append(supported, tag)
		keys = append(keys, raw)
	}
	if len(supported) == 1 {
		return method.Name
	}

	matcher := language.NewMatcher(supported)
	_, index, confidence := matcher.Match(desired)
	if index <= 0 || index >= len(keys) || confidence == language.No {
		return method.Name
	}
	if name := strings.TrimSpace(method.Names[keys[index]]); name != "" {
		return name
	}
	return method.Name
}
