package firestore

import (
	"context"
	"errors"
	"sort"
	"strings"

	"cloud.google.com/go/firestore"

	domain "github.com/stockroute/api/internal/domain"
	pfirestore "github.com/stockroute/api/internal/platform/firestore"
	"github.com/stockroute/api/internal/repositories"
)

const deliveryMethodCollection = "deliveryMethods"

// DeliveryMethodRepository reads delivery method configuration from Firestore.
type DeliveryMethodRepository struct {
	base *pfirestore.BaseRepository[deliveryMethodDocument]
}

// NewDeliveryMethodRepository constructs a Firestore-backed delivery method repository.
func NewDeliveryMethodRepository(provider *pfirestore.Provider) (*DeliveryMethodRepository, error) {
	if provider == nil {
		return nil, errors.New("delivery method repository requires firestore provider")
	}
	return &DeliveryMethodRepository{
		base: pfirestore.NewBaseRepository[deliveryMethodDocument](provider, deliveryMethodCollection, nil),
	}, nil
}

// ListActive returns active delivery methods for the given fulfillment type
// sorted by id for deterministic option ordering.
func (r *DeliveryMethodRepository) ListActive(ctx context.Context, fulfillment domain.FulfillmentType) ([]domain.DeliveryMethod, error) {
	if r == nil || r.base == nil {
		return nil, errors.New("delivery method repository not initialised")
	}
	if !fulfillment.Valid() {
		return nil, errors.New("delivery method repository: unknown fulfillment type")
	}

	docs, err := r.base.Query(ctx, func(query firestore.Query) firestore.Query {
		return query.
			Where("active", "==", true).
			Where("fulfillment", "==", string(fulfillment))
	})
	if err != nil {
		return nil, err
	}

	methods := make([]domain.DeliveryMethod, 0, len(docs))
	for _, doc := range docs {
		method, err := doc.Data.toDomain(doc.ID)
		if err != nil {
			// Methods with malformed conditions are skipped rather than
			// failing the whole listing.
			continue
		}
		methods = append(methods, method)
	}
	sort.Slice(methods, func(i, j int) bool {
		return methods[i].ID < methods[j].ID
	})
	return methods, nil
}

type deliveryMethodDocument struct {
	Name           string                       `firestore:"name"`
	Names          map[string]string            `firestore:"names,omitempty"`
	BaseCost       int64                        `firestore:"baseCost"`
	MinDays        int                          `firestore:"minDays"`
	MaxDays        int                          `firestore:"maxDays"`
	Fulfillment    string                       `firestore:"fulfillment"`
	Zone           geoPointDocument             `firestore:"zone,omitempty"`
	ZoneName       string                       `firestore:"zoneName,omitempty"`
	Conditions     []deliveryConditionDocument  `firestore:"conditions,omitempty"`
	FreeFromAmount *int64                       `firestore:"freeFromAmount,omitempty"`
	Active         bool                         `firestore:"active"`
}

type deliveryConditionDocument struct {
	Type         string  `firestore:"type"`
	Min          float64 `firestore:"min"`
	Max          float64 `firestore:"max"`
	CostModifier int64   `firestore:"costModifier"`
}

func (d deliveryMethodDocument) toDomain(id string) (domain.DeliveryMethod, error) {
	fulfillment := domain.FulfillmentType(strings.TrimSpace(d.Fulfillment))
	if !fulfillment.Valid() {
		return domain.DeliveryMethod{}, errors.New("delivery method: unknown fulfillment type")
	}

	conditions := make([]domain.DeliveryCondition, 0, len(d.Conditions))
	for _, cond := range d.Conditions {
		condType := domain.ConditionType(strings.TrimSpace(cond.Type))
		switch condType {
		case domain.ConditionWeight, domain.ConditionVolume, domain.ConditionDistance, domain.ConditionOrderAmount:
		default:
			return domain.DeliveryMethod{}, errors.New("delivery method: unknown condition type")
		}
		conditions = append(conditions, domain.DeliveryCondition{
			Type:         condType,
			Min:          cond.Min,
			Max:          cond.Max,
			CostModifier: cond.CostModifier,
		})
	}

	return domain.DeliveryMethod{
		ID:             id,
		Name:           strings.TrimSpace(d.Name),
		Names:          d.Names,
		BaseCost:       d.BaseCost,
		MinDays:        d.MinDays,
		MaxDays:        d.MaxDays,
		Fulfillment:    fulfillment,
		Zone: domain.GeoPoint{
			Latitude:  d.Zone.Latitude,
			Longitude: d.Zone.Longitude,
		},
		ZoneName: strings.TrimSpace(d.ZoneName),
		Conditions:     conditions,
		FreeFromAmount: d.FreeFromAmount,
		Active:         d.Active,
	}, nil
}

// Ensure interface compliance.
var _ repositories.DeliveryMethodRepository = (*DeliveryMethodRepository)(nil)
