package firestore

import (
	"context"
	"errors"
	"strings"

	"cloud.google.com/go/firestore"

	domain "github.com/stockroute/api/internal/domain"
	pfirestore "github.com/stockroute/api/internal/platform/firestore"
	"github.com/stockroute/api/internal/repositories"
)

const variationCollection = "variations"

// Firestore caps disjunction ("in") query operands, so id lists are chunked.
const queryInChunkSize = 10

// VariationRepository reads variation attribute documents from Firestore.
type VariationRepository struct {
	base *pfirestore.BaseRepository[variationDocument]
}

// NewVariationRepository constructs a Firestore-backed variation repository.
func NewVariationRepository(provider *pfirestore.Provider) (*VariationRepository, error) {
	if provider == nil {
		return nil, errors.New("variation repository requires firestore provider")
	}
	return &VariationRepository{
		base: pfirestore.NewBaseRepository[variationDocument](provider, variationCollection, nil),
	}, nil
}

// GetAttributes loads attributes for the given variation ids. Ids missing in
// the datastore are absent from the returned map.
func (r *VariationRepository) GetAttributes(ctx context.Context, variationIDs []string) (map[string]domain.VariationAttributes, error) {
	if r == nil || r.base == nil {
		return nil, errors.New("variation repository not initialised")
	}

	ids := dedupeIDs(variationIDs)
	result := make(map[string]domain.VariationAttributes, len(ids))
	for _, chunk := range chunkIDs(ids, queryInChunkSize) {
		chunk := chunk
		docs, err := r.base.Query(ctx, func(query firestore.Query) firestore.Query {
			return query.Where(firestore.DocumentID, "in", chunk)
		})
		if err != nil {
			return nil, err
		}
		for _, doc := range docs {
			result[doc.ID] = doc.Data.toDomain(doc.ID)
		}
	}
	return result, nil
}

type variationDocument struct {
	WeightKg  float64 `firestore:"weightKg"`
	VolumeCm3 float64 `firestore:"volumeCm3"`
	LengthCm  float64 `firestore:"lengthCm"`
	WidthCm   float64 `firestore:"widthCm"`
	HeightCm  float64 `firestore:"heightCm"`
	Price     int64   `firestore:"price"`
}

func (d variationDocument) toDomain(id string) domain.VariationAttributes {
	return domain.VariationAttributes{
		VariationID: id,
		WeightKg:    d.WeightKg,
		VolumeCm3:   d.VolumeCm3,
		LengthCm:    d.LengthCm,
		WidthCm:     d.WidthCm,
		HeightCm:    d.HeightCm,
		Price:       d.Price,
	}
}

func dedupeIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		trimmed := strings.TrimSpace(id)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}
	return out
}

func chunkIDs(ids []string, size int) [][]string {
	if size <= 0 || len(ids) == 0 {
		return nil
	}
	var chunks [][]string
	for start := 0; start < len(ids); start += size {
		end := start + size
		if end > len(ids) {
			end = len(ids)
		}
		chunks = append(chunks, ids[start:end])
	}
	return chunks
}

// Ensure interface compliance.
var _ repositories.VariationRepository = (*VariationRepository)(nil)
