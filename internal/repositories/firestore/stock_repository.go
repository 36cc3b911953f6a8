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

const stockCollection = "warehouseStock"

// StockRepository reads per-warehouse stock level documents from Firestore.
type StockRepository struct {
	base *pfirestore.BaseRepository[stockDocument]
}

// NewStockRepository constructs a Firestore-backed stock repository.
func NewStockRepository(provider *pfirestore.Provider) (*StockRepository, error) {
	if provider == nil {
		return nil, errors.New("stock repository requires firestore provider")
	}
	return &StockRepository{
		base: pfirestore.NewBaseRepository[stockDocument](provider, stockCollection, nil),
	}, nil
}

// ListForVariations returns all stock records matching the given variation ids.
func (r *StockRepository) ListForVariations(ctx context.Context, variationIDs []string) ([]domain.StockRecord, error) {
	if r == nil || r.base == nil {
		return nil, errors.New("stock repository not initialised")
	}

	ids := dedupeIDs(variationIDs)
	var records []domain.StockRecord
	for _, chunk := range chunkIDs(ids, queryInChunkSize) {
		chunk := chunk
		docs, err := r.base.Query(ctx, func(query firestore.Query) firestore.Query {
			return query.Where("variationId", "in", chunk)
		})
		if err != nil {
			return nil, err
		}
		for _, doc := range docs {
			record := doc.Data.toDomain()
			if record.WarehouseID == "" || record.VariationID == "" {
				continue
			}
			records = append(records, record)
		}
	}
	return records, nil
}

type stockDocument struct {
	WarehouseID string `firestore:"warehouseId"`
	VariationID string `firestore:"variationId"`
	Quantity    int    `firestore:"quantity"`
}

func (d stockDocument) toDomain() domain.StockRecord {
	return domain.StockRecord{
		WarehouseID: strings.TrimSpace(d.WarehouseID),
		VariationID: strings.TrimSpace(d.VariationID),
		Quantity:    d.Quantity,
	}
}

// Ensure interface compliance.
var _ repositories.StockRepository = (*StockRepository)(nil)
