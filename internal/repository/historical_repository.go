// backend-go/internal/repository/historical_repository.go
package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/smartstock/backend-go/internal/domain"
)

// HistoricalRepository supplies the daily sales history the forecasting
// snapshot is built from.
type HistoricalRepository interface {
	LoadDailyHistory(ctx context.Context) ([]domain.HistoricalRecord, error)
}

type historicalRepository struct {
	db *sqlx.DB
}

func NewHistoricalRepository(db *sqlx.DB) HistoricalRepository {
	return &historicalRepository{db: db}
}

// LoadDailyHistory returns every daily record joined with its product
// master data, in chronological order.
//
// The integer encodings mirror what the model was fit on: a single store
// (encoded 0), products label-encoded densely in id order, and categories
// shifted to a 0-based code. Rows without a positive price are dropped
// since revenue and effective-price features would be meaningless.
func (r *historicalRepository) LoadDailyHistory(ctx context.Context) ([]domain.HistoricalRecord, error) {
	query := `
        SELECT
            h.history_date,
            h.product_id,
            h.units_sold,
            h.inventory_start                                          AS inventory_level,
            p.unit_price                                               AS price,
            COALESCE(h.discount, 0)                                    AS discount,
            COALESCE(p.category_id, 1)                                 AS category_id,
            0                                                          AS store_encoded,
            DENSE_RANK() OVER (ORDER BY h.product_id) - 1              AS product_encoded,
            COALESCE(p.category_id, 1) - 1                             AS category_encoded
        FROM historical_data h
        JOIN products p ON p.product_id = h.product_id
        WHERE h.period_type = 'daily'
          AND p.unit_price > 0
        ORDER BY h.history_date
    `

	var records []domain.HistoricalRecord
	if err := r.db.SelectContext(ctx, &records, query); err != nil {
		return nil, fmt.Errorf("error loading daily history: %w", err)
	}

	return records, nil
}
