// backend-go/internal/repository/forecast_repository.go
package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/smartstock/backend-go/internal/domain"
	"github.com/smartstock/backend-go/internal/repository/postgres"
)

// ForecastRepository persists generated forecasts. Only the final horizon
// day per product is retained for a given period bucket, and saving the
// same product/period again replaces the previous row, so re-running a
// forecast is idempotent at the storage layer.
type ForecastRepository interface {
	SaveFinalForecasts(ctx context.Context, predictions []domain.DailyPrediction, horizonDays int, modelVersion string) (int, error)
}

type forecastRepository struct {
	db *postgres.DB
}

func NewForecastRepository(db *postgres.DB) ForecastRepository {
	return &forecastRepository{db: db}
}

// PeriodLabel maps a horizon to its storage bucket.
func PeriodLabel(horizonDays int) string {
	switch {
	case horizonDays <= 7:
		return "7 Days"
	case horizonDays <= 14:
		return "14 Days"
	case horizonDays <= 30:
		return "30 Days"
	default:
		return "90 Days"
	}
}

func (r *forecastRepository) SaveFinalForecasts(ctx context.Context, predictions []domain.DailyPrediction, horizonDays int, modelVersion string) (int, error) {
	if len(predictions) == 0 {
		return 0, nil
	}

	period := PeriodLabel(horizonDays)
	generatedAt := time.Now().UTC()

	// Keep only the latest-dated prediction per product.
	finals := make(map[domain.ProductID]domain.DailyPrediction)
	for _, pred := range predictions {
		if current, ok := finals[pred.ProductID]; !ok || pred.Date.After(current.Date) {
			finals[pred.ProductID] = pred
		}
	}

	records := make([]domain.ForecastRecord, 0, len(finals))
	productIDs := make([]int64, 0, len(finals))
	for id, pred := range finals {
		productIDs = append(productIDs, int64(id))
		records = append(records, domain.ForecastRecord{
			ProductID:         id,
			ForecastDate:      pred.Date,
			ForecastPeriod:    period,
			PredictedQuantity: pred.PredictedQuantity,
			PredictedRevenue:  pred.PredictedRevenue,
			ConfidenceLower:   pred.ConfidenceLower,
			ConfidenceUpper:   pred.ConfidenceUpper,
			ModelVersion:      modelVersion,
			GeneratedAt:       generatedAt,
		})
	}

	// Delete-then-insert inside one transaction keeps the unique
	// (product_id, forecast_date, forecast_period) constraint satisfied
	// across repeated runs.
	err := r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		deleteQuery, args, err := sqlx.In(
			`DELETE FROM forecasts WHERE forecast_period = ? AND product_id IN (?)`,
			period, productIDs,
		)
		if err != nil {
			return fmt.Errorf("error building forecast delete: %w", err)
		}
		if _, err := tx.ExecContext(ctx, tx.Rebind(deleteQuery), args...); err != nil {
			return fmt.Errorf("error deleting old forecasts: %w", err)
		}

		insertQuery := `
            INSERT INTO forecasts (
                product_id, forecast_date, forecast_period,
                predicted_quantity, predicted_revenue,
                confidence_lower, confidence_upper,
                model_version, generated_at
            ) VALUES (
                :product_id, :forecast_date, :forecast_period,
                :predicted_quantity, :predicted_revenue,
                :confidence_lower, :confidence_upper,
                :model_version, :generated_at
            )
        `
		if _, err := tx.NamedExecContext(ctx, insertQuery, records); err != nil {
			return fmt.Errorf("error inserting forecasts: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return len(records), nil
}
