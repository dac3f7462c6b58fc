// backend-go/internal/forecast/engine.go
package forecast

import (
	"context"
	"fmt"
	"math"

	"github.com/smartstock/backend-go/internal/domain"
)

// Engine runs the day-by-day recursive simulation for single products.
// It holds only frozen state (history snapshot, trained model) and is safe
// for concurrent use; each simulation owns a private sales buffer.
type Engine struct {
	store *HistoryStore
	model Model
}

// NewEngine builds an engine over a frozen history snapshot and a model.
func NewEngine(store *HistoryStore, model Model) *Engine {
	return &Engine{store: store, model: model}
}

// ContextOverrides optionally replaces fields of the product context before
// a single-product simulation (scenario planning: "what if the price were").
type ContextOverrides struct {
	Price          *float64
	Discount       *float64
	InventoryLevel *float64
}

func (o ContextOverrides) apply(pc domain.ProductContext) domain.ProductContext {
	if o.Price != nil {
		pc.Price = *o.Price
	}
	if o.Discount != nil {
		pc.Discount = *o.Discount
	}
	if o.InventoryLevel != nil {
		pc.InventoryLevel = *o.InventoryLevel
	}
	return pc
}

// ForecastProduct simulates horizonDays consecutive days for one product,
// starting the day after the dataset's latest date.
//
// Each day's clamped prediction is appended to the private sales buffer, so
// the lag and rolling features of later days are computed from earlier
// predictions rather than ground truth. Errors can compound across the
// horizon; that is inherent to autoregressive features, not a defect, and
// it is the only way to honor the model's feature contract past day one.
//
// No partial results: any inference failure aborts the whole run.
func (e *Engine) ForecastProduct(ctx context.Context, id domain.ProductID, horizonDays int, overrides ContextOverrides) ([]domain.DailyPrediction, error) {
	if horizonDays <= 0 {
		return nil, fmt.Errorf("%w: horizon must be positive (got %d)", domain.ErrInvalidRequest, horizonDays)
	}

	pc, err := e.store.Context(id)
	if err != nil {
		return nil, err
	}
	pc = overrides.apply(pc)

	// Private to this simulation. Seeded with real observations, grown by
	// one predicted value per day, discarded when the call returns.
	history := e.store.LookbackSales(id)

	// Static across the horizon: the context does not change day to day.
	derived := derivedFeatures(pc.Price, pc.Discount, pc.InventoryLevel)

	predictions := make([]domain.DailyPrediction, 0, horizonDays)
	date := e.store.LatestDate()

	for day := 0; day < horizonDays; day++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		date = date.AddDate(0, 0, 1)
		features := buildFeatureVector(pc, derived, temporalFeatures(date), lagFeatures(history))

		raw, err := e.model.Predict(features)
		if err != nil {
			return nil, fmt.Errorf("product %s day %d: %w", id, day+1, err)
		}

		units := math.Max(0, raw)
		history = append(history, units)

		predictions = append(predictions, domain.DailyPrediction{
			Date:              date,
			ProductID:         id,
			PredictedQuantity: int(math.Round(units)),
			PredictedRevenue:  round2(units * pc.Price),
		})
	}

	return predictions, nil
}

// buildFeatureVector assembles the 18 features in contract order.
func buildFeatureVector(pc domain.ProductContext, d DerivedFeatures, t TemporalFeatures, l LagFeatures) FeatureVector {
	var fv FeatureVector
	fv[FeatPrice] = pc.Price
	fv[FeatInventoryLevel] = pc.InventoryLevel
	fv[FeatStoreEncoded] = pc.StoreEncoded
	fv[FeatProductEncoded] = pc.ProductEncoded
	fv[FeatCategoryEncoded] = pc.CategoryEncoded
	fv[FeatDayOfWeek] = float64(t.DayOfWeek)
	fv[FeatIsWeekend] = float64(t.IsWeekend)
	fv[FeatMonth] = float64(t.Month)
	fv[FeatYear] = float64(t.Year)
	fv[FeatMonthSin] = t.MonthSin
	fv[FeatMonthCos] = t.MonthCos
	fv[FeatEffectivePrice] = d.EffectivePrice
	fv[FeatDiscountActive] = float64(d.DiscountActive)
	fv[FeatStockCategory] = float64(d.StockCategory)
	fv[FeatSalesLag1] = l.Lag1
	fv[FeatSalesLag7] = l.Lag7
	fv[FeatSalesLag30] = l.Lag30
	fv[FeatSalesRollingMean30] = l.RollingMean30
	return fv
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
