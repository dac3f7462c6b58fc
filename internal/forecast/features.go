// backend-go/internal/forecast/features.go
package forecast

import (
	"math"
	"time"
)

// FeatureNames is the fixed feature order of the trained demand model.
// Order and names are part of the model contract and must not change.
var FeatureNames = [NumFeatures]string{
	"price",
	"inventory_level",
	"store_id_encoded",
	"product_id_encoded",
	"category_encoded",
	"day_of_week",
	"is_weekend",
	"month",
	"year",
	"month_sin",
	"month_cos",
	"effective_price",
	"discount_active",
	"stock_category_code",
	"sales_lag_1",
	"sales_lag_7",
	"sales_lag_30",
	"sales_rolling_mean_30",
}

// NumFeatures is the length of every feature vector fed to the model.
const NumFeatures = 18

// FeatureVector holds the 18 model inputs in FeatureNames order.
type FeatureVector [NumFeatures]float64

// Feature indices into a FeatureVector.
const (
	FeatPrice = iota
	FeatInventoryLevel
	FeatStoreEncoded
	FeatProductEncoded
	FeatCategoryEncoded
	FeatDayOfWeek
	FeatIsWeekend
	FeatMonth
	FeatYear
	FeatMonthSin
	FeatMonthCos
	FeatEffectivePrice
	FeatDiscountActive
	FeatStockCategory
	FeatSalesLag1
	FeatSalesLag7
	FeatSalesLag30
	FeatSalesRollingMean30
)

// Stock category codes, bucketed from the inventory level. The boundary
// values 50 and 200 belong to the higher bucket (left-closed intervals);
// downstream restocking urgency depends on this exact split.
const (
	StockCriticalLow = 0 // [0, 50)
	StockMedium      = 1 // [50, 200)
	StockHigh        = 2 // [200, inf)
)

// TemporalFeatures is the calendar-derived feature subset for one date.
type TemporalFeatures struct {
	DayOfWeek int // 0=Monday .. 6=Sunday
	IsWeekend int
	Month     int
	Year      int
	MonthSin  float64
	MonthCos  float64
}

// temporalFeatures derives the calendar features for the given date.
// Pure: same date always yields the same features.
func temporalFeatures(date time.Time) TemporalFeatures {
	// time.Weekday is 0=Sunday; the model was trained on 0=Monday.
	dow := (int(date.Weekday()) + 6) % 7
	month := int(date.Month())

	isWeekend := 0
	if dow >= 5 {
		isWeekend = 1
	}

	return TemporalFeatures{
		DayOfWeek: dow,
		IsWeekend: isWeekend,
		Month:     month,
		Year:      date.Year(),
		// Cyclical month encoding keeps December and January numerically
		// close instead of 12 apart.
		MonthSin: math.Sin(2 * math.Pi * float64(month) / 12),
		MonthCos: math.Cos(2 * math.Pi * float64(month) / 12),
	}
}

// DerivedFeatures is the price/stock feature subset computed from the
// product context.
type DerivedFeatures struct {
	EffectivePrice float64
	DiscountActive int
	StockCategory  int
}

// derivedFeatures computes the effective price, the discount flag, and the
// stock category bucket. Pure function of its three inputs.
func derivedFeatures(price, discount, inventoryLevel float64) DerivedFeatures {
	active := 0
	if discount > 0 {
		active = 1
	}

	return DerivedFeatures{
		EffectivePrice: price * (1 - discount/100),
		DiscountActive: active,
		StockCategory:  stockCategory(inventoryLevel),
	}
}

func stockCategory(inventoryLevel float64) int {
	switch {
	case inventoryLevel < 50:
		return StockCriticalLow
	case inventoryLevel < 200:
		return StockMedium
	default:
		return StockHigh
	}
}

// LagFeatures is the sales-history feature subset computed from the
// simulation's private buffer.
type LagFeatures struct {
	Lag1          float64
	Lag7          float64
	Lag30         float64
	RollingMean30 float64
}

// lagFeatures computes the lag and rolling-mean features from the current
// history buffer. When the buffer is too short for a lag, the single most
// recent known value is used instead of zero so new or short-history
// products do not see an artificial discontinuity. Only a fully empty
// buffer falls back to zero.
func lagFeatures(history []float64) LagFeatures {
	var lastKnown float64
	if n := len(history); n > 0 {
		lastKnown = history[n-1]
	}

	lag := func(k int) float64 {
		if len(history) >= k {
			return history[len(history)-k]
		}
		return lastKnown
	}

	rolling := lastKnown
	if n := len(history); n > 0 {
		window := history
		if n > 30 {
			window = history[n-30:]
		}
		var sum float64
		for _, v := range window {
			sum += v
		}
		rolling = sum / float64(len(window))
	}

	return LagFeatures{
		Lag1:          lag(1),
		Lag7:          lag(7),
		Lag30:         lag(30),
		RollingMean30: rolling,
	}
}
