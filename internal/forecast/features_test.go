package forecast

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestTemporalFeatures(t *testing.T) {
	tests := []struct {
		name      string
		date      time.Time
		dayOfWeek int
		isWeekend int
	}{
		{name: "monday", date: date(2024, time.January, 1), dayOfWeek: 0, isWeekend: 0},
		{name: "friday", date: date(2024, time.January, 5), dayOfWeek: 4, isWeekend: 0},
		{name: "saturday", date: date(2024, time.January, 6), dayOfWeek: 5, isWeekend: 1},
		{name: "sunday", date: date(2024, time.January, 7), dayOfWeek: 6, isWeekend: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := temporalFeatures(tt.date)
			assert.Equal(t, tt.dayOfWeek, got.DayOfWeek)
			assert.Equal(t, tt.isWeekend, got.IsWeekend)
			assert.Equal(t, int(tt.date.Month()), got.Month)
			assert.Equal(t, tt.date.Year(), got.Year)
		})
	}
}

func TestTemporalFeaturesCyclicalMonth(t *testing.T) {
	june := temporalFeatures(date(2024, time.June, 15))
	assert.InDelta(t, math.Sin(2*math.Pi*6/12), june.MonthSin, 1e-12)
	assert.InDelta(t, math.Cos(2*math.Pi*6/12), june.MonthCos, 1e-12)

	// December and January must be numerically close on the circle,
	// unlike the raw month numbers 12 and 1.
	dec := temporalFeatures(date(2024, time.December, 10))
	jan := temporalFeatures(date(2025, time.January, 10))
	dist := math.Hypot(dec.MonthSin-jan.MonthSin, dec.MonthCos-jan.MonthCos)
	assert.Less(t, dist, 0.6)
}

func TestTemporalFeaturesDeterministic(t *testing.T) {
	d := date(2024, time.March, 14)
	assert.Equal(t, temporalFeatures(d), temporalFeatures(d))
}

func TestDerivedFeatures(t *testing.T) {
	tests := []struct {
		name           string
		price          float64
		discount       float64
		inventory      float64
		effectivePrice float64
		discountActive int
		stockCategory  int
	}{
		{name: "no discount critical", price: 20, discount: 0, inventory: 49, effectivePrice: 20, discountActive: 0, stockCategory: StockCriticalLow},
		{name: "boundary 50 is medium", price: 20, discount: 0, inventory: 50, effectivePrice: 20, discountActive: 0, stockCategory: StockMedium},
		{name: "upper medium", price: 20, discount: 0, inventory: 199, effectivePrice: 20, discountActive: 0, stockCategory: StockMedium},
		{name: "boundary 200 is high", price: 20, discount: 0, inventory: 200, effectivePrice: 20, discountActive: 0, stockCategory: StockHigh},
		{name: "with discount", price: 100, discount: 25, inventory: 500, effectivePrice: 75, discountActive: 1, stockCategory: StockHigh},
		{name: "zero inventory", price: 10, discount: 0, inventory: 0, effectivePrice: 10, discountActive: 0, stockCategory: StockCriticalLow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := derivedFeatures(tt.price, tt.discount, tt.inventory)
			assert.InDelta(t, tt.effectivePrice, got.EffectivePrice, 1e-9)
			assert.Equal(t, tt.discountActive, got.DiscountActive)
			assert.Equal(t, tt.stockCategory, got.StockCategory)
		})
	}
}

func TestDerivedFeaturesDeterministic(t *testing.T) {
	assert.Equal(t, derivedFeatures(19.99, 10, 120), derivedFeatures(19.99, 10, 120))
}

func TestLagFeatures(t *testing.T) {
	tests := []struct {
		name    string
		history []float64
		want    LagFeatures
	}{
		{
			name:    "empty history falls back to zero",
			history: nil,
			want:    LagFeatures{Lag1: 0, Lag7: 0, Lag30: 0, RollingMean30: 0},
		},
		{
			name:    "short history falls back to last known value, not zero",
			history: []float64{3, 8},
			want:    LagFeatures{Lag1: 8, Lag7: 8, Lag30: 8, RollingMean30: 5.5},
		},
		{
			name:    "exactly seven elements",
			history: []float64{1, 2, 3, 4, 5, 6, 7},
			want:    LagFeatures{Lag1: 7, Lag7: 1, Lag30: 7, RollingMean30: 4},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := lagFeatures(tt.history)
			assert.InDelta(t, tt.want.Lag1, got.Lag1, 1e-9)
			assert.InDelta(t, tt.want.Lag7, got.Lag7, 1e-9)
			assert.InDelta(t, tt.want.Lag30, got.Lag30, 1e-9)
			assert.InDelta(t, tt.want.RollingMean30, got.RollingMean30, 1e-9)
		})
	}
}

func TestLagFeaturesRollingWindowCapsAtThirty(t *testing.T) {
	history := make([]float64, 40)
	for i := range history {
		history[i] = float64(i + 1) // 1..40
	}

	got := lagFeatures(history)
	// mean of 11..40
	assert.InDelta(t, 25.5, got.RollingMean30, 1e-9)
	assert.InDelta(t, 40, got.Lag1, 1e-9)
	assert.InDelta(t, 34, got.Lag7, 1e-9)
	assert.InDelta(t, 11, got.Lag30, 1e-9)
}
