package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductIDJSON(t *testing.T) {
	data, err := json.Marshal(ProductID(5))
	require.NoError(t, err)
	assert.Equal(t, `"5"`, string(data))

	var fromString ProductID
	require.NoError(t, json.Unmarshal([]byte(`"42"`), &fromString))
	assert.Equal(t, ProductID(42), fromString)

	var fromNumber ProductID
	require.NoError(t, json.Unmarshal([]byte(`42`), &fromNumber))
	assert.Equal(t, ProductID(42), fromNumber)

	var bad ProductID
	err = json.Unmarshal([]byte(`"abc"`), &bad)
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestDailyPredictionJSONShape(t *testing.T) {
	pred := DailyPrediction{
		Date:              time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC),
		ProductID:         5,
		PredictedQuantity: 12,
		PredictedRevenue:  240.5,
	}

	data, err := json.Marshal(pred)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "2024-02-01", decoded["date"])
	assert.Equal(t, "5", decoded["product_id"])
	assert.Equal(t, float64(12), decoded["predicted_quantity"])
	assert.Equal(t, 240.5, decoded["predicted_revenue"])
	assert.Nil(t, decoded["confidence_lower"])
	assert.Nil(t, decoded["confidence_upper"])
}

func TestForecastRequestValidate(t *testing.T) {
	pid := ProductID(5)

	tests := []struct {
		name    string
		req     ForecastRequest
		wantErr bool
	}{
		{name: "single product valid", req: ForecastRequest{HorizonDays: 7, ProductID: &pid}},
		{name: "batch valid", req: ForecastRequest{HorizonDays: 90, IsBatch: true}},
		{name: "horizon not in set", req: ForecastRequest{HorizonDays: 10, ProductID: &pid}, wantErr: true},
		{name: "zero horizon", req: ForecastRequest{HorizonDays: 0, ProductID: &pid}, wantErr: true},
		{name: "negative horizon", req: ForecastRequest{HorizonDays: -7, IsBatch: true}, wantErr: true},
		{name: "neither product nor batch", req: ForecastRequest{HorizonDays: 14}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidRequest)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
