// backend-go/internal/cache/forecast_cache.go
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/smartstock/backend-go/internal/config"
	"github.com/smartstock/backend-go/internal/domain"
)

const (
	forecastKeyPrefix     = "forecast:predictions"
	forecastScanBatchSize = 100
)

// ForecastCache memoizes forecast runs. Keys include the dataset's anchor
// date so entries produced before a reload can never be served afterwards.
type ForecastCache interface {
	Get(ctx context.Context, key ForecastKey) ([]domain.DailyPrediction, bool, error)
	Set(ctx context.Context, key ForecastKey, predictions []domain.DailyPrediction) error
	InvalidateAll(ctx context.Context) error
}

// ForecastKey identifies one cacheable forecast run. Batch runs use
// ProductID nil.
type ForecastKey struct {
	ProductID   *domain.ProductID
	HorizonDays int
	AnchorDate  time.Time
}

func (k ForecastKey) redisKey() string {
	scope := "batch"
	if k.ProductID != nil {
		scope = "product:" + k.ProductID.String()
	}
	return fmt.Sprintf("%s:%s:h%d:%s", forecastKeyPrefix, scope, k.HorizonDays, k.AnchorDate.Format(domain.DateFormat))
}

type redisForecastCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopForecastCache struct{}

func NewForecastCache(cfg config.CacheConfig) (ForecastCache, error) {
	if !cfg.Enabled {
		return &noopForecastCache{}, nil
	}

	client, ttl, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}

	return &redisForecastCache{client: client, ttl: ttl}, nil
}

func NewNoopForecastCache() ForecastCache {
	return &noopForecastCache{}
}

func (c *redisForecastCache) Get(ctx context.Context, key ForecastKey) ([]domain.DailyPrediction, bool, error) {
	payload, err := c.client.Get(ctx, key.redisKey()).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var cached []cachedPrediction
	if err := json.Unmarshal(payload, &cached); err != nil {
		return nil, false, fmt.Errorf("decode forecast cache: %w", err)
	}

	predictions := make([]domain.DailyPrediction, 0, len(cached))
	for _, p := range cached {
		date, err := time.Parse(domain.DateFormat, p.Date)
		if err != nil {
			return nil, false, fmt.Errorf("decode forecast cache date: %w", err)
		}
		predictions = append(predictions, domain.DailyPrediction{
			Date:              date,
			ProductID:         p.ProductID,
			PredictedQuantity: p.PredictedQuantity,
			PredictedRevenue:  p.PredictedRevenue,
			ConfidenceLower:   p.ConfidenceLower,
			ConfidenceUpper:   p.ConfidenceUpper,
		})
	}

	return predictions, true, nil
}

func (c *redisForecastCache) Set(ctx context.Context, key ForecastKey, predictions []domain.DailyPrediction) error {
	cached := make([]cachedPrediction, 0, len(predictions))
	for _, p := range predictions {
		cached = append(cached, cachedPrediction{
			Date:              p.Date.Format(domain.DateFormat),
			ProductID:         p.ProductID,
			PredictedQuantity: p.PredictedQuantity,
			PredictedRevenue:  p.PredictedRevenue,
			ConfidenceLower:   p.ConfidenceLower,
			ConfidenceUpper:   p.ConfidenceUpper,
		})
	}

	payload, err := json.Marshal(cached)
	if err != nil {
		return fmt.Errorf("encode forecast cache: %w", err)
	}

	if err := c.client.Set(ctx, key.redisKey(), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *redisForecastCache) InvalidateAll(ctx context.Context) error {
	return deleteKeysWithPrefix(ctx, c.client, forecastKeyPrefix, forecastScanBatchSize)
}

func (n *noopForecastCache) Get(ctx context.Context, key ForecastKey) ([]domain.DailyPrediction, bool, error) {
	return nil, false, nil
}

func (n *noopForecastCache) Set(ctx context.Context, key ForecastKey, predictions []domain.DailyPrediction) error {
	return nil
}

func (n *noopForecastCache) InvalidateAll(ctx context.Context) error {
	return nil
}

// cachedPrediction is the storage shape; dates are kept in the wire format
// so cached payloads stay readable when inspected in redis.
type cachedPrediction struct {
	Date              string           `json:"date"`
	ProductID         domain.ProductID `json:"product_id"`
	PredictedQuantity int              `json:"predicted_quantity"`
	PredictedRevenue  float64          `json:"predicted_revenue"`
	ConfidenceLower   *int             `json:"confidence_lower"`
	ConfidenceUpper   *int             `json:"confidence_upper"`
}
