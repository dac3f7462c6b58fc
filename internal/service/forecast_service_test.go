package service

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartstock/backend-go/internal/cache"
	"github.com/smartstock/backend-go/internal/config"
	"github.com/smartstock/backend-go/internal/domain"
	"github.com/smartstock/backend-go/internal/forecast"
)

type fakeHistRepo struct {
	mu    sync.Mutex
	rows  []domain.HistoricalRecord
	err   error
	calls int
}

func (f *fakeHistRepo) LoadDailyHistory(ctx context.Context) ([]domain.HistoricalRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.rows, nil
}

type fakeForecastRepo struct {
	mu        sync.Mutex
	err       error
	calls     int
	lastPreds []domain.DailyPrediction
	lastDays  int
	lastModel string
}

func (f *fakeForecastRepo) SaveFinalForecasts(ctx context.Context, predictions []domain.DailyPrediction, horizonDays int, modelVersion string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return 0, f.err
	}
	f.lastPreds = predictions
	f.lastDays = horizonDays
	f.lastModel = modelVersion
	return len(predictions), nil
}

type countingCache struct {
	mu          sync.Mutex
	gets        int
	sets        int
	invalidated int
	store       map[string][]domain.DailyPrediction
}

func newCountingCache() *countingCache {
	return &countingCache{store: map[string][]domain.DailyPrediction{}}
}

func (c *countingCache) Get(ctx context.Context, key cache.ForecastKey) ([]domain.DailyPrediction, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	preds, ok := c.store[cacheKeyString(key)]
	return preds, ok, nil
}

func (c *countingCache) Set(ctx context.Context, key cache.ForecastKey, predictions []domain.DailyPrediction) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets++
	c.store[cacheKeyString(key)] = predictions
	return nil
}

func (c *countingCache) InvalidateAll(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidated++
	c.store = map[string][]domain.DailyPrediction{}
	return nil
}

func cacheKeyString(key cache.ForecastKey) string {
	id := "all"
	if key.ProductID != nil {
		id = key.ProductID.String()
	}
	return id + "/" + key.AnchorDate.Format(domain.DateFormat) + "/" + strconv.Itoa(key.HorizonDays)
}

// writeLagModel writes an artifact whose only non-zero coefficient is
// sales_lag_1, so flat histories forecast flat.
func writeLagModel(t *testing.T, version string) string {
	t.Helper()

	coefs := make(map[string]float64, forecast.NumFeatures)
	for _, name := range forecast.FeatureNames {
		coefs[name] = 0
	}
	coefs["sales_lag_1"] = 1

	data, err := json.Marshal(map[string]any{
		"version":      version,
		"intercept":    0.0,
		"coefficients": coefs,
	})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "demand_model.json")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func serviceHistoryRows(ids ...domain.ProductID) []domain.HistoricalRecord {
	end := time.Date(2024, time.January, 31, 0, 0, 0, 0, time.UTC)
	var rows []domain.HistoricalRecord
	for _, id := range ids {
		for i := 39; i >= 0; i-- {
			rows = append(rows, domain.HistoricalRecord{
				Date:            end.AddDate(0, 0, -i),
				ProductID:       id,
				UnitsSold:       10,
				Price:           20,
				InventoryLevel:  80,
				CategoryID:      2,
				ProductEncoded:  float64(id),
				CategoryEncoded: 1,
			})
		}
	}
	return rows
}

func newTestService(t *testing.T, hist *fakeHistRepo, repo *fakeForecastRepo, c cache.ForecastCache) *ForecastService {
	t.Helper()
	return NewForecastService(hist, repo, c, nil, config.ForecastConfig{
		ModelPath:   writeLagModel(t, "test-1"),
		WorkerCount: 4,
	})
}

func TestForecastSingleProduct(t *testing.T) {
	hist := &fakeHistRepo{rows: serviceHistoryRows(5)}
	repo := &fakeForecastRepo{}
	svc := newTestService(t, hist, repo, nil)
	require.NoError(t, svc.Init(context.Background()))

	pid := domain.ProductID(5)
	resp, err := svc.Forecast(context.Background(), domain.ForecastRequest{
		HorizonDays: 7,
		ProductID:   &pid,
	})
	require.NoError(t, err)

	assert.Len(t, resp.ForecastData, 7)
	assert.Equal(t, "test-1", resp.ModelVersion)
	assert.Equal(t, "Forecast generated successfully for 7 daily records.", resp.Message)
	for i, pred := range resp.ForecastData {
		assert.Equal(t, domain.ProductID(5), pred.ProductID)
		assert.Equal(t, 10, pred.PredictedQuantity)
		assert.InDelta(t, 200, pred.PredictedRevenue, 1e-9)
		wantDate := time.Date(2024, time.February, 1+i, 0, 0, 0, 0, time.UTC)
		assert.Equal(t, wantDate, pred.Date, "day %d", i)
	}

	assert.Equal(t, 1, repo.calls)
	assert.Equal(t, 7, repo.lastDays)
	assert.Equal(t, "test-1", repo.lastModel)
}

func TestForecastInvalidRequest(t *testing.T) {
	hist := &fakeHistRepo{rows: serviceHistoryRows(5)}
	repo := &fakeForecastRepo{}
	svc := newTestService(t, hist, repo, nil)
	require.NoError(t, svc.Init(context.Background()))

	_, err := svc.Forecast(context.Background(), domain.ForecastRequest{HorizonDays: 3, IsBatch: true})
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
	assert.Zero(t, repo.calls)
}

func TestForecastUnknownProduct(t *testing.T) {
	hist := &fakeHistRepo{rows: serviceHistoryRows(5)}
	svc := newTestService(t, hist, &fakeForecastRepo{}, nil)
	require.NoError(t, svc.Init(context.Background()))

	pid := domain.ProductID(999)
	_, err := svc.Forecast(context.Background(), domain.ForecastRequest{HorizonDays: 7, ProductID: &pid})
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestForecastBatchRequest(t *testing.T) {
	hist := &fakeHistRepo{rows: serviceHistoryRows(1, 2, 3)}
	repo := &fakeForecastRepo{}
	svc := newTestService(t, hist, repo, nil)
	require.NoError(t, svc.Init(context.Background()))

	resp, err := svc.Forecast(context.Background(), domain.ForecastRequest{HorizonDays: 7, IsBatch: true})
	require.NoError(t, err)

	assert.Len(t, resp.ForecastData, 21)
	assert.Len(t, repo.lastPreds, 21)

	// Products in ascending order, dates ascending within each product.
	for i := 1; i < len(resp.ForecastData); i++ {
		prev, cur := resp.ForecastData[i-1], resp.ForecastData[i]
		if prev.ProductID == cur.ProductID {
			assert.True(t, prev.Date.Before(cur.Date))
		} else {
			assert.Less(t, prev.ProductID, cur.ProductID)
		}
	}
}

func TestForecastPersistenceFailureDoesNotFailRequest(t *testing.T) {
	hist := &fakeHistRepo{rows: serviceHistoryRows(5)}
	repo := &fakeForecastRepo{err: errors.New("connection refused")}
	svc := newTestService(t, hist, repo, nil)
	require.NoError(t, svc.Init(context.Background()))

	pid := domain.ProductID(5)
	resp, err := svc.Forecast(context.Background(), domain.ForecastRequest{HorizonDays: 14, ProductID: &pid})
	require.NoError(t, err)
	assert.Len(t, resp.ForecastData, 14)
	assert.Equal(t, 1, repo.calls)
}

func TestForecastBeforeInit(t *testing.T) {
	hist := &fakeHistRepo{rows: serviceHistoryRows(5)}
	svc := newTestService(t, hist, &fakeForecastRepo{}, nil)

	pid := domain.ProductID(5)
	_, err := svc.Forecast(context.Background(), domain.ForecastRequest{HorizonDays: 7, ProductID: &pid})
	assert.ErrorIs(t, err, domain.ErrAssetLoad)
}

func TestInitIsIdempotent(t *testing.T) {
	hist := &fakeHistRepo{rows: serviceHistoryRows(5)}
	svc := newTestService(t, hist, &fakeForecastRepo{}, nil)

	require.NoError(t, svc.Init(context.Background()))
	require.NoError(t, svc.Init(context.Background()))
	assert.Equal(t, 1, hist.calls)
	assert.Equal(t, "test-1", svc.ModelVersion())
}

func TestInitFailsWhenHistoryUnavailable(t *testing.T) {
	hist := &fakeHistRepo{err: errors.New("connection refused")}
	svc := newTestService(t, hist, &fakeForecastRepo{}, nil)

	err := svc.Init(context.Background())
	assert.ErrorIs(t, err, domain.ErrAssetLoad)
}

func TestInitFailsWhenModelMissing(t *testing.T) {
	hist := &fakeHistRepo{rows: serviceHistoryRows(5)}
	svc := NewForecastService(hist, &fakeForecastRepo{}, nil, nil, config.ForecastConfig{
		ModelPath:   filepath.Join(t.TempDir(), "missing.json"),
		WorkerCount: 4,
	})

	err := svc.Init(context.Background())
	assert.ErrorIs(t, err, domain.ErrAssetLoad)
	assert.Zero(t, hist.calls)
}

func TestReloadRefreshesSnapshotAndInvalidatesCache(t *testing.T) {
	hist := &fakeHistRepo{rows: serviceHistoryRows(5)}
	c := newCountingCache()
	svc := newTestService(t, hist, &fakeForecastRepo{}, c)
	require.NoError(t, svc.Init(context.Background()))

	// New observation moves the anchor date forward by one day.
	hist.mu.Lock()
	hist.rows = append(hist.rows, domain.HistoricalRecord{
		Date:           time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC),
		ProductID:      5,
		UnitsSold:      30,
		Price:          20,
		InventoryLevel: 80,
		CategoryID:     2,
	})
	hist.mu.Unlock()

	require.NoError(t, svc.Reload(context.Background()))
	assert.Equal(t, 2, hist.calls)
	assert.Equal(t, 1, c.invalidated)

	pid := domain.ProductID(5)
	resp, err := svc.Forecast(context.Background(), domain.ForecastRequest{HorizonDays: 7, ProductID: &pid})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, time.February, 2, 0, 0, 0, 0, time.UTC), resp.ForecastData[0].Date)
	assert.Equal(t, 30, resp.ForecastData[0].PredictedQuantity)
}

func TestForecastCachesRepeatedRuns(t *testing.T) {
	hist := &fakeHistRepo{rows: serviceHistoryRows(5)}
	c := newCountingCache()
	svc := newTestService(t, hist, &fakeForecastRepo{}, c)
	require.NoError(t, svc.Init(context.Background()))

	pid := domain.ProductID(5)
	req := domain.ForecastRequest{HorizonDays: 7, ProductID: &pid}

	first, err := svc.Forecast(context.Background(), req)
	require.NoError(t, err)
	second, err := svc.Forecast(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, first.ForecastData, second.ForecastData)
	assert.Equal(t, 2, c.gets)
	assert.Equal(t, 1, c.sets)
}

func TestForecastOverridesBypassCache(t *testing.T) {
	hist := &fakeHistRepo{rows: serviceHistoryRows(5)}
	c := newCountingCache()
	svc := newTestService(t, hist, &fakeForecastRepo{}, c)
	require.NoError(t, svc.Init(context.Background()))

	pid := domain.ProductID(5)
	price := 50.0
	resp, err := svc.Forecast(context.Background(), domain.ForecastRequest{
		HorizonDays: 7,
		ProductID:   &pid,
		FuturePrice: &price,
	})
	require.NoError(t, err)

	assert.Zero(t, c.gets)
	assert.Zero(t, c.sets)
	assert.InDelta(t, 500, resp.ForecastData[0].PredictedRevenue, 1e-9)
}
