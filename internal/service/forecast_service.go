// backend-go/internal/service/forecast_service.go
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/smartstock/backend-go/internal/cache"
	"github.com/smartstock/backend-go/internal/config"
	"github.com/smartstock/backend-go/internal/domain"
	"github.com/smartstock/backend-go/internal/forecast"
	"github.com/smartstock/backend-go/internal/repository"
	"github.com/smartstock/backend-go/internal/storage"
)

// ForecastService owns the forecasting assets: the trained model and the
// frozen history snapshot. Both are loaded through one guarded path; every
// request sees a complete snapshot or a service-unavailable error, never a
// partially initialized state. Reload swaps the snapshot atomically.
type ForecastService struct {
	histRepo     repository.HistoricalRepository
	forecastRepo repository.ForecastRepository
	cache        cache.ForecastCache
	objects      storage.ObjectStorage
	cfg          config.ForecastConfig

	mu           sync.RWMutex
	engine       *forecast.Engine
	anchorDate   time.Time
	modelVersion string
}

func NewForecastService(
	histRepo repository.HistoricalRepository,
	forecastRepo repository.ForecastRepository,
	cacheImpl cache.ForecastCache,
	objects storage.ObjectStorage,
	cfg config.ForecastConfig,
) *ForecastService {
	if cacheImpl == nil {
		cacheImpl = cache.NewNoopForecastCache()
	}
	return &ForecastService{
		histRepo:     histRepo,
		forecastRepo: forecastRepo,
		cache:        cacheImpl,
		objects:      objects,
		cfg:          cfg,
	}
}

// Init loads the model artifact and the historical dataset and freezes the
// snapshot. Safe to call concurrently; only one load runs at a time and
// later calls over a ready snapshot are no-ops.
func (s *ForecastService) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.engine != nil {
		return nil
	}
	return s.loadAssetsLocked(ctx)
}

// Reload rebuilds the snapshot from the current database contents and
// clears the forecast cache. The only path that replaces the frozen
// dataset.
func (s *ForecastService) Reload(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.loadAssetsLocked(ctx); err != nil {
		return err
	}

	if err := s.cache.InvalidateAll(ctx); err != nil {
		log.Warn().Err(err).Msg("forecast: cache invalidation after reload failed")
	}
	return nil
}

func (s *ForecastService) loadAssetsLocked(ctx context.Context) error {
	model, err := s.loadModel(ctx)
	if err != nil {
		return err
	}

	rows, err := s.histRepo.LoadDailyHistory(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrAssetLoad, err)
	}

	store, err := forecast.NewHistoryStore(rows)
	if err != nil {
		return err
	}

	s.engine = forecast.NewEngine(store, model)
	s.anchorDate = store.LatestDate()
	s.modelVersion = model.Version()

	log.Info().
		Str("model_version", s.modelVersion).
		Str("latest_date", s.anchorDate.Format(domain.DateFormat)).
		Int("products", len(store.ProductIDs())).
		Int("records", len(rows)).
		Msg("forecasting assets loaded")

	return nil
}

func (s *ForecastService) loadModel(ctx context.Context) (forecast.Model, error) {
	if s.objects != nil && s.cfg.ModelObjectKey != "" {
		data, err := s.objects.GetObject(ctx, s.cfg.ModelObjectKey)
		if err != nil {
			return nil, fmt.Errorf("%w: fetching model artifact %s: %v",
				domain.ErrAssetLoad, s.cfg.ModelObjectKey, err)
		}
		return forecast.ParseModel(data)
	}
	return forecast.LoadModel(s.cfg.ModelPath)
}

// snapshot returns the current engine or ErrAssetLoad when no snapshot has
// been loaded yet.
func (s *ForecastService) snapshot() (*forecast.Engine, time.Time, string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.engine == nil {
		return nil, time.Time{}, "", domain.ErrAssetLoad
	}
	return s.engine, s.anchorDate, s.modelVersion, nil
}

// ModelVersion reports the loaded model's version string.
func (s *ForecastService) ModelVersion() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.modelVersion
}

// Forecast runs a validated request, single-product or batch, and persists
// the final-day forecasts. A persistence failure is logged but never fails
// the request; the predictions are still returned to the caller.
func (s *ForecastService) Forecast(ctx context.Context, req domain.ForecastRequest) (*domain.ForecastResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var (
		predictions []domain.DailyPrediction
		err         error
	)
	if req.IsBatch {
		predictions, err = s.forecastBatch(ctx, req.HorizonDays)
	} else {
		predictions, err = s.forecastOne(ctx, *req.ProductID, req.HorizonDays, forecast.ContextOverrides{
			Price:          req.FuturePrice,
			Discount:       req.FutureDiscount,
			InventoryLevel: req.FutureInventory,
		})
	}
	if err != nil {
		return nil, err
	}

	if len(predictions) > 0 {
		saved, err := s.forecastRepo.SaveFinalForecasts(ctx, predictions, req.HorizonDays, s.ModelVersion())
		if err != nil {
			log.Warn().Err(err).Msg("forecast: failed to persist final forecasts")
		} else {
			log.Info().Int("records", saved).
				Str("period", repository.PeriodLabel(req.HorizonDays)).
				Msg("forecast: persisted final forecasts")
		}
	}

	return &domain.ForecastResponse{
		Message:      fmt.Sprintf("Forecast generated successfully for %d daily records.", len(predictions)),
		ForecastData: predictions,
		ModelVersion: s.ModelVersion(),
	}, nil
}

func (s *ForecastService) forecastOne(ctx context.Context, id domain.ProductID, horizonDays int, overrides forecast.ContextOverrides) ([]domain.DailyPrediction, error) {
	engine, anchor, _, err := s.snapshot()
	if err != nil {
		return nil, err
	}

	// Scenario overrides change the feature inputs, so those runs bypass
	// the cache entirely.
	cacheable := overrides == (forecast.ContextOverrides{})
	key := cache.ForecastKey{ProductID: &id, HorizonDays: horizonDays, AnchorDate: anchor}

	if cacheable {
		if cached, ok, err := s.cache.Get(ctx, key); err == nil && ok {
			return cached, nil
		} else if err != nil {
			log.Warn().Err(err).Msg("forecast: cache get failed")
		}
	}

	predictions, err := engine.ForecastProduct(ctx, id, horizonDays, overrides)
	if err != nil {
		return nil, err
	}

	if cacheable {
		if err := s.cache.Set(ctx, key, predictions); err != nil {
			log.Warn().Err(err).Msg("forecast: cache set failed")
		}
	}

	return predictions, nil
}

func (s *ForecastService) forecastBatch(ctx context.Context, horizonDays int) ([]domain.DailyPrediction, error) {
	engine, anchor, _, err := s.snapshot()
	if err != nil {
		return nil, err
	}

	key := cache.ForecastKey{HorizonDays: horizonDays, AnchorDate: anchor}
	if cached, ok, err := s.cache.Get(ctx, key); err == nil && ok {
		return cached, nil
	} else if err != nil {
		log.Warn().Err(err).Msg("forecast: cache get failed")
	}

	result, err := engine.ForecastBatch(ctx, horizonDays, s.cfg.WorkerCount)
	if err != nil {
		return nil, err
	}

	if len(result.Skipped) > 0 {
		log.Warn().Int("skipped", len(result.Skipped)).
			Int("succeeded", len(result.Predictions)/max(horizonDays, 1)).
			Msg("forecast: batch completed with skipped products")
	}

	if err := s.cache.Set(ctx, key, result.Predictions); err != nil {
		log.Warn().Err(err).Msg("forecast: cache set failed")
	}

	return result.Predictions, nil
}
