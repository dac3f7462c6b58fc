// backend-go/internal/forecast/batch.go
package forecast

import (
	"context"
	"sort"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/smartstock/backend-go/internal/domain"
)

// ProductFailure records one product skipped during a batch run. Skips are
// explicit values so the isolation behavior is visible and testable.
type ProductFailure struct {
	ProductID domain.ProductID
	Err       error
}

// BatchResult partitions a batch run into the concatenated successful
// predictions and the per-product failures. Zero successes is a valid
// result at this layer; the caller decides whether that is an error.
type BatchResult struct {
	Predictions []domain.DailyPrediction
	Skipped     []ProductFailure
}

// ForecastBatch runs the engine once per known product on a bounded worker
// pool. Products never share a sales buffer, so the per-product runs are
// fully independent; results are sorted by product then date after the
// parallel join to keep the output deterministic. A single product's
// failure never aborts the batch.
func (e *Engine) ForecastBatch(ctx context.Context, horizonDays, workerCount int) (BatchResult, error) {
	if err := ctx.Err(); err != nil {
		return BatchResult{}, err
	}

	ids := e.store.ProductIDs()
	if workerCount < 1 {
		workerCount = 1
	}

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		result BatchResult
	)

	jobs := make(chan domain.ProductID)

	for i := 0; i < workerCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := range jobs {
				preds, err := e.ForecastProduct(ctx, id, horizonDays, ContextOverrides{})

				mu.Lock()
				if err != nil {
					result.Skipped = append(result.Skipped, ProductFailure{ProductID: id, Err: err})
				} else {
					result.Predictions = append(result.Predictions, preds...)
				}
				mu.Unlock()

				if err != nil {
					log.Warn().Err(err).Str("product_id", id.String()).Msg("batch forecast: skipping product")
				}
			}
		}()
	}

	for _, id := range ids {
		select {
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return BatchResult{}, ctx.Err()
		case jobs <- id:
		}
	}
	close(jobs)
	wg.Wait()

	sort.Slice(result.Predictions, func(i, j int) bool {
		a, b := result.Predictions[i], result.Predictions[j]
		if a.ProductID != b.ProductID {
			return a.ProductID < b.ProductID
		}
		return a.Date.Before(b.Date)
	})
	sort.Slice(result.Skipped, func(i, j int) bool {
		return result.Skipped[i].ProductID < result.Skipped[j].ProductID
	})

	return result, nil
}
