// backend-go/internal/domain/errors.go
package domain

import "errors"

var (
	// ErrAssetLoad indicates the model artifact or historical dataset could
	// not be loaded. The service is unavailable until a reload succeeds.
	ErrAssetLoad = errors.New("forecasting assets unavailable")

	// ErrProductNotFound indicates the product has no historical record.
	ErrProductNotFound = errors.New("product not found in historical data")

	// ErrInference indicates the model returned an error or a malformed
	// value. Never retried; the affected product's run is aborted.
	ErrInference = errors.New("model inference failed")

	// ErrInvalidRequest indicates a malformed forecast request.
	ErrInvalidRequest = errors.New("invalid forecast request")
)
