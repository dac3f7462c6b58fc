// backend-go/internal/forecast/model.go
package forecast

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	"github.com/smartstock/backend-go/internal/domain"
)

// Model is the inference port: a synchronous pure function from a fixed-order
// feature vector to a single demand prediction. Implementations must be safe
// for concurrent use; the batch orchestrator calls Predict from many
// goroutines.
type Model interface {
	Predict(features FeatureVector) (float64, error)
	Version() string
}

// linearModel is a pre-trained, fixed regression over the 18-feature
// contract: intercept + dot(coefficients, features). Training happens
// offline; the artifact only carries the fitted weights.
type linearModel struct {
	version      string
	intercept    float64
	coefficients FeatureVector
}

// modelArtifact is the serialized form of a trained model, with
// coefficients keyed by feature name so an artifact fitted on a different
// feature set fails loudly at load time instead of predicting garbage.
type modelArtifact struct {
	Version      string             `json:"version"`
	Intercept    float64            `json:"intercept"`
	Coefficients map[string]float64 `json:"coefficients"`
}

// LoadModel reads a model artifact from disk and validates it against the
// feature contract.
func LoadModel(path string) (Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading model artifact %s: %v", domain.ErrAssetLoad, path, err)
	}
	return ParseModel(data)
}

// ParseModel decodes and validates a model artifact.
func ParseModel(data []byte) (Model, error) {
	var artifact modelArtifact
	if err := json.Unmarshal(data, &artifact); err != nil {
		return nil, fmt.Errorf("%w: decoding model artifact: %v", domain.ErrAssetLoad, err)
	}

	if len(artifact.Coefficients) != NumFeatures {
		return nil, fmt.Errorf("%w: model artifact has %d coefficients, want %d",
			domain.ErrAssetLoad, len(artifact.Coefficients), NumFeatures)
	}

	m := &linearModel{
		version:   artifact.Version,
		intercept: artifact.Intercept,
	}
	if m.version == "" {
		m.version = "unversioned"
	}

	for i, name := range FeatureNames {
		coef, ok := artifact.Coefficients[name]
		if !ok {
			return nil, fmt.Errorf("%w: model artifact missing coefficient %q", domain.ErrAssetLoad, name)
		}
		m.coefficients[i] = coef
	}

	return m, nil
}

func (m *linearModel) Version() string {
	return m.version
}

func (m *linearModel) Predict(features FeatureVector) (float64, error) {
	pred := m.intercept
	for i, coef := range m.coefficients {
		pred += coef * features[i]
	}

	if math.IsNaN(pred) || math.IsInf(pred, 0) {
		return 0, fmt.Errorf("%w: model produced a non-finite prediction", domain.ErrInference)
	}

	return pred, nil
}
