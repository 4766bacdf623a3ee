package classifier

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"

	"github.com/custodia-labs/musictruth-cli/internal/core/domain"
)

// Model is a logistic regression over named evidence metrics.
type Model struct {
	Name     string    `json:"name"`
	Features []string  `json:"features"`
	Mean     []float64 `json:"mean"`
	Scale    []float64 `json:"scale"`
	Weights  []float64 `json:"weights"`
	Bias     float64   `json:"bias"`
}

// LoadModel reads and validates a model file.
// Every failure wraps domain.ErrClassifierUnavailable.
func LoadModel(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: model file %s not found", domain.ErrClassifierUnavailable, path)
		}
		return nil, fmt.Errorf("%w: read model: %v", domain.ErrClassifierUnavailable, err)
	}

	var m Model
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: parse model: %v", domain.ErrClassifierUnavailable, err)
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrClassifierUnavailable, err)
	}
	if m.Name == "" {
		m.Name = "logistic"
	}
	return &m, nil
}

// Validate checks that the parameter vectors line up.
func (m *Model) Validate() error {
	n := len(m.Features)
	if n == 0 {
		return errors.New("model has no features")
	}
	if len(m.Mean) != n || len(m.Scale) != n || len(m.Weights) != n {
		return fmt.Errorf("model vectors disagree: %d features, %d mean, %d scale, %d weights",
			n, len(m.Mean), len(m.Scale), len(m.Weights))
	}
	for i, s := range m.Scale {
		if s == 0 || math.IsNaN(s) || math.IsInf(s, 0) {
			return fmt.Errorf("feature %q has invalid scale %v", m.Features[i], s)
		}
	}
	return nil
}

// Predict returns the probability that the evidence describes generated
// audio. Missing features are imputed with the training mean; evidence
// with none of the model's features cannot be scored.
func (m *Model) Predict(ev domain.EvidenceVector) (float64, error) {
	z := m.Bias
	present := 0
	for i, name := range m.Features {
		x, ok := ev.Value(name)
		if !ok {
			continue
		}
		present++
		z += m.Weights[i] * (x - m.Mean[i]) / m.Scale[i]
	}
	if present == 0 {
		return 0, fmt.Errorf("%w: evidence has none of the model features", domain.ErrClassifierUnavailable)
	}
	return sigmoid(z), nil
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}
