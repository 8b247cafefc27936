// Package classifier maps indicator snapshots to a market-state verdict
// with a random forest bootstrapped from synthetic archetypes.
package classifier

import (
	"errors"
	"fmt"
	"math"

	"MarketScout/internal/model"
)

// NumFeatures is the width of the classifier input.
const NumFeatures = 4

var (
	// ErrInvalidFeatures is returned for NaN or infinite inputs.
	ErrInvalidFeatures = errors.New("classifier: features must be finite")
)

// Features is the classifier input. Absolute price is deliberately absent.
type Features struct {
	EMAFast float64
	EMASlow float64
	RSI     float64
	ATR     float64
}

// FeaturesFromSnapshot converts an indicator snapshot.
func FeaturesFromSnapshot(s model.IndicatorSnapshot) Features {
	return Features{EMAFast: s.EMAFast, EMASlow: s.EMASlow, RSI: s.RSI, ATR: s.ATR}
}

func (f Features) vector() [NumFeatures]float64 {
	return [NumFeatures]float64{f.EMAFast, f.EMASlow, f.RSI, f.ATR}
}

func (f Features) finite() bool {
	for _, v := range f.vector() {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Config controls the synthetic bootstrap.
type Config struct {
	Seed            int64
	Trees           int
	SamplesPerClass int
	// MaxFeatures is the number of features tried per split; 0 means sqrt(NumFeatures).
	MaxFeatures int
}

// DefaultConfig returns 100 trees over 1000 samples per archetype, seed 42.
func DefaultConfig() Config {
	return Config{Seed: 42, Trees: 100, SamplesPerClass: 1000}
}

func (c Config) validate() error {
	if c.Trees <= 0 {
		return fmt.Errorf("classifier: trees must be positive, got %d", c.Trees)
	}
	if c.SamplesPerClass <= 0 {
		return fmt.Errorf("classifier: samples per class must be positive, got %d", c.SamplesPerClass)
	}
	if c.MaxFeatures < 0 || c.MaxFeatures > NumFeatures {
		return fmt.Errorf("classifier: max features must be within [0,%d], got %d", NumFeatures, c.MaxFeatures)
	}
	return nil
}

// Model is a trained scaler and forest. It is immutable and safe for
// concurrent use.
type Model struct {
	cfg    Config
	scaler Scaler
	forest *Forest
}

// Bootstrap generates the synthetic dataset, fits the scaler once and fits
// the forest on the standardized features.
func Bootstrap(cfg Config) (*Model, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	samples := GenerateSynthetic(cfg.Seed, cfg.SamplesPerClass)
	rows := make([][NumFeatures]float64, len(samples))
	labels := make([]int, len(samples))
	for i, s := range samples {
		rows[i] = s.Features.vector()
		labels[i] = classIndex(s.Label)
	}

	scaler := FitScaler(rows)
	scaled := make([][NumFeatures]float64, len(rows))
	for i, r := range rows {
		scaled[i] = scaler.Transform(r)
	}

	maxFeatures := cfg.MaxFeatures
	if maxFeatures == 0 {
		maxFeatures = int(math.Sqrt(NumFeatures))
	}
	forest := fitForest(scaled, labels, numClasses, forestParams{
		trees:       cfg.Trees,
		maxFeatures: maxFeatures,
		seed:        cfg.Seed,
	})
	return &Model{cfg: cfg, scaler: scaler, forest: forest}, nil
}

// Config returns the configuration the model was trained with.
func (m *Model) Config() Config { return m.cfg }

// Classify predicts the market state. Confidence is the largest class
// probability; ties resolve to the first label in model.Trends.
func (m *Model) Classify(f Features) (model.Verdict, error) {
	if !f.finite() {
		return model.Verdict{}, ErrInvalidFeatures
	}
	proba := m.forest.PredictProba(m.scaler.Transform(f.vector()))
	best := 0
	for c := 1; c < len(proba); c++ {
		if proba[c] > proba[best] {
			best = c
		}
	}
	return model.Verdict{
		Label:         model.Trends[best],
		Confidence:    proba[best],
		Probabilities: proba,
	}, nil
}
