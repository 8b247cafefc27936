package classifier

import (
	"math"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MarketScout/internal/model"
)

var (
	sharedOnce  sync.Once
	sharedModel *Model
	sharedErr   error
)

func defaultModel(t *testing.T) *Model {
	t.Helper()
	sharedOnce.Do(func() {
		sharedModel, sharedErr = Bootstrap(DefaultConfig())
	})
	require.NoError(t, sharedErr)
	return sharedModel
}

func TestGenerateSynthetic_Archetypes(t *testing.T) {
	samples := GenerateSynthetic(7, 200)
	require.Len(t, samples, 600)

	perLabel := map[model.Trend]int{}
	for _, s := range samples {
		perLabel[s.Label]++
		f := s.Features
		switch s.Label {
		case model.TrendBullish:
			assert.Greater(t, s.Price, f.EMAFast)
			assert.Greater(t, f.EMAFast, f.EMASlow)
			assert.True(t, f.RSI >= 55 && f.RSI <= 80)
			assert.InDelta(t, 0.02*s.Price, f.ATR, 1e-9)
		case model.TrendBearish:
			assert.Less(t, s.Price, f.EMAFast)
			assert.Less(t, f.EMAFast, f.EMASlow)
			assert.True(t, f.RSI >= 20 && f.RSI <= 45)
			assert.InDelta(t, 0.02*s.Price, f.ATR, 1e-9)
		case model.TrendNeutral:
			assert.InDelta(t, s.Price, f.EMAFast, 0.02*s.Price+1e-9)
			assert.True(t, f.RSI >= 40 && f.RSI <= 60)
			assert.InDelta(t, 0.01*s.Price, f.ATR, 1e-9)
		default:
			t.Fatalf("unexpected label %q", s.Label)
		}
	}
	assert.Equal(t, 200, perLabel[model.TrendBullish])
	assert.Equal(t, 200, perLabel[model.TrendBearish])
	assert.Equal(t, 200, perLabel[model.TrendNeutral])
}

func TestGenerateSynthetic_Seeded(t *testing.T) {
	assert.Equal(t, GenerateSynthetic(42, 50), GenerateSynthetic(42, 50))
	assert.NotEqual(t, GenerateSynthetic(42, 50), GenerateSynthetic(43, 50))
}

func TestFitScaler(t *testing.T) {
	rows := [][NumFeatures]float64{
		{1, 10, 5, 0},
		{3, 20, 5, 0},
		{5, 30, 5, 0},
	}
	s := FitScaler(rows)
	assert.InDelta(t, 3.0, s.Mean[0], 1e-12)
	assert.InDelta(t, math.Sqrt(8.0/3.0), s.Scale[0], 1e-12)
	assert.Equal(t, 1.0, s.Scale[2], "constant feature keeps unit scale")

	var sum, sq float64
	for _, r := range rows {
		v := s.Transform(r)[1]
		sum += v
		sq += v * v
	}
	assert.InDelta(t, 0.0, sum/3, 1e-12)
	assert.InDelta(t, 1.0, sq/3, 1e-12)
}

func TestForest_SeparableData(t *testing.T) {
	var rows [][NumFeatures]float64
	var labels []int
	for i := 0; i < 60; i++ {
		v := float64(i)
		rows = append(rows, [NumFeatures]float64{v, v, v, v})
		labels = append(labels, i/20)
	}
	f := fitForest(rows, labels, 3, forestParams{trees: 15, maxFeatures: 2, seed: 1})

	for _, tc := range []struct {
		x    float64
		want int
	}{{2, 0}, {30, 1}, {55, 2}} {
		proba := f.PredictProba([NumFeatures]float64{tc.x, tc.x, tc.x, tc.x})
		total := 0.0
		best := 0
		for c, p := range proba {
			total += p
			if p > proba[best] {
				best = c
			}
		}
		assert.InDelta(t, 1.0, total, 1e-9)
		assert.Equal(t, tc.want, best, "x=%v", tc.x)
	}
}

func TestClassify_Archetypes(t *testing.T) {
	m := defaultModel(t)
	tests := []struct {
		name string
		f    Features
		want model.Trend
	}{
		{"bullish", Features{EMAFast: 145.5, EMASlow: 136.8, RSI: 68, ATR: 3.0}, model.TrendBullish},
		{"bearish", Features{EMAFast: 154.5, EMASlow: 163.8, RSI: 30, ATR: 3.0}, model.TrendBearish},
		{"neutral", Features{EMAFast: 150, EMASlow: 150, RSI: 50, ATR: 1.5}, model.TrendNeutral},
		{"flat", Features{EMAFast: 100, EMASlow: 100, RSI: 50, ATR: 0}, model.TrendNeutral},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := m.Classify(tt.f)
			require.NoError(t, err)
			assert.Equal(t, tt.want, v.Label)
			assert.Greater(t, v.Confidence, 0.0)
			assert.LessOrEqual(t, v.Confidence, 1.0)
		})
	}
}

func TestClassify_ConfidenceIsMaxProbability(t *testing.T) {
	m := defaultModel(t)
	inputs := []Features{
		{EMAFast: 10, EMASlow: 500, RSI: 0, ATR: 100},
		{EMAFast: 180, EMASlow: 120, RSI: 99, ATR: 0.1},
		{EMAFast: 120, EMASlow: 121, RSI: 47, ATR: 2.2},
	}
	for _, f := range inputs {
		v, err := m.Classify(f)
		require.NoError(t, err)
		assert.Contains(t, model.Trends, v.Label)
		require.Len(t, v.Probabilities, len(model.Trends))

		total, peak := 0.0, 0.0
		for _, p := range v.Probabilities {
			total += p
			peak = math.Max(peak, p)
		}
		assert.InDelta(t, 1.0, total, 1e-9)
		assert.Equal(t, peak, v.Confidence)
		assert.Greater(t, v.Confidence, 0.0)
		assert.LessOrEqual(t, v.Confidence, 1.0)
	}
}

func TestClassify_RejectsNonFinite(t *testing.T) {
	m := defaultModel(t)
	_, err := m.Classify(Features{EMAFast: 100, EMASlow: 100, RSI: 50, ATR: math.NaN()})
	assert.ErrorIs(t, err, ErrInvalidFeatures)
	_, err = m.Classify(Features{EMAFast: math.Inf(1), EMASlow: 100, RSI: 50, ATR: 1})
	assert.ErrorIs(t, err, ErrInvalidFeatures)
}

func TestBootstrap_SameSeedSameModel(t *testing.T) {
	cfg := Config{Seed: 9, Trees: 10, SamplesPerClass: 200}
	a, err := Bootstrap(cfg)
	require.NoError(t, err)
	b, err := Bootstrap(cfg)
	require.NoError(t, err)

	f := Features{EMAFast: 131, EMASlow: 127, RSI: 57, ATR: 2.1}
	va, err := a.Classify(f)
	require.NoError(t, err)
	vb, err := b.Classify(f)
	require.NoError(t, err)
	assert.Equal(t, va, vb)
	assert.Equal(t, a.scaler, b.scaler)
}

func TestBootstrap_InvalidConfig(t *testing.T) {
	_, err := Bootstrap(Config{Trees: 0, SamplesPerClass: 10})
	assert.Error(t, err)
	_, err = Bootstrap(Config{Trees: 1, SamplesPerClass: 0})
	assert.Error(t, err)
	_, err = Bootstrap(Config{Trees: 1, SamplesPerClass: 1, MaxFeatures: 5})
	assert.Error(t, err)
}

func TestLazy_BootstrapsOnce(t *testing.T) {
	l := NewLazy(Config{Seed: 3, Trees: 5, SamplesPerClass: 100})
	var calls atomic.Int32
	l.OnBootstrap = func(time.Duration, error) { calls.Add(1) }
	assert.False(t, l.Ready())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := l.Classify(Features{EMAFast: 100, EMASlow: 100, RSI: 50, ATR: 1})
			assert.NoError(t, err)
			assert.Contains(t, model.Trends, v.Label)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	assert.True(t, l.Ready())
}

func TestLazy_PropagatesBootstrapError(t *testing.T) {
	l := NewLazy(Config{})
	_, err := l.Classify(Features{})
	assert.Error(t, err)
}
