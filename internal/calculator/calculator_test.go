package calculator

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MarketScout/internal/model"
)

func barsFromCloses(closes ...float64) []model.OHLCV {
	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	bars := make([]model.OHLCV, len(closes))
	for i, c := range closes {
		bars[i] = model.OHLCV{
			Time:   start.AddDate(0, 0, i),
			Open:   c,
			High:   c * 1.01,
			Low:    c * 0.99,
			Close:  c,
			Volume: 1000,
		}
	}
	return bars
}

func flat(n int, price float64) []model.OHLCV {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = price
	}
	bars := barsFromCloses(closes...)
	for i := range bars {
		bars[i].High = price
		bars[i].Low = price
	}
	return bars
}

// zigzag rises by up then falls by down, alternately.
func zigzag(n int, start, up, down float64) []model.OHLCV {
	closes := make([]float64, n)
	closes[0] = start
	for i := 1; i < n; i++ {
		if i%2 == 1 {
			closes[i] = closes[i-1] + up
		} else {
			closes[i] = closes[i-1] - down
		}
	}
	return barsFromCloses(closes...)
}

func TestEMA_SeededByFirstClose(t *testing.T) {
	bars := barsFromCloses(10, 11, 12, 13)
	ema, err := EMA(bars, 3)
	require.NoError(t, err)
	require.Len(t, ema, 4)

	assert.Equal(t, 10.0, ema[0])
	alpha := 2.0 / 4.0
	want := 10.0
	for i := 1; i < 4; i++ {
		want = alpha*bars[i].Close + (1-alpha)*want
		assert.InDelta(t, want, ema[i], 1e-12)
	}
	for _, v := range ema {
		assert.False(t, Missing(v))
	}
}

func TestEMA_EmptyAndBadWindow(t *testing.T) {
	ema, err := EMA(nil, 20)
	require.NoError(t, err)
	assert.Empty(t, ema)

	_, err = EMA(barsFromCloses(1), 0)
	assert.Error(t, err)
}

func TestSMA_Warmup(t *testing.T) {
	out, err := SMA([]float64{1, 2, 3, 4}, 3)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(out[0]))
	assert.True(t, math.IsNaN(out[1]))
	assert.InDelta(t, 2.0, out[2], 1e-12)
	assert.InDelta(t, 3.0, out[3], 1e-12)
}

func TestRSI_ShortSeriesFallsBackToNeutral(t *testing.T) {
	for n := 1; n < 14; n++ {
		bars := zigzag(n, 100, 2, 1)
		rsi, err := RSI(bars, 14, DefaultOptions())
		require.NoError(t, err)
		assert.Equal(t, NeutralRSI, Latest(rsi), "n=%d", n)

		atr, err := ATR(bars, 14, DefaultOptions())
		require.NoError(t, err)
		assert.True(t, Missing(Latest(atr)), "n=%d", n)
	}
}

func TestRSI_WarmupWithoutFallbackIsMissing(t *testing.T) {
	opts := DefaultOptions()
	opts.FallbackNeutralRSI = false
	rsi, err := RSI(zigzag(20, 100, 2, 1), 14, opts)
	require.NoError(t, err)
	for i := 0; i < 13; i++ {
		assert.True(t, Missing(rsi[i]), "index %d", i)
	}
	assert.False(t, Missing(rsi[13]))
}

func TestRSI_ZeroLossIsUndefined(t *testing.T) {
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	bars := barsFromCloses(closes...)

	rsi, err := RSI(bars, 14, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, NeutralRSI, Latest(rsi))

	opts := DefaultOptions()
	opts.FallbackNeutralRSI = false
	rsi, err = RSI(bars, 14, opts)
	require.NoError(t, err)
	assert.True(t, Missing(Latest(rsi)))
}

func TestRSI_KnownValue(t *testing.T) {
	// Window 14 over alternating +2/-1 deltas: the first window holds the
	// zero first delta, seven gains and six losses.
	bars := zigzag(14, 100, 2, 1)
	rsi, err := RSI(bars, 14, DefaultOptions())
	require.NoError(t, err)
	avgGain := 7 * 2.0 / 14
	avgLoss := 6 * 1.0 / 14
	want := 100 - 100/(1+avgGain/avgLoss)
	assert.InDelta(t, want, rsi[13], 1e-9)
}

func TestRSI_Bounded(t *testing.T) {
	series := [][]model.OHLCV{
		zigzag(80, 100, 2, 1),
		zigzag(80, 200, 1, 3),
		zigzag(80, 50, 0.5, 0.5),
		barsFromCloses(100, 90, 80, 70, 60, 50, 40, 30, 20, 15, 12, 10, 9, 8, 7, 6),
	}
	for _, smoothing := range []Smoothing{SmoothingSimple, SmoothingWilder} {
		opts := Options{Smoothing: smoothing, FallbackNeutralRSI: true}
		for _, bars := range series {
			rsi, err := RSI(bars, 14, opts)
			require.NoError(t, err)
			for i, v := range rsi {
				assert.GreaterOrEqual(t, v, 0.0, "%s index %d", smoothing, i)
				assert.LessOrEqual(t, v, 100.0, "%s index %d", smoothing, i)
			}
		}
	}
}

func TestATR_NonNegativeAndWarmup(t *testing.T) {
	bars := zigzag(40, 100, 3, 2)
	atr, err := ATR(bars, 14, DefaultOptions())
	require.NoError(t, err)
	for i, v := range atr {
		if i < 13 {
			assert.True(t, Missing(v), "index %d", i)
			continue
		}
		assert.GreaterOrEqual(t, v, 0.0)
	}
}

func TestTrueRange_UsesPreviousClose(t *testing.T) {
	bars := []model.OHLCV{
		{High: 11, Low: 9, Close: 10},
		{High: 15, Low: 14, Close: 14.5}, // gap up: |15-10| dominates
		{High: 16, Low: 10, Close: 11},   // wide bar: 16-10 dominates
	}
	tr := TrueRange(bars)
	assert.Equal(t, []float64{2, 5, 6}, tr)
}

func TestFlatSeries(t *testing.T) {
	bars := flat(60, 100)
	opts := DefaultOptions()

	fast, err := EMA(bars, 20)
	require.NoError(t, err)
	slow, err := EMA(bars, 50)
	require.NoError(t, err)
	rsi, err := RSI(bars, 14, opts)
	require.NoError(t, err)
	atr, err := ATR(bars, 14, opts)
	require.NoError(t, err)

	assert.Equal(t, 100.0, Latest(fast))
	assert.Equal(t, 100.0, Latest(slow))
	assert.Equal(t, 50.0, Latest(rsi))
	assert.Equal(t, 0.0, Latest(atr))
}

func TestWilderSmoothing(t *testing.T) {
	bars := zigzag(40, 100, 3, 2)
	opts := Options{Smoothing: SmoothingWilder, FallbackNeutralRSI: false}

	atr, err := ATR(bars, 14, opts)
	require.NoError(t, err)
	for i := 0; i < 14; i++ {
		assert.True(t, Missing(atr[i]), "index %d", i)
	}
	for i := 14; i < len(atr); i++ {
		assert.Greater(t, atr[i], 0.0)
	}

	rsi, err := RSI(bars, 14, opts)
	require.NoError(t, err)
	assert.True(t, Missing(rsi[13]))
	assert.False(t, Missing(rsi[14]))

	short, err := ATR(bars[:10], 14, opts)
	require.NoError(t, err)
	assert.True(t, Missing(Latest(short)))
}

func TestDeterministic(t *testing.T) {
	bars := zigzag(70, 120, 2.5, 1.5)
	a, err := RSI(bars, 14, DefaultOptions())
	require.NoError(t, err)
	b, err := RSI(bars, 14, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestParseSmoothing(t *testing.T) {
	s, err := ParseSmoothing("")
	require.NoError(t, err)
	assert.Equal(t, SmoothingSimple, s)
	s, err = ParseSmoothing("wilder")
	require.NoError(t, err)
	assert.Equal(t, SmoothingWilder, s)
	_, err = ParseSmoothing("hull")
	assert.Error(t, err)
}
