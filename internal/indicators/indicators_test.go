package indicators

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func series(n int, f func(i int) float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = f(i)
	}
	return out
}

func TestSMA(t *testing.T) {
	closes := series(25, func(i int) float64 { return float64(i + 1) })

	got := SMA(closes, 20)
	require.NotNil(t, got)
	assert.InDelta(t, 15.5, *got, 1e-9) // mean(6..25)

	assert.Nil(t, SMA(closes, 50))
	assert.Nil(t, SMA(nil, 20))
}

func TestRSI(t *testing.T) {
	up := series(15, func(i int) float64 { return float64(i) })
	assert.Equal(t, 100.0, *RSI(up, 14))

	down := series(15, func(i int) float64 { return float64(-i) })
	assert.Equal(t, 0.0, *RSI(down, 14))

	flat := series(15, func(int) float64 { return 10 })
	assert.Equal(t, 50.0, *RSI(flat, 14))

	// 번갈아 +2 / -1 → avg gain 7*2/14, avg loss 7*1/14 → RS 2 → 66.67
	zigzag := []float64{100}
	for i := 0; i < 14; i++ {
		if i%2 == 0 {
			zigzag = append(zigzag, zigzag[len(zigzag)-1]+2)
		} else {
			zigzag = append(zigzag, zigzag[len(zigzag)-1]-1)
		}
	}
	assert.InDelta(t, 66.6667, *RSI(zigzag, 14), 1e-3)

	assert.Nil(t, RSI(up[:14], 14))
}

func TestBollinger(t *testing.T) {
	flat := series(20, func(int) float64 { return 50 })
	b := Bollinger(flat, 20, 2)
	require.NotNil(t, b)
	assert.Equal(t, Bands{Upper: 50, Middle: 50, Lower: 50}, *b)

	alt := series(20, func(i int) float64 { return float64(10 + 2*(i%2)) }) // 10,12,...
	b = Bollinger(alt, 20, 2)
	require.NotNil(t, b)
	sd := math.Sqrt(20.0 / 19.0)
	assert.InDelta(t, 11, b.Middle, 1e-9)
	assert.InDelta(t, 11+2*sd, b.Upper, 1e-9)
	assert.InDelta(t, 11-2*sd, b.Lower, 1e-9)

	assert.Nil(t, Bollinger(alt[:19], 20, 2))
}

func TestEMA(t *testing.T) {
	constant := series(30, func(int) float64 { return 7 })
	ema := EMA(constant, 12)
	assert.True(t, math.IsNaN(ema[10]))
	assert.InDelta(t, 7, ema[11], 1e-12)
	assert.InDelta(t, 7, ema[29], 1e-12)

	// span 1 → α=1 → the series itself
	vals := []float64{3, 1, 4, 1, 5}
	assert.Equal(t, vals, EMA(vals, 1))
}

func TestMACD(t *testing.T) {
	constant := series(40, func(int) float64 { return 100 })
	m := MACDOf(constant, 12, 26, 9)
	require.NotNil(t, m)
	assert.InDelta(t, 0, m.Line, 1e-9)
	assert.InDelta(t, 0, m.Histogram, 1e-9)

	rising := series(60, func(i int) float64 { return 100 + float64(i) })
	m = MACDOf(rising, 12, 26, 9)
	require.NotNil(t, m)
	assert.Greater(t, m.Line, 0.0, "fast EMA above slow EMA in an uptrend")

	assert.Nil(t, MACDOf(rising[:33], 12, 26, 9))
	assert.NotNil(t, MACDOf(rising[:34], 12, 26, 9))
}

func TestCompute(t *testing.T) {
	closes := series(60, func(i int) float64 { return 100 + float64(i%5) })

	s := Compute(closes)
	assert.Equal(t, 60, s.Points)
	assert.Equal(t, closes[59], s.Last)
	assert.NotNil(t, s.SMA20)
	assert.NotNil(t, s.SMA50)
	assert.Nil(t, s.SMA200, "insufficient history")
	assert.NotNil(t, s.RSI14)
	assert.NotNil(t, s.Bollinger)
	assert.NotNil(t, s.MACD)

	basic := s.Basic()
	assert.Nil(t, basic.Bollinger)
	assert.Nil(t, basic.MACD)
	assert.NotNil(t, s.MACD, "Basic returns a copy")

	empty := Compute(nil)
	assert.Equal(t, 0, empty.Points)
	assert.Nil(t, empty.SMA20)
}
