package indicators

import "math"

// Window sizes
const (
	SMAShort  = 20
	SMAMedium = 50
	SMALong   = 200
	RSIPeriod = 14

	BollingerWindow = 20
	BollingerK      = 2.0

	MACDFast   = 12
	MACDSlow   = 26
	MACDSignal = 9
)

// Bands is a Bollinger band triple
type Bands struct {
	Upper  float64 `json:"upper"`
	Middle float64 `json:"middle"`
	Lower  float64 `json:"lower"`
}

// MACD is the line, its signal and the histogram
type MACD struct {
	Line      float64 `json:"line"`
	Signal    float64 `json:"signal"`
	Histogram float64 `json:"histogram"`
}

// Snapshot holds the latest value of every indicator.
// nil = 이력이 부족해 계산 불가
type Snapshot struct {
	Last      float64  `json:"last"`
	Points    int      `json:"points"`
	SMA20     *float64 `json:"sma20"`
	SMA50     *float64 `json:"sma50"`
	SMA200    *float64 `json:"sma200"`
	RSI14     *float64 `json:"rsi14"`
	Bollinger *Bands   `json:"bollinger,omitempty"`
	MACD      *MACD    `json:"macd,omitempty"`
}

// Compute calculates every indicator over closes (oldest first)
// ⭐ SSOT: 기술적 지표 계산은 여기서만
func Compute(closes []float64) Snapshot {
	s := Snapshot{Points: len(closes)}
	if len(closes) == 0 {
		return s
	}
	s.Last = closes[len(closes)-1]

	s.SMA20 = SMA(closes, SMAShort)
	s.SMA50 = SMA(closes, SMAMedium)
	s.SMA200 = SMA(closes, SMALong)
	s.RSI14 = RSI(closes, RSIPeriod)
	s.Bollinger = Bollinger(closes, BollingerWindow, BollingerK)
	s.MACD = MACDOf(closes, MACDFast, MACDSlow, MACDSignal)

	return s
}

// Basic drops the indicators reserved for paid plans (Bollinger, MACD)
func (s Snapshot) Basic() Snapshot {
	s.Bollinger = nil
	s.MACD = nil
	return s
}

// SMA is the mean of the last window closes
func SMA(closes []float64, window int) *float64 {
	if window <= 0 || len(closes) < window {
		return nil
	}
	v := mean(closes[len(closes)-window:])
	return &v
}

// RSI uses simple averages of gains and losses over the last period changes
func RSI(closes []float64, period int) *float64 {
	if period <= 0 || len(closes) < period+1 {
		return nil
	}

	var gains, losses float64
	tail := closes[len(closes)-period-1:]
	for i := 1; i < len(tail); i++ {
		change := tail[i] - tail[i-1]
		if change > 0 {
			gains += change
		} else {
			losses -= change
		}
	}

	var v float64
	switch {
	case gains == 0 && losses == 0:
		v = 50 // 변동 없음
	case losses == 0:
		v = 100
	default:
		rs := (gains / float64(period)) / (losses / float64(period))
		v = 100 - 100/(1+rs)
	}
	return &v
}

// Bollinger returns middle ± k sample standard deviations
func Bollinger(closes []float64, window int, k float64) *Bands {
	if window < 2 || len(closes) < window {
		return nil
	}

	tail := closes[len(closes)-window:]
	m := mean(tail)

	var ss float64
	for _, c := range tail {
		ss += (c - m) * (c - m)
	}
	sd := math.Sqrt(ss / float64(window-1))

	return &Bands{Upper: m + k*sd, Middle: m, Lower: m - k*sd}
}

// MACDOf computes EMA(fast) - EMA(slow) and its signal EMA
func MACDOf(closes []float64, fast, slow, signal int) *MACD {
	if len(closes) < slow+signal-1 {
		return nil
	}

	fastEMA := EMA(closes, fast)
	slowEMA := EMA(closes, slow)

	// MACD 라인은 slow EMA 가 유효한 시점부터
	line := make([]float64, 0, len(closes)-slow+1)
	for i := slow - 1; i < len(closes); i++ {
		line = append(line, fastEMA[i]-slowEMA[i])
	}

	sig := EMA(line, signal)
	last := len(line) - 1
	return &MACD{
		Line:      line[last],
		Signal:    sig[last],
		Histogram: line[last] - sig[last],
	}
}

// EMA returns the adjusted exponential moving average series
// (weights (1-α)^i, α = 2/(span+1)). Values before span points are NaN.
func EMA(values []float64, span int) []float64 {
	out := make([]float64, len(values))
	alpha := 2 / (float64(span) + 1)

	var num, den float64
	for i, v := range values {
		num = v + (1-alpha)*num
		den = 1 + (1-alpha)*den
		if i+1 < span {
			out[i] = math.NaN()
			continue
		}
		out[i] = num / den
	}
	return out
}

func mean(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
