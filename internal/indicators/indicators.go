// Package indicators provides pure technical-indicator functions over a
// closes-only price series. All functions return full series aligned with
// their input; entries that cannot be computed from the available history
// are NaN.
package indicators

import "math"

// MinInformativePoints is the minimum series length for any signal derived
// from these indicators to be considered informative.
const MinInformativePoints = 50

// RSI computes the Relative Strength Index using a simple rolling mean of
// gains and losses over the period (not Wilder's exponential smoothing; the
// rolling-mean form is the documented behavior this bot reproduces).
// The first `period` entries are NaN. A zero rolling loss yields 100.
func RSI(closes []float64, period int) []float64 {
	rsi := make([]float64, len(closes))
	for i := range rsi {
		rsi[i] = math.NaN()
	}
	if period <= 0 || len(closes) <= period {
		return rsi
	}

	for t := period; t < len(closes); t++ {
		var gain, loss float64
		for i := t - period + 1; i <= t; i++ {
			delta := closes[i] - closes[i-1]
			if delta > 0 {
				gain += delta
			} else {
				loss -= delta
			}
		}
		gain /= float64(period)
		loss /= float64(period)

		if loss == 0 {
			rsi[t] = 100
			continue
		}
		rs := gain / loss
		rsi[t] = 100 - 100/(1+rs)
	}
	return rsi
}

// EMA computes the standard exponential moving average seeded with the first
// value: ema[t] = alpha*close[t] + (1-alpha)*ema[t-1], alpha = 2/(period+1).
func EMA(closes []float64, period int) []float64 {
	ema := make([]float64, len(closes))
	if len(closes) == 0 || period <= 0 {
		return ema
	}

	alpha := 2.0 / float64(period+1)
	ema[0] = closes[0]
	for t := 1; t < len(closes); t++ {
		ema[t] = alpha*closes[t] + (1-alpha)*ema[t-1]
	}
	return ema
}

// MACD computes the Moving Average Convergence Divergence:
// macdLine = EMA(closes, fast) - EMA(closes, slow), and signalLine =
// EMA(macdLine, signalPeriod). Both full series are returned; downstream
// consumers read only the last value of each.
func MACD(closes []float64, fast, slow, signalPeriod int) (macdLine, signalLine []float64) {
	fastEMA := EMA(closes, fast)
	slowEMA := EMA(closes, slow)

	macdLine = make([]float64, len(closes))
	for i := range closes {
		macdLine[i] = fastEMA[i] - slowEMA[i]
	}
	signalLine = EMA(macdLine, signalPeriod)
	return macdLine, signalLine
}
