package domain

import "time"

// Candle represents a single OHLCV bar.
type Candle struct {
	OpenTime time.Time // Start time of the interval
	Open     float64   // Opening price
	High     float64   // Highest price
	Low      float64   // Lowest price
	Close    float64   // Closing price
	Volume   float64   // Traded volume
}

// Closes extracts the closing prices from a time-ascending candle series.
// The returned slice is a fresh copy; the candle series itself is never mutated.
func Closes(candles []Candle) []float64 {
	closes := make([]float64, len(candles))
	for i, c := range candles {
		closes[i] = c.Close
	}
	return closes
}
