package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"cryptoRebalancer/internal/ports"
)

// setRequiredEnv sets the variables without which LoadConfig always fails.
func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("KORBIT_API_KEY", "test-key")
	t.Setenv("KORBIT_API_SECRET", "test-secret")
}

func TestLoadConfigDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "btc_krw", cfg.Symbol)
	assert.Equal(t, 0.4, cfg.TargetCashRatio)
	assert.Equal(t, 10000.0, cfg.MinTradeAmount)
	assert.Equal(t, 0.7, cfg.ConfidenceThreshold)
	assert.Equal(t, CandleSourceBinance, cfg.CandleSource)
	assert.Equal(t, "1m", cfg.CandleInterval)
	assert.Equal(t, 100, cfg.CandleLimit)
	assert.Equal(t, 14, cfg.RSIPeriod)
	assert.Equal(t, 30.0, cfg.RSIOversold)
	assert.Equal(t, 70.0, cfg.RSIOverbought)
	assert.Equal(t, 20, cfg.EMAPeriod)
	assert.Equal(t, 12, cfg.MACDFast)
	assert.Equal(t, 26, cfg.MACDSlow)
	assert.Equal(t, 9, cfg.MACDSignal)
	assert.Equal(t, 30*time.Second, cfg.CheckInterval)
	assert.Equal(t, 5*time.Second, cfg.StopTimeout)
	assert.Equal(t, "./data/rebalancer.db", cfg.JournalDBPath)
	assert.Equal(t, zapcore.InfoLevel, cfg.LogLevel)
}

func TestLoadConfigOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SYMBOL", "ETH_KRW")
	t.Setenv("TARGET_CASH_RATIO", "0.5")
	t.Setenv("CANDLE_SOURCE", "korbit")
	t.Setenv("CHECK_INTERVAL_SECONDS", "60")
	t.Setenv("LOG_LEVEL", "DEBUG")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "eth_krw", cfg.Symbol, "symbol must be lowercased")
	assert.Equal(t, 0.5, cfg.TargetCashRatio)
	assert.Equal(t, CandleSourceKorbit, cfg.CandleSource)
	assert.Equal(t, 60*time.Second, cfg.CheckInterval)
	assert.Equal(t, zapcore.DebugLevel, cfg.LogLevel)
}

func TestLoadConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantMsg string
	}{
		{
			name:    "missing API key",
			env:     map[string]string{"KORBIT_API_KEY": ""},
			wantMsg: "KORBIT_API_KEY",
		},
		{
			name:    "target ratio out of range",
			env:     map[string]string{"TARGET_CASH_RATIO": "1.5"},
			wantMsg: "TARGET_CASH_RATIO",
		},
		{
			name:    "target ratio of zero",
			env:     map[string]string{"TARGET_CASH_RATIO": "0"},
			wantMsg: "TARGET_CASH_RATIO",
		},
		{
			name:    "negative minimum trade amount",
			env:     map[string]string{"MIN_TRADE_AMOUNT": "-1"},
			wantMsg: "MIN_TRADE_AMOUNT",
		},
		{
			name:    "confidence threshold of one",
			env:     map[string]string{"CONFIDENCE_THRESHOLD": "1.0"},
			wantMsg: "CONFIDENCE_THRESHOLD",
		},
		{
			name:    "unknown candle source",
			env:     map[string]string{"CANDLE_SOURCE": "kraken"},
			wantMsg: "CANDLE_SOURCE",
		},
		{
			name:    "symbol without separator",
			env:     map[string]string{"SYMBOL": "btckrw"},
			wantMsg: "SYMBOL",
		},
		{
			name:    "MACD fast not below slow",
			env:     map[string]string{"MACD_FAST": "26", "MACD_SLOW": "26"},
			wantMsg: "MACD_FAST",
		},
		{
			name:    "non-positive check interval",
			env:     map[string]string{"CHECK_INTERVAL_SECONDS": "0"},
			wantMsg: "CHECK_INTERVAL_SECONDS",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequiredEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg, err := LoadConfig()
			require.Error(t, err)
			assert.ErrorIs(t, err, ports.ErrConfigurationError)
			assert.Contains(t, err.Error(), tt.wantMsg)
			assert.Nil(t, cfg)
		})
	}
}
