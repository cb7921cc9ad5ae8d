package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap/zapcore"

	"cryptoRebalancer/internal/adapters/logger"
	"cryptoRebalancer/internal/ports"
)

// CandleSource selects which exchange supplies the candle series used for
// signal generation.
type CandleSource string

const (
	CandleSourceBinance CandleSource = "binance"
	CandleSourceKorbit  CandleSource = "korbit"
)

// Config holds all application configuration. Validation failures are fatal
// at load time; the running loop never sees an invalid configuration.
type Config struct {
	// Korbit API (trading gateway)
	KorbitAPIKey    string
	KorbitAPISecret string
	KorbitBaseURL   string

	// Binance API (candle source; klines are public, keys are optional)
	BinanceAPIKey    string
	BinanceAPISecret string

	// Trading parameters
	Symbol              string  // e.g. "btc_krw"
	TargetCashRatio     float64 // e.g. 0.4; target asset ratio is 1 - this
	MinTradeAmount      float64 // quote currency units, e.g. 10000
	ConfidenceThreshold float64 // e.g. 0.7

	// Signal parameters
	CandleSource   CandleSource
	CandleInterval string // e.g. "1m"
	CandleLimit    int    // e.g. 100
	RSIPeriod      int    // e.g. 14
	RSIOversold    float64
	RSIOverbought  float64
	EMAPeriod      int // e.g. 20
	MACDFast       int // e.g. 12
	MACDSlow       int // e.g. 26
	MACDSignal     int // e.g. 9

	// Loop timing
	CheckInterval time.Duration // e.g. 30s
	StopTimeout   time.Duration // e.g. 5s

	// Journal
	JournalDBPath string

	// Logging
	LogLevel zapcore.Level
}

// LoadConfig loads configuration from environment variables (.env file).
func LoadConfig() (*Config, error) {
	// Load .env file, but don't fail if it doesn't exist (allow pure env vars)
	_ = godotenv.Load()

	cfg := &Config{}
	var err error
	var errs []string

	// Korbit API
	cfg.KorbitAPIKey = getEnv("KORBIT_API_KEY", "")
	cfg.KorbitAPISecret = getEnv("KORBIT_API_SECRET", "")
	cfg.KorbitBaseURL = getEnv("KORBIT_BASE_URL", "https://api.korbit.co.kr")
	if cfg.KorbitAPIKey == "" {
		errs = append(errs, "KORBIT_API_KEY must be set")
	}
	if cfg.KorbitAPISecret == "" {
		errs = append(errs, "KORBIT_API_SECRET must be set")
	}

	// Binance API (optional: klines are a public endpoint)
	cfg.BinanceAPIKey = getEnv("BINANCE_API_KEY", "")
	cfg.BinanceAPISecret = getEnv("BINANCE_API_SECRET", "")

	// Trading parameters
	cfg.Symbol = strings.ToLower(getEnv("SYMBOL", "btc_krw"))
	if !strings.Contains(cfg.Symbol, "_") {
		errs = append(errs, "SYMBOL must be of the form base_quote (e.g. btc_krw)")
	}

	cfg.TargetCashRatio, err = getEnvAsFloatRequired("TARGET_CASH_RATIO", 0.4)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid TARGET_CASH_RATIO: %v", err))
	} else if cfg.TargetCashRatio <= 0 || cfg.TargetCashRatio >= 1 {
		errs = append(errs, "TARGET_CASH_RATIO must be between 0.0 and 1.0 (exclusive)")
	}

	cfg.MinTradeAmount, err = getEnvAsFloatRequired("MIN_TRADE_AMOUNT", 10000)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid MIN_TRADE_AMOUNT: %v", err))
	} else if cfg.MinTradeAmount <= 0 {
		errs = append(errs, "MIN_TRADE_AMOUNT must be positive")
	}

	cfg.ConfidenceThreshold, err = getEnvAsFloatRequired("CONFIDENCE_THRESHOLD", 0.7)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid CONFIDENCE_THRESHOLD: %v", err))
	} else if cfg.ConfidenceThreshold < 0 || cfg.ConfidenceThreshold >= 1 {
		errs = append(errs, "CONFIDENCE_THRESHOLD must be in [0.0, 1.0)")
	}

	// Signal parameters
	candleSource := strings.ToLower(getEnv("CANDLE_SOURCE", string(CandleSourceBinance)))
	switch CandleSource(candleSource) {
	case CandleSourceBinance, CandleSourceKorbit:
		cfg.CandleSource = CandleSource(candleSource)
	default:
		errs = append(errs, fmt.Sprintf("CANDLE_SOURCE must be %q or %q", CandleSourceBinance, CandleSourceKorbit))
	}

	cfg.CandleInterval = getEnv("CANDLE_INTERVAL", "1m")
	cfg.CandleLimit = getEnvAsInt("CANDLE_LIMIT", 100)
	if cfg.CandleLimit <= 0 {
		errs = append(errs, "CANDLE_LIMIT must be positive")
	}

	cfg.RSIPeriod = getEnvAsInt("RSI_PERIOD", 14)
	cfg.RSIOversold = getEnvAsFloat("RSI_OVERSOLD", 30.0)
	cfg.RSIOverbought = getEnvAsFloat("RSI_OVERBOUGHT", 70.0)
	cfg.EMAPeriod = getEnvAsInt("EMA_PERIOD", 20)
	cfg.MACDFast = getEnvAsInt("MACD_FAST", 12)
	cfg.MACDSlow = getEnvAsInt("MACD_SLOW", 26)
	cfg.MACDSignal = getEnvAsInt("MACD_SIGNAL", 9)

	if cfg.RSIPeriod <= 0 || cfg.EMAPeriod <= 0 || cfg.MACDFast <= 0 || cfg.MACDSlow <= 0 || cfg.MACDSignal <= 0 {
		errs = append(errs, "indicator periods (RSI, EMA, MACD) must be positive")
	}
	if cfg.MACDFast >= cfg.MACDSlow {
		errs = append(errs, "MACD_FAST must be less than MACD_SLOW")
	}
	if cfg.RSIOverbought <= cfg.RSIOversold || cfg.RSIOverbought > 100 || cfg.RSIOversold < 0 {
		errs = append(errs, "invalid RSI thresholds (RSI_OVERBOUGHT must be > RSI_OVERSOLD, between 0-100)")
	}

	// Loop timing
	checkIntervalSeconds := getEnvAsInt("CHECK_INTERVAL_SECONDS", 30)
	if checkIntervalSeconds <= 0 {
		errs = append(errs, "CHECK_INTERVAL_SECONDS must be positive")
	}
	cfg.CheckInterval = time.Duration(checkIntervalSeconds) * time.Second

	stopTimeoutSeconds := getEnvAsInt("STOP_TIMEOUT_SECONDS", 5)
	if stopTimeoutSeconds <= 0 {
		errs = append(errs, "STOP_TIMEOUT_SECONDS must be positive")
	}
	cfg.StopTimeout = time.Duration(stopTimeoutSeconds) * time.Second

	// Journal
	cfg.JournalDBPath = getEnv("JOURNAL_DB_PATH", "./data/rebalancer.db")

	// Logging
	cfg.LogLevel = logger.ParseLevel(getEnv("LOG_LEVEL", "INFO"))

	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed: %s: %w", strings.Join(errs, "; "), ports.ErrConfigurationError)
	}

	return cfg, nil
}

// --- Env Var Helpers ---

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloatRequired(key string, defaultValue float64) (float64, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue, nil
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid float value '%s' for key %s: %w", valueStr, key, err)
	}
	return value, nil
}
