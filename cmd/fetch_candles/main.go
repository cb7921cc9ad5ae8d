package main

import (
	"context"
	"cryptoRebalancer/config"
	"cryptoRebalancer/internal/adapters/binanceclient"
	"cryptoRebalancer/internal/adapters/logger"
	"cryptoRebalancer/internal/utils"
	"fmt"
	"log"
	"time"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err) // Use standard log before logger is ready
	}

	// 2. Initialize Logger
	appLogger, err := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize logger: %v", err)
	}
	defer appLogger.Sync()
	appLogger.Info(context.Background(), "Logger initialized", map[string]interface{}{"level": cfg.LogLevel.String()})

	// 3. Initialize Candle Provider (Binance Adapter)
	binanceClient, err := binanceclient.New(binanceclient.Config{
		APIKey:    cfg.BinanceAPIKey,
		SecretKey: cfg.BinanceAPISecret,
		Logger:    appLogger,
	})
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize Binance client")
		log.Fatalf("FATAL: Failed to initialize Binance client: %v", err)
	}
	appLogger.Info(context.Background(), "Binance client initialized")

	symbol := cfg.Symbol
	interval := cfg.CandleInterval
	limit := cfg.CandleLimit

	fmt.Printf("Fetching %d %s candles for %s...\n", limit, interval, symbol)
	candles, err := binanceClient.FetchCandles(context.Background(), symbol, interval, limit)
	if err != nil {
		appLogger.Error(context.Background(), err, "Error fetching candles")
		log.Fatalf("Error fetching candles: %v", err)
	}
	appLogger.Info(context.Background(), "Fetched candles", map[string]interface{}{"count": len(candles)})

	filename := fmt.Sprintf("data/%s_%s_%s.csv", symbol, interval, time.Now().Format("20060102"))
	err = utils.WriteCandlesToCSV(candles, symbol, interval, filename)
	if err != nil {
		appLogger.Error(context.Background(), err, "Error writing CSV")
		log.Fatalf("Error writing CSV: %v", err)
	}
	appLogger.Info(context.Background(), "Saved to", map[string]interface{}{"filename": filename})
}
