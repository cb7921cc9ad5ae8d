package main

import (
	"context"
	"log" // Use standard log only for fatal errors before the logger is set up
	"os"
	ossignal "os/signal"
	"syscall"

	"cryptoRebalancer/config"
	"cryptoRebalancer/internal/adapters/binanceclient"
	"cryptoRebalancer/internal/adapters/korbitclient"
	"cryptoRebalancer/internal/adapters/logger"
	"cryptoRebalancer/internal/adapters/sqlite"
	"cryptoRebalancer/internal/app"
	"cryptoRebalancer/internal/domain"
	"cryptoRebalancer/internal/portfolio"
	"cryptoRebalancer/internal/ports"
	"cryptoRebalancer/internal/rebalance"
	"cryptoRebalancer/internal/signal"
)

func main() {
	ctx := context.Background()

	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}

	// 2. Initialize Logger
	appLogger, err := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize logger: %v", err)
	}
	defer appLogger.Sync()
	appLogger.Info(ctx, "Logger initialized", map[string]interface{}{"level": cfg.LogLevel.String()})

	// 3. Initialize Cycle Journal
	journal, err := sqlite.NewJournal(sqlite.Config{
		DBPath: cfg.JournalDBPath,
		Logger: appLogger,
	})
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to initialize cycle journal")
		log.Fatalf("FATAL: Failed to initialize cycle journal: %v", err)
	}
	defer func() {
		if err := journal.Close(); err != nil {
			appLogger.Error(ctx, err, "Error closing cycle journal")
		}
	}()

	// 4. Initialize Trading Gateway (Korbit Adapter)
	korbitClient, err := korbitclient.New(korbitclient.Config{
		APIKey:    cfg.KorbitAPIKey,
		APISecret: cfg.KorbitAPISecret,
		BaseURL:   cfg.KorbitBaseURL,
		Logger:    appLogger,
	})
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to initialize Korbit client")
		log.Fatalf("FATAL: Failed to initialize Korbit client: %v", err)
	}
	appLogger.Info(ctx, "Korbit client initialized")

	// 5. Initialize Market Data Provider
	var market ports.MarketDataProvider
	switch cfg.CandleSource {
	case config.CandleSourceKorbit:
		market = korbitClient
		appLogger.Info(ctx, "Using Korbit as candle source")
	default:
		binanceClient, err := binanceclient.New(binanceclient.Config{
			APIKey:    cfg.BinanceAPIKey,
			SecretKey: cfg.BinanceAPISecret,
			Logger:    appLogger,
		})
		if err != nil {
			appLogger.Error(ctx, err, "FATAL: Failed to initialize Binance client")
			log.Fatalf("FATAL: Failed to initialize Binance client: %v", err)
		}
		market = binanceClient
		appLogger.Info(ctx, "Using Binance as candle source")
	}

	// 6. Initialize Core Components
	generator, err := signal.NewGenerator(signal.Config{
		RSIPeriod:     cfg.RSIPeriod,
		RSIOversold:   cfg.RSIOversold,
		RSIOverbought: cfg.RSIOverbought,
		EMAPeriod:     cfg.EMAPeriod,
		MACDFast:      cfg.MACDFast,
		MACDSlow:      cfg.MACDSlow,
		MACDSignal:    cfg.MACDSignal,
	}, appLogger)
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to initialize signal generator")
		log.Fatalf("FATAL: Failed to initialize signal generator: %v", err)
	}

	snapshotter, err := portfolio.NewSnapshotter(korbitClient, appLogger)
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to initialize portfolio snapshotter")
		log.Fatalf("FATAL: Failed to initialize portfolio snapshotter: %v", err)
	}

	sizer, err := rebalance.NewSizer(rebalance.Config{
		Target: domain.RebalanceTarget{
			CashRatio:  cfg.TargetCashRatio,
			AssetRatio: 1 - cfg.TargetCashRatio,
		},
		MinTradeAmount:      cfg.MinTradeAmount,
		ConfidenceThreshold: cfg.ConfidenceThreshold,
	}, appLogger)
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to initialize position sizer")
		log.Fatalf("FATAL: Failed to initialize position sizer: %v", err)
	}

	// 7. Initialize Rebalancing Service
	service, err := app.NewService(app.Config{
		CandleInterval: cfg.CandleInterval,
		CandleLimit:    cfg.CandleLimit,
		CheckInterval:  cfg.CheckInterval,
		StopTimeout:    cfg.StopTimeout,
	}, appLogger, market, korbitClient, snapshotter, generator, sizer, journal)
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to initialize rebalancing service")
		log.Fatalf("FATAL: Failed to initialize rebalancing service: %v", err)
	}
	appLogger.Info(ctx, "Rebalancing service initialized", map[string]interface{}{
		"symbol":          cfg.Symbol,
		"targetCashRatio": cfg.TargetCashRatio,
		"minTradeAmount":  cfg.MinTradeAmount,
		"checkInterval":   cfg.CheckInterval.String(),
	})

	// 8. Start the loop and wait for a shutdown signal
	service.Start(cfg.Symbol)

	sigCh := make(chan os.Signal, 1)
	ossignal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	appLogger.Info(ctx, "Received shutdown signal", map[string]interface{}{"signal": sig.String()})

	service.Stop()
	appLogger.Info(ctx, "Application finished gracefully.")
}
