// Package app owns the rebalancing control loop: lifecycle, timing, error
// recovery, and the per-cycle sequencing of snapshot, signal, sizing, and
// order submission.
package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"cryptoRebalancer/internal/domain"
	"cryptoRebalancer/internal/ports"
)

// Config holds the control loop parameters.
type Config struct {
	CandleInterval string        // candle interval for signal generation, e.g. "1m"
	CandleLimit    int           // candles fetched per cycle, e.g. 100
	CheckInterval  time.Duration // sleep between the end of a cycle and the next, e.g. 30s
	StopTimeout    time.Duration // how long Stop waits for the current cycle, e.g. 5s
}

// Service runs one autonomous rebalancing loop per instance.
//
// The loop lifecycle is stopped -> running -> stopped. Start spawns a single
// worker goroutine; Stop cancels the loop's context and waits (bounded) for
// the worker to acknowledge. Cycles execute strictly sequentially: there is
// never more than one in flight, and at most one order is attempted per
// cycle.
type Service struct {
	cfg         Config
	logger      ports.Logger
	market      ports.MarketDataProvider
	gateway     ports.TradingGateway
	snapshotter ports.PortfolioSnapshotter
	generator   ports.SignalGenerator
	sizer       ports.PositionSizer
	journal     ports.CycleJournal // optional; nil disables journaling

	// mu protects the lifecycle state below; it is the only state shared
	// between the control API and the worker.
	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewService creates the rebalancing service.
func NewService(
	cfg Config,
	logger ports.Logger,
	market ports.MarketDataProvider,
	gateway ports.TradingGateway,
	snapshotter ports.PortfolioSnapshotter,
	generator ports.SignalGenerator,
	sizer ports.PositionSizer,
	journal ports.CycleJournal,
) (*Service, error) {
	if logger == nil || market == nil || gateway == nil || snapshotter == nil || generator == nil || sizer == nil {
		return nil, fmt.Errorf("missing required dependencies for rebalancing service: %w", ports.ErrConfigurationError)
	}
	if cfg.CheckInterval <= 0 {
		return nil, fmt.Errorf("check interval must be positive: %w", ports.ErrConfigurationError)
	}
	if cfg.CandleLimit <= 0 {
		return nil, fmt.Errorf("candle limit must be positive: %w", ports.ErrConfigurationError)
	}
	if cfg.CandleInterval == "" {
		return nil, fmt.Errorf("candle interval must be set: %w", ports.ErrConfigurationError)
	}
	if cfg.StopTimeout <= 0 {
		cfg.StopTimeout = 5 * time.Second
	}
	return &Service{
		cfg:         cfg,
		logger:      logger,
		market:      market,
		gateway:     gateway,
		snapshotter: snapshotter,
		generator:   generator,
		sizer:       sizer,
		journal:     journal,
	}, nil
}

// Start transitions the loop to running and spawns the cycle worker.
// Starting while already running is a no-op that logs a warning.
func (s *Service) Start(symbol string) {
	ctx := context.Background()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		s.logger.Warn(ctx, "Rebalancing loop is already running", map[string]interface{}{"symbol": symbol})
		return
	}

	loopCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	s.running = true
	s.cancel = cancel
	s.done = done

	go s.run(loopCtx, symbol, done)

	s.logger.Info(ctx, "Rebalancing loop started", map[string]interface{}{
		"symbol":        symbol,
		"checkInterval": s.cfg.CheckInterval.String(),
	})
}

// Stop cancels the loop and waits up to StopTimeout for the current cycle to
// observe the cancellation. The service transitions to stopped regardless of
// whether the wait completed cleanly; an order already in flight is not
// aborted. Stopping while already stopped is a no-op that logs a warning.
func (s *Service) Stop() {
	ctx := context.Background()

	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		s.logger.Warn(ctx, "Rebalancing loop is not running")
		return
	}
	cancel := s.cancel
	done := s.done
	s.mu.Unlock()

	cancel()
	select {
	case <-done:
		s.logger.Info(ctx, "Rebalancing loop shut down cleanly")
	case <-time.After(s.cfg.StopTimeout):
		s.logger.Warn(ctx, "Timed out waiting for the current cycle to finish",
			map[string]interface{}{"timeout": s.cfg.StopTimeout.String()})
	}

	s.mu.Lock()
	s.running = false
	s.cancel = nil
	s.done = nil
	s.mu.Unlock()

	s.logger.Info(ctx, "Rebalancing loop stopped")
}

// IsRunning reports whether the loop is currently running.
func (s *Service) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// run executes cycles until the context is cancelled. No error from a single
// cycle terminates the loop.
func (s *Service) run(ctx context.Context, symbol string, done chan struct{}) {
	defer close(done)

	for {
		if ctx.Err() != nil {
			s.logger.Info(ctx, "Cancellation observed, exiting rebalancing loop", map[string]interface{}{"symbol": symbol})
			return
		}

		s.runCycle(ctx, symbol)

		// Fixed sleep between the end of one cycle's work and the start of
		// the next; the interval is not compensated for cycle duration.
		select {
		case <-ctx.Done():
			s.logger.Info(ctx, "Cancellation observed during sleep, exiting rebalancing loop", map[string]interface{}{"symbol": symbol})
			return
		case <-time.After(s.cfg.CheckInterval):
		}
	}
}

// runCycle performs one snapshot -> signal -> decide -> (trade) pass.
// Every failure is logged with its stage and degraded to hold-and-continue.
func (s *Service) runCycle(ctx context.Context, symbol string) {
	cycleTime := time.Now().UTC()

	snap, err := s.snapshotter.Snapshot(ctx, symbol)
	if err != nil {
		s.logger.Error(ctx, err, "Portfolio snapshot failed, holding until next cycle", map[string]interface{}{
			"symbol": symbol, "cycleTime": cycleTime, "stage": "snapshot",
		})
		return
	}

	ticker, err := s.gateway.GetTicker(ctx, symbol)
	if err != nil {
		s.logger.Error(ctx, err, "Price fetch failed, holding until next cycle", map[string]interface{}{
			"symbol": symbol, "cycleTime": cycleTime, "stage": "price",
		})
		return
	}
	price := ticker.Close

	var sig domain.TradingSignal
	candles, err := s.market.FetchCandles(ctx, symbol, s.cfg.CandleInterval, s.cfg.CandleLimit)
	if err != nil {
		s.logger.Error(ctx, err, "Candle fetch failed, treating as hold", map[string]interface{}{
			"symbol": symbol, "cycleTime": cycleTime, "stage": "candles",
		})
		sig = domain.TradingSignal{
			Action:     domain.ActionHold,
			Confidence: 0.0,
			Reason:     fmt.Sprintf("market data unavailable: %v", err),
			RiskLevel:  domain.RiskHigh,
			Timestamp:  cycleTime,
		}
	} else {
		sig = s.generator.Generate(ctx, candles)
	}

	s.reportStatus(ctx, symbol, price, snap, sig)

	report := &domain.CycleReport{
		Symbol:     symbol,
		CycleTime:  cycleTime,
		Price:      price,
		TotalValue: snap.TotalValue,
		CashRatio:  snap.CashRatio,
		AssetRatio: snap.AssetRatio,
		Action:     sig.Action,
		Confidence: sig.Confidence,
		RiskLevel:  sig.RiskLevel,
		Reason:     sig.Reason,
	}

	decision := s.sizer.Decide(ctx, sig, snap, price)
	switch {
	case decision.Skipped() && sig.Action == domain.ActionHold:
		report.Outcome = domain.OutcomeHold
		report.Detail = decision.SkipReason
	case decision.Skipped():
		report.Outcome = domain.OutcomeSkipped
		report.Detail = decision.SkipReason
		s.logger.Info(ctx, "Trade skipped", map[string]interface{}{
			"symbol": symbol, "action": sig.Action, "reason": decision.SkipReason,
		})
	default:
		order := *decision.Order
		order.Symbol = symbol
		s.executeOrder(ctx, order, report)
	}

	if s.journal != nil {
		if err := s.journal.Append(ctx, report); err != nil {
			// Journaling is observability only; a write failure never
			// fails the cycle.
			s.logger.Warn(ctx, "Failed to journal cycle report", map[string]interface{}{
				"symbol": symbol, "error": err.Error(),
			})
		}
	}
}

// executeOrder submits the cycle's single order and records the outcome.
// A rejected order is reported, not retried within the cycle.
func (s *Service) executeOrder(ctx context.Context, order domain.Order, report *domain.CycleReport) {
	fields := map[string]interface{}{
		"symbol":   order.Symbol,
		"side":     order.Side,
		"amount":   order.Amount,
		"quantity": order.Quantity,
	}
	s.logger.Info(ctx, "Placing market order", fields)

	result, err := s.gateway.PlaceMarketOrder(ctx, order)
	if err != nil {
		report.Outcome = domain.OutcomeRejected
		report.Detail = err.Error()
		s.logger.Error(ctx, err, "Order was not accepted", fields)
		return
	}

	report.Outcome = domain.OutcomeExecuted
	report.Detail = result.OrderID
	fields["orderID"] = result.OrderID
	s.logger.Info(ctx, "Order accepted", fields)
}

// reportStatus emits the per-cycle status line the operator watches.
func (s *Service) reportStatus(ctx context.Context, symbol string, price float64, snap *domain.PortfolioSnapshot, sig domain.TradingSignal) {
	s.logger.Info(ctx, "Cycle analysis", map[string]interface{}{
		"symbol":     symbol,
		"price":      price,
		"totalValue": snap.TotalValue,
		"cashRatio":  snap.CashRatio,
		"assetRatio": snap.AssetRatio,
		"action":     sig.Action,
		"confidence": sig.Confidence,
		"risk":       sig.RiskLevel,
		"reason":     sig.Reason,
	})
}
