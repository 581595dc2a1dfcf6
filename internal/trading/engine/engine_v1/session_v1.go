package engine_v1

import (
	"context"
	"time"

	"github.com/google/uuid"
	backtest "github.com/rxtech-lab/argo-signal/internal/backtest/engine/engine_v1"
	"github.com/rxtech-lab/argo-signal/internal/backtest/engine/engine_v1/commission_fee"
	"github.com/rxtech-lab/argo-signal/internal/logger"
	"github.com/rxtech-lab/argo-signal/internal/metrics"
	"github.com/rxtech-lab/argo-signal/internal/portfolio"
	"github.com/rxtech-lab/argo-signal/internal/trading/engine"
	"github.com/rxtech-lab/argo-signal/internal/trading/engine/engine_v1/ingest"
	"github.com/rxtech-lab/argo-signal/internal/trading/engine/engine_v1/market"
	"github.com/rxtech-lab/argo-signal/internal/trading/engine/engine_v1/session"
	"github.com/rxtech-lab/argo-signal/internal/trading/engine/engine_v1/stats"
	tradingprovider "github.com/rxtech-lab/argo-signal/internal/trading/provider"
	"github.com/rxtech-lab/argo-signal/internal/types"
	"github.com/rxtech-lab/argo-signal/pkg/errors"
	"github.com/rxtech-lab/argo-signal/pkg/strategy"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// SessionV1 implements engine.TradingSession on a futures exchange.
type SessionV1 struct {
	config      engine.SessionConfig
	exchange    tradingprovider.ExchangeProvider
	log         *logger.Logger
	now         func() time.Time
	initialized bool
}

// NewSessionV1 creates a session. Initialize and SetExchangeProvider must be called before Run.
func NewSessionV1(log *logger.Logger) *SessionV1 {
	return &SessionV1{
		config:      engine.EmptyConfig(),
		exchange:    nil,
		log:         log,
		now:         time.Now,
		initialized: false,
	}
}

// Initialize validates and stores the session configuration.
func (s *SessionV1) Initialize(config engine.SessionConfig) error {
	if err := config.Validate(); err != nil {
		return err
	}

	s.config = config
	s.initialized = true

	s.log.Debug("Trading session initialized",
		zap.Strings("symbols", config.Portfolio.Symbols),
		zap.String("interval", config.Stream.Interval),
		zap.String("entry_type", string(config.EntryType)),
	)

	return nil
}

// SetExchangeProvider sets the exchange the session trades on.
func (s *SessionV1) SetExchangeProvider(exchange tradingprovider.ExchangeProvider) error {
	s.exchange = exchange

	return nil
}

// GetConfigSchema implements engine.TradingSession.
func (s *SessionV1) GetConfigSchema() (string, error) {
	return engine.GetConfigSchema()
}

// Run implements engine.TradingSession. The ingester, the strategy driver and the manager run
// until one of them returns or ctx is cancelled; every open signal is then unwound on a
// context detached from ctx.
func (s *SessionV1) Run(ctx context.Context, callbacks engine.SessionCallbacks) (result engine.SessionResult, err error) {
	defer func() {
		if callbacks.OnSessionStop != nil {
			(*callbacks.OnSessionStop)(err)
		}
	}()

	if err := s.preRunCheck(); err != nil {
		return result, err
	}

	runID := uuid.New().String()
	result.RunID = runID

	clock, err := s.exchangeClock(ctx)
	if err != nil {
		return result, err
	}

	if err := s.setupAccount(ctx); err != nil {
		return result, err
	}

	pf, err := portfolio.New(ctx, s.exchange, s.config.Portfolio, s.log)
	if err != nil {
		return result, err
	}

	symbols := make([]string, 0, len(pf.Tradable()))
	for _, inst := range pf.Tradable() {
		symbols = append(symbols, inst.Symbol)
	}

	if len(symbols) == 0 {
		return result, errors.New(errors.ErrCodeSessionAborted, "no tradable instruments left after position locks")
	}

	evaluators, err := s.loadEvaluators(ctx, symbols, clock)
	if err != nil {
		return result, err
	}

	tracker := stats.NewTracker(
		commission_fee.GetCommissionFeeHandler(commission_fee.BrokerBinanceFutures),
		s.config.MaxRatio,
		s.log,
	)
	tracker.Initialize(symbols, runID, clock())

	ledger, err := backtest.NewSignalLedger(s.log)
	if err != nil {
		return result, err
	}
	defer ledger.Close()

	publish := func(sig *types.Signal) {
		tracker.Record(sig)

		if err := ledger.Record(sig); err != nil {
			s.log.Warn("Failed to record signal event", zap.String("signal", sig.ID), zap.Error(err))
		}

		if callbacks.OnSignalUpdate != nil {
			(*callbacks.OnSignalUpdate)(sig)
		}
	}

	feed := market.NewFeed(symbols)
	book := NewBook(symbols)

	manager := NewManager(book, s.exchange, feed, NewManagerConfig(s.config), clock, s.log)
	manager.OnUpdate(publish)

	driver := NewStrategyDriver(book, feed, pf, evaluators, strategy.SignalTemplate{
		OrderType:   s.config.EntryType,
		HedgeMode:   s.config.HedgeMode,
		Interval:    s.config.IntervalDuration(),
		EntryWindow: s.config.EntryWindow,
	}, s.config.StrategyPollInterval, s.log)
	driver.OnUpdate(publish)

	if callbacks.OnCandle != nil {
		driver.OnCandle(*callbacks.OnCandle)
	}

	ingester := ingest.NewIngester(s.config.Stream, symbols, feed, s.exchange, s.log)

	if callbacks.OnSessionStart != nil {
		if err := (*callbacks.OnSessionStart)(runID, symbols); err != nil {
			return result, errors.Wrap(errors.ErrCodeCallbackFailed, "OnSessionStart callback failed", err)
		}
	}

	runErr := s.supervise(ctx, ingester, driver, manager)
	if runErr != nil {
		s.log.Error("Session stopped on error", zap.Error(runErr))
	}

	unwindCtx := context.WithoutCancel(ctx)
	unwindErr := manager.Unwind(unwindCtx)

	residual, recErr := pf.Reconcile(unwindCtx, s.exchange)
	if recErr != nil {
		s.log.Error("Failed to reconcile positions after unwind", zap.Error(recErr))
		s.reportError(callbacks, recErr)
	}

	signals := book.Snapshot()
	for _, sig := range signals {
		tracker.Record(sig)
	}

	result.Signals = signals
	result.Stats = tracker.Summary(unwindErr != nil, residual)

	s.log.Info("Session finished",
		zap.String("run_id", runID),
		zap.Int("signals", len(signals)),
		zap.Float64("net_profit", result.Stats.TradePnl.NetProfit),
		zap.Bool("unwind_incomplete", result.Stats.UnwindIncomplete),
	)

	if err := s.writeOutput(tracker.Started(), result, ledger); err != nil {
		s.log.Error("Failed to write session output", zap.Error(err))
		s.reportError(callbacks, err)
	}

	if runErr != nil {
		return result, runErr
	}

	return result, unwindErr
}

// supervise runs the three workers. When any of them returns, the others are stopped. The
// first error is returned; a cancelled ctx is not an error.
func (s *SessionV1) supervise(ctx context.Context, ingester *ingest.Ingester, driver *StrategyDriver, manager *Manager) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	if s.config.MetricsAddr != "" {
		go func() {
			if err := metrics.Serve(runCtx, s.config.MetricsAddr, s.log); err != nil {
				s.log.Warn("Metrics listener stopped", zap.Error(err))
			}
		}()
	}

	g, gctx := errgroup.WithContext(runCtx)

	g.Go(func() error {
		defer cancel()

		return ingester.Run(gctx)
	})

	g.Go(func() error {
		defer cancel()

		return driver.Run(gctx)
	})

	g.Go(func() error {
		defer cancel()

		return manager.Run(gctx)
	})

	return g.Wait()
}

// exchangeClock returns a clock that follows the exchange's time.
func (s *SessionV1) exchangeClock(ctx context.Context) (func() time.Time, error) {
	local := s.now()

	server, err := s.exchange.ServerTime(ctx)
	if err != nil {
		return nil, err
	}

	offset := server.Sub(local)

	s.log.Debug("Exchange clock offset", zap.Duration("offset", offset))

	return func() time.Time {
		return s.now().Add(offset)
	}, nil
}

// setupAccount applies the position mode and leverage. A setting the account already has is
// only logged.
func (s *SessionV1) setupAccount(ctx context.Context) error {
	if err := s.exchange.SetHedgeMode(ctx, s.config.HedgeMode); err != nil {
		if !tradingprovider.IsSettingUnchanged(err) {
			return err
		}

		s.log.Warn("Position mode already set", zap.Bool("hedge_mode", s.config.HedgeMode), zap.Error(err))
	}

	for _, symbol := range s.config.Portfolio.Symbols {
		if err := s.exchange.SetLeverage(ctx, symbol, s.config.Leverage); err != nil {
			if !tradingprovider.IsSettingUnchanged(err) {
				return err
			}

			s.log.Warn("Leverage already set", zap.String("symbol", symbol), zap.Int("leverage", s.config.Leverage), zap.Error(err))
		}
	}

	return nil
}

// loadEvaluators builds one evaluator per symbol, seeded with the latest completed klines.
// A kline still open on the exchange clock is left for the stream to deliver.
func (s *SessionV1) loadEvaluators(ctx context.Context, symbols []string, clock func() time.Time) (map[string]*strategy.Evaluator, error) {
	evaluators := make(map[string]*strategy.Evaluator, len(symbols))

	for _, symbol := range symbols {
		rule, err := strategy.NewBollingerRule(s.config.Strategy)
		if err != nil {
			return nil, err
		}

		var history []types.Candle

		if s.config.InitialCandles > 0 {
			history, err = s.exchange.GetCandles(ctx, symbol, s.config.Stream.Interval, s.config.InitialCandles)
			if err != nil {
				return nil, err
			}

			history = completedCandles(history, clock())
		}

		s.log.Info("Loaded initial candles",
			zap.String("symbol", symbol),
			zap.Int("candles", len(history)),
		)

		evaluators[symbol] = strategy.NewEvaluator(symbol, rule, history)
	}

	return evaluators, nil
}

// completedCandles trims the trailing candles that close after now.
func completedCandles(candles []types.Candle, now time.Time) []types.Candle {
	end := len(candles)
	for end > 0 && candles[end-1].CloseTime.After(now) {
		end--
	}

	return candles[:end]
}

// writeOutput writes stats.yaml, signals.yaml and signal_events.parquet to a new run folder.
func (s *SessionV1) writeOutput(started time.Time, result engine.SessionResult, ledger *backtest.SignalLedger) error {
	if s.config.OutputPath == "" {
		return nil
	}

	sessions := session.NewSessionManager(s.config.OutputPath, s.log)
	if err := sessions.Initialize(started); err != nil {
		return err
	}

	if err := stats.WriteSessionStats(sessions.RunPath(), result.Stats, result.Signals); err != nil {
		return err
	}

	if err := ledger.Write(sessions.RunPath()); err != nil {
		return errors.Wrap(errors.ErrCodeSessionOutput, "failed to write signal events", err)
	}

	return nil
}

func (s *SessionV1) reportError(callbacks engine.SessionCallbacks, err error) {
	if callbacks.OnError != nil {
		(*callbacks.OnError)(err)
	}
}

// preRunCheck validates that all required components are configured before running.
func (s *SessionV1) preRunCheck() error {
	if !s.initialized {
		return errors.New(errors.ErrCodeInvalidConfiguration, "session not initialized - call Initialize() first")
	}

	if s.exchange == nil {
		return errors.New(errors.ErrCodeInvalidConfiguration, "exchange provider not set - call SetExchangeProvider() first")
	}

	if s.log == nil {
		return errors.New(errors.ErrCodeInvalidConfiguration, "logger not set")
	}

	return nil
}
