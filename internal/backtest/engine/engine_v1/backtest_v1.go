package engine

import (
	"context"
	"os"
	"path/filepath"
	"slices"

	"github.com/google/uuid"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-signal/internal/backtest/engine"
	"github.com/rxtech-lab/argo-signal/internal/backtest/engine/engine_v1/commission_fee"
	"github.com/rxtech-lab/argo-signal/internal/backtest/engine/engine_v1/datasource"
	"github.com/rxtech-lab/argo-signal/internal/logger"
	"github.com/rxtech-lab/argo-signal/internal/portfolio"
	"github.com/rxtech-lab/argo-signal/internal/types"
	"github.com/rxtech-lab/argo-signal/pkg/errors"
	"github.com/rxtech-lab/argo-signal/pkg/strategy"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

type BacktestEngineV1 struct {
	config        BacktestEngineV1Config
	dataPaths     []string
	resultsFolder string
	log           *logger.Logger
	datasource    datasource.TapeSource
	fees          commission_fee.CommissionFee
	ledger        *SignalLedger
}

func NewBacktestEngineV1() engine.Engine {
	return &BacktestEngineV1{
		config:        EmptyConfig(),
		dataPaths:     nil,
		resultsFolder: "",
		log:           nil,
		datasource:    nil,
		fees:          nil,
		ledger:        nil,
	}
}

// Initialize implements engine.Engine. Fields missing from config keep their defaults.
func (b *BacktestEngineV1) Initialize(config string) error {
	b.config = EmptyConfig()

	if err := yaml.Unmarshal([]byte(config), &b.config); err != nil {
		return errors.Wrap(errors.ErrCodeBacktestConfigError, "failed to parse backtest config", err)
	}

	if err := b.config.Validate(); err != nil {
		return err
	}

	var err error

	b.log, err = logger.NewLogger()
	if err != nil {
		return err
	}

	b.log.Debug("Backtest engine initialized",
		zap.String("config", config),
	)

	b.fees = commission_fee.GetCommissionFeeHandler(b.config.Broker)

	return nil
}

// SetDataPath implements engine.Engine.
func (b *BacktestEngineV1) SetDataPath(path string) error {
	// use glob to get all the files that match the path
	files, err := filepath.Glob(path)
	if err != nil {
		b.log.Error("Failed to set data path",
			zap.String("path", path),
			zap.Error(err),
		)

		return errors.Wrapf(errors.ErrCodeBacktestDataPathError, err, "invalid data path %s", path)
	}

	absolutePaths := make([]string, len(files))

	for i, file := range files {
		absPath, err := filepath.Abs(file)
		if err != nil {
			b.log.Error("Failed to get absolute path",
				zap.String("path", file),
				zap.Error(err),
			)

			return errors.Wrapf(errors.ErrCodeBacktestDataPathError, err, "invalid data path %s", file)
		}

		absolutePaths[i] = absPath
	}

	b.dataPaths = absolutePaths
	b.log.Debug("Data paths set",
		zap.Strings("files", absolutePaths),
	)

	return nil
}

// SetResultsFolder implements engine.Engine.
func (b *BacktestEngineV1) SetResultsFolder(folder string) error {
	b.resultsFolder = folder
	b.log.Debug("Results folder set",
		zap.String("folder", folder),
	)

	return nil
}

func (b *BacktestEngineV1) SetDataSource(datasource datasource.TapeSource) error {
	b.datasource = datasource

	return nil
}

// Run implements engine.Engine.
func (b *BacktestEngineV1) Run(ctx context.Context, callbacks engine.LifecycleCallbacks) (results []types.SessionStats, err error) {
	defer func() {
		if callbacks.OnBacktestEnd != nil {
			(*callbacks.OnBacktestEnd)(err)
		}
	}()

	if err := b.preRunCheck(); err != nil {
		return nil, err
	}

	if callbacks.OnBacktestStart != nil {
		if err := (*callbacks.OnBacktestStart)(len(b.config.Portfolio.Symbols), len(b.dataPaths)); err != nil {
			return nil, errors.Wrap(errors.ErrCodeCallbackFailed, "OnBacktestStart callback failed", err)
		}
	}

	// remove results of a previous run
	if _, err := os.Stat(b.resultsFolder); err == nil {
		os.RemoveAll(b.resultsFolder)
	}

	if err := os.MkdirAll(b.resultsFolder, 0755); err != nil {
		return nil, errors.Wrap(errors.ErrCodeBacktestResultsError, "failed to create results folder", err)
	}

	b.ledger, err = NewSignalLedger(b.log)
	if err != nil {
		return nil, err
	}
	defer b.ledger.Close()

	for _, dataPath := range b.dataPaths {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		if err := b.datasource.Initialize(dataPath); err != nil {
			return results, errors.Wrapf(errors.ErrCodeBacktestDataPathError, err, "failed to initialize tape %s", dataPath)
		}

		available, err := b.datasource.GetAllSymbols()
		if err != nil {
			return results, err
		}

		for _, symbol := range b.config.Portfolio.Symbols {
			if !slices.Contains(available, symbol) {
				b.log.Warn("Symbol not present in tape",
					zap.String("symbol", symbol),
					zap.String("data", dataPath),
				)

				continue
			}

			stats, err := b.runSymbol(ctx, callbacks, dataPath, symbol)
			if err != nil {
				return results, err
			}

			if stats.IsSome() {
				results = append(results, stats.Unwrap())
			}
		}
	}

	return results, nil
}

// runSymbol replays one symbol of the current tape. It returns None when the selected
// time range holds no trades.
func (b *BacktestEngineV1) runSymbol(
	ctx context.Context,
	callbacks engine.LifecycleCallbacks,
	dataPath string,
	symbol string,
) (optional.Option[types.SessionStats], error) {
	none := optional.None[types.SessionStats]()

	inst, err := types.LookupInstrument(symbol)
	if err != nil {
		return none, err
	}

	count, err := b.datasource.Count(symbol, b.config.StartTime, b.config.EndTime)
	if err != nil {
		return none, err
	}

	if count == 0 {
		b.log.Warn("No trades in range",
			zap.String("symbol", symbol),
			zap.String("data", dataPath),
		)

		return none, nil
	}

	runID := uuid.New().String()

	if callbacks.OnRunStart != nil {
		if err := (*callbacks.OnRunStart)(runID, symbol, dataPath, count); err != nil {
			return none, errors.Wrap(errors.ErrCodeCallbackFailed, "OnRunStart callback failed", err)
		}
	}

	tape, err := b.datasource.ReadTape(symbol, b.config.StartTime, b.config.EndTime)
	if err != nil {
		return none, err
	}

	candles, err := b.datasource.ReadCandles(symbol, b.config.Interval, b.config.StartTime, b.config.EndTime)
	if err != nil {
		return none, err
	}

	interval, err := datasource.IntervalDuration(b.config.Interval)
	if err != nil {
		return none, err
	}

	rule, err := strategy.NewBollingerRule(b.config.Strategy)
	if err != nil {
		return none, err
	}

	allocation := portfolio.ComputeAllocation(
		b.config.InitialCapital,
		b.config.Portfolio.LongPct,
		b.config.Portfolio.ShortPct,
		b.config.Portfolio.OrderPct,
		nil,
	)

	simulator := NewSimulator(SimulatorConfig{
		Instrument: inst,
		Template: strategy.SignalTemplate{
			OrderType:   b.config.OrderType,
			HedgeMode:   false,
			Interval:    interval,
			EntryWindow: b.config.EntryWindow,
		},
		Allocation:      allocation,
		OrderTimeout:    b.config.OrderTimeout,
		RetraceStopLoss: b.config.RetraceStopLoss,
	}, strategy.NewEvaluator(symbol, rule, nil), b.log)

	if err := b.ledger.Cleanup(); err != nil {
		return none, err
	}

	simulator.OnUpdate(func(signal *types.Signal) {
		if err := b.ledger.Record(signal); err != nil {
			b.log.Error("Failed to record signal event",
				zap.String("signal", signal.ID),
				zap.Error(err),
			)
		}

		if callbacks.OnSignalUpdate != nil {
			(*callbacks.OnSignalUpdate)(signal)
		}
	})

	if callbacks.OnProcessData != nil {
		simulator.OnProgress(*callbacks.OnProcessData)
	}

	b.log.Debug("Running backtest",
		zap.String("symbol", symbol),
		zap.String("data", dataPath),
		zap.Int("ticks", len(tape)),
		zap.Int("candles", len(candles)),
	)

	signals, err := simulator.Run(ctx, candles, tape)
	if err != nil {
		return none, err
	}

	backtester := NewBacktester(symbol, tape, b.config.InitialCapital, b.fees, b.config.MaxRatio)
	expired := 0

	for _, sig := range signals {
		switch {
		case sig.Status == types.SignalStatusExpired:
			expired++
		case sig.Status == types.SignalStatusClosed && sig.ClosePrice.IsSome():
			if err := backtester.AddSignal(sig); err != nil {
				return none, err
			}
		}
	}

	stats := backtester.Stats(runID, expired)
	resultFolderPath := getResultFolder(dataPath, symbol, b)

	if err := b.writeResults(resultFolderPath, stats, signals, backtester.BalanceUpdate()); err != nil {
		return none, err
	}

	b.log.Info("Backtest run finished",
		zap.String("symbol", symbol),
		zap.String("data", dataPath),
		zap.Int("trades", stats.TradeResult.NumberOfTrades),
		zap.Float64("net_profit", stats.TradePnl.NetProfit),
	)

	if callbacks.OnRunEnd != nil {
		(*callbacks.OnRunEnd)(symbol, dataPath, resultFolderPath, stats)
	}

	return optional.Some(stats), nil
}

func (b *BacktestEngineV1) GetConfigSchema() (string, error) {
	config := b.config

	schema, err := config.GenerateSchemaJSON()
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeBacktestConfigError, "failed to generate schema", err)
	}

	return schema, nil
}

func (b *BacktestEngineV1) writeResults(
	resultFolderPath string,
	stats types.SessionStats,
	signals []*types.Signal,
	balance []BalancePoint,
) error {
	if err := os.MkdirAll(resultFolderPath, 0755); err != nil {
		return errors.Wrap(errors.ErrCodeBacktestResultsError, "failed to create result folder", err)
	}

	if err := types.WriteSessionStats(filepath.Join(resultFolderPath, "stats.yaml"), []types.SessionStats{stats}); err != nil {
		return errors.Wrap(errors.ErrCodeBacktestResultsError, "failed to write stats", err)
	}

	if err := writeYAML(filepath.Join(resultFolderPath, "signals.yaml"), signals); err != nil {
		return errors.Wrap(errors.ErrCodeBacktestResultsError, "failed to write signals", err)
	}

	if err := writeYAML(filepath.Join(resultFolderPath, "balance.yaml"), balance); err != nil {
		return errors.Wrap(errors.ErrCodeBacktestResultsError, "failed to write balance", err)
	}

	return b.ledger.Write(resultFolderPath)
}

func (b *BacktestEngineV1) preRunCheck() error {
	if b.log == nil {
		return errors.New(errors.ErrCodeBacktestConfigError, "engine is not initialized")
	}

	if len(b.dataPaths) == 0 {
		b.log.Error("No data paths loaded")

		return errors.New(errors.ErrCodeBacktestDataPathError, "no data paths loaded")
	}

	if b.resultsFolder == "" {
		b.log.Error("No results folder set")

		return errors.New(errors.ErrCodeBacktestResultsError, "no results folder set")
	}

	if b.datasource == nil {
		b.log.Error("No datasource set")

		return errors.New(errors.ErrCodeDataSourceUnavailable, "no datasource set")
	}

	return nil
}
