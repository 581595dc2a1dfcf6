package stats

import (
	"path/filepath"
	"sync"
	"time"

	backtest "github.com/rxtech-lab/argo-signal/internal/backtest/engine/engine_v1"
	"github.com/rxtech-lab/argo-signal/internal/backtest/engine/engine_v1/commission_fee"
	"github.com/rxtech-lab/argo-signal/internal/logger"
	"github.com/rxtech-lab/argo-signal/internal/types"
	"github.com/rxtech-lab/argo-signal/pkg/errors"
	"go.uber.org/zap"
)

// Tracker keeps the latest copy of every signal of a live session and summarizes them.
type Tracker struct {
	symbols  []string
	runID    string
	started  time.Time
	signals  map[string]*types.Signal
	order    []string
	fees     commission_fee.CommissionFee
	maxRatio float64

	mu     sync.Mutex
	logger *logger.Logger
}

// NewTracker creates a tracker. fees prices the entry and exit commission of each trade and
// maxRatio caps the reported ratios.
func NewTracker(fees commission_fee.CommissionFee, maxRatio float64, log *logger.Logger) *Tracker {
	return &Tracker{
		symbols:  nil,
		runID:    "",
		started:  time.Time{},
		signals:  make(map[string]*types.Signal),
		order:    nil,
		fees:     fees,
		maxRatio: maxRatio,
		mu:       sync.Mutex{},
		logger:   log,
	}
}

// Initialize sets up the tracker with session information.
func (t *Tracker) Initialize(symbols []string, runID string, started time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.symbols = symbols
	t.runID = runID
	t.started = started

	t.logger.Info("Stats tracker initialized",
		zap.String("run_id", runID),
		zap.Strings("symbols", symbols),
	)
}

// Record stores a copy of sig, replacing any earlier copy with the same ID.
func (t *Tracker) Record(sig *types.Signal) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.signals[sig.ID]; !ok {
		t.order = append(t.order, sig.ID)
	}

	t.signals[sig.ID] = sig.Clone()

	if sig.Status == types.SignalStatusClosed {
		t.logger.Debug("Trade recorded",
			zap.String("signal_id", sig.ID),
			zap.Float64("pnl", sig.PnL().TakeOr(0)),
		)
	}
}

// Signals returns copies of the recorded signals in the order they were first seen.
func (t *Tracker) Signals() []*types.Signal {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]*types.Signal, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, t.signals[id].Clone())
	}

	return out
}

// Summary accounts every closed signal with a known close price. Closed signals without one
// are reported as unfinished and signals that never opened a position as expired.
func (t *Tracker) Summary(unwindIncomplete bool, residual []types.OpenPosition) types.SessionStats {
	signals := t.Signals()

	t.mu.Lock()
	runID, symbols := t.runID, t.symbols
	t.mu.Unlock()

	backtester := backtest.NewBacktester("", nil, 0, t.fees, t.maxRatio)
	unfinished, expired := 0, 0

	for _, sig := range signals {
		switch sig.Status {
		case types.SignalStatusClosed:
			if sig.ClosePrice.IsNone() {
				unfinished++

				continue
			}

			if err := backtester.AddSignal(sig); err != nil {
				t.logger.Warn("Failed to account signal", zap.String("signal_id", sig.ID), zap.Error(err))
			}
		case types.SignalStatusExpired:
			expired++
		case types.SignalStatusWaiting, types.SignalStatusOrdered, types.SignalStatusActive, types.SignalStatusCounterOrdered:
		}
	}

	stats := backtester.Stats(runID, expired)
	stats.Symbols = symbols
	stats.TradeResult.NumberOfUnfinished = unfinished
	stats.FinalBalance = 0
	stats.UnwindIncomplete = unwindIncomplete

	for _, pos := range residual {
		stats.ResidualExposures = append(stats.ResidualExposures, pos.Symbol+":"+string(pos.PositionSide))
	}

	return stats
}

// WriteSessionStats writes the summary to stats.yaml and the signals to signals.yaml in dir.
func WriteSessionStats(dir string, stats types.SessionStats, signals []*types.Signal) error {
	if err := types.WriteSessionStats(filepath.Join(dir, "stats.yaml"), []types.SessionStats{stats}); err != nil {
		return errors.Wrap(errors.ErrCodeSessionOutput, "failed to write session stats", err)
	}

	if err := types.WriteSignals(filepath.Join(dir, "signals.yaml"), signals); err != nil {
		return errors.Wrap(errors.ErrCodeSessionOutput, "failed to write signals", err)
	}

	return nil
}

// RunID returns the session run ID.
func (t *Tracker) RunID() string {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.runID
}

// Started returns the session start time.
func (t *Tracker) Started() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.started
}
