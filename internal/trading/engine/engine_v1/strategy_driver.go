package engine_v1

import (
	"context"
	"time"

	"github.com/rxtech-lab/argo-signal/internal/logger"
	"github.com/rxtech-lab/argo-signal/internal/metrics"
	"github.com/rxtech-lab/argo-signal/internal/portfolio"
	"github.com/rxtech-lab/argo-signal/internal/trading/engine/engine_v1/market"
	"github.com/rxtech-lab/argo-signal/internal/types"
	"github.com/rxtech-lab/argo-signal/pkg/errors"
	"github.com/rxtech-lab/argo-signal/pkg/strategy"
	"go.uber.org/zap"
)

// StrategyDriver feeds completed candles to one evaluator per instrument and hands every
// candidate to the book's intake.
type StrategyDriver struct {
	book       *Book
	feed       *market.Feed
	portfolio  *portfolio.Portfolio
	evaluators map[string]*strategy.Evaluator
	cursors    map[string]int
	template   strategy.SignalTemplate
	backoff    time.Duration
	onCandle   func(candle types.Candle) error
	onUpdate   func(signal *types.Signal)
	log        *logger.Logger
}

// NewStrategyDriver creates a driver. Evaluators are keyed by symbol; instruments without an
// evaluator are ignored. Side locks from the portfolio are applied to the evaluators.
func NewStrategyDriver(
	book *Book,
	feed *market.Feed,
	pf *portfolio.Portfolio,
	evaluators map[string]*strategy.Evaluator,
	template strategy.SignalTemplate,
	backoff time.Duration,
	log *logger.Logger,
) *StrategyDriver {
	for symbol, evaluator := range evaluators {
		for _, side := range []types.Side{types.SideBuy, types.SideSell} {
			if pf.Locked(symbol, side) {
				evaluator.Lock(side)
			}
		}
	}

	return &StrategyDriver{
		book:       book,
		feed:       feed,
		portfolio:  pf,
		evaluators: evaluators,
		cursors:    make(map[string]int, len(evaluators)),
		template:   template,
		backoff:    backoff,
		onCandle:   nil,
		onUpdate:   nil,
		log:        log,
	}
}

// OnCandle registers fn to be called for every new candle before it is evaluated.
// An error from fn stops the driver.
func (d *StrategyDriver) OnCandle(fn func(candle types.Candle) error) {
	d.onCandle = fn
}

// OnUpdate registers fn to receive every signal the intake creates or expires. The signals
// are copies owned by fn.
func (d *StrategyDriver) OnUpdate(fn func(signal *types.Signal)) {
	d.onUpdate = fn
}

// Run polls the candle buffers until ctx is cancelled, backing off when nothing is new.
func (d *StrategyDriver) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return nil
		}

		n, err := d.Step()
		if err != nil {
			return err
		}

		if n > 0 {
			continue
		}

		timer := time.NewTimer(d.backoff)

		select {
		case <-ctx.Done():
			timer.Stop()

			return nil
		case <-timer.C:
		}
	}
}

// Step evaluates every candle appended since the last step and returns how many it read.
func (d *StrategyDriver) Step() (int, error) {
	read := 0

	for _, inst := range d.portfolio.Tradable() {
		evaluator, ok := d.evaluators[inst.Symbol]
		if !ok {
			continue
		}

		buf := d.feed.Candles(inst.Symbol)
		if buf == nil {
			continue
		}

		candles, cursor := buf.Since(d.cursors[inst.Symbol])
		d.cursors[inst.Symbol] = cursor
		read += len(candles)

		for _, candle := range candles {
			if d.onCandle != nil {
				if err := d.onCandle(candle); err != nil {
					return read, errors.Wrap(errors.ErrCodeCallbackFailed, "OnCandle callback failed", err)
				}
			}

			if err := d.evaluate(inst, evaluator, candle); err != nil {
				return read, err
			}
		}
	}

	return read, nil
}

func (d *StrategyDriver) evaluate(inst types.Instrument, evaluator *strategy.Evaluator, candle types.Candle) error {
	decision, err := evaluator.Evaluate([]types.Candle{candle})
	if err != nil {
		return errors.Wrapf(errors.ErrCodeStrategyRuntimeError, err, "strategy failed on %s", inst.Symbol)
	}

	if decision.IsNone() {
		return nil
	}

	allocation := d.portfolio.Allocation()

	candidate, err := d.template.NewSignal(inst, decision.Unwrap(), allocation.OrderNotional)
	if err != nil {
		d.log.Warn("Dropping candidate that cannot form a signal",
			zap.String("symbol", inst.Symbol),
			zap.Error(err),
		)

		return nil
	}

	_, err = d.book.Intake(candidate, allocation.Cap(candidate.Side), d.intaken)

	return err
}

// intaken publishes an intake result. It runs under the book locks.
func (d *StrategyDriver) intaken(result IntakeResult) {
	for _, sig := range result.Superseded {
		d.published(sig, "Superseded waiting signal expired")
	}

	if result.Accepted {
		d.published(result.Candidate, "Found signal")
	} else {
		d.published(result.Candidate, "Found signal, expired on intake")
	}
}

func (d *StrategyDriver) published(sig *types.Signal, msg string) {
	metrics.SignalTransitionsTotal.WithLabelValues(sig.Symbol(), string(sig.Status)).Inc()
	d.log.Info(msg, zap.String("signal", sig.String()))

	if d.onUpdate != nil {
		d.onUpdate(sig)
	}
}
