package engine

import (
	"context"
	"slices"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-signal/internal/logger"
	"github.com/rxtech-lab/argo-signal/internal/portfolio"
	"github.com/rxtech-lab/argo-signal/internal/types"
	"github.com/rxtech-lab/argo-signal/pkg/errors"
	"github.com/rxtech-lab/argo-signal/pkg/strategy"
	"go.uber.org/zap"
)

// SimulatorConfig configures a single-instrument replay.
type SimulatorConfig struct {
	Instrument types.Instrument
	Template   strategy.SignalTemplate
	// Allocation sizes every signal and caps the open signals per side.
	Allocation portfolio.Allocation
	// OrderTimeout expires a LIMIT entry the tape has not touched in time.
	OrderTimeout    time.Duration
	RetraceStopLoss bool
}

// Simulator replays a trade tape through an evaluator and the signal lifecycle. MARKET
// orders fill at the next trade; LIMIT entries fill at their limit once a trade touches it.
type Simulator struct {
	config    SimulatorConfig
	evaluator *strategy.Evaluator
	signals   []*types.Signal
	orderID   int64
	onUpdate  func(signal *types.Signal)
	progress  func(current int, total int) error
	log       *logger.Logger
}

// NewSimulator creates a simulator that feeds evaluator.
func NewSimulator(config SimulatorConfig, evaluator *strategy.Evaluator, log *logger.Logger) *Simulator {
	return &Simulator{
		config:    config,
		evaluator: evaluator,
		signals:   nil,
		orderID:   0,
		onUpdate:  nil,
		progress:  nil,
		log:       log,
	}
}

// OnUpdate registers fn to receive a copy of every signal after each transition.
func (s *Simulator) OnUpdate(fn func(signal *types.Signal)) {
	s.onUpdate = fn
}

// OnProgress registers fn to be called after every trade. An error from fn stops the replay.
func (s *Simulator) OnProgress(fn func(current int, total int) error) {
	s.progress = fn
}

// Run replays tape with the completed candles of the same period. A candle is evaluated once
// the first trade at or after its close arrives. Positions still open when the tape ends are
// closed at the last trade; pending entries expire. Every signal created is returned.
func (s *Simulator) Run(ctx context.Context, candles []types.Candle, tape []types.Tick) ([]*types.Signal, error) {
	if len(tape) == 0 {
		return nil, errors.Newf(errors.ErrCodeNoDataFound, "empty tape for %s", s.config.Instrument.Symbol)
	}

	next := 0

	for i, tick := range tape {
		if err := ctx.Err(); err != nil {
			return s.signals, err
		}

		for next < len(candles) && !tick.Time.Before(candles[next].OpenTime.Add(s.config.Template.Interval)) {
			if err := s.evaluate(candles[next]); err != nil {
				return s.signals, err
			}

			next++
		}

		if err := s.step(tick); err != nil {
			return s.signals, err
		}

		if s.progress != nil {
			if err := s.progress(i+1, len(tape)); err != nil {
				return s.signals, errors.Wrap(errors.ErrCodeCallbackFailed, "OnProcessData callback failed", err)
			}
		}
	}

	if err := s.finish(tape[len(tape)-1]); err != nil {
		return s.signals, err
	}

	return s.signals, nil
}

func (s *Simulator) evaluate(candle types.Candle) error {
	decision, err := s.evaluator.Evaluate([]types.Candle{candle})
	if err != nil {
		return errors.Wrapf(errors.ErrCodeStrategyRuntimeError, err, "strategy failed on %s", candle.Symbol)
	}

	if decision.IsNone() {
		return nil
	}

	candidate, err := s.config.Template.NewSignal(s.config.Instrument, decision.Unwrap(), s.config.Allocation.OrderNotional)
	if err != nil {
		s.log.Debug("Dropping candidate that cannot form a signal", zap.Error(err))

		return nil
	}

	return s.intake(candidate)
}

// intake applies the live intake rules to a single instrument.
func (s *Simulator) intake(candidate *types.Signal) error {
	sideOpen := 0
	for _, sig := range s.signals {
		if sig.Side == candidate.Side && sig.Status.IsOpen() {
			sideOpen++
		}
	}

	open := slices.ContainsFunc(s.signals, func(sig *types.Signal) bool { return sig.Status.IsOpen() })

	if open || sideOpen >= s.config.Allocation.Cap(candidate.Side) {
		s.signals = append(s.signals, candidate)

		return s.transitioned(candidate, candidate.MarkExpired())
	}

	for _, sig := range s.signals {
		if sig.Status == types.SignalStatusWaiting {
			if err := s.transitioned(sig, sig.MarkExpired()); err != nil {
				return err
			}
		}
	}

	s.signals = append(s.signals, candidate)
	s.published(candidate)

	return nil
}

// step advances every signal by at most one transition on tick.
func (s *Simulator) step(tick types.Tick) error {
	for _, sig := range s.signals {
		if err := s.stepSignal(sig, tick); err != nil {
			return err
		}
	}

	return nil
}

func (s *Simulator) stepSignal(sig *types.Signal, tick types.Tick) error {
	switch sig.Status {
	case types.SignalStatusWaiting:
		if tick.Time.After(sig.ExpireTime) {
			return s.transitioned(sig, sig.MarkExpired())
		}

		if tick.Time.Before(sig.StartTime) {
			return nil
		}

		limit := optional.None[float64]()
		if sig.OrderType == types.OrderTypeLimit {
			limit = optional.Some(sig.Price)
		}

		return s.transitioned(sig, sig.MarkOrdered(s.nextOrderID(), tick.Time, limit))
	case types.SignalStatusOrdered:
		if sig.LimitPrice.IsNone() {
			return s.transitioned(sig, sig.MarkActive(types.Fill{Price: tick.Price, Quantity: sig.Quantity, Time: tick.Time}))
		}

		limit := sig.LimitPrice.Unwrap()
		if sig.Side.Sign()*(limit-tick.Price) >= 0 {
			return s.transitioned(sig, sig.MarkActive(types.Fill{Price: limit, Quantity: sig.Quantity, Time: tick.Time}))
		}

		if tick.Time.After(sig.OrderTime.Add(s.config.OrderTimeout)) {
			return s.transitioned(sig, sig.MarkExpired())
		}
	case types.SignalStatusActive:
		if err := sig.RecordPrice(tick.Time, tick.Price); err != nil {
			return err
		}

		if reason := sig.EvaluateExit(s.config.RetraceStopLoss); reason != types.ExitReasonNone {
			return s.transitioned(sig, sig.MarkCounterOrdered(s.marketCounter(tick.Time, reason)))
		}
	case types.SignalStatusCounterOrdered:
		return s.transitioned(sig, sig.MarkClosed(tick.Time, optional.Some(tick.Price)))
	case types.SignalStatusClosed, types.SignalStatusExpired:
	}

	return nil
}

// finish settles every signal left open at the end of the tape.
func (s *Simulator) finish(last types.Tick) error {
	for _, sig := range s.signals {
		switch sig.Status {
		case types.SignalStatusWaiting, types.SignalStatusOrdered:
			if err := s.transitioned(sig, sig.MarkExpired()); err != nil {
				return err
			}
		case types.SignalStatusActive:
			if err := s.transitioned(sig, sig.MarkCounterOrdered(s.marketCounter(last.Time, types.ExitReasonUnwind))); err != nil {
				return err
			}

			fallthrough
		case types.SignalStatusCounterOrdered:
			if err := s.transitioned(sig, sig.MarkClosed(last.Time, optional.Some(last.Price))); err != nil {
				return err
			}
		case types.SignalStatusClosed, types.SignalStatusExpired:
		}
	}

	return nil
}

func (s *Simulator) marketCounter(at time.Time, reason types.ExitReason) types.CounterOrder {
	return types.CounterOrder{
		ID:         s.nextOrderID(),
		Type:       types.OrderTypeMarket,
		Time:       at,
		LimitPrice: optional.None[float64](),
		Reason:     reason,
	}
}

func (s *Simulator) nextOrderID() int64 {
	s.orderID++

	return s.orderID
}

func (s *Simulator) transitioned(sig *types.Signal, err error) error {
	if err != nil {
		return err
	}

	s.published(sig)

	return nil
}

func (s *Simulator) published(sig *types.Signal) {
	s.log.Debug("Signal updated", zap.String("signal", sig.String()))

	if s.onUpdate != nil {
		s.onUpdate(sig.Clone())
	}
}
