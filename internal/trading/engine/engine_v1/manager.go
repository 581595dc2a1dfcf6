package engine_v1

import (
	"context"
	"sort"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-signal/internal/logger"
	"github.com/rxtech-lab/argo-signal/internal/metrics"
	"github.com/rxtech-lab/argo-signal/internal/trading/engine"
	"github.com/rxtech-lab/argo-signal/internal/trading/engine/engine_v1/market"
	tradingprovider "github.com/rxtech-lab/argo-signal/internal/trading/provider"
	"github.com/rxtech-lab/argo-signal/internal/types"
	"github.com/rxtech-lab/argo-signal/pkg/errors"
	"go.uber.org/zap"
)

// ManagerConfig holds the timing and pricing rules of the order manager.
type ManagerConfig struct {
	PollInterval       time.Duration
	PartialFillGrace   time.Duration
	OrderTimeout       time.Duration
	DepthLimit         int
	PriceBand          float64
	RecentTradesLimit  int
	StalePriceAfter    time.Duration
	RetraceStopLoss    bool
	MaxRequestFailures int
	Unwind             engine.UnwindConfig
}

// NewManagerConfig picks the manager settings out of a session config.
func NewManagerConfig(config engine.SessionConfig) ManagerConfig {
	return ManagerConfig{
		PollInterval:       config.PollInterval,
		PartialFillGrace:   config.PartialFillGrace,
		OrderTimeout:       config.OrderTimeout,
		DepthLimit:         config.DepthLimit,
		PriceBand:          config.PriceBand,
		RecentTradesLimit:  config.RecentTradesLimit,
		StalePriceAfter:    config.StalePriceAfter,
		RetraceStopLoss:    config.RetraceStopLoss,
		MaxRequestFailures: config.MaxRequestFailures,
		Unwind:             config.Unwind,
	}
}

// Manager advances existing signals against the exchange: it places entries, tracks fills,
// extends price paths, fires exits and confirms closes. It never creates signals.
type Manager struct {
	book     *Book
	exchange tradingprovider.ExchangeProvider
	feed     *market.Feed
	config   ManagerConfig
	clock    func() time.Time
	onUpdate func(signal *types.Signal)
	failures int
	log      *logger.Logger
}

// NewManager creates a manager over book. clock should return exchange time.
func NewManager(
	book *Book,
	exchange tradingprovider.ExchangeProvider,
	feed *market.Feed,
	config ManagerConfig,
	clock func() time.Time,
	log *logger.Logger,
) *Manager {
	return &Manager{
		book:     book,
		exchange: exchange,
		feed:     feed,
		config:   config,
		clock:    clock,
		onUpdate: nil,
		failures: 0,
		log:      log,
	}
}

// OnUpdate registers fn to receive a copy of every signal after it changes state.
func (m *Manager) OnUpdate(fn func(signal *types.Signal)) {
	m.onUpdate = fn
}

// Run cycles until ctx is cancelled. Request errors are retried on the next cycle; a run
// of MaxRequestFailures failed cycles, or any other error, stops the manager.
func (m *Manager) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		err := m.Cycle(ctx)
		if err == nil {
			m.failures = 0

			continue
		}

		if ctx.Err() != nil {
			return nil
		}

		if !errors.Retryable(err) {
			return err
		}

		m.failures++
		if m.failures >= m.config.MaxRequestFailures {
			return errors.Wrapf(errors.ErrCodeSessionAborted, err, "order manager gave up after %d failed cycles", m.failures)
		}
	}
}

// Cycle makes one pass over every instrument. It returns the first request error it met, or
// the first fatal error, which stops the pass.
func (m *Manager) Cycle(ctx context.Context) error {
	var firstErr error

	for _, symbol := range m.book.Symbols() {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := m.book.With(symbol, func(signals []*types.Signal) error {
			return m.cycleInstrument(ctx, signals)
		})
		if err == nil {
			continue
		}

		if !errors.Retryable(err) {
			return err
		}

		if firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}

func (m *Manager) cycleInstrument(ctx context.Context, signals []*types.Signal) error {
	now := m.clock()
	inPosition := false

	var (
		waiting  *types.Signal
		firstErr error
	)

	for _, sig := range signals {
		var err error

		switch sig.Status {
		case types.SignalStatusWaiting:
			if now.After(sig.ExpireTime) {
				err = m.expire(sig, "Entry window passed")
			} else {
				waiting = sig
			}
		case types.SignalStatusOrdered:
			inPosition = true
			err = m.reconcileEntry(ctx, sig, now)
		case types.SignalStatusActive:
			inPosition = true
			err = m.manageActive(ctx, sig, now)
		case types.SignalStatusCounterOrdered:
			inPosition = true
			err = m.reconcileCounter(ctx, sig, now, false)
		case types.SignalStatusClosed, types.SignalStatusExpired:
		}

		if err = m.check(sig, err); err != nil {
			if !errors.Retryable(err) {
				return err
			}

			if firstErr == nil {
				firstErr = err
			}
		}
	}

	if !inPosition && waiting != nil {
		if err := m.check(waiting, m.placeEntry(ctx, waiting, now)); err != nil {
			if !errors.Retryable(err) {
				return err
			}

			if firstErr == nil {
				firstErr = err
			}
		}
	}

	return firstErr
}

// check logs and counts a request error; the signal is left as it is for the next cycle.
func (m *Manager) check(sig *types.Signal, err error) error {
	if err == nil || !errors.Retryable(err) {
		return err
	}

	metrics.RequestErrorsTotal.WithLabelValues(string(sig.Status)).Inc()
	m.log.Warn("Exchange request failed",
		zap.String("symbol", sig.Symbol()),
		zap.String("signal_id", sig.ID),
		zap.String("status", string(sig.Status)),
		zap.Error(err),
	)

	return err
}

// placeEntry submits the entry order of a WAITING signal. LIMIT entries are priced from the
// order book and wait when the book is too far from the reference price.
func (m *Manager) placeEntry(ctx context.Context, sig *types.Signal, now time.Time) error {
	limit := optional.None[float64]()

	if sig.OrderType == types.OrderTypeLimit {
		book, err := m.exchange.GetDepth(ctx, sig.Symbol(), m.config.DepthLimit)
		if err != nil {
			return err
		}

		price, ok := entryLimitPrice(book, sig.Side, sig.Instrument)
		if !ok || !withinBand(price, sig.Price, m.config.PriceBand) {
			m.log.Debug("Book price outside band, entry keeps waiting",
				zap.String("symbol", sig.Symbol()),
				zap.Float64("reference", sig.Price),
				zap.Float64("book", price),
			)

			return nil
		}

		limit = optional.Some(price)
	}

	req := types.OrderRequest{
		Symbol:       sig.Symbol(),
		Side:         sig.Side,
		PositionSide: sig.PositionSide,
		Type:         sig.OrderType,
		Quantity:     sig.Quantity,
		Price:        limit,
		TimeInForce:  sig.TimeInForce,
	}

	upd, err := m.exchange.PlaceOrder(ctx, req)
	if err != nil {
		if expErr := m.expire(sig, "Entry order rejected"); expErr != nil {
			return expErr
		}

		return err
	}

	metrics.OrdersTotal.WithLabelValues(sig.Symbol(), string(sig.Side), string(sig.OrderType)).Inc()

	if err := sig.MarkOrdered(upd.OrderID, orderTime(upd, now), limit); err != nil {
		return err
	}

	m.transitioned(sig, "Placed entry order")

	return nil
}

// reconcileEntry tracks a live entry order: a fill activates the signal, a partial fill is
// activated after the grace period and an untouched order is cancelled after the timeout.
func (m *Manager) reconcileEntry(ctx context.Context, sig *types.Signal, now time.Time) error {
	upd, err := m.exchange.QueryOrder(ctx, sig.Symbol(), sig.OrderID)
	if err != nil {
		return err
	}

	switch {
	case upd.Status == types.OrderStatusFilled:
		return m.activate(sig, upd, "Entry order filled")
	case upd.Status.IsDone():
		if upd.ExecutedQuantity > 0 {
			return m.activate(sig, upd, "Entry order closed by exchange after partial fill")
		}

		return m.expire(sig, "Entry order closed by exchange")
	case upd.Status == types.OrderStatusPartiallyFilled && now.After(upd.UpdateTime.Add(m.config.PartialFillGrace)):
		return m.cancelEntry(ctx, sig)
	case now.After(upd.UpdateTime.Add(m.config.OrderTimeout)):
		return m.cancelEntry(ctx, sig)
	}

	return nil
}

// cancelEntry cancels the entry order and settles the signal on what was executed.
func (m *Manager) cancelEntry(ctx context.Context, sig *types.Signal) error {
	if err := m.exchange.CancelOrder(ctx, sig.Symbol(), sig.OrderID); err != nil {
		return err
	}

	final, err := m.exchange.QueryOrder(ctx, sig.Symbol(), sig.OrderID)
	if err != nil {
		return err
	}

	if final.ExecutedQuantity > 0 {
		return m.activate(sig, final, "Cancelled entry remainder, activating executed quantity")
	}

	return m.expire(sig, "Cancelled unfilled entry order")
}

// manageActive extends the price path and places a MARKET counter order when an exit fires.
func (m *Manager) manageActive(ctx context.Context, sig *types.Signal, now time.Time) error {
	if err := m.updatePath(ctx, sig, now); err != nil {
		return err
	}

	reason := sig.EvaluateExit(m.config.RetraceStopLoss)
	if reason == types.ExitReasonNone {
		return nil
	}

	m.log.Info("Exit triggered",
		zap.String("symbol", sig.Symbol()),
		zap.String("signal_id", sig.ID),
		zap.String("reason", string(reason)),
		zap.Float64("position", sig.Position()),
	)

	return m.placeCounter(ctx, sig, sig.Quantity, types.OrderTypeMarket, optional.None[float64](), reason, now)
}

// updatePath appends the trades seen since the last observation. The ingested trade stream
// is used while it is fresh; otherwise recent trades are fetched from the exchange.
func (m *Manager) updatePath(ctx context.Context, sig *types.Signal, now time.Time) error {
	last, _ := sig.LastObservation()
	ticks := m.feed.TicksAfter(sig.Symbol(), last.Time)

	if len(ticks) == 0 {
		latest, ok := m.feed.Ticks(sig.Symbol()).Last()
		if !ok || now.Sub(latest.Time) > m.config.StalePriceAfter {
			trades, err := m.exchange.GetRecentTrades(ctx, sig.Symbol(), m.config.RecentTradesLimit)
			if err != nil {
				return err
			}

			sort.SliceStable(trades, func(i, j int) bool { return trades[i].Time.Before(trades[j].Time) })

			for _, t := range trades {
				if t.Time.After(last.Time) {
					ticks = append(ticks, t)
				}
			}
		}
	}

	for _, t := range ticks {
		if err := sig.RecordPrice(t.Time, t.Price); err != nil {
			return err
		}
	}

	return nil
}

// reconcileCounter tracks a live counter order. A fill closes the signal. An order the
// exchange dropped is replaced with a MARKET order for the remaining quantity. While
// unwinding, a resting LIMIT counter older than the unwind grace is replaced the same way.
func (m *Manager) reconcileCounter(ctx context.Context, sig *types.Signal, now time.Time, unwinding bool) error {
	orderID := sig.CounterOrderID.TakeOr(0)

	upd, err := m.exchange.QueryOrder(ctx, sig.Symbol(), orderID)
	if err != nil {
		return err
	}

	switch {
	case upd.Status == types.OrderStatusFilled:
		return m.closeCounter(sig, upd, now, "Counter order filled, position closed")
	case upd.Status.IsDone():
		return m.replaceCounter(ctx, sig, upd, now, "Counter order dropped by exchange")
	case unwinding && sig.CounterOrderType.TakeOr("") == types.OrderTypeLimit &&
		!now.Before(sig.CounterOrderTime.Add(m.config.Unwind.Grace)):
		if err := m.exchange.CancelOrder(ctx, sig.Symbol(), orderID); err != nil {
			return err
		}

		final, err := m.exchange.QueryOrder(ctx, sig.Symbol(), orderID)
		if err != nil {
			return err
		}

		if final.Status == types.OrderStatusFilled {
			return m.closeCounter(sig, final, now, "Counter order filled, position closed")
		}

		return m.replaceCounter(ctx, sig, final, now, "Unwind limit order unfilled")
	}

	return nil
}

// closeCounter closes sig with the quantity-weighted price of every counter fill, upd's
// included.
func (m *Manager) closeCounter(sig *types.Signal, upd types.OrderUpdate, now time.Time, msg string) error {
	if err := sig.RecordCounterFill(upd.ExecutedQuantity, upd.AvgPrice); err != nil {
		return err
	}

	price := upd.AvgPrice
	if sig.CounterExecuted > 0 {
		price = sig.CounterAvgPrice
	}

	if err := sig.MarkClosed(orderTime(upd, now), optional.Some(price)); err != nil {
		return err
	}

	m.transitioned(sig, msg)

	return nil
}

// replaceCounter keeps the fills of the finished counter order upd and closes the rest of the
// position with a MARKET order.
func (m *Manager) replaceCounter(ctx context.Context, sig *types.Signal, upd types.OrderUpdate, now time.Time, why string) error {
	if err := sig.RecordCounterFill(upd.ExecutedQuantity, upd.AvgPrice); err != nil {
		return err
	}

	remaining := sig.CounterRemaining()
	if remaining <= 0 {
		if err := sig.MarkClosed(orderTime(upd, now), optional.Some(sig.CounterAvgPrice)); err != nil {
			return err
		}

		m.transitioned(sig, "Counter order executed before it was dropped, position closed")

		return nil
	}

	m.log.Info(why, zap.String("symbol", sig.Symbol()), zap.String("signal_id", sig.ID), zap.Float64("remaining", remaining))

	return m.placeCounter(ctx, sig, remaining, types.OrderTypeMarket, optional.None[float64](), types.ExitReasonNone, now)
}

// placeCounter submits a closing order on the opposite side of the position. An ACTIVE
// signal moves to COUNTER_ORDERED; a COUNTER_ORDERED signal has its order replaced.
func (m *Manager) placeCounter(
	ctx context.Context,
	sig *types.Signal,
	quantity float64,
	orderType types.OrderType,
	limit optional.Option[float64],
	reason types.ExitReason,
	now time.Time,
) error {
	req := types.OrderRequest{
		Symbol:       sig.Symbol(),
		Side:         sig.Side.Opposite(),
		PositionSide: sig.PositionSide,
		Type:         orderType,
		Quantity:     quantity,
		Price:        limit,
		TimeInForce:  "",
	}

	if orderType == types.OrderTypeLimit {
		req.TimeInForce = types.TimeInForceGTC
	}

	upd, err := m.exchange.PlaceOrder(ctx, req)
	if err != nil {
		return err
	}

	metrics.OrdersTotal.WithLabelValues(sig.Symbol(), string(req.Side), string(orderType)).Inc()

	order := types.CounterOrder{
		ID:         upd.OrderID,
		Type:       orderType,
		Time:       orderTime(upd, now),
		LimitPrice: limit,
		Reason:     reason,
	}

	if sig.Status == types.SignalStatusCounterOrdered {
		if err := sig.ReplaceCounterOrder(order); err != nil {
			return err
		}

		m.transitioned(sig, "Replaced counter order")

		return nil
	}

	if err := sig.MarkCounterOrdered(order); err != nil {
		return err
	}

	m.transitioned(sig, "Placed counter order")

	return nil
}

func (m *Manager) activate(sig *types.Signal, upd types.OrderUpdate, msg string) error {
	fill := types.Fill{
		Price:    upd.AvgPrice,
		Quantity: upd.ExecutedQuantity,
		Time:     upd.UpdateTime,
	}

	if err := sig.MarkActive(fill); err != nil {
		return err
	}

	m.transitioned(sig, msg)

	return nil
}

func (m *Manager) expire(sig *types.Signal, msg string) error {
	if err := sig.MarkExpired(); err != nil {
		return err
	}

	m.transitioned(sig, msg)

	return nil
}

// transitioned logs the audit line of sig and publishes a copy.
func (m *Manager) transitioned(sig *types.Signal, msg string) {
	metrics.SignalTransitionsTotal.WithLabelValues(sig.Symbol(), string(sig.Status)).Inc()
	m.log.Info(msg, zap.String("signal", sig.String()))

	if m.onUpdate != nil {
		m.onUpdate(sig.Clone())
	}
}

// entryLimitPrice is the mean of the two best bids for a BUY or the two best asks for a
// SELL, rounded to the instrument's price precision.
func entryLimitPrice(book types.OrderBook, side types.Side, inst types.Instrument) (float64, bool) {
	levels := book.Bids
	if side == types.SideSell {
		levels = book.Asks
	}

	if len(levels) < 2 {
		return 0, false
	}

	return inst.RoundPrice((levels[0].Price + levels[1].Price) / 2), true
}

func withinBand(price, reference, band float64) bool {
	return price < reference*(1+band) && price > reference*(1-band)
}

func orderTime(upd types.OrderUpdate, fallback time.Time) time.Time {
	if upd.UpdateTime.IsZero() {
		return fallback
	}

	return upd.UpdateTime
}
