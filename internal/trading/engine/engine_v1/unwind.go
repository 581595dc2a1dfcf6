package engine_v1

import (
	"context"
	"strings"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-signal/internal/types"
	"github.com/rxtech-lab/argo-signal/pkg/errors"
	"go.uber.org/zap"
)

// Unwind drives every signal to a terminal state at shutdown. WAITING signals expire, live
// entries are cancelled (a partial fill activates instead), ACTIVE positions get a closing
// LIMIT order just past the entry price and resting closing orders are replaced with MARKET
// orders after the unwind grace. Passes repeat until nothing is pending, the attempts run
// out or ctx ends.
//
// ctx should not be the session context: that one is already cancelled when Unwind runs.
func (m *Manager) Unwind(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, m.config.Unwind.Timeout)
	defer cancel()

	m.log.Info("Unwinding open signals", zap.Int("pending", len(m.book.Pending())))

	for attempt := 1; attempt <= m.config.Unwind.MaxAttempts; attempt++ {
		pending := m.unwindPass(ctx)
		if pending == 0 {
			m.log.Info("Unwind complete", zap.Int("passes", attempt))

			return nil
		}

		timer := time.NewTimer(m.config.Unwind.PollInterval)

		select {
		case <-ctx.Done():
			timer.Stop()

			return m.unwindIncomplete()
		case <-timer.C:
		}
	}

	return m.unwindIncomplete()
}

// unwindPass makes one pass and returns the number of signals still pending.
func (m *Manager) unwindPass(ctx context.Context) int {
	pending := 0

	for _, symbol := range m.book.Symbols() {
		_ = m.book.With(symbol, func(signals []*types.Signal) error {
			now := m.clock()

			for _, sig := range signals {
				if err := m.check(sig, m.unwindSignal(ctx, sig, now)); err != nil && !errors.Retryable(err) {
					m.log.Error("Unwind step failed",
						zap.String("symbol", sig.Symbol()),
						zap.String("signal_id", sig.ID),
						zap.Error(err),
					)
				}

				if !sig.Status.IsTerminal() {
					pending++
				}
			}

			return nil
		})
	}

	return pending
}

func (m *Manager) unwindSignal(ctx context.Context, sig *types.Signal, now time.Time) error {
	switch sig.Status {
	case types.SignalStatusWaiting:
		return m.expire(sig, "Session ended, expiring waiting signal")
	case types.SignalStatusOrdered:
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
		default:
			return m.cancelEntry(ctx, sig)
		}
	case types.SignalStatusActive:
		limit := sig.Instrument.RoundPrice(sig.EntryPrice * (1 + sig.Side.Sign()*m.config.Unwind.PriceOffset))

		return m.placeCounter(ctx, sig, sig.Quantity, types.OrderTypeLimit, optional.Some(limit), types.ExitReasonUnwind, now)
	case types.SignalStatusCounterOrdered:
		return m.reconcileCounter(ctx, sig, now, true)
	case types.SignalStatusClosed, types.SignalStatusExpired:
	}

	return nil
}

func (m *Manager) unwindIncomplete() error {
	pending := m.book.Pending()
	if len(pending) == 0 {
		return nil
	}

	lines := make([]string, 0, len(pending))
	for _, sig := range pending {
		lines = append(lines, sig.String())
	}

	m.log.Error("Unwind incomplete, signals still open", zap.Strings("signals", lines))

	return errors.Newf(errors.ErrCodeUnwindIncomplete, "%d signals still open after unwind: %s",
		len(pending), strings.Join(lines, "; "))
}
