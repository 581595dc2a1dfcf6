package engine

import (
	"time"

	"github.com/rxtech-lab/argo-signal/internal/backtest/engine/engine_v1/commission_fee"
	"github.com/rxtech-lab/argo-signal/internal/types"
	"github.com/rxtech-lab/argo-signal/pkg/errors"
	"github.com/shopspring/decimal"
)

// BalancePoint is the account balance after a tape step.
type BalancePoint struct {
	Time    time.Time `yaml:"time" json:"time"`
	Balance float64   `yaml:"balance" json:"balance"`
}

// Backtester accounts closed signals against a trade tape.
type Backtester struct {
	symbol         string
	tape           []types.Tick
	signals        []*types.Signal
	initialBalance float64
	fees           commission_fee.CommissionFee
	maxRatio       float64
}

// NewBacktester creates a backtester for symbol. maxRatio caps the profit factor when there
// are no losing trades.
func NewBacktester(
	symbol string,
	tape []types.Tick,
	initialBalance float64,
	fees commission_fee.CommissionFee,
	maxRatio float64,
) *Backtester {
	return &Backtester{
		symbol:         symbol,
		tape:           tape,
		signals:        nil,
		initialBalance: initialBalance,
		fees:           fees,
		maxRatio:       maxRatio,
	}
}

// SetTape replaces the trade tape.
func (b *Backtester) SetTape(tape []types.Tick) {
	b.tape = tape
}

// AddSignal adds a closed signal. Signals that are not closed with a known price are rejected.
func (b *Backtester) AddSignal(sig *types.Signal) error {
	if sig.Status != types.SignalStatusClosed || sig.ClosePrice.IsNone() {
		return errors.Newf(errors.ErrCodeInvalidSignal, "signal %s is %s without a close price and cannot be accounted",
			sig.ID, sig.Status)
	}

	b.signals = append(b.signals, sig)

	return nil
}

// Signals returns the accounted signals.
func (b *Backtester) Signals() []*types.Signal {
	return b.signals
}

// BalanceUpdate walks the tape and returns the balance after every step. Each step charges
// entry and close commission for fills inside it and marks open positions to the step's
// closing price.
func (b *Backtester) BalanceUpdate() []BalancePoint {
	if len(b.tape) == 0 {
		return nil
	}

	balance := decimal.NewFromFloat(b.initialBalance)
	path := make([]BalancePoint, 0, len(b.tape))
	path = append(path, BalancePoint{Time: b.tape[0].Time, Balance: balance.InexactFloat64()})

	if len(b.signals) == 0 {
		return path
	}

	for i := 1; i < len(b.tape); i++ {
		last, next := b.tape[i-1], b.tape[i]
		lastPrice := decimal.NewFromFloat(last.Price)
		nextPrice := decimal.NewFromFloat(next.Price)
		change := decimal.Zero

		for _, sig := range b.signals {
			qty := decimal.NewFromFloat(sig.Quantity).Mul(decimal.NewFromFloat(sig.Side.Sign()))
			entry := decimal.NewFromFloat(sig.EntryPrice)
			closePrice := decimal.NewFromFloat(sig.ClosePrice.Unwrap())

			entered := sig.EntryTime.After(last.Time) && !sig.EntryTime.After(next.Time)
			closed := sig.CloseTime.After(last.Time) && !sig.CloseTime.After(next.Time)

			if entered {
				change = change.Sub(b.fee(sig.OrderType, sig.Quantity, sig.EntryPrice))
			}

			if closed {
				change = change.Sub(b.fee(sig.CounterOrderType.TakeOr(types.OrderTypeMarket), sig.Quantity, sig.ClosePrice.Unwrap()))
			}

			switch {
			case entered && closed:
				change = change.Add(qty.Mul(closePrice.Sub(entry)))
			case entered:
				change = change.Add(qty.Mul(nextPrice.Sub(entry)))
			case closed:
				change = change.Add(qty.Mul(closePrice.Sub(lastPrice)))
			case !sig.EntryTime.After(last.Time) && next.Time.Before(sig.CloseTime):
				change = change.Add(qty.Mul(nextPrice.Sub(lastPrice)))
			}
		}

		balance = balance.Add(change)
		path = append(path, BalancePoint{Time: next.Time, Balance: balance.InexactFloat64()})
	}

	return path
}

// GrossProfit returns the number of winning trades and the sum of their pnl.
func (b *Backtester) GrossProfit() (int, float64) {
	wins, profit := 0, decimal.Zero

	for _, sig := range b.signals {
		if pnl := pnlOf(sig); pnl.IsPositive() {
			wins++
			profit = profit.Add(pnl)
		}
	}

	return wins, profit.InexactFloat64()
}

// GrossLoss returns the number of trades with zero or negative pnl and the absolute sum of
// their pnl.
func (b *Backtester) GrossLoss() (int, float64) {
	losses, loss := 0, decimal.Zero

	for _, sig := range b.signals {
		if pnl := pnlOf(sig); !pnl.IsPositive() {
			losses++
			loss = loss.Add(pnl.Abs())
		}
	}

	return losses, loss.InexactFloat64()
}

// Commission returns the entry and exit fees of every trade.
func (b *Backtester) Commission() float64 {
	total := decimal.Zero

	for _, sig := range b.signals {
		total = total.Add(b.fee(sig.OrderType, sig.Quantity, sig.EntryPrice))
		total = total.Add(b.fee(sig.CounterOrderType.TakeOr(types.OrderTypeMarket), sig.Quantity, sig.ClosePrice.Unwrap()))
	}

	return total.InexactFloat64()
}

// NetProfit returns gross profit minus gross loss, less commission when withCommission is set.
func (b *Backtester) NetProfit(withCommission bool) float64 {
	_, profit := b.GrossProfit()
	_, loss := b.GrossLoss()

	net := decimal.NewFromFloat(profit).Sub(decimal.NewFromFloat(loss))
	if withCommission {
		net = net.Sub(decimal.NewFromFloat(b.Commission()))
	}

	return net.InexactFloat64()
}

// TotalTrades returns the number of accounted signals.
func (b *Backtester) TotalTrades() int {
	return len(b.signals)
}

// TimeInPosition returns the summed holding time of every trade.
func (b *Backtester) TimeInPosition() time.Duration {
	var total time.Duration

	for _, sig := range b.signals {
		total += sig.CloseTime.Sub(sig.EntryTime)
	}

	return total
}

// ProfitFactor returns the win/loss count ratio and the profit/loss ratio, rounded to four
// decimals. Without wins both are zero; without losses both are the configured ceiling.
func (b *Backtester) ProfitFactor() (float64, float64) {
	wins, profit := b.GrossProfit()
	losses, loss := b.GrossLoss()

	switch {
	case wins == 0:
		return 0, 0
	case losses == 0:
		return b.maxRatio, b.maxRatio
	}

	countRatio := decimal.NewFromInt(int64(wins)).Div(decimal.NewFromInt(int64(losses))).Round(4).InexactFloat64()

	if loss == 0 {
		return countRatio, b.maxRatio
	}

	return countRatio, decimal.NewFromFloat(profit).Div(decimal.NewFromFloat(loss)).Round(4).InexactFloat64()
}

// Stats summarizes the accounted trades. expired is the number of signals that never opened
// a position.
func (b *Backtester) Stats(runID string, expired int) types.SessionStats {
	wins, profit := b.GrossProfit()
	losses, loss := b.GrossLoss()
	countRatio, profitRatio := b.ProfitFactor()

	var average time.Duration
	if n := b.TotalTrades(); n > 0 {
		average = b.TimeInPosition() / time.Duration(n)
	}

	finalBalance := b.initialBalance
	if path := b.BalanceUpdate(); len(path) > 0 {
		finalBalance = path[len(path)-1].Balance
	}

	return types.SessionStats{
		ID:        runID,
		Timestamp: time.Now(),
		Symbols:   []string{b.symbol},
		TradeResult: types.TradeResult{
			NumberOfTrades:        b.TotalTrades(),
			NumberOfWinningTrades: wins,
			NumberOfLosingTrades:  losses,
			NumberOfUnfinished:    0,
			NumberOfExpired:       expired,
		},
		TradePnl: types.TradePnl{
			GrossProfit: profit,
			GrossLoss:   loss,
			Commission:  b.Commission(),
			NetProfit:   b.NetProfit(true),
		},
		AverageHoldingTime: average,
		WinLossRatio:       countRatio,
		ProfitFactor:       profitRatio,
		FinalBalance:       finalBalance,
		TimeInPosition:     b.TimeInPosition().Seconds(),
		UnwindIncomplete:   false,
		ResidualExposures:  nil,
	}
}

func (b *Backtester) fee(orderType types.OrderType, quantity, price float64) decimal.Decimal {
	rate := decimal.NewFromFloat(b.fees.Rate(orderType))

	return rate.Mul(decimal.NewFromFloat(quantity)).Mul(decimal.NewFromFloat(price))
}

func pnlOf(sig *types.Signal) decimal.Decimal {
	entry := decimal.NewFromFloat(sig.EntryPrice)
	closePrice := decimal.NewFromFloat(sig.ClosePrice.Unwrap())

	return closePrice.Sub(entry).Mul(decimal.NewFromFloat(sig.Quantity)).Mul(decimal.NewFromFloat(sig.Side.Sign()))
}
