package engine_v1

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-signal/internal/logger"
	"github.com/rxtech-lab/argo-signal/internal/portfolio"
	"github.com/rxtech-lab/argo-signal/internal/trading/engine/engine_v1/market"
	"github.com/rxtech-lab/argo-signal/internal/types"
	"github.com/rxtech-lab/argo-signal/pkg/errors"
	"github.com/rxtech-lab/argo-signal/pkg/strategy"
	"github.com/stretchr/testify/suite"
)

// scriptedRule triggers the decisions keyed by candle open time.
type scriptedRule struct {
	decisions map[time.Time]strategy.Decision
	err       error
}

func (r *scriptedRule) Name() string { return "scripted" }

func (r *scriptedRule) Warmup() int { return 0 }

func (r *scriptedRule) Decide(candles []types.Candle) (strategy.Decision, bool, error) {
	if r.err != nil {
		return strategy.Decision{}, false, r.err
	}

	last := candles[len(candles)-1]
	decision, ok := r.decisions[last.OpenTime]

	return decision, ok, nil
}

type StrategyDriverTestSuite struct {
	suite.Suite
	book    *Book
	feed    *market.Feed
	rule    *scriptedRule
	driver  *StrategyDriver
	mu      sync.Mutex
	updates []*types.Signal
}

func TestStrategyDriverSuite(t *testing.T) {
	suite.Run(t, new(StrategyDriverTestSuite))
}

func (suite *StrategyDriverTestSuite) SetupTest() {
	suite.rule = &scriptedRule{decisions: make(map[time.Time]strategy.Decision), err: nil}
	suite.newDriver(nil)
}

// newDriver wires a driver over BTCUSDT and ETHUSDT with 10000 USDT of equity, so each order
// is 500 USDT and each side holds five signals.
func (suite *StrategyDriverTestSuite) newDriver(positions []types.OpenPosition) {
	symbols := []string{"BTCUSDT", "ETHUSDT"}
	log := logger.NewNopLogger()

	pf, err := portfolio.FromPositions(10000, positions, portfolio.Config{
		Symbols:    symbols,
		QuoteAsset: "USDT",
		LongPct:    0.25,
		ShortPct:   0.25,
		OrderPct:   0.05,
	}, log)
	suite.Require().NoError(err)

	evaluators := make(map[string]*strategy.Evaluator, len(symbols))
	for _, symbol := range symbols {
		evaluators[symbol] = strategy.NewEvaluator(symbol, suite.rule, nil)
	}

	suite.book = NewBook(symbols)
	suite.feed = market.NewFeed(symbols)
	suite.updates = nil
	suite.driver = NewStrategyDriver(suite.book, suite.feed, pf, evaluators, strategy.SignalTemplate{
		OrderType:   types.OrderTypeMarket,
		HedgeMode:   true,
		Interval:    time.Minute,
		EntryWindow: 5 * time.Minute,
	}, time.Millisecond, log)
	suite.driver.OnUpdate(func(sig *types.Signal) {
		suite.mu.Lock()
		defer suite.mu.Unlock()

		suite.updates = append(suite.updates, sig)
	})
}

func (suite *StrategyDriverTestSuite) published() []*types.Signal {
	suite.mu.Lock()
	defer suite.mu.Unlock()

	return append([]*types.Signal(nil), suite.updates...)
}

func (suite *StrategyDriverTestSuite) candle(symbol string, minute int, closePrice float64) types.Candle {
	open := testStart.Add(time.Duration(minute) * time.Minute)

	return types.Candle{
		Symbol:    symbol,
		OpenTime:  open,
		CloseTime: open.Add(time.Minute - time.Millisecond),
		Open:      closePrice,
		High:      closePrice,
		Low:       closePrice,
		Close:     closePrice,
		Volume:    1,
	}
}

func (suite *StrategyDriverTestSuite) decide(minute int, side types.Side, price float64) {
	at := testStart.Add(time.Duration(minute) * time.Minute)
	suite.rule.decisions[at] = strategy.Decision{
		Side:       side,
		Time:       at,
		Price:      price,
		StopLoss:   optional.Some(2.0),
		TakeProfit: optional.Some(3.0),
		TimeLimit:  optional.None[time.Duration](),
	}
}

func (suite *StrategyDriverTestSuite) TestStepCreatesSignal() {
	suite.decide(1, types.SideBuy, 100)
	suite.feed.Candles("BTCUSDT").Append(suite.candle("BTCUSDT", 0, 99), suite.candle("BTCUSDT", 1, 100))

	read, err := suite.driver.Step()
	suite.Require().NoError(err)
	suite.Equal(2, read)

	signals := suite.book.Snapshot()
	suite.Require().Len(signals, 1)

	sig := signals[0]
	suite.Equal(types.SignalStatusWaiting, sig.Status)
	suite.Equal(types.SideBuy, sig.Side)
	suite.Equal(types.PositionSideLong, sig.PositionSide)
	suite.Equal(5.0, sig.Quantity)
	suite.Equal(testStart.Add(2*time.Minute), sig.StartTime)
	suite.Equal(testStart.Add(7*time.Minute), sig.ExpireTime)
	suite.Equal(optional.Some(3.0), sig.TakeProfit)

	suite.Require().Len(suite.published(), 1)
	suite.Equal(sig.ID, suite.published()[0].ID)

	// nothing new
	read, err = suite.driver.Step()
	suite.Require().NoError(err)
	suite.Zero(read)
}

func (suite *StrategyDriverTestSuite) TestNewerCandidateSupersedesWaiting() {
	suite.decide(0, types.SideBuy, 100)
	suite.decide(1, types.SideSell, 101)
	suite.feed.Candles("ETHUSDT").Append(suite.candle("ETHUSDT", 0, 100), suite.candle("ETHUSDT", 1, 101))

	_, err := suite.driver.Step()
	suite.Require().NoError(err)

	updates := suite.published()
	suite.Require().Len(updates, 3)
	suite.Equal(types.SignalStatusWaiting, updates[0].Status)
	suite.Equal(types.SignalStatusExpired, updates[1].Status)
	suite.Equal(updates[0].ID, updates[1].ID)
	suite.Equal(types.SignalStatusWaiting, updates[2].Status)
	suite.Equal(types.SideSell, updates[2].Side)
}

func (suite *StrategyDriverTestSuite) TestCandidateExpiredWhenInstrumentOpen() {
	suite.decide(1, types.SideBuy, 100)

	open := newTestSignal(suite.T(), "BTCUSDT", types.SideSell, types.OrderTypeMarket)
	suite.Require().NoError(open.MarkOrdered(1, testStart, optional.None[float64]()))
	_, err := suite.book.Intake(open, 5, nil)
	suite.Require().NoError(err)

	suite.feed.Candles("BTCUSDT").Append(suite.candle("BTCUSDT", 1, 100))

	_, err = suite.driver.Step()
	suite.Require().NoError(err)

	updates := suite.published()
	suite.Require().Len(updates, 1)
	suite.Equal(types.SignalStatusExpired, updates[0].Status)
}

func (suite *StrategyDriverTestSuite) TestLockedSideIsNotTraded() {
	suite.newDriver([]types.OpenPosition{
		{Symbol: "ETHUSDT", PositionSide: types.PositionSideLong, Amount: 1, EntryPrice: 100},
	})
	suite.decide(0, types.SideBuy, 100)
	suite.decide(1, types.SideSell, 100)
	suite.feed.Candles("ETHUSDT").Append(suite.candle("ETHUSDT", 0, 100))

	_, err := suite.driver.Step()
	suite.Require().NoError(err)
	suite.Empty(suite.book.Snapshot())

	suite.feed.Candles("ETHUSDT").Append(suite.candle("ETHUSDT", 1, 100))

	_, err = suite.driver.Step()
	suite.Require().NoError(err)

	signals := suite.book.Snapshot()
	suite.Require().Len(signals, 1)
	suite.Equal(types.SideSell, signals[0].Side)
}

func (suite *StrategyDriverTestSuite) TestOnCandleError() {
	var seen []types.Candle

	suite.driver.OnCandle(func(candle types.Candle) error {
		seen = append(seen, candle)

		return stderrors.New("stop")
	})
	suite.feed.Candles("BTCUSDT").Append(suite.candle("BTCUSDT", 0, 100))

	_, err := suite.driver.Step()
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeCallbackFailed))
	suite.Len(seen, 1)
}

func (suite *StrategyDriverTestSuite) TestRuleError() {
	suite.rule.err = stderrors.New("broken")
	suite.feed.Candles("BTCUSDT").Append(suite.candle("BTCUSDT", 0, 100))

	_, err := suite.driver.Step()
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeStrategyRuntimeError))
}

func (suite *StrategyDriverTestSuite) TestRun() {
	suite.decide(1, types.SideBuy, 100)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() {
		done <- suite.driver.Run(ctx)
	}()

	suite.feed.Candles("BTCUSDT").Append(suite.candle("BTCUSDT", 0, 99))
	suite.feed.Candles("BTCUSDT").Append(suite.candle("BTCUSDT", 1, 100))

	suite.Eventually(func() bool {
		return len(suite.published()) == 1
	}, time.Second, time.Millisecond)

	cancel()

	select {
	case err := <-done:
		suite.NoError(err)
	case <-time.After(time.Second):
		suite.Fail("driver did not stop")
	}
}
