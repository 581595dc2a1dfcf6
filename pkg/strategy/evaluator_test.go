package strategy

import (
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-signal/internal/types"
	"github.com/stretchr/testify/suite"
)

// lastCloseRule triggers BUY when the last close is below 100 and SELL when above.
type lastCloseRule struct {
	calls int
	seen  int
}

func (r *lastCloseRule) Name() string { return "last-close" }
func (r *lastCloseRule) Warmup() int  { return 1 }

func (r *lastCloseRule) Decide(candles []types.Candle) (Decision, bool, error) {
	r.calls++
	r.seen = len(candles)
	last := candles[len(candles)-1]

	switch {
	case last.Close < 100:
		return Decision{Side: types.SideBuy, Time: last.OpenTime, Price: last.Close, StopLoss: optional.Some(1.0)}, true, nil
	case last.Close > 100:
		return Decision{Side: types.SideSell, Time: last.OpenTime, Price: last.Close, StopLoss: optional.Some(1.0)}, true, nil
	}

	return Decision{}, false, nil
}

type EvaluatorTestSuite struct {
	suite.Suite
	start time.Time
	rule  *lastCloseRule
}

func TestEvaluatorSuite(t *testing.T) {
	suite.Run(t, new(EvaluatorTestSuite))
}

func (suite *EvaluatorTestSuite) SetupTest() {
	suite.start = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	suite.rule = &lastCloseRule{}
}

func (suite *EvaluatorTestSuite) candle(i int, close float64) types.Candle {
	return types.Candle{Symbol: "ETHUSDT", OpenTime: suite.start.Add(time.Duration(i) * time.Minute), Close: close}
}

func (suite *EvaluatorTestSuite) TestAppendsOnlyNewerCandles() {
	e := NewEvaluator("ETHUSDT", suite.rule, []types.Candle{suite.candle(0, 100), suite.candle(1, 100)})
	suite.Equal("ETHUSDT", e.Symbol())

	decision, err := e.Evaluate([]types.Candle{suite.candle(1, 100), suite.candle(2, 99)})
	suite.Require().NoError(err)
	suite.True(decision.IsSome())
	suite.Equal(types.SideBuy, decision.Unwrap().Side)
	suite.Equal(3, e.Len())
	suite.Equal(3, suite.rule.seen)
}

func (suite *EvaluatorTestSuite) TestNothingNewSkipsRule() {
	e := NewEvaluator("ETHUSDT", suite.rule, []types.Candle{suite.candle(0, 100), suite.candle(1, 99)})

	decision, err := e.Evaluate([]types.Candle{suite.candle(0, 100), suite.candle(1, 99)})
	suite.Require().NoError(err)
	suite.True(decision.IsNone())
	suite.Equal(0, suite.rule.calls)
}

func (suite *EvaluatorTestSuite) TestLockedSideSuppressed() {
	e := NewEvaluator("ETHUSDT", suite.rule, nil)
	e.Lock(types.SideSell)
	suite.True(e.Locked(types.SideSell))

	decision, err := e.Evaluate([]types.Candle{suite.candle(0, 101)})
	suite.Require().NoError(err)
	suite.True(decision.IsNone())

	decision, err = e.Evaluate([]types.Candle{suite.candle(1, 98)})
	suite.Require().NoError(err)
	suite.True(decision.IsSome())

	e.Unlock(types.SideSell)
	suite.False(e.Locked(types.SideSell))

	decision, err = e.Evaluate([]types.Candle{suite.candle(2, 102)})
	suite.Require().NoError(err)
	suite.Equal(types.SideSell, decision.Unwrap().Side)
}

func (suite *EvaluatorTestSuite) TestNoTrigger() {
	e := NewEvaluator("ETHUSDT", suite.rule, nil)

	decision, err := e.Evaluate([]types.Candle{suite.candle(0, 100)})
	suite.Require().NoError(err)
	suite.True(decision.IsNone())
}
