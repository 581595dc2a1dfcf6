package strategy

import (
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-signal/internal/types"
	"github.com/stretchr/testify/suite"
)

type SignalTemplateTestSuite struct {
	suite.Suite
}

func TestSignalTemplateSuite(t *testing.T) {
	suite.Run(t, new(SignalTemplateTestSuite))
}

func (suite *SignalTemplateTestSuite) TestNewSignal() {
	inst, err := types.LookupInstrument("BTCUSDT")
	suite.Require().NoError(err)

	candleOpen := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	decision := Decision{
		Side:       types.SideSell,
		Time:       candleOpen,
		Price:      42000.123,
		StopLoss:   optional.Some(12.5),
		TakeProfit: optional.Some(12.5),
		TimeLimit:  optional.Some(15 * time.Minute),
	}

	template := SignalTemplate{
		OrderType:   types.OrderTypeLimit,
		HedgeMode:   true,
		Interval:    time.Minute,
		EntryWindow: 5 * time.Minute,
	}

	sig, err := template.NewSignal(inst, decision, 500)
	suite.Require().NoError(err)
	suite.Equal(types.SignalStatusWaiting, sig.Status)
	suite.Equal(types.PositionSideShort, sig.PositionSide)
	suite.Equal(types.TimeInForceGTC, sig.TimeInForce)
	suite.Equal(42000.12, sig.Price)
	suite.Equal(candleOpen.Add(time.Minute), sig.StartTime)
	suite.Equal(candleOpen.Add(6*time.Minute), sig.ExpireTime)
	suite.Equal(0.012, sig.Quantity)
	suite.Equal(12.5, sig.StopLoss.Unwrap())
}

func (suite *SignalTemplateTestSuite) TestNewSignalMarketOneWay() {
	inst, err := types.LookupInstrument("ETHUSDT")
	suite.Require().NoError(err)

	template := SignalTemplate{
		OrderType:   types.OrderTypeMarket,
		HedgeMode:   false,
		Interval:    time.Minute,
		EntryWindow: 5 * time.Minute,
	}

	sig, err := template.NewSignal(inst, Decision{Side: types.SideBuy, Time: time.Now(), Price: 2000}, 100)
	suite.Require().NoError(err)
	suite.Equal(types.PositionSideBoth, sig.PositionSide)
	suite.Equal(types.TimeInForce(""), sig.TimeInForce)
	suite.True(sig.TakeProfit.IsNone())
}

func (suite *SignalTemplateTestSuite) TestNewSignalRejectsZeroSize() {
	inst, err := types.LookupInstrument("ETHUSDT")
	suite.Require().NoError(err)

	template := SignalTemplate{OrderType: types.OrderTypeLimit, Interval: time.Minute, EntryWindow: time.Minute}

	_, err = template.NewSignal(inst, Decision{Side: types.SideBuy, Time: time.Now(), Price: 2000}, 0)
	suite.Error(err)
}
