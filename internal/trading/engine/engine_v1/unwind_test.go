package engine_v1

import (
	"context"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-signal/internal/types"
	"github.com/rxtech-lab/argo-signal/pkg/errors"
	"go.uber.org/mock/gomock"
)

func (suite *ManagerTestSuite) TestUnwindClosesActivePositions() {
	suite.newManager(testManagerConfig(), "BTCUSDT", "ETHUSDT", "LTCUSDT")

	for _, symbol := range []string{"BTCUSDT", "ETHUSDT", "LTCUSDT"} {
		suite.active(symbol, types.SideBuy)
	}

	ids := map[string]int64{"BTCUSDT": 101, "ETHUSDT": 102, "LTCUSDT": 103}

	suite.exchange.EXPECT().PlaceOrder(gomock.Any(), gomock.Any()).Times(3).DoAndReturn(
		func(_ context.Context, req types.OrderRequest) (types.OrderUpdate, error) {
			suite.Equal(types.SideSell, req.Side)
			suite.Equal(types.OrderTypeLimit, req.Type)
			suite.Equal(optional.Some(100.1), req.Price)
			suite.Equal(types.TimeInForceGTC, req.TimeInForce)
			suite.Equal(10.0, req.Quantity)

			return types.OrderUpdate{OrderID: ids[req.Symbol], Symbol: req.Symbol, Status: types.OrderStatusNew}, nil
		})
	suite.exchange.EXPECT().QueryOrder(gomock.Any(), gomock.Any(), gomock.Any()).Times(3).DoAndReturn(
		func(_ context.Context, symbol string, orderID int64) (types.OrderUpdate, error) {
			suite.Equal(ids[symbol], orderID)

			return types.OrderUpdate{
				OrderID:          orderID,
				Symbol:           symbol,
				Status:           types.OrderStatusFilled,
				AvgPrice:         100.1,
				ExecutedQuantity: 10,
				UpdateTime:       testStart.Add(time.Minute),
			}, nil
		})

	suite.Require().NoError(suite.manager.Unwind(context.Background()))

	signals := suite.book.Snapshot()
	suite.Require().Len(signals, 3)

	for _, sig := range signals {
		suite.Equal(types.SignalStatusClosed, sig.Status, sig.Symbol())
		suite.Equal(types.ExitReasonUnwind, sig.ExitReason)
		suite.Equal(optional.Some(100.1), sig.ClosePrice)
		suite.Equal(optional.Some(100.1), sig.CounterLimitPrice)
	}

	suite.Empty(suite.book.Pending())
}

func (suite *ManagerTestSuite) TestUnwindSellPricesBelowEntry() {
	suite.active("BTCUSDT", types.SideSell)

	suite.exchange.EXPECT().PlaceOrder(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req types.OrderRequest) (types.OrderUpdate, error) {
			suite.Equal(types.SideBuy, req.Side)
			suite.Equal(types.PositionSideShort, req.PositionSide)
			suite.Equal(optional.Some(99.9), req.Price)

			return types.OrderUpdate{OrderID: 21, Status: types.OrderStatusNew}, nil
		})
	suite.exchange.EXPECT().QueryOrder(gomock.Any(), "BTCUSDT", int64(21)).
		Return(types.OrderUpdate{OrderID: 21, Status: types.OrderStatusFilled, AvgPrice: 99.9, ExecutedQuantity: 10}, nil)

	suite.Require().NoError(suite.manager.Unwind(context.Background()))
	suite.Equal(types.SignalStatusClosed, suite.current("BTCUSDT").Status)
}

func (suite *ManagerTestSuite) TestUnwindReplacesRestingLimitWithMarket() {
	config := testManagerConfig()
	config.Unwind.Grace = 0
	suite.newManager(config, "BTCUSDT")
	suite.active("BTCUSDT", types.SideBuy)

	gomock.InOrder(
		suite.exchange.EXPECT().PlaceOrder(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, req types.OrderRequest) (types.OrderUpdate, error) {
				suite.Equal(types.OrderTypeLimit, req.Type)

				return types.OrderUpdate{OrderID: 21, Status: types.OrderStatusNew}, nil
			}),
		suite.exchange.EXPECT().QueryOrder(gomock.Any(), "BTCUSDT", int64(21)).
			Return(types.OrderUpdate{OrderID: 21, Status: types.OrderStatusNew}, nil),
		suite.exchange.EXPECT().CancelOrder(gomock.Any(), "BTCUSDT", int64(21)).Return(nil),
		suite.exchange.EXPECT().QueryOrder(gomock.Any(), "BTCUSDT", int64(21)).
			Return(types.OrderUpdate{OrderID: 21, Status: types.OrderStatusCancelled}, nil),
		suite.exchange.EXPECT().PlaceOrder(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, req types.OrderRequest) (types.OrderUpdate, error) {
				suite.Equal(types.OrderTypeMarket, req.Type)
				suite.Equal(10.0, req.Quantity)
				suite.True(req.Price.IsNone())

				return types.OrderUpdate{OrderID: 22, Status: types.OrderStatusNew}, nil
			}),
		suite.exchange.EXPECT().QueryOrder(gomock.Any(), "BTCUSDT", int64(22)).
			Return(types.OrderUpdate{OrderID: 22, Status: types.OrderStatusFilled, AvgPrice: 99.95, ExecutedQuantity: 10}, nil),
	)

	suite.Require().NoError(suite.manager.Unwind(context.Background()))

	sig := suite.current("BTCUSDT")
	suite.Equal(types.SignalStatusClosed, sig.Status)
	suite.Equal(types.ExitReasonUnwind, sig.ExitReason)
	suite.Equal(optional.Some(99.95), sig.ClosePrice)
	suite.Equal(optional.Some(types.OrderTypeMarket), sig.CounterOrderType)
}

func (suite *ManagerTestSuite) TestUnwindSettlesEntries() {
	suite.newManager(testManagerConfig(), "BTCUSDT", "ETHUSDT")
	suite.add(newTestSignal(suite.T(), "BTCUSDT", types.SideBuy, types.OrderTypeMarket))

	ordered := newTestSignal(suite.T(), "ETHUSDT", types.SideSell, types.OrderTypeLimit)
	suite.Require().NoError(ordered.MarkOrdered(7, testStart.Add(5*time.Second), optional.Some(100.2)))
	suite.add(ordered)

	gomock.InOrder(
		suite.exchange.EXPECT().QueryOrder(gomock.Any(), "ETHUSDT", int64(7)).
			Return(types.OrderUpdate{OrderID: 7, Status: types.OrderStatusNew}, nil),
		suite.exchange.EXPECT().CancelOrder(gomock.Any(), "ETHUSDT", int64(7)).Return(nil),
		suite.exchange.EXPECT().QueryOrder(gomock.Any(), "ETHUSDT", int64(7)).
			Return(types.OrderUpdate{OrderID: 7, Status: types.OrderStatusCancelled}, nil),
	)

	suite.Require().NoError(suite.manager.Unwind(context.Background()))
	suite.Equal(types.SignalStatusExpired, suite.current("BTCUSDT").Status)
	suite.Equal(types.SignalStatusExpired, suite.current("ETHUSDT").Status)
}

func (suite *ManagerTestSuite) TestUnwindIncomplete() {
	config := testManagerConfig()
	config.Unwind.MaxAttempts = 2
	suite.newManager(config, "BTCUSDT")
	suite.active("BTCUSDT", types.SideBuy)

	suite.exchange.EXPECT().PlaceOrder(gomock.Any(), gomock.Any()).
		Return(types.OrderUpdate{}, errors.New(errors.ErrCodeRequestFailed, "exchange unavailable")).
		Times(2)

	// the session context is already gone when unwinding starts
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := suite.manager.Unwind(context.WithoutCancel(ctx))
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeUnwindIncomplete))
	suite.Contains(err.Error(), "BTCUSDT")
	suite.Equal(types.SignalStatusActive, suite.current("BTCUSDT").Status)
}

func (suite *ManagerTestSuite) TestUnwindNothingPending() {
	suite.NoError(suite.manager.Unwind(context.Background()))
}

func (suite *ManagerTestSuite) TestUnwindPartialLimitBlendsWithMarket() {
	config := testManagerConfig()
	config.Unwind.Grace = 0
	suite.newManager(config, "BTCUSDT")
	suite.active("BTCUSDT", types.SideBuy)

	gomock.InOrder(
		suite.exchange.EXPECT().PlaceOrder(gomock.Any(), gomock.Any()).
			Return(types.OrderUpdate{OrderID: 21, Status: types.OrderStatusNew}, nil),
		suite.exchange.EXPECT().QueryOrder(gomock.Any(), "BTCUSDT", int64(21)).
			Return(types.OrderUpdate{OrderID: 21, Status: types.OrderStatusPartiallyFilled, AvgPrice: 100.1, ExecutedQuantity: 4}, nil),
		suite.exchange.EXPECT().CancelOrder(gomock.Any(), "BTCUSDT", int64(21)).Return(nil),
		suite.exchange.EXPECT().QueryOrder(gomock.Any(), "BTCUSDT", int64(21)).
			Return(types.OrderUpdate{OrderID: 21, Status: types.OrderStatusCancelled, AvgPrice: 100.1, ExecutedQuantity: 4}, nil),
		suite.exchange.EXPECT().PlaceOrder(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, req types.OrderRequest) (types.OrderUpdate, error) {
				suite.Equal(types.OrderTypeMarket, req.Type)
				suite.Equal(6.0, req.Quantity)

				return types.OrderUpdate{OrderID: 22, Status: types.OrderStatusNew}, nil
			}),
		suite.exchange.EXPECT().QueryOrder(gomock.Any(), "BTCUSDT", int64(22)).
			Return(types.OrderUpdate{OrderID: 22, Status: types.OrderStatusFilled, AvgPrice: 99.9, ExecutedQuantity: 6}, nil),
	)

	suite.Require().NoError(suite.manager.Unwind(context.Background()))

	sig := suite.current("BTCUSDT")
	suite.Equal(types.SignalStatusClosed, sig.Status)
	suite.InDelta(99.98, sig.ClosePrice.Unwrap(), 1e-9)
	suite.InDelta(-0.2, sig.PnL().Unwrap(), 1e-9)
}
