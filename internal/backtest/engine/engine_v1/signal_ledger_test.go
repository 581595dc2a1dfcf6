package engine

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-signal/internal/logger"
	"github.com/rxtech-lab/argo-signal/internal/types"
	"github.com/stretchr/testify/suite"
)

// SignalLedgerTestSuite is a test suite for SignalLedger
type SignalLedgerTestSuite struct {
	suite.Suite
	ledger *SignalLedger
	start  time.Time
}

func TestSignalLedgerSuite(t *testing.T) {
	suite.Run(t, new(SignalLedgerTestSuite))
}

func (suite *SignalLedgerTestSuite) SetupTest() {
	ledger, err := NewSignalLedger(logger.NewNopLogger())
	suite.Require().NoError(err)
	suite.ledger = ledger
	suite.start = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
}

func (suite *SignalLedgerTestSuite) TearDownTest() {
	if suite.ledger != nil {
		suite.ledger.Close()
	}
}

// recordLifecycle records a LIMIT buy through every transition.
func (suite *SignalLedgerTestSuite) recordLifecycle() *types.Signal {
	inst, err := types.LookupInstrument("BTCUSDT")
	suite.Require().NoError(err)

	sig, err := types.NewSignal(types.SignalParams{
		Instrument:   inst,
		Side:         types.SideBuy,
		PositionSide: types.PositionSideBoth,
		Size:         1000,
		OrderType:    types.OrderTypeLimit,
		Price:        100,
		StartTime:    suite.start,
		ExpireTime:   suite.start.Add(5 * time.Minute),
		TimeInForce:  "",
		StopLoss:     optional.Some(2.0),
		TakeProfit:   optional.Some(2.0),
		TimeLimit:    optional.None[time.Duration](),
	})
	suite.Require().NoError(err)

	suite.Require().NoError(suite.ledger.Record(sig))

	suite.Require().NoError(sig.MarkOrdered(1, suite.start.Add(time.Second), optional.Some(99.5)))
	suite.Require().NoError(suite.ledger.Record(sig))

	suite.Require().NoError(sig.MarkActive(types.Fill{Price: 99.5, Quantity: 10, Time: suite.start.Add(time.Minute)}))
	suite.Require().NoError(suite.ledger.Record(sig))

	suite.Require().NoError(sig.MarkCounterOrdered(types.CounterOrder{
		ID:         2,
		Type:       types.OrderTypeMarket,
		Time:       suite.start.Add(2 * time.Minute),
		LimitPrice: optional.None[float64](),
		Reason:     types.ExitReasonTakeProfit,
	}))
	suite.Require().NoError(suite.ledger.Record(sig))

	suite.Require().NoError(sig.MarkClosed(suite.start.Add(3*time.Minute), optional.Some(102.0)))
	suite.Require().NoError(suite.ledger.Record(sig))

	return sig
}

func (suite *SignalLedgerTestSuite) TestRecordAndEvents() {
	sig := suite.recordLifecycle()

	events, err := suite.ledger.Events()
	suite.Require().NoError(err)
	suite.Require().Len(events, 5)

	expected := []struct {
		status types.SignalStatus
		time   time.Time
		price  float64
	}{
		{types.SignalStatusWaiting, suite.start, 100},
		{types.SignalStatusOrdered, suite.start.Add(time.Second), 99.5},
		{types.SignalStatusActive, suite.start.Add(time.Minute), 99.5},
		{types.SignalStatusCounterOrdered, suite.start.Add(2 * time.Minute), 99.5},
		{types.SignalStatusClosed, suite.start.Add(3 * time.Minute), 102},
	}

	for i, want := range expected {
		suite.Equal(sig.ID, events[i].SignalID)
		suite.Equal("BTCUSDT", events[i].Symbol)
		suite.Equal(types.SideBuy, events[i].Side)
		suite.Equal(want.status, events[i].Status)
		suite.Equal(want.time, events[i].Time)
		suite.Equal(want.price, events[i].Price)
	}

	suite.Equal(types.ExitReasonNone, events[2].ExitReason)
	suite.Equal(types.ExitReasonTakeProfit, events[4].ExitReason)
}

func (suite *SignalLedgerTestSuite) TestWrite() {
	suite.recordLifecycle()

	dir := filepath.Join(suite.T().TempDir(), "run")
	suite.Require().NoError(suite.ledger.Write(dir))

	path := filepath.Join(dir, "signal_events.parquet")
	_, err := os.Stat(path)
	suite.Require().NoError(err)

	db, err := sql.Open("duckdb", ":memory:")
	suite.Require().NoError(err)
	defer db.Close()

	var count int
	suite.Require().NoError(db.QueryRow(fmt.Sprintf(`SELECT COUNT(*) FROM read_parquet('%s')`, path)).Scan(&count))
	suite.Equal(5, count)
}

func (suite *SignalLedgerTestSuite) TestCleanup() {
	suite.recordLifecycle()
	suite.Require().NoError(suite.ledger.Cleanup())

	events, err := suite.ledger.Events()
	suite.Require().NoError(err)
	suite.Empty(events)
}

func (suite *SignalLedgerTestSuite) TestClosedLedger() {
	var ledger *SignalLedger

	suite.Error(ledger.Record(&types.Signal{}))
	suite.NoError(ledger.Close())
}
