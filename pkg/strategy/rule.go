package strategy

import (
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-signal/internal/types"
)

// Decision is a directional trigger produced by a Rule on the newest candle.
type Decision struct {
	Side types.Side
	// Time is the open time of the triggering candle.
	Time time.Time
	// Price is the close of the triggering candle.
	Price      float64
	StopLoss   optional.Option[float64]
	TakeProfit optional.Option[float64]
	TimeLimit  optional.Option[time.Duration]
}

// Rule decides whether the most recent candle of a series is a fresh entry trigger.
type Rule interface {
	// Name identifies the rule in logs.
	Name() string
	// Warmup is the number of candles required before Decide can trigger.
	Warmup() int
	// Decide evaluates the last candle of candles. The bool is false when there is no trigger.
	Decide(candles []types.Candle) (Decision, bool, error)
}
