package strategy

import (
	"time"

	"github.com/rxtech-lab/argo-signal/internal/types"
)

// SignalTemplate turns rule decisions into WAITING signals.
type SignalTemplate struct {
	OrderType types.OrderType
	HedgeMode bool
	// Interval is the candle length; a signal starts one interval after its candle opened.
	Interval time.Duration
	// EntryWindow is how long after its start a signal may still place its entry.
	EntryWindow time.Duration
}

// NewSignal builds the signal for decision, sized at size in quote currency.
func (t SignalTemplate) NewSignal(inst types.Instrument, decision Decision, size float64) (*types.Signal, error) {
	start := decision.Time.Add(t.Interval)

	tif := types.TimeInForce("")
	if t.OrderType == types.OrderTypeLimit {
		tif = types.TimeInForceGTC
	}

	return types.NewSignal(types.SignalParams{
		Instrument:   inst,
		Side:         decision.Side,
		PositionSide: types.EntryPositionSide(decision.Side, t.HedgeMode),
		Size:         size,
		OrderType:    t.OrderType,
		Price:        inst.RoundPrice(decision.Price),
		StartTime:    start,
		ExpireTime:   start.Add(t.EntryWindow),
		TimeInForce:  tif,
		StopLoss:     decision.StopLoss,
		TakeProfit:   decision.TakeProfit,
		TimeLimit:    decision.TimeLimit,
	})
}
