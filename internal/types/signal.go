package types

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-signal/internal/utils"
	"github.com/rxtech-lab/argo-signal/pkg/errors"
)

// SignalStatus is the lifecycle state of a Signal.
type SignalStatus string

const (
	// SignalStatusWaiting is a signal that has not placed its entry order yet
	SignalStatusWaiting SignalStatus = "WAITING"
	// SignalStatusOrdered is a signal whose entry order is live on the exchange
	SignalStatusOrdered SignalStatus = "ORDERED"
	// SignalStatusActive is a signal holding a filled position
	SignalStatusActive SignalStatus = "ACTIVE"
	// SignalStatusCounterOrdered is a signal whose closing order is live on the exchange
	SignalStatusCounterOrdered SignalStatus = "COUNTER_ORDERED"
	// SignalStatusClosed is a signal whose position has been closed
	SignalStatusClosed SignalStatus = "CLOSED"
	// SignalStatusExpired is a signal that never opened a position
	SignalStatusExpired SignalStatus = "EXPIRED"
)

// IsTerminal reports whether no further transition is possible.
func (s SignalStatus) IsTerminal() bool {
	switch s {
	case SignalStatusClosed, SignalStatusExpired:
		return true
	case SignalStatusWaiting, SignalStatusOrdered, SignalStatusActive, SignalStatusCounterOrdered:
		return false
	default:
		return false
	}
}

// IsOpen reports whether the signal has an order or position on the exchange.
func (s SignalStatus) IsOpen() bool {
	switch s {
	case SignalStatusOrdered, SignalStatusActive, SignalStatusCounterOrdered:
		return true
	case SignalStatusWaiting, SignalStatusClosed, SignalStatusExpired:
		return false
	default:
		return false
	}
}

// CanTransitionTo reports whether moving from s to next is a legal lifecycle step.
func (s SignalStatus) CanTransitionTo(next SignalStatus) bool {
	switch s {
	case SignalStatusWaiting:
		return next == SignalStatusOrdered || next == SignalStatusExpired
	case SignalStatusOrdered:
		return next == SignalStatusActive || next == SignalStatusExpired
	case SignalStatusActive:
		return next == SignalStatusCounterOrdered
	case SignalStatusCounterOrdered:
		return next == SignalStatusClosed
	case SignalStatusClosed, SignalStatusExpired:
		return false
	default:
		return false
	}
}

// ExitReason names the barrier that closed a position.
type ExitReason string

const (
	ExitReasonNone       ExitReason = ""
	ExitReasonTakeProfit ExitReason = "TAKE_PROFIT"
	ExitReasonStopLoss   ExitReason = "STOP_LOSS"
	ExitReasonTimeLimit  ExitReason = "TIME_LIMIT"
	// ExitReasonUnwind marks positions closed by the shutdown unwind rather than a barrier.
	ExitReasonUnwind ExitReason = "UNWIND"
)

// PricePoint is one price observation recorded while a signal is active.
type PricePoint struct {
	Time  time.Time `yaml:"time" json:"time"`
	Price float64   `yaml:"price" json:"price"`
}

// Fill is an executed entry reported by the exchange.
type Fill struct {
	Price    float64
	Quantity float64
	Time     time.Time
}

// CounterOrder describes the order submitted to close an active signal.
type CounterOrder struct {
	ID         int64
	Type       OrderType
	Time       time.Time
	LimitPrice optional.Option[float64]
	Reason     ExitReason
}

// SignalParams are the inputs to NewSignal.
type SignalParams struct {
	Instrument   Instrument
	Side         Side         `validate:"required,oneof=BUY SELL"`
	PositionSide PositionSide `validate:"required,oneof=BOTH LONG SHORT"`
	// Size is the requested notional in quote currency.
	Size        float64     `validate:"gt=0"`
	OrderType   OrderType   `validate:"required,oneof=MARKET LIMIT"`
	Price       float64     `validate:"gt=0"`
	StartTime   time.Time   `validate:"required"`
	ExpireTime  time.Time   `validate:"required,gtfield=StartTime"`
	TimeInForce TimeInForce `validate:"omitempty,oneof=GTC IOC FOK"`
	StopLoss    optional.Option[float64]
	TakeProfit  optional.Option[float64]
	TimeLimit   optional.Option[time.Duration]
}

// Signal is one trading decision and its full lifecycle record.
//
// Fields are exported for reporting; state changes go through the Mark* methods, which
// reject any transition the lifecycle does not allow.
type Signal struct {
	ID           string       `yaml:"id" json:"id"`
	Instrument   Instrument   `yaml:"instrument" json:"instrument"`
	Side         Side         `yaml:"side" json:"side"`
	PositionSide PositionSide `yaml:"position_side" json:"position_side"`
	Size         float64      `yaml:"size" json:"size"`
	Quantity     float64      `yaml:"quantity" json:"quantity"`
	OrderType    OrderType    `yaml:"order_type" json:"order_type"`
	Price        float64      `yaml:"price" json:"price"`
	StartTime    time.Time    `yaml:"start_time" json:"start_time"`
	ExpireTime   time.Time    `yaml:"expire_time" json:"expire_time"`
	TimeInForce  TimeInForce  `yaml:"time_in_force" json:"time_in_force"`

	StopLoss   optional.Option[float64]       `yaml:"stop_loss" json:"stop_loss"`
	TakeProfit optional.Option[float64]       `yaml:"take_profit" json:"take_profit"`
	TimeLimit  optional.Option[time.Duration] `yaml:"time_limit" json:"time_limit"`

	Status SignalStatus `yaml:"status" json:"status"`

	OrderID    int64                    `yaml:"order_id" json:"order_id"`
	OrderTime  time.Time                `yaml:"order_time" json:"order_time"`
	LimitPrice optional.Option[float64] `yaml:"limit_price" json:"limit_price"`

	EntryPrice float64   `yaml:"entry_price" json:"entry_price"`
	EntryTime  time.Time `yaml:"entry_time" json:"entry_time"`

	CounterOrderID    optional.Option[int64]     `yaml:"counter_order_id" json:"counter_order_id"`
	CounterOrderType  optional.Option[OrderType] `yaml:"counter_order_type" json:"counter_order_type"`
	CounterOrderTime  time.Time                  `yaml:"counter_order_time" json:"counter_order_time"`
	CounterLimitPrice optional.Option[float64]   `yaml:"counter_limit_price" json:"counter_limit_price"`
	// CounterExecuted and CounterAvgPrice accumulate the fills of every closing order,
	// including replaced ones.
	CounterExecuted float64 `yaml:"counter_executed" json:"counter_executed"`
	CounterAvgPrice float64 `yaml:"counter_avg_price" json:"counter_avg_price"`

	ClosePrice optional.Option[float64] `yaml:"close_price" json:"close_price"`
	CloseTime  time.Time                `yaml:"close_time" json:"close_time"`

	PricePath  []PricePoint `yaml:"price_path" json:"price_path"`
	ExitReason ExitReason   `yaml:"exit_reason" json:"exit_reason"`
}

// NewSignal creates a WAITING signal. The quantity is size/price rounded to the instrument
// precision and raised to the instrument's minimum quantity when smaller.
func NewSignal(params SignalParams) (*Signal, error) {
	validate := validator.New()
	if err := validate.Struct(params); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidSignal, "invalid signal parameters", err)
	}

	if err := params.Instrument.Validate(); err != nil {
		return nil, err
	}

	if params.StopLoss.IsSome() && params.StopLoss.Unwrap() <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidStopLoss, "stop loss distance must be positive")
	}

	if params.TakeProfit.IsSome() && params.TakeProfit.Unwrap() <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidTakeProfit, "take profit distance must be positive")
	}

	if params.TimeLimit.IsSome() && params.TimeLimit.Unwrap() <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidParameter, "time limit must be positive")
	}

	inst := params.Instrument

	quantity := inst.RoundQuantity(params.Size / params.Price)
	if minQty := inst.MinQuantity(params.Price); quantity < minQty {
		quantity = minQty
	}

	tif := params.TimeInForce
	if tif == "" && params.OrderType == OrderTypeLimit {
		tif = TimeInForceGTC
	}

	return &Signal{
		ID:                uuid.New().String(),
		Instrument:        inst,
		Side:              params.Side,
		PositionSide:      params.PositionSide,
		Size:              params.Size,
		Quantity:          quantity,
		OrderType:         params.OrderType,
		Price:             params.Price,
		StartTime:         params.StartTime,
		ExpireTime:        params.ExpireTime,
		TimeInForce:       tif,
		StopLoss:          roundBarrier(params.StopLoss),
		TakeProfit:        roundBarrier(params.TakeProfit),
		TimeLimit:         params.TimeLimit,
		Status:            SignalStatusWaiting,
		OrderID:           0,
		OrderTime:         time.Time{},
		LimitPrice:        optional.None[float64](),
		EntryPrice:        0,
		EntryTime:         time.Time{},
		CounterOrderID:    optional.None[int64](),
		CounterOrderType:  optional.None[OrderType](),
		CounterOrderTime:  time.Time{},
		CounterLimitPrice: optional.None[float64](),
		ClosePrice:        optional.None[float64](),
		CloseTime:         time.Time{},
		PricePath:         nil,
		ExitReason:        ExitReasonNone,
	}, nil
}

func roundBarrier(v optional.Option[float64]) optional.Option[float64] {
	if v.IsNone() {
		return v
	}

	return optional.Some(utils.Round(v.Unwrap(), 4))
}

func (s *Signal) transition(next SignalStatus) error {
	if !s.Status.CanTransitionTo(next) {
		return errors.Newf(errors.ErrCodeInvalidTransition, "signal %s (%s): cannot move from %s to %s",
			s.ID, s.Instrument.Symbol, s.Status, next)
	}

	s.Status = next

	return nil
}

// Symbol returns the instrument symbol.
func (s *Signal) Symbol() string {
	return s.Instrument.Symbol
}

// MarkOrdered records a submitted entry order: WAITING -> ORDERED.
func (s *Signal) MarkOrdered(orderID int64, at time.Time, limitPrice optional.Option[float64]) error {
	if err := s.transition(SignalStatusOrdered); err != nil {
		return err
	}

	s.OrderID = orderID
	s.OrderTime = at
	s.LimitPrice = limitPrice

	return nil
}

// MarkActive records the entry fill: ORDERED -> ACTIVE. The filled quantity is re-rounded
// to the instrument precision and the fill becomes the first price path observation.
func (s *Signal) MarkActive(fill Fill) error {
	if s.Status != SignalStatusOrdered {
		return s.transition(SignalStatusActive)
	}

	quantity := s.Instrument.RoundQuantity(fill.Quantity)
	if quantity <= 0 || fill.Price <= 0 {
		return errors.Newf(errors.ErrCodeInvalidOrder, "signal %s: fill of %v @ %v cannot activate a position",
			s.ID, fill.Quantity, fill.Price)
	}

	if err := s.transition(SignalStatusActive); err != nil {
		return err
	}

	s.Quantity = quantity
	s.EntryPrice = fill.Price
	s.EntryTime = fill.Time
	s.PricePath = []PricePoint{{Time: fill.Time, Price: fill.Price}}

	return nil
}

// MarkCounterOrdered records the closing order: ACTIVE -> COUNTER_ORDERED.
func (s *Signal) MarkCounterOrdered(order CounterOrder) error {
	if err := s.transition(SignalStatusCounterOrdered); err != nil {
		return err
	}

	s.setCounterOrder(order)

	return nil
}

// ReplaceCounterOrder swaps the live closing order for a new one. The signal stays
// COUNTER_ORDERED.
func (s *Signal) ReplaceCounterOrder(order CounterOrder) error {
	if s.Status != SignalStatusCounterOrdered {
		return errors.Newf(errors.ErrCodeInvalidTransition, "signal %s: cannot replace counter order while %s",
			s.ID, s.Status)
	}

	s.setCounterOrder(order)

	return nil
}

func (s *Signal) setCounterOrder(order CounterOrder) {
	s.CounterOrderID = optional.Some(order.ID)
	s.CounterOrderType = optional.Some(order.Type)
	s.CounterOrderTime = order.Time
	s.CounterLimitPrice = order.LimitPrice

	if order.Reason != ExitReasonNone {
		s.ExitReason = order.Reason
	}
}

// RecordCounterFill adds quantity filled at price to the closing fills. The average price is
// weighted by quantity.
func (s *Signal) RecordCounterFill(quantity float64, price float64) error {
	if s.Status != SignalStatusCounterOrdered {
		return errors.Newf(errors.ErrCodeInvalidTransition, "signal %s: cannot record counter fill while %s",
			s.ID, s.Status)
	}

	if quantity <= 0 {
		return nil
	}

	total := s.CounterExecuted + quantity
	s.CounterAvgPrice = (s.CounterAvgPrice*s.CounterExecuted + price*quantity) / total
	s.CounterExecuted = total

	return nil
}

// CounterRemaining returns the position quantity not yet closed by a counter fill.
func (s *Signal) CounterRemaining() float64 {
	return s.Instrument.RoundQuantity(s.Quantity - s.CounterExecuted)
}

// MarkClosed records the close: COUNTER_ORDERED -> CLOSED. A None price marks a position
// whose exit fill could not be confirmed.
func (s *Signal) MarkClosed(at time.Time, price optional.Option[float64]) error {
	if err := s.transition(SignalStatusClosed); err != nil {
		return err
	}

	s.CloseTime = at
	s.ClosePrice = price

	return nil
}

// MarkExpired abandons a signal that never opened a position: WAITING|ORDERED -> EXPIRED.
func (s *Signal) MarkExpired() error {
	return s.transition(SignalStatusExpired)
}

// RecordPrice appends an observation to the price path. Only active signals record prices
// and timestamps may not go backwards.
func (s *Signal) RecordPrice(at time.Time, price float64) error {
	if s.Status != SignalStatusActive {
		return errors.Newf(errors.ErrCodeInvalidTransition, "signal %s: cannot record price while %s", s.ID, s.Status)
	}

	if last, ok := s.LastObservation(); ok && at.Before(last.Time) {
		return errors.Newf(errors.ErrCodePathOutOfOrder, "signal %s: observation at %s precedes %s",
			s.ID, at.Format(time.RFC3339Nano), last.Time.Format(time.RFC3339Nano))
	}

	s.PricePath = append(s.PricePath, PricePoint{Time: at, Price: price})

	return nil
}

// LastObservation returns the newest price path entry.
func (s *Signal) LastObservation() (PricePoint, bool) {
	if len(s.PricePath) == 0 {
		return PricePoint{}, false
	}

	return s.PricePath[len(s.PricePath)-1], true
}

// Position returns the signed price change from entry to the latest observation.
func (s *Signal) Position() float64 {
	last, ok := s.LastObservation()
	if !ok {
		return 0
	}

	return s.Side.Sign() * (last.Price - s.EntryPrice)
}

// EvaluateExit checks the exit barriers against the price path and returns the reason that
// fired. Take-profit is checked first, then stop-loss, then time-limit; the first match
// wins. With retrace set, stop-loss fires only once the path has breached the stop and then
// recovered above half of it. The reason is stored on the signal by the counter order that
// acts on it.
func (s *Signal) EvaluateExit(retrace bool) ExitReason {
	if s.Status != SignalStatusActive || len(s.PricePath) < 2 {
		return ExitReasonNone
	}

	return s.exitReason(retrace)
}

func (s *Signal) exitReason(retrace bool) ExitReason {
	sign := s.Side.Sign()
	last := s.PricePath[len(s.PricePath)-1]
	pos := sign * (last.Price - s.EntryPrice)

	if s.TakeProfit.IsSome() && pos > s.TakeProfit.Unwrap() {
		return ExitReasonTakeProfit
	}

	if s.StopLoss.IsSome() {
		stop := s.StopLoss.Unwrap()

		if retrace {
			worst := pos
			for _, p := range s.PricePath {
				worst = min(worst, sign*(p.Price-s.EntryPrice))
			}

			if worst < -stop && pos > -stop/2 {
				return ExitReasonStopLoss
			}
		} else if pos < -stop {
			return ExitReasonStopLoss
		}
	}

	if s.TimeLimit.IsSome() && last.Time.Sub(s.EntryTime) >= s.TimeLimit.Unwrap() && pos >= 0 {
		return ExitReasonTimeLimit
	}

	return ExitReasonNone
}

// PnL returns the realized profit of a closed signal. It is None until a close price is known.
func (s *Signal) PnL() optional.Option[float64] {
	if s.Status != SignalStatusClosed || s.ClosePrice.IsNone() {
		return optional.None[float64]()
	}

	return optional.Some(s.Side.Sign() * s.Quantity * (s.ClosePrice.Unwrap() - s.EntryPrice))
}

// HoldingTime returns the time between entry and close, or zero while the position is open.
func (s *Signal) HoldingTime() time.Duration {
	if s.Status != SignalStatusClosed || s.EntryTime.IsZero() {
		return 0
	}

	return s.CloseTime.Sub(s.EntryTime)
}

// Clone returns a deep copy safe to hand to readers outside the owning worker.
func (s *Signal) Clone() *Signal {
	c := *s
	c.PricePath = append([]PricePoint(nil), s.PricePath...)

	return &c
}

const signalTimeLayout = "06-01-02 15:04:05"

// String renders the signal for audit logs.
func (s *Signal) String() string {
	var b strings.Builder

	fmt.Fprintf(&b, "Signal %s %s status:%s side:%s type:%s quantity:%s",
		s.Instrument.Symbol, shortID(s.ID), s.Status, s.Side, s.OrderType, formatFloat(s.Quantity))

	switch s.Status {
	case SignalStatusWaiting, SignalStatusExpired:
		if s.OrderID != 0 {
			fmt.Fprintf(&b, " id:%d", s.OrderID)
		}

		fmt.Fprintf(&b, " price:%s start:%s", formatFloat(s.Price), s.StartTime.UTC().Format(signalTimeLayout))
	case SignalStatusOrdered:
		fmt.Fprintf(&b, " id:%d price:%s", s.OrderID, formatFloat(s.LimitPrice.TakeOr(s.Price)))
		fmt.Fprintf(&b, " ordered:%s", s.OrderTime.UTC().Format(signalTimeLayout))
	case SignalStatusActive:
		fmt.Fprintf(&b, " id:%d entry:%s entered:%s", s.OrderID, formatFloat(s.EntryPrice),
			s.EntryTime.UTC().Format(signalTimeLayout))
		fmt.Fprintf(&b, " pos:%s", formatFloat(s.Position()))
	case SignalStatusCounterOrdered:
		fmt.Fprintf(&b, " id:%d entry:%s counter_id:%d counter_type:%s exit:%s",
			s.OrderID, formatFloat(s.EntryPrice), s.CounterOrderID.TakeOr(0),
			s.CounterOrderType.TakeOr(""), s.ExitReason)
	case SignalStatusClosed:
		fmt.Fprintf(&b, " entry:%s close:%s closed:%s exit:%s",
			formatFloat(s.EntryPrice), formatOptional(s.ClosePrice),
			s.CloseTime.UTC().Format(signalTimeLayout), s.ExitReason)

		if pnl := s.PnL(); pnl.IsSome() {
			fmt.Fprintf(&b, " pnl:%s", formatFloat(pnl.Unwrap()))
		}
	}

	return b.String()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}

	return id
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatOptional(v optional.Option[float64]) string {
	if v.IsNone() {
		return "None"
	}

	return formatFloat(v.Unwrap())
}
