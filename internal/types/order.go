package types

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-signal/pkg/errors"
)

type Side string

type PositionSide string

type OrderType string

type TimeInForce string

type OrderStatus string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

const (
	PositionSideBoth  PositionSide = "BOTH"
	PositionSideLong  PositionSide = "LONG"
	PositionSideShort PositionSide = "SHORT"
)

const (
	OrderTypeMarket OrderType = "MARKET"
	OrderTypeLimit  OrderType = "LIMIT"
)

const (
	TimeInForceGTC TimeInForce = "GTC"
	TimeInForceIOC TimeInForce = "IOC"
	TimeInForceFOK TimeInForce = "FOK"
)

const (
	OrderStatusNew             OrderStatus = "NEW"
	OrderStatusPartiallyFilled OrderStatus = "PARTIALLY_FILLED"
	OrderStatusFilled          OrderStatus = "FILLED"
	OrderStatusCancelled       OrderStatus = "CANCELED"
	OrderStatusRejected        OrderStatus = "REJECTED"
	OrderStatusExpired         OrderStatus = "EXPIRED"
)

// Sign returns +1 for BUY and -1 for SELL.
func (s Side) Sign() float64 {
	if s == SideSell {
		return -1
	}

	return 1
}

// Opposite returns the side of the order that closes a position opened on s.
func (s Side) Opposite() Side {
	if s == SideBuy {
		return SideSell
	}

	return SideBuy
}

// EntryPositionSide returns the position side an entry on side s opens. In one-way
// mode every order uses BOTH.
func EntryPositionSide(side Side, hedgeMode bool) PositionSide {
	if !hedgeMode {
		return PositionSideBoth
	}

	if side == SideBuy {
		return PositionSideLong
	}

	return PositionSideShort
}

// IsDone reports whether the exchange will not fill the order any further.
func (s OrderStatus) IsDone() bool {
	switch s {
	case OrderStatusFilled, OrderStatusCancelled, OrderStatusRejected, OrderStatusExpired:
		return true
	case OrderStatusNew, OrderStatusPartiallyFilled:
		return false
	default:
		return false
	}
}

// OrderRequest is an order submitted to the exchange.
type OrderRequest struct {
	Symbol       string       `yaml:"symbol" json:"symbol" validate:"required"`
	Side         Side         `yaml:"side" json:"side" validate:"required,oneof=BUY SELL"`
	PositionSide PositionSide `yaml:"position_side" json:"position_side" validate:"required,oneof=BOTH LONG SHORT"`
	Type         OrderType    `yaml:"type" json:"type" validate:"required,oneof=MARKET LIMIT"`
	Quantity     float64      `yaml:"quantity" json:"quantity" validate:"required,gt=0"`
	// Price is required for LIMIT orders and ignored for MARKET orders.
	Price optional.Option[float64] `yaml:"price" json:"price"`
	// TimeInForce applies to LIMIT orders only.
	TimeInForce TimeInForce `yaml:"time_in_force" json:"time_in_force" validate:"omitempty,oneof=GTC IOC FOK"`
}

// OrderUpdate is the exchange's view of an order after a submit, query or cancel.
type OrderUpdate struct {
	OrderID          int64       `yaml:"order_id" json:"order_id"`
	Symbol           string      `yaml:"symbol" json:"symbol"`
	Status           OrderStatus `yaml:"status" json:"status"`
	AvgPrice         float64     `yaml:"avg_price" json:"avg_price"`
	ExecutedQuantity float64     `yaml:"executed_quantity" json:"executed_quantity"`
	UpdateTime       time.Time   `yaml:"update_time" json:"update_time"`
}

// Validate validates the OrderRequest struct.
func (r *OrderRequest) Validate() error {
	validate := validator.New()
	if err := validate.Struct(r); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidOrder, "invalid order request", err)
	}

	if r.Type == OrderTypeLimit {
		if r.Price.IsNone() || r.Price.Unwrap() <= 0 {
			return errors.New(errors.ErrCodeInvalidOrder, "limit order requires a positive price")
		}
	}

	return nil
}
