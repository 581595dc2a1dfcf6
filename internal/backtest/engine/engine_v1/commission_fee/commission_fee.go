package commission_fee

import "github.com/rxtech-lab/argo-signal/internal/types"

type CommissionFee interface {
	// Rate returns the fee charged per unit of notional for an order of orderType
	Rate(orderType types.OrderType) float64
	// Calculate returns the fee in quote currency for quantity filled at price
	Calculate(orderType types.OrderType, quantity float64, price float64) float64
}

type Broker string

const (
	BrokerBinanceFutures Broker = "binance_futures"
	BrokerZero           Broker = "zero_commission"
)

var AllBrokers = []any{
	BrokerBinanceFutures,
	BrokerZero,
}

func GetCommissionFeeHandler(broker Broker) CommissionFee {
	switch broker {
	case BrokerBinanceFutures:
		return NewBinanceFuturesCommissionFee()
	case BrokerZero:
		return NewZeroCommissionFee()
	default:
		return NewZeroCommissionFee()
	}
}
