package commission_fee

import "github.com/rxtech-lab/argo-signal/internal/types"

const (
	binanceFuturesMarketRate = 0.032 / 100
	binanceFuturesLimitRate  = 0.016 / 100
)

// BinanceFuturesCommissionFee charges the taker rate on MARKET orders and the maker rate on
// LIMIT orders.
type BinanceFuturesCommissionFee struct {
	rates map[types.OrderType]float64
}

func NewBinanceFuturesCommissionFee() CommissionFee {
	return &BinanceFuturesCommissionFee{
		rates: map[types.OrderType]float64{
			types.OrderTypeMarket: binanceFuturesMarketRate,
			types.OrderTypeLimit:  binanceFuturesLimitRate,
		},
	}
}

// Rate returns the taker rate for unknown order types.
func (c *BinanceFuturesCommissionFee) Rate(orderType types.OrderType) float64 {
	if rate, ok := c.rates[orderType]; ok {
		return rate
	}

	return binanceFuturesMarketRate
}

func (c *BinanceFuturesCommissionFee) Calculate(orderType types.OrderType, quantity float64, price float64) float64 {
	return c.Rate(orderType) * quantity * price
}
