package commission_fee

import "github.com/rxtech-lab/argo-signal/internal/types"

// ZeroCommissionFee implements CommissionFee interface with zero commission.
type ZeroCommissionFee struct{}

// NewZeroCommissionFee creates a new zero commission fee.
func NewZeroCommissionFee() CommissionFee {
	return &ZeroCommissionFee{}
}

// Rate returns 0 for any order type.
func (c *ZeroCommissionFee) Rate(orderType types.OrderType) float64 {
	return 0.0
}

// Calculate returns 0 for any fill.
func (c *ZeroCommissionFee) Calculate(orderType types.OrderType, quantity float64, price float64) float64 {
	return 0.0
}
