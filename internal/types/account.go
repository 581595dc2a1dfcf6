package types

// OpenPosition is one position record reported by the exchange. In hedge mode a symbol
// may carry both a LONG and a SHORT record.
type OpenPosition struct {
	Symbol       string       `json:"symbol" yaml:"symbol"`
	PositionSide PositionSide `json:"position_side" yaml:"position_side"`
	// Amount is signed: positive for long exposure, negative for short exposure.
	Amount     float64 `json:"amount" yaml:"amount"`
	EntryPrice float64 `json:"entry_price" yaml:"entry_price"`
}

// Notional returns |amount * entry price|.
func (p OpenPosition) Notional() float64 {
	n := p.Amount * p.EntryPrice
	if n < 0 {
		return -n
	}

	return n
}

// Balance is the wallet balance of one asset.
type Balance struct {
	Asset     string  `json:"asset" yaml:"asset"`
	Balance   float64 `json:"balance" yaml:"balance"`
	Available float64 `json:"available" yaml:"available"`
}
