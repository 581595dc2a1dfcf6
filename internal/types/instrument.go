package types

import (
	"github.com/go-playground/validator/v10"
	"github.com/rxtech-lab/argo-signal/internal/utils"
	"github.com/rxtech-lab/argo-signal/pkg/errors"
)

// Instrument carries the trading rules of one futures symbol.
type Instrument struct {
	Symbol            string  `yaml:"symbol" json:"symbol" jsonschema:"title=Symbol,description=Exchange symbol such as BTCUSDT" validate:"required"`
	QuantityPrecision int32   `yaml:"quantity_precision" json:"quantity_precision" jsonschema:"title=Quantity Precision,minimum=0,maximum=8" validate:"gte=0,lte=8"`
	PricePrecision    int32   `yaml:"price_precision" json:"price_precision" jsonschema:"title=Price Precision,minimum=0,maximum=8" validate:"gte=0,lte=8"`
	MinNotional       float64 `yaml:"min_notional" json:"min_notional" jsonschema:"title=Minimum Notional,description=Smallest order value in quote currency" validate:"gte=0"`
}

// Validate validates the Instrument struct.
func (i *Instrument) Validate() error {
	validate := validator.New()
	if err := validate.Struct(i); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidParameter, "invalid instrument", err)
	}

	return nil
}

// RoundQuantity rounds qty to the instrument's quantity precision.
func (i Instrument) RoundQuantity(qty float64) float64 {
	return utils.Round(qty, i.QuantityPrecision)
}

// RoundPrice rounds price to the instrument's price precision.
func (i Instrument) RoundPrice(price float64) float64 {
	return utils.Round(price, i.PricePrecision)
}

// FormatQuantity renders qty with the instrument's quantity precision.
func (i Instrument) FormatQuantity(qty float64) string {
	return utils.FormatDecimal(qty, i.QuantityPrecision)
}

// FormatPrice renders price with the instrument's price precision.
func (i Instrument) FormatPrice(price float64) string {
	return utils.FormatDecimal(price, i.PricePrecision)
}

// MinQuantity returns the smallest tradable quantity at price: one quantity step, or the
// minimum notional divided by price when that is larger, rounded up to precision.
func (i Instrument) MinQuantity(price float64) float64 {
	step := utils.Step(i.QuantityPrecision)
	if price <= 0 || i.MinNotional/price <= step {
		return step
	}

	return utils.RoundUp(i.MinNotional/price, i.QuantityPrecision)
}

var defaultInstruments = map[string]Instrument{
	"BTCUSDT":  {Symbol: "BTCUSDT", QuantityPrecision: 3, PricePrecision: 2, MinNotional: 5},
	"ETHUSDT":  {Symbol: "ETHUSDT", QuantityPrecision: 3, PricePrecision: 2, MinNotional: 5},
	"BCHUSDT":  {Symbol: "BCHUSDT", QuantityPrecision: 2, PricePrecision: 2, MinNotional: 5},
	"XRPUSDT":  {Symbol: "XRPUSDT", QuantityPrecision: 1, PricePrecision: 4, MinNotional: 5},
	"EOSUSDT":  {Symbol: "EOSUSDT", QuantityPrecision: 1, PricePrecision: 3, MinNotional: 5},
	"LTCUSDT":  {Symbol: "LTCUSDT", QuantityPrecision: 3, PricePrecision: 2, MinNotional: 5},
	"TRXUSDT":  {Symbol: "TRXUSDT", QuantityPrecision: 0, PricePrecision: 5, MinNotional: 5},
	"ETCUSDT":  {Symbol: "ETCUSDT", QuantityPrecision: 2, PricePrecision: 3, MinNotional: 5},
	"LINKUSDT": {Symbol: "LINKUSDT", QuantityPrecision: 2, PricePrecision: 3, MinNotional: 5},
	"XLMUSDT":  {Symbol: "XLMUSDT", QuantityPrecision: 0, PricePrecision: 5, MinNotional: 5},
	"ADAUSDT":  {Symbol: "ADAUSDT", QuantityPrecision: 0, PricePrecision: 5, MinNotional: 5},
	"XMRUSDT":  {Symbol: "XMRUSDT", QuantityPrecision: 3, PricePrecision: 2, MinNotional: 5},
	"DASHUSDT": {Symbol: "DASHUSDT", QuantityPrecision: 3, PricePrecision: 2, MinNotional: 5},
	"ZECUSDT":  {Symbol: "ZECUSDT", QuantityPrecision: 3, PricePrecision: 2, MinNotional: 5},
	"XTZUSDT":  {Symbol: "XTZUSDT", QuantityPrecision: 1, PricePrecision: 3, MinNotional: 5},
	"BNBUSDT":  {Symbol: "BNBUSDT", QuantityPrecision: 2, PricePrecision: 3, MinNotional: 5},
	"ATOMUSDT": {Symbol: "ATOMUSDT", QuantityPrecision: 2, PricePrecision: 3, MinNotional: 5},
	"ONTUSDT":  {Symbol: "ONTUSDT", QuantityPrecision: 1, PricePrecision: 4, MinNotional: 5},
	"IOTAUSDT": {Symbol: "IOTAUSDT", QuantityPrecision: 1, PricePrecision: 4, MinNotional: 5},
	"BATUSDT":  {Symbol: "BATUSDT", QuantityPrecision: 1, PricePrecision: 4, MinNotional: 5},
	"VETUSDT":  {Symbol: "VETUSDT", QuantityPrecision: 0, PricePrecision: 6, MinNotional: 5},
	"NEOUSDT":  {Symbol: "NEOUSDT", QuantityPrecision: 2, PricePrecision: 3, MinNotional: 5},
	"QTUMUSDT": {Symbol: "QTUMUSDT", QuantityPrecision: 1, PricePrecision: 3, MinNotional: 5},
	"IOSTUSDT": {Symbol: "IOSTUSDT", QuantityPrecision: 0, PricePrecision: 6, MinNotional: 5},
}

// LookupInstrument returns the built-in trading rules for symbol.
func LookupInstrument(symbol string) (Instrument, error) {
	inst, ok := defaultInstruments[symbol]
	if !ok {
		return Instrument{}, errors.Newf(errors.ErrCodeUnknownInstrument, "unknown instrument: %s", symbol)
	}

	return inst, nil
}
