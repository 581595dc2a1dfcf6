package types

import (
	"testing"

	"github.com/rxtech-lab/argo-signal/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type InstrumentTestSuite struct {
	suite.Suite
}

func TestInstrumentSuite(t *testing.T) {
	suite.Run(t, new(InstrumentTestSuite))
}

func (suite *InstrumentTestSuite) TestLookupInstrument() {
	inst, err := LookupInstrument("BNBUSDT")
	suite.NoError(err)
	suite.Equal(int32(2), inst.QuantityPrecision)
	suite.Equal(int32(3), inst.PricePrecision)

	_, err = LookupInstrument("DOGEUSDT")
	suite.True(errors.HasCode(err, errors.ErrCodeUnknownInstrument))
}

func (suite *InstrumentTestSuite) TestFormat() {
	inst, err := LookupInstrument("XRPUSDT")
	suite.Require().NoError(err)

	suite.Equal("12.0", inst.FormatQuantity(12))
	suite.Equal("0.3", inst.FormatQuantity(0.1+0.2))
	suite.Equal("0.5123", inst.FormatPrice(0.51234))
	suite.Equal("0.5000", inst.FormatPrice(0.5))
}

func (suite *InstrumentTestSuite) TestMinQuantity() {
	tests := []struct {
		name     string
		inst     Instrument
		price    float64
		expected float64
	}{
		{name: "step dominates", inst: Instrument{Symbol: "X", QuantityPrecision: 3, MinNotional: 5}, price: 10000, expected: 0.001},
		{name: "notional dominates", inst: Instrument{Symbol: "X", QuantityPrecision: 3, MinNotional: 5}, price: 300, expected: 0.017},
		{name: "no notional", inst: Instrument{Symbol: "X", QuantityPrecision: 1}, price: 1, expected: 0.1},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			qty := tc.inst.MinQuantity(tc.price)
			suite.InDelta(tc.expected, qty, 1e-12)
			suite.GreaterOrEqual(qty*tc.price, tc.inst.MinNotional)
		})
	}
}

func (suite *InstrumentTestSuite) TestRoundPrice() {
	inst := Instrument{Symbol: "BTCUSDT", QuantityPrecision: 3, PricePrecision: 2}
	suite.Equal(9123.46, inst.RoundPrice(9123.456))
	suite.Equal(0.012, inst.RoundQuantity(0.0123))
}
