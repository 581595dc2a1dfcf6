package indicator

import (
	"math"
	"testing"

	"github.com/rxtech-lab/argo-signal/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type BollingerBandsTestSuite struct {
	suite.Suite
}

func TestBollingerBandsSuite(t *testing.T) {
	suite.Run(t, new(BollingerBandsTestSuite))
}

func (suite *BollingerBandsTestSuite) TestNewBollingerBandsValidation() {
	_, err := NewBollingerBands(1, 2)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidPeriod))

	_, err = NewBollingerBands(20, 0)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidParameter))

	bb, err := NewBollingerBands(15, 2.5)
	suite.NoError(err)
	suite.Equal(15, bb.Period())
}

func (suite *BollingerBandsTestSuite) TestInsufficientData() {
	bb, err := NewBollingerBands(5, 2)
	suite.Require().NoError(err)

	_, err = bb.Calculate([]float64{1, 2, 3})
	suite.True(errors.IsInsufficientDataError(err))
}

func (suite *BollingerBandsTestSuite) TestCalculate() {
	bb, err := NewBollingerBands(4, 2)
	suite.Require().NoError(err)

	// Window 2,4,4,4 has mean 3.5 and population deviation sqrt(0.75).
	bands, err := bb.Calculate([]float64{9, 2, 4, 4, 4})
	suite.Require().NoError(err)

	suite.True(math.IsNaN(bands.Middle[0]))
	suite.True(math.IsNaN(bands.Upper[2]))
	suite.InDelta(4.75, bands.Middle[3], 1e-12)
	suite.InDelta(3.5, bands.Middle[4], 1e-12)
	suite.InDelta(3.5+2*math.Sqrt(0.75), bands.Upper[4], 1e-12)
	suite.InDelta(3.5-2*math.Sqrt(0.75), bands.Lower[4], 1e-12)
}

func (suite *BollingerBandsTestSuite) TestFlatSeriesCollapsesBands() {
	bb, err := NewBollingerBands(3, 2.5)
	suite.Require().NoError(err)

	bands, err := bb.Calculate([]float64{10, 10, 10, 10})
	suite.Require().NoError(err)
	suite.Equal(10.0, bands.Upper[3])
	suite.Equal(10.0, bands.Lower[3])
}
