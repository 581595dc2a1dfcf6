package indicator

import (
	"math"

	"github.com/rxtech-lab/argo-signal/pkg/errors"
)

// BollingerBands computes a rolling mean with bands numSD population standard
// deviations above and below it.
type BollingerBands struct {
	period int
	stdDev float64
}

// Bands holds one value per input point. Points before the first full window are NaN.
type Bands struct {
	Upper  []float64
	Middle []float64
	Lower  []float64
}

// NewBollingerBands creates the indicator.
func NewBollingerBands(period int, stdDev float64) (*BollingerBands, error) {
	if period < 2 {
		return nil, errors.Newf(errors.ErrCodeInvalidPeriod, "bollinger period must be at least 2, got %d", period)
	}

	if stdDev <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidParameter, "bollinger width must be positive, got %v", stdDev)
	}

	return &BollingerBands{
		period: period,
		stdDev: stdDev,
	}, nil
}

// Period returns the rolling window length.
func (bb *BollingerBands) Period() int {
	return bb.period
}

// Calculate returns the bands over closes.
func (bb *BollingerBands) Calculate(closes []float64) (Bands, error) {
	if len(closes) < bb.period {
		return Bands{}, errors.NewInsufficientDataErrorf(bb.period, len(closes), "",
			"insufficient data points for Bollinger Bands: required %d, got %d", bb.period, len(closes))
	}

	bands := Bands{
		Upper:  make([]float64, len(closes)),
		Middle: make([]float64, len(closes)),
		Lower:  make([]float64, len(closes)),
	}

	for i := range closes {
		if i < bb.period-1 {
			bands.Upper[i], bands.Middle[i], bands.Lower[i] = math.NaN(), math.NaN(), math.NaN()

			continue
		}

		window := closes[i-bb.period+1 : i+1]

		var sum float64
		for _, c := range window {
			sum += c
		}

		middle := sum / float64(bb.period)

		var squaredDiffSum float64

		for _, c := range window {
			diff := c - middle
			squaredDiffSum += diff * diff
		}

		sd := math.Sqrt(squaredDiffSum / float64(bb.period))

		bands.Middle[i] = middle
		bands.Upper[i] = middle + bb.stdDev*sd
		bands.Lower[i] = middle - bb.stdDev*sd
	}

	return bands, nil
}
