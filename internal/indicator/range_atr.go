package indicator

import (
	"math"
	"sort"

	"github.com/rxtech-lab/argo-signal/internal/types"
	"github.com/rxtech-lab/argo-signal/pkg/errors"
)

// RangeATR measures how far price travels over a window. For every point it takes the
// distance between the window's extreme high/low and the close one window earlier, then
// reports the given quantile of those distances.
type RangeATR struct {
	period   int
	quantile float64
	// highLow also counts the window's own high-low range.
	highLow bool
}

// NewRangeATR creates the indicator.
func NewRangeATR(period int, quantile float64, highLow bool) (*RangeATR, error) {
	if period < 1 {
		return nil, errors.Newf(errors.ErrCodeInvalidPeriod, "atr period must be positive, got %d", period)
	}

	if quantile < 0 || quantile > 1 {
		return nil, errors.Newf(errors.ErrCodeInvalidParameter, "atr quantile must be within [0, 1], got %v", quantile)
	}

	return &RangeATR{
		period:   period,
		quantile: quantile,
		highLow:  highLow,
	}, nil
}

// Calculate returns the range quantile over candles.
func (a *RangeATR) Calculate(candles []types.Candle) (float64, error) {
	if len(candles) <= a.period {
		return 0, errors.NewInsufficientDataErrorf(a.period+1, len(candles), "",
			"insufficient data points for ATR: required %d, got %d", a.period+1, len(candles))
	}

	ranges := make([]float64, 0, len(candles)-a.period)

	for i := a.period; i < len(candles); i++ {
		high, low := math.Inf(-1), math.Inf(1)
		for _, c := range candles[i-a.period+1 : i+1] {
			high = math.Max(high, c.High)
			low = math.Min(low, c.Low)
		}

		ref := candles[i-a.period].Close
		r := math.Max(math.Abs(high-ref), math.Abs(low-ref))

		if a.highLow {
			r = math.Max(r, high-low)
		}

		ranges = append(ranges, r)
	}

	return Quantile(ranges, a.quantile), nil
}

// Quantile returns the q-th quantile of values using linear interpolation between the
// closest ranks. values is not modified.
func Quantile(values []float64, q float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	pos := q * float64(len(sorted)-1)
	lower := int(math.Floor(pos))
	upper := int(math.Ceil(pos))

	if lower == upper {
		return sorted[lower]
	}

	frac := pos - float64(lower)

	return sorted[lower] + (sorted[upper]-sorted[lower])*frac
}
