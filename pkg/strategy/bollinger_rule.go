package strategy

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-signal/internal/indicator"
	"github.com/rxtech-lab/argo-signal/internal/types"
	"github.com/rxtech-lab/argo-signal/pkg/errors"
)

// BollingerConfig configures the band-crossing rule.
type BollingerConfig struct {
	Period      int           `yaml:"period" json:"period" jsonschema:"title=Period,description=Rolling window in candles,minimum=2,default=15" validate:"gte=2"`
	NumStdDev   float64       `yaml:"num_std_dev" json:"num_std_dev" jsonschema:"title=Band Width,description=Band distance in standard deviations,default=2.5" validate:"gt=0"`
	ATRQuantile float64       `yaml:"atr_quantile" json:"atr_quantile" jsonschema:"title=ATR Quantile,description=Quantile of window ranges used as exit distance,minimum=0,maximum=1,default=0.3" validate:"gte=0,lte=1"`
	ATRHighLow  bool          `yaml:"atr_high_low" json:"atr_high_low" jsonschema:"title=ATR High-Low,description=Include the window high-low range in the ATR"`
	TimeLimit   time.Duration `yaml:"time_limit" json:"time_limit" jsonschema:"title=Time Limit,description=Maximum holding time of a profitable position" validate:"gt=0"`
}

// DefaultBollingerConfig returns a 15 candle window, 2.5 deviation bands, the 30% range
// quantile as exit distance and a 15 minute time limit.
func DefaultBollingerConfig() BollingerConfig {
	return BollingerConfig{
		Period:      15,
		NumStdDev:   2.5,
		ATRQuantile: 0.3,
		ATRHighLow:  false,
		TimeLimit:   15 * time.Minute,
	}
}

// Validate validates the BollingerConfig struct.
func (c *BollingerConfig) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeStrategyConfigError, "invalid bollinger config", err)
	}

	return nil
}

// BollingerRule is a mean-reversion rule: a close crossing above the upper band sells and a
// close crossing below the lower band buys. Stop-loss and take-profit are both set to the
// range ATR of the series.
type BollingerRule struct {
	bands     *indicator.BollingerBands
	atr       *indicator.RangeATR
	timeLimit time.Duration
}

var _ Rule = (*BollingerRule)(nil)

// NewBollingerRule creates the rule from config.
func NewBollingerRule(config BollingerConfig) (*BollingerRule, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	bands, err := indicator.NewBollingerBands(config.Period, config.NumStdDev)
	if err != nil {
		return nil, err
	}

	atr, err := indicator.NewRangeATR(config.Period, config.ATRQuantile, config.ATRHighLow)
	if err != nil {
		return nil, err
	}

	return &BollingerRule{
		bands:     bands,
		atr:       atr,
		timeLimit: config.TimeLimit,
	}, nil
}

func (r *BollingerRule) Name() string {
	return "bollinger"
}

func (r *BollingerRule) Warmup() int {
	return r.bands.Period() + 1
}

func (r *BollingerRule) Decide(candles []types.Candle) (Decision, bool, error) {
	if len(candles) < r.Warmup() {
		return Decision{}, false, nil
	}

	closes := make([]float64, len(candles))
	for i, c := range candles {
		closes[i] = c.Close
	}

	bands, err := r.bands.Calculate(closes)
	if err != nil {
		return Decision{}, false, err
	}

	last, prev := len(closes)-1, len(closes)-2

	var side types.Side

	switch {
	case closes[prev] < bands.Upper[prev] && closes[last] > bands.Upper[last]:
		side = types.SideSell
	case closes[prev] > bands.Lower[prev] && closes[last] < bands.Lower[last]:
		side = types.SideBuy
	default:
		return Decision{}, false, nil
	}

	distance, err := r.atr.Calculate(candles)
	if err != nil {
		if errors.IsInsufficientDataError(err) {
			return Decision{}, false, nil
		}

		return Decision{}, false, errors.Wrap(errors.ErrCodeIndicatorCalculation, "failed to calculate exit distance", err)
	}

	if distance <= 0 {
		return Decision{}, false, nil
	}

	return Decision{
		Side:       side,
		Time:       candles[last].OpenTime,
		Price:      candles[last].Close,
		StopLoss:   optional.Some(distance),
		TakeProfit: optional.Some(distance),
		TimeLimit:  optional.Some(r.timeLimit),
	}, true, nil
}
