package mocks

import (
	"math"
	"math/rand"
	"time"

	"github.com/rxtech-lab/argo-signal/internal/types"
)

// DataGenerator generates market data for tests and synthetic backtests.
type DataGenerator struct {
	rng *rand.Rand
}

// NewDataGenerator creates a new DataGenerator with the given seed.
// Use a fixed seed for reproducible results in tests.
func NewDataGenerator(seed int64) *DataGenerator {
	return &DataGenerator{
		rng: rand.New(rand.NewSource(seed)), //nolint:gosec // test data
	}
}

// GeneratorConfig configures how market data is generated.
type GeneratorConfig struct {
	// Symbol is the instrument symbol (e.g., "BTCUSDT")
	Symbol string
	// StartTime is the open time of the first candle
	StartTime time.Time
	// Interval is the duration of each candle
	Interval time.Duration
	// Count is the number of candles to generate
	Count int
	// InitialPrice is the starting price
	InitialPrice float64
	// Volatility controls price movement per candle (0.002 = 0.2%)
	Volatility float64
	// Trend is the total drift over the series
	Trend float64
	// VolumeBase is the average volume per candle
	VolumeBase float64
	// VolumeVariance is the variance in volume (0.0 to 1.0)
	VolumeVariance float64
	// TicksPerCandle is the number of trade prints GenerateTape emits per candle
	TicksPerCandle int
}

// DefaultConfig returns one day of one-minute BTCUSDT candles.
func DefaultConfig() GeneratorConfig {
	return GeneratorConfig{
		Symbol:         "BTCUSDT",
		StartTime:      time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Interval:       time.Minute,
		Count:          1440,
		InitialPrice:   42000.0,
		Volatility:     0.002,
		Trend:          0.0,
		VolumeBase:     50,
		VolumeVariance: 0.3,
		TicksPerCandle: 4,
	}
}

// Generate creates candles following a geometric Brownian motion.
func (g *DataGenerator) Generate(config GeneratorConfig) []types.Candle {
	data := make([]types.Candle, config.Count)
	currentPrice := config.InitialPrice
	currentTime := config.StartTime

	for i := 0; i < config.Count; i++ {
		open := currentPrice

		// Box-Muller transform for a normal draw
		u1 := g.rng.Float64()
		u2 := g.rng.Float64()
		z := math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)

		priceChange := config.Volatility * z
		drift := config.Trend / float64(config.Count)

		close := open * (1 + priceChange + drift)
		if close <= 0 {
			close = open * 0.99
		}

		highExtension := math.Abs(g.rng.Float64() * config.Volatility * open * 0.5)
		lowExtension := math.Abs(g.rng.Float64() * config.Volatility * open * 0.5)

		high := math.Max(open, close) + highExtension
		low := math.Min(open, close) - lowExtension
		if low <= 0 {
			low = math.Min(open, close) * 0.99
		}

		volumeVariation := 1.0 + (g.rng.Float64()*2-1)*config.VolumeVariance
		volume := config.VolumeBase * volumeVariation
		if volume < 0 {
			volume = config.VolumeBase * 0.1
		}

		data[i] = types.Candle{
			Symbol:    config.Symbol,
			OpenTime:  currentTime,
			CloseTime: currentTime.Add(config.Interval - time.Millisecond),
			Open:      roundToDecimals(open, 4),
			High:      roundToDecimals(high, 4),
			Low:       roundToDecimals(low, 4),
			Close:     roundToDecimals(close, 4),
			Volume:    roundToDecimals(volume, 3),
		}

		currentPrice = close
		currentTime = currentTime.Add(config.Interval)
	}

	return data
}

// GenerateTape turns candles into a trade tape. Each candle yields TicksPerCandle prints
// walking open, low, high and close (high first on down candles), evenly spaced inside
// the candle.
func (g *DataGenerator) GenerateTape(candles []types.Candle, config GeneratorConfig) []types.Tick {
	perCandle := max(config.TicksPerCandle, 1)
	tape := make([]types.Tick, 0, len(candles)*perCandle)

	for _, c := range candles {
		path := []float64{c.Open, c.Low, c.High, c.Close}
		if c.Close < c.Open {
			path = []float64{c.Open, c.High, c.Low, c.Close}
		}

		step := config.Interval / time.Duration(perCandle)

		for i := 0; i < perCandle; i++ {
			// map tick i onto the four-point path
			idx := 0
			if perCandle > 1 {
				idx = i * (len(path) - 1) / (perCandle - 1)
			}

			tape = append(tape, types.Tick{
				Symbol:   c.Symbol,
				Time:     c.OpenTime.Add(time.Duration(i) * step),
				Price:    path[idx],
				Quantity: roundToDecimals(c.Volume/float64(perCandle), 3),
			})
		}
	}

	return tape
}

// GenerateMultiSymbol generates candles for multiple symbols.
func (g *DataGenerator) GenerateMultiSymbol(symbols []string, baseConfig GeneratorConfig) []types.Candle {
	var allData []types.Candle

	for _, symbol := range symbols {
		config := baseConfig
		config.Symbol = symbol
		config.InitialPrice = baseConfig.InitialPrice * (0.8 + g.rng.Float64()*0.4)
		config.Volatility = baseConfig.Volatility * (0.8 + g.rng.Float64()*0.4)

		allData = append(allData, g.Generate(config)...)
	}

	return allData
}

// GenerateDay generates one day of one-minute candles with a fixed seed.
func GenerateDay(symbol string) []types.Candle {
	gen := NewDataGenerator(42)
	config := DefaultConfig()
	config.Symbol = symbol

	return gen.Generate(config)
}

// roundToDecimals rounds a float64 to the specified number of decimal places.
func roundToDecimals(val float64, decimals int) float64 {
	pow := math.Pow(10, float64(decimals))
	return math.Round(val*pow) / pow
}
