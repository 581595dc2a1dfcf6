package datasource

import (
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-signal/internal/types"
)

type Interval string

const (
	Interval1m  Interval = "1m"
	Interval3m  Interval = "3m"
	Interval5m  Interval = "5m"
	Interval15m Interval = "15m"
	Interval30m Interval = "30m"
	Interval1h  Interval = "1h"
	Interval4h  Interval = "4h"
	Interval1d  Interval = "1d"
)

// TapeSource reads recorded trade prints. A tape file holds one row per trade with the
// columns time, symbol, price and quantity.
type TapeSource interface {
	// Initialize loads the tape file at path in parquet or CSV format
	Initialize(path string) error
	// ReadTape returns the trades of symbol in time order
	ReadTape(symbol string, start optional.Option[time.Time], end optional.Option[time.Time]) ([]types.Tick, error)
	// ReadCandles aggregates the trades of symbol into klines of the given interval
	ReadCandles(symbol string, interval Interval, start optional.Option[time.Time], end optional.Option[time.Time]) ([]types.Candle, error)
	// Count returns the number of trades of symbol
	Count(symbol string, start optional.Option[time.Time], end optional.Option[time.Time]) (int, error)
	// GetAllSymbols returns the distinct symbols of the tape
	GetAllSymbols() ([]string, error)
	// Close closes the tape source and releases any resources
	Close() error
}
