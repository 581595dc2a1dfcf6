package engine

import (
	"context"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rxtech-lab/argo-signal/internal/portfolio"
	"github.com/rxtech-lab/argo-signal/internal/types"
	"github.com/rxtech-lab/argo-signal/pkg/errors"
	"github.com/rxtech-lab/argo-signal/pkg/strategy"
	"gopkg.in/yaml.v3"
)

// Lifecycle callback types for live session phases.
// Callbacks with an error return abort the session when they fail.

// OnSessionStartCallback is called once the session has set up the account and loaded history.
type OnSessionStartCallback func(runID string, symbols []string) error

// OnSessionStopCallback is called when the session stops (always called via defer).
type OnSessionStopCallback func(err error)

// OnCandleCallback is called for each completed candle received from the stream.
type OnCandleCallback func(candle types.Candle) error

// OnSignalUpdateCallback is called with a snapshot of a signal after every transition.
type OnSignalUpdateCallback func(signal *types.Signal)

// OnErrorCallback is called when a non-fatal error occurs.
type OnErrorCallback func(err error)

// SessionCallbacks holds all lifecycle callback functions for the live session.
// All fields are pointers - nil means no callback will be invoked.
type SessionCallbacks struct {
	// OnSessionStart is called once setup has finished and the workers are about to start.
	OnSessionStart *OnSessionStartCallback

	// OnSessionStop is called when the session stops (always called via defer).
	OnSessionStop *OnSessionStopCallback

	// OnCandle is called for each completed candle.
	OnCandle *OnCandleCallback

	// OnSignalUpdate is called after every signal transition, in order per signal. It runs
	// while the signal book is locked and must not block.
	OnSignalUpdate *OnSignalUpdateCallback

	// OnError is called when a non-fatal error occurs.
	OnError *OnErrorCallback
}

// StreamConfig configures the market data stream.
type StreamConfig struct {
	// URL is the websocket endpoint of the combined market stream.
	URL string `json:"url" yaml:"url" jsonschema:"title=Stream URL,default=wss://fstream.binance.com/ws" validate:"required,url"`
	// Interval is the kline interval subscribed to and used by the strategy.
	Interval string `json:"interval" yaml:"interval" jsonschema:"title=Kline Interval,default=1m,enum=1m,enum=3m,enum=5m,enum=15m" validate:"required,oneof=1m 3m 5m 15m"`
	// SessionCandles ends the session after this many completed candles on any instrument.
	SessionCandles int `json:"session_candles" yaml:"session_candles" jsonschema:"title=Session Candles,default=30,minimum=1" validate:"gt=0"`
	// KeepAliveInterval is the period of user stream keep-alive requests.
	KeepAliveInterval time.Duration `json:"keep_alive_interval" yaml:"keep_alive_interval" jsonschema:"title=Keep-Alive Interval,description=Period between listen key keep-alive requests" validate:"gt=0"`
	// PingInterval is the period of websocket ping frames.
	PingInterval time.Duration `json:"ping_interval" yaml:"ping_interval" jsonschema:"title=Ping Interval" validate:"gt=0"`
	// ReadTimeout fails the stream when no frame arrives within it.
	ReadTimeout time.Duration `json:"read_timeout" yaml:"read_timeout" jsonschema:"title=Read Timeout" validate:"gt=0"`
}

// UnwindConfig configures the shutdown pass that closes every open signal.
type UnwindConfig struct {
	// Timeout bounds the whole unwind pass.
	Timeout time.Duration `json:"timeout" yaml:"timeout" jsonschema:"title=Unwind Timeout" validate:"gt=0"`
	// PriceOffset is the fraction added to the entry price for the closing limit order.
	PriceOffset float64 `json:"price_offset" yaml:"price_offset" jsonschema:"title=Unwind Price Offset,default=0.001,minimum=0" validate:"gte=0,lt=1"`
	// Grace is how long the closing limit order may rest before it is replaced with a market order.
	Grace time.Duration `json:"grace" yaml:"grace" jsonschema:"title=Unwind Grace" validate:"gte=0"`
	// PollInterval is the sleep between unwind passes.
	PollInterval time.Duration `json:"poll_interval" yaml:"poll_interval" jsonschema:"title=Unwind Poll Interval" validate:"gt=0"`
	// MaxAttempts caps the number of unwind passes.
	MaxAttempts int `json:"max_attempts" yaml:"max_attempts" jsonschema:"title=Unwind Max Attempts,default=60,minimum=1" validate:"gt=0"`
}

// SessionConfig holds the configuration of a live trading session.
type SessionConfig struct {
	Portfolio portfolio.Config         `json:"portfolio" yaml:"portfolio" jsonschema:"title=Portfolio"`
	Strategy  strategy.BollingerConfig `json:"strategy" yaml:"strategy" jsonschema:"title=Strategy"`
	Stream    StreamConfig             `json:"stream" yaml:"stream" jsonschema:"title=Stream"`
	Unwind    UnwindConfig             `json:"unwind" yaml:"unwind" jsonschema:"title=Unwind"`
	EntryType types.OrderType          `json:"entry_type" yaml:"entry_type" jsonschema:"title=Entry Order Type,default=LIMIT,enum=LIMIT,enum=MARKET" validate:"required,oneof=MARKET LIMIT"`
	// HedgeMode places entries on the LONG/SHORT position sides.
	HedgeMode bool `json:"hedge_mode" yaml:"hedge_mode" jsonschema:"title=Hedge Mode,default=true"`
	Leverage  int  `json:"leverage" yaml:"leverage" jsonschema:"title=Leverage,default=1,minimum=1,maximum=125" validate:"gte=1,lte=125"`
	// InitialCandles is the number of REST klines loaded into the evaluator before streaming.
	InitialCandles int `json:"initial_candles" yaml:"initial_candles" jsonschema:"title=Initial Candles,default=100,minimum=0" validate:"gte=0,lte=1500"`
	// EntryWindow is the lifetime of a WAITING signal after its start time.
	EntryWindow time.Duration `json:"entry_window" yaml:"entry_window" jsonschema:"title=Entry Window" validate:"gt=0"`
	// PollInterval is the sleep between order manager cycles.
	PollInterval time.Duration `json:"poll_interval" yaml:"poll_interval" jsonschema:"title=Poll Interval" validate:"gt=0"`
	// StrategyPollInterval is the backoff of the strategy driver when no new candle arrived.
	StrategyPollInterval time.Duration `json:"strategy_poll_interval" yaml:"strategy_poll_interval" jsonschema:"title=Strategy Poll Interval" validate:"gt=0"`
	// PartialFillGrace activates a partially filled entry after this long without a new fill.
	PartialFillGrace time.Duration `json:"partial_fill_grace" yaml:"partial_fill_grace" jsonschema:"title=Partial Fill Grace" validate:"gt=0"`
	// OrderTimeout expires an unfilled entry this long after its last update.
	OrderTimeout time.Duration `json:"order_timeout" yaml:"order_timeout" jsonschema:"title=Order Timeout" validate:"gtfield=PartialFillGrace"`
	// DepthLimit is the order book depth requested for the limit entry price.
	DepthLimit int `json:"depth_limit" yaml:"depth_limit" jsonschema:"title=Depth Limit,default=5,enum=5,enum=10,enum=20" validate:"oneof=5 10 20"`
	// PriceBand is the largest relative distance between book price and reference price.
	PriceBand float64 `json:"price_band" yaml:"price_band" jsonschema:"title=Price Band,default=0.01" validate:"gt=0,lt=1"`
	// RecentTradesLimit is the number of trades fetched when the tick stream is stale.
	RecentTradesLimit int `json:"recent_trades_limit" yaml:"recent_trades_limit" jsonschema:"title=Recent Trades Limit,default=5" validate:"gt=0,lte=1000"`
	// StalePriceAfter falls back to REST trades when no tick arrived within it.
	StalePriceAfter time.Duration `json:"stale_price_after" yaml:"stale_price_after" jsonschema:"title=Stale Price After" validate:"gt=0"`
	// RetraceStopLoss switches stop-loss evaluation to the retrace rule.
	RetraceStopLoss bool `json:"retrace_stop_loss" yaml:"retrace_stop_loss" jsonschema:"title=Retrace Stop Loss,default=false"`
	// MaxRequestFailures escalates consecutive request errors to a fatal error.
	MaxRequestFailures int `json:"max_request_failures" yaml:"max_request_failures" jsonschema:"title=Max Request Failures,default=5,minimum=1" validate:"gt=0"`
	// MaxRatio caps the profit factor reported in the summary.
	MaxRatio float64 `json:"max_ratio" yaml:"max_ratio" jsonschema:"title=Max Ratio,default=1000" validate:"gt=0"`
	// OutputPath is the root of the session run folders holding stats.yaml, signals.yaml and signal_events.parquet.
	// Nothing is written when it is empty.
	OutputPath string `json:"output_path" yaml:"output_path" jsonschema:"title=Output Path"`
	// MetricsAddr serves prometheus metrics when set.
	MetricsAddr string `json:"metrics_addr" yaml:"metrics_addr" jsonschema:"title=Metrics Address" validate:"omitempty,hostname_port"`
}

// DefaultConfig returns the session configuration used when a field is not set.
func DefaultConfig() SessionConfig {
	return SessionConfig{
		Portfolio: portfolio.DefaultConfig(),
		Strategy:  strategy.DefaultBollingerConfig(),
		Stream: StreamConfig{
			URL:               "wss://fstream.binance.com/ws",
			Interval:          "1m",
			SessionCandles:    30,
			KeepAliveInterval: 30 * time.Minute,
			PingInterval:      time.Minute,
			ReadTimeout:       3 * time.Minute,
		},
		Unwind: UnwindConfig{
			Timeout:      5 * time.Minute,
			PriceOffset:  0.001,
			Grace:        30 * time.Second,
			PollInterval: 2 * time.Second,
			MaxAttempts:  60,
		},
		EntryType:            types.OrderTypeLimit,
		HedgeMode:            true,
		Leverage:             1,
		InitialCandles:       100,
		EntryWindow:          5 * time.Minute,
		PollInterval:         time.Second,
		StrategyPollInterval: 500 * time.Millisecond,
		PartialFillGrace:     60 * time.Second,
		OrderTimeout:         120 * time.Second,
		DepthLimit:           5,
		PriceBand:            0.01,
		RecentTradesLimit:    5,
		StalePriceAfter:      10 * time.Second,
		RetraceStopLoss:      false,
		MaxRequestFailures:   5,
		MaxRatio:             1000,
		OutputPath:           "",
		MetricsAddr:          "",
	}
}

// EmptyConfig returns a zero configuration, used for schema generation.
func EmptyConfig() SessionConfig {
	return SessionConfig{} //nolint:exhaustruct // zero value on purpose
}

// Validate validates the SessionConfig struct.
func (c *SessionConfig) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid session config", err)
	}

	if err := c.Portfolio.Validate(); err != nil {
		return err
	}

	if err := c.Strategy.Validate(); err != nil {
		return err
	}

	return nil
}

// IntervalDuration returns the stream interval as a duration.
func (c *SessionConfig) IntervalDuration() time.Duration {
	d, err := time.ParseDuration(c.Stream.Interval)
	if err != nil {
		return time.Minute
	}

	return d
}

// LoadSessionConfig reads a YAML session config from path on top of DefaultConfig and validates it.
func LoadSessionConfig(path string) (SessionConfig, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is provided by the operator
	if err != nil {
		return SessionConfig{}, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "failed to read config file %s", path)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, &config); err != nil {
		return SessionConfig{}, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "failed to parse config file %s", path)
	}

	if err := config.Validate(); err != nil {
		return SessionConfig{}, err
	}

	return config, nil
}

// GetConfigSchema returns the JSON schema for SessionConfig.
func GetConfigSchema() (string, error) {
	config := EmptyConfig()

	return strategy.ToJSONSchema(&config)
}

// SessionResult is everything a finished session hands to the reporting layer.
type SessionResult struct {
	RunID   string
	Signals []*types.Signal
	Stats   types.SessionStats
}

// TradingSession runs one live trading session from setup to unwind.
type TradingSession interface {
	// Run starts the session.
	// Blocks until the session ends, the context is cancelled or a fatal error occurs,
	// then unwinds every open signal before returning.
	Run(ctx context.Context, callbacks SessionCallbacks) (SessionResult, error)

	// GetConfigSchema returns the JSON schema for session configuration.
	GetConfigSchema() (string, error)
}
