package engine

import (
	"encoding/json"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-signal/internal/backtest/engine/engine_v1/commission_fee"
	"github.com/rxtech-lab/argo-signal/internal/backtest/engine/engine_v1/datasource"
	"github.com/rxtech-lab/argo-signal/internal/portfolio"
	"github.com/rxtech-lab/argo-signal/internal/types"
	"github.com/rxtech-lab/argo-signal/pkg/errors"
	"github.com/rxtech-lab/argo-signal/pkg/strategy"
	"gopkg.in/yaml.v3"
)

type BacktestEngineV1Config struct {
	InitialCapital float64                    `yaml:"initial_capital" json:"initial_capital" jsonschema:"title=Initial Capital,description=Starting balance of the backtest in quote currency,minimum=0" validate:"gt=0"`
	Broker         commission_fee.Broker      `yaml:"broker" json:"broker" jsonschema:"title=Broker,description=The broker to use for commission calculations"`
	StartTime      optional.Option[time.Time] `yaml:"start_time" json:"start_time" jsonschema:"title=Start Time,description=Optional start time for the backtest period"`
	EndTime        optional.Option[time.Time] `yaml:"end_time" json:"end_time" jsonschema:"title=End Time,description=Optional end time for the backtest period"`
	// Interval is the kline length the strategy is evaluated on.
	Interval    datasource.Interval `yaml:"interval" json:"interval" jsonschema:"title=Interval,enum=1m,enum=3m,enum=5m,enum=15m,default=1m" validate:"required,oneof=1m 3m 5m 15m"`
	OrderType   types.OrderType     `yaml:"order_type" json:"order_type" jsonschema:"title=Entry Order Type,enum=LIMIT,enum=MARKET,default=LIMIT" validate:"required,oneof=MARKET LIMIT"`
	EntryWindow time.Duration       `yaml:"entry_window" json:"entry_window" jsonschema:"title=Entry Window,description=How long a signal may wait for its entry" validate:"gt=0"`
	// OrderTimeout expires a resting LIMIT entry the tape has not reached.
	OrderTimeout    time.Duration `yaml:"order_timeout" json:"order_timeout" jsonschema:"title=Order Timeout" validate:"gt=0"`
	RetraceStopLoss bool          `yaml:"retrace_stop_loss" json:"retrace_stop_loss" jsonschema:"title=Retrace Stop Loss,description=Fire the stop loss only after the price recovers half of the breach"`
	// MaxRatio caps the profit factor when there are no losing trades.
	MaxRatio  float64                  `yaml:"max_ratio" json:"max_ratio" jsonschema:"title=Max Ratio,default=1000" validate:"gt=0"`
	Portfolio portfolio.Config         `yaml:"portfolio" json:"portfolio" jsonschema:"title=Portfolio"`
	Strategy  strategy.BollingerConfig `yaml:"strategy" json:"strategy" jsonschema:"title=Strategy"`
}

// yamlConfig mirrors BacktestEngineV1Config with plain pointers for the optional times.
type yamlConfig struct {
	InitialCapital  float64                  `yaml:"initial_capital"`
	Broker          commission_fee.Broker    `yaml:"broker"`
	StartTime       *time.Time               `yaml:"start_time"`
	EndTime         *time.Time               `yaml:"end_time"`
	Interval        datasource.Interval      `yaml:"interval"`
	OrderType       types.OrderType          `yaml:"order_type"`
	EntryWindow     time.Duration            `yaml:"entry_window"`
	OrderTimeout    time.Duration            `yaml:"order_timeout"`
	RetraceStopLoss bool                     `yaml:"retrace_stop_loss"`
	MaxRatio        float64                  `yaml:"max_ratio"`
	Portfolio       portfolio.Config         `yaml:"portfolio"`
	Strategy        strategy.BollingerConfig `yaml:"strategy"`
}

// UnmarshalYAML decodes over the current values, so fields missing from the document keep
// their defaults.
func (c *BacktestEngineV1Config) UnmarshalYAML(value *yaml.Node) error {
	config := yamlConfig{
		InitialCapital:  c.InitialCapital,
		Broker:          c.Broker,
		StartTime:       nil,
		EndTime:         nil,
		Interval:        c.Interval,
		OrderType:       c.OrderType,
		EntryWindow:     c.EntryWindow,
		OrderTimeout:    c.OrderTimeout,
		RetraceStopLoss: c.RetraceStopLoss,
		MaxRatio:        c.MaxRatio,
		Portfolio:       c.Portfolio,
		Strategy:        c.Strategy,
	}

	if err := value.Decode(&config); err != nil {
		return err
	}

	c.InitialCapital = config.InitialCapital
	c.Broker = config.Broker
	c.Interval = config.Interval
	c.OrderType = config.OrderType
	c.EntryWindow = config.EntryWindow
	c.OrderTimeout = config.OrderTimeout
	c.RetraceStopLoss = config.RetraceStopLoss
	c.MaxRatio = config.MaxRatio
	c.Portfolio = config.Portfolio
	c.Strategy = config.Strategy

	if config.StartTime != nil {
		c.StartTime = optional.Some(*config.StartTime)
	}

	if config.EndTime != nil {
		c.EndTime = optional.Some(*config.EndTime)
	}

	return nil
}

// Validate validates the BacktestEngineV1Config struct.
func (c *BacktestEngineV1Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeBacktestConfigError, "invalid backtest config", err)
	}

	if c.StartTime.IsSome() && c.EndTime.IsSome() && !c.EndTime.Unwrap().After(c.StartTime.Unwrap()) {
		return errors.New(errors.ErrCodeBacktestConfigError, "end_time must be after start_time")
	}

	if err := c.Portfolio.Validate(); err != nil {
		return err
	}

	return c.Strategy.Validate()
}

// GenerateSchema generates a JSON schema for the BacktestEngineV1Config
func (c *BacktestEngineV1Config) GenerateSchema() (*jsonschema.Schema, error) {
	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		ExpandedStruct:             true,
		AllowAdditionalProperties:  false,
		Mapper: func(t reflect.Type) *jsonschema.Schema {
			if t.String() == "optional.Option[time.Time]" {
				return &jsonschema.Schema{
					Type:   "string",
					Format: "date-time",
				}
			}

			if strings.Contains(t.String(), "commission_fee.Broker") {
				return &jsonschema.Schema{
					Type: "string",
					Enum: commission_fee.AllBrokers,
				}
			}

			return nil
		},
	}

	schema := reflector.Reflect(c)

	schema.Title = "backtest-engine-v1-config"
	schema.Description = "Configuration schema for BacktestEngineV1"
	schema.Version = "http://json-schema.org/draft-07/schema#"

	return schema, nil
}

// GenerateSchemaJSON generates a JSON schema string for the BacktestEngineV1Config
func (c *BacktestEngineV1Config) GenerateSchemaJSON() (string, error) {
	schema, err := c.GenerateSchema()
	if err != nil {
		return "", err
	}

	schemaBytes, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return "", err
	}

	return string(schemaBytes), nil
}

// TestConfig returns a one-day BTCUSDT configuration for tests.
func TestConfig(startTime time.Time, endTime time.Time, broker commission_fee.Broker) BacktestEngineV1Config {
	config := EmptyConfig()
	config.InitialCapital = 10000
	config.Broker = broker
	config.StartTime = optional.Some(startTime)
	config.EndTime = optional.Some(endTime)
	config.Portfolio.Symbols = []string{"BTCUSDT"}

	return config
}

// EmptyConfig returns a BacktestEngineV1Config with default values
func EmptyConfig() BacktestEngineV1Config {
	return BacktestEngineV1Config{
		InitialCapital:  0,
		Broker:          commission_fee.BrokerBinanceFutures,
		StartTime:       optional.None[time.Time](),
		EndTime:         optional.None[time.Time](),
		Interval:        datasource.Interval1m,
		OrderType:       types.OrderTypeLimit,
		EntryWindow:     5 * time.Minute,
		OrderTimeout:    2 * time.Minute,
		RetraceStopLoss: false,
		MaxRatio:        1000,
		Portfolio:       portfolio.DefaultConfig(),
		Strategy:        strategy.DefaultBollingerConfig(),
	}
}
