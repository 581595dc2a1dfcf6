package marketdata

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rxtech-lab/argo-signal/internal/logger"
	"github.com/rxtech-lab/argo-signal/pkg/errors"
	"github.com/rxtech-lab/argo-signal/pkg/marketdata/provider"
	"github.com/rxtech-lab/argo-signal/pkg/marketdata/writer"
	"go.uber.org/zap"
)

// WriterType defines the type of tape writer.
type WriterType string

const (
	WriterDuckDB WriterType = "duckdb"
)

// ClientConfig holds the configuration for the market data client.
type ClientConfig struct {
	ProviderType provider.ProviderType `validate:"required,oneof=binance_futures"`
	WriterType   WriterType            `validate:"required,oneof=duckdb"`
	DataPath     string                `validate:"required"`
}

// DownloadParams selects the trades to download.
type DownloadParams struct {
	Symbol    string    `validate:"required"`
	StartDate time.Time `validate:"required"`
	EndDate   time.Time `validate:"required,gtfield=StartDate"`
}

// Client downloads trade tapes from a provider and stores them with a writer. The files it
// writes are the tapes the backtest engine replays.
type Client struct {
	provider   provider.Provider
	config     ClientConfig
	validate   *validator.Validate
	onProgress provider.OnDownloadProgress
	log        *logger.Logger
}

// NewClient creates a new market data client with the given configuration.
func NewClient(config ClientConfig, onProgress provider.OnDownloadProgress, log *logger.Logger) (*Client, error) {
	validate := validator.New()
	if err := validate.Struct(config); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid client configuration", err)
	}

	marketProvider, err := provider.NewMarketDataProvider(config.ProviderType, log)
	if err != nil {
		return nil, err
	}

	return &Client{
		provider:   marketProvider,
		config:     config,
		validate:   validate,
		onProgress: onProgress,
		log:        log,
	}, nil
}

// Download writes the requested tape and returns its path.
func (c *Client) Download(ctx context.Context, params DownloadParams) (string, error) {
	if err := c.validate.Struct(params); err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidParameter, "invalid download parameters", err)
	}

	tapeWriter, err := c.setupWriter(params)
	if err != nil {
		return "", err
	}

	defer func() {
		if err := tapeWriter.Close(); err != nil {
			c.log.Warn("Failed to close tape writer", zap.Error(err))
		}
	}()

	c.provider.ConfigWriter(tapeWriter)

	path, err := c.provider.Download(ctx, params.Symbol, params.StartDate, params.EndDate, c.onProgress)
	if err != nil {
		return "", errors.Wrapf(errors.ErrCodeRequestFailed, err, "failed to download %s", params.Symbol)
	}

	c.log.Info("Tape downloaded",
		zap.String("symbol", params.Symbol),
		zap.String("path", path),
	)

	return path, nil
}

// OutputPath returns the file a download with params is written to:
// SYMBOL_START_END.parquet inside the data path.
func (c *Client) OutputPath(params DownloadParams) string {
	name := fmt.Sprintf("%s_%s_%s.parquet",
		params.Symbol,
		params.StartDate.UTC().Format("2006-01-02"),
		params.EndDate.UTC().Format("2006-01-02"),
	)

	return filepath.Join(c.config.DataPath, name)
}

func (c *Client) setupWriter(params DownloadParams) (writer.TapeWriter, error) {
	switch c.config.WriterType {
	case WriterDuckDB:
		if err := os.MkdirAll(c.config.DataPath, 0755); err != nil {
			return nil, errors.Wrapf(errors.ErrCodeBacktestDataPathError, err, "failed to create data path %s", c.config.DataPath)
		}

		return writer.NewDuckDBTapeWriter(c.OutputPath(params), c.log), nil
	default:
		return nil, errors.Newf(errors.ErrCodeInvalidConfiguration, "unsupported writer type: %s", c.config.WriterType)
	}
}
