package provider

import (
	"context"
	"time"

	"github.com/rxtech-lab/argo-signal/internal/logger"
	"github.com/rxtech-lab/argo-signal/pkg/errors"
	"github.com/rxtech-lab/argo-signal/pkg/marketdata/writer"
)

// ProviderType defines the type of market data provider.
type ProviderType string

const (
	ProviderBinanceFutures ProviderType = "binance_futures"
)

type OnDownloadProgress = func(current float64, total float64, message string)

type Provider interface {
	// ConfigWriter sets the writer the downloaded trades are written to.
	ConfigWriter(writer writer.TapeWriter)
	// Download writes every trade of symbol in [startDate, endDate) and returns the path of
	// the finalized tape. Cancelling ctx stops the download.
	Download(ctx context.Context, symbol string, startDate time.Time, endDate time.Time, onProgress OnDownloadProgress) (path string, err error)
}

// NewMarketDataProvider creates a new market data provider based on the provider type.
func NewMarketDataProvider(providerType ProviderType, log *logger.Logger) (Provider, error) {
	switch providerType {
	case ProviderBinanceFutures:
		return NewBinanceFuturesClient(log)
	default:
		return nil, errors.Newf(errors.ErrCodeInvalidParameter, "unsupported market data provider: %s", providerType)
	}
}
