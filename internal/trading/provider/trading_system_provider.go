package tradingprovider

import (
	"context"
	"fmt"
	"time"

	"github.com/rxtech-lab/argo-signal/internal/types"
	"github.com/rxtech-lab/argo-signal/pkg/strategy"
)

// ExchangeProvider is the exchange collaborator used by a trading session.
type ExchangeProvider interface {
	// PlaceOrder submits an order and returns the exchange's first view of it
	PlaceOrder(ctx context.Context, order types.OrderRequest) (types.OrderUpdate, error)
	// QueryOrder returns the current state of an order
	QueryOrder(ctx context.Context, symbol string, orderID int64) (types.OrderUpdate, error)
	// CancelOrder cancels an open order
	CancelOrder(ctx context.Context, symbol string, orderID int64) error
	// GetBalance returns the wallet balances
	GetBalance(ctx context.Context) ([]types.Balance, error)
	// GetPositions returns the open position records, skipping empty ones
	GetPositions(ctx context.Context) ([]types.OpenPosition, error)
	// ServerTime returns the exchange clock
	ServerTime(ctx context.Context) (time.Time, error)
	// StartUserStream opens a private data-stream session and returns its listen key
	StartUserStream(ctx context.Context) (string, error)
	// KeepAliveUserStream extends the lifetime of a listen key
	KeepAliveUserStream(ctx context.Context, listenKey string) error
	// CloseUserStream closes the private data-stream session
	CloseUserStream(ctx context.Context, listenKey string) error
	// GetDepth returns the best limit levels of the order book
	GetDepth(ctx context.Context, symbol string, limit int) (types.OrderBook, error)
	// GetRecentTrades returns the latest trade prints, oldest first
	GetRecentTrades(ctx context.Context, symbol string, limit int) ([]types.Tick, error)
	// GetCandles returns the latest completed klines, oldest first
	GetCandles(ctx context.Context, symbol string, interval string, limit int) ([]types.Candle, error)
	// SetLeverage sets the initial leverage of a symbol
	SetLeverage(ctx context.Context, symbol string, leverage int) error
	// SetHedgeMode switches between hedge (dual side) and one-way position mode
	SetHedgeMode(ctx context.Context, enabled bool) error
}

type ProviderType string

const (
	ProviderBinanceFuturesTestnet ProviderType = "binance-futures-testnet"
	ProviderBinanceFuturesLive    ProviderType = "binance-futures"
)

type ProviderInfo struct {
	Name           string `json:"name"`
	DisplayName    string `json:"displayName"`
	Description    string `json:"description"`
	IsPaperTrading bool   `json:"isPaperTrading"`
}

var providerRegistry = map[ProviderType]ProviderInfo{
	ProviderBinanceFuturesTestnet: {
		Name:           string(ProviderBinanceFuturesTestnet),
		DisplayName:    "Binance Futures Testnet",
		Description:    "Binance USDⓈ-M futures testnet for paper trading without real funds",
		IsPaperTrading: true,
	},
	ProviderBinanceFuturesLive: {
		Name:           string(ProviderBinanceFuturesLive),
		DisplayName:    "Binance Futures",
		Description:    "Binance USDⓈ-M futures with real funds",
		IsPaperTrading: false,
	},
}

func GetSupportedProviders() []string {
	providers := make([]string, 0, len(providerRegistry))
	for providerType := range providerRegistry {
		providers = append(providers, string(providerType))
	}

	return providers
}

// GetProviderInfo returns metadata for a specific exchange provider.
func GetProviderInfo(providerName string) (ProviderInfo, error) {
	info, exists := providerRegistry[ProviderType(providerName)]
	if !exists {
		return ProviderInfo{}, fmt.Errorf("unsupported trading provider: %s", providerName)
	}

	return info, nil
}

// GetProviderConfigSchema returns the JSON schema for a provider's configuration.
func GetProviderConfigSchema(providerName string) (string, error) {
	switch ProviderType(providerName) {
	case ProviderBinanceFuturesTestnet, ProviderBinanceFuturesLive:
		return strategy.ToJSONSchema(BinanceProviderConfig{
			ApiKey:    "",
			SecretKey: "",
			BaseURL:   "",
		})
	default:
		return "", fmt.Errorf("unsupported trading provider: %s", providerName)
	}
}

// ParseProviderConfig parses a JSON configuration string for the given provider.
func ParseProviderConfig(providerName string, jsonConfig string) (any, error) {
	switch ProviderType(providerName) {
	case ProviderBinanceFuturesTestnet, ProviderBinanceFuturesLive:
		return parseBinanceConfig(jsonConfig)
	default:
		return nil, fmt.Errorf("unsupported trading provider: %s", providerName)
	}
}

// NewExchangeProvider creates an exchange provider based on the provider type.
func NewExchangeProvider(providerType ProviderType, config any) (ExchangeProvider, error) {
	switch providerType {
	case ProviderBinanceFuturesTestnet:
		cfg, ok := config.(*BinanceProviderConfig)
		if !ok {
			return nil, fmt.Errorf("invalid config type for binance futures testnet provider")
		}

		return NewBinanceFuturesProvider(*cfg, true)

	case ProviderBinanceFuturesLive:
		cfg, ok := config.(*BinanceProviderConfig)
		if !ok {
			return nil, fmt.Errorf("invalid config type for binance futures provider")
		}

		return NewBinanceFuturesProvider(*cfg, false)

	default:
		return nil, fmt.Errorf("unsupported trading provider: %s", providerType)
	}
}
