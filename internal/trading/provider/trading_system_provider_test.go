package tradingprovider

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

type TradingSystemProviderTestSuite struct {
	suite.Suite
}

func TestTradingSystemProviderSuite(t *testing.T) {
	suite.Run(t, new(TradingSystemProviderTestSuite))
}

// Unit Tests - Provider Registry

func (suite *TradingSystemProviderTestSuite) TestGetSupportedProviders() {
	providers := GetSupportedProviders()
	suite.NotEmpty(providers)
	suite.Contains(providers, "binance-futures-testnet")
	suite.Contains(providers, "binance-futures")
}

func (suite *TradingSystemProviderTestSuite) TestGetProviderInfo_BinanceFuturesTestnet() {
	info, err := GetProviderInfo("binance-futures-testnet")
	suite.NoError(err)
	suite.Equal("binance-futures-testnet", info.Name)
	suite.Equal("Binance Futures Testnet", info.DisplayName)
	suite.True(info.IsPaperTrading)
}

func (suite *TradingSystemProviderTestSuite) TestGetProviderInfo_BinanceFutures() {
	info, err := GetProviderInfo("binance-futures")
	suite.NoError(err)
	suite.Equal("binance-futures", info.Name)
	suite.Equal("Binance Futures", info.DisplayName)
	suite.False(info.IsPaperTrading)
}

func (suite *TradingSystemProviderTestSuite) TestGetProviderInfo_Unsupported() {
	_, err := GetProviderInfo("unsupported-provider")
	suite.Error(err)
	suite.Contains(err.Error(), "unsupported trading provider")
}

func (suite *TradingSystemProviderTestSuite) TestGetProviderConfigSchema_Binance() {
	schema, err := GetProviderConfigSchema("binance-futures-testnet")
	suite.NoError(err)
	suite.NotEmpty(schema)
	suite.Contains(schema, "apiKey")
	suite.Contains(schema, "secretKey")
}

func (suite *TradingSystemProviderTestSuite) TestGetProviderConfigSchema_BinanceFutures() {
	schema, err := GetProviderConfigSchema("binance-futures")
	suite.NoError(err)
	suite.NotEmpty(schema)
	suite.Contains(schema, "apiKey")
	suite.Contains(schema, "secretKey")
}

func (suite *TradingSystemProviderTestSuite) TestGetProviderConfigSchema_Unsupported() {
	_, err := GetProviderConfigSchema("unsupported-provider")
	suite.Error(err)
	suite.Contains(err.Error(), "unsupported trading provider")
}

func (suite *TradingSystemProviderTestSuite) TestParseProviderConfig_Binance() {
	jsonConfig := `{"apiKey": "test-api-key", "secretKey": "test-secret-key"}`
	config, err := ParseProviderConfig("binance-futures-testnet", jsonConfig)
	suite.NoError(err)
	suite.NotNil(config)

	binanceConfig, ok := config.(*BinanceProviderConfig)
	suite.True(ok)
	suite.Equal("test-api-key", binanceConfig.ApiKey)
}

func (suite *TradingSystemProviderTestSuite) TestParseProviderConfig_BinanceFutures() {
	jsonConfig := `{"apiKey": "test-api-key", "secretKey": "test-secret-key"}`
	config, err := ParseProviderConfig("binance-futures", jsonConfig)
	suite.NoError(err)
	suite.NotNil(config)

	binanceConfig, ok := config.(*BinanceProviderConfig)
	suite.True(ok)
	suite.Equal("test-api-key", binanceConfig.ApiKey)
}

func (suite *TradingSystemProviderTestSuite) TestParseProviderConfig_Unsupported() {
	_, err := ParseProviderConfig("unsupported-provider", "{}")
	suite.Error(err)
	suite.Contains(err.Error(), "unsupported trading provider")
}

func (suite *TradingSystemProviderTestSuite) TestParseProviderConfig_InvalidJSON() {
	_, err := ParseProviderConfig("binance-futures-testnet", "{invalid json}")
	suite.Error(err)
	suite.Contains(err.Error(), "failed to parse binance config")
}

func (suite *TradingSystemProviderTestSuite) TestParseProviderConfig_EmptyJSON() {
	_, err := ParseProviderConfig("binance-futures-testnet", "{}")
	suite.Error(err)
	suite.Contains(err.Error(), "invalid binance provider config")
}

func (suite *TradingSystemProviderTestSuite) TestParseProviderConfig_MissingApiKey() {
	jsonConfig := `{"secretKey": "test-secret-key"}`
	_, err := ParseProviderConfig("binance-futures-testnet", jsonConfig)
	suite.Error(err)
	suite.Contains(err.Error(), "invalid binance provider config")
}

func (suite *TradingSystemProviderTestSuite) TestParseProviderConfig_MissingSecretKey() {
	jsonConfig := `{"apiKey": "test-api-key"}`
	_, err := ParseProviderConfig("binance-futures-testnet", jsonConfig)
	suite.Error(err)
	suite.Contains(err.Error(), "invalid binance provider config")
}

func (suite *TradingSystemProviderTestSuite) TestParseProviderConfig_EmptyProviderName() {
	jsonConfig := `{"apiKey": "test-api-key", "secretKey": "test-secret-key"}`
	_, err := ParseProviderConfig("", jsonConfig)
	suite.Error(err)
	suite.Contains(err.Error(), "unsupported trading provider")
}

func (suite *TradingSystemProviderTestSuite) TestParseProviderConfig_BinanceFutures_InvalidJSON() {
	_, err := ParseProviderConfig("binance-futures", "{invalid json}")
	suite.Error(err)
	suite.Contains(err.Error(), "failed to parse binance config")
}

// Unit Tests - NewExchangeProvider

func (suite *TradingSystemProviderTestSuite) TestNewExchangeProvider_BinanceFuturesTestnet() {
	config := &BinanceProviderConfig{
		ApiKey:    "test-api-key",
		SecretKey: "test-secret-key",
	}
	provider, err := NewExchangeProvider(ProviderBinanceFuturesTestnet, config)
	suite.NoError(err)
	suite.NotNil(provider)
}

func (suite *TradingSystemProviderTestSuite) TestNewExchangeProvider_BinanceFutures() {
	config := &BinanceProviderConfig{
		ApiKey:    "test-api-key",
		SecretKey: "test-secret-key",
	}
	provider, err := NewExchangeProvider(ProviderBinanceFuturesLive, config)
	suite.NoError(err)
	suite.NotNil(provider)
}

func (suite *TradingSystemProviderTestSuite) TestNewExchangeProvider_InvalidConfigType_BinanceFuturesTestnet() {
	// Pass wrong config type
	config := "invalid config"
	_, err := NewExchangeProvider(ProviderBinanceFuturesTestnet, config)
	suite.Error(err)
	suite.Contains(err.Error(), "invalid config type")
}

func (suite *TradingSystemProviderTestSuite) TestNewExchangeProvider_InvalidConfigType_BinanceFutures() {
	// Pass wrong config type
	config := "invalid config"
	_, err := NewExchangeProvider(ProviderBinanceFuturesLive, config)
	suite.Error(err)
	suite.Contains(err.Error(), "invalid config type")
}

func (suite *TradingSystemProviderTestSuite) TestNewExchangeProvider_NilConfig() {
	_, err := NewExchangeProvider(ProviderBinanceFuturesTestnet, nil)
	suite.Error(err)
	suite.Contains(err.Error(), "invalid config type")
}

func (suite *TradingSystemProviderTestSuite) TestNewExchangeProvider_Unsupported() {
	config := &BinanceProviderConfig{
		ApiKey:    "test-api-key",
		SecretKey: "test-secret-key",
	}
	_, err := NewExchangeProvider("unsupported", config)
	suite.Error(err)
	suite.Contains(err.Error(), "unsupported trading provider")
}

func (suite *TradingSystemProviderTestSuite) TestNewExchangeProvider_EmptyProviderType() {
	config := &BinanceProviderConfig{
		ApiKey:    "test-api-key",
		SecretKey: "test-secret-key",
	}
	_, err := NewExchangeProvider("", config)
	suite.Error(err)
	suite.Contains(err.Error(), "unsupported trading provider")
}
