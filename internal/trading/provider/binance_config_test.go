package tradingprovider

import (
	"testing"

	"github.com/rxtech-lab/argo-signal/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type BinanceConfigTestSuite struct {
	suite.Suite
}

func TestBinanceConfigTestSuite(t *testing.T) {
	suite.Run(t, new(BinanceConfigTestSuite))
}

func (suite *BinanceConfigTestSuite) TestValidate() {
	tests := []struct {
		name    string
		config  BinanceProviderConfig
		wantErr bool
	}{
		{name: "valid", config: BinanceProviderConfig{ApiKey: "k", SecretKey: "s"}},
		{name: "valid with base url", config: BinanceProviderConfig{ApiKey: "k", SecretKey: "s", BaseURL: "https://testnet.binancefuture.com"}},
		{name: "missing api key", config: BinanceProviderConfig{SecretKey: "s"}, wantErr: true},
		{name: "missing secret", config: BinanceProviderConfig{ApiKey: "k"}, wantErr: true},
		{name: "bad base url", config: BinanceProviderConfig{ApiKey: "k", SecretKey: "s", BaseURL: "not a url"}, wantErr: true},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			err := tc.config.Validate()
			if tc.wantErr {
				suite.True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration))
			} else {
				suite.NoError(err)
			}
		})
	}
}

func (suite *BinanceConfigTestSuite) TestParseBinanceConfig() {
	cfg, err := parseBinanceConfig(`{"apiKey": "k", "secretKey": "s", "baseUrl": "http://localhost:8080"}`)
	suite.Require().NoError(err)
	suite.Equal("k", cfg.ApiKey)
	suite.Equal("http://localhost:8080", cfg.BaseURL)

	_, err = parseBinanceConfig("{invalid json}")
	suite.ErrorContains(err, "failed to parse binance config")
}
