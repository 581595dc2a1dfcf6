package mocks

//go:generate mockgen -destination=./mock_exchange_provider.go -package=mocks github.com/rxtech-lab/argo-signal/internal/trading/provider ExchangeProvider
//go:generate mockgen -destination=./mock_tape_source.go -package=mocks github.com/rxtech-lab/argo-signal/internal/backtest/engine/engine_v1/datasource TapeSource
//go:generate mockgen -destination=./mock_market_data_provider.go -package=mocks github.com/rxtech-lab/argo-signal/pkg/marketdata/provider Provider
