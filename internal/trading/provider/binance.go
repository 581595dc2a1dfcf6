package tradingprovider

import (
	"context"
	"strconv"
	"time"

	"github.com/adshao/go-binance/v2/common"
	"github.com/adshao/go-binance/v2/futures"
	"github.com/rxtech-lab/argo-signal/internal/types"
	"github.com/rxtech-lab/argo-signal/pkg/errors"
)

// Service interfaces for mocking the Binance futures API

// CreateOrderService interface for creating orders.
type CreateOrderService interface {
	Symbol(symbol string) CreateOrderService
	Side(side futures.SideType) CreateOrderService
	PositionSide(positionSide futures.PositionSideType) CreateOrderService
	Type(orderType futures.OrderType) CreateOrderService
	Quantity(quantity string) CreateOrderService
	Price(price string) CreateOrderService
	TimeInForce(tif futures.TimeInForceType) CreateOrderService
	Do(ctx context.Context) (*futures.CreateOrderResponse, error)
}

// GetOrderService interface for querying an order.
type GetOrderService interface {
	Symbol(symbol string) GetOrderService
	OrderID(orderID int64) GetOrderService
	Do(ctx context.Context) (*futures.Order, error)
}

// CancelOrderService interface for canceling orders.
type CancelOrderService interface {
	Symbol(symbol string) CancelOrderService
	OrderID(orderID int64) CancelOrderService
	Do(ctx context.Context) error
}

// GetBalanceService interface for getting wallet balances.
type GetBalanceService interface {
	Do(ctx context.Context) ([]*futures.Balance, error)
}

// GetPositionRiskService interface for getting position records.
type GetPositionRiskService interface {
	Do(ctx context.Context) ([]*futures.PositionRisk, error)
}

// ServerTimeService interface for getting the exchange clock.
type ServerTimeService interface {
	Do(ctx context.Context) (int64, error)
}

// StartUserStreamService interface for opening a user data stream.
type StartUserStreamService interface {
	Do(ctx context.Context) (string, error)
}

// UserStreamService interface for keep-alive and close calls on a listen key.
type UserStreamService interface {
	ListenKey(listenKey string) UserStreamService
	Do(ctx context.Context) error
}

// DepthService interface for order book snapshots.
type DepthService interface {
	Symbol(symbol string) DepthService
	Limit(limit int) DepthService
	Do(ctx context.Context) (*futures.DepthResponse, error)
}

// RecentTradesService interface for recent trade prints.
type RecentTradesService interface {
	Symbol(symbol string) RecentTradesService
	Limit(limit int) RecentTradesService
	Do(ctx context.Context) ([]*futures.Trade, error)
}

// KlinesService interface for historical klines.
type KlinesService interface {
	Symbol(symbol string) KlinesService
	Interval(interval string) KlinesService
	Limit(limit int) KlinesService
	Do(ctx context.Context) ([]*futures.Kline, error)
}

// ChangeLeverageService interface for leverage setup.
type ChangeLeverageService interface {
	Symbol(symbol string) ChangeLeverageService
	Leverage(leverage int) ChangeLeverageService
	Do(ctx context.Context) error
}

// ChangePositionModeService interface for position mode setup.
type ChangePositionModeService interface {
	DualSide(dualSide bool) ChangePositionModeService
	Do(ctx context.Context) error
}

// BinanceClient interface abstracts the Binance futures client for testing.
type BinanceClient interface {
	NewCreateOrderService() CreateOrderService
	NewGetOrderService() GetOrderService
	NewCancelOrderService() CancelOrderService
	NewGetBalanceService() GetBalanceService
	NewGetPositionRiskService() GetPositionRiskService
	NewServerTimeService() ServerTimeService
	NewStartUserStreamService() StartUserStreamService
	NewKeepaliveUserStreamService() UserStreamService
	NewCloseUserStreamService() UserStreamService
	NewDepthService() DepthService
	NewRecentTradesService() RecentTradesService
	NewKlinesService() KlinesService
	NewChangeLeverageService() ChangeLeverageService
	NewChangePositionModeService() ChangePositionModeService
}

// realBinanceClient wraps the actual futures.Client.
type realBinanceClient struct {
	client *futures.Client
}

func (r *realBinanceClient) NewCreateOrderService() CreateOrderService {
	return &realCreateOrderService{service: r.client.NewCreateOrderService()}
}

func (r *realBinanceClient) NewGetOrderService() GetOrderService {
	return &realGetOrderService{service: r.client.NewGetOrderService()}
}

func (r *realBinanceClient) NewCancelOrderService() CancelOrderService {
	return &realCancelOrderService{service: r.client.NewCancelOrderService()}
}

func (r *realBinanceClient) NewGetBalanceService() GetBalanceService {
	return &realGetBalanceService{service: r.client.NewGetBalanceService()}
}

func (r *realBinanceClient) NewGetPositionRiskService() GetPositionRiskService {
	return &realGetPositionRiskService{service: r.client.NewGetPositionRiskService()}
}

func (r *realBinanceClient) NewServerTimeService() ServerTimeService {
	return &realServerTimeService{service: r.client.NewServerTimeService()}
}

func (r *realBinanceClient) NewStartUserStreamService() StartUserStreamService {
	return &realStartUserStreamService{service: r.client.NewStartUserStreamService()}
}

func (r *realBinanceClient) NewKeepaliveUserStreamService() UserStreamService {
	return &realKeepaliveUserStreamService{service: r.client.NewKeepaliveUserStreamService()}
}

func (r *realBinanceClient) NewCloseUserStreamService() UserStreamService {
	return &realCloseUserStreamService{service: r.client.NewCloseUserStreamService()}
}

func (r *realBinanceClient) NewDepthService() DepthService {
	return &realDepthService{service: r.client.NewDepthService()}
}

func (r *realBinanceClient) NewRecentTradesService() RecentTradesService {
	return &realRecentTradesService{service: r.client.NewRecentTradesService()}
}

func (r *realBinanceClient) NewKlinesService() KlinesService {
	return &realKlinesService{service: r.client.NewKlinesService()}
}

func (r *realBinanceClient) NewChangeLeverageService() ChangeLeverageService {
	return &realChangeLeverageService{service: r.client.NewChangeLeverageService()}
}

func (r *realBinanceClient) NewChangePositionModeService() ChangePositionModeService {
	return &realChangePositionModeService{service: r.client.NewChangePositionModeService()}
}

// Real service wrappers

type realCreateOrderService struct {
	service *futures.CreateOrderService
}

func (s *realCreateOrderService) Symbol(symbol string) CreateOrderService {
	s.service = s.service.Symbol(symbol)

	return s
}

func (s *realCreateOrderService) Side(side futures.SideType) CreateOrderService {
	s.service = s.service.Side(side)

	return s
}

func (s *realCreateOrderService) PositionSide(positionSide futures.PositionSideType) CreateOrderService {
	s.service = s.service.PositionSide(positionSide)

	return s
}

func (s *realCreateOrderService) Type(orderType futures.OrderType) CreateOrderService {
	s.service = s.service.Type(orderType)

	return s
}

func (s *realCreateOrderService) Quantity(quantity string) CreateOrderService {
	s.service = s.service.Quantity(quantity)

	return s
}

func (s *realCreateOrderService) Price(price string) CreateOrderService {
	s.service = s.service.Price(price)

	return s
}

func (s *realCreateOrderService) TimeInForce(tif futures.TimeInForceType) CreateOrderService {
	s.service = s.service.TimeInForce(tif)

	return s
}

func (s *realCreateOrderService) Do(ctx context.Context) (*futures.CreateOrderResponse, error) {
	return s.service.Do(ctx)
}

type realGetOrderService struct {
	service *futures.GetOrderService
}

func (s *realGetOrderService) Symbol(symbol string) GetOrderService {
	s.service = s.service.Symbol(symbol)

	return s
}

func (s *realGetOrderService) OrderID(orderID int64) GetOrderService {
	s.service = s.service.OrderID(orderID)

	return s
}

func (s *realGetOrderService) Do(ctx context.Context) (*futures.Order, error) {
	return s.service.Do(ctx)
}

type realCancelOrderService struct {
	service *futures.CancelOrderService
}

func (s *realCancelOrderService) Symbol(symbol string) CancelOrderService {
	s.service = s.service.Symbol(symbol)

	return s
}

func (s *realCancelOrderService) OrderID(orderID int64) CancelOrderService {
	s.service = s.service.OrderID(orderID)

	return s
}

func (s *realCancelOrderService) Do(ctx context.Context) error {
	_, err := s.service.Do(ctx)

	return err
}

type realGetBalanceService struct {
	service *futures.GetBalanceService
}

func (s *realGetBalanceService) Do(ctx context.Context) ([]*futures.Balance, error) {
	return s.service.Do(ctx)
}

type realGetPositionRiskService struct {
	service *futures.GetPositionRiskService
}

func (s *realGetPositionRiskService) Do(ctx context.Context) ([]*futures.PositionRisk, error) {
	return s.service.Do(ctx)
}

type realServerTimeService struct {
	service *futures.ServerTimeService
}

func (s *realServerTimeService) Do(ctx context.Context) (int64, error) {
	return s.service.Do(ctx)
}

type realStartUserStreamService struct {
	service *futures.StartUserStreamService
}

func (s *realStartUserStreamService) Do(ctx context.Context) (string, error) {
	return s.service.Do(ctx)
}

type realKeepaliveUserStreamService struct {
	service *futures.KeepaliveUserStreamService
}

func (s *realKeepaliveUserStreamService) ListenKey(listenKey string) UserStreamService {
	s.service = s.service.ListenKey(listenKey)

	return s
}

func (s *realKeepaliveUserStreamService) Do(ctx context.Context) error {
	return s.service.Do(ctx)
}

type realCloseUserStreamService struct {
	service *futures.CloseUserStreamService
}

func (s *realCloseUserStreamService) ListenKey(listenKey string) UserStreamService {
	s.service = s.service.ListenKey(listenKey)

	return s
}

func (s *realCloseUserStreamService) Do(ctx context.Context) error {
	return s.service.Do(ctx)
}

type realDepthService struct {
	service *futures.DepthService
}

func (s *realDepthService) Symbol(symbol string) DepthService {
	s.service = s.service.Symbol(symbol)

	return s
}

func (s *realDepthService) Limit(limit int) DepthService {
	s.service = s.service.Limit(limit)

	return s
}

func (s *realDepthService) Do(ctx context.Context) (*futures.DepthResponse, error) {
	return s.service.Do(ctx)
}

type realRecentTradesService struct {
	service *futures.RecentTradesService
}

func (s *realRecentTradesService) Symbol(symbol string) RecentTradesService {
	s.service = s.service.Symbol(symbol)

	return s
}

func (s *realRecentTradesService) Limit(limit int) RecentTradesService {
	s.service = s.service.Limit(limit)

	return s
}

func (s *realRecentTradesService) Do(ctx context.Context) ([]*futures.Trade, error) {
	return s.service.Do(ctx)
}

type realKlinesService struct {
	service *futures.KlinesService
}

func (s *realKlinesService) Symbol(symbol string) KlinesService {
	s.service = s.service.Symbol(symbol)

	return s
}

func (s *realKlinesService) Interval(interval string) KlinesService {
	s.service = s.service.Interval(interval)

	return s
}

func (s *realKlinesService) Limit(limit int) KlinesService {
	s.service = s.service.Limit(limit)

	return s
}

func (s *realKlinesService) Do(ctx context.Context) ([]*futures.Kline, error) {
	return s.service.Do(ctx)
}

type realChangeLeverageService struct {
	service *futures.ChangeLeverageService
}

func (s *realChangeLeverageService) Symbol(symbol string) ChangeLeverageService {
	s.service = s.service.Symbol(symbol)

	return s
}

func (s *realChangeLeverageService) Leverage(leverage int) ChangeLeverageService {
	s.service = s.service.Leverage(leverage)

	return s
}

func (s *realChangeLeverageService) Do(ctx context.Context) error {
	_, err := s.service.Do(ctx)

	return err
}

type realChangePositionModeService struct {
	service *futures.ChangePositionModeService
}

func (s *realChangePositionModeService) DualSide(dualSide bool) ChangePositionModeService {
	s.service = s.service.DualSide(dualSide)

	return s
}

func (s *realChangePositionModeService) Do(ctx context.Context) error {
	return s.service.Do(ctx)
}

// BinanceFuturesProvider implements ExchangeProvider on the Binance USDⓈ-M futures API.
// It is stateless - all data is fetched directly from the Binance API.
type BinanceFuturesProvider struct {
	client BinanceClient
}

// NewBinanceFuturesProvider creates a new Binance futures provider.
// If useTestnet is true, connects to the Binance futures testnet.
// If config.BaseURL is set, it takes precedence over useTestnet.
func NewBinanceFuturesProvider(config BinanceProviderConfig, useTestnet bool) (*BinanceFuturesProvider, error) {
	if useTestnet {
		futures.UseTestnet = true
	}

	client := futures.NewClient(config.ApiKey, config.SecretKey)

	if config.BaseURL != "" {
		client.BaseURL = config.BaseURL
	}

	return &BinanceFuturesProvider{
		client: &realBinanceClient{client: client},
	}, nil
}

// newBinanceFuturesProviderWithClient creates a provider with a custom client.
// This is used for testing with mock clients.
func newBinanceFuturesProviderWithClient(client BinanceClient) *BinanceFuturesProvider {
	return &BinanceFuturesProvider{
		client: client,
	}
}

// PlaceOrder places a single order on Binance.
func (b *BinanceFuturesProvider) PlaceOrder(ctx context.Context, order types.OrderRequest) (types.OrderUpdate, error) {
	if err := order.Validate(); err != nil {
		return types.OrderUpdate{}, err
	}

	inst, err := types.LookupInstrument(order.Symbol)
	if err != nil {
		return types.OrderUpdate{}, err
	}

	orderService := b.client.NewCreateOrderService().
		Symbol(order.Symbol).
		Side(futures.SideType(order.Side)).
		PositionSide(futures.PositionSideType(order.PositionSide)).
		Type(futures.OrderType(order.Type)).
		Quantity(inst.FormatQuantity(order.Quantity))

	if order.Type == types.OrderTypeLimit {
		tif := order.TimeInForce
		if tif == "" {
			tif = types.TimeInForceGTC
		}

		orderService = orderService.
			Price(inst.FormatPrice(order.Price.Unwrap())).
			TimeInForce(futures.TimeInForceType(tif))
	}

	resp, err := orderService.Do(ctx)
	if err != nil {
		return types.OrderUpdate{}, errors.Wrap(errors.ErrCodeOrderFailed, "failed to place order on Binance", err)
	}

	if resp == nil {
		return types.OrderUpdate{}, errors.New(errors.ErrCodeUnexpectedResponse, "empty order response from Binance")
	}

	return convertOrderUpdate(resp.OrderID, resp.Symbol, resp.Status, resp.AvgPrice, resp.ExecutedQuantity, resp.UpdateTime)
}

// QueryOrder returns the current state of an order.
func (b *BinanceFuturesProvider) QueryOrder(ctx context.Context, symbol string, orderID int64) (types.OrderUpdate, error) {
	order, err := b.client.NewGetOrderService().Symbol(symbol).OrderID(orderID).Do(ctx)
	if err != nil {
		return types.OrderUpdate{}, errors.Wrapf(errors.ErrCodeRequestFailed, err, "failed to query order %d on Binance", orderID)
	}

	if order == nil {
		return types.OrderUpdate{}, errors.Newf(errors.ErrCodeUnexpectedResponse, "empty response for order %d", orderID)
	}

	return convertOrderUpdate(order.OrderID, order.Symbol, order.Status, order.AvgPrice, order.ExecutedQuantity, order.UpdateTime)
}

// CancelOrder cancels an order by order ID.
func (b *BinanceFuturesProvider) CancelOrder(ctx context.Context, symbol string, orderID int64) error {
	if err := b.client.NewCancelOrderService().Symbol(symbol).OrderID(orderID).Do(ctx); err != nil {
		return errors.Wrapf(errors.ErrCodeRequestFailed, err, "failed to cancel order %d on Binance", orderID)
	}

	return nil
}

// GetBalance returns the futures wallet balances.
func (b *BinanceFuturesProvider) GetBalance(ctx context.Context) ([]types.Balance, error) {
	balances, err := b.client.NewGetBalanceService().Do(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeRequestFailed, "failed to get balance from Binance", err)
	}

	out := make([]types.Balance, 0, len(balances))

	for _, bal := range balances {
		balance, err := parseFloat("balance", bal.Balance)
		if err != nil {
			return nil, err
		}

		available, err := parseFloat("availableBalance", bal.AvailableBalance)
		if err != nil {
			return nil, err
		}

		out = append(out, types.Balance{
			Asset:     bal.Asset,
			Balance:   balance,
			Available: available,
		})
	}

	return out, nil
}

// GetPositions returns the position records with a nonzero amount.
func (b *BinanceFuturesProvider) GetPositions(ctx context.Context) ([]types.OpenPosition, error) {
	risks, err := b.client.NewGetPositionRiskService().Do(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeRequestFailed, "failed to get positions from Binance", err)
	}

	positions := make([]types.OpenPosition, 0)

	for _, risk := range risks {
		amount, err := parseFloat("positionAmt", risk.PositionAmt)
		if err != nil {
			return nil, err
		}

		if amount == 0 {
			continue
		}

		entry, err := parseFloat("entryPrice", risk.EntryPrice)
		if err != nil {
			return nil, err
		}

		positions = append(positions, types.OpenPosition{
			Symbol:       risk.Symbol,
			PositionSide: types.PositionSide(risk.PositionSide),
			Amount:       amount,
			EntryPrice:   entry,
		})
	}

	return positions, nil
}

// ServerTime returns the exchange clock.
func (b *BinanceFuturesProvider) ServerTime(ctx context.Context) (time.Time, error) {
	ms, err := b.client.NewServerTimeService().Do(ctx)
	if err != nil {
		return time.Time{}, errors.Wrap(errors.ErrCodeRequestFailed, "failed to get server time from Binance", err)
	}

	return time.UnixMilli(ms), nil
}

// StartUserStream opens a user data stream.
func (b *BinanceFuturesProvider) StartUserStream(ctx context.Context) (string, error) {
	listenKey, err := b.client.NewStartUserStreamService().Do(ctx)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeRequestFailed, "failed to start user stream on Binance", err)
	}

	return listenKey, nil
}

// KeepAliveUserStream extends the listen key lifetime.
func (b *BinanceFuturesProvider) KeepAliveUserStream(ctx context.Context, listenKey string) error {
	if err := b.client.NewKeepaliveUserStreamService().ListenKey(listenKey).Do(ctx); err != nil {
		return errors.Wrap(errors.ErrCodeKeepAliveFailed, "failed to keep user stream alive on Binance", err)
	}

	return nil
}

// CloseUserStream closes the user data stream.
func (b *BinanceFuturesProvider) CloseUserStream(ctx context.Context, listenKey string) error {
	if err := b.client.NewCloseUserStreamService().ListenKey(listenKey).Do(ctx); err != nil {
		return errors.Wrap(errors.ErrCodeRequestFailed, "failed to close user stream on Binance", err)
	}

	return nil
}

// GetDepth returns an order book snapshot.
func (b *BinanceFuturesProvider) GetDepth(ctx context.Context, symbol string, limit int) (types.OrderBook, error) {
	depth, err := b.client.NewDepthService().Symbol(symbol).Limit(limit).Do(ctx)
	if err != nil {
		return types.OrderBook{}, errors.Wrapf(errors.ErrCodeRequestFailed, err, "failed to get %s depth from Binance", symbol)
	}

	if depth == nil {
		return types.OrderBook{}, errors.Newf(errors.ErrCodeUnexpectedResponse, "empty depth response for %s", symbol)
	}

	book := types.OrderBook{
		Symbol: symbol,
		Bids:   make([]types.PriceLevel, 0, len(depth.Bids)),
		Asks:   make([]types.PriceLevel, 0, len(depth.Asks)),
	}

	for _, bid := range depth.Bids {
		level, err := convertPriceLevel(bid.Price, bid.Quantity)
		if err != nil {
			return types.OrderBook{}, err
		}

		book.Bids = append(book.Bids, level)
	}

	for _, ask := range depth.Asks {
		level, err := convertPriceLevel(ask.Price, ask.Quantity)
		if err != nil {
			return types.OrderBook{}, err
		}

		book.Asks = append(book.Asks, level)
	}

	return book, nil
}

// GetRecentTrades returns the latest trade prints, oldest first.
func (b *BinanceFuturesProvider) GetRecentTrades(ctx context.Context, symbol string, limit int) ([]types.Tick, error) {
	trades, err := b.client.NewRecentTradesService().Symbol(symbol).Limit(limit).Do(ctx)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeRequestFailed, err, "failed to get %s trades from Binance", symbol)
	}

	ticks := make([]types.Tick, 0, len(trades))

	for _, trade := range trades {
		price, err := parseFloat("price", trade.Price)
		if err != nil {
			return nil, err
		}

		qty, err := parseFloat("qty", trade.Quantity)
		if err != nil {
			return nil, err
		}

		ticks = append(ticks, types.Tick{
			Symbol:   symbol,
			Time:     time.UnixMilli(trade.Time),
			Price:    price,
			Quantity: qty,
		})
	}

	return ticks, nil
}

// GetCandles returns the latest klines, oldest first. The last kline may still be open.
func (b *BinanceFuturesProvider) GetCandles(ctx context.Context, symbol string, interval string, limit int) ([]types.Candle, error) {
	klines, err := b.client.NewKlinesService().Symbol(symbol).Interval(interval).Limit(limit).Do(ctx)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeRequestFailed, err, "failed to get %s klines from Binance", symbol)
	}

	candles := make([]types.Candle, 0, len(klines))

	for _, k := range klines {
		candle, err := convertKline(symbol, k)
		if err != nil {
			return nil, err
		}

		candles = append(candles, candle)
	}

	return candles, nil
}

// SetLeverage sets the initial leverage of a symbol.
func (b *BinanceFuturesProvider) SetLeverage(ctx context.Context, symbol string, leverage int) error {
	if err := b.client.NewChangeLeverageService().Symbol(symbol).Leverage(leverage).Do(ctx); err != nil {
		return errors.Wrapf(errors.ErrCodeRequestFailed, err, "failed to set %s leverage on Binance", symbol)
	}

	return nil
}

// SetHedgeMode switches the account position mode. Binance rejects the call when the
// mode is already set; see IsSettingUnchanged.
func (b *BinanceFuturesProvider) SetHedgeMode(ctx context.Context, enabled bool) error {
	if err := b.client.NewChangePositionModeService().DualSide(enabled).Do(ctx); err != nil {
		return errors.Wrap(errors.ErrCodeRequestFailed, "failed to set position mode on Binance", err)
	}

	return nil
}

// Binance codes for account settings that already have the requested value.
const (
	apiCodePositionSideUnchanged int64 = -4059
	apiCodeMarginTypeUnchanged   int64 = -4046
)

// IsSettingUnchanged reports whether err is Binance refusing an account setting because it
// already has the requested value.
func IsSettingUnchanged(err error) bool {
	var apiErr *common.APIError
	if !errors.As(err, &apiErr) {
		return false
	}

	return apiErr.Code == apiCodePositionSideUnchanged || apiErr.Code == apiCodeMarginTypeUnchanged
}

// Helper functions

// mapBinanceOrderStatus maps Binance order status to our OrderStatus type.
func mapBinanceOrderStatus(status futures.OrderStatusType) (types.OrderStatus, error) {
	switch status {
	case futures.OrderStatusTypeNew:
		return types.OrderStatusNew, nil
	case futures.OrderStatusTypePartiallyFilled:
		return types.OrderStatusPartiallyFilled, nil
	case futures.OrderStatusTypeFilled:
		return types.OrderStatusFilled, nil
	case futures.OrderStatusTypeCanceled:
		return types.OrderStatusCancelled, nil
	case futures.OrderStatusTypeRejected:
		return types.OrderStatusRejected, nil
	case futures.OrderStatusTypeExpired:
		return types.OrderStatusExpired, nil
	default:
		return "", errors.Newf(errors.ErrCodeUnexpectedResponse, "unknown order status: %s", status)
	}
}

func convertOrderUpdate(
	orderID int64, symbol string, status futures.OrderStatusType, avgPrice, executed string, updateTime int64,
) (types.OrderUpdate, error) {
	mapped, err := mapBinanceOrderStatus(status)
	if err != nil {
		return types.OrderUpdate{}, err
	}

	price, err := parseFloat("avgPrice", avgPrice)
	if err != nil {
		return types.OrderUpdate{}, err
	}

	qty, err := parseFloat("executedQty", executed)
	if err != nil {
		return types.OrderUpdate{}, err
	}

	return types.OrderUpdate{
		OrderID:          orderID,
		Symbol:           symbol,
		Status:           mapped,
		AvgPrice:         price,
		ExecutedQuantity: qty,
		UpdateTime:       time.UnixMilli(updateTime),
	}, nil
}

func convertPriceLevel(price, quantity string) (types.PriceLevel, error) {
	p, err := parseFloat("price", price)
	if err != nil {
		return types.PriceLevel{}, err
	}

	q, err := parseFloat("quantity", quantity)
	if err != nil {
		return types.PriceLevel{}, err
	}

	return types.PriceLevel{Price: p, Quantity: q}, nil
}

func convertKline(symbol string, k *futures.Kline) (types.Candle, error) {
	values := make([]float64, 5)

	for i, raw := range []string{k.Open, k.High, k.Low, k.Close, k.Volume} {
		v, err := parseFloat("kline", raw)
		if err != nil {
			return types.Candle{}, err
		}

		values[i] = v
	}

	return types.Candle{
		Symbol:    symbol,
		OpenTime:  time.UnixMilli(k.OpenTime),
		CloseTime: time.UnixMilli(k.CloseTime),
		Open:      values[0],
		High:      values[1],
		Low:       values[2],
		Close:     values[3],
		Volume:    values[4],
	}, nil
}

// parseFloat parses a numeric string field. Empty strings are zero.
func parseFloat(field, raw string) (float64, error) {
	if raw == "" {
		return 0, nil
	}

	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, errors.Wrapf(errors.ErrCodeUnexpectedResponse, err, "invalid %s value %q", field, raw)
	}

	return v, nil
}

// Ensure BinanceFuturesProvider implements ExchangeProvider.
var _ ExchangeProvider = (*BinanceFuturesProvider)(nil)
