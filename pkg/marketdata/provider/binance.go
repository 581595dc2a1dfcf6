package provider

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/adshao/go-binance/v2/futures"
	"github.com/rxtech-lab/argo-signal/internal/logger"
	"github.com/rxtech-lab/argo-signal/internal/types"
	"github.com/rxtech-lab/argo-signal/pkg/errors"
	"github.com/rxtech-lab/argo-signal/pkg/marketdata/writer"
	"go.uber.org/zap"
)

const (
	// aggTradesLimit is the largest page the aggTrades endpoint returns.
	aggTradesLimit = 1000
	// aggTradesWindow is the longest start/end range the endpoint accepts.
	aggTradesWindow = time.Hour
)

// AggTradesService interface for the futures aggregate trades endpoint.
type AggTradesService interface {
	Symbol(symbol string) AggTradesService
	FromID(fromID int64) AggTradesService
	StartTime(startTime int64) AggTradesService
	EndTime(endTime int64) AggTradesService
	Limit(limit int) AggTradesService
	Do(ctx context.Context) ([]*futures.AggTrade, error)
}

// BinanceAPIClient abstracts the futures client for testing.
type BinanceAPIClient interface {
	NewAggTradesService() AggTradesService
}

type realBinanceAPIClient struct {
	client *futures.Client
}

func (r *realBinanceAPIClient) NewAggTradesService() AggTradesService {
	return &realAggTradesService{service: r.client.NewAggTradesService()}
}

type realAggTradesService struct {
	service *futures.AggTradesService
}

func (s *realAggTradesService) Symbol(symbol string) AggTradesService {
	s.service = s.service.Symbol(symbol)

	return s
}

func (s *realAggTradesService) FromID(fromID int64) AggTradesService {
	s.service = s.service.FromID(fromID)

	return s
}

func (s *realAggTradesService) StartTime(startTime int64) AggTradesService {
	s.service = s.service.StartTime(startTime)

	return s
}

func (s *realAggTradesService) EndTime(endTime int64) AggTradesService {
	s.service = s.service.EndTime(endTime)

	return s
}

func (s *realAggTradesService) Limit(limit int) AggTradesService {
	s.service = s.service.Limit(limit)

	return s
}

func (s *realAggTradesService) Do(ctx context.Context) ([]*futures.AggTrade, error) {
	return s.service.Do(ctx)
}

// BinanceFuturesClient downloads the aggregate trade tape of a futures symbol.
type BinanceFuturesClient struct {
	client BinanceAPIClient
	writer writer.TapeWriter
	log    *logger.Logger
}

// NewBinanceFuturesClient creates a client on the public futures market data API.
func NewBinanceFuturesClient(log *logger.Logger) (Provider, error) {
	return NewBinanceFuturesClientWithAPI(&realBinanceAPIClient{client: futures.NewClient("", "")}, log), nil
}

// NewBinanceFuturesClientWithAPI creates a client on the given API, used by tests.
func NewBinanceFuturesClientWithAPI(api BinanceAPIClient, log *logger.Logger) *BinanceFuturesClient {
	return &BinanceFuturesClient{
		client: api,
		writer: nil,
		log:    log,
	}
}

func (c *BinanceFuturesClient) ConfigWriter(w writer.TapeWriter) {
	c.writer = w
}

// Download pages through the aggregate trades one hour window at a time. A window holding
// more than one page is continued by trade id until a trade falls past the window.
func (c *BinanceFuturesClient) Download(
	ctx context.Context,
	symbol string,
	startDate time.Time,
	endDate time.Time,
	onProgress OnDownloadProgress,
) (string, error) {
	if c.writer == nil {
		return "", errors.New(errors.ErrCodeInvalidConfiguration, "writer is not configured")
	}

	if !endDate.After(startDate) {
		return "", errors.New(errors.ErrCodeInvalidPeriod, "end date must be after start date")
	}

	if err := c.writer.Initialize(); err != nil {
		return "", errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to initialize writer", err)
	}

	startMillis := startDate.UnixMilli()
	endMillis := endDate.UnixMilli()
	total := float64(endMillis - startMillis)
	written := 0

	for windowStart := startMillis; windowStart < endMillis; windowStart += aggTradesWindow.Milliseconds() {
		windowEnd := min(windowStart+aggTradesWindow.Milliseconds(), endMillis)

		n, err := c.downloadWindow(ctx, symbol, windowStart, windowEnd)
		written += n

		if err != nil {
			return "", c.abort(err)
		}

		if onProgress != nil {
			onProgress(float64(windowEnd-startMillis), total, fmt.Sprintf("Downloading %s trades from Binance futures", symbol))
		}
	}

	c.log.Debug("Downloaded trade tape",
		zap.String("symbol", symbol),
		zap.Int("trades", written),
	)

	outputPath, err := c.writer.Finalize()
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to finalize writer", err)
	}

	return outputPath, nil
}

// downloadWindow writes the trades in [windowStart, windowEnd) and returns how many were written.
func (c *BinanceFuturesClient) downloadWindow(ctx context.Context, symbol string, windowStart, windowEnd int64) (int, error) {
	written := 0

	page, err := c.client.NewAggTradesService().
		Symbol(symbol).
		StartTime(windowStart).
		EndTime(windowEnd - 1).
		Limit(aggTradesLimit).
		Do(ctx)

	for {
		if err != nil {
			return written, errors.Wrapf(errors.ErrCodeRequestFailed, err, "failed to fetch %s aggregate trades", symbol)
		}

		done, n, writeErr := writeAggTrades(c.writer, symbol, page, windowEnd)
		written += n

		if writeErr != nil {
			return written, writeErr
		}

		if done || len(page) < aggTradesLimit {
			return written, nil
		}

		page, err = c.client.NewAggTradesService().
			Symbol(symbol).
			FromID(page[len(page)-1].AggTradeID + 1).
			Limit(aggTradesLimit).
			Do(ctx)
	}
}

// abort finalizes the writer after a failed download and returns the download error.
func (c *BinanceFuturesClient) abort(err error) error {
	if _, finalizeErr := c.writer.Finalize(); finalizeErr != nil {
		c.log.Warn("Failed to finalize writer after download error", zap.Error(finalizeErr))
	}

	return err
}

// writeAggTrades writes the trades of page that happened before windowEnd. done reports that
// a trade at or past windowEnd was seen.
func writeAggTrades(w writer.TapeWriter, symbol string, page []*futures.AggTrade, windowEnd int64) (done bool, written int, err error) {
	for _, trade := range page {
		if trade.Timestamp >= windowEnd {
			return true, written, nil
		}

		tick, err := aggTradeToTick(symbol, trade)
		if err != nil {
			return false, written, err
		}

		if err := w.Write(tick); err != nil {
			return false, written, errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to write trade", err)
		}

		written++
	}

	return false, written, nil
}

func aggTradeToTick(symbol string, trade *futures.AggTrade) (types.Tick, error) {
	price, err := strconv.ParseFloat(trade.Price, 64)
	if err != nil {
		return types.Tick{}, errors.Wrapf(errors.ErrCodeUnexpectedResponse, err, "invalid price %q in trade %d", trade.Price, trade.AggTradeID)
	}

	quantity, err := strconv.ParseFloat(trade.Quantity, 64)
	if err != nil {
		return types.Tick{}, errors.Wrapf(errors.ErrCodeUnexpectedResponse, err, "invalid quantity %q in trade %d", trade.Quantity, trade.AggTradeID)
	}

	return types.Tick{
		Symbol:   symbol,
		Time:     time.UnixMilli(trade.Timestamp).UTC(),
		Price:    price,
		Quantity: quantity,
	}, nil
}
