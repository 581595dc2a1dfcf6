package ingest

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rxtech-lab/argo-signal/internal/logger"
	"github.com/rxtech-lab/argo-signal/internal/metrics"
	"github.com/rxtech-lab/argo-signal/internal/trading/engine"
	"github.com/rxtech-lab/argo-signal/internal/trading/engine/engine_v1/market"
	"github.com/rxtech-lab/argo-signal/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// UserStream is the part of the exchange that manages the private stream listen key.
type UserStream interface {
	StartUserStream(ctx context.Context) (string, error)
	KeepAliveUserStream(ctx context.Context, listenKey string) error
	CloseUserStream(ctx context.Context, listenKey string) error
}

// subscribeRequest is the market stream subscription message.
type subscribeRequest struct {
	Method string   `json:"method"`
	Params []string `json:"params"`
	ID     int      `json:"id"`
}

// Ingester connects to the exchange stream, subscribes to klines and trades of every
// instrument and appends them to the feed. The session ends when any instrument has
// received SessionCandles completed candles.
type Ingester struct {
	config  engine.StreamConfig
	symbols []string
	feed    *market.Feed
	account UserStream
	dialer  *websocket.Dialer
	counts  map[string]int
	mu      sync.Mutex
	log     *logger.Logger
}

// NewIngester creates an ingester for symbols writing into feed.
func NewIngester(
	config engine.StreamConfig,
	symbols []string,
	feed *market.Feed,
	account UserStream,
	log *logger.Logger,
) *Ingester {
	return &Ingester{
		config:  config,
		symbols: symbols,
		feed:    feed,
		account: account,
		dialer:  &websocket.Dialer{HandshakeTimeout: 10 * time.Second}, //nolint:exhaustruct // defaults for the rest
		counts:  make(map[string]int, len(symbols)),
		mu:      sync.Mutex{},
		log:     log,
	}
}

// Run streams until the session candle count is reached (nil), ctx is cancelled (nil) or
// the transport fails (ErrCodeTransportFailed). The listen key is closed on the way out.
func (i *Ingester) Run(ctx context.Context) error {
	listenKey, err := i.account.StartUserStream(ctx)
	if err != nil {
		return errors.Wrap(errors.ErrCodeTransportFailed, "failed to start user stream", err)
	}

	defer i.closeUserStream(ctx, listenKey)

	url := streamURL(i.config.URL, listenKey)

	conn, _, err := i.dialer.DialContext(ctx, url, nil)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}

		return errors.Wrapf(errors.ErrCodeTransportFailed, err, "failed to connect to %s", i.config.URL)
	}
	defer conn.Close()

	if err := i.subscribe(conn); err != nil {
		return err
	}

	streamCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(streamCtx)

	g.Go(func() error {
		defer cancel()

		return i.readLoop(conn)
	})

	g.Go(func() error {
		return i.keepAlive(gctx, conn, listenKey)
	})

	g.Go(func() error {
		<-gctx.Done()
		_ = conn.Close()

		return nil
	})

	err = g.Wait()
	if ctx.Err() != nil {
		return nil
	}

	return err
}

// Candles returns the number of completed candles received for symbol.
func (i *Ingester) Candles(symbol string) int {
	i.mu.Lock()
	defer i.mu.Unlock()

	return i.counts[symbol]
}

func (i *Ingester) subscribe(conn *websocket.Conn) error {
	params := make([]string, 0, 2*len(i.symbols))
	for _, symbol := range i.symbols {
		lower := strings.ToLower(symbol)
		params = append(params, fmt.Sprintf("%s@kline_%s", lower, i.config.Interval), lower+"@aggTrade")
	}

	req := subscribeRequest{Method: "SUBSCRIBE", Params: params, ID: 1}
	if err := conn.WriteJSON(req); err != nil {
		return errors.Wrap(errors.ErrCodeTransportFailed, "failed to subscribe to market streams", err)
	}

	i.log.Info("Subscribed to market streams", zap.Strings("params", params))

	return nil
}

// readLoop appends every decoded event to the feed. It returns nil once an instrument has
// reached the session candle count.
func (i *Ingester) readLoop(conn *websocket.Conn) error {
	extend := func(string) error {
		return conn.SetReadDeadline(time.Now().Add(i.config.ReadTimeout))
	}

	conn.SetPongHandler(extend)

	for {
		if err := extend(""); err != nil {
			return errors.Wrap(errors.ErrCodeTransportFailed, "failed to set read deadline", err)
		}

		_, msg, err := conn.ReadMessage()
		if err != nil {
			return errors.Wrap(errors.ErrCodeTransportFailed, "market stream read failed", err)
		}

		ev, err := decodeEvent(msg)
		if err != nil {
			i.log.Warn("Skipping undecodable stream frame", zap.Error(err))

			continue
		}

		switch {
		case ev.Kind == eventListenKeyExpired:
			return errors.New(errors.ErrCodeTransportFailed, "user stream listen key expired")
		case ev.Tick != nil:
			if buf := i.feed.Ticks(ev.Tick.Symbol); buf != nil {
				buf.Append(*ev.Tick)
				metrics.TicksTotal.WithLabelValues(ev.Tick.Symbol).Inc()
			}
		case ev.Candle != nil:
			buf := i.feed.Candles(ev.Candle.Symbol)
			if buf == nil {
				continue
			}

			buf.Append(*ev.Candle)
			metrics.CandlesTotal.WithLabelValues(ev.Candle.Symbol).Inc()

			count := i.countCandle(ev.Candle.Symbol)

			i.log.Info("Candle closed",
				zap.String("symbol", ev.Candle.Symbol),
				zap.Int("count", count),
				zap.Time("open_time", ev.Candle.OpenTime),
				zap.Float64("close", ev.Candle.Close),
			)

			if count >= i.config.SessionCandles {
				i.log.Info("Session candle count reached", zap.String("symbol", ev.Candle.Symbol), zap.Int("count", count))

				return nil
			}
		}
	}
}

func (i *Ingester) countCandle(symbol string) int {
	i.mu.Lock()
	defer i.mu.Unlock()

	i.counts[symbol]++

	return i.counts[symbol]
}

// keepAlive pings the connection and refreshes the listen key until ctx ends. Two keep-alive
// failures in a row are fatal.
func (i *Ingester) keepAlive(ctx context.Context, conn *websocket.Conn, listenKey string) error {
	ping := time.NewTicker(i.config.PingInterval)
	defer ping.Stop()

	refresh := time.NewTicker(i.config.KeepAliveInterval)
	defer refresh.Stop()

	failures := 0

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(10*time.Second)); err != nil {
				if ctx.Err() != nil {
					return nil
				}

				return errors.Wrap(errors.ErrCodeTransportFailed, "failed to ping market stream", err)
			}
		case <-refresh.C:
			if err := i.account.KeepAliveUserStream(ctx, listenKey); err != nil {
				failures++

				i.log.Warn("User stream keep-alive failed", zap.Int("failures", failures), zap.Error(err))

				if failures >= 2 {
					return errors.Wrap(errors.ErrCodeKeepAliveFailed, "user stream keep-alive failed twice", err)
				}

				continue
			}

			failures = 0

			i.log.Debug("User stream kept alive")
		}
	}
}

func (i *Ingester) closeUserStream(ctx context.Context, listenKey string) {
	closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	if err := i.account.CloseUserStream(closeCtx, listenKey); err != nil {
		i.log.Warn("Failed to close user stream", zap.Error(err))
	}
}

func streamURL(base, listenKey string) string {
	return strings.TrimRight(base, "/") + "/" + listenKey
}
