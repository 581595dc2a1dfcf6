package ingest

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rxtech-lab/argo-signal/internal/logger"
	"github.com/rxtech-lab/argo-signal/internal/trading/engine"
	"github.com/rxtech-lab/argo-signal/internal/trading/engine/engine_v1/market"
	"github.com/rxtech-lab/argo-signal/mocks"
	"github.com/rxtech-lab/argo-signal/pkg/errors"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type IngesterTestSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	account *mocks.MockExchangeProvider
}

func TestIngesterSuite(t *testing.T) {
	suite.Run(t, new(IngesterTestSuite))
}

func (suite *IngesterTestSuite) SetupTest() {
	suite.ctrl = gomock.NewController(suite.T())
	suite.account = mocks.NewMockExchangeProvider(suite.ctrl)
}

func (suite *IngesterTestSuite) TearDownTest() {
	suite.ctrl.Finish()
}

// newStreamServer upgrades every request and hands the connection and request path to handler.
func newStreamServer(handler func(conn *websocket.Conn, path string)) *httptest.Server {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		handler(conn, r.URL.Path)
	}))
}

func wsURL(server *httptest.Server) string {
	return strings.Replace(server.URL, "http://", "ws://", 1) + "/ws"
}

func testStreamConfig(url string, sessionCandles int) engine.StreamConfig {
	return engine.StreamConfig{
		URL:               url,
		Interval:          "1m",
		SessionCandles:    sessionCandles,
		KeepAliveInterval: time.Hour,
		PingInterval:      time.Hour,
		ReadTimeout:       5 * time.Second,
	}
}

func klineFrame(symbol string, openMs int64, closePrice float64, closed bool) string {
	return fmt.Sprintf(`{"e":"kline","s":"%s","k":{"t":%d,"T":%d,"o":"100","c":"%v","h":"110","l":"90","q":"1000","x":%t}}`,
		symbol, openMs, openMs+59999, closePrice, closed)
}

func (suite *IngesterTestSuite) TestRunUntilSessionCandles() {
	subscribed := make(chan subscribeRequest, 1)
	paths := make(chan string, 1)

	server := newStreamServer(func(conn *websocket.Conn, path string) {
		paths <- path

		var req subscribeRequest
		if err := conn.ReadJSON(&req); err != nil {
			return
		}

		subscribed <- req

		frames := []string{
			`{"result":null,"id":1}`,
			`not json at all`,
			klineFrame("BTCUSDT", 1700000000000, 101, false),
			`{"e":"aggTrade","s":"BTCUSDT","p":"100.5","q":"2","T":1700000000500}`,
			klineFrame("BTCUSDT", 1700000000000, 101, true),
			klineFrame("DOGEUSDT", 1700000000000, 1, true),
			`{"e":"aggTrade","s":"BTCUSDT","p":"101.5","q":"1","T":1700000060500}`,
			klineFrame("BTCUSDT", 1700000060000, 102, true),
		}

		for _, f := range frames {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(f)); err != nil {
				return
			}
		}

		// hold the connection until the client closes it
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
	defer server.Close()

	suite.account.EXPECT().StartUserStream(gomock.Any()).Return("listen-key", nil)
	suite.account.EXPECT().CloseUserStream(gomock.Any(), "listen-key").Return(nil)

	feed := market.NewFeed([]string{"BTCUSDT"})
	ingester := NewIngester(testStreamConfig(wsURL(server), 2), []string{"BTCUSDT"}, feed, suite.account, logger.NewNopLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := ingester.Run(ctx)
	suite.NoError(err)

	suite.Equal("/ws/listen-key", <-paths)

	req := <-subscribed
	suite.Equal("SUBSCRIBE", req.Method)
	suite.Equal([]string{"btcusdt@kline_1m", "btcusdt@aggTrade"}, req.Params)

	suite.Equal(2, feed.Candles("BTCUSDT").Len())
	suite.Equal(2, feed.Ticks("BTCUSDT").Len())
	suite.Equal(2, ingester.Candles("BTCUSDT"))

	candles, _ := feed.Candles("BTCUSDT").Since(0)
	suite.Equal(101.0, candles[0].Close)
	suite.Equal(102.0, candles[1].Close)
}

func (suite *IngesterTestSuite) TestRunTransportFailure() {
	server := newStreamServer(func(conn *websocket.Conn, _ string) {
		var req subscribeRequest
		_ = conn.ReadJSON(&req)
		// returning closes the connection mid-session
	})
	defer server.Close()

	suite.account.EXPECT().StartUserStream(gomock.Any()).Return("key", nil)
	suite.account.EXPECT().CloseUserStream(gomock.Any(), "key").Return(nil)

	feed := market.NewFeed([]string{"BTCUSDT"})
	ingester := NewIngester(testStreamConfig(wsURL(server), 30), []string{"BTCUSDT"}, feed, suite.account, logger.NewNopLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := ingester.Run(ctx)
	suite.True(errors.HasCode(err, errors.ErrCodeTransportFailed), "got %v", err)
}

func (suite *IngesterTestSuite) TestRunListenKeyExpired() {
	server := newStreamServer(func(conn *websocket.Conn, _ string) {
		var req subscribeRequest
		_ = conn.ReadJSON(&req)
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"e":"listenKeyExpired","E":1}`))

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
	defer server.Close()

	suite.account.EXPECT().StartUserStream(gomock.Any()).Return("key", nil)
	suite.account.EXPECT().CloseUserStream(gomock.Any(), "key").Return(nil)

	feed := market.NewFeed([]string{"BTCUSDT"})
	ingester := NewIngester(testStreamConfig(wsURL(server), 30), []string{"BTCUSDT"}, feed, suite.account, logger.NewNopLogger())

	err := ingester.Run(context.Background())
	suite.True(errors.HasCode(err, errors.ErrCodeTransportFailed), "got %v", err)
}

func (suite *IngesterTestSuite) TestRunCancelled() {
	server := newStreamServer(func(conn *websocket.Conn, _ string) {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
	defer server.Close()

	suite.account.EXPECT().StartUserStream(gomock.Any()).Return("key", nil)
	suite.account.EXPECT().CloseUserStream(gomock.Any(), "key").Return(nil)

	feed := market.NewFeed([]string{"BTCUSDT"})
	ingester := NewIngester(testStreamConfig(wsURL(server), 30), []string{"BTCUSDT"}, feed, suite.account, logger.NewNopLogger())

	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()

	suite.NoError(ingester.Run(ctx))
}

func (suite *IngesterTestSuite) TestRunStartUserStreamFails() {
	suite.account.EXPECT().StartUserStream(gomock.Any()).Return("", errors.New(errors.ErrCodeRequestFailed, "boom"))

	ingester := NewIngester(testStreamConfig("ws://127.0.0.1:1/ws", 30), []string{"BTCUSDT"},
		market.NewFeed([]string{"BTCUSDT"}), suite.account, logger.NewNopLogger())

	err := ingester.Run(context.Background())
	suite.True(errors.HasCode(err, errors.ErrCodeTransportFailed))
}

func (suite *IngesterTestSuite) TestKeepAliveFailsTwice() {
	server := newStreamServer(func(conn *websocket.Conn, _ string) {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
	defer server.Close()

	suite.account.EXPECT().StartUserStream(gomock.Any()).Return("key", nil)
	suite.account.EXPECT().KeepAliveUserStream(gomock.Any(), "key").
		Return(errors.New(errors.ErrCodeKeepAliveFailed, "expired")).Times(2)
	suite.account.EXPECT().CloseUserStream(gomock.Any(), "key").Return(nil)

	config := testStreamConfig(wsURL(server), 30)
	config.KeepAliveInterval = 20 * time.Millisecond

	ingester := NewIngester(config, []string{"BTCUSDT"}, market.NewFeed([]string{"BTCUSDT"}), suite.account, logger.NewNopLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := ingester.Run(ctx)
	suite.True(errors.HasCode(err, errors.ErrCodeKeepAliveFailed), "got %v", err)
}
