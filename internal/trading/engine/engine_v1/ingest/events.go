package ingest

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/rxtech-lab/argo-signal/internal/types"
	"github.com/rxtech-lab/argo-signal/pkg/errors"
)

const (
	eventKline            = "kline"
	eventAggTrade         = "aggTrade"
	eventListenKeyExpired = "listenKeyExpired"
)

// combinedFrame is the envelope used by combined stream endpoints.
type combinedFrame struct {
	Stream string          `json:"stream"`
	Data   json.RawMessage `json:"data"`
}

type eventHeader struct {
	Event  string `json:"e"`
	Symbol string `json:"s"`
}

type klineEvent struct {
	Symbol string `json:"s"`
	Kline  struct {
		OpenTime    int64  `json:"t"`
		CloseTime   int64  `json:"T"`
		Open        string `json:"o"`
		Close       string `json:"c"`
		High        string `json:"h"`
		Low         string `json:"l"`
		QuoteVolume string `json:"q"`
		Closed      bool   `json:"x"`
	} `json:"k"`
}

type aggTradeEvent struct {
	Symbol    string `json:"s"`
	Price     string `json:"p"`
	Quantity  string `json:"q"`
	TradeTime int64  `json:"T"`
}

// event is one decoded stream message. At most one of Candle and Tick is set.
type event struct {
	Kind   string
	Candle *types.Candle
	Tick   *types.Tick
}

// decodeEvent parses a raw or combined stream frame. Frames without an event type, such as
// subscription acknowledgements, decode to an empty event. Open klines are dropped.
func decodeEvent(msg []byte) (event, error) {
	var frame combinedFrame
	if err := json.Unmarshal(msg, &frame); err != nil {
		return event{}, errors.Wrap(errors.ErrCodeStreamParseFailed, "malformed stream frame", err)
	}

	payload := msg
	if len(frame.Data) > 0 {
		payload = frame.Data
	}

	var header eventHeader
	if err := json.Unmarshal(payload, &header); err != nil {
		return event{}, errors.Wrap(errors.ErrCodeStreamParseFailed, "malformed stream event", err)
	}

	switch header.Event {
	case eventKline:
		return decodeKline(payload)
	case eventAggTrade:
		return decodeAggTrade(payload)
	default:
		return event{Kind: header.Event, Candle: nil, Tick: nil}, nil
	}
}

func decodeKline(payload []byte) (event, error) {
	var k klineEvent
	if err := json.Unmarshal(payload, &k); err != nil {
		return event{}, errors.Wrap(errors.ErrCodeStreamParseFailed, "malformed kline event", err)
	}

	if !k.Kline.Closed {
		return event{Kind: eventKline, Candle: nil, Tick: nil}, nil
	}

	values, err := parseFloats(k.Kline.Open, k.Kline.High, k.Kline.Low, k.Kline.Close, k.Kline.QuoteVolume)
	if err != nil {
		return event{}, errors.Wrapf(errors.ErrCodeStreamParseFailed, err, "bad kline numbers for %s", k.Symbol)
	}

	candle := types.Candle{
		Symbol:    strings.ToUpper(k.Symbol),
		OpenTime:  time.UnixMilli(k.Kline.OpenTime).UTC(),
		CloseTime: time.UnixMilli(k.Kline.CloseTime).UTC(),
		Open:      values[0],
		High:      values[1],
		Low:       values[2],
		Close:     values[3],
		Volume:    values[4],
	}

	return event{Kind: eventKline, Candle: &candle, Tick: nil}, nil
}

func decodeAggTrade(payload []byte) (event, error) {
	var t aggTradeEvent
	if err := json.Unmarshal(payload, &t); err != nil {
		return event{}, errors.Wrap(errors.ErrCodeStreamParseFailed, "malformed trade event", err)
	}

	values, err := parseFloats(t.Price, t.Quantity)
	if err != nil {
		return event{}, errors.Wrapf(errors.ErrCodeStreamParseFailed, err, "bad trade numbers for %s", t.Symbol)
	}

	tick := types.Tick{
		Symbol:   strings.ToUpper(t.Symbol),
		Time:     time.UnixMilli(t.TradeTime).UTC(),
		Price:    values[0],
		Quantity: values[1],
	}

	return event{Kind: eventAggTrade, Candle: nil, Tick: &tick}, nil
}

func parseFloats(raw ...string) ([]float64, error) {
	out := make([]float64, len(raw))

	for i, s := range raw {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, err
		}

		out[i] = v
	}

	return out, nil
}
