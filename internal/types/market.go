package types

import "time"

// Candle is one completed kline.
type Candle struct {
	Symbol    string    `yaml:"symbol" json:"symbol" csv:"symbol"`
	OpenTime  time.Time `yaml:"open_time" json:"open_time" csv:"open_time"`
	CloseTime time.Time `yaml:"close_time" json:"close_time" csv:"close_time"`
	Open      float64   `yaml:"open" json:"open" csv:"open"`
	High      float64   `yaml:"high" json:"high" csv:"high"`
	Low       float64   `yaml:"low" json:"low" csv:"low"`
	Close     float64   `yaml:"close" json:"close" csv:"close"`
	Volume    float64   `yaml:"volume" json:"volume" csv:"volume"`
}

// Tick is one trade print.
type Tick struct {
	Symbol   string    `yaml:"symbol" json:"symbol" csv:"symbol"`
	Time     time.Time `yaml:"time" json:"time" csv:"time"`
	Price    float64   `yaml:"price" json:"price" csv:"price"`
	Quantity float64   `yaml:"quantity" json:"quantity" csv:"quantity"`
}

type PriceLevel struct {
	Price    float64 `yaml:"price" json:"price"`
	Quantity float64 `yaml:"quantity" json:"quantity"`
}

// OrderBook holds the best levels of a depth snapshot, best price first.
type OrderBook struct {
	Symbol string       `yaml:"symbol" json:"symbol"`
	Bids   []PriceLevel `yaml:"bids" json:"bids"`
	Asks   []PriceLevel `yaml:"asks" json:"asks"`
}
