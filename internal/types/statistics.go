package types

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type TradeResult struct {
	// Count of closed signals with a known close price.
	NumberOfTrades int `yaml:"number_of_trades" json:"number_of_trades"`
	// Count of trades with positive pnl.
	NumberOfWinningTrades int `yaml:"number_of_winning_trades" json:"number_of_winning_trades"`
	// Count of trades with zero or negative pnl.
	NumberOfLosingTrades int `yaml:"number_of_losing_trades" json:"number_of_losing_trades"`
	// Closed signals whose exit fill could not be confirmed.
	NumberOfUnfinished int `yaml:"number_of_unfinished" json:"number_of_unfinished"`
	// Signals that expired before opening a position.
	NumberOfExpired int `yaml:"number_of_expired" json:"number_of_expired"`
}

type TradePnl struct {
	// Sum of positive trade pnl.
	GrossProfit float64 `yaml:"gross_profit" json:"gross_profit"`
	// Absolute sum of non-positive trade pnl.
	GrossLoss float64 `yaml:"gross_loss" json:"gross_loss"`
	// Entry and exit commission.
	Commission float64 `yaml:"commission" json:"commission"`
	// GrossProfit - GrossLoss - Commission.
	NetProfit float64 `yaml:"net_profit" json:"net_profit"`
}

// SessionStats summarizes one live session or backtest.
type SessionStats struct {
	// ID is the session run ID.
	ID string `yaml:"id" json:"id"`
	// Timestamp is when the session ended.
	Timestamp   time.Time   `yaml:"timestamp" json:"timestamp"`
	Symbols     []string    `yaml:"symbols" json:"symbols"`
	TradeResult TradeResult `yaml:"trade_result" json:"trade_result"`
	TradePnl    TradePnl    `yaml:"trade_pnl" json:"trade_pnl"`
	// Average time between entry and close.
	AverageHoldingTime time.Duration `yaml:"average_holding_time" json:"average_holding_time"`
	// Win/loss count ratio and profit/loss ratio, capped at the configured ceiling.
	WinLossRatio      float64  `yaml:"win_loss_ratio" json:"win_loss_ratio"`
	ProfitFactor      float64  `yaml:"profit_factor" json:"profit_factor"`
	FinalBalance      float64  `yaml:"final_balance,omitempty" json:"final_balance,omitempty"`
	TimeInPosition    float64  `yaml:"time_in_position_seconds,omitempty" json:"time_in_position_seconds,omitempty"`
	UnwindIncomplete  bool     `yaml:"unwind_incomplete" json:"unwind_incomplete"`
	ResidualExposures []string `yaml:"residual_exposures,omitempty" json:"residual_exposures,omitempty"`
}

// Summary renders the human readable session report.
func (s SessionStats) Summary() string {
	return fmt.Sprintf(
		"Gross Profit: %.4f\nGross Loss: %.4f\nCommission: %.4f\nNet Profit: %.4f\n"+
			"Avg. Time in Position: %.2f min\nWins: %d\nLosses: %d\nUnfinished: %d\nExpired: %d\n",
		s.TradePnl.GrossProfit, s.TradePnl.GrossLoss, s.TradePnl.Commission, s.TradePnl.NetProfit,
		s.AverageHoldingTime.Minutes(),
		s.TradeResult.NumberOfWinningTrades, s.TradeResult.NumberOfLosingTrades,
		s.TradeResult.NumberOfUnfinished, s.TradeResult.NumberOfExpired,
	)
}

// WriteSessionStats writes stats as YAML to path.
func WriteSessionStats(path string, stats []SessionStats) error {
	data, err := yaml.Marshal(stats)
	if err != nil {
		return fmt.Errorf("failed to marshal session stats to YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil { //nolint:gosec // stats are not secret
		return fmt.Errorf("failed to write session stats to file: %w", err)
	}

	return nil
}

// WriteSignals writes the signal records as YAML to path.
func WriteSignals(path string, signals []*Signal) error {
	data, err := yaml.Marshal(signals)
	if err != nil {
		return fmt.Errorf("failed to marshal signals to YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil { //nolint:gosec // signals are not secret
		return fmt.Errorf("failed to write signals to file: %w", err)
	}

	return nil
}
