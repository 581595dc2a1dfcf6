package engine

import (
	"context"

	"github.com/rxtech-lab/argo-signal/internal/backtest/engine/engine_v1/datasource"
	"github.com/rxtech-lab/argo-signal/internal/types"
)

// Lifecycle callback types for backtest phases
// All callbacks with error return can abort execution if they return an error

// OnBacktestStartCallback is called when the entire backtest begins.
type OnBacktestStartCallback func(totalSymbols int, totalDataFiles int) error

// OnBacktestEndCallback is called when the entire backtest completes (always called via defer).
type OnBacktestEndCallback func(err error)

// OnRunStartCallback is called when the replay of one symbol from one data file begins.
// runID is a unique identifier for this run, generated before processing starts.
type OnRunStartCallback func(runID string, symbol string, dataFilePath string, totalTicks int) error

// OnRunEndCallback is called when the replay of one symbol from one data file ends.
type OnRunEndCallback func(symbol string, dataFilePath string, resultFolderPath string, stats types.SessionStats)

// OnProcessDataCallback is called for each tick processed.
type OnProcessDataCallback func(current int, total int) error

// OnSignalUpdateCallback is called with a copy of a signal after every lifecycle transition.
type OnSignalUpdateCallback func(signal *types.Signal)

// LifecycleCallbacks holds all lifecycle callback functions for the backtest engine.
// All fields are pointers - nil means no callback will be invoked.
type LifecycleCallbacks struct {
	OnBacktestStart *OnBacktestStartCallback
	OnBacktestEnd   *OnBacktestEndCallback
	OnRunStart      *OnRunStartCallback
	OnRunEnd        *OnRunEndCallback
	OnProcessData   *OnProcessDataCallback
	OnSignalUpdate  *OnSignalUpdateCallback
}

type Engine interface {
	// Initialize the engine with the given YAML configuration.
	Initialize(config string) error
	// SetDataPath sets the path to the trade tape files. Accepts glob patterns for batch
	// loading (e.g., "data/*.parquet"); parquet and CSV files are supported.
	SetDataPath(path string) error
	// SetResultsFolder sets the output directory for saving backtest results.
	// The results folder will be structured as: <results>/<data file>/<symbol>
	SetResultsFolder(folder string) error
	// SetDataSource sets the tape source for the engine.
	SetDataSource(dataSource datasource.TapeSource) error
	// Run replays every configured symbol of every data file and returns one summary per run.
	// The context can be used to cancel the backtest operation.
	Run(ctx context.Context, callbacks LifecycleCallbacks) ([]types.SessionStats, error)
	// GetConfigSchema returns the schema of the engine configuration
	GetConfigSchema() (string, error)
}
