package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rxtech-lab/argo-signal/internal/backtest/engine"
	enginev1 "github.com/rxtech-lab/argo-signal/internal/backtest/engine/engine_v1"
	"github.com/rxtech-lab/argo-signal/internal/backtest/engine/engine_v1/datasource"
	"github.com/rxtech-lab/argo-signal/internal/types"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"
)

func backtestCommand() *cli.Command {
	return &cli.Command{
		Name:  "backtest",
		Usage: "Replay trade tapes through the signal simulator",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "config",
				Aliases:  []string{"c"},
				Usage:    "Path to the backtest config `FILE` (YAML)",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "data",
				Aliases:  []string{"d"},
				Usage:    "Glob of the trade tapes to replay (parquet or csv)",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "results",
				Aliases: []string{"r"},
				Usage:   "Results folder",
				Value:   "results",
			},
		},
		Action: backtestAction,
	}
}

func backtestAction(ctx context.Context, cmd *cli.Command) error {
	log, err := newLogger(cmd)
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	config, err := os.ReadFile(cmd.String("config"))
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}

	backtest := enginev1.NewBacktestEngineV1()
	if err := backtest.Initialize(string(config)); err != nil {
		return err
	}

	if err := backtest.SetDataPath(cmd.String("data")); err != nil {
		return err
	}

	if err := backtest.SetResultsFolder(cmd.String("results")); err != nil {
		return err
	}

	source, err := datasource.NewTapeSource(":memory:", log)
	if err != nil {
		return err
	}
	defer source.Close()

	if err := backtest.SetDataSource(source); err != nil {
		return err
	}

	var bar *progressbar.ProgressBar

	onRunStart := engine.OnRunStartCallback(func(_ string, symbol string, dataFilePath string, totalTicks int) error {
		bar = progressbar.NewOptions(totalTicks,
			progressbar.OptionSetDescription(fmt.Sprintf("%s %s", symbol, dataFilePath)),
			progressbar.OptionShowCount(),
		)

		return nil
	})
	onProcess := engine.OnProcessDataCallback(func(current int, _ int) error {
		if bar != nil {
			return bar.Set(current)
		}

		return nil
	})
	onRunEnd := engine.OnRunEndCallback(func(symbol string, _ string, resultFolderPath string, stats types.SessionStats) {
		if bar != nil {
			_ = bar.Finish()
		}

		fmt.Fprintf(os.Stdout, "\n%s -> %s\n%s", symbol, resultFolderPath, stats.Summary())
	})

	_, err = backtest.Run(ctx, engine.LifecycleCallbacks{
		OnBacktestStart: nil,
		OnBacktestEnd:   nil,
		OnRunStart:      &onRunStart,
		OnRunEnd:        &onRunEnd,
		OnProcessData:   &onProcess,
		OnSignalUpdate:  nil,
	})

	return err
}
