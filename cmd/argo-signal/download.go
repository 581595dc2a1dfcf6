package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rxtech-lab/argo-signal/pkg/marketdata"
	"github.com/rxtech-lab/argo-signal/pkg/marketdata/provider"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"
)

func downloadCommand() *cli.Command {
	return &cli.Command{
		Name:  "download",
		Usage: "Download a futures trade tape for backtesting",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "symbol",
				Aliases:  []string{"s"},
				Usage:    "Futures symbol, e.g. BTCUSDT",
				Required: true,
			},
			&cli.TimestampFlag{
				Name:     "start",
				Usage:    "Start date in `YYYY-MM-DD` format",
				Required: true,
				Config: cli.TimestampConfig{
					Layouts: []string{"2006-01-02", time.RFC3339},
				},
			},
			&cli.TimestampFlag{
				Name:     "end",
				Usage:    "End date in `YYYY-MM-DD` format",
				Required: true,
				Config: cli.TimestampConfig{
					Layouts: []string{"2006-01-02", time.RFC3339},
				},
			},
			&cli.StringFlag{
				Name:    "data",
				Aliases: []string{"d"},
				Usage:   "Path to the data output directory",
				Value:   "data",
			},
		},
		Action: downloadAction,
	}
}

func downloadAction(ctx context.Context, cmd *cli.Command) error {
	log, err := newLogger(cmd)
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	bar := progressbar.NewOptions(100,
		progressbar.OptionSetDescription(fmt.Sprintf("Downloading %s", cmd.String("symbol"))),
		progressbar.OptionShowCount(),
	)

	onProgress := func(current float64, total float64, _ string) {
		if total > 0 {
			_ = bar.Set(int(current / total * 100))
		}
	}

	client, err := marketdata.NewClient(marketdata.ClientConfig{
		ProviderType: provider.ProviderBinanceFutures,
		WriterType:   marketdata.WriterDuckDB,
		DataPath:     cmd.String("data"),
	}, onProgress, log)
	if err != nil {
		return err
	}

	path, err := client.Download(ctx, marketdata.DownloadParams{
		Symbol:    cmd.String("symbol"),
		StartDate: cmd.Timestamp("start").UTC(),
		EndDate:   cmd.Timestamp("end").UTC(),
	})
	if err != nil {
		return err
	}

	_ = bar.Finish()
	fmt.Fprintf(os.Stdout, "\nTape written to %s\n", path)

	return nil
}
