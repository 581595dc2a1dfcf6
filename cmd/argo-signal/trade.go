package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rxtech-lab/argo-signal/internal/trading/engine"
	enginev1 "github.com/rxtech-lab/argo-signal/internal/trading/engine/engine_v1"
	tradingprovider "github.com/rxtech-lab/argo-signal/internal/trading/provider"
	"github.com/rxtech-lab/argo-signal/internal/types"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

func tradeCommand() *cli.Command {
	return &cli.Command{
		Name:  "trade",
		Usage: "Run a live trading session",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "config",
				Aliases:  []string{"c"},
				Usage:    "Path to the session config `FILE` (YAML)",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "provider",
				Aliases: []string{"p"},
				Usage:   fmt.Sprintf("Exchange provider (%s, %s)", tradingprovider.ProviderBinanceFuturesTestnet, tradingprovider.ProviderBinanceFuturesLive),
				Value:   string(tradingprovider.ProviderBinanceFuturesTestnet),
			},
			&cli.StringFlag{
				Name:    "api-key",
				Usage:   "Binance API key",
				Sources: cli.EnvVars("BINANCE_API_KEY"),
			},
			&cli.StringFlag{
				Name:    "secret-key",
				Usage:   "Binance API secret key",
				Sources: cli.EnvVars("BINANCE_SECRET_KEY"),
			},
			&cli.StringFlag{
				Name:  "output",
				Usage: "Overrides output_path of the config",
			},
		},
		Action: tradeAction,
	}
}

func tradeAction(ctx context.Context, cmd *cli.Command) error {
	log, err := newLogger(cmd)
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	config, err := engine.LoadSessionConfig(cmd.String("config"))
	if err != nil {
		return err
	}

	if output := cmd.String("output"); output != "" {
		config.OutputPath = output
	}

	providerConfig := &tradingprovider.BinanceProviderConfig{
		ApiKey:    cmd.String("api-key"),
		SecretKey: cmd.String("secret-key"),
		BaseURL:   "",
	}
	if err := providerConfig.Validate(); err != nil {
		return err
	}

	exchange, err := tradingprovider.NewExchangeProvider(tradingprovider.ProviderType(cmd.String("provider")), providerConfig)
	if err != nil {
		return err
	}

	session := enginev1.NewSessionV1(log)
	if err := session.Initialize(config); err != nil {
		return err
	}

	if err := session.SetExchangeProvider(exchange); err != nil {
		return err
	}

	onStart := engine.OnSessionStartCallback(func(runID string, symbols []string) error {
		log.Info("Session started", zap.String("run_id", runID), zap.Strings("symbols", symbols))

		return nil
	})
	onUpdate := engine.OnSignalUpdateCallback(func(sig *types.Signal) {
		log.Info(sig.String())
	})
	onError := engine.OnErrorCallback(func(err error) {
		log.Error("Session error", zap.Error(err))
	})

	result, runErr := session.Run(ctx, engine.SessionCallbacks{
		OnSessionStart: &onStart,
		OnSessionStop:  nil,
		OnCandle:       nil,
		OnSignalUpdate: &onUpdate,
		OnError:        &onError,
	})

	if result.RunID != "" {
		fmt.Fprint(os.Stdout, result.Stats.Summary())
	}

	return runErr
}
