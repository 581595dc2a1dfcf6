package main

import (
	"context"
	"fmt"
	"os"

	enginev1 "github.com/rxtech-lab/argo-signal/internal/backtest/engine/engine_v1"
	tradingengine "github.com/rxtech-lab/argo-signal/internal/trading/engine"
	tradingprovider "github.com/rxtech-lab/argo-signal/internal/trading/provider"
	"github.com/urfave/cli/v3"
)

const (
	schemaSession  = "session"
	schemaBacktest = "backtest"
	schemaProvider = "provider"
)

func schemaCommand() *cli.Command {
	return &cli.Command{
		Name:      "schema",
		Usage:     "Print the JSON schema of a config",
		ArgsUsage: fmt.Sprintf("<%s|%s|%s>", schemaSession, schemaBacktest, schemaProvider),
		Action: func(_ context.Context, cmd *cli.Command) error {
			schema, err := configSchema(cmd.Args().First())
			if err != nil {
				return err
			}

			fmt.Fprintln(os.Stdout, schema)

			return nil
		},
	}
}

func configSchema(kind string) (string, error) {
	switch kind {
	case schemaSession, "":
		return tradingengine.GetConfigSchema()
	case schemaBacktest:
		return enginev1.NewBacktestEngineV1().GetConfigSchema()
	case schemaProvider:
		return tradingprovider.GetProviderConfigSchema(string(tradingprovider.ProviderBinanceFuturesLive))
	default:
		return "", fmt.Errorf("unknown schema %q", kind)
	}
}
