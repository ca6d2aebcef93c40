// Command trader runs a strategy in backtest or live mode from a YAML
// config file.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/quantrail/quantrail/internal/config"
	"github.com/quantrail/quantrail/internal/logger"
	"github.com/quantrail/quantrail/pkg/schema"
	"github.com/urfave/cli/v3"
)

func main() {
	cmd := &cli.Command{
		Name:  "trader",
		Usage: "Run trading strategies against real or simulated markets",
		Commands: []*cli.Command{
			{
				Name:   "backtest",
				Usage:  "Replay a strategy over historical data and print the result",
				Flags:  configFlags(),
				Action: backtestAction,
			},
			{
				Name:   "live",
				Usage:  "Trade a strategy against a live market until interrupted",
				Flags:  configFlags(),
				Action: liveAction,
			},
			{
				Name:   "schema",
				Usage:  "Print the JSON schema of the config file",
				Action: schemaAction,
			},
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cmd.Run(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}

func configFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "config",
			Aliases:  []string{"c"},
			Usage:    "Path to the YAML config file",
			Required: true,
		},
	}
}

func loadConfig(cmd *cli.Command, mode config.Mode) (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return nil, nil, err
	}

	// The subcommand decides the mode, overriding whatever the file says.
	cfg.Mode = mode
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	var log *logger.Logger
	if cfg.Debug {
		log, err = logger.NewDevelopmentLogger()
	} else {
		log, err = logger.NewLogger()
	}

	if err != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}

	return cfg, log, nil
}

func backtestAction(ctx context.Context, cmd *cli.Command) error {
	cfg, log, err := loadConfig(cmd, config.ModeBacktest)
	if err != nil {
		return err
	}
	defer log.Sync()

	app, err := buildApp(cfg, log)
	if err != nil {
		return err
	}
	defer app.Close()

	result, err := app.Runtime.Backtest(ctx)
	if err != nil {
		return err
	}

	printResult(result)

	return nil
}

func liveAction(ctx context.Context, cmd *cli.Command) error {
	cfg, log, err := loadConfig(cmd, config.ModeLive)
	if err != nil {
		return err
	}
	defer log.Sync()

	app, err := buildApp(cfg, log)
	if err != nil {
		return err
	}
	defer app.Close()

	if cfg.Metrics.Enabled {
		app.ServeMetrics(ctx, cfg.Metrics.Addr)
	}

	return app.Runtime.Live(ctx)
}

func schemaAction(ctx context.Context, cmd *cli.Command) error {
	out, err := schema.ToJSONSchema(config.Config{})
	if err != nil {
		return err
	}

	fmt.Println(out)

	return nil
}
