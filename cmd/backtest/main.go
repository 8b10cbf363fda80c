package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"

	"github.com/quantarc/rulesim/internal/config"
	"github.com/quantarc/rulesim/internal/engine"
	"github.com/quantarc/rulesim/internal/types"
	"github.com/quantarc/rulesim/internal/version"
	"github.com/quantarc/rulesim/internal/walkforward"
)

// newEngine builds an initialized engine from the config flag plus optional
// folder overrides.
func newEngine(cmd *cli.Command) (*engine.SimEngineV1, error) {
	configPath := cmd.String("config")

	content, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	eng, err := engine.NewSimEngineV1()
	if err != nil {
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}

	if err := eng.Initialize(string(content)); err != nil {
		return nil, fmt.Errorf("failed to initialize engine: %w", err)
	}

	eng.SetConfigPath(configPath)

	if folder := cmd.String("rules"); folder != "" {
		if err := eng.SetRuleFolder(folder); err != nil {
			return nil, err
		}
	}

	if folder := cmd.String("data"); folder != "" {
		if err := eng.SetDataFolder(folder); err != nil {
			return nil, err
		}
	}

	if folder := cmd.String("output"); folder != "" {
		if err := eng.SetResultsFolder(folder); err != nil {
			return nil, err
		}
	}

	return eng, nil
}

// runAction executes the full simulation with a per-period progress bar.
func runAction(ctx context.Context, cmd *cli.Command) error {
	eng, err := newEngine(cmd)
	if err != nil {
		return err
	}

	var bar *progressbar.ProgressBar

	onRunStart := engine.OnRunStartCallback(func(runID string, totalAssets, totalPeriods int) error {
		bar = progressbar.Default(int64(totalAssets * totalPeriods))
		bar.Describe(fmt.Sprintf("Run %s", runID))

		return nil
	})
	onAssetStart := engine.OnAssetStartCallback(func(i int, asset string, total int) error {
		bar.Describe(fmt.Sprintf("Simulating %s (%d/%d)", asset, i+1, total))

		return nil
	})
	onPeriodEnd := engine.OnPeriodEndCallback(func(asset string, periodIndex, totalPeriods int, m types.PeriodMetrics) error {
		return bar.Add(1)
	})

	summary, err := eng.Run(ctx, engine.LifecycleCallbacks{
		OnRunStart:   &onRunStart,
		OnAssetStart: &onAssetStart,
		OnPeriodEnd:  &onPeriodEnd,
	})
	if err != nil {
		return err
	}

	fmt.Printf("\nRun %s finished: %d assets simulated, %d skipped\n",
		summary.ID, len(summary.Assets), summary.SkippedAssets)

	for _, stats := range summary.Assets {
		fmt.Printf("  %-10s periods=%d empty=%d total_return=%.4f consistency=%.2f\n",
			stats.Asset, stats.Periods, stats.EmptyPeriods, stats.TotalReturn, stats.Consistency)
	}

	if summary.Portfolio != nil {
		fmt.Printf("  portfolio (%s): total_return=%.4f max_drawdown=%.4f sharpe=%.2f\n",
			summary.Portfolio.Strategy, summary.Portfolio.TotalReturn,
			summary.Portfolio.MaxDrawdown, summary.Portfolio.SharpeRatio)
	}

	return nil
}

// schemaAction prints the JSON schema of the simulation config.
func schemaAction(ctx context.Context, cmd *cli.Command) error {
	cfg := config.EmptyConfig()

	schema, err := cfg.GenerateSchemaJSON()
	if err != nil {
		return fmt.Errorf("failed to generate schema: %w", err)
	}

	fmt.Println(schema)

	return nil
}

// periodsAction prints the walk-forward partition for a config without
// simulating anything.
func periodsAction(ctx context.Context, cmd *cli.Command) error {
	content, err := os.ReadFile(cmd.String("config"))
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}

	cfg, err := config.Parse(content)
	if err != nil {
		return err
	}

	periods := walkforward.GeneratePeriods(&cfg)
	if len(periods) == 0 {
		fmt.Println("no walk-forward periods for this configuration")

		return nil
	}

	const layout = "2006-01-02"
	for _, p := range periods {
		fmt.Printf("period %2d: train [%s, %s) test [%s, %s)\n",
			p.Index,
			p.TrainStart.Format(layout), p.TrainEnd.Format(layout),
			p.TestStart.Format(layout), p.TestEnd.Format(layout))
	}

	return nil
}

func main() {
	configFlag := &cli.StringFlag{
		Name:     "config",
		Aliases:  []string{"c"},
		Usage:    "Path to the simulation config YAML",
		Required: true,
	}

	cmd := &cli.Command{
		Name:    "backtest",
		Usage:   "Rule-driven walk-forward trading simulation",
		Version: version.Version,
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Execute a simulation run",
				Flags: []cli.Flag{
					configFlag,
					&cli.StringFlag{
						Name:  "rules",
						Usage: "Override the rule table folder",
					},
					&cli.StringFlag{
						Name:  "data",
						Usage: "Override the time-series data folder",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Override the results folder",
					},
				},
				Action: runAction,
			},
			{
				Name:   "schema",
				Usage:  "Print the config JSON schema",
				Action: schemaAction,
			},
			{
				Name:   "periods",
				Usage:  "Print the walk-forward partition for a config",
				Flags:  []cli.Flag{configFlag},
				Action: periodsAction,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
