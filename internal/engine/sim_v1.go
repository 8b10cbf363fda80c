package engine

import (
	"context"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/quantarc/rulesim/internal/config"
	"github.com/quantarc/rulesim/internal/logger"
	"github.com/quantarc/rulesim/internal/portfolio"
	"github.com/quantarc/rulesim/internal/results"
	"github.com/quantarc/rulesim/internal/rulestore"
	"github.com/quantarc/rulesim/internal/signal"
	"github.com/quantarc/rulesim/internal/simulator"
	"github.com/quantarc/rulesim/internal/simulator/costmodel"
	"github.com/quantarc/rulesim/internal/timeseries"
	"github.com/quantarc/rulesim/internal/types"
	"github.com/quantarc/rulesim/internal/version"
	"github.com/quantarc/rulesim/internal/walkforward"
	"github.com/quantarc/rulesim/pkg/errors"
)

const summaryFileName = "summary.yaml"

var _ Engine = (*SimEngineV1)(nil)

// SimEngineV1 is the reference implementation of Engine. It processes assets
// sequentially; a failed asset (missing rule table, missing data file, no
// trades) is logged, counted and excluded, never aborting the run.
type SimEngineV1 struct {
	cfg        config.SimulationConfig
	cfgLoaded  bool
	configPath string
	log        *logger.Logger
}

// NewSimEngineV1 creates a new simulation engine.
func NewSimEngineV1() (*SimEngineV1, error) {
	log, err := logger.NewLogger()
	if err != nil {
		return nil, err
	}

	return &SimEngineV1{
		log: log,
	}, nil
}

// NewSimEngineV1WithLogger creates a simulation engine with the given logger.
func NewSimEngineV1WithLogger(log *logger.Logger) *SimEngineV1 {
	return &SimEngineV1{
		log: log,
	}
}

// Initialize parses and validates the YAML configuration and checks the
// engine version against the config's min_engine_version pin.
func (e *SimEngineV1) Initialize(configContent string) error {
	cfg, err := config.Parse([]byte(configContent))
	if err != nil {
		return err
	}

	if cfg.MinEngineVersion != "" {
		if err := version.CheckVersionCompatibility(version.Version, cfg.MinEngineVersion); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidVersion, "engine version incompatible with config", err)
		}
	}

	e.cfg = cfg
	e.cfgLoaded = true

	return nil
}

// SetConfigPath records the path the config was loaded from, for the run
// summary only.
func (e *SimEngineV1) SetConfigPath(path string) {
	e.configPath = path
}

// SetRuleFolder overrides the configured rule table folder.
func (e *SimEngineV1) SetRuleFolder(folder string) error {
	if folder == "" {
		return errors.New(errors.ErrCodeEngineNoRuleFolder, "rule folder cannot be empty")
	}

	e.cfg.RuleFolder = folder

	return nil
}

// SetDataFolder overrides the configured time-series data folder.
func (e *SimEngineV1) SetDataFolder(folder string) error {
	if folder == "" {
		return errors.New(errors.ErrCodeEngineNoDataFolder, "data folder cannot be empty")
	}

	e.cfg.DataFolder = folder

	return nil
}

// SetResultsFolder overrides the configured output directory.
func (e *SimEngineV1) SetResultsFolder(folder string) error {
	if folder == "" {
		return errors.New(errors.ErrCodeEngineNoResultsFolder, "results folder cannot be empty")
	}

	e.cfg.ResultsFolder = folder

	return nil
}

// GetConfigSchema returns the JSON schema of the simulation configuration.
func (e *SimEngineV1) GetConfigSchema() (string, error) {
	return e.cfg.GenerateSchemaJSON()
}

// Config returns the active configuration.
func (e *SimEngineV1) Config() config.SimulationConfig {
	return e.cfg
}

func (e *SimEngineV1) preRunCheck() error {
	if !e.cfgLoaded {
		e.log.Error("No configuration loaded")

		return errors.New(errors.ErrCodeEngineNoConfig, "engine not initialized with a configuration")
	}

	if len(e.cfg.Assets) == 0 {
		e.log.Error("No assets configured")

		return errors.New(errors.ErrCodeEngineNoAssets, "no assets configured")
	}

	if e.cfg.RuleFolder == "" {
		e.log.Error("No rule folder set")

		return errors.New(errors.ErrCodeEngineNoRuleFolder, "no rule folder set")
	}

	if e.cfg.DataFolder == "" {
		e.log.Error("No data folder set")

		return errors.New(errors.ErrCodeEngineNoDataFolder, "no data folder set")
	}

	if e.cfg.ResultsFolder == "" {
		e.log.Error("No results folder set")

		return errors.New(errors.ErrCodeEngineNoResultsFolder, "no results folder set")
	}

	return nil
}

// Run executes the walk-forward simulation for every configured asset,
// combines the survivors into a portfolio, persists everything to the
// results folder and returns the run summary.
func (e *SimEngineV1) Run(ctx context.Context, callbacks LifecycleCallbacks) (summary *types.RunSummary, err error) {
	defer func() {
		if callbacks.OnRunEnd != nil {
			(*callbacks.OnRunEnd)(err)
		}
	}()

	if err = e.preRunCheck(); err != nil {
		return nil, err
	}

	periods := walkforward.GeneratePeriods(&e.cfg)
	if len(periods) == 0 {
		err = errors.Newf(errors.ErrCodeNoPeriods,
			"no walk-forward periods between %d and %d", e.cfg.StartYear, e.cfg.EndYear)

		return nil, err
	}

	store, err := results.NewStore(e.log)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	if err = store.Initialize(); err != nil {
		return nil, err
	}

	loader, err := timeseries.NewDuckDBLoader(e.log)
	if err != nil {
		return nil, err
	}
	defer loader.Close()

	if callbacks.OnRunStart != nil {
		if err = (*callbacks.OnRunStart)(store.RunID(), len(e.cfg.Assets), len(periods)); err != nil {
			return nil, err
		}
	}

	ruleStore := rulestore.NewStore(e.cfg.RuleFolder, e.cfg.TopNRules, e.cfg.SortBy, e.log)
	runner := walkforward.NewRunner(
		signal.NewGenerator(e.log),
		simulator.NewSimulator(costmodel.NewFixedCost(e.cfg.Spread, e.cfg.Commission, e.cfg.Slippage), e.log),
		e.log,
	)

	run := &types.RunSummary{
		ID:            store.RunID(),
		Timestamp:     time.Now().UTC(),
		ConfigPath:    e.configPath,
		EngineVersion: version.Version,
	}

	var assetSeries []portfolio.AssetSeries

	for i, asset := range e.cfg.Assets {
		if err = ctx.Err(); err != nil {
			return nil, err
		}

		if callbacks.OnAssetStart != nil {
			if err = (*callbacks.OnAssetStart)(i, asset, len(e.cfg.Assets)); err != nil {
				return nil, err
			}
		}

		stats, trades, assetErr := e.runAsset(ruleStore, loader, runner, store, asset, periods, callbacks)
		if assetErr != nil {
			e.log.Warn("Skipping asset",
				zap.String("asset", asset),
				zap.Error(assetErr),
			)
			run.SkippedAssets++

			continue
		}

		if callbacks.OnAssetEnd != nil {
			(*callbacks.OnAssetEnd)(i, asset, stats)
		}

		if stats.Periods == 0 {
			e.log.Warn("Asset produced no trades in any period",
				zap.String("asset", asset),
			)
		}

		run.Assets = append(run.Assets, stats)
		assetSeries = append(assetSeries, portfolio.AssetSeries{Asset: asset, Trades: trades})
	}

	if len(assetSeries) > 0 {
		aggregated := portfolio.NewAggregator(e.log).Aggregate(assetSeries, e.cfg.AllocationStrategy)

		if len(aggregated.Stats.Assets) > 0 {
			run.Portfolio = &aggregated.Stats

			if err = store.RecordPortfolioEquity(aggregated.Equity); err != nil {
				return nil, err
			}
		}
	}

	if err = store.Write(e.cfg.ResultsFolder); err != nil {
		return nil, err
	}

	summaryPath := filepath.Join(e.cfg.ResultsFolder, summaryFileName)
	if err = types.WriteRunSummary(summaryPath, *run); err != nil {
		return nil, err
	}

	e.log.Info("Run complete",
		zap.String("run_id", run.ID),
		zap.Int("assets", len(run.Assets)),
		zap.Int("skipped_assets", run.SkippedAssets),
	)

	return run, nil
}

// runAsset executes the walk-forward loop for one asset and records its
// trades and period metrics. The returned trade slice concatenates all
// periods in order, feeding the portfolio aggregation.
func (e *SimEngineV1) runAsset(
	ruleStore *rulestore.Store,
	loader *timeseries.DuckDBLoader,
	runner *walkforward.Runner,
	store *results.Store,
	asset string,
	periods []walkforward.Period,
	callbacks LifecycleCallbacks,
) (types.WalkForwardStats, []types.Trade, error) {
	var none types.WalkForwardStats

	rules, err := ruleStore.LoadAll(asset)
	if err != nil {
		return none, nil, err
	}

	if len(rules) == 0 {
		return none, nil, errors.Newf(errors.ErrCodeEmptyRuleSet, "no usable rules for asset %s", asset)
	}

	dataPath := filepath.Join(e.cfg.DataFolder, asset+".csv")

	series, err := loader.Load(dataPath, asset)
	if err != nil {
		return none, nil, err
	}

	periodResults := runner.Run(rules, series, periods, e.cfg.Deduplicate)

	var trades []types.Trade

	for _, res := range periodResults {
		if err := store.RecordTrades(res.Period.Index, res.Trades); err != nil {
			return none, nil, err
		}

		if err := store.RecordPeriodMetrics(asset, res.Metrics); err != nil {
			return none, nil, err
		}

		trades = append(trades, res.Trades...)

		if callbacks.OnPeriodEnd != nil {
			if err := (*callbacks.OnPeriodEnd)(asset, res.Period.Index, len(periodResults), res.Metrics); err != nil {
				return none, nil, err
			}
		}
	}

	return walkforward.Aggregate(asset, periodResults), trades, nil
}
