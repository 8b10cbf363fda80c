package types

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// PeriodMetrics holds the per-period outcome of one walk-forward test window.
type PeriodMetrics struct {
	// PeriodIndex is the ordinal of the walk-forward period (0-based).
	PeriodIndex int `yaml:"period_index"`
	// TrainStart is the inclusive start of the training window.
	TrainStart time.Time `yaml:"train_start"`
	// TrainEnd is the exclusive end of the training window.
	TrainEnd time.Time `yaml:"train_end"`
	// TestStart is the inclusive start of the test window.
	TestStart time.Time `yaml:"test_start"`
	// TestEnd is the exclusive end of the test window.
	TestEnd time.Time `yaml:"test_end"`
	// SignalCount is the number of deduplicated signals in the test window.
	SignalCount int `yaml:"signal_count"`
	// TradeCount is the number of realized trades.
	TradeCount int `yaml:"trade_count"`
	// WinRate is the fraction of trades with positive net profit.
	WinRate float64 `yaml:"win_rate"`
	// TotalReturn is the summed net profit over the test window.
	TotalReturn float64 `yaml:"total_return"`
	// TotalReturnBeforeCost is the summed gross profit over the test window.
	TotalReturnBeforeCost float64 `yaml:"total_return_before_cost"`
	// MaxDrawdown is the largest decline of cumulative return from its peak.
	MaxDrawdown float64 `yaml:"max_drawdown"`
	// BuyAndHoldReturn is the summed X over the test window, as a baseline.
	BuyAndHoldReturn float64 `yaml:"buy_and_hold_return"`
}

// WalkForwardStats aggregates metrics across all non-empty walk-forward
// periods of one asset. Periods with zero trades are excluded from every
// average and count below; EmptyPeriods records how many were skipped.
type WalkForwardStats struct {
	// Asset is the asset the walk-forward run was executed on.
	Asset string `yaml:"asset"`
	// Periods is the number of periods that produced trades.
	Periods int `yaml:"periods"`
	// EmptyPeriods is the number of periods excluded for producing no trades.
	EmptyPeriods int `yaml:"empty_periods"`
	// TotalReturn is the sum of per-period total returns.
	TotalReturn float64 `yaml:"total_return"`
	// AvgPeriodReturn is the mean per-period total return.
	AvgPeriodReturn float64 `yaml:"avg_period_return"`
	// StdPeriodReturn is the standard deviation of per-period total returns.
	StdPeriodReturn float64 `yaml:"std_period_return"`
	// Consistency is the fraction of periods with positive return.
	Consistency float64 `yaml:"consistency"`
	// BestPeriodReturn is the maximum per-period total return.
	BestPeriodReturn float64 `yaml:"best_period_return"`
	// WorstPeriodReturn is the minimum per-period total return.
	WorstPeriodReturn float64 `yaml:"worst_period_return"`
	// AvgWinRate is the mean per-period win rate.
	AvgWinRate float64 `yaml:"avg_win_rate"`
	// AvgMaxDrawdown is the mean per-period maximum drawdown.
	AvgMaxDrawdown float64 `yaml:"avg_max_drawdown"`
}

// EquityPoint is one sample of a portfolio or asset equity curve.
type EquityPoint struct {
	// Time is the sample timestamp on the union timeline.
	Time time.Time `yaml:"time" csv:"time"`
	// Equity is the curve value, re-based to 1.0 at period start.
	Equity float64 `yaml:"equity" csv:"equity"`
}

// PortfolioStats holds portfolio-level risk and return metrics produced by
// combining the per-asset equity curves under an allocation policy.
type PortfolioStats struct {
	// Strategy is the allocation strategy the weights were derived with.
	Strategy string `yaml:"strategy"`
	// Weights maps asset name to its portfolio weight. Weights sum to 1.
	Weights map[string]float64 `yaml:"weights"`
	// TotalReturn is the change from first to last combined equity value.
	TotalReturn float64 `yaml:"total_return"`
	// MaxDrawdown is the maximum drawdown of the combined equity curve.
	MaxDrawdown float64 `yaml:"max_drawdown"`
	// SharpeRatio is annualized from period-over-period equity returns
	// assuming daily sampling (factor sqrt(252)).
	SharpeRatio float64 `yaml:"sharpe_ratio"`
	// Assets lists the assets included, in correlation-matrix order.
	Assets []string `yaml:"assets"`
	// Correlation is the pairwise correlation matrix of per-trade profit
	// series, indexed like Assets.
	Correlation [][]float64 `yaml:"correlation"`
	// ExcludedAssets lists assets dropped for contributing zero trades.
	ExcludedAssets []string `yaml:"excluded_assets"`
}

// RunSummary is the YAML document written at the end of a simulation run for
// the downstream reporting layer.
type RunSummary struct {
	// ID is the unique identifier for this run.
	ID string `yaml:"id"`
	// Timestamp is when the run was executed.
	Timestamp time.Time `yaml:"timestamp"`
	// ConfigPath is the path of the config the run was driven by.
	ConfigPath string `yaml:"config_path"`
	// EngineVersion is the engine version that produced the run.
	EngineVersion string `yaml:"engine_version"`
	// Assets holds the per-asset walk-forward aggregates.
	Assets []WalkForwardStats `yaml:"assets"`
	// SkippedAssets counts assets excluded for missing inputs or empty results.
	SkippedAssets int `yaml:"skipped_assets"`
	// Portfolio holds the combined portfolio metrics, nil if fewer than one
	// asset produced trades.
	Portfolio *PortfolioStats `yaml:"portfolio,omitempty"`
}

// WriteRunSummary writes the run summary as YAML to the given path.
func WriteRunSummary(path string, summary RunSummary) error {
	data, err := yaml.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to marshal run summary to YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write run summary to file: %w", err)
	}

	return nil
}
