package walkforward

import (
	"go.uber.org/zap"

	"github.com/quantarc/rulesim/internal/logger"
	"github.com/quantarc/rulesim/internal/signal"
	"github.com/quantarc/rulesim/internal/simulator"
	"github.com/quantarc/rulesim/internal/timeseries"
	"github.com/quantarc/rulesim/internal/types"
)

// PeriodResult carries one period's signals, trades and derived metrics.
// A result with zero trades is kept in the slice so callers can count it,
// but Aggregate excludes it from every statistic.
type PeriodResult struct {
	Period  Period
	Signals []types.Signal
	Trades  []types.Trade
	Metrics types.PeriodMetrics
}

// Empty reports whether the period produced no trades.
func (r *PeriodResult) Empty() bool {
	return len(r.Trades) == 0
}

// Runner executes the walk-forward loop for one asset. The rule set and the
// series are read-only inputs shared across all periods; each iteration
// writes only to its own result.
type Runner struct {
	generator *signal.Generator
	simulator *simulator.Simulator
	logger    *logger.Logger
}

// NewRunner creates a walk-forward runner around the given generator and
// simulator.
func NewRunner(gen *signal.Generator, sim *simulator.Simulator, log *logger.Logger) *Runner {
	return &Runner{
		generator: gen,
		simulator: sim,
		logger:    log,
	}
}

// Run executes every period in order: the generator is restricted to the
// period's test window, the simulator realizes the resulting signals, and
// the per-period metrics are collected. Periods with no signals or no trades
// are logged and returned as empty results.
func (r *Runner) Run(rules []types.Rule, series *timeseries.Dataset, periods []Period, deduplicate bool) []PeriodResult {
	results := make([]PeriodResult, 0, len(periods))

	for _, period := range periods {
		results = append(results, r.runPeriod(rules, series, period, deduplicate))
	}

	return results
}

func (r *Runner) runPeriod(rules []types.Rule, series *timeseries.Dataset, period Period, deduplicate bool) PeriodResult {
	lo, hi := series.IndexRange(period.TestStart, period.TestEnd)

	signals := r.generator.Generate(rules, series, lo, hi, deduplicate)
	trades := r.simulator.Simulate(signals, series)

	if len(trades) == 0 {
		r.logger.Warn("Period produced no trades",
			zap.String("asset", series.Asset()),
			zap.Int("period", period.Index),
			zap.Time("test_start", period.TestStart),
			zap.Time("test_end", period.TestEnd),
			zap.Int("signals", len(signals)),
		)
	}

	return PeriodResult{
		Period:  period,
		Signals: signals,
		Trades:  trades,
		Metrics: types.PeriodMetrics{
			PeriodIndex:           period.Index,
			TrainStart:            period.TrainStart,
			TrainEnd:              period.TrainEnd,
			TestStart:             period.TestStart,
			TestEnd:               period.TestEnd,
			SignalCount:           len(signals),
			TradeCount:            len(trades),
			WinRate:               simulator.WinRate(trades),
			TotalReturn:           simulator.TotalReturn(trades),
			TotalReturnBeforeCost: simulator.TotalGross(trades),
			MaxDrawdown:           simulator.MaxDrawdown(trades),
			BuyAndHoldReturn:      series.SumX(lo, hi),
		},
	}
}
