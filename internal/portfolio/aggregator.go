package portfolio

import (
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/quantarc/rulesim/internal/config"
	"github.com/quantarc/rulesim/internal/logger"
	"github.com/quantarc/rulesim/internal/types"
)

// annualization assumes the underlying sampling is daily.
const annualization = 252

// Aggregator combines per-asset trade histories into portfolio metrics.
type Aggregator struct {
	logger *logger.Logger
}

// NewAggregator creates a portfolio aggregator.
func NewAggregator(log *logger.Logger) *Aggregator {
	return &Aggregator{
		logger: log,
	}
}

// Result pairs the portfolio statistics with the combined equity curve.
type Result struct {
	Stats  types.PortfolioStats
	Equity []types.EquityPoint
}

// Aggregate combines the given assets under the allocation strategy. Assets
// with zero trades are excluded from the weights and the correlation matrix
// and reported in ExcludedAssets. When no asset remains the result carries
// only the exclusion list, with no weights, curve or matrix.
//
// Equity curves are sampled on the union of all assets' trade exit
// timestamps, each asset forward-filled and re-based to 1.0 before its first
// trade. The portfolio equity is the weight-proportional linear blend
// 1 + sum(w_i * (equity_i - 1)); profits are percent units, so equity moves
// by net profit / 100.
func (a *Aggregator) Aggregate(assets []AssetSeries, strategy config.AllocationStrategy) Result {
	var usable []AssetSeries
	var excluded []string

	for _, asset := range assets {
		if len(asset.Trades) == 0 {
			a.logger.Warn("Excluding asset with no trades from portfolio",
				zap.String("asset", asset.Asset),
			)
			excluded = append(excluded, asset.Asset)

			continue
		}

		usable = append(usable, asset)
	}

	if len(usable) == 0 {
		return Result{
			Stats: types.PortfolioStats{
				Strategy:       string(strategy),
				ExcludedAssets: excluded,
			},
		}
	}

	weights := computeWeights(usable, strategy)
	timeline := unionTimeline(usable)
	curve := blendEquity(usable, weights, timeline)

	names := make([]string, len(usable))
	for i, asset := range usable {
		names[i] = asset.Asset
	}

	return Result{
		Stats: types.PortfolioStats{
			Strategy:       string(strategy),
			Weights:        weights,
			TotalReturn:    curve[len(curve)-1].Equity - 1.0,
			MaxDrawdown:    equityDrawdown(curve),
			SharpeRatio:    equitySharpe(curve),
			Assets:         names,
			Correlation:    correlationMatrix(usable, timeline),
			ExcludedAssets: excluded,
		},
		Equity: curve,
	}
}

// unionTimeline returns the sorted, deduplicated union of all assets' trade
// exit timestamps.
func unionTimeline(assets []AssetSeries) []time.Time {
	seen := make(map[time.Time]struct{})
	var times []time.Time

	for _, asset := range assets {
		for _, t := range asset.Trades {
			if _, ok := seen[t.ExitTime]; ok {
				continue
			}

			seen[t.ExitTime] = struct{}{}
			times = append(times, t.ExitTime)
		}
	}

	sort.Slice(times, func(i, j int) bool {
		return times[i].Before(times[j])
	})

	return times
}

// assetEquity forward-fills one asset's equity over the timeline. Equity
// starts at 1.0 and gains net profit / 100 at each trade's exit timestamp.
func assetEquity(trades []types.Trade, timeline []time.Time) []float64 {
	equity := make([]float64, len(timeline))

	value := 1.0
	next := 0

	for i, ts := range timeline {
		for next < len(trades) && !trades[next].ExitTime.After(ts) {
			value += trades[next].NetProfit / 100
			next++
		}

		equity[i] = value
	}

	return equity
}

func blendEquity(assets []AssetSeries, weights map[string]float64, timeline []time.Time) []types.EquityPoint {
	curves := make([][]float64, len(assets))
	for i, asset := range assets {
		curves[i] = assetEquity(asset.Trades, timeline)
	}

	points := make([]types.EquityPoint, len(timeline))
	for i, ts := range timeline {
		value := 1.0
		for j, asset := range assets {
			value += weights[asset.Asset] * (curves[j][i] - 1.0)
		}

		points[i] = types.EquityPoint{Time: ts, Equity: value}
	}

	return points
}

// equityDrawdown is the largest decline of the curve from its running peak.
func equityDrawdown(curve []types.EquityPoint) float64 {
	if len(curve) == 0 {
		return 0
	}

	peak := curve[0].Equity
	maxDD := 0.0

	for _, p := range curve {
		if p.Equity > peak {
			peak = p.Equity
		}

		if dd := peak - p.Equity; dd > maxDD {
			maxDD = dd
		}
	}

	return maxDD
}

// equitySharpe annualizes the mean/std of period-over-period equity returns.
// A curve too short or without dispersion yields 0.
func equitySharpe(curve []types.EquityPoint) float64 {
	if len(curve) < 2 {
		return 0
	}

	returns := make([]float64, 0, len(curve)-1)
	for i := 1; i < len(curve); i++ {
		prev := curve[i-1].Equity
		if prev == 0 {
			continue
		}

		returns = append(returns, curve[i].Equity/prev-1.0)
	}

	sd := stdDev(returns)
	if sd == 0 {
		return 0
	}

	return mean(returns) / sd * math.Sqrt(annualization)
}

// correlationMatrix is the pairwise Pearson correlation of per-trade net
// profits, reindexed onto the shared timeline with missing entries as 0.
// A zero-variance series correlates 0 with everything and 1 with itself.
func correlationMatrix(assets []AssetSeries, timeline []time.Time) [][]float64 {
	index := make(map[time.Time]int, len(timeline))
	for i, ts := range timeline {
		index[ts] = i
	}

	series := make([][]float64, len(assets))
	for i, asset := range assets {
		series[i] = make([]float64, len(timeline))
		for _, t := range asset.Trades {
			series[i][index[t.ExitTime]] += t.NetProfit
		}
	}

	matrix := make([][]float64, len(assets))
	for i := range assets {
		matrix[i] = make([]float64, len(assets))
		matrix[i][i] = 1.0

		for j := 0; j < i; j++ {
			c := correlation(series[i], series[j])
			matrix[i][j] = c
			matrix[j][i] = c
		}
	}

	return matrix
}

func correlation(xs, ys []float64) float64 {
	mx := mean(xs)
	my := mean(ys)

	var cov, vx, vy float64
	for i := range xs {
		dx := xs[i] - mx
		dy := ys[i] - my
		cov += dx * dy
		vx += dx * dx
		vy += dy * dy
	}

	if vx == 0 || vy == 0 {
		return 0
	}

	return cov / math.Sqrt(vx*vy)
}
