// Package portfolio combines independent per-asset trade histories into one
// portfolio: allocation weights, a blended equity curve and cross-asset
// correlation of per-trade profits.
package portfolio

import (
	"math"

	"github.com/quantarc/rulesim/internal/config"
	"github.com/quantarc/rulesim/internal/types"
)

// AssetSeries is one asset's full chronological trade history across all
// walk-forward periods, read-only input to the aggregator.
type AssetSeries struct {
	Asset  string
	Trades []types.Trade
}

func profits(trades []types.Trade) []float64 {
	out := make([]float64, len(trades))
	for i, t := range trades {
		out[i] = t.NetProfit
	}

	return out
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}

	sum := 0.0
	for _, x := range xs {
		sum += x
	}

	return sum / float64(len(xs))
}

func stdDev(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}

	m := mean(xs)

	variance := 0.0
	for _, x := range xs {
		variance += (x - m) * (x - m)
	}

	return math.Sqrt(variance / float64(len(xs)))
}

// tradeSharpe is the unannualized risk-adjusted return of a per-trade profit
// series, 0 when the series has no dispersion.
func tradeSharpe(xs []float64) float64 {
	sd := stdDev(xs)
	if sd == 0 {
		return 0
	}

	return mean(xs) / sd
}

// computeWeights derives one weight per asset under the given strategy.
// Weights always sum to 1. Degenerate inputs (every asset with zero profit
// variance, every Sharpe non-positive) fall back to equal weighting instead
// of failing.
func computeWeights(assets []AssetSeries, strategy config.AllocationStrategy) map[string]float64 {
	switch strategy {
	case config.AllocationRiskParity:
		return riskParityWeights(assets)
	case config.AllocationPerformanceBased:
		return performanceWeights(assets)
	default:
		return equalWeights(assets)
	}
}

func equalWeights(assets []AssetSeries) map[string]float64 {
	weights := make(map[string]float64, len(assets))
	for _, a := range assets {
		weights[a.Asset] = 1.0 / float64(len(assets))
	}

	return weights
}

// riskParityWeights allocates inversely to per-trade profit volatility.
// A zero-variance profit series gets weight 0 rather than dividing by zero.
func riskParityWeights(assets []AssetSeries) map[string]float64 {
	raw := make(map[string]float64, len(assets))
	total := 0.0

	for _, a := range assets {
		sd := stdDev(profits(a.Trades))
		if sd > 0 {
			raw[a.Asset] = 1.0 / sd
			total += raw[a.Asset]
		} else {
			raw[a.Asset] = 0
		}
	}

	if total == 0 {
		return equalWeights(assets)
	}

	for asset := range raw {
		raw[asset] /= total
	}

	return raw
}

// performanceWeights allocates proportionally to max(0, Sharpe). When no
// asset has a positive Sharpe there is nothing to scale by, so the split is
// equal.
func performanceWeights(assets []AssetSeries) map[string]float64 {
	raw := make(map[string]float64, len(assets))
	total := 0.0

	for _, a := range assets {
		s := tradeSharpe(profits(a.Trades))
		if s > 0 {
			raw[a.Asset] = s
			total += s
		} else {
			raw[a.Asset] = 0
		}
	}

	if total == 0 {
		return equalWeights(assets)
	}

	for asset := range raw {
		raw[asset] /= total
	}

	return raw
}
