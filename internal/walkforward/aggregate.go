package walkforward

import (
	"math"

	"github.com/quantarc/rulesim/internal/types"
)

// Aggregate folds the period results of one asset into walk-forward
// statistics. Periods with zero trades are excluded from every sum, average
// and extremum; they only contribute to EmptyPeriods. An asset whose periods
// were all empty yields Periods == 0, which callers treat as "no result".
func Aggregate(asset string, results []PeriodResult) types.WalkForwardStats {
	stats := types.WalkForwardStats{
		Asset: asset,
	}

	var returns []float64
	var winRateSum, drawdownSum float64
	profitable := 0

	for i := range results {
		if results[i].Empty() {
			stats.EmptyPeriods++
			continue
		}

		m := results[i].Metrics
		returns = append(returns, m.TotalReturn)
		winRateSum += m.WinRate
		drawdownSum += m.MaxDrawdown

		if m.TotalReturn > 0 {
			profitable++
		}
	}

	stats.Periods = len(returns)
	if stats.Periods == 0 {
		return stats
	}

	sum := 0.0
	best := returns[0]
	worst := returns[0]

	for _, r := range returns {
		sum += r
		if r > best {
			best = r
		}
		if r < worst {
			worst = r
		}
	}

	n := float64(stats.Periods)
	mean := sum / n

	variance := 0.0
	for _, r := range returns {
		variance += (r - mean) * (r - mean)
	}
	variance /= n

	stats.TotalReturn = sum
	stats.AvgPeriodReturn = mean
	stats.StdPeriodReturn = math.Sqrt(variance)
	stats.Consistency = float64(profitable) / n
	stats.BestPeriodReturn = best
	stats.WorstPeriodReturn = worst
	stats.AvgWinRate = winRateSum / n
	stats.AvgMaxDrawdown = drawdownSum / n

	return stats
}
