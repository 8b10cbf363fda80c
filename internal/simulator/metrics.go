package simulator

// Diagnostics computable from a trade list. These are not owned by the
// simulator's output but are derived wherever per-period metrics are needed.

import "github.com/quantarc/rulesim/internal/types"

// WinRate returns the fraction of trades with positive net profit,
// 0 for an empty list.
func WinRate(trades []types.Trade) float64 {
	if len(trades) == 0 {
		return 0
	}

	wins := 0
	for _, t := range trades {
		if t.Win {
			wins++
		}
	}

	return float64(wins) / float64(len(trades))
}

// TotalReturn returns the summed net profit.
func TotalReturn(trades []types.Trade) float64 {
	sum := 0.0
	for _, t := range trades {
		sum += t.NetProfit
	}

	return sum
}

// TotalGross returns the summed gross profit, the before-cost return.
func TotalGross(trades []types.Trade) float64 {
	sum := 0.0
	for _, t := range trades {
		sum += t.GrossProfit
	}

	return sum
}

// MaxDrawdown returns the largest decline of cumulative return from its
// running maximum over the trade sequence, as a non-negative magnitude.
func MaxDrawdown(trades []types.Trade) float64 {
	peak := 0.0
	maxDD := 0.0

	for _, t := range trades {
		if t.CumulativeReturn > peak {
			peak = t.CumulativeReturn
		}

		if dd := peak - t.CumulativeReturn; dd > maxDD {
			maxDD = dd
		}
	}

	return maxDD
}
