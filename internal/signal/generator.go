// Package signal scans a time window, evaluates rule conditions and emits
// candidate trading signals, optionally deduplicated per timestamp.
package signal

import (
	"go.uber.org/zap"

	"github.com/quantarc/rulesim/internal/logger"
	"github.com/quantarc/rulesim/internal/timeseries"
	"github.com/quantarc/rulesim/internal/types"
)

// Generator is a pure function of its inputs: it holds no state beyond a
// logger and never mutates the rule set or the series.
type Generator struct {
	logger *logger.Logger
}

// NewGenerator creates a signal generator.
func NewGenerator(log *logger.Logger) *Generator {
	return &Generator{
		logger: log,
	}
}

// Generate evaluates every rule at every index of the half-open window
// [start, end) and returns the matching signals in ascending entry order.
//
// Scanning starts at max(start, maxLag) so every lagged lookup stays in
// range, and stops at min(end, len-1) so one row remains for the one-step
// ahead outcome. A series shorter than maxLag+2 rows yields an empty list,
// which is a legitimate result and not an error.
//
// With deduplicate enabled, at most one signal survives per index: the
// candidate with the highest mined support count, ties broken by the lowest
// rule ID. Simultaneously matching rules are competing claims on the same
// time slot; counting them all would overstate exposure.
func (g *Generator) Generate(rules []types.Rule, series *timeseries.Dataset, start, end int, deduplicate bool) []types.Signal {
	if len(rules) == 0 {
		return nil
	}

	maxLag := 0
	for _, r := range rules {
		if lag := r.MaxLag(); lag > maxLag {
			maxLag = lag
		}
	}

	if series.Len() < maxLag+2 {
		g.logger.Debug("Series too short for lookback",
			zap.String("asset", series.Asset()),
			zap.Int("rows", series.Len()),
			zap.Int("required", maxLag+2),
		)

		return nil
	}

	scanStart := start
	if maxLag > scanStart {
		scanStart = maxLag
	}

	scanEnd := end
	if last := series.Len() - 1; last < scanEnd {
		scanEnd = last
	}

	var signals []types.Signal

	for t := scanStart; t < scanEnd; t++ {
		var candidates []types.Signal

		for _, rule := range rules {
			if !matches(rule, series, t) {
				continue
			}

			side := types.SideBuy
			if rule.Direction == types.DirectionSell {
				side = types.SideSell
			}

			candidates = append(candidates, types.Signal{
				EntryIndex:   t,
				Time:         series.Row(t).Time,
				Side:         side,
				RuleID:       rule.ID,
				ExpectedMean: rule.Stats.Mean,
				SupportCount: rule.Stats.SupportCount,
			})
		}

		if len(candidates) == 0 {
			continue
		}

		if deduplicate {
			signals = append(signals, pickBest(candidates))
		} else {
			signals = append(signals, candidates...)
		}
	}

	return signals
}

// matches reports whether every condition of the rule holds at index t.
func matches(rule types.Rule, series *timeseries.Dataset, t int) bool {
	for _, c := range rule.Conditions {
		i := t - c.Lag
		if i < 0 {
			return false
		}

		if series.Row(i).Attribute(c.Attribute) != 1 {
			return false
		}
	}

	return true
}

// pickBest selects the candidate with the highest support count, ties broken
// by the lowest rule ID. The order is total, so the choice is deterministic.
func pickBest(candidates []types.Signal) types.Signal {
	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.SupportCount > best.SupportCount ||
			(c.SupportCount == best.SupportCount && c.RuleID < best.RuleID) {
			best = c
		}
	}

	return best
}
