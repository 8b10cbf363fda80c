// Package rulestore loads mined association rules from tab-separated tables.
//
// Each asset/direction pair has one table with a header row. Columns named
// X_mean, X_sigma, support_count and support_rate carry the mining summary
// statistics; every other column is a condition slot holding either "0"
// (unused) or a token of the form <attr>(t-<lag>).
//
// A condition token that fails the pattern is dropped from its rule and
// logged; a rule left with zero conditions is discarded entirely. This
// mirrors the upstream mining pipeline's tolerance for sparse tables: a
// malformed slot degrades a rule instead of rejecting the whole table.
package rulestore

import (
	"encoding/csv"
	"io"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"go.uber.org/zap"

	"github.com/quantarc/rulesim/internal/config"
	"github.com/quantarc/rulesim/internal/logger"
	"github.com/quantarc/rulesim/internal/types"
	"github.com/quantarc/rulesim/pkg/errors"
)

// conditionPattern matches tokens of the form <attr>(t-<lag>).
var conditionPattern = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*)\(t-(\d+)\)$`)

// statColumns are the reserved header names carrying mining statistics.
// Every other column is treated as a condition slot.
var statColumns = map[string]bool{
	"X_mean":        true,
	"X_sigma":       true,
	"support_count": true,
	"support_rate":  true,
}

// ParseCondition parses a single condition token. The zero sentinel "0" and
// the empty string report ok=false with a nil error; anything else that does
// not match <attr>(t-<lag>) reports ok=false with a MalformedCondition error.
func ParseCondition(token string) (types.Condition, bool, error) {
	if token == "" || token == "0" {
		return types.Condition{}, false, nil
	}

	m := conditionPattern.FindStringSubmatch(token)
	if m == nil {
		return types.Condition{}, false, errors.Newf(errors.ErrCodeMalformedCondition,
			"condition %q does not match <attr>(t-<lag>)", token)
	}

	lag, err := strconv.Atoi(m[2])
	if err != nil {
		return types.Condition{}, false, errors.Wrapf(errors.ErrCodeMalformedCondition, err,
			"condition %q has a non-numeric lag", token)
	}

	return types.Condition{Attribute: m[1], Lag: lag}, true, nil
}

// Store reads rule tables from a directory, ranks them by a configurable key
// and truncates to top-N. Loaded rules are immutable.
type Store struct {
	dir    string
	topN   int
	sortBy config.SortKey
	logger *logger.Logger
}

// NewStore creates a rule store over the given directory. topN of 0 keeps
// all rules.
func NewStore(dir string, topN int, sortBy config.SortKey, log *logger.Logger) *Store {
	return &Store{
		dir:    dir,
		topN:   topN,
		sortBy: sortBy,
		logger: log,
	}
}

// tablePath resolves the table file for an asset/direction pair.
func (s *Store) tablePath(asset string, direction types.Direction) string {
	return filepath.Join(s.dir, asset+"_"+string(direction)+".tsv")
}

// Load reads, ranks and truncates the rule table for one asset/direction.
// Rule IDs are the 0-based row ordinals of the source table, assigned before
// ranking so they stay stable across sort keys.
func (s *Store) Load(asset string, direction types.Direction) ([]types.Rule, error) {
	path := s.tablePath(asset, direction)

	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeRuleFileNotFound, err,
			"no rule table for asset %s direction %s at %s", asset, direction, path)
	}
	defer file.Close()

	rules, err := s.parseTable(file, asset, direction)
	if err != nil {
		return nil, err
	}

	s.rank(rules)

	if s.topN > 0 && len(rules) > s.topN {
		rules = rules[:s.topN]
	}

	s.logger.Debug("Loaded rule table",
		zap.String("asset", asset),
		zap.String("direction", string(direction)),
		zap.Int("rules", len(rules)),
	)

	return rules, nil
}

// LoadAll loads and merges both directions for an asset. Sell rule IDs are
// offset past the buy rules so identifiers stay unique within the merged
// set, preserving the deterministic dedup tie-break.
func (s *Store) LoadAll(asset string) ([]types.Rule, error) {
	buy, err := s.Load(asset, types.DirectionBuy)
	if err != nil {
		return nil, err
	}

	sell, err := s.Load(asset, types.DirectionSell)
	if err != nil {
		return nil, err
	}

	offset := 0
	for _, r := range buy {
		if r.ID >= offset {
			offset = r.ID + 1
		}
	}

	merged := make([]types.Rule, 0, len(buy)+len(sell))
	merged = append(merged, buy...)

	for _, r := range sell {
		r.ID += offset
		merged = append(merged, r)
	}

	return merged, nil
}

// parseTable reads all rule rows from a TSV table.
func (s *Store) parseTable(r io.Reader, asset string, direction types.Direction) ([]types.Rule, error) {
	reader := csv.NewReader(r)
	reader.Comma = '\t'
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeMalformedRuleRow, err,
			"failed to read header of rule table for %s/%s", asset, direction)
	}

	statIndex := make(map[string]int)
	var conditionIndexes []int

	for i, name := range header {
		if statColumns[name] {
			statIndex[name] = i
		} else {
			conditionIndexes = append(conditionIndexes, i)
		}
	}

	for _, required := range []string{"X_mean", "X_sigma", "support_count", "support_rate"} {
		if _, ok := statIndex[required]; !ok {
			return nil, errors.Newf(errors.ErrCodeMalformedRuleRow,
				"rule table for %s/%s is missing column %s", asset, direction, required)
		}
	}

	var rules []types.Rule

	rowOrdinal := 0
	droppedConditions := 0
	droppedRules := 0

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}

		if err != nil {
			return nil, errors.Wrapf(errors.ErrCodeMalformedRuleRow, err,
				"failed to read rule row %d for %s/%s", rowOrdinal, asset, direction)
		}

		id := rowOrdinal
		rowOrdinal++

		stats, err := parseStats(record, statIndex)
		if err != nil {
			s.logger.Warn("Skipping rule row with malformed statistics",
				zap.String("asset", asset),
				zap.Int("row", id),
				zap.Error(err),
			)

			continue
		}

		var conditions []types.Condition

		for _, ci := range conditionIndexes {
			if ci >= len(record) {
				continue
			}

			cond, ok, err := ParseCondition(record[ci])
			if err != nil {
				droppedConditions++

				s.logger.Warn("Dropping malformed condition",
					zap.String("asset", asset),
					zap.Int("rule", id),
					zap.String("token", record[ci]),
					zap.Error(err),
				)

				continue
			}

			if ok {
				conditions = append(conditions, cond)
			}
		}

		if len(conditions) == 0 {
			droppedRules++

			s.logger.Warn("Discarding rule with no parsable conditions",
				zap.String("asset", asset),
				zap.Int("rule", id),
			)

			continue
		}

		rules = append(rules, types.Rule{
			ID:         id,
			Direction:  direction,
			Conditions: conditions,
			Stats:      stats,
		})
	}

	if droppedConditions > 0 || droppedRules > 0 {
		s.logger.Warn("Rule table loaded with drops",
			zap.String("asset", asset),
			zap.String("direction", string(direction)),
			zap.Int("dropped_conditions", droppedConditions),
			zap.Int("dropped_rules", droppedRules),
		)
	}

	return rules, nil
}

func parseStats(record []string, statIndex map[string]int) (types.RuleStats, error) {
	readFloat := func(name string) (float64, error) {
		i := statIndex[name]
		if i >= len(record) {
			return 0, errors.Newf(errors.ErrCodeMalformedRuleRow, "row is missing column %s", name)
		}

		v, err := strconv.ParseFloat(record[i], 64)
		if err != nil {
			return 0, errors.Wrapf(errors.ErrCodeMalformedRuleRow, err, "column %s is not numeric", name)
		}

		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, errors.Newf(errors.ErrCodeMalformedRuleRow, "column %s is not finite", name)
		}

		return v, nil
	}

	mean, err := readFloat("X_mean")
	if err != nil {
		return types.RuleStats{}, err
	}

	sigma, err := readFloat("X_sigma")
	if err != nil {
		return types.RuleStats{}, err
	}

	supportCount, err := readFloat("support_count")
	if err != nil {
		return types.RuleStats{}, err
	}

	supportRate, err := readFloat("support_rate")
	if err != nil {
		return types.RuleStats{}, err
	}

	return types.RuleStats{
		Mean:         mean,
		Sigma:        sigma,
		SupportCount: int(supportCount),
		SupportRate:  supportRate,
	}, nil
}

// rank orders rules by the store's sort key, descending, ties broken by
// lowest rule ID. SortByDiscovery keeps the table order untouched.
func (s *Store) rank(rules []types.Rule) {
	if s.sortBy == config.SortByDiscovery {
		return
	}

	key := func(r types.Rule) float64 {
		switch s.sortBy {
		case config.SortByExtremeScore:
			return r.Stats.ExtremeScore()
		case config.SortBySNR:
			return r.Stats.SNR()
		case config.SortByExtremeness:
			return r.Stats.Extremeness()
		default:
			return float64(r.Stats.SupportCount)
		}
	}

	sort.SliceStable(rules, func(i, j int) bool {
		ki, kj := key(rules[i]), key(rules[j])
		if ki != kj {
			return ki > kj
		}

		return rules[i].ID < rules[j].ID
	})
}
