package types

import "math"

// Direction tells whether a rule generates buy or sell signals.
type Direction string

const (
	// DirectionBuy marks rules mined on positive-outcome patterns
	DirectionBuy Direction = "buy"
	// DirectionSell marks rules mined on negative-outcome patterns
	DirectionSell Direction = "sell"
)

// Condition is a single time-lagged binary predicate of a rule.
// It is satisfied at evaluation index t iff t-Lag >= 0 and the asset's
// feature Attribute at index t-Lag equals 1.
type Condition struct {
	// Attribute is the name of the binary feature column.
	Attribute string
	// Lag is the number of periods into the past the attribute is evaluated.
	Lag int
}

// RuleStats carries the summary statistics the mining process attached to a
// rule. They are used for ranking and tie-breaking only, never recomputed.
type RuleStats struct {
	// Mean is the mined average outcome (X_mean).
	Mean float64
	// Sigma is the mined outcome standard deviation (X_sigma).
	Sigma float64
	// SupportCount is the number of historical matches during mining.
	SupportCount int
	// SupportRate is SupportCount over the mined sample size.
	SupportRate float64
}

// SNR is the signal-to-noise ratio of the mined outcome distribution.
// A zero sigma yields 0 rather than dividing by zero.
func (s RuleStats) SNR() float64 {
	if s.Sigma == 0 {
		return 0
	}

	return math.Abs(s.Mean) / s.Sigma
}

// Extremeness is the absolute mined mean outcome.
func (s RuleStats) Extremeness() float64 {
	return math.Abs(s.Mean)
}

// ExtremeScore weighs the extremeness by the support the rule had during
// mining, favoring rules that are both extreme and well supported.
func (s RuleStats) ExtremeScore() float64 {
	return math.Abs(s.Mean) * math.Sqrt(float64(s.SupportCount))
}

// Rule is a conjunction of time-lagged binary conditions plus the mined
// outcome statistics. Rules are immutable once loaded.
type Rule struct {
	// ID is the rule's ordinal in its source table (0-based, per direction).
	ID int
	// Direction tells whether matches emit buy or sell signals.
	Direction Direction
	// Conditions are evaluated conjunctively; all must hold for a match.
	Conditions []Condition
	// Stats are the mining-provided summary statistics.
	Stats RuleStats
}

// MaxLag returns the largest lag among the rule's conditions, 0 if the rule
// has no conditions.
func (r Rule) MaxLag() int {
	maxLag := 0
	for _, c := range r.Conditions {
		if c.Lag > maxLag {
			maxLag = c.Lag
		}
	}

	return maxLag
}
