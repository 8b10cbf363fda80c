package types

import "time"

// Side is the trading side of a signal or trade.
type Side string

const (
	// SideBuy enters long for one period
	SideBuy Side = "buy"
	// SideSell enters short for one period
	SideSell Side = "sell"
)

// Signal is a single-timestamp trading instruction emitted when all of a
// rule's conditions hold at the entry index.
type Signal struct {
	// EntryIndex is the index t in the asset's series where the rule matched.
	EntryIndex int
	// Time is the timestamp of the entry row.
	Time time.Time
	// Side is buy for positive-direction rules, sell for negative-direction rules.
	Side Side
	// RuleID identifies the rule that emitted this signal.
	RuleID int
	// ExpectedMean is the rule's mined mean outcome. Diagnostic only.
	ExpectedMean float64
	// SupportCount is the rule's mined support, used by deduplication.
	SupportCount int
}
