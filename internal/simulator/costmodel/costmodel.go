// Package costmodel prices the round-trip transaction cost charged once per
// simulated trade.
package costmodel

import "github.com/shopspring/decimal"

// CostModel computes the total transaction cost of one trade, in the same
// percent units as the outcome column X.
type CostModel interface {
	// RoundTrip returns the cost charged once per trade.
	RoundTrip() decimal.Decimal
}

// Model names a cost model for configuration purposes.
type Model string

const (
	ModelFixed Model = "fixed"
	ModelZero  Model = "zero"
)

// AllModels is used for schema enum generation.
var AllModels = []any{
	ModelFixed,
	ModelZero,
}
