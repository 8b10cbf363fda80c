package costmodel

import "github.com/shopspring/decimal"

// ZeroCost charges nothing; useful for before-cost comparisons and tests.
type ZeroCost struct {
}

func NewZeroCost() CostModel {
	return &ZeroCost{}
}

func (c *ZeroCost) RoundTrip() decimal.Decimal {
	return decimal.Zero
}
