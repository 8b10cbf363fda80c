package costmodel

import "github.com/shopspring/decimal"

// FixedCost sums three independently configured fractional costs into a
// single symmetric round-trip charge. The components are configured as
// fractions (0.0002 = 2 pips) and the charge is expressed in percent units
// to match the X column, so the sum is scaled by 100.
type FixedCost struct {
	roundTrip decimal.Decimal
}

// NewFixedCost creates a fixed cost model from fractional spread, commission
// and slippage.
func NewFixedCost(spread, commission, slippage float64) CostModel {
	total := decimal.NewFromFloat(spread).
		Add(decimal.NewFromFloat(commission)).
		Add(decimal.NewFromFloat(slippage)).
		Mul(decimal.NewFromInt(100))

	return &FixedCost{
		roundTrip: total,
	}
}

func (c *FixedCost) RoundTrip() decimal.Decimal {
	return c.roundTrip
}
