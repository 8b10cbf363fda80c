package types

import "time"

// FeatureRow is one chronological observation of an asset: a set of named
// binary attributes plus the realized percentage change X associated with
// this row. X is used as the outcome for a signal generated one step earlier.
type FeatureRow struct {
	// Time is the observation timestamp.
	Time time.Time
	// Attributes maps attribute name to its binary value (0 or 1).
	Attributes map[string]int
	// X is the realized percentage change for this row.
	X float64
}

// Attribute returns the binary value of the named attribute, 0 if absent.
func (r FeatureRow) Attribute(name string) int {
	return r.Attributes[name]
}
