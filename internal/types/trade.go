package types

import "time"

// Trade is a realized one-period position derived from a signal. Entry is at
// the signal's index, exit one period later; the outcome is the next row's X.
type Trade struct {
	// Asset is the asset this trade belongs to.
	Asset string `csv:"asset"`
	// EntryIndex is the series index the position was entered at.
	EntryIndex int `csv:"entry_index"`
	// ExitIndex is always EntryIndex+1.
	ExitIndex int `csv:"exit_index"`
	// EntryTime is the timestamp of the entry row.
	EntryTime time.Time `csv:"entry_time"`
	// ExitTime is the timestamp of the exit row.
	ExitTime time.Time `csv:"exit_time"`
	// Side is the trading side inherited from the signal.
	Side Side `csv:"side"`
	// RuleID identifies the rule whose signal produced this trade.
	RuleID int `csv:"rule_id"`
	// ActualX is the realized percentage change read from the exit row.
	ActualX float64 `csv:"actual_x"`
	// GrossProfit is +ActualX for buys and -ActualX for sells.
	GrossProfit float64 `csv:"gross_profit"`
	// Cost is the summed round-trip transaction cost charged to this trade.
	Cost float64 `csv:"cost"`
	// NetProfit is GrossProfit minus Cost.
	NetProfit float64 `csv:"net_profit"`
	// Win is true iff NetProfit is strictly positive.
	Win bool `csv:"win"`
	// CumulativeReturn is the running prefix sum of NetProfit in entry order.
	CumulativeReturn float64 `csv:"cumulative_return"`
}
