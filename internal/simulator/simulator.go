// Package simulator converts signals into realized one-period trades,
// applying transaction costs and tracking cumulative performance.
package simulator

import (
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/quantarc/rulesim/internal/logger"
	"github.com/quantarc/rulesim/internal/simulator/costmodel"
	"github.com/quantarc/rulesim/internal/timeseries"
	"github.com/quantarc/rulesim/internal/types"
)

// Simulator realizes signals against a series under a cost model. It holds
// no per-run state; every Simulate call is independent.
type Simulator struct {
	cost   costmodel.CostModel
	logger *logger.Logger
}

// NewSimulator creates a trade simulator with the given cost model.
func NewSimulator(cost costmodel.CostModel, log *logger.Logger) *Simulator {
	return &Simulator{
		cost:   cost,
		logger: log,
	}
}

// Simulate converts signals into trades. For each signal at index t the
// outcome is read from row t+1; a signal whose exit would fall past the end
// of the series is dropped (the generator's window clamp makes this
// unreachable in practice). An empty signal list yields an empty trade list.
//
// Trades are returned in the signals' order, which the generator guarantees
// to be non-decreasing in entry index; CumulativeReturn is the running
// prefix sum of net profit over that order.
func (s *Simulator) Simulate(signals []types.Signal, series *timeseries.Dataset) []types.Trade {
	if len(signals) == 0 {
		return nil
	}

	cost := s.cost.RoundTrip()
	costFloat, _ := cost.Float64()

	trades := make([]types.Trade, 0, len(signals))
	cumulative := decimal.Zero

	for _, sig := range signals {
		exit := sig.EntryIndex + 1
		if exit >= series.Len() {
			s.logger.Warn("Dropping signal without room for exit",
				zap.String("asset", series.Asset()),
				zap.Int("entry_index", sig.EntryIndex),
				zap.Int("series_len", series.Len()),
			)

			continue
		}

		actualX := series.Row(exit).X

		gross := decimal.NewFromFloat(actualX)
		if sig.Side == types.SideSell {
			gross = gross.Neg()
		}

		net := gross.Sub(cost)
		cumulative = cumulative.Add(net)

		grossFloat, _ := gross.Float64()
		netFloat, _ := net.Float64()
		cumulativeFloat, _ := cumulative.Float64()

		trades = append(trades, types.Trade{
			Asset:            series.Asset(),
			EntryIndex:       sig.EntryIndex,
			ExitIndex:        exit,
			EntryTime:        series.Row(sig.EntryIndex).Time,
			ExitTime:         series.Row(exit).Time,
			Side:             sig.Side,
			RuleID:           sig.RuleID,
			ActualX:          actualX,
			GrossProfit:      grossFloat,
			Cost:             costFloat,
			NetProfit:        netFloat,
			Win:              netFloat > 0,
			CumulativeReturn: cumulativeFloat,
		})
	}

	return trades
}
