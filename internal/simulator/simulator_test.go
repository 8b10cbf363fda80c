package simulator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/quantarc/rulesim/internal/logger"
	"github.com/quantarc/rulesim/internal/simulator/costmodel"
	"github.com/quantarc/rulesim/internal/timeseries"
	"github.com/quantarc/rulesim/internal/types"
)

type SimulatorTestSuite struct {
	suite.Suite
}

func TestSimulatorSuite(t *testing.T) {
	suite.Run(t, new(SimulatorTestSuite))
}

func (suite *SimulatorTestSuite) series(xs ...float64) *timeseries.Dataset {
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

	rows := make([]types.FeatureRow, len(xs))
	for i, x := range xs {
		rows[i] = types.FeatureRow{
			Time:       start.AddDate(0, 0, i),
			Attributes: map[string]int{},
			X:          x,
		}
	}

	ds, err := timeseries.NewDataset("TEST", nil, rows)
	suite.Require().NoError(err)

	return ds
}

func buySignal(t int) types.Signal {
	return types.Signal{EntryIndex: t, Side: types.SideBuy, RuleID: 0, ExpectedMean: 0.1, SupportCount: 10}
}

func sellSignal(t int) types.Signal {
	return types.Signal{EntryIndex: t, Side: types.SideSell, RuleID: 0, ExpectedMean: -0.1, SupportCount: 10}
}

func (suite *SimulatorTestSuite) TestNetProfitWithCosts() {
	// spread 0.0002 + commission 0.0001 + slippage 0.0001 = 0.04 percent;
	// a buy with actual_x = 0.05 nets exactly 0.01.
	sim := NewSimulator(costmodel.NewFixedCost(0.0002, 0.0001, 0.0001), logger.NewTestLogger())
	series := suite.series(0.0, 0.05)

	trades := sim.Simulate([]types.Signal{buySignal(0)}, series)

	suite.Require().Len(trades, 1)
	suite.Equal(0.05, trades[0].ActualX)
	suite.Equal(0.05, trades[0].GrossProfit)
	suite.Equal(0.04, trades[0].Cost)
	suite.Equal(0.01, trades[0].NetProfit)
	suite.True(trades[0].Win)
}

func (suite *SimulatorTestSuite) TestGrossProfitSignConvention() {
	sim := NewSimulator(costmodel.NewZeroCost(), logger.NewTestLogger())
	series := suite.series(0.0, -0.3, 0.2)

	trades := sim.Simulate([]types.Signal{buySignal(0), sellSignal(1)}, series)

	suite.Require().Len(trades, 2)
	// Buy takes the next X as-is; the move is -0.3.
	suite.Equal(-0.3, trades[0].GrossProfit)
	// Sell negates the move; the next X is +0.2.
	suite.Equal(-0.2, trades[1].GrossProfit)
}

func (suite *SimulatorTestSuite) TestExitIsAlwaysEntryPlusOne() {
	sim := NewSimulator(costmodel.NewZeroCost(), logger.NewTestLogger())
	series := suite.series(0.1, 0.2, 0.3, 0.4)

	trades := sim.Simulate([]types.Signal{buySignal(0), buySignal(1), buySignal(2)}, series)

	suite.Require().Len(trades, 3)
	for _, tr := range trades {
		suite.Equal(tr.EntryIndex+1, tr.ExitIndex)
		suite.Less(tr.ExitIndex, series.Len())
	}
}

func (suite *SimulatorTestSuite) TestSignalWithoutExitRoomDropped() {
	sim := NewSimulator(costmodel.NewZeroCost(), logger.NewTestLogger())
	series := suite.series(0.1, 0.2)

	// Entry at the last index has no next row; the signal is dropped.
	trades := sim.Simulate([]types.Signal{buySignal(1)}, series)
	suite.Empty(trades)
}

func (suite *SimulatorTestSuite) TestEmptySignalsYieldEmptyTrades() {
	sim := NewSimulator(costmodel.NewZeroCost(), logger.NewTestLogger())
	series := suite.series(0.1, 0.2)

	suite.Empty(sim.Simulate(nil, series))
}

func (suite *SimulatorTestSuite) TestCumulativeReturnIsPrefixSum() {
	sim := NewSimulator(costmodel.NewFixedCost(0.0001, 0.0001, 0.0001), logger.NewTestLogger())
	series := suite.series(0.0, 0.5, -0.2, 0.1, 0.3)

	trades := sim.Simulate([]types.Signal{buySignal(0), buySignal(1), buySignal(2), buySignal(3)}, series)
	suite.Require().Len(trades, 4)

	suite.InDelta(trades[0].NetProfit, trades[0].CumulativeReturn, 1e-12)
	for i := 1; i < len(trades); i++ {
		suite.InDelta(trades[i].NetProfit,
			trades[i].CumulativeReturn-trades[i-1].CumulativeReturn, 1e-12)
	}
}

func (suite *SimulatorTestSuite) TestWinRate() {
	trades := []types.Trade{
		{NetProfit: 0.1, Win: true},
		{NetProfit: -0.1, Win: false},
		{NetProfit: 0.2, Win: true},
		{NetProfit: -0.3, Win: false},
	}

	suite.Equal(0.5, WinRate(trades))
	suite.Equal(0.0, WinRate(nil))
}

func (suite *SimulatorTestSuite) TestTotalReturnAndGross() {
	trades := []types.Trade{
		{GrossProfit: 0.2, NetProfit: 0.1},
		{GrossProfit: -0.1, NetProfit: -0.2},
	}

	suite.InDelta(-0.1, TotalReturn(trades), 1e-12)
	suite.InDelta(0.1, TotalGross(trades), 1e-12)
}

func (suite *SimulatorTestSuite) TestMaxDrawdown() {
	trades := []types.Trade{
		{CumulativeReturn: 0.5},
		{CumulativeReturn: 0.2},
		{CumulativeReturn: 0.8},
		{CumulativeReturn: 0.1},
		{CumulativeReturn: 0.4},
	}

	// Peak 0.8 to trough 0.1.
	suite.InDelta(0.7, MaxDrawdown(trades), 1e-12)
}

func (suite *SimulatorTestSuite) TestMaxDrawdownMonotoneCurveIsZero() {
	trades := []types.Trade{
		{CumulativeReturn: 0.1},
		{CumulativeReturn: 0.2},
		{CumulativeReturn: 0.3},
	}

	suite.Equal(0.0, MaxDrawdown(trades))
	suite.Equal(0.0, MaxDrawdown(nil))
}
