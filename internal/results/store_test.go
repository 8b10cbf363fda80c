package results

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/quantarc/rulesim/internal/logger"
	"github.com/quantarc/rulesim/internal/types"
)

type StoreTestSuite struct {
	suite.Suite
	store *Store
}

func TestStoreSuite(t *testing.T) {
	suite.Run(t, new(StoreTestSuite))
}

func (suite *StoreTestSuite) SetupTest() {
	store, err := NewStore(logger.NewTestLogger())
	suite.Require().NoError(err)
	suite.Require().NoError(store.Initialize())
	suite.store = store
}

func (suite *StoreTestSuite) TearDownTest() {
	suite.store.Close()
}

func sampleTrade(asset string, entry int, net float64) types.Trade {
	base := time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC)

	return types.Trade{
		Asset:            asset,
		EntryIndex:       entry,
		ExitIndex:        entry + 1,
		EntryTime:        base.AddDate(0, 0, entry),
		ExitTime:         base.AddDate(0, 0, entry+1),
		Side:             types.SideBuy,
		RuleID:           7,
		ActualX:          net,
		GrossProfit:      net,
		Cost:             0,
		NetProfit:        net,
		Win:              net > 0,
		CumulativeReturn: net,
	}
}

func (suite *StoreTestSuite) TestRunIDAssigned() {
	suite.NotEmpty(suite.store.RunID())
}

func (suite *StoreTestSuite) TestRecordAndGetAllTrades() {
	err := suite.store.RecordTrades(0, []types.Trade{
		sampleTrade("GBPUSD", 5, 0.2),
		sampleTrade("GBPUSD", 9, -0.1),
	})
	suite.Require().NoError(err)

	err = suite.store.RecordTrades(0, []types.Trade{
		sampleTrade("EURUSD", 3, 0.5),
	})
	suite.Require().NoError(err)

	trades, err := suite.store.GetAllTrades()
	suite.Require().NoError(err)
	suite.Require().Len(trades, 3)

	// Ordered by asset, then entry index.
	suite.Equal("EURUSD", trades[0].Asset)
	suite.Equal("GBPUSD", trades[1].Asset)
	suite.Equal(5, trades[1].EntryIndex)
	suite.Equal(9, trades[2].EntryIndex)
	suite.Equal(types.SideBuy, trades[0].Side)
	suite.Equal(7, trades[0].RuleID)
	suite.InDelta(0.5, trades[0].NetProfit, 1e-12)
}

func (suite *StoreTestSuite) TestRecordEmptyTradesIsNoop() {
	suite.NoError(suite.store.RecordTrades(0, nil))

	trades, err := suite.store.GetAllTrades()
	suite.NoError(err)
	suite.Empty(trades)
}

func (suite *StoreTestSuite) TestGetTradeByEntry() {
	err := suite.store.RecordTrades(1, []types.Trade{sampleTrade("EURUSD", 42, 0.3)})
	suite.Require().NoError(err)

	found, err := suite.store.GetTradeByEntry("EURUSD", 42)
	suite.Require().NoError(err)
	suite.Require().True(found.IsSome())
	suite.Equal(42, found.Unwrap().EntryIndex)

	missing, err := suite.store.GetTradeByEntry("EURUSD", 99)
	suite.Require().NoError(err)
	suite.True(missing.IsNone())
}

func (suite *StoreTestSuite) TestRecordPeriodMetrics() {
	m := types.PeriodMetrics{
		PeriodIndex: 2,
		TrainStart:  time.Date(2018, 1, 1, 0, 0, 0, 0, time.UTC),
		TrainEnd:    time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC),
		TestStart:   time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC),
		TestEnd:     time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC),
		SignalCount: 12,
		TradeCount:  12,
		WinRate:     0.58,
		TotalReturn: 1.4,
	}

	suite.NoError(suite.store.RecordPeriodMetrics("EURUSD", m))
}

func (suite *StoreTestSuite) TestWriteExportsCSV() {
	dir := suite.T().TempDir()

	err := suite.store.RecordTrades(0, []types.Trade{sampleTrade("EURUSD", 1, 0.1)})
	suite.Require().NoError(err)

	err = suite.store.RecordPortfolioEquity([]types.EquityPoint{
		{Time: time.Date(2021, 3, 2, 0, 0, 0, 0, time.UTC), Equity: 1.001},
	})
	suite.Require().NoError(err)

	suite.Require().NoError(suite.store.Write(dir))

	for _, name := range []string{"trades.csv", "period_metrics.csv", "portfolio_equity.csv"} {
		info, err := os.Stat(filepath.Join(dir, name))
		suite.NoError(err, name)
		if err == nil {
			suite.False(info.IsDir())
		}
	}
}

func (suite *StoreTestSuite) TestCleanupResetsTables() {
	err := suite.store.RecordTrades(0, []types.Trade{sampleTrade("EURUSD", 1, 0.1)})
	suite.Require().NoError(err)

	suite.Require().NoError(suite.store.Cleanup())

	trades, err := suite.store.GetAllTrades()
	suite.NoError(err)
	suite.Empty(trades)
}
