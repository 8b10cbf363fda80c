package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/quantarc/rulesim/internal/logger"
	"github.com/quantarc/rulesim/internal/types"
	"github.com/quantarc/rulesim/pkg/errors"
)

type EngineTestSuite struct {
	suite.Suite
	engine     *SimEngineV1
	ruleDir    string
	dataDir    string
	resultsDir string
}

func TestEngineSuite(t *testing.T) {
	suite.Run(t, new(EngineTestSuite))
}

const ruleHeader = "cond_1\tcond_2\tcond_3\tX_mean\tX_sigma\tsupport_count\tsupport_rate\n"

func (suite *EngineTestSuite) SetupTest() {
	suite.engine = NewSimEngineV1WithLogger(logger.NewTestLogger())
	suite.ruleDir = suite.T().TempDir()
	suite.dataDir = suite.T().TempDir()
	suite.resultsDir = suite.T().TempDir()
}

func (suite *EngineTestSuite) configYAML(assets ...string) string {
	yaml := "top_n_rules: 10\n" +
		"sort_by: support\n" +
		"train_years: 1\n" +
		"test_years: 1\n" +
		"start_year: 2019\n" +
		"end_year: 2020\n" +
		"spread: 0\n" +
		"commission: 0\n" +
		"slippage: 0\n" +
		"allocation_strategy: equal_weight\n" +
		"rule_folder: " + suite.ruleDir + "\n" +
		"data_folder: " + suite.dataDir + "\n" +
		"results_folder: " + suite.resultsDir + "\n" +
		"assets:\n"

	for _, a := range assets {
		yaml += "  - " + a + "\n"
	}

	return yaml
}

// writeAsset creates a buy rule table with one always-matching rule and a
// daily data file with constant positive X through January 2020.
func (suite *EngineTestSuite) writeAsset(asset string) {
	table := ruleHeader + "A(t-0)\t0\t0\t0.5\t0.2\t100\t0.1\n"

	suite.Require().NoError(os.WriteFile(
		filepath.Join(suite.ruleDir, asset+"_buy.tsv"), []byte(table), 0644))
	suite.Require().NoError(os.WriteFile(
		filepath.Join(suite.ruleDir, asset+"_sell.tsv"), []byte(ruleHeader), 0644))

	csv := "A,X,T\n"
	for day := 1; day <= 5; day++ {
		csv += fmt.Sprintf("1,0.1,2020-01-%02d\n", day)
	}

	suite.Require().NoError(os.WriteFile(
		filepath.Join(suite.dataDir, asset+".csv"), []byte(csv), 0644))
}

func (suite *EngineTestSuite) TestRunWithoutInitializeFails() {
	_, err := suite.engine.Run(context.Background(), LifecycleCallbacks{})
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeEngineNoConfig))
}

func (suite *EngineTestSuite) TestInitializeRejectsInvalidConfig() {
	err := suite.engine.Initialize("train_years: -1\n")
	suite.Error(err)
}

func (suite *EngineTestSuite) TestInitializeRejectsNewerVersionPin() {
	yaml := suite.configYAML("EURUSD") + "min_engine_version: v99.0.0\n"

	err := suite.engine.Initialize(yaml)
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidVersion))
}

func (suite *EngineTestSuite) TestRunSingleAsset() {
	suite.writeAsset("EURUSD")
	suite.Require().NoError(suite.engine.Initialize(suite.configYAML("EURUSD")))

	summary, err := suite.engine.Run(context.Background(), LifecycleCallbacks{})
	suite.Require().NoError(err)

	suite.Require().Len(summary.Assets, 1)
	suite.Equal(0, summary.SkippedAssets)

	stats := summary.Assets[0]
	suite.Equal("EURUSD", stats.Asset)
	suite.Equal(1, stats.Periods)
	// Four entries with one row reserved for the final exit, 0.1 each.
	suite.InDelta(0.4, stats.TotalReturn, 1e-9)
	suite.InDelta(1.0, stats.AvgWinRate, 1e-9)

	suite.Require().NotNil(summary.Portfolio)
	suite.InDelta(1.0, summary.Portfolio.Weights["EURUSD"], 1e-9)

	for _, name := range []string{"trades.csv", "period_metrics.csv", "portfolio_equity.csv", "summary.yaml"} {
		_, err := os.Stat(filepath.Join(suite.resultsDir, name))
		suite.NoError(err, name)
	}
}

func (suite *EngineTestSuite) TestRunSkipsAssetWithMissingInputs() {
	suite.writeAsset("EURUSD")
	suite.Require().NoError(suite.engine.Initialize(suite.configYAML("EURUSD", "GBPUSD")))

	summary, err := suite.engine.Run(context.Background(), LifecycleCallbacks{})
	suite.Require().NoError(err)

	suite.Len(summary.Assets, 1)
	suite.Equal(1, summary.SkippedAssets)
	suite.Equal("EURUSD", summary.Assets[0].Asset)
}

func (suite *EngineTestSuite) TestRunInvokesCallbacks() {
	suite.writeAsset("EURUSD")
	suite.Require().NoError(suite.engine.Initialize(suite.configYAML("EURUSD")))

	var runID string
	var assetStarts, assetEnds, periodEnds int
	var runEndErr error
	runEndCalled := false

	onRunStart := OnRunStartCallback(func(id string, totalAssets, totalPeriods int) error {
		runID = id
		suite.Equal(1, totalAssets)
		suite.Equal(1, totalPeriods)

		return nil
	})
	onAssetStart := OnAssetStartCallback(func(i int, asset string, total int) error {
		assetStarts++

		return nil
	})
	onAssetEnd := OnAssetEndCallback(func(i int, asset string, stats types.WalkForwardStats) {
		assetEnds++
	})
	onPeriodEnd := OnPeriodEndCallback(func(asset string, periodIndex, totalPeriods int, m types.PeriodMetrics) error {
		periodEnds++

		return nil
	})
	onRunEnd := OnRunEndCallback(func(err error) {
		runEndCalled = true
		runEndErr = err
	})

	summary, err := suite.engine.Run(context.Background(), LifecycleCallbacks{
		OnRunStart:   &onRunStart,
		OnRunEnd:     &onRunEnd,
		OnAssetStart: &onAssetStart,
		OnAssetEnd:   &onAssetEnd,
		OnPeriodEnd:  &onPeriodEnd,
	})
	suite.Require().NoError(err)

	suite.Equal(summary.ID, runID)
	suite.Equal(1, assetStarts)
	suite.Equal(1, assetEnds)
	suite.Equal(1, periodEnds)
	suite.True(runEndCalled)
	suite.NoError(runEndErr)
}

func (suite *EngineTestSuite) TestRunHonorsContextCancellation() {
	suite.writeAsset("EURUSD")
	suite.Require().NoError(suite.engine.Initialize(suite.configYAML("EURUSD")))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := suite.engine.Run(ctx, LifecycleCallbacks{})
	suite.ErrorIs(err, context.Canceled)
}

func (suite *EngineTestSuite) TestFolderOverrides() {
	suite.Require().NoError(suite.engine.Initialize(suite.configYAML("EURUSD")))

	other := suite.T().TempDir()
	suite.NoError(suite.engine.SetRuleFolder(other))
	suite.NoError(suite.engine.SetDataFolder(other))
	suite.NoError(suite.engine.SetResultsFolder(other))
	suite.Equal(other, suite.engine.Config().RuleFolder)

	suite.Error(suite.engine.SetRuleFolder(""))
	suite.Error(suite.engine.SetDataFolder(""))
	suite.Error(suite.engine.SetResultsFolder(""))
}

func (suite *EngineTestSuite) TestGetConfigSchema() {
	suite.Require().NoError(suite.engine.Initialize(suite.configYAML("EURUSD")))

	schema, err := suite.engine.GetConfigSchema()
	suite.Require().NoError(err)
	suite.Contains(schema, "top_n_rules")
	suite.Contains(schema, "allocation_strategy")
}
