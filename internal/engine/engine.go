// Package engine ties the rule store, time-series loader, walk-forward
// runner, portfolio aggregator and results store into one simulation run.
package engine

import (
	"context"

	"github.com/quantarc/rulesim/internal/types"
)

// Lifecycle callback types for simulation phases.
// Callbacks with an error return can abort the run by returning an error.

// OnRunStartCallback is called once before any asset is processed. runID is
// the unique identifier of this run.
type OnRunStartCallback func(runID string, totalAssets int, totalPeriods int) error

// OnRunEndCallback is called when the run completes (always called via defer).
type OnRunEndCallback func(err error)

// OnAssetStartCallback is called when an asset's walk-forward loop begins.
type OnAssetStartCallback func(assetIndex int, asset string, totalAssets int) error

// OnAssetEndCallback is called when an asset's walk-forward loop ends.
// stats.Periods is 0 when the asset produced no trades.
type OnAssetEndCallback func(assetIndex int, asset string, stats types.WalkForwardStats)

// OnPeriodEndCallback is called after each walk-forward period of an asset.
type OnPeriodEndCallback func(asset string, periodIndex int, totalPeriods int, metrics types.PeriodMetrics) error

// LifecycleCallbacks holds all lifecycle callback functions for the engine.
// All fields are pointers; nil means no callback will be invoked.
type LifecycleCallbacks struct {
	OnRunStart   *OnRunStartCallback
	OnRunEnd     *OnRunEndCallback
	OnAssetStart *OnAssetStartCallback
	OnAssetEnd   *OnAssetEndCallback
	OnPeriodEnd  *OnPeriodEndCallback
}

// Engine runs a complete rule simulation from a YAML configuration.
type Engine interface {
	// Initialize the engine with the given YAML configuration content.
	Initialize(config string) error
	// SetRuleFolder overrides the configured rule table folder.
	SetRuleFolder(folder string) error
	// SetDataFolder overrides the configured time-series data folder.
	SetDataFolder(folder string) error
	// SetResultsFolder overrides the configured output directory.
	SetResultsFolder(folder string) error
	// Run executes the full simulation. The context can cancel between
	// assets; callbacks receive notifications at each phase.
	Run(ctx context.Context, callbacks LifecycleCallbacks) (*types.RunSummary, error)
	// GetConfigSchema returns the JSON schema of the configuration.
	GetConfigSchema() (string, error)
}
