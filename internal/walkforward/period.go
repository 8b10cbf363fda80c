// Package walkforward partitions history into rolling train/test periods and
// runs signal generation plus simulation over each test window, aggregating
// the per-period outcomes.
package walkforward

import (
	"time"

	"github.com/quantarc/rulesim/internal/config"
)

// Period is one rolling train/test window pair. Both windows are half-open;
// the test window begins exactly where the training window ends. Periods are
// independent of each other and share only the read-only rule set.
type Period struct {
	// Index is the 0-based ordinal of the period.
	Index int
	// TrainStart is the inclusive start of the training window.
	TrainStart time.Time
	// TrainEnd is the exclusive end of the training window.
	TrainEnd time.Time
	// TestStart is the inclusive start of the test window.
	TestStart time.Time
	// TestEnd is the exclusive end of the test window.
	TestEnd time.Time
}

func yearStart(year int) time.Time {
	return time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
}

// GeneratePeriods derives the walk-forward partition from the configured
// year bounds. The first test year is start_year + train_years; subsequent
// periods step by test_years until end_year is exceeded. The last test window
// is clipped at the end of end_year.
//
// When test_start_date is configured, periods ending before it are dropped
// and the first surviving test window starts no earlier than that date.
func GeneratePeriods(cfg *config.SimulationConfig) []Period {
	var periods []Period

	for testYear := cfg.StartYear + cfg.TrainYears; testYear <= cfg.EndYear; testYear += cfg.TestYears {
		testEndYear := testYear + cfg.TestYears
		if testEndYear > cfg.EndYear+1 {
			testEndYear = cfg.EndYear + 1
		}

		periods = append(periods, Period{
			Index:      len(periods),
			TrainStart: yearStart(testYear - cfg.TrainYears),
			TrainEnd:   yearStart(testYear),
			TestStart:  yearStart(testYear),
			TestEnd:    yearStart(testEndYear),
		})
	}

	if cfg.TestStartDate.IsSome() {
		periods = clipBefore(periods, cfg.TestStartDate.Unwrap())
	}

	return periods
}

// clipBefore drops periods whose test window ends on or before from, raises
// the first survivor's test start to from, and reindexes.
func clipBefore(periods []Period, from time.Time) []Period {
	var kept []Period

	for _, p := range periods {
		if !p.TestEnd.After(from) {
			continue
		}

		if p.TestStart.Before(from) {
			p.TestStart = from
		}

		p.Index = len(kept)
		kept = append(kept, p)
	}

	return kept
}
