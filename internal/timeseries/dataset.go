// Package timeseries holds per-asset chronological feature/return data with
// index-based lookback access. Datasets are read-only for the lifetime of a
// run once constructed.
package timeseries

import (
	"sort"
	"time"

	"github.com/quantarc/rulesim/internal/types"
	"github.com/quantarc/rulesim/pkg/errors"
)

// Dataset is one asset's chronologically ordered series of feature rows.
type Dataset struct {
	asset      string
	attributes []string
	rows       []types.FeatureRow
}

// NewDataset builds a dataset from already-ordered rows. It rejects rows
// whose timestamps go backwards; gaps are the caller's responsibility.
func NewDataset(asset string, attributes []string, rows []types.FeatureRow) (*Dataset, error) {
	for i := 1; i < len(rows); i++ {
		if rows[i].Time.Before(rows[i-1].Time) {
			return nil, errors.Newf(errors.ErrCodeUnorderedSeries,
				"series for %s is not chronological at row %d (%s after %s)",
				asset, i, rows[i-1].Time.Format(time.RFC3339), rows[i].Time.Format(time.RFC3339))
		}
	}

	return &Dataset{
		asset:      asset,
		attributes: attributes,
		rows:       rows,
	}, nil
}

// Asset returns the asset name this series belongs to.
func (d *Dataset) Asset() string {
	return d.asset
}

// Attributes returns the named binary attribute columns of the series.
func (d *Dataset) Attributes() []string {
	return d.attributes
}

// Len returns the number of rows.
func (d *Dataset) Len() int {
	return len(d.rows)
}

// Row returns the row at index i. The index must be in [0, Len).
func (d *Dataset) Row(i int) types.FeatureRow {
	return d.rows[i]
}

// IndexRange maps a half-open time window [start, end) onto the half-open
// index range of rows whose timestamps fall inside it.
func (d *Dataset) IndexRange(start, end time.Time) (int, int) {
	lo := sort.Search(len(d.rows), func(i int) bool {
		return !d.rows[i].Time.Before(start)
	})
	hi := sort.Search(len(d.rows), func(i int) bool {
		return !d.rows[i].Time.Before(end)
	})

	return lo, hi
}

// SumX returns the sum of X over the half-open index range [lo, hi),
// clamped to the series bounds. It is the buy-and-hold baseline for that
// window.
func (d *Dataset) SumX(lo, hi int) float64 {
	if lo < 0 {
		lo = 0
	}

	if hi > len(d.rows) {
		hi = len(d.rows)
	}

	sum := 0.0
	for i := lo; i < hi; i++ {
		sum += d.rows[i].X
	}

	return sum
}
