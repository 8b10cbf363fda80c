package timeseries

import (
	"database/sql"
	"fmt"
	"os"
	"time"

	_ "github.com/marcboeker/go-duckdb"
	"go.uber.org/zap"

	"github.com/quantarc/rulesim/internal/logger"
	"github.com/quantarc/rulesim/internal/types"
	"github.com/quantarc/rulesim/pkg/errors"
)

// DuckDBLoader reads per-asset CSV files through an in-memory DuckDB
// instance. DuckDB infers the dynamic attribute columns, so the loader does
// not need a fixed schema: every column other than X and T is treated as a
// binary attribute.
type DuckDBLoader struct {
	db     *sql.DB
	logger *logger.Logger
}

// NewDuckDBLoader opens an in-memory DuckDB instance for CSV ingestion.
func NewDuckDBLoader(log *logger.Logger) (*DuckDBLoader, error) {
	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDataLoadFailed, "failed to open DuckDB", err)
	}

	return &DuckDBLoader{
		db:     db,
		logger: log,
	}, nil
}

// Load reads the CSV at path into a Dataset for the given asset. The file
// must carry named binary attribute columns plus a float column X and a
// timestamp column T; rows are returned in chronological order.
func (l *DuckDBLoader) Load(path, asset string) (*Dataset, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, errors.Wrapf(errors.ErrCodeDataFileNotFound, err,
			"no time series for asset %s at %s", asset, path)
	}

	l.logger.Debug("Loading time series",
		zap.String("asset", asset),
		zap.String("path", path),
	)

	// read_csv_auto takes a literal path, not a bind parameter.
	query := fmt.Sprintf(`SELECT * FROM read_csv_auto('%s', header=true) ORDER BY T ASC`, path)

	rows, err := l.db.Query(query)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeDataLoadFailed, err,
			"failed to read CSV for asset %s", asset)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDataLoadFailed, "failed to read CSV columns", err)
	}

	xIndex, tIndex := -1, -1

	var attributes []string

	for i, name := range columns {
		switch name {
		case "X":
			xIndex = i
		case "T":
			tIndex = i
		default:
			attributes = append(attributes, name)
		}
	}

	if xIndex < 0 || tIndex < 0 {
		return nil, errors.Newf(errors.ErrCodeDataLoadFailed,
			"CSV for asset %s is missing the X or T column", asset)
	}

	var featureRows []types.FeatureRow

	values := make([]any, len(columns))
	pointers := make([]any, len(columns))

	for i := range values {
		pointers[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(pointers...); err != nil {
			return nil, errors.Wrapf(errors.ErrCodeDataLoadFailed, err,
				"failed to scan CSV row for asset %s", asset)
		}

		timestamp, err := toTime(values[tIndex])
		if err != nil {
			return nil, errors.Wrapf(errors.ErrCodeDataLoadFailed, err,
				"bad T value for asset %s", asset)
		}

		x, err := toFloat(values[xIndex])
		if err != nil {
			return nil, errors.Wrapf(errors.ErrCodeDataLoadFailed, err,
				"bad X value for asset %s", asset)
		}

		attrs := make(map[string]int, len(attributes))

		for i, name := range columns {
			if i == xIndex || i == tIndex {
				continue
			}

			attrs[name] = toBinary(values[i])
		}

		featureRows = append(featureRows, types.FeatureRow{
			Time:       timestamp,
			Attributes: attrs,
			X:          x,
		})
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrapf(errors.ErrCodeDataLoadFailed, err,
			"error iterating CSV rows for asset %s", asset)
	}

	l.logger.Debug("Time series loaded",
		zap.String("asset", asset),
		zap.Int("rows", len(featureRows)),
		zap.Int("attributes", len(attributes)),
	)

	return NewDataset(asset, attributes, featureRows)
}

// Close releases the underlying DuckDB instance.
func (l *DuckDBLoader) Close() error {
	return l.db.Close()
}

func toTime(v any) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t, nil
	case string:
		for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
			if parsed, err := time.Parse(layout, t); err == nil {
				return parsed, nil
			}
		}

		return time.Time{}, fmt.Errorf("unparsable timestamp %q", t)
	default:
		return time.Time{}, fmt.Errorf("unexpected timestamp type %T", v)
	}
}

func toFloat(v any) (float64, error) {
	switch f := v.(type) {
	case float64:
		return f, nil
	case float32:
		return float64(f), nil
	case int64:
		return float64(f), nil
	case int32:
		return float64(f), nil
	default:
		return 0, fmt.Errorf("unexpected numeric type %T", v)
	}
}

// toBinary collapses whatever DuckDB inferred for an attribute column onto
// {0,1}. Any nonzero value counts as active.
func toBinary(v any) int {
	switch b := v.(type) {
	case bool:
		if b {
			return 1
		}

		return 0
	case int64:
		if b != 0 {
			return 1
		}

		return 0
	case int32:
		if b != 0 {
			return 1
		}

		return 0
	case float64:
		if b != 0 {
			return 1
		}

		return 0
	default:
		return 0
	}
}
