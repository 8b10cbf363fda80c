// Package results persists a run's trades, period metrics and portfolio
// equity in an in-memory DuckDB database and exports them as CSV for the
// downstream reporting layer.
package results

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/moznion/go-optional"
	"go.uber.org/zap"

	"github.com/quantarc/rulesim/internal/logger"
	"github.com/quantarc/rulesim/internal/types"
	"github.com/quantarc/rulesim/pkg/errors"
)

// Store is the run-scoped results database. Every record is tagged with the
// run id so exported files can be traced back to a single execution.
type Store struct {
	db     *sql.DB
	logger *logger.Logger
	sq     squirrel.StatementBuilderType
	runID  string
}

// NewStore opens an in-memory results database with a fresh run id.
func NewStore(log *logger.Logger) (*Store, error) {
	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeResultsInitFailed, "failed to open results database", err)
	}

	return &Store{
		db:     db,
		logger: log,
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
		runID:  uuid.New().String(),
	}, nil
}

// RunID returns the unique identifier of this run.
func (s *Store) RunID() string {
	return s.runID
}

// Initialize creates the result tables.
func (s *Store) Initialize() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS trades (
			run_id TEXT,
			asset TEXT,
			period_index INTEGER,
			entry_index INTEGER,
			exit_index INTEGER,
			entry_time TIMESTAMP,
			exit_time TIMESTAMP,
			side TEXT,
			rule_id INTEGER,
			actual_x DOUBLE,
			gross_profit DOUBLE,
			cost DOUBLE,
			net_profit DOUBLE,
			win BOOLEAN,
			cumulative_return DOUBLE
		)
	`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeResultsInitFailed, "failed to create trades table", err)
	}

	_, err = s.db.Exec(`
		CREATE TABLE IF NOT EXISTS period_metrics (
			run_id TEXT,
			asset TEXT,
			period_index INTEGER,
			train_start TIMESTAMP,
			train_end TIMESTAMP,
			test_start TIMESTAMP,
			test_end TIMESTAMP,
			signal_count INTEGER,
			trade_count INTEGER,
			win_rate DOUBLE,
			total_return DOUBLE,
			total_return_before_cost DOUBLE,
			max_drawdown DOUBLE,
			buy_and_hold_return DOUBLE
		)
	`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeResultsInitFailed, "failed to create period_metrics table", err)
	}

	_, err = s.db.Exec(`
		CREATE TABLE IF NOT EXISTS portfolio_equity (
			run_id TEXT,
			time TIMESTAMP,
			equity DOUBLE
		)
	`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeResultsInitFailed, "failed to create portfolio_equity table", err)
	}

	return nil
}

// RecordTrades persists the trades of one asset/period.
func (s *Store) RecordTrades(periodIndex int, trades []types.Trade) error {
	if len(trades) == 0 {
		return nil
	}

	insert := s.sq.
		Insert("trades").
		Columns(
			"run_id", "asset", "period_index", "entry_index", "exit_index",
			"entry_time", "exit_time", "side", "rule_id", "actual_x",
			"gross_profit", "cost", "net_profit", "win", "cumulative_return",
		)

	for _, t := range trades {
		insert = insert.Values(
			s.runID, t.Asset, periodIndex, t.EntryIndex, t.ExitIndex,
			t.EntryTime, t.ExitTime, string(t.Side), t.RuleID, t.ActualX,
			t.GrossProfit, t.Cost, t.NetProfit, t.Win, t.CumulativeReturn,
		)
	}

	if _, err := insert.RunWith(s.db).Exec(); err != nil {
		return errors.Wrap(errors.ErrCodeResultsWriteFailed, "failed to insert trades", err)
	}

	return nil
}

// RecordPeriodMetrics persists one period's metrics for an asset.
func (s *Store) RecordPeriodMetrics(asset string, m types.PeriodMetrics) error {
	insert := s.sq.
		Insert("period_metrics").
		Columns(
			"run_id", "asset", "period_index", "train_start", "train_end",
			"test_start", "test_end", "signal_count", "trade_count",
			"win_rate", "total_return", "total_return_before_cost",
			"max_drawdown", "buy_and_hold_return",
		).
		Values(
			s.runID, asset, m.PeriodIndex, m.TrainStart, m.TrainEnd,
			m.TestStart, m.TestEnd, m.SignalCount, m.TradeCount,
			m.WinRate, m.TotalReturn, m.TotalReturnBeforeCost,
			m.MaxDrawdown, m.BuyAndHoldReturn,
		).
		RunWith(s.db)

	if _, err := insert.Exec(); err != nil {
		return errors.Wrap(errors.ErrCodeResultsWriteFailed, "failed to insert period metrics", err)
	}

	return nil
}

// RecordPortfolioEquity persists the combined portfolio equity curve.
func (s *Store) RecordPortfolioEquity(points []types.EquityPoint) error {
	if len(points) == 0 {
		return nil
	}

	insert := s.sq.
		Insert("portfolio_equity").
		Columns("run_id", "time", "equity")

	for _, p := range points {
		insert = insert.Values(s.runID, p.Time, p.Equity)
	}

	if _, err := insert.RunWith(s.db).Exec(); err != nil {
		return errors.Wrap(errors.ErrCodeResultsWriteFailed, "failed to insert portfolio equity", err)
	}

	return nil
}

// GetAllTrades returns every recorded trade ordered by asset and entry index.
func (s *Store) GetAllTrades() ([]types.Trade, error) {
	query := s.sq.
		Select(
			"asset", "entry_index", "exit_index", "entry_time", "exit_time",
			"side", "rule_id", "actual_x", "gross_profit", "cost",
			"net_profit", "win", "cumulative_return",
		).
		From("trades").
		OrderBy("asset ASC", "entry_index ASC").
		RunWith(s.db)

	rows, err := query.Query()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeResultsQueryFailed, "failed to query trades", err)
	}
	defer rows.Close()

	var trades []types.Trade
	for rows.Next() {
		var t types.Trade
		var side string

		err := rows.Scan(
			&t.Asset, &t.EntryIndex, &t.ExitIndex, &t.EntryTime, &t.ExitTime,
			&side, &t.RuleID, &t.ActualX, &t.GrossProfit, &t.Cost,
			&t.NetProfit, &t.Win, &t.CumulativeReturn,
		)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeResultsQueryFailed, "failed to scan trade", err)
		}

		t.Side = types.Side(side)
		trades = append(trades, t)
	}

	if err = rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeResultsQueryFailed, "error iterating trades", err)
	}

	return trades, nil
}

// GetTradeByEntry returns the trade entered at the given index for an asset,
// or None when no such trade was recorded.
func (s *Store) GetTradeByEntry(asset string, entryIndex int) (optional.Option[types.Trade], error) {
	query := s.sq.
		Select(
			"asset", "entry_index", "exit_index", "entry_time", "exit_time",
			"side", "rule_id", "actual_x", "gross_profit", "cost",
			"net_profit", "win", "cumulative_return",
		).
		From("trades").
		Where(squirrel.Eq{"asset": asset, "entry_index": entryIndex}).
		RunWith(s.db)

	var t types.Trade
	var side string

	err := query.QueryRow().Scan(
		&t.Asset, &t.EntryIndex, &t.ExitIndex, &t.EntryTime, &t.ExitTime,
		&side, &t.RuleID, &t.ActualX, &t.GrossProfit, &t.Cost,
		&t.NetProfit, &t.Win, &t.CumulativeReturn,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return optional.None[types.Trade](), nil
		}

		return optional.None[types.Trade](), errors.Wrap(errors.ErrCodeResultsQueryFailed, "failed to get trade by entry", err)
	}

	t.Side = types.Side(side)

	return optional.Some(t), nil
}

// Write exports all three tables to CSV files in the given directory.
// Squirrel has no COPY syntax, so the export uses raw SQL.
func (s *Store) Write(path string) error {
	if err := os.MkdirAll(path, 0755); err != nil {
		return errors.Wrap(errors.ErrCodeResultsWriteFailed, "failed to create results directory", err)
	}

	exports := []struct {
		table string
		file  string
	}{
		{"trades", "trades.csv"},
		{"period_metrics", "period_metrics.csv"},
		{"portfolio_equity", "portfolio_equity.csv"},
	}

	for _, e := range exports {
		target := filepath.Join(path, e.file)

		_, err := s.db.Exec(fmt.Sprintf(`COPY %s TO '%s' (FORMAT CSV, HEADER)`, e.table, target))
		if err != nil {
			return errors.Wrapf(errors.ErrCodeResultsWriteFailed, err, "failed to export %s to CSV", e.table)
		}
	}

	s.logger.Info("Exported run results",
		zap.String("run_id", s.runID),
		zap.String("path", path),
	)

	return nil
}

// Cleanup drops and recreates the result tables.
func (s *Store) Cleanup() error {
	_, err := s.db.Exec(`
		DROP TABLE IF EXISTS trades;
		DROP TABLE IF EXISTS period_metrics;
		DROP TABLE IF EXISTS portfolio_equity;
	`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeResultsWriteFailed, "failed to drop tables", err)
	}

	return s.Initialize()
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
