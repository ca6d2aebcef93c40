// Package dataset serves historical bars out of parquet or CSV files
// through DuckDB. It implements the market data-loading capability for
// backtests: HistoricalBars queries the file, SubscribeBars replays it.
package dataset

import (
	"context"
	"database/sql"
	"fmt"
	"iter"
	"strings"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/quantrail/quantrail/internal/logger"
	"github.com/quantrail/quantrail/internal/types"
	"github.com/quantrail/quantrail/pkg/errors"
	"go.uber.org/zap"
)

// Source reads bars from a market data file through a DuckDB view.
type Source struct {
	db        *sql.DB
	log       *logger.Logger
	sq        squirrel.StatementBuilderType
	connected bool
}

// NewSource opens an in-memory DuckDB instance and exposes the given data
// file as the market_data view. Parquet and CSV files are supported, chosen
// by extension.
func NewSource(path string, log *logger.Logger) (*Source, error) {
	if log == nil {
		log = logger.NewNopLogger()
	}

	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to open DuckDB", err)
	}

	reader := "read_parquet"
	if strings.HasSuffix(strings.ToLower(path), ".csv") {
		reader = "read_csv_auto"
	}

	// CREATE VIEW has no placeholder support; the path comes from config,
	// not user input.
	_, err = db.Exec(fmt.Sprintf(`
		CREATE VIEW market_data AS
		SELECT * FROM %s('%s');
	`, reader, path))
	if err != nil {
		db.Close()

		return nil, errors.Wrapf(errors.ErrCodeDataUnavailable, err, "failed to load market data from %s", path)
	}

	log.Debug("dataset loaded", zap.String("path", path))

	return &Source{
		db:  db,
		log: log,
		sq:  squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}, nil
}

// Connect implements the connection capability. The database is already
// open; Connect only flips the session flag and is idempotent.
func (s *Source) Connect(ctx context.Context) error {
	s.connected = true
	return nil
}

// Disconnect implements the connection capability.
func (s *Source) Disconnect() {
	s.connected = false
}

// IsConnected implements the connection capability.
func (s *Source) IsConnected() bool {
	return s.connected
}

// Count returns the number of bars stored for the symbol.
func (s *Source) Count(symbol string) (int, error) {
	query, args, err := s.sq.
		Select("COUNT(*)").
		From("market_data").
		Where(squirrel.Eq{"symbol": symbol}).
		ToSql()
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build count query", err)
	}

	var count int
	if err := s.db.QueryRow(query, args...).Scan(&count); err != nil {
		return 0, errors.Wrap(errors.ErrCodeQueryFailed, "failed to count bars", err)
	}

	return count, nil
}

// HistoricalBars implements market.DataLoader. It returns the most recent
// lookback bars in ascending time order; lookback <= 0 returns everything.
func (s *Source) HistoricalBars(ctx context.Context, symbol string, timeframe types.Timeframe, lookback int) ([]types.MarketData, error) {
	builder := s.sq.
		Select("time", "symbol", "open", "high", "low", "close", "volume").
		From("market_data").
		Where(squirrel.Eq{"symbol": symbol}).
		OrderBy("time DESC")

	if lookback > 0 {
		builder = builder.Limit(uint64(lookback))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build bars query", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query bars", err)
	}
	defer rows.Close()

	var bars []types.MarketData

	for rows.Next() {
		var bar types.MarketData
		if err := rows.Scan(&bar.Time, &bar.Symbol, &bar.Open, &bar.High, &bar.Low, &bar.Close, &bar.Volume); err != nil {
			return nil, errors.Wrap(errors.ErrCodeDataParseFailed, "failed to scan bar", err)
		}

		bars = append(bars, bar)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "bar iteration failed", err)
	}

	if len(bars) == 0 {
		return nil, errors.Newf(errors.ErrCodeDataUnavailable, "no bars for symbol %s", symbol)
	}

	// The query sorted descending to apply the lookback limit; flip back to
	// ascending for callers.
	for i, j := 0, len(bars)-1; i < j; i, j = i+1, j-1 {
		bars[i], bars[j] = bars[j], bars[i]
	}

	return bars, nil
}

// SubscribeBars implements market.DataLoader by replaying the stored series
// in time order until exhausted or the context is cancelled.
func (s *Source) SubscribeBars(ctx context.Context, symbol string, timeframe types.Timeframe) iter.Seq2[types.MarketData, error] {
	return func(yield func(types.MarketData, error) bool) {
		bars, err := s.HistoricalBars(ctx, symbol, timeframe, 0)
		if err != nil {
			yield(types.MarketData{}, err)
			return
		}

		for _, bar := range bars {
			if ctx.Err() != nil {
				return
			}

			if !yield(bar, nil) {
				return
			}
		}
	}
}

// Close releases the database handle.
func (s *Source) Close() error {
	if s.db == nil {
		return nil
	}

	err := s.db.Close()
	s.db = nil

	return err
}
