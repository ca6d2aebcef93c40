// Package journal persists order events to a parquet file through DuckDB.
// The trading core writes fire-and-forget; a failed journal write never
// blocks an order.
package journal

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "github.com/marcboeker/go-duckdb"
	"github.com/quantrail/quantrail/internal/logger"
	"github.com/quantrail/quantrail/internal/risk"
	"github.com/quantrail/quantrail/pkg/errors"
	"go.uber.org/zap"
)

// Writer journals order events into an in-memory DuckDB table and mirrors
// the table to a parquet file after every write.
type Writer struct {
	db         *sql.DB
	outputPath string
	log        *logger.Logger
	mu         sync.Mutex
}

// NewWriter creates a journal writing to the given parquet path.
func NewWriter(outputPath string, log *logger.Logger) *Writer {
	if log == nil {
		log = logger.NewNopLogger()
	}

	return &Writer{
		db:         nil,
		outputPath: outputPath,
		log:        log,
		mu:         sync.Mutex{},
	}
}

// Initialize opens DuckDB and prepares the events table. Existing journal
// content at the output path is loaded so restarts append rather than
// overwrite.
func (w *Writer) Initialize() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	dir := filepath.Dir(w.outputPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrap(errors.ErrCodeJournalWriteFailed, "failed to create journal directory", err)
	}

	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		return errors.Wrap(errors.ErrCodeJournalWriteFailed, "failed to open DuckDB connection", err)
	}

	w.db = db

	_, err = w.db.Exec(`
		CREATE TABLE IF NOT EXISTS order_events (
			order_id TEXT PRIMARY KEY,
			kind TEXT,
			symbol TEXT,
			side TEXT,
			order_type TEXT,
			quantity BIGINT,
			reference_price DOUBLE,
			reason TEXT,
			reason_message TEXT,
			strategy_name TEXT,
			position_side TEXT,
			position_quantity BIGINT,
			entry_price DOUBLE,
			stop_price DOUBLE,
			take_profit_price DOUBLE,
			timestamp TIMESTAMP
		)
	`)
	if err != nil {
		w.db.Close()

		return errors.Wrap(errors.ErrCodeJournalWriteFailed, "failed to create order_events table", err)
	}

	// Resume from an existing journal file when present.
	if _, err := os.Stat(w.outputPath); err == nil {
		_, err = w.db.Exec(fmt.Sprintf(`
			INSERT INTO order_events
			SELECT * FROM read_parquet('%s')
			ON CONFLICT (order_id) DO NOTHING
		`, w.outputPath))
		if err != nil {
			// A corrupt journal file is not worth refusing to trade over,
			// but the operator must see it.
			w.log.Error("could not resume journal, starting empty",
				zap.String("path", w.outputPath),
				zap.Error(err),
			)
		}
	}

	return nil
}

// RecordEvent persists one order event and exports the journal to parquet.
func (w *Writer) RecordEvent(event risk.OrderEvent) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.db == nil {
		return errors.New(errors.ErrCodeJournalWriteFailed, "journal not initialized")
	}

	_, err := w.db.Exec(`
		INSERT INTO order_events (order_id, kind, symbol, side, order_type, quantity,
			reference_price, reason, reason_message, strategy_name,
			position_side, position_quantity, entry_price, stop_price, take_profit_price, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (order_id) DO NOTHING
	`, event.Handle.ID, string(event.Kind), event.Order.Symbol, string(event.Order.Side),
		string(event.Order.OrderType), event.Order.Quantity, event.Order.ReferencePrice,
		event.Order.Reason.Reason, event.Order.Reason.Message, event.Order.StrategyName,
		string(event.Position.Side), event.Position.Quantity, event.Position.EntryPrice,
		event.Position.StopPrice, event.Position.TakeProfitPrice, event.Order.Timestamp)
	if err != nil {
		return errors.Wrap(errors.ErrCodeJournalWriteFailed, "failed to insert order event", err)
	}

	if err := w.exportToParquet(); err != nil {
		return err
	}

	return nil
}

// Flush forces an export to parquet.
func (w *Writer) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.db == nil {
		return errors.New(errors.ErrCodeJournalWriteFailed, "journal not initialized")
	}

	return w.exportToParquet()
}

// EventCount returns the number of journaled events.
func (w *Writer) EventCount() (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.db == nil {
		return 0, errors.New(errors.ErrCodeJournalWriteFailed, "journal not initialized")
	}

	var count int

	err := w.db.QueryRow("SELECT COUNT(*) FROM order_events").Scan(&count)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeJournalWriteFailed, "failed to count order events", err)
	}

	return count, nil
}

// OutputPath returns the parquet file path.
func (w *Writer) OutputPath() string {
	return w.outputPath
}

// Close releases database resources.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.db != nil {
		if err := w.db.Close(); err != nil {
			return errors.Wrap(errors.ErrCodeJournalWriteFailed, "failed to close journal database", err)
		}

		w.db = nil
	}

	return nil
}

func (w *Writer) exportToParquet() error {
	_, err := w.db.Exec(fmt.Sprintf(`
		COPY (SELECT * FROM order_events ORDER BY timestamp ASC)
		TO '%s' (FORMAT PARQUET)
	`, w.outputPath))
	if err != nil {
		return errors.Wrap(errors.ErrCodeJournalWriteFailed, "failed to export journal to parquet", err)
	}

	return nil
}
