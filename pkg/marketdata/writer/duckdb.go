package writer

import (
	"database/sql"
	stderrors "errors"
	"fmt"

	_ "github.com/marcboeker/go-duckdb"
	"github.com/rxtech-lab/argo-signal/internal/logger"
	"github.com/rxtech-lab/argo-signal/internal/types"
	"github.com/rxtech-lab/argo-signal/pkg/errors"
	"go.uber.org/zap"
)

// DuckDBTapeWriter buffers trades in an in-memory DuckDB table and exports them as Parquet.
// The exported columns are the ones the backtest tape source reads.
type DuckDBTapeWriter struct {
	db         *sql.DB
	tx         *sql.Tx
	stmt       *sql.Stmt
	outputPath string
	written    int
	log        *logger.Logger
}

// NewDuckDBTapeWriter creates a writer exporting to outputPath.
func NewDuckDBTapeWriter(outputPath string, log *logger.Logger) TapeWriter {
	return &DuckDBTapeWriter{
		db:         nil,
		tx:         nil,
		stmt:       nil,
		outputPath: outputPath,
		written:    0,
		log:        log,
	}
}

// Initialize opens the database, creates the trades table and prepares the insert
// statement inside a transaction.
func (w *DuckDBTapeWriter) Initialize() (err error) {
	w.db, err = sql.Open("duckdb", ":memory:")
	if err != nil {
		return errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to open DuckDB connection", err)
	}

	_, err = w.db.Exec(`
		CREATE TABLE IF NOT EXISTS trades (
			time TIMESTAMP,
			symbol TEXT,
			price DOUBLE,
			quantity DOUBLE
		)
	`)
	if err != nil {
		w.db.Close()
		w.db = nil

		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to create trades table", err)
	}

	w.tx, err = w.db.Begin()
	if err != nil {
		w.db.Close()
		w.db = nil

		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to begin transaction", err)
	}

	w.stmt, err = w.tx.Prepare(`INSERT INTO trades (time, symbol, price, quantity) VALUES (?, ?, ?, ?)`)
	if err != nil {
		w.tx.Rollback()
		w.db.Close()
		w.tx = nil
		w.db = nil

		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to prepare insert statement", err)
	}

	w.written = 0

	return nil
}

// Write inserts one trade.
func (w *DuckDBTapeWriter) Write(tick types.Tick) error {
	if w.stmt == nil {
		return errors.New(errors.ErrCodeDataSourceUnavailable, "writer not initialized")
	}

	if _, err := w.stmt.Exec(tick.Time.UTC(), tick.Symbol, tick.Price, tick.Quantity); err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to insert trade", err)
	}

	w.written++

	return nil
}

// Finalize commits the pending trades and exports them ordered by time.
func (w *DuckDBTapeWriter) Finalize() (string, error) {
	if w.tx == nil {
		return "", errors.New(errors.ErrCodeDataSourceUnavailable, "writer not initialized or already finalized")
	}

	if w.stmt != nil {
		w.stmt.Close()
		w.stmt = nil
	}

	if err := w.tx.Commit(); err != nil {
		w.tx.Rollback()
		w.tx = nil

		return "", errors.Wrap(errors.ErrCodeQueryFailed, "failed to commit transaction", err)
	}

	w.tx = nil

	query := fmt.Sprintf(`COPY (SELECT * FROM trades ORDER BY time) TO '%s' (FORMAT PARQUET)`, w.outputPath)
	if _, err := w.db.Exec(query); err != nil {
		return "", errors.Wrap(errors.ErrCodeQueryFailed, "failed to export trades to Parquet", err)
	}

	w.log.Info("Exported trade tape",
		zap.String("path", w.outputPath),
		zap.Int("trades", w.written),
	)

	return w.outputPath, nil
}

// Close releases the statement, rolls back an unfinished transaction and closes the database.
func (w *DuckDBTapeWriter) Close() error {
	var closeErrors []error

	if w.stmt != nil {
		if err := w.stmt.Close(); err != nil {
			closeErrors = append(closeErrors, err)
		}

		w.stmt = nil
	}

	if w.tx != nil {
		if err := w.tx.Rollback(); err != nil {
			w.log.Warn("Failed to roll back transaction on close", zap.Error(err))
		}

		w.tx = nil
	}

	if w.db != nil {
		if err := w.db.Close(); err != nil {
			closeErrors = append(closeErrors, err)
		}

		w.db = nil
	}

	if len(closeErrors) > 0 {
		return errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to close tape writer", stderrors.Join(closeErrors...))
	}

	return nil
}

// GetOutputPath implements TapeWriter.
func (w *DuckDBTapeWriter) GetOutputPath() string {
	return w.outputPath
}
