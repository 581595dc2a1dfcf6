package engine

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/rxtech-lab/argo-signal/internal/logger"
	"github.com/rxtech-lab/argo-signal/internal/types"
	"github.com/rxtech-lab/argo-signal/pkg/errors"
	"go.uber.org/zap"
)

// SignalEvent is one lifecycle transition of a signal.
type SignalEvent struct {
	SignalID string
	Symbol   string
	Time     time.Time
	Status   types.SignalStatus
	Side     types.Side
	// Price is the most relevant price of the new status: the reference price while
	// waiting, the limit when ordered, the entry when active and the close when closed.
	Price      float64
	ExitReason types.ExitReason
}

// SignalLedger records signal transitions in an in-memory DuckDB database and exports them
// as Parquet next to the backtest results.
type SignalLedger struct {
	db     *sql.DB
	logger *logger.Logger
	sq     squirrel.StatementBuilderType
}

// NewSignalLedger creates an empty ledger.
func NewSignalLedger(logger *logger.Logger) (*SignalLedger, error) {
	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		logger.Error("Failed to open database", zap.Error(err))

		return nil, errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to open database", err)
	}

	if err := db.Ping(); err != nil {
		logger.Error("Failed to connect to database", zap.Error(err))
		db.Close()

		return nil, errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to connect to database", err)
	}

	ledger := &SignalLedger{
		logger: logger,
		db:     db,
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
	}

	if err := ledger.initialize(); err != nil {
		db.Close()

		return nil, err
	}

	return ledger, nil
}

// Record appends the current state of sig.
func (l *SignalLedger) Record(sig *types.Signal) error {
	if l == nil || l.db == nil {
		return errors.New(errors.ErrCodeDataSourceUnavailable, "signal ledger is closed")
	}

	event := eventOf(sig)

	_, err := l.sq.
		Insert("signal_events").
		Columns("id", "signal_id", "symbol", "time", "status", "side", "price", "exit_reason").
		Values(
			squirrel.Expr("nextval('signal_event_id_seq')"),
			event.SignalID, event.Symbol, event.Time, string(event.Status), string(event.Side),
			event.Price, string(event.ExitReason),
		).
		RunWith(l.db).
		Exec()
	if err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to insert signal event", err)
	}

	return nil
}

// Events returns every recorded transition in insertion order.
func (l *SignalLedger) Events() ([]SignalEvent, error) {
	if l == nil || l.db == nil {
		return nil, errors.New(errors.ErrCodeDataSourceUnavailable, "signal ledger is closed")
	}

	rows, err := l.sq.
		Select("signal_id", "symbol", "time", "status", "side", "price", "exit_reason").
		From("signal_events").
		OrderBy("id ASC").
		RunWith(l.db).
		Query()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query signal events", err)
	}
	defer rows.Close()

	var events []SignalEvent

	for rows.Next() {
		var (
			event                    SignalEvent
			status, side, exitReason string
		)

		if err := rows.Scan(
			&event.SignalID,
			&event.Symbol,
			&event.Time,
			&status,
			&side,
			&event.Price,
			&exitReason,
		); err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan signal event", err)
		}

		event.Time = event.Time.UTC()
		event.Status = types.SignalStatus(status)
		event.Side = types.Side(side)
		event.ExitReason = types.ExitReason(exitReason)
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "error iterating signal events", err)
	}

	return events, nil
}

// Write saves the events to signal_events.parquet in path.
func (l *SignalLedger) Write(path string) error {
	if l == nil || l.db == nil {
		return errors.New(errors.ErrCodeDataSourceUnavailable, "signal ledger is closed")
	}

	if err := os.MkdirAll(path, 0755); err != nil {
		return errors.Wrap(errors.ErrCodeBacktestResultsError, "failed to create directory", err)
	}

	eventsPath := filepath.Join(path, "signal_events.parquet")

	_, err := l.db.Exec(fmt.Sprintf(`COPY (SELECT * FROM signal_events ORDER BY id) TO '%s' (FORMAT PARQUET)`, eventsPath))
	if err != nil {
		return errors.Wrap(errors.ErrCodeBacktestResultsError, "failed to export signal events to Parquet", err)
	}

	l.logger.Debug("Exported signal events",
		zap.String("path", eventsPath),
	)

	return nil
}

// Cleanup drops every recorded event.
func (l *SignalLedger) Cleanup() error {
	if l == nil || l.db == nil {
		return errors.New(errors.ErrCodeDataSourceUnavailable, "signal ledger is closed")
	}

	_, err := l.db.Exec(`
		DROP TABLE IF EXISTS signal_events;
		DROP SEQUENCE IF EXISTS signal_event_id_seq;
	`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to clean up signal events", err)
	}

	return l.initialize()
}

// Close closes the database connection.
func (l *SignalLedger) Close() error {
	if l == nil || l.db == nil {
		return nil
	}

	return l.db.Close()
}

func (l *SignalLedger) initialize() error {
	_, err := l.db.Exec(`CREATE SEQUENCE IF NOT EXISTS signal_event_id_seq`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to create sequence", err)
	}

	_, err = l.db.Exec(`
		CREATE TABLE IF NOT EXISTS signal_events (
			id BIGINT PRIMARY KEY,
			signal_id TEXT,
			symbol TEXT,
			time TIMESTAMP,
			status TEXT,
			side TEXT,
			price DOUBLE,
			exit_reason TEXT
		)
	`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to create signal_events table", err)
	}

	return nil
}

func eventOf(sig *types.Signal) SignalEvent {
	event := SignalEvent{
		SignalID:   sig.ID,
		Symbol:     sig.Symbol(),
		Time:       sig.StartTime,
		Status:     sig.Status,
		Side:       sig.Side,
		Price:      sig.Price,
		ExitReason: sig.ExitReason,
	}

	switch sig.Status {
	case types.SignalStatusOrdered:
		event.Time = sig.OrderTime
		event.Price = sig.LimitPrice.TakeOr(sig.Price)
	case types.SignalStatusActive:
		event.Time = sig.EntryTime
		event.Price = sig.EntryPrice
	case types.SignalStatusCounterOrdered:
		event.Time = sig.CounterOrderTime
		event.Price = sig.CounterLimitPrice.TakeOr(sig.EntryPrice)
	case types.SignalStatusClosed:
		event.Time = sig.CloseTime
		event.Price = sig.ClosePrice.TakeOr(0)
	case types.SignalStatusWaiting, types.SignalStatusExpired:
	}

	return event
}
