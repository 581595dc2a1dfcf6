package datasource

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-signal/internal/logger"
	"github.com/rxtech-lab/argo-signal/internal/types"
	"github.com/rxtech-lab/argo-signal/pkg/errors"
	"go.uber.org/zap"
)

type DuckDBTapeSource struct {
	db     *sql.DB
	logger *logger.Logger
	sq     squirrel.StatementBuilderType
}

// NewTapeSource creates a new DuckDB tape source with the specified database path.
// The path parameter specifies the DuckDB database file location (":memory:" for none).
// This is distinct from Initialize() which loads a tape into the database.
func NewTapeSource(path string, logger *logger.Logger) (TapeSource, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to open duckdb", err)
	}

	_, err = db.Exec(`
		SET memory_limit='4GB';
		SET threads=4;
	`)
	if err != nil {
		db.Close()

		return nil, errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to set DuckDB options", err)
	}

	return &DuckDBTapeSource{
		db:     db,
		logger: logger,
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}, nil
}

// Initialize implements TapeSource.
func (d *DuckDBTapeSource) Initialize(path string) error {
	d.logger.Debug("Initializing DuckDB tape source", zap.String("path", path))

	var reader string

	switch strings.ToLower(filepath.Ext(path)) {
	case ".parquet":
		reader = "read_parquet"
	case ".csv":
		reader = "read_csv_auto"
	default:
		return errors.Newf(errors.ErrCodeBacktestDataPathError, "unsupported tape format: %s", path)
	}

	if _, err := d.db.Exec(`DROP VIEW IF EXISTS tape;`); err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to drop existing view", err)
	}

	// Squirrel doesn't support CREATE VIEW
	query := fmt.Sprintf(`
		CREATE VIEW tape AS
		SELECT time, symbol, price, quantity FROM %s('%s');
	`, reader, strings.ReplaceAll(path, "'", "''"))

	if _, err := d.db.Exec(query); err != nil {
		return errors.Wrapf(errors.ErrCodeBacktestDataPathError, err, "failed to load tape %s", path)
	}

	return nil
}

// ReadTape implements TapeSource.
func (d *DuckDBTapeSource) ReadTape(symbol string, start optional.Option[time.Time], end optional.Option[time.Time]) ([]types.Tick, error) {
	query, args, err := d.sq.
		Select("time", "symbol", "price", "quantity").
		From("tape").
		Where(tapeFilter(symbol, start, end)).
		OrderBy("time ASC").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build query", err)
	}

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeQueryFailed, err, "failed to query tape of %s", symbol)
	}
	defer rows.Close()

	result := make([]types.Tick, 0, 1024)

	for rows.Next() {
		var tick types.Tick

		if err := rows.Scan(&tick.Time, &tick.Symbol, &tick.Price, &tick.Quantity); err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan trade", err)
		}

		tick.Time = tick.Time.UTC()
		result = append(result, tick)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "error iterating trades", err)
	}

	return result, nil
}

// ReadCandles implements TapeSource. Candles are bucketed by open time; a bucket without
// trades produces no candle.
func (d *DuckDBTapeSource) ReadCandles(
	symbol string,
	interval Interval,
	start optional.Option[time.Time],
	end optional.Option[time.Time],
) ([]types.Candle, error) {
	length, err := IntervalDuration(interval)
	if err != nil {
		return nil, err
	}

	bucket := fmt.Sprintf("time_bucket(INTERVAL '%d minutes', time)", int(length.Minutes()))

	query, args, err := d.sq.
		Select(
			bucket+" AS bucket_time",
			"symbol",
			"arg_min(price, time) AS open",
			"max(price) AS high",
			"min(price) AS low",
			"arg_max(price, time) AS close",
			"sum(quantity) AS volume",
		).
		From("tape").
		Where(tapeFilter(symbol, start, end)).
		GroupBy("bucket_time", "symbol").
		OrderBy("bucket_time ASC").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build query", err)
	}

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeQueryFailed, err, "failed to aggregate candles of %s", symbol)
	}
	defer rows.Close()

	var result []types.Candle

	for rows.Next() {
		var c types.Candle

		if err := rows.Scan(&c.OpenTime, &c.Symbol, &c.Open, &c.High, &c.Low, &c.Close, &c.Volume); err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan candle", err)
		}

		c.OpenTime = c.OpenTime.UTC()
		c.CloseTime = c.OpenTime.Add(length - time.Millisecond)
		result = append(result, c)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "error iterating candles", err)
	}

	return result, nil
}

// Count implements TapeSource.
func (d *DuckDBTapeSource) Count(symbol string, start optional.Option[time.Time], end optional.Option[time.Time]) (int, error) {
	query, args, err := d.sq.
		Select("COUNT(*)").
		From("tape").
		Where(tapeFilter(symbol, start, end)).
		ToSql()
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build query", err)
	}

	var count int
	if err := d.db.QueryRow(query, args...).Scan(&count); err != nil {
		return 0, errors.Wrapf(errors.ErrCodeQueryFailed, err, "failed to count trades of %s", symbol)
	}

	return count, nil
}

// GetAllSymbols returns all distinct symbols of the tape.
func (d *DuckDBTapeSource) GetAllSymbols() ([]string, error) {
	rows, err := d.db.Query("SELECT DISTINCT symbol FROM tape ORDER BY symbol")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to get symbols", err)
	}
	defer rows.Close()

	var symbols []string

	for rows.Next() {
		var symbol string
		if err := rows.Scan(&symbol); err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan symbol", err)
		}

		symbols = append(symbols, symbol)
	}

	if err = rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "error iterating symbols", err)
	}

	return symbols, nil
}

// Close implements TapeSource.
func (d *DuckDBTapeSource) Close() error {
	return d.db.Close()
}

func tapeFilter(symbol string, start optional.Option[time.Time], end optional.Option[time.Time]) squirrel.And {
	filter := squirrel.And{squirrel.Eq{"symbol": symbol}}

	if start.IsSome() {
		filter = append(filter, squirrel.GtOrEq{"time": start.Unwrap()})
	}

	if end.IsSome() {
		filter = append(filter, squirrel.LtOrEq{"time": end.Unwrap()})
	}

	return filter
}
