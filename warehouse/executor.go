package warehouse

import (
	"context"
	"database/sql"
	"fmt"
	"math/big"
	"time"

	"healthdash/config"

	_ "github.com/duckdb/duckdb-go/v2"
	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"
)

// Opener returns a ready database handle for one query.
type Opener func(ctx context.Context, cfg config.Warehouse) (*sql.DB, error)

// Observer is notified after every query.
type Observer interface {
	ObserveQuery(name QueryName, elapsed time.Duration, rows int, err error)
}

// Option configures an Executor.
type Option func(*Executor)

// WithLogger sets the executor's logger.
func WithLogger(log *zap.Logger) Option {
	return func(e *Executor) {
		if log != nil {
			e.log = log
		}
	}
}

// WithObserver registers an observer for query outcomes.
func WithObserver(o Observer) Option {
	return func(e *Executor) { e.observer = o }
}

// WithOpener replaces the default connection opener.
func WithOpener(open Opener) Option {
	return func(e *Executor) {
		if open != nil {
			e.open = open
		}
	}
}

// Executor runs catalog queries against the warehouse. Every call opens its
// own connection and releases it before returning; nothing is shared between
// calls.
type Executor struct {
	cfg      config.Warehouse
	log      *zap.Logger
	observer Observer
	open     Opener
}

// NewExecutor validates cfg and returns an executor for it.
func NewExecutor(cfg config.Warehouse, opts ...Option) (*Executor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	e := &Executor{cfg: cfg, log: zap.NewNop(), open: openDB}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Run executes q and materializes the full result. A result with no rows is
// returned as an empty Table that still carries the column names.
func (e *Executor) Run(ctx context.Context, q Query) (table *Table, err error) {
	start := time.Now()
	defer func() {
		elapsed := time.Since(start)
		rows := 0
		if table != nil {
			rows = table.Len()
		}
		if e.observer != nil {
			e.observer.ObserveQuery(q.Name, elapsed, rows, err)
		}
		if err != nil {
			e.log.Error("query failed", zap.String("query", string(q.Name)), zap.Duration("elapsed", elapsed), zap.Error(err))
			return
		}
		e.log.Debug("query done", zap.String("query", string(q.Name)), zap.Int("rows", rows), zap.Duration("elapsed", elapsed))
	}()

	db, err := e.open(ctx, e.cfg)
	if err != nil {
		return nil, &QueryError{Query: q.Name, Kind: ErrConnection, Err: err}
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, q.SQL)
	if err != nil {
		return nil, &QueryError{Query: q.Name, Kind: ErrStatement, Err: err}
	}
	defer rows.Close()

	table, err = scanTable(rows)
	if err != nil {
		return nil, &QueryError{Query: q.Name, Kind: ErrStatement, Err: err}
	}
	return table, nil
}

func openDB(ctx context.Context, cfg config.Warehouse) (*sql.DB, error) {
	db, err := sql.Open(cfg.SQLDriverName(), cfg.DSN())
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func scanTable(rows *sql.Rows) (*Table, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("columns: %w", err)
	}

	t := &Table{Columns: cols, Rows: []Row{}}
	vals := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range vals {
		ptrs[i] = &vals[i]
	}

	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		row := make(Row, len(cols))
		for i, c := range cols {
			row[c] = normalize(vals[i])
		}
		t.Rows = append(t.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return t, nil
}

// normalize maps driver values onto string, int64, float64, bool, time.Time or nil.
func normalize(v any) any {
	switch x := v.(type) {
	case []byte:
		return string(x)
	case int:
		return int64(x)
	case int8:
		return int64(x)
	case int16:
		return int64(x)
	case int32:
		return int64(x)
	case uint8:
		return int64(x)
	case uint16:
		return int64(x)
	case uint32:
		return int64(x)
	case uint64:
		return int64(x)
	case float32:
		return float64(x)
	case *big.Int:
		if x.IsInt64() {
			return x.Int64()
		}
		f, _ := new(big.Float).SetInt(x).Float64()
		return f
	}
	return v
}
