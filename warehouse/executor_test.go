package warehouse

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"healthdash/config"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingObserver struct {
	names []QueryName
	rows  []int
	errs  []error
}

func (o *recordingObserver) ObserveQuery(name QueryName, _ time.Duration, rows int, err error) {
	o.names = append(o.names, name)
	o.rows = append(o.rows, rows)
	o.errs = append(o.errs, err)
}

func duckCfg(t *testing.T) config.Warehouse {
	t.Helper()
	return config.Warehouse{Driver: config.DriverDuckDB, Path: filepath.Join(t.TempDir(), "warehouse.duckdb")}
}

// mockExecutor returns an executor whose connections come from sqlmock.
func mockExecutor(t *testing.T, opts ...Option) (*Executor, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	opener := func(context.Context, config.Warehouse) (*sql.DB, error) { return db, nil }
	exec, err := NewExecutor(duckCfg(t), append([]Option{WithOpener(opener), WithLogger(zap.NewNop())}, opts...)...)
	require.NoError(t, err)
	return exec, mock
}

func TestRunEmptyResultKeepsColumns(t *testing.T) {
	exec, mock := mockExecutor(t)
	q, _ := Lookup(HospitalRevenue)

	mock.ExpectQuery(q.SQL).WillReturnRows(sqlmock.NewRows([]string{"hospital_name", "revenue"}))
	mock.ExpectClose()

	table, err := exec.Run(context.Background(), q)
	require.NoError(t, err)
	assert.True(t, table.Empty())
	assert.Equal(t, []string{"hospital_name", "revenue"}, table.Columns)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunMaterializesRows(t *testing.T) {
	obs := &recordingObserver{}
	exec, mock := mockExecutor(t, WithObserver(obs))
	q, _ := Lookup(HospitalRevenue)

	mock.ExpectQuery(q.SQL).WillReturnRows(sqlmock.NewRows([]string{"hospital_name", "revenue"}).
		AddRow([]byte("A"), 300.0).
		AddRow("B", int64(50)))
	mock.ExpectClose()

	table, err := exec.Run(context.Background(), q)
	require.NoError(t, err)
	require.Equal(t, 2, table.Len())
	assert.Equal(t, Row{"hospital_name": "A", "revenue": 300.0}, table.Rows[0])
	assert.Equal(t, Row{"hospital_name": "B", "revenue": int64(50)}, table.Rows[1])

	assert.Equal(t, []QueryName{HospitalRevenue}, obs.names)
	assert.Equal(t, []int{2}, obs.rows)
	assert.NoError(t, obs.errs[0])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunStatementFailure(t *testing.T) {
	obs := &recordingObserver{}
	exec, mock := mockExecutor(t, WithObserver(obs))
	q, _ := Lookup(TotalRevenue)

	mock.ExpectQuery(q.SQL).WillReturnError(errors.New(`relation "hospital_visits_fact" does not exist`))
	mock.ExpectClose()

	table, err := exec.Run(context.Background(), q)
	assert.Nil(t, table)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStatement)
	assert.NotErrorIs(t, err, ErrConnection)

	var qerr *QueryError
	require.True(t, errors.As(err, &qerr))
	assert.Equal(t, TotalRevenue, qerr.Query)
	assert.Contains(t, err.Error(), "does not exist")

	require.Len(t, obs.errs, 1)
	assert.Error(t, obs.errs[0])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunRowErrorIsStatementFailure(t *testing.T) {
	exec, mock := mockExecutor(t)
	q, _ := Lookup(VisitsByGender)

	mock.ExpectQuery(q.SQL).WillReturnRows(sqlmock.NewRows([]string{"gender", "visits"}).
		AddRow("Female", int64(3)).
		RowError(0, errors.New("connection reset")))
	mock.ExpectClose()

	_, err := exec.Run(context.Background(), q)
	assert.ErrorIs(t, err, ErrStatement)
}

func TestRunConnectionFailure(t *testing.T) {
	opener := func(context.Context, config.Warehouse) (*sql.DB, error) {
		return nil, errors.New("password authentication failed for user \"root\"")
	}
	exec, err := NewExecutor(duckCfg(t), WithOpener(opener))
	require.NoError(t, err)

	q, _ := Lookup(TotalVisits)
	_, err = exec.Run(context.Background(), q)
	assert.ErrorIs(t, err, ErrConnection)
	assert.Contains(t, err.Error(), "password authentication failed")
}

func TestRunDefaultOpenerUnreachable(t *testing.T) {
	cfg := config.Warehouse{Driver: config.DriverDuckDB, Path: filepath.Join(t.TempDir(), "missing", "dir", "warehouse.duckdb")}
	exec, err := NewExecutor(cfg)
	require.NoError(t, err)

	q, _ := Lookup(TotalVisits)
	_, err = exec.Run(context.Background(), q)
	assert.ErrorIs(t, err, ErrConnection)
}

func TestNewExecutorValidates(t *testing.T) {
	_, err := NewExecutor(config.Warehouse{Driver: config.DriverPostgres, Host: "localhost"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "user")
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "x", normalize([]byte("x")))
	assert.Equal(t, int64(4), normalize(int32(4)))
	assert.Equal(t, float64(1.5), normalize(float32(1.5)))
	assert.Nil(t, normalize(nil))
}
