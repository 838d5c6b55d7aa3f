package store

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/citycare/clinic-opd/internal/observability/metrics"
	"github.com/citycare/clinic-opd/pkg/logging"
)

// fakeOpener hands out a scripted sequence of connections, recording how
// many times the store asked for a fresh handle.
type fakeOpener struct {
	queue []func() (*sql.DB, error)
	calls int
}

func (f *fakeOpener) open() (*sql.DB, error) {
	if f.calls >= len(f.queue) {
		return nil, errors.New("opener: no more connections scripted")
	}
	next := f.queue[f.calls]
	f.calls++
	return next()
}

func healthy(db *sql.DB) func() (*sql.DB, error) {
	return func() (*sql.DB, error) { return db, nil }
}

func unreachable() (*sql.DB, error) {
	return nil, errors.New("dial tcp: connection refused")
}

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return db, mock
}

func TestFetchOneReturnsRow(t *testing.T) {
	db, mock := newMock(t)
	opener := &fakeOpener{queue: []func() (*sql.DB, error){healthy(db)}}
	s := New(opener.open, logging.Default(), nil)

	mock.ExpectQuery("SELECT name FROM patient").
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("Riya Sharma"))

	var name string
	err := s.FetchOne(context.Background(), "SELECT name FROM patient WHERE patient_id = $1", []any{int64(7)}, func(row *sql.Row) error {
		return row.Scan(&name)
	})
	require.NoError(t, err)
	assert.Equal(t, "Riya Sharma", name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFetchOneNoRows(t *testing.T) {
	db, mock := newMock(t)
	opener := &fakeOpener{queue: []func() (*sql.DB, error){healthy(db)}}
	s := New(opener.open, logging.Default(), nil)

	mock.ExpectQuery("SELECT name FROM patient").
		WillReturnRows(sqlmock.NewRows([]string{"name"}))

	var name string
	err := s.FetchOne(context.Background(), "SELECT name FROM patient WHERE patient_id = $1", []any{int64(99)}, func(row *sql.Row) error {
		return row.Scan(&name)
	})
	require.Error(t, err)
	assert.True(t, IsNoRows(err))
	assert.Equal(t, 1, opener.calls, "a missing row must not trigger a reconnect")
}

func TestFetchOneRetriesOnceAfterConnectionDrop(t *testing.T) {
	dead, deadMock := newMock(t)
	live, liveMock := newMock(t)
	opener := &fakeOpener{queue: []func() (*sql.DB, error){healthy(dead), healthy(live)}}

	reg := prometheus.NewRegistry()
	s := New(opener.open, logging.Default(), metrics.NewStoreMetrics(reg))

	deadMock.ExpectQuery("SELECT name FROM patient").WillReturnError(io.EOF)
	deadMock.ExpectClose()
	liveMock.ExpectQuery("SELECT name FROM patient").
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("Aman Patel"))

	var name string
	err := s.FetchOne(context.Background(), "SELECT name FROM patient WHERE patient_id = $1", []any{int64(3)}, func(row *sql.Row) error {
		return row.Scan(&name)
	})
	require.NoError(t, err)
	assert.Equal(t, "Aman Patel", name)
	assert.Equal(t, 2, opener.calls, "exactly one reconnect expected")
	assert.NoError(t, deadMock.ExpectationsWereMet())
	assert.NoError(t, liveMock.ExpectationsWereMet())
}

func TestFetchOneTwoConsecutiveDropsAreFatal(t *testing.T) {
	first, firstMock := newMock(t)
	second, secondMock := newMock(t)
	opener := &fakeOpener{queue: []func() (*sql.DB, error){healthy(first), healthy(second)}}
	s := New(opener.open, logging.Default(), nil)

	firstMock.ExpectQuery("SELECT name FROM patient").WillReturnError(io.EOF)
	secondMock.ExpectQuery("SELECT name FROM patient").WillReturnError(io.EOF)

	err := s.FetchOne(context.Background(), "SELECT name FROM patient WHERE patient_id = $1", []any{int64(3)}, func(row *sql.Row) error {
		return row.Scan(new(string))
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, 2, opener.calls, "no third attempt allowed")
}

func TestDegradedStartRecoversOnNextCall(t *testing.T) {
	live, liveMock := newMock(t)
	opener := &fakeOpener{queue: []func() (*sql.DB, error){unreachable, healthy(live)}}
	s := New(opener.open, logging.Default(), nil)

	liveMock.ExpectExec("UPDATE appointment SET status").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := s.Exec(context.Background(), "UPDATE appointment SET status = 'Completed' WHERE appointment_id = $1", int64(4))
	require.NoError(t, err)
	assert.Equal(t, 2, opener.calls)
	assert.NoError(t, liveMock.ExpectationsWereMet())
}

func TestStatementErrorsAreNotRetried(t *testing.T) {
	db, mock := newMock(t)
	opener := &fakeOpener{queue: []func() (*sql.DB, error){healthy(db)}}
	s := New(opener.open, logging.Default(), nil)

	fkErr := &pgconn.PgError{Code: "23503", Message: "insert or update on table \"billing\" violates foreign key constraint"}
	mock.ExpectExec("INSERT INTO billing").WillReturnError(fkErr)

	err := s.Exec(context.Background(), "INSERT INTO billing (appointment_id, total_amount, date) VALUES ($1, $2, CURRENT_DATE)", int64(999), 210.00)
	require.Error(t, err)
	assert.True(t, IsForeignKeyViolation(err))
	assert.Equal(t, 1, opener.calls, "integrity failures must surface verbatim without reconnecting")
}

func TestDeadHandleIsReplacedBeforeExecuting(t *testing.T) {
	dead, deadMock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	live, liveMock := newMock(t)
	opener := &fakeOpener{queue: []func() (*sql.DB, error){healthy(dead), healthy(live)}}
	s := New(opener.open, logging.Default(), nil)

	deadMock.ExpectPing().WillReturnError(io.EOF)
	deadMock.ExpectClose()
	liveMock.ExpectQuery("SELECT count").
		WillReturnRows(sqlmock.NewRows([]string{"cnt"}).AddRow(12))

	var cnt int64
	err = s.FetchOne(context.Background(), "SELECT count(*) AS cnt FROM appointment", nil, func(row *sql.Row) error {
		return row.Scan(&cnt)
	})
	require.NoError(t, err)
	assert.Equal(t, int64(12), cnt)
	assert.NoError(t, deadMock.ExpectationsWereMet())
}

func TestExecBatchPreservesOrder(t *testing.T) {
	db, mock := newMock(t)
	opener := &fakeOpener{queue: []func() (*sql.DB, error){healthy(db)}}
	s := New(opener.open, logging.Default(), nil)

	mock.ExpectBegin()
	prep := mock.ExpectPrepare("INSERT INTO billing_items")
	prep.ExpectExec().WithArgs(int64(1), "Paracetamol", int64(2), 5.00).WillReturnResult(sqlmock.NewResult(1, 1))
	prep.ExpectExec().WithArgs(int64(1), "Consultation Fee", int64(1), 200.00).WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	err := s.ExecBatch(context.Background(),
		"INSERT INTO billing_items (bill_id, item_name, qty, price) VALUES ($1, $2, $3, $4)",
		[][]any{
			{int64(1), "Paracetamol", int64(2), 5.00},
			{int64(1), "Consultation Fee", int64(1), 200.00},
		})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactRollsBackOnError(t *testing.T) {
	db, mock := newMock(t)
	opener := &fakeOpener{queue: []func() (*sql.DB, error){healthy(db)}}
	s := New(opener.open, logging.Default(), nil)

	mock.ExpectBegin()
	mock.ExpectRollback()

	boom := errors.New("validation downstream")
	err := s.Transact(context.Background(), func(tx *sql.Tx) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactCommits(t *testing.T) {
	db, mock := newMock(t)
	opener := &fakeOpener{queue: []func() (*sql.DB, error){healthy(db)}}
	s := New(opener.open, logging.Default(), nil)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO billing").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := s.Transact(context.Background(), func(tx *sql.Tx) error {
		_, err := tx.ExecContext(context.Background(), "INSERT INTO billing (appointment_id, total_amount, date) VALUES ($1, $2, CURRENT_DATE)", int64(7), 210.00)
		return err
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
