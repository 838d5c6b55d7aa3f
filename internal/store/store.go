// Package store wraps the clinic database behind four operations —
// fetch-one, fetch-all, exec, exec-batch — plus a transaction helper.
// Every operation verifies the connection handle before use and, when a
// connection-level failure interrupts execution, reopens the handle and
// retries the operation exactly once. A second consecutive failure is
// surfaced to the caller.
package store

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"syscall"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/citycare/clinic-opd/internal/observability/metrics"
	"github.com/citycare/clinic-opd/pkg/logging"
)

// Opener produces a fresh database handle. Separated out so tests can
// inject mock connections and so a failed startup stays recoverable:
// the store simply calls the opener again on the next operation.
type Opener func() (*sql.DB, error)

// Store owns the shared connection handle. The mutex serializes handle
// access so a reconnect cannot race a concurrent operation.
type Store struct {
	mu      sync.Mutex
	db      *sql.DB
	open    Opener
	logger  *logging.Logger
	metrics *metrics.StoreMetrics
}

// Open creates a Store for the given Postgres DSN using the pgx stdlib
// driver. A connection failure here is logged, not fatal: the store
// starts degraded and every subsequent operation attempts to reconnect.
func Open(dsn string, logger *logging.Logger, m *metrics.StoreMetrics) *Store {
	opener := func() (*sql.DB, error) {
		db, err := sql.Open("pgx", dsn)
		if err != nil {
			return nil, err
		}
		// Single desk, single connection.
		db.SetMaxOpenConns(1)
		return db, nil
	}
	return New(opener, logger, m)
}

// New creates a Store around an opener. Used directly by tests.
func New(open Opener, logger *logging.Logger, m *metrics.StoreMetrics) *Store {
	if logger == nil {
		logger = logging.Default()
	}
	s := &Store{open: open, logger: logger, metrics: m}
	if db, err := open(); err != nil {
		logger.Error("database connection failed, store starts degraded", "error", err)
	} else {
		s.db = db
	}
	return s
}

// Close releases the underlying handle.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// Ping verifies the database is reachable, reopening the handle first
// when it has been dropped.
func (s *Store) Ping(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.ensureConn(ctx)
	return err
}

// FetchOne runs a query expected to return at most one row and hands the
// row to scan. A missing row surfaces as sql.ErrNoRows from scan; callers
// map it with IsNoRows.
func (s *Store) FetchOne(ctx context.Context, query string, args []any, scan func(*sql.Row) error) error {
	return s.run(ctx, "fetch_one", func(db *sql.DB) error {
		return scan(db.QueryRowContext(ctx, query, args...))
	})
}

// FetchAll runs a query and hands the ordered result set to scan.
func (s *Store) FetchAll(ctx context.Context, query string, args []any, scan func(*sql.Rows) error) error {
	return s.run(ctx, "fetch_all", func(db *sql.DB) error {
		rows, err := db.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		if err := scan(rows); err != nil {
			return err
		}
		return rows.Err()
	})
}

// Exec runs a single autocommitted statement.
func (s *Store) Exec(ctx context.Context, query string, args ...any) error {
	return s.run(ctx, "exec", func(db *sql.DB) error {
		_, err := db.ExecContext(ctx, query, args...)
		return err
	})
}

// ExecBatch runs one statement against many parameter tuples, in input
// order, inside a single transaction.
func (s *Store) ExecBatch(ctx context.Context, query string, argSets [][]any) error {
	return s.run(ctx, "exec_batch", func(db *sql.DB) error {
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		stmt, err := tx.PrepareContext(ctx, query)
		if err != nil {
			tx.Rollback()
			return err
		}
		defer stmt.Close()
		for _, args := range argSets {
			if _, err := stmt.ExecContext(ctx, args...); err != nil {
				tx.Rollback()
				return err
			}
		}
		return tx.Commit()
	})
}

// Transact runs fn inside a transaction, committing on success and
// rolling back on any error. The connection-failure retry covers the
// whole transaction: a link drop mid-sequence rolls everything back and
// reruns fn once on a fresh connection.
func (s *Store) Transact(ctx context.Context, fn func(*sql.Tx) error) error {
	return s.run(ctx, "transact", func(db *sql.DB) error {
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		if err := fn(tx); err != nil {
			tx.Rollback()
			return err
		}
		return tx.Commit()
	})
}

// run implements the shared ensure-execute-retry sequence as an explicit
// bounded loop: at most one retry, and only for connection-class errors.
func (s *Store) run(ctx context.Context, op string, fn func(*sql.DB) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		if attempt > 0 {
			s.metrics.ObserveRetry(op)
		}
		db, err := s.ensureConn(ctx)
		if err != nil {
			lastErr = err
			continue
		}
		err = fn(db)
		if err == nil || !isConnErr(err) {
			return err
		}
		lastErr = err
		s.logger.Warn("database operation hit a connection failure", "op", op, "error", err)
		s.dropConn("operation_failed")
	}
	s.metrics.ObserveFailure(op)
	return fmt.Errorf("store: %s failed after reconnect: %w", op, lastErr)
}

// ensureConn returns a live handle, reopening it when missing or dead.
// Caller holds the mutex.
func (s *Store) ensureConn(ctx context.Context) (*sql.DB, error) {
	if s.db != nil {
		if err := s.db.PingContext(ctx); err == nil {
			return s.db, nil
		}
		s.dropConn("ping_failed")
	}
	s.metrics.ObserveReconnect("reopen")
	db, err := s.open()
	if err != nil {
		return nil, fmt.Errorf("store: reconnect: %w", err)
	}
	s.db = db
	return db, nil
}

func (s *Store) dropConn(reason string) {
	if s.db != nil {
		s.db.Close()
		s.db = nil
	}
	s.logger.Info("database handle dropped", "reason", reason)
}

// isConnErr reports whether err looks like a broken link rather than a
// statement-level failure. Statement errors (constraint violations, bad
// SQL, no rows) must never trigger a reconnect.
func isConnErr(err error) bool {
	if err == nil || errors.Is(err, sql.ErrNoRows) {
		return false
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	if errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.EPIPE) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return pgconn.SafeToRetry(err)
}

// IsNoRows reports whether err marks an empty fetch-one result.
func IsNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// IsForeignKeyViolation reports whether err is a Postgres foreign-key
// violation (SQLSTATE 23503), e.g. billing an appointment that does not
// exist. Surfaced verbatim to callers, never pre-validated.
func IsForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}
