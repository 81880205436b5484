package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// ErrBusy is returned when a write still finds the database locked by another
// connection after its last retry. The driver error stays in the chain.
var ErrBusy = errors.New("store: database busy")

// writeBackoff is the wait before each retry of a write that found the
// database locked.
var writeBackoff = []time.Duration{50 * time.Millisecond, 150 * time.Millisecond, 400 * time.Millisecond}

type busyError struct{ err error }

func (e *busyError) Error() string   { return "store: database busy: " + e.err.Error() }
func (e *busyError) Unwrap() []error { return []error{ErrBusy, e.err} }

// markBusy wraps SQLITE_BUSY and SQLITE_LOCKED driver errors so callers can
// test for them with errors.Is(err, ErrBusy).
func markBusy(err error) error {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return err
	}
	switch se.Code() & 0xff {
	case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
		return &busyError{err: err}
	}
	return err
}

// write runs fn in a transaction. A transaction that finds the database
// locked is rolled back and run again after each writeBackoff step.
func (s *Store) write(ctx context.Context, fn func(*sql.Tx) error) error {
	for attempt := 0; ; attempt++ {
		err := markBusy(s.writeOnce(ctx, fn))
		if err == nil || !errors.Is(err, ErrBusy) || attempt == len(writeBackoff) {
			return err
		}

		t := time.NewTimer(writeBackoff[attempt])
		select {
		case <-ctx.Done():
			t.Stop()
			return fmt.Errorf("store: retry write: %w", ctx.Err())
		case <-t.C:
		}
	}
}

func (s *Store) writeOnce(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit: %w", err)
	}
	return nil
}
