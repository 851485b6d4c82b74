// internal/database/errors.go
package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"gorm.io/gorm"
)

var (
	// ErrStorageBusy means the lock wait bound elapsed under contention.
	ErrStorageBusy = errors.New("storage busy")
	// ErrDuplicateKey means a uniqueness constraint rejected the write.
	ErrDuplicateKey = errors.New("duplicate key")
)

// postgres SQLSTATE codes
const (
	pgUniqueViolation      = "23505"
	pgLockNotAvailable     = "55P03"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
)

// Classify maps driver specific failures onto ErrStorageBusy and
// ErrDuplicateKey, keeping the original error in the chain. Other errors,
// including gorm.ErrRecordNotFound, pass through unchanged.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrStorageBusy) || errors.Is(err, ErrDuplicateKey) {
		return err
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %v", ErrDuplicateKey, err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrStorageBusy, err)
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		switch {
		case sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked:
			return fmt.Errorf("%w: %v", ErrStorageBusy, err)
		case sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey:
			return fmt.Errorf("%w: %v", ErrDuplicateKey, err)
		}
		return err
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return fmt.Errorf("%w: %v", ErrDuplicateKey, err)
		case pgLockNotAvailable, pgSerializationFailure, pgDeadlockDetected:
			return fmt.Errorf("%w: %v", ErrStorageBusy, err)
		}
	}

	return err
}
