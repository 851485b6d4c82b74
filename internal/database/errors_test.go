package database

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/awingconnect/license-server/internal/config"
	"github.com/awingconnect/license-server/internal/models"
)

func openSQLite(t *testing.T, path string, lockTimeout time.Duration) *gorm.DB {
	t.Helper()
	db, err := Initialize(config.DatabaseConfig{
		Driver:      "sqlite",
		Path:        path,
		LockTimeout: lockTimeout,
		LogLevel:    "silent",
	})
	require.NoError(t, err)
	t.Cleanup(func() { Close(db) })
	return db
}

func testLicense(key string) *models.License {
	now := time.Now().UTC()
	return &models.License{
		Key:       key,
		CreatedAt: now,
		ExpiresAt: now.Add(24 * time.Hour),
		IsActive:  true,
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want error
	}{
		{"sqlite busy", sqlite3.Error{Code: sqlite3.ErrBusy}, ErrStorageBusy},
		{"sqlite locked", sqlite3.Error{Code: sqlite3.ErrLocked}, ErrStorageBusy},
		{"sqlite unique", sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintUnique}, ErrDuplicateKey},
		{"sqlite primary key", sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintPrimaryKey}, ErrDuplicateKey},
		{"gorm duplicated key", gorm.ErrDuplicatedKey, ErrDuplicateKey},
		{"postgres unique", &pgconn.PgError{Code: "23505"}, ErrDuplicateKey},
		{"postgres lock timeout", &pgconn.PgError{Code: "55P03"}, ErrStorageBusy},
		{"postgres serialization", &pgconn.PgError{Code: "40001"}, ErrStorageBusy},
		{"postgres deadlock", &pgconn.PgError{Code: "40P01"}, ErrStorageBusy},
		{"deadline", fmt.Errorf("query: %w", context.DeadlineExceeded), ErrStorageBusy},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.ErrorIs(t, Classify(tc.err), tc.want)
		})
	}

	assert.NoError(t, Classify(nil))
	assert.Equal(t, gorm.ErrRecordNotFound, Classify(gorm.ErrRecordNotFound))

	other := &pgconn.PgError{Code: "23502"}
	assert.Equal(t, error(other), Classify(other))

	once := Classify(sqlite3.Error{Code: sqlite3.ErrBusy})
	assert.Equal(t, once, Classify(once), "already classified errors are not wrapped again")
}

func TestLockContentionSurfacesAsStorageBusy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "contention.db")
	holder := openSQLite(t, path, 50*time.Millisecond)
	require.NoError(t, RunMigrations(holder))
	contender := openSQLite(t, path, 50*time.Millisecond)

	tx := holder.Begin()
	require.NoError(t, tx.Error)
	require.NoError(t, tx.Create(testLicense("AWC-000000000001-00000001")).Error)

	start := time.Now()
	err := WithTransaction(context.Background(), contender, func(db *gorm.DB) error {
		return db.Create(testLicense("AWC-000000000002-00000002")).Error
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStorageBusy)
	assert.Less(t, time.Since(start), 5*time.Second, "lock wait is bounded")

	require.NoError(t, tx.Rollback().Error)

	err = WithTransaction(context.Background(), contender, func(db *gorm.DB) error {
		return db.Create(testLicense("AWC-000000000002-00000002")).Error
	})
	require.NoError(t, err)

	var count int64
	require.NoError(t, contender.Model(&models.License{}).Count(&count).Error)
	assert.EqualValues(t, 1, count, "the busy attempt left nothing behind")
}

func TestWithTransactionClassifiesDuplicateKey(t *testing.T) {
	db := openSQLite(t, filepath.Join(t.TempDir(), "dup.db"), time.Second)
	require.NoError(t, RunMigrations(db))

	require.NoError(t, db.Create(testLicense("AWC-00000000000A-0000000A")).Error)

	err := WithTransaction(context.Background(), db, func(tx *gorm.DB) error {
		return tx.Create(testLicense("AWC-00000000000A-0000000A")).Error
	})
	assert.ErrorIs(t, err, ErrDuplicateKey)
}

func TestWithTransactionRollsBackOnError(t *testing.T) {
	db := openSQLite(t, filepath.Join(t.TempDir(), "rollback.db"), time.Second)
	require.NoError(t, RunMigrations(db))

	failure := errors.New("boom")
	err := WithTransaction(context.Background(), db, func(tx *gorm.DB) error {
		require.NoError(t, tx.Create(testLicense("AWC-00000000000B-0000000B")).Error)
		return failure
	})
	assert.ErrorIs(t, err, failure)

	var count int64
	require.NoError(t, db.Model(&models.License{}).Count(&count).Error)
	assert.Zero(t, count)
}
