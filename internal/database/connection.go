// internal/database/connection.go
package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/awingconnect/license-server/internal/config"
	"github.com/awingconnect/license-server/internal/models"
)

func Initialize(cfg config.DatabaseConfig) (*gorm.DB, error) {
	gormConfig := &gorm.Config{
		Logger:         newGormLogger(cfg.LogLevel),
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}

	var dialector gorm.Dialector
	switch cfg.Driver {
	case "postgres":
		dialector = postgres.Open(cfg.DSN())
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN())
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Get underlying sql.DB
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	// Configure connection pool. SQLite allows one writer at a time, so the
	// pool is a single connection and waiting happens in the pool and in
	// busy_timeout rather than in failed statements.
	if cfg.Driver == "sqlite" {
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
	} else {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
		sqlDB.SetConnMaxLifetime(time.Duration(cfg.MaxLifetime) * time.Second)
	}

	// Test connection
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"driver":       cfg.Driver,
		"lock_timeout": cfg.LockTimeout.String(),
	}).Info("Database connection established")
	return db, nil
}

func newGormLogger(level string) logger.Interface {
	logLevel := logger.Warn
	switch strings.ToLower(level) {
	case "silent":
		logLevel = logger.Silent
	case "error":
		logLevel = logger.Error
	case "info":
		logLevel = logger.Info
	}

	return logger.New(logrus.StandardLogger(), logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  logLevel,
		IgnoreRecordNotFoundError: true,
	})
}

func Close(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		logrus.WithError(err).Error("Error getting underlying sql.DB")
		return
	}

	if err := sqlDB.Close(); err != nil {
		logrus.WithError(err).Error("Error closing database connection")
	} else {
		logrus.Info("Database connection closed")
	}
}

// Ping checks that the store answers within ctx.
func Ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func RunMigrations(db *gorm.DB) error {
	logrus.Info("Running database migrations...")

	err := db.AutoMigrate(
		&models.License{},
		&models.AdminUser{},
		&models.AdminSession{},
		&models.ChatMessage{},
	)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	if err := createIndexes(db); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	logrus.Info("Database migrations completed")
	return nil
}

func createIndexes(db *gorm.DB) error {
	indexes := []string{
		// Active-user view and stats
		"CREATE INDEX IF NOT EXISTS idx_licenses_active_hwid ON licenses(is_active, hwid)",
		"CREATE INDEX IF NOT EXISTS idx_licenses_last_used ON licenses(last_used)",

		// Unread aggregation per license
		"CREATE INDEX IF NOT EXISTS idx_chat_messages_unread ON chat_messages(license_key, sender_type, is_read)",
	}

	for _, index := range indexes {
		if err := db.Exec(index).Error; err != nil {
			logrus.WithError(err).WithField("statement", index).Warn("Failed to create index")
			// Continue with other indexes instead of failing completely
		}
	}

	return nil
}

// SeedInitialAdmin creates the bootstrap account when no admin exists yet.
// It reports whether an account was created.
func SeedInitialAdmin(ctx context.Context, db *gorm.DB, username, passwordHash string) (bool, error) {
	created := false
	err := WithTransaction(ctx, db, func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.AdminUser{}).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}

		admin := &models.AdminUser{
			Username:     username,
			PasswordHash: passwordHash,
			CreatedAt:    time.Now().UTC(),
			IsActive:     true,
		}
		if err := tx.Create(admin).Error; err != nil {
			return err
		}
		created = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("seed initial admin: %w", err)
	}
	return created, nil
}

// WithTransaction runs fn inside one transaction. Any error or panic rolls
// the whole unit back; the returned error is classified.
func WithTransaction(ctx context.Context, db *gorm.DB, fn func(*gorm.DB) error) (err error) {
	tx := db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return Classify(tx.Error)
	}

	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback().Error; rbErr != nil && !errors.Is(rbErr, gorm.ErrInvalidTransaction) {
			logrus.WithError(rbErr).Warn("Transaction rollback failed")
		}
		return Classify(err)
	}

	return Classify(tx.Commit().Error)
}
