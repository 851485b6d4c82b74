package services

import (
	"io"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/awingconnect/license-server/internal/config"
	"github.com/awingconnect/license-server/internal/database"
	"github.com/awingconnect/license-server/internal/models"
	"github.com/awingconnect/license-server/internal/utils"
)

var testSecret = strings.Repeat("k", 40)

var licenseKeyPattern = regexp.MustCompile(`^AWC-[0-9A-F]{12}-[0-9A-F]{8}$`)

// newTestDB opens a migrated sqlite database in a temporary directory.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := database.Initialize(config.DatabaseConfig{
		Driver:      "sqlite",
		Path:        filepath.Join(t.TempDir(), "licenses.db"),
		LockTimeout: 5 * time.Second,
		LogLevel:    "silent",
	})
	require.NoError(t, err)
	require.NoError(t, database.RunMigrations(db))
	t.Cleanup(func() { database.Close(db) })
	return db
}

func testLogger() logrus.FieldLogger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func testHasher() *utils.PasswordHasher {
	return utils.NewPasswordHasher(1024, 1, 1)
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func seedLicense(t *testing.T, db *gorm.DB, license models.License) models.License {
	t.Helper()
	require.NoError(t, db.Create(&license).Error)
	return license
}

func reloadLicense(t *testing.T, db *gorm.DB, key string) models.License {
	t.Helper()
	var license models.License
	require.NoError(t, db.Where("key = ?", key).First(&license).Error)
	return license
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }
func boolPtr(b bool) *bool    { return &b }
