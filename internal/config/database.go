// internal/config/database.go
package config

import (
	"fmt"
	"strings"
)

// DSN renders the connection string for the configured driver. Both variants
// carry the lock-wait bound so contention waits briefly instead of failing
// immediately or hanging.
func (d *DatabaseConfig) DSN() string {
	lockMillis := d.LockTimeout.Milliseconds()

	if d.Driver == "postgres" {
		return fmt.Sprintf(
			"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s lock_timeout=%d",
			d.Host, d.Port, d.User, d.Password, d.Database, d.SSLMode, lockMillis,
		)
	}

	sep := "?"
	if strings.Contains(d.Path, "?") {
		sep = "&"
	}
	return fmt.Sprintf(
		"%s%s_busy_timeout=%d&_journal_mode=WAL&_foreign_keys=on&_txlock=immediate",
		d.Path, sep, lockMillis,
	)
}
