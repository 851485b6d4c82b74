// internal/services/clock.go
package services

import "time"

// Clock returns the current time. Services store timestamps in UTC with
// microsecond precision so every supported store round-trips them exactly.
type Clock func() time.Time

func SystemClock() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
