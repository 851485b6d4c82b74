// internal/services/errors.go
package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/awingconnect/license-server/internal/database"
)

// Not found
var (
	ErrLicenseNotFound = errors.New("license not found")
	ErrAdminNotFound   = errors.New("admin user not found")
	ErrMessageNotFound = errors.New("message not found")
)

// License state violations
var (
	ErrLicenseInactive = errors.New("license is inactive")
	ErrLicenseExpired  = errors.New("license has expired")
	ErrDeviceMismatch  = errors.New("license is bound to another device")
)

// Unauthorized
var (
	ErrMissingToken       = errors.New("missing bearer token")
	ErrInvalidToken       = errors.New("invalid token")
	ErrExpiredToken       = errors.New("token has expired")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Conflicts and bad input
var (
	ErrUsernameTaken    = errors.New("username already exists")
	ErrCannotDeleteSelf = errors.New("cannot delete your own account")
	ErrInvalidInput     = errors.New("invalid input")

	ErrDaysOutOfRange     = fmt.Errorf("%w: days_valid must be between 1 and %d", ErrInvalidInput, maxDaysValid)
	ErrLicenseKeyRequired = fmt.Errorf("%w: license_key is required", ErrInvalidInput)
)

// ErrStorageBusy is returned when the store's lock wait bound elapsed.
var ErrStorageBusy = database.ErrStorageBusy

// storageError classifies err and wraps it with the failing operation. A
// missing record becomes notFound when one is given.
func storageError(op string, err error, notFound error) error {
	if notFound != nil && errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound
	}
	return fmt.Errorf("%s: %w", op, database.Classify(err))
}

func invalidInput(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// validationFailed keeps the validator errors reachable with errors.As.
func validationFailed(err error) error {
	return fmt.Errorf("%w: %w", ErrInvalidInput, err)
}
