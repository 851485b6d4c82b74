// internal/services/activation_service.go
package services

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/awingconnect/license-server/internal/metrics"
	"github.com/awingconnect/license-server/internal/models"
	"github.com/awingconnect/license-server/internal/utils"
)

// maxBindAttempts bounds how often a check re-reads a license whose state
// changed between the read and the conditional update.
const maxBindAttempts = 3

// ActivationService enforces the one-time hardware binding of a license.
type ActivationService struct {
	db     *gorm.DB
	logger logrus.FieldLogger
	now    Clock
}

type CheckLicenseRequest struct {
	Key  string `json:"key" validate:"required,max=64"`
	HWID string `json:"hwid" validate:"required,hwid"`
}

type LicenseStatus struct {
	Status        string    `json:"status"`
	ExpiresAt     time.Time `json:"expires_at"`
	CreatedAt     time.Time `json:"created_at"`
	CustomerName  *string   `json:"customer_name"`
	DaysRemaining int       `json:"days_remaining"`
}

func NewActivationService(db *gorm.DB, logger logrus.FieldLogger) *ActivationService {
	return &ActivationService{
		db:     db,
		logger: logger,
		now:    SystemClock,
	}
}

// CheckLicense validates key for the device hwid. An unbound license is
// bound to hwid by a single conditional update, so among concurrent first
// activations exactly one device wins and the others see DeviceMismatch.
// Rejections never mutate the license.
func (s *ActivationService) CheckLicense(ctx context.Context, req *CheckLicenseRequest) (status *LicenseStatus, err error) {
	defer func() { metrics.LicenseChecks.WithLabelValues(checkResult(err)).Inc() }()

	if err := utils.ValidateStruct(req); err != nil {
		return nil, validationFailed(err)
	}

	db := s.db.WithContext(ctx)
	for attempt := 0; attempt < maxBindAttempts; attempt++ {
		var license models.License
		if err := db.Where("key = ?", req.Key).First(&license).Error; err != nil {
			return nil, storageError("load license", err, ErrLicenseNotFound)
		}

		now := s.now()
		if !license.IsActive {
			return nil, ErrLicenseInactive
		}
		if license.IsExpiredAt(now) {
			return nil, ErrLicenseExpired
		}

		var result *gorm.DB
		switch {
		case !license.IsBound():
			result = db.Model(&models.License{}).
				Where("key = ? AND (hwid IS NULL OR hwid = '') AND is_active = ? AND expires_at >= ?", req.Key, true, now).
				Updates(map[string]interface{}{
					"hwid":       req.HWID,
					"used_count": gorm.Expr("used_count + 1"),
					"last_used":  now,
				})
		case license.HWID != req.HWID:
			return nil, ErrDeviceMismatch
		default:
			result = db.Model(&models.License{}).
				Where("key = ? AND hwid = ? AND is_active = ? AND expires_at >= ?", req.Key, req.HWID, true, now).
				Updates(map[string]interface{}{
					"used_count": gorm.Expr("used_count + 1"),
					"last_used":  now,
				})
		}
		if result.Error != nil {
			return nil, storageError("record activation", result.Error, nil)
		}

		if result.RowsAffected == 1 {
			if !license.IsBound() {
				s.logger.WithFields(logrus.Fields{
					"license_key": license.Key,
					"hwid":        req.HWID,
				}).Info("License bound to device")
			}
			return &LicenseStatus{
				Status:        "valid",
				ExpiresAt:     license.ExpiresAt,
				CreatedAt:     license.CreatedAt,
				CustomerName:  license.CustomerName,
				DaysRemaining: daysRemaining(license.ExpiresAt, now),
			}, nil
		}

		// Another writer changed the row between the read and the update.
		s.logger.WithFields(logrus.Fields{
			"license_key": req.Key,
			"attempt":     attempt + 1,
		}).Debug("License changed concurrently, re-evaluating")
	}

	return nil, ErrStorageBusy
}

func daysRemaining(expiresAt, now time.Time) int {
	if !expiresAt.After(now) {
		return 0
	}
	return int(expiresAt.Sub(now) / (24 * time.Hour))
}

func checkResult(err error) string {
	switch {
	case err == nil:
		return metrics.ResultValid
	case errors.Is(err, ErrLicenseNotFound):
		return metrics.ResultNotFound
	case errors.Is(err, ErrLicenseInactive):
		return metrics.ResultInactive
	case errors.Is(err, ErrLicenseExpired):
		return metrics.ResultExpired
	case errors.Is(err, ErrDeviceMismatch):
		return metrics.ResultDeviceMismatch
	case errors.Is(err, ErrInvalidInput):
		return metrics.ResultInvalid
	default:
		return metrics.ResultError
	}
}
