// internal/services/license_service.go
package services

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/awingconnect/license-server/internal/database"
	"github.com/awingconnect/license-server/internal/models"
	"github.com/awingconnect/license-server/internal/utils"
)

const (
	defaultDaysValid = 30
	maxDaysValid     = 36500

	// maxKeyAttempts bounds retries after a generated key collides.
	maxKeyAttempts = 5
)

// LicenseService is the license registry.
type LicenseService struct {
	db     *gorm.DB
	logger logrus.FieldLogger
	now    Clock
	newKey func() (string, error)
}

type CreateLicenseRequest struct {
	DaysValid     *int    `json:"days_valid"`
	CustomerName  *string `json:"customer_name" validate:"omitempty,max=255"`
	CustomerEmail *string `json:"customer_email" validate:"omitempty,email,max=255"`
}

type CreateLicenseResponse struct {
	LicenseKey   string    `json:"license_key"`
	CreatedAt    time.Time `json:"created_at"`
	ExpiresAt    time.Time `json:"expires_at"`
	CustomerName *string   `json:"customer_name"`
	DaysValid    int       `json:"days_valid"`
}

type UpdateLicenseRequest struct {
	IsActive  *bool `json:"is_active"`
	DaysToAdd *int  `json:"days_to_add"`
}

type LicenseFilter struct {
	utils.PaginationParams
	ActiveOnly bool
}

// LicenseView is a license as listed, with expiry evaluated at read time.
type LicenseView struct {
	models.License
	IsExpired bool `json:"is_expired"`
}

var licenseSortFields = []string{"created_at", "expires_at", "last_used", "used_count", "customer_name"}

func NewLicenseService(db *gorm.DB, logger logrus.FieldLogger) *LicenseService {
	return &LicenseService{
		db:     db,
		logger: logger,
		now:    SystemClock,
		newKey: utils.GenerateLicenseKey,
	}
}

func (s *LicenseService) CreateLicense(ctx context.Context, req *CreateLicenseRequest) (*CreateLicenseResponse, error) {
	// Validate request
	if err := utils.ValidateStruct(req); err != nil {
		return nil, validationFailed(err)
	}

	days := defaultDaysValid
	if req.DaysValid != nil {
		days = *req.DaysValid
	}
	if days < 1 || days > maxDaysValid {
		return nil, ErrDaysOutOfRange
	}

	now := s.now()
	license := &models.License{
		CreatedAt:     now,
		ExpiresAt:     now.Add(time.Duration(days) * 24 * time.Hour),
		IsActive:      true,
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
	}

	for attempt := 1; ; attempt++ {
		key, err := s.newKey()
		if err != nil {
			return nil, err
		}
		license.Key = key

		err = database.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
			return tx.Create(license).Error
		})
		if err == nil {
			break
		}
		if errors.Is(err, database.ErrDuplicateKey) && attempt < maxKeyAttempts {
			s.logger.WithField("attempt", attempt).Warn("Generated license key collided, retrying")
			continue
		}
		return nil, storageError("create license", err, nil)
	}

	s.logger.WithFields(logrus.Fields{
		"license_key": license.Key,
		"days_valid":  days,
	}).Info("License created")

	return &CreateLicenseResponse{
		LicenseKey:   license.Key,
		CreatedAt:    license.CreatedAt,
		ExpiresAt:    license.ExpiresAt,
		CustomerName: license.CustomerName,
		DaysValid:    days,
	}, nil
}

func (s *LicenseService) GetLicense(ctx context.Context, key string) (*models.License, error) {
	var license models.License
	if err := s.db.WithContext(ctx).Where("key = ?", key).First(&license).Error; err != nil {
		return nil, storageError("load license", err, ErrLicenseNotFound)
	}
	return &license, nil
}

func (s *LicenseService) ListLicenses(ctx context.Context, filter LicenseFilter) ([]LicenseView, int64, error) {
	scoped := func() *gorm.DB {
		query := s.db.WithContext(ctx).Model(&models.License{})
		if filter.ActiveOnly {
			query = query.Where("is_active = ?", true)
		}
		return query
	}

	var total int64
	if err := scoped().Count(&total).Error; err != nil {
		return nil, 0, storageError("count licenses", err, nil)
	}

	var licenses []models.License
	query := utils.ApplySort(scoped(), filter.PaginationParams, licenseSortFields, "created_at")
	query = utils.ApplyPagination(query.Order("key ASC"), filter.PaginationParams)
	if err := query.Find(&licenses).Error; err != nil {
		return nil, 0, storageError("list licenses", err, nil)
	}

	now := s.now()
	views := make([]LicenseView, len(licenses))
	for i := range licenses {
		views[i] = LicenseView{
			License:   licenses[i],
			IsExpired: licenses[i].IsExpiredAt(now),
		}
	}
	return views, total, nil
}

// UpdateLicense toggles the active flag and extends expiry by a positive
// number of days. Non-positive extensions are ignored.
func (s *LicenseService) UpdateLicense(ctx context.Context, key string, req *UpdateLicenseRequest) error {
	err := database.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		var license models.License
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("key = ?", key).First(&license).Error; err != nil {
			return err
		}

		updates := map[string]interface{}{}
		if req.IsActive != nil {
			updates["is_active"] = *req.IsActive
		}
		if req.DaysToAdd != nil && *req.DaysToAdd > 0 {
			days := *req.DaysToAdd
			if days > maxDaysValid {
				return invalidInput("days_to_add must be at most %d", maxDaysValid)
			}
			updates["expires_at"] = license.ExpiresAt.Add(time.Duration(days) * 24 * time.Hour)
		}
		if len(updates) == 0 {
			return nil
		}

		return tx.Model(&models.License{}).Where("key = ?", key).Updates(updates).Error
	})
	if err != nil {
		if errors.Is(err, ErrInvalidInput) {
			return err
		}
		return storageError("update license", err, ErrLicenseNotFound)
	}

	s.logger.WithFields(logrus.Fields{
		"license_key": key,
		"is_active":   req.IsActive,
		"days_to_add": req.DaysToAdd,
	}).Info("License updated")
	return nil
}

func (s *LicenseService) DeleteLicense(ctx context.Context, key string) error {
	result := s.db.WithContext(ctx).Where("key = ?", key).Delete(&models.License{})
	if result.Error != nil {
		return storageError("delete license", result.Error, nil)
	}
	if result.RowsAffected == 0 {
		return ErrLicenseNotFound
	}

	s.logger.WithField("license_key", key).Info("License deleted")
	return nil
}

// ResetBinding clears the hardware binding so the next check binds again.
// It is an operator action and is not reachable over HTTP.
func (s *LicenseService) ResetBinding(ctx context.Context, key string) error {
	result := s.db.WithContext(ctx).Model(&models.License{}).
		Where("key = ?", key).
		Update("hwid", "")
	if result.Error != nil {
		return storageError("reset binding", result.Error, nil)
	}
	if result.RowsAffected == 0 {
		return ErrLicenseNotFound
	}

	s.logger.WithField("license_key", key).Warn("License hardware binding reset")
	return nil
}
