// internal/services/admin_service.go
package services

import (
	"context"
	"errors"
	"sync"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/awingconnect/license-server/internal/database"
	"github.com/awingconnect/license-server/internal/models"
	"github.com/awingconnect/license-server/internal/utils"
)

// AdminService is the account store for admin operators.
type AdminService struct {
	db     *gorm.DB
	hasher *utils.PasswordHasher
	logger logrus.FieldLogger
	now    Clock

	dummyOnce sync.Once
	dummyHash string
}

type CreateAdminRequest struct {
	Username string `json:"username" validate:"required,username"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

func NewAdminService(db *gorm.DB, hasher *utils.PasswordHasher, logger logrus.FieldLogger) *AdminService {
	return &AdminService{
		db:     db,
		hasher: hasher,
		logger: logger,
		now:    SystemClock,
	}
}

func (s *AdminService) CreateAdmin(ctx context.Context, req *CreateAdminRequest) (*models.AdminUser, error) {
	// Validate request
	if err := utils.ValidateStruct(req); err != nil {
		return nil, validationFailed(err)
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	admin := &models.AdminUser{
		Username:     req.Username,
		PasswordHash: hash,
		CreatedAt:    s.now(),
		IsActive:     true,
	}

	// The unique index decides races between concurrent creates.
	if err := s.db.WithContext(ctx).Create(admin).Error; err != nil {
		if errors.Is(database.Classify(err), database.ErrDuplicateKey) {
			return nil, ErrUsernameTaken
		}
		return nil, storageError("create admin", err, nil)
	}

	s.logger.WithField("username", admin.Username).Info("Admin user created")
	return admin, nil
}

// Authenticate checks credentials of an active account. Unknown usernames
// still pay for a hash comparison. Hashes in an outdated format are
// upgraded after a successful check.
func (s *AdminService) Authenticate(ctx context.Context, username, password string) (*models.AdminUser, error) {
	db := s.db.WithContext(ctx)

	var admin models.AdminUser
	err := db.Where("username = ? AND is_active = ?", username, true).First(&admin).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.hasher.Verify(password, s.dummy())
			return nil, ErrInvalidCredentials
		}
		return nil, storageError("load admin", err, nil)
	}

	ok, needsRehash, err := s.hasher.Verify(password, admin.PasswordHash)
	if err != nil {
		s.logger.WithError(err).WithField("username", username).Error("Stored password hash is unreadable")
		return nil, ErrInvalidCredentials
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}

	if needsRehash {
		s.rehash(ctx, &admin, password)
	}
	return &admin, nil
}

func (s *AdminService) rehash(ctx context.Context, admin *models.AdminUser, password string) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		s.logger.WithError(err).Warn("Failed to rehash password")
		return
	}

	// Only replace the hash that was just verified.
	err = s.db.WithContext(ctx).Model(&models.AdminUser{}).
		Where("id = ? AND password_hash = ?", admin.ID, admin.PasswordHash).
		Update("password_hash", hash).Error
	if err != nil {
		s.logger.WithError(err).WithField("username", admin.Username).Warn("Failed to store upgraded password hash")
		return
	}

	admin.PasswordHash = hash
	s.logger.WithField("username", admin.Username).Info("Upgraded password hash")
}

func (s *AdminService) dummy() string {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = s.hasher.Hash("timing-equalisation")
	})
	return s.dummyHash
}

func (s *AdminService) ListAdmins(ctx context.Context) ([]models.AdminUser, error) {
	var admins []models.AdminUser
	if err := s.db.WithContext(ctx).Order("id ASC").Find(&admins).Error; err != nil {
		return nil, storageError("list admins", err, nil)
	}
	return admins, nil
}

// DeleteAdmin removes target and its sessions. An operator can never delete
// their own account.
func (s *AdminService) DeleteAdmin(ctx context.Context, actingUsername, target string) error {
	if actingUsername == target {
		return ErrCannotDeleteSelf
	}

	err := database.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		result := tx.Where("username = ?", target).Delete(&models.AdminUser{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrAdminNotFound
		}
		return tx.Where("username = ?", target).Delete(&models.AdminSession{}).Error
	})
	if err != nil {
		if errors.Is(err, ErrAdminNotFound) {
			return ErrAdminNotFound
		}
		return storageError("delete admin", err, nil)
	}

	s.logger.WithFields(logrus.Fields{
		"username":   target,
		"deleted_by": actingUsername,
	}).Info("Admin user deleted")
	return nil
}

// EnsureBootstrapAdmin creates the first account when the store has none.
func (s *AdminService) EnsureBootstrapAdmin(ctx context.Context, username, password string) (bool, error) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return false, err
	}
	return database.SeedInitialAdmin(ctx, s.db, username, hash)
}
