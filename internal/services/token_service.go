// internal/services/token_service.go
package services

import (
	"context"
	"crypto/hmac"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/awingconnect/license-server/internal/config"
	"github.com/awingconnect/license-server/internal/database"
	"github.com/awingconnect/license-server/internal/metrics"
	"github.com/awingconnect/license-server/internal/models"
	"github.com/awingconnect/license-server/internal/utils"
)

// TokenService issues and verifies admin bearer tokens of the form
// base64(HMAC-SHA256(secret, "username:ts")) + ":" + ts. The token does not
// carry the username; verification recovers it from the persisted session,
// so deleting the session revokes the token.
type TokenService struct {
	db         *gorm.DB
	secret     []byte
	ttl        time.Duration
	maxPerUser int
	logger     logrus.FieldLogger
	now        Clock
}

type IssuedToken struct {
	Token     string
	ExpiresAt time.Time
}

func NewTokenService(db *gorm.DB, cfg config.SessionConfig, logger logrus.FieldLogger) *TokenService {
	return &TokenService{
		db:         db,
		secret:     []byte(cfg.Secret),
		ttl:        cfg.TTL,
		maxPerUser: cfg.MaxPerUser,
		logger:     logger,
		now:        SystemClock,
	}
}

// IssueToken mints a token for username and persists its session. The
// user's oldest sessions beyond the per-user bound are evicted in the same
// transaction.
func (s *TokenService) IssueToken(ctx context.Context, username string) (*IssuedToken, error) {
	now := s.now()
	timestamp := strconv.FormatInt(now.Unix(), 10)
	token := utils.SignSession(s.secret, username, timestamp) + ":" + timestamp

	session := &models.AdminSession{
		SessionToken: token,
		Username:     username,
		CreatedAt:    now,
		ExpiresAt:    now.Add(s.ttl),
	}

	err := database.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		// Two logins within the same second produce the same token.
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "session_token"}},
			DoUpdates: clause.AssignmentColumns([]string{"username", "created_at", "expires_at"}),
		}).Create(session).Error
		if err != nil {
			return err
		}

		var ids []uint
		if err := tx.Model(&models.AdminSession{}).
			Where("username = ?", username).
			Order("created_at DESC, id DESC").
			Pluck("id", &ids).Error; err != nil {
			return err
		}
		if len(ids) <= s.maxPerUser {
			return nil
		}

		evicted := ids[s.maxPerUser:]
		if err := tx.Where("id IN ?", evicted).Delete(&models.AdminSession{}).Error; err != nil {
			return err
		}
		s.logger.WithFields(logrus.Fields{
			"username": username,
			"evicted":  len(evicted),
		}).Info("Evicted oldest admin sessions")
		return nil
	})
	if err != nil {
		return nil, storageError("persist session", err, nil)
	}

	return &IssuedToken{Token: token, ExpiresAt: session.ExpiresAt}, nil
}

// VerifyToken returns the username the token was issued to.
func (s *TokenService) VerifyToken(ctx context.Context, token string) (username string, err error) {
	defer func() { metrics.TokenVerifications.WithLabelValues(tokenResult(err)).Inc() }()

	if token == "" {
		return "", ErrMissingToken
	}

	parts := strings.Split(token, ":")
	if len(parts) != 2 {
		return "", ErrInvalidToken
	}
	signature, timestamp := parts[0], parts[1]

	db := s.db.WithContext(ctx)
	var session models.AdminSession
	if err := db.Where("session_token = ?", token).First(&session).Error; err != nil {
		return "", storageError("load session", err, ErrInvalidToken)
	}

	if s.now().After(session.ExpiresAt) {
		if err := db.Delete(&models.AdminSession{}, session.ID).Error; err != nil {
			s.logger.WithError(err).WithField("username", session.Username).Warn("Failed to delete expired session")
		}
		return "", ErrExpiredToken
	}

	expected := utils.SignSession(s.secret, session.Username, timestamp)
	if !hmac.Equal([]byte(signature), []byte(expected)) {
		return "", ErrInvalidToken
	}

	return session.Username, nil
}

// RevokeSession deletes every session of username.
func (s *TokenService) RevokeSession(ctx context.Context, username string) (int64, error) {
	result := s.db.WithContext(ctx).Where("username = ?", username).Delete(&models.AdminSession{})
	if result.Error != nil {
		return 0, storageError("revoke sessions", result.Error, nil)
	}
	return result.RowsAffected, nil
}

// PurgeExpired deletes sessions whose expiry has passed.
func (s *TokenService) PurgeExpired(ctx context.Context) (int64, error) {
	result := s.db.WithContext(ctx).Where("expires_at < ?", s.now()).Delete(&models.AdminSession{})
	if result.Error != nil {
		return 0, storageError("purge sessions", result.Error, nil)
	}
	return result.RowsAffected, nil
}

func tokenResult(err error) string {
	switch {
	case err == nil:
		return metrics.ResultValid
	case errors.Is(err, ErrMissingToken):
		return metrics.ResultMissing
	case errors.Is(err, ErrInvalidToken):
		return metrics.ResultInvalid
	case errors.Is(err, ErrExpiredToken):
		return metrics.ResultExpired
	default:
		return metrics.ResultError
	}
}
