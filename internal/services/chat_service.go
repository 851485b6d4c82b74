// internal/services/chat_service.go
package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/awingconnect/license-server/internal/database"
	"github.com/awingconnect/license-server/internal/models"
	"github.com/awingconnect/license-server/internal/utils"
)

// onlineWindow is how recently a license must have been checked for its
// user to count as online.
const onlineWindow = 5 * time.Minute

type ChatService struct {
	db     *gorm.DB
	logger logrus.FieldLogger
	now    Clock
}

type SendMessageRequest struct {
	LicenseKey *string           `json:"license_key" validate:"omitempty,max=64"`
	HWID       *string           `json:"hwid" validate:"omitempty,max=256"`
	Message    string            `json:"message" validate:"required,max=4000"`
	SenderType models.SenderType `json:"sender_type" validate:"required,oneof=user admin"`
}

type MessageFilter struct {
	LicenseKey string
	HWID       string
}

type ActiveUser struct {
	LicenseKey  string    `json:"license_key"`
	HWID        string    `json:"hwid"`
	LastSeen    time.Time `json:"last_seen"`
	IsOnline    bool      `json:"is_online"`
	UnreadCount int64     `json:"unread_count"`
	LastMessage *string   `json:"last_message"`
}

func NewChatService(db *gorm.DB, logger logrus.FieldLogger) *ChatService {
	return &ChatService{
		db:     db,
		logger: logger,
		now:    SystemClock,
	}
}

// SendMessage stores a message. A referenced license must exist; the check
// and the insert share one transaction.
func (s *ChatService) SendMessage(ctx context.Context, req *SendMessageRequest) (*models.ChatMessage, error) {
	// Validate request
	if err := utils.ValidateStruct(req); err != nil {
		return nil, validationFailed(err)
	}

	message := &models.ChatMessage{
		LicenseKey: nonEmpty(req.LicenseKey),
		HWID:       nonEmpty(req.HWID),
		Message:    req.Message,
		SenderType: req.SenderType,
		Timestamp:  s.now(),
	}

	err := database.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		if message.LicenseKey != nil {
			var count int64
			if err := tx.Model(&models.License{}).Where("key = ?", *message.LicenseKey).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return ErrLicenseNotFound
			}
		}
		return tx.Create(message).Error
	})
	if err != nil {
		if errors.Is(err, ErrLicenseNotFound) {
			return nil, err
		}
		return nil, storageError("store message", err, nil)
	}

	s.logger.WithFields(logrus.Fields{
		"message_id":  message.ID,
		"license_key": message.LicenseKey,
		"sender_type": message.SenderType,
	}).Debug("Chat message stored")
	return message, nil
}

// GetMessages lists messages oldest first. A license key filter wins over
// an hwid filter; no filter returns every message.
func (s *ChatService) GetMessages(ctx context.Context, filter MessageFilter) ([]models.ChatMessage, error) {
	query := s.db.WithContext(ctx).Model(&models.ChatMessage{})
	switch {
	case filter.LicenseKey != "":
		query = query.Where("license_key = ?", filter.LicenseKey)
	case filter.HWID != "":
		query = query.Where("hwid = ?", filter.HWID)
	}

	messages := []models.ChatMessage{}
	if err := query.Order("timestamp ASC, id ASC").Find(&messages).Error; err != nil {
		return nil, storageError("list messages", err, nil)
	}
	return messages, nil
}

func (s *ChatService) MarkRead(ctx context.Context, id uint) error {
	result := s.db.WithContext(ctx).Model(&models.ChatMessage{}).
		Where("id = ?", id).
		Update("is_read", true)
	if result.Error != nil {
		return storageError("mark message read", result.Error, nil)
	}
	if result.RowsAffected == 0 {
		return ErrMessageNotFound
	}
	return nil
}

// MarkLicenseMessagesRead marks every user-sent message of a license read.
func (s *ChatService) MarkLicenseMessagesRead(ctx context.Context, licenseKey string) (int64, error) {
	if strings.TrimSpace(licenseKey) == "" {
		return 0, ErrLicenseKeyRequired
	}

	result := s.db.WithContext(ctx).Model(&models.ChatMessage{}).
		Where("license_key = ? AND sender_type = ?", licenseKey, models.SenderTypeUser).
		Update("is_read", true)
	if result.Error != nil {
		return 0, storageError("mark messages read", result.Error, nil)
	}
	return result.RowsAffected, nil
}

// ActiveUsers lists bound, active licenses with their chat state, those
// with unread messages first and then the most recently seen.
func (s *ChatService) ActiveUsers(ctx context.Context) ([]ActiveUser, error) {
	db := s.db.WithContext(ctx)

	var licenses []models.License
	if err := db.Where("is_active = ? AND hwid IS NOT NULL AND hwid <> ''", true).Find(&licenses).Error; err != nil {
		return nil, storageError("list bound licenses", err, nil)
	}

	var unreadRows []struct {
		LicenseKey string
		Unread     int64
	}
	if err := db.Model(&models.ChatMessage{}).
		Select("license_key, COUNT(*) AS unread").
		Where("sender_type = ? AND is_read = ? AND license_key IS NOT NULL", models.SenderTypeUser, false).
		Group("license_key").
		Scan(&unreadRows).Error; err != nil {
		return nil, storageError("count unread messages", err, nil)
	}
	unread := make(map[string]int64, len(unreadRows))
	for _, row := range unreadRows {
		unread[row.LicenseKey] = row.Unread
	}

	var lastRows []struct {
		LicenseKey string
		Message    string
	}
	if err := db.Raw(`SELECT m.license_key, m.message FROM chat_messages m
		WHERE m.id = (SELECT MAX(id) FROM chat_messages WHERE license_key = m.license_key)`).
		Scan(&lastRows).Error; err != nil {
		return nil, storageError("load last messages", err, nil)
	}
	lastMessage := make(map[string]string, len(lastRows))
	for _, row := range lastRows {
		lastMessage[row.LicenseKey] = row.Message
	}

	now := s.now()
	users := make([]ActiveUser, 0, len(licenses))
	for _, license := range licenses {
		user := ActiveUser{
			LicenseKey:  license.Key,
			HWID:        license.HWID,
			LastSeen:    now,
			UnreadCount: unread[license.Key],
		}
		if license.LastUsed != nil {
			user.LastSeen = license.LastUsed.UTC()
			user.IsOnline = now.Sub(*license.LastUsed) < onlineWindow
		}
		if msg, ok := lastMessage[license.Key]; ok {
			user.LastMessage = &msg
		}
		users = append(users, user)
	}

	sort.SliceStable(users, func(i, j int) bool {
		if users[i].UnreadCount != users[j].UnreadCount {
			return users[i].UnreadCount > users[j].UnreadCount
		}
		return users[i].LastSeen.After(users[j].LastSeen)
	})
	return users, nil
}

func nonEmpty(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	return s
}
