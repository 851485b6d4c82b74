package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/awingconnect/license-server/internal/models"
)

func newChatFixture(t *testing.T) (*ChatService, *gorm.DB, *fakeClock) {
	db := newTestDB(t)
	clock := newFakeClock()
	svc := NewChatService(db, testLogger())
	svc.now = clock.Now
	return svc, db, clock
}

func boundLicense(key, hwid string, lastUsed time.Time) models.License {
	return models.License{
		Key:       key,
		CreatedAt: lastUsed.Add(-time.Hour),
		ExpiresAt: lastUsed.Add(30 * 24 * time.Hour),
		IsActive:  true,
		HWID:      hwid,
		UsedCount: 1,
		LastUsed:  &lastUsed,
	}
}

func userMessage(key, text string) *SendMessageRequest {
	return &SendMessageRequest{
		LicenseKey: strPtr(key),
		HWID:       strPtr("HW-" + key[len(key)-2:]),
		Message:    text,
		SenderType: models.SenderTypeUser,
	}
}

func TestSendMessageRequiresKnownLicense(t *testing.T) {
	svc, db, _ := newChatFixture(t)
	ctx := context.Background()

	_, err := svc.SendMessage(ctx, userMessage("AWC-FFFFFFFFFFFF-FFFFFFFF", "hello"))
	assert.ErrorIs(t, err, ErrLicenseNotFound)

	var count int64
	require.NoError(t, db.Model(&models.ChatMessage{}).Count(&count).Error)
	assert.EqualValues(t, 0, count)

	// Messages without a license reference are accepted.
	msg, err := svc.SendMessage(ctx, &SendMessageRequest{
		LicenseKey: strPtr(""),
		Message:    "broadcast",
		SenderType: models.SenderTypeAdmin,
	})
	require.NoError(t, err)
	assert.Nil(t, msg.LicenseKey)
	assert.False(t, msg.IsRead)

	_, err = svc.SendMessage(ctx, &SendMessageRequest{Message: "x", SenderType: "robot"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestGetMessagesOrderAndFilters(t *testing.T) {
	svc, db, clock := newChatFixture(t)
	ctx := context.Background()
	seedLicense(t, db, boundLicense("AWC-000000000001-00000001", "HW-01", clock.Now()))
	seedLicense(t, db, boundLicense("AWC-000000000002-00000002", "HW-02", clock.Now()))

	for _, text := range []string{"first", "second"} {
		_, err := svc.SendMessage(ctx, userMessage("AWC-000000000001-00000001", text))
		require.NoError(t, err)
	}
	clock.Advance(time.Second)
	_, err := svc.SendMessage(ctx, &SendMessageRequest{
		LicenseKey: strPtr("AWC-000000000001-00000001"),
		Message:    "reply",
		SenderType: models.SenderTypeAdmin,
	})
	require.NoError(t, err)
	_, err = svc.SendMessage(ctx, userMessage("AWC-000000000002-00000002", "other"))
	require.NoError(t, err)

	messages, err := svc.GetMessages(ctx, MessageFilter{LicenseKey: "AWC-000000000001-00000001"})
	require.NoError(t, err)
	require.Len(t, messages, 3)
	assert.Equal(t, "first", messages[0].Message)
	assert.Equal(t, "second", messages[1].Message)
	assert.Equal(t, "reply", messages[2].Message)

	messages, err = svc.GetMessages(ctx, MessageFilter{HWID: "HW-02"})
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, "other", messages[0].Message)

	messages, err = svc.GetMessages(ctx, MessageFilter{})
	require.NoError(t, err)
	assert.Len(t, messages, 4)

	messages, err = svc.GetMessages(ctx, MessageFilter{LicenseKey: "AWC-000000000009-00000009"})
	require.NoError(t, err)
	assert.NotNil(t, messages)
	assert.Empty(t, messages)
}

func TestMarkRead(t *testing.T) {
	svc, db, clock := newChatFixture(t)
	ctx := context.Background()
	key := "AWC-000000000001-00000001"
	seedLicense(t, db, boundLicense(key, "HW-01", clock.Now()))

	first, err := svc.SendMessage(ctx, userMessage(key, "one"))
	require.NoError(t, err)
	_, err = svc.SendMessage(ctx, userMessage(key, "two"))
	require.NoError(t, err)
	_, err = svc.SendMessage(ctx, &SendMessageRequest{LicenseKey: strPtr(key), Message: "ack", SenderType: models.SenderTypeAdmin})
	require.NoError(t, err)

	require.NoError(t, svc.MarkRead(ctx, first.ID))
	assert.ErrorIs(t, svc.MarkRead(ctx, 9999), ErrMessageNotFound)

	marked, err := svc.MarkLicenseMessagesRead(ctx, key)
	require.NoError(t, err)
	assert.EqualValues(t, 2, marked)

	var unread int64
	require.NoError(t, db.Model(&models.ChatMessage{}).Where("is_read = ?", false).Count(&unread).Error)
	assert.EqualValues(t, 1, unread, "admin messages are left untouched")

	_, err = svc.MarkLicenseMessagesRead(ctx, "  ")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestActiveUsers(t *testing.T) {
	svc, db, clock := newChatFixture(t)
	ctx := context.Background()
	now := clock.Now()

	quiet := seedLicense(t, db, boundLicense("AWC-000000000001-00000001", "HW-01", now.Add(-time.Minute)))
	stale := seedLicense(t, db, boundLicense("AWC-000000000002-00000002", "HW-02", now.Add(-time.Hour)))
	chatty := seedLicense(t, db, boundLicense("AWC-000000000003-00000003", "HW-03", now.Add(-2*time.Hour)))

	disabled := boundLicense("AWC-000000000004-00000004", "HW-04", now)
	disabled.IsActive = false
	seedLicense(t, db, disabled)
	seedLicense(t, db, models.License{
		Key:       "AWC-000000000005-00000005",
		CreatedAt: now,
		ExpiresAt: now.Add(time.Hour),
		IsActive:  true,
	})

	for _, text := range []string{"help", "anyone?"} {
		_, err := svc.SendMessage(ctx, userMessage(chatty.Key, text))
		require.NoError(t, err)
	}
	_, err := svc.SendMessage(ctx, userMessage(stale.Key, "ping"))
	require.NoError(t, err)
	_, err = svc.MarkLicenseMessagesRead(ctx, stale.Key)
	require.NoError(t, err)

	users, err := svc.ActiveUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 3)

	assert.Equal(t, chatty.Key, users[0].LicenseKey)
	assert.EqualValues(t, 2, users[0].UnreadCount)
	require.NotNil(t, users[0].LastMessage)
	assert.Equal(t, "anyone?", *users[0].LastMessage)
	assert.False(t, users[0].IsOnline)

	assert.Equal(t, quiet.Key, users[1].LicenseKey)
	assert.True(t, users[1].IsOnline)
	assert.Nil(t, users[1].LastMessage)
	assert.Equal(t, "HW-01", users[1].HWID)

	assert.Equal(t, stale.Key, users[2].LicenseKey)
	assert.EqualValues(t, 0, users[2].UnreadCount)
	require.NotNil(t, users[2].LastMessage)
	assert.Equal(t, "ping", *users[2].LastMessage)
}
