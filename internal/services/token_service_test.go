package services

import (
	"context"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/awingconnect/license-server/internal/config"
	"github.com/awingconnect/license-server/internal/models"
	"github.com/awingconnect/license-server/internal/utils"
)

func newTokenFixture(t *testing.T, maxPerUser int) (*TokenService, *gorm.DB, *fakeClock) {
	db := newTestDB(t)
	clock := newFakeClock()
	svc := NewTokenService(db, config.SessionConfig{
		Secret:     testSecret,
		TTL:        24 * time.Hour,
		MaxPerUser: maxPerUser,
	}, testLogger())
	svc.now = clock.Now
	return svc, db, clock
}

func sessionCount(t *testing.T, db *gorm.DB, username string) int64 {
	t.Helper()
	var count int64
	require.NoError(t, db.Model(&models.AdminSession{}).Where("username = ?", username).Count(&count).Error)
	return count
}

func TestIssueTokenShape(t *testing.T) {
	svc, _, clock := newTokenFixture(t, 5)

	issued, err := svc.IssueToken(context.Background(), "admin")
	require.NoError(t, err)

	parts := strings.Split(issued.Token, ":")
	require.Len(t, parts, 2)
	assert.Equal(t, strconv.FormatInt(clock.Now().Unix(), 10), parts[1])
	assert.Equal(t, utils.SignSession([]byte(testSecret), "admin", parts[1]), parts[0])
	assert.True(t, issued.ExpiresAt.Equal(clock.Now().Add(24*time.Hour)))
}

func TestVerifyTokenLifetime(t *testing.T) {
	svc, db, clock := newTokenFixture(t, 5)
	ctx := context.Background()

	issued, err := svc.IssueToken(ctx, "admin")
	require.NoError(t, err)

	username, err := svc.VerifyToken(ctx, issued.Token)
	require.NoError(t, err)
	assert.Equal(t, "admin", username)

	clock.Advance(24 * time.Hour)
	username, err = svc.VerifyToken(ctx, issued.Token)
	require.NoError(t, err, "still valid at the expiry instant")
	assert.Equal(t, "admin", username)

	clock.Advance(time.Second)
	_, err = svc.VerifyToken(ctx, issued.Token)
	assert.ErrorIs(t, err, ErrExpiredToken)
	assert.EqualValues(t, 0, sessionCount(t, db, "admin"), "expired session is deleted")

	_, err = svc.VerifyToken(ctx, issued.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyTokenAfterLogoutIsInvalid(t *testing.T) {
	svc, _, _ := newTokenFixture(t, 5)
	ctx := context.Background()

	issued, err := svc.IssueToken(ctx, "admin")
	require.NoError(t, err)

	revoked, err := svc.RevokeSession(ctx, "admin")
	require.NoError(t, err)
	assert.EqualValues(t, 1, revoked)

	_, err = svc.VerifyToken(ctx, issued.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyTokenRejectsForgeries(t *testing.T) {
	svc, db, clock := newTokenFixture(t, 5)
	ctx := context.Background()

	issued, err := svc.IssueToken(ctx, "admin")
	require.NoError(t, err)
	ts := strconv.FormatInt(clock.Now().Unix(), 10)

	// A stored row whose signature was minted with another secret.
	forged := utils.SignSession([]byte("not-the-server-secret-not-the-secret"), "admin", ts) + ":" + ts
	require.NoError(t, db.Create(&models.AdminSession{
		SessionToken: forged,
		Username:     "admin",
		CreatedAt:    clock.Now(),
		ExpiresAt:    clock.Now().Add(time.Hour),
	}).Error)

	signature := strings.Split(issued.Token, ":")[0]
	cases := []struct {
		token string
		want  error
	}{
		{"", ErrMissingToken},
		{"no-separator", ErrInvalidToken},
		{"a:b:c", ErrInvalidToken},
		{forged, ErrInvalidToken},
		{"AAAA" + issued.Token[4:], ErrInvalidToken},
		{signature + ":1", ErrInvalidToken},
	}
	for _, tc := range cases {
		_, err := svc.VerifyToken(ctx, tc.token)
		assert.ErrorIs(t, err, tc.want, tc.token)
	}
}

func TestVerifyTokenFailsAfterSecretRotation(t *testing.T) {
	svc, _, _ := newTokenFixture(t, 5)
	ctx := context.Background()

	issued, err := svc.IssueToken(ctx, "admin")
	require.NoError(t, err)

	svc.secret = []byte(strings.Repeat("r", 40))
	_, err = svc.VerifyToken(ctx, issued.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestIssueTokenEvictsOldestSessions(t *testing.T) {
	svc, db, clock := newTokenFixture(t, 3)
	ctx := context.Background()

	var tokens []string
	for i := 0; i < 5; i++ {
		issued, err := svc.IssueToken(ctx, "admin")
		require.NoError(t, err)
		tokens = append(tokens, issued.Token)
		clock.Advance(time.Second)
	}
	_, err := svc.IssueToken(ctx, "other")
	require.NoError(t, err)

	assert.EqualValues(t, 3, sessionCount(t, db, "admin"))
	assert.EqualValues(t, 1, sessionCount(t, db, "other"))

	for i, token := range tokens {
		_, err := svc.VerifyToken(ctx, token)
		if i < 2 {
			assert.ErrorIs(t, err, ErrInvalidToken, "token %d should be evicted", i)
		} else {
			assert.NoError(t, err, "token %d should survive", i)
		}
	}
}

func TestIssueTokenTwiceInOneSecondKeepsOneSession(t *testing.T) {
	svc, db, clock := newTokenFixture(t, 5)
	ctx := context.Background()

	first, err := svc.IssueToken(ctx, "admin")
	require.NoError(t, err)
	clock.Advance(500 * time.Millisecond)
	second, err := svc.IssueToken(ctx, "admin")
	require.NoError(t, err)

	assert.Equal(t, first.Token, second.Token)
	assert.EqualValues(t, 1, sessionCount(t, db, "admin"))
	assert.True(t, second.ExpiresAt.After(first.ExpiresAt))
}

func TestPurgeExpiredSessions(t *testing.T) {
	svc, db, clock := newTokenFixture(t, 5)
	ctx := context.Background()

	_, err := svc.IssueToken(ctx, "admin")
	require.NoError(t, err)
	clock.Advance(12 * time.Hour)
	_, err = svc.IssueToken(ctx, "ops")
	require.NoError(t, err)

	clock.Advance(13 * time.Hour)
	purged, err := svc.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, purged)
	assert.EqualValues(t, 0, sessionCount(t, db, "admin"))
	assert.EqualValues(t, 1, sessionCount(t, db, "ops"))
}
