// internal/utils/crypto.go
package utils

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"math/big"
)

func GenerateRandomString(length int) (string, error) {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	b := make([]byte, length)

	for i := range b {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		b[i] = charset[n.Int64()]
	}

	return string(b), nil
}

// GenerateLicenseKey returns AWC-XXXXXXXXXXXX-XXXXXXXX from 10 random bytes.
func GenerateLicenseKey() (string, error) {
	b := make([]byte, 10)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return fmt.Sprintf("AWC-%X-%X", b[:6], b[6:]), nil
}

// SignSession computes base64(HMAC-SHA256(secret, username:timestamp)).
func SignSession(secret []byte, username, timestamp string) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(username + ":" + timestamp))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func HashString(input string) string {
	hasher := sha256.New()
	hasher.Write([]byte(input))
	return hex.EncodeToString(hasher.Sum(nil))
}
