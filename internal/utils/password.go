// internal/utils/password.go
package utils

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	argonSaltLength = 16
	argonKeyLength  = 32
)

var ErrMalformedHash = errors.New("malformed password hash")

// PasswordHasher produces argon2id hashes in the PHC string format:
// $argon2id$v=19$m=65536,t=3,p=2$<salt>$<key>
type PasswordHasher struct {
	Memory      uint32
	Iterations  uint32
	Parallelism uint8
}

func NewPasswordHasher(memory, iterations uint32, parallelism uint8) *PasswordHasher {
	return &PasswordHasher{
		Memory:      memory,
		Iterations:  iterations,
		Parallelism: parallelism,
	}
}

func (h *PasswordHasher) Hash(password string) (string, error) {
	salt := make([]byte, argonSaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	key := argon2.IDKey([]byte(password), salt, h.Iterations, h.Memory, h.Parallelism, argonKeyLength)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, h.Memory, h.Iterations, h.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify checks password against an encoded hash. Unsalted SHA-256 hex
// digests written by earlier releases are accepted and always reported as
// needing a rehash, as are argon2id hashes with outdated parameters.
func (h *PasswordHasher) Verify(password, encoded string) (ok bool, needsRehash bool, err error) {
	if isLegacyDigest(encoded) {
		match := subtle.ConstantTimeCompare([]byte(HashString(password)), []byte(strings.ToLower(encoded))) == 1
		return match, match, nil
	}

	params, salt, key, err := decodeArgonHash(encoded)
	if err != nil {
		return false, false, err
	}

	candidate := argon2.IDKey([]byte(password), salt, params.Iterations, params.Memory, params.Parallelism, uint32(len(key)))
	if subtle.ConstantTimeCompare(candidate, key) != 1 {
		return false, false, nil
	}

	outdated := params.Memory != h.Memory || params.Iterations != h.Iterations || params.Parallelism != h.Parallelism
	return true, outdated, nil
}

func isLegacyDigest(encoded string) bool {
	if len(encoded) != sha256HexLength {
		return false
	}
	_, err := hex.DecodeString(encoded)
	return err == nil
}

const sha256HexLength = 64

func decodeArgonHash(encoded string) (*PasswordHasher, []byte, []byte, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return nil, nil, nil, ErrMalformedHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return nil, nil, nil, ErrMalformedHash
	}
	if version != argon2.Version {
		return nil, nil, nil, fmt.Errorf("%w: unsupported argon2 version %d", ErrMalformedHash, version)
	}

	params := &PasswordHasher{}
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &params.Memory, &params.Iterations, &params.Parallelism); err != nil {
		return nil, nil, nil, ErrMalformedHash
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return nil, nil, nil, ErrMalformedHash
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(key) == 0 {
		return nil, nil, nil, ErrMalformedHash
	}

	return params, salt, key, nil
}
