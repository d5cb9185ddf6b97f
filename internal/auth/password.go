// Package auth provides password hashing, token issuance and the
// authentication middleware for the JokeHub API.
package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

var (
	// ErrPasswordMismatch is returned when the password does not match the hash
	ErrPasswordMismatch = errors.New("password does not match")

	// ErrInvalidHashFormat is returned when the hash format is invalid
	ErrInvalidHashFormat = errors.New("invalid hash format")

	// ErrPasswordTooShort is returned when the password is below the minimum length
	ErrPasswordTooShort = errors.New("password is too short")
)

// MinPasswordLength is the minimum accepted password length
const MinPasswordLength = 6

// PasswordService handles password hashing and verification using
// argon2id. Hashes are stored in PHC string format.
type PasswordService struct {
	time        uint32
	memory      uint32
	parallelism uint8
	keyLength   uint32
	saltLength  int
}

// NewPasswordService creates a PasswordService with recommended
// argon2id parameters.
func NewPasswordService() *PasswordService {
	return &PasswordService{
		time:        3,
		memory:      64 * 1024,
		parallelism: 2,
		keyLength:   32,
		saltLength:  16,
	}
}

// ValidatePassword checks the password against the minimum policy.
func (ps *PasswordService) ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	return nil
}

// Hash derives an argon2id hash of the password with a random salt.
func (ps *PasswordService) Hash(password string) (string, error) {
	salt := make([]byte, ps.saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	key := argon2.IDKey([]byte(password), salt, ps.time, ps.memory, ps.parallelism, ps.keyLength)

	encoded := fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, ps.memory, ps.time, ps.parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	)
	return encoded, nil
}

// Verify checks the password against a PHC-encoded argon2id hash.
func (ps *PasswordService) Verify(password, encoded string) error {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return ErrInvalidHashFormat
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return ErrInvalidHashFormat
	}

	var memory, timeCost uint32
	var parallelism uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &timeCost, &parallelism); err != nil {
		return ErrInvalidHashFormat
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return ErrInvalidHashFormat
	}
	expected, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return ErrInvalidHashFormat
	}

	key := argon2.IDKey([]byte(password), salt, timeCost, memory, parallelism, uint32(len(expected)))

	if subtle.ConstantTimeCompare(key, expected) != 1 {
		return ErrPasswordMismatch
	}
	return nil
}
