package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var (
	// ErrTokenInvalid is returned when a token is malformed or signature verification fails
	ErrTokenInvalid = errors.New("token is invalid")

	// ErrTokenExpired is returned when a token has passed its expiration time
	ErrTokenExpired = errors.New("token is expired")

	// ErrTokenRevoked is returned when a token has been revoked
	ErrTokenRevoked = errors.New("token has been revoked")
)

// Claims represents the JWT claims structure for JokeHub tokens
type Claims struct {
	Roles []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

// TokenConfig holds configuration for token generation
type TokenConfig struct {
	TokenTTL time.Duration // Default: 1 hour
	Issuer   string
}

// DefaultTokenConfig returns sensible defaults for token configuration
func DefaultTokenConfig() TokenConfig {
	return TokenConfig{
		TokenTTL: time.Hour,
		Issuer:   "jokehub",
	}
}

// TokenService issues and validates HMAC-signed JWTs. Revocation is
// tracked in Redis as a per-user cutoff: revoking a user invalidates
// every token issued at or before the revocation instant, which is how
// logout and force-logout drop all of a user's sessions at once.
type TokenService struct {
	secret []byte
	redis  *redis.Client
	config TokenConfig
	logger *zap.Logger
}

// NewTokenService creates a TokenService with the given signing secret
// and Redis client.
func NewTokenService(secret []byte, redisClient *redis.Client, logger *zap.Logger) *TokenService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TokenService{
		secret: secret,
		redis:  redisClient,
		config: DefaultTokenConfig(),
		logger: logger,
	}
}

// WithConfig sets a custom token configuration
func (ts *TokenService) WithConfig(config TokenConfig) *TokenService {
	ts.config = config
	return ts
}

func revocationKey(userID string) string {
	return "token_revoked_after:" + userID
}

// Issue creates a new access token for the given user ID and roles.
func (ts *TokenService) Issue(ctx context.Context, userID string, roles []string) (string, error) {
	now := time.Now()
	claims := Claims{
		Roles: roles,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   userID,
			Issuer:    ts.config.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ts.config.TokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(ts.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Validate parses and verifies a token, including the Redis revocation
// cutoff check.
func (ts *TokenService) Validate(ctx context.Context, tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return ts.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}

	revoked, err := ts.isRevoked(ctx, claims)
	if err != nil {
		// If Redis is down, fail closed: a token that cannot be
		// checked is treated as invalid.
		ts.logger.Error("revocation check failed", zap.Error(err))
		return nil, ErrTokenInvalid
	}
	if revoked {
		return nil, ErrTokenRevoked
	}

	return claims, nil
}

func (ts *TokenService) isRevoked(ctx context.Context, claims *Claims) (bool, error) {
	val, err := ts.redis.Get(ctx, revocationKey(claims.Subject)).Int64()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if claims.IssuedAt == nil {
		return true, nil
	}
	return claims.IssuedAt.Time.Unix() <= val, nil
}

// RevokeAll invalidates every outstanding token for the user. The
// cutoff only needs to live as long as the longest token lifetime.
func (ts *TokenService) RevokeAll(ctx context.Context, userID string) error {
	key := revocationKey(userID)
	if err := ts.redis.Set(ctx, key, time.Now().Unix(), ts.config.TokenTTL).Err(); err != nil {
		return fmt.Errorf("failed to set revocation cutoff: %w", err)
	}
	ts.logger.Info("revoked all tokens", zap.String("user_id", userID))
	return nil
}
