package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mehmaan/mehmaan/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	refreshTokenPrefix = "refresh_token:"
	revokedTokenPrefix = "revoked_token:"
)

// RefreshTokenRepository tracks issued refresh tokens and the
// revocation list. Both key families carry TTLs bounded by the token
// lifetime, so the blacklist never outgrows the set of tokens that
// could still be presented.
type RefreshTokenRepository struct {
	client *redis.Client
	logger *logrus.Logger
}

func NewRefreshTokenRepository(client *redis.Client, logger *logrus.Logger) *RefreshTokenRepository {
	return &RefreshTokenRepository{
		client: client,
		logger: logger,
	}
}

func (r *RefreshTokenRepository) Save(ctx context.Context, tokenData *models.RefreshTokenData) error {
	data, err := json.Marshal(tokenData)
	if err != nil {
		return fmt.Errorf("failed to marshal token data: %w", err)
	}

	ttl := time.Until(tokenData.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("refusing to store an already expired refresh token")
	}

	if err := r.client.Set(ctx, refreshTokenPrefix+tokenData.JTI, data, ttl).Err(); err != nil {
		r.logger.WithError(err).Error("Failed to store refresh token")
		return fmt.Errorf("failed to store refresh token: %w", err)
	}
	return nil
}

// Get returns the stored token data, or nil when the JTI is unknown or
// already lapsed.
func (r *RefreshTokenRepository) Get(ctx context.Context, jti string) (*models.RefreshTokenData, error) {
	data, err := r.client.Get(ctx, refreshTokenPrefix+jti).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get refresh token: %w", err)
	}

	var tokenData models.RefreshTokenData
	if err := json.Unmarshal([]byte(data), &tokenData); err != nil {
		return nil, fmt.Errorf("failed to unmarshal token data: %w", err)
	}
	return &tokenData, nil
}

// MarkRevoked puts the JTI on the revocation list until the token
// would have expired anyway.
func (r *RefreshTokenRepository) MarkRevoked(ctx context.Context, jti string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		// Already expired; signature verification rejects it without our help.
		return nil
	}

	if err := r.client.Set(ctx, revokedTokenPrefix+jti, "1", ttl).Err(); err != nil {
		r.logger.WithError(err).Error("Failed to mark refresh token revoked")
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	return nil
}

func (r *RefreshTokenRepository) IsRevoked(ctx context.Context, jti string) (bool, error) {
	exists, err := r.client.Exists(ctx, revokedTokenPrefix+jti).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check revocation: %w", err)
	}
	return exists > 0, nil
}
