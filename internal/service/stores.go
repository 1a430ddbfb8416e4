package service

import (
	"context"
	"time"

	"github.com/mehmaan/mehmaan/internal/models"
)

// OTPStore is the single mutable OTP slot per phone number. ClaimSlot
// must be atomic: of two concurrent claims for the same phone, exactly
// one may succeed.
type OTPStore interface {
	ClaimSlot(ctx context.Context, phoneNumber string, cooldown time.Duration) (remaining time.Duration, err error)
	ReleaseSlot(ctx context.Context, phoneNumber string) error
	Save(ctx context.Context, record *models.OTPRecord, ttl time.Duration) error
	Get(ctx context.Context, phoneNumber string) (*models.OTPRecord, error)
	Delete(ctx context.Context, phoneNumber string) error
}

// RefreshTokenStore tracks issued refresh tokens and the revocation list.
type RefreshTokenStore interface {
	Save(ctx context.Context, tokenData *models.RefreshTokenData) error
	Get(ctx context.Context, jti string) (*models.RefreshTokenData, error)
	MarkRevoked(ctx context.Context, jti string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// UserStore persists user identities. Create must fail with
// apperr.KindConflict when the phone number is already registered.
type UserStore interface {
	GetByPhoneNumber(ctx context.Context, phoneNumber string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
}

// ProfileStore persists profiles and username claims.
type ProfileStore interface {
	Get(ctx context.Context, userID string) (*models.Profile, error)
	Put(ctx context.Context, profile *models.Profile) error
	ClaimUsername(ctx context.Context, username, userID string) error
	ReleaseUsername(ctx context.Context, username, userID string) error
	GetUserIDByUsername(ctx context.Context, username string) (string, error)
}
