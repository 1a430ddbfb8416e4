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
	otpKeyPrefix      = "otp:"
	otpCooldownPrefix = "otp:cooldown:"
)

// OTPRepository keeps the single OTP slot per phone number in Redis.
// Record keys expire with the code; a separate cooldown key claimed
// with SET NX serializes concurrent requests so rate limiting cannot
// be raced past.
type OTPRepository struct {
	client *redis.Client
	logger *logrus.Logger
}

func NewOTPRepository(client *redis.Client, logger *logrus.Logger) *OTPRepository {
	return &OTPRepository{
		client: client,
		logger: logger,
	}
}

// ClaimSlot atomically reserves the request slot for a phone number.
// It returns 0 when the claim succeeded, or the remaining cooldown when
// another request already holds the slot.
func (r *OTPRepository) ClaimSlot(ctx context.Context, phoneNumber string, cooldown time.Duration) (time.Duration, error) {
	key := otpCooldownPrefix + phoneNumber

	ok, err := r.client.SetNX(ctx, key, time.Now().Format(time.RFC3339), cooldown).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to claim OTP slot: %w", err)
	}
	if ok {
		return 0, nil
	}

	remaining, err := r.client.PTTL(ctx, key).Result()
	if err != nil || remaining <= 0 {
		// The holder expired between SetNX and PTTL; report a minimal wait.
		return time.Second, nil
	}
	return remaining, nil
}

// ReleaseSlot frees the cooldown claim, allowing an immediate new
// request. Used when SMS dispatch fails or verification succeeds.
func (r *OTPRepository) ReleaseSlot(ctx context.Context, phoneNumber string) error {
	if err := r.client.Del(ctx, otpCooldownPrefix+phoneNumber).Err(); err != nil {
		return fmt.Errorf("failed to release OTP slot: %w", err)
	}
	return nil
}

// Save replaces the OTP record for the phone number. The TTL matches
// the expiry window so lapsed records clear themselves.
func (r *OTPRepository) Save(ctx context.Context, record *models.OTPRecord, ttl time.Duration) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal OTP record: %w", err)
	}

	if err := r.client.Set(ctx, otpKeyPrefix+record.Phone, data, ttl).Err(); err != nil {
		r.logger.WithError(err).Error("Failed to store OTP in Redis")
		return fmt.Errorf("failed to store OTP: %w", err)
	}
	return nil
}

// Get returns the current record, or nil when none exists.
func (r *OTPRepository) Get(ctx context.Context, phoneNumber string) (*models.OTPRecord, error) {
	data, err := r.client.Get(ctx, otpKeyPrefix+phoneNumber).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		r.logger.WithError(err).Error("Failed to get OTP from Redis")
		return nil, fmt.Errorf("failed to get OTP: %w", err)
	}

	var record models.OTPRecord
	if err := json.Unmarshal([]byte(data), &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal OTP record: %w", err)
	}
	return &record, nil
}

func (r *OTPRepository) Delete(ctx context.Context, phoneNumber string) error {
	if err := r.client.Del(ctx, otpKeyPrefix+phoneNumber).Err(); err != nil {
		return fmt.Errorf("failed to delete OTP: %w", err)
	}
	return nil
}
