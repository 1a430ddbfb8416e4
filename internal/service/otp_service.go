package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math"
	"math/big"
	"time"

	"github.com/mehmaan/mehmaan/internal/apperr"
	"github.com/mehmaan/mehmaan/internal/config"
	"github.com/mehmaan/mehmaan/internal/models"
	"github.com/mehmaan/mehmaan/internal/sms"
	"github.com/mehmaan/mehmaan/internal/validation"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

type OTPService struct {
	store   OTPStore
	gateway sms.Gateway
	cfg     *config.OTPConfig
	logger  *logrus.Logger
}

func NewOTPService(store OTPStore, gateway sms.Gateway, cfg *config.OTPConfig, logger *logrus.Logger) *OTPService {
	return &OTPService{
		store:   store,
		gateway: gateway,
		cfg:     cfg,
		logger:  logger,
	}
}

// RequestOTP validates the phone number, claims the per-phone request
// slot, dispatches a fresh code via SMS and persists the record. The
// record is only written after the gateway accepted the message: a code
// the user was never sent must not exist. On gateway failure the slot
// is released so the client may retry immediately.
func (s *OTPService) RequestOTP(ctx context.Context, rawPhone string) error {
	phone, err := validation.Phone(rawPhone)
	if err != nil {
		return err
	}

	remaining, err := s.store.ClaimSlot(ctx, phone, s.cfg.RateLimit)
	if err != nil {
		s.logger.WithError(err).Error("Failed to check OTP rate limit")
		return apperr.Wrap(apperr.KindUnknown, "failed to process OTP request", err)
	}
	if remaining > 0 {
		retryAfter := int(math.Ceil(remaining.Seconds()))
		return apperr.RateLimit("too many OTP requests, please try again later", retryAfter)
	}

	code, err := generateCode()
	if err != nil {
		s.releaseSlot(ctx, phone)
		return apperr.Wrap(apperr.KindUnknown, "failed to generate OTP", err)
	}

	messageID, err := s.gateway.Send(ctx, phone, code)
	if err != nil {
		s.releaseSlot(ctx, phone)
		s.logger.WithFields(logrus.Fields{
			"phone":      validation.MaskPhone(phone),
			"error_type": apperr.KindOf(err),
		}).Error("OTP send failed")
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		s.releaseSlot(ctx, phone)
		return apperr.Wrap(apperr.KindUnknown, "failed to hash OTP", err)
	}

	now := time.Now()
	record := &models.OTPRecord{
		Phone:     phone,
		CodeHash:  string(hash),
		CreatedAt: now,
		ExpiresAt: now.Add(s.cfg.Expiry),
	}

	if err := s.store.Save(ctx, record, s.cfg.Expiry); err != nil {
		// No record means no rate-limit state; free the slot for a retry.
		s.releaseSlot(ctx, phone)
		s.logger.WithField("phone", validation.MaskPhone(phone)).
			WithError(err).Error("Failed to persist OTP record")
		return apperr.Wrap(apperr.KindUnknown, "failed to process OTP request", err)
	}

	s.logger.WithFields(logrus.Fields{
		"phone":      validation.MaskPhone(phone),
		"message_id": messageID,
	}).Info("OTP dispatched")

	return nil
}

// VerifyOTP reports whether phone+code name a live, unexpired record.
// A successful verification consumes the record: the same code cannot
// pass twice. Failed attempts leave the record untouched; expired
// records are cleared lazily by the next request cycle.
func (s *OTPService) VerifyOTP(ctx context.Context, rawPhone, rawCode string) (bool, error) {
	phone, err := validation.Phone(rawPhone)
	if err != nil {
		return false, nil
	}

	code, err := validation.OTPCode(rawCode)
	if err != nil {
		return false, nil
	}

	record, err := s.store.Get(ctx, phone)
	if err != nil {
		return false, apperr.Wrap(apperr.KindUnknown, "failed to verify OTP", err)
	}
	if record == nil {
		return false, nil
	}

	if record.Expired(time.Now()) {
		return false, nil
	}

	if bcrypt.CompareHashAndPassword([]byte(record.CodeHash), []byte(code)) != nil {
		return false, nil
	}

	// Single use: the record must be gone before we report success.
	if err := s.store.Delete(ctx, phone); err != nil {
		return false, apperr.Wrap(apperr.KindUnknown, "failed to consume OTP", err)
	}
	s.releaseSlot(ctx, phone)

	s.logger.WithField("phone", validation.MaskPhone(phone)).Info("OTP verified successfully")
	return true, nil
}

func (s *OTPService) releaseSlot(ctx context.Context, phone string) {
	if err := s.store.ReleaseSlot(ctx, phone); err != nil {
		s.logger.WithField("phone", validation.MaskPhone(phone)).
			WithError(err).Warn("Failed to release OTP request slot")
	}
}

// generateCode draws a 4-digit code from the range 1000-9999 inclusive.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(9000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d", n.Int64()+1000), nil
}
