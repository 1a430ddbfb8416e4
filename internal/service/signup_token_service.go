package service

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/mehmaan/mehmaan/internal/validation"
	"github.com/sirupsen/logrus"
)

// SignupTokenService issues the short-lived token that bridges a
// verified phone number to account creation. Tokens are stateless:
// validity rests entirely on the signature and the declared lifetime.
type SignupTokenService struct {
	secretKey []byte
	expiry    time.Duration
	logger    *logrus.Logger
}

func NewSignupTokenService(secretKey []byte, expiry time.Duration, logger *logrus.Logger) *SignupTokenService {
	return &SignupTokenService{
		secretKey: secretKey,
		expiry:    expiry,
		logger:    logger,
	}
}

type SignupClaims struct {
	PhoneNumber string `json:"phone_number"`
	Type        string `json:"type"`
	jwt.RegisteredClaims
}

// Issue signs a signup token for a verified phone number. An invalid
// phone here is internal misuse, not user input, so it fails loudly.
func (s *SignupTokenService) Issue(rawPhone string) (string, error) {
	phone, err := validation.Phone(rawPhone)
	if err != nil {
		return "", fmt.Errorf("refusing to issue signup token: %w", err)
	}

	now := time.Now()
	claims := &SignupClaims{
		PhoneNumber: phone,
		Type:        "signup",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   phone,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiry)),
			ID:        uuid.New().String(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secretKey)
	if err != nil {
		s.logger.WithError(err).Error("Failed to sign signup token")
		return "", fmt.Errorf("failed to sign signup token: %w", err)
	}
	return signed, nil
}

// Consume verifies a signup token and returns the phone number it
// carries, or "" for anything invalid: bad signature, expiry, wrong
// type claim, missing or malformed phone number. This is a boundary
// function; the whole verification taxonomy collapses into one
// recoverable outcome.
func (s *SignupTokenService) Consume(tokenString string) string {
	token, err := jwt.ParseWithClaims(tokenString, &SignupClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secretKey, nil
	})
	if err != nil {
		return ""
	}

	claims, ok := token.Claims.(*SignupClaims)
	if !ok || !token.Valid {
		return ""
	}

	if claims.Type != "signup" {
		return ""
	}

	phone, err := validation.Phone(claims.PhoneNumber)
	if err != nil {
		return ""
	}
	return phone
}
