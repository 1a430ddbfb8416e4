package service

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/mehmaan/mehmaan/internal/apperr"
	"github.com/mehmaan/mehmaan/internal/config"
	"github.com/mehmaan/mehmaan/internal/models"
	"github.com/sirupsen/logrus"
)

// JWTService issues, rotates and revokes session token pairs. Access
// tokens are verified statelessly; refresh tokens additionally pass
// through the revocation list keyed by JTI.
type JWTService struct {
	secretKey     []byte
	accessExpiry  time.Duration
	refreshExpiry time.Duration
	tokens        RefreshTokenStore
	logger        *logrus.Logger
}

func NewJWTService(cfg *config.JWTConfig, tokens RefreshTokenStore, logger *logrus.Logger) (*JWTService, error) {
	secretKey := []byte(cfg.SecretKey)
	if len(secretKey) < 32 {
		return nil, fmt.Errorf("secret key must be at least 32 bytes")
	}

	return &JWTService{
		secretKey:     secretKey,
		accessExpiry:  cfg.AccessExpiry,
		refreshExpiry: cfg.RefreshExpiry,
		tokens:        tokens,
		logger:        logger,
	}, nil
}

type Claims struct {
	Phone string `json:"phone"`
	Type  string `json:"type"`
	jwt.RegisteredClaims
}

// IssuePair signs an access/refresh token pair for a user and records
// the refresh token so its JTI can later be revoked individually.
func (s *JWTService) IssuePair(ctx context.Context, user *models.User) (*models.TokenPair, error) {
	now := time.Now()
	refreshJTI := uuid.New().String()
	refreshExpiresAt := now.Add(s.refreshExpiry)

	accessToken, err := s.sign(&Claims{
		Phone: user.PhoneNumber,
		Type:  "access",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessExpiry)),
			ID:        uuid.New().String(),
		},
	})
	if err != nil {
		s.logger.WithError(err).Error("Failed to sign access token")
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}

	refreshToken, err := s.sign(&Claims{
		Phone: user.PhoneNumber,
		Type:  "refresh",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(refreshExpiresAt),
			ID:        refreshJTI,
		},
	})
	if err != nil {
		s.logger.WithError(err).Error("Failed to sign refresh token")
		return nil, fmt.Errorf("failed to sign refresh token: %w", err)
	}

	err = s.tokens.Save(ctx, &models.RefreshTokenData{
		JTI:       refreshJTI,
		UserID:    user.ID,
		Phone:     user.PhoneNumber,
		CreatedAt: now,
		ExpiresAt: refreshExpiresAt,
	})
	if err != nil {
		// The signed token is still valid; record loss only costs audit data.
		s.logger.WithError(err).Warn("Failed to record refresh token")
	}

	return &models.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.accessExpiry.Seconds()),
	}, nil
}

func (s *JWTService) sign(claims *Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secretKey)
}

// VerifyToken checks signature and expiry and returns the claims.
func (s *JWTService) VerifyToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secretKey, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

// Refresh rotates a refresh token: the presented JTI is revoked and a
// fresh pair is issued. A malformed, expired or blacklisted token
// yields auth_error; the old identifier never becomes usable again.
func (s *JWTService) Refresh(ctx context.Context, refreshToken string) (*models.TokenPair, error) {
	claims, err := s.VerifyToken(refreshToken)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindAuth, "invalid or expired refresh token", err)
	}
	if claims.Type != "refresh" {
		return nil, apperr.New(apperr.KindAuth, "token is not a refresh token")
	}

	revoked, err := s.tokens.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUnknown, "failed to refresh session", err)
	}
	if revoked {
		return nil, apperr.New(apperr.KindAuth, "refresh token has been revoked")
	}

	// Issue the successor before revoking the presented token; a
	// failure here must leave the caller's session usable.
	user := &models.User{ID: claims.Subject, PhoneNumber: claims.Phone}
	pair, err := s.IssuePair(ctx, user)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUnknown, "failed to refresh session", err)
	}

	if err := s.tokens.MarkRevoked(ctx, claims.ID, s.claimsExpiry(claims)); err != nil {
		return nil, apperr.Wrap(apperr.KindUnknown, "failed to refresh session", err)
	}
	return pair, nil
}

// Revoke blacklists the refresh token's JTI. It is idempotent and
// swallows malformed or already-revoked tokens: logout must succeed
// no matter what the client presents.
func (s *JWTService) Revoke(ctx context.Context, refreshToken string) {
	claims, err := s.VerifyToken(refreshToken)
	if err != nil || claims.Type != "refresh" {
		return
	}

	if err := s.tokens.MarkRevoked(ctx, claims.ID, s.claimsExpiry(claims)); err != nil {
		s.logger.WithError(err).Warn("Logout attempted but revocation failed")
	}
}

func (s *JWTService) claimsExpiry(claims *Claims) time.Time {
	if claims.ExpiresAt != nil {
		return claims.ExpiresAt.Time
	}
	return time.Now().Add(s.refreshExpiry)
}
