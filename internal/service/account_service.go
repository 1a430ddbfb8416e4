package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/mehmaan/mehmaan/internal/apperr"
	"github.com/mehmaan/mehmaan/internal/models"
	"github.com/mehmaan/mehmaan/internal/validation"
	"github.com/sirupsen/logrus"
)

// AccountService completes signups and resolves existing accounts.
type AccountService struct {
	users        UserStore
	signupTokens *SignupTokenService
	jwt          *JWTService
	logger       *logrus.Logger
}

func NewAccountService(users UserStore, signupTokens *SignupTokenService, jwt *JWTService, logger *logrus.Logger) *AccountService {
	return &AccountService{
		users:        users,
		signupTokens: signupTokens,
		jwt:          jwt,
		logger:       logger,
	}
}

// CompleteSignup consumes a signup token and creates the account it
// names, then issues the first session pair. The conditional insert in
// the user store decides any duplicate-signup race: exactly one caller
// wins, the rest observe conflict_error.
func (s *AccountService) CompleteSignup(ctx context.Context, signupToken, rawFirstName, rawLastName string) (*models.User, *models.TokenPair, error) {
	firstName, err := validation.FirstName(rawFirstName)
	if err != nil {
		return nil, nil, err
	}
	lastName, err := validation.LastName(rawLastName)
	if err != nil {
		return nil, nil, err
	}

	phone := s.signupTokens.Consume(signupToken)
	if phone == "" {
		return nil, nil, apperr.New(apperr.KindAuth, "invalid or expired signup token")
	}

	existing, err := s.users.GetByPhoneNumber(ctx, phone)
	if err != nil {
		s.logger.WithField("phone", validation.MaskPhone(phone)).
			WithError(err).Error("User signup failed")
		return nil, nil, apperr.Wrap(apperr.KindUnknown, "failed to create user account", err)
	}
	if existing != nil {
		return nil, nil, apperr.New(apperr.KindConflict, "user with this phone number already exists")
	}

	user := &models.User{
		ID:          uuid.New().String(),
		PhoneNumber: phone,
		FirstName:   firstName,
		LastName:    lastName,
		IsActive:    true,
	}

	if err := s.users.Create(ctx, user); err != nil {
		if apperr.KindOf(err) == apperr.KindConflict {
			return nil, nil, err
		}
		s.logger.WithField("phone", validation.MaskPhone(phone)).
			WithError(err).Error("User signup failed")
		return nil, nil, apperr.Wrap(apperr.KindUnknown, "failed to create user account", err)
	}

	pair, err := s.jwt.IssuePair(ctx, user)
	if err != nil {
		s.logger.WithField("phone", validation.MaskPhone(phone)).
			WithError(err).Error("Token issuance after signup failed")
		return nil, nil, apperr.Wrap(apperr.KindUnknown, "failed to create user account", err)
	}

	s.logger.WithField("phone", validation.MaskPhone(phone)).Info("User account created")
	return user, pair, nil
}

// GetByPhone returns the account for a phone number, or nil when no
// account exists.
func (s *AccountService) GetByPhone(ctx context.Context, phone string) (*models.User, error) {
	user, err := s.users.GetByPhoneNumber(ctx, phone)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUnknown, "failed to look up user", err)
	}
	return user, nil
}
