package service

import (
	"context"
	"time"

	"github.com/mehmaan/mehmaan/internal/apperr"
	"github.com/mehmaan/mehmaan/internal/models"
	"github.com/mehmaan/mehmaan/internal/validation"
	"github.com/sirupsen/logrus"
)

// ProfileService manages the optional public profile attached to a
// user account.
type ProfileService struct {
	profiles ProfileStore
	logger   *logrus.Logger
}

func NewProfileService(profiles ProfileStore, logger *logrus.Logger) *ProfileService {
	return &ProfileService{
		profiles: profiles,
		logger:   logger,
	}
}

// ProfileUpdate carries the fields of a partial update; nil means
// leave the field as is.
type ProfileUpdate struct {
	Username     *string
	Bio          *string
	InstagramURL *string
	LinkedinURL  *string
}

// GetOwn returns the caller's profile, creating an empty one on first
// access.
func (s *ProfileService) GetOwn(ctx context.Context, userID string) (*models.Profile, error) {
	profile, err := s.profiles.Get(ctx, userID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUnknown, "failed to load profile", err)
	}
	if profile != nil {
		return profile, nil
	}

	now := time.Now()
	profile = &models.Profile{
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.profiles.Put(ctx, profile); err != nil {
		return nil, apperr.Wrap(apperr.KindUnknown, "failed to create profile", err)
	}
	return profile, nil
}

// Update applies a partial update. A username change claims the new
// name before releasing the old one, so the account never holds zero
// names mid-change; a taken name surfaces as conflict_error.
func (s *ProfileService) Update(ctx context.Context, userID string, update ProfileUpdate) (*models.Profile, error) {
	profile, err := s.GetOwn(ctx, userID)
	if err != nil {
		return nil, err
	}

	previousUsername := profile.Username

	if update.Username != nil {
		username, err := validation.Username(*update.Username)
		if err != nil {
			return nil, err
		}
		if username != profile.Username {
			if err := s.profiles.ClaimUsername(ctx, username, userID); err != nil {
				return nil, err
			}
			profile.Username = username
		}
	}

	if update.Bio != nil {
		bio, err := validation.Bio(*update.Bio)
		if err != nil {
			return nil, err
		}
		profile.Bio = bio
	}

	if update.InstagramURL != nil {
		link, err := validation.InstagramURL(*update.InstagramURL)
		if err != nil {
			return nil, err
		}
		profile.InstagramURL = link
	}

	if update.LinkedinURL != nil {
		link, err := validation.LinkedinURL(*update.LinkedinURL)
		if err != nil {
			return nil, err
		}
		profile.LinkedinURL = link
	}

	profile.UpdatedAt = time.Now()
	if err := s.profiles.Put(ctx, profile); err != nil {
		return nil, apperr.Wrap(apperr.KindUnknown, "failed to update profile", err)
	}

	if previousUsername != "" && previousUsername != profile.Username {
		if err := s.profiles.ReleaseUsername(ctx, previousUsername, userID); err != nil {
			s.logger.WithField("user_id", userID).
				WithError(err).Warn("Failed to release previous username claim")
		}
	}

	return profile, nil
}

// GetPublic resolves a profile by username. Returns nil when the name
// is unclaimed.
func (s *ProfileService) GetPublic(ctx context.Context, rawUsername string) (*models.Profile, error) {
	username, err := validation.Username(rawUsername)
	if err != nil {
		return nil, err
	}

	userID, err := s.profiles.GetUserIDByUsername(ctx, username)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUnknown, "failed to resolve profile", err)
	}
	if userID == "" {
		return nil, nil
	}

	profile, err := s.profiles.Get(ctx, userID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUnknown, "failed to load profile", err)
	}
	return profile, nil
}
