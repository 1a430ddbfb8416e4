package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/mehmaan/mehmaan/internal/middleware"
	"github.com/mehmaan/mehmaan/internal/models"
	"github.com/mehmaan/mehmaan/internal/service"
	"github.com/sirupsen/logrus"
)

type ProfileHandlers struct {
	profileService *service.ProfileService
	logger         *logrus.Logger
}

func NewProfileHandlers(profileService *service.ProfileService, logger *logrus.Logger) *ProfileHandlers {
	return &ProfileHandlers{
		profileService: profileService,
		logger:         logger,
	}
}

type UpdateProfileRequest struct {
	Username     *string `json:"username"`
	Bio          *string `json:"bio"`
	InstagramURL *string `json:"instagram_url"`
	LinkedinURL  *string `json:"linkedin_url"`
}

type ProfileResponse struct {
	Username     string `json:"username,omitempty"`
	Bio          string `json:"bio,omitempty"`
	InstagramURL string `json:"instagram_url,omitempty"`
	LinkedinURL  string `json:"linkedin_url,omitempty"`
}

func profileResponse(profile *models.Profile) ProfileResponse {
	return ProfileResponse{
		Username:     profile.Username,
		Bio:          profile.Bio,
		InstagramURL: profile.InstagramURL,
		LinkedinURL:  profile.LinkedinURL,
	}
}

func (h *ProfileHandlers) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(middleware.UserIDContextKey).(string)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid token")
		return
	}

	profile, err := h.profileService.GetOwn(r.Context(), userID)
	if err != nil {
		h.logger.WithError(err).Error("Failed to load profile")
		respondServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, profileResponse(profile))
}

func (h *ProfileHandlers) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(middleware.UserIDContextKey).(string)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid token")
		return
	}

	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}

	profile, err := h.profileService.Update(r.Context(), userID, service.ProfileUpdate{
		Username:     req.Username,
		Bio:          req.Bio,
		InstagramURL: req.InstagramURL,
		LinkedinURL:  req.LinkedinURL,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, profileResponse(profile))
}

func (h *ProfileHandlers) PublicProfile(w http.ResponseWriter, r *http.Request) {
	username := mux.Vars(r)["username"]

	profile, err := h.profileService.GetPublic(r.Context(), username)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if profile == nil {
		respondWithError(w, http.StatusNotFound, "NOT_FOUND", "Profile not found")
		return
	}

	respondWithJSON(w, http.StatusOK, profileResponse(profile))
}
