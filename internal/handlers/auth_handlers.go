package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/mehmaan/mehmaan/internal/apperr"
	"github.com/mehmaan/mehmaan/internal/metrics"
	"github.com/mehmaan/mehmaan/internal/middleware"
	"github.com/mehmaan/mehmaan/internal/models"
	"github.com/mehmaan/mehmaan/internal/service"
	"github.com/mehmaan/mehmaan/internal/validation"
	"github.com/sirupsen/logrus"
)

type AuthHandlers struct {
	otpService     *service.OTPService
	accountService *service.AccountService
	jwtService     *service.JWTService
	signupTokens   *service.SignupTokenService
	logger         *logrus.Logger
}

func NewAuthHandlers(
	otpService *service.OTPService,
	accountService *service.AccountService,
	jwtService *service.JWTService,
	signupTokens *service.SignupTokenService,
	logger *logrus.Logger,
) *AuthHandlers {
	return &AuthHandlers{
		otpService:     otpService,
		accountService: accountService,
		jwtService:     jwtService,
		signupTokens:   signupTokens,
		logger:         logger,
	}
}

type RequestOTPRequest struct {
	PhoneNumber string `json:"phone_number"`
}

type VerifyOTPRequest struct {
	PhoneNumber string `json:"phone_number"`
	OTPCode     string `json:"otp_code"`
}

type CompleteSignupRequest struct {
	SignupToken string `json:"signup_token"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type UserResponse struct {
	ID          string `json:"id"`
	PhoneNumber string `json:"phone_number"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
}

type SessionResponse struct {
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token"`
	TokenType    string        `json:"token_type"`
	ExpiresIn    int64         `json:"expires_in"`
	User         *UserResponse `json:"user,omitempty"`
}

func userResponse(user *models.User) *UserResponse {
	return &UserResponse{
		ID:          user.ID,
		PhoneNumber: user.PhoneNumber,
		FirstName:   user.FirstName,
		LastName:    user.LastName,
	}
}

func (h *AuthHandlers) RequestOTP(w http.ResponseWriter, r *http.Request) {
	var req RequestOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}

	if err := h.otpService.RequestOTP(r.Context(), req.PhoneNumber); err != nil {
		metrics.OTPRequests.WithLabelValues(string(apperr.KindOf(err))).Inc()
		respondServiceError(w, err)
		return
	}

	metrics.OTPRequests.WithLabelValues("success").Inc()
	respondWithJSON(w, http.StatusOK, map[string]string{
		"message": "OTP sent successfully",
	})
}

// VerifyOTP consumes a code. An existing account gets a session pair;
// an unknown phone number gets a signup token to finish registration.
func (h *AuthHandlers) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req VerifyOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}

	verified, err := h.otpService.VerifyOTP(r.Context(), req.PhoneNumber, req.OTPCode)
	if err != nil {
		h.logger.WithError(err).Error("OTP verification failed unexpectedly")
		respondServiceError(w, err)
		return
	}
	if !verified {
		metrics.OTPVerifications.WithLabelValues("rejected").Inc()
		respondWithError(w, http.StatusBadRequest, "INVALID_OTP", "Invalid or expired OTP code")
		return
	}
	metrics.OTPVerifications.WithLabelValues("success").Inc()

	// Verification passed, so the raw input parses; the lookup and the
	// signup token must carry the canonical form, not the raw one.
	phone, err := validation.Phone(req.PhoneNumber)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "INVALID_OTP", "Invalid or expired OTP code")
		return
	}

	user, err := h.accountService.GetByPhone(r.Context(), phone)
	if err != nil {
		h.logger.WithError(err).Error("Failed to look up user after OTP verification")
		respondServiceError(w, err)
		return
	}

	if user == nil {
		signupToken, err := h.signupTokens.Issue(phone)
		if err != nil {
			h.logger.WithError(err).Error("Failed to issue signup token")
			respondServiceError(w, apperr.Wrap(apperr.KindUnknown, "failed to issue signup token", err))
			return
		}
		respondWithJSON(w, http.StatusOK, map[string]string{
			"signup_token": signupToken,
		})
		return
	}

	pair, err := h.jwtService.IssuePair(r.Context(), user)
	if err != nil {
		h.logger.WithError(err).Error("Failed to issue session tokens")
		respondServiceError(w, apperr.Wrap(apperr.KindUnknown, "failed to issue tokens", err))
		return
	}

	respondWithJSON(w, http.StatusOK, SessionResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    pair.TokenType,
		ExpiresIn:    pair.ExpiresIn,
		User:         userResponse(user),
	})
}

func (h *AuthHandlers) CompleteSignup(w http.ResponseWriter, r *http.Request) {
	var req CompleteSignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}

	user, pair, err := h.accountService.CompleteSignup(r.Context(), req.SignupToken, req.FirstName, req.LastName)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, SessionResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    pair.TokenType,
		ExpiresIn:    pair.ExpiresIn,
		User:         userResponse(user),
	})
}

func (h *AuthHandlers) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}
	if req.RefreshToken == "" {
		respondWithError(w, http.StatusBadRequest, "MISSING_TOKEN", "Refresh token is required")
		return
	}

	pair, err := h.jwtService.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, SessionResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    pair.TokenType,
		ExpiresIn:    pair.ExpiresIn,
	})
}

// Logout revokes the presented refresh token. It never fails: a
// malformed or already-revoked token still logs the caller out.
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	json.NewDecoder(r.Body).Decode(&req)

	if req.RefreshToken != "" {
		h.jwtService.Revoke(r.Context(), req.RefreshToken)
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *AuthHandlers) Me(w http.ResponseWriter, r *http.Request) {
	phone, ok := r.Context().Value(middleware.PhoneContextKey).(string)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid token")
		return
	}

	user, err := h.accountService.GetByPhone(r.Context(), phone)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if user == nil {
		respondWithError(w, http.StatusNotFound, "NOT_FOUND", "User not found")
		return
	}

	respondWithJSON(w, http.StatusOK, userResponse(user))
}
