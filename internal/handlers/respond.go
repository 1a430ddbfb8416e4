package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/mehmaan/mehmaan/internal/apperr"
)

type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	RetryAfter int    `json:"retry_after,omitempty"`
}

func respondWithJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func respondWithError(w http.ResponseWriter, status int, code, message string) {
	respondWithJSON(w, status, ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
		},
	})
}

// respondServiceError translates a tagged service error into transport
// terms. Gateway and internal failures are reduced to a generic retry
// hint; their detail stays in the logs.
func respondServiceError(w http.ResponseWriter, err error) {
	e := apperr.As(err)

	status := statusForKind(e.Kind)
	message := e.Message

	switch e.Kind {
	case apperr.KindProvider, apperr.KindTimeout, apperr.KindConnection,
		apperr.KindConfiguration, apperr.KindUnknown:
		message = "Something went wrong. Please try again later"
	case apperr.KindRateLimit:
		w.Header().Set("Retry-After", strconv.Itoa(e.RetryAfter))
	}

	respondWithJSON(w, status, ErrorResponse{
		Error: ErrorDetail{
			Code:       strings.ToUpper(string(e.Kind)),
			Message:    message,
			RetryAfter: e.RetryAfter,
		},
	})
}

func statusForKind(kind apperr.Kind) int {
	switch kind {
	case apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindRateLimit:
		return http.StatusTooManyRequests
	case apperr.KindAuth:
		return http.StatusUnauthorized
	case apperr.KindConflict:
		return http.StatusConflict
	case apperr.KindProvider, apperr.KindConnection:
		return http.StatusServiceUnavailable
	case apperr.KindTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
