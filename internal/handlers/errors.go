package handlers

import (
	"errors"
	"net/http"

	"chessconnect/api/internal/services"
	"chessconnect/api/internal/utils"

	"go.uber.org/zap"
)

func statusForError(err error) int {
	switch {
	case errors.Is(err, services.ErrInvalidUsername), errors.Is(err, services.ErrVerificationFailed):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrTicketExpired):
		return http.StatusGone
	case errors.Is(err, services.ErrUsernameAlreadyLinked):
		return http.StatusConflict
	case errors.Is(err, services.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, services.ErrUpstreamUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

var errorMessages = map[string]string{
	"invalid_username":        "Chess.com username not found",
	"ticket_expired":          "Verification code expired, request a new one",
	"verification_failed":     "Verification code not found in your Chess.com profile location",
	"username_already_linked": "This Chess.com username is linked to another account",
	"unauthenticated":         "Authentication required",
	"upstream_unavailable":    "A dependency is unavailable, try again later",
	"internal_error":          "Internal server error",
}

// writeServiceError renders a service error as a structured JSON error.
func writeServiceError(w http.ResponseWriter, logger *zap.Logger, err error) {
	status := statusForError(err)
	code := services.ErrorCode(err)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", zap.String("code", code), zap.Error(err))
	}
	utils.JSONError(w, status, code, errorMessages[code])
}
