package handlers

import (
	"errors"
	"net/http"

	"chessconnect/api/internal/middleware"
	"chessconnect/api/internal/repositories"
	"chessconnect/api/internal/utils"

	"go.uber.org/zap"
)

type UserHandler struct {
	Users  UserRepository
	Logger *zap.Logger
}

func (h *UserHandler) logger() *zap.Logger {
	if h.Logger == nil {
		return zap.NewNop()
	}
	return h.Logger
}

// MeHandler returns the caller's profile with cached ratings.
func (h *UserHandler) MeHandler(w http.ResponseWriter, r *http.Request) {
	user, err := h.Users.GetUserByID(middleware.UserIDFromContext(r.Context()))
	if errors.Is(err, repositories.ErrUserNotFound) {
		utils.JSONError(w, http.StatusNotFound, "user_not_found", "User not found")
		return
	}
	if err != nil {
		h.logger().Error("failed to load user", zap.Error(err))
		utils.JSONError(w, http.StatusServiceUnavailable, "upstream_unavailable", "Failed to load user")
		return
	}
	utils.JSON(w, http.StatusOK, user)
}

// DeleteMeHandler removes the caller's account and cached ratings.
func (h *UserHandler) DeleteMeHandler(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	err := h.Users.DeleteUser(userID)
	if errors.Is(err, repositories.ErrUserNotFound) {
		utils.JSONError(w, http.StatusNotFound, "user_not_found", "User not found")
		return
	}
	if err != nil {
		h.logger().Error("failed to delete user", zap.Uint("userID", userID), zap.Error(err))
		utils.JSONError(w, http.StatusServiceUnavailable, "upstream_unavailable", "Failed to delete user")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
