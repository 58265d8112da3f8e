package handlers

import (
	"errors"
	"net/http"
	"time"

	"chessconnect/api/internal/middleware"
	"chessconnect/api/internal/models"
	"chessconnect/api/internal/services"
	"chessconnect/api/internal/utils"

	"go.uber.org/zap"
)

const (
	DefaultSessionTTL = 24 * time.Hour
	oauthStateTTL     = 10 * time.Minute
)

// AuthHandler manages sign-in and Chess.com verification endpoints.
type AuthHandler struct {
	Users      UserRepository
	Identity   IdentityProvider
	Verifier   Verifier
	Ratings    RatingRefresher
	JWTSecret  string
	SessionTTL time.Duration
	Logger     *zap.Logger
}

type sessionResponse struct {
	Token string `json:"token"`
}

type verifyResponse struct {
	VerificationCode  string `json:"verificationCode"`
	VerificationToken string `json:"verificationToken"`
	ExpiresIn         int64  `json:"expiresIn"`
}

type confirmResponse struct {
	Success   bool              `json:"success"`
	Message   string            `json:"message"`
	ChessInfo *models.ChessInfo `json:"chessInfo"`
	Token     string            `json:"token"`
}

func (h *AuthHandler) logger() *zap.Logger {
	if h.Logger == nil {
		return zap.NewNop()
	}
	return h.Logger
}

func (h *AuthHandler) sessionTTL() time.Duration {
	if h.SessionTTL <= 0 {
		return DefaultSessionTTL
	}
	return h.SessionTTL
}

// GoogleLoginHandler redirects the browser to Google with a signed state.
func (h *AuthHandler) GoogleLoginHandler(w http.ResponseWriter, r *http.Request) {
	state, err := utils.GenerateStateToken(h.JWTSecret, oauthStateTTL)
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "internal_error", "Failed to start sign-in")
		return
	}
	http.Redirect(w, r, h.Identity.AuthCodeURL(state), http.StatusFound)
}

// GoogleCallbackHandler finishes sign-in, creating the user on first visit.
// Linked users get their ratings refreshed before the session token is signed.
func (h *AuthHandler) GoogleCallbackHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if err := utils.ValidateStateToken(q.Get("state"), h.JWTSecret); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid_state", "Invalid or expired OAuth state")
		return
	}
	code := q.Get("code")
	if code == "" {
		utils.JSONError(w, http.StatusBadRequest, "missing_code", "Missing authorization code")
		return
	}

	identity, err := h.Identity.Exchange(r.Context(), code)
	if err != nil {
		utils.JSONError(w, http.StatusUnauthorized, "unauthenticated", "Google sign-in failed")
		return
	}

	user, err := h.Users.UpsertGoogleUser(identity)
	if err != nil {
		h.logger().Error("failed to store google user", zap.String("googleID", identity.GoogleID), zap.Error(err))
		utils.JSONError(w, http.StatusServiceUnavailable, "upstream_unavailable", "Failed to store user")
		return
	}

	if user.IsLinked() {
		if _, err := h.Ratings.RefreshRatings(r.Context(), user.ID, *user.ChessUsername); err != nil {
			h.logger().Warn("rating refresh on sign-in failed", zap.Uint("userID", user.ID), zap.Error(err))
		}
	}
	if fresh, err := h.Users.GetUserByID(user.ID); err == nil {
		user = fresh
	}

	token, err := utils.GenerateSessionToken(h.JWTSecret, user, h.sessionTTL())
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "internal_error", "Failed to sign session token")
		return
	}
	utils.JSON(w, http.StatusOK, sessionResponse{Token: token})
}

// ChessVerifyHandler issues a verification code for the requested username.
func (h *AuthHandler) ChessVerifyHandler(w http.ResponseWriter, r *http.Request) {
	req := middleware.GetValidatedRequest[*models.ChessVerifyRequest](r)
	userID := middleware.UserIDFromContext(r.Context())

	ticket, err := h.Verifier.Issue(r.Context(), userID, req.ChessUsername)
	if err != nil {
		writeServiceError(w, h.logger(), err)
		return
	}

	token, err := utils.GenerateVerificationToken(h.JWTSecret, utils.VerificationClaims{
		UserID:        userID,
		ChessUsername: ticket.ChessUsername,
		Code:          ticket.Code,
	}, ticket.ExpiresIn)
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "internal_error", "Failed to sign verification token")
		return
	}

	utils.JSON(w, http.StatusOK, verifyResponse{
		VerificationCode:  ticket.Code,
		VerificationToken: token,
		ExpiresIn:         int64(ticket.ExpiresIn / time.Second),
	})
}

// ChessConfirmHandler completes a verification. The code may be sent directly
// or inside the token returned by ChessVerifyHandler.
func (h *AuthHandler) ChessConfirmHandler(w http.ResponseWriter, r *http.Request) {
	req := middleware.GetValidatedRequest[*models.ChessConfirmRequest](r)
	userID := middleware.UserIDFromContext(r.Context())

	code, err := h.presentedCode(req, userID)
	if err != nil {
		writeServiceError(w, h.logger(), err)
		return
	}

	info, err := h.Verifier.Confirm(r.Context(), userID, req.ChessUsername, code)
	if err != nil {
		writeServiceError(w, h.logger(), err)
		return
	}

	user, err := h.Users.GetUserByID(userID)
	if err != nil {
		writeServiceError(w, h.logger(), errors.Join(services.ErrUpstreamUnavailable, err))
		return
	}
	token, err := utils.GenerateSessionToken(h.JWTSecret, user, h.sessionTTL())
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "internal_error", "Failed to sign session token")
		return
	}

	utils.JSON(w, http.StatusOK, confirmResponse{
		Success:   true,
		Message:   "Chess.com account verified",
		ChessInfo: info,
		Token:     token,
	})
}

func (h *AuthHandler) presentedCode(req *models.ChessConfirmRequest, userID uint) (string, error) {
	if req.VerificationToken == "" {
		return req.VerificationCode, nil
	}
	claims, err := utils.ParseVerificationToken(req.VerificationToken, h.JWTSecret)
	if err != nil {
		return "", services.ErrVerificationFailed
	}
	if claims.UserID != userID || claims.ChessUsername != utils.NormalizeChessUsername(req.ChessUsername) {
		return "", services.ErrVerificationFailed
	}
	if req.VerificationCode != "" && req.VerificationCode != claims.Code {
		return "", services.ErrVerificationFailed
	}
	return claims.Code, nil
}
