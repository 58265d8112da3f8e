package utils

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"chessconnect/api/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var parseJWT = func(tokenStr string, keyFunc jwt.Keyfunc) (*jwt.Token, error) {
	return jwt.Parse(tokenStr, keyFunc)
}

var (
	ErrMissingAuthHeader = errors.New("missing or malformed Authorization header")
	ErrInvalidToken      = errors.New("invalid token")
	ErrInvalidClaims     = errors.New("invalid token claims")
)

const (
	sessionPurpose      = "session"
	verificationPurpose = "chess_verify"
)

func hmacKey(secret string) jwt.Keyfunc {
	return func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return []byte(secret), nil
	}
}

// VerifyToken fetches the Authorization header, validates the JWT,
// and returns the claims if everything is valid.
func VerifyToken(r *http.Request, secret string) (jwt.MapClaims, error) {
	authz := r.Header.Get("Authorization")
	if authz == "" || !strings.HasPrefix(authz, "Bearer ") {
		return nil, ErrMissingAuthHeader
	}
	return ParseToken(strings.TrimPrefix(authz, "Bearer "), secret)
}

// ParseToken validates an HMAC-signed JWT and returns its claims.
func ParseToken(tokenStr, secret string) (jwt.MapClaims, error) {
	token, err := parseJWT(tokenStr, hmacKey(secret))
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidClaims
	}
	return claims, nil
}

// SessionUserID returns the user id of session claims. Verification and OAuth
// state tokens share the signing key and are rejected here.
func SessionUserID(claims jwt.MapClaims) (uint, error) {
	if purpose, _ := claims["purpose"].(string); purpose != sessionPurpose {
		return 0, ErrInvalidClaims
	}
	return GetUserIDFromClaims(claims)
}

// GetUserIDFromClaims extracts the "sub" (user ID) from claims.
func GetUserIDFromClaims(claims jwt.MapClaims) (uint, error) {
	sub, ok := claims["sub"]
	if !ok {
		return 0, errors.New("missing sub claim")
	}

	var raw string
	switch v := sub.(type) {
	case string:
		raw = v
	case float64:
		// JWT numbers get decoded as float64
		raw = fmt.Sprintf("%d", int64(v))
	default:
		return 0, errors.New("invalid sub claim type")
	}

	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, errors.New("invalid sub claim")
	}
	return uint(id), nil
}

// GenerateSessionToken signs the identity token handed to the frontend. Linked
// users also carry their Chess.com username and cached ratings.
func GenerateSessionToken(secret string, user *models.User, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"sub":     strconv.FormatUint(uint64(user.ID), 10),
		"email":   user.Email,
		"name":    user.Name,
		"purpose": sessionPurpose,
		"exp":     time.Now().Add(ttl).Unix(),
	}
	if user.IsLinked() {
		claims["chessUsername"] = *user.ChessUsername
	}
	if user.ChessInfo != nil {
		claims["chessInfo"] = map[string]int{
			"blitz":  user.ChessInfo.Blitz,
			"bullet": user.ChessInfo.Bullet,
			"rapid":  user.ChessInfo.Rapid,
			"puzzle": user.ChessInfo.Puzzle,
		}
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// VerificationClaims bind an issued code to the user and username it was issued for.
type VerificationClaims struct {
	UserID        uint
	ChessUsername string
	Code          string
}

func GenerateVerificationToken(secret string, vc VerificationClaims, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"sub":           strconv.FormatUint(uint64(vc.UserID), 10),
		"chessUsername": vc.ChessUsername,
		"code":          vc.Code,
		"purpose":       verificationPurpose,
		"exp":           time.Now().Add(ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// ParseVerificationToken validates a token from GenerateVerificationToken.
// Session tokens are rejected even though they share the signing key.
func ParseVerificationToken(tokenStr, secret string) (VerificationClaims, error) {
	claims, err := ParseToken(tokenStr, secret)
	if err != nil {
		return VerificationClaims{}, err
	}
	if purpose, _ := claims["purpose"].(string); purpose != verificationPurpose {
		return VerificationClaims{}, ErrInvalidClaims
	}
	userID, err := GetUserIDFromClaims(claims)
	if err != nil {
		return VerificationClaims{}, ErrInvalidClaims
	}
	username, _ := claims["chessUsername"].(string)
	code, _ := claims["code"].(string)
	if username == "" || code == "" {
		return VerificationClaims{}, ErrInvalidClaims
	}
	return VerificationClaims{UserID: userID, ChessUsername: username, Code: code}, nil
}

const oauthStatePurpose = "oauth_state"

// GenerateStateToken signs the OAuth state parameter so the callback can
// check it without server-side storage.
func GenerateStateToken(secret string, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"nonce":   uuid.New().String(),
		"purpose": oauthStatePurpose,
		"exp":     time.Now().Add(ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func ValidateStateToken(state, secret string) error {
	claims, err := ParseToken(state, secret)
	if err != nil {
		return err
	}
	if purpose, _ := claims["purpose"].(string); purpose != oauthStatePurpose {
		return ErrInvalidClaims
	}
	return nil
}
