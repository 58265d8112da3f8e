package services

import "errors"

var (
	// ErrInvalidUsername: the username does not exist on Chess.com.
	ErrInvalidUsername = errors.New("invalid chess.com username")
	// ErrTicketExpired: no live verification ticket for the username.
	ErrTicketExpired = errors.New("verification code expired or not found")
	// ErrVerificationFailed: wrong code, or the code is not on the public profile yet.
	ErrVerificationFailed = errors.New("verification failed")
	// ErrUsernameAlreadyLinked: another user already holds the username.
	ErrUsernameAlreadyLinked = errors.New("chess.com username already linked to another account")
	// ErrUpstreamUnavailable: Chess.com, Redis or the database could not serve the request.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	// ErrUnauthenticated: no caller identity.
	ErrUnauthenticated = errors.New("unauthenticated")
)

// ErrorCode maps a service error to the stable code used in API responses and metrics.
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrInvalidUsername):
		return "invalid_username"
	case errors.Is(err, ErrTicketExpired):
		return "ticket_expired"
	case errors.Is(err, ErrVerificationFailed):
		return "verification_failed"
	case errors.Is(err, ErrUsernameAlreadyLinked):
		return "username_already_linked"
	case errors.Is(err, ErrUnauthenticated):
		return "unauthenticated"
	case errors.Is(err, ErrUpstreamUnavailable):
		return "upstream_unavailable"
	default:
		return "internal_error"
	}
}
