package handlers

import (
	"context"

	"chessconnect/api/internal/jobs"
	"chessconnect/api/internal/models"
	"chessconnect/api/internal/repositories"
	"chessconnect/api/internal/services"
)

// UserRepository captures the persistence operations required by handlers.
type UserRepository interface {
	GetUserByID(userID uint) (*models.User, error)
	UpsertGoogleUser(identity repositories.GoogleIdentity) (*models.User, error)
	DeleteUser(userID uint) error
}

// IdentityProvider runs the Google sign-in flow.
type IdentityProvider interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (repositories.GoogleIdentity, error)
}

// Verifier issues and confirms Chess.com ownership checks.
type Verifier interface {
	Issue(ctx context.Context, userID uint, chessUsername string) (*services.Ticket, error)
	Confirm(ctx context.Context, userID uint, chessUsername, code string) (*models.ChessInfo, error)
}

// RatingRefresher replaces a single user's cached ratings.
type RatingRefresher interface {
	RefreshRatings(ctx context.Context, userID uint, chessUsername string) (*models.ChessInfo, error)
}

// ChessQueries answers the read-only rating queries.
type ChessQueries interface {
	Percentiles(ctx context.Context, chessUsername string) (models.Percentiles, error)
	Dashboard(ctx context.Context) (*models.Dashboard, error)
}

// RefreshTrigger starts a background refresh pass.
type RefreshTrigger interface {
	Trigger(pass jobs.Pass)
}
