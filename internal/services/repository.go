package services

import (
	"context"
	"time"

	"chessconnect/api/internal/chesscom"
	"chessconnect/api/internal/models"
	"chessconnect/api/internal/repositories"
)

// RatingSource is the external rating provider.
type RatingSource interface {
	FetchProfile(ctx context.Context, username string) (chesscom.Profile, error)
	FetchStats(ctx context.Context, username string) (chesscom.Stats, error)
}

// UserRepository captures the user persistence operations required by services.
type UserRepository interface {
	GetUserByID(userID uint) (*models.User, error)
	GetUserByChessUsername(chessUsername string) (*models.User, error)
	LinkChessUsername(userID uint, chessUsername string) error
	CountUsers() (int64, error)
}

// ChessInfoRepository captures the rating persistence operations required by services.
type ChessInfoRepository interface {
	Upsert(info *models.ChessInfo) error
	GetByUserID(userID uint) (*models.ChessInfo, error)
	ListRatings() ([]models.ChessInfo, error)
	Highest() (models.HighestRatings, error)
	AverageRapid() (float64, error)
	Top(mode repositories.Mode, n int) ([]models.LeaderboardEntry, error)
}

// TicketRepository is the ephemeral store holding issued verification codes.
type TicketRepository interface {
	Set(ctx context.Context, chessUsername string, ticket repositories.VerificationTicket, ttl time.Duration) error
	Get(ctx context.Context, chessUsername string) (repositories.VerificationTicket, error)
	Delete(ctx context.Context, chessUsername string) error
}
