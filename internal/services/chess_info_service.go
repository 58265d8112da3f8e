package services

import (
	"context"
	"errors"
	"fmt"

	"chessconnect/api/internal/chesscom"
	"chessconnect/api/internal/models"
	"chessconnect/api/internal/repositories"
	"chessconnect/api/internal/utils"

	"go.uber.org/zap"
)

const dashboardTopN = 10

// ChessInfoService links verified usernames to users, keeps their cached
// ratings fresh and answers aggregate queries over them.
type ChessInfoService struct {
	source     RatingSource
	users      UserRepository
	chessInfos ChessInfoRepository
	logger     *zap.Logger
}

func NewChessInfoService(source RatingSource, users UserRepository, chessInfos ChessInfoRepository, logger *zap.Logger) *ChessInfoService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChessInfoService{source: source, users: users, chessInfos: chessInfos, logger: logger}
}

// RefreshRatings fetches the live stats of chessUsername and replaces the
// user's cached ratings with them. Nothing is written when the fetch fails.
func (s *ChessInfoService) RefreshRatings(ctx context.Context, userID uint, chessUsername string) (*models.ChessInfo, error) {
	stats, err := s.source.FetchStats(ctx, chessUsername)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch stats for %s: %v", ErrUpstreamUnavailable, chessUsername, err)
	}

	info := &models.ChessInfo{
		UserID: userID,
		Blitz:  stats.Blitz,
		Bullet: stats.Bullet,
		Rapid:  stats.Rapid,
		Puzzle: stats.Puzzle,
	}
	if err := s.chessInfos.Upsert(info); err != nil {
		return nil, fmt.Errorf("%w: store ratings: %v", ErrUpstreamUnavailable, err)
	}

	stored, err := s.chessInfos.GetByUserID(userID)
	if err != nil {
		return info, nil
	}
	return stored, nil
}

// LinkAndRefresh records chessUsername as the user's verified account and
// refreshes their ratings. A failed stats fetch does not undo the link and
// leaves earlier ratings in place; the stale record (or nil) is returned.
func (s *ChessInfoService) LinkAndRefresh(ctx context.Context, userID uint, chessUsername string) (*models.ChessInfo, error) {
	if userID == 0 {
		return nil, ErrUnauthenticated
	}
	chessUsername = utils.NormalizeChessUsername(chessUsername)

	if err := s.users.LinkChessUsername(userID, chessUsername); err != nil {
		switch {
		case errors.Is(err, repositories.ErrChessUsernameTaken):
			return nil, ErrUsernameAlreadyLinked
		case errors.Is(err, repositories.ErrUserNotFound):
			return nil, ErrUnauthenticated
		default:
			return nil, fmt.Errorf("%w: link username: %v", ErrUpstreamUnavailable, err)
		}
	}

	info, err := s.RefreshRatings(ctx, userID, chessUsername)
	if err == nil {
		return info, nil
	}

	s.logger.Warn("linked chess username but rating refresh failed",
		zap.Uint("userID", userID),
		zap.String("chessUsername", chessUsername),
		zap.Error(err))

	stale, err := s.chessInfos.GetByUserID(userID)
	if err != nil {
		return nil, nil
	}
	return stale, nil
}

// Percentiles ranks the live ratings of chessUsername against every stored record.
func (s *ChessInfoService) Percentiles(ctx context.Context, chessUsername string) (models.Percentiles, error) {
	chessUsername = utils.NormalizeChessUsername(chessUsername)
	stats, err := s.source.FetchStats(ctx, chessUsername)
	if err != nil {
		return models.Percentiles{}, fmt.Errorf("%w: %s", ErrInvalidUsername, chessUsername)
	}

	stored, err := s.chessInfos.ListRatings()
	if err != nil {
		return models.Percentiles{}, fmt.Errorf("%w: load ratings: %v", ErrUpstreamUnavailable, err)
	}
	return computePercentiles(stats, stored), nil
}

func computePercentiles(live chesscom.Stats, stored []models.ChessInfo) models.Percentiles {
	if len(stored) == 0 {
		return models.Percentiles{}
	}

	var blitz, bullet, rapid int
	for _, info := range stored {
		if info.Blitz < live.Blitz {
			blitz++
		}
		if info.Bullet < live.Bullet {
			bullet++
		}
		if info.Rapid < live.Rapid {
			rapid++
		}
	}

	total := float64(len(stored))
	return models.Percentiles{
		Blitz:  100 * float64(blitz) / total,
		Bullet: 100 * float64(bullet) / total,
		Rapid:  100 * float64(rapid) / total,
	}
}

// Dashboard aggregates the stored ratings without calling Chess.com.
func (s *ChessInfoService) Dashboard(ctx context.Context) (*models.Dashboard, error) {
	total, err := s.users.CountUsers()
	if err != nil {
		return nil, fmt.Errorf("%w: count users: %v", ErrUpstreamUnavailable, err)
	}
	highest, err := s.chessInfos.Highest()
	if err != nil {
		return nil, fmt.Errorf("%w: highest ratings: %v", ErrUpstreamUnavailable, err)
	}
	avgRapid, err := s.chessInfos.AverageRapid()
	if err != nil {
		return nil, fmt.Errorf("%w: average rapid: %v", ErrUpstreamUnavailable, err)
	}

	dashboard := &models.Dashboard{
		TotalUsers:   total,
		Highest:      highest,
		AverageRapid: avgRapid,
	}
	tops := []struct {
		mode repositories.Mode
		dst  *[]models.LeaderboardEntry
	}{
		{repositories.ModeBlitz, &dashboard.Top10.Blitz},
		{repositories.ModeBullet, &dashboard.Top10.Bullet},
		{repositories.ModeRapid, &dashboard.Top10.Rapid},
	}
	for _, top := range tops {
		entries, err := s.chessInfos.Top(top.mode, dashboardTopN)
		if err != nil {
			return nil, fmt.Errorf("%w: top %s: %v", ErrUpstreamUnavailable, top.mode, err)
		}
		*top.dst = entries
	}
	return dashboard, nil
}
