package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"chessconnect/api/internal/metrics"
	"chessconnect/api/internal/models"
	"chessconnect/api/internal/repositories"
	"chessconnect/api/internal/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const DefaultVerificationTTL = time.Hour

// Linker persists a verified username and returns the user's ratings.
type Linker interface {
	LinkAndRefresh(ctx context.Context, userID uint, chessUsername string) (*models.ChessInfo, error)
}

// Ticket is an issued, not yet confirmed verification code.
type Ticket struct {
	ChessUsername string
	Code          string
	ExpiresIn     time.Duration
}

// VerificationService proves ownership of a Chess.com account: the user must
// place the issued code in their public profile location before confirming.
type VerificationService struct {
	source  RatingSource
	users   UserRepository
	tickets TicketRepository
	linker  Linker
	ttl     time.Duration
	logger  *zap.Logger
	newCode func() string
}

func NewVerificationService(source RatingSource, users UserRepository, tickets TicketRepository, linker Linker, ttl time.Duration, logger *zap.Logger) *VerificationService {
	if ttl <= 0 {
		ttl = DefaultVerificationTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VerificationService{
		source:  source,
		users:   users,
		tickets: tickets,
		linker:  linker,
		ttl:     ttl,
		logger:  logger,
		newCode: generateCode,
	}
}

// codes only need to be unguessable per username, not globally unique
func generateCode() string {
	return "chessconnect-" + uuid.New().String()[:8]
}

// Issue starts a verification for chessUsername on behalf of userID. A new
// ticket replaces any live one for the same username.
func (s *VerificationService) Issue(ctx context.Context, userID uint, chessUsername string) (ticket *Ticket, err error) {
	defer func() { metrics.ObserveVerification("issue", ErrorCode(err)) }()

	if userID == 0 {
		return nil, ErrUnauthenticated
	}
	chessUsername = utils.NormalizeChessUsername(chessUsername)
	if chessUsername == "" {
		return nil, ErrInvalidUsername
	}

	// checked before the Chess.com round trip; linking checks again
	holder, err := s.users.GetUserByChessUsername(chessUsername)
	switch {
	case err == nil && holder.ID != userID:
		return nil, ErrUsernameAlreadyLinked
	case err != nil && !errors.Is(err, repositories.ErrUserNotFound):
		return nil, fmt.Errorf("%w: lookup username holder: %v", ErrUpstreamUnavailable, err)
	}

	if _, err := s.source.FetchProfile(ctx, chessUsername); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidUsername, chessUsername)
	}

	code := s.newCode()
	if err := s.tickets.Set(ctx, chessUsername, repositories.VerificationTicket{UserID: userID, Code: code}, s.ttl); err != nil {
		return nil, fmt.Errorf("%w: store ticket: %v", ErrUpstreamUnavailable, err)
	}

	s.logger.Info("issued chess verification code",
		zap.Uint("userID", userID),
		zap.String("chessUsername", chessUsername))
	return &Ticket{ChessUsername: chessUsername, Code: code, ExpiresIn: s.ttl}, nil
}

// Confirm checks presentedCode against the live ticket and the player's public
// profile. Only the user the ticket was issued to can confirm it. Failed
// attempts keep the ticket so the user can retry until it expires; the ticket
// is consumed once the account is linked.
func (s *VerificationService) Confirm(ctx context.Context, userID uint, chessUsername, presentedCode string) (info *models.ChessInfo, err error) {
	defer func() { metrics.ObserveVerification("confirm", ErrorCode(err)) }()

	if userID == 0 {
		return nil, ErrUnauthenticated
	}
	chessUsername = utils.NormalizeChessUsername(chessUsername)

	ticket, err := s.tickets.Get(ctx, chessUsername)
	if errors.Is(err, repositories.ErrTicketNotFound) {
		return nil, ErrTicketExpired
	}
	if err != nil {
		return nil, fmt.Errorf("%w: load ticket: %v", ErrUpstreamUnavailable, err)
	}
	if ticket.UserID != userID {
		s.logger.Warn("chess verification confirmed by another user",
			zap.Uint("userID", userID),
			zap.Uint("issuedTo", ticket.UserID),
			zap.String("chessUsername", chessUsername))
		return nil, fmt.Errorf("%w: ticket issued to another user", ErrVerificationFailed)
	}
	if presentedCode != ticket.Code {
		return nil, ErrVerificationFailed
	}

	profile, err := s.source.FetchProfile(ctx, chessUsername)
	if err != nil {
		return nil, fmt.Errorf("%w: profile unavailable", ErrVerificationFailed)
	}
	if profile.PublicField != presentedCode {
		return nil, fmt.Errorf("%w: code not found on profile", ErrVerificationFailed)
	}

	info, err = s.linker.LinkAndRefresh(ctx, userID, chessUsername)
	if err != nil {
		return nil, err
	}

	// the link is durable at this point; a stale ticket just expires
	if err := s.tickets.Delete(ctx, chessUsername); err != nil {
		s.logger.Warn("failed to consume verification ticket",
			zap.String("chessUsername", chessUsername),
			zap.Error(err))
	}

	s.logger.Info("chess username verified",
		zap.Uint("userID", userID),
		zap.String("chessUsername", chessUsername))
	return info, nil
}
