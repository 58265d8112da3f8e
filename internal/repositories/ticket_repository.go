package repositories

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrTicketNotFound = errors.New("verification ticket not found")

const ticketKeyPrefix = "chess-verify:"

// VerificationTicket is a pending code and the user it was issued to.
type VerificationTicket struct {
	UserID uint
	Code   string
}

// TicketRepository keeps one pending verification ticket per claimed username
// in Redis as a hash. Expiry is left to Redis key TTLs.
type TicketRepository struct {
	RDB *redis.Client
}

func ticketKey(chessUsername string) string {
	return ticketKeyPrefix + chessUsername
}

// Set stores ticket for chessUsername, replacing any live one.
func (r *TicketRepository) Set(ctx context.Context, chessUsername string, ticket VerificationTicket, ttl time.Duration) error {
	key := ticketKey(chessUsername)
	_, err := r.RDB.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key, "userId", strconv.FormatUint(uint64(ticket.UserID), 10), "code", ticket.Code)
		pipe.Expire(ctx, key, ttl)
		return nil
	})
	return err
}

func (r *TicketRepository) Get(ctx context.Context, chessUsername string) (VerificationTicket, error) {
	fields, err := r.RDB.HGetAll(ctx, ticketKey(chessUsername)).Result()
	if err != nil {
		return VerificationTicket{}, err
	}
	if len(fields) == 0 {
		return VerificationTicket{}, ErrTicketNotFound
	}
	userID, err := strconv.ParseUint(fields["userId"], 10, 64)
	if err != nil {
		return VerificationTicket{}, fmt.Errorf("malformed ticket for %s: %w", chessUsername, err)
	}
	return VerificationTicket{UserID: uint(userID), Code: fields["code"]}, nil
}

func (r *TicketRepository) Delete(ctx context.Context, chessUsername string) error {
	return r.RDB.Del(ctx, ticketKey(chessUsername)).Err()
}
