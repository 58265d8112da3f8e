package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"chessconnect/api/internal/chesscom"
	"chessconnect/api/internal/models"
	"chessconnect/api/internal/repositories"
	"chessconnect/api/internal/testhelpers"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// fakeSource stands in for Chess.com. Unknown usernames behave like a 404.
type fakeSource struct {
	mu        sync.Mutex
	profiles  map[string]chesscom.Profile
	stats     map[string]chesscom.Stats
	failStats map[string]bool
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		profiles:  map[string]chesscom.Profile{},
		stats:     map[string]chesscom.Stats{},
		failStats: map[string]bool{},
	}
}

func (f *fakeSource) addPlayer(username string, stats chesscom.Stats) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.profiles[username] = chesscom.Profile{Username: username}
	f.stats[username] = stats
}

func (f *fakeSource) setPublicField(username, value string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := f.profiles[username]
	p.PublicField = value
	f.profiles[username] = p
}

func (f *fakeSource) FetchProfile(_ context.Context, username string) (chesscom.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.profiles[username]
	if !ok {
		return chesscom.Profile{}, chesscom.ErrNotFound
	}
	return p, nil
}

func (f *fakeSource) FetchStats(_ context.Context, username string) (chesscom.Stats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.stats[username]
	if !ok || f.failStats[username] {
		return chesscom.Stats{}, chesscom.ErrNotFound
	}
	return s, nil
}

type mockTicketRepo struct {
	setFn    func(context.Context, string, repositories.VerificationTicket, time.Duration) error
	getFn    func(context.Context, string) (repositories.VerificationTicket, error)
	deleteFn func(context.Context, string) error
}

func (m *mockTicketRepo) Set(ctx context.Context, username string, ticket repositories.VerificationTicket, ttl time.Duration) error {
	if m.setFn == nil {
		panic("unexpected call to Set")
	}
	return m.setFn(ctx, username, ticket, ttl)
}

func (m *mockTicketRepo) Get(ctx context.Context, username string) (repositories.VerificationTicket, error) {
	if m.getFn == nil {
		panic("unexpected call to Get")
	}
	return m.getFn(ctx, username)
}

func (m *mockTicketRepo) Delete(ctx context.Context, username string) error {
	if m.deleteFn == nil {
		panic("unexpected call to Delete")
	}
	return m.deleteFn(ctx, username)
}

// linkerFunc adapts a function to Linker.
type linkerFunc func(ctx context.Context, userID uint, chessUsername string) (*models.ChessInfo, error)

func (f linkerFunc) LinkAndRefresh(ctx context.Context, userID uint, chessUsername string) (*models.ChessInfo, error) {
	return f(ctx, userID, chessUsername)
}

var errRedisDown = errors.New("redis down")

type fixture struct {
	db         *gorm.DB
	mr         *miniredis.Miniredis
	source     *fakeSource
	users      *repositories.UserRepository
	chessInfos *repositories.ChessInfoRepository
	tickets    *repositories.TicketRepository
	chess      *ChessInfoService
	verify     *VerificationService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	db := testhelpers.SetupTestDB(t)
	f := &fixture{
		db:         db,
		mr:         mr,
		source:     newFakeSource(),
		users:      &repositories.UserRepository{DB: db},
		chessInfos: &repositories.ChessInfoRepository{DB: db},
		tickets:    &repositories.TicketRepository{RDB: rdb},
	}
	f.chess = NewChessInfoService(f.source, f.users, f.chessInfos, nil)
	f.verify = NewVerificationService(f.source, f.users, f.tickets, f.chess, time.Hour, nil)
	return f
}
