package jobs

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"chessconnect/api/internal/metrics"
	"chessconnect/api/internal/models"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Pass selects which linked users a refresh run visits.
type Pass string

const (
	// PassFast only visits linked users that have no cached ratings yet.
	PassFast Pass = "fast"
	// PassFull visits every linked user.
	PassFull Pass = "full"
)

// ParsePass accepts "fast" or "full".
func ParsePass(s string) (Pass, error) {
	switch Pass(s) {
	case PassFast, PassFull:
		return Pass(s), nil
	}
	return "", fmt.Errorf("unknown refresh pass %q (want fast or full)", s)
}

// RatingRefresher replaces the cached ratings of one user.
type RatingRefresher interface {
	RefreshRatings(ctx context.Context, userID uint, chessUsername string) (*models.ChessInfo, error)
}

// LinkedUserLister enumerates the users a pass should visit.
type LinkedUserLister interface {
	ListLinkedUsers() ([]models.User, error)
	ListLinkedUsersWithoutChessInfo() ([]models.User, error)
}

// RefreshConfig contains configuration for the refresh job
type RefreshConfig struct {
	FastSchedule string // e.g. "0 * * * *" for hourly
	FullSchedule string // e.g. "0 3 * * *" for 3 AM daily
	Concurrency  int    // users refreshed in parallel within one pass
	RunOnStartup bool   // run a full pass as soon as Start is called
}

// UserResult is the outcome of refreshing a single user.
type UserResult struct {
	UserID        uint
	ChessUsername string
	Err           error
}

// PassReport summarises one refresh pass. Err is only set when the user
// snapshot itself could not be loaded; per-user failures live in Results.
type PassReport struct {
	Pass      Pass
	StartedAt time.Time
	Duration  time.Duration
	Results   []UserResult
	Err       error
}

func (r PassReport) Succeeded() int {
	n := 0
	for _, res := range r.Results {
		if res.Err == nil {
			n++
		}
	}
	return n
}

func (r PassReport) Failed() int {
	return len(r.Results) - r.Succeeded()
}

// RatingRefreshJob keeps cached ratings current on a schedule.
type RatingRefreshJob struct {
	refresher RatingRefresher
	users     LinkedUserLister
	config    *RefreshConfig
	cron      *cron.Cron
	logger    *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewRatingRefreshJob creates a new refresh job
func NewRatingRefreshJob(refresher RatingRefresher, users LinkedUserLister, config *RefreshConfig, logger *zap.Logger) *RatingRefreshJob {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config == nil {
		config = &RefreshConfig{}
	}
	if config.Concurrency < 1 {
		config.Concurrency = 1
	}
	cl := cronLogger{logger.Sugar()}
	ctx, cancel := context.WithCancel(context.Background())
	return &RatingRefreshJob{
		refresher: refresher,
		users:     users,
		config:    config,
		cron:      cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl))),
		logger:    logger,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Start registers the fast and full passes with the scheduler and starts it.
// An empty schedule disables that pass.
func (j *RatingRefreshJob) Start() error {
	schedules := []struct {
		pass Pass
		expr string
	}{
		{PassFast, j.config.FastSchedule},
		{PassFull, j.config.FullSchedule},
	}
	for _, s := range schedules {
		if s.expr == "" {
			j.logger.Info("rating refresh pass disabled", zap.String("pass", string(s.pass)))
			continue
		}
		pass := s.pass
		if _, err := j.cron.AddFunc(s.expr, func() { j.RunPass(j.ctx, pass) }); err != nil {
			return fmt.Errorf("failed to schedule %s refresh pass: %w", pass, err)
		}
		j.logger.Info("scheduled rating refresh pass", zap.String("pass", string(pass)), zap.String("schedule", s.expr))
	}

	j.cron.Start()
	if j.config.RunOnStartup {
		j.Trigger(PassFull)
	}
	return nil
}

// Stop halts the scheduler, cancels in-flight passes and waits for them.
func (j *RatingRefreshJob) Stop() {
	<-j.cron.Stop().Done()
	j.cancel()
	j.wg.Wait()
	j.logger.Info("rating refresh job stopped")
}

// Trigger runs pass in the background and returns immediately.
func (j *RatingRefreshJob) Trigger(pass Pass) {
	j.wg.Add(1)
	go func() {
		defer j.wg.Done()
		j.RunPass(j.ctx, pass)
	}()
}

// RunFastPass refreshes linked users that have no cached ratings.
func (j *RatingRefreshJob) RunFastPass(ctx context.Context) PassReport {
	return j.RunPass(ctx, PassFast)
}

// RunFullPass refreshes every linked user.
func (j *RatingRefreshJob) RunFullPass(ctx context.Context) PassReport {
	return j.RunPass(ctx, PassFull)
}

// RunPass snapshots the users to visit and refreshes each of them. A failing
// user never stops the others, and the pass never retries.
func (j *RatingRefreshJob) RunPass(ctx context.Context, pass Pass) PassReport {
	report := PassReport{Pass: pass, StartedAt: time.Now()}
	log := j.logger.With(zap.String("pass", string(pass)))

	targets, err := j.snapshot(pass)
	if err != nil {
		report.Err = err
		report.Duration = time.Since(report.StartedAt)
		log.Error("failed to load users for rating refresh", zap.Error(err))
		return report
	}
	log.Info("starting rating refresh pass", zap.Int("users", len(targets)))

	report.Results = make([]UserResult, len(targets))
	g := new(errgroup.Group)
	g.SetLimit(j.config.Concurrency)
	for i, u := range targets {
		i := i
		userID, username := u.ID, *u.ChessUsername
		g.Go(func() error {
			err := j.refreshOne(ctx, userID, username)
			report.Results[i] = UserResult{UserID: userID, ChessUsername: username, Err: err}
			metrics.ObserveRefreshUser(string(pass), err == nil)
			if err != nil {
				log.Warn("rating refresh failed for user",
					zap.Uint("userID", userID),
					zap.String("chessUsername", username),
					zap.Error(err))
			}
			return nil
		})
	}
	_ = g.Wait()

	report.Duration = time.Since(report.StartedAt)
	metrics.ObserveRefreshPass(string(pass), report.Duration)
	log.Info("rating refresh pass finished",
		zap.Int("succeeded", report.Succeeded()),
		zap.Int("failed", report.Failed()),
		zap.Duration("duration", report.Duration))
	return report
}

func (j *RatingRefreshJob) snapshot(pass Pass) ([]models.User, error) {
	var (
		users []models.User
		err   error
	)
	if pass == PassFast {
		users, err = j.users.ListLinkedUsersWithoutChessInfo()
	} else {
		users, err = j.users.ListLinkedUsers()
	}
	if err != nil {
		return nil, err
	}

	linked := users[:0]
	for _, u := range users {
		if u.ChessUsername != nil && *u.ChessUsername != "" {
			linked = append(linked, u)
		}
	}
	return linked, nil
}

func (j *RatingRefreshJob) refreshOne(ctx context.Context, userID uint, username string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic refreshing user %d: %v", userID, r)
			j.logger.Error("recovered panic in rating refresh",
				zap.Uint("userID", userID),
				zap.ByteString("stack", debug.Stack()))
		}
	}()
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err = j.refresher.RefreshRatings(ctx, userID, username)
	return err
}

// cronLogger routes scheduler messages through zap.
type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}
