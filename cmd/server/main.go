package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chessconnect/api/internal/chesscom"
	"chessconnect/api/internal/config"
	"chessconnect/api/internal/handlers"
	"chessconnect/api/internal/identity"
	"chessconnect/api/internal/jobs"
	"chessconnect/api/internal/metrics"
	"chessconnect/api/internal/models"
	"chessconnect/api/internal/repositories"
	"chessconnect/api/internal/routers"
	"chessconnect/api/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// startup seams, swapped out in tests
var (
	newLogger = zap.NewProduction
	gormOpen  = func(dsn string) (*gorm.DB, error) {
		return gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	}
	runAutoMigrate = func(db *gorm.DB, dst ...interface{}) error {
		return db.AutoMigrate(dst...)
	}
	newRedisClient = func(cfg *config.Config) *redis.Client {
		return redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
	}
	httpListenServe  = listenAndServeGracefully
	dbConnectTimeout = 30 * time.Second
	dbRetryInterval  = 200 * time.Millisecond
)

// connectWithRetry keeps opening and pinging the database until it answers or
// timeout elapses.
func connectWithRetry(dsn string, timeout time.Duration, logger *zap.Logger) (*gorm.DB, error) {
	deadline := time.Now().Add(timeout)
	attempt := 0
	for {
		attempt++
		db, err := gormOpen(dsn)
		if err == nil {
			if err = pingDB(db); err == nil {
				return db, nil
			}
		}

		if time.Now().After(deadline) {
			return nil, fmt.Errorf("database not reachable after %d attempts: %w", attempt, err)
		}
		logger.Warn("database not ready, retrying", zap.Int("attempt", attempt), zap.Error(err))
		time.Sleep(dbRetryInterval)
	}
}

func pingDB(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

func listenAndServeGracefully(addr string, handler http.Handler) error {
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- server.ListenAndServe() }()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-stop:
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return server.Shutdown(ctx)
}

func newRouter(cfg *config.Config, auth *handlers.AuthHandler, chess *handlers.ChessHandler, users *handlers.UserHandler, health *handlers.HealthHandler) *chi.Mux {
	router := chi.NewRouter()

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.FrontendURL},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))
	router.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer, middleware.Timeout(60*time.Second))
	router.Use(metrics.Middleware)

	routers.HealthRoutes(router, health)
	routers.AuthRoutes(router, auth)
	routers.ChessRoutes(router, chess, cfg.JWTSecret)
	routers.UserRoutes(router, users, cfg.JWTSecret)
	return router
}

func run() error {
	logger, err := newLogger()
	if err != nil {
		return fmt.Errorf("failed to init logger: %w", err)
	}
	defer logger.Sync()

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	db, err := connectWithRetry(cfg.DatabaseURL, dbConnectTimeout, logger)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	if err := runAutoMigrate(db, &models.User{}, &models.ChessInfo{}); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	rdb := newRedisClient(cfg)
	defer rdb.Close()
	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	err = rdb.Ping(pingCtx).Err()
	cancel()
	if err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}

	userRepo := &repositories.UserRepository{DB: db}
	chessInfoRepo := &repositories.ChessInfoRepository{DB: db}
	ticketRepo := &repositories.TicketRepository{RDB: rdb}

	chessClient := chesscom.NewClient(cfg.ChessComBaseURL, cfg.ChessComUserAgent, cfg.ChessComTimeout, logger)
	chessService := services.NewChessInfoService(chessClient, userRepo, chessInfoRepo, logger)
	verificationService := services.NewVerificationService(chessClient, userRepo, ticketRepo, chessService, cfg.VerificationTTL, logger)

	refreshJob := jobs.NewRatingRefreshJob(chessService, userRepo, &jobs.RefreshConfig{
		FastSchedule: cfg.FastRefreshSchedule,
		FullSchedule: cfg.FullRefreshSchedule,
		Concurrency:  cfg.RefreshConcurrency,
		RunOnStartup: cfg.RefreshOnStartup,
	}, logger)
	if err := refreshJob.Start(); err != nil {
		return err
	}
	defer refreshJob.Stop()

	authHandler := &handlers.AuthHandler{
		Users:     userRepo,
		Identity:  identity.NewGoogleProvider(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleCallbackURL, logger),
		Verifier:  verificationService,
		Ratings:   chessService,
		JWTSecret: cfg.JWTSecret,
		Logger:    logger,
	}
	chessHandler := &handlers.ChessHandler{Chess: chessService, Refresh: refreshJob, Logger: logger}
	userHandler := &handlers.UserHandler{Users: userRepo, Logger: logger}
	healthHandler := &handlers.HealthHandler{Probes: map[string]handlers.Probe{
		"database": sqlDB.PingContext,
		"redis":    func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
	}}

	router := newRouter(cfg, authHandler, chessHandler, userHandler, healthHandler)

	addr := ":" + cfg.Port
	logger.Info("chessconnect api starting", zap.String("addr", addr))
	if err := httpListenServe(addr, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	logger.Info("chessconnect api exited")
	return nil
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
