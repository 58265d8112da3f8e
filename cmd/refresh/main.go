package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chessconnect/api/internal/chesscom"
	"chessconnect/api/internal/config"
	"chessconnect/api/internal/jobs"
	"chessconnect/api/internal/repositories"
	"chessconnect/api/internal/services"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var (
	newLogger = zap.NewProduction
	gormOpen  = func(dsn string) (*gorm.DB, error) {
		return gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	}
	newRatingSource = func(cfg *config.Config, logger *zap.Logger) services.RatingSource {
		return chesscom.NewClient(cfg.ChessComBaseURL, cfg.ChessComUserAgent, cfg.ChessComTimeout, logger)
	}
)

func newRootCmd() *cobra.Command {
	var (
		passFlag    string
		concurrency int
	)

	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Run one rating refresh pass and print the report",
		Long: `Refresh cached Chess.com ratings outside the server's schedule.

  fast  only users that have linked an account but have no ratings yet
  full  every linked user`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			pass, err := jobs.ParsePass(passFlag)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runPass(ctx, cmd.OutOrStdout(), pass, concurrency)
		},
	}

	cmd.Flags().StringVar(&passFlag, "pass", string(jobs.PassFull), "refresh pass to run: fast or full")
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "users refreshed in parallel (default REFRESH_CONCURRENCY)")
	return cmd
}

func runPass(ctx context.Context, out io.Writer, pass jobs.Pass, concurrency int) error {
	logger, err := newLogger()
	if err != nil {
		return fmt.Errorf("failed to init logger: %w", err)
	}
	defer logger.Sync()

	cfg, err := config.LoadJobConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if concurrency <= 0 {
		concurrency = cfg.RefreshConcurrency
	}

	db, err := gormOpen(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect database: %w", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	userRepo := &repositories.UserRepository{DB: db}
	chessInfoRepo := &repositories.ChessInfoRepository{DB: db}
	chessService := services.NewChessInfoService(newRatingSource(cfg, logger), userRepo, chessInfoRepo, logger)

	job := jobs.NewRatingRefreshJob(chessService, userRepo, &jobs.RefreshConfig{Concurrency: concurrency}, logger)
	report := job.RunPass(ctx, pass)
	printReport(out, report)

	if report.Err != nil {
		return fmt.Errorf("%s pass could not load users: %w", pass, report.Err)
	}
	return nil
}

func printReport(out io.Writer, report jobs.PassReport) {
	fmt.Fprintf(out, "%s pass: %d refreshed, %d failed in %s\n",
		report.Pass, report.Succeeded(), report.Failed(), report.Duration.Round(time.Millisecond))
	for _, res := range report.Results {
		if res.Err != nil {
			fmt.Fprintf(out, "  user %d (%s): %v\n", res.UserID, res.ChessUsername, res.Err)
		}
	}
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
