package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// app config, read from the environment (and an optional .env file)
type Config struct {
	Port        string
	DatabaseURL string
	FrontendURL string
	JWTSecret   string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	GoogleClientID     string
	GoogleClientSecret string
	GoogleCallbackURL  string

	ChessComBaseURL   string
	ChessComUserAgent string
	ChessComTimeout   time.Duration

	VerificationTTL time.Duration

	FastRefreshSchedule string
	FullRefreshSchedule string
	RefreshConcurrency  int
	RefreshOnStartup    bool
}

// LoadConfig loads configuration from environment variables. A .env file in the
// working directory is read first when present; real env vars win over it.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	config := fromEnv()
	if err := validateConfig(config); err != nil {
		return nil, err
	}
	return config, nil
}

// LoadJobConfig is LoadConfig for offline tools that never serve HTTP, so
// the auth settings are not required.
func LoadJobConfig() (*Config, error) {
	_ = godotenv.Load()

	config := fromEnv()
	if err := validateJobConfig(config); err != nil {
		return nil, err
	}
	return config, nil
}

func fromEnv() *Config {
	return &Config{
		Port:        getEnvOrDefault("PORT", "8080"),
		DatabaseURL: getEnvOrDefault("DATABASE_URL", postgresDSNFromParts()),
		FrontendURL: getEnvOrDefault("FRONTEND_URL", "http://localhost:5173"),
		JWTSecret:   os.Getenv("JWT_SECRET"),

		RedisAddr:     getEnvOrDefault("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		GoogleCallbackURL:  getEnvOrDefault("GOOGLE_CALLBACK_URL", "http://localhost:8080/api/auth/google/callback"),

		ChessComBaseURL:   getEnvOrDefault("CHESSCOM_BASE_URL", "https://api.chess.com/pub/player"),
		ChessComUserAgent: getEnvOrDefault("CHESSCOM_USER_AGENT", "chessconnect (contact@chessconnect.dev)"),
		ChessComTimeout:   getEnvDuration("CHESSCOM_TIMEOUT", 10*time.Second),

		VerificationTTL: getEnvDuration("VERIFICATION_TTL", time.Hour),

		FastRefreshSchedule: getEnvOrDefault("REFRESH_FAST_SCHEDULE", "0 * * * *"),
		FullRefreshSchedule: getEnvOrDefault("REFRESH_FULL_SCHEDULE", "0 3 * * *"),
		RefreshConcurrency:  getEnvInt("REFRESH_CONCURRENCY", 4),
		RefreshOnStartup:    getEnvBool("REFRESH_ON_STARTUP", true),
	}
}

func validateConfig(config *Config) error {
	if config.JWTSecret == "" {
		return errors.New("JWT_SECRET must be set")
	}
	if config.GoogleClientID == "" || config.GoogleClientSecret == "" {
		return errors.New("GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET must be set")
	}
	if config.VerificationTTL <= 0 {
		return fmt.Errorf("VERIFICATION_TTL must be positive, got %s", config.VerificationTTL)
	}
	return validateJobConfig(config)
}

func validateJobConfig(config *Config) error {
	if config.RefreshConcurrency < 1 {
		return fmt.Errorf("REFRESH_CONCURRENCY must be at least 1, got %d", config.RefreshConcurrency)
	}
	return nil
}

func postgresDSNFromParts() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		getEnvOrDefault("POSTGRES_HOST", "localhost"),
		getEnvOrDefault("POSTGRES_USER", "postgres"),
		getEnvOrDefault("POSTGRES_PASSWORD", "postgres"),
		getEnvOrDefault("POSTGRES_DB", "chessconnect"),
		getEnvOrDefault("POSTGRES_PORT", "5432"),
		getEnvOrDefault("POSTGRES_SSLMODE", "disable"))
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
