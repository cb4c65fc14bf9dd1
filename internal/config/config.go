package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/robfig/cron/v3"
)

const defaultJWTSecret = "your-secret-key-change-in-production"

// Config chứa toàn bộ application configuration
// Struct này được populate từ environment variables
type Config struct {
	App       AppConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Borrowing BorrowingConfig
	Worker    WorkerConfig
	Metrics   MetricsConfig
}

type AppConfig struct {
	Name        string
	Environment string // development, staging, production
	Port        string
	Version     string
	LogLevel    string
}

type RedisConfig struct {
	Host     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret             string
	Issuer             string
	AccessTokenExpiry  int // minutes
	RefreshTokenExpiry int // hours
}

// =====================================================
// BORROWING CONFIGURATION
// =====================================================

type BorrowingConfig struct {
	SweepCron     string // standard 5-field cron, evaluated in SweepTimezone
	SweepTimezone string
	MaxLoanDays   int
	BookCacheTTL  time.Duration
}

// Location resolves SweepTimezone. Validate() guarantees it loads.
func (b BorrowingConfig) Location() *time.Location {
	loc, err := time.LoadLocation(b.SweepTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

type WorkerConfig struct {
	Concurrency int
	HealthPort  string
}

type MetricsConfig struct {
	Enabled bool
	Path    string
}

// Load đọc config từ environment variables
func Load() (*Config, error) {
	cfg := &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", "Library API"),
			Environment: getEnv("APP_ENV", "development"),
			Port:        getEnv("APP_PORT", "8080"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			Secret:             getEnv("JWT_SECRET", defaultJWTSecret),
			Issuer:             getEnv("JWT_ISSUER", "library-backend"),
			AccessTokenExpiry:  getEnvInt("JWT_ACCESS_EXPIRY", 15),  // 15 minutes
			RefreshTokenExpiry: getEnvInt("JWT_REFRESH_EXPIRY", 72), // 3 days
		},
		Borrowing: BorrowingConfig{
			SweepCron:     getEnv("SWEEP_CRON", "0 0 * * *"),
			SweepTimezone: getEnv("SWEEP_TIMEZONE", "UTC"),
			MaxLoanDays:   getEnvInt("BORROW_MAX_LOAN_DAYS", 60),
			BookCacheTTL:  getEnvDuration("BOOK_CACHE_TTL", 5*time.Minute),
		},
		Worker: WorkerConfig{
			Concurrency: getEnvInt("WORKER_CONCURRENCY", 10),
			HealthPort:  getEnv("WORKER_HEALTH_PORT", "8081"),
		},
		Metrics: MetricsConfig{
			Enabled: getEnvBool("METRICS_ENABLED", true),
			Path:    getEnv("METRICS_PATH", "/metrics"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate kiểm tra config có hợp lệ không
func (c *Config) Validate() error {
	if c.App.Environment == "production" && c.JWT.Secret == defaultJWTSecret {
		return fmt.Errorf("JWT_SECRET must be set in production")
	}

	if _, err := cron.ParseStandard(c.Borrowing.SweepCron); err != nil {
		return fmt.Errorf("invalid SWEEP_CRON %q: %w", c.Borrowing.SweepCron, err)
	}
	if _, err := time.LoadLocation(c.Borrowing.SweepTimezone); err != nil {
		return fmt.Errorf("invalid SWEEP_TIMEZONE %q: %w", c.Borrowing.SweepTimezone, err)
	}
	if c.Borrowing.MaxLoanDays < 1 {
		return fmt.Errorf("BORROW_MAX_LOAN_DAYS must be positive, got %d", c.Borrowing.MaxLoanDays)
	}
	if c.Worker.Concurrency < 1 {
		return fmt.Errorf("WORKER_CONCURRENCY must be positive, got %d", c.Worker.Concurrency)
	}

	return nil
}

// NextSweep returns the next scheduled sweep time after t.
func (c *Config) NextSweep(t time.Time) (time.Time, error) {
	sched, err := cron.ParseStandard(c.Borrowing.SweepCron)
	if err != nil {
		return time.Time{}, err
	}
	return sched.Next(t.In(c.Borrowing.Location())), nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvBool(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}
