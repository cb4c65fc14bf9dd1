package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("SWEEP_CRON", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0 0 * * *", cfg.Borrowing.SweepCron)
	assert.Equal(t, time.UTC, cfg.Borrowing.Location())
	assert.Equal(t, 60, cfg.Borrowing.MaxLoanDays)
	assert.Equal(t, 5*time.Minute, cfg.Borrowing.BookCacheTTL)
}

func TestLoad_RejectsInvalidSweepSettings(t *testing.T) {
	t.Setenv("SWEEP_CRON", "every midnight")
	_, err := Load()
	assert.ErrorContains(t, err, "SWEEP_CRON")

	t.Setenv("SWEEP_CRON", "0 0 * * *")
	t.Setenv("SWEEP_TIMEZONE", "Mars/Olympus")
	_, err = Load()
	assert.ErrorContains(t, err, "SWEEP_TIMEZONE")
}

func TestValidate_ProductionRequiresSecret(t *testing.T) {
	cfg := &Config{
		App:       AppConfig{Environment: "production"},
		JWT:       JWTConfig{Secret: defaultJWTSecret},
		Borrowing: BorrowingConfig{SweepCron: "0 0 * * *", SweepTimezone: "UTC", MaxLoanDays: 30},
		Worker:    WorkerConfig{Concurrency: 1},
	}
	assert.Error(t, cfg.Validate())

	cfg.JWT.Secret = "s3cret"
	assert.NoError(t, cfg.Validate())
}

func TestNextSweep(t *testing.T) {
	cfg := &Config{Borrowing: BorrowingConfig{SweepCron: "0 0 * * *", SweepTimezone: "UTC"}}

	next, err := cfg.NextSweep(time.Date(2026, 3, 14, 15, 4, 0, 0, time.UTC))
	require.NoError(t, err)
	want := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	assert.True(t, want.Equal(next), "next sweep %s", next)
}

func TestLoadDatabaseConfig(t *testing.T) {
	t.Setenv("DB_PORT", "6543")
	t.Setenv("DB_RETRY_DELAY", "250ms")

	cfg, err := LoadDatabaseConfig()
	require.NoError(t, err)
	assert.Equal(t, 6543, cfg.Port)
	assert.Equal(t, 250*time.Millisecond, cfg.RetryDelay)
	assert.Equal(t, int32(25), cfg.MaxConns)
	assert.Equal(t, 30*time.Second, cfg.MonitorInterval)

	t.Setenv("DB_MONITOR_INTERVAL", "soon")
	_, err = LoadDatabaseConfig()
	assert.ErrorContains(t, err, "DB_MONITOR_INTERVAL")
	t.Setenv("DB_MONITOR_INTERVAL", "0s")
	cfg, err = LoadDatabaseConfig()
	require.NoError(t, err)
	assert.Zero(t, cfg.MonitorInterval)

	t.Setenv("DB_PORT", "abc")
	_, err = LoadDatabaseConfig()
	assert.ErrorContains(t, err, "DB_PORT")
}
