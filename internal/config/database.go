package config

import (
	"fmt"
	"strconv"
	"time"

	"library-backend/internal/infrastructure/database"
)

// LoadDatabaseConfig đọc DB_* env vars và trả về DBConfig cho pgxpool
func LoadDatabaseConfig() (*database.DBConfig, error) {
	var port, maxConns, minConns, maxRetries int
	ints := []struct {
		key, def string
		dst      *int
	}{
		{"DB_PORT", "5432", &port},
		{"DB_MAX_CONNECTIONS", "25", &maxConns},
		{"DB_MIN_CONNECTIONS", "5", &minConns},
		{"DB_MAX_RETRIES", "5", &maxRetries},
	}
	for _, e := range ints {
		v, err := strconv.Atoi(getEnv(e.key, e.def))
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", e.key, err)
		}
		*e.dst = v
	}

	var maxConnLifetime, maxConnIdleTime, healthCheckPeriod, monitorInterval, retryDelay, connectTimeout time.Duration
	durations := []struct {
		key, def string
		dst      *time.Duration
	}{
		{"DB_MAX_CONN_LIFETIME", "5m", &maxConnLifetime},
		{"DB_MAX_CONN_IDLE_TIME", "1m", &maxConnIdleTime},
		{"DB_HEALTH_CHECK_PERIOD", "1m", &healthCheckPeriod},
		{"DB_MONITOR_INTERVAL", "30s", &monitorInterval},
		{"DB_RETRY_DELAY", "1s", &retryDelay},
		{"DB_CONNECT_TIMEOUT", "10s", &connectTimeout},
	}
	for _, e := range durations {
		v, err := time.ParseDuration(getEnv(e.key, e.def))
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", e.key, err)
		}
		*e.dst = v
	}

	if minConns > maxConns {
		return nil, fmt.Errorf("DB_MIN_CONNECTIONS (%d) exceeds DB_MAX_CONNECTIONS (%d)", minConns, maxConns)
	}

	return &database.DBConfig{
		Host:              getEnv("DB_HOST", "localhost"),
		Port:              port,
		Username:          getEnv("DB_USER", "library"),
		Password:          getEnv("DB_PASSWORD", "secret"),
		DBName:            getEnv("DB_NAME", "library_dev"),
		SSLMode:           getEnv("DB_SSLMODE", "disable"),
		MaxConns:          int32(maxConns),
		MinConns:          int32(minConns),
		MaxConnLifetime:   maxConnLifetime,
		MaxConnIdleTime:   maxConnIdleTime,
		HealthCheckPeriod: healthCheckPeriod,
		MonitorInterval:   monitorInterval,
		MaxRetries:        maxRetries,
		RetryDelay:        retryDelay,
		ConnectTimeout:    connectTimeout,
	}, nil
}
