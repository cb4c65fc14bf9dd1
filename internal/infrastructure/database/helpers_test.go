package database

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestPgErrorClassification(t *testing.T) {
	unique := fmt.Errorf("insert: %w", &pgconn.PgError{Code: CodeUniqueViolation, ConstraintName: "ux_active_loan"})
	check := &pgconn.PgError{Code: CodeCheckViolation}
	serialization := &pgconn.PgError{Code: CodeSerializationFailure}

	assert.True(t, IsUniqueViolation(unique))
	assert.Equal(t, "ux_active_loan", ConstraintName(unique))
	assert.True(t, IsCheckViolation(check))
	assert.False(t, IsUniqueViolation(check))
	assert.True(t, IsTransient(serialization))
	assert.False(t, IsTransient(unique))
	assert.True(t, IsNoRows(fmt.Errorf("scan: %w", pgx.ErrNoRows)))
	assert.Empty(t, PgErrorCode(fmt.Errorf("plain")))
}

func TestDSN(t *testing.T) {
	cfg := &DBConfig{Host: "db", Port: 5432, Username: "lib", Password: "p@ss", DBName: "library", SSLMode: "disable"}
	assert.Equal(t, "postgresql://lib:p%40ss@db:5432/library?sslmode=disable", cfg.DSN())
}

func TestCalculateAvgDuration(t *testing.T) {
	assert.Equal(t, time.Duration(0), calculateAvgDuration(time.Second, 0))
	assert.Equal(t, 250*time.Millisecond, calculateAvgDuration(time.Second, 4))
}

func TestClosedPool(t *testing.T) {
	db := NewPostgresDB(&DBConfig{})
	assert.Error(t, db.Ping(t.Context()))
	assert.NoError(t, db.Close())
	_, err := db.Stats()
	assert.Error(t, err)
}

func TestMonitorPoolHealth_Returns(t *testing.T) {
	db := NewPostgresDB(&DBConfig{})

	run := func(ctx context.Context, interval time.Duration) {
		done := make(chan struct{})
		go func() {
			db.MonitorPoolHealth(ctx, interval)
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("monitor did not stop")
		}
	}

	// interval 0: tắt monitor
	run(context.Background(), 0)

	// pool chưa init: Stats lỗi ở tick đầu
	run(context.Background(), time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	run(ctx, time.Hour)
}
