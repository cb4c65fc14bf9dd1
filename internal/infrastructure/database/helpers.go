package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"library-backend/pkg/logger"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Postgres SQLSTATE codes mà repository layer cần phân biệt
const (
	CodeUniqueViolation      = "23505"
	CodeForeignKeyViolation  = "23503"
	CodeCheckViolation       = "23514"
	CodeSerializationFailure = "40001"
	CodeDeadlockDetected     = "40P01"
)

// PgErrorCode trả về SQLSTATE nếu err là *pgconn.PgError
func PgErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// ConstraintName trả về tên constraint bị vi phạm (nếu có)
func ConstraintName(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.ConstraintName
	}
	return ""
}

func IsUniqueViolation(err error) bool { return PgErrorCode(err) == CodeUniqueViolation }

func IsCheckViolation(err error) bool { return PgErrorCode(err) == CodeCheckViolation }

func IsForeignKeyViolation(err error) bool { return PgErrorCode(err) == CodeForeignKeyViolation }

// IsNoRows: pgx.ErrNoRows từ QueryRow().Scan()
func IsNoRows(err error) bool { return errors.Is(err, pgx.ErrNoRows) }

// IsTransient: lỗi mà caller có thể retry nguyên operation
func IsTransient(err error) bool {
	switch PgErrorCode(err) {
	case CodeSerializationFailure, CodeDeadlockDetected:
		return true
	}
	var connErr *pgconn.ConnectError
	return errors.As(err, &connErr)
}

// Ping kiểm tra database connection còn responsive không (timeout 5s)
func (db *PostgresDB) Ping(ctx context.Context) error {
	if db.Pool == nil {
		return fmt.Errorf("database pool is not initialized")
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := db.Pool.Ping(pingCtx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	return nil
}

// Close đóng pool. Gọi nhiều lần vẫn an toàn.
func (db *PostgresDB) Close() error {
	if db.Pool == nil {
		return nil
	}
	logger.Info("[DATABASE] Closing connection pool", nil)
	db.Pool.Close()
	db.Pool = nil
	return nil
}

// PoolStats là snapshot thống kê connection pool, trả về qua /health
type PoolStats struct {
	TotalConns           int32         `json:"total_conns"`
	AcquiredConns        int32         `json:"acquired_conns"`
	IdleConns            int32         `json:"idle_conns"`
	MaxConns             int32         `json:"max_conns"`
	AcquireCount         int64         `json:"acquire_count"`
	EmptyAcquireCount    int64         `json:"empty_acquire_count"`
	CanceledAcquireCount int64         `json:"canceled_acquire_count"`
	AvgAcquireDuration   time.Duration `json:"avg_acquire_duration"`
}

func (db *PostgresDB) Stats() (*PoolStats, error) {
	if db.Pool == nil {
		return nil, fmt.Errorf("database pool is not initialized")
	}

	raw := db.Pool.Stat()
	return &PoolStats{
		TotalConns:           raw.TotalConns(),
		AcquiredConns:        raw.AcquiredConns(),
		IdleConns:            raw.IdleConns(),
		MaxConns:             raw.MaxConns(),
		AcquireCount:         raw.AcquireCount(),
		EmptyAcquireCount:    raw.EmptyAcquireCount(),
		CanceledAcquireCount: raw.CanceledAcquireCount(),
		AvgAcquireDuration:   calculateAvgDuration(raw.AcquireDuration(), raw.AcquireCount()),
	}, nil
}

func calculateAvgDuration(totalDuration time.Duration, count int64) time.Duration {
	if count == 0 {
		return 0
	}
	return totalDuration / time.Duration(count)
}

// MonitorPoolHealth log cảnh báo khi pool gần cạn. Chạy trong goroutine riêng.
func (db *PostgresDB) MonitorPoolHealth(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			stats, err := db.Stats()
			if err != nil {
				return
			}
			if stats.MaxConns > 0 {
				utilization := float64(stats.AcquiredConns) / float64(stats.MaxConns) * 100
				if utilization > 80 {
					logger.Warn("[MONITOR] High pool utilization", map[string]interface{}{
						"utilization_pct": utilization,
						"acquired":        stats.AcquiredConns,
						"max":             stats.MaxConns,
					})
				}
			}
			if stats.AvgAcquireDuration > 100*time.Millisecond {
				logger.Warn("[MONITOR] High acquire latency", map[string]interface{}{
					"avg": stats.AvgAcquireDuration.String(),
				})
			}
		case <-ctx.Done():
			return
		}
	}
}
