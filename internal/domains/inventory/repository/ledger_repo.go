package repository

import (
	"context"
	"fmt"

	"library-backend/internal/domains/inventory/model"
	infradb "library-backend/internal/infrastructure/database"
	"library-backend/pkg/database"

	"github.com/google/uuid"
)

type ledgerRepository struct {
	db database.DBTX
}

func NewLedgerRepository(db database.DBTX) LedgerInterface {
	return &ledgerRepository{db: db}
}

func (r *ledgerRepository) WithTx(db database.DBTX) LedgerInterface {
	return &ledgerRepository{db: db}
}

// ============================================
// RESERVE / RELEASE
// ============================================

// Reserve: UPDATE có điều kiện, row lock của Postgres serialize các reserve
// đồng thời trên cùng book nên available_stock không bao giờ âm.
func (r *ledgerRepository) Reserve(ctx context.Context, bookID uuid.UUID, ref uuid.UUID) (*model.Movement, error) {
	query := `
		UPDATE books
		SET available_stock = available_stock - 1, updated_at = NOW()
		WHERE id = $1 AND is_deleted = FALSE AND available_stock >= 1
		RETURNING available_stock`

	var after int
	if err := r.db.QueryRow(ctx, query, bookID).Scan(&after); err != nil {
		if infradb.IsNoRows(err) {
			return nil, r.classifyReserveMiss(ctx, bookID)
		}
		if infradb.IsCheckViolation(err) {
			return nil, model.NewStockInvariantError(bookID, "reserve")
		}
		return nil, fmt.Errorf("reserve stock: %w", err)
	}

	return r.recordMovement(ctx, bookID, model.MovementReserve, after, ref)
}

// classifyReserveMiss tìm lý do UPDATE không match row nào
func (r *ledgerRepository) classifyReserveMiss(ctx context.Context, bookID uuid.UUID) error {
	var (
		isDeleted bool
		available int
	)
	err := r.db.QueryRow(ctx,
		`SELECT is_deleted, available_stock FROM books WHERE id = $1`, bookID,
	).Scan(&isDeleted, &available)
	switch {
	case infradb.IsNoRows(err):
		return model.ErrBookNotFound
	case err != nil:
		return fmt.Errorf("lookup book stock: %w", err)
	case isDeleted:
		return model.ErrBookDeleted
	default:
		return model.NewOutOfStockError(bookID)
	}
}

// Release không lọc is_deleted: trả sách của đầu sách đã xóa vẫn phải cộng lại tồn
func (r *ledgerRepository) Release(ctx context.Context, bookID uuid.UUID, ref uuid.UUID) (*model.Movement, error) {
	query := `
		UPDATE books
		SET available_stock = available_stock + 1, updated_at = NOW()
		WHERE id = $1
		RETURNING available_stock`

	var after int
	if err := r.db.QueryRow(ctx, query, bookID).Scan(&after); err != nil {
		if infradb.IsNoRows(err) {
			return nil, model.ErrBookNotFound
		}
		if infradb.IsCheckViolation(err) {
			return nil, model.NewStockInvariantError(bookID, "release")
		}
		return nil, fmt.Errorf("release stock: %w", err)
	}

	return r.recordMovement(ctx, bookID, model.MovementRelease, after, ref)
}

func (r *ledgerRepository) recordMovement(ctx context.Context, bookID uuid.UUID, typ model.MovementType, after int, ref uuid.UUID) (*model.Movement, error) {
	m := &model.Movement{
		BookID:         bookID,
		MovementType:   typ,
		Delta:          typ.Delta(),
		AvailableAfter: after,
	}
	if ref != uuid.Nil {
		m.ReferenceID = &ref
	}

	query := `
		INSERT INTO book_stock_movements (book_id, movement_type, delta, available_after, reference_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	if err := r.db.QueryRow(ctx, query,
		m.BookID, string(m.MovementType), m.Delta, m.AvailableAfter, m.ReferenceID,
	).Scan(&m.ID, &m.CreatedAt); err != nil {
		return nil, fmt.Errorf("insert stock movement: %w", err)
	}
	return m, nil
}

// ============================================
// READ
// ============================================

func (r *ledgerRepository) Snapshot(ctx context.Context, bookID uuid.UUID) (*model.Availability, error) {
	a := &model.Availability{BookID: bookID}
	err := r.db.QueryRow(ctx,
		`SELECT stock, available_stock, is_deleted FROM books WHERE id = $1`, bookID,
	).Scan(&a.Stock, &a.AvailableStock, &a.IsDeleted)
	if err != nil {
		if infradb.IsNoRows(err) {
			return nil, model.ErrBookNotFound
		}
		return nil, fmt.Errorf("snapshot stock: %w", err)
	}
	a.OnLoan = a.Stock - a.AvailableStock
	return a, nil
}

func (r *ledgerRepository) ListMovements(ctx context.Context, bookID uuid.UUID, limit, offset int) ([]model.Movement, int, error) {
	var total int
	if err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM book_stock_movements WHERE book_id = $1`, bookID,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count stock movements: %w", err)
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, book_id, movement_type, delta, available_after, reference_id, created_at
		FROM book_stock_movements
		WHERE book_id = $1
		ORDER BY id DESC
		LIMIT $2 OFFSET $3`, bookID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list stock movements: %w", err)
	}
	defer rows.Close()

	movements := make([]model.Movement, 0, limit)
	for rows.Next() {
		var (
			m   model.Movement
			typ string
		)
		if err := rows.Scan(&m.ID, &m.BookID, &typ, &m.Delta, &m.AvailableAfter, &m.ReferenceID, &m.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan stock movement: %w", err)
		}
		m.MovementType = model.MovementType(typ)
		movements = append(movements, m)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("rows error: %w", err)
	}
	return movements, total, nil
}
