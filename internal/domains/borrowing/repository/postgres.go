package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"library-backend/internal/domains/borrowing/model"
	infradb "library-backend/internal/infrastructure/database"
	"library-backend/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const (
	constraintActiveLoan = "ux_active_loan"
	constraintBookFK     = "borrow_transactions_book_id_fkey"
)

var borrowFields = []string{
	"id", "user_id", "book_id", "borrow_date", "due_date", "return_date",
	"status", "is_deleted", "deleted_at", "created_at", "updated_at",
}

// borrowColumns trả danh sách cột, có alias nếu cần join
func borrowColumns(alias string) string {
	if alias == "" {
		return strings.Join(borrowFields, ", ")
	}
	cols := make([]string, len(borrowFields))
	for i, f := range borrowFields {
		cols[i] = alias + "." + f
	}
	return strings.Join(cols, ", ")
}

type postgresRepository struct {
	db database.DBTX
}

func NewPostgresRepository(db database.DBTX) RepositoryInterface {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) WithTx(db database.DBTX) RepositoryInterface {
	return &postgresRepository{db: db}
}

func borrowDest(t *model.BorrowTransaction, status *string) []interface{} {
	return []interface{}{
		&t.ID, &t.UserID, &t.BookID, &t.BorrowDate, &t.DueDate, &t.ReturnDate,
		status, &t.IsDeleted, &t.DeletedAt, &t.CreatedAt, &t.UpdatedAt,
	}
}

func scanBorrow(row pgx.Row, extra ...interface{}) (*model.BorrowTransaction, error) {
	var (
		t      model.BorrowTransaction
		status string
	)
	if err := row.Scan(append(borrowDest(&t, &status), extra...)...); err != nil {
		return nil, err
	}
	t.Status = model.Status(status)
	return &t, nil
}

// ============================================
// ACTIVE LOAN CHECK / CREATE
// ============================================

func (r *postgresRepository) HasActiveLoan(ctx context.Context, userID, bookID uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM borrow_transactions
			WHERE user_id = $1 AND book_id = $2
			  AND status IN ('BORROWED', 'OVERDUE')
			  AND is_deleted = FALSE
		)`

	var exists bool
	if err := r.db.QueryRow(ctx, query, userID, bookID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check active loan: %w", err)
	}
	return exists, nil
}

func (r *postgresRepository) Create(ctx context.Context, p model.CreateParams) (*model.BorrowTransaction, error) {
	query := `
		INSERT INTO borrow_transactions (id, user_id, book_id, due_date, status)
		VALUES ($1, $2, $3, $4, 'BORROWED')
		RETURNING ` + borrowColumns("")

	t, err := scanBorrow(r.db.QueryRow(ctx, query, p.ID, p.UserID, p.BookID, p.DueDate))
	if err != nil {
		switch {
		case infradb.IsUniqueViolation(err) && infradb.ConstraintName(err) == constraintActiveLoan:
			return nil, model.ErrActiveLoanExists
		case infradb.IsForeignKeyViolation(err) && infradb.ConstraintName(err) == constraintBookFK:
			return nil, model.ErrBookNotFound
		}
		return nil, fmt.Errorf("insert borrow transaction: %w", err)
	}
	return t, nil
}

// ============================================
// TRANSITIONS
// ============================================

func (r *postgresRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*model.BorrowTransaction, error) {
	query := `SELECT ` + borrowColumns("") + `
		FROM borrow_transactions
		WHERE id = $1 AND is_deleted = FALSE
		FOR UPDATE`

	t, err := scanBorrow(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if infradb.IsNoRows(err) {
			return nil, model.ErrBorrowNotFound
		}
		return nil, fmt.Errorf("lock borrow transaction: %w", err)
	}
	return t, nil
}

func (r *postgresRepository) TransitionToReturned(ctx context.Context, id uuid.UUID, returnDate *time.Time) (*model.BorrowTransaction, bool, error) {
	// prev giữ status trước UPDATE để biết có thực sự chuyển trạng thái không
	query := `
		WITH prev AS (
			SELECT id, status FROM borrow_transactions
			WHERE id = $1 AND is_deleted = FALSE
			FOR UPDATE
		)
		UPDATE borrow_transactions b
		SET status = 'RETURNED',
		    return_date = COALESCE($2::timestamptz,
		        CASE WHEN prev.status = 'RETURNED' THEN b.return_date ELSE NOW() END),
		    updated_at = NOW()
		FROM prev
		WHERE b.id = prev.id
		  AND (prev.status <> 'RETURNED' OR $2::timestamptz IS NOT NULL)
		RETURNING ` + borrowColumns("b") + `, prev.status <> 'RETURNED'`

	var changed bool
	t, err := scanBorrow(r.db.QueryRow(ctx, query, id, returnDate), &changed)
	if err == nil {
		return t, changed, nil
	}
	if infradb.IsCheckViolation(err) {
		return nil, false, model.ErrInvalidTransition
	}
	if !infradb.IsNoRows(err) {
		return nil, false, fmt.Errorf("return borrow transaction: %w", err)
	}

	// Không có row: hoặc không tồn tại, hoặc đã RETURNED và không sửa ngày
	existing, err := r.get(ctx, id)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

func (r *postgresRepository) MarkOverdue(ctx context.Context, id uuid.UUID) (*model.BorrowTransaction, error) {
	query := `
		UPDATE borrow_transactions
		SET status = 'OVERDUE', updated_at = NOW()
		WHERE id = $1 AND status = 'BORROWED' AND is_deleted = FALSE
		RETURNING ` + borrowColumns("")

	t, err := scanBorrow(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if infradb.IsNoRows(err) {
			return nil, model.ErrBorrowNotFound
		}
		return nil, fmt.Errorf("mark borrow overdue: %w", err)
	}
	return t, nil
}

// SweepOverdue: một câu UPDATE, chạy lại cùng asOf không đổi gì thêm
func (r *postgresRepository) SweepOverdue(ctx context.Context, asOf time.Time) (int64, error) {
	query := `
		UPDATE borrow_transactions
		SET status = 'OVERDUE', updated_at = NOW()
		WHERE status = 'BORROWED' AND due_date < $1 AND is_deleted = FALSE`

	tag, err := r.db.Exec(ctx, query, asOf)
	if err != nil {
		return 0, fmt.Errorf("sweep overdue: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *postgresRepository) SoftDelete(ctx context.Context, id uuid.UUID) (*model.BorrowTransaction, error) {
	query := `
		UPDATE borrow_transactions
		SET is_deleted = TRUE, deleted_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND is_deleted = FALSE
		RETURNING ` + borrowColumns("")

	t, err := scanBorrow(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if infradb.IsNoRows(err) {
			return nil, model.ErrBorrowNotFound
		}
		return nil, fmt.Errorf("soft delete borrow transaction: %w", err)
	}
	return t, nil
}

// ============================================
// READ
// ============================================

func (r *postgresRepository) get(ctx context.Context, id uuid.UUID) (*model.BorrowTransaction, error) {
	query := `SELECT ` + borrowColumns("") + ` FROM borrow_transactions WHERE id = $1 AND is_deleted = FALSE`

	t, err := scanBorrow(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if infradb.IsNoRows(err) {
			return nil, model.ErrBorrowNotFound
		}
		return nil, fmt.Errorf("get borrow transaction: %w", err)
	}
	return t, nil
}

const detailFrom = `
	FROM borrow_transactions b
	JOIN books bk ON bk.id = b.book_id
	JOIN users u ON u.id = b.user_id`

func scanDetail(row pgx.Row) (*model.BorrowDetail, error) {
	var d model.BorrowDetail
	t, err := scanBorrow(row, &d.Book.Title, &d.User.Name, &d.User.Email)
	if err != nil {
		return nil, err
	}
	d.BorrowTransaction = *t
	d.Book.ID = t.BookID
	d.User.ID = t.UserID
	return &d, nil
}

func (r *postgresRepository) GetDetail(ctx context.Context, id uuid.UUID) (*model.BorrowDetail, error) {
	query := `SELECT ` + borrowColumns("b") + `, bk.title, u.name, u.email` + detailFrom + `
		WHERE b.id = $1 AND b.is_deleted = FALSE`

	d, err := scanDetail(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if infradb.IsNoRows(err) {
			return nil, model.ErrBorrowNotFound
		}
		return nil, fmt.Errorf("get borrow detail: %w", err)
	}
	return d, nil
}

func (r *postgresRepository) List(ctx context.Context, filter model.ListFilter) ([]model.BorrowDetail, int, error) {
	where := []string{"b.is_deleted = FALSE"}
	args := []interface{}{}

	if filter.Status != nil {
		args = append(args, string(*filter.Status))
		where = append(where, fmt.Sprintf("b.status = $%d", len(args)))
	}
	if filter.UserID != nil {
		args = append(args, *filter.UserID)
		where = append(where, fmt.Sprintf("b.user_id = $%d", len(args)))
	}
	if filter.BookID != nil {
		args = append(args, *filter.BookID)
		where = append(where, fmt.Sprintf("b.book_id = $%d", len(args)))
	}
	whereClause := strings.Join(where, " AND ")

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM borrow_transactions b WHERE `+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count borrow transactions: %w", err)
	}

	args = append(args, filter.Limit, filter.Offset)
	query := fmt.Sprintf(`SELECT %s, bk.title, u.name, u.email %s
		WHERE %s
		ORDER BY b.created_at DESC, b.id
		LIMIT $%d OFFSET $%d`,
		borrowColumns("b"), detailFrom, whereClause, len(args)-1, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list borrow transactions: %w", err)
	}
	defer rows.Close()

	items := make([]model.BorrowDetail, 0, filter.Limit)
	for rows.Next() {
		d, err := scanDetail(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan borrow transaction: %w", err)
		}
		items = append(items, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("rows error: %w", err)
	}
	return items, total, nil
}
