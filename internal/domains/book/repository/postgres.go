package repository

import (
	"context"
	"fmt"
	"strings"

	"library-backend/internal/domains/book/model"
	infradb "library-backend/internal/infrastructure/database"
	"library-backend/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const bookColumns = `id, title, description, publish_date, stock, available_stock,
	authors, categories, is_deleted, deleted_at, version, created_at, updated_at`

type postgresRepository struct {
	db database.DBTX
}

// NewPostgresRepository nhận pool hoặc pgx.Tx
func NewPostgresRepository(db database.DBTX) RepositoryInterface {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) WithTx(db database.DBTX) RepositoryInterface {
	return &postgresRepository{db: db}
}

func scanBook(row pgx.Row) (*model.Book, error) {
	var b model.Book
	err := row.Scan(
		&b.ID, &b.Title, &b.Description, &b.PublishDate, &b.Stock, &b.AvailableStock,
		&b.Authors, &b.Categories, &b.IsDeleted, &b.DeletedAt, &b.Version, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// ============================================
// CREATE
// ============================================

func (r *postgresRepository) Create(ctx context.Context, book *model.Book) error {
	query := `
		INSERT INTO books (id, title, description, publish_date, stock, available_stock, authors, categories)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING version, created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		book.ID, book.Title, book.Description, book.PublishDate,
		book.Stock, book.AvailableStock, book.Authors, book.Categories,
	).Scan(&book.Version, &book.CreatedAt, &book.UpdatedAt)
	if err != nil {
		if infradb.IsCheckViolation(err) {
			return model.ErrInvalidStock
		}
		return fmt.Errorf("insert book: %w", err)
	}
	return nil
}

// ============================================
// READ
// ============================================

func (r *postgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Book, error) {
	query := `SELECT ` + bookColumns + ` FROM books WHERE id = $1 AND is_deleted = FALSE`

	book, err := scanBook(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if infradb.IsNoRows(err) {
			return nil, model.ErrBookNotFound
		}
		return nil, fmt.Errorf("get book: %w", err)
	}
	return book, nil
}

func (r *postgresRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*model.Book, error) {
	query := `SELECT ` + bookColumns + ` FROM books WHERE id = $1 FOR UPDATE`

	book, err := scanBook(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if infradb.IsNoRows(err) {
			return nil, model.ErrBookNotFound
		}
		return nil, fmt.Errorf("lock book: %w", err)
	}
	return book, nil
}

func (r *postgresRepository) List(ctx context.Context, filter model.BookFilter) ([]model.Book, int, error) {
	where := []string{"is_deleted = FALSE"}
	args := []interface{}{}

	if filter.Title != "" {
		args = append(args, filter.Title)
		where = append(where, fmt.Sprintf("title ILIKE '%%' || $%d || '%%'", len(args)))
	}
	if filter.Author != "" {
		args = append(args, filter.Author)
		where = append(where, fmt.Sprintf("$%d = ANY(authors)", len(args)))
	}
	if filter.Category != "" {
		args = append(args, filter.Category)
		where = append(where, fmt.Sprintf("$%d = ANY(categories)", len(args)))
	}
	whereClause := strings.Join(where, " AND ")

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM books WHERE `+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count books: %w", err)
	}

	args = append(args, filter.Limit, filter.Offset)
	query := fmt.Sprintf(`SELECT %s FROM books WHERE %s ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d`,
		bookColumns, whereClause, len(args)-1, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list books: %w", err)
	}
	defer rows.Close()

	books := make([]model.Book, 0, filter.Limit)
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan book: %w", err)
		}
		books = append(books, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("rows error: %w", err)
	}

	return books, total, nil
}

// ============================================
// UPDATE (optimistic lock qua version)
// ============================================

// Update ghi metadata và stock. Thay đổi stock được cộng cùng delta vào available_stock
// để số bản đang cho mượn giữ nguyên; CHECK constraint chặn available_stock < 0.
func (r *postgresRepository) Update(ctx context.Context, book *model.Book) error {
	query := `
		UPDATE books SET
			title = $2,
			description = $3,
			publish_date = $4,
			authors = $5,
			categories = $6,
			available_stock = available_stock + ($7 - stock),
			stock = $7,
			version = version + 1,
			updated_at = NOW()
		WHERE id = $1 AND version = $8 AND is_deleted = FALSE
		RETURNING available_stock, version, updated_at`

	err := r.db.QueryRow(ctx, query,
		book.ID, book.Title, book.Description, book.PublishDate,
		book.Authors, book.Categories, book.Stock, book.Version,
	).Scan(&book.AvailableStock, &book.Version, &book.UpdatedAt)
	if err == nil {
		return nil
	}
	if infradb.IsCheckViolation(err) {
		return model.ErrStockBelowOnLoan
	}
	if !infradb.IsNoRows(err) {
		return fmt.Errorf("update book: %w", err)
	}

	// 0 rows: phân biệt không tồn tại và version conflict
	var exists bool
	if err := r.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM books WHERE id = $1 AND is_deleted = FALSE)`, book.ID,
	).Scan(&exists); err != nil {
		return fmt.Errorf("check book exists: %w", err)
	}
	if !exists {
		return model.ErrBookNotFound
	}
	return model.ErrVersionConflict
}

// ============================================
// SOFT DELETE
// ============================================

func (r *postgresRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE books SET is_deleted = TRUE, deleted_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND is_deleted = FALSE`, id)
	if err != nil {
		return fmt.Errorf("soft delete book: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrBookNotFound
	}
	return nil
}
