package service

import (
	"context"
	"errors"
	"testing"
	"time"

	bookrepo "library-backend/internal/domains/book/repository"
	"library-backend/internal/domains/borrowing/model"
	"library-backend/internal/domains/borrowing/repository"
	invrepo "library-backend/internal/domains/inventory/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	bookCols = []string{
		"id", "title", "description", "publish_date", "stock", "available_stock",
		"authors", "categories", "is_deleted", "deleted_at", "version", "created_at", "updated_at",
	}
	loanCols = []string{
		"id", "user_id", "book_id", "borrow_date", "due_date", "return_date",
		"status", "is_deleted", "deleted_at", "created_at", "updated_at",
	}
)

func newPgUnitOfWork(t *testing.T) (pgxmock.PgxPoolIface, *PostgresUnitOfWork) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	uow := NewPostgresUnitOfWork(mock,
		bookrepo.NewPostgresRepository(mock),
		invrepo.NewLedgerRepository(mock),
		repository.NewPostgresRepository(mock),
	)
	return mock, uow
}

func bookRow(id uuid.UUID, available int) *pgxmock.Rows {
	now := time.Now()
	return pgxmock.NewRows(bookCols).AddRow(
		id, "Dune", (*string)(nil), now, 3, available,
		[]string{"Frank Herbert"}, []string{"sci-fi"}, false, (*time.Time)(nil), 1, now, now,
	)
}

func loanRow(p model.CreateParams) *pgxmock.Rows {
	now := time.Now()
	return pgxmock.NewRows(loanCols).AddRow(
		p.ID, p.UserID, p.BookID, now, p.DueDate, (*time.Time)(nil),
		string(model.StatusBorrowed), false, (*time.Time)(nil), now, now,
	)
}

// expectReserve: book FOR UPDATE -> UPDATE available_stock -> INSERT movement
func expectReserve(mock pgxmock.PgxPoolIface, p model.CreateParams) {
	mock.ExpectQuery(`FROM books WHERE id = \$1 FOR UPDATE`).WithArgs(p.BookID).
		WillReturnRows(bookRow(p.BookID, 2))
	mock.ExpectQuery(`UPDATE books\s+SET available_stock = available_stock - 1`).WithArgs(p.BookID).
		WillReturnRows(pgxmock.NewRows([]string{"available_stock"}).AddRow(1))
	mock.ExpectQuery(`INSERT INTO book_stock_movements`).
		WithArgs(p.BookID, "reserve", -1, 1, pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at"}).AddRow(int64(1), time.Now()))
}

// reserveAndCreate là phần lõi của CreateBorrow chạy trên repo thật
func reserveAndCreate(p model.CreateParams, after func()) func(ctx context.Context, tx TxRepositories) error {
	return func(ctx context.Context, tx TxRepositories) error {
		if _, err := tx.Books().GetForUpdate(ctx, p.BookID); err != nil {
			return err
		}
		if _, err := tx.Ledger().Reserve(ctx, p.BookID, p.ID); err != nil {
			return err
		}
		if _, err := tx.Loans().Create(ctx, p); err != nil {
			return err
		}
		if after != nil {
			after()
		}
		return nil
	}
}

func newParams() model.CreateParams {
	return model.CreateParams{
		ID: uuid.New(), UserID: uuid.New(), BookID: uuid.New(),
		DueDate: time.Now().Add(72 * time.Hour),
	}
}

func TestPostgresUnitOfWork_CommitsInOrder(t *testing.T) {
	mock, uow := newPgUnitOfWork(t)
	p := newParams()

	mock.ExpectBegin()
	expectReserve(mock, p)
	mock.ExpectQuery(`INSERT INTO borrow_transactions`).
		WithArgs(p.ID, p.UserID, p.BookID, p.DueDate).
		WillReturnRows(loanRow(p))
	mock.ExpectCommit()

	err := uow.Execute(context.Background(), reserveAndCreate(p, nil))
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUnitOfWork_RollsBackWhenCreateFails(t *testing.T) {
	mock, uow := newPgUnitOfWork(t)
	p := newParams()

	mock.ExpectBegin()
	expectReserve(mock, p)
	mock.ExpectQuery(`INSERT INTO borrow_transactions`).
		WithArgs(p.ID, p.UserID, p.BookID, p.DueDate).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "ux_active_loan"})
	mock.ExpectRollback()

	err := uow.Execute(context.Background(), reserveAndCreate(p, nil))
	assert.ErrorIs(t, err, model.ErrActiveLoanExists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUnitOfWork_RollsBackWhenCancelledBeforeCommit(t *testing.T) {
	mock, uow := newPgUnitOfWork(t)
	p := newParams()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mock.ExpectBegin()
	expectReserve(mock, p)
	mock.ExpectQuery(`INSERT INTO borrow_transactions`).
		WithArgs(p.ID, p.UserID, p.BookID, p.DueDate).
		WillReturnRows(loanRow(p))
	mock.ExpectRollback()

	err := uow.Execute(ctx, reserveAndCreate(p, cancel))
	assert.ErrorIs(t, err, context.Canceled)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUnitOfWork_RetriesDeadlock(t *testing.T) {
	mock, uow := newPgUnitOfWork(t)
	p := newParams()

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM books WHERE id = \$1 FOR UPDATE`).WithArgs(p.BookID).
		WillReturnError(&pgconn.PgError{Code: "40P01"})
	mock.ExpectRollback()

	mock.ExpectBegin()
	expectReserve(mock, p)
	mock.ExpectQuery(`INSERT INTO borrow_transactions`).
		WithArgs(p.ID, p.UserID, p.BookID, p.DueDate).
		WillReturnRows(loanRow(p))
	mock.ExpectCommit()

	err := uow.Execute(context.Background(), reserveAndCreate(p, nil))
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUnitOfWork_GivesUpAfterMaxAttempts(t *testing.T) {
	mock, uow := newPgUnitOfWork(t)
	p := newParams()

	for i := 0; i < maxTxAttempts; i++ {
		mock.ExpectBegin()
		mock.ExpectQuery(`FROM books WHERE id = \$1 FOR UPDATE`).WithArgs(p.BookID).
			WillReturnError(&pgconn.PgError{Code: "40001"})
		mock.ExpectRollback()
	}

	err := uow.Execute(context.Background(), reserveAndCreate(p, nil))
	var pgErr *pgconn.PgError
	require.True(t, errors.As(err, &pgErr))
	assert.Equal(t, "40001", pgErr.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUnitOfWork_DomainErrorNotRetried(t *testing.T) {
	mock, uow := newPgUnitOfWork(t)

	mock.ExpectBegin()
	mock.ExpectRollback()

	calls := 0
	err := uow.Execute(context.Background(), func(ctx context.Context, tx TxRepositories) error {
		calls++
		return model.ErrBookDeleted
	})
	assert.ErrorIs(t, err, model.ErrBookDeleted)
	assert.Equal(t, 1, calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}
