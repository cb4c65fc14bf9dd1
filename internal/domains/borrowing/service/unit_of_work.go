package service

import (
	"context"

	bookrepo "library-backend/internal/domains/book/repository"
	"library-backend/internal/domains/borrowing/repository"
	invrepo "library-backend/internal/domains/inventory/repository"
	infradb "library-backend/internal/infrastructure/database"
	"library-backend/pkg/database"
	"library-backend/pkg/logger"

	"github.com/jackc/pgx/v5"
)

// TxRepositories - các repository đã bind vào cùng một transaction
type TxRepositories interface {
	Books() bookrepo.RepositoryInterface
	Ledger() invrepo.LedgerInterface
	Loans() repository.RepositoryInterface
}

// UnitOfWork chạy fn trong một atomic scope: fn trả nil thì commit, ngược lại rollback toàn bộ
type UnitOfWork interface {
	Execute(ctx context.Context, fn func(ctx context.Context, tx TxRepositories) error) error
}

type PostgresUnitOfWork struct {
	db     database.TxBeginner
	books  bookrepo.RepositoryInterface
	ledger invrepo.LedgerInterface
	loans  repository.RepositoryInterface
}

func NewPostgresUnitOfWork(
	db database.TxBeginner,
	books bookrepo.RepositoryInterface,
	ledger invrepo.LedgerInterface,
	loans repository.RepositoryInterface,
) *PostgresUnitOfWork {
	return &PostgresUnitOfWork{db: db, books: books, ledger: ledger, loans: loans}
}

// maxTxAttempts: deadlock / serialization failure thì chạy lại cả scope (fn phải idempotent giữa các lần)
const maxTxAttempts = 3

func (u *PostgresUnitOfWork) Execute(ctx context.Context, fn func(ctx context.Context, tx TxRepositories) error) error {
	var err error
	for attempt := 1; attempt <= maxTxAttempts; attempt++ {
		err = database.WithTransaction(ctx, u.db, func(tx pgx.Tx) error {
			return fn(ctx, &txRepositories{
				books:  u.books.WithTx(tx),
				ledger: u.ledger.WithTx(tx),
				loans:  u.loans.WithTx(tx),
			})
		})
		if err == nil || !infradb.IsTransient(err) || ctx.Err() != nil {
			return err
		}
		logger.Warn("[Borrowing] transient transaction error, retrying", map[string]interface{}{
			"attempt": attempt,
			"error":   err.Error(),
		})
	}
	return err
}

type txRepositories struct {
	books  bookrepo.RepositoryInterface
	ledger invrepo.LedgerInterface
	loans  repository.RepositoryInterface
}

func (t *txRepositories) Books() bookrepo.RepositoryInterface   { return t.books }
func (t *txRepositories) Ledger() invrepo.LedgerInterface       { return t.ledger }
func (t *txRepositories) Loans() repository.RepositoryInterface { return t.loans }
