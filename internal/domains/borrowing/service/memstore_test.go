package service

import (
	"context"
	"sync"
	"time"

	bookmodel "library-backend/internal/domains/book/model"
	bookrepo "library-backend/internal/domains/book/repository"
	"library-backend/internal/domains/borrowing/model"
	"library-backend/internal/domains/borrowing/repository"
	invmodel "library-backend/internal/domains/inventory/model"
	invrepo "library-backend/internal/domains/inventory/repository"
	"library-backend/pkg/database"

	"github.com/google/uuid"
)

// memState là snapshot dữ liệu; mỗi transaction làm việc trên một bản clone
type memState struct {
	books     map[uuid.UUID]bookmodel.Book
	loans     map[uuid.UUID]model.BorrowTransaction
	users     map[uuid.UUID]model.UserSummary
	movements []invmodel.Movement
}

func (s *memState) clone() *memState {
	c := &memState{
		books:     make(map[uuid.UUID]bookmodel.Book, len(s.books)),
		loans:     make(map[uuid.UUID]model.BorrowTransaction, len(s.loans)),
		users:     s.users,
		movements: append([]invmodel.Movement(nil), s.movements...),
	}
	for k, v := range s.books {
		c.books[k] = v
	}
	for k, v := range s.loans {
		c.loans[k] = v
	}
	return c
}

// memStore: UnitOfWork in-memory. Mutex giữ suốt Execute nên các scope chạy
// tuần tự như khi cùng khóa một row; lỗi hoặc ctx hủy thì bỏ bản clone.
type memStore struct {
	mu    sync.Mutex
	state *memState
	now   func() time.Time

	// failCreate giả lập lỗi DB sau khi đã reserve
	failCreate error
	commits    int
}

func newMemStore(now func() time.Time) *memStore {
	return &memStore{
		state: &memState{
			books: map[uuid.UUID]bookmodel.Book{},
			loans: map[uuid.UUID]model.BorrowTransaction{},
			users: map[uuid.UUID]model.UserSummary{},
		},
		now: now,
	}
}

func (m *memStore) addBook(stock, available int) uuid.UUID {
	id := uuid.New()
	m.state.books[id] = bookmodel.Book{ID: id, Title: "Book " + id.String()[:8], Stock: stock, AvailableStock: available}
	return id
}

func (m *memStore) addUser() uuid.UUID {
	id := uuid.New()
	m.state.users[id] = model.UserSummary{ID: id, Name: "user", Email: id.String()[:8] + "@lib.io"}
	return id
}

func (m *memStore) book(id uuid.UUID) bookmodel.Book {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.books[id]
}

func (m *memStore) loan(id uuid.UUID) model.BorrowTransaction {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.loans[id]
}

func (m *memStore) activeLoans(userID, bookID uuid.UUID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, l := range m.state.loans {
		if l.UserID == userID && l.BookID == bookID && l.Status.IsActive() && !l.IsDeleted {
			n++
		}
	}
	return n
}

func (m *memStore) Execute(ctx context.Context, fn func(ctx context.Context, tx TxRepositories) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	work := m.state.clone()
	if err := fn(ctx, &memTx{store: m, state: work}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	m.state = work
	m.commits++
	return nil
}

// reads ngoài transaction
func (m *memStore) loansRepo() repository.RepositoryInterface {
	return &lockedLoans{store: m}
}

type memTx struct {
	store *memStore
	state *memState
}

func (t *memTx) Books() bookrepo.RepositoryInterface { return &memBooks{state: t.state} }
func (t *memTx) Ledger() invrepo.LedgerInterface     { return &memLedger{state: t.state} }
func (t *memTx) Loans() repository.RepositoryInterface {
	return &memLoans{store: t.store, state: t.state}
}

// =====================================================
// BOOKS
// =====================================================

type memBooks struct {
	bookrepo.RepositoryInterface
	state *memState
}

func (b *memBooks) GetForUpdate(_ context.Context, id uuid.UUID) (*bookmodel.Book, error) {
	book, ok := b.state.books[id]
	if !ok {
		return nil, bookmodel.ErrBookNotFound
	}
	return &book, nil
}

func (b *memBooks) WithTx(database.DBTX) bookrepo.RepositoryInterface { return b }

// =====================================================
// LEDGER
// =====================================================

type memLedger struct {
	invrepo.LedgerInterface
	state *memState
}

func (l *memLedger) Reserve(_ context.Context, bookID, ref uuid.UUID) (*invmodel.Movement, error) {
	book, ok := l.state.books[bookID]
	switch {
	case !ok:
		return nil, invmodel.ErrBookNotFound
	case book.IsDeleted:
		return nil, invmodel.ErrBookDeleted
	case book.AvailableStock < 1:
		return nil, invmodel.NewOutOfStockError(bookID)
	}
	book.AvailableStock--
	l.state.books[bookID] = book
	return l.record(bookID, invmodel.MovementReserve, book.AvailableStock, ref), nil
}

func (l *memLedger) Release(_ context.Context, bookID, ref uuid.UUID) (*invmodel.Movement, error) {
	book, ok := l.state.books[bookID]
	if !ok {
		return nil, invmodel.ErrBookNotFound
	}
	if book.AvailableStock+1 > book.Stock {
		return nil, invmodel.NewStockInvariantError(bookID, "release")
	}
	book.AvailableStock++
	l.state.books[bookID] = book
	return l.record(bookID, invmodel.MovementRelease, book.AvailableStock, ref), nil
}

func (l *memLedger) record(bookID uuid.UUID, typ invmodel.MovementType, after int, ref uuid.UUID) *invmodel.Movement {
	m := invmodel.Movement{
		ID: int64(len(l.state.movements) + 1), BookID: bookID, MovementType: typ,
		Delta: typ.Delta(), AvailableAfter: after, ReferenceID: &ref,
	}
	l.state.movements = append(l.state.movements, m)
	return &m
}

func (l *memLedger) WithTx(database.DBTX) invrepo.LedgerInterface { return l }

// =====================================================
// LOANS
// =====================================================

type memLoans struct {
	store *memStore
	state *memState
}

func (r *memLoans) HasActiveLoan(_ context.Context, userID, bookID uuid.UUID) (bool, error) {
	for _, l := range r.state.loans {
		if l.UserID == userID && l.BookID == bookID && l.Status.IsActive() && !l.IsDeleted {
			return true, nil
		}
	}
	return false, nil
}

func (r *memLoans) Create(ctx context.Context, p model.CreateParams) (*model.BorrowTransaction, error) {
	if r.store.failCreate != nil {
		return nil, r.store.failCreate
	}
	if active, _ := r.HasActiveLoan(ctx, p.UserID, p.BookID); active {
		return nil, model.ErrActiveLoanExists
	}
	now := r.store.now()
	t := model.BorrowTransaction{
		ID: p.ID, UserID: p.UserID, BookID: p.BookID, BorrowDate: now, DueDate: p.DueDate,
		Status: model.StatusBorrowed, CreatedAt: now, UpdatedAt: now,
	}
	r.state.loans[t.ID] = t
	return &t, nil
}

func (r *memLoans) get(id uuid.UUID) (model.BorrowTransaction, error) {
	t, ok := r.state.loans[id]
	if !ok || t.IsDeleted {
		return model.BorrowTransaction{}, model.ErrBorrowNotFound
	}
	return t, nil
}

func (r *memLoans) GetForUpdate(_ context.Context, id uuid.UUID) (*model.BorrowTransaction, error) {
	t, err := r.get(id)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *memLoans) TransitionToReturned(_ context.Context, id uuid.UUID, returnDate *time.Time) (*model.BorrowTransaction, bool, error) {
	t, err := r.get(id)
	if err != nil {
		return nil, false, err
	}
	if t.Status == model.StatusReturned && returnDate == nil {
		return &t, false, nil
	}
	changed := t.Status != model.StatusReturned
	when := r.store.now()
	if returnDate != nil {
		when = *returnDate
	} else if !changed {
		when = *t.ReturnDate
	}
	t.Status = model.StatusReturned
	t.ReturnDate = &when
	r.state.loans[id] = t
	return &t, changed, nil
}

func (r *memLoans) MarkOverdue(_ context.Context, id uuid.UUID) (*model.BorrowTransaction, error) {
	t, err := r.get(id)
	if err != nil || t.Status != model.StatusBorrowed {
		return nil, model.ErrBorrowNotFound
	}
	t.Status = model.StatusOverdue
	r.state.loans[id] = t
	return &t, nil
}

func (r *memLoans) SweepOverdue(_ context.Context, asOf time.Time) (int64, error) {
	var n int64
	for id, t := range r.state.loans {
		if t.Status == model.StatusBorrowed && !t.IsDeleted && t.DueDate.Before(asOf) {
			t.Status = model.StatusOverdue
			r.state.loans[id] = t
			n++
		}
	}
	return n, nil
}

func (r *memLoans) SoftDelete(_ context.Context, id uuid.UUID) (*model.BorrowTransaction, error) {
	t, err := r.get(id)
	if err != nil {
		return nil, err
	}
	now := r.store.now()
	t.IsDeleted = true
	t.DeletedAt = &now
	r.state.loans[id] = t
	return &t, nil
}

func (r *memLoans) GetDetail(_ context.Context, id uuid.UUID) (*model.BorrowDetail, error) {
	t, err := r.get(id)
	if err != nil {
		return nil, err
	}
	return &model.BorrowDetail{
		BorrowTransaction: t,
		Book:              model.BookSummary{ID: t.BookID, Title: r.state.books[t.BookID].Title},
		User:              r.state.users[t.UserID],
	}, nil
}

func (r *memLoans) List(_ context.Context, f model.ListFilter) ([]model.BorrowDetail, int, error) {
	var out []model.BorrowDetail
	for id, t := range r.state.loans {
		if t.IsDeleted ||
			(f.Status != nil && t.Status != *f.Status) ||
			(f.UserID != nil && t.UserID != *f.UserID) ||
			(f.BookID != nil && t.BookID != *f.BookID) {
			continue
		}
		d, _ := r.GetDetail(context.Background(), id)
		out = append(out, *d)
	}
	total := len(out)
	if f.Offset >= len(out) {
		return nil, total, nil
	}
	end := f.Offset + f.Limit
	if end > len(out) {
		end = len(out)
	}
	return out[f.Offset:end], total, nil
}

func (r *memLoans) WithTx(database.DBTX) repository.RepositoryInterface { return r }

// lockedLoans đọc/ghi state đã commit dưới mutex (sweeper, read paths)
type lockedLoans struct {
	repository.RepositoryInterface
	store *memStore
}

func (l *lockedLoans) with(fn func(r *memLoans)) {
	l.store.mu.Lock()
	defer l.store.mu.Unlock()
	fn(&memLoans{store: l.store, state: l.store.state})
}

func (l *lockedLoans) SweepOverdue(ctx context.Context, asOf time.Time) (n int64, err error) {
	l.with(func(r *memLoans) { n, err = r.SweepOverdue(ctx, asOf) })
	return
}

func (l *lockedLoans) GetDetail(ctx context.Context, id uuid.UUID) (d *model.BorrowDetail, err error) {
	l.with(func(r *memLoans) { d, err = r.GetDetail(ctx, id) })
	return
}

func (l *lockedLoans) List(ctx context.Context, f model.ListFilter) (items []model.BorrowDetail, total int, err error) {
	l.with(func(r *memLoans) { items, total, err = r.List(ctx, f) })
	return
}
