package repository

import (
	"context"
	"testing"
	"time"

	user "library-backend/internal/domains/user"
	"library-backend/internal/shared/auth"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreate_DuplicateEmail(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPostgresRepository(mock)
	u := &user.User{ID: uuid.New(), Email: "a@lib.io", Name: "A", Role: auth.RoleMember}

	mock.ExpectQuery(`INSERT INTO users`).WithArgs(u.ID, u.Email, u.PasswordHash, u.Name, "MEMBER").
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})

	assert.ErrorIs(t, repo.Create(context.Background(), u), user.ErrEmailAlreadyExists)
}

func TestFindByID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPostgresRepository(mock)
	id := uuid.New()
	now := time.Now()
	cols := []string{"id", "email", "password_hash", "name", "role", "is_deleted", "deleted_at", "last_login_at", "created_at", "updated_at"}

	mock.ExpectQuery(`FROM users WHERE id = \$1`).WithArgs(id).
		WillReturnRows(pgxmock.NewRows(cols).AddRow(id, "l@lib.io", "hash", "Lib", "LIBRARIAN", true, &now, (*time.Time)(nil), now, now))
	mock.ExpectQuery(`FROM users WHERE id = \$1`).WithArgs(id).WillReturnError(pgx.ErrNoRows)

	u, err := repo.FindByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, auth.RoleLibrarian, u.Role)
	assert.True(t, u.IsDeleted)

	_, err = repo.FindByID(context.Background(), id)
	assert.ErrorIs(t, err, user.ErrUserNotFound)
}

func TestSoftDelete_Missing(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	id := uuid.New()
	mock.ExpectExec(`UPDATE users SET is_deleted = TRUE`).WithArgs(id).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	assert.ErrorIs(t, NewPostgresRepository(mock).SoftDelete(context.Background(), id), user.ErrUserNotFound)
}

func TestList_FiltersByRoleAndPages(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	now := time.Now()
	cols := []string{"id", "email", "password_hash", "name", "role", "is_deleted", "deleted_at", "last_login_at", "created_at", "updated_at"}

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM users WHERE is_deleted = FALSE AND role = \$1`).WithArgs("MEMBER").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectQuery(`ORDER BY created_at DESC, id LIMIT \$2 OFFSET \$3`).WithArgs("MEMBER", 2, 2).
		WillReturnRows(pgxmock.NewRows(cols).
			AddRow(uuid.New(), "m@lib.io", "hash", "Mem", "MEMBER", false, (*time.Time)(nil), (*time.Time)(nil), now, now))

	users, total, err := NewPostgresRepository(mock).List(context.Background(),
		user.ListFilter{Role: auth.RoleMember, Offset: 2, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, users, 1)
	assert.Equal(t, "m@lib.io", users[0].Email)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestList_NoRoleFilter(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM users WHERE is_deleted = FALSE$`).WithArgs().
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(`LIMIT \$1 OFFSET \$2`).WithArgs(10, 0).
		WillReturnRows(pgxmock.NewRows([]string{"id"}))

	users, total, err := NewPostgresRepository(mock).List(context.Background(), user.ListFilter{Limit: 10})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, users)
	assert.NoError(t, mock.ExpectationsWereMet())
}
