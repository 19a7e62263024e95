package users

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	pgdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newTestService() *Service {
	return NewService(NewMemoryStore()).WithHashCost(bcrypt.MinCost)
}

func TestSignUpAndLogin(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	user, err := svc.SignUp(ctx, " alice ", "secret1", "")
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, "alice", user.DisplayName)
	assert.NotEqual(t, "secret1", user.PasswordHash)

	logged, err := svc.Login(ctx, "alice", "secret1")
	require.NoError(t, err)
	require.NotNil(t, logged.LastLogin)

	stored, err := svc.Get(ctx, "alice")
	require.NoError(t, err)
	assert.NotNil(t, stored.LastLogin)
}

func TestSignUpValidation(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	_, err := svc.SignUp(ctx, "al", "secret1", "")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.SignUp(ctx, "alice", "123", "")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.SignUp(ctx, "alice", "secret1", "Alice")
	require.NoError(t, err)
	_, err = svc.SignUp(ctx, "alice", "secret2", "Other")
	assert.ErrorIs(t, err, ErrUserExists)
}

func TestLoginFailures(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	_, err := svc.SignUp(ctx, "alice", "secret1", "")
	require.NoError(t, err)

	_, err = svc.Login(ctx, "alice", "wrong-pass")
	assert.ErrorIs(t, err, ErrInvalidLogin)

	_, err = svc.Login(ctx, "nobody", "secret1")
	assert.ErrorIs(t, err, ErrInvalidLogin)

	_, err = svc.Login(ctx, "", "")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func newMockStore(t *testing.T) (*GormStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	gdb, err := gorm.Open(pgdriver.New(pgdriver.Config{Conn: db}), &gorm.Config{})
	require.NoError(t, err)
	return NewGormStore(gdb), mock
}

func TestGormStoreFindByUsername(t *testing.T) {
	store, mock := newMockStore(t)
	created := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT \* FROM "users" WHERE username = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"username", "password_hash", "display_name", "created_at", "last_login"}).
			AddRow("alice", "hash", "Alice", created, nil))

	user, err := store.FindByUsername(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "Alice", user.DisplayName)
	assert.Equal(t, created, user.CreatedAt)
	assert.Nil(t, user.LastLogin)

	mock.ExpectQuery(`SELECT \* FROM "users" WHERE username = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"username"}))

	_, err = store.FindByUsername(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStoreTouchLogin(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "users" SET "last_login"=\$1 WHERE username = \$2`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, store.TouchLogin(context.Background(), "alice", time.Now()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
