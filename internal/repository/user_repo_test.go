// Package repository_test provides unit tests for the repository layer.
package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kafkasder-portal/kafkas-sub000/internal/database"
	"github.com/kafkasder-portal/kafkas-sub000/internal/models"
	"github.com/kafkasder-portal/kafkas-sub000/internal/repository"
)

// withMockDB swaps the shared pool for a pgxmock pool for the duration of
// the test.
func withMockDB(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)

	oldDB := database.DB
	database.DB = mock
	t.Cleanup(func() {
		database.DB = oldDB
		mock.Close()
	})
	return mock
}

// TestUserRepository_FindByEmail tests credential lookup during login.
func TestUserRepository_FindByEmail(t *testing.T) {
	testTime := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	mock := withMockDB(t)

	rows := pgxmock.NewRows([]string{"id", "email", "name", "role", "password_hash", "created_at"}).
		AddRow(1, "worker@example.org", "Case Worker", "staff", "$2a$12$hash", testTime)

	mock.ExpectQuery("SELECT id, email, name, role, password_hash, created_at FROM users WHERE email").
		WithArgs("worker@example.org").
		WillReturnRows(rows)

	repo := repository.NewUserRepository()
	user, err := repo.FindByEmail(context.Background(), "worker@example.org")

	require.NoError(t, err)
	assert.Equal(t, 1, user.ID)
	assert.Equal(t, "staff", user.Role)
	assert.Equal(t, "$2a$12$hash", user.PasswordHash)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestUserRepository_FindByEmail_NotFound tests the missing account path.
func TestUserRepository_FindByEmail_NotFound(t *testing.T) {
	mock := withMockDB(t)

	mock.ExpectQuery("SELECT id, email, name, role, password_hash, created_at FROM users WHERE email").
		WithArgs("nobody@example.org").
		WillReturnRows(pgxmock.NewRows([]string{"id", "email", "name", "role", "password_hash", "created_at"}))

	repo := repository.NewUserRepository()
	user, err := repo.FindByEmail(context.Background(), "nobody@example.org")

	assert.Nil(t, user)
	assert.EqualError(t, err, "user not found")
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestUserRepository_FindByID tests primary key lookup.
func TestUserRepository_FindByID(t *testing.T) {
	testTime := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	mock := withMockDB(t)

	rows := pgxmock.NewRows([]string{"id", "email", "name", "role", "password_hash", "created_at"}).
		AddRow(42, "admin@example.org", "Admin", "admin", "$2a$12$hash", testTime)

	mock.ExpectQuery("SELECT id, email, name, role, password_hash, created_at FROM users WHERE id").
		WithArgs(42).
		WillReturnRows(rows)

	repo := repository.NewUserRepository()
	user, err := repo.FindByID(context.Background(), 42)

	require.NoError(t, err)
	assert.Equal(t, "admin@example.org", user.Email)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestUserRepository_Create tests account insertion and generated fields.
func TestUserRepository_Create(t *testing.T) {
	testTime := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	mock := withMockDB(t)

	mock.ExpectQuery("INSERT INTO users").
		WithArgs("new@example.org", "New User", "staff", "$2a$12$hash").
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at"}).AddRow(9, testTime))

	repo := repository.NewUserRepository()
	user := &models.User{
		Email:        "new@example.org",
		Name:         "New User",
		Role:         "staff",
		PasswordHash: "$2a$12$hash",
	}

	require.NoError(t, repo.Create(context.Background(), user))
	assert.Equal(t, 9, user.ID)
	assert.Equal(t, testTime, user.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}
