package repo

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionRepo_CreateAndGet(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewSessionRepo(db)
	id := uuid.New()
	employeeID := uuid.New()
	expiresAt := time.Now().Add(24 * time.Hour)

	mock.ExpectExec(`INSERT INTO sessions`).
		WithArgs(id, employeeID, "tokenhash", expiresAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Create(context.Background(), id, employeeID, "tokenhash", expiresAt))

	mock.ExpectQuery(`SELECT (.+) FROM sessions`).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"id", "employee_id", "token_hash", "created_at", "expires_at", "revoked_at"}).
			AddRow(id.String(), employeeID.String(), "tokenhash", time.Now(), expiresAt, nil))

	s, err := repo.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, employeeID, s.EmployeeID)
	assert.Nil(t, s.RevokedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepo_GetByIDNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewSessionRepo(db)
	id := uuid.New()

	mock.ExpectQuery(`SELECT (.+) FROM sessions`).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err = repo.GetByID(context.Background(), id)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepo_RevokeIdempotent(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewSessionRepo(db)
	id := uuid.New()

	mock.ExpectExec(`UPDATE sessions SET revoked_at`).
		WithArgs(id).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE sessions SET revoked_at`).
		WithArgs(id).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.NoError(t, repo.Revoke(context.Background(), id))
	assert.NoError(t, repo.Revoke(context.Background(), id), "revoking twice is not an error")
	assert.NoError(t, mock.ExpectationsWereMet())
}
