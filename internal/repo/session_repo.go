package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/billdesk/server/internal/model"
)

// SessionRepo defines the interface for login session repository operations
type SessionRepo interface {
	Create(ctx context.Context, id, employeeID uuid.UUID, tokenHash string, expiresAt time.Time) error
	GetByID(ctx context.Context, id uuid.UUID) (model.Session, error)
	Revoke(ctx context.Context, id uuid.UUID) error
	RevokeAllForEmployee(ctx context.Context, employeeID uuid.UUID) error
}

type sessionRepo struct {
	db *sql.DB
}

// NewSessionRepo creates a new SessionRepo instance
func NewSessionRepo(db *sql.DB) SessionRepo {
	return &sessionRepo{db: db}
}

// Create inserts a new session row. The ID is caller-supplied because the
// access token embedding it is signed before the insert.
func (r *sessionRepo) Create(ctx context.Context, id, employeeID uuid.UUID, tokenHash string, expiresAt time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sessions (id, employee_id, token_hash, expires_at)
		VALUES ($1, $2, $3, $4)
	`, id, employeeID, tokenHash, expiresAt)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// GetByID returns the session row regardless of revocation or expiry; callers
// check both.
func (r *sessionRepo) GetByID(ctx context.Context, id uuid.UUID) (model.Session, error) {
	var s model.Session
	var idStr, employeeIDStr string
	err := r.db.QueryRowContext(ctx, `
		SELECT id, employee_id, token_hash, created_at, expires_at, revoked_at
		FROM sessions
		WHERE id = $1
	`, id).Scan(
		&idStr,
		&employeeIDStr,
		&s.TokenHash,
		&s.CreatedAt,
		&s.ExpiresAt,
		&s.RevokedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Session{}, ErrNotFound
		}
		return model.Session{}, fmt.Errorf("query session: %w", err)
	}

	if s.ID, err = uuid.Parse(idStr); err != nil {
		return model.Session{}, fmt.Errorf("parse session ID: %w", err)
	}
	if s.EmployeeID, err = uuid.Parse(employeeIDStr); err != nil {
		return model.Session{}, fmt.Errorf("parse employee ID: %w", err)
	}
	return s, nil
}

// Revoke sets revoked_at for the session; idempotent.
func (r *sessionRepo) Revoke(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE sessions SET revoked_at = now() WHERE id = $1 AND revoked_at IS NULL
	`, id)
	if err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

// RevokeAllForEmployee revokes every active session for the employee.
func (r *sessionRepo) RevokeAllForEmployee(ctx context.Context, employeeID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE sessions SET revoked_at = now() WHERE employee_id = $1 AND revoked_at IS NULL
	`, employeeID)
	if err != nil {
		return fmt.Errorf("revoke sessions for employee: %w", err)
	}
	return nil
}
