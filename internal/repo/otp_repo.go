package repo

import (
	"context"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/billdesk/server/internal/model"
)

// OtpRepo defines the interface for one-time code repository operations.
// The table is append-only: rows are never deleted, only flagged used.
type OtpRepo interface {
	Create(ctx context.Context, mobile, codeHashHex string, expiresAt time.Time) (model.OneTimeCode, error)
	FindLatestUnused(ctx context.Context, mobile, codeHashHex string) (model.OneTimeCode, error)
	MarkUsed(ctx context.Context, id int64) error
	CountIssuedSince(ctx context.Context, mobile string, since time.Time) (int, error)
}

type otpRepo struct {
	db *sql.DB
}

// NewOtpRepo creates a new OtpRepo instance
func NewOtpRepo(db *sql.DB) OtpRepo {
	return &otpRepo{db: db}
}

// Create appends a new code row for the mobile. Earlier rows are untouched.
func (r *otpRepo) Create(ctx context.Context, mobile, codeHashHex string, expiresAt time.Time) (model.OneTimeCode, error) {
	rec := model.OneTimeCode{Mobile: mobile, ExpiresAt: expiresAt}
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO otp_codes (mobile, code_hash, expires_at)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`, mobile, codeHashHex, expiresAt).Scan(&rec.ID, &rec.CreatedAt)
	if err != nil {
		return model.OneTimeCode{}, fmt.Errorf("insert code: %w", err)
	}

	rec.CodeHash, err = hex.DecodeString(codeHashHex)
	if err != nil {
		return model.OneTimeCode{}, fmt.Errorf("decode code_hash: %w", err)
	}
	return rec, nil
}

// FindLatestUnused returns the unused row matching the hash with the latest
// expiry. Expiry is not filtered here: the caller distinguishes an expired
// match from no match.
func (r *otpRepo) FindLatestUnused(ctx context.Context, mobile, codeHashHex string) (model.OneTimeCode, error) {
	query := `
		SELECT id, mobile, code_hash, expires_at, used, created_at
		FROM otp_codes
		WHERE mobile = $1 AND code_hash = $2 AND NOT used
		ORDER BY expires_at DESC
		LIMIT 1
	`
	var rec model.OneTimeCode
	var hashHex string
	err := r.db.QueryRowContext(ctx, query, mobile, codeHashHex).Scan(
		&rec.ID,
		&rec.Mobile,
		&hashHex,
		&rec.ExpiresAt,
		&rec.Used,
		&rec.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.OneTimeCode{}, ErrNotFound
		}
		return model.OneTimeCode{}, fmt.Errorf("query code: %w", err)
	}

	rec.CodeHash, err = hex.DecodeString(hashHex)
	if err != nil {
		return model.OneTimeCode{}, fmt.Errorf("decode code_hash: %w", err)
	}
	return rec, nil
}

// MarkUsed flips the used flag; a row transitions to used exactly once.
func (r *otpRepo) MarkUsed(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE otp_codes SET used = TRUE WHERE id = $1 AND NOT used
	`, id)
	if err != nil {
		return fmt.Errorf("mark used: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// CountIssuedSince returns how many codes were issued for the mobile since the
// given time (for the per-mobile issuance limit).
func (r *otpRepo) CountIssuedSince(ctx context.Context, mobile string, since time.Time) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM otp_codes
		WHERE mobile = $1 AND created_at >= $2
	`, mobile, since).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count issued codes: %w", err)
	}
	return count, nil
}
