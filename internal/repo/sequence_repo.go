package repo

import (
	"context"
	"database/sql"
	"fmt"
)

// allocateQuery is the only statement that ever mutates the counter. It reads
// the current value and advances it in one atomic step, so two concurrent
// callers can never observe the same value.
const allocateQuery = `
	UPDATE invoice_sequence
	SET next_value = next_value + 1
	WHERE id = 1
	RETURNING next_value - 1
`

// SequenceRepo hands out unique, gap-minimal increasing invoice numbers from
// the singleton counter row.
type SequenceRepo interface {
	EnsureSeeded(ctx context.Context, start int64) error
	AllocateNext(ctx context.Context) (int64, error)
}

type sequenceRepo struct {
	db *sql.DB
}

// NewSequenceRepo creates a new SequenceRepo instance
func NewSequenceRepo(db *sql.DB) SequenceRepo {
	return &sequenceRepo{db: db}
}

// EnsureSeeded creates the counter row with the starting value if it does not
// exist. Idempotent; an existing counter is never reset.
func (r *sequenceRepo) EnsureSeeded(ctx context.Context, start int64) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO invoice_sequence (id, next_value)
		VALUES (1, $1)
		ON CONFLICT (id) DO NOTHING
	`, start)
	if err != nil {
		return fmt.Errorf("seed invoice sequence: %w", err)
	}
	return nil
}

// AllocateNext returns the next invoice number and advances the counter.
func (r *sequenceRepo) AllocateNext(ctx context.Context) (int64, error) {
	return allocateNext(ctx, r.db)
}

// allocateNext runs the atomic increment on any Querier, so invoice creation
// can allocate inside its own transaction.
func allocateNext(ctx context.Context, q Querier) (int64, error) {
	var value int64
	if err := q.QueryRowContext(ctx, allocateQuery).Scan(&value); err != nil {
		return 0, fmt.Errorf("allocate invoice number: %w", err)
	}
	return value, nil
}
