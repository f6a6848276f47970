package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/billdesk/server/internal/model"
)

// EmployeeRepo defines the interface for employee repository operations
type EmployeeRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (model.Employee, error)
	GetByMobile(ctx context.Context, mobile string) (model.Employee, error)
	GetOrCreateByMobile(ctx context.Context, mobile string) (model.Employee, error)
}

type employeeRepo struct {
	db *sql.DB
}

// NewEmployeeRepo creates a new EmployeeRepo instance
func NewEmployeeRepo(db *sql.DB) EmployeeRepo {
	return &employeeRepo{db: db}
}

// GetByID retrieves an employee by ID
func (r *employeeRepo) GetByID(ctx context.Context, id uuid.UUID) (model.Employee, error) {
	return r.getOne(ctx, `
		SELECT id, mobile, name, created_at
		FROM employees
		WHERE id = $1
	`, id)
}

// GetByMobile retrieves an employee by mobile number
func (r *employeeRepo) GetByMobile(ctx context.Context, mobile string) (model.Employee, error) {
	return r.getOne(ctx, `
		SELECT id, mobile, name, created_at
		FROM employees
		WHERE mobile = $1
	`, mobile)
}

// GetOrCreateByMobile retrieves an employee by mobile or creates one if absent.
// Idempotent under concurrent callers via ON CONFLICT DO NOTHING.
func (r *employeeRepo) GetOrCreateByMobile(ctx context.Context, mobile string) (model.Employee, error) {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO employees (mobile)
		VALUES ($1)
		ON CONFLICT (mobile) DO NOTHING
	`, mobile)
	if err != nil {
		return model.Employee{}, fmt.Errorf("insert employee: %w", err)
	}

	return r.GetByMobile(ctx, mobile)
}

func (r *employeeRepo) getOne(ctx context.Context, query string, arg any) (model.Employee, error) {
	var emp model.Employee
	var idStr string
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&idStr,
		&emp.Mobile,
		&emp.Name,
		&emp.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Employee{}, ErrNotFound
		}
		return model.Employee{}, fmt.Errorf("query employee: %w", err)
	}

	emp.ID, err = uuid.Parse(idStr)
	if err != nil {
		return model.Employee{}, fmt.Errorf("parse employee ID: %w", err)
	}
	return emp, nil
}
