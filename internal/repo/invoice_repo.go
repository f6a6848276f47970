package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/billdesk/server/internal/model"
)

const invoiceColumns = `
	id, invoice_number, created_at, created_by, date, name, address, contact_no,
	model, amount_main, gst, other, accessories, total, rupees_in_words, bank_details
`

// InvoiceRepo defines the interface for invoice repository operations.
// Invoices are write-once: there is no update or delete.
type InvoiceRepo interface {
	Create(ctx context.Context, inv model.Invoice) (model.Invoice, error)
	GetByID(ctx context.Context, id uuid.UUID) (model.Invoice, error)
	List(ctx context.Context, limit int) ([]model.Invoice, error)
}

type invoiceRepo struct {
	db *sql.DB
}

// NewInvoiceRepo creates a new InvoiceRepo instance
func NewInvoiceRepo(db *sql.DB) InvoiceRepo {
	return &invoiceRepo{db: db}
}

// Create allocates the next invoice number and persists the record in one
// transaction. If the insert fails the allocation rolls back with it, so a
// gap only appears when the commit itself is lost.
func (r *invoiceRepo) Create(ctx context.Context, inv model.Invoice) (model.Invoice, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Invoice{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	number, err := allocateNext(ctx, tx)
	if err != nil {
		return model.Invoice{}, err
	}
	inv.InvoiceNumber = number

	var idStr string
	err = tx.QueryRowContext(ctx, `
		INSERT INTO invoices (
			invoice_number, created_by, date, name, address, contact_no, model,
			amount_main, gst, other, accessories, total, rupees_in_words, bank_details
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id, created_at
	`,
		inv.InvoiceNumber, inv.CreatedBy, inv.Date, inv.Name, inv.Address,
		inv.ContactNo, inv.Model, inv.AmountMain, inv.GST, inv.Other,
		inv.Accessories, inv.Total, inv.RupeesInWords, inv.BankDetails,
	).Scan(&idStr, &inv.CreatedAt)
	if err != nil {
		return model.Invoice{}, fmt.Errorf("insert invoice: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return model.Invoice{}, fmt.Errorf("commit: %w", err)
	}

	inv.ID, err = uuid.Parse(idStr)
	if err != nil {
		return model.Invoice{}, fmt.Errorf("parse invoice ID: %w", err)
	}
	return inv, nil
}

// GetByID retrieves one invoice
func (r *invoiceRepo) GetByID(ctx context.Context, id uuid.UUID) (model.Invoice, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+invoiceColumns+`
		FROM invoices
		WHERE id = $1
	`, id)

	inv, err := scanInvoice(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Invoice{}, ErrNotFound
		}
		return model.Invoice{}, fmt.Errorf("query invoice: %w", err)
	}
	return inv, nil
}

// List returns invoices newest-first, capped at limit.
func (r *invoiceRepo) List(ctx context.Context, limit int) ([]model.Invoice, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+invoiceColumns+`
		FROM invoices
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	defer rows.Close()

	invoices := make([]model.Invoice, 0, limit)
	for rows.Next() {
		inv, err := scanInvoice(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan invoice: %w", err)
		}
		invoices = append(invoices, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate invoices: %w", err)
	}
	return invoices, nil
}

func scanInvoice(scan func(dest ...any) error) (model.Invoice, error) {
	var inv model.Invoice
	var idStr string
	err := scan(
		&idStr,
		&inv.InvoiceNumber,
		&inv.CreatedAt,
		&inv.CreatedBy,
		&inv.Date,
		&inv.Name,
		&inv.Address,
		&inv.ContactNo,
		&inv.Model,
		&inv.AmountMain,
		&inv.GST,
		&inv.Other,
		&inv.Accessories,
		&inv.Total,
		&inv.RupeesInWords,
		&inv.BankDetails,
	)
	if err != nil {
		return model.Invoice{}, err
	}

	inv.ID, err = uuid.Parse(idStr)
	if err != nil {
		return model.Invoice{}, fmt.Errorf("parse invoice ID: %w", err)
	}
	return inv, nil
}
