package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Employee is an authenticated identity, created lazily on first successful
// OTP verification for a mobile number and never mutated by the auth flow.
type Employee struct {
	ID        uuid.UUID
	Mobile    string
	Name      *string
	CreatedAt time.Time
}

// OneTimeCode is one issued OTP row. Rows are append-only: a row is never
// deleted, only its Used flag flips on successful verification.
type OneTimeCode struct {
	ID        int64
	Mobile    string
	CodeHash  []byte
	ExpiresAt time.Time
	Used      bool
	CreatedAt time.Time
}

// Session is a revocable login session backing an access token.
type Session struct {
	ID         uuid.UUID
	EmployeeID uuid.UUID
	TokenHash  string
	CreatedAt  time.Time
	ExpiresAt  time.Time
	RevokedAt  *time.Time
}

// Invoice is an immutable billing record tied to one allocated number.
type Invoice struct {
	ID            uuid.UUID
	InvoiceNumber int64
	CreatedAt     time.Time
	CreatedBy     string
	Date          string
	Name          string
	Address       string
	ContactNo     string
	Model         string
	AmountMain    decimal.Decimal
	GST           decimal.Decimal
	Other         decimal.Decimal
	Accessories   string
	Total         decimal.Decimal
	RupeesInWords string
	BankDetails   string
}
