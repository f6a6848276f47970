package invoice

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/billdesk/server/internal/logger"
	"github.com/billdesk/server/internal/model"
	"github.com/billdesk/server/internal/repo"
)

const (
	dateLayout = "02/01/2006"

	defaultListLimit = 200
	maxListLimit     = 200
)

// CreateInput carries the raw form fields for one invoice. Amount fields are
// strings on purpose: unparsable input coerces to zero rather than failing.
type CreateInput struct {
	Date          string `json:"date"`
	Name          string `json:"name"`
	Address       string `json:"address"`
	ContactNo     string `json:"contact_no"`
	Model         string `json:"model"`
	AmountMain    string `json:"amount_main"`
	GST           string `json:"gst"`
	Other         string `json:"other"`
	Accessories   string `json:"accessories"`
	RupeesInWords string `json:"rupees_in_words"`
	BankDetails   string `json:"bank_details"`
}

// Service creates and reads invoices. Records are immutable after creation.
type Service struct {
	invoiceRepo repo.InvoiceRepo
	bankDetails string
}

// NewService creates a new invoice service. bankDetails is the institutional
// default substituted when the input leaves the field blank.
func NewService(invoiceRepo repo.InvoiceRepo, bankDetails string) *Service {
	return &Service{invoiceRepo: invoiceRepo, bankDetails: bankDetails}
}

// Create computes the total, fills defaults, and persists the record together
// with its allocated number. The allocator is consulted exactly once per call,
// inside the repository transaction.
func (s *Service) Create(ctx context.Context, creatorMobile string, in CreateInput) (model.Invoice, error) {
	amountMain := parseAmount("amount_main", in.AmountMain)
	gst := parseAmount("gst", in.GST)
	other := parseAmount("other", in.Other)
	total := amountMain.Add(gst).Add(other)

	date := strings.TrimSpace(in.Date)
	if date == "" {
		date = time.Now().UTC().Format(dateLayout)
	}

	words := strings.TrimSpace(in.RupeesInWords)
	if words == "" {
		words = RupeesInWords(total)
	}

	bank := strings.TrimSpace(in.BankDetails)
	if bank == "" {
		bank = s.bankDetails
	}

	inv := model.Invoice{
		CreatedBy:     creatorMobile,
		Date:          date,
		Name:          strings.TrimSpace(in.Name),
		Address:       strings.TrimSpace(in.Address),
		ContactNo:     strings.TrimSpace(in.ContactNo),
		Model:         strings.TrimSpace(in.Model),
		AmountMain:    amountMain,
		GST:           gst,
		Other:         other,
		Accessories:   strings.TrimSpace(in.Accessories),
		Total:         total,
		RupeesInWords: words,
		BankDetails:   bank,
	}

	return s.invoiceRepo.Create(ctx, inv)
}

// Get returns one invoice by ID.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (model.Invoice, error) {
	return s.invoiceRepo.GetByID(ctx, id)
}

// List returns invoices newest-first. A non-positive limit gets the default;
// anything above the cap is clamped.
func (s *Service) List(ctx context.Context, limit int) ([]model.Invoice, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	return s.invoiceRepo.List(ctx, limit)
}

// parseAmount coerces a form field to a decimal amount. Unparsable input maps
// to zero, matching the upstream system's leniency; the miss is logged so bad
// data entry is at least visible.
func parseAmount(field, raw string) decimal.Decimal {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		logger.L().Debug("unparsable amount coerced to zero",
			zap.String("field", field), zap.String("value", raw))
		return decimal.Zero
	}
	return d
}
