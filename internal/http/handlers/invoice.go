package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/billdesk/server/internal/invoice"
	"github.com/billdesk/server/internal/logger"
	"github.com/billdesk/server/internal/middleware"
	"github.com/billdesk/server/internal/model"
	"github.com/billdesk/server/internal/repo"
)

// InvoiceHandler handles invoice endpoints. All routes require auth.
type InvoiceHandler struct {
	invoiceService *invoice.Service
	renderer       invoice.Renderer
}

// NewInvoiceHandler creates a new invoice handler
func NewInvoiceHandler(invoiceService *invoice.Service, renderer invoice.Renderer) *InvoiceHandler {
	return &InvoiceHandler{
		invoiceService: invoiceService,
		renderer:       renderer,
	}
}

// invoiceResponse is the invoice object in API responses. Amounts are decimal
// strings with two places.
type invoiceResponse struct {
	ID            string    `json:"id"`
	InvoiceNumber int64     `json:"invoice_number"`
	CreatedAt     time.Time `json:"created_at"`
	CreatedBy     string    `json:"created_by"`
	Date          string    `json:"date"`
	Name          string    `json:"name"`
	Address       string    `json:"address"`
	ContactNo     string    `json:"contact_no"`
	Model         string    `json:"model"`
	AmountMain    string    `json:"amount_main"`
	GST           string    `json:"gst"`
	Other         string    `json:"other"`
	Accessories   string    `json:"accessories"`
	Total         string    `json:"total"`
	RupeesInWords string    `json:"rupees_in_words"`
	BankDetails   string    `json:"bank_details"`
}

func toInvoiceResponse(inv model.Invoice) invoiceResponse {
	return invoiceResponse{
		ID:            inv.ID.String(),
		InvoiceNumber: inv.InvoiceNumber,
		CreatedAt:     inv.CreatedAt,
		CreatedBy:     inv.CreatedBy,
		Date:          inv.Date,
		Name:          inv.Name,
		Address:       inv.Address,
		ContactNo:     inv.ContactNo,
		Model:         inv.Model,
		AmountMain:    inv.AmountMain.StringFixed(2),
		GST:           inv.GST.StringFixed(2),
		Other:         inv.Other.StringFixed(2),
		Accessories:   inv.Accessories,
		Total:         inv.Total.StringFixed(2),
		RupeesInWords: inv.RupeesInWords,
		BankDetails:   inv.BankDetails,
	}
}

// HandleCreate handles POST /invoices
func (h *InvoiceHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	employee, ok := middleware.GetEmployee(r.Context())
	if !ok || employee == nil {
		respondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var input invoice.CreateInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	inv, err := h.invoiceService.Create(r.Context(), employee.Mobile, input)
	if err != nil {
		logger.L().Error("invoice creation failed", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "failed to create invoice")
		return
	}

	logger.L().Info("invoice created",
		zap.Int64("invoice_number", inv.InvoiceNumber),
		logger.Mobile(employee.Mobile))
	respondWithJSON(w, http.StatusCreated, toInvoiceResponse(inv))
}

// HandleList handles GET /invoices
func (h *InvoiceHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "limit must be an integer")
			return
		}
		limit = v
	}

	invoices, err := h.invoiceService.List(r.Context(), limit)
	if err != nil {
		logger.L().Error("invoice list failed", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "failed to list invoices")
		return
	}

	out := make([]invoiceResponse, 0, len(invoices))
	for _, inv := range invoices {
		out = append(out, toInvoiceResponse(inv))
	}
	respondWithJSON(w, http.StatusOK, map[string]any{"invoices": out})
}

// HandleGet handles GET /invoices/{id}
func (h *InvoiceHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	inv, ok := h.fetchInvoice(w, r)
	if !ok {
		return
	}
	respondWithJSON(w, http.StatusOK, toInvoiceResponse(inv))
}

// HandlePDF handles GET /invoices/{id}/pdf
func (h *InvoiceHandler) HandlePDF(w http.ResponseWriter, r *http.Request) {
	inv, ok := h.fetchInvoice(w, r)
	if !ok {
		return
	}

	data, err := h.renderer.Render(inv)
	if err != nil {
		logger.L().Error("invoice pdf render failed",
			zap.Int64("invoice_number", inv.InvoiceNumber), zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "failed to render pdf")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=invoice_%d.pdf", inv.InvoiceNumber))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (h *InvoiceHandler) fetchInvoice(w http.ResponseWriter, r *http.Request) (model.Invoice, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid invoice id")
		return model.Invoice{}, false
	}

	inv, err := h.invoiceService.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "invoice not found")
			return model.Invoice{}, false
		}
		logger.L().Error("invoice fetch failed", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "failed to fetch invoice")
		return model.Invoice{}, false
	}
	return inv, true
}
