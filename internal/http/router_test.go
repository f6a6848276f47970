package http

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/billdesk/server/internal/auth"
	"github.com/billdesk/server/internal/config"
	"github.com/billdesk/server/internal/http/handlers"
	"github.com/billdesk/server/internal/invoice"
	"github.com/billdesk/server/internal/model"
	"github.com/billdesk/server/internal/repo"
)

// In-memory repositories so the whole request path runs without Postgres.

type memOtpRepo struct {
	rows   []*model.OneTimeCode
	nextID int64
}

func (m *memOtpRepo) Create(_ context.Context, mobile, codeHashHex string, expiresAt time.Time) (model.OneTimeCode, error) {
	m.nextID++
	hash, _ := hex.DecodeString(codeHashHex)
	rec := &model.OneTimeCode{ID: m.nextID, Mobile: mobile, CodeHash: hash, ExpiresAt: expiresAt, CreatedAt: time.Now()}
	m.rows = append(m.rows, rec)
	return *rec, nil
}

func (m *memOtpRepo) FindLatestUnused(_ context.Context, mobile, codeHashHex string) (model.OneTimeCode, error) {
	var best *model.OneTimeCode
	for _, r := range m.rows {
		if r.Mobile == mobile && !r.Used && hex.EncodeToString(r.CodeHash) == codeHashHex {
			if best == nil || r.ExpiresAt.After(best.ExpiresAt) {
				best = r
			}
		}
	}
	if best == nil {
		return model.OneTimeCode{}, repo.ErrNotFound
	}
	return *best, nil
}

func (m *memOtpRepo) MarkUsed(_ context.Context, id int64) error {
	for _, r := range m.rows {
		if r.ID == id && !r.Used {
			r.Used = true
			return nil
		}
	}
	return repo.ErrNotFound
}

func (m *memOtpRepo) CountIssuedSince(_ context.Context, mobile string, since time.Time) (int, error) {
	n := 0
	for _, r := range m.rows {
		if r.Mobile == mobile && !r.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

type memEmployeeRepo struct {
	byMobile map[string]model.Employee
}

func (m *memEmployeeRepo) GetByID(_ context.Context, id uuid.UUID) (model.Employee, error) {
	for _, e := range m.byMobile {
		if e.ID == id {
			return e, nil
		}
	}
	return model.Employee{}, repo.ErrNotFound
}

func (m *memEmployeeRepo) GetByMobile(_ context.Context, mobile string) (model.Employee, error) {
	e, ok := m.byMobile[mobile]
	if !ok {
		return model.Employee{}, repo.ErrNotFound
	}
	return e, nil
}

func (m *memEmployeeRepo) GetOrCreateByMobile(_ context.Context, mobile string) (model.Employee, error) {
	if e, ok := m.byMobile[mobile]; ok {
		return e, nil
	}
	e := model.Employee{ID: uuid.New(), Mobile: mobile, CreatedAt: time.Now()}
	m.byMobile[mobile] = e
	return e, nil
}

type memSessionRepo struct {
	sessions map[uuid.UUID]*model.Session
}

func (m *memSessionRepo) Create(_ context.Context, id, employeeID uuid.UUID, tokenHash string, expiresAt time.Time) error {
	m.sessions[id] = &model.Session{ID: id, EmployeeID: employeeID, TokenHash: tokenHash, CreatedAt: time.Now(), ExpiresAt: expiresAt}
	return nil
}

func (m *memSessionRepo) GetByID(_ context.Context, id uuid.UUID) (model.Session, error) {
	s, ok := m.sessions[id]
	if !ok {
		return model.Session{}, repo.ErrNotFound
	}
	return *s, nil
}

func (m *memSessionRepo) Revoke(_ context.Context, id uuid.UUID) error {
	if s, ok := m.sessions[id]; ok && s.RevokedAt == nil {
		now := time.Now()
		s.RevokedAt = &now
	}
	return nil
}

func (m *memSessionRepo) RevokeAllForEmployee(_ context.Context, employeeID uuid.UUID) error {
	now := time.Now()
	for _, s := range m.sessions {
		if s.EmployeeID == employeeID && s.RevokedAt == nil {
			s.RevokedAt = &now
		}
	}
	return nil
}

type memInvoiceRepo struct {
	next     int64
	invoices []model.Invoice
}

func (m *memInvoiceRepo) Create(_ context.Context, inv model.Invoice) (model.Invoice, error) {
	inv.InvoiceNumber = m.next
	m.next++
	inv.ID = uuid.New()
	inv.CreatedAt = time.Now()
	m.invoices = append(m.invoices, inv)
	return inv, nil
}

func (m *memInvoiceRepo) GetByID(_ context.Context, id uuid.UUID) (model.Invoice, error) {
	for _, inv := range m.invoices {
		if inv.ID == id {
			return inv, nil
		}
	}
	return model.Invoice{}, repo.ErrNotFound
}

func (m *memInvoiceRepo) List(_ context.Context, limit int) ([]model.Invoice, error) {
	out := make([]model.Invoice, 0, limit)
	for i := len(m.invoices) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.invoices[i])
	}
	return out, nil
}

type memNotifier struct {
	lastCode string
}

func (n *memNotifier) Send(_ context.Context, _, code string) error {
	n.lastCode = code
	return nil
}

func newTestServer(t *testing.T) (*httptest.Server, *memNotifier) {
	t.Helper()

	notifier := &memNotifier{}
	employeeRepo := &memEmployeeRepo{byMobile: map[string]model.Employee{}}
	sessionRepo := &memSessionRepo{sessions: map[uuid.UUID]*model.Session{}}

	otpService := auth.NewOtpService(&memOtpRepo{}, "test-salt")
	jwtService := auth.NewJWTService("test-jwt-secret-at-least-32-chars")
	authService := auth.NewService(otpService, jwtService, employeeRepo, sessionRepo, notifier, "+91")
	invoiceService := invoice.NewService(&memInvoiceRepo{next: 10001}, config.DefaultBankDetails)

	authHandler := handlers.NewAuthHandler(authService)
	invoiceHandler := handlers.NewInvoiceHandler(invoiceService, invoice.NewPDFRenderer(""))

	router := NewRouter(authHandler, invoiceHandler, jwtService, sessionRepo, employeeRepo)
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return server, notifier
}

func postJSON(t *testing.T, url, token string, payload any) *http.Response {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func getWithToken(t *testing.T, url, token string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func login(t *testing.T, server *httptest.Server, notifier *memNotifier, mobile string) string {
	t.Helper()

	resp := postJSON(t, server.URL+"/auth/request_code", "", map[string]string{"mobile": mobile})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var reqBody struct {
		VerificationToken string `json:"verification_token"`
	}
	decodeBody(t, resp, &reqBody)
	require.NotEmpty(t, reqBody.VerificationToken)
	require.NotEmpty(t, notifier.lastCode)

	resp = postJSON(t, server.URL+"/auth/verify_code", "", map[string]string{
		"verification_token": reqBody.VerificationToken,
		"code":               notifier.lastCode,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var verifyBody struct {
		AccessToken string `json:"access_token"`
	}
	decodeBody(t, resp, &verifyBody)
	require.NotEmpty(t, verifyBody.AccessToken)
	return verifyBody.AccessToken
}

func TestHealth(t *testing.T) {
	server, _ := newTestServer(t)
	resp, err := http.Get(server.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestLoginFlow(t *testing.T) {
	server, notifier := newTestServer(t)
	token := login(t, server, notifier, "9876543210")

	resp := getWithToken(t, server.URL+"/me", token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var me struct {
		Mobile string `json:"mobile"`
	}
	decodeBody(t, resp, &me)
	assert.Equal(t, "+919876543210", me.Mobile)
}

func TestVerifyWithWrongCode(t *testing.T) {
	server, _ := newTestServer(t)

	resp := postJSON(t, server.URL+"/auth/request_code", "", map[string]string{"mobile": "9876543210"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var reqBody struct {
		VerificationToken string `json:"verification_token"`
	}
	decodeBody(t, resp, &reqBody)

	resp = postJSON(t, server.URL+"/auth/verify_code", "", map[string]string{
		"verification_token": reqBody.VerificationToken,
		"code":               "000000",
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRequestCodeValidation(t *testing.T) {
	server, _ := newTestServer(t)

	resp := postJSON(t, server.URL+"/auth/request_code", "", map[string]string{"mobile": ""})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestMalformedBodyReturnsBadRequest(t *testing.T) {
	server, _ := newTestServer(t)

	for _, path := range []string{"/auth/request_code", "/auth/verify_code"} {
		req, err := http.NewRequest(http.MethodPost, server.URL+path, strings.NewReader("{not json"))
		require.NoError(t, err)
		req.Header.Set("Content-Type", "application/json")
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "POST %s with malformed body", path)
	}
}

func TestProtectedRoutesRequireAuth(t *testing.T) {
	server, _ := newTestServer(t)

	for _, path := range []string{"/me", "/invoices"} {
		resp := getWithToken(t, server.URL+path, "")
		resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "GET %s without token", path)
	}
}

func TestInvoiceLifecycle(t *testing.T) {
	server, notifier := newTestServer(t)
	token := login(t, server, notifier, "9876543210")

	resp := postJSON(t, server.URL+"/invoices", token, map[string]string{
		"name":        "A Customer",
		"amount_main": "1000",
		"gst":         "180",
		"other":       "20",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created struct {
		ID            string `json:"id"`
		InvoiceNumber int64  `json:"invoice_number"`
		Total         string `json:"total"`
		CreatedBy     string `json:"created_by"`
	}
	decodeBody(t, resp, &created)
	assert.Equal(t, int64(10001), created.InvoiceNumber)
	assert.Equal(t, "1200.00", created.Total)
	assert.Equal(t, "+919876543210", created.CreatedBy)

	// second invoice gets the next number
	resp = postJSON(t, server.URL+"/invoices", token, map[string]string{"amount_main": "500"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var second struct {
		InvoiceNumber int64 `json:"invoice_number"`
	}
	decodeBody(t, resp, &second)
	assert.Equal(t, created.InvoiceNumber+1, second.InvoiceNumber)

	// list newest-first
	resp = getWithToken(t, server.URL+"/invoices", token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list struct {
		Invoices []struct {
			InvoiceNumber int64 `json:"invoice_number"`
		} `json:"invoices"`
	}
	decodeBody(t, resp, &list)
	require.Len(t, list.Invoices, 2)
	assert.Equal(t, second.InvoiceNumber, list.Invoices[0].InvoiceNumber)

	// fetch by id
	resp = getWithToken(t, server.URL+"/invoices/"+created.ID, token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// pdf download
	resp = getWithToken(t, server.URL+"/invoices/"+created.ID+"/pdf", token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	assert.Equal(t,
		fmt.Sprintf("attachment; filename=invoice_%d.pdf", created.InvoiceNumber),
		resp.Header.Get("Content-Disposition"))
	data, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(data[:4]))
}

func TestInvoiceUnparsableAmountCoercesToZero(t *testing.T) {
	server, notifier := newTestServer(t)
	token := login(t, server, notifier, "9876543210")

	resp := postJSON(t, server.URL+"/invoices", token, map[string]string{
		"amount_main": "abc",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created struct {
		AmountMain string `json:"amount_main"`
		Total      string `json:"total"`
	}
	decodeBody(t, resp, &created)
	assert.Equal(t, "0.00", created.AmountMain)
	assert.Equal(t, "0.00", created.Total)
}

func TestInvoiceNotFound(t *testing.T) {
	server, notifier := newTestServer(t)
	token := login(t, server, notifier, "9876543210")

	resp := getWithToken(t, server.URL+"/invoices/"+uuid.NewString(), token)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = getWithToken(t, server.URL+"/invoices/not-a-uuid", token)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestLogoutRevokesSession(t *testing.T) {
	server, notifier := newTestServer(t)
	token := login(t, server, notifier, "9876543210")

	resp := postJSON(t, server.URL+"/auth/logout", token, map[string]string{})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = getWithToken(t, server.URL+"/me", token)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "a revoked session must not authenticate")
}
