package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/billdesk/server/internal/auth"
	"github.com/billdesk/server/internal/logger"
	"github.com/billdesk/server/internal/middleware"
	"github.com/billdesk/server/internal/model"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	authService     *auth.Service
	ipLimiter       *middleware.RateLimiter
	verifyIPLimiter *middleware.RateLimiter
}

// NewAuthHandler creates a new auth handler. The in-memory limiters guard the
// two public endpoints per IP; the per-mobile limit is DB-based in OtpService.
func NewAuthHandler(authService *auth.Service) *AuthHandler {
	return &AuthHandler{
		authService:     authService,
		ipLimiter:       middleware.NewRateLimiter(10*time.Minute, 10),
		verifyIPLimiter: middleware.NewRateLimiter(10*time.Minute, 20),
	}
}

// requestCodeRequest is the request body for POST /auth/request_code
type requestCodeRequest struct {
	Mobile string `json:"mobile"`
}

// requestCodeResponse is the JSON response for request_code
type requestCodeResponse struct {
	Message           string `json:"message"`
	VerificationToken string `json:"verification_token"`
}

// verifyCodeRequest is the request body for POST /auth/verify_code
type verifyCodeRequest struct {
	VerificationToken string `json:"verification_token"`
	Code              string `json:"code"`
}

// verifyCodeResponse is the JSON response for verify_code
type verifyCodeResponse struct {
	AccessToken string           `json:"access_token"`
	TokenType   string           `json:"token_type"`
	Employee    employeeResponse `json:"employee"`
}

// employeeResponse is the employee object in API responses
type employeeResponse struct {
	ID     string  `json:"id"`
	Mobile string  `json:"mobile"`
	Name   *string `json:"name,omitempty"`
}

func toEmployeeResponse(e *model.Employee) employeeResponse {
	return employeeResponse{
		ID:     e.ID.String(),
		Mobile: e.Mobile,
		Name:   e.Name,
	}
}

// HandleRequestCode handles POST /auth/request_code
func (h *AuthHandler) HandleRequestCode(w http.ResponseWriter, r *http.Request) {
	var req requestCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Mobile = strings.TrimSpace(req.Mobile)
	if req.Mobile == "" {
		respondWithError(w, http.StatusBadRequest, "mobile is required")
		return
	}

	if !h.ipLimiter.Allow(middleware.GetIPKey(r)) {
		respondWithError(w, http.StatusTooManyRequests, "rate limit exceeded")
		return
	}

	token, err := h.authService.RequestCode(r.Context(), req.Mobile)
	if err != nil {
		logger.L().Warn("failed to request code", logger.Mobile(req.Mobile), zap.Error(err))
		if errors.Is(err, auth.ErrTooManyRequests) {
			respondWithError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		respondWithError(w, http.StatusInternalServerError, "failed to request code")
		return
	}

	respondWithJSON(w, http.StatusOK, requestCodeResponse{
		Message:           "code_sent",
		VerificationToken: token,
	})
}

// HandleVerifyCode handles POST /auth/verify_code
func (h *AuthHandler) HandleVerifyCode(w http.ResponseWriter, r *http.Request) {
	var req verifyCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.VerificationToken = strings.TrimSpace(req.VerificationToken)
	req.Code = strings.TrimSpace(req.Code)
	if req.VerificationToken == "" || req.Code == "" {
		respondWithError(w, http.StatusBadRequest, "verification_token and code are required")
		return
	}

	if !h.verifyIPLimiter.Allow(middleware.GetIPKey(r)) {
		respondWithError(w, http.StatusTooManyRequests, "rate limit exceeded")
		return
	}

	employee, accessToken, err := h.authService.VerifyCode(r.Context(), req.VerificationToken, req.Code)
	if err != nil {
		logger.L().Info("code verification failed", zap.Error(err))
		switch {
		case errors.Is(err, auth.ErrExpired):
			// caller must restart the login flow
			respondWithError(w, http.StatusUnauthorized, "code expired")
		case errors.Is(err, auth.ErrInvalidCode):
			respondWithError(w, http.StatusUnauthorized, "invalid code")
		default:
			respondWithError(w, http.StatusInternalServerError, "verification failed")
		}
		return
	}

	respondWithJSON(w, http.StatusOK, verifyCodeResponse{
		AccessToken: accessToken,
		TokenType:   "bearer",
		Employee:    toEmployeeResponse(&employee),
	})
}

// HandleLogout handles POST /auth/logout (protected)
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := middleware.GetSessionID(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if err := h.authService.Logout(r.Context(), sessionID); err != nil {
		logger.L().Error("logout failed", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "logout failed")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// HandleMe handles GET /me (protected). Returns the authenticated employee.
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	employee, ok := middleware.GetEmployee(r.Context())
	if !ok || employee == nil {
		respondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	respondWithJSON(w, http.StatusOK, toEmployeeResponse(employee))
}

// respondWithJSON writes a JSON response with the given status code
func respondWithJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.L().Error("failed to encode response", zap.Error(err))
	}
}

// respondWithError sends a JSON error response
func respondWithError(w http.ResponseWriter, statusCode int, message string) {
	respondWithJSON(w, statusCode, map[string]string{"error": message})
}
