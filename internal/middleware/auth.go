package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/billdesk/server/internal/auth"
	"github.com/billdesk/server/internal/model"
	"github.com/billdesk/server/internal/repo"
)

type contextKey string

const (
	employeeKey  contextKey = "employee"
	sessionIDKey contextKey = "session_id"
)

// AuthMiddleware validates access tokens, checks the backing session row is
// alive, loads the employee, and attaches both to the request context.
func AuthMiddleware(jwtService *auth.JWTService, sessionRepo repo.SessionRepo, employeeRepo repo.EmployeeRepo) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				respondWithError(w, http.StatusUnauthorized, "missing authorization header")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				respondWithError(w, http.StatusUnauthorized, "invalid authorization header format")
				return
			}

			tokenString := strings.TrimSpace(parts[1])
			if tokenString == "" {
				respondWithError(w, http.StatusUnauthorized, "missing token")
				return
			}

			claims, err := jwtService.VerifyAccessToken(tokenString)
			if err != nil {
				respondWithError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			session, err := sessionRepo.GetByID(r.Context(), claims.SessionID)
			if err != nil {
				respondWithError(w, http.StatusUnauthorized, "session not found")
				return
			}
			hash := sha256.Sum256([]byte(tokenString))
			if session.RevokedAt != nil ||
				time.Now().After(session.ExpiresAt) ||
				session.TokenHash != hex.EncodeToString(hash[:]) {
				respondWithError(w, http.StatusUnauthorized, "session expired or revoked")
				return
			}

			employee, err := employeeRepo.GetByID(r.Context(), claims.EmployeeID)
			if err != nil {
				respondWithError(w, http.StatusUnauthorized, "employee not found")
				return
			}

			ctx := context.WithValue(r.Context(), employeeKey, &employee)
			ctx = context.WithValue(ctx, sessionIDKey, claims.SessionID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetEmployee returns the employee attached to the request context.
func GetEmployee(ctx context.Context) (*model.Employee, bool) {
	e, ok := ctx.Value(employeeKey).(*model.Employee)
	return e, ok
}

// GetSessionID returns the session ID attached to the request context.
func GetSessionID(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(sessionIDKey).(uuid.UUID)
	return id, ok
}

// respondWithError sends a JSON error response
func respondWithError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
