package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	accessTokenExpiry = 24 * time.Hour

	kindAccess  = "access"
	kindPending = "pending"
)

// JWTClaims carries either an authenticated session (access token) or a
// pending-verification mobile (verification token), distinguished by Kind.
type JWTClaims struct {
	Kind       string    `json:"kind"`
	EmployeeID uuid.UUID `json:"employee_id,omitempty"`
	Mobile     string    `json:"mobile,omitempty"`
	SessionID  uuid.UUID `json:"session_id,omitempty"`
	jwt.RegisteredClaims
}

// JWTService handles JWT token operations
type JWTService struct {
	secret []byte
}

// NewJWTService creates a new JWT service
func NewJWTService(secret string) *JWTService {
	return &JWTService{secret: []byte(secret)}
}

// SignAccessToken creates an access token bound to a session row (24h expiry).
func (s *JWTService) SignAccessToken(employeeID uuid.UUID, mobile string, sessionID uuid.UUID) (string, error) {
	now := time.Now()
	claims := &JWTClaims{
		Kind:       kindAccess,
		EmployeeID: employeeID,
		Mobile:     mobile,
		SessionID:  sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(accessTokenExpiry)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}
	return signed, nil
}

// SignVerificationToken creates the pending-owner marker handed back by
// request_code: a short-lived token carrying only the normalized mobile.
func (s *JWTService) SignVerificationToken(mobile string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &JWTClaims{
		Kind:   kindPending,
		Mobile: mobile,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign verification token: %w", err)
	}
	return signed, nil
}

// VerifyAccessToken verifies and parses an access token.
func (s *JWTService) VerifyAccessToken(tokenString string) (*JWTClaims, error) {
	claims, err := s.verify(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.Kind != kindAccess {
		return nil, fmt.Errorf("not an access token")
	}
	return claims, nil
}

// VerifyPendingMobile verifies a verification token and returns the mobile it
// was issued for.
func (s *JWTService) VerifyPendingMobile(tokenString string) (string, error) {
	claims, err := s.verify(tokenString)
	if err != nil {
		return "", err
	}
	if claims.Kind != kindPending || claims.Mobile == "" {
		return "", fmt.Errorf("not a verification token")
	}
	return claims.Mobile, nil
}

func (s *JWTService) verify(tokenString string) (*JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}
