package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/billdesk/server/internal/model"
	"github.com/billdesk/server/internal/repo"
)

const (
	codeLength = 6
	codeExpiry = 5 * time.Minute

	requestWindow        = 10 * time.Minute
	maxRequestsPerWindow = 3
)

var (
	// ErrInvalidCode means no unused code matches what the caller presented.
	ErrInvalidCode = errors.New("invalid code")
	// ErrExpired means the presented code matched but its validity window has
	// passed; the row is left unused and the caller must restart login.
	ErrExpired = errors.New("code expired")
	// ErrTooManyRequests means the per-mobile issuance limit was hit.
	ErrTooManyRequests = errors.New("too many code requests")
)

// OtpService issues and verifies one-time codes backed by the append-only
// otp_codes table. Codes are stored as salted SHA-256 hashes, never plain.
type OtpService struct {
	otpRepo repo.OtpRepo
	salt    string
}

// NewOtpService creates a new OTP service.
func NewOtpService(otpRepo repo.OtpRepo, salt string) *OtpService {
	return &OtpService{otpRepo: otpRepo, salt: salt}
}

// Issue generates a fresh code for the mobile, persists it with a 5-minute
// expiry, and returns the plaintext code for dispatch. Earlier codes for the
// same mobile are untouched; rows are append-only.
func (s *OtpService) Issue(ctx context.Context, mobile string) (string, error) {
	since := time.Now().Add(-requestWindow)
	count, err := s.otpRepo.CountIssuedSince(ctx, mobile, since)
	if err != nil {
		return "", fmt.Errorf("rate limit check: %w", err)
	}
	if count >= maxRequestsPerWindow {
		return "", fmt.Errorf("%w: max %d per %v per mobile", ErrTooManyRequests, maxRequestsPerWindow, requestWindow)
	}

	code, err := generateCode()
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}

	expiresAt := time.Now().Add(codeExpiry)
	if _, err := s.otpRepo.Create(ctx, mobile, hashCodeHex(mobile, code, s.salt), expiresAt); err != nil {
		return "", fmt.Errorf("persist code: %w", err)
	}
	return code, nil
}

// Verify checks the presented code against the newest unused matching row for
// the mobile. Returns ErrInvalidCode when nothing matches, ErrExpired when the
// match is past its expiry (the row stays unused), and nil after marking the
// row used. A code verifies at most once.
func (s *OtpService) Verify(ctx context.Context, mobile, code string, now time.Time) error {
	rec, err := s.otpRepo.FindLatestUnused(ctx, mobile, hashCodeHex(mobile, code, s.salt))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrInvalidCode
		}
		return fmt.Errorf("lookup code: %w", err)
	}

	if !verifyHash(rec, mobile, code, s.salt) {
		return ErrInvalidCode
	}

	if !now.Before(rec.ExpiresAt) {
		return ErrExpired
	}

	if err := s.otpRepo.MarkUsed(ctx, rec.ID); err != nil {
		// a concurrent verification consumed the row first; the code is spent
		if errors.Is(err, repo.ErrNotFound) {
			return ErrInvalidCode
		}
		return fmt.Errorf("mark code used: %w", err)
	}
	return nil
}

// CodeTTL returns how long an issued code stays valid.
func (s *OtpService) CodeTTL() time.Duration { return codeExpiry }

// verifyHash re-checks the stored hash in constant time. The repository lookup
// already filtered on the hash; this guards against a lookup that matches on
// other columns only.
func verifyHash(rec model.OneTimeCode, mobile, code, salt string) bool {
	want := hashCodeBytes(mobile, code, salt)
	return subtle.ConstantTimeCompare(want, rec.CodeHash) == 1
}

// generateCode returns a uniformly random fixed-length numeric code.
func generateCode() (string, error) {
	digits := make([]byte, codeLength)
	for i := range digits {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		digits[i] = byte('0' + n.Int64())
	}
	return string(digits), nil
}

// hashCodeHex returns SHA-256(mobile:code:salt) as hex for DB storage.
func hashCodeHex(mobile, code, salt string) string {
	return hex.EncodeToString(hashCodeBytes(mobile, code, salt))
}

func hashCodeBytes(mobile, code, salt string) []byte {
	h := sha256.Sum256([]byte(mobile + ":" + code + ":" + salt))
	return h[:]
}
