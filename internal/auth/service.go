package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/billdesk/server/internal/logger"
	"github.com/billdesk/server/internal/model"
	"github.com/billdesk/server/internal/notify"
	"github.com/billdesk/server/internal/repo"
)

const sessionExpiry = 24 * time.Hour

// Service orchestrates the login flow: code issuance with SMS dispatch,
// verification, employee bootstrap, and session lifecycle.
type Service struct {
	otp           *OtpService
	jwt           *JWTService
	employeeRepo  repo.EmployeeRepo
	sessionRepo   repo.SessionRepo
	notifier      notify.Notifier
	countryPrefix string
}

// NewService creates a new auth service
func NewService(
	otp *OtpService,
	jwt *JWTService,
	employeeRepo repo.EmployeeRepo,
	sessionRepo repo.SessionRepo,
	notifier notify.Notifier,
	countryPrefix string,
) *Service {
	return &Service{
		otp:           otp,
		jwt:           jwt,
		employeeRepo:  employeeRepo,
		sessionRepo:   sessionRepo,
		notifier:      notifier,
		countryPrefix: countryPrefix,
	}
}

// RequestCode normalizes the mobile, issues a code, dispatches it, and returns
// a verification token carrying the pending mobile. Dispatch failure does not
// roll back issuance: the code stays valid, it just may not have arrived.
func (s *Service) RequestCode(ctx context.Context, mobile string) (string, error) {
	normalized := NormalizeMobile(mobile, s.countryPrefix)

	code, err := s.otp.Issue(ctx, normalized)
	if err != nil {
		return "", err
	}

	if err := s.notifier.Send(ctx, normalized, code); err != nil {
		logger.L().Warn("OTP dispatch failed", logger.Mobile(normalized), zap.Error(err))
	}

	token, err := s.jwt.SignVerificationToken(normalized, s.otp.CodeTTL())
	if err != nil {
		return "", fmt.Errorf("sign verification token: %w", err)
	}
	return token, nil
}

// VerifyCode resolves the pending mobile from the verification token, verifies
// the presented code, creates the employee on first login, and opens a session.
// ErrInvalidCode and ErrExpired pass through for the handler to map.
func (s *Service) VerifyCode(ctx context.Context, verificationToken, code string) (model.Employee, string, error) {
	mobile, err := s.jwt.VerifyPendingMobile(verificationToken)
	if err != nil {
		return model.Employee{}, "", fmt.Errorf("%w: %v", ErrInvalidCode, err)
	}

	if err := s.otp.Verify(ctx, mobile, code, time.Now()); err != nil {
		return model.Employee{}, "", err
	}

	emp, err := s.employeeRepo.GetOrCreateByMobile(ctx, mobile)
	if err != nil {
		return model.Employee{}, "", fmt.Errorf("get or create employee: %w", err)
	}

	sessionID := uuid.New()
	accessToken, err := s.jwt.SignAccessToken(emp.ID, emp.Mobile, sessionID)
	if err != nil {
		return model.Employee{}, "", fmt.Errorf("sign access token: %w", err)
	}

	hash := sha256.Sum256([]byte(accessToken))
	if err := s.sessionRepo.Create(ctx, sessionID, emp.ID, hex.EncodeToString(hash[:]), time.Now().Add(sessionExpiry)); err != nil {
		return model.Employee{}, "", fmt.Errorf("create session: %w", err)
	}

	return emp, accessToken, nil
}

// Logout revokes the session behind the access token; idempotent.
func (s *Service) Logout(ctx context.Context, sessionID uuid.UUID) error {
	if err := s.sessionRepo.Revoke(ctx, sessionID); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}
