package notify

import (
	"context"

	"go.uber.org/zap"

	"github.com/billdesk/server/internal/logger"
)

// LogNotifier is used when no SMS credentials are configured. In dev mode it
// logs the plaintext code so a developer can complete the login flow; otherwise
// it only records that a dispatch would have happened.
type LogNotifier struct {
	DevMode bool
}

// Send logs the dispatch instead of delivering it.
func (n *LogNotifier) Send(_ context.Context, mobile, code string) error {
	if n.DevMode {
		logger.L().Info("dev OTP dispatch", logger.Mobile(mobile), zap.String("code", code))
		return nil
	}
	logger.L().Info("OTP dispatch skipped: SMS not configured", logger.Mobile(mobile))
	return nil
}
