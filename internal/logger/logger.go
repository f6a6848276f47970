package logger

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var log *zap.Logger = zap.NewNop()

// Init builds the global logger. Dev mode gets a colored console encoder,
// production gets JSON on stdout.
func Init(devMode bool) {
	var cfg zap.Config

	if devMode {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		cfg = zap.NewProductionConfig()
		cfg.Encoding = "json"
		cfg.EncoderConfig.TimeKey = "timestamp"
		cfg.EncoderConfig.MessageKey = "message"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		cfg.OutputPaths = []string{"stdout"}
	}

	var err error
	log, err = cfg.Build(zap.AddCaller())
	if err != nil {
		panic(err)
	}
}

// L returns the global logger.
func L() *zap.Logger {
	return log
}

// Sync flushes buffered log entries.
func Sync() {
	_ = log.Sync()
}

// Mobile returns a zap field with the mobile number masked for logging
// (first two and last two characters kept).
func Mobile(mobile string) zap.Field {
	return zap.String("mobile", MaskMobile(mobile))
}

// MaskMobile masks a mobile identifier, e.g. "+919876543210" -> "+9********10".
func MaskMobile(mobile string) string {
	if len(mobile) <= 4 {
		return "****"
	}
	return mobile[:2] + strings.Repeat("*", len(mobile)-4) + mobile[len(mobile)-2:]
}
