package config

import (
	"fmt"
	"os"
	"strconv"
)

// DefaultBankDetails is printed on invoices when the form leaves the field blank.
const DefaultBankDetails = "Bank : J&K Bank Branch : SMGS Hospital, Jammu. A/c No. : 1203020100000169 IFSC Code : JAKA0EMCJAM"

// Config holds the application configuration
type Config struct {
	DatabaseURL string
	Port        string
	JWTSecret   string
	OTPSalt     string
	DevMode     bool

	// CountryPrefix is prepended to bare 10-digit mobile numbers.
	CountryPrefix string
	// SequenceStart seeds the invoice counter on first boot.
	SequenceStart int64
	// BankDetails is the default bank footer for invoices.
	BankDetails string

	// Twilio credentials; when any is empty, OTP codes are logged instead of sent.
	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioFrom       string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Port:          "8080",
		CountryPrefix: "+91",
		SequenceStart: 10001,
		BankDetails:   DefaultBankDetails,
	}

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}

	if port := os.Getenv("PORT"); port != "" {
		cfg.Port = port
	}

	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is required")
	}

	cfg.OTPSalt = os.Getenv("OTP_SALT")
	if cfg.OTPSalt == "" {
		return nil, fmt.Errorf("OTP_SALT environment variable is required")
	}

	if prefix := os.Getenv("COUNTRY_PREFIX"); prefix != "" {
		cfg.CountryPrefix = prefix
	}

	if start := os.Getenv("INVOICE_SEQUENCE_START"); start != "" {
		v, err := strconv.ParseInt(start, 10, 64)
		if err != nil || v <= 0 {
			return nil, fmt.Errorf("INVOICE_SEQUENCE_START must be a positive integer, got %q", start)
		}
		cfg.SequenceStart = v
	}

	if bank := os.Getenv("BANK_DETAILS_DEFAULT"); bank != "" {
		cfg.BankDetails = bank
	}

	cfg.DevMode = os.Getenv("DEV_MODE") == "true"

	cfg.TwilioAccountSID = os.Getenv("TWILIO_ACCOUNT_SID")
	cfg.TwilioAuthToken = os.Getenv("TWILIO_AUTH_TOKEN")
	cfg.TwilioFrom = os.Getenv("TWILIO_FROM")

	return cfg, nil
}

// SMSConfigured reports whether all Twilio credentials are present.
func (c *Config) SMSConfigured() bool {
	return c.TwilioAccountSID != "" && c.TwilioAuthToken != "" && c.TwilioFrom != ""
}
