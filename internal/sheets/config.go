// Package sheets exports prediction history to Google Sheets.
package sheets

import (
	"fmt"
	"time"

	"github.com/Veraticus/fraudwatch/internal/common"
)

// DefaultSpreadsheetName is used when a new spreadsheet has to be created.
const DefaultSpreadsheetName = "Fraudwatch Transaction History"

// Config validation errors.
var (
	ErrNoAuth       = fmt.Errorf("%w: no authentication method configured", common.ErrMissingConfig)
	ErrMultipleAuth = fmt.Errorf("%w: multiple authentication methods configured; use either OAuth2 or service account", common.ErrInvalidConfig)
)

// Config holds the configuration for the Google Sheets writer.
type Config struct {
	ClientID           string
	ClientSecret       string
	RefreshToken       string
	ServiceAccountPath string
	SpreadsheetID      string
	SpreadsheetName    string
	TimeZone           string
	BatchSize          int
	RetryAttempts      int
	RetryDelay         time.Duration
	EnableFormatting   bool
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		EnableFormatting: true,
		SpreadsheetName:  DefaultSpreadsheetName,
		TimeZone:         "UTC",
		BatchSize:        1000,
		RetryAttempts:    3,
		RetryDelay:       time.Second,
	}
}

// HasOAuth reports whether a complete set of OAuth2 credentials is configured.
func (c *Config) HasOAuth() bool {
	return c.ClientID != "" && c.ClientSecret != "" && c.RefreshToken != ""
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	hasServiceAccount := c.ServiceAccountPath != ""

	if !c.HasOAuth() && !hasServiceAccount {
		return ErrNoAuth
	}
	if c.HasOAuth() && hasServiceAccount {
		return ErrMultipleAuth
	}

	if c.BatchSize <= 0 {
		return invalid("batch size must be positive")
	}
	if c.RetryAttempts < 0 {
		return invalid("retry attempts cannot be negative")
	}
	if c.RetryDelay < 0 {
		return invalid("retry delay cannot be negative")
	}

	return nil
}

func invalid(msg string) error {
	return fmt.Errorf("%w: %s", common.ErrInvalidConfig, msg)
}
