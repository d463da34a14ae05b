package excel

import (
	"time"

	treeboard "github.com/ideamans/go-treeboard"
)

// Config holds configuration for Excel adapter
type Config struct {
	FilePath  string // Path to the Excel file
	SheetName string // Name of the sheet to use
	// KeyColumn names the column holding row keys. Rows without a value
	// there are keyed by their row number.
	KeyColumn string
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.FilePath == "" {
		return ErrMissingFilePath
	}
	if c.SheetName == "" {
		return ErrMissingSheetName
	}
	return nil
}

// DefaultClientConfig returns the recommended controller configuration
// for a local workbook
func DefaultClientConfig() *treeboard.Config {
	return &treeboard.Config{
		SyncInterval:   5 * time.Second,
		RequestTimeout: 5 * time.Second,
		KeyField:       treeboard.DefaultKeyField,
	}
}
