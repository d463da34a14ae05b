package googlesheets

import (
	"errors"
	"time"

	"github.com/hashicorp/go-multierror"
	treeboard "github.com/ideamans/go-treeboard"
)

// Config represents configuration specific to Google Sheets adapter
type Config struct {
	SpreadsheetID string
	SheetName     string
	// KeyColumn names the column holding row keys; rows without it are
	// keyed by their row number
	KeyColumn string

	// Credentials, tried in this order by Open: a JSON key file, a service
	// account email + private key, then Application Default Credentials
	CredentialsFile     string
	ServiceAccountEmail string
	PrivateKey          string
}

// Validate reports every missing setting at once
func (c *Config) Validate() error {
	var result *multierror.Error
	if c.SpreadsheetID == "" {
		result = multierror.Append(result, errors.New("spreadsheet ID is required"))
	}
	if c.SheetName == "" {
		result = multierror.Append(result, errors.New("sheet name is required"))
	}
	if (c.ServiceAccountEmail == "") != (c.PrivateKey == "") {
		result = multierror.Append(result, errors.New("service account email and private key must be set together"))
	}
	return result.ErrorOrNil()
}

// DefaultClientConfig returns the recommended controller configuration for
// a Google Sheets dataset, which is slower to round-trip than a local file
func DefaultClientConfig() *treeboard.Config {
	return &treeboard.Config{
		SyncInterval:   60 * time.Second,
		RequestTimeout: 30 * time.Second,
		KeyField:       treeboard.DefaultKeyField,
	}
}
