package httpapi

import (
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/hashicorp/go-multierror"
	treeboard "github.com/ideamans/go-treeboard"
)

// Config represents configuration for the REST backend
type Config struct {
	BaseURL string
	// Token is sent as a bearer token when set
	Token      string
	Timeout    time.Duration
	HTTPClient *http.Client
	// KeyField names the row field that carries the key
	KeyField string
}

// Validate reports every problem with the configuration at once
func (c *Config) Validate() error {
	var result *multierror.Error

	if c.BaseURL == "" {
		result = multierror.Append(result, fmt.Errorf("base URL is required"))
	} else if u, err := url.Parse(c.BaseURL); err != nil {
		result = multierror.Append(result, fmt.Errorf("invalid base URL: %w", err))
	} else if u.Scheme != "http" && u.Scheme != "https" {
		result = multierror.Append(result, fmt.Errorf("base URL scheme must be http or https, got %q", u.Scheme))
	}

	if c.Timeout < 0 {
		result = multierror.Append(result, fmt.Errorf("timeout must not be negative"))
	}

	return result.ErrorOrNil()
}

// DefaultClientConfig returns the recommended controller configuration
// for a remote backend
func DefaultClientConfig() *treeboard.Config {
	return &treeboard.Config{
		SyncInterval:   30 * time.Second,
		RequestTimeout: 15 * time.Second,
		KeyField:       treeboard.DefaultKeyField,
	}
}
