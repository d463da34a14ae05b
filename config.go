package treeboard

import (
	"time"

	"github.com/sirupsen/logrus"
)

// Config represents configuration for the dashboard controller
type Config struct {
	SyncInterval   time.Duration      // Interval for background structure refresh and reconciliation (0 disables)
	RequestTimeout time.Duration      // Per remote call timeout (default: 10s, negative disables)
	KeyField       string             // Column identifying rows (default: "key")
	Logger         logrus.FieldLogger // default: logrus.StandardLogger()
	Notifier       Notifier           // default: LogNotifier on Logger
}

// DefaultConfig returns the configuration used when New receives nil
func DefaultConfig() *Config {
	return &Config{
		SyncInterval:   30 * time.Second,
		RequestTimeout: 10 * time.Second,
		KeyField:       DefaultKeyField,
	}
}

func (c Config) withDefaults() Config {
	if c.RequestTimeout == 0 {
		c.RequestTimeout = 10 * time.Second
	}
	if c.KeyField == "" {
		c.KeyField = DefaultKeyField
	}
	if c.Logger == nil {
		c.Logger = logrus.StandardLogger()
	}
	if c.Notifier == nil {
		c.Notifier = &LogNotifier{Logger: c.Logger}
	}
	return c
}
