package stripe

import (
	"fmt"
	"time"
)

// =====================================================
// STRIPE CONFIGURATION
// =====================================================

type Config struct {
	APIURL    string        // Gateway API base URL
	SecretKey string        // Bearer secret for request auth
	Timeout   time.Duration // Per-call timeout; must stay below the order lock TTL
}

// NewConfig creates gateway configuration
func NewConfig(apiURL, secretKey string, timeout time.Duration) *Config {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Config{
		APIURL:    apiURL,
		SecretKey: secretKey,
		Timeout:   timeout,
	}
}

// Validate validates configuration
func (c *Config) Validate() error {
	if c.APIURL == "" {
		return fmt.Errorf("gateway APIURL is required")
	}
	if c.SecretKey == "" {
		return fmt.Errorf("gateway SecretKey is required")
	}
	return nil
}

// RefundsURL returns the refund creation endpoint
func (c *Config) RefundsURL() string {
	return c.APIURL + "/v1/refunds"
}
