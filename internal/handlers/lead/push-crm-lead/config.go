// internal/handlers/lead/push-crm-lead/config.go
package pushcrmlead

import (
	"fmt"
	"time"

	"infinz-leadgen/internal/common/config"
)

type Config struct {
	Enabled        bool
	Timeout        time.Duration
	BaseURL        string
	ZohoAPIKey     string
	ZohoOAuthToken string
	LeadSource     string
}

func DefaultConfig() *Config {
	return &Config{
		Enabled:    true,
		Timeout:    15 * time.Second,
		LeadSource: "Infinz Website",
	}
}

// LoadConfig overlays the integrations.zoho section onto the defaults.
func LoadConfig(cfg config.IntegrationConfig) *Config {
	c := DefaultConfig()
	c.Enabled = cfg.Zoho.Enabled
	c.BaseURL = cfg.Zoho.BaseURL
	c.ZohoAPIKey = cfg.Zoho.APIKey
	c.ZohoOAuthToken = cfg.Zoho.AuthToken
	if cfg.Zoho.Source != "" {
		c.LeadSource = cfg.Zoho.Source
	}
	return c
}

func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.ZohoOAuthToken == "" {
		return fmt.Errorf("zoho_oauth_token is required")
	}
	return nil
}
