// internal/common/config/config.go
package config

import (
	"fmt"
	"time"
)

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig          `mapstructure:"app"`
	Server        ServerConfig       `mapstructure:"server"`
	Backend       BackendConfig      `mapstructure:"backend"`
	Session       SessionConfig      `mapstructure:"session"`
	Wizard        WizardConfig       `mapstructure:"wizard"`
	Database      DatabaseConfig     `mapstructure:"database"`
	Drafts        DraftsConfig       `mapstructure:"drafts"`
	Content       ContentConfig      `mapstructure:"content"`
	Notifications NotificationConfig `mapstructure:"notifications"`
	Integrations  IntegrationConfig  `mapstructure:"integrations"`
	Logging       LoggingConfig      `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Address        string   `mapstructure:"address"`
	Mode           string   `mapstructure:"mode"`          // gin mode: debug, release, test
	ReadTimeout    int      `mapstructure:"read_timeout"`  // milliseconds
	WriteTimeout   int      `mapstructure:"write_timeout"` // milliseconds
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// BackendConfig points at the Infinz backend REST API.
type BackendConfig struct {
	BaseURL string `mapstructure:"base_url"`
	Timeout int    `mapstructure:"timeout"` // milliseconds
}

// SessionConfig controls the signed wizard session tokens handed to the browser.
type SessionConfig struct {
	Secret     string `mapstructure:"secret"`
	Issuer     string `mapstructure:"issuer"`
	TTLMinutes int    `mapstructure:"ttl_minutes"`
}

// TTL returns the session lifetime.
func (s SessionConfig) TTL() time.Duration {
	return time.Duration(s.TTLMinutes) * time.Minute
}

type WizardConfig struct {
	OTPResendCooldownSeconds int `mapstructure:"otp_resend_cooldown_seconds"`
	StepTimeout              int `mapstructure:"step_timeout"` // milliseconds
	LeadTimeout              int `mapstructure:"lead_timeout"` // milliseconds
	UploadMaxBytes           int `mapstructure:"upload_max_bytes"`
}

// OTPResendCooldown returns the resend gate duration.
func (w WizardConfig) OTPResendCooldown() time.Duration {
	return time.Duration(w.OTPResendCooldownSeconds) * time.Second
}

type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`

	ConnMaxLifetimeMinutes int `mapstructure:"conn_max_lifetime_minutes"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

// Draft storage backends.
const (
	DraftBackendMemory   = "memory"
	DraftBackendRedis    = "redis"
	DraftBackendPostgres = "postgres"
)

// DraftsConfig selects where wizard drafts live between steps.
type DraftsConfig struct {
	Backend    string `mapstructure:"backend"`
	TTLMinutes int    `mapstructure:"ttl_minutes"`
	KeyPrefix  string `mapstructure:"key_prefix"`
}

// TTL returns the draft lifetime.
func (d DraftsConfig) TTL() time.Duration {
	return time.Duration(d.TTLMinutes) * time.Minute
}

// ContentConfig holds settings for the blog/news feed proxy.
type ContentConfig struct {
	CacheEnabled    bool `mapstructure:"cache_enabled"`
	CacheTTLSeconds int  `mapstructure:"cache_ttl_seconds"`
	PageSize        int  `mapstructure:"page_size"`
}

// NotificationConfig holds settings for the lead send-notification handler.
type NotificationConfig struct {
	Email struct {
		Enabled       bool     `mapstructure:"enabled"`
		FromEmail     string   `mapstructure:"from_email"`
		OpsRecipients []string `mapstructure:"ops_recipients"`
	} `mapstructure:"email"`
	SMS struct {
		Enabled  bool   `mapstructure:"enabled"`
		SenderID string `mapstructure:"sender_id"`
	} `mapstructure:"sms"`
	AWS struct {
		Region string `mapstructure:"region"`
	} `mapstructure:"aws"`
}

// IntegrationConfig holds settings for CRM and other external services.
type IntegrationConfig struct {
	Zoho struct {
		Enabled   bool   `mapstructure:"enabled"`
		BaseURL   string `mapstructure:"base_url"`
		APIKey    string `mapstructure:"api_key"`
		AuthToken string `mapstructure:"oauth_token"`
		Source    string `mapstructure:"lead_source"`
	} `mapstructure:"zoho"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
