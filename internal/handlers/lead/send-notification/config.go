// internal/handlers/lead/send-notification/config.go
package sendnotification

import (
	"time"

	"infinz-leadgen/internal/common/config"
)

type Config struct {
	EmailEnabled  bool
	SMSEnabled    bool
	FromEmail     string
	OpsRecipients []string
	SMSSenderID   string
	AWSRegion     string
	Timeout       time.Duration
}

func LoadConfig(cfg config.NotificationConfig) *Config {
	return &Config{
		EmailEnabled:  cfg.Email.Enabled,
		SMSEnabled:    cfg.SMS.Enabled,
		FromEmail:     cfg.Email.FromEmail,
		OpsRecipients: cfg.Email.OpsRecipients,
		SMSSenderID:   cfg.SMS.SenderID,
		AWSRegion:     cfg.AWS.Region,
		Timeout:       10 * time.Second,
	}
}
