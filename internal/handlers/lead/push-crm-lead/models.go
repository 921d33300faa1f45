// internal/handlers/lead/push-crm-lead/models.go
package pushcrmlead

import (
	"time"

	"infinz-leadgen/internal/models"
)

type Input struct {
	Lead *models.Lead `json:"lead"`
}

type Output struct {
	Success     bool      `json:"success"`
	Message     string    `json:"message"`
	LeadID      string    `json:"leadId,omitempty"`
	Updated     bool      `json:"updated"`
	CRMProvider string    `json:"crmProvider,omitempty"`
	SyncedAt    time.Time `json:"syncedAt"`
}
