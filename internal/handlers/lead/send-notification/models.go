// internal/handlers/lead/send-notification/models.go
package sendnotification

import "infinz-leadgen/internal/models"

type Input struct {
	Lead *models.Lead `json:"lead"`
}

type Output struct {
	NotificationID string `json:"notificationId"`
	Status         string `json:"status"` // "sent", "failed", "disabled"
	SMSSent        bool   `json:"smsSent"`
	EmailSent      bool   `json:"emailSent"`
	SentAt         string `json:"sentAt"` // ISO 8601
}

// Template keys
const (
	TypeApplicantConfirmation      = "applicant_confirmation"
	TypeApplicantConfirmationOffer = "applicant_confirmation_offer"
	TypeOpsNewLead                 = "ops_new_lead"
)

// Statuses
const (
	StatusSent     = "sent"
	StatusFailed   = "failed"
	StatusDisabled = "disabled"
)
