// internal/handlers/lead/push-crm-lead/handler.go
package pushcrmlead

import (
	"context"
	"fmt"
	"strings"
	"time"

	"infinz-leadgen/internal/common/errors"
	"infinz-leadgen/internal/common/logger"
	"infinz-leadgen/internal/common/zoho"
	"infinz-leadgen/internal/models"
)

const SinkName = "push-crm-lead"

const ErrCodeCRMAPI errors.ErrorCode = "CRM_API_ERROR"

// CRMClient is the part of the Zoho client this sink uses.
type CRMClient interface {
	CreateLead(ctx context.Context, lead *zoho.Lead) (string, error)
	UpdateLead(ctx context.Context, leadID string, lead *zoho.Lead) error
	SearchLeadsByMobile(ctx context.Context, mobile string) ([]zoho.Lead, error)
}

type Handler struct {
	config *Config
	logger logger.Logger
	client CRMClient
	now    func() time.Time
}

func NewHandler(config *Config, client CRMClient, log logger.Logger) (*Handler, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for push-crm-lead: %w", err)
	}
	if client == nil {
		client = zoho.NewCRMClient(config.BaseURL, config.ZohoAPIKey, config.ZohoOAuthToken, config.Timeout)
	}
	return &Handler{
		config: config,
		logger: log.WithFields(map[string]interface{}{"sink": SinkName}),
		client: client,
		now:    time.Now,
	}, nil
}

func (h *Handler) Name() string {
	return SinkName
}

func (h *Handler) Deliver(ctx context.Context, lead *models.Lead) error {
	_, err := h.Execute(ctx, &Input{Lead: lead})
	return err
}

// Execute upserts the lead keyed by mobile number: an existing Zoho lead
// is updated, otherwise a new one is created.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if input.Lead == nil || input.Lead.MobileNumber == "" {
		return nil, errors.NewFieldValidationError("mobileNumber", "Lead mobile number is required")
	}
	lead := input.Lead

	ctx, cancel := context.WithTimeout(ctx, h.config.Timeout)
	defer cancel()

	record := h.toZohoLead(lead)

	existing, err := h.client.SearchLeadsByMobile(ctx, lead.MobileNumber)
	if err != nil {
		h.logger.Warn("Failed to search for existing lead", map[string]interface{}{
			"draftId": lead.DraftID,
			"error":   err.Error(),
		})
	} else if len(existing) > 0 {
		leadID := existing[0].ID
		if err := h.client.UpdateLead(ctx, leadID, record); err != nil {
			return nil, crmError("Failed to update CRM lead", err)
		}
		h.logger.Info("CRM lead updated", map[string]interface{}{
			"draftId": lead.DraftID,
			"leadId":  leadID,
		})
		return &Output{
			Success:     true,
			Message:     "Lead already existed and was updated",
			LeadID:      leadID,
			Updated:     true,
			CRMProvider: "zoho",
			SyncedAt:    h.now(),
		}, nil
	}

	leadID, err := h.client.CreateLead(ctx, record)
	if err != nil {
		return nil, crmError("Failed to create CRM lead", err)
	}

	h.logger.Info("CRM lead created", map[string]interface{}{
		"draftId":  lead.DraftID,
		"leadId":   leadID,
		"provider": "zoho",
	})

	return &Output{
		Success:     true,
		Message:     "CRM lead created successfully",
		LeadID:      leadID,
		CRMProvider: "zoho",
		SyncedAt:    h.now(),
	}, nil
}

func (h *Handler) toZohoLead(lead *models.Lead) *zoho.Lead {
	first, last := splitName(lead.FullName)
	record := &zoho.Lead{
		FirstName:   first,
		LastName:    last,
		Email:       lead.Email,
		Mobile:      lead.MobileNumber,
		Company:     lead.BusinessName,
		ZipCode:     lead.Pincode,
		Source:      h.config.LeadSource,
		LoanType:    string(lead.LoanType),
		LoanAmount:  lead.LoanAmount,
		Description: fmt.Sprintf("Wizard draft %s submitted %s", lead.DraftID, lead.SubmittedAt.UTC().Format(time.RFC3339)),
	}
	if lead.Offer != nil {
		record.MatchedBank = lead.Offer.BankName
	}
	return record
}

// splitName puts everything after the first word into the last name,
// which Zoho requires to be non-empty.
func splitName(full string) (string, string) {
	parts := strings.Fields(full)
	switch len(parts) {
	case 0:
		return "", "Unknown"
	case 1:
		return "", parts[0]
	default:
		return parts[0], strings.Join(parts[1:], " ")
	}
}

func crmError(message string, err error) *errors.StandardError {
	return &errors.StandardError{
		Code:      ErrCodeCRMAPI,
		Message:   message,
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now(),
	}
}
