// internal/handlers/lead/send-notification/handler.go
package sendnotification

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	awshelper "infinz-leadgen/internal/common/aws"
	"infinz-leadgen/internal/common/logger"
	"infinz-leadgen/internal/models"

	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/google/uuid"
)

const (
	SinkName = "send-notification"
)

var (
	ErrNotificationSendFailed = errors.New("NOTIFICATION_SEND_FAILED")
)

// Define interfaces for mocking
type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type SNSService interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

type Handler struct {
	config      *Config
	logger      logger.Logger
	sesClient   SESService
	snsClient   SNSService
	templateMap map[string]map[string]string
	now         func() time.Time
}

func NewHandler(config *Config, sesClient SESService, snsClient SNSService, log logger.Logger) *Handler {
	return &Handler{
		config:      config,
		logger:      log.WithFields(map[string]interface{}{"sink": SinkName}),
		sesClient:   sesClient,
		snsClient:   snsClient,
		templateMap: loadTemplates(),
		now:         time.Now,
	}
}

// NewHandlerFromAWS builds SES and SNS clients from the default credential chain.
func NewHandlerFromAWS(ctx context.Context, config *Config, log logger.Logger) (*Handler, error) {
	awsCfg, err := awshelper.LoadConfig(ctx, config.AWSRegion)
	if err != nil {
		return nil, err
	}
	return NewHandler(config, awshelper.NewSESClient(awsCfg), awshelper.NewSNSClient(awsCfg), log), nil
}

func (h *Handler) Name() string {
	return SinkName
}

// Deliver sends the applicant SMS and the ops email for a submitted lead.
func (h *Handler) Deliver(ctx context.Context, lead *models.Lead) error {
	output, err := h.Execute(ctx, &Input{Lead: lead})
	if err != nil {
		return err
	}
	if output.Status == StatusFailed {
		return fmt.Errorf("%w: lead %s", ErrNotificationSendFailed, lead.DraftID)
	}
	return nil
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if input.Lead == nil {
		return nil, errors.New("lead is required")
	}
	lead := input.Lead

	ctx, cancel := context.WithTimeout(ctx, h.config.Timeout)
	defer cancel()

	data := templateData(lead)
	sentAt := h.now().UTC().Format(time.RFC3339)
	output := &Output{
		NotificationID: uuid.New().String(),
		Status:         StatusDisabled,
		SentAt:         sentAt,
	}
	failed := false

	// SMS confirmation to the applicant
	if h.config.SMSEnabled && lead.MobileNumber != "" {
		key := TypeApplicantConfirmation
		if lead.Offer != nil {
			key = TypeApplicantConfirmationOffer
		}
		body := renderTemplate(h.templateMap[key]["body"], data)
		if err := h.sendSMS(ctx, lead.MobileNumber, body); err != nil {
			h.logger.Error("SMS send failed", map[string]interface{}{
				"error":   err,
				"draftId": lead.DraftID,
			})
			failed = true
		} else {
			output.SMSSent = true
		}
	}

	// Email to the ops mailbox
	if h.config.EmailEnabled && len(h.config.OpsRecipients) > 0 {
		template := h.templateMap[TypeOpsNewLead]
		subject := renderTemplate(template["subject"], data)
		body := renderTemplate(template["body"], data)
		if err := h.sendEmail(ctx, subject, body); err != nil {
			h.logger.Error("email send failed", map[string]interface{}{
				"error":      err,
				"recipients": h.config.OpsRecipients,
			})
			failed = true
		} else {
			output.EmailSent = true
		}
	}

	switch {
	case failed:
		output.Status = StatusFailed
	case output.SMSSent || output.EmailSent:
		output.Status = StatusSent
	}

	h.logger.Info("lead notification processed", map[string]interface{}{
		"draftId":   lead.DraftID,
		"status":    output.Status,
		"smsSent":   output.SMSSent,
		"emailSent": output.EmailSent,
	})
	return output, nil
}

func (h *Handler) sendEmail(ctx context.Context, subject, body string) error {
	_, err := h.sesClient.SendEmail(ctx, awshelper.EmailInput(h.config.FromEmail, h.config.OpsRecipients, subject, body, ""))
	return err
}

func (h *Handler) sendSMS(ctx context.Context, mobile, message string) error {
	_, err := h.snsClient.Publish(ctx, awshelper.SMSInput(mobile, message, h.config.SMSSenderID))
	return err
}

func templateData(lead *models.Lead) map[string]interface{} {
	firstName := strings.TrimSpace(lead.FullName)
	if i := strings.IndexByte(firstName, ' '); i > 0 {
		firstName = firstName[:i]
	}
	data := map[string]interface{}{
		"draftId":      lead.DraftID,
		"fullName":     lead.FullName,
		"firstName":    firstName,
		"email":        lead.Email,
		"mobileNumber": lead.MobileNumber,
		"pincode":      lead.Pincode,
		"loanType":     string(lead.LoanType),
		"loanAmount":   fmt.Sprintf("%.0f", lead.LoanAmount),
		"businessName": lead.BusinessName,
		"submittedAt":  lead.SubmittedAt.UTC().Format(time.RFC3339),
	}
	if lead.Offer != nil {
		data["bankName"] = lead.Offer.BankName
		data["trackingLink"] = lead.Offer.TrackingLink
	}
	return data
}

// Simplified template rendering with placeholder removal for missing values
func renderTemplate(tmpl string, data map[string]interface{}) string {
	result := tmpl

	for k, v := range data {
		placeholder := "{{" + k + "}}"
		value := ""
		if s, ok := v.(string); ok {
			value = s
		} else if v != nil {
			value = fmt.Sprintf("%v", v)
		}
		result = strings.ReplaceAll(result, placeholder, value)
	}

	// {{missing}} -> empty string
	for {
		start := strings.Index(result, "{{")
		if start == -1 {
			break
		}
		end := strings.Index(result[start:], "}}")
		if end == -1 {
			break
		}
		end += start + 2
		result = result[:start] + result[end:]
	}

	return result
}

func loadTemplates() map[string]map[string]string {
	return map[string]map[string]string{
		TypeApplicantConfirmation: {
			"body": "Hi {{firstName}}, your Infinz {{loanType}} loan application for Rs {{loanAmount}} has been received. Our team will contact you shortly.",
		},
		TypeApplicantConfirmationOffer: {
			"body": "Hi {{firstName}}, your Infinz {{loanType}} loan application for Rs {{loanAmount}} is matched with {{bankName}}. Continue here: {{trackingLink}}",
		},
		TypeOpsNewLead: {
			"subject": "New {{loanType}} loan lead: {{fullName}}",
			"body": "Name: {{fullName}}\nMobile: {{mobileNumber}}\nEmail: {{email}}\nPincode: {{pincode}}\n" +
				"Loan type: {{loanType}}\nAmount: {{loanAmount}}\nBusiness: {{businessName}}\nMatched bank: {{bankName}}\n" +
				"Draft: {{draftId}}\nSubmitted: {{submittedAt}}",
		},
	}
}
