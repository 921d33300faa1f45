// internal/wizard/view.go
package wizard

import (
	"time"

	"infinz-leadgen/internal/models"
)

// View is the client-facing projection of a draft. The backend token never leaves the server.
type View struct {
	ID                       string                  `json:"id"`
	LoanType                 models.LoanType         `json:"loanType"`
	State                    models.State            `json:"state"`
	Pending                  models.PendingEffect    `json:"pending,omitempty"`
	ApplyData                *models.ApplyData       `json:"applyData,omitempty"`
	MobileNumber             string                  `json:"mobileNumber,omitempty"`
	ResendAvailableInSeconds int                     `json:"resendAvailableInSeconds"`
	PersonalDetails          *models.PersonalDetails `json:"personalDetails,omitempty"`
	LoanSpecifics            *models.LoanSpecifics   `json:"loanSpecifics,omitempty"`
	SalarySlipReference      string                  `json:"salarySlipReference,omitempty"`
	Offer                    *models.MatchedOffer    `json:"offer,omitempty"`
	Errors                   map[string]string       `json:"errors,omitempty"`
	Message                  string                  `json:"message,omitempty"`
	UpdatedAt                time.Time               `json:"updatedAt"`
}

func (m *Machine) View(d *models.Draft, now time.Time) *View {
	c := d.Clone()
	remaining := m.ResendRemaining(c, now)
	return &View{
		ID:                       c.ID,
		LoanType:                 c.LoanType,
		State:                    c.State,
		Pending:                  c.Pending,
		ApplyData:                c.ApplyData,
		MobileNumber:             c.MobileNumber,
		ResendAvailableInSeconds: int((remaining + time.Second - 1) / time.Second),
		PersonalDetails:          c.PersonalDetails,
		LoanSpecifics:            c.LoanSpecifics,
		SalarySlipReference:      c.SalarySlipReference,
		Offer:                    c.Offer,
		Errors:                   c.Errors,
		Message:                  c.Message,
		UpdatedAt:                c.UpdatedAt,
	}
}
