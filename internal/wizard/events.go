// internal/wizard/events.go
package wizard

import (
	"infinz-leadgen/internal/backend"
	"infinz-leadgen/internal/models"
)

// EventKind names what happened to a draft. User events start a step;
// outcome events report the result of the effect a step requested.
type EventKind string

const (
	EventSubmitMobile          EventKind = "submit_mobile"
	EventResendOTP             EventKind = "resend_otp"
	EventSubmitOTP             EventKind = "submit_otp"
	EventSubmitPersonalDetails EventKind = "submit_personal_details"
	EventUploadSalarySlip      EventKind = "upload_salary_slip"
	EventSubmitLoan            EventKind = "submit_loan"
	EventReset                 EventKind = "reset"

	EventOTPDispatched         EventKind = "otp_dispatched"
	EventOTPDispatchFailed     EventKind = "otp_dispatch_failed"
	EventOTPVerified           EventKind = "otp_verified"
	EventOTPRejected           EventKind = "otp_rejected"
	EventPersonalDetailsSaved  EventKind = "personal_details_saved"
	EventPersonalDetailsFailed EventKind = "personal_details_failed"
	EventSalarySlipUploaded    EventKind = "salary_slip_uploaded"
	EventSalarySlipFailed      EventKind = "salary_slip_failed"
	EventLoanAccepted          EventKind = "loan_accepted"
	EventLoanFailed            EventKind = "loan_failed"
)

// LoanForm is the loan-type step input. Only the fields of the draft's
// product are read.
type LoanForm struct {
	LoanAmount float64 `json:"loanAmount"`

	MonthlyIncome   float64 `json:"monthlyIncome"`
	PaymentMode     string  `json:"paymentMode"`
	Employer        string  `json:"employer"`
	EmployerPincode string  `json:"employerPincode"`

	BusinessName      string   `json:"businessName"`
	AnnualTurnover    float64  `json:"annualTurnover"`
	IndustryType      string   `json:"industryType"`
	IncorporationDate string   `json:"incorporationDate"`
	BusinessPincode   string   `json:"businessPincode"`
	RegistrationTypes []string `json:"registrationTypes"`
}

// SalarySlip is an uploaded file held in memory until it is forwarded.
type SalarySlip struct {
	FileName    string
	ContentType string
	Data        []byte
}

type Event struct {
	Kind EventKind

	Mobile          string
	OTP             string
	PersonalDetails *models.PersonalDetails
	Loan            *LoanForm
	SalarySlip      *SalarySlip

	// Outcome fields. Generation is the draft generation the effect was issued under.
	Generation int64
	AuthToken  string
	UserID     string
	Reference  string
	Offer      *models.MatchedOffer
	Message    string
	Err        error
}

type EffectKind string

const (
	EffectDispatchOTP         EffectKind = "dispatch_otp"
	EffectVerifyOTP           EffectKind = "verify_otp"
	EffectSavePersonalDetails EffectKind = "save_personal_details"
	EffectUploadSalarySlip    EffectKind = "upload_salary_slip"
	EffectSubmitPersonalLoan  EffectKind = "submit_personal_loan"
	EffectSubmitBusinessLoan  EffectKind = "submit_business_loan"
	EffectCancelInFlight      EffectKind = "cancel_in_flight"
	EffectClearDraft          EffectKind = "clear_draft"
	EffectDeliverLead         EffectKind = "deliver_lead"
)

// Effect is work the service performs after persisting a transition.
type Effect struct {
	Kind EffectKind

	Mobile       string
	OTP          string
	AuthToken    string
	User         *backend.UserRequest
	PersonalLoan *backend.PersonalLoanRequest
	BusinessLoan *backend.BusinessLoanRequest
	SalarySlip   *SalarySlip
	Lead         *models.Lead
}

// Blocking reports whether the effect is a backend call the draft waits on.
func (e Effect) Blocking() bool {
	switch e.Kind {
	case EffectDispatchOTP, EffectVerifyOTP, EffectSavePersonalDetails,
		EffectUploadSalarySlip, EffectSubmitPersonalLoan, EffectSubmitBusinessLoan:
		return true
	default:
		return false
	}
}

// Result is the outcome of a pure transition.
type Result struct {
	Next    *models.Draft
	Effects []Effect
}
