// internal/models/draft.go
package models

import "time"

// DraftSchemaVersion is bumped whenever the persisted Draft layout changes.
// Stores treat drafts with another version as absent.
const DraftSchemaVersion = 1

type LoanType string

const (
	LoanTypePersonal LoanType = "personal"
	LoanTypeBusiness LoanType = "business"
)

func (t LoanType) Valid() bool {
	return t == LoanTypePersonal || t == LoanTypeBusiness
}

// State is a wizard step.
type State string

const (
	StateMobileEntry     State = "mobile_entry"
	StateOTPVerification State = "otp_verification"
	StatePersonalDetails State = "personal_details"
	StateLoanForm        State = "loan_form"
	StateSuccess         State = "success"
)

// PendingEffect names the backend call a draft is waiting on. Empty means idle.
type PendingEffect string

const (
	PendingNone                PendingEffect = ""
	PendingDispatchOTP         PendingEffect = "dispatch_otp"
	PendingVerifyOTP           PendingEffect = "verify_otp"
	PendingSavePersonalDetails PendingEffect = "save_personal_details"
	PendingUploadSalarySlip    PendingEffect = "upload_salary_slip"
	PendingSubmitLoan          PendingEffect = "submit_loan"
)

// Payment modes accepted for personal loans.
const (
	PaymentModeBankTransfer = "bank_transfer"
	PaymentModeCheque       = "cheque"
	PaymentModeCash         = "cash"
)

// Business registration types.
const (
	RegistrationGST    = "GST"
	RegistrationShop   = "SHOP"
	RegistrationFSSAI  = "FSSAI"
	RegistrationTrade  = "TRADE"
	RegistrationOthers = "OTHERS"
)

var (
	PaymentModes      = []string{PaymentModeBankTransfer, PaymentModeCheque, PaymentModeCash}
	RegistrationTypes = []string{RegistrationGST, RegistrationShop, RegistrationFSSAI, RegistrationTrade, RegistrationOthers}
)

// ApplyData is the prefill carried over from the entry page.
type ApplyData struct {
	LoanAmount        float64  `json:"loanAmount,omitempty"`
	RegistrationTypes []string `json:"registrationTypes,omitempty"`
}

type PersonalDetails struct {
	FullName      string `json:"fullName"`
	Email         string `json:"email"`
	DateOfBirth   string `json:"dateOfBirth"`
	PANCardNumber string `json:"panCardNumber"`
	Pincode       string `json:"pincode"`
}

type PersonalLoanFields struct {
	LoanAmount          float64 `json:"loanAmount"`
	MonthlyIncome       float64 `json:"monthlyIncome"`
	PaymentMode         string  `json:"paymentMode"`
	Employer            string  `json:"employer"`
	EmployerPincode     string  `json:"employerPincode"`
	SalarySlipReference string  `json:"salarySlipReference,omitempty"`
}

type BusinessLoanFields struct {
	LoanAmount        float64  `json:"loanAmount"`
	BusinessName      string   `json:"businessName"`
	AnnualTurnover    float64  `json:"annualTurnover"`
	IndustryType      string   `json:"industryType"`
	IncorporationDate string   `json:"incorporationDate"`
	BusinessPincode   string   `json:"businessPincode"`
	RegistrationTypes []string `json:"registrationTypes"`
}

// LoanSpecifics holds exactly one variant, selected by the draft's LoanType.
type LoanSpecifics struct {
	Personal *PersonalLoanFields `json:"personal,omitempty"`
	Business *BusinessLoanFields `json:"business,omitempty"`
}

// Draft is the server-held record of one wizard session.
type Draft struct {
	ID            string     `json:"id"`
	SchemaVersion int        `json:"schemaVersion"`
	LoanType      LoanType   `json:"loanType"`
	ApplyData     *ApplyData `json:"applyData,omitempty"`

	State      State         `json:"state"`
	Pending    PendingEffect `json:"pending,omitempty"`
	Generation int64         `json:"generation"`

	MobileNumber string     `json:"mobileNumber,omitempty"`
	OTPSentAt    *time.Time `json:"otpSentAt,omitempty"`
	AuthToken    string     `json:"authToken,omitempty"`
	UserID       string     `json:"userId,omitempty"`

	PersonalDetails     *PersonalDetails `json:"personalDetails,omitempty"`
	SalarySlipReference string           `json:"salarySlipReference,omitempty"`
	LoanSpecifics       *LoanSpecifics   `json:"loanSpecifics,omitempty"`
	Offer               *MatchedOffer    `json:"offer,omitempty"`

	Errors  map[string]string `json:"errors,omitempty"`
	Message string            `json:"message,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewDraft starts a draft at MobileEntry for the given product.
func NewDraft(id string, loanType LoanType, applyData *ApplyData, now time.Time) *Draft {
	return &Draft{
		ID:            id,
		SchemaVersion: DraftSchemaVersion,
		LoanType:      loanType,
		ApplyData:     applyData,
		State:         StateMobileEntry,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// Clone returns a deep copy so transitions never alias the caller's draft.
func (d *Draft) Clone() *Draft {
	if d == nil {
		return nil
	}
	out := *d
	if d.ApplyData != nil {
		ad := *d.ApplyData
		ad.RegistrationTypes = append([]string(nil), d.ApplyData.RegistrationTypes...)
		out.ApplyData = &ad
	}
	if d.OTPSentAt != nil {
		ts := *d.OTPSentAt
		out.OTPSentAt = &ts
	}
	if d.PersonalDetails != nil {
		pd := *d.PersonalDetails
		out.PersonalDetails = &pd
	}
	if d.LoanSpecifics != nil {
		ls := LoanSpecifics{}
		if d.LoanSpecifics.Personal != nil {
			p := *d.LoanSpecifics.Personal
			ls.Personal = &p
		}
		if d.LoanSpecifics.Business != nil {
			b := *d.LoanSpecifics.Business
			b.RegistrationTypes = append([]string(nil), d.LoanSpecifics.Business.RegistrationTypes...)
			ls.Business = &b
		}
		out.LoanSpecifics = &ls
	}
	if d.Offer != nil {
		o := *d.Offer
		out.Offer = &o
	}
	if d.Errors != nil {
		out.Errors = make(map[string]string, len(d.Errors))
		for k, v := range d.Errors {
			out.Errors[k] = v
		}
	}
	return &out
}
