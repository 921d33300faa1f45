// internal/backend/payloads.go
package backend

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"infinz-leadgen/internal/models"
)

// ErrIncompletePayload is returned when a request would be sent without a required field.
var ErrIncompletePayload = errors.New("incomplete backend payload")

type sendOTPRequest struct {
	MobileNumber string `json:"mobileNumber"`
}

type verifyOTPRequest struct {
	MobileNumber string `json:"mobileNumber"`
	OTP          string `json:"otp"`
}

// VerifyOTPResult carries the bearer token used for every later call.
type VerifyOTPResult struct {
	Token  string `json:"token"`
	UserID string `json:"userId"`
}

type applicant struct {
	MobileNumber  string `json:"mobileNumber"`
	FullName      string `json:"fullName"`
	Email         string `json:"email"`
	DateOfBirth   string `json:"dateOfBirth"`
	PANCardNumber string `json:"panCardNumber"`
	Pincode       string `json:"pincode"`
}

func newApplicant(mobile string, pd *models.PersonalDetails) (applicant, error) {
	if mobile == "" {
		return applicant{}, fmt.Errorf("%w: mobileNumber", ErrIncompletePayload)
	}
	if pd == nil {
		return applicant{}, fmt.Errorf("%w: personalDetails", ErrIncompletePayload)
	}
	return applicant{
		MobileNumber:  mobile,
		FullName:      strings.TrimSpace(pd.FullName),
		Email:         strings.TrimSpace(pd.Email),
		DateOfBirth:   pd.DateOfBirth,
		PANCardNumber: pd.PANCardNumber,
		Pincode:       pd.Pincode,
	}, nil
}

// UserRequest is the body of POST /api/v1/users.
type UserRequest struct {
	applicant
	LoanType models.LoanType `json:"loanType"`
}

func NewUserRequest(mobile string, loanType models.LoanType, pd *models.PersonalDetails) (*UserRequest, error) {
	a, err := newApplicant(mobile, pd)
	if err != nil {
		return nil, err
	}
	return &UserRequest{applicant: a, LoanType: loanType}, nil
}

// PersonalLoanRequest is the body of POST /api/v1/personal-loan/create.
type PersonalLoanRequest struct {
	applicant
	LoanAmount      float64 `json:"loanAmount"`
	MonthlyIncome   float64 `json:"monthlyIncome"`
	PaymentMode     string  `json:"paymentMode"`
	EmployerName    string  `json:"employerName"`
	EmployerPincode string  `json:"employerPincode"`
	SalarySlip      string  `json:"salarySlip,omitempty"`
}

func NewPersonalLoanRequest(mobile string, pd *models.PersonalDetails, f *models.PersonalLoanFields) (*PersonalLoanRequest, error) {
	a, err := newApplicant(mobile, pd)
	if err != nil {
		return nil, err
	}
	if f == nil {
		return nil, fmt.Errorf("%w: personal loan fields", ErrIncompletePayload)
	}
	return &PersonalLoanRequest{
		applicant:       a,
		LoanAmount:      f.LoanAmount,
		MonthlyIncome:   f.MonthlyIncome,
		PaymentMode:     f.PaymentMode,
		EmployerName:    strings.TrimSpace(f.Employer),
		EmployerPincode: f.EmployerPincode,
		SalarySlip:      f.SalarySlipReference,
	}, nil
}

// BusinessLoanRequest is the body of POST /api/v1/business/create.
type BusinessLoanRequest struct {
	applicant
	LoanAmount        float64  `json:"loanAmount"`
	BusinessName      string   `json:"businessName"`
	AnnualTurnover    float64  `json:"annualTurnover"`
	IndustryType      string   `json:"industryType"`
	IncorporationDate string   `json:"incorporationDate"`
	BusinessPincode   string   `json:"businessPincode"`
	RegistrationTypes []string `json:"registrationTypes"`
}

func NewBusinessLoanRequest(mobile string, pd *models.PersonalDetails, f *models.BusinessLoanFields) (*BusinessLoanRequest, error) {
	a, err := newApplicant(mobile, pd)
	if err != nil {
		return nil, err
	}
	if f == nil {
		return nil, fmt.Errorf("%w: business loan fields", ErrIncompletePayload)
	}
	if len(f.RegistrationTypes) == 0 {
		return nil, fmt.Errorf("%w: registrationTypes", ErrIncompletePayload)
	}
	return &BusinessLoanRequest{
		applicant:         a,
		LoanAmount:        f.LoanAmount,
		BusinessName:      strings.TrimSpace(f.BusinessName),
		AnnualTurnover:    f.AnnualTurnover,
		IndustryType:      strings.TrimSpace(f.IndustryType),
		IncorporationDate: f.IncorporationDate,
		BusinessPincode:   f.BusinessPincode,
		RegistrationTypes: append([]string(nil), f.RegistrationTypes...),
	}, nil
}

// LoanResult is the data of a successful loan submission.
type LoanResult struct {
	Message string               `json:"-"`
	Offer   *models.MatchedOffer `json:"offer,omitempty"`
}

type presignRequest struct {
	FileName    string `json:"fileName"`
	ContentType string `json:"contentType"`
}

// PresignResult is where to PUT the file and the object key it will get.
type PresignResult struct {
	URL string `json:"url"`
	Key string `json:"key"`
}

// PublicURL is the presigned URL without its signature query.
func (p *PresignResult) PublicURL() string {
	u, err := url.Parse(p.URL)
	if err != nil {
		return strings.SplitN(p.URL, "?", 2)[0]
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}
