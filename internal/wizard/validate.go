// internal/wizard/validate.go
package wizard

import (
	"strings"
	"time"

	"infinz-leadgen/internal/common/validation"
	"infinz-leadgen/internal/models"
)

// ageRange returns the applicant age bounds for a product.
func ageRange(t models.LoanType) validation.AgeRange {
	if t == models.LoanTypeBusiness {
		return validation.BusinessLoanAge
	}
	return validation.PersonalLoanAge
}

// normalizePersonalDetails trims input and upper-cases the PAN.
func normalizePersonalDetails(pd models.PersonalDetails) models.PersonalDetails {
	return models.PersonalDetails{
		FullName:      strings.TrimSpace(pd.FullName),
		Email:         strings.TrimSpace(pd.Email),
		DateOfBirth:   strings.TrimSpace(pd.DateOfBirth),
		PANCardNumber: validation.NormalizePAN(pd.PANCardNumber),
		Pincode:       strings.TrimSpace(pd.Pincode),
	}
}

// validatePersonalDetails runs every field check and reports all failures.
func validatePersonalDetails(pd models.PersonalDetails, loanType models.LoanType, now time.Time) validation.FieldErrors {
	errs := validation.FieldErrors{}

	if errs.Required("fullName", pd.FullName, "Full name is required") {
		errs.Check(validation.ValidateFullName(pd.FullName), "fullName", "Full name must be at least 3 characters")
	}
	if errs.Required("email", pd.Email, "Email is required") {
		errs.Check(validation.ValidateEmail(pd.Email), "email", "Enter a valid email address")
	}
	if msg := validation.ValidateDateOfBirth(pd.DateOfBirth, now, ageRange(loanType)); msg != "" {
		errs.Add("dateOfBirth", msg)
	}
	if errs.Required("panCardNumber", pd.PANCardNumber, "PAN card number is required") {
		errs.Check(validation.ValidatePAN(pd.PANCardNumber), "panCardNumber", "Enter a valid PAN card number")
	}
	if errs.Required("pincode", pd.Pincode, "Pincode is required") {
		errs.Check(validation.ValidatePincode(pd.Pincode), "pincode", "Enter a valid 6-digit pincode")
	}

	return errs
}

// personalLoanFields builds and checks the personal-loan variant. A zero
// loan amount falls back to the entry-page prefill.
func personalLoanFields(form *LoanForm, prefill *models.ApplyData) (*models.PersonalLoanFields, validation.FieldErrors) {
	f := &models.PersonalLoanFields{
		LoanAmount:      form.LoanAmount,
		MonthlyIncome:   form.MonthlyIncome,
		PaymentMode:     strings.TrimSpace(form.PaymentMode),
		Employer:        strings.TrimSpace(form.Employer),
		EmployerPincode: strings.TrimSpace(form.EmployerPincode),
	}
	if f.LoanAmount == 0 && prefill != nil {
		f.LoanAmount = prefill.LoanAmount
	}

	errs := validation.FieldErrors{}
	errs.Check(f.LoanAmount > 0, "loanAmount", "Loan amount is required")
	errs.Check(f.MonthlyIncome > 0, "monthlyIncome", "Monthly income is required")
	if errs.Required("paymentMode", f.PaymentMode, "Select how you receive your salary") {
		errs.Check(contains(models.PaymentModes, f.PaymentMode), "paymentMode", "Select a valid payment mode")
	}
	errs.Required("employer", f.Employer, "Employer name is required")
	if errs.Required("employerPincode", f.EmployerPincode, "Employer pincode is required") {
		errs.Check(validation.ValidatePincode(f.EmployerPincode), "employerPincode", "Enter a valid 6-digit pincode")
	}
	return f, errs
}

// businessLoanFields builds and checks the business-loan variant. Empty
// amount and registration types fall back to the entry-page prefill.
func businessLoanFields(form *LoanForm, prefill *models.ApplyData, now time.Time) (*models.BusinessLoanFields, validation.FieldErrors) {
	f := &models.BusinessLoanFields{
		LoanAmount:        form.LoanAmount,
		BusinessName:      strings.TrimSpace(form.BusinessName),
		AnnualTurnover:    form.AnnualTurnover,
		IndustryType:      strings.TrimSpace(form.IndustryType),
		IncorporationDate: strings.TrimSpace(form.IncorporationDate),
		BusinessPincode:   strings.TrimSpace(form.BusinessPincode),
		RegistrationTypes: append([]string(nil), form.RegistrationTypes...),
	}
	if prefill != nil {
		if f.LoanAmount == 0 {
			f.LoanAmount = prefill.LoanAmount
		}
		if len(f.RegistrationTypes) == 0 {
			f.RegistrationTypes = append([]string(nil), prefill.RegistrationTypes...)
		}
	}

	errs := validation.FieldErrors{}
	errs.Check(f.LoanAmount > 0, "loanAmount", "Loan amount is required")
	errs.Required("businessName", f.BusinessName, "Business name is required")
	errs.Check(f.AnnualTurnover > 0, "annualTurnover", "Annual turnover is required")
	errs.Required("industryType", f.IndustryType, "Industry type is required")
	if errs.Required("incorporationDate", f.IncorporationDate, "Incorporation date is required") {
		errs.Check(validation.ValidateDate(f.IncorporationDate, now), "incorporationDate", "Enter a valid incorporation date")
	}
	if errs.Required("businessPincode", f.BusinessPincode, "Business pincode is required") {
		errs.Check(validation.ValidatePincode(f.BusinessPincode), "businessPincode", "Enter a valid 6-digit pincode")
	}
	if len(f.RegistrationTypes) == 0 {
		errs.Add("registrationTypes", "Select at least one registration type")
	}
	for _, rt := range f.RegistrationTypes {
		if !contains(models.RegistrationTypes, rt) {
			errs.Add("registrationTypes", "Select valid registration types")
		}
	}
	return f, errs
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
