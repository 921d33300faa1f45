// internal/common/validation/fields.go
package validation

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

var (
	mobilePattern  = regexp.MustCompile(`^[6-9]\d{9}$`)
	otpPattern     = regexp.MustCompile(`^\d{6}$`)
	panPattern     = regexp.MustCompile(`^[A-Z]{3}[PCHFABTLJG][A-Z][0-9]{4}[A-Z]$`)
	pincodePattern = regexp.MustCompile(`^[1-9][0-9]{5}$`)
	emailPattern   = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
)

// DateLayout is the only accepted date format (YYYY-MM-DD).
const DateLayout = "2006-01-02"

// AgeRange is an inclusive range of completed years.
type AgeRange struct {
	Min int
	Max int
}

var (
	PersonalLoanAge = AgeRange{Min: 21, Max: 58}
	BusinessLoanAge = AgeRange{Min: 21, Max: 65}
)

// ValidateMobile checks a 10-digit Indian mobile number starting with 6-9.
func ValidateMobile(mobile string) bool {
	return mobilePattern.MatchString(mobile)
}

// ValidateOTP checks a 6-digit one-time password.
func ValidateOTP(otp string) bool {
	return otpPattern.MatchString(otp)
}

// NormalizePAN upper-cases and trims a PAN before matching.
func NormalizePAN(pan string) string {
	return strings.ToUpper(strings.TrimSpace(pan))
}

// ValidatePAN matches an already normalized PAN.
func ValidatePAN(pan string) bool {
	return panPattern.MatchString(pan)
}

func ValidatePincode(pincode string) bool {
	return pincodePattern.MatchString(pincode)
}

// ValidateEmail validates email format
func ValidateEmail(email string) bool {
	return emailPattern.MatchString(email)
}

func ValidateFullName(name string) bool {
	return len([]rune(strings.TrimSpace(name))) >= 3
}

// AgeOn returns completed years between dob and now.
func AgeOn(dob, now time.Time) int {
	years := now.Year() - dob.Year()
	if now.Month() < dob.Month() || (now.Month() == dob.Month() && now.Day() < dob.Day()) {
		years--
	}
	return years
}

// ValidateDateOfBirth parses dob and checks the age on now against r.
// It returns the user-facing message, or "" when valid.
func ValidateDateOfBirth(dob string, now time.Time, r AgeRange) string {
	if strings.TrimSpace(dob) == "" {
		return "Date of birth is required"
	}
	parsed, err := time.Parse(DateLayout, dob)
	if err != nil {
		return "Enter date of birth as YYYY-MM-DD"
	}
	age := AgeOn(parsed, now)
	if age < r.Min || age > r.Max {
		return fmt.Sprintf("Age must be between %d and %d years", r.Min, r.Max)
	}
	return ""
}

// ValidateDate checks a YYYY-MM-DD date that is not in the future.
func ValidateDate(value string, now time.Time) bool {
	parsed, err := time.Parse(DateLayout, value)
	if err != nil {
		return false
	}
	return !parsed.After(now)
}

// FieldErrors accumulates one message per field.
type FieldErrors map[string]string

// Add records msg for field unless one is already present.
func (f FieldErrors) Add(field, msg string) {
	if _, exists := f[field]; exists {
		return
	}
	f[field] = msg
}

// Check records msg for field when ok is false.
func (f FieldErrors) Check(ok bool, field, msg string) {
	if !ok {
		f.Add(field, msg)
	}
}

func (f FieldErrors) Empty() bool {
	return len(f) == 0
}

// Required records a message when value is blank.
func (f FieldErrors) Required(field, value, msg string) bool {
	if strings.TrimSpace(value) == "" {
		f.Add(field, msg)
		return false
	}
	return true
}
