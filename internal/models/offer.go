// internal/models/offer.go
package models

import "time"

// MatchedOffer is the lender match the backend may return for a loan submission.
type MatchedOffer struct {
	BankName     string `json:"bankName"`
	BankLogo     string `json:"bankLogo,omitempty"`
	TrackingLink string `json:"trackingLink,omitempty"`
}

// Lead is the summary of a successful submission handed to the lead sinks.
type Lead struct {
	DraftID      string        `json:"draftId"`
	UserID       string        `json:"userId,omitempty"`
	LoanType     LoanType      `json:"loanType"`
	FullName     string        `json:"fullName"`
	Email        string        `json:"email"`
	MobileNumber string        `json:"mobileNumber"`
	Pincode      string        `json:"pincode"`
	LoanAmount   float64       `json:"loanAmount"`
	BusinessName string        `json:"businessName,omitempty"`
	Offer        *MatchedOffer `json:"offer,omitempty"`
	SubmittedAt  time.Time     `json:"submittedAt"`
}
