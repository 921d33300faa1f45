// internal/handlers/calculator/calculate-emi/models.go
package calculateemi

import "infinz-leadgen/internal/models"

type Input struct {
	Principal       float64         `json:"principal"`
	AnnualRate      float64         `json:"annualRate"`   // percent per year
	TenureMonths    int             `json:"tenureMonths"`
	LoanType        models.LoanType `json:"loanType,omitempty"`
	IncludeSchedule bool            `json:"includeSchedule,omitempty"`
}

type Output struct {
	EMI           float64       `json:"emi"` // rounded to the nearest rupee
	ExactEMI      float64       `json:"exactEmi"`
	MonthlyRate   float64       `json:"monthlyRate"`
	TotalPayment  float64       `json:"totalPayment"`
	TotalInterest float64       `json:"totalInterest"`
	Schedule      []ScheduleRow `json:"schedule,omitempty"`
}

// ScheduleRow is one month of the amortization table.
type ScheduleRow struct {
	Month     int     `json:"month"`
	Payment   float64 `json:"payment"`
	Principal float64 `json:"principal"`
	Interest  float64 `json:"interest"`
	Balance   float64 `json:"balance"`
}
