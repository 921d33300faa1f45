// internal/handlers/calculator/calculate-emi/handler.go
package calculateemi

import (
	"context"
	"fmt"
	"math"

	"infinz-leadgen/internal/common/errors"
	"infinz-leadgen/internal/common/logger"
	"infinz-leadgen/internal/common/observability"
	"infinz-leadgen/internal/common/validation"
)

const (
	TaskType = "calculate-emi"
)

type Handler struct {
	config *Config
	obs    *observability.Observability
	logger logger.Logger
}

func NewHandler(config *Config, obs *observability.Observability, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		obs:    obs,
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	label := string(input.LoanType)
	if label == "" {
		label = "none"
	}

	if err := h.validate(input); err != nil {
		h.obs.RecordEMICalculation(ctx, label, "rejected")
		return nil, err
	}

	output := Calculate(input.Principal, input.AnnualRate, input.TenureMonths)
	if input.IncludeSchedule {
		output.Schedule = Schedule(input.Principal, input.AnnualRate, input.TenureMonths, output.EMI)
	}
	if !output.finite() {
		h.obs.RecordEMICalculation(ctx, label, "rejected")
		return nil, errors.NewFieldValidationError("principal", "Loan amount or interest rate is too large to calculate")
	}

	h.obs.RecordEMICalculation(ctx, label, "success")
	h.logger.Debug("emi calculated", map[string]interface{}{
		"loanType":     label,
		"principal":    input.Principal,
		"annualRate":   input.AnnualRate,
		"tenureMonths": input.TenureMonths,
		"emi":          output.EMI,
	})
	return output, nil
}

func (h *Handler) validate(input *Input) error {
	errs := validation.FieldErrors{}
	errs.Check(input.Principal > 0, "principal", "Loan amount must be greater than zero")
	errs.Check(input.AnnualRate >= 0, "annualRate", "Interest rate cannot be negative")
	errs.Check(input.TenureMonths > 0, "tenureMonths", "Tenure must be at least one month")

	if input.LoanType != "" {
		limits, ok := h.config.Limits[input.LoanType]
		if !ok {
			errs.Add("loanType", "Select a valid loan type")
		} else {
			errs.Check(limits.Principal.Contains(input.Principal), "principal",
				fmt.Sprintf("Loan amount must be between %.0f and %.0f", limits.Principal.Min, limits.Principal.Max))
			errs.Check(limits.Rate.Contains(input.AnnualRate), "annualRate",
				fmt.Sprintf("Interest rate must be between %g%% and %g%%", limits.Rate.Min, limits.Rate.Max))
			errs.Check(limits.Tenure.Contains(input.TenureMonths), "tenureMonths",
				fmt.Sprintf("Tenure must be between %d and %d months", limits.Tenure.Min, limits.Tenure.Max))
		}
	} else if input.IncludeSchedule && h.config.MaxScheduleMonths > 0 {
		errs.Check(input.TenureMonths <= h.config.MaxScheduleMonths, "tenureMonths",
			fmt.Sprintf("Schedules are limited to %d months", h.config.MaxScheduleMonths))
	}

	if !errs.Empty() {
		return errors.NewValidationError(errs)
	}
	return nil
}

// Calculate returns the EMI for principal p at annual percent rate r over n
// months. Totals use the rounded EMI so they match what is displayed.
func Calculate(p, r float64, n int) *Output {
	i := r / 12 / 100

	var exact float64
	if i == 0 {
		exact = p / float64(n)
	} else {
		growth := math.Pow(1+i, float64(n))
		exact = p * i * growth / (growth - 1)
	}

	emi := math.Round(exact)
	total := emi * float64(n)
	return &Output{
		EMI:           emi,
		ExactEMI:      round2(exact),
		MonthlyRate:   i,
		TotalPayment:  total,
		TotalInterest: total - p,
	}
}

// Schedule amortizes p month by month at the given payment. The last row
// absorbs rounding so the closing balance is exactly zero.
func Schedule(p, r float64, n int, payment float64) []ScheduleRow {
	i := r / 12 / 100
	rows := make([]ScheduleRow, 0, n)
	balance := p

	for month := 1; month <= n; month++ {
		interest := round2(balance * i)
		principal := round2(payment - interest)
		if month == n || principal > balance {
			principal = round2(balance)
		}
		balance = round2(balance - principal)
		rows = append(rows, ScheduleRow{
			Month:     month,
			Payment:   round2(principal + interest),
			Principal: principal,
			Interest:  interest,
			Balance:   balance,
		})
		if balance == 0 {
			break
		}
	}
	return rows
}

// finite reports whether every amount can be encoded as JSON.
func (o *Output) finite() bool {
	vals := []float64{o.EMI, o.ExactEMI, o.MonthlyRate, o.TotalPayment, o.TotalInterest}
	for _, row := range o.Schedule {
		vals = append(vals, row.Payment, row.Principal, row.Interest, row.Balance)
	}
	for _, v := range vals {
		if math.IsInf(v, 0) || math.IsNaN(v) {
			return false
		}
	}
	return true
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
