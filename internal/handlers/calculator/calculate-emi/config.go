// internal/handlers/calculator/calculate-emi/config.go
package calculateemi

import "infinz-leadgen/internal/models"

type AmountRange struct {
	Min float64
	Max float64
}

func (r AmountRange) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

type TenureRange struct {
	Min int
	Max int
}

func (r TenureRange) Contains(v int) bool {
	return v >= r.Min && v <= r.Max
}

// ProductLimits are the slider bounds of one loan product.
type ProductLimits struct {
	Principal AmountRange
	Rate      AmountRange
	Tenure    TenureRange
}

type Config struct {
	Limits map[models.LoanType]ProductLimits
	// MaxScheduleMonths caps the schedule when no product is given.
	MaxScheduleMonths int
}

func LoadConfig() *Config {
	rate := AmountRange{Min: 10.5, Max: 20}
	tenure := TenureRange{Min: 12, Max: 84}
	return &Config{
		Limits: map[models.LoanType]ProductLimits{
			models.LoanTypeBusiness: {
				Principal: AmountRange{Min: 100000, Max: 50000000},
				Rate:      rate,
				Tenure:    tenure,
			},
			models.LoanTypePersonal: {
				Principal: AmountRange{Min: 50000, Max: 5000000},
				Rate:      rate,
				Tenure:    tenure,
			},
		},
		MaxScheduleMonths: 600,
	}
}
