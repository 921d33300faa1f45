// pkg/dictionary/schema.go
package dictionary

// Category is one of the fixed term groupings.
type Category string

const (
	CategoryAll             Category = "All"
	CategoryLoans           Category = "Loans"
	CategoryCredit          Category = "Credit"
	CategoryBanking         Category = "Banking"
	CategoryInvestment      Category = "Investment"
	CategoryInsurance       Category = "Insurance"
	CategoryTaxation        Category = "Taxation"
	CategoryBusiness        Category = "Business"
	CategoryPersonalFinance Category = "Personal Finance"
	CategoryRegulatory      Category = "Regulatory"
	CategoryDigitalPayments Category = "Digital Payments"
)

var categories = []Category{
	CategoryLoans,
	CategoryCredit,
	CategoryBanking,
	CategoryInvestment,
	CategoryInsurance,
	CategoryTaxation,
	CategoryBusiness,
	CategoryPersonalFinance,
	CategoryRegulatory,
	CategoryDigitalPayments,
}

// Catalogue is the on-disk layout of the term list.
type Catalogue struct {
	Version     string `json:"version"`
	LastUpdated string `json:"lastUpdated"`
	Terms       []Term `json:"terms"`
}

type Term struct {
	ID         string   `json:"id"`
	Term       string   `json:"term"`
	Definition string   `json:"definition"`
	Category   Category `json:"category"`
	Example    string   `json:"example"`
	Icon       string   `json:"icon"`
}
