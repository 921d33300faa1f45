// pkg/dictionary/dictionary_test.go
package dictionary

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

func createTestTerms() []Term {
	return []Term{
		{ID: "emi", Term: "EMI", Definition: "Equated Monthly Instalment", Category: CategoryLoans},
		{ID: "credit-score", Term: "Credit Score", Definition: "Number between 300 and 900", Category: CategoryCredit},
		{ID: "tenure", Term: "Loan Tenure", Definition: "Repayment period in months", Category: CategoryLoans},
		{ID: "upi", Term: "UPI", Definition: "Instant monthly autopay and transfers", Category: CategoryDigitalPayments},
	}
}

func ids(terms []Term) []string {
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		out = append(out, t.ID)
	}
	return out
}

// ==========================
// Filter
// ==========================

func TestFilter(t *testing.T) {
	terms := createTestTerms()

	tests := []struct {
		name     string
		query    string
		category Category
		expected []string
	}{
		{"empty query and all returns everything", "", CategoryAll, []string{"emi", "credit-score", "tenure", "upi"}},
		{"whitespace query is empty", "   ", CategoryAll, []string{"emi", "credit-score", "tenure", "upi"}},
		{"matches term case-insensitively", "emi", CategoryAll, []string{"emi"}},
		{"matches definition", "MONTHLY", CategoryAll, []string{"emi", "upi"}},
		{"category only", "", CategoryLoans, []string{"emi", "tenure"}},
		{"query and category", "monthly", CategoryLoans, []string{"emi"}},
		{"no match", "mortgage", CategoryAll, []string{}},
		{"category without terms", "", CategoryInsurance, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ids(Filter(terms, tt.query, tt.category)))
		})
	}
}

func TestFilter_Idempotent(t *testing.T) {
	terms := createTestTerms()
	once := Filter(terms, "month", CategoryAll)
	twice := Filter(once, "month", CategoryAll)
	assert.Equal(t, once, twice)
}

func TestFilter_DoesNotMutateInput(t *testing.T) {
	terms := createTestTerms()
	before := append([]Term(nil), terms...)

	out := Filter(terms, "", CategoryAll)
	require.NotEmpty(t, out)
	out[0].Term = "changed"

	assert.Equal(t, before, terms)
}

// ==========================
// Categories
// ==========================

func TestParseCategory(t *testing.T) {
	for _, in := range []string{"", "All", "all"} {
		c, ok := ParseCategory(in)
		assert.True(t, ok, in)
		assert.Equal(t, CategoryAll, c, in)
	}

	c, ok := ParseCategory("personal finance")
	assert.True(t, ok)
	assert.Equal(t, CategoryPersonalFinance, c)

	_, ok = ParseCategory("Crypto")
	assert.False(t, ok)
}

func TestCategories_ReturnsCopy(t *testing.T) {
	cats := Categories()
	require.Len(t, cats, 10)
	cats[0] = "mutated"
	assert.Equal(t, CategoryLoans, Categories()[0])
}

// ==========================
// Catalogue
// ==========================

func TestDefault_IsValidAndCoversEveryCategory(t *testing.T) {
	cat, err := Default()
	require.NoError(t, err)
	require.NoError(t, cat.Validate())

	for _, c := range Categories() {
		assert.NotEmpty(t, Filter(cat.Terms, "", c), "category %s has no terms", c)
	}
}

func TestLoadCatalogue(t *testing.T) {
	path := filepath.Join(t.TempDir(), "terms.json")
	require.NoError(t, os.WriteFile(path, embeddedTerms, 0o644))

	cat, err := LoadCatalogue(path)
	require.NoError(t, err)
	def, err := Default()
	require.NoError(t, err)
	assert.Equal(t, def, cat)

	_, err = LoadCatalogue(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		terms   []Term
		wantErr string
	}{
		{"empty", nil, "no terms"},
		{"missing id", []Term{{Term: "x", Definition: "y", Category: CategoryLoans}}, "ID"},
		{"duplicate id", []Term{
			{ID: "a", Term: "x", Definition: "y", Category: CategoryLoans},
			{ID: "a", Term: "x", Definition: "y", Category: CategoryLoans},
		}, "duplicate term ID: a"},
		{"missing definition", []Term{{ID: "a", Term: "x", Category: CategoryLoans}}, "Definition"},
		{"wildcard category", []Term{{ID: "a", Term: "x", Definition: "y", Category: CategoryAll}}, "invalid category"},
		{"wrong case category", []Term{{ID: "a", Term: "x", Definition: "y", Category: "loans"}}, "invalid category"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := (&Catalogue{Terms: tt.terms}).Validate()
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
