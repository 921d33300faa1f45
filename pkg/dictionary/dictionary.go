// pkg/dictionary/dictionary.go
package dictionary

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

//go:embed terms.json
var embeddedTerms []byte

// Categories lists the selectable categories, without the All wildcard.
func Categories() []Category {
	return append([]Category(nil), categories...)
}

// ParseCategory accepts a category name or "All". An empty selector means All.
func ParseCategory(s string) (Category, bool) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, string(CategoryAll)) {
		return CategoryAll, true
	}
	for _, c := range categories {
		if strings.EqualFold(s, string(c)) {
			return c, true
		}
	}
	return "", false
}

// Default returns the catalogue compiled into the binary.
func Default() (*Catalogue, error) {
	return parse(embeddedTerms)
}

func LoadCatalogue(path string) (*Catalogue, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return parse(data)
}

func parse(data []byte) (*Catalogue, error) {
	var cat Catalogue
	if err := json.Unmarshal(data, &cat); err != nil {
		return nil, fmt.Errorf("parse dictionary: %w", err)
	}
	return &cat, nil
}

// Validate checks ids are unique and every term is complete and categorised.
func (c *Catalogue) Validate() error {
	if len(c.Terms) == 0 {
		return fmt.Errorf("dictionary contains no terms")
	}

	ids := make(map[string]bool, len(c.Terms))
	for _, term := range c.Terms {
		if term.ID == "" {
			return fmt.Errorf("term missing required field: ID")
		}
		if ids[term.ID] {
			return fmt.Errorf("duplicate term ID: %s", term.ID)
		}
		ids[term.ID] = true

		if term.Term == "" {
			return fmt.Errorf("term %s missing required field: Term", term.ID)
		}
		if term.Definition == "" {
			return fmt.Errorf("term %s missing required field: Definition", term.ID)
		}
		if c, ok := ParseCategory(string(term.Category)); !ok || c == CategoryAll || c != term.Category {
			return fmt.Errorf("term %s has invalid category: %q", term.ID, term.Category)
		}
	}
	return nil
}

// Filter returns the terms whose term or definition contains query
// (case-insensitive) and whose category matches. Order is preserved and
// terms is never modified.
func Filter(terms []Term, query string, category Category) []Term {
	needle := strings.ToLower(strings.TrimSpace(query))
	out := make([]Term, 0, len(terms))
	for _, t := range terms {
		if category != CategoryAll && t.Category != category {
			continue
		}
		if needle != "" &&
			!strings.Contains(strings.ToLower(t.Term), needle) &&
			!strings.Contains(strings.ToLower(t.Definition), needle) {
			continue
		}
		out = append(out, t)
	}
	return out
}
