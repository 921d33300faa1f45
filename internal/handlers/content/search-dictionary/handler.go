// internal/handlers/content/search-dictionary/handler.go
package searchdictionary

import (
	"context"
	"fmt"
	"unicode/utf8"

	"infinz-leadgen/internal/common/errors"
	"infinz-leadgen/internal/common/logger"
	"infinz-leadgen/pkg/dictionary"
)

const (
	TaskType = "search-dictionary"
)

type Handler struct {
	config *Config
	terms  []dictionary.Term
	logger logger.Logger
}

// NewHandler loads the catalogue once. The term list is read-only afterwards.
func NewHandler(config *Config, log logger.Logger) (*Handler, error) {
	var (
		cat *dictionary.Catalogue
		err error
	)
	if config.CataloguePath != "" {
		cat, err = dictionary.LoadCatalogue(config.CataloguePath)
	} else {
		cat, err = dictionary.Default()
	}
	if err != nil {
		return nil, fmt.Errorf("load dictionary: %w", err)
	}
	if err := cat.Validate(); err != nil {
		return nil, fmt.Errorf("invalid dictionary: %w", err)
	}

	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	log.Info("dictionary loaded", map[string]interface{}{
		"version": cat.Version,
		"terms":   len(cat.Terms),
	})
	return &Handler{config: config, terms: cat.Terms, logger: log}, nil
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	category, ok := dictionary.ParseCategory(input.Category)
	if !ok {
		return nil, errors.NewFieldValidationError("category", "Select a valid category")
	}
	if h.config.MaxQueryLength > 0 && utf8.RuneCountInString(input.Query) > h.config.MaxQueryLength {
		return nil, errors.NewFieldValidationError("q",
			fmt.Sprintf("Search text must be at most %d characters", h.config.MaxQueryLength))
	}

	terms := dictionary.Filter(h.terms, input.Query, category)
	h.logger.Debug("dictionary searched", map[string]interface{}{
		"query":    input.Query,
		"category": string(category),
		"matches":  len(terms),
	})
	return &Output{Terms: terms, Total: len(terms), Category: category}, nil
}

func (h *Handler) Categories() *CategoriesOutput {
	return &CategoriesOutput{Categories: dictionary.Categories(), All: dictionary.CategoryAll}
}
