// internal/handlers/content/search-dictionary/models.go
package searchdictionary

import "infinz-leadgen/pkg/dictionary"

type Input struct {
	Query    string `json:"q"`
	Category string `json:"category"`
}

type Output struct {
	Terms    []dictionary.Term   `json:"terms"`
	Total    int                 `json:"total"`
	Category dictionary.Category `json:"category"`
}

type CategoriesOutput struct {
	Categories []dictionary.Category `json:"categories"`
	All        dictionary.Category   `json:"all"`
}
