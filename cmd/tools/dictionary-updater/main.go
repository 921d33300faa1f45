// cmd/tools/dictionary-updater/main.go
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"infinz-leadgen/pkg/dictionary"
)

const defaultPath = "pkg/dictionary/terms.json"

func main() {
	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}
	if err := run(os.Args[1], os.Args[2:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(command string, args []string, out io.Writer) error {
	switch command {
	case "add":
		cmd := flag.NewFlagSet("add", flag.ExitOnError)
		path := cmd.String("path", defaultPath, "Path to dictionary file")
		id := cmd.String("id", "", "Term ID (e.g., foir)")
		term := cmd.String("term", "", "Display term (e.g., FOIR)")
		definition := cmd.String("definition", "", "Definition")
		category := cmd.String("category", "", "Category (e.g., \"Personal Finance\")")
		example := cmd.String("example", "", "Usage example")
		icon := cmd.String("icon", "book-open", "Icon name")
		cmd.Parse(args)

		if *id == "" || *term == "" || *definition == "" || *category == "" {
			cmd.Usage()
			return fmt.Errorf("id, term, definition, and category are required for add")
		}
		if err := addTerm(*path, dictionary.Term{
			ID:         *id,
			Term:       *term,
			Definition: *definition,
			Category:   dictionary.Category(*category),
			Example:    *example,
			Icon:       *icon,
		}); err != nil {
			return fmt.Errorf("adding term: %w", err)
		}
		fmt.Fprintf(out, "Added term: %s\n", *id)

	case "update":
		cmd := flag.NewFlagSet("update", flag.ExitOnError)
		path := cmd.String("path", defaultPath, "Path to dictionary file")
		id := cmd.String("id", "", "Term ID to update")
		field := cmd.String("field", "", "Field to update (term, definition, category, example, icon)")
		value := cmd.String("value", "", "New value for the field")
		cmd.Parse(args)

		if *id == "" || *field == "" || *value == "" {
			cmd.Usage()
			return fmt.Errorf("id, field, and value are required for update")
		}
		if err := updateTerm(*path, *id, *field, *value); err != nil {
			return fmt.Errorf("updating term: %w", err)
		}
		fmt.Fprintf(out, "Updated term %s, field %s\n", *id, *field)

	case "search":
		cmd := flag.NewFlagSet("search", flag.ExitOnError)
		path := cmd.String("path", defaultPath, "Path to dictionary file")
		query := cmd.String("q", "", "Text to look for in terms and definitions")
		category := cmd.String("category", "All", "Category filter")
		cmd.Parse(args)

		return searchTerms(*path, *query, *category, out)

	case "validate":
		cmd := flag.NewFlagSet("validate", flag.ExitOnError)
		path := cmd.String("path", defaultPath, "Path to dictionary file")
		cmd.Parse(args)

		cat, err := dictionary.LoadCatalogue(*path)
		if err != nil {
			return fmt.Errorf("failed to load dictionary: %w", err)
		}
		if err := cat.Validate(); err != nil {
			return fmt.Errorf("dictionary validation failed: %w", err)
		}
		fmt.Fprintf(out, "Dictionary validation passed. Found %d terms.\n", len(cat.Terms))

	case "help":
		help()
	default:
		help()
		return fmt.Errorf("unknown command %q", command)
	}
	return nil
}

func addTerm(path string, term dictionary.Term) error {
	cat, err := dictionary.LoadCatalogue(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to load dictionary: %w", err)
		}
		cat = &dictionary.Catalogue{Version: "1.0.0", Terms: []dictionary.Term{}}
	}

	for _, existing := range cat.Terms {
		if existing.ID == term.ID {
			return fmt.Errorf("term with ID %s already exists", term.ID)
		}
	}

	cat.Terms = append(cat.Terms, term)
	if err := cat.Validate(); err != nil {
		return err
	}
	return saveCatalogue(cat, path)
}

func updateTerm(path, id, field, value string) error {
	cat, err := dictionary.LoadCatalogue(path)
	if err != nil {
		return fmt.Errorf("failed to load dictionary: %w", err)
	}

	found := false
	for i := range cat.Terms {
		if cat.Terms[i].ID != id {
			continue
		}
		found = true
		switch field {
		case "term":
			cat.Terms[i].Term = value
		case "definition":
			cat.Terms[i].Definition = value
		case "category":
			cat.Terms[i].Category = dictionary.Category(value)
		case "example":
			cat.Terms[i].Example = value
		case "icon":
			cat.Terms[i].Icon = value
		default:
			return fmt.Errorf("unknown field: %s", field)
		}
		break
	}
	if !found {
		return fmt.Errorf("term with ID %s not found", id)
	}

	if err := cat.Validate(); err != nil {
		return err
	}
	return saveCatalogue(cat, path)
}

func searchTerms(path, query, category string, out io.Writer) error {
	cat, err := dictionary.LoadCatalogue(path)
	if err != nil {
		return fmt.Errorf("failed to load dictionary: %w", err)
	}
	selected, ok := dictionary.ParseCategory(category)
	if !ok {
		return fmt.Errorf("unknown category %q", category)
	}

	matches := dictionary.Filter(cat.Terms, query, selected)
	for _, t := range matches {
		fmt.Fprintf(out, "%-22s %-18s %s\n", t.ID, t.Category, t.Term)
	}
	fmt.Fprintf(out, "%d of %d terms\n", len(matches), len(cat.Terms))
	return nil
}

// saveCatalogue writes the catalogue back with a fresh lastUpdated date.
func saveCatalogue(cat *dictionary.Catalogue, path string) error {
	cat.LastUpdated = time.Now().Format("2006-01-02")

	data, err := json.MarshalIndent(cat, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal dictionary: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write dictionary file: %w", err)
	}
	return nil
}

func help() {
	fmt.Println(`
Usage: dictionary-updater <command> [flags]

Commands:
  add       Add a new term to the dictionary
  update    Update one field of an existing term
  search    List terms matching a query and category
  validate  Validate the dictionary file
  help      Show this help message

Examples:
  dictionary-updater add -id foir -term FOIR -definition "Fixed Obligation to Income Ratio" -category "Personal Finance"
  dictionary-updater update -id foir -field icon -value pie-chart
  dictionary-updater search -q emi -category Loans
  dictionary-updater validate -path pkg/dictionary/terms.json

The server embeds pkg/dictionary/terms.json at build time; rebuild after editing.

Use 'dictionary-updater <command> -h' for more information about a command.`)
}
