// internal/handlers/content/search-dictionary/config.go
package searchdictionary

type Config struct {
	// CataloguePath overrides the embedded catalogue when set.
	CataloguePath  string
	MaxQueryLength int
}

func DefaultConfig() *Config {
	return &Config{MaxQueryLength: 100}
}
