// internal/handlers/content/fetch-posts/config.go
package fetchposts

import (
	"time"

	"infinz-leadgen/internal/common/config"
)

const DefaultCacheTTL = 5 * time.Minute

type Config struct {
	CacheEnabled bool
	CacheTTL     time.Duration
	KeyPrefix    string
	PageSize     int
	MaxPage      int
}

func LoadConfig(cfg config.ContentConfig) *Config {
	c := &Config{
		CacheEnabled: cfg.CacheEnabled,
		CacheTTL:     time.Duration(cfg.CacheTTLSeconds) * time.Second,
		KeyPrefix:    "infinz:content:",
		PageSize:     cfg.PageSize,
		MaxPage:      500,
	}
	if c.CacheTTL <= 0 {
		c.CacheTTL = DefaultCacheTTL
	}
	if c.PageSize <= 0 {
		c.PageSize = 9
	}
	return c
}
