// internal/handlers/content/fetch-posts/handler.go
package fetchposts

import (
	"context"
	"encoding/json"
	"fmt"

	"infinz-leadgen/internal/common/errors"
	"infinz-leadgen/internal/common/logger"
	"infinz-leadgen/internal/common/metrics"
	"infinz-leadgen/internal/models"

	"github.com/redis/go-redis/v9"
)

const (
	TaskType = "fetch-posts"
)

// PostSource is the backend listing endpoint.
type PostSource interface {
	ListPosts(ctx context.Context, kind models.ContentKind, page, pageSize int) (*models.PostPage, error)
}

type Handler struct {
	config *Config
	source PostSource
	redis  *redis.Client
	logger logger.Logger
}

// NewHandler accepts a nil redis client, which disables the cache.
func NewHandler(config *Config, source PostSource, redis *redis.Client, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		source: source,
		redis:  redis,
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if !input.Kind.Valid() {
		return nil, errors.NewNotFoundError(fmt.Sprintf("content kind %q", input.Kind))
	}
	page := input.Page
	if page == 0 {
		page = 1
	}
	if page < 1 || (h.config.MaxPage > 0 && page > h.config.MaxPage) {
		return nil, errors.NewFieldValidationError("page", "Page is out of range")
	}

	key := h.cacheKey(input.Kind, page)
	if cached, ok := h.lookup(ctx, input.Kind, key); ok {
		return &Output{PostPage: *cached, Kind: input.Kind, Cached: true}, nil
	}

	result, err := h.source.ListPosts(ctx, input.Kind, page, h.config.PageSize)
	if err != nil {
		return nil, err
	}
	h.store(ctx, key, result)

	return &Output{PostPage: *result, Kind: input.Kind}, nil
}

func (h *Handler) cacheEnabled() bool {
	return h.config.CacheEnabled && h.redis != nil
}

func (h *Handler) cacheKey(kind models.ContentKind, page int) string {
	return fmt.Sprintf("%s%s:%d:%d", h.config.KeyPrefix, kind, page, h.config.PageSize)
}

func (h *Handler) lookup(ctx context.Context, kind models.ContentKind, key string) (*models.PostPage, bool) {
	if !h.cacheEnabled() {
		return nil, false
	}

	val, err := h.redis.Get(ctx, key).Result()
	switch {
	case err == redis.Nil:
		metrics.ContentCacheLookups.WithLabelValues(string(kind), "miss").Inc()
		return nil, false
	case err != nil:
		metrics.ContentCacheLookups.WithLabelValues(string(kind), "error").Inc()
		h.logger.Warn("content cache unavailable, fetching directly", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
		return nil, false
	}

	var page models.PostPage
	if err := json.Unmarshal([]byte(val), &page); err != nil {
		metrics.ContentCacheLookups.WithLabelValues(string(kind), "error").Inc()
		h.logger.Warn("discarding unreadable cache entry", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
		return nil, false
	}
	metrics.ContentCacheLookups.WithLabelValues(string(kind), "hit").Inc()
	return &page, true
}

func (h *Handler) store(ctx context.Context, key string, page *models.PostPage) {
	if !h.cacheEnabled() {
		return
	}
	data, err := json.Marshal(page)
	if err != nil {
		return
	}
	if err := h.redis.Set(ctx, key, data, h.config.CacheTTL).Err(); err != nil {
		h.logger.Warn("failed to cache content page", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
	}
}
