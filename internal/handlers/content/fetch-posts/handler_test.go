// internal/handlers/content/fetch-posts/handler_test.go
package fetchposts

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"infinz-leadgen/internal/common/config"
	apperrors "infinz-leadgen/internal/common/errors"
	"infinz-leadgen/internal/common/logger"
	"infinz-leadgen/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Mock Implementations
// ==========================

type MockPostSource struct {
	ListPostsFunc func(ctx context.Context, kind models.ContentKind, page, pageSize int) (*models.PostPage, error)
	calls         int
}

func (m *MockPostSource) ListPosts(ctx context.Context, kind models.ContentKind, page, pageSize int) (*models.PostPage, error) {
	m.calls++
	return m.ListPostsFunc(ctx, kind, page, pageSize)
}

// ==========================
// Test Helper Functions
// ==========================

func createTestConfig() *Config {
	return &Config{
		CacheEnabled: true,
		CacheTTL:     5 * time.Minute,
		KeyPrefix:    "infinz:content:",
		PageSize:     2,
		MaxPage:      10,
	}
}

func createTestPage(kind models.ContentKind, page, pageSize int) *models.PostPage {
	return &models.PostPage{
		Items: []models.Post{
			{ID: "p1", Title: "How EMIs work", Slug: "how-emis-work", Category: string(kind)},
			{ID: "p2", Title: "Improving your credit score", Slug: "improving-credit-score", Category: string(kind)},
		},
		Page:     page,
		PageSize: pageSize,
		Total:    7,
	}
}

func okSource() *MockPostSource {
	return &MockPostSource{
		ListPostsFunc: func(ctx context.Context, kind models.ContentKind, page, pageSize int) (*models.PostPage, error) {
			return createTestPage(kind, page, pageSize), nil
		},
	}
}

func createMiniredis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

// ==========================
// Tests
// ==========================

func TestHandler_Execute_CachesPages(t *testing.T) {
	mr, client := createMiniredis(t)
	source := okSource()
	h := NewHandler(createTestConfig(), source, client, logger.NewTestLogger(t))

	first, err := h.Execute(context.Background(), &Input{Kind: models.ContentBlogs, Page: 1})
	require.NoError(t, err)
	assert.False(t, first.Cached)
	assert.Len(t, first.Items, 2)

	second, err := h.Execute(context.Background(), &Input{Kind: models.ContentBlogs, Page: 1})
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, first.PostPage, second.PostPage)
	assert.Equal(t, 1, source.calls)

	key := "infinz:content:blogs:1:2"
	require.True(t, mr.Exists(key))
	assert.Equal(t, 5*time.Minute, mr.TTL(key))

	mr.FastForward(6 * time.Minute)
	third, err := h.Execute(context.Background(), &Input{Kind: models.ContentBlogs, Page: 1})
	require.NoError(t, err)
	assert.False(t, third.Cached)
	assert.Equal(t, 2, source.calls)
}

func TestHandler_Execute_KindsCachedSeparately(t *testing.T) {
	_, client := createMiniredis(t)
	source := okSource()
	h := NewHandler(createTestConfig(), source, client, logger.NewTestLogger(t))

	_, err := h.Execute(context.Background(), &Input{Kind: models.ContentBlogs})
	require.NoError(t, err)
	out, err := h.Execute(context.Background(), &Input{Kind: models.ContentNews})
	require.NoError(t, err)

	assert.False(t, out.Cached)
	assert.Equal(t, models.ContentNews, out.Kind)
	assert.Equal(t, 1, out.Page)
	assert.Equal(t, 2, source.calls)
}

func TestHandler_Execute_CacheErrorFallsBackToSource(t *testing.T) {
	client, redisMock := redismock.NewClientMock()
	source := okSource()
	h := NewHandler(createTestConfig(), source, client, logger.NewTestLogger(t))

	key := "infinz:content:news:2:2"
	redisMock.ExpectGet(key).SetErr(errors.New("connection refused"))
	data, _ := json.Marshal(createTestPage(models.ContentNews, 2, 2))
	redisMock.ExpectSet(key, data, 5*time.Minute).SetErr(errors.New("connection refused"))

	out, err := h.Execute(context.Background(), &Input{Kind: models.ContentNews, Page: 2})
	require.NoError(t, err)
	assert.False(t, out.Cached)
	assert.Equal(t, 1, source.calls)
	assert.NoError(t, redisMock.ExpectationsWereMet())
}

func TestHandler_Execute_CorruptCacheEntryIgnored(t *testing.T) {
	client, redisMock := redismock.NewClientMock()
	source := okSource()
	h := NewHandler(createTestConfig(), source, client, logger.NewTestLogger(t))

	key := "infinz:content:blogs:1:2"
	redisMock.ExpectGet(key).SetVal("{not json")
	data, _ := json.Marshal(createTestPage(models.ContentBlogs, 1, 2))
	redisMock.ExpectSet(key, data, 5*time.Minute).SetVal("OK")

	out, err := h.Execute(context.Background(), &Input{Kind: models.ContentBlogs, Page: 1})
	require.NoError(t, err)
	assert.False(t, out.Cached)
	assert.NoError(t, redisMock.ExpectationsWereMet())
}

func TestHandler_Execute_CacheDisabled(t *testing.T) {
	source := okSource()
	cfg := createTestConfig()
	cfg.CacheEnabled = false
	h := NewHandler(cfg, source, nil, logger.NewTestLogger(t))

	for i := 0; i < 2; i++ {
		_, err := h.Execute(context.Background(), &Input{Kind: models.ContentBlogs, Page: 1})
		require.NoError(t, err)
	}
	assert.Equal(t, 2, source.calls)
}

func TestHandler_Execute_SourceError(t *testing.T) {
	_, client := createMiniredis(t)
	source := &MockPostSource{
		ListPostsFunc: func(ctx context.Context, kind models.ContentKind, page, pageSize int) (*models.PostPage, error) {
			return nil, apperrors.NewNetworkError("posts", errors.New("timeout"))
		},
	}
	h := NewHandler(createTestConfig(), source, client, logger.NewTestLogger(t))

	_, err := h.Execute(context.Background(), &Input{Kind: models.ContentBlogs, Page: 1})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeNetworkError))
}

func TestHandler_Execute_InvalidInput(t *testing.T) {
	source := okSource()
	h := NewHandler(createTestConfig(), source, nil, logger.NewNoOpLogger())

	_, err := h.Execute(context.Background(), &Input{Kind: "press", Page: 1})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeNotFound))

	for _, page := range []int{-1, 11} {
		_, err = h.Execute(context.Background(), &Input{Kind: models.ContentBlogs, Page: page})
		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeValidationFailed), "page %d", page)
	}
	assert.Zero(t, source.calls)
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg := LoadConfig(config.ContentConfig{CacheEnabled: true})
	assert.Equal(t, DefaultCacheTTL, cfg.CacheTTL)
	assert.Equal(t, 9, cfg.PageSize)
}
