package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/ikkim/videokb-backend/internal/app/model"
	"github.com/ikkim/videokb-backend/internal/app/repository"
	"github.com/ikkim/videokb-backend/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAI returns a canned completion.
type fakeAI struct {
	mu       sync.Mutex
	calls    int
	response string
	err      error
	delay    time.Duration
	lastReq  JSONCompletionRequest
}

func (f *fakeAI) CompleteJSON(ctx context.Context, req JSONCompletionRequest) (string, error) {
	f.mu.Lock()
	f.calls++
	f.lastReq = req
	f.mu.Unlock()

	if f.delay > 0 {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(f.delay):
		}
	}
	return f.response, f.err
}

type fakeQueryCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	getErr  error
	setErr  error
}

func newFakeQueryCache() *fakeQueryCache {
	return &fakeQueryCache{entries: map[string][]byte{}}
}

func (c *fakeQueryCache) Get(_ context.Context, text string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return nil, false, c.getErr
	}
	payload, ok := c.entries[repository.ParsedQueryCacheKey(text)]
	return payload, ok, nil
}

func (c *fakeQueryCache) Set(_ context.Context, text string, payload []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.setErr != nil {
		return c.setErr
	}
	c.entries[repository.ParsedQueryCacheKey(text)] = payload
	return nil
}

func newTestParser(ai AIService, cache *fakeQueryCache) QueryParser {
	opts := QueryParserOptions{Timeout: time.Second, CacheTTL: time.Hour}
	if cache == nil {
		return NewQueryParser(ai, nil, validation.New(), opts)
	}
	return NewQueryParser(ai, cache, validation.New(), opts)
}

func TestQueryParser_ParseQuery(t *testing.T) {
	t.Run("rating lower bound", func(t *testing.T) {
		ai := &fakeAI{response: `{"rating":{"min":4,"max":null},"category":null,"platform":null,"shareStatus":null,"tags":null,"keywords":null,"sortBy":null,"sortOrder":null}`}
		query, err := newTestParser(ai, nil).ParseQuery(context.Background(), "找評分 4 星以上的影片")
		require.NoError(t, err)
		require.NotNil(t, query.Rating)
		require.NotNil(t, query.Rating.Min)
		assert.GreaterOrEqual(t, *query.Rating.Min, 4)

		assert.Equal(t, "找評分 4 星以上的影片", ai.lastReq.UserPrompt)
		assert.Contains(t, ai.lastReq.SystemPrompt, "4 星以上")
		assert.Equal(t, false, ai.lastReq.Schema["additionalProperties"])
	})

	t.Run("platform alias", func(t *testing.T) {
		ai := &fakeAI{response: `{"rating":null,"category":null,"platform":"tiktok","shareStatus":null,"tags":null,"keywords":null,"sortBy":null,"sortOrder":null}`}
		query, err := newTestParser(ai, nil).ParseQuery(context.Background(), "找抖音的影片")
		require.NoError(t, err)
		require.NotNil(t, query.Platform)
		assert.Equal(t, model.PlatformTikTok, *query.Platform)
	})

	t.Run("blank text never reaches the model", func(t *testing.T) {
		ai := &fakeAI{}
		_, err := newTestParser(ai, nil).ParseQuery(context.Background(), "   ")
		assert.ErrorIs(t, err, ErrInvalidQueryText)
		assert.Zero(t, ai.calls)
	})
}

func TestQueryParser_FailuresFoldIntoParseFailed(t *testing.T) {
	tests := []struct {
		name string
		ai   *fakeAI
	}{
		{"transport error", &fakeAI{err: errors.New("dial tcp: connection refused")}},
		{"provider status", &fakeAI{err: &AIStatusError{StatusCode: 500, Body: "internal provider detail"}}},
		{"not configured", &fakeAI{err: ErrAINotConfigured}},
		{"not json", &fakeAI{response: "抱歉，我無法理解"}},
		{"extra property", &fakeAI{response: `{"platform":"tiktok","confidence":0.9}`}},
		{"enum violation", &fakeAI{response: `{"platform":"facebook"}`}},
		{"rating out of range", &fakeAI{response: `{"rating":{"min":7}}`}},
		{"key differs by case", &fakeAI{response: `{"Platform":"tiktok"}`}},
		{"upper-case keys at both levels", &fakeAI{response: `{"SORTBY":"title","rating":{"MIN":4}}`}},
		{"duplicate key", &fakeAI{response: `{"platform":"tiktok","platform":"youtube"}`}},
		{"timeout", &fakeAI{response: `{}`, delay: 5 * time.Second}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parser := NewQueryParser(tt.ai, nil, validation.New(), QueryParserOptions{Timeout: 50 * time.Millisecond})

			query, err := parser.ParseQuery(context.Background(), "找影片")
			assert.Nil(t, query)
			assert.True(t, errors.Is(err, ErrQueryParseFailed))
			// The caller only ever sees the generic message
			assert.Equal(t, ErrQueryParseFailed.Error(), err.Error())
		})
	}
}

func TestQueryParser_Cache(t *testing.T) {
	ai := &fakeAI{response: `{"platform":"instagram"}`}
	cache := newFakeQueryCache()
	parser := newTestParser(ai, cache)

	first, err := parser.ParseQuery(context.Background(), "找 IG 的影片")
	require.NoError(t, err)
	second, err := parser.ParseQuery(context.Background(), "找 IG 的影片")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, ai.calls)
	assert.Len(t, cache.entries, 1)
}

func TestQueryParser_CacheKeepsCaseDistinctTexts(t *testing.T) {
	ai := &fakeAI{response: `{"tags":["ABC123456a"]}`}
	cache := newFakeQueryCache()
	parser := newTestParser(ai, cache)

	_, err := parser.ParseQuery(context.Background(), "找 ABC123456a 的影片")
	require.NoError(t, err)

	ai.response = `{"tags":["abc123456A"]}`
	query, err := parser.ParseQuery(context.Background(), "找 abc123456A 的影片")
	require.NoError(t, err)

	assert.Equal(t, []string{"abc123456A"}, query.Tags)
	assert.Equal(t, 2, ai.calls)
	assert.Len(t, cache.entries, 2)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab", truncate("abcdef", 2))
	// 每個中文字佔 3 bytes，不可切在字元中間
	assert.Equal(t, "影", truncate("影片", 4))
	assert.True(t, utf8.ValidString(truncate("找抖音的影片", 7)))
	assert.Equal(t, "", truncate("影片", 2))
}

func TestQueryParser_CacheFailureFallsThrough(t *testing.T) {
	ai := &fakeAI{response: `{"sortBy":"createdAt","sortOrder":"desc"}`}
	cache := newFakeQueryCache()
	cache.getErr = errors.New("redis: connection refused")
	cache.setErr = errors.New("redis: connection refused")

	query, err := newTestParser(ai, cache).ParseQuery(context.Background(), "最新")
	require.NoError(t, err)
	assert.Equal(t, model.SortByCreatedAt, *query.SortBy)
	assert.Equal(t, 1, ai.calls)
}

func TestQueryParser_InvalidCacheEntryIgnored(t *testing.T) {
	ai := &fakeAI{response: `{"platform":"youtube"}`}
	cache := newFakeQueryCache()
	cache.entries[repository.ParsedQueryCacheKey("找油管影片")] = []byte(`{"platform":"myspace"}`)

	query, err := newTestParser(ai, cache).ParseQuery(context.Background(), "找油管影片")
	require.NoError(t, err)
	assert.Equal(t, model.PlatformYouTube, *query.Platform)
	assert.Equal(t, 1, ai.calls)
}
