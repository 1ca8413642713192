package repository

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsedQueryCacheKey(t *testing.T) {
	a := ParsedQueryCacheKey("找抖音的影片  4 星以上")
	b := ParsedQueryCacheKey("  找抖音的影片 4 星以上 ")
	c := ParsedQueryCacheKey("找 ABC123456a 的影片")
	d := ParsedQueryCacheKey("找 abc123456A 的影片")

	assert.Equal(t, a, b)
	assert.NotEqual(t, c, d)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, len(parsedQueryKeyPrefix)+64)
}

func TestQueryCacheRepository_Unreachable(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	repo := NewQueryCacheRepository(client)

	_, hit, err := repo.Get(context.Background(), "最新影片")
	require.Error(t, err)
	assert.False(t, hit)

	assert.Error(t, repo.Set(context.Background(), "最新影片", []byte(`{}`), time.Minute))
}
