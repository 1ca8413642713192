package repository

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const parsedQueryKeyPrefix = "parsed_query:"

// QueryCacheRepository stores parsed-query JSON keyed by the normalized query text.
type QueryCacheRepository interface {
	Get(ctx context.Context, text string) ([]byte, bool, error)
	Set(ctx context.Context, text string, payload []byte, ttl time.Duration) error
}

type queryCacheRepository struct {
	client *redis.Client
}

func NewQueryCacheRepository(client *redis.Client) QueryCacheRepository {
	return &queryCacheRepository{client: client}
}

func (r *queryCacheRepository) Get(ctx context.Context, text string) ([]byte, bool, error) {
	payload, err := r.client.Get(ctx, ParsedQueryCacheKey(text)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return payload, true, nil
}

func (r *queryCacheRepository) Set(ctx context.Context, text string, payload []byte, ttl time.Duration) error {
	return r.client.Set(ctx, ParsedQueryCacheKey(text), payload, ttl).Err()
}

// ParsedQueryCacheKey hashes the whitespace-collapsed text. Case is kept:
// product codes such as ABC123456a are case-sensitive.
func ParsedQueryCacheKey(text string) string {
	normalized := strings.Join(strings.Fields(text), " ")
	sum := sha256.Sum256([]byte(normalized))
	return parsedQueryKeyPrefix + hex.EncodeToString(sum[:])
}
