package service

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ikkim/videokb-backend/internal/app/model"
	"github.com/ikkim/videokb-backend/internal/app/repository"
	"github.com/ikkim/videokb-backend/internal/validation"
	"github.com/ikkim/videokb-backend/pkg/logger"
)

var (
	ErrInvalidQueryText = errors.New("query text must be 1 to 500 characters")
	ErrQueryParseFailed = errors.New("could not understand the query")
)

const maxQueryTextLength = 500

const parsedQuerySystemPrompt = `你是影片知識庫的搜尋條件解析器。請把使用者的中文或英文查詢轉成 JSON 搜尋條件，只能輸出下列欄位，沒有提到的欄位一律填 null：

- rating: {"min": 1~5 整數或 null, "max": 1~5 整數或 null}，影片評分範圍
- category: product_intro(產品介紹) | maintenance(保養維護) | troubleshooting(故障排除) | installation(安裝教學) | other
- platform: youtube | tiktok | instagram
- shareStatus: private(未公開) | public(公開)
- tags: 使用者明確提到的標籤名稱或產品型號 (例如 ABC123456a)，原樣保留
- keywords: 其他要在標題或描述中比對的關鍵字，只保留名詞，去掉「影片」「找」等虛詞
- sortBy: rating | viewCount | createdAt | title
- sortOrder: asc | desc

對應規則:
- 「4 星以上」→ {"rating": {"min": 4, "max": null}}
- 「3 星以下」→ {"rating": {"min": null, "max": 3}}
- 「最新」→ {"sortBy": "createdAt", "sortOrder": "desc"}
- 「最熱門」「觀看最多」→ {"sortBy": "viewCount", "sortOrder": "desc"}
- 「評分最高」→ {"sortBy": "rating", "sortOrder": "desc"}
- 平台別名: 「抖音」「TikTok」→ tiktok；「油管」「YT」→ youtube；「IG」「哀居」→ instagram

範例:
查詢: 找抖音上 4 星以上的清潔影片
輸出: {"rating":{"min":4,"max":null},"category":null,"platform":"tiktok","shareStatus":null,"tags":null,"keywords":["清潔"],"sortBy":null,"sortOrder":null}
查詢: 最新的安裝教學
輸出: {"rating":null,"category":"installation","platform":null,"shareStatus":null,"tags":null,"keywords":null,"sortBy":"createdAt","sortOrder":"desc"}

只輸出 JSON 物件，不要任何說明文字。`

// QueryParser turns free text into a validated ParsedQuery.
type QueryParser interface {
	ParseQuery(ctx context.Context, text string) (*model.ParsedQuery, error)
}

type QueryParserOptions struct {
	Timeout  time.Duration
	CacheTTL time.Duration
}

type queryParser struct {
	ai        AIService
	cache     repository.QueryCacheRepository
	validator *validation.Validator
	opts      QueryParserOptions
}

// NewQueryParser 建立查詢解析器; cache 可為 nil
func NewQueryParser(ai AIService, cache repository.QueryCacheRepository, v *validation.Validator, opts QueryParserOptions) QueryParser {
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	return &queryParser{
		ai:        ai,
		cache:     cache,
		validator: v,
		opts:      opts,
	}
}

// ParseQuery asks the model for a structured filter. Every model-side failure
// is reported as ErrQueryParseFailed; the cause is only logged.
func (p *queryParser) ParseQuery(ctx context.Context, text string) (*model.ParsedQuery, error) {
	text = strings.TrimSpace(text)
	if text == "" || utf8.RuneCountInString(text) > maxQueryTextLength {
		return nil, ErrInvalidQueryText
	}

	if cached := p.fromCache(ctx, text); cached != nil {
		return cached, nil
	}

	callCtx, cancel := context.WithTimeout(ctx, p.opts.Timeout)
	defer cancel()

	started := time.Now()
	raw, err := p.ai.CompleteJSON(callCtx, JSONCompletionRequest{
		SystemPrompt: parsedQuerySystemPrompt,
		UserPrompt:   text,
		SchemaName:   "parsed_query",
		Schema:       parsedQuerySchema(),
	})
	if err != nil {
		logger.Warn("Query parse failed", map[string]interface{}{
			"cause":       modelFailureCause(err),
			"error":       err.Error(),
			"duration_ms": time.Since(started).Milliseconds(),
		})
		return nil, ErrQueryParseFailed
	}

	query, err := DecodeParsedQuery([]byte(raw), p.validator)
	if err != nil {
		cause := "invalid_document"
		var verr *validation.Error
		if errors.As(err, &verr) {
			cause = "schema_violation"
		}
		logger.Warn("Query parse failed", map[string]interface{}{
			"cause":  cause,
			"error":  err.Error(),
			"output": truncate(raw, 500),
		})
		return nil, ErrQueryParseFailed
	}

	logger.Debug("Query parsed", map[string]interface{}{
		"duration_ms": time.Since(started).Milliseconds(),
	})

	p.toCache(ctx, text, query)
	return query, nil
}

func (p *queryParser) fromCache(ctx context.Context, text string) *model.ParsedQuery {
	if p.cache == nil {
		return nil
	}

	payload, hit, err := p.cache.Get(ctx, text)
	if err != nil {
		logger.Warn("Parsed query cache read failed", map[string]interface{}{
			"error": err.Error(),
		})
		return nil
	}
	if !hit {
		return nil
	}

	query, err := DecodeParsedQuery(payload, p.validator)
	if err != nil {
		logger.Warn("Discarding invalid cached parsed query", map[string]interface{}{
			"error": err.Error(),
		})
		return nil
	}
	return query
}

func (p *queryParser) toCache(ctx context.Context, text string, query *model.ParsedQuery) {
	if p.cache == nil || p.opts.CacheTTL <= 0 {
		return
	}

	payload, err := json.Marshal(query)
	if err != nil {
		return
	}
	if err := p.cache.Set(ctx, text, payload, p.opts.CacheTTL); err != nil {
		logger.Warn("Parsed query cache write failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

func modelFailureCause(err error) string {
	var statusErr *AIStatusError
	var netErr net.Error
	switch {
	case errors.Is(err, ErrAINotConfigured):
		return "not_configured"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.As(err, &netErr) && netErr.Timeout():
		return "timeout"
	case errors.As(err, &statusErr):
		return "bad_status"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "transport"
	}
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
