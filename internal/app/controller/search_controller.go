package controller

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/videokb-backend/internal/app/service"
	apperrors "github.com/ikkim/videokb-backend/internal/errors"
	"github.com/ikkim/videokb-backend/internal/middleware"
	"github.com/ikkim/videokb-backend/internal/validation"
)

// maxFilterBodySize bounds the structured filter document.
const maxFilterBodySize = 64 << 10

type SearchController struct {
	searchService service.SearchService
	tagService    service.TagService
	validator     *validation.Validator
}

func NewSearchController(searchService service.SearchService, tagService service.TagService, v *validation.Validator) *SearchController {
	return &SearchController{
		searchService: searchService,
		tagService:    tagService,
		validator:     v,
	}
}

type QueryTextRequest struct {
	Text string `json:"text" binding:"required"`
}

// SearchByTags 依標籤搜尋並以智慧分數排序
// GET /api/v1/search/tags?tag_ids=1,2&match_all=true&limit=20
func (ctrl *SearchController) SearchByTags(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	tagIDs, err := parseIDList(c.Query("tag_ids"))
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "tag_ids 格式不正確")
		return
	}

	matchAll := false
	if raw := c.Query("match_all"); raw != "" {
		matchAll, err = strconv.ParseBool(raw)
		if err != nil {
			apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "match_all 必須是 true 或 false")
			return
		}
	}

	limit, ok := parseIntQuery(c, "limit")
	if !ok {
		return
	}

	videos, err := ctrl.tagService.SearchByTags(tagIDs, matchAll, limit)
	if err != nil {
		respondServiceError(c, log, err, "search tags", map[string]interface{}{
			"tag_ids":   tagIDs,
			"match_all": matchAll,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"videos": videos,
		"count":  len(videos),
	})
}

// ListRanked 依智慧分數排序所有已標籤影片
// GET /api/v1/search/ranked?limit=
func (ctrl *SearchController) ListRanked(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	limit, ok := parseIntQuery(c, "limit")
	if !ok {
		return
	}

	videos, err := ctrl.tagService.ListBySmartScore(limit)
	if err != nil {
		respondServiceError(c, log, err, "search ranked", nil)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"videos": videos,
		"count":  len(videos),
	})
}

// ParseQuery 將自然語言轉成搜尋條件
// POST /api/v1/search/parse
func (ctrl *SearchController) ParseQuery(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req QueryTextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, log, err, "search parse")
		return
	}

	query, err := ctrl.searchService.ParseQuery(c.Request.Context(), req.Text)
	if err != nil {
		respondServiceError(c, log, err, "search parse", nil)
		return
	}

	c.JSON(http.StatusOK, gin.H{"query": query})
}

// SearchNatural 自然語言搜尋
// POST /api/v1/search/natural?limit=&offset=
func (ctrl *SearchController) SearchNatural(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	limit, offset, ok := parsePageQuery(c)
	if !ok {
		return
	}

	var req QueryTextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, log, err, "search natural")
		return
	}

	result, err := ctrl.searchService.SearchNatural(c.Request.Context(), req.Text, limit, offset)
	if err != nil {
		respondServiceError(c, log, err, "search natural", nil)
		return
	}

	c.JSON(http.StatusOK, result)
}

// SearchStructured runs a client-supplied filter document.
// POST /api/v1/search/structured?limit=&offset=
func (ctrl *SearchController) SearchStructured(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	limit, offset, ok := parsePageQuery(c)
	if !ok {
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxFilterBodySize))
	if err != nil {
		respondBindError(c, log, err, "search structured")
		return
	}

	filter, err := service.DecodeParsedQuery(body, ctrl.validator)
	if err != nil {
		respondServiceError(c, log, err, "search structured", nil)
		return
	}

	result, err := ctrl.searchService.Search(c.Request.Context(), filter, limit, offset)
	if err != nil {
		respondServiceError(c, log, err, "search structured", nil)
		return
	}

	c.JSON(http.StatusOK, result)
}

// FullTextSearch 全文檢索
// GET /api/v1/search/fulltext?q=&limit=&offset=
func (ctrl *SearchController) FullTextSearch(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	limit, offset, ok := parsePageQuery(c)
	if !ok {
		return
	}

	q := c.Query("q")
	result, err := ctrl.searchService.FullTextSearch(c.Request.Context(), q, limit, offset)
	if err != nil {
		respondServiceError(c, log, err, "search fulltext", map[string]interface{}{"query": q})
		return
	}

	c.JSON(http.StatusOK, result)
}

// Suggest 搜尋建議
// GET /api/v1/search/suggest?q=&limit=
func (ctrl *SearchController) Suggest(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	limit, ok := parseIntQuery(c, "limit")
	if !ok {
		return
	}

	q := strings.TrimSpace(c.Query("q"))
	suggestions, err := ctrl.searchService.Suggest(c.Request.Context(), q, limit)
	if err != nil {
		respondServiceError(c, log, err, "search suggest", map[string]interface{}{"query": q})
		return
	}

	c.JSON(http.StatusOK, gin.H{"suggestions": suggestions})
}
