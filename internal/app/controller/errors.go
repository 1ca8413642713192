package controller

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/videokb-backend/internal/app/service"
	apperrors "github.com/ikkim/videokb-backend/internal/errors"
	"github.com/ikkim/videokb-backend/internal/middleware"
	"github.com/ikkim/videokb-backend/internal/validation"
	"github.com/ikkim/videokb-backend/pkg/logger"
)

// respondServiceError maps service errors to HTTP responses. Unknown errors
// are logged with fields and reported as a 500 without internal detail.
func respondServiceError(c *gin.Context, log *logger.Logger, err error, context string, fields map[string]interface{}) {
	var verr *validation.Error
	switch {
	case errors.As(err, &verr):
		apperrors.RespondWithValidationError(c, verr.Fields)
	case errors.Is(err, service.ErrInvalidFilter):
		apperrors.BadRequest(c, apperrors.SearchInvalidFilter, err.Error())
	case errors.Is(err, service.ErrInvalidPagination),
		errors.Is(err, service.ErrInvalidTagName),
		errors.Is(err, service.ErrInvalidQueryText),
		errors.Is(err, service.ErrInvalidVideo):
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, err.Error())
	case errors.Is(err, service.ErrInvalidWeight):
		apperrors.BadRequest(c, apperrors.TagInvalidWeight, err.Error())
	case errors.Is(err, service.ErrTagNotFound):
		apperrors.NotFound(c, apperrors.TagNotFound, "找不到標籤")
	case errors.Is(err, service.ErrVideoNotFound):
		apperrors.NotFound(c, apperrors.VideoNotFound, "找不到影片")
	case errors.Is(err, service.ErrTagNameExists):
		apperrors.Conflict(c, apperrors.TagNameExists, "標籤名稱已存在")
	case errors.Is(err, service.ErrQueryParseFailed):
		apperrors.UnprocessableEntity(c, apperrors.SearchQueryUnparsable, "無法理解查詢內容，請換個說法")
	default:
		log.Error("Request failed: "+context, err, fields)
		info := apperrors.ParseError(err, context)
		apperrors.RespondWithError(c, info.Status, info.Code, info.Message)
		return
	}

	log.Warn("Request rejected: "+context, mergeFields(fields, map[string]interface{}{
		"error": err.Error(),
	}))
}

func mergeFields(base, extra map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(base)+len(extra))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}

// parseIDParam reads a positive uint path parameter and answers 400 otherwise.
func parseIDParam(c *gin.Context, name string) (uint, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		middleware.GetLoggerFromContext(c).Warn("Invalid ID format", map[string]interface{}{
			"param": name,
			"value": raw,
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "ID 格式不正確")
		return 0, false
	}
	return uint(id), true
}

// parseIntQuery reads an optional integer query parameter; absent means 0.
func parseIntQuery(c *gin.Context, name string) (int, bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, name+" 必須是整數")
		return 0, false
	}
	return n, true
}

func parsePageQuery(c *gin.Context) (limit, offset int, ok bool) {
	if limit, ok = parseIntQuery(c, "limit"); !ok {
		return 0, 0, false
	}
	if offset, ok = parseIntQuery(c, "offset"); !ok {
		return 0, 0, false
	}
	return limit, offset, true
}

// parseIDList parses a comma separated id list such as "1,2,3".
func parseIDList(raw string) ([]uint, error) {
	var ids []uint
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseUint(part, 10, 32)
		if err != nil || id == 0 {
			return nil, errors.New("invalid id " + strconv.Quote(part))
		}
		ids = append(ids, uint(id))
	}
	return ids, nil
}

// respondBindError answers a failed ShouldBindJSON.
func respondBindError(c *gin.Context, log *logger.Logger, err error, context string) {
	log.Warn("Invalid request body: "+context, map[string]interface{}{
		"error": err.Error(),
	})
	apperrors.RespondWithError(c, http.StatusBadRequest, apperrors.ValidationInvalidInput, "請求資料格式不正確")
}
