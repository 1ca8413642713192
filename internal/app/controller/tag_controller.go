package controller

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/videokb-backend/internal/app/model"
	"github.com/ikkim/videokb-backend/internal/app/service"
	apperrors "github.com/ikkim/videokb-backend/internal/errors"
	"github.com/ikkim/videokb-backend/internal/middleware"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type TagController struct {
	tagService service.TagService
}

func NewTagController(tagService service.TagService) *TagController {
	return &TagController{tagService: tagService}
}

type TagRequest struct {
	Name        string `json:"name" binding:"required,max=100"`
	Description string `json:"description"`
	Color       string `json:"color" binding:"omitempty,hexcolor"`
}

// ListTags 標籤列表
// GET /api/v1/tags
// Query params:
//   - type: PRODUCT_CODE | KEYWORD (optional)
func (ctrl *TagController) ListTags(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var tagType *model.TagType
	if raw := strings.TrimSpace(c.Query("type")); raw != "" {
		t := model.TagType(strings.ToUpper(raw))
		if t != model.TagTypeProductCode && t != model.TagTypeKeyword {
			apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "type 必須是 PRODUCT_CODE 或 KEYWORD")
			return
		}
		tagType = &t
	}

	tags, err := ctrl.tagService.ListTags(tagType)
	if err != nil {
		respondServiceError(c, log, err, "tag list", nil)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"tags":  tags,
		"count": len(tags),
	})
}

// ClassifyTag reports the type a tag name would be given.
// GET /api/v1/tags/classify?name=
func (ctrl *TagController) ClassifyTag(c *gin.Context) {
	name := strings.TrimSpace(c.Query("name"))
	if name == "" {
		apperrors.BadRequest(c, apperrors.ValidationRequired, "name 為必填")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"name": name,
		"type": service.ClassifyTagName(name),
	})
}

// GetTag 標籤查詢
// GET /api/v1/tags/:id
func (ctrl *TagController) GetTag(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	tag, err := ctrl.tagService.GetTag(id)
	if err != nil {
		respondServiceError(c, log, err, "tag get", map[string]interface{}{"tag_id": id})
		return
	}

	c.JSON(http.StatusOK, gin.H{"tag": tag})
}

// GetTagVideos 使用此標籤的影片
// GET /api/v1/tags/:id/videos
func (ctrl *TagController) GetTagVideos(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	videos, err := ctrl.tagService.GetTagVideos(id)
	if err != nil {
		respondServiceError(c, log, err, "tag videos", map[string]interface{}{"tag_id": id})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"videos": videos,
		"count":  len(videos),
	})
}

// CreateTag 建立標籤 (Admin only)
// POST /api/v1/tags
func (ctrl *TagController) CreateTag(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req TagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, log, err, "tag create")
		return
	}

	tag, err := ctrl.tagService.CreateTag(service.TagInput{
		Name:        req.Name,
		Description: req.Description,
		Color:       req.Color,
	})
	if err != nil {
		respondServiceError(c, log, err, "tag create", map[string]interface{}{"name": req.Name})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"tag": tag})
}

// UpdateTag 修改標籤 (Admin only)
// PUT /api/v1/tags/:id
func (ctrl *TagController) UpdateTag(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req TagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, log, err, "tag update")
		return
	}

	tag, err := ctrl.tagService.UpdateTag(id, service.TagInput{
		Name:        req.Name,
		Description: req.Description,
		Color:       req.Color,
	})
	if err != nil {
		respondServiceError(c, log, err, "tag update", map[string]interface{}{"tag_id": id})
		return
	}

	c.JSON(http.StatusOK, gin.H{"tag": tag})
}

// DeleteTag 刪除標籤 (Admin only)
// DELETE /api/v1/tags/:id
func (ctrl *TagController) DeleteTag(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := ctrl.tagService.DeleteTag(id); err != nil {
		respondServiceError(c, log, err, "tag delete", map[string]interface{}{"tag_id": id})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "標籤已刪除"})
}

// ExportTags 匯出標籤 Excel (Admin only)
// GET /api/v1/tags/export
func (ctrl *TagController) ExportTags(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	// Buffer first so a failure can still be reported as JSON
	var buf bytes.Buffer
	if err := ctrl.tagService.ExportTagsXLSX(&buf); err != nil {
		respondServiceError(c, log, err, "tag export", nil)
		return
	}

	filename := fmt.Sprintf("tags-%s.xlsx", time.Now().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())

	log.Info("Tags exported", map[string]interface{}{
		"bytes": buf.Len(),
	})
}
