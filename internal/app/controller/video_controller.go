package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/videokb-backend/internal/app/model"
	"github.com/ikkim/videokb-backend/internal/app/service"
	"github.com/ikkim/videokb-backend/internal/middleware"
)

type VideoController struct {
	videoService service.VideoService
	tagService   service.TagService
}

func NewVideoController(videoService service.VideoService, tagService service.TagService) *VideoController {
	return &VideoController{
		videoService: videoService,
		tagService:   tagService,
	}
}

type VideoRequest struct {
	Title       string              `json:"title" binding:"required,max=255"`
	Description string              `json:"description"`
	Category    model.VideoCategory `json:"category" binding:"required"`
	Platform    model.VideoPlatform `json:"platform" binding:"required"`
	ShareStatus model.ShareStatus   `json:"share_status"`
	Rating      *int                `json:"rating" binding:"omitempty,gte=1,lte=5"`
	ProductID   *string             `json:"product_id" binding:"omitempty,max=50"`
	ViewCount   int64               `json:"view_count" binding:"gte=0"`
}

func (r VideoRequest) input() service.VideoInput {
	return service.VideoInput{
		Title:       r.Title,
		Description: r.Description,
		Category:    r.Category,
		Platform:    r.Platform,
		ShareStatus: r.ShareStatus,
		Rating:      r.Rating,
		ProductID:   r.ProductID,
		ViewCount:   r.ViewCount,
	}
}

type AddVideoTagRequest struct {
	TagID  uint `json:"tag_id" binding:"required"`
	Weight int  `json:"weight"`
}

// GetVideo 影片查詢
// GET /api/v1/videos/:id
func (ctrl *VideoController) GetVideo(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	video, err := ctrl.videoService.GetVideo(id)
	if err != nil {
		respondServiceError(c, log, err, "video get", map[string]interface{}{"video_id": id})
		return
	}

	c.JSON(http.StatusOK, gin.H{"video": video})
}

// CreateVideo 建立影片 (Admin only)
// POST /api/v1/videos
func (ctrl *VideoController) CreateVideo(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req VideoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, log, err, "video create")
		return
	}

	video, err := ctrl.videoService.CreateVideo(req.input())
	if err != nil {
		respondServiceError(c, log, err, "video create", map[string]interface{}{"title": req.Title})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"video": video})
}

// UpdateVideo 修改影片 (Admin only)
// PUT /api/v1/videos/:id
func (ctrl *VideoController) UpdateVideo(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req VideoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, log, err, "video update")
		return
	}

	video, err := ctrl.videoService.UpdateVideo(id, req.input())
	if err != nil {
		respondServiceError(c, log, err, "video update", map[string]interface{}{"video_id": id})
		return
	}

	c.JSON(http.StatusOK, gin.H{"video": video})
}

// DeleteVideo 刪除影片 (Admin only)
// DELETE /api/v1/videos/:id
func (ctrl *VideoController) DeleteVideo(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := ctrl.videoService.DeleteVideo(id); err != nil {
		respondServiceError(c, log, err, "video delete", map[string]interface{}{"video_id": id})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "影片已刪除"})
}

// GetVideoTags 影片標籤
// GET /api/v1/videos/:id/tags
func (ctrl *VideoController) GetVideoTags(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	tags, err := ctrl.tagService.GetVideoTags(id)
	if err != nil {
		respondServiceError(c, log, err, "video tags", map[string]interface{}{"video_id": id})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"tags":  tags,
		"count": len(tags),
	})
}

// GetVideoScore 影片智慧分數
// GET /api/v1/videos/:id/score
func (ctrl *VideoController) GetVideoScore(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	score, err := ctrl.tagService.CalculateVideoScore(id)
	if err != nil {
		respondServiceError(c, log, err, "video score", map[string]interface{}{"video_id": id})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"video_id":    id,
		"smart_score": score,
	})
}

// AddVideoTag 為影片加上標籤 (Admin only)
// POST /api/v1/videos/:id/tags
func (ctrl *VideoController) AddVideoTag(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req AddVideoTagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, log, err, "video tag add")
		return
	}

	fields := map[string]interface{}{
		"video_id": id,
		"tag_id":   req.TagID,
		"weight":   req.Weight,
	}
	if err := ctrl.tagService.AddTagToVideo(id, req.TagID, req.Weight); err != nil {
		respondServiceError(c, log, err, "video tag add", fields)
		return
	}

	log.Info("Tag added to video", fields)
	c.JSON(http.StatusOK, gin.H{"message": "標籤已加入"})
}

// RemoveVideoTag 移除影片標籤 (Admin only)
// DELETE /api/v1/videos/:id/tags/:tag_id
func (ctrl *VideoController) RemoveVideoTag(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	tagID, ok := parseIDParam(c, "tag_id")
	if !ok {
		return
	}

	if err := ctrl.tagService.RemoveTagFromVideo(id, tagID); err != nil {
		respondServiceError(c, log, err, "video tag remove", map[string]interface{}{
			"video_id": id,
			"tag_id":   tagID,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "標籤已移除"})
}
