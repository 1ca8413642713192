package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/videokb-backend/config"
	"github.com/ikkim/videokb-backend/internal/app/controller"
	"github.com/ikkim/videokb-backend/internal/middleware"
)

type Router struct {
	tagController    *controller.TagController
	videoController  *controller.VideoController
	searchController *controller.SearchController
	authMiddleware   *middleware.AuthMiddleware
	config           *config.Config
}

func NewRouter(
	tagController *controller.TagController,
	videoController *controller.VideoController,
	searchController *controller.SearchController,
	authMiddleware *middleware.AuthMiddleware,
	cfg *config.Config,
) *Router {
	return &Router{
		tagController:    tagController,
		videoController:  videoController,
		searchController: searchController,
		authMiddleware:   authMiddleware,
		config:           cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	gin.SetMode(r.config.Server.GinMode)

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.LoggingMiddleware())
	router.Use(corsMiddleware(r.config.CORS.AllowedOrigins))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"message": "Video knowledge base API is running",
		})
	})

	admin := []gin.HandlerFunc{
		r.authMiddleware.Authenticate(),
		r.authMiddleware.RequireRole(middleware.RoleAdmin),
	}
	adminOnly := func(h gin.HandlerFunc) []gin.HandlerFunc {
		return append(append([]gin.HandlerFunc{}, admin...), h)
	}

	v1 := router.Group("/api/v1")
	{
		tags := v1.Group("/tags")
		{
			tags.GET("", r.tagController.ListTags)
			tags.GET("/classify", r.tagController.ClassifyTag)
			tags.GET("/export", adminOnly(r.tagController.ExportTags)...)
			tags.GET("/:id", r.tagController.GetTag)
			tags.GET("/:id/videos", r.tagController.GetTagVideos)
			tags.POST("", adminOnly(r.tagController.CreateTag)...)
			tags.PUT("/:id", adminOnly(r.tagController.UpdateTag)...)
			tags.DELETE("/:id", adminOnly(r.tagController.DeleteTag)...)
		}

		videos := v1.Group("/videos")
		{
			videos.GET("/:id", r.videoController.GetVideo)
			videos.GET("/:id/tags", r.videoController.GetVideoTags)
			videos.GET("/:id/score", r.videoController.GetVideoScore)
			videos.POST("", adminOnly(r.videoController.CreateVideo)...)
			videos.PUT("/:id", adminOnly(r.videoController.UpdateVideo)...)
			videos.DELETE("/:id", adminOnly(r.videoController.DeleteVideo)...)
			videos.POST("/:id/tags", adminOnly(r.videoController.AddVideoTag)...)
			videos.DELETE("/:id/tags/:tag_id", adminOnly(r.videoController.RemoveVideoTag)...)
		}

		search := v1.Group("/search")
		{
			search.GET("/tags", r.searchController.SearchByTags)
			search.GET("/ranked", r.searchController.ListRanked)
			search.POST("/parse", r.searchController.ParseQuery)
			search.POST("/natural", r.searchController.SearchNatural)
			search.POST("/structured", r.searchController.SearchStructured)
			search.GET("/fulltext", r.searchController.FullTextSearch)
			search.GET("/suggest", r.searchController.Suggest)
		}
	}

	return router
}

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		allowed := false
		for _, allowedOrigin := range allowedOrigins {
			if origin == allowedOrigin || allowedOrigin == "*" {
				allowed = true
				break
			}
		}

		if allowed {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Disposition, X-Request-ID")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
