package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ikkim/videokb-backend/config"
	"github.com/ikkim/videokb-backend/internal/app/controller"
	"github.com/ikkim/videokb-backend/internal/app/repository"
	"github.com/ikkim/videokb-backend/internal/app/service"
	"github.com/ikkim/videokb-backend/internal/db"
	"github.com/ikkim/videokb-backend/internal/fulltext"
	"github.com/ikkim/videokb-backend/internal/middleware"
	"github.com/ikkim/videokb-backend/internal/router"
	"github.com/ikkim/videokb-backend/internal/scheduler"
	"github.com/ikkim/videokb-backend/internal/validation"
	"github.com/ikkim/videokb-backend/pkg/logger"
	"github.com/ikkim/videokb-backend/pkg/redis"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}

	// Initialize logger
	logLevel := "info"
	logFormat := "json"
	if cfg.Server.Environment == "development" {
		logLevel = "debug"
		logFormat = "console"
	}
	logger.Initialize(logger.Config{
		Level:       logLevel,
		Format:      logFormat,
		EnableColor: true,
	})

	logger.Info("Starting video knowledge base server", map[string]interface{}{
		"environment": cfg.Server.Environment,
		"port":        cfg.Server.Port,
		"log_level":   logLevel,
	})

	// Initialize database
	if err := db.Initialize(&cfg.Database); err != nil {
		logger.Fatal("Failed to initialize database", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database connection", err)
		}
	}()

	if err := db.Migrate(); err != nil {
		logger.Fatal("Failed to run migrations", err)
	}

	if err := db.Seed(); err != nil {
		logger.Warn("Failed to seed database", map[string]interface{}{
			"error": err.Error(),
		})
	}

	// Parsed query cache is optional
	var queryCache repository.QueryCacheRepository
	if cfg.Redis.Enabled() {
		if err := redis.Init(&cfg.Redis); err != nil {
			logger.Warn("Redis unavailable, parsed query cache disabled", map[string]interface{}{
				"error": err.Error(),
			})
		} else {
			queryCache = repository.NewQueryCacheRepository(redis.GetClient())
			defer redis.Close()
		}
	}

	index, err := fulltext.NewIndex(fulltext.Options{Path: cfg.Search.IndexPath})
	if err != nil {
		logger.Fatal("Failed to open search index", err)
	}
	defer func() {
		if err := index.Close(); err != nil {
			logger.Error("Failed to close search index", err)
		}
	}()

	v := validation.New()
	limits := service.PageLimits{Default: cfg.Search.DefaultLimit, Max: cfg.Search.MaxLimit}

	// Initialize repositories
	tagRepo := repository.NewTagRepository(db.GetDB())
	videoRepo := repository.NewVideoRepository(db.GetDB())

	// Initialize services
	tagService := service.NewTagService(tagRepo, videoRepo, limits)
	videoService := service.NewVideoService(videoRepo, tagService, index)
	queryParser := service.NewQueryParser(service.NewAIService(cfg.LLM), queryCache, v, service.QueryParserOptions{
		Timeout:  cfg.LLM.Timeout,
		CacheTTL: cfg.Search.ParseCacheTTL,
	})
	searchService := service.NewSearchService(videoRepo, tagRepo, queryParser, index, v, limits)

	if _, err := videoService.RebuildSearchIndex(); err != nil {
		logger.Error("Failed to rebuild search index, full-text results may be incomplete", err)
	}

	usageScheduler := scheduler.NewUsageCountScheduler(tagService, cfg.Scheduler.UsageReconcileCron)
	if err := usageScheduler.Start(); err != nil {
		logger.Fatal("Failed to start usage count scheduler", err)
	}
	defer usageScheduler.Stop()

	// Setup router
	r := router.NewRouter(
		controller.NewTagController(tagService),
		controller.NewVideoController(videoService, tagService),
		controller.NewSearchController(searchService, tagService, v),
		middleware.NewAuthMiddleware(cfg.JWT.Secret),
		cfg,
	)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           r.Setup(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Server started successfully", map[string]interface{}{
			"address": srv.Addr,
			"pid":     os.Getpid(),
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server gracefully...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", err)
	}

	logger.Info("Server stopped successfully")
}
