package service

import (
	"testing"
	"time"

	"github.com/ikkim/videokb-backend/internal/app/model"
	"github.com/ikkim/videokb-backend/internal/app/repository"
	"github.com/ikkim/videokb-backend/internal/db"
	"github.com/ikkim/videokb-backend/internal/fulltext"
	"github.com/ikkim/videokb-backend/internal/validation"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type testEnv struct {
	db        *gorm.DB
	tagRepo   repository.TagRepository
	videoRepo repository.VideoRepository
	index     *fulltext.Index
	tags      TagService
	videos    VideoService
	validator *validation.Validator
}

func setupServiceTest(t *testing.T) *testEnv {
	t.Helper()

	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })

	index, err := fulltext.NewIndex(fulltext.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })

	tagRepo := repository.NewTagRepository(testDB)
	videoRepo := repository.NewVideoRepository(testDB)
	tags := NewTagService(tagRepo, videoRepo, DefaultPageLimits)

	return &testEnv{
		db:        testDB,
		tagRepo:   tagRepo,
		videoRepo: videoRepo,
		index:     index,
		tags:      tags,
		videos:    NewVideoService(videoRepo, tags, index),
		validator: validation.New(),
	}
}

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }

// createVideo inserts a video directly so tests control created_at.
func (e *testEnv) createVideo(t *testing.T, video model.Video) *model.Video {
	t.Helper()
	if video.Category == "" {
		video.Category = model.CategoryOther
	}
	if video.Platform == "" {
		video.Platform = model.PlatformYouTube
	}
	if video.CreatedAt.IsZero() {
		video.CreatedAt = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	require.NoError(t, e.videoRepo.Create(&video))
	require.NoError(t, e.index.IndexVideo(&video))
	return &video
}

func (e *testEnv) createTag(t *testing.T, name string) *model.Tag {
	t.Helper()
	tag, err := e.tags.CreateTag(TagInput{Name: name})
	require.NoError(t, err)
	return tag
}

func (e *testEnv) link(t *testing.T, videoID, tagID uint, weight int) {
	t.Helper()
	require.NoError(t, e.tags.AddTagToVideo(videoID, tagID, weight))
}
