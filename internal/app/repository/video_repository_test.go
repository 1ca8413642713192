package repository

import (
	"testing"
	"time"

	"github.com/ikkim/videokb-backend/internal/app/model"
	"github.com/ikkim/videokb-backend/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupVideoTest(t *testing.T) (*gorm.DB, VideoRepository) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)

	return testDB, NewVideoRepository(testDB)
}

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }

func seedVideos(t *testing.T, repo VideoRepository) []model.Video {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	videos := []model.Video{
		{Title: "Coffee machine descaling", Description: "Monthly cleaning routine", Category: model.CategoryMaintenance, Platform: model.PlatformYouTube, ShareStatus: model.SharePublic, Rating: intPtr(5), ViewCount: 300, ProductID: strPtr("ABC123456a"), CreatedAt: base},
		{Title: "Grinder unboxing", Description: "First look", Category: model.CategoryProductIntro, Platform: model.PlatformTikTok, ShareStatus: model.SharePublic, Rating: intPtr(3), ViewCount: 900, CreatedAt: base.Add(time.Hour)},
		{Title: "Error E3 fix", Description: "Pump makes noise, 100% solved", Category: model.CategoryTroubleshooting, Platform: model.PlatformYouTube, ShareStatus: model.SharePrivate, Rating: intPtr(4), ViewCount: 50, CreatedAt: base.Add(2 * time.Hour)},
		{Title: "Wall mount installation", Description: "Drill and anchor", Category: model.CategoryInstallation, Platform: model.PlatformInstagram, CreatedAt: base.Add(3 * time.Hour)},
	}
	for i := range videos {
		require.NoError(t, repo.Create(&videos[i]))
	}
	return videos
}

func titles(videos []model.Video) []string {
	out := make([]string, 0, len(videos))
	for _, v := range videos {
		out = append(out, v.Title)
	}
	return out
}

func TestVideoRepository_CreateDefaults(t *testing.T) {
	testDB, repo := setupVideoTest(t)
	defer db.CleanupTestDB(testDB)

	video := &model.Video{Title: "Plain", Category: model.CategoryOther, Platform: model.PlatformYouTube}
	require.NoError(t, repo.Create(video))
	assert.NotZero(t, video.ID)

	found, err := repo.FindByID(video.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SharePrivate, found.ShareStatus)
	assert.Nil(t, found.Rating)
}

func TestVideoRepository_FindWithFilter(t *testing.T) {
	testDB, repo := setupVideoTest(t)
	defer db.CleanupTestDB(testDB)

	seedVideos(t, repo)

	t.Run("default order is newest first", func(t *testing.T) {
		videos, total, err := repo.FindWithFilter(VideoFilter{})
		require.NoError(t, err)
		assert.Equal(t, int64(4), total)
		assert.Equal(t, []string{"Wall mount installation", "Error E3 fix", "Grinder unboxing", "Coffee machine descaling"}, titles(videos))
	})

	t.Run("rating range excludes unrated", func(t *testing.T) {
		videos, total, err := repo.FindWithFilter(VideoFilter{MinRating: intPtr(4), SortBy: VideoSortRating})
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		assert.Equal(t, []string{"Coffee machine descaling", "Error E3 fix"}, titles(videos))
	})

	t.Run("unrated videos sort last in both directions", func(t *testing.T) {
		videos, _, err := repo.FindWithFilter(VideoFilter{SortBy: VideoSortRating})
		require.NoError(t, err)
		assert.Equal(t, []string{"Coffee machine descaling", "Error E3 fix", "Grinder unboxing", "Wall mount installation"}, titles(videos))

		videos, _, err = repo.FindWithFilter(VideoFilter{SortBy: VideoSortRating, SortAscending: true})
		require.NoError(t, err)
		assert.Equal(t, []string{"Grinder unboxing", "Error E3 fix", "Coffee machine descaling", "Wall mount installation"}, titles(videos))
	})

	t.Run("equality filters", func(t *testing.T) {
		platform := model.PlatformYouTube
		status := model.SharePublic
		videos, total, err := repo.FindWithFilter(VideoFilter{Platform: &platform, ShareStatus: &status})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		assert.Equal(t, []string{"Coffee machine descaling"}, titles(videos))
	})

	t.Run("keywords are OR-ed over title and description", func(t *testing.T) {
		videos, total, err := repo.FindWithFilter(VideoFilter{Keywords: []string{"DESCALING", "drill"}, SortBy: VideoSortTitle, SortAscending: true})
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		assert.Equal(t, []string{"Coffee machine descaling", "Wall mount installation"}, titles(videos))
	})

	t.Run("like wildcards are literal", func(t *testing.T) {
		videos, _, err := repo.FindWithFilter(VideoFilter{Keywords: []string{"100%"}})
		require.NoError(t, err)
		assert.Equal(t, []string{"Error E3 fix"}, titles(videos))

		videos, total, err := repo.FindWithFilter(VideoFilter{Keywords: []string{"%"}})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		assert.Len(t, videos, 1)

		_, total, err = repo.FindWithFilter(VideoFilter{Keywords: []string{"_"}})
		require.NoError(t, err)
		assert.Zero(t, total)
	})

	t.Run("id restriction", func(t *testing.T) {
		_, total, err := repo.FindWithFilter(VideoFilter{IDs: []uint{}})
		require.NoError(t, err)
		assert.Zero(t, total)
	})

	t.Run("pagination keeps total", func(t *testing.T) {
		videos, total, err := repo.FindWithFilter(VideoFilter{SortBy: VideoSortViewCount, Limit: 2, Offset: 1})
		require.NoError(t, err)
		assert.Equal(t, int64(4), total)
		assert.Equal(t, []string{"Coffee machine descaling", "Error E3 fix"}, titles(videos))
	})
}

func TestVideoRepository_Suggest(t *testing.T) {
	testDB, repo := setupVideoTest(t)
	defer db.CleanupTestDB(testDB)

	seedVideos(t, repo)

	suggestions, err := repo.Suggest("abc123", 10)
	require.NoError(t, err)
	require.Len(t, suggestions, 1)
	assert.Equal(t, "Coffee machine descaling", suggestions[0].Title)
	require.NotNil(t, suggestions[0].ProductID)
	assert.Equal(t, "ABC123456a", *suggestions[0].ProductID)

	suggestions, err = repo.Suggest("in", 2)
	require.NoError(t, err)
	require.Len(t, suggestions, 2)
	assert.Equal(t, "Wall mount installation", suggestions[0].Title)
	assert.Equal(t, "Grinder unboxing", suggestions[1].Title)
}

func TestVideoRepository_DeleteDecrementsUsage(t *testing.T) {
	testDB, repo := setupVideoTest(t)
	defer db.CleanupTestDB(testDB)

	tags := NewTagRepository(testDB)
	video := createTestVideo(t, repo, "To remove")
	keep := createTestVideo(t, repo, "To keep")
	tag := createTestTag(t, tags, "清潔保養", model.TagTypeKeyword)

	_, err := tags.AddTagToVideo(video.ID, tag.ID, 3)
	require.NoError(t, err)
	_, err = tags.AddTagToVideo(keep.ID, tag.ID, 3)
	require.NoError(t, err)

	require.NoError(t, repo.Delete(video.ID))

	_, err = repo.FindByID(video.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	assert.Equal(t, int64(1), usageCount(t, tags, tag.ID))

	assert.ErrorIs(t, repo.Delete(video.ID), gorm.ErrRecordNotFound)
}

func TestVideoRepository_FindInBatches(t *testing.T) {
	testDB, repo := setupVideoTest(t)
	defer db.CleanupTestDB(testDB)

	seedVideos(t, repo)

	batches := 0
	seen := 0
	err := repo.FindInBatches(3, func(videos []model.Video) error {
		batches++
		seen += len(videos)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, batches)
	assert.Equal(t, 4, seen)
}
