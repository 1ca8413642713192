package service

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/ikkim/videokb-backend/internal/app/model"
	"github.com/ikkim/videokb-backend/internal/app/repository"
	"github.com/ikkim/videokb-backend/pkg/logger"
	"gorm.io/gorm"
)

var (
	ErrVideoNotFound = errors.New("video not found")
	ErrInvalidVideo  = errors.New("invalid video")
)

const rebuildBatchSize = 500

// VideoIndexer keeps the full-text index in step with video writes.
type VideoIndexer interface {
	IndexVideo(video *model.Video) error
	IndexVideos(videos []model.Video) error
	DeleteVideo(id uint) error
	Reset() error
}

// VideoInput 影片建立/修改輸入
type VideoInput struct {
	Title       string
	Description string
	Category    model.VideoCategory
	Platform    model.VideoPlatform
	ShareStatus model.ShareStatus
	Rating      *int
	ProductID   *string
	ViewCount   int64
}

type VideoService interface {
	GetVideo(id uint) (*model.Video, error)
	CreateVideo(input VideoInput) (*model.Video, error)
	UpdateVideo(id uint, input VideoInput) (*model.Video, error)
	DeleteVideo(id uint) error
	RebuildSearchIndex() (int, error)
}

type videoService struct {
	videoRepo  repository.VideoRepository
	tagService TagService
	indexer    VideoIndexer
}

func NewVideoService(videoRepo repository.VideoRepository, tagService TagService, indexer VideoIndexer) VideoService {
	return &videoService{
		videoRepo:  videoRepo,
		tagService: tagService,
		indexer:    indexer,
	}
}

func (s *videoService) GetVideo(id uint) (*model.Video, error) {
	video, err := s.videoRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVideoNotFound
		}
		return nil, err
	}
	return video, nil
}

// CreateVideo 建立影片，並確保產品型號標籤存在
func (s *videoService) CreateVideo(input VideoInput) (*model.Video, error) {
	if err := normalizeVideoInput(&input); err != nil {
		return nil, err
	}

	video := &model.Video{}
	applyVideoInput(video, input)

	if err := s.videoRepo.Create(video); err != nil {
		return nil, err
	}

	s.afterSave(video)

	logger.Info("Video created", map[string]interface{}{
		"video_id":   video.ID,
		"product_id": video.ProductID,
	})
	return video, nil
}

func (s *videoService) UpdateVideo(id uint, input VideoInput) (*model.Video, error) {
	if err := normalizeVideoInput(&input); err != nil {
		return nil, err
	}

	video, err := s.GetVideo(id)
	if err != nil {
		return nil, err
	}

	applyVideoInput(video, input)
	if err := s.videoRepo.Update(video); err != nil {
		return nil, err
	}

	s.afterSave(video)
	return video, nil
}

// DeleteVideo 刪除影片及其標籤關聯
func (s *videoService) DeleteVideo(id uint) error {
	if err := s.videoRepo.Delete(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrVideoNotFound
		}
		return err
	}

	if s.indexer != nil {
		if err := s.indexer.DeleteVideo(id); err != nil {
			logger.Error("Failed to remove video from search index", err, map[string]interface{}{
				"video_id": id,
			})
		}
	}

	logger.Info("Video deleted", map[string]interface{}{
		"video_id": id,
	})
	return nil
}

// RebuildSearchIndex reloads every live video into an emptied index.
func (s *videoService) RebuildSearchIndex() (int, error) {
	if s.indexer == nil {
		return 0, nil
	}
	if err := s.indexer.Reset(); err != nil {
		return 0, err
	}

	total := 0
	err := s.videoRepo.FindInBatches(rebuildBatchSize, func(videos []model.Video) error {
		total += len(videos)
		return s.indexer.IndexVideos(videos)
	})
	if err != nil {
		return total, fmt.Errorf("rebuild search index: %w", err)
	}

	logger.Info("Search index rebuilt", map[string]interface{}{
		"video_count": total,
	})
	return total, nil
}

// afterSave runs the side effects of a write. The database row is the source
// of truth, so failures here are logged and do not fail the write.
func (s *videoService) afterSave(video *model.Video) {
	if video.ProductID != nil {
		if _, err := s.tagService.EnsureProductCodeTag(*video.ProductID); err != nil {
			logger.Error("Failed to ensure product code tag", err, map[string]interface{}{
				"video_id":   video.ID,
				"product_id": *video.ProductID,
			})
		}
	}

	if s.indexer != nil {
		if err := s.indexer.IndexVideo(video); err != nil {
			logger.Error("Failed to index video", err, map[string]interface{}{
				"video_id": video.ID,
			})
		}
	}
}

func normalizeVideoInput(input *VideoInput) error {
	input.Title = strings.TrimSpace(input.Title)
	if input.Title == "" || utf8.RuneCountInString(input.Title) > 255 {
		return fmt.Errorf("%w: title must be 1 to 255 characters", ErrInvalidVideo)
	}
	if !input.Category.Valid() {
		return fmt.Errorf("%w: unknown category %q", ErrInvalidVideo, input.Category)
	}
	if !input.Platform.Valid() {
		return fmt.Errorf("%w: unknown platform %q", ErrInvalidVideo, input.Platform)
	}
	if input.ShareStatus == "" {
		input.ShareStatus = model.SharePrivate
	}
	if !input.ShareStatus.Valid() {
		return fmt.Errorf("%w: unknown share status %q", ErrInvalidVideo, input.ShareStatus)
	}
	if input.Rating != nil && (*input.Rating < 1 || *input.Rating > 5) {
		return fmt.Errorf("%w: rating must be between 1 and 5", ErrInvalidVideo)
	}
	if input.ViewCount < 0 {
		return fmt.Errorf("%w: view count must not be negative", ErrInvalidVideo)
	}
	if input.ProductID != nil {
		productID := strings.TrimSpace(*input.ProductID)
		if productID == "" {
			input.ProductID = nil
		} else if utf8.RuneCountInString(productID) > 50 {
			return fmt.Errorf("%w: product id too long", ErrInvalidVideo)
		} else {
			input.ProductID = &productID
		}
	}
	return nil
}

func applyVideoInput(video *model.Video, input VideoInput) {
	video.Title = input.Title
	video.Description = strings.TrimSpace(input.Description)
	video.Category = input.Category
	video.Platform = input.Platform
	video.ShareStatus = input.ShareStatus
	video.Rating = input.Rating
	video.ProductID = input.ProductID
	video.ViewCount = input.ViewCount
}
