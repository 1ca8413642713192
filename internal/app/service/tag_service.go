package service

import (
	"errors"
	"io"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/ikkim/videokb-backend/internal/app/model"
	"github.com/ikkim/videokb-backend/internal/app/repository"
	"github.com/ikkim/videokb-backend/pkg/logger"
	"gorm.io/gorm"
)

var (
	ErrTagNotFound    = errors.New("tag not found")
	ErrTagNameExists  = errors.New("tag name already exists")
	ErrInvalidTagName = errors.New("tag name must be 1 to 100 characters")
	ErrInvalidWeight  = errors.New("weight must be between 1 and 10")
)

const maxTagNameLength = 100

// TagInput 標籤建立/修改輸入
type TagInput struct {
	Name        string
	Description string
	Color       string
}

// ScoredVideo is a video annotated with its smart score.
type ScoredVideo struct {
	model.Video
	SmartScore int64 `json:"smart_score"`
}

type TagService interface {
	ListTags(tagType *model.TagType) ([]model.Tag, error)
	GetTag(id uint) (*model.Tag, error)
	CreateTag(input TagInput) (*model.Tag, error)
	UpdateTag(id uint, input TagInput) (*model.Tag, error)
	DeleteTag(id uint) error
	EnsureProductCodeTag(productID string) (*model.Tag, error)

	GetVideoTags(videoID uint) ([]model.VideoTag, error)
	GetTagVideos(tagID uint) ([]model.Video, error)
	AddTagToVideo(videoID, tagID uint, weight int) error
	RemoveTagFromVideo(videoID, tagID uint) error

	CalculateVideoScore(videoID uint) (int64, error)
	SearchByTags(tagIDs []uint, matchAll bool, limit int) ([]ScoredVideo, error)
	ListBySmartScore(limit int) ([]ScoredVideo, error)

	ExportTagsXLSX(w io.Writer) error
	ReconcileUsageCounts() (int64, error)
}

type tagService struct {
	tagRepo   repository.TagRepository
	videoRepo repository.VideoRepository
	limits    PageLimits
}

func NewTagService(tagRepo repository.TagRepository, videoRepo repository.VideoRepository, limits PageLimits) TagService {
	return &tagService{
		tagRepo:   tagRepo,
		videoRepo: videoRepo,
		limits:    limits.orDefault(),
	}
}

// ListTags 標籤列表 (依使用次數排序)
func (s *tagService) ListTags(tagType *model.TagType) ([]model.Tag, error) {
	return s.tagRepo.FindAll(repository.TagFilter{Type: tagType})
}

// GetTag 標籤查詢
func (s *tagService) GetTag(id uint) (*model.Tag, error) {
	tag, err := s.tagRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTagNotFound
		}
		return nil, err
	}
	return tag, nil
}

// CreateTag 建立標籤，類型由名稱自動判斷
func (s *tagService) CreateTag(input TagInput) (*model.Tag, error) {
	name, err := normalizeTagName(input.Name)
	if err != nil {
		return nil, err
	}

	if err := s.ensureNameAvailable(name, 0); err != nil {
		return nil, err
	}

	tag := &model.Tag{
		Name:        name,
		Type:        ClassifyTagName(name),
		Description: strings.TrimSpace(input.Description),
		Color:       strings.TrimSpace(input.Color),
	}
	if err := s.tagRepo.Create(tag); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrTagNameExists
		}
		return nil, err
	}

	logger.Info("Tag created", map[string]interface{}{
		"tag_id": tag.ID,
		"name":   tag.Name,
		"type":   tag.Type,
	})
	return tag, nil
}

// UpdateTag 修改標籤；改名時重新分類
func (s *tagService) UpdateTag(id uint, input TagInput) (*model.Tag, error) {
	tag, err := s.GetTag(id)
	if err != nil {
		return nil, err
	}

	name, err := normalizeTagName(input.Name)
	if err != nil {
		return nil, err
	}

	if name != tag.Name {
		if err := s.ensureNameAvailable(name, tag.ID); err != nil {
			return nil, err
		}
	}

	tag.Name = name
	tag.Type = ClassifyTagName(name)
	tag.Description = strings.TrimSpace(input.Description)
	tag.Color = strings.TrimSpace(input.Color)

	if err := s.tagRepo.Update(tag); err != nil {
		switch {
		case errors.Is(err, gorm.ErrDuplicatedKey):
			return nil, ErrTagNameExists
		case errors.Is(err, gorm.ErrRecordNotFound):
			return nil, ErrTagNotFound
		}
		return nil, err
	}

	return s.GetTag(id)
}

// DeleteTag 刪除標籤及其所有關聯
func (s *tagService) DeleteTag(id uint) error {
	if err := s.tagRepo.Delete(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTagNotFound
		}
		return err
	}

	logger.Info("Tag deleted", map[string]interface{}{
		"tag_id": id,
	})
	return nil
}

// EnsureProductCodeTag makes sure a PRODUCT_CODE tag exists for the product id.
// Blank or non product-code ids are ignored and return (nil, nil).
func (s *tagService) EnsureProductCodeTag(productID string) (*model.Tag, error) {
	productID = strings.TrimSpace(productID)
	if productID == "" || ClassifyTagName(productID) != model.TagTypeProductCode {
		return nil, nil
	}

	existing, err := s.tagRepo.FindByName(productID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	tag := &model.Tag{
		Name:        productID,
		Type:        model.TagTypeProductCode,
		Description: "產品型號 " + productID,
	}
	if err := s.tagRepo.Create(tag); err != nil {
		// Lost the race on the unique index
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return s.tagRepo.FindByName(productID)
		}
		return nil, err
	}

	logger.Info("Product code tag ensured", map[string]interface{}{
		"tag_id":     tag.ID,
		"product_id": productID,
	})
	return tag, nil
}

// GetVideoTags 影片的標籤 (依權重排序)
func (s *tagService) GetVideoTags(videoID uint) ([]model.VideoTag, error) {
	if err := s.requireVideo(videoID); err != nil {
		return nil, err
	}
	return s.tagRepo.FindVideoTags(videoID)
}

// GetTagVideos 使用此標籤的影片
func (s *tagService) GetTagVideos(tagID uint) ([]model.Video, error) {
	if _, err := s.GetTag(tagID); err != nil {
		return nil, err
	}
	return s.tagRepo.FindTagVideos(tagID)
}

// AddTagToVideo 為影片加上標籤；已存在時只更新權重
func (s *tagService) AddTagToVideo(videoID, tagID uint, weight int) error {
	if weight < model.MinTagWeight || weight > model.MaxTagWeight {
		return ErrInvalidWeight
	}
	if err := s.requireVideo(videoID); err != nil {
		return err
	}
	if _, err := s.GetTag(tagID); err != nil {
		return err
	}

	_, err := s.tagRepo.AddTagToVideo(videoID, tagID, weight)
	return err
}

// RemoveTagFromVideo 移除影片標籤；關聯不存在時不做任何事
func (s *tagService) RemoveTagFromVideo(videoID, tagID uint) error {
	removed, err := s.tagRepo.RemoveTagFromVideo(videoID, tagID)
	if err != nil {
		return err
	}
	if !removed {
		logger.Debug("Tag relation not present, nothing removed", map[string]interface{}{
			"video_id": videoID,
			"tag_id":   tagID,
		})
	}
	return nil
}

// CalculateVideoScore recomputes the smart score from current relations.
// An unknown video scores 0.
func (s *tagService) CalculateVideoScore(videoID uint) (int64, error) {
	relations, err := s.tagRepo.FindRelations([]uint{videoID})
	if err != nil {
		return 0, err
	}
	return SmartScore(relations), nil
}

// SearchByTags ranks videos related to any (or all) of the given tags.
func (s *tagService) SearchByTags(tagIDs []uint, matchAll bool, limit int) ([]ScoredVideo, error) {
	limit, err := s.limits.Limit(limit)
	if err != nil {
		return nil, err
	}

	tagIDs = uniqueIDs(tagIDs)
	if len(tagIDs) == 0 {
		return []ScoredVideo{}, nil
	}

	videoIDs, err := s.tagRepo.FindVideoIDsByTags(tagIDs, matchAll)
	if err != nil {
		return nil, err
	}

	logger.Debug("Tag search candidates", map[string]interface{}{
		"tag_ids":    tagIDs,
		"match_all":  matchAll,
		"candidates": len(videoIDs),
	})
	return s.rank(videoIDs, limit)
}

// ListBySmartScore ranks every video that carries at least one tag.
func (s *tagService) ListBySmartScore(limit int) ([]ScoredVideo, error) {
	limit, err := s.limits.Limit(limit)
	if err != nil {
		return nil, err
	}

	videoIDs, err := s.tagRepo.FindTaggedVideoIDs()
	if err != nil {
		return nil, err
	}
	return s.rank(videoIDs, limit)
}

func (s *tagService) ReconcileUsageCounts() (int64, error) {
	return s.tagRepo.ReconcileUsageCounts()
}

// rank scores the candidates and orders them by score, then newest, then id.
func (s *tagService) rank(videoIDs []uint, limit int) ([]ScoredVideo, error) {
	if len(videoIDs) == 0 {
		return []ScoredVideo{}, nil
	}

	videos, err := s.videoRepo.FindByIDs(videoIDs)
	if err != nil {
		return nil, err
	}
	relations, err := s.tagRepo.FindRelations(videoIDs)
	if err != nil {
		return nil, err
	}
	scores := smartScoresByVideo(relations)

	results := make([]ScoredVideo, 0, len(videos))
	for _, video := range videos {
		results = append(results, ScoredVideo{Video: video, SmartScore: scores[video.ID]})
	}

	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.SmartScore != b.SmartScore {
			return a.SmartScore > b.SmartScore
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})

	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func (s *tagService) requireVideo(videoID uint) error {
	if _, err := s.videoRepo.FindByID(videoID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrVideoNotFound
		}
		return err
	}
	return nil
}

func (s *tagService) ensureNameAvailable(name string, selfID uint) error {
	existing, err := s.tagRepo.FindByName(name)
	if err == nil {
		if existing.ID != selfID {
			return ErrTagNameExists
		}
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	return err
}

func normalizeTagName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || utf8.RuneCountInString(name) > maxTagNameLength {
		return "", ErrInvalidTagName
	}
	return name, nil
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
