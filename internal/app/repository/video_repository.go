package repository

import (
	"strings"

	"github.com/ikkim/videokb-backend/internal/app/model"
	"github.com/ikkim/videokb-backend/pkg/logger"
	"gorm.io/gorm"
)

type VideoSort string

const (
	VideoSortCreatedAt VideoSort = "created_at"
	VideoSortRating    VideoSort = "rating"
	VideoSortViewCount VideoSort = "view_count"
	VideoSortTitle     VideoSort = "title"
)

// VideoFilter is the predicate set of a structured search. All conditions are
// AND-ed; Keywords are OR-ed among themselves.
type VideoFilter struct {
	IDs           []uint // nil = unrestricted
	MinRating     *int
	MaxRating     *int
	Category      *model.VideoCategory
	Platform      *model.VideoPlatform
	ShareStatus   *model.ShareStatus
	Keywords      []string
	SortBy        VideoSort
	SortAscending bool
	Limit         int
	Offset        int
}

type VideoSuggestion struct {
	ID        uint    `json:"id"`
	Title     string  `json:"title"`
	ProductID *string `json:"product_id"`
}

type VideoRepository interface {
	Create(video *model.Video) error
	Update(video *model.Video) error
	Delete(id uint) error
	FindByID(id uint) (*model.Video, error)
	FindByIDs(ids []uint) ([]model.Video, error)
	FindWithFilter(filter VideoFilter) ([]model.Video, int64, error)
	Suggest(query string, limit int) ([]VideoSuggestion, error)
	FindInBatches(batchSize int, fn func(videos []model.Video) error) error
}

type videoRepository struct {
	db *gorm.DB
}

func NewVideoRepository(db *gorm.DB) VideoRepository {
	return &videoRepository{db: db}
}

func (r *videoRepository) Create(video *model.Video) error {
	logger.Debug("Creating video in database", map[string]interface{}{
		"title":    video.Title,
		"category": video.Category,
		"platform": video.Platform,
	})

	if err := r.db.Omit("Tags").Create(video).Error; err != nil {
		logger.Error("Failed to create video in database", err, map[string]interface{}{
			"title": video.Title,
		})
		return err
	}
	return nil
}

func (r *videoRepository) Update(video *model.Video) error {
	logger.Debug("Updating video in database", map[string]interface{}{
		"video_id": video.ID,
	})

	if err := r.db.Omit("Tags").Save(video).Error; err != nil {
		logger.Error("Failed to update video in database", err, map[string]interface{}{
			"video_id": video.ID,
		})
		return err
	}
	return nil
}

// Delete soft-deletes the video and drops its relations, keeping usage counters exact.
func (r *videoRepository) Delete(id uint) error {
	logger.Debug("Deleting video from database", map[string]interface{}{
		"video_id": id,
	})

	err := r.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Delete(&model.Video{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		err := tx.Model(&model.Tag{}).
			Where("id IN (?) AND usage_count > 0", tx.Model(&model.VideoTag{}).Select("tag_id").Where("video_id = ?", id)).
			UpdateColumn("usage_count", gorm.Expr("usage_count - ?", 1)).Error
		if err != nil {
			return err
		}
		return tx.Where("video_id = ?", id).Delete(&model.VideoTag{}).Error
	})
	if err != nil {
		logger.Error("Failed to delete video from database", err, map[string]interface{}{
			"video_id": id,
		})
	}
	return err
}

func (r *videoRepository) FindByID(id uint) (*model.Video, error) {
	var video model.Video
	if err := r.db.First(&video, id).Error; err != nil {
		return nil, err
	}
	return &video, nil
}

// FindByIDs loads videos in arbitrary order; callers re-order as needed.
func (r *videoRepository) FindByIDs(ids []uint) ([]model.Video, error) {
	var videos []model.Video
	if len(ids) == 0 {
		return videos, nil
	}
	if err := r.db.Where("id IN ?", ids).Find(&videos).Error; err != nil {
		logger.Error("Failed to find videos by IDs", err, map[string]interface{}{
			"count": len(ids),
		})
		return nil, err
	}
	return videos, nil
}

func (r *videoRepository) applyFilter(query *gorm.DB, filter VideoFilter) *gorm.DB {
	if filter.IDs != nil {
		query = query.Where("videos.id IN ?", filter.IDs)
	}
	if filter.MinRating != nil {
		query = query.Where("videos.rating >= ?", *filter.MinRating)
	}
	if filter.MaxRating != nil {
		query = query.Where("videos.rating <= ?", *filter.MaxRating)
	}
	if filter.Category != nil {
		query = query.Where("videos.category = ?", *filter.Category)
	}
	if filter.Platform != nil {
		query = query.Where("videos.platform = ?", *filter.Platform)
	}
	if filter.ShareStatus != nil {
		query = query.Where("videos.share_status = ?", *filter.ShareStatus)
	}

	if len(filter.Keywords) > 0 {
		clauses := make([]string, 0, len(filter.Keywords))
		args := make([]interface{}, 0, len(filter.Keywords)*2)
		for _, keyword := range filter.Keywords {
			like := containsPattern(keyword)
			clauses = append(clauses, `LOWER(videos.title) LIKE ? ESCAPE '\' OR LOWER(videos.description) LIKE ? ESCAPE '\'`)
			args = append(args, like, like)
		}
		query = query.Where("("+strings.Join(clauses, " OR ")+")", args...)
	}
	return query
}

func (r *videoRepository) FindWithFilter(filter VideoFilter) ([]model.Video, int64, error) {
	logger.Debug("Finding videos with filter", map[string]interface{}{
		"id_count":     len(filter.IDs),
		"category":     filter.Category,
		"platform":     filter.Platform,
		"share_status": filter.ShareStatus,
		"keywords":     filter.Keywords,
		"sort_by":      filter.SortBy,
		"ascending":    filter.SortAscending,
		"limit":        filter.Limit,
		"offset":       filter.Offset,
	})

	var total int64
	if err := r.applyFilter(r.db.Model(&model.Video{}), filter).Count(&total).Error; err != nil {
		logger.Error("Failed to count videos with filter", err, nil)
		return nil, 0, err
	}

	direction := "DESC"
	if filter.SortAscending {
		direction = "ASC"
	}

	query := r.applyFilter(r.db.Model(&model.Video{}), filter)
	switch filter.SortBy {
	case VideoSortRating:
		// 未評分的影片不論升降冪都排在最後
		query = query.Order("videos.rating " + direction + " NULLS LAST")
	case VideoSortViewCount:
		query = query.Order("videos.view_count " + direction)
	case VideoSortTitle:
		query = query.Order("videos.title " + direction)
	case VideoSortCreatedAt:
		fallthrough
	default:
		query = query.Order("videos.created_at " + direction)
	}
	query = query.Order("videos.id " + direction)

	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var videos []model.Video
	if err := query.Find(&videos).Error; err != nil {
		logger.Error("Failed to find videos with filter", err, nil)
		return nil, 0, err
	}

	logger.Debug("Videos found with filter", map[string]interface{}{
		"count": len(videos),
		"total": total,
	})
	return videos, total, nil
}

// Suggest matches the query as a case-insensitive substring of title or product id.
func (r *videoRepository) Suggest(query string, limit int) ([]VideoSuggestion, error) {
	like := containsPattern(query)

	var suggestions []VideoSuggestion
	err := r.db.Model(&model.Video{}).
		Select("videos.id, videos.title, videos.product_id").
		Where(`LOWER(videos.title) LIKE ? ESCAPE '\' OR LOWER(COALESCE(videos.product_id, '')) LIKE ? ESCAPE '\'`, like, like).
		Order("videos.created_at DESC, videos.id DESC").
		Limit(limit).
		Scan(&suggestions).Error
	if err != nil {
		logger.Error("Failed to suggest videos", err, map[string]interface{}{
			"query": query,
		})
		return nil, err
	}
	return suggestions, nil
}

func (r *videoRepository) FindInBatches(batchSize int, fn func(videos []model.Video) error) error {
	var batch []model.Video
	return r.db.Model(&model.Video{}).FindInBatches(&batch, batchSize, func(tx *gorm.DB, _ int) error {
		return fn(batch)
	}).Error
}

// containsPattern builds a lower-cased LIKE pattern with wildcards escaped.
func containsPattern(s string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + replacer.Replace(strings.ToLower(s)) + "%"
}
