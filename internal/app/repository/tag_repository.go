package repository

import (
	"github.com/ikkim/videokb-backend/internal/app/model"
	"github.com/ikkim/videokb-backend/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TagFilter struct {
	Type *model.TagType
}

type TagRepository interface {
	FindByID(id uint) (*model.Tag, error)
	FindByName(name string) (*model.Tag, error)
	FindByNames(names []string) ([]model.Tag, error)
	FindAll(filter TagFilter) ([]model.Tag, error)
	Create(tag *model.Tag) error
	Update(tag *model.Tag) error
	Delete(id uint) error

	FindVideoTags(videoID uint) ([]model.VideoTag, error)
	FindTagVideos(tagID uint) ([]model.Video, error)
	FindRelations(videoIDs []uint) ([]model.TagRelation, error)
	AddTagToVideo(videoID, tagID uint, weight int) (created bool, err error)
	RemoveTagFromVideo(videoID, tagID uint) (removed bool, err error)

	FindVideoIDsByTags(tagIDs []uint, matchAll bool) ([]uint, error)
	FindTaggedVideoIDs() ([]uint, error)
	ReconcileUsageCounts() (int64, error)
}

type tagRepository struct {
	db *gorm.DB
}

func NewTagRepository(db *gorm.DB) TagRepository {
	return &tagRepository{db: db}
}

func (r *tagRepository) FindByID(id uint) (*model.Tag, error) {
	var tag model.Tag
	if err := r.db.First(&tag, id).Error; err != nil {
		return nil, err
	}
	return &tag, nil
}

func (r *tagRepository) FindByName(name string) (*model.Tag, error) {
	var tag model.Tag
	if err := r.db.Where("name = ?", name).First(&tag).Error; err != nil {
		return nil, err
	}
	return &tag, nil
}

// FindByNames resolves exact names; unknown names are simply absent from the result.
func (r *tagRepository) FindByNames(names []string) ([]model.Tag, error) {
	var tags []model.Tag
	if len(names) == 0 {
		return tags, nil
	}
	if err := r.db.Where("name IN ?", names).Find(&tags).Error; err != nil {
		logger.Error("Failed to resolve tag names", err, map[string]interface{}{
			"names": names,
		})
		return nil, err
	}
	return tags, nil
}

func (r *tagRepository) FindAll(filter TagFilter) ([]model.Tag, error) {
	query := r.db.Model(&model.Tag{})
	if filter.Type != nil {
		query = query.Where("type = ?", *filter.Type)
	}

	var tags []model.Tag
	if err := query.Order("usage_count DESC, name ASC").Find(&tags).Error; err != nil {
		logger.Error("Failed to list tags", err, nil)
		return nil, err
	}
	return tags, nil
}

func (r *tagRepository) Create(tag *model.Tag) error {
	logger.Debug("Creating tag in database", map[string]interface{}{
		"name": tag.Name,
		"type": tag.Type,
	})

	if err := r.db.Create(tag).Error; err != nil {
		logger.Error("Failed to create tag in database", err, map[string]interface{}{
			"name": tag.Name,
		})
		return err
	}
	return nil
}

// Update writes the editable columns only; usage_count is owned by the relation methods.
func (r *tagRepository) Update(tag *model.Tag) error {
	result := r.db.Model(&model.Tag{}).Where("id = ?", tag.ID).Updates(map[string]interface{}{
		"name":        tag.Name,
		"type":        tag.Type,
		"description": tag.Description,
		"color":       tag.Color,
	})
	if result.Error != nil {
		logger.Error("Failed to update tag in database", result.Error, map[string]interface{}{
			"tag_id": tag.ID,
		})
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete removes the tag and every relation referencing it.
func (r *tagRepository) Delete(id uint) error {
	logger.Debug("Deleting tag from database", map[string]interface{}{
		"tag_id": id,
	})

	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("tag_id = ?", id).Delete(&model.VideoTag{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&model.Tag{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *tagRepository) FindVideoTags(videoID uint) ([]model.VideoTag, error) {
	var relations []model.VideoTag
	err := r.db.Preload("Tag").
		Where("video_id = ?", videoID).
		Order("weight DESC, tag_id ASC").
		Find(&relations).Error
	if err != nil {
		logger.Error("Failed to find video tags", err, map[string]interface{}{
			"video_id": videoID,
		})
		return nil, err
	}
	return relations, nil
}

func (r *tagRepository) FindTagVideos(tagID uint) ([]model.Video, error) {
	var videos []model.Video
	err := r.db.Model(&model.Video{}).
		Joins("JOIN video_tags ON video_tags.video_id = videos.id").
		Where("video_tags.tag_id = ?", tagID).
		Order("video_tags.weight DESC, videos.id DESC").
		Find(&videos).Error
	if err != nil {
		logger.Error("Failed to find tag videos", err, map[string]interface{}{
			"tag_id": tagID,
		})
		return nil, err
	}
	return videos, nil
}

// FindRelations returns the scoring inputs for the given videos in one query.
func (r *tagRepository) FindRelations(videoIDs []uint) ([]model.TagRelation, error) {
	var relations []model.TagRelation
	if len(videoIDs) == 0 {
		return relations, nil
	}
	err := r.db.Table("video_tags").
		Select("video_tags.video_id, video_tags.tag_id, video_tags.weight, tags.usage_count, tags.type").
		Joins("JOIN tags ON tags.id = video_tags.tag_id").
		Where("video_tags.video_id IN ?", videoIDs).
		Scan(&relations).Error
	if err != nil {
		logger.Error("Failed to load tag relations", err, map[string]interface{}{
			"video_count": len(videoIDs),
		})
		return nil, err
	}
	return relations, nil
}

// AddTagToVideo inserts the relation and bumps usage_count, or updates the
// weight in place when the pair already exists. The composite primary key makes
// the insert the arbiter, so concurrent first-time adds increment once.
func (r *tagRepository) AddTagToVideo(videoID, tagID uint, weight int) (bool, error) {
	created := false
	err := r.db.Transaction(func(tx *gorm.DB) error {
		relation := model.VideoTag{VideoID: videoID, TagID: tagID, Weight: weight}
		result := tx.Omit(clause.Associations).Clauses(clause.OnConflict{DoNothing: true}).Create(&relation)
		if result.Error != nil {
			return result.Error
		}

		if result.RowsAffected == 1 {
			created = true
			return tx.Model(&model.Tag{}).Where("id = ?", tagID).
				UpdateColumn("usage_count", gorm.Expr("usage_count + ?", 1)).Error
		}

		return tx.Model(&model.VideoTag{}).
			Where("video_id = ? AND tag_id = ?", videoID, tagID).
			Updates(map[string]interface{}{"weight": weight}).Error
	})
	if err != nil {
		logger.Error("Failed to add tag to video", err, map[string]interface{}{
			"video_id": videoID,
			"tag_id":   tagID,
			"weight":   weight,
		})
		return false, err
	}

	logger.Debug("Tag relation saved", map[string]interface{}{
		"video_id": videoID,
		"tag_id":   tagID,
		"weight":   weight,
		"created":  created,
	})
	return created, nil
}

// RemoveTagFromVideo deletes the relation and decrements usage_count once.
// A missing relation is not an error.
func (r *tagRepository) RemoveTagFromVideo(videoID, tagID uint) (bool, error) {
	removed := false
	err := r.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Where("video_id = ? AND tag_id = ?", videoID, tagID).Delete(&model.VideoTag{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}
		removed = true
		return tx.Model(&model.Tag{}).Where("id = ? AND usage_count > 0", tagID).
			UpdateColumn("usage_count", gorm.Expr("usage_count - ?", 1)).Error
	})
	if err != nil {
		logger.Error("Failed to remove tag from video", err, map[string]interface{}{
			"video_id": videoID,
			"tag_id":   tagID,
		})
		return false, err
	}
	return removed, nil
}

// FindVideoIDsByTags returns live videos related to any (or, with matchAll,
// every) of the given tags.
func (r *tagRepository) FindVideoIDsByTags(tagIDs []uint, matchAll bool) ([]uint, error) {
	var ids []uint
	if len(tagIDs) == 0 {
		return ids, nil
	}

	query := r.db.Table("video_tags").
		Select("video_tags.video_id").
		Joins("JOIN videos ON videos.id = video_tags.video_id AND videos.deleted_at IS NULL").
		Where("video_tags.tag_id IN ?", tagIDs).
		Group("video_tags.video_id")
	if matchAll {
		query = query.Having("COUNT(DISTINCT video_tags.tag_id) = ?", len(tagIDs))
	}

	if err := query.Pluck("video_tags.video_id", &ids).Error; err != nil {
		logger.Error("Failed to find videos by tags", err, map[string]interface{}{
			"tag_ids":   tagIDs,
			"match_all": matchAll,
		})
		return nil, err
	}
	return ids, nil
}

// FindTaggedVideoIDs returns every live video carrying at least one tag.
func (r *tagRepository) FindTaggedVideoIDs() ([]uint, error) {
	var ids []uint
	err := r.db.Table("video_tags").
		Joins("JOIN videos ON videos.id = video_tags.video_id AND videos.deleted_at IS NULL").
		Group("video_tags.video_id").
		Pluck("video_tags.video_id", &ids).Error
	if err != nil {
		logger.Error("Failed to find tagged videos", err, nil)
		return nil, err
	}
	return ids, nil
}

// ReconcileUsageCounts recomputes usage_count from video_tags and returns the
// number of tags whose counter had drifted.
func (r *tagRepository) ReconcileUsageCounts() (int64, error) {
	const actual = "(SELECT COUNT(*) FROM video_tags WHERE video_tags.tag_id = tags.id)"

	result := r.db.Model(&model.Tag{}).
		Where("usage_count <> " + actual).
		UpdateColumn("usage_count", gorm.Expr(actual))
	if result.Error != nil {
		logger.Error("Failed to reconcile tag usage counts", result.Error)
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
