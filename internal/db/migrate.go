package db

import (
	"github.com/ikkim/videokb-backend/internal/app/model"
	"github.com/ikkim/videokb-backend/pkg/logger"
	"gorm.io/gorm"
)

// models lists every table owned by this service, parents first.
func models() []interface{} {
	return []interface{}{
		&model.Video{},
		&model.Tag{},
		&model.VideoTag{},
	}
}

// Migrate runs database migrations
func Migrate() error {
	logger.Info("Running database migrations...")

	if err := DB.AutoMigrate(models()...); err != nil {
		logger.Error("Failed to run migrations", err)
		return err
	}

	logger.Info("Database migrations completed successfully", map[string]interface{}{
		"models_count": len(models()),
	})
	return nil
}

// Seed adds the baseline keyword tags when the tag table is empty
func Seed() error {
	return seedTags(DB)
}

// seedTags 建立預設關鍵字標籤
func seedTags(db *gorm.DB) error {
	var count int64
	if err := db.Model(&model.Tag{}).Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		logger.Info("Tags already seeded, skipping...", map[string]interface{}{
			"existing_count": count,
		})
		return nil
	}

	logger.Info("Seeding tag data...")

	tags := []model.Tag{
		{Name: "清潔保養", Type: model.TagTypeKeyword, Color: "#2e7d32"},
		{Name: "故障排除", Type: model.TagTypeKeyword, Color: "#c62828"},
		{Name: "安裝教學", Type: model.TagTypeKeyword, Color: "#1565c0"},
		{Name: "開箱", Type: model.TagTypeKeyword, Color: "#6a1b9a"},
		{Name: "耗材更換", Type: model.TagTypeKeyword, Color: "#ef6c00"},
		{Name: "常見問題", Type: model.TagTypeKeyword, Color: "#455a64"},
	}

	if err := db.Create(&tags).Error; err != nil {
		logger.Error("Failed to seed tags", err)
		return err
	}

	logger.Info("Tags seeded successfully", map[string]interface{}{
		"total_tags": len(tags),
	})
	return nil
}
