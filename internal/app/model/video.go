package model

import (
	"time"

	"gorm.io/gorm"
)

type VideoCategory string

const (
	CategoryProductIntro    VideoCategory = "product_intro"
	CategoryMaintenance     VideoCategory = "maintenance"
	CategoryTroubleshooting VideoCategory = "troubleshooting"
	CategoryInstallation    VideoCategory = "installation"
	CategoryOther           VideoCategory = "other"
)

type VideoPlatform string

const (
	PlatformYouTube   VideoPlatform = "youtube"
	PlatformTikTok    VideoPlatform = "tiktok"
	PlatformInstagram VideoPlatform = "instagram"
)

type ShareStatus string

const (
	SharePrivate ShareStatus = "private"
	SharePublic  ShareStatus = "public"
)

// Video is a knowledge-base entry. The ranking core only reads it.
// 影片知識庫條目
type Video struct {
	ID          uint           `gorm:"primarykey" json:"id"`
	Title       string         `gorm:"type:varchar(255);not null" json:"title"`
	Description string         `gorm:"type:text" json:"description"`
	Category    VideoCategory  `gorm:"type:varchar(30);index" json:"category"`
	Platform    VideoPlatform  `gorm:"type:varchar(20);index" json:"platform"`
	ShareStatus ShareStatus    `gorm:"type:varchar(10);default:private" json:"share_status"`
	Rating      *int           `json:"rating"`                                     // 1~5, nil = 未評分
	ProductID   *string        `gorm:"type:varchar(50);index" json:"product_id"` // 產品型號
	ViewCount   int64          `gorm:"default:0" json:"view_count"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Tags []VideoTag `gorm:"foreignKey:VideoID" json:"tags,omitempty"`
}

func (Video) TableName() string {
	return "videos"
}

func (c VideoCategory) Valid() bool {
	switch c {
	case CategoryProductIntro, CategoryMaintenance, CategoryTroubleshooting, CategoryInstallation, CategoryOther:
		return true
	}
	return false
}

func (p VideoPlatform) Valid() bool {
	switch p {
	case PlatformYouTube, PlatformTikTok, PlatformInstagram:
		return true
	}
	return false
}

func (s ShareStatus) Valid() bool {
	return s == SharePrivate || s == SharePublic
}
