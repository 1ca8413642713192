package model

import (
	"time"
)

type TagType string

const (
	TagTypeProductCode TagType = "PRODUCT_CODE"
	TagTypeKeyword     TagType = "KEYWORD"
)

const (
	MinTagWeight = 1
	MaxTagWeight = 10
)

// Tag is a label attachable to videos.
// UsageCount mirrors the number of video_tags rows referencing the tag.
type Tag struct {
	ID          uint      `gorm:"primarykey" json:"id"`
	Name        string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"name"`
	Type        TagType   `gorm:"type:varchar(20);index;not null" json:"type"`
	Description string    `gorm:"type:text" json:"description"`
	Color       string    `gorm:"type:varchar(7)" json:"color"`
	UsageCount  int64     `gorm:"not null;default:0" json:"usage_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (Tag) TableName() string {
	return "tags"
}

// VideoTag is the weighted many-to-many relation between videos and tags
// 影片與標籤的加權關聯
type VideoTag struct {
	VideoID   uint      `gorm:"primaryKey;index" json:"video_id"`
	TagID     uint      `gorm:"primaryKey;index" json:"tag_id"`
	Weight    int       `gorm:"not null" json:"weight"` // 1~10
	Video     Video     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Tag       Tag       `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"tag,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (VideoTag) TableName() string {
	return "video_tags"
}

// TagRelation is one row of a video's tag set as seen by the scorer.
type TagRelation struct {
	VideoID    uint
	TagID      uint
	Weight     int
	UsageCount int64
	Type       TagType
}
