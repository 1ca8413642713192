package service

import "github.com/ikkim/videokb-backend/internal/app/model"

// Type multipliers: a single product-code match outranks any keyword combination.
const (
	ProductCodeMultiplier int64 = 10000
	KeywordMultiplier     int64 = 1
)

// TypeMultiplier 標籤類型權重倍數
func TypeMultiplier(tagType model.TagType) int64 {
	if tagType == model.TagTypeProductCode {
		return ProductCodeMultiplier
	}
	return KeywordMultiplier
}

// SmartScore sums weight × usage_count × multiplier over one video's relations.
func SmartScore(relations []model.TagRelation) int64 {
	var score int64
	for _, rel := range relations {
		score += relationScore(rel)
	}
	return score
}

// smartScoresByVideo groups relations of many videos and scores each one.
func smartScoresByVideo(relations []model.TagRelation) map[uint]int64 {
	scores := make(map[uint]int64)
	for _, rel := range relations {
		scores[rel.VideoID] += relationScore(rel)
	}
	return scores
}

func relationScore(rel model.TagRelation) int64 {
	if rel.Weight <= 0 || rel.UsageCount <= 0 {
		return 0
	}
	return int64(rel.Weight) * rel.UsageCount * TypeMultiplier(rel.Type)
}
