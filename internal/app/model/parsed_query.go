package model

type SortField string

const (
	SortByRating    SortField = "rating"
	SortByViewCount SortField = "viewCount"
	SortByCreatedAt SortField = "createdAt"
	SortByTitle     SortField = "title"
)

type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// RatingRange bounds video.rating inclusively; either side may be absent.
type RatingRange struct {
	Min *int `json:"min,omitempty" validate:"omitempty,gte=1,lte=5"`
	Max *int `json:"max,omitempty" validate:"omitempty,gte=1,lte=5"`
}

// ParsedQuery is the structured search filter, produced either by the
// natural-language parser or supplied directly by a client. The JSON shape is
// closed: decoding rejects unknown properties.
type ParsedQuery struct {
	Rating      *RatingRange   `json:"rating,omitempty"`
	Category    *VideoCategory `json:"category,omitempty" validate:"omitempty,oneof=product_intro maintenance troubleshooting installation other"`
	Platform    *VideoPlatform `json:"platform,omitempty" validate:"omitempty,oneof=youtube tiktok instagram"`
	ShareStatus *ShareStatus   `json:"shareStatus,omitempty" validate:"omitempty,oneof=private public"`
	Tags        []string       `json:"tags,omitempty" validate:"omitempty,dive,required,max=100"`
	Keywords    []string       `json:"keywords,omitempty" validate:"omitempty,dive,required,max=100"`
	SortBy      *SortField     `json:"sortBy,omitempty" validate:"omitempty,oneof=rating viewCount createdAt title"`
	SortOrder   *SortOrder     `json:"sortOrder,omitempty" validate:"omitempty,oneof=asc desc"`
}
