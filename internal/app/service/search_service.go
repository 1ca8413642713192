package service

import (
	"context"
	"strings"

	"github.com/ikkim/videokb-backend/internal/app/model"
	"github.com/ikkim/videokb-backend/internal/app/repository"
	"github.com/ikkim/videokb-backend/internal/fulltext"
	"github.com/ikkim/videokb-backend/internal/validation"
	"github.com/ikkim/videokb-backend/pkg/logger"
)

// SearchResult 結構化搜尋結果
type SearchResult struct {
	Videos []model.Video `json:"videos"`
	Total  int64         `json:"total"`
}

// NaturalSearchResult carries the filter the text was parsed into.
type NaturalSearchResult struct {
	Query *model.ParsedQuery `json:"query"`
	SearchResult
}

type RankedVideo struct {
	model.Video
	Rank float64 `json:"rank"`
}

type FullTextResult struct {
	Results []RankedVideo `json:"results"`
	Total   uint64        `json:"total"`
}

// FullTextSearcher is the relevance index consulted by FullTextSearch.
type FullTextSearcher interface {
	Search(ctx context.Context, query string, limit, offset int) (*fulltext.Result, error)
}

type SearchService interface {
	ParseQuery(ctx context.Context, text string) (*model.ParsedQuery, error)
	Search(ctx context.Context, filter *model.ParsedQuery, limit, offset int) (*SearchResult, error)
	SearchNatural(ctx context.Context, text string, limit, offset int) (*NaturalSearchResult, error)
	FullTextSearch(ctx context.Context, query string, limit, offset int) (*FullTextResult, error)
	Suggest(ctx context.Context, query string, limit int) ([]repository.VideoSuggestion, error)
}

type searchService struct {
	videoRepo repository.VideoRepository
	tagRepo   repository.TagRepository
	parser    QueryParser
	index     FullTextSearcher
	validator *validation.Validator
	limits    PageLimits
}

func NewSearchService(
	videoRepo repository.VideoRepository,
	tagRepo repository.TagRepository,
	parser QueryParser,
	index FullTextSearcher,
	v *validation.Validator,
	limits PageLimits,
) SearchService {
	return &searchService{
		videoRepo: videoRepo,
		tagRepo:   tagRepo,
		parser:    parser,
		index:     index,
		validator: v,
		limits:    limits.orDefault(),
	}
}

func (s *searchService) ParseQuery(ctx context.Context, text string) (*model.ParsedQuery, error) {
	return s.parser.ParseQuery(ctx, text)
}

// Search executes a structured filter. Tags resolve by exact name; when none
// resolve, or no video carries them, the result is empty.
func (s *searchService) Search(ctx context.Context, filter *model.ParsedQuery, limit, offset int) (*SearchResult, error) {
	limit, offset, err := s.limits.Page(limit, offset)
	if err != nil {
		return nil, err
	}
	if filter == nil {
		filter = &model.ParsedQuery{}
	}
	if err := s.validator.Validate(*filter); err != nil {
		return nil, err
	}

	videoFilter := repository.VideoFilter{
		Category:    filter.Category,
		Platform:    filter.Platform,
		ShareStatus: filter.ShareStatus,
		Keywords:    filter.Keywords,
		SortBy:      videoSort(filter.SortBy),
		Limit:       limit,
		Offset:      offset,
	}
	if filter.Rating != nil {
		videoFilter.MinRating = filter.Rating.Min
		videoFilter.MaxRating = filter.Rating.Max
	}
	if filter.SortOrder != nil && *filter.SortOrder == model.SortAsc {
		videoFilter.SortAscending = true
	}

	if len(filter.Tags) > 0 {
		ids, err := s.resolveTaggedVideos(filter.Tags)
		if err != nil {
			return nil, err
		}
		if len(ids) == 0 {
			return &SearchResult{Videos: []model.Video{}, Total: 0}, nil
		}
		videoFilter.IDs = ids
	}

	videos, total, err := s.videoRepo.FindWithFilter(videoFilter)
	if err != nil {
		return nil, err
	}
	if videos == nil {
		videos = []model.Video{}
	}
	return &SearchResult{Videos: videos, Total: total}, nil
}

// SearchNatural parses the text and runs the resulting filter.
func (s *searchService) SearchNatural(ctx context.Context, text string, limit, offset int) (*NaturalSearchResult, error) {
	if _, _, err := s.limits.Page(limit, offset); err != nil {
		return nil, err
	}

	query, err := s.parser.ParseQuery(ctx, text)
	if err != nil {
		return nil, err
	}

	result, err := s.Search(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	return &NaturalSearchResult{Query: query, SearchResult: *result}, nil
}

// FullTextSearch ranks videos by token relevance over title, description and product id.
func (s *searchService) FullTextSearch(ctx context.Context, query string, limit, offset int) (*FullTextResult, error) {
	limit, offset, err := s.limits.Page(limit, offset)
	if err != nil {
		return nil, err
	}

	query = strings.TrimSpace(query)
	if query == "" {
		return &FullTextResult{Results: []RankedVideo{}}, nil
	}

	res, err := s.index.Search(ctx, query, limit, offset)
	if err != nil {
		logger.Error("Full-text search failed", err, map[string]interface{}{
			"query": query,
		})
		return nil, err
	}

	ids := make([]uint, 0, len(res.Hits))
	for _, hit := range res.Hits {
		ids = append(ids, hit.VideoID)
	}
	videos, err := s.videoRepo.FindByIDs(ids)
	if err != nil {
		return nil, err
	}

	byID := make(map[uint]model.Video, len(videos))
	for _, v := range videos {
		byID[v.ID] = v
	}

	results := make([]RankedVideo, 0, len(res.Hits))
	var stale uint64
	for _, hit := range res.Hits {
		video, ok := byID[hit.VideoID]
		if !ok {
			// Indexed but gone from the database
			stale++
			continue
		}
		results = append(results, RankedVideo{Video: video, Rank: hit.Score})
	}

	// Stale hits outside this page cannot be seen, so the total is only
	// corrected for the ones on it.
	total := res.Total
	if stale > total {
		stale = total
	}
	total -= stale
	if stale > 0 {
		logger.Warn("Full-text index holds deleted videos", map[string]interface{}{
			"query": query,
			"stale": stale,
		})
	}

	return &FullTextResult{Results: results, Total: total}, nil
}

// Suggest 自動完成: 標題或產品型號包含查詢字串
func (s *searchService) Suggest(ctx context.Context, query string, limit int) ([]repository.VideoSuggestion, error) {
	limit, err := s.limits.Limit(limit)
	if err != nil {
		return nil, err
	}

	query = strings.TrimSpace(query)
	if query == "" {
		return []repository.VideoSuggestion{}, nil
	}

	suggestions, err := s.videoRepo.Suggest(query, limit)
	if err != nil {
		return nil, err
	}
	if suggestions == nil {
		suggestions = []repository.VideoSuggestion{}
	}
	return suggestions, nil
}

func (s *searchService) resolveTaggedVideos(names []string) ([]uint, error) {
	tags, err := s.tagRepo.FindByNames(names)
	if err != nil {
		return nil, err
	}
	if len(tags) == 0 {
		return nil, nil
	}

	tagIDs := make([]uint, 0, len(tags))
	for _, tag := range tags {
		tagIDs = append(tagIDs, tag.ID)
	}
	return s.tagRepo.FindVideoIDsByTags(tagIDs, false)
}

func videoSort(field *model.SortField) repository.VideoSort {
	if field == nil {
		return repository.VideoSortCreatedAt
	}
	switch *field {
	case model.SortByRating:
		return repository.VideoSortRating
	case model.SortByViewCount:
		return repository.VideoSortViewCount
	case model.SortByTitle:
		return repository.VideoSortTitle
	default:
		return repository.VideoSortCreatedAt
	}
}
