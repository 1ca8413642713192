// Package fulltext keeps a bleve relevance index over video text.
package fulltext

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/ikkim/videokb-backend/internal/app/model"
	"github.com/ikkim/videokb-backend/pkg/logger"
)

// Options configures the index. An empty Path keeps the index in memory.
type Options struct {
	Path string
}

// Hit is one matching video with its relevance score.
type Hit struct {
	VideoID uint
	Score   float64
}

// Result is one page of hits plus the total number of matches.
type Result struct {
	Hits  []Hit
	Total uint64
}

// Index is safe for concurrent use. The mutex guards the handle swap in Reset.
type Index struct {
	index bleve.Index
	path  string
	mu    sync.RWMutex
}

const batchSize = 500

// NewIndex opens the on-disk index at opts.Path, recreating it when the
// mapping version differs, or creates a memory-only index.
func NewIndex(opts Options) (*Index, error) {
	if opts.Path == "" {
		index, err := bleve.NewMemOnly(buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("create memory index: %w", err)
		}
		logger.Info("Created in-memory search index")
		return &Index{index: index}, nil
	}

	if err := os.MkdirAll(opts.Path, 0o755); err != nil {
		return nil, fmt.Errorf("create index directory: %w", err)
	}

	indexPath := filepath.Join(opts.Path, "videos.bleve")
	versionPath := filepath.Join(opts.Path, "videos.version")

	if existing, err := os.ReadFile(versionPath); err == nil && string(existing) == mappingVersion {
		index, err := bleve.Open(indexPath)
		if err == nil {
			logger.Info("Opened existing search index", map[string]interface{}{
				"path": indexPath,
			})
			return &Index{index: index, path: indexPath}, nil
		}
		logger.Warn("Failed to open existing search index, recreating", map[string]interface{}{
			"path":  indexPath,
			"error": err.Error(),
		})
	}

	index, err := createOnDisk(indexPath)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(versionPath, []byte(mappingVersion), 0o644); err != nil {
		logger.Warn("Failed to write search index version file", map[string]interface{}{
			"error": err.Error(),
		})
	}

	logger.Info("Created search index", map[string]interface{}{
		"path":            indexPath,
		"mapping_version": mappingVersion,
	})
	return &Index{index: index, path: indexPath}, nil
}

func createOnDisk(indexPath string) (bleve.Index, error) {
	if err := os.RemoveAll(indexPath); err != nil {
		return nil, fmt.Errorf("remove old index: %w", err)
	}
	index, err := bleve.New(indexPath, buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("create index: %w", err)
	}
	return index, nil
}

func (i *Index) Close() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.index.Close()
}

// IndexVideo adds or replaces the document of one video.
func (i *Index) IndexVideo(video *model.Video) error {
	i.mu.RLock()
	defer i.mu.RUnlock()

	id, doc := videoDocument(video)
	return i.index.Index(id, doc)
}

// IndexVideos indexes videos in batches.
func (i *Index) IndexVideos(videos []model.Video) error {
	i.mu.RLock()
	defer i.mu.RUnlock()

	for start := 0; start < len(videos); start += batchSize {
		end := start + batchSize
		if end > len(videos) {
			end = len(videos)
		}

		batch := i.index.NewBatch()
		for k := start; k < end; k++ {
			id, doc := videoDocument(&videos[k])
			if err := batch.Index(id, doc); err != nil {
				return fmt.Errorf("batch index %s: %w", id, err)
			}
		}
		if err := i.index.Batch(batch); err != nil {
			return fmt.Errorf("commit batch %d-%d: %w", start, end, err)
		}
	}
	return nil
}

func (i *Index) DeleteVideo(id uint) error {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.index.Delete(docID(id))
}

func (i *Index) DocumentCount() (uint64, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.index.DocCount()
}

// Reset drops every document. It blocks all other operations while running.
func (i *Index) Reset() error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if err := i.index.Close(); err != nil {
		return fmt.Errorf("close index: %w", err)
	}

	var (
		index bleve.Index
		err   error
	)
	if i.path == "" {
		index, err = bleve.NewMemOnly(buildIndexMapping())
	} else {
		index, err = createOnDisk(i.path)
	}
	if err != nil {
		return err
	}

	i.index = index
	return nil
}

// Search matches any analyzed token of query against the video content and
// returns hits ordered by descending relevance. A blank query matches nothing.
func (i *Index) Search(ctx context.Context, query string, limit, offset int) (*Result, error) {
	query = strings.TrimSpace(query)
	if query == "" || limit <= 0 {
		return &Result{Hits: []Hit{}}, nil
	}

	i.mu.RLock()
	defer i.mu.RUnlock()

	match := bleve.NewMatchQuery(query)
	match.SetField(fieldContent)

	request := bleve.NewSearchRequestOptions(match, limit, offset, false)
	request.SortBy([]string{"-_score", "_id"})

	res, err := i.index.SearchInContext(ctx, request)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	hits := make([]Hit, 0, len(res.Hits))
	for _, h := range res.Hits {
		id, ok := parseDocID(h.ID)
		if !ok || h.Score <= 0 {
			continue
		}
		hits = append(hits, Hit{VideoID: id, Score: h.Score})
	}

	return &Result{Hits: hits, Total: res.Total}, nil
}
