// Package search answers full-text queries over indexed file contents,
// fronting the storage FTS index with a TTL-bounded LRU cache.
package search

import (
	"context"
	"crypto/sha256"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/mshelton/codegraph-mcp/internal/storage"
	"github.com/mshelton/codegraph-mcp/pkg/types"
)

const (
	// DefaultLimit is used when a request does not specify a result limit
	DefaultLimit = 20
	// MaxLimit caps the result count regardless of the request
	MaxLimit = 100
	// DefaultCacheTTL bounds how long a cached response stays valid
	DefaultCacheTTL = 5 * time.Minute
	// cacheSize is the LRU entry limit
	cacheSize = 1000
)

// Request contains parameters for a search operation
type Request struct {
	RepositoryID int64
	Query        string
	Limit        int
	UseCache     bool
	CacheTTL     time.Duration
}

// Response contains search results and metadata
type Response struct {
	Results  []types.SearchResult
	Duration time.Duration
	CacheHit bool
}

// cacheEntry represents a cached search response with expiration time
type cacheEntry struct {
	results   []types.SearchResult
	expiresAt time.Time
}

// Searcher coordinates full-text search over indexed files
type Searcher struct {
	storage storage.Storage
	cache   *lru.Cache[[32]byte, *cacheEntry]
}

// NewSearcher creates a new Searcher instance
func NewSearcher(store storage.Storage) *Searcher {
	cache, err := lru.New[[32]byte, *cacheEntry](cacheSize)
	if err != nil {
		// Cannot happen with a positive size
		panic(fmt.Sprintf("failed to create LRU cache: %v", err))
	}
	return &Searcher{storage: store, cache: cache}
}

// Search runs a full-text query against one repository's indexed files
func (s *Searcher) Search(ctx context.Context, req Request) (*Response, error) {
	startTime := time.Now()

	if req.Query == "" {
		return nil, fmt.Errorf("search query is required")
	}
	if req.Limit <= 0 {
		req.Limit = DefaultLimit
	}
	if req.Limit > MaxLimit {
		req.Limit = MaxLimit
	}
	if req.CacheTTL <= 0 {
		req.CacheTTL = DefaultCacheTTL
	}

	key := cacheKey(req)
	if req.UseCache {
		if entry, ok := s.cache.Get(key); ok {
			if time.Now().Before(entry.expiresAt) {
				return &Response{
					Results:  entry.results,
					Duration: time.Since(startTime),
					CacheHit: true,
				}, nil
			}
			s.cache.Remove(key)
		}
	}

	results, err := s.storage.SearchFiles(ctx, req.RepositoryID, req.Query, req.Limit)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	if req.UseCache && len(results) > 0 {
		s.cache.Add(key, &cacheEntry{
			results:   results,
			expiresAt: time.Now().Add(req.CacheTTL),
		})
	}

	return &Response{Results: results, Duration: time.Since(startTime)}, nil
}

// Invalidate drops all cached responses, called after a repository re-indexes
func (s *Searcher) Invalidate() {
	s.cache.Purge()
}

// cacheKey hashes the request parameters that affect the result set
func cacheKey(req Request) [32]byte {
	return sha256.Sum256([]byte(fmt.Sprintf("%d|%s|%d", req.RepositoryID, req.Query, req.Limit)))
}
