package search

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mshelton/codegraph-mcp/internal/storage"
	"github.com/mshelton/codegraph-mcp/pkg/types"
)

func seededSearcher(t *testing.T) (*Searcher, int64) {
	t.Helper()
	s, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	ctx := context.Background()
	repo, err := s.GetOrCreateRepository(ctx, "/tmp/project")
	require.NoError(t, err)

	batch := &storage.IndexBatch{
		RepositoryID: repo.ID,
		Files: []types.SourceFile{
			{Path: "src/auth.ts", Language: "typescript",
				Content: "export function authenticate(user: string) { return validateToken(user); }"},
			{Path: "src/token.ts", Language: "typescript",
				Content: "export function validateToken(token: string) { return token.length > 0; }"},
		},
	}
	_, err = s.StoreIndexedData(ctx, batch, storage.NewBatchArena())
	require.NoError(t, err)

	return NewSearcher(s), repo.ID
}

func TestSearch(t *testing.T) {
	searcher, repoID := seededSearcher(t)

	resp, err := searcher.Search(context.Background(), Request{
		RepositoryID: repoID,
		Query:        "validateToken",
	})
	require.NoError(t, err)
	assert.False(t, resp.CacheHit)
	require.Len(t, resp.Results, 2)
	for _, r := range resp.Results {
		assert.Contains(t, r.Snippet, "validateToken")
	}
}

func TestSearchRequiresQuery(t *testing.T) {
	searcher, repoID := seededSearcher(t)
	_, err := searcher.Search(context.Background(), Request{RepositoryID: repoID})
	assert.Error(t, err)
}

func TestSearchLimitClamped(t *testing.T) {
	searcher, repoID := seededSearcher(t)

	resp, err := searcher.Search(context.Background(), Request{
		RepositoryID: repoID,
		Query:        "token",
		Limit:        100000,
	})
	require.NoError(t, err)
	assert.LessOrEqual(t, len(resp.Results), MaxLimit)
}

func TestSearchCache(t *testing.T) {
	searcher, repoID := seededSearcher(t)
	ctx := context.Background()

	req := Request{RepositoryID: repoID, Query: "authenticate", UseCache: true}

	first, err := searcher.Search(ctx, req)
	require.NoError(t, err)
	assert.False(t, first.CacheHit)

	second, err := searcher.Search(ctx, req)
	require.NoError(t, err)
	assert.True(t, second.CacheHit)
	assert.Equal(t, first.Results, second.Results)

	searcher.Invalidate()
	third, err := searcher.Search(ctx, req)
	require.NoError(t, err)
	assert.False(t, third.CacheHit)
}

func TestSearchCacheExpiry(t *testing.T) {
	searcher, repoID := seededSearcher(t)
	ctx := context.Background()

	req := Request{
		RepositoryID: repoID,
		Query:        "authenticate",
		UseCache:     true,
		CacheTTL:     time.Millisecond,
	}
	_, err := searcher.Search(ctx, req)
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)
	resp, err := searcher.Search(ctx, req)
	require.NoError(t, err)
	assert.False(t, resp.CacheHit, "expired entries are not served")
}
