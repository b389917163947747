package types

import "time"

// SearchResult represents a single full-text search hit over file content
type SearchResult struct {
	FilePath     string    `json:"file_path"`
	RepositoryID string    `json:"repository_id"`
	Language     string    `json:"language"`
	Snippet      string    `json:"snippet"`
	IndexedAt    time.Time `json:"indexed_at"`
}

// Validate checks if the search result is valid
func (sr *SearchResult) Validate() error {
	if sr.FilePath == "" {
		return ErrMissingFilePath
	}
	if sr.Snippet == "" {
		return ErrEmptyContent
	}
	return nil
}

// DependencyReport is the response shape of a dependency traversal: the
// directly connected files, the transitively reachable ones, and any cycles
// touching the start file when requested.
type DependencyReport struct {
	FilePath string          `json:"file_path"`
	Direct   []string        `json:"direct"`
	Indirect []string        `json:"indirect"`
	Cycles   []CircularChain `json:"cycles,omitempty"`
	Count    int             `json:"count"`
}
