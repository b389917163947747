package types

import "errors"

// SourceFile is the (path, content, language) tuple supplied by the
// repository file-listing collaborator. Path is relative to the repository
// root and uses forward slashes.
type SourceFile struct {
	Path     string
	Content  string
	Language string // Detected from extension when empty
	Metadata map[string]string
}

// Validate checks the tuple is usable as indexing input
func (f *SourceFile) Validate() error {
	if f.Path == "" {
		return errors.New("file path is required")
	}
	return nil
}

// SizeBytes returns the content length in bytes
func (f *SourceFile) SizeBytes() int64 {
	return int64(len(f.Content))
}
