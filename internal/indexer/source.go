package indexer

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"

	"github.com/mshelton/codegraph-mcp/internal/parser"
	"github.com/mshelton/codegraph-mcp/pkg/types"
)

// DefaultMaxFileSize caps how large a file the indexer will read
const DefaultMaxFileSize = 1 << 20 // 1 MiB

// FileSource supplies the files of one repository to the pipeline
type FileSource interface {
	Files(ctx context.Context) ([]types.SourceFile, int, error)
}

var skipDirs = map[string]struct{}{
	"node_modules": {},
	".git":         {},
	".hg":          {},
	".svn":         {},
	"dist":         {},
	"build":        {},
	"out":          {},
	"coverage":     {},
	".next":        {},
	".turbo":       {},
	".cache":       {},
	"vendor":       {},
}

// LocalSource discovers source files under a repository root on the local
// filesystem, honoring the root .gitignore.
type LocalSource struct {
	root        string
	maxFileSize int64
}

// NewLocalSource creates a source reading from root
func NewLocalSource(root string) *LocalSource {
	return &LocalSource{root: root, maxFileSize: DefaultMaxFileSize}
}

// Files walks the repository and reads every supported source file. The
// second return value counts skipped files: unsupported extensions are simply
// not visited, but files over the size cap count as skipped.
func (s *LocalSource) Files(ctx context.Context) ([]types.SourceFile, int, error) {
	gi := loadGitignore(s.root)

	var files []types.SourceFile
	skipped := 0

	err := filepath.WalkDir(s.root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil // unreadable entries are not fatal
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		name := d.Name()

		if d.IsDir() {
			if path == s.root {
				return nil
			}
			if _, skip := skipDirs[name]; skip || strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}

		// Skip symlinks
		if d.Type()&os.ModeSymlink != 0 {
			return nil
		}

		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if gi != nil && gi.MatchesPath(rel) {
			return nil
		}

		language, ok := parser.LanguageForPath(rel)
		if !ok {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}
		if info.Size() > s.maxFileSize {
			skipped++
			return nil
		}

		content, err := os.ReadFile(path)
		if err != nil {
			skipped++
			return nil
		}

		files = append(files, types.SourceFile{
			Path:     rel,
			Content:  string(content),
			Language: language,
		})
		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, skipped, nil
}

// loadGitignore parses the repository root .gitignore, if present
func loadGitignore(root string) *ignore.GitIgnore {
	gi, err := ignore.CompileIgnoreFile(filepath.Join(root, ".gitignore"))
	if err != nil {
		return nil
	}
	return gi
}
