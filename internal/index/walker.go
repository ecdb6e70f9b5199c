package index

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	ignore "github.com/sabhiram/go-gitignore"
)

// CollectFiles walks root and returns root-relative slash paths of files
// whose base name matches pattern, in lexical order. Configured ignore
// directories and .gitignore entries are skipped.
func CollectFiles(root, pattern string, ignoreDirs []string) ([]string, error) {
	skip := make(map[string]struct{}, len(ignoreDirs))
	for _, d := range ignoreDirs {
		skip[d] = struct{}{}
	}

	gi := loadGitignore(root)

	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // unreadable entries are skipped, not fatal
		}

		name := d.Name()
		if d.IsDir() {
			if path == root {
				return nil
			}
			if _, skipped := skip[name]; skipped {
				return filepath.SkipDir
			}
			if rel, relErr := filepath.Rel(root, path); relErr == nil {
				if gi != nil && gi.MatchesPath(filepath.ToSlash(rel)+"/") {
					return filepath.SkipDir
				}
			}
			return nil
		}

		// Symlinks are not followed
		if d.Type()&os.ModeSymlink != 0 {
			return nil
		}

		matched, matchErr := filepath.Match(pattern, name)
		if matchErr != nil {
			return matchErr
		}
		if !matched {
			return nil
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}
		relSlash := filepath.ToSlash(rel)
		if gi != nil && gi.MatchesPath(relSlash) {
			return nil
		}

		files = append(files, relSlash)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}

// loadGitignore parses <root>/.gitignore if present.
func loadGitignore(root string) *ignore.GitIgnore {
	gi, err := ignore.CompileIgnoreFile(filepath.Join(root, ".gitignore"))
	if err != nil {
		return nil
	}
	return gi
}
