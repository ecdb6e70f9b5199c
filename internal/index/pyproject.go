package index

import (
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// Layout describes how module names map onto the tree.
type Layout struct {
	// ProjectName is the declared pyproject.toml project name, if any.
	ProjectName string

	// srcLayout is true for src-layout projects, where import paths are
	// rooted at <root>/src rather than <root>.
	srcLayout bool
}

// pyproject mirrors the subset of pyproject.toml we read.
type pyproject struct {
	Project struct {
		Name string `toml:"name"`
	} `toml:"project"`
	Tool struct {
		Poetry struct {
			Name string `toml:"name"`
		} `toml:"poetry"`
	} `toml:"tool"`
}

// DetectLayout inspects root for a pyproject.toml and a src/ directory to
// determine how file paths translate to dotted module names.
func DetectLayout(root string) Layout {
	var layout Layout

	data, err := os.ReadFile(filepath.Join(root, "pyproject.toml"))
	if err == nil {
		var pp pyproject
		if toml.Unmarshal(data, &pp) == nil {
			layout.ProjectName = pp.Project.Name
			if layout.ProjectName == "" {
				layout.ProjectName = pp.Tool.Poetry.Name
			}
		}
	}

	if info, err := os.Stat(filepath.Join(root, "src")); err == nil && info.IsDir() {
		layout.srcLayout = true
	}

	return layout
}

// ModulePath maps a root-relative file path to the path module names are
// derived from. Under src layout, "src/pkg/mod.py" imports as "pkg.mod".
func (l Layout) ModulePath(relPath string) string {
	if l.srcLayout {
		if trimmed, ok := strings.CutPrefix(relPath, "src/"); ok {
			return trimmed
		}
	}
	return relPath
}
