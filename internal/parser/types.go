// Package parser extracts symbol definitions, imports, and reference sites
// from Python source files using tree-sitter.
package parser

import "strings"

// ModuleName derives the dotted module name for a root-relative path.
// "pkg/mod.py" -> "pkg.mod"; "pkg/__init__.py" -> "pkg"; "top.py" -> "top".
// rootPackage, when non-empty, prefixes every module name.
func ModuleName(relPath, rootPackage string) string {
	p := strings.TrimSuffix(relPath, ".py")
	p = strings.TrimSuffix(p, "/__init__")
	if p == "__init__" {
		p = ""
	}
	module := strings.ReplaceAll(p, "/", ".")
	switch {
	case rootPackage == "":
		return module
	case module == "":
		return rootPackage
	default:
		return rootPackage + "." + module
	}
}

// Kind classifies a symbol definition.
type Kind string

const (
	// KindFunction is a top-level or nested function definition
	KindFunction Kind = "function"
	// KindMethod is a function defined inside a class body
	KindMethod Kind = "method"
	// KindClass is a class definition
	KindClass Kind = "class"
	// KindModuleVariable is a module-level assignment target
	KindModuleVariable Kind = "module-variable"
)

// Symbol represents an extracted symbol definition.
type Symbol struct {
	Name          string `json:"name"`          // Base name
	QualifiedName string `json:"qualifiedName"` // Module path + nesting chain
	Kind          Kind   `json:"kind"`
	Path          string `json:"path"`      // Root-relative file path
	StartLine     int    `json:"startLine"` // 1-indexed
	EndLine       int    `json:"endLine"`   // 1-indexed
	Enclosing     string `json:"enclosing,omitempty"` // Qualified name of enclosing symbol
}

// Import represents an import statement.
type Import struct {
	// Module is the dotted module target ("a.b" for `import a.b` and
	// `from a.b import c`). Empty for pure-relative imports like `from . import x`.
	Module string `json:"module"`

	// Names are the bound names for from-imports; nil for plain imports.
	Names []string `json:"names,omitempty"`

	// Relative is the number of leading dots for from-imports (0 = absolute).
	Relative int `json:"relative,omitempty"`

	// Raw is the import target as written in source.
	Raw string `json:"raw"`

	Line int `json:"line"`
}

// RefKind classifies a reference site.
type RefKind string

const (
	// RefCall is a direct call site
	RefCall RefKind = "call"
	// RefName is a plain name reference
	RefName RefKind = "reference"
)

// Ref represents a call or name reference site.
type Ref struct {
	Name      string  `json:"name"`
	Kind      RefKind `json:"kind"`
	Line      int     `json:"line"`
	Enclosing string  `json:"enclosing,omitempty"` // Qualified name of enclosing symbol
}

// FileResult is the structural extraction of a single file.
type FileResult struct {
	Path    string   `json:"path"`   // Root-relative file path
	Module  string   `json:"module"` // Dotted module name
	Symbols []Symbol `json:"symbols"`
	Imports []Import `json:"imports"`
	Refs    []Ref    `json:"refs"`
}
