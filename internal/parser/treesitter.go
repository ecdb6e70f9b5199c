//go:build cgo

package parser

import (
	"context"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	"scout/internal/errors"
)

// Parser wraps tree-sitter for Python parsing. Not safe for concurrent use;
// create one per worker.
type Parser struct {
	parser *sitter.Parser
}

// NewParser creates a new tree-sitter Python parser.
func NewParser() *Parser {
	p := sitter.NewParser()
	p.SetLanguage(python.GetLanguage())
	return &Parser{parser: p}
}

// Available reports whether tree-sitter parsing is compiled in.
func Available() bool {
	return true
}

// ParseFile parses source and extracts symbols, imports, and reference
// sites. path is the root-relative file path, module the dotted module name.
// A file whose syntax tree contains errors fails with a ParseError.
func (p *Parser) ParseFile(ctx context.Context, path, module string, source []byte) (*FileResult, error) {
	tree, err := p.parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, errors.Wrap(errors.ParseError, "parse failed: "+path, err)
	}

	root := tree.RootNode()
	if root.HasError() {
		return nil, errors.Newf(errors.ParseError, "syntax error in %s", path)
	}

	ex := &extractor{
		path:   path,
		module: module,
		source: source,
	}
	ex.walk(root, module, false)

	return &FileResult{
		Path:    path,
		Module:  module,
		Symbols: ex.symbols,
		Imports: ex.imports,
		Refs:    ex.refs,
	}, nil
}

// extractor accumulates structural facts during a single tree walk.
type extractor struct {
	path    string
	module  string
	source  []byte
	symbols []Symbol
	imports []Import
	refs    []Ref
}

// walk visits node with the given enclosing qualified name. insideClass
// marks whether the immediately enclosing definition is a class body,
// which turns nested function definitions into methods.
func (ex *extractor) walk(node *sitter.Node, enclosing string, insideClass bool) {
	if node == nil {
		return
	}

	switch node.Type() {
	case "function_definition":
		ex.addDefinition(node, enclosing, insideClass, false)
		return

	case "class_definition":
		ex.addDefinition(node, enclosing, insideClass, true)
		return

	case "decorated_definition":
		if def := node.ChildByFieldName("definition"); def != nil {
			ex.walk(def, enclosing, insideClass)
		}
		return

	case "import_statement":
		ex.addImport(node)
		return

	case "import_from_statement":
		ex.addFromImport(node)
		return

	case "assignment":
		// Module-level assignments define module variables
		if enclosing == ex.module {
			ex.addModuleVariables(node)
		}

	case "call":
		if fn := node.ChildByFieldName("function"); fn != nil {
			if name := callName(fn, ex.source); name != "" {
				ex.refs = append(ex.refs, Ref{
					Name:      name,
					Kind:      RefCall,
					Line:      line(node),
					Enclosing: refEnclosing(enclosing, ex.module),
				})
			}
			// Walk arguments for nested calls and references
			if args := node.ChildByFieldName("arguments"); args != nil {
				ex.walkChildren(args, enclosing, insideClass)
			}
			// The callee may itself contain calls (e.g. f()())
			ex.walkChildren(fn, enclosing, insideClass)
		}
		return

	case "identifier":
		ex.refs = append(ex.refs, Ref{
			Name:      text(node, ex.source),
			Kind:      RefName,
			Line:      line(node),
			Enclosing: refEnclosing(enclosing, ex.module),
		})
		return
	}

	ex.walkChildren(node, enclosing, insideClass)
}

func (ex *extractor) walkChildren(node *sitter.Node, enclosing string, insideClass bool) {
	for i := 0; i < int(node.ChildCount()); i++ {
		ex.walk(node.Child(i), enclosing, insideClass)
	}
}

// addDefinition records a function/method/class symbol and walks its body.
func (ex *extractor) addDefinition(node *sitter.Node, enclosing string, insideClass, isClass bool) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := text(nameNode, ex.source)
	qualified := enclosing + "." + name

	kind := KindFunction
	switch {
	case isClass:
		kind = KindClass
	case insideClass:
		kind = KindMethod
	}

	ex.symbols = append(ex.symbols, Symbol{
		Name:          name,
		QualifiedName: qualified,
		Kind:          kind,
		Path:          ex.path,
		StartLine:     line(node),
		EndLine:       int(node.EndPoint().Row) + 1,
		Enclosing:     refEnclosing(enclosing, ex.module),
	})

	if body := node.ChildByFieldName("body"); body != nil {
		ex.walkChildren(body, qualified, isClass)
	}
}

// addModuleVariables records assignment targets at module level.
func (ex *extractor) addModuleVariables(node *sitter.Node) {
	left := node.ChildByFieldName("left")
	if left == nil {
		return
	}

	record := func(id *sitter.Node) {
		name := text(id, ex.source)
		ex.symbols = append(ex.symbols, Symbol{
			Name:          name,
			QualifiedName: ex.module + "." + name,
			Kind:          KindModuleVariable,
			Path:          ex.path,
			StartLine:     line(id),
			EndLine:       line(id),
		})
	}

	switch left.Type() {
	case "identifier":
		record(left)
	case "pattern_list", "tuple_pattern":
		for i := 0; i < int(left.NamedChildCount()); i++ {
			if child := left.NamedChild(i); child != nil && child.Type() == "identifier" {
				record(child)
			}
		}
	}
}

// addImport records `import a.b [as c]` statements.
func (ex *extractor) addImport(node *sitter.Node) {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		switch child.Type() {
		case "dotted_name":
			target := text(child, ex.source)
			ex.imports = append(ex.imports, Import{
				Module: target,
				Raw:    target,
				Line:   line(node),
			})
		case "aliased_import":
			if nameNode := child.ChildByFieldName("name"); nameNode != nil {
				target := text(nameNode, ex.source)
				ex.imports = append(ex.imports, Import{
					Module: target,
					Raw:    target,
					Line:   line(node),
				})
			}
		}
	}
}

// addFromImport records `from [.]a.b import c [as d], e` statements.
func (ex *extractor) addFromImport(node *sitter.Node) {
	imp := Import{Line: line(node)}

	moduleNode := node.ChildByFieldName("module_name")
	if moduleNode != nil {
		imp.Raw = text(moduleNode, ex.source)
		switch moduleNode.Type() {
		case "dotted_name":
			imp.Module = imp.Raw
		case "relative_import":
			// Leading dots then an optional dotted name
			raw := imp.Raw
			for len(raw) > 0 && raw[0] == '.' {
				imp.Relative++
				raw = raw[1:]
			}
			imp.Module = raw
		}
	}

	// Imported names follow the module_name field
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if moduleNode != nil && child.StartByte() == moduleNode.StartByte() {
			continue
		}
		switch child.Type() {
		case "dotted_name":
			imp.Names = append(imp.Names, text(child, ex.source))
		case "aliased_import":
			if nameNode := child.ChildByFieldName("name"); nameNode != nil {
				imp.Names = append(imp.Names, text(nameNode, ex.source))
			}
		case "wildcard_import":
			imp.Names = append(imp.Names, "*")
		}
	}

	ex.imports = append(ex.imports, imp)
}

// callName resolves a call's function node to a bare name.
// `foo()` yields "foo"; `obj.foo()` yields "foo".
func callName(fn *sitter.Node, source []byte) string {
	switch fn.Type() {
	case "identifier":
		return text(fn, source)
	case "attribute":
		if attr := fn.ChildByFieldName("attribute"); attr != nil {
			return text(attr, source)
		}
	}
	return ""
}

// refEnclosing maps a module-level enclosing name to "" so refs at module
// scope are attributed to the file rather than a symbol.
func refEnclosing(enclosing, module string) string {
	if enclosing == module {
		return ""
	}
	return enclosing
}

func text(node *sitter.Node, source []byte) string {
	return string(source[node.StartByte():node.EndByte()])
}

func line(node *sitter.Node) int {
	return int(node.StartPoint().Row) + 1
}
