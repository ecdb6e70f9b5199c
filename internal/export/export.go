// Package export renders analysis results to interchange formats.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/zstd"
	scippb "github.com/sourcegraph/scip/bindings/go/scip"
	"google.golang.org/protobuf/proto"
	"gopkg.in/yaml.v3"

	"scout/internal/errors"
	"scout/internal/graph"
	"scout/internal/index"
	"scout/internal/parser"
	"scout/internal/version"
)

// Format selects the output encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatSCIP Format = "scip"
)

// ParseFormat validates a format name.
func ParseFormat(name string) (Format, error) {
	switch Format(strings.ToLower(name)) {
	case FormatJSON:
		return FormatJSON, nil
	case FormatYAML:
		return FormatYAML, nil
	case FormatSCIP:
		return FormatSCIP, nil
	default:
		return "", errors.Newf(errors.InternalError, "unknown export format: %s", name)
	}
}

// Report is the exportable view of one analyzed tree.
type Report struct {
	Root        string             `json:"root" yaml:"root"`
	Fingerprint string             `json:"fingerprint" yaml:"fingerprint"`
	Package     string             `json:"package,omitempty" yaml:"package,omitempty"`
	Symbols     []parser.Symbol    `json:"symbols" yaml:"symbols"`
	FileEdges   []graph.FileEdge   `json:"fileEdges" yaml:"fileEdges"`
	SymbolEdges []graph.SymbolEdge `json:"symbolEdges" yaml:"symbolEdges"`
	FileErrors  []index.FileError  `json:"fileErrors,omitempty" yaml:"fileErrors,omitempty"`
}

// BuildReport assembles a report from an index and its graph.
func BuildReport(idx *index.SymbolIndex, g *graph.Graph) *Report {
	return &Report{
		Root:        idx.Root,
		Fingerprint: idx.Fingerprint,
		Package:     idx.Package,
		Symbols:     idx.Symbols,
		FileEdges:   g.FileEdges,
		SymbolEdges: g.SymbolEdges,
		FileErrors:  idx.FileErrors,
	}
}

// Write renders the report to w. Compression wraps the encoded output in a
// zstd stream.
func Write(w io.Writer, report *Report, idx *index.SymbolIndex, format Format, compress bool) error {
	if compress {
		zw, err := zstd.NewWriter(w)
		if err != nil {
			return errors.Wrap(errors.InternalError, "failed to init compressor", err)
		}
		defer zw.Close()
		w = zw
	}

	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return errors.Wrap(errors.InternalError, "json export failed", err)
		}
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		if err := enc.Encode(report); err != nil {
			return errors.Wrap(errors.InternalError, "yaml export failed", err)
		}
	case FormatSCIP:
		data, err := proto.Marshal(BuildSCIP(idx))
		if err != nil {
			return errors.Wrap(errors.InternalError, "scip export failed", err)
		}
		if _, err := w.Write(data); err != nil {
			return errors.Wrap(errors.InternalError, "scip export failed", err)
		}
	default:
		return errors.Newf(errors.InternalError, "unknown export format: %s", format)
	}
	return nil
}

// BuildSCIP converts a symbol index into a SCIP index: one document per
// file with definition occurrences for every extracted symbol.
func BuildSCIP(idx *index.SymbolIndex) *scippb.Index {
	out := &scippb.Index{
		Metadata: &scippb.Metadata{
			Version: scippb.ProtocolVersion_UnspecifiedProtocolVersion,
			ToolInfo: &scippb.ToolInfo{
				Name:    "scout",
				Version: version.Version,
			},
			ProjectRoot:          "file://" + idx.Root,
			TextDocumentEncoding: scippb.TextEncoding_UTF8,
		},
	}

	for i := range idx.Files {
		f := &idx.Files[i]
		doc := &scippb.Document{
			Language:     "python",
			RelativePath: f.Path,
		}
		for _, sym := range f.Symbols {
			scipSymbol := scipSymbolName(idx.Package, sym)
			doc.Symbols = append(doc.Symbols, &scippb.SymbolInformation{
				Symbol:      scipSymbol,
				DisplayName: sym.Name,
				Kind:        scipKind(sym.Kind),
			})
			doc.Occurrences = append(doc.Occurrences, &scippb.Occurrence{
				Range:       []int32{int32(sym.StartLine - 1), 0, int32(sym.StartLine - 1), int32(len(sym.Name))},
				Symbol:      scipSymbol,
				SymbolRoles: int32(scippb.SymbolRole_Definition),
			})
		}
		out.Documents = append(out.Documents, doc)
	}

	return out
}

// scipSymbolName renders a qualified name in SCIP symbol grammar:
// "scout python <package> <version> <descriptors>".
func scipSymbolName(pkg string, sym parser.Symbol) string {
	if pkg == "" {
		pkg = "."
	}

	parts := strings.Split(sym.QualifiedName, ".")
	var b strings.Builder
	fmt.Fprintf(&b, "scout python %s . ", pkg)
	for i, part := range parts {
		last := i == len(parts)-1
		if !last {
			b.WriteString(part + "/")
			continue
		}
		switch sym.Kind {
		case parser.KindClass:
			b.WriteString(part + "#")
		case parser.KindFunction, parser.KindMethod:
			b.WriteString(part + "().")
		default:
			b.WriteString(part + ".")
		}
	}
	return b.String()
}

func scipKind(kind parser.Kind) scippb.SymbolInformation_Kind {
	switch kind {
	case parser.KindFunction:
		return scippb.SymbolInformation_Function
	case parser.KindMethod:
		return scippb.SymbolInformation_Method
	case parser.KindClass:
		return scippb.SymbolInformation_Class
	case parser.KindModuleVariable:
		return scippb.SymbolInformation_Variable
	default:
		return scippb.SymbolInformation_UnspecifiedKind
	}
}
