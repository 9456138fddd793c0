package domain

import (
	"bytes"
	"context"
	"fmt"
	"go/token"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"unicode"

	"qcgen.dev/pkg/qcgen/internal/adapter"
	m "qcgen.dev/pkg/qcgen/internal/model"
)

const (
	// DefaultSuffix is appended to a source's base name to form its output file.
	DefaultSuffix = "_quickcheck_test.go"
	// DefaultBuildTag keeps annotated sources out of regular builds.
	DefaultBuildTag = "qcgen"
)

// GeneratorOptions configures output naming and build constraint handling.
type GeneratorOptions struct {
	Suffix   string
	BuildTag string
}

// Generator runs the expansion pass over one source file.
type Generator interface {
	Generate(ctx context.Context, source m.Source) (m.FileResult, error)
	OutputPath(origin m.Path) m.Path
	IsOutput(path m.Path) bool
}

type generator struct {
	adapter.GoFileAdapter
	adapter.SourceFSAdapter
	registry *Registry
	opts     GeneratorOptions
}

// NewGenerator creates a Generator dispatching annotated declarations
// through registry.
func NewGenerator(
	goFileAdapter adapter.GoFileAdapter,
	fsAdapter adapter.SourceFSAdapter,
	registry *Registry,
	opts GeneratorOptions,
) Generator {
	if opts.Suffix == "" {
		opts.Suffix = DefaultSuffix
	}

	return &generator{
		GoFileAdapter:   goFileAdapter,
		SourceFSAdapter: fsAdapter,
		registry:        registry,
		opts:            opts,
	}
}

// OutputPath returns the generated test file for origin: the base name with
// any _test suffix dropped, followed by the configured suffix.
func (g *generator) OutputPath(origin m.Path) m.Path {
	dir, file := filepath.Split(string(origin))
	base := strings.TrimSuffix(file, ".go")
	base = strings.TrimSuffix(base, "_test")

	return m.Path(filepath.Join(dir, base+g.opts.Suffix))
}

// IsOutput reports whether path is a file this generator writes.
func (g *generator) IsOutput(path m.Path) bool {
	return strings.HasSuffix(string(path), g.opts.Suffix)
}

// Generate expands every annotated declaration in source.
func (g *generator) Generate(ctx context.Context, source m.Source) (m.FileResult, error) {
	if source.Origin == nil || source.Origin.FullPath == "" {
		return m.FileResult{}, fmt.Errorf("missing source origin")
	}

	path := source.Origin.FullPath
	result := m.FileResult{Source: source, Status: m.FileSkipped}

	content, err := g.ReadFile(path)
	if err != nil {
		return result, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if !g.mentionsMarker(content) {
		return result, nil
	}

	fset := token.NewFileSet()

	file, err := g.Parse(ctx, fset, string(path), content)
	if err != nil {
		return result, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	if source.Package == "" {
		result.Source.Package = file.Name.Name
	}

	var edits []adapter.Edit

	imports := make(map[string]struct{})

	for _, decl := range g.ExtractDeclarations(fset, file, content) {
		attr, name, modifier, ok := g.trigger(decl)
		if !ok {
			continue
		}

		edit, expansion, diag := g.expand(decl, attr, name, modifier, imports)
		result.Expansions = append(result.Expansions, expansion)

		if diag != nil {
			result.Diagnostics = append(result.Diagnostics, *diag)
		}

		if edit != nil {
			edits = append(edits, *edit)
		}
	}

	if len(result.Expansions) == 0 {
		return result, nil
	}

	if g.opts.BuildTag != "" && !adapter.HasBuildTag(content, g.opts.BuildTag) {
		result.Diagnostics = append(result.Diagnostics, m.Diagnostic{
			Severity: m.SevWarning,
			Code:     m.CodeMissingBuildTag,
			Message:  fmt.Sprintf("source lacks //go:build %s and is compiled alongside %s", g.opts.BuildTag, source.Output),
			Span:     m.Span{File: path, Line: 1, Column: 1},
		})
	}

	generated, err := g.Assemble(content, edits, adapter.AssembleOptions{
		BuildTag: g.opts.BuildTag,
		Imports:  sortedKeys(imports),
	})
	if err != nil {
		return result, fmt.Errorf("failed to assemble %s: %w", path, err)
	}

	result.Status = m.FileGenerated
	result.Content = generated

	slog.Debug("Generated source", "source", path, "expansions", len(result.Expansions), "diagnostics", len(result.Diagnostics))

	return result, nil
}

// mentionsMarker is a cheap pre-filter before parsing.
func (g *generator) mentionsMarker(content []byte) bool {
	for _, name := range g.registry.Names() {
		if bytes.Contains(content, []byte(name)) {
			return true
		}
	}

	return false
}

// trigger finds the first attribute of decl with a registered modifier.
func (g *generator) trigger(decl m.Declaration) (m.Attribute, string, Modifier, bool) {
	for _, attr := range decl.Attributes {
		name := markerName(attr)
		if name == "" {
			continue
		}

		if modifier, ok := g.registry.Lookup(name); ok {
			return attr, name, modifier, true
		}
	}

	return m.Attribute{}, "", nil, false
}

// markerName is attr.Name(), extended to "// quickcheck": gofmt inserts the
// space into doc comment lines that are not ns:value directives.
func markerName(attr m.Attribute) string {
	if name := attr.Name(); name != "" {
		return name
	}

	word, ok := strings.CutPrefix(attr.Text, "// ")
	if !ok || strings.ContainsFunc(word, unicode.IsSpace) {
		return ""
	}

	return m.NewAttribute("//" + word).Name()
}

func (g *generator) expand(
	decl m.Declaration,
	attr m.Attribute,
	name string,
	modifier Modifier,
	imports map[string]struct{},
) (*adapter.Edit, m.Expansion, *m.Diagnostic) {
	expansion := m.Expansion{
		Attribute: name,
		Name:      decl.Name,
		Kind:      decl.Kind,
		Span:      attr.Span,
		Status:    m.Rejected,
	}

	res := modifier(attr.Span, consume(decl, attr))
	if !res.Replaced {
		slog.Debug("Declaration kept", "name", decl.Name, "kind", decl.Kind.String())
		return nil, expansion, res.Diagnostic
	}

	text, err := g.RenderDeclaration(res.Declaration)
	if err != nil {
		return nil, expansion, &m.Diagnostic{
			Severity: m.SevError,
			Code:     m.CodeRender,
			Message:  err.Error(),
			Span:     attr.Span,
		}
	}

	for _, path := range requiredImports(res.Declaration) {
		imports[path] = struct{}{}
	}

	expansion.Status = m.Expanded
	if res.Declaration.IsTest() {
		expansion.TestName = adapter.TestName(res.Declaration.Name)
	}

	return &adapter.Edit{Span: decl.Span, Text: text}, expansion, nil
}

// consume removes the triggering attribute, as a compiler strips the
// attribute that invoked a modifier before handing the item over.
func consume(decl m.Declaration, attr m.Attribute) m.Declaration {
	out := decl.Clone()
	out.Attributes = out.Attributes[:0]

	removed := false

	for _, a := range decl.Attributes {
		if !removed && a.Equal(attr) && a.Span == attr.Span {
			removed = true
			continue
		}

		out.Attributes = append(out.Attributes, a)
	}

	return out
}

func requiredImports(decl m.Declaration) []string {
	var paths []string

	if decl.IsTest() {
		paths = append(paths, "testing")
	}

	if decl.Func != nil && decl.Func.Body.Tail != nil && decl.Func.Body.Tail.Package != "" {
		paths = append(paths, decl.Func.Body.Tail.Package)
	}

	return paths
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}
