package adapter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"go/ast"
	"go/build/constraint"
	"go/format"
	"go/parser"
	"go/token"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/tools/go/ast/astutil"
	m "qcgen.dev/pkg/qcgen/internal/model"
)

// GeneratedHeader marks files written by qcgen.
const GeneratedHeader = "// Code generated by qcgen. DO NOT EDIT."

var (
	// ErrMissingBody is returned when a function without body must be printed.
	ErrMissingBody = errors.New("function has no body")
	// ErrGenericLiteral is returned when a generic function must be nested.
	ErrGenericLiteral = errors.New("generic functions cannot be nested in a test wrapper")
	// ErrNotRenderable is returned for declaration kinds that are never printed.
	ErrNotRenderable = errors.New("declaration kind cannot be rendered")
	// ErrTestSignature is returned when a test-marked function has parameters.
	ErrTestSignature = errors.New("test functions take no parameters")
)

// Edit replaces the bytes covered by Span with Text.
type Edit struct {
	Span m.Span
	Text string
}

// AssembleOptions controls how an edited file is finalized.
type AssembleOptions struct {
	// BuildTag is assumed set when rewriting the file's build constraints;
	// a constraint that then always holds is removed.
	BuildTag string
	// Imports are added to the file if missing.
	Imports []string
}

// GoFileAdapter encapsulates Go-specific parsing and printing so the domain
// layer can focus on expansion rules.
type GoFileAdapter interface {
	// Parse builds an AST using the provided file set and source bytes.
	Parse(ctx context.Context, fileSet *token.FileSet, filename string, src []byte) (*ast.File, error)

	// ExtractDeclarations returns every top-level declaration of file along
	// with its doc-comment attributes.
	ExtractDeclarations(fileSet *token.FileSet, file *ast.File, src []byte) []m.Declaration

	// RenderDeclaration prints a top-level declaration as Go source.
	RenderDeclaration(decl m.Declaration) (string, error)

	// Assemble applies edits to src and returns formatted Go source.
	Assemble(src []byte, edits []Edit, opts AssembleOptions) ([]byte, error)
}

// LocalGoFileAdapter provides a concrete GoFileAdapter backed by go/parser.
type LocalGoFileAdapter struct{}

// NewLocalGoFileAdapter constructs a LocalGoFileAdapter.
func NewLocalGoFileAdapter() *LocalGoFileAdapter {
	return &LocalGoFileAdapter{}
}

// Parse builds an AST for the provided filename/source pair.
func (a *LocalGoFileAdapter) Parse(ctx context.Context, fileSet *token.FileSet, filename string, src []byte) (*ast.File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return parser.ParseFile(fileSet, filename, src, parser.ParseComments)
}

// ExtractDeclarations walks the top-level declarations of file.
func (a *LocalGoFileAdapter) ExtractDeclarations(fileSet *token.FileSet, file *ast.File, src []byte) []m.Declaration {
	x := extractor{fset: fileSet, src: src}

	decls := make([]m.Declaration, 0, len(file.Decls))
	for _, decl := range file.Decls {
		decls = append(decls, x.declaration(decl))
	}

	return decls
}

type extractor struct {
	fset *token.FileSet
	src  []byte
}

func (x extractor) offset(pos token.Pos) int {
	return x.fset.PositionFor(pos, false).Offset
}

func (x extractor) span(from, to token.Pos) m.Span {
	pos := x.fset.PositionFor(from, false)

	return m.Span{
		File:   m.Path(pos.Filename),
		Offset: pos.Offset,
		End:    x.offset(to),
		Line:   pos.Line,
		Column: pos.Column,
	}
}

func (x extractor) text(from, to token.Pos) string {
	return string(x.src[x.offset(from):x.offset(to)])
}

func (x extractor) attributes(doc *ast.CommentGroup) []m.Attribute {
	if doc == nil {
		return nil
	}

	attrs := make([]m.Attribute, 0, len(doc.List))
	for _, c := range doc.List {
		attrs = append(attrs, m.Attribute{Text: c.Text, Span: x.span(c.Pos(), c.End())})
	}

	return attrs
}

func (x extractor) declaration(decl ast.Decl) m.Declaration {
	var doc *ast.CommentGroup

	switch d := decl.(type) {
	case *ast.FuncDecl:
		doc = d.Doc
	case *ast.GenDecl:
		doc = d.Doc
	}

	start := decl.Pos()
	if doc != nil {
		start = doc.Pos()
	}

	out := m.Declaration{
		Span:       x.span(start, decl.End()),
		Attributes: x.attributes(doc),
		Source:     x.text(start, decl.End()),
	}

	switch d := decl.(type) {
	case *ast.FuncDecl:
		x.funcDecl(d, &out)
	case *ast.GenDecl:
		x.genDecl(d, &out)
	}

	return out
}

func (x extractor) funcDecl(d *ast.FuncDecl, out *m.Declaration) {
	out.Name = d.Name.Name

	if d.Recv != nil {
		out.Kind = m.KindMethod
		return
	}

	out.Kind = m.KindFunction
	fn := &m.Function{}

	if tp := d.Type.TypeParams; tp != nil && tp.Opening.IsValid() {
		fn.TypeParams = x.text(tp.Opening+1, tp.Closing)
	}

	if params := d.Type.Params; params != nil && params.Opening.IsValid() {
		fn.Params = x.text(params.Opening+1, params.Closing)
	}

	if results := d.Type.Results; results != nil {
		fn.Results = x.text(results.Pos(), results.End())
	}

	if d.Body != nil {
		fn.Body.Source = x.text(d.Body.Lbrace, d.Body.End())
	}

	out.Func = fn
}

//nolint:exhaustive // token.Token has many values; only declaration keywords matter here.
func (x extractor) genDecl(d *ast.GenDecl, out *m.Declaration) {
	switch d.Tok {
	case token.IMPORT:
		out.Kind = m.KindImport
		if len(d.Specs) > 0 {
			if is, ok := d.Specs[0].(*ast.ImportSpec); ok {
				out.Name = is.Path.Value
			}
		}
	case token.TYPE:
		out.Kind = m.KindType
		if len(d.Specs) > 0 {
			if ts, ok := d.Specs[0].(*ast.TypeSpec); ok {
				out.Name = ts.Name.Name
			}
		}
	case token.CONST:
		out.Kind = m.KindConst
		out.Name = firstValueName(d)
	case token.VAR:
		out.Name = firstValueName(d)

		vs, ok := singleValueSpec(d)
		if !ok {
			out.Kind = m.KindVarGroup
			return
		}

		out.Kind = m.KindStatic
		st := &m.Static{}

		if vs.Type != nil {
			st.Type = x.text(vs.Type.Pos(), vs.Type.End())
		}

		if len(vs.Values) == 1 {
			st.Value = x.text(vs.Values[0].Pos(), vs.Values[0].End())
		}

		out.Static = st
	}
}

func firstValueName(d *ast.GenDecl) string {
	for _, spec := range d.Specs {
		if vs, ok := spec.(*ast.ValueSpec); ok && len(vs.Names) > 0 {
			return vs.Names[0].Name
		}
	}

	return ""
}

func singleValueSpec(d *ast.GenDecl) (*ast.ValueSpec, bool) {
	if len(d.Specs) != 1 {
		return nil, false
	}

	vs, ok := d.Specs[0].(*ast.ValueSpec)
	if !ok || len(vs.Names) != 1 {
		return nil, false
	}

	return vs, true
}

// TestName returns the go test entry point name for a wrapper named name.
func TestName(name string) string {
	if rest, ok := strings.CutPrefix(name, "Test"); ok {
		r, _ := utf8.DecodeRuneInString(rest)
		if rest == "" || !unicode.IsLower(r) {
			return name
		}
	}

	r, size := utf8.DecodeRuneInString(name)

	return "Test" + string(unicode.ToUpper(r)) + name[size:]
}

// RenderDeclaration prints decl. Attributes other than the test marker are
// printed verbatim above it; a test-marked function follows go test naming.
func (a *LocalGoFileAdapter) RenderDeclaration(decl m.Declaration) (string, error) {
	var b strings.Builder

	for _, attr := range decl.Attributes {
		if attr.Equal(m.TestAttribute) {
			continue
		}

		b.WriteString(attr.Text)
		b.WriteByte('\n')
	}

	switch decl.Kind {
	case m.KindFunction:
		fn, err := renderFunc(decl)
		if err != nil {
			return "", err
		}

		b.WriteString(fn)
	case m.KindStatic:
		b.WriteString(renderStatic(decl))
	default:
		return "", fmt.Errorf("%w: %s", ErrNotRenderable, decl.Kind)
	}

	return b.String(), nil
}

func renderFunc(decl m.Declaration) (string, error) {
	if decl.Func == nil {
		return "", fmt.Errorf("%s: %w", decl.Name, ErrMissingBody)
	}

	name, params := decl.Name, decl.Func.Params

	if decl.IsTest() {
		if params != "" || decl.Func.TypeParams != "" {
			return "", fmt.Errorf("%s: %w", decl.Name, ErrTestSignature)
		}

		name, params = TestName(decl.Name), "_ *testing.T"
	}

	body, err := renderBody(decl.Name, decl.Func.Body)
	if err != nil {
		return "", err
	}

	var b strings.Builder

	b.WriteString("func ")
	b.WriteString(name)

	if decl.Func.TypeParams != "" {
		fmt.Fprintf(&b, "[%s]", decl.Func.TypeParams)
	}

	fmt.Fprintf(&b, "(%s)", params)

	if decl.Func.Results != "" {
		b.WriteString(" " + decl.Func.Results)
	}

	b.WriteString(" " + body)

	return b.String(), nil
}

func renderBody(name string, body m.Body) (string, error) {
	if !body.Generated() {
		if body.Source == "" {
			return "", fmt.Errorf("%s: %w", name, ErrMissingBody)
		}

		return body.Source, nil
	}

	var b strings.Builder

	b.WriteString("{\n")

	for _, decl := range body.Decls {
		nested, err := renderNested(decl)
		if err != nil {
			return "", err
		}

		b.WriteString(nested)
		b.WriteByte('\n')
	}

	if body.Tail != nil {
		b.WriteString(renderCall(*body.Tail))
		b.WriteByte('\n')
	}

	b.WriteString("}")

	return b.String(), nil
}

// renderNested prints a declaration inside a function body, where Go only
// allows functions as literals.
func renderNested(decl m.Declaration) (string, error) {
	switch decl.Kind {
	case m.KindFunction:
		if decl.Func == nil {
			return "", fmt.Errorf("%s: %w", decl.Name, ErrMissingBody)
		}

		if decl.Func.TypeParams != "" {
			return "", fmt.Errorf("%s: %w", decl.Name, ErrGenericLiteral)
		}

		body, err := renderBody(decl.Name, decl.Func.Body)
		if err != nil {
			return "", err
		}

		sig := "func(" + decl.Func.Params + ")"
		if decl.Func.Results != "" {
			sig += " " + decl.Func.Results
		}

		// Declared before assignment so a recursive body resolves its own name.
		return fmt.Sprintf("var %s %s\n%s = %s %s", decl.Name, sig, decl.Name, sig, body), nil
	case m.KindStatic:
		return renderStatic(decl), nil
	default:
		return "", fmt.Errorf("%w: %s", ErrNotRenderable, decl.Kind)
	}
}

func renderStatic(decl m.Declaration) string {
	var b strings.Builder

	b.WriteString("var " + decl.Name)

	if decl.Static == nil {
		return b.String()
	}

	if decl.Static.Type != "" {
		b.WriteString(" " + decl.Static.Type)
	}

	if decl.Static.Value != "" {
		b.WriteString(" = " + decl.Static.Value)
	}

	return b.String()
}

func renderCall(call m.Call) string {
	fn := call.Func
	if call.Package != "" {
		fn = call.PackageName() + "." + fn
	}

	return fmt.Sprintf("%s(%s)", fn, strings.Join(call.Args, ", "))
}

// Assemble splices edits into src, drops the generator build constraint,
// adds imports and formats the result.
func (a *LocalGoFileAdapter) Assemble(src []byte, edits []Edit, opts AssembleOptions) ([]byte, error) {
	spliced, err := splice(src, edits)
	if err != nil {
		return nil, err
	}

	if opts.BuildTag != "" {
		spliced = dropBuildTag(spliced, opts.BuildTag)
	}

	fset := token.NewFileSet()

	file, err := parser.ParseFile(fset, "", spliced, parser.ParseComments)
	if err != nil {
		return nil, fmt.Errorf("failed to parse generated source: %w", err)
	}

	for _, path := range opts.Imports {
		astutil.AddImport(fset, file, path)
	}

	var buf bytes.Buffer

	buf.WriteString(GeneratedHeader)
	buf.WriteString("\n\n")

	if err := format.Node(&buf, fset, file); err != nil {
		return nil, fmt.Errorf("failed to format generated source: %w", err)
	}

	return buf.Bytes(), nil
}

func splice(src []byte, edits []Edit) ([]byte, error) {
	sorted := append([]Edit(nil), edits...)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Span.Offset < sorted[j].Span.Offset
	})

	var buf bytes.Buffer

	last := 0

	for _, edit := range sorted {
		if edit.Span.Offset < last || edit.Span.End > len(src) || edit.Span.Offset > edit.Span.End {
			return nil, fmt.Errorf("invalid edit span %d-%d", edit.Span.Offset, edit.Span.End)
		}

		buf.Write(src[last:edit.Span.Offset])
		buf.WriteString(edit.Text)

		last = edit.Span.End
	}

	buf.Write(src[last:])

	return buf.Bytes(), nil
}

// dropBuildTag rewrites the header build constraints as if tag were set. A
// constraint that then always holds is removed; any other keeps its
// remaining terms.
func dropBuildTag(src []byte, tag string) []byte {
	lines := bytes.SplitAfter(src, []byte("\n"))
	out := make([]byte, 0, len(src))
	header := true

	for _, line := range lines {
		text := strings.TrimSpace(string(line))
		if strings.HasPrefix(text, "package ") {
			header = false
		}

		if header && (constraint.IsGoBuild(text) || constraint.IsPlusBuild(text)) {
			if rewritten, ok := rewriteConstraint(text, tag); ok {
				out = append(out, rewritten...)
				continue
			}
		}

		out = append(out, line...)
	}

	return out
}

// rewriteConstraint returns the constraint line with tag assumed set, or ""
// when it always holds. ok is false when the line is kept as it is.
func rewriteConstraint(text, tag string) (string, bool) {
	expr, err := constraint.Parse(text)
	if err != nil {
		return "", false
	}

	rest, held := assumeTag(expr, tag)
	if rest == nil {
		// A constraint that never holds excludes the file for any tag set.
		return "", held
	}

	if constraint.IsGoBuild(text) {
		return "//go:build " + rest.String() + "\n", true
	}

	plus, err := constraint.PlusBuildLines(rest)
	if err != nil {
		return "", false
	}

	return strings.Join(plus, "\n") + "\n", true
}

// assumeTag simplifies expr with tag set. A nil result means the expression
// is the constant held.
func assumeTag(expr constraint.Expr, tag string) (constraint.Expr, bool) {
	switch e := expr.(type) {
	case *constraint.TagExpr:
		if e.Tag == tag {
			return nil, true
		}

		return e, false
	case *constraint.NotExpr:
		x, held := assumeTag(e.X, tag)
		if x == nil {
			return nil, !held
		}

		return &constraint.NotExpr{X: x}, false
	case *constraint.AndExpr:
		x, xHeld := assumeTag(e.X, tag)
		y, yHeld := assumeTag(e.Y, tag)

		switch {
		case x == nil && !xHeld, y == nil && !yHeld:
			return nil, false
		case x == nil:
			return y, yHeld
		case y == nil:
			return x, xHeld
		}

		return &constraint.AndExpr{X: x, Y: y}, false
	case *constraint.OrExpr:
		x, xHeld := assumeTag(e.X, tag)
		y, yHeld := assumeTag(e.Y, tag)

		switch {
		case x == nil && xHeld, y == nil && yHeld:
			return nil, true
		case x == nil:
			return y, yHeld
		case y == nil:
			return x, xHeld
		}

		return &constraint.OrExpr{X: x, Y: y}, false
	}

	return expr, false
}

// HasBuildTag reports whether a build constraint in the file header requires tag.
func HasBuildTag(src []byte, tag string) bool {
	for _, line := range strings.Split(string(src), "\n") {
		text := strings.TrimSpace(line)
		if strings.HasPrefix(text, "package ") {
			return false
		}

		if !constraint.IsGoBuild(text) {
			continue
		}

		expr, err := constraint.Parse(text)
		if err != nil {
			continue
		}

		// Satisfied by every tag but ours: the file only builds with tag.
		if !expr.Eval(func(t string) bool { return t != tag }) {
			return true
		}
	}

	return false
}
