// Package model defines the data structures shared by the generator layers.
package model

import (
	"strings"
	"unicode"
)

// DeclKind classifies a top-level declaration.
type DeclKind int

const (
	// KindFunction is a plain (receiver-less) function declaration.
	KindFunction DeclKind = iota
	// KindStatic is a package-level var declaring exactly one name.
	KindStatic
	// KindConst is a package-level const declaration.
	KindConst
	// KindType is a type declaration.
	KindType
	// KindMethod is a function declaration with a receiver.
	KindMethod
	// KindImport is an import declaration.
	KindImport
	// KindVarGroup is a var declaration with several names or specs.
	KindVarGroup
)

func (k DeclKind) String() string {
	switch k {
	case KindFunction:
		return "function"
	case KindStatic:
		return "static"
	case KindConst:
		return "const"
	case KindType:
		return "type"
	case KindMethod:
		return "method"
	case KindImport:
		return "import"
	case KindVarGroup:
		return "var group"
	}

	return "unknown"
}

// Attribute is one line of a declaration's doc comment group, kept verbatim.
type Attribute struct {
	Text string
	Span Span
}

// TestAttribute marks a declaration as a test entry point.
var TestAttribute = Attribute{Text: "//test"}

// NewAttribute builds an attribute from a raw comment line.
func NewAttribute(text string) Attribute {
	return Attribute{Text: text}
}

// Name returns the directive namespace of the attribute, e.g. "quickcheck"
// for "//quickcheck" or "nolint" for "//nolint:unused". Ordinary doc
// comments ("// text") have an empty name.
func (a Attribute) Name() string {
	body, ok := strings.CutPrefix(a.Text, "//")
	if !ok || body == "" {
		return ""
	}

	end := strings.IndexFunc(body, func(r rune) bool {
		return r == ':' || unicode.IsSpace(r)
	})
	if end == 0 {
		return ""
	}

	if end > 0 {
		body = body[:end]
	}

	for _, r := range body {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' && r != '-' && r != '.' {
			return ""
		}
	}

	return body
}

// Equal compares attributes by text; spans are positional metadata.
func (a Attribute) Equal(other Attribute) bool {
	return a.Text == other.Text
}

// Call is a call expression to a package-qualified function.
type Call struct {
	Package string // import path of the callee's package
	Func    string
	Args    []string
}

// PackageName returns the last element of the import path.
func (c Call) PackageName() string {
	if i := strings.LastIndex(c.Package, "/"); i >= 0 {
		return c.Package[i+1:]
	}

	return c.Package
}

// Body is a function body: either verbatim source, or a generated block of
// nested declarations followed by a trailing call.
type Body struct {
	Source string
	Decls  []Declaration
	Tail   *Call
}

// Generated reports whether the body was built rather than parsed.
func (b Body) Generated() bool {
	return b.Source == "" && (len(b.Decls) > 0 || b.Tail != nil)
}

// Function is the payload of a KindFunction declaration. Signature parts are
// source text without surrounding brackets for TypeParams and Params.
type Function struct {
	TypeParams string
	Params     string
	Results    string
	Body       Body
}

// Static is the payload of a KindStatic declaration.
type Static struct {
	Type  string
	Value string
}

// Declaration is a tagged variant over DeclKind. Func is set for
// KindFunction, Static for KindStatic; other kinds carry only Source.
type Declaration struct {
	Kind       DeclKind
	Name       string
	Span       Span
	Attributes []Attribute
	Source     string // verbatim text, doc comments included
	Func       *Function
	Static     *Static
}

// Clone returns a copy that shares no mutable state with d.
func (d Declaration) Clone() Declaration {
	out := d
	out.Attributes = append([]Attribute(nil), d.Attributes...)

	if d.Func != nil {
		fn := *d.Func
		fn.Body = d.Func.Body.clone()
		out.Func = &fn
	}

	if d.Static != nil {
		st := *d.Static
		out.Static = &st
	}

	return out
}

// WithoutAttributes returns a clone of d with an empty attribute set.
func (d Declaration) WithoutAttributes() Declaration {
	out := d.Clone()
	out.Attributes = nil

	return out
}

// HasAttribute reports whether d carries an attribute equal to attr.
func (d Declaration) HasAttribute(attr Attribute) bool {
	for _, a := range d.Attributes {
		if a.Equal(attr) {
			return true
		}
	}

	return false
}

// IsTest reports whether d carries TestAttribute.
func (d Declaration) IsTest() bool {
	return d.HasAttribute(TestAttribute)
}

func (b Body) clone() Body {
	out := b
	if b.Decls != nil {
		out.Decls = make([]Declaration, len(b.Decls))
		for i, decl := range b.Decls {
			out.Decls[i] = decl.Clone()
		}
	}

	if b.Tail != nil {
		tail := *b.Tail
		tail.Args = append([]string(nil), b.Tail.Args...)
		out.Tail = &tail
	}

	return out
}
