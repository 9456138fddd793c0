package domain

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	m "qcgen.dev/pkg/qcgen/internal/model"
)

var markerSpan = m.Span{File: "props.go", Offset: 10, End: 22, Line: 3, Column: 1}

func function(name string, attrs ...string) m.Declaration {
	decl := m.Declaration{
		Kind: m.KindFunction,
		Name: name,
		Span: m.Span{File: "props.go", Offset: 10, End: 80, Line: 3, Column: 1},
		Func: &m.Function{
			Params:  "x int",
			Results: "bool",
			Body:    m.Body{Source: "{ return true }"},
		},
	}

	for _, a := range attrs {
		decl.Attributes = append(decl.Attributes, m.NewAttribute(a))
	}

	return decl
}

func static(name string, attrs ...string) m.Declaration {
	decl := m.Declaration{
		Kind: m.KindStatic,
		Name: name,
		Span: m.Span{File: "props.go", Offset: 100, End: 160, Line: 9, Column: 1},
		Static: &m.Static{
			Value: "func(n uint8) bool { return n == n+0 }",
		},
	}

	for _, a := range attrs {
		decl.Attributes = append(decl.Attributes, m.NewAttribute(a))
	}

	return decl
}

func TestNewExpander_Defaults(t *testing.T) {
	e := NewExpander("", "")
	assert.Equal(t, DefaultRunnerPackage, e.RunnerPackage)
	assert.Equal(t, DefaultRunnerFunc, e.RunnerFunc)

	e = NewExpander("example.com/runner", "Check")
	assert.Equal(t, "example.com/runner", e.RunnerPackage)
	assert.Equal(t, "Check", e.RunnerFunc)
}

func TestExpander_Expand(t *testing.T) {
	tests := []struct {
		name     string
		decl     m.Declaration
		replaced bool
	}{
		{"function", function("check_something"), true},
		{"static", static("check_const"), true},
		{"const", m.Declaration{Kind: m.KindConst, Name: "Limit"}, false},
		{"type", m.Declaration{Kind: m.KindType, Name: "Foo"}, false},
		{"method", m.Declaration{Kind: m.KindMethod, Name: "Check"}, false},
		{"import", m.Declaration{Kind: m.KindImport, Name: `"fmt"`}, false},
		{"var group", m.Declaration{Kind: m.KindVarGroup, Name: "a"}, false},
	}

	e := NewExpander("", "")

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := e.Expand(markerSpan, tt.decl)

			assert.Equal(t, tt.replaced, res.Replaced)

			if tt.replaced {
				assert.Nil(t, res.Diagnostic)
				assert.Equal(t, m.KindFunction, res.Declaration.Kind)
				assert.Equal(t, tt.decl.Name, res.Declaration.Name)

				return
			}

			require.NotNil(t, res.Diagnostic)
			assert.Equal(t, tt.decl, res.Declaration)
			assert.Equal(t, m.SevError, res.Diagnostic.Severity)
			assert.Equal(t, m.CodeUnsupportedDeclaration, res.Diagnostic.Code)
			assert.Equal(t, "only supported on statics and functions", res.Diagnostic.Message)
			assert.Equal(t, markerSpan, res.Diagnostic.Span)
		})
	}
}

func TestExpander_ScenarioFunction(t *testing.T) {
	input := function("check_something")
	res := NewExpander("", "").Expand(markerSpan, input)

	require.True(t, res.Replaced)

	w := res.Declaration
	assert.Equal(t, "check_something", w.Name)
	assert.Equal(t, input.Span, w.Span)
	assert.Equal(t, []m.Attribute{m.TestAttribute}, w.Attributes)

	require.NotNil(t, w.Func)
	assert.Empty(t, w.Func.Params)
	assert.Empty(t, w.Func.Results)
	assert.Empty(t, w.Func.TypeParams)

	body := w.Func.Body
	require.Len(t, body.Decls, 1)

	inner := body.Decls[0]
	assert.Equal(t, m.KindFunction, inner.Kind)
	assert.Equal(t, "check_something", inner.Name)
	assert.Empty(t, inner.Attributes)
	assert.Equal(t, "x int", inner.Func.Params)
	assert.Equal(t, "bool", inner.Func.Results)
	assert.Equal(t, "{ return true }", inner.Func.Body.Source)

	require.NotNil(t, body.Tail)
	assert.Equal(t, m.Call{
		Package: DefaultRunnerPackage,
		Func:    DefaultRunnerFunc,
		Args:    []string{"check_something"},
	}, *body.Tail)
}

func TestExpander_ScenarioStatic(t *testing.T) {
	input := static("check_const", "//nolint:unused")
	res := NewExpander("", "").Expand(markerSpan, input)

	require.True(t, res.Replaced)

	w := res.Declaration
	assert.Equal(t, m.KindFunction, w.Kind)
	assert.Equal(t, "check_const", w.Name)
	assert.Equal(t, []m.Attribute{m.NewAttribute("//nolint:unused"), m.TestAttribute}, w.Attributes)

	require.Len(t, w.Func.Body.Decls, 1)

	inner := w.Func.Body.Decls[0]
	assert.Equal(t, m.KindStatic, inner.Kind)
	assert.Empty(t, inner.Attributes)
	assert.Equal(t, input.Static, inner.Static)
	assert.Equal(t, []string{"check_const"}, w.Func.Body.Tail.Args)
}

func TestExpander_ScenarioStruct(t *testing.T) {
	input := m.Declaration{
		Kind:       m.KindType,
		Name:       "Foo",
		Attributes: []m.Attribute{m.NewAttribute("//quickcheck")},
		Source:     "//quickcheck\ntype Foo struct{}",
	}

	res := NewExpander("", "").Expand(markerSpan, input)

	assert.False(t, res.Replaced)
	assert.Equal(t, input, res.Declaration)
	require.NotNil(t, res.Diagnostic)
	assert.Equal(t, "only supported on statics and functions", res.Diagnostic.Message)
	assert.Equal(t, markerSpan, res.Diagnostic.Span)
}

func TestExpander_TestAttributeNotDuplicated(t *testing.T) {
	input := function("check", "//test", "// doc")
	res := NewExpander("", "").Expand(markerSpan, input)

	require.True(t, res.Replaced)
	assert.Equal(t, input.Attributes, res.Declaration.Attributes)
}

func TestExpander_InputNotMutated(t *testing.T) {
	input := function("check", "// doc")
	snapshot := input.Clone()

	res := NewExpander("", "").Expand(markerSpan, input)
	res.Declaration.Attributes[0].Text = "// changed"
	res.Declaration.Func.Body.Decls[0].Func.Params = "y string"

	assert.Equal(t, snapshot, input)
}

func TestExpander_CustomRunner(t *testing.T) {
	res := NewExpander("example.com/prop", "Check").Expand(markerSpan, function("p"))

	require.True(t, res.Replaced)
	assert.Equal(t, "example.com/prop", res.Declaration.Func.Body.Tail.Package)
	assert.Equal(t, "Check", res.Declaration.Func.Body.Tail.Func)
}

func genAttributes() gopter.Gen {
	return gen.SliceOf(gen.OneConstOf(
		"// doc line",
		"//nolint:unused",
		"//go:noinline",
		"//test",
		"//lint:ignore U1000 generated",
	)).Map(func(texts []string) []m.Attribute {
		attrs := make([]m.Attribute, 0, len(texts))
		for _, text := range texts {
			attrs = append(attrs, m.NewAttribute(text))
		}

		return attrs
	})
}

func genKind() gopter.Gen {
	return gen.OneConstOf(
		m.KindFunction, m.KindStatic, m.KindConst, m.KindType,
		m.KindMethod, m.KindImport, m.KindVarGroup,
	)
}

func genDeclaration() gopter.Gen {
	return gopter.CombineGens(gen.Identifier(), genKind(), genAttributes()).Map(func(v []any) m.Declaration {
		name := v[0].(string)
		kind := v[1].(m.DeclKind)
		attrs := v[2].([]m.Attribute)

		var decl m.Declaration

		switch kind {
		case m.KindFunction:
			decl = function(name)
		case m.KindStatic:
			decl = static(name)
		default:
			decl = m.Declaration{Kind: kind, Name: name, Source: "decl " + name}
		}

		decl.Attributes = attrs

		return decl
	})
}

func TestExpander_Properties(t *testing.T) {
	params := gopter.DefaultTestParametersWithSeed(1)
	params.MinSuccessfulTests = 200

	properties := gopter.NewProperties(params)
	e := NewExpander("", "")

	supported := func(d m.Declaration) bool {
		return d.Kind == m.KindFunction || d.Kind == m.KindStatic
	}

	properties.Property("wrapper shape", prop.ForAll(
		func(d m.Declaration) bool {
			if !supported(d) {
				return true
			}

			res := e.Expand(markerSpan, d)
			w := res.Declaration
			body := w.Func.Body

			return res.Replaced &&
				w.Kind == m.KindFunction &&
				w.Name == d.Name &&
				w.Span == d.Span &&
				w.Func.Params == "" && w.Func.Results == "" &&
				len(body.Decls) == 1 &&
				body.Decls[0].Kind == d.Kind &&
				len(body.Decls[0].Attributes) == 0 &&
				body.Tail != nil &&
				len(body.Tail.Args) == 1 && body.Tail.Args[0] == d.Name
		},
		genDeclaration(),
	))

	properties.Property("rejection keeps input", prop.ForAll(
		func(d m.Declaration) bool {
			if supported(d) {
				return true
			}

			res := e.Expand(markerSpan, d)

			return !res.Replaced &&
				res.Diagnostic != nil &&
				res.Diagnostic.Span == markerSpan &&
				assert.ObjectsAreEqual(d, res.Declaration)
		},
		genDeclaration(),
	))

	properties.Property("single test attribute, others echoed in order", prop.ForAll(
		func(d m.Declaration) bool {
			if !supported(d) {
				return true
			}

			attrs := e.Expand(markerSpan, d).Declaration.Attributes

			count := 0
			for _, a := range attrs {
				if a.Equal(m.TestAttribute) {
					count++
				}
			}

			want := 1
			if d.IsTest() {
				want = 0
				for _, a := range d.Attributes {
					if a.Equal(m.TestAttribute) {
						want++
					}
				}
			}

			return count == want &&
				len(attrs) >= len(d.Attributes) &&
				assert.ObjectsAreEqual(d.Attributes, attrs[:len(d.Attributes)])
		},
		genDeclaration(),
	))

	properties.Property("deterministic", prop.ForAll(
		func(d m.Declaration) bool {
			return assert.ObjectsAreEqual(e.Expand(markerSpan, d), e.Expand(markerSpan, d))
		},
		genDeclaration(),
	))

	properties.TestingRun(t)
}
