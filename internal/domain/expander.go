package domain

import (
	m "qcgen.dev/pkg/qcgen/internal/model"
)

const (
	// QuickcheckAttribute is the marker attribute name the expander is registered under.
	QuickcheckAttribute = "quickcheck"

	// DefaultRunnerPackage is the import path of the property runner called by wrappers.
	DefaultRunnerPackage = "qcgen.dev/pkg/qcgen/pkg/quickcheck"
	// DefaultRunnerFunc is the runner entry point.
	DefaultRunnerFunc = "Run"

	unsupportedMessage = "only supported on statics and functions"
)

// ExpansionResult is either a replacement declaration or the unchanged input
// plus a diagnostic.
type ExpansionResult struct {
	Replaced    bool
	Declaration m.Declaration
	Diagnostic  *m.Diagnostic
}

// Replace builds a result that substitutes decl for the annotated input.
func Replace(decl m.Declaration) ExpansionResult {
	return ExpansionResult{Replaced: true, Declaration: decl}
}

// Unchanged builds a result that keeps decl and reports diag.
func Unchanged(decl m.Declaration, diag m.Diagnostic) ExpansionResult {
	return ExpansionResult{Declaration: decl, Diagnostic: &diag}
}

// Expander rewrites a function or static into a test wrapper that nests the
// original and passes it to the runner.
type Expander struct {
	RunnerPackage string
	RunnerFunc    string
}

// NewExpander returns an Expander calling runnerFunc in runnerPackage.
// Empty arguments fall back to the bundled quickcheck runner.
func NewExpander(runnerPackage, runnerFunc string) Expander {
	if runnerPackage == "" {
		runnerPackage = DefaultRunnerPackage
	}

	if runnerFunc == "" {
		runnerFunc = DefaultRunnerFunc
	}

	return Expander{RunnerPackage: runnerPackage, RunnerFunc: runnerFunc}
}

// Expand rewrites decl. span is the location of the triggering attribute and
// anchors the diagnostic for unsupported declaration kinds.
func (e Expander) Expand(span m.Span, decl m.Declaration) ExpansionResult {
	switch decl.Kind {
	case m.KindFunction, m.KindStatic:
		return Replace(e.wrap(decl))
	default:
		return Unchanged(decl, m.Diagnostic{
			Severity: m.SevError,
			Code:     m.CodeUnsupportedDeclaration,
			Message:  unsupportedMessage,
			Span:     span,
		})
	}
}

// Modifier exposes Expand with the registry's signature.
func (e Expander) Modifier() Modifier {
	return e.Expand
}

func (e Expander) wrap(decl m.Declaration) m.Declaration {
	inner := decl.WithoutAttributes()

	call := m.Call{
		Package: e.RunnerPackage,
		Func:    e.RunnerFunc,
		Args:    []string{decl.Name},
	}

	attrs := append([]m.Attribute(nil), decl.Attributes...)
	if !decl.IsTest() {
		attrs = append(attrs, m.TestAttribute)
	}

	return m.Declaration{
		Kind:       m.KindFunction,
		Name:       decl.Name,
		Span:       decl.Span,
		Attributes: attrs,
		Func: &m.Function{
			Body: m.Body{
				Decls: []m.Declaration{inner},
				Tail:  &call,
			},
		},
	}
}
