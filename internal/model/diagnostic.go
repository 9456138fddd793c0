package model

import "fmt"

// Span locates a range of bytes in a source file.
type Span struct {
	File   Path
	Offset int // byte offset, inclusive
	End    int // byte offset, exclusive
	Line   int
	Column int
}

func (s Span) String() string {
	if s.Line == 0 {
		return string(s.File)
	}

	return fmt.Sprintf("%s:%d:%d", s.File, s.Line, s.Column)
}

// Severity defines the importance of a diagnostic.
type Severity uint8

const (
	// SevWarning is for diagnostics that do not affect the exit status.
	SevWarning Severity = iota
	// SevError is for diagnostics that fail the run under the default policy.
	SevError
)

func (s Severity) String() string {
	switch s {
	case SevWarning:
		return "warning"
	case SevError:
		return "error"
	}

	return "unknown"
}

// Code identifies the kind of a diagnostic.
type Code string

const (
	// CodeUnsupportedDeclaration is reported when a marker is attached to a
	// declaration that is neither a function nor a static.
	CodeUnsupportedDeclaration Code = "unsupported-declaration"
	// CodeRender is reported when a replacement cannot be printed as Go.
	CodeRender Code = "render"
	// CodeMissingBuildTag is reported when an annotated source would be
	// compiled together with its generated file.
	CodeMissingBuildTag Code = "missing-build-tag"
)

// Diagnostic is a non-fatal error tied to a source location.
type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Span     Span
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s: %s", d.Span, d.Severity, d.Message)
}
