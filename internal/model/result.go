package model

// ExpansionStatus describes what happened to one annotated declaration.
type ExpansionStatus int

const (
	// Expanded means the declaration was replaced by a test wrapper.
	Expanded ExpansionStatus = iota
	// Rejected means the declaration was kept and a diagnostic was reported.
	Rejected
)

func (s ExpansionStatus) String() string {
	if s == Expanded {
		return "expanded"
	}

	return "rejected"
}

// Expansion records one annotated declaration and its outcome.
type Expansion struct {
	Attribute string // name of the triggering attribute
	Name      string
	Kind      DeclKind
	TestName  string // empty when rejected
	Span      Span
	Status    ExpansionStatus
}

// FileStatus describes what happened to one source file.
type FileStatus int

const (
	// FileGenerated means a test file was produced.
	FileGenerated FileStatus = iota
	// FileUnchanged means the produced content matched the existing output.
	FileUnchanged
	// FileCached means the source was skipped by the incremental cache.
	FileCached
	// FileFailed means the file could not be processed.
	FileFailed
	// FileSkipped means the file carries no annotated declarations.
	FileSkipped
	// FileRemoved means the file lost its annotations and the output it
	// produced earlier was deleted.
	FileRemoved
)

func (s FileStatus) String() string {
	switch s {
	case FileGenerated:
		return "generated"
	case FileUnchanged:
		return "unchanged"
	case FileCached:
		return "cached"
	case FileFailed:
		return "failed"
	case FileSkipped:
		return "skipped"
	case FileRemoved:
		return "removed"
	}

	return "unknown"
}

// FileResult holds the outcome of generating one source file.
type FileResult struct {
	Source      Source
	Status      FileStatus
	Content     []byte
	Expansions  []Expansion
	Diagnostics []Diagnostic
	Diff        string
	Err         error
}

// HasErrors reports whether any error-severity diagnostic was produced.
func (r FileResult) HasErrors() bool {
	for _, d := range r.Diagnostics {
		if d.Severity == SevError {
			return true
		}
	}

	return false
}

// VerifyResult is the outcome of running go test in one package directory.
type VerifyResult struct {
	Dir    Path
	Passed bool
	Output string
}

// Summary aggregates a generate run.
type Summary struct {
	Files       int
	Generated   int
	Cached      int
	Failed      int
	Removed     int
	Expanded    int
	Rejected    int
	Diagnostics int
}

// Add folds one file result into the summary.
func (s *Summary) Add(result FileResult) {
	if result.Status == FileSkipped {
		return
	}

	s.Files++

	switch result.Status {
	case FileGenerated, FileUnchanged:
		s.Generated++
	case FileCached:
		s.Cached++
	case FileFailed:
		s.Failed++
	case FileRemoved:
		s.Removed++
	}

	for _, e := range result.Expansions {
		if e.Status == Expanded {
			s.Expanded++
		} else {
			s.Rejected++
		}
	}

	s.Diagnostics += len(result.Diagnostics)
}

// CacheEntry is the incremental-cache record for one source file.
type CacheEntry struct {
	Hash        string `yaml:"hash"`
	Output      Path   `yaml:"output"`
	Fingerprint string `yaml:"fingerprint"`
}

// Cache maps source paths to their cache entries.
type Cache struct {
	Version int                 `yaml:"version"`
	Entries map[Path]CacheEntry `yaml:"entries"`
}
