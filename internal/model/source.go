package model

// Path represents a file system path.
type Path string

// File represents a source code file.
type File struct {
	FullPath  Path
	ShortPath Path
	Hash      string
}

// Source is a Go file that may contain annotated declarations, paired with
// the path of the test file generated from it.
type Source struct {
	Origin  *File
	Output  Path
	Package string
}
