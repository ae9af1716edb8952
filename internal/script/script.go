// Package script holds the data model shared by the static analysis and
// execution layers: source files, parameter descriptors and metadata.
package script

import (
	"path/filepath"
	"strings"
)

// File is one source file of a script unit.
type File struct {
	Name    string `json:"fileName"`
	Content string `json:"content"`
}

// Ext returns the lowercased file extension, including the dot.
func (f File) Ext() string {
	return strings.ToLower(filepath.Ext(f.Name))
}

// IsCSharp reports whether the file is a C# source file. Files without a
// name are treated as C#.
func (f File) IsCSharp() bool {
	return f.Name == "" || f.Ext() == ".cs"
}

// Unit is a named group of source files that together form one script.
type Unit struct {
	Name  string `json:"name"`
	Files []File `json:"files"`
}

// CSharpFiles returns only the C# files of the unit, in order.
func (u Unit) CSharpFiles() []File {
	return CSharpFiles(u.Files)
}

// CSharpFiles filters files down to C# sources, keeping their order.
func CSharpFiles(files []File) []File {
	out := make([]File, 0, len(files))
	for _, f := range files {
		if f.IsCSharp() {
			out = append(out, f)
		}
	}
	return out
}
