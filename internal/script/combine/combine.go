// Package combine merges the files of a script unit into a single
// compilation text and identifies the file holding the entry statements.
package combine

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Sey56/Paracore-sub001/internal/script"
	"github.com/Sey56/Paracore-sub001/internal/script/csharp"
)

var (
	// ErrNoEntry is returned when no file of a unit has top-level statements.
	ErrNoEntry = errors.New("no file contains top-level statements")

	// ErrAmbiguousEntry is returned when more than one file has top-level
	// statements.
	ErrAmbiguousEntry = errors.New("more than one file contains top-level statements")
)

type parsed struct {
	file script.File
	ast  *csharp.File
}

func parseAll(files []script.File) []parsed {
	out := make([]parsed, 0, len(files))
	for _, f := range script.CSharpFiles(files) {
		out = append(out, parsed{file: f, ast: csharp.Parse(f.Content)})
	}
	return out
}

// IdentifyTopLevelScript returns the first file, in the given order, that
// contains top-level statements, or nil when none does.
func IdentifyTopLevelScript(files []script.File) *script.File {
	for _, p := range parseAll(files) {
		if p.ast.HasTopLevelStatements() {
			f := p.file
			return &f
		}
	}
	return nil
}

// ResolveEntry is the strict form of IdentifyTopLevelScript used before
// execution: exactly one file must have top-level statements.
func ResolveEntry(files []script.File) (*script.File, error) {
	var found []script.File
	for _, p := range parseAll(files) {
		if p.ast.HasTopLevelStatements() {
			found = append(found, p.file)
		}
	}
	switch len(found) {
	case 0:
		return nil, ErrNoEntry
	case 1:
		return &found[0], nil
	}
	names := make([]string, 0, len(found))
	for _, f := range found {
		names = append(names, f.Name)
	}
	return nil, fmt.Errorf("%w: %s", ErrAmbiguousEntry, strings.Join(names, ", "))
}

// Combine produces one compilation unit from files: the deduplicated using
// directives of all files, then every declaration in file order, then the
// top-level statements of the entry file in their original order.
// File-scoped namespace declarations are dropped since several of them
// cannot share one unit. Statements in files other than the entry file
// are not carried over.
func Combine(files []script.File) string {
	all := parseAll(files)
	entry := -1
	for i, p := range all {
		if p.ast.HasTopLevelStatements() {
			entry = i
			break
		}
	}

	var usings, decls, stmts []string
	seen := make(map[string]bool)
	for _, p := range all {
		for _, u := range p.ast.Usings {
			if !seen[u.Text] {
				seen[u.Text] = true
				usings = append(usings, u.Text)
			}
		}
	}
	for i, p := range all {
		for _, it := range p.ast.Items {
			if it.Kind == csharp.ItemDeclaration {
				decls = append(decls, p.ast.Text(it))
			}
		}
		if i == entry {
			stmts = statementBlocks(p.ast)
		}
	}

	var b strings.Builder
	for _, section := range [][]string{usings, decls, stmts} {
		if len(section) == 0 {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(strings.Join(section, "\n"))
	}
	if b.Len() > 0 {
		b.WriteString("\n")
	}
	return b.String()
}

// statementBlocks returns the source of runs of consecutive statements, so
// comments and blank lines between statements survive.
func statementBlocks(f *csharp.File) []string {
	var out []string
	start, end := -1, -1
	flush := func() {
		if start >= 0 {
			out = append(out, f.Source[start:end])
		}
		start, end = -1, -1
	}
	for _, it := range f.Items {
		switch it.Kind {
		case csharp.ItemStatement:
			if start < 0 {
				start = it.Start
			}
			end = it.End
		case csharp.ItemDirective:
		default:
			flush()
		}
	}
	flush()
	return out
}
