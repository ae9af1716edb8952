// Package polyscript compiles Risor and Starlark entry files into engine
// programs using go-polyscript.
package polyscript

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/robbyt/go-polyscript/engines/risor"
	"github.com/robbyt/go-polyscript/engines/starlark"
	"github.com/robbyt/go-polyscript/platform"
	"github.com/robbyt/go-polyscript/platform/script/loader"

	"github.com/Sey56/Paracore-sub001/internal/engine"
	"github.com/Sey56/Paracore-sub001/internal/script"
)

// Language identifies an entry file language.
type Language string

const (
	LanguageRisor    Language = "risor"
	LanguageStarlark Language = "starlark"
)

var extensions = map[string]Language{
	".risor":    LanguageRisor,
	".rsr":      LanguageRisor,
	".star":     LanguageStarlark,
	".starlark": LanguageStarlark,
}

// LanguageOf returns the language of a file name, if it is an entry file.
func LanguageOf(name string) (Language, bool) {
	lang, ok := extensions[strings.ToLower(filepath.Ext(name))]
	return lang, ok
}

// EntryFile returns the first Risor or Starlark file of a unit.
func EntryFile(files []script.File) (script.File, Language, bool) {
	for _, f := range files {
		if lang, ok := LanguageOf(f.Name); ok {
			return f, lang, true
		}
	}
	return script.File{}, "", false
}

var _ engine.Compiler = (*Compiler)(nil)

// Compiler implements engine.Compiler for Risor and Starlark entry files.
type Compiler struct {
	logger *slog.Logger
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithLogHandler sets the handler used by the compiler and its evaluators.
func WithLogHandler(handler slog.Handler) Option {
	return func(c *Compiler) {
		if handler != nil {
			c.logger = slog.New(handler)
		}
	}
}

// NewCompiler creates a compiler.
func NewCompiler(opts ...Option) *Compiler {
	c := &Compiler{logger: slog.Default().WithGroup("polyscript")}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compile compiles the unit's entry file. Units without one are reported
// as engine.ErrUnsupported.
func (c *Compiler) Compile(_ context.Context, name string, files []script.File) (engine.Program, error) {
	entry, lang, ok := EntryFile(files)
	if !ok {
		return nil, fmt.Errorf("%w: %q has no risor or starlark entry file", engine.ErrUnsupported, name)
	}
	eval, err := c.build(lang, entry.Content)
	if err != nil {
		return nil, fmt.Errorf("failed to compile %s: %w", entry.Name, err)
	}
	c.logger.Debug("Compiled script", "name", name, "entry", entry.Name, "language", lang)
	return &Program{
		name:     name,
		lang:     lang,
		source:   entry.Content,
		compiler: c,
		eval:     eval,
	}, nil
}

func (c *Compiler) build(lang Language, source string) (platform.Evaluator, error) {
	ldr, err := loader.NewFromString(source)
	if err != nil {
		return nil, err
	}
	handler := c.logger.Handler()
	switch lang {
	case LanguageRisor:
		return risor.FromRisorLoader(handler, ldr)
	case LanguageStarlark:
		return starlark.FromStarlarkLoader(handler, ldr)
	default:
		return nil, fmt.Errorf("%w: language %q", engine.ErrUnsupported, lang)
	}
}

var functionDecl = map[Language]string{
	LanguageRisor:    `func`,
	LanguageStarlark: `def`,
}

// HasFunction reports whether source declares a top-level function named name.
func HasFunction(lang Language, source, name string) bool {
	kw, ok := functionDecl[lang]
	if !ok {
		return false
	}
	re := regexp.MustCompile(`(?m)^` + kw + `\s+` + regexp.QuoteMeta(name) + `\s*\(`)
	return re.MatchString(source)
}

// callSource appends a call to member so its return value becomes the
// script result.
func callSource(lang Language, source, member string) string {
	if lang == LanguageStarlark {
		return source + "\n_ = " + member + "()\n"
	}
	return source + "\n" + member + "()\n"
}
