// Package engine defines how script code reaches the dispatcher: as a
// Program that runs against an execution context, optionally exposing named
// members for the options engine to call.
package engine

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/Sey56/Paracore-sub001/internal/execution"
	"github.com/Sey56/Paracore-sub001/internal/script"
)

var (
	// ErrNoProgram means no compiler could produce a program for a unit.
	ErrNoProgram = errors.New("no program for script")

	// ErrNoMember means a program does not expose the requested member.
	ErrNoMember = errors.New("member not found")

	// ErrUnsupported means a compiler does not handle the files it was given.
	ErrUnsupported = errors.New("unsupported script")
)

// Program is runnable script code.
type Program interface {
	Run(ctx context.Context, x *execution.Context) error
}

// Caller is implemented by programs that expose named members, such as the
// `{Name}_Options` companions of a parameter.
type Caller interface {
	Call(ctx context.Context, x *execution.Context, member string) (any, error)
}

// ProgramFunc adapts a function to Program.
type ProgramFunc func(ctx context.Context, x *execution.Context) error

func (f ProgramFunc) Run(ctx context.Context, x *execution.Context) error {
	return f(ctx, x)
}

// Compiler turns a script unit into a program. Compilers return
// ErrUnsupported for units they do not handle.
type Compiler interface {
	Compile(ctx context.Context, name string, files []script.File) (Program, error)
}

// Native is a precompiled Go program with optional callable members.
type Native struct {
	Main    ProgramFunc
	Members map[string]func(ctx context.Context, x *execution.Context) (any, error)
}

var (
	_ Program = (*Native)(nil)
	_ Caller  = (*Native)(nil)
)

func (n *Native) Run(ctx context.Context, x *execution.Context) error {
	if n.Main == nil {
		return nil
	}
	return n.Main(ctx, x)
}

func (n *Native) Call(ctx context.Context, x *execution.Context, member string) (any, error) {
	fn, ok := n.Members[member]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoMember, member)
	}
	return fn(ctx, x)
}

// Registry resolves scripts to programs: first by registered name, then
// by asking each compiler in order.
type Registry struct {
	mu        sync.RWMutex
	programs  map[string]Program
	compilers []Compiler
}

// NewRegistry creates a registry that falls back to compilers.
func NewRegistry(compilers ...Compiler) *Registry {
	return &Registry{
		programs:  make(map[string]Program),
		compilers: compilers,
	}
}

// Register makes a precompiled program available under name.
func (r *Registry) Register(name string, p Program) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.programs[name] = p
}

// Lookup returns the program registered under name.
func (r *Registry) Lookup(name string) (Program, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.programs[name]
	return p, ok
}

// Names lists the registered program names in order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.programs))
	for name := range r.programs {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Compile implements Compiler.
func (r *Registry) Compile(ctx context.Context, name string, files []script.File) (Program, error) {
	if p, ok := r.Lookup(name); ok {
		return p, nil
	}
	for _, c := range r.compilers {
		p, err := c.Compile(ctx, name, files)
		if errors.Is(err, ErrUnsupported) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return p, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrNoProgram, name)
}
