// Package execution holds the per-run execution context handed to script
// programs, the transaction wrapper they use to mutate the host document, and
// the result assembled when a run ends.
package execution

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"strings"
	"sync"
	"time"

	"github.com/robbyt/go-loglater"

	"github.com/Sey56/Paracore-sub001/internal/host"
	"github.com/Sey56/Paracore-sub001/internal/script/params"
)

var (
	// ErrNotActive is returned by context operations after the run has ended.
	ErrNotActive = errors.New("execution context is no longer active")

	// ErrNoExtender is returned by ExtendTimeout when the run has no deadline to extend.
	ErrNoExtender = errors.New("timeout extension is not available")
)

// Context is the capability object bound to one execution. Programs receive
// it explicitly and use it for parameters, output and host access.
type Context struct {
	id         string
	scriptName string
	source     string
	readOnly   bool
	doc        host.Document
	values     params.Values
	publisher  ChangePublisher
	extender   func(time.Duration) error
	forward    slog.Handler

	collector *loglater.LogCollector
	logger    *slog.Logger

	mu           sync.Mutex
	active       bool
	output       strings.Builder
	structured   []StructuredItem
	internalData string
}

// New creates an active context for execution id against doc.
func New(id string, doc host.Document, opts ...Option) *Context {
	x := &Context{
		id:     id,
		doc:    doc,
		values: params.Values{},
		active: true,
	}
	for _, opt := range opts {
		opt(x)
	}
	x.collector = loglater.NewLogCollector(x.forward)
	x.logger = slog.New(x.collector).With("execution_id", id, "script", x.scriptName)
	return x
}

func (x *Context) ID() string              { return x.id }
func (x *Context) ScriptName() string      { return x.scriptName }
func (x *Context) Source() string          { return x.source }
func (x *Context) ReadOnly() bool          { return x.readOnly }
func (x *Context) Document() host.Document { return x.doc }

// Logger returns the execution logger. Warnings and errors logged here are
// reported as error details on the result.
func (x *Context) Logger() *slog.Logger { return x.logger }

// Params returns a copy of the bound parameter values.
func (x *Context) Params() params.Values {
	return maps.Clone(x.values)
}

// Param returns one bound parameter value.
func (x *Context) Param(name string) (any, bool) {
	v, ok := x.values[name]
	return v, ok
}

// Println appends a console line.
func (x *Context) Println(args ...any) {
	x.write(fmt.Sprintln(args...))
}

// Printf appends formatted console text.
func (x *Context) Printf(format string, args ...any) {
	x.write(fmt.Sprintf(format, args...))
}

func (x *Context) write(s string) {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.active {
		x.output.WriteString(s)
	}
}

// Show appends a structured output item. data must marshal to JSON.
func (x *Context) Show(itemType string, data any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to encode %s output: %w", itemType, err)
	}
	x.mu.Lock()
	defer x.mu.Unlock()
	if !x.active {
		return ErrNotActive
	}
	x.structured = append(x.structured, StructuredItem{Type: itemType, Data: raw})
	return nil
}

// SetInternalData replaces the internal-data side channel.
func (x *Context) SetInternalData(data string) {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.active {
		x.internalData = data
	}
}

// InternalData returns the current internal-data payload.
func (x *Context) InternalData() string {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.internalData
}

// ReplaceWorkingSet tells the client to replace its working set with ids.
func (x *Context) ReplaceWorkingSet(ids []int64) {
	ws := WorkingSet{OutputType: OutputTypeWorkingSet, Operation: OperationReplace, ElementIDs: ids}
	x.SetInternalData(ws.String())
}

// ClearWorkingSet tells the client to empty its working set.
func (x *Context) ClearWorkingSet() {
	ws := WorkingSet{OutputType: OutputTypeWorkingSet, Operation: OperationNone}
	x.SetInternalData(ws.String())
}

func (x *Context) addToWorkingSet(ids []int64) {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.active {
		x.internalData = mergeAdded(x.internalData, ids).String()
	}
}

// ExtendTimeout moves the run's deadline to d from now. It may be called
// once per execution.
func (x *Context) ExtendTimeout(d time.Duration) error {
	if x.extender == nil {
		return ErrNoExtender
	}
	return x.extender(d)
}

func (x *Context) isActive() bool {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.active
}

// Captured is everything a run produced, taken when the run ends.
type Captured struct {
	Output           string
	StructuredOutput []StructuredItem
	InternalData     string
	ErrorDetails     []string
}

// Drain deactivates the context and returns what the run produced. Writes
// after Drain are discarded, so a program still running after its deadline
// cannot leak into another result.
func (x *Context) Drain() Captured {
	x.mu.Lock()
	x.active = false
	c := Captured{
		Output:           x.output.String(),
		StructuredOutput: x.structured,
		InternalData:     x.internalData,
	}
	x.mu.Unlock()

	if c.StructuredOutput == nil {
		c.StructuredOutput = []StructuredItem{}
	}
	c.ErrorDetails = x.errorDetails()
	return c
}

func (x *Context) errorDetails() []string {
	details := []string{}
	for _, rec := range x.collector.GetLogs() {
		if rec.Level < slog.LevelWarn {
			continue
		}
		var b strings.Builder
		b.WriteString(rec.Message)
		for _, a := range rec.Attrs {
			if a.Key == "execution_id" || a.Key == "script" {
				continue
			}
			fmt.Fprintf(&b, " %s=%v", a.Key, a.Value)
		}
		details = append(details, b.String())
	}
	return details
}

// PlaybackLogs replays every record logged during the run into handler.
func (x *Context) PlaybackLogs(handler slog.Handler) error {
	return x.collector.PlayLogs(handler)
}
