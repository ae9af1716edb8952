package execution

import (
	"log/slog"
	"time"

	"github.com/Sey56/Paracore-sub001/internal/script/params"
)

// Option configures a Context.
type Option func(*Context)

// WithScriptName sets the script name reported on the result.
func WithScriptName(name string) Option {
	return func(x *Context) {
		x.scriptName = name
	}
}

// WithSource records the caller identity, such as "cli" or "mcp".
func WithSource(source string) Option {
	return func(x *Context) {
		x.source = source
	}
}

// WithReadOnly turns Transact into a logged no-op.
func WithReadOnly(readOnly bool) Option {
	return func(x *Context) {
		x.readOnly = readOnly
	}
}

// WithParams sets the bound parameter values.
func WithParams(values params.Values) Option {
	return func(x *Context) {
		if values != nil {
			x.values = values
		}
	}
}

// WithChangePublisher sets where committed change summaries are republished.
func WithChangePublisher(p ChangePublisher) Option {
	return func(x *Context) {
		x.publisher = p
	}
}

// WithTimeoutExtender sets the function ExtendTimeout delegates to.
func WithTimeoutExtender(fn func(time.Duration) error) Option {
	return func(x *Context) {
		x.extender = fn
	}
}

// WithLogHandler forwards execution log records to handler as they happen,
// in addition to collecting them.
func WithLogHandler(handler slog.Handler) Option {
	return func(x *Context) {
		x.forward = handler
	}
}
