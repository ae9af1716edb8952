package dispatcher

import (
	"log/slog"
	"time"

	"github.com/Sey56/Paracore-sub001/internal/engine"
	"github.com/Sey56/Paracore-sub001/internal/execution"
)

type Option func(*Dispatcher)

// WithLogger sets a custom logger for the Dispatcher.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// WithLogHandler sets a custom log handler for the Dispatcher.
func WithLogHandler(handler slog.Handler) Option {
	return func(d *Dispatcher) {
		d.logger = slog.New(handler)
	}
}

// WithCompiler sets the compiler used for requests that carry files.
func WithCompiler(c engine.Compiler) Option {
	return func(d *Dispatcher) {
		d.compiler = c
	}
}

// WithDefaultTimeout sets the deadline applied when a request has none.
func WithDefaultTimeout(timeout time.Duration) Option {
	return func(d *Dispatcher) {
		if timeout > 0 {
			d.defaultTimeout = timeout
		}
	}
}

// WithMaxExtension caps the duration a script may extend its deadline to.
// Zero means no cap.
func WithMaxExtension(limit time.Duration) Option {
	return func(d *Dispatcher) {
		d.maxExtension = limit
	}
}

// WithChangePublisher sets where committed change summaries are republished.
func WithChangePublisher(p execution.ChangePublisher) Option {
	return func(d *Dispatcher) {
		d.publisher = p
	}
}

// WithMetrics sets the Prometheus collectors.
func WithMetrics(m *Metrics) Option {
	return func(d *Dispatcher) {
		if m != nil {
			d.metrics = m
		}
	}
}
