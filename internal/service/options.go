package service

import (
	"log/slog"
	"time"

	"github.com/Sey56/Paracore-sub001/internal/engine"
	"github.com/Sey56/Paracore-sub001/internal/options"
)

type Option func(*Service)

// WithLogHandler sets a custom log handler for the Service.
func WithLogHandler(handler slog.Handler) Option {
	return func(s *Service) {
		s.logger = slog.New(handler)
	}
}

// WithOptionsEngine sets the engine behind ComputeOptions.
func WithOptionsEngine(e *options.Engine) Option {
	return func(s *Service) {
		s.options = e
	}
}

// WithPrograms sets the registry precompiled programs are looked up in.
func WithPrograms(r *engine.Registry) Option {
	return func(s *Service) {
		s.programs = r
	}
}

// WithTransportTimeout bounds how long Execute waits for the dispatcher.
func WithTransportTimeout(timeout time.Duration) Option {
	return func(s *Service) {
		if timeout > 0 {
			s.transportTimeout = timeout
		}
	}
}
