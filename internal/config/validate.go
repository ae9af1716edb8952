package config

import (
	"errors"
	"fmt"

	"github.com/Sey56/Paracore-sub001/internal/logging"
)

// Validate checks every section and reports all problems at once.
func (c *Config) Validate() error {
	var errz []error

	if !logging.ValidLevel(c.Logging.Level) {
		errz = append(errz, fmt.Errorf("logging: invalid level %q", c.Logging.Level))
	}
	if _, err := logging.ParseFormat(c.Logging.Format); err != nil {
		errz = append(errz, fmt.Errorf("logging: %w", err))
	}

	if c.Execution.DefaultTimeout <= 0 {
		errz = append(errz, fmt.Errorf("execution: default_timeout must be positive, got %s", c.Execution.DefaultTimeout))
	}
	if c.Execution.TransportTimeout <= 0 {
		errz = append(errz, fmt.Errorf("execution: transport_timeout must be positive, got %s", c.Execution.TransportTimeout))
	}
	if c.Execution.MaxTimeoutExtension < 0 {
		errz = append(errz, fmt.Errorf("execution: max_timeout_extension cannot be negative"))
	}

	if c.Host.DSN == "" {
		errz = append(errz, errors.New("host: dsn is required"))
	}

	if c.RPC.ListenAddr == "" {
		errz = append(errz, errors.New("rpc: listen_addr is required"))
	}

	if c.HTTPEnabled() {
		if c.HTTP.ListenAddr == c.RPC.ListenAddr {
			errz = append(errz, fmt.Errorf("http: listen_addr %s is already used by rpc", c.HTTP.ListenAddr))
		}
		if c.HTTP.ReadTimeout <= 0 || c.HTTP.WriteTimeout <= 0 || c.HTTP.IdleTimeout <= 0 {
			errz = append(errz, errors.New("http: read, write and idle timeouts must be positive"))
		}
		if c.HTTP.DrainTimeout < 0 {
			errz = append(errz, errors.New("http: drain_timeout cannot be negative"))
		}
	} else if c.HTTP.EnableMCP || c.HTTP.EnableMetrics {
		errz = append(errz, errors.New("http: enable_mcp and enable_metrics require listen_addr"))
	}

	if c.NotifyEnabled() {
		if c.Notify.Topic == "" {
			errz = append(errz, errors.New("notify: topic is required when broker is set"))
		}
		if c.Notify.QoS < 0 || c.Notify.QoS > 2 {
			errz = append(errz, fmt.Errorf("notify: qos must be 0, 1 or 2, got %d", c.Notify.QoS))
		}
	}

	if c.Engine.Options && !c.Engine.Compile {
		errz = append(errz, errors.New("engine: options requires compile"))
	}

	return errors.Join(errz...)
}
