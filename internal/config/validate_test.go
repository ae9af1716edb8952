package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*Config)
		messages []string
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{
			name: "logging",
			mutate: func(c *Config) {
				c.Logging.Level = "loud"
				c.Logging.Format = "xml"
			},
			messages: []string{"invalid level", "unsupported log format"},
		},
		{
			name: "execution",
			mutate: func(c *Config) {
				c.Execution.TransportTimeout = 0
				c.Execution.MaxTimeoutExtension = FromDuration(-time.Second)
			},
			messages: []string{"transport_timeout", "max_timeout_extension"},
		},
		{
			name: "http without address",
			mutate: func(c *Config) {
				c.HTTP.EnableMetrics = true
			},
			messages: []string{"require listen_addr"},
		},
		{
			name: "http shares rpc address",
			mutate: func(c *Config) {
				c.HTTP.ListenAddr = c.RPC.ListenAddr
			},
			messages: []string{"already used by rpc"},
		},
		{
			name: "notify",
			mutate: func(c *Config) {
				c.Notify.Broker = "tcp://localhost:1883"
				c.Notify.Topic = ""
				c.Notify.QoS = 3
			},
			messages: []string{"topic is required", "qos must be"},
		},
		{
			name: "engine",
			mutate: func(c *Config) {
				c.Engine.Compile = false
			},
			messages: []string{"options requires compile"},
		},
		{
			name: "missing addresses",
			mutate: func(c *Config) {
				c.Host.DSN = ""
				c.RPC.ListenAddr = ""
			},
			messages: []string{"dsn is required", "rpc: listen_addr is required"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if len(tt.messages) == 0 {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			for _, msg := range tt.messages {
				assert.Contains(t, err.Error(), msg)
			}
		})
	}
}
