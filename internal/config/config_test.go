package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fullConfig = `
[logging]
level = "debug"
format = "json"
output = "${PARACORE_TEST_LOG_DIR:/tmp}/paracore.log"

[execution]
default_timeout = "20s"
transport_timeout = "45s"
max_timeout_extension = "2m"

[host]
dsn = "file:model.db"
document_type = "Family"
title = "Door"

[rpc]
listen_addr = "unix:///tmp/paracore.sock"

[http]
listen_addr = "localhost:8080"
enable_mcp = true
enable_metrics = true

[notify]
broker = "tcp://localhost:1883"
topic = "models/door/changes"
qos = 0

[engine]
compile = true
options = false
`

func TestNewConfigFromBytes(t *testing.T) {
	t.Setenv("PARACORE_TEST_LOG_DIR", "/var/log/paracore")

	cfg, err := NewConfigFromBytes([]byte(fullConfig))
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "/var/log/paracore/paracore.log", cfg.Logging.Output)
	assert.Equal(t, 20*time.Second, cfg.Execution.DefaultTimeout.AsDuration())
	assert.Equal(t, 45*time.Second, cfg.Execution.TransportTimeout.AsDuration())
	assert.Equal(t, 2*time.Minute, cfg.Execution.MaxTimeoutExtension.AsDuration())
	assert.Equal(t, "Family", cfg.Host.DocumentType)
	assert.Equal(t, "unix:///tmp/paracore.sock", cfg.RPC.ListenAddr)
	assert.True(t, cfg.HTTPEnabled())
	assert.True(t, cfg.HTTP.EnableMCP)
	assert.Equal(t, 15*time.Second, cfg.HTTP.ReadTimeout.AsDuration(), "unset keys keep defaults")
	assert.True(t, cfg.NotifyEnabled())
	assert.Equal(t, 0, cfg.Notify.QoS)
	assert.False(t, cfg.Engine.Options)

	opts := cfg.LoggingOptions()
	assert.Equal(t, "json", opts.Format)
}

func TestNewConfigFromBytes_Defaults(t *testing.T) {
	cfg, err := NewConfigFromBytes(nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.False(t, cfg.HTTPEnabled())
	assert.False(t, cfg.NotifyEnabled())
	assert.Equal(t, DefaultRPCListenAddr, cfg.RPC.ListenAddr)
}

func TestNewConfigFromBytes_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
		message string
	}{
		{
			name:    "unknown key",
			input:   "[rpc]\nlisten = \"x\"",
			wantErr: ErrFailedToLoadConfig,
			message: "listen",
		},
		{
			name:    "bad duration",
			input:   "[execution]\ndefault_timeout = \"soon\"",
			wantErr: ErrFailedToLoadConfig,
		},
		{
			name:    "undefined variable",
			input:   "[host]\ndsn = \"${PARACORE_TEST_UNDEFINED_DSN}\"",
			wantErr: ErrFailedToLoadConfig,
			message: "PARACORE_TEST_UNDEFINED_DSN",
		},
		{
			name:    "invalid values",
			input:   "[logging]\nlevel = \"loud\"\n[execution]\ndefault_timeout = \"0s\"",
			wantErr: ErrFailedToValidateConfig,
			message: "default_timeout",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewConfigFromBytes([]byte(tt.input))
			require.ErrorIs(t, err, tt.wantErr)
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestNewConfig(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "paracore.toml")
	require.NoError(t, os.WriteFile(path, []byte("[rpc]\nlisten_addr = \"localhost:6000\"\n"), 0o644))
	cfg, err := NewConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "localhost:6000", cfg.RPC.ListenAddr)

	_, err = NewConfig(filepath.Join(dir, "paracore.yaml"))
	require.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = NewConfig(filepath.Join(dir, "missing.toml"))
	require.ErrorIs(t, err, ErrFailedToLoadConfig)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("PARACORE_TEST_DOTENV=from-file\n"), 0o644))
	t.Setenv("PARACORE_TEST_DOTENV", "")
	require.NoError(t, os.Unsetenv("PARACORE_TEST_DOTENV"))

	require.NoError(t, LoadDotEnv(envFile, filepath.Join(dir, "missing.env")))
	assert.Equal(t, "from-file", os.Getenv("PARACORE_TEST_DOTENV"))

	cfg, err := NewConfigFromBytes([]byte("[host]\ntitle = \"${PARACORE_TEST_DOTENV}\""))
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.Host.Title)
}

func TestConfigTree(t *testing.T) {
	cfg, err := NewConfigFromBytes([]byte(fullConfig))
	require.NoError(t, err)

	out := cfg.String()
	for _, want := range []string{"Paracore Config", "Logging", "Execution", "20s", "Door", "localhost:8080", "models/door/changes"} {
		assert.Contains(t, out, want)
	}

	out = Default().String()
	assert.Contains(t, out, "disabled")
}
