// Package config loads the paracore server configuration from TOML.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"github.com/Sey56/Paracore-sub001/internal/interpolation"
	"github.com/Sey56/Paracore-sub001/internal/logging"
)

var (
	ErrFailedToLoadConfig     = errors.New("failed to load config")
	ErrFailedToValidateConfig = errors.New("failed to validate config")
	ErrUnsupportedFormat      = errors.New("unsupported config format")
)

// Config is the root of the server configuration.
type Config struct {
	Logging   LoggingConfig   `toml:"logging"`
	Execution ExecutionConfig `toml:"execution"`
	Host      HostConfig      `toml:"host"`
	RPC       RPCConfig       `toml:"rpc"`
	HTTP      HTTPConfig      `toml:"http"`
	Notify    NotifyConfig    `toml:"notify"`
	Engine    EngineConfig    `toml:"engine"`
}

// LoggingConfig selects the log level, encoding and destination.
type LoggingConfig struct {
	Level  string `toml:"level" env_interpolation:"yes"`
	Format string `toml:"format" env_interpolation:"yes"`
	Output string `toml:"output" env_interpolation:"yes"`
}

// ExecutionConfig holds the dispatcher and facade deadlines.
type ExecutionConfig struct {
	DefaultTimeout      Duration `toml:"default_timeout"`
	TransportTimeout    Duration `toml:"transport_timeout"`
	MaxTimeoutExtension Duration `toml:"max_timeout_extension"`
}

// HostConfig locates the document scripts run against.
type HostConfig struct {
	DSN          string `toml:"dsn" env_interpolation:"yes"`
	DocumentType string `toml:"document_type"`
	Title        string `toml:"title" env_interpolation:"yes"`
}

// RPCConfig configures the gRPC script service.
type RPCConfig struct {
	ListenAddr string `toml:"listen_addr" env_interpolation:"yes"`
}

// HTTPConfig configures the optional HTTP surface carrying the MCP endpoint,
// metrics and status. An empty listen address disables it.
type HTTPConfig struct {
	ListenAddr    string   `toml:"listen_addr" env_interpolation:"yes"`
	EnableMCP     bool     `toml:"enable_mcp"`
	EnableMetrics bool     `toml:"enable_metrics"`
	ReadTimeout   Duration `toml:"read_timeout"`
	WriteTimeout  Duration `toml:"write_timeout"`
	IdleTimeout   Duration `toml:"idle_timeout"`
	DrainTimeout  Duration `toml:"drain_timeout"`
}

// NotifyConfig configures change notifications. An empty broker disables
// them.
type NotifyConfig struct {
	Broker   string `toml:"broker" env_interpolation:"yes"`
	Topic    string `toml:"topic" env_interpolation:"yes"`
	ClientID string `toml:"client_id" env_interpolation:"yes"`
	QoS      int    `toml:"qos"`
}

// EngineConfig toggles the embedded script compiler and the options
// provider built on it.
type EngineConfig struct {
	Compile bool `toml:"compile"`
	Options bool `toml:"options"`
}

const (
	DefaultRPCListenAddr    = "localhost:50051"
	DefaultTransportTimeout = 30 * time.Second
	DefaultNotifyTopic      = "paracore/changes"
)

// Default returns the configuration used for keys a file leaves out.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{Level: "info", Format: "text", Output: "stderr"},
		Execution: ExecutionConfig{
			DefaultTimeout:   FromDuration(10 * time.Second),
			TransportTimeout: FromDuration(DefaultTransportTimeout),
		},
		Host: HostConfig{DSN: ":memory:", DocumentType: "Project", Title: "Untitled"},
		RPC:  RPCConfig{ListenAddr: DefaultRPCListenAddr},
		HTTP: HTTPConfig{
			ReadTimeout:  FromDuration(15 * time.Second),
			WriteTimeout: FromDuration(60 * time.Second),
			IdleTimeout:  FromDuration(60 * time.Second),
			DrainTimeout: FromDuration(5 * time.Second),
		},
		Notify: NotifyConfig{Topic: DefaultNotifyTopic, QoS: 1},
		Engine: EngineConfig{Compile: true, Options: true},
	}
}

// LoadDotEnv loads variables from .env files without overriding the ones
// already set. Missing files are skipped.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load env file %s: %w", p, err)
		}
	}
	return nil
}

// NewConfig loads and validates a TOML file.
func NewConfig(filePath string) (*Config, error) {
	if ext := strings.ToLower(filepath.Ext(filePath)); ext != ".toml" {
		return nil, fmt.Errorf("%w: %q, only .toml is supported", ErrUnsupportedFormat, ext)
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFailedToLoadConfig, err)
	}
	return NewConfigFromBytes(data)
}

// NewConfigFromBytes decodes TOML over the defaults, expands environment
// references and validates the result.
func NewConfigFromBytes(data []byte) (*Config, error) {
	cfg := Default()
	dec := toml.NewDecoder(bytes.NewReader(data)).DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return nil, fmt.Errorf("%w: %s", ErrFailedToLoadConfig, strict.String())
		}
		return nil, fmt.Errorf("%w: %w", ErrFailedToLoadConfig, err)
	}
	if err := interpolation.InterpolateStruct(cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFailedToLoadConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFailedToValidateConfig, err)
	}
	return cfg, nil
}

// LoggingOptions converts the logging section for logging.NewHandler.
func (c *Config) LoggingOptions() logging.Options {
	return logging.Options{
		Level:  c.Logging.Level,
		Format: c.Logging.Format,
		Output: c.Logging.Output,
	}
}

// NotifyEnabled reports whether change notifications are configured.
func (c *Config) NotifyEnabled() bool {
	return c.Notify.Broker != ""
}

// HTTPEnabled reports whether the HTTP surface is configured.
func (c *Config) HTTPEnabled() bool {
	return c.HTTP.ListenAddr != ""
}
