package interpolation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type brokerSection struct {
	URL   string `env_interpolation:"yes"`
	Topic string
}

type sampleConfig struct {
	Address  string            `env_interpolation:"yes"`
	Plain    string
	Files    []string          `env_interpolation:"yes"`
	Headers  map[string]string `env_interpolation:"yes"`
	Broker   brokerSection
	Optional *brokerSection
	Brokers  []brokerSection
	hidden   string `env_interpolation:"yes"`
}

func TestInterpolateStruct(t *testing.T) {
	t.Setenv("PARACORE_TEST_PORT", "50051")
	t.Setenv("PARACORE_TEST_DIR", "/scripts")

	cfg := &sampleConfig{
		Address:  "localhost:${PARACORE_TEST_PORT}",
		Plain:    "${PARACORE_TEST_PORT}",
		Files:    []string{"${PARACORE_TEST_DIR}/a.cs", "b.cs"},
		Headers:  map[string]string{"x-port": "${PARACORE_TEST_PORT}"},
		Broker:   brokerSection{URL: "${PARACORE_TEST_BROKER:tcp://localhost:1883}", Topic: "${KEEP}"},
		Optional: &brokerSection{URL: "${PARACORE_TEST_DIR}"},
		Brokers:  []brokerSection{{URL: "${PARACORE_TEST_PORT}"}},
		hidden:   "${PARACORE_TEST_PORT}",
	}
	require.NoError(t, InterpolateStruct(cfg))

	assert.Equal(t, "localhost:50051", cfg.Address)
	assert.Equal(t, "${PARACORE_TEST_PORT}", cfg.Plain)
	assert.Equal(t, []string{"/scripts/a.cs", "b.cs"}, cfg.Files)
	assert.Equal(t, "50051", cfg.Headers["x-port"])
	assert.Equal(t, "tcp://localhost:1883", cfg.Broker.URL)
	assert.Equal(t, "${KEEP}", cfg.Broker.Topic)
	assert.Equal(t, "/scripts", cfg.Optional.URL)
	assert.Equal(t, "50051", cfg.Brokers[0].URL)
	assert.Equal(t, "${PARACORE_TEST_PORT}", cfg.hidden)
}

func TestInterpolateStruct_Errors(t *testing.T) {
	t.Run("collects every undefined reference", func(t *testing.T) {
		cfg := &sampleConfig{
			Address: "${PARACORE_TEST_MISSING_1}",
			Broker:  brokerSection{URL: "${PARACORE_TEST_MISSING_2}"},
		}
		err := InterpolateStruct(cfg)
		require.ErrorIs(t, err, ErrUndefinedVariable)
		assert.Contains(t, err.Error(), "field Address")
		assert.Contains(t, err.Error(), "field Broker.URL")
	})

	t.Run("nil is a no-op", func(t *testing.T) {
		require.NoError(t, InterpolateStruct(nil))
		var cfg *sampleConfig
		require.NoError(t, InterpolateStruct(cfg))
	})

	t.Run("non-struct", func(t *testing.T) {
		require.Error(t, InterpolateStruct("string"))
	})

	t.Run("struct by value", func(t *testing.T) {
		require.Error(t, InterpolateStruct(sampleConfig{}))
	})
}
