package fluxchart

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Validate(t *testing.T) {
	var testCases = []struct {
		description string
		mutate      func(c *Config)
		expectErr   bool
	}{
		{description: "defaults", mutate: func(c *Config) {}},
		{description: "zero redirects", mutate: func(c *Config) { c.Machine.MaxRedirects = 0 }, expectErr: true},
		{description: "negative retries", mutate: func(c *Config) { c.Queue.MaxRetries = -1 }, expectErr: true},
		{description: "negative delay", mutate: func(c *Config) { c.Queue.RetryDelay = -time.Second }, expectErr: true},
		{description: "bad level", mutate: func(c *Config) { c.Logging.Level = "loud" }, expectErr: true},
		{description: "lower case level", mutate: func(c *Config) { c.Logging.Level = "debug" }},
		{description: "bad format", mutate: func(c *Config) { c.Logging.Format = "xml" }, expectErr: true},
		{description: "tracing without name", mutate: func(c *Config) {
			c.Tracing.Enabled = true
			c.Tracing.ServiceName = ""
		}, expectErr: true},
	}
	for _, testCase := range testCases {
		config := DefaultConfig()
		testCase.mutate(config)
		err := config.Validate()
		if testCase.expectErr {
			assert.Error(t, err, testCase.description)
			continue
		}
		assert.NoError(t, err, testCase.description)
	}
}

func TestLoadConfig(t *testing.T) {
	location, err := filepath.Abs(filepath.Join("testdata", "config.yaml"))
	require.NoError(t, err)
	config, err := LoadConfig(context.Background(), location)
	require.NoError(t, err)
	assert.Equal(t, 16, config.Machine.MaxRedirects)
	assert.Equal(t, 2, config.Queue.MaxRetries)
	assert.Equal(t, 100*time.Millisecond, config.Queue.RetryDelay)
	assert.Equal(t, "debug", config.Logging.Level)
	assert.Equal(t, "fluxchart", config.Tracing.ServiceName)

	_, err = LoadConfig(context.Background(), filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
