package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lobevents/feed"
)

func TestDefaults(t *testing.T) {
	cfg, err := Load(New(), "")
	require.NoError(t, err)
	assert.Equal(t, 50, cfg.MaxDepth)
	assert.Equal(t, 0, cfg.IndexOrigin)
	assert.Equal(t, feed.FailFast, cfg.Policy())
	assert.False(t, cfg.QuantizePrices())
	assert.Equal(t, feed.DefaultMaxLineBytes, cfg.MaxLineBytes)
	assert.Equal(t, "events", cfg.Format)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("LOB_MAX_DEPTH", "10")
	t.Setenv("LOB_ON_MALFORMED", "skip")
	t.Setenv("LOB_PRICE_DECIMALS", "4")

	cfg, err := Load(New(), "")
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.MaxDepth)
	assert.Equal(t, feed.Skip, cfg.Policy())
	assert.True(t, cfg.QuantizePrices())
	assert.Equal(t, 4, cfg.PriceDecimals)
}

func TestFileAndExplicitValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lob.yaml")
	require.NoError(t, os.WriteFile(path, []byte("max_depth: 5\nindex_origin: 1\nformat: records\n"), 0o644))

	v := New()
	v.Set("index_origin", 3)
	cfg, err := Load(v, path)
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.MaxDepth)
	assert.Equal(t, 3, cfg.IndexOrigin)
	assert.Equal(t, "records", cfg.Format)
}

func TestMissingFile(t *testing.T) {
	_, err := Load(New(), filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cases := map[string]func(*Config){
		"zero depth":     func(c *Config) { c.MaxDepth = 0 },
		"negative line":  func(c *Config) { c.MaxLineBytes = -1 },
		"decimals":       func(c *Config) { c.PriceDecimals = 17 },
		"policy":         func(c *Config) { c.OnMalformed = "retry" },
		"output format":  func(c *Config) { c.Format = "csv" },
		"logging format": func(c *Config) { c.LogFormat = "xml" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg, err := Load(New(), "")
			require.NoError(t, err)
			mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
