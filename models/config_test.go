package models

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	require.Equal(t, 10, cfg.TopK)
	require.Equal(t, "locked", cfg.Table)
	require.Equal(t, "text", cfg.Format)
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("top_k: 25\ntable: sharded\nshards: 4\ndetect_language: true\n"), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, 25, cfg.TopK)
	require.Equal(t, "sharded", cfg.Table)
	require.Equal(t, 4, cfg.Shards)
	require.Equal(t, "text", cfg.Format, "unset keys keep their defaults")

	require.NoError(t, cfg.Validate())
	require.Equal(t, DefaultSampleSize, cfg.SampleSize)
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("top_k: [nope"), 0o600))
	_, err = LoadConfig(path)
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	for _, tc := range []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "zero k", mutate: func(c *Config) { c.TopK = 0 }},
		{name: "bad table", mutate: func(c *Config) { c.Table = "striped" }},
		{name: "bad format", mutate: func(c *Config) { c.Format = "csv" }},
		{name: "xlsx without output", mutate: func(c *Config) { c.Format = "xlsx" }},
		{name: "upper-case xlsx without output", mutate: func(c *Config) { c.Format = "XLSX" }},
		{name: "bad source format", mutate: func(c *Config) { c.SourceFormat = "pdf" }},
		{name: "negative sample", mutate: func(c *Config) { c.SampleSize = -1 }},
	} {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			require.Error(t, cfg.Validate())
		})
	}
}
