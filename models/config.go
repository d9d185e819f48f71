// Package models defines the run configuration shared by the CLI actions.
package models

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/dtnitsch/wordfreq/pkg/freq"
	"github.com/dtnitsch/wordfreq/pkg/report"
	"github.com/dtnitsch/wordfreq/pkg/source"
	"github.com/dtnitsch/wordfreq/pkg/topk"
	"gopkg.in/yaml.v3"
)

// Config holds runtime configuration for a count run. Values come from an
// optional YAML file and are then overridden by CLI flags.
type Config struct {
	TopK           int    `yaml:"top_k"`
	Table          string `yaml:"table"`
	Shards         int    `yaml:"shards"`
	Format         string `yaml:"format"`
	Output         string `yaml:"output"`
	SourceFormat   string `yaml:"source_format"`
	SampleSize     int    `yaml:"sample_size"`
	DetectLanguage bool   `yaml:"detect_language"`
	MetricsFile    string `yaml:"metrics_file"`
	DBPath         string `yaml:"db"`
}

// DefaultSampleSize is the per-source token sample kept for language
// detection when none is configured.
const DefaultSampleSize = 200

func DefaultConfig() *Config {
	return &Config{
		TopK:         topk.DefaultK,
		Table:        freq.KindLocked,
		Shards:       freq.DefaultShards,
		Format:       report.FormatText,
		SourceFormat: string(source.FormatPlain),
	}
}

// LoadConfig reads a YAML config file on top of the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks option values and fills in derived defaults.
func (c *Config) Validate() error {
	if c.TopK <= 0 {
		return fmt.Errorf("top_k must be positive, got %d", c.TopK)
	}
	if _, err := freq.New(c.Table, c.Shards); err != nil {
		return err
	}
	if _, err := report.NewSink(c.Format); err != nil {
		return err
	}
	if strings.ToLower(c.Format) == report.FormatXLSX && c.Output == "" {
		return errors.New("xlsx format needs an output file")
	}
	if _, err := source.ParseFormat(c.SourceFormat); err != nil {
		return err
	}
	if c.SampleSize < 0 {
		return fmt.Errorf("sample_size must not be negative, got %d", c.SampleSize)
	}
	if c.DetectLanguage && c.SampleSize == 0 {
		c.SampleSize = DefaultSampleSize
	}
	return nil
}
