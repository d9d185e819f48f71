// Package report formats the final ranking for output.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/dtnitsch/wordfreq/pkg/freq"
	"gopkg.in/yaml.v3"
)

const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatXLSX = "xlsx"
)

// SourceSummary describes how one source contributed to a run.
type SourceSummary struct {
	Name     string `json:"name" yaml:"name"`
	Tokens   int    `json:"tokens" yaml:"tokens"`
	Language string `json:"language,omitempty" yaml:"language,omitempty"`
}

// Report is everything a sink may render. Text output only uses Entries.
type Report struct {
	K           int             `json:"k" yaml:"k"`
	TotalTokens int             `json:"total_tokens" yaml:"total_tokens"`
	Distinct    int             `json:"distinct_tokens" yaml:"distinct_tokens"`
	Entries     []freq.Entry    `json:"entries" yaml:"entries"`
	Sources     []SourceSummary `json:"sources,omitempty" yaml:"sources,omitempty"`
}

// Sink writes a report to w.
type Sink interface {
	Write(w io.Writer, r *Report) error
}

// NewSink returns the sink for format. Empty means text.
func NewSink(format string) (Sink, error) {
	switch strings.ToLower(format) {
	case "", FormatText:
		return TextSink{}, nil
	case FormatJSON:
		return JSONSink{}, nil
	case FormatYAML:
		return YAMLSink{}, nil
	case FormatXLSX:
		return XLSXSink{}, nil
	default:
		return nil, fmt.Errorf("unknown report format %q (want text, json, yaml or xlsx)", format)
	}
}

// TextSink prints one entry per line: the count right-aligned to four
// columns, a space, then the token.
type TextSink struct{}

func (TextSink) Write(w io.Writer, r *Report) error {
	for _, e := range r.Entries {
		if _, err := fmt.Fprintf(w, "%4d %s\n", e.Count, e.Token); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
	}
	return nil
}

type JSONSink struct{}

func (JSONSink) Write(w io.Writer, r *Report) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	data = append(data, '\n')
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

type YAMLSink struct{}

func (YAMLSink) Write(w io.Writer, r *Report) error {
	data, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
