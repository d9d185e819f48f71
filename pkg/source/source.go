// Package source provides the readable inputs the aggregator counts.
package source

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Format selects how raw bytes are turned into text before tokenizing.
type Format string

const (
	FormatPlain       Format = "plain"
	FormatHTML        Format = "html"
	FormatReadability Format = "readability"
)

// ParseFormat maps a flag value to a Format. Empty means plain.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "", FormatPlain:
		return FormatPlain, nil
	case FormatHTML, FormatReadability:
		return f, nil
	default:
		return "", fmt.Errorf("unknown source format %q (want plain, html or readability)", s)
	}
}

// Source is a named input. It satisfies aggregator.Source.
type Source struct {
	name   string
	format Format
	open   func() (io.ReadCloser, error)
}

func (s *Source) Name() string {
	return s.name
}

func (s *Source) Format() Format {
	return s.format
}

// Open returns a stream of text. For HTML formats the markup is parsed and
// reduced to text here, so a document that cannot be parsed is reported as an
// open failure.
func (s *Source) Open() (io.ReadCloser, error) {
	rc, err := s.open()
	if err != nil {
		return nil, err
	}
	if s.format == FormatPlain || s.format == "" {
		return rc, nil
	}
	defer rc.Close()

	var text string
	switch s.format {
	case FormatHTML:
		text, err = htmlText(rc)
	case FormatReadability:
		text, err = readableText(rc, s.name)
	default:
		err = fmt.Errorf("unknown source format %q", s.format)
	}
	if err != nil {
		return nil, err
	}
	return io.NopCloser(strings.NewReader(text)), nil
}

// File is a source backed by a path on disk. The file is opened by Open,
// not here.
func File(path string, format Format) *Source {
	return &Source{
		name:   path,
		format: format,
		open: func() (io.ReadCloser, error) {
			return os.Open(filepath.Clean(path))
		},
	}
}

// Reader wraps an already open reader. Closing the returned stream does not
// close r.
func Reader(name string, r io.Reader, format Format) *Source {
	return &Source{
		name:   name,
		format: format,
		open: func() (io.ReadCloser, error) {
			return io.NopCloser(r), nil
		},
	}
}

// Files builds one source per path, in order.
func Files(paths []string, format Format) []*Source {
	sources := make([]*Source, len(paths))
	for i, p := range paths {
		sources[i] = File(p, format)
	}
	return sources
}
