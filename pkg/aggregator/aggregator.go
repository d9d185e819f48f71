// Package aggregator counts tokens from many sources concurrently into one
// shared frequency table.
package aggregator

import (
	"io"
	"log/slog"
	"time"

	"github.com/dtnitsch/wordfreq/pkg/freq"
	"github.com/dtnitsch/wordfreq/pkg/metrics"
	"github.com/dtnitsch/wordfreq/pkg/tokenizer"
	"github.com/jonboulle/clockwork"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
)

// Source is a named input that can be opened for reading once.
type Source interface {
	Name() string
	Open() (io.ReadCloser, error)
}

// SourceResult is the outcome of counting a single source.
type SourceResult struct {
	Name     string
	Tokens   int
	Duration time.Duration
	// Sample holds the first tokens of the source when sampling is enabled.
	Sample []string
	Err    error
}

// Result holds one SourceResult per source, in input order.
type Result struct {
	Sources []SourceResult
}

// Tokens is the number of tokens counted across every source.
func (r *Result) Tokens() int {
	n := 0
	for _, s := range r.Sources {
		n += s.Tokens
	}
	return n
}

// Failed returns the sources that hit a read error.
func (r *Result) Failed() []SourceResult {
	var failed []SourceResult
	for _, s := range r.Sources {
		if s.Err != nil {
			failed = append(failed, s)
		}
	}
	return failed
}

// Err combines every per-source error, or returns nil if all succeeded.
func (r *Result) Err() error {
	var err error
	for _, s := range r.Sources {
		err = multierr.Append(err, s.Err)
	}
	return err
}

type Option func(*Aggregator)

func WithLogger(logger *slog.Logger) Option {
	return func(a *Aggregator) { a.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(a *Aggregator) { a.metrics = m }
}

// WithSampleSize keeps the first n tokens of every source in its result.
func WithSampleSize(n int) Option {
	return func(a *Aggregator) { a.sampleSize = n }
}

func WithClock(c clockwork.Clock) Option {
	return func(a *Aggregator) { a.clock = c }
}

// Aggregator runs one tokenizing task per source against a shared table.
type Aggregator struct {
	table      freq.Table
	logger     *slog.Logger
	metrics    *metrics.Metrics
	sampleSize int
	clock      clockwork.Clock
}

func New(table freq.Table, opts ...Option) *Aggregator {
	a := &Aggregator{
		table:  table,
		logger: slog.New(slog.DiscardHandler),
		clock:  clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run opens every source, then counts them all concurrently and waits for
// every task to finish.
//
// If any source fails to open, the streams opened so far are closed and a
// *SourceOpenError is returned without touching the table. Read failures do
// not stop sibling tasks; they are reported per source in the Result, and
// Result.Err combines them.
func (a *Aggregator) Run(sources []Source) (*Result, error) {
	if len(sources) == 0 {
		return nil, ErrNoSources
	}

	streams, err := a.openAll(sources)
	if err != nil {
		return nil, err
	}

	a.logger.Info("Starting concurrent count phase", "source_count", len(sources))

	results := make([]SourceResult, len(sources))
	var g errgroup.Group
	for i, src := range sources {
		a.metrics.SourceStarted()
		g.Go(func() error {
			results[i] = a.count(src.Name(), streams[i])
			return nil
		})
	}
	// Tasks report failures through results, never through the group, so
	// one failure cannot cut the others short.
	_ = g.Wait()

	a.logger.Info("All count tasks finished", "source_count", len(sources))
	return &Result{Sources: results}, nil
}

func (a *Aggregator) openAll(sources []Source) ([]io.ReadCloser, error) {
	streams := make([]io.ReadCloser, 0, len(sources))
	for _, src := range sources {
		rc, err := src.Open()
		if err != nil {
			a.logger.Error("Failed to open source", "source", src.Name(), "error", err)
			a.metrics.SourceFailed(metrics.FailureOpen)
			for _, opened := range streams {
				_ = opened.Close()
			}
			return nil, &SourceOpenError{Source: src.Name(), Err: err}
		}
		streams = append(streams, rc)
	}
	return streams, nil
}

func (a *Aggregator) count(name string, rc io.ReadCloser) SourceResult {
	start := a.clock.Now()
	result := SourceResult{Name: name}

	tok := tokenizer.New(rc)
	for tok.Next() {
		token := tok.Token()
		a.table.Increment(token)
		result.Tokens++
		if len(result.Sample) < a.sampleSize {
			result.Sample = append(result.Sample, token)
		}
	}

	err := tok.Err()
	if closeErr := rc.Close(); err == nil {
		err = closeErr
	}
	result.Duration = a.clock.Since(start)

	if err != nil {
		result.Err = &SourceReadError{Source: name, Err: err}
		a.logger.Error("Failed to read source", "source", name, "tokens", result.Tokens, "error", err)
		a.metrics.SourceFailed(metrics.FailureRead)
		return result
	}

	a.metrics.SourceDone(result.Tokens, result.Duration)
	a.logger.Info("Source counted", "source", name, "tokens", result.Tokens, "duration_ms", result.Duration.Milliseconds())
	return result
}
