package count

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/dtnitsch/wordfreq/models"
	"github.com/dtnitsch/wordfreq/pkg/aggregator"
	"github.com/dtnitsch/wordfreq/pkg/db"
	"github.com/dtnitsch/wordfreq/pkg/freq"
	"github.com/dtnitsch/wordfreq/pkg/language"
	"github.com/dtnitsch/wordfreq/pkg/metrics"
	"github.com/dtnitsch/wordfreq/pkg/report"
	"github.com/dtnitsch/wordfreq/pkg/source"
	"github.com/dtnitsch/wordfreq/pkg/topk"
	"github.com/jonboulle/clockwork"
)

// StdinName is the source argument that reads standard input.
const StdinName = "-"

var (
	// ErrUsage means the command line itself was wrong.
	ErrUsage = errors.New("usage error")
	// ErrSources means at least one source could not be opened or read.
	ErrSources = errors.New("source error")
)

// Runner executes a single count run. Diagnostics go to Stderr, the report
// to Stdout (or to Config.Output).
type Runner struct {
	Config *models.Config
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger
	Clock  clockwork.Clock
	// Timing prints the elapsed wall time to Stderr after the report.
	Timing bool
}

// Run counts args and writes the report. It returns an error wrapping
// ErrUsage or ErrSources for problems already reported on Stderr; any other
// error has not been printed yet.
func (r *Runner) Run(args []string) error {
	if len(args) == 0 {
		fmt.Fprintln(r.Stderr, "Usage: wordfreq [count] [flags] SOURCE...")
		return ErrUsage
	}

	cfg := r.Config
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(r.Stderr, "Error: %v\n", err)
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}

	start := r.Clock.Now()

	format, _ := source.ParseFormat(cfg.SourceFormat)
	sources := make([]aggregator.Source, len(args))
	stdinSeen := false
	for i, arg := range args {
		if arg == StdinName {
			// Standard input can only be read by one task.
			if stdinSeen {
				fmt.Fprintf(r.Stderr, "Error: %s (standard input) may be given only once\n", StdinName)
				return fmt.Errorf("%w: %s repeated", ErrUsage, StdinName)
			}
			stdinSeen = true
			sources[i] = source.Reader(StdinName, r.Stdin, format)
		} else {
			sources[i] = source.File(arg, format)
		}
	}

	table, _ := freq.New(cfg.Table, cfg.Shards)

	var m *metrics.Metrics
	if cfg.MetricsFile != "" {
		m = metrics.New()
	}

	agg := aggregator.New(table,
		aggregator.WithLogger(r.Logger),
		aggregator.WithMetrics(m),
		aggregator.WithSampleSize(cfg.SampleSize),
		aggregator.WithClock(r.Clock),
	)

	result, err := agg.Run(sources)
	if err != nil {
		var openErr *aggregator.SourceOpenError
		if errors.As(err, &openErr) {
			fmt.Fprintf(r.Stderr, "Failed to open file %s: %v\n", openErr.Source, openErr.Err)
			r.writeMetrics(m)
			return fmt.Errorf("%w: %v", ErrSources, err)
		}
		return err
	}

	if failed := result.Failed(); len(failed) > 0 {
		for _, f := range failed {
			fmt.Fprintf(r.Stderr, "Error: %v\n", f.Err)
		}
		r.writeMetrics(m)
		return fmt.Errorf("%w: %v", ErrSources, result.Err())
	}

	// Every task has finished, so the table is no longer being written.
	snap := table.Snapshot()
	m.SetDistinct(snap.Len())

	entries, err := topk.Top(snap, cfg.TopK)
	if err != nil {
		return err
	}

	rep := &report.Report{
		K:           cfg.TopK,
		TotalTokens: snap.Total(),
		Distinct:    snap.Len(),
		Entries:     entries,
		Sources:     r.summarize(result),
	}

	if err := r.writeReport(rep); err != nil {
		return err
	}

	elapsed := r.Clock.Since(start)
	if r.Timing {
		fmt.Fprintf(r.Stderr, "Elapsed time is %d us\n", elapsed.Microseconds())
	}

	r.writeMetrics(m)

	if cfg.DBPath != "" {
		if err := r.archive(rep, elapsed.Microseconds()); err != nil {
			r.Logger.Warn("Failed to archive run", "db", cfg.DBPath, "error", err)
		}
	}

	r.Logger.Info("Run finished", "sources", len(args), "tokens", snap.Total(), "distinct", snap.Len(), "elapsed_us", elapsed.Microseconds())
	return nil
}

func (r *Runner) summarize(result *aggregator.Result) []report.SourceSummary {
	var detector *language.Detector
	if r.Config.DetectLanguage {
		detector = language.NewDetector()
	}

	summaries := make([]report.SourceSummary, len(result.Sources))
	for i, s := range result.Sources {
		summaries[i] = report.SourceSummary{Name: s.Name, Tokens: s.Tokens}
		if detector != nil {
			summaries[i].Language = detector.Detect(s.Sample)
		}
	}
	return summaries
}

func (r *Runner) writeReport(rep *report.Report) error {
	sink, err := report.NewSink(r.Config.Format)
	if err != nil {
		return err
	}

	if r.Config.Output == "" {
		return sink.Write(r.Stdout, rep)
	}

	f, err := os.Create(r.Config.Output)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := sink.Write(f, rep); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close output file: %w", err)
	}
	return nil
}

func (r *Runner) writeMetrics(m *metrics.Metrics) {
	if m == nil {
		return
	}
	if err := m.WriteTextfile(r.Config.MetricsFile); err != nil {
		r.Logger.Warn("Failed to write metrics", "path", r.Config.MetricsFile, "error", err)
	}
}

func (r *Runner) archive(rep *report.Report, elapsedMicros int64) error {
	database, err := db.Open(r.Config.DBPath)
	if err != nil {
		return err
	}
	defer database.Close()

	rec := db.RunRecord{
		Run: db.Run{
			TopK:           rep.K,
			TableKind:      r.Config.Table,
			SourceFormat:   r.Config.SourceFormat,
			SourceCount:    len(rep.Sources),
			TotalTokens:    rep.TotalTokens,
			DistinctTokens: rep.Distinct,
			ElapsedMicros:  elapsedMicros,
		},
	}
	for i, s := range rep.Sources {
		rec.Sources = append(rec.Sources, db.RunSource{Position: i, Name: s.Name, Tokens: s.Tokens, Language: s.Language})
	}
	for i, e := range rep.Entries {
		rec.Entries = append(rec.Entries, db.RunEntry{Rank: i + 1, Token: e.Token, Count: e.Count})
	}

	runID, err := database.InsertRun(rec)
	if err != nil {
		return err
	}
	r.Logger.Info("Run archived", "run_id", runID, "db", database.Path())
	return nil
}
