// Package history implements the history command, which lists and replays
// runs archived with --db.
package history

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"

	"github.com/dtnitsch/wordfreq/pkg/db"
	"github.com/dtnitsch/wordfreq/pkg/freq"
	"github.com/dtnitsch/wordfreq/pkg/report"
	"github.com/urfave/cli/v2"
)

func Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "db", Required: true, Usage: "SQLite database written by count --db"},
	}
}

// ListAction prints archived runs, newest first.
func ListAction(c *cli.Context) error {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	database, err := db.Open(c.String("db"))
	if err != nil {
		logger.Error("failed to open database", "error", err)
		return cli.Exit("", 2)
	}
	defer database.Close()

	runs, err := database.ListRuns(c.Int("limit"))
	if err != nil {
		logger.Error("failed to list runs", "error", err)
		return cli.Exit("", 2)
	}

	return writeRuns(c.App.Writer, runs)
}

// ShowAction replays the ranking of one archived run in text format.
func ShowAction(c *cli.Context) error {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	if c.NArg() != 1 {
		fmt.Fprintln(c.App.ErrWriter, "Usage: wordfreq history show RUN_ID")
		return cli.Exit("", 1)
	}
	runID, err := strconv.ParseInt(c.Args().First(), 10, 64)
	if err != nil {
		fmt.Fprintf(c.App.ErrWriter, "Error: invalid run ID: %s\n", c.Args().First())
		return cli.Exit("", 1)
	}

	database, err := db.Open(c.String("db"))
	if err != nil {
		logger.Error("failed to open database", "error", err)
		return cli.Exit("", 2)
	}
	defer database.Close()

	rep, err := loadReport(database, runID)
	if err != nil {
		fmt.Fprintf(c.App.ErrWriter, "Error: %v\n", err)
		return cli.Exit("", 1)
	}

	format := c.String("format")
	if format == report.FormatXLSX {
		fmt.Fprintln(c.App.ErrWriter, "Error: xlsx is not supported for history show")
		return cli.Exit("", 1)
	}
	sink, err := report.NewSink(format)
	if err != nil {
		fmt.Fprintf(c.App.ErrWriter, "Error: %v\n", err)
		return cli.Exit("", 1)
	}
	return sink.Write(c.App.Writer, rep)
}

func writeRuns(w io.Writer, runs []db.Run) error {
	if len(runs) == 0 {
		_, err := fmt.Fprintln(w, "No archived runs")
		return err
	}
	for _, r := range runs {
		_, err := fmt.Fprintf(w, "#%d  %s  k=%d  sources=%d  tokens=%d  distinct=%d  table=%s\n",
			r.RunID, r.CreatedAt.Format("2006-01-02 15:04:05"), r.TopK, r.SourceCount,
			r.TotalTokens, r.DistinctTokens, r.TableKind)
		if err != nil {
			return err
		}
	}
	return nil
}

func loadReport(database *db.DB, runID int64) (*report.Report, error) {
	run, err := database.GetRun(runID)
	if err != nil {
		return nil, err
	}
	entries, err := database.GetRunEntries(runID)
	if err != nil {
		return nil, err
	}
	sources, err := database.GetRunSources(runID)
	if err != nil {
		return nil, err
	}

	rep := &report.Report{
		K:           run.TopK,
		TotalTokens: run.TotalTokens,
		Distinct:    run.DistinctTokens,
		Entries:     make([]freq.Entry, len(entries)),
	}
	for i, e := range entries {
		rep.Entries[i] = freq.Entry{Token: e.Token, Count: e.Count}
	}
	for _, s := range sources {
		rep.Sources = append(rep.Sources, report.SourceSummary{Name: s.Name, Tokens: s.Tokens, Language: s.Language})
	}
	return rep, nil
}
