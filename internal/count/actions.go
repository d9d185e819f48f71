// Package count implements the count command: tokenize every source
// concurrently and print the top-K words.
package count

import (
	"errors"
	"log/slog"
	"os"

	"github.com/dtnitsch/wordfreq/models"
	"github.com/jonboulle/clockwork"
	"github.com/urfave/cli/v2"
)

// Flags are shared by the count command and the app's default action.
func Flags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{Name: "top", Aliases: []string{"k"}, Value: 10, Usage: "number of top words to report"},
		&cli.StringFlag{Name: "config", Usage: "YAML config file; flags override its values"},
		&cli.StringFlag{Name: "format", Value: "text", Usage: "report format: text, json, yaml or xlsx"},
		&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "write the report to this file instead of stdout"},
		&cli.StringFlag{Name: "table", Value: "locked", Usage: "frequency table: locked or sharded"},
		&cli.IntFlag{Name: "shards", Value: 16, Usage: "shard count for the sharded table"},
		&cli.StringFlag{Name: "source-format", Value: "plain", Usage: "how to read sources: plain, html or readability"},
		&cli.BoolFlag{Name: "detect-language", Usage: "tag each source with its detected language"},
		&cli.IntFlag{Name: "sample-size", Usage: "tokens per source kept for language detection"},
		&cli.BoolFlag{Name: "timing", Usage: "print elapsed time to stderr"},
		&cli.StringFlag{Name: "metrics-file", Usage: "write Prometheus metrics to this file"},
		&cli.StringFlag{Name: "db", Usage: "archive the run in this SQLite database"},
		&cli.BoolFlag{Name: "quiet", Aliases: []string{"q"}, Usage: "only log errors"},
	}
}

func CountAction(c *cli.Context) error {
	logLevel := slog.LevelInfo
	if c.Bool("quiet") {
		logLevel = slog.LevelError
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

	config, err := loadConfig(c)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return cli.Exit("", 2)
	}

	runner := &Runner{
		Config: config,
		Stdin:  os.Stdin,
		Stdout: c.App.Writer,
		Stderr: c.App.ErrWriter,
		Logger: logger,
		Clock:  clockwork.NewRealClock(),
		Timing: c.Bool("timing"),
	}

	err = runner.Run(c.Args().Slice())
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrUsage), errors.Is(err, ErrSources):
		return cli.Exit("", 1)
	default:
		logger.Error("count failed", "error", err)
		return cli.Exit("", 2)
	}
}

// loadConfig starts from the config file (or the defaults) and applies every
// flag the user set explicitly.
func loadConfig(c *cli.Context) (*models.Config, error) {
	config := models.DefaultConfig()
	if c.IsSet("config") {
		var err error
		if config, err = models.LoadConfig(c.String("config")); err != nil {
			return nil, err
		}
	}

	if c.IsSet("top") {
		config.TopK = c.Int("top")
	}
	if c.IsSet("format") {
		config.Format = c.String("format")
	}
	if c.IsSet("output") {
		config.Output = c.String("output")
	}
	if c.IsSet("table") {
		config.Table = c.String("table")
	}
	if c.IsSet("shards") {
		config.Shards = c.Int("shards")
	}
	if c.IsSet("source-format") {
		config.SourceFormat = c.String("source-format")
	}
	if c.IsSet("detect-language") {
		config.DetectLanguage = c.Bool("detect-language")
	}
	if c.IsSet("sample-size") {
		config.SampleSize = c.Int("sample-size")
	}
	if c.IsSet("metrics-file") {
		config.MetricsFile = c.String("metrics-file")
	}
	if c.IsSet("db") {
		config.DBPath = c.String("db")
	}

	return config, nil
}
