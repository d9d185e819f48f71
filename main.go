package main

import (
	"fmt"
	"os"

	"github.com/dtnitsch/wordfreq/internal/count"
	"github.com/dtnitsch/wordfreq/internal/history"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:      "wordfreq",
		Usage:     "count words across files concurrently and print the most frequent ones",
		ArgsUsage: "SOURCE...",
		// Running without a subcommand behaves like `wordfreq count`.
		Flags:  count.Flags(),
		Action: count.CountAction,
		Commands: []*cli.Command{
			{
				Name:      "count",
				Usage:     "tokenize every SOURCE in parallel and report the top-K words (- reads stdin)",
				ArgsUsage: "SOURCE...",
				Flags:     count.Flags(),
				Action:    count.CountAction,
			},
			{
				Name:  "history",
				Usage: "list runs archived with --db",
				Flags: append(history.Flags(),
					&cli.IntFlag{Name: "limit", Value: 20, Usage: "maximum number of runs to list (0 for all)"},
				),
				Action: history.ListAction,
				Subcommands: []*cli.Command{
					{
						Name:      "show",
						Usage:     "print the ranking of an archived run",
						ArgsUsage: "RUN_ID",
						Flags: append(history.Flags(),
							&cli.StringFlag{Name: "format", Value: "text", Usage: "report format: text, json or yaml"},
						),
						Action: history.ShowAction,
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
