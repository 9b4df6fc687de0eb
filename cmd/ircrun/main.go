package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/lmittmann/tint"
	"github.com/nats-io/nats.go"
	"github.com/urfave/cli/v3"

	"github.com/programme-lv/ircrun/internal/config"
	"github.com/programme-lv/ircrun/internal/exitcodes"
	"github.com/programme-lv/ircrun/internal/harness"
	"github.com/programme-lv/ircrun/internal/history"
	"github.com/programme-lv/ircrun/internal/report"
	"github.com/programme-lv/ircrun/internal/report/natsrep"
	"github.com/programme-lv/ircrun/internal/report/sqsrep"
	"github.com/programme-lv/ircrun/internal/report/termrep"
	"github.com/programme-lv/ircrun/internal/supervise"
)

func main() {
	cmd := &cli.Command{
		Name:  "ircrun",
		Usage: "test an ft_irc server binary with the super tester scripts",
		Flags: runFlags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			setupLogging(cmd.Bool("debug"))
			h, err := buildHarness(cmd)
			if err != nil {
				return cli.Exit(err.Error(), exitcodes.RuntimeErr)
			}
			opts, err := gatherOptions(cmd)
			if err != nil {
				return cli.Exit(err.Error(), exitcodes.ConfigErr)
			}
			res, err := h.Run(ctx, opts)
			if err != nil {
				return exitForError(err)
			}
			if !res.Passed {
				return cli.Exit("", exitcodes.TestFailure)
			}
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:  "full",
				Usage: "run both tester variants sequentially, each in its own run directory",
				Flags: runFlags(),
				Action: func(ctx context.Context, cmd *cli.Command) error {
					setupLogging(cmd.Bool("debug"))
					h, err := buildHarness(cmd)
					if err != nil {
						return cli.Exit(err.Error(), exitcodes.RuntimeErr)
					}
					opts, err := gatherOptions(cmd)
					if err != nil {
						return cli.Exit(err.Error(), exitcodes.ConfigErr)
					}
					results, err := h.RunFull(ctx, opts)
					if err != nil {
						return exitForError(err)
					}
					for _, res := range results {
						if !res.Passed {
							return cli.Exit("", exitcodes.TestFailure)
						}
					}
					return nil
				},
			},
			{
				Name:      "archive",
				Usage:     "compress the logs of a finished run directory",
				ArgsUsage: "<run-dir>",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					dir := cmd.Args().First()
					if dir == "" {
						return cli.Exit("archive: run directory argument required", exitcodes.ConfigErr)
					}
					if err := history.ArchiveRun(dir); err != nil {
						return cli.Exit(err.Error(), exitcodes.RuntimeErr)
					}
					return nil
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitcodes.RuntimeErr)
	}
}

func runFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "binary", Usage: "path to the compiled server binary (default: probe ./ircserv)"},
		&cli.StringFlag{Name: "password", Usage: "IRC PASS password"},
		&cli.StringFlag{Name: "tester", Usage: "tester variant, v1 or v2 (default: highest found)"},
		&cli.StringSliceFlag{Name: "only", Usage: "run only these named tester tests"},
		&cli.IntFlag{Name: "port", Usage: "server port (default: auto)"},
		&cli.IntFlag{Name: "timeout", Usage: "tester deadline in seconds (default: 15)"},
		&cli.BoolFlag{Name: "valgrind", Usage: "run the server under valgrind and parse leaks"},
		&cli.StringFlag{Name: "out", Usage: "output directory override (default: runs/<timestamp>)"},
		&cli.BoolFlag{Name: "verbose", Usage: "verbose tester output"},
		&cli.StringFlag{Name: "config", Usage: "TOML config file (default: probe ircrun.toml)"},
		&cli.StringFlag{Name: "history", Usage: "append-only run history file", Value: filepath.Join(supervise.DefaultRunsDir, "history.jsonl")},
		&cli.StringFlag{Name: "nats-url", Usage: "publish run events to this NATS server"},
		&cli.StringFlag{Name: "nats-subject", Usage: "NATS subject for run events", Value: "ircrun.runs"},
		&cli.StringFlag{Name: "sqs-queue-url", Usage: "publish run events to this SQS queue"},
		&cli.BoolFlag{Name: "debug", Usage: "debug logging"},
	}
}

func setupLogging(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
	})))
}

func gatherOptions(cmd *cli.Command) (config.Options, error) {
	opts := config.Options{
		Binary:    cmd.String("binary"),
		Tester:    cmd.String("tester"),
		Port:      int(cmd.Int("port")),
		Password:  cmd.String("password"),
		Timeout:   time.Duration(cmd.Int("timeout")) * time.Second,
		Valgrind:  cmd.Bool("valgrind"),
		Verbose:   cmd.Bool("verbose"),
		Only:      cmd.StringSlice("only"),
		ExtraArgs: cmd.Args().Slice(),
		OutDir:    cmd.String("out"),
	}

	file := cmd.String("config")
	if file == "" {
		if _, err := os.Stat(config.DefaultConfigFile); err == nil {
			file = config.DefaultConfigFile
		}
	}
	if file != "" {
		var err error
		opts, err = config.LoadFile(file, opts)
		if err != nil {
			return opts, err
		}
	}
	return opts, nil
}

func buildHarness(cmd *cli.Command) (*harness.Harness, error) {
	var nc *nats.Conn
	if url := cmd.String("nats-url"); url != "" {
		var err error
		nc, err = nats.Connect(url)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to NATS: %w", err)
		}
	}
	subject := cmd.String("nats-subject")
	sqsURL := cmd.String("sqs-queue-url")

	factory := func(runID string) report.Reporter {
		reps := report.Multi{termrep.New()}
		if nc != nil {
			reps = append(reps, natsrep.New(nc, runID, subject))
		}
		if sqsURL != "" {
			r, err := sqsrep.New(runID, sqsURL)
			if err != nil {
				slog.Error("failed to set up SQS reporter", "error", err)
			} else {
				reps = append(reps, r)
			}
		}
		return reps
	}

	var recorder history.Recorder = history.Nop{}
	if path := cmd.String("history"); path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create history directory: %w", err)
		}
		recorder = history.NewFileRecorder(path)
	}

	return harness.New(
		harness.WithReporterFactory(factory),
		harness.WithRecorder(recorder),
	), nil
}

func exitForError(err error) error {
	var cfgErr *config.Error
	if errors.As(err, &cfgErr) {
		return cli.Exit(err.Error(), exitcodes.ConfigErr)
	}
	return cli.Exit(err.Error(), exitcodes.RuntimeErr)
}
