// Package harness is the callable entry point of the orchestration
// engine: resolve a config, supervise one run (or a full dual-tester
// sequence), reduce the outcome into a RunResult.
package harness

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/programme-lv/ircrun/api"
	"github.com/programme-lv/ircrun/internal/config"
	"github.com/programme-lv/ircrun/internal/history"
	"github.com/programme-lv/ircrun/internal/report"
	"github.com/programme-lv/ircrun/internal/supervise"
	"github.com/programme-lv/ircrun/internal/valgrind"
	"github.com/programme-lv/ircrun/internal/verdict"
)

// ReporterFactory builds the reporters for one run, given its run ID.
type ReporterFactory func(runID string) report.Reporter

// Harness owns the collaborators shared across runs.
type Harness struct {
	log         *slog.Logger
	resolver    *config.Resolver
	reporterFor ReporterFactory
	recorder    history.Recorder
}

type Option func(*Harness)

func WithLogger(log *slog.Logger) Option {
	return func(h *Harness) { h.log = log }
}

func WithPathSupplier(s config.PathSupplier) Option {
	return func(h *Harness) { h.resolver = config.NewResolver(s, h.log) }
}

func WithReporterFactory(f ReporterFactory) Option {
	return func(h *Harness) { h.reporterFor = f }
}

func WithRecorder(r history.Recorder) Option {
	return func(h *Harness) { h.recorder = r }
}

func New(opts ...Option) *Harness {
	h := &Harness{
		log:         slog.Default(),
		reporterFor: func(string) report.Reporter { return report.Nop{} },
		recorder:    history.Nop{},
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.resolver == nil {
		h.resolver = config.NewResolver(nil, h.log)
	}
	return h
}

// Run performs one complete test cycle. A *config.Error means the run
// never started; any other error means diagnostic capture failed and the
// result is invalid. Otherwise exactly one RunResult is produced.
func (h *Harness) Run(ctx context.Context, opts config.Options) (*api.RunResult, error) {
	cfg, err := h.resolver.Resolve(opts)
	if err != nil {
		return nil, err
	}
	return h.runResolved(ctx, cfg)
}

func (h *Harness) runResolved(ctx context.Context, cfg *config.RunConfig) (*api.RunResult, error) {
	rc, err := supervise.NewRunContext(cfg)
	if err != nil {
		return nil, err
	}

	reporter := h.reporterFor(rc.RunID)
	reporter.StartRun(cfg.ServerPath, string(cfg.Tester), cfg.Port, cfg.Valgrind)

	analyzer := valgrind.New(cfg.Valgrind, rc.Dir)
	sup := supervise.New(h.log, reporter, analyzer)

	out, err := sup.Run(ctx, rc)
	if err != nil {
		return nil, err
	}

	leak, err := analyzer.Report()
	if err != nil {
		// the report is written by valgrind on server exit; a missing one
		// usually means the server never got that far
		h.log.Warn("could not read valgrind report", "error", err)
		leak = nil
	}

	result := verdict.Reduce(rc.RunID, out, leak)

	if err := writeResultFile(rc.Dir, result); err != nil {
		h.log.Warn("failed to write result file", "error", err)
	}
	reporter.FinishRun(result)
	if err := h.recorder.Append(history.Record{
		RunID:  rc.RunID,
		Dir:    rc.Dir,
		Result: result,
	}); err != nil {
		h.log.Warn("failed to record run history", "error", err)
	}

	return &result, nil
}

// RunFull runs both tester variants sequentially, each cycle with its own
// output directory and its own freshly allocated port.
func (h *Harness) RunFull(ctx context.Context, opts config.Options) ([]api.RunResult, error) {
	var results []api.RunResult
	for _, variant := range []config.TesterVariant{config.TesterV1, config.TesterV2} {
		// each cycle allocates its own port and run directory
		cycle := opts
		cycle.Tester = string(variant)
		cycle.Port = 0
		cycle.OutDir = ""

		res, err := h.Run(ctx, cycle)
		if err != nil {
			return results, fmt.Errorf("full mode %s cycle: %w", variant, err)
		}
		results = append(results, *res)
	}
	return results, nil
}

func writeResultFile(dir string, result api.RunResult) error {
	b, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	path := filepath.Join(dir, "result.json")
	if err := os.WriteFile(path, b, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
