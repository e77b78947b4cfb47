// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package batch runs a whole pipeline over a directory tree: open the ledger,
// discover unprocessed candidates, fan them out to a worker pool, and report
// per-file status lines and a summary.
package batch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/pdiddy/doctoolbox/internal/convert"
	"github.com/pdiddy/doctoolbox/internal/discover"
	"github.com/pdiddy/doctoolbox/internal/engine"
	"github.com/pdiddy/doctoolbox/internal/ledger"
	"github.com/pdiddy/doctoolbox/internal/logging"
	"github.com/pdiddy/doctoolbox/internal/pool"
	"github.com/pdiddy/doctoolbox/internal/strip"
	"github.com/pdiddy/doctoolbox/pkg/types"
)

// Result holds the outcome of a batch run.
type Result struct {
	RunID string

	// Found is the number of candidates after ledger filtering.
	Found int

	Converted int
	Removed   int
	Unchanged int
	Failed    int

	// Pending counts candidates never attempted because the run was
	// cancelled or no worker could start.
	Pending int
}

// Total returns the number of files attempted.
func (r Result) Total() int {
	return r.Converted + r.Removed + r.Unchanged + r.Failed
}

// HasFailures reports whether any file failed.
func (r Result) HasFailures() bool {
	return r.Failed > 0
}

// Incomplete reports whether some candidates were left unattempted.
func (r Result) Incomplete() bool {
	return r.Pending > 0
}

func resultFrom(runID string, found int, s pool.Summary) Result {
	return Result{
		RunID:     runID,
		Found:     found,
		Converted: s.Count(types.OutcomeConverted),
		Removed:   s.Count(types.OutcomeRemoved),
		Unchanged: s.Count(types.OutcomeUnchanged),
		Failed:    s.Count(types.OutcomeFailed),
		Pending:   len(s.Pending),
	}
}

// RunConvert converts every unprocessed cfg.SourceExt file under cfg.Root
// using sessions from eng.
func RunConvert(ctx context.Context, cfg types.ConvertConfig, eng engine.Engine, w io.Writer) (Result, error) {
	run, err := start(cfg.BatchConfig, cfg.SourceExt, w)
	if err != nil {
		return Result{}, err
	}
	defer run.close()
	if run.done() {
		return run.result(pool.Summary{}), nil
	}

	c := convert.NewConverter(cfg.TargetExt, run.ledger, run.log)
	run.dropCollisions(c.Target)
	run.log.Info("starting conversion", "engine", eng.Name(), "workers", cfg.Workers)
	summary := pool.RunSessions(ctx, run.options(func(path string) string {
		if info, err := os.Stat(c.Target(path)); err == nil {
			return humanize.Bytes(uint64(info.Size()))
		}
		return ""
	}), run.paths, eng.NewSession, func(ctx context.Context, sess engine.Session, path string) (types.Outcome, error) {
		run.out.printf("Processing: %s\n", path)
		return c.ConvertFile(ctx, sess, path)
	})
	return run.finish(summary), nil
}

// RunStrip removes the trailing image from every unprocessed cfg.Ext file
// under cfg.Root.
func RunStrip(ctx context.Context, cfg types.StripConfig, w io.Writer) (Result, error) {
	run, err := start(cfg.BatchConfig, cfg.Ext, w)
	if err != nil {
		return Result{}, err
	}
	defer run.close()
	if run.done() {
		return run.result(pool.Summary{}), nil
	}

	s := strip.NewStripper(run.ledger, run.log)
	summary := pool.RunStateless(ctx, run.options(nil), run.paths, func(ctx context.Context, path string) (types.Outcome, error) {
		run.out.printf("Processing: %s\n", path)
		return s.StripFile(ctx, path)
	})
	return run.finish(summary), nil
}

// batchRun is the state shared by both pipelines for one invocation.
type batchRun struct {
	id     string
	cfg    types.BatchConfig
	ext    string
	log    *slog.Logger
	out    *console
	ledger ledger.Ledger
	paths  []string

	// rejected counts candidates refused before reaching the pool.
	rejected int
}

// start opens the ledger and discovers candidates. It prints the candidate
// count, or the candidate list in dry-run mode.
func start(cfg types.BatchConfig, ext string, w io.Writer) (*batchRun, error) {
	id := uuid.NewString()
	log := logging.New("batch").With("run_id", id)

	root := cfg.Root
	if root == "" {
		root = "."
	}
	l, err := ledger.Open(cfg.Ledger, log)
	if err != nil {
		return nil, fmt.Errorf("opening ledger: %w", err)
	}

	candidates, err := discover.Scan(root, ext, l, log)
	if err != nil {
		l.Close()
		return nil, fmt.Errorf("discovering %s files: %w", ext, err)
	}

	run := &batchRun{
		id:     id,
		cfg:    cfg,
		ext:    ext,
		log:    log,
		out:    &console{w: w},
		ledger: l,
		paths:  discover.Paths(candidates),
	}
	log.Info("discovered candidates", "root", root, "ext", ext,
		"candidates", len(run.paths), "already_processed", l.Len())

	switch {
	case len(run.paths) == 0:
		run.out.printf("No new %s files found to process.\n", strings.TrimPrefix(ext, "."))
	case cfg.DryRun:
		for _, p := range run.paths {
			run.out.printf("would process: %s\n", p)
		}
		run.out.printf("\nDry run: %d files would be processed.\n", len(run.paths))
	default:
		run.out.printf("Found %d files to process.\n", len(run.paths))
	}
	return run, nil
}

// done reports whether there is nothing to hand to a pool.
func (r *batchRun) done() bool {
	return len(r.paths) == 0 || r.cfg.DryRun
}

// options returns pool options whose observer prints a status line per file.
// size, when set, annotates successful lines.
func (r *batchRun) options(size func(path string) string) pool.Options {
	return pool.Options{
		Workers: r.cfg.Workers,
		Logger:  r.log,
		Observer: func(path string, outcome types.Outcome, err error) {
			switch {
			case err != nil:
				r.out.printf("failed: %s (%v)\n", path, err)
			case size != nil && outcome.Processed() && size(path) != "":
				r.out.printf("%s: %s (%s)\n", outcome, path, size(path))
			default:
				r.out.printf("%s: %s\n", outcome, path)
			}
		},
	}
}

// dropCollisions refuses every candidate whose output path an earlier
// candidate already claims, so no conversion overwrites another's output.
// Refused candidates count as failed and stay unmarked.
func (r *batchRun) dropCollisions(target func(path string) string) {
	claims := make(map[string]string, len(r.paths))
	kept := r.paths[:0]
	for _, p := range r.paths {
		t := target(p)
		if owner, ok := claims[t]; ok {
			err := fmt.Errorf("target %s is also the output of %s", t, owner)
			r.log.Error("Failed to process "+p, "path", p, logging.ErrorKey, err)
			r.out.printf("failed: %s (%v)\n", p, err)
			r.rejected++
			continue
		}
		claims[t] = p
		kept = append(kept, p)
	}
	r.paths = kept
}

func (r *batchRun) result(s pool.Summary) Result {
	res := resultFrom(r.id, len(r.paths)+r.rejected, s)
	res.Failed += r.rejected
	return res
}

// finish prints the summary and logs anything left unattempted.
func (r *batchRun) finish(s pool.Summary) Result {
	res := r.result(s)
	r.out.printf("\nBatch summary: %d converted, %d removed, %d unchanged, %d failed (total: %d)\n",
		res.Converted, res.Removed, res.Unchanged, res.Failed, res.Total())
	if res.Incomplete() {
		r.out.printf("%d files were not attempted and will be retried on the next run.\n", res.Pending)
		r.log.Warn("run ended with unattempted files", "pending", res.Pending)
	}
	r.log.Info("batch finished", "processed", s.Processed(), "failed", res.Failed, "pending", res.Pending)
	return res
}

func (r *batchRun) close() {
	if err := r.ledger.Close(); err != nil {
		r.log.Warn("closing ledger failed", "error", err)
	}
}

// console serializes status lines written by concurrent workers.
type console struct {
	mu sync.Mutex
	w  io.Writer
}

func (c *console) printf(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.w, format, args...)
}
