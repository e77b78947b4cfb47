// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pool runs a per-file handler over a fixed set of paths with bounded
// concurrency.
//
// Two variants exist. RunSessions gives each worker one long-lived engine
// session, created before the worker takes any work and shut down when the
// worker exits. RunStateless is a bounded map for handlers that open and
// close everything they need per call.
//
// Per-file failures never stop a worker: errors and panics are logged,
// counted as failed, and the worker moves on to the next path.
package pool

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/doctoolbox/internal/engine"
	"github.com/pdiddy/doctoolbox/internal/logging"
	"github.com/pdiddy/doctoolbox/pkg/types"
)

// DefaultWorkers bounds concurrent engine instances, which are heavy.
const DefaultWorkers = 4

// Handler processes one file.
type Handler func(ctx context.Context, path string) (types.Outcome, error)

// SessionHandler processes one file with the calling worker's session.
type SessionHandler func(ctx context.Context, sess engine.Session, path string) (types.Outcome, error)

// Opener starts an engine session for one worker.
type Opener func(ctx context.Context) (engine.Session, error)

// Observer is notified after each file. Calls are serialized.
type Observer func(path string, outcome types.Outcome, err error)

// Options configure a pool run.
type Options struct {
	// Workers is the pool size; values below 1 use DefaultWorkers.
	Workers int

	// Logger receives failures; nil uses slog.Default().
	Logger *slog.Logger

	// Observer, when set, sees every processed file.
	Observer Observer
}

func (o Options) workers() int {
	if o.Workers < 1 {
		return DefaultWorkers
	}
	return o.Workers
}

func (o Options) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.Default()
	}
	return o.Logger
}

// Summary tallies a pool run.
type Summary struct {
	// Counts holds the number of files per outcome.
	Counts map[types.Outcome]int

	// Pending lists paths never handed to a handler, because every worker
	// failed to start or the run was cancelled.
	Pending []string
}

// Count returns the number of files with outcome o.
func (s Summary) Count(o types.Outcome) int { return s.Counts[o] }

// Processed returns the number of files that completed successfully.
func (s Summary) Processed() int {
	n := 0
	for o, c := range s.Counts {
		if o.Processed() {
			n += c
		}
	}
	return n
}

// tally collects results from concurrent workers.
type tally struct {
	mu       sync.Mutex
	counts   map[types.Outcome]int
	pending  []string
	observer Observer
}

func newTally(obs Observer) *tally {
	return &tally{counts: map[types.Outcome]int{}, observer: obs}
}

func (t *tally) record(path string, outcome types.Outcome, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.counts[outcome]++
	if t.observer != nil {
		t.observer(path, outcome, err)
	}
}

func (t *tally) skip(path string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pending = append(t.pending, path)
}

func (t *tally) summary() Summary {
	t.mu.Lock()
	defer t.mu.Unlock()
	counts := make(map[types.Outcome]int, len(t.counts))
	for k, v := range t.counts {
		counts[k] = v
	}
	return Summary{Counts: counts, Pending: append([]string(nil), t.pending...)}
}

// RunSessions processes paths with a fixed pool of session-holding workers.
// The queue is a channel pre-loaded with every path and closed, so each
// worker stops once the queue is drained. RunSessions returns after every
// worker has exited and shut down its session.
func RunSessions(ctx context.Context, opts Options, paths []string, open Opener, handle SessionHandler) Summary {
	queue := make(chan string, len(paths))
	for _, p := range paths {
		queue <- p
	}
	close(queue)

	t := newTally(opts.Observer)
	logger := opts.logger()

	var wg sync.WaitGroup
	for i := 0; i < opts.workers(); i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			sessionWorker(ctx, logger.With("worker", id), queue, open, handle, t)
		}(i)
	}
	wg.Wait()

	for p := range queue {
		t.skip(p)
	}
	return t.summary()
}

func sessionWorker(ctx context.Context, log *slog.Logger, queue <-chan string, open Opener, handle SessionHandler, t *tally) {
	sess, err := startSession(ctx, open)
	if err != nil {
		log.Error("Failed to initialize engine session", logging.ErrorKey, err)
		return
	}
	defer func() {
		if err := sess.Quit(); err != nil {
			log.Warn("engine session shutdown failed", "error", err)
		}
	}()

	for {
		if ctx.Err() != nil {
			return
		}
		select {
		case <-ctx.Done():
			return
		case path, ok := <-queue:
			if !ok {
				return
			}
			outcome, err := process(log, path, func() (types.Outcome, error) {
				return handle(ctx, sess, path)
			})
			t.record(path, outcome, err)
		}
	}
}

// startSession calls open, converting a panic into an error.
func startSession(ctx context.Context, open Opener) (sess engine.Session, err error) {
	defer func() {
		if r := recover(); r != nil {
			sess, err = nil, fmt.Errorf("panic starting session: %v", r)
		}
	}()
	sess, err = open(ctx)
	if err == nil && sess == nil {
		err = fmt.Errorf("opener returned no session")
	}
	return sess, err
}

// RunStateless processes paths with at most opts.Workers concurrent calls.
func RunStateless(ctx context.Context, opts Options, paths []string, handle Handler) Summary {
	t := newTally(opts.Observer)
	logger := opts.logger()

	var g errgroup.Group
	g.SetLimit(opts.workers())
	for _, path := range paths {
		if ctx.Err() != nil {
			t.skip(path)
			continue
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				t.skip(path)
				return nil
			}
			outcome, err := process(logger, path, func() (types.Outcome, error) {
				return handle(ctx, path)
			})
			t.record(path, outcome, err)
			return nil
		})
	}
	_ = g.Wait() // per-file errors are recorded, never returned
	return t.summary()
}

// process runs fn for path and contains its failures. Errors are logged
// with their detail; panics are logged with the goroutine stack.
func process(log *slog.Logger, path string, fn func() (types.Outcome, error)) (outcome types.Outcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic processing %s: %v", path, r)
			outcome = types.OutcomeFailed
			log.Error("Failed to process "+path, "path", path,
				logging.ErrorKey, err, logging.StackKey, string(debug.Stack()))
		}
	}()

	outcome, err = fn()
	if err != nil {
		log.Error("Failed to process "+path, "path", path, logging.ErrorKey, err)
		return types.OutcomeFailed, err
	}
	if outcome == "" {
		outcome = types.OutcomeUnchanged
	}
	return outcome, nil
}
