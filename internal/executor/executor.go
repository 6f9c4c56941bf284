// Package executor drives the traversal of a node graph, either on the
// calling goroutine (Sequential) or with a pool of concurrent workers that
// share one frontier (Executor.Run).
//
// # How It Works
//
// The root is pushed onto a frontier.Frontier. Each worker then loops:
//
//  1. Withdraw the most recently pushed node, or exit if there is none.
//  2. Run the node's arrival under its own lock (node.Visit).
//  3. Append the label to the worker's trace appender.
//  4. Push the produced children back onto the frontier.
//
// A branch produces its children on the first arrival only, so the total
// amount of work is bounded by twice the number of branches plus the number
// of edges actually traversed, and every run terminates.
//
// # Exit policies
//
// With ExitEager (the default) a worker leaves as soon as it sees an empty
// frontier, even if a peer is about to push more work; the peer then finishes
// the remaining work alone. No work is ever lost because a worker that pushes
// always withdraws again before it can exit. ExitDrain keeps workers waiting
// while any peer still holds an unsettled node.
//
// # Failures
//
// Traversal itself cannot fail. A panic in a worker (for instance raised by
// an Observer) is recovered, wrapped in ErrWorkerPanic, stops the remaining
// workers and is returned from Run. Cancelling the context stops workers
// between arrivals and Run returns the context's error. No partial result is
// returned in either case.
package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/metric"

	"github.com/vk/dagwalk/internal/node"
	"github.com/vk/dagwalk/internal/trace"
)

var (
	// ErrNilRoot is returned by New when no root node is given.
	ErrNilRoot = errors.New("executor: root node is nil")
	// ErrInvalidWorkers is returned by New when the worker count is below one.
	ErrInvalidWorkers = errors.New("executor: worker count must be at least 1")
	// ErrWorkerPanic wraps a panic recovered from a worker goroutine.
	ErrWorkerPanic = errors.New("executor: worker panicked")
)

// ExitPolicy decides when a worker that finds the frontier empty leaves.
type ExitPolicy int

const (
	// ExitEager leaves on the first empty withdrawal.
	ExitEager ExitPolicy = iota
	// ExitDrain waits while any other worker still processes a node.
	ExitDrain
)

// String returns the flag spelling of the policy.
func (p ExitPolicy) String() string {
	switch p {
	case ExitEager:
		return "eager"
	case ExitDrain:
		return "drain"
	default:
		return fmt.Sprintf("ExitPolicy(%d)", int(p))
	}
}

// ParseExitPolicy converts a flag value into an ExitPolicy.
func ParseExitPolicy(s string) (ExitPolicy, error) {
	switch strings.ToLower(s) {
	case "eager", "":
		return ExitEager, nil
	case "drain":
		return ExitDrain, nil
	default:
		return 0, fmt.Errorf("unknown exit policy %q", s)
	}
}

// Executor runs concurrent traversals of one graph.
//
// An Executor may be reused, but the graph keeps its exploration state
// between runs; call node.Reset on the root before running again if a fresh
// traversal is wanted. Runs of the same graph must not overlap.
type Executor struct {
	root      node.Node
	workers   int
	mode      trace.Mode
	merge     trace.Merge
	exit      ExitPolicy
	observers []Observer
	logger    *slog.Logger

	// Metrics (initialized lazily)
	metricsOnce sync.Once
	arrivals    metric.Int64Counter
	expansions  metric.Int64Counter
	runLatency  metric.Float64Histogram
}

// Option configures an Executor.
type Option func(*Executor)

// WithWorkers sets the number of concurrent workers.
func WithWorkers(n int) Option {
	return func(e *Executor) { e.workers = n }
}

// WithRecorder selects the trace recording mode.
func WithRecorder(mode trace.Mode) Option {
	return func(e *Executor) { e.mode = mode }
}

// WithMerge selects how per-worker buffers are merged in trace.Local mode.
func WithMerge(merge trace.Merge) Option {
	return func(e *Executor) { e.merge = merge }
}

// WithExitPolicy selects when idle workers leave.
func WithExitPolicy(p ExitPolicy) Option {
	return func(e *Executor) { e.exit = p }
}

// WithObserver registers observers notified of every arrival. Observers are
// called from worker goroutines and must be safe for concurrent use.
func WithObserver(obs ...Observer) Option {
	return func(e *Executor) { e.observers = append(e.observers, obs...) }
}

// WithLogger sets the logger. Without it the logger is taken from the
// context passed to Run.
func WithLogger(l *slog.Logger) Option {
	return func(e *Executor) { e.logger = l }
}

// New creates an executor for the graph rooted at root.
func New(root node.Node, opts ...Option) (*Executor, error) {
	if root == nil {
		return nil, ErrNilRoot
	}
	e := &Executor{
		root:    root,
		workers: runtime.GOMAXPROCS(0),
		mode:    trace.Local,
		merge:   trace.Concat,
		exit:    ExitEager,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.workers < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidWorkers, e.workers)
	}
	return e, nil
}

// Workers returns the configured worker count.
func (e *Executor) Workers() int { return e.workers }

// Result is the outcome of one successful run.
type Result struct {
	// RunID identifies the run in logs, spans and the live feed.
	RunID   string
	Workers int
	// Trace is the merged trace: one label per arrival.
	Trace []string
	// PerWorker holds each worker's own labels in the order it reached them.
	PerWorker [][]string
	// Arrivals equals len(Trace).
	Arrivals int
	// Expansions counts UnExplored -> PartiallyExplored transitions.
	Expansions int
	Duration   time.Duration
}

// Concurrent traverses the graph rooted at root with the given number of
// workers and returns the merged trace.
func Concurrent(ctx context.Context, root node.Node, workers int) ([]string, error) {
	e, err := New(root, WithWorkers(workers))
	if err != nil {
		return nil, err
	}
	res, err := e.Run(ctx)
	if err != nil {
		return nil, err
	}
	return res.Trace, nil
}
