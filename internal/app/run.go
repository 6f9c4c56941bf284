package app

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/vk/dagwalk/internal/ctxlog"
	"github.com/vk/dagwalk/internal/executor"
	"github.com/vk/dagwalk/internal/feed"
	"github.com/vk/dagwalk/internal/node"
	"github.com/vk/dagwalk/internal/telemetry"
	"github.com/vk/dagwalk/internal/trace"
)

// ErrTraceMismatch is returned in compare mode when the concurrent trace does
// not agree with the sequential one.
var ErrTraceMismatch = errors.New("concurrent trace does not match sequential trace")

// Version is reported as the service version in telemetry.
var Version = "dev"

// Run traverses the configured graph and writes the report to the output
// writer.
func (a *App) Run(ctx context.Context) (err error) {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	shutdown, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    "dagwalk",
		ServiceVersion: Version,
		TraceExporter:  a.config.TraceExporter,
		MetricExporter: a.config.MetricExporter,
		OTLPEndpoint:   a.config.OTLPEndpoint,
		OTLPInsecure:   true,
		Writer:         a.logW,
		Registerer:     a.registry,
	})
	if err != nil {
		return fmt.Errorf("failed to initialise telemetry: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if serr := shutdown(sctx); serr != nil {
			a.logger.Warn("Telemetry shutdown failed.", "error", serr)
		}
	}()

	if err := a.startHealthCheckServer(ctx); err != nil {
		return err
	}
	defer func() { _ = a.closeHealthCheckServer(ctx) }()

	observers := []executor.Observer{a.metrics}
	if a.config.FeedURL != "" {
		f, err := feed.Dial(ctx, feed.Config{URL: a.config.FeedURL, Namespace: a.config.FeedNamespace})
		if err != nil {
			return fmt.Errorf("failed to connect live feed: %w", err)
		}
		defer func() {
			if cerr := f.Close(context.WithoutCancel(ctx)); cerr != nil && !errors.Is(cerr, feed.ErrClosed) {
				a.logger.Warn("Live feed close failed.", "error", cerr)
			}
			if n := f.Dropped(); n > 0 {
				a.logger.Warn("Live feed dropped arrival events.", "dropped", n)
			}
		}()
		observers = append(observers, f)
	}

	a.logger.Info("🚀 Starting traversal...",
		"graph", a.graph.Name,
		"mode", a.config.Mode,
		"nodes", len(a.graph.Nodes),
	)

	var report *Report
	switch a.config.Mode {
	case ModeSequential:
		report = a.runSequential()
	case ModeConcurrent:
		report, err = a.runConcurrent(ctx, observers)
	case ModeCompare:
		report, err = a.runCompare(ctx, observers)
	default:
		err = fmt.Errorf("unknown mode %q", a.config.Mode)
	}
	if err != nil {
		return fmt.Errorf("traversal failed: %w", err)
	}

	a.logger.Info("🏁 Traversal finished.", "arrivals", len(report.Trace))
	return report.Write(a.outW, a.config.Output)
}

func (a *App) runSequential() *Report {
	labels := executor.Sequential(a.graph.Root)
	return &Report{
		Graph:  a.graph.Name,
		Mode:   ModeSequential,
		Trace:  labels,
		Counts: trace.Counts(labels),
	}
}

func (a *App) newExecutor(observers []executor.Observer) (*executor.Executor, error) {
	mode, err := trace.ParseMode(a.config.Recorder)
	if err != nil {
		return nil, err
	}
	merge, err := trace.ParseMerge(a.config.Merge)
	if err != nil {
		return nil, err
	}
	exit, err := executor.ParseExitPolicy(a.config.ExitPolicy)
	if err != nil {
		return nil, err
	}
	return executor.New(a.graph.Root,
		executor.WithWorkers(a.config.WorkerCount),
		executor.WithRecorder(mode),
		executor.WithMerge(merge),
		executor.WithExitPolicy(exit),
		executor.WithObserver(observers...),
		executor.WithLogger(a.logger),
	)
}

func (a *App) runConcurrent(ctx context.Context, observers []executor.Observer) (*Report, error) {
	e, err := a.newExecutor(observers)
	if err != nil {
		return nil, err
	}
	res, err := e.Run(ctx)
	if err != nil {
		return nil, err
	}
	return &Report{
		Graph:      a.graph.Name,
		Mode:       ModeConcurrent,
		RunID:      res.RunID,
		Workers:    res.Workers,
		Trace:      res.Trace,
		PerWorker:  res.PerWorker,
		Counts:     trace.Counts(res.Trace),
		Expansions: res.Expansions,
	}, nil
}

// runCompare runs the sequential reference and a concurrent traversal of the
// same graph. The multisets must agree; with one worker the traces must be
// identical.
func (a *App) runCompare(ctx context.Context, observers []executor.Observer) (*Report, error) {
	seq := executor.Sequential(a.graph.Root)
	node.Reset(a.graph.Root)

	report, err := a.runConcurrent(ctx, observers)
	if err != nil {
		return nil, err
	}
	report.Mode = ModeCompare
	report.Sequential = seq

	if want := trace.Counts(seq); !maps.Equal(want, report.Counts) {
		return nil, fmt.Errorf("%w (-sequential +concurrent):\n%s", ErrTraceMismatch, cmp.Diff(want, report.Counts))
	}
	if report.Workers == 1 {
		if diff := cmp.Diff(seq, report.Trace); diff != "" {
			return nil, fmt.Errorf("%w (-sequential +concurrent):\n%s", ErrTraceMismatch, diff)
		}
	}
	a.logger.Info("Concurrent trace matches sequential reference.", "workers", report.Workers)
	return report, nil
}
