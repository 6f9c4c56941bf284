package executor

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	oteltrace "go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/vk/dagwalk/internal/ctxlog"
	"github.com/vk/dagwalk/internal/frontier"
	"github.com/vk/dagwalk/internal/trace"
)

var (
	tracer = otel.Tracer("dagwalk.executor")
	meter  = otel.Meter("dagwalk.executor")
)

// initMetrics lazily creates the run instruments. A failure to create an
// instrument only degrades observability; the run itself proceeds.
func (e *Executor) initMetrics(ctx context.Context) {
	e.metricsOnce.Do(func() {
		logger := ctxlog.FromContext(ctx)
		var err error

		e.arrivals, err = meter.Int64Counter("dagwalk_arrivals_total",
			metric.WithDescription("Number of node arrivals recorded in traces"),
		)
		if err != nil {
			logger.Warn("Failed to create arrivals counter.", "error", err)
		}

		e.expansions, err = meter.Int64Counter("dagwalk_expansions_total",
			metric.WithDescription("Number of branches whose children were scheduled"),
		)
		if err != nil {
			logger.Warn("Failed to create expansions counter.", "error", err)
		}

		e.runLatency, err = meter.Float64Histogram("dagwalk_run_duration_seconds",
			metric.WithDescription("Wall time of a concurrent traversal"),
			metric.WithUnit("s"),
		)
		if err != nil {
			logger.Warn("Failed to create run latency histogram.", "error", err)
		}
	})
}

// Run traverses the graph with the configured number of workers and
// returns the merged trace. It returns an error only if a worker panicked or
// ctx was cancelled; in that case no result is returned.
func (e *Executor) Run(ctx context.Context) (*Result, error) {
	if e.logger != nil {
		ctx = ctxlog.WithLogger(ctx, e.logger)
	}
	e.initMetrics(ctx)

	runID := uuid.NewString()[:12]
	ctx = ctxlog.With(ctx, "runID", runID)
	logger := ctxlog.FromContext(ctx)

	ctx, span := tracer.Start(ctx, "dagwalk.Explore",
		oteltrace.WithAttributes(
			attribute.String("dagwalk.run_id", runID),
			attribute.String("dagwalk.root", e.root.Label()),
			attribute.Int("dagwalk.workers", e.workers),
			attribute.String("dagwalk.exit_policy", e.exit.String()),
			attribute.String("dagwalk.recorder", e.mode.String()),
		),
	)
	defer span.End()

	logger.Info("Traversal started.", "root", e.root.Label(), "workers", e.workers, "exit", e.exit.String())
	e.notifyStart(ctx, runID)

	start := time.Now()
	f := frontier.New(64)
	f.Push(e.root)
	rec := trace.NewRecorder(e.mode, e.workers)

	workers := make([]*worker, e.workers)
	g, gctx := errgroup.WithContext(ctx)
	for i := range workers {
		w := &worker{
			id:        i,
			runID:     runID,
			frontier:  f,
			appender:  rec.For(i),
			exit:      e.exit,
			observers: e.observers,
		}
		workers[i] = w
		g.Go(func() error { return w.run(gctx) })
	}

	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.Error("Traversal aborted.", "error", err)
		e.notifyEnd(ctx, runID, nil, err)
		return nil, err
	}
	// A cancellation that raced with natural completion still aborts the run.
	if err := ctx.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		e.notifyEnd(ctx, runID, nil, err)
		return nil, err
	}

	res := &Result{
		RunID:     runID,
		Workers:   e.workers,
		Trace:     rec.Labels(e.merge),
		PerWorker: rec.PerWorker(),
		Duration:  time.Since(start),
	}
	for _, w := range workers {
		res.Arrivals += w.arrivals
		res.Expansions += w.expansions
	}

	e.recordMetrics(ctx, res)
	span.SetAttributes(
		attribute.Int("dagwalk.arrivals", res.Arrivals),
		attribute.Int("dagwalk.expansions", res.Expansions),
	)
	span.SetStatus(codes.Ok, "")

	logger.Info("Traversal finished.",
		"arrivals", res.Arrivals,
		"expansions", res.Expansions,
		"duration", res.Duration,
	)
	e.notifyEnd(ctx, runID, res, nil)
	return res, nil
}

func (e *Executor) recordMetrics(ctx context.Context, res *Result) {
	attrs := metric.WithAttributes(attribute.String("exit_policy", e.exit.String()))
	if e.arrivals != nil {
		e.arrivals.Add(ctx, int64(res.Arrivals), attrs)
	}
	if e.expansions != nil {
		e.expansions.Add(ctx, int64(res.Expansions), attrs)
	}
	if e.runLatency != nil {
		e.runLatency.Record(ctx, res.Duration.Seconds(), attrs)
	}
}
