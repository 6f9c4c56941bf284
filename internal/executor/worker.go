package executor

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/vk/dagwalk/internal/ctxlog"
	"github.com/vk/dagwalk/internal/frontier"
	"github.com/vk/dagwalk/internal/node"
	"github.com/vk/dagwalk/internal/trace"
)

// worker holds the state of one traversal goroutine. The counters are only
// written by the worker itself and read after the errgroup has been waited on.
type worker struct {
	id        int
	runID     string
	frontier  *frontier.Frontier
	appender  trace.Appender
	exit      ExitPolicy
	observers []Observer

	arrivals   int
	expansions int
}

// run is the core processing loop for a single concurrent worker.
func (w *worker) run(ctx context.Context) (err error) {
	logger := ctxlog.FromContext(ctx).With("workerID", w.id)
	logger.Debug("Worker started.")

	defer func() {
		if r := recover(); r != nil {
			logger.Error("Worker panicked.", "panic", r, "stack", string(debug.Stack()))
			err = fmt.Errorf("%w: worker %d: %v", ErrWorkerPanic, w.id, r)
		}
	}()

	for {
		if err := ctx.Err(); err != nil {
			logger.Debug("Worker stopping, context done.", "error", err)
			return err
		}

		n, ok := w.withdraw(ctx)
		if !ok {
			if err := ctx.Err(); err != nil {
				return err
			}
			logger.Debug("Worker exiting, frontier empty.", "arrivals", w.arrivals)
			return nil
		}

		a := node.Visit(n)
		w.appender.Append(a.Label)
		w.arrivals++
		if a.Expanded() {
			w.expansions++
		}
		for _, child := range a.Work {
			w.frontier.Push(child)
		}
		if w.exit == ExitDrain {
			w.frontier.Settle()
		}

		logger.Debug("Arrived at node.",
			"label", a.Label,
			"from", a.From.String(),
			"to", a.To.String(),
			"pushed", len(a.Work),
		)
		w.notify(ctx, a)
	}
}

func (w *worker) withdraw(ctx context.Context) (node.Node, bool) {
	if w.exit == ExitDrain {
		return w.frontier.Withdraw(ctx)
	}
	return w.frontier.TryWithdraw()
}

func (w *worker) notify(ctx context.Context, a node.Arrival) {
	if len(w.observers) == 0 {
		return
	}
	ev := Arrival{
		RunID:  w.runID,
		Worker: w.id,
		Label:  a.Label,
		Leaf:   a.Leaf,
		Visit:  a.Visit,
		Pushed: len(a.Work),
	}
	if !a.Leaf {
		ev.From, ev.To = a.From, a.To
	}
	for _, obs := range w.observers {
		obs.OnArrival(ctx, ev)
	}
}
