package executor

import (
	"context"

	"github.com/vk/dagwalk/internal/node"
)

// Arrival is the event passed to observers after a worker has recorded a
// node in the trace and pushed its children.
type Arrival struct {
	RunID  string
	Worker int
	Label  string
	Leaf   bool
	// From and To are the branch status before and after the arrival. Both
	// are zero (UnExplored) for leaves.
	From node.Status
	To   node.Status
	// Visit is the 1-based arrival index at a branch, 0 for leaves.
	Visit int
	// Pushed is the number of children scheduled by this arrival.
	Pushed int
}

// Expanded reports whether the arrival scheduled children.
func (a Arrival) Expanded() bool { return a.Pushed > 0 }

// Observer receives arrival events. Implementations are called from worker
// goroutines concurrently and must not block for long.
type Observer interface {
	OnArrival(ctx context.Context, a Arrival)
}

// RunObserver is implemented by observers that also want to know when a run
// starts and ends. res is nil when err is not.
type RunObserver interface {
	Observer
	OnRunStart(ctx context.Context, runID string, root string, workers int)
	OnRunEnd(ctx context.Context, runID string, res *Result, err error)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(ctx context.Context, a Arrival)

// OnArrival calls f(ctx, a).
func (f ObserverFunc) OnArrival(ctx context.Context, a Arrival) { f(ctx, a) }

func (e *Executor) notifyStart(ctx context.Context, runID string) {
	for _, obs := range e.observers {
		if ro, ok := obs.(RunObserver); ok {
			ro.OnRunStart(ctx, runID, e.root.Label(), e.workers)
		}
	}
}

func (e *Executor) notifyEnd(ctx context.Context, runID string, res *Result, err error) {
	for _, obs := range e.observers {
		if ro, ok := obs.(RunObserver); ok {
			ro.OnRunEnd(ctx, runID, res, err)
		}
	}
}
