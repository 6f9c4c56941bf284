// Package frontier provides the shared work stack that hands pending nodes to
// traversal workers.
//
// # Discipline
//
// The frontier is a LIFO stack: the most recently pushed node is withdrawn
// first. Entries are not deduplicated; the same node may be queued several
// times when it is reached through several parents, and each entry is a
// separate arrival.
//
// # Locking
//
// A single mutex guards the stack, and it is held only for the push or pop
// itself. Callers never hold it while running a node's transition, so
// workers contend on the frontier only for the duration of a slice append.
//
// # Exit policies
//
// TryWithdraw never blocks: a worker that sees an empty stack is expected to
// exit. Withdraw is the optional drain variant: it keeps a worker around while
// another worker still holds a withdrawn node whose children may not have
// been pushed yet. Every successful Withdraw must be followed by Settle.
package frontier

import (
	"context"
	"sync"

	"github.com/vk/dagwalk/internal/node"
)

// Frontier is a concurrency-safe stack of pending nodes.
type Frontier struct {
	mu    sync.Mutex
	cond  *sync.Cond
	stack []node.Node
	// inFlight counts nodes handed out by Withdraw and not yet settled.
	inFlight int
	// pushes and withdrawals are lifetime counters for diagnostics.
	pushes      int
	withdrawals int
}

// New creates an empty frontier. capacityHint preallocates the stack.
func New(capacityHint int) *Frontier {
	if capacityHint < 0 {
		capacityHint = 0
	}
	f := &Frontier{stack: make([]node.Node, 0, capacityHint)}
	f.cond = sync.NewCond(&f.mu)
	return f
}

// Push appends n to the top of the stack. The entry is visible to every
// worker as soon as Push returns.
func (f *Frontier) Push(n node.Node) {
	f.mu.Lock()
	f.stack = append(f.stack, n)
	f.pushes++
	f.mu.Unlock()
	f.cond.Signal()
}

// TryWithdraw removes and returns the most recently pushed node. It reports
// false when the stack is empty and never waits.
func (f *Frontier) TryWithdraw() (node.Node, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pop()
}

// Withdraw removes and returns the most recently pushed node. When the stack
// is empty but another caller still holds an unsettled node, it waits until
// new work is pushed, the last holder settles, or ctx is done. It reports
// false when no work can arrive any more or ctx is done.
//
// A node returned by Withdraw counts as in flight until the caller invokes
// Settle, which it must do after pushing the node's children.
func (f *Frontier) Withdraw(ctx context.Context) (node.Node, bool) {
	stop := context.AfterFunc(ctx, func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.cond.Broadcast()
	})
	defer stop()

	f.mu.Lock()
	defer f.mu.Unlock()
	for len(f.stack) == 0 && f.inFlight > 0 && ctx.Err() == nil {
		f.cond.Wait()
	}
	if ctx.Err() != nil {
		return nil, false
	}
	n, ok := f.pop()
	if ok {
		f.inFlight++
	}
	return n, ok
}

// Settle marks one node obtained from Withdraw as fully processed. When the
// last in-flight node settles on an empty stack, every waiting caller is
// released so it can exit.
func (f *Frontier) Settle() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.inFlight == 0 {
		panic("frontier: Settle called without a matching Withdraw")
	}
	f.inFlight--
	if f.inFlight == 0 && len(f.stack) == 0 {
		f.cond.Broadcast()
	}
}

// Len returns the current stack depth. The value is a snapshot and must not
// be used to decide whether work remains.
func (f *Frontier) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.stack)
}

// Stats returns lifetime push and withdrawal counts.
func (f *Frontier) Stats() (pushes, withdrawals int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pushes, f.withdrawals
}

// pop must be called with mu held.
func (f *Frontier) pop() (node.Node, bool) {
	last := len(f.stack) - 1
	if last < 0 {
		return nil, false
	}
	n := f.stack[last]
	f.stack[last] = nil
	f.stack = f.stack[:last]
	f.withdrawals++
	return n, true
}
