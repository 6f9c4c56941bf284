package node

import (
	"fmt"
	"sync"
)

// Node is a single vertex in the graph. A node is either a *Leaf or a
// *Branch; the set is closed by the unexported sealed method.
//
// Nodes are shared by reference: every parent that points at a node, every
// frontier entry naming it and the caller's root handle hold the same
// pointer. The graph shape never changes after construction.
type Node interface {
	// Label returns the human-readable identifier of the node.
	Label() string
	sealed()
}

// Leaf is a terminal node. It has no children and no exploration status;
// every arrival records its label and produces no work.
type Leaf struct {
	label string
}

// NewLeaf creates a terminal node with the given label.
func NewLeaf(label string) *Leaf {
	return &Leaf{label: label}
}

// Label implements the Node interface.
func (l *Leaf) Label() string { return l.label }

func (l *Leaf) sealed() {}

// String implements fmt.Stringer.
func (l *Leaf) String() string { return "leaf(" + l.label + ")" }

// Branch is an inner node with exactly two children. Only its exploration
// state is mutable, and only under mu.
type Branch struct {
	// label is the human-readable identifier, immutable after creation.
	label string
	// left and right are set once by NewBranch and never reassigned.
	left  Node
	right Node

	// mu guards every field below. Each branch has its own lock so that
	// contention is limited to arrivals at the same node.
	mu sync.Mutex
	// status is the current exploration state; it only moves forward.
	status Status
	// visits counts arrivals processed so far.
	visits int
}

// NewBranch creates an inner node over two existing children. The children
// may be shared with other branches. A nil child is a construction bug and
// panics.
func NewBranch(label string, left, right Node) *Branch {
	if left == nil || right == nil {
		panic(fmt.Sprintf("node: branch %q created with a nil child", label))
	}
	return &Branch{
		label:  label,
		left:   left,
		right:  right,
		status: UnExplored,
	}
}

// Label implements the Node interface.
func (b *Branch) Label() string { return b.label }

func (b *Branch) sealed() {}

// String implements fmt.Stringer.
func (b *Branch) String() string { return "branch(" + b.label + ")" }

// Left returns the left child.
func (b *Branch) Left() Node { return b.left }

// Right returns the right child.
func (b *Branch) Right() Node { return b.right }

// Status returns a snapshot of the exploration status. The value may be
// stale as soon as it is returned if a traversal is running.
func (b *Branch) Status() Status {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.status
}

// Visits returns how many arrivals this branch has processed.
func (b *Branch) Visits() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.visits
}

// reset puts the branch back into its initial state.
func (b *Branch) reset() {
	b.mu.Lock()
	b.status = UnExplored
	b.visits = 0
	b.mu.Unlock()
}
