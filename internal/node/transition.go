package node

// Transition describes one arrival at a branch: the status before and after
// the arrival, the arrival's index and the work it produced.
type Transition struct {
	From Status
	To   Status
	// Visit is the 1-based index of this arrival at the branch. It is
	// assigned under the branch lock, so sorting arrivals by Visit yields
	// the order in which the branch actually saw them.
	Visit int
	// Work holds the children to push, in push order. The last element is
	// the one a stack hands out first.
	Work []Node
}

// Expanded reports whether this arrival scheduled the branch's children.
func (t Transition) Expanded() bool {
	return t.From == UnExplored
}

// Arrive records one arrival at the branch and advances its status. The
// whole read-decide-mutate sequence runs under the branch lock, so no other
// arrival can observe a half-applied step.
//
// Children are produced on the first arrival only (eager expansion): right
// first, then left, so that a LIFO frontier withdraws the left child first.
// Later arrivals produce nothing; the PartiallyExplored state tells the
// second arrival that the subtree is already scheduled.
func (b *Branch) Arrive() Transition {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.visits++
	t := Transition{
		From:  b.status,
		To:    b.status.next(),
		Visit: b.visits,
	}
	if t.From == UnExplored {
		t.Work = []Node{b.right, b.left}
	}
	b.status = t.To
	return t
}

// Arrival is the outcome of reaching any node.
type Arrival struct {
	// Label is the label to append to the trace.
	Label string
	// Leaf is true when the node is a *Leaf. Leaves have no transition.
	Leaf bool
	// Transition is the zero value for leaves.
	Transition
}

// Expanded reports whether the arrival scheduled children. Leaves never do.
func (a Arrival) Expanded() bool {
	return !a.Leaf && a.Transition.Expanded()
}

// Visit performs one arrival at n. For a branch it runs Arrive; for a leaf
// it only reports the label. Visit never touches any other node's state.
func Visit(n Node) Arrival {
	switch v := n.(type) {
	case *Branch:
		return Arrival{Label: v.label, Transition: v.Arrive()}
	case *Leaf:
		return Arrival{Label: v.label, Leaf: true}
	default:
		// Unreachable: Node is sealed.
		panic("node: unknown node type")
	}
}
