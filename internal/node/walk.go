package node

// WalkFunc is invoked once per unique node reachable from the walk's root.
// Returning false stops the walk.
type WalkFunc func(n Node) bool

// Walk visits every node reachable from root exactly once, identified by
// pointer, in depth-first pre-order with left before right. It does not
// read or change exploration state, so it is safe on a graph that is not
// being traversed.
func Walk(root Node, fn WalkFunc) {
	if root == nil {
		return
	}
	var (
		seen    = make(map[Node]struct{})
		pending = []Node{root}
	)
	for len(pending) > 0 {
		n := pending[len(pending)-1]
		pending = pending[:len(pending)-1]

		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}

		if !fn(n) {
			return
		}
		if b, ok := n.(*Branch); ok {
			pending = append(pending, b.right, b.left)
		}
	}
}

// Reset returns every branch reachable from root to UnExplored so the graph
// can be traversed again. It must not run while a traversal of the same
// graph is in progress.
func Reset(root Node) {
	Walk(root, func(n Node) bool {
		if b, ok := n.(*Branch); ok {
			b.reset()
		}
		return true
	})
}

// Stats summarises the unique nodes reachable from a root.
type Stats struct {
	Leaves   int
	Branches int
	// Edges counts parent-to-child references among reachable branches.
	Edges int
}

// Count walks the graph and returns its Stats.
func Count(root Node) Stats {
	var s Stats
	Walk(root, func(n Node) bool {
		switch n.(type) {
		case *Branch:
			s.Branches++
			s.Edges += 2
		case *Leaf:
			s.Leaves++
		}
		return true
	})
	return s
}
