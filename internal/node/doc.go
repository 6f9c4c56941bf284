// Package node defines the graph vertices traversed by the executor and the
// exploration state machine attached to every branch.
//
// # Shape and state
//
// A graph is built once from Leaf and Branch values and never changes shape.
// Children are shared by pointer, so a node reachable through several parents
// is a single value with several references. The only mutable data is a
// branch's Status and arrival counter, both guarded by that branch's own
// mutex; there is no graph-wide lock.
//
// # Transitions
//
// Every arrival at a branch runs Arrive as one critical section:
//
//	UnExplored        -> PartiallyExplored  push right, then left
//	PartiallyExplored -> Explored           no work
//	Explored          -> Explored           no work
//
// Every arrival, including arrivals at leaves, records the node's label.
package node
