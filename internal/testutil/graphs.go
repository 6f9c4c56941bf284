package testutil

import (
	"math/rand/v2"
	"strconv"

	"github.com/vk/dagwalk/internal/node"
)

// E2ESequential is the trace a sequential traversal of E2E produces.
var E2ESequential = []string{"0", "1", "2", "3", "4", "5", "6", "3", "7", "5", "8"}

// E2ECounts is the label multiset of any traversal of E2E.
var E2ECounts = map[string]int{
	"0": 1, "1": 1, "2": 1, "3": 2, "4": 1, "5": 2, "6": 1, "7": 1, "8": 1,
}

// E2E builds the reference graph with two shared nodes: branch 3 is reached
// from 1 and 6, leaf 5 from 3 and 7.
//
//	        0
//	      /   \
//	     1     6
//	    / \   / \
//	   2   3 3   7
//	      / \   / \
//	     4   5 5   8
func E2E() *node.Branch {
	l2 := node.NewLeaf("2")
	l4 := node.NewLeaf("4")
	l5 := node.NewLeaf("5")
	l8 := node.NewLeaf("8")
	b3 := node.NewBranch("3", l4, l5)
	b1 := node.NewBranch("1", l2, b3)
	b7 := node.NewBranch("7", l5, l8)
	b6 := node.NewBranch("6", b3, b7)
	return node.NewBranch("0", b1, b6)
}

// Chain builds a left-leaning chain of depth branches. Every branch has the
// next branch as its left child and a private leaf as its right child; the
// last branch has two leaves.
func Chain(depth int) node.Node {
	var next node.Node = node.NewLeaf("end")
	for i := depth - 1; i >= 0; i-- {
		id := strconv.Itoa(i)
		next = node.NewBranch("b"+id, next, node.NewLeaf("l"+id))
	}
	return next
}

// Ladder builds a graph of depth branches where both children of every
// branch point to the same next branch. Each branch is reached twice, so
// the graph exercises the PartiallyExplored path at every level.
func Ladder(depth int) node.Node {
	var next node.Node = node.NewLeaf("bottom")
	for i := depth - 1; i >= 0; i-- {
		next = node.NewBranch("r"+strconv.Itoa(i), next, next)
	}
	return next
}

// RandomDAG builds an acyclic graph with the given number of leaves and
// branches. Children are drawn from nodes created earlier, so the result is
// acyclic by construction and tends to share substructure heavily. The last
// branch created is returned as the root. Labels are unique.
func RandomDAG(seed uint64, leaves, branches int) node.Node {
	if leaves < 1 {
		leaves = 1
	}
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

	pool := make([]node.Node, 0, leaves+branches)
	for i := range leaves {
		pool = append(pool, node.NewLeaf("L"+strconv.Itoa(i)))
	}
	for i := range branches {
		left := pool[rng.IntN(len(pool))]
		right := pool[rng.IntN(len(pool))]
		pool = append(pool, node.NewBranch("B"+strconv.Itoa(i), left, right))
	}
	return pool[len(pool)-1]
}

// ExpectedCounts returns the label multiset every complete traversal of root
// must produce. Each reachable branch is expanded exactly once, so a node is
// reached once per incoming edge from a reachable branch, plus once more if
// it is the root. Labels are assumed unique per node.
func ExpectedCounts(root node.Node) map[string]int {
	counts := map[string]int{}
	if root == nil {
		return counts
	}
	counts[root.Label()]++
	node.Walk(root, func(n node.Node) bool {
		if b, ok := n.(*node.Branch); ok {
			counts[b.Left().Label()]++
			counts[b.Right().Label()]++
		}
		return true
	})
	return counts
}

// Reachable returns the set of labels reachable from root.
func Reachable(root node.Node) map[string]bool {
	out := map[string]bool{}
	node.Walk(root, func(n node.Node) bool {
		out[n.Label()] = true
		return true
	})
	return out
}
