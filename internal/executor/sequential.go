package executor

import "github.com/vk/dagwalk/internal/node"

// Sequential traverses the graph rooted at root on the calling goroutine and
// returns the trace. It applies the same arrival rule as the concurrent
// workers and uses an explicit stack, so its trace equals a single-worker
// concurrent run and deep graphs cannot overflow the goroutine stack.
//
// Like Run, Sequential mutates branch status; reset the graph with
// node.Reset before traversing it again.
func Sequential(root node.Node) []string {
	if root == nil {
		return nil
	}
	var out []string
	stack := []node.Node{root}
	for len(stack) > 0 {
		last := len(stack) - 1
		n := stack[last]
		stack[last] = nil
		stack = stack[:last]

		a := node.Visit(n)
		out = append(out, a.Label)
		stack = append(stack, a.Work...)
	}
	return out
}
