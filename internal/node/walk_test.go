package node

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// diamond builds d = (b, c), b = (x, y), c = (y, z) with y shared.
func diamond() (*Branch, *Leaf) {
	y := NewLeaf("y")
	b := NewBranch("b", NewLeaf("x"), y)
	c := NewBranch("c", y, NewLeaf("z"))
	return NewBranch("d", b, c), y
}

func TestWalk(t *testing.T) {
	root, _ := diamond()

	var labels []string
	Walk(root, func(n Node) bool {
		labels = append(labels, n.Label())
		return true
	})
	assert.Equal(t, []string{"d", "b", "x", "y", "c", "z"}, labels, "shared nodes are visited once")

	t.Run("stops early", func(t *testing.T) {
		var seen int
		Walk(root, func(n Node) bool {
			seen++
			return seen < 2
		})
		assert.Equal(t, 2, seen)
	})

	t.Run("nil root", func(t *testing.T) {
		called := false
		Walk(nil, func(Node) bool { called = true; return true })
		assert.False(t, called)
	})
}

func TestCount(t *testing.T) {
	root, _ := diamond()
	assert.Equal(t, Stats{Leaves: 3, Branches: 3, Edges: 6}, Count(root))
	assert.Equal(t, Stats{Leaves: 1}, Count(NewLeaf("solo")))
}

func TestReset(t *testing.T) {
	root, _ := diamond()
	root.Arrive()
	root.Arrive()
	b := root.Left().(*Branch)
	b.Arrive()

	Reset(root)

	Walk(root, func(n Node) bool {
		if br, ok := n.(*Branch); ok {
			assert.Equal(t, UnExplored, br.Status(), br.Label())
			assert.Zero(t, br.Visits(), br.Label())
		}
		return true
	})
}
