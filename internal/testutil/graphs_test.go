package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vk/dagwalk/internal/node"
)

func TestExpectedCounts_E2E(t *testing.T) {
	assert.Equal(t, E2ECounts, ExpectedCounts(E2E()))
}

func TestLadder(t *testing.T) {
	root := Ladder(3)
	assert.Equal(t, map[string]int{"r0": 1, "r1": 2, "r2": 2, "bottom": 2}, ExpectedCounts(root))
	assert.Equal(t, node.Stats{Leaves: 1, Branches: 3, Edges: 6}, node.Count(root))
}

func TestChain(t *testing.T) {
	root := Chain(4)
	st := node.Count(root)
	assert.Equal(t, 4, st.Branches)
	assert.Equal(t, 5, st.Leaves)
}

func TestRandomDAG_Deterministic(t *testing.T) {
	a := ExpectedCounts(RandomDAG(7, 5, 40))
	b := ExpectedCounts(RandomDAG(7, 5, 40))
	assert.Equal(t, a, b, "same seed builds the same shape")
	assert.Equal(t, 1, a["B39"], "the root is reached once")
}
