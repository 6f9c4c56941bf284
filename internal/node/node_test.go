package node

import (
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBranch(t *testing.T) {
	l, r := NewLeaf("l"), NewLeaf("r")
	b := NewBranch("b", l, r)

	assert.Equal(t, "b", b.Label())
	assert.Same(t, l, b.Left())
	assert.Same(t, r, b.Right())
	assert.Equal(t, UnExplored, b.Status())
	assert.Zero(t, b.Visits())

	assert.Panics(t, func() { NewBranch("bad", nil, r) })
	assert.Panics(t, func() { NewBranch("bad", l, nil) })
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "UnExplored", UnExplored.String())
	assert.Equal(t, "PartiallyExplored", PartiallyExplored.String())
	assert.Equal(t, "Explored", Explored.String())
	assert.Equal(t, "Status(7)", Status(7).String())
}

func TestArrive(t *testing.T) {
	l, r := NewLeaf("l"), NewLeaf("r")
	b := NewBranch("b", l, r)

	first := b.Arrive()
	assert.Equal(t, UnExplored, first.From)
	assert.Equal(t, PartiallyExplored, first.To)
	assert.Equal(t, 1, first.Visit)
	assert.True(t, first.Expanded())
	require.Len(t, first.Work, 2)
	assert.Same(t, r, first.Work[0], "right child is pushed first")
	assert.Same(t, l, first.Work[1], "left child is pushed last so it is withdrawn first")

	second := b.Arrive()
	assert.Equal(t, PartiallyExplored, second.From)
	assert.Equal(t, Explored, second.To)
	assert.Equal(t, 2, second.Visit)
	assert.False(t, second.Expanded())
	assert.Empty(t, second.Work)

	for i := 3; i < 6; i++ {
		tr := b.Arrive()
		assert.Equal(t, Explored, tr.From)
		assert.Equal(t, Explored, tr.To)
		assert.Equal(t, i, tr.Visit)
		assert.Empty(t, tr.Work)
	}
	assert.Equal(t, Explored, b.Status())
}

func TestVisit(t *testing.T) {
	t.Run("leaf has no state and no work", func(t *testing.T) {
		leaf := NewLeaf("x")
		for i := 0; i < 3; i++ {
			a := Visit(leaf)
			assert.Equal(t, "x", a.Label)
			assert.True(t, a.Leaf)
			assert.Empty(t, a.Work)
			assert.Zero(t, a.Visit)
			assert.False(t, a.Expanded())
		}
	})

	t.Run("branch delegates to Arrive", func(t *testing.T) {
		b := NewBranch("b", NewLeaf("l"), NewLeaf("r"))
		a := Visit(b)
		assert.Equal(t, "b", a.Label)
		assert.False(t, a.Leaf)
		assert.Equal(t, UnExplored, a.From)
		assert.Len(t, a.Work, 2)
	})
}

func TestArrive_Concurrent(t *testing.T) {
	const arrivals = 64
	b := NewBranch("shared", NewLeaf("l"), NewLeaf("r"))

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results []Transition
	)
	start := make(chan struct{})
	for i := 0; i < arrivals; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			tr := b.Arrive()
			mu.Lock()
			results = append(results, tr)
			mu.Unlock()
		}()
	}
	close(start)
	wg.Wait()

	require.Len(t, results, arrivals)
	sort.Slice(results, func(i, j int) bool { return results[i].Visit < results[j].Visit })

	expansions := 0
	for i, tr := range results {
		assert.Equal(t, i+1, tr.Visit, "visit indices are unique and dense")
		assert.LessOrEqual(t, tr.From, tr.To, "status never regresses")
		if tr.Expanded() {
			expansions++
		}
		switch i {
		case 0:
			assert.Equal(t, UnExplored, tr.From)
		case 1:
			assert.Equal(t, PartiallyExplored, tr.From)
		default:
			assert.Equal(t, Explored, tr.From)
		}
	}
	assert.Equal(t, 1, expansions, "children are produced exactly once")
	assert.Equal(t, arrivals, b.Visits())
}
