package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFind(t *testing.T) {
	a := &Graph{Name: "a"}
	b := &Graph{Name: "b"}

	single := &Model{Graphs: []*Graph{a}}
	g, ok := single.Find("")
	require.True(t, ok)
	assert.Same(t, a, g)

	multi := &Model{Graphs: []*Graph{b, a}}
	_, ok = multi.Find("")
	assert.False(t, ok, "an empty name is ambiguous with several graphs")

	g, ok = multi.Find("b")
	require.True(t, ok)
	assert.Same(t, b, g)

	_, ok = multi.Find("c")
	assert.False(t, ok)
	assert.Equal(t, []string{"a", "b"}, multi.Names())

	var none *Model
	_, ok = none.Find("a")
	assert.False(t, ok)
}

func TestMerge(t *testing.T) {
	m1 := &Model{Graphs: []*Graph{{Name: "a", Source: "one.hcl"}}}
	m2 := &Model{Graphs: []*Graph{{Name: "b", Source: "two.yaml"}}}

	merged, err := Merge(m1, nil, m2)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, merged.Names())

	dup := &Model{Graphs: []*Graph{{Name: "a", Source: "three.yaml"}}}
	_, err = Merge(m1, dup)
	require.ErrorIs(t, err, ErrDuplicateGraph)
	assert.Contains(t, err.Error(), "one.hcl")
	assert.Contains(t, err.Error(), "three.yaml")
}
