package builder

import (
	"context"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/dagwalk/internal/config"
	"github.com/vk/dagwalk/internal/executor"
	"github.com/vk/dagwalk/internal/node"
	"github.com/vk/dagwalk/internal/testutil"
)

func leaves(labels ...string) []*config.Leaf {
	out := make([]*config.Leaf, len(labels))
	for i, l := range labels {
		out[i] = &config.Leaf{Label: l, Pos: "test:" + strconv.Itoa(i)}
	}
	return out
}

func br(label, left, right string) *config.Branch {
	return &config.Branch{Label: label, Left: left, Right: right, Pos: "test:" + label}
}

func e2eDef() *config.Graph {
	return &config.Graph{
		Name:   "e2e",
		Root:   "0",
		Leaves: leaves("2", "4", "5", "8"),
		Branches: []*config.Branch{
			br("0", "1", "6"),
			br("1", "2", "3"),
			br("3", "4", "5"),
			br("6", "3", "7"),
			br("7", "5", "8"),
		},
	}
}

func TestBuild_E2E(t *testing.T) {
	g, err := Build(context.Background(), e2eDef())
	require.NoError(t, err)

	assert.Equal(t, "e2e", g.Name)
	assert.Equal(t, node.Stats{Leaves: 4, Branches: 5, Edges: 10}, g.Stats)
	assert.Empty(t, g.Unreachable)
	testutil.RequireTrace(t, testutil.E2ESequential, executor.Sequential(g.Root))
}

func TestBuild_SharesNodes(t *testing.T) {
	g, err := Build(context.Background(), e2eDef())
	require.NoError(t, err)

	one := g.Nodes["1"].(*node.Branch)
	six := g.Nodes["6"].(*node.Branch)
	assert.Same(t, one.Right(), six.Left(), "branch 3 is one node with two parents")
}

func TestBuild_Unreachable(t *testing.T) {
	def := &config.Graph{
		Name:     "g",
		Root:     "a",
		Leaves:   leaves("x", "orphan"),
		Branches: []*config.Branch{br("a", "x", "x"), br("lonely", "x", "orphan")},
	}
	g, err := Build(context.Background(), def)
	require.NoError(t, err)
	assert.Equal(t, []string{"lonely", "orphan"}, g.Unreachable)
	assert.Len(t, g.Nodes, 4)
}

func TestBuild_Errors(t *testing.T) {
	cases := map[string]struct {
		def  *config.Graph
		want error
	}{
		"no root": {
			def:  &config.Graph{Name: "g", Leaves: leaves("x")},
			want: ErrNoRoot,
		},
		"unknown root": {
			def:  &config.Graph{Name: "g", Root: "nope", Leaves: leaves("x")},
			want: ErrUnknownLabel,
		},
		"unknown child": {
			def:  &config.Graph{Name: "g", Root: "b", Leaves: leaves("x"), Branches: []*config.Branch{br("b", "x", "y")}},
			want: ErrUnknownLabel,
		},
		"duplicate leaf": {
			def:  &config.Graph{Name: "g", Root: "x", Leaves: leaves("x", "x")},
			want: ErrDuplicateLabel,
		},
		"leaf and branch share a label": {
			def:  &config.Graph{Name: "g", Root: "x", Leaves: leaves("x"), Branches: []*config.Branch{br("x", "x", "x")}},
			want: ErrDuplicateLabel,
		},
		"self reference": {
			def:  &config.Graph{Name: "g", Root: "b", Leaves: leaves("x"), Branches: []*config.Branch{br("b", "b", "x")}},
			want: ErrCycle,
		},
		"longer cycle": {
			def: &config.Graph{
				Name:   "g",
				Root:   "a",
				Leaves: leaves("x"),
				Branches: []*config.Branch{
					br("a", "x", "b"),
					br("b", "c", "x"),
					br("c", "x", "a"),
				},
			},
			want: ErrCycle,
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Build(context.Background(), tc.def)
			require.ErrorIs(t, err, tc.want)
			assert.Contains(t, err.Error(), `graph "g"`)
		})
	}
}

func TestBuild_DeepChain(t *testing.T) {
	const depth = 50_000
	def := &config.Graph{Name: "chain", Root: "b0", Leaves: leaves("end")}
	for i := 0; i < depth; i++ {
		left := "b" + strconv.Itoa(i+1)
		if i == depth-1 {
			left = "end"
		}
		def.Branches = append(def.Branches, br("b"+strconv.Itoa(i), left, "end"))
	}

	g, err := Build(context.Background(), def)
	require.NoError(t, err)
	assert.Equal(t, depth, g.Stats.Branches)
	assert.Len(t, executor.Sequential(g.Root), 2*depth+1)
}

func TestBuildNamed(t *testing.T) {
	single := &config.Model{Graphs: []*config.Graph{e2eDef()}}
	g, err := BuildNamed(context.Background(), single, "")
	require.NoError(t, err)
	assert.Equal(t, "e2e", g.Name)

	other := &config.Graph{Name: "other", Root: "x", Leaves: leaves("x")}
	multi := &config.Model{Graphs: []*config.Graph{e2eDef(), other}}

	_, err = BuildNamed(context.Background(), multi, "")
	assert.ErrorIs(t, err, ErrGraphNotFound)

	_, err = BuildNamed(context.Background(), multi, "missing")
	require.ErrorIs(t, err, ErrGraphNotFound)
	assert.Contains(t, err.Error(), "[e2e other]")

	g, err = BuildNamed(context.Background(), multi, "other")
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, executor.Sequential(g.Root))
}
