package config

import (
	"errors"
	"fmt"
	"sort"
)

// ErrDuplicateGraph is returned by Merge when two sources define a graph
// with the same name.
var ErrDuplicateGraph = errors.New("duplicate graph definition")

// Model is the unified representation of every graph definition found in the
// loaded files.
type Model struct {
	Graphs []*Graph
}

// Graph is the format-agnostic representation of one named graph.
type Graph struct {
	Name        string
	Description string
	// Root is the label of the node traversal starts from.
	Root     string
	Leaves   []*Leaf
	Branches []*Branch
	// Source is the file the graph was read from.
	Source string
}

// Leaf declares a node without children.
type Leaf struct {
	Label string
	// Pos is a human-readable location such as "file.hcl:3,3".
	Pos string
}

// Branch declares a node with exactly two children, referenced by label.
type Branch struct {
	Label string
	Left  string
	Right string
	Pos   string
}

// Find returns the graph with the given name. An empty name selects the only
// graph of a single-graph model.
func (m *Model) Find(name string) (*Graph, bool) {
	if m == nil {
		return nil, false
	}
	if name == "" {
		if len(m.Graphs) == 1 {
			return m.Graphs[0], true
		}
		return nil, false
	}
	for _, g := range m.Graphs {
		if g.Name == name {
			return g, true
		}
	}
	return nil, false
}

// Names returns the sorted graph names.
func (m *Model) Names() []string {
	if m == nil {
		return nil
	}
	names := make([]string, 0, len(m.Graphs))
	for _, g := range m.Graphs {
		names = append(names, g.Name)
	}
	sort.Strings(names)
	return names
}

// Merge combines models loaded from different sources. Graph names must be
// unique across all of them.
func Merge(models ...*Model) (*Model, error) {
	out := &Model{}
	seen := map[string]*Graph{}
	for _, m := range models {
		if m == nil {
			continue
		}
		for _, g := range m.Graphs {
			if prev, ok := seen[g.Name]; ok {
				return nil, fmt.Errorf("%w: %q in %s and %s", ErrDuplicateGraph, g.Name, prev.Source, g.Source)
			}
			seen[g.Name] = g
			out.Graphs = append(out.Graphs, g)
		}
	}
	return out, nil
}
