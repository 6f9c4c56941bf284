package builder

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/vk/dagwalk/internal/config"
	"github.com/vk/dagwalk/internal/ctxlog"
	"github.com/vk/dagwalk/internal/node"
)

var (
	// ErrDuplicateLabel is returned when a label is declared more than once.
	ErrDuplicateLabel = errors.New("duplicate node label")
	// ErrUnknownLabel is returned when a reference names no declared node.
	ErrUnknownLabel = errors.New("unknown node label")
	// ErrCycle is returned when the definition is not acyclic.
	ErrCycle = errors.New("cycle detected")
	// ErrNoRoot is returned when the definition has no root.
	ErrNoRoot = errors.New("graph has no root")
	// ErrGraphNotFound is returned by BuildNamed for an unknown graph name.
	ErrGraphNotFound = errors.New("graph not found")
)

// Graph is a built, ready-to-traverse graph.
type Graph struct {
	Name string
	Root node.Node
	// Nodes maps every declared label to its node, reachable or not.
	Nodes map[string]node.Node
	// Stats describes the part of the graph reachable from Root.
	Stats node.Stats
	// Unreachable lists declared labels that cannot be reached from Root.
	Unreachable []string
}

// decl is one declaration, kept with its position for error messages.
type decl struct {
	label  string
	pos    string
	branch *config.Branch // nil for leaves
}

// BuildNamed builds the graph called name from the model. An empty name
// selects the only graph of a single-graph model.
func BuildNamed(ctx context.Context, model *config.Model, name string) (*Graph, error) {
	def, ok := model.Find(name)
	if !ok {
		if name == "" {
			return nil, fmt.Errorf("%w: a graph name is required when %d graphs are defined (%v)",
				ErrGraphNotFound, len(model.Names()), model.Names())
		}
		return nil, fmt.Errorf("%w: %q (available: %v)", ErrGraphNotFound, name, model.Names())
	}
	return Build(ctx, def)
}

// Build constructs and validates the graph described by def.
func Build(ctx context.Context, def *config.Graph) (*Graph, error) {
	logger := ctxlog.FromContext(ctx).With("graph", def.Name)
	logger.Debug("Build: Starting graph construction.")

	if def.Root == "" {
		return nil, fmt.Errorf("graph %q: %w", def.Name, ErrNoRoot)
	}

	decls, err := index(def)
	if err != nil {
		return nil, fmt.Errorf("graph %q: %w", def.Name, err)
	}
	logger.Debug("Build: Declarations indexed.", "declarations", len(decls))

	if err := validateRefs(def, decls); err != nil {
		return nil, fmt.Errorf("graph %q: %w", def.Name, err)
	}

	order, err := detectCycles(decls)
	if err != nil {
		return nil, fmt.Errorf("graph %q: %w", def.Name, err)
	}
	logger.Debug("Build: Cycle detection passed.")

	nodes := make(map[string]node.Node, len(decls))
	for _, label := range order {
		d := decls[label]
		if d.branch == nil {
			nodes[label] = node.NewLeaf(label)
			continue
		}
		nodes[label] = node.NewBranch(label, nodes[d.branch.Left], nodes[d.branch.Right])
	}

	g := &Graph{
		Name:  def.Name,
		Root:  nodes[def.Root],
		Nodes: nodes,
		Stats: node.Count(nodes[def.Root]),
	}

	reachable := make(map[node.Node]struct{}, len(nodes))
	node.Walk(g.Root, func(n node.Node) bool {
		reachable[n] = struct{}{}
		return true
	})
	for label, n := range nodes {
		if _, ok := reachable[n]; !ok {
			g.Unreachable = append(g.Unreachable, label)
		}
	}
	sort.Strings(g.Unreachable)
	if len(g.Unreachable) > 0 {
		logger.Warn("Build: Some nodes are not reachable from the root.", "root", def.Root, "labels", g.Unreachable)
	}

	logger.Info("Build: Graph construction successful.",
		"root", def.Root,
		"branches", g.Stats.Branches,
		"leaves", g.Stats.Leaves,
	)
	return g, nil
}

func index(def *config.Graph) (map[string]*decl, error) {
	decls := make(map[string]*decl, len(def.Leaves)+len(def.Branches))
	add := func(d *decl) error {
		if d.label == "" {
			return fmt.Errorf("%w: empty label at %s", ErrUnknownLabel, d.pos)
		}
		if prev, ok := decls[d.label]; ok {
			return fmt.Errorf("%w: %q declared at %s and %s", ErrDuplicateLabel, d.label, prev.pos, d.pos)
		}
		decls[d.label] = d
		return nil
	}
	for _, l := range def.Leaves {
		if err := add(&decl{label: l.Label, pos: l.Pos}); err != nil {
			return nil, err
		}
	}
	for _, b := range def.Branches {
		if err := add(&decl{label: b.Label, pos: b.Pos, branch: b}); err != nil {
			return nil, err
		}
	}
	return decls, nil
}

func validateRefs(def *config.Graph, decls map[string]*decl) error {
	if _, ok := decls[def.Root]; !ok {
		return fmt.Errorf("%w: root %q", ErrUnknownLabel, def.Root)
	}
	for _, b := range def.Branches {
		for _, child := range []string{b.Left, b.Right} {
			if _, ok := decls[child]; !ok {
				return fmt.Errorf("%w: %q referenced by branch %q at %s", ErrUnknownLabel, child, b.Label, b.Pos)
			}
		}
	}
	return nil
}

// detectCycles runs a depth-first search with three sets of labels:
// permanent (fully visited, not part of a cycle), temporary (on the current
// search path) and unvisited. It returns the labels in finishing order. The
// search keeps its own stack, so long chains do not grow the goroutine stack.
func detectCycles(decls map[string]*decl) ([]string, error) {
	const (
		unvisited = iota
		temporary
		permanent
	)
	type frame struct {
		label string
		next  int // index of the next child to visit
	}

	labels := make([]string, 0, len(decls))
	for label := range decls {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	state := make(map[string]int, len(decls))
	order := make([]string, 0, len(decls))

	children := func(label string) []string {
		if b := decls[label].branch; b != nil {
			return []string{b.Left, b.Right}
		}
		return nil
	}

	for _, start := range labels {
		if state[start] != unvisited {
			continue
		}
		state[start] = temporary
		stack := []frame{{label: start}}
		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			kids := children(top.label)
			if top.next < len(kids) {
				child := kids[top.next]
				top.next++
				switch state[child] {
				case temporary:
					return nil, fmt.Errorf("%w involving node %q", ErrCycle, child)
				case unvisited:
					state[child] = temporary
					stack = append(stack, frame{label: child})
				}
				continue
			}
			state[top.label] = permanent
			order = append(order, top.label)
			stack = stack[:len(stack)-1]
		}
	}
	return order, nil
}
