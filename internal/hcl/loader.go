package hcl

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/vk/dagwalk/internal/config"
	"github.com/vk/dagwalk/internal/ctxlog"
)

// Loader is the HCL implementation of config.Loader.
type Loader struct{}

var _ config.Loader = (*Loader)(nil)

// NewLoader creates a new HCL loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load parses every file and returns the graphs they define.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)
	parser := hclparse.NewParser()

	model := &config.Model{}
	for _, path := range paths {
		logger.Debug("Parsing HCL definition file.", "path", path)
		file, diags := parser.ParseHCLFile(path)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file %s: %w", path, diags)
		}
		graphs, diags := decodeFile(file.Body, path)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode HCL file %s: %w", path, diags)
		}
		model.Graphs = append(model.Graphs, graphs...)
	}

	logger.Debug("Loaded HCL definitions.", "files", len(paths), "graphs", len(model.Graphs))
	return model, nil
}

// Parse decodes definitions from an in-memory source. filename is only used
// in diagnostics.
func (l *Loader) Parse(src []byte, filename string) (*config.Model, error) {
	file, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL source %s: %w", filename, diags)
	}
	graphs, diags := decodeFile(file.Body, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL source %s: %w", filename, diags)
	}
	return &config.Model{Graphs: graphs}, nil
}

func decodeFile(body hcl.Body, source string) ([]*config.Graph, hcl.Diagnostics) {
	content, diags := body.Content(fileSchema)
	if diags.HasErrors() {
		return nil, diags
	}

	var graphs []*config.Graph
	for _, block := range content.Blocks {
		g, gDiags := decodeGraph(block, source)
		diags = append(diags, gDiags...)
		if g != nil {
			graphs = append(graphs, g)
		}
	}
	return graphs, diags
}

func decodeGraph(block *hcl.Block, source string) (*config.Graph, hcl.Diagnostics) {
	content, diags := block.Body.Content(graphSchema)
	if diags.HasErrors() {
		return nil, diags
	}

	g := &config.Graph{Name: block.Labels[0], Source: source}

	// Labels first, so references can be resolved regardless of the order in
	// which blocks are declared.
	var leafLabels, branchLabels []string
	var branchBlocks []*hcl.Block
	for _, b := range content.Blocks {
		switch b.Type {
		case "leaf":
			_, lDiags := b.Body.Content(leafSchema)
			diags = append(diags, lDiags...)
			leafLabels = append(leafLabels, b.Labels[0])
			g.Leaves = append(g.Leaves, &config.Leaf{Label: b.Labels[0], Pos: pos(b.DefRange)})
		case "branch":
			branchLabels = append(branchLabels, b.Labels[0])
			branchBlocks = append(branchBlocks, b)
		}
	}
	evalCtx := newEvalContext(leafLabels, branchLabels)

	for _, b := range branchBlocks {
		bc, bDiags := b.Body.Content(branchSchema)
		diags = append(diags, bDiags...)
		if bDiags.HasErrors() {
			continue
		}
		left, lDiags := evalLabel(bc.Attributes["left"].Expr, evalCtx, "left child")
		right, rDiags := evalLabel(bc.Attributes["right"].Expr, evalCtx, "right child")
		diags = append(diags, lDiags...)
		diags = append(diags, rDiags...)
		g.Branches = append(g.Branches, &config.Branch{
			Label: b.Labels[0],
			Left:  left,
			Right: right,
			Pos:   pos(b.DefRange),
		})
	}

	root, rDiags := evalLabel(content.Attributes["root"].Expr, evalCtx, "root")
	diags = append(diags, rDiags...)
	g.Root = root

	if attr, ok := content.Attributes["description"]; ok {
		diags = append(diags, gohcl.DecodeExpression(attr.Expr, nil, &g.Description)...)
	}

	if diags.HasErrors() {
		return nil, diags
	}
	return g, diags
}

func pos(r hcl.Range) string {
	return fmt.Sprintf("%s:%d,%d", r.Filename, r.Start.Line, r.Start.Column)
}
