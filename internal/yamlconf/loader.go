package yamlconf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/vk/dagwalk/internal/config"
	"github.com/vk/dagwalk/internal/ctxlog"
)

// Loader is the YAML implementation of config.Loader.
type Loader struct{}

var _ config.Loader = (*Loader)(nil)

// NewLoader creates a new YAML loader.
func NewLoader() *Loader {
	return &Loader{}
}

type fileDoc struct {
	Graphs []graphDoc `yaml:"graphs"`
}

type graphDoc struct {
	Name        string      `yaml:"name"`
	Description string      `yaml:"description"`
	Root        label       `yaml:"root"`
	Leaves      []label     `yaml:"leaves"`
	Branches    []branchDoc `yaml:"branches"`
}

type branchDoc struct {
	Label label `yaml:"label"`
	Left  label `yaml:"left"`
	Right label `yaml:"right"`
}

// label is a scalar node label together with its position.
type label struct {
	value  string
	line   int
	column int
}

// UnmarshalYAML accepts any scalar as a label. Null values never reach it
// and leave the label empty.
func (l *label) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: a node label must be a scalar", value.Line)
	}
	l.value = value.Value
	l.line = value.Line
	l.column = value.Column
	return nil
}

// Load reads every file and returns the graphs they define.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)

	model := &config.Model{}
	for _, path := range paths {
		logger.Debug("Parsing YAML definition file.", "path", path)
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read YAML file %s: %w", path, err)
		}
		m, err := l.Parse(data, path)
		if err != nil {
			return nil, err
		}
		model.Graphs = append(model.Graphs, m.Graphs...)
	}

	logger.Debug("Loaded YAML definitions.", "files", len(paths), "graphs", len(model.Graphs))
	return model, nil
}

// Parse decodes definitions from an in-memory source. filename is only used
// in error messages and positions.
func (l *Loader) Parse(src []byte, filename string) (*config.Model, error) {
	dec := yaml.NewDecoder(bytes.NewReader(src))
	dec.KnownFields(true)

	var doc fileDoc
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to decode YAML file %s: %w", filename, err)
	}

	model := &config.Model{}
	for i, gd := range doc.Graphs {
		g, err := translateGraph(i, gd, filename)
		if err != nil {
			return nil, fmt.Errorf("invalid graph in %s: %w", filename, err)
		}
		model.Graphs = append(model.Graphs, g)
	}
	return model, nil
}

func translateGraph(index int, gd graphDoc, filename string) (*config.Graph, error) {
	if gd.Name == "" {
		return nil, fmt.Errorf("graph #%d: name is required", index)
	}
	if gd.Root.value == "" {
		return nil, fmt.Errorf("graph %q: root is required", gd.Name)
	}

	g := &config.Graph{
		Name:        gd.Name,
		Description: gd.Description,
		Root:        gd.Root.value,
		Source:      filename,
	}
	for _, lf := range gd.Leaves {
		g.Leaves = append(g.Leaves, &config.Leaf{Label: lf.value, Pos: pos(filename, lf)})
	}
	for _, bd := range gd.Branches {
		if bd.Label.value == "" || bd.Left.value == "" || bd.Right.value == "" {
			return nil, fmt.Errorf("graph %q: branch at line %d needs label, left and right", gd.Name, bd.Label.line)
		}
		g.Branches = append(g.Branches, &config.Branch{
			Label: bd.Label.value,
			Left:  bd.Left.value,
			Right: bd.Right.value,
			Pos:   pos(filename, bd.Label),
		})
	}
	return g, nil
}

func pos(filename string, l label) string {
	return fmt.Sprintf("%s:%d,%d", filename, l.line, l.column)
}
