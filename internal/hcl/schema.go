package hcl

import "github.com/hashicorp/hcl/v2"

var fileSchema = &hcl.BodySchema{
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "graph", LabelNames: []string{"name"}},
	},
}

var graphSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "root", Required: true},
		{Name: "description"},
	},
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "leaf", LabelNames: []string{"label"}},
		{Type: "branch", LabelNames: []string{"label"}},
	},
}

var leafSchema = &hcl.BodySchema{}

var branchSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "left", Required: true},
		{Name: "right", Required: true},
	},
}
