package hcl

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

// newEvalContext exposes the declared labels as the leaf and branch objects.
// Each attribute evaluates to its own label.
func newEvalContext(leaves, branches []string) *hcl.EvalContext {
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"leaf":   labelObject(leaves),
			"branch": labelObject(branches),
		},
	}
}

func labelObject(labels []string) cty.Value {
	if len(labels) == 0 {
		return cty.EmptyObjectVal
	}
	attrs := make(map[string]cty.Value, len(labels))
	for _, l := range labels {
		attrs[l] = cty.StringVal(l)
	}
	return cty.ObjectVal(attrs)
}

// evalLabel evaluates a node reference and converts the result to a label.
func evalLabel(expr hcl.Expression, evalCtx *hcl.EvalContext, what string) (string, hcl.Diagnostics) {
	val, diags := expr.Value(evalCtx)
	if diags.HasErrors() {
		return "", diags
	}

	label, err := toLabel(val)
	if err != nil {
		return "", hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  fmt.Sprintf("Invalid %s reference", what),
			Detail:   err.Error(),
			Subject:  expr.Range().Ptr(),
		}}
	}
	if label == "" {
		return "", hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  fmt.Sprintf("Empty %s reference", what),
			Detail:   "A node label must not be empty.",
			Subject:  expr.Range().Ptr(),
		}}
	}
	return label, nil
}

// toLabel converts a cty value to a Go string. Numbers and bools are
// converted the way HCL converts them in string interpolation.
func toLabel(val cty.Value) (string, error) {
	if val.IsNull() {
		return "", fmt.Errorf("value is null")
	}
	if !val.IsWhollyKnown() {
		return "", fmt.Errorf("value is not known")
	}
	converted, err := convert.Convert(val, cty.String)
	if err != nil {
		return "", fmt.Errorf("cannot use %s as a node label: %w", val.Type().FriendlyName(), err)
	}
	var label string
	if err := gocty.FromCtyValue(converted, &label); err != nil {
		return "", err
	}
	return label, nil
}
