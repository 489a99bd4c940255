package loader

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/specialistvlad/defigrid/internal/ctxlog"
	"github.com/specialistvlad/defigrid/internal/model"
	"github.com/zclconf/go-cty/cty"
)

// fileRoot is a struct used to decode all possible top-level blocks from any file.
type fileRoot struct {
	Workflows []*workflowBlock `hcl:"workflow,block"`
	Remain    hcl.Body         `hcl:",remain"`
}

type workflowBlock struct {
	ID          string         `hcl:"id,label"`
	Name        string         `hcl:"name,optional"`
	Description string         `hcl:"description,optional"`
	Variables   hcl.Expression `hcl:"variables,optional"`
	Nodes       []*nodeBlock   `hcl:"node,block"`
}

type nodeBlock struct {
	Type         string         `hcl:"type,label"`
	ID           string         `hcl:"id,label"`
	Name         string         `hcl:"name,optional"`
	Inputs       hcl.Expression `hcl:"inputs,optional"`
	Dependencies []string       `hcl:"dependencies,optional"`
}

// ParseHCL decodes every workflow block in src. filename is used in
// diagnostics only.
func ParseHCL(ctx context.Context, src []byte, filename string) ([]*model.WorkflowDefinition, error) {
	logger := ctxlog.FromContext(ctx)
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", filename, diags)
	}

	var root fileRoot
	if diags := gohcl.DecodeBody(file.Body, nil, &root); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL file %s: %w", filename, diags)
	}

	defs := make([]*model.WorkflowDefinition, 0, len(root.Workflows))
	for _, wb := range root.Workflows {
		def, err := translateWorkflow(wb)
		if err != nil {
			return nil, fmt.Errorf("%s: workflow %q: %w", filename, wb.ID, err)
		}
		def.FSInformation = model.NewFSInfo(filename)
		defs = append(defs, def)
		logger.Debug("Decoded workflow block.", "file", filename, "workflow_id", def.ID, "nodes", len(def.Nodes))
	}
	return defs, nil
}

func translateWorkflow(wb *workflowBlock) (*model.WorkflowDefinition, error) {
	vars, err := evalObject(wb.Variables)
	if err != nil {
		return nil, fmt.Errorf("variables: %w", err)
	}
	def := &model.WorkflowDefinition{
		ID:          wb.ID,
		Name:        wb.Name,
		Description: wb.Description,
		Variables:   vars,
		Nodes:       make([]model.NodeDeclaration, 0, len(wb.Nodes)),
	}
	for _, nb := range wb.Nodes {
		inputs, err := evalObject(nb.Inputs)
		if err != nil {
			return nil, fmt.Errorf("node %q inputs: %w", nb.ID, err)
		}
		def.Nodes = append(def.Nodes, model.NodeDeclaration{
			ID:           nb.ID,
			Type:         nb.Type,
			Name:         nb.Name,
			Inputs:       inputs,
			Dependencies: nb.Dependencies,
		})
	}
	return def, nil
}

// evalObject evaluates a static object expression into a Go map. A missing
// attribute yields nil.
func evalObject(expr hcl.Expression) (map[string]any, error) {
	if expr == nil {
		return nil, nil
	}
	val, diags := expr.Value(nil)
	if diags.HasErrors() {
		return nil, diags
	}
	if val.IsNull() {
		return nil, nil
	}
	if !val.Type().IsObjectType() && !val.Type().IsMapType() {
		return nil, fmt.Errorf("expected an object, got %s", val.Type().FriendlyName())
	}
	out, err := ctyToGo(val)
	if err != nil {
		return nil, err
	}
	m, _ := out.(map[string]any)
	return m, nil
}

// ctyToGo converts a cty.Value to plain Go values: string, float64, bool,
// map[string]any and []any.
func ctyToGo(val cty.Value) (any, error) {
	if !val.IsKnown() || val.IsNull() {
		return nil, nil
	}
	ty := val.Type()
	switch {
	case ty == cty.String:
		return val.AsString(), nil
	case ty == cty.Number:
		f, _ := val.AsBigFloat().Float64()
		return f, nil
	case ty == cty.Bool:
		return val.True(), nil
	case ty.IsObjectType() || ty.IsMapType():
		out := make(map[string]any, val.LengthInt())
		for it := val.ElementIterator(); it.Next(); {
			k, v := it.Element()
			converted, err := ctyToGo(v)
			if err != nil {
				return nil, err
			}
			out[k.AsString()] = converted
		}
		return out, nil
	case ty.IsTupleType() || ty.IsListType() || ty.IsSetType():
		out := make([]any, 0, val.LengthInt())
		for it := val.ElementIterator(); it.Next(); {
			_, v := it.Element()
			converted, err := ctyToGo(v)
			if err != nil {
				return nil, err
			}
			out = append(out, converted)
		}
		return out, nil
	}
	return nil, fmt.Errorf("unsupported value type %s", ty.FriendlyName())
}
