package validators

import (
	"fmt"
	"strings"

	"github.com/flowmesh/flowmesh/internal/models"
	"github.com/go-playground/validator/v10"
)

// WorkflowValidator validates workflow definitions once at load time, so
// the engine can assume structural invariants hold during traversal.
type WorkflowValidator struct {
	validate *validator.Validate
}

// NewWorkflowValidator creates a new workflow validator
func NewWorkflowValidator() *WorkflowValidator {
	return &WorkflowValidator{
		validate: validator.New(),
	}
}

// Validate checks a complete workflow definition: basic fields, node id
// uniqueness, per-kind config shape, and connection endpoint existence.
func (v *WorkflowValidator) Validate(workflow *models.Workflow) error {
	var errs []string

	if workflow.ID == "" {
		errs = append(errs, "workflow id is required")
	}

	if workflow.Name == "" {
		errs = append(errs, "workflow name is required")
	}

	if len(workflow.Nodes) == 0 {
		errs = append(errs, "workflow must have at least one node")
	}

	nodeIDs := make(map[string]bool, len(workflow.Nodes))
	for i := range workflow.Nodes {
		node := &workflow.Nodes[i]

		if node.ID == "" {
			errs = append(errs, fmt.Sprintf("node %d has no id", i))
			continue
		}

		if nodeIDs[node.ID] {
			errs = append(errs, fmt.Sprintf("duplicate node id: %s", node.ID))
			continue
		}
		nodeIDs[node.ID] = true

		if err := v.validateNode(node); err != nil {
			errs = append(errs, err.Error())
		}
	}

	for _, conn := range workflow.Connections {
		if !nodeIDs[conn.FromNode] {
			errs = append(errs, fmt.Sprintf("connection references unknown node: %s", conn.FromNode))
		}
		if !nodeIDs[conn.ToNode] {
			errs = append(errs, fmt.Sprintf("connection references unknown node: %s", conn.ToNode))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("workflow validation failed: %s", strings.Join(errs, "; "))
	}

	return nil
}

// validateNode decodes the node's config into its kind's typed struct and
// runs the struct tags through the validator.
func (v *WorkflowValidator) validateNode(node *models.Node) error {
	var cfg interface{}

	switch node.Kind {
	case models.NodeKindTrigger:
		cfg = &models.TriggerConfig{}
	case models.NodeKindAction:
		cfg = &models.ActionConfig{}
	case models.NodeKindCondition:
		cfg = &models.ConditionConfig{}
	case models.NodeKindDelay:
		cfg = &models.DelayConfig{}
	case models.NodeKindAI:
		cfg = &models.AIConfig{}
	default:
		return fmt.Errorf("node %s has invalid kind: %s", node.ID, node.Kind)
	}

	if err := node.DecodeConfig(cfg); err != nil {
		return fmt.Errorf("node %s: %v", node.ID, err)
	}

	if err := v.validate.Struct(cfg); err != nil {
		return fmt.Errorf("node %s config invalid: %v", node.ID, err)
	}

	if node.Kind == models.NodeKindAction && node.Integration != "" {
		var action models.ActionConfig
		if err := node.DecodeConfig(&action); err == nil && action.ActionID == "" {
			return fmt.Errorf("node %s: action_id is required when an integration is set", node.ID)
		}
	}

	return nil
}
