package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// NodeKind discriminates which executor handles a node.
type NodeKind string

const (
	NodeKindTrigger   NodeKind = "trigger"
	NodeKindAction    NodeKind = "action"
	NodeKindCondition NodeKind = "condition"
	NodeKindDelay     NodeKind = "delay"
	NodeKindAI        NodeKind = "ai"
)

// WorkflowStatus represents the lifecycle state of a workflow definition
type WorkflowStatus string

const (
	WorkflowStatusDraft    WorkflowStatus = "draft"
	WorkflowStatusActive   WorkflowStatus = "active"
	WorkflowStatusPaused   WorkflowStatus = "paused"
	WorkflowStatusDisabled WorkflowStatus = "disabled"
)

// Workflow represents a workflow definition: a directed graph of nodes and
// connections. A running execution reads a snapshot; the engine never
// mutates the definition.
type Workflow struct {
	ID          string         `json:"id"`
	UserID      string         `json:"user_id"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Nodes       []Node         `json:"nodes"`
	Connections []Connection   `json:"connections"`
	Status      WorkflowStatus `json:"status"`
	RunCount    int64          `json:"run_count"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// Node is a single vertex in the workflow graph. Config is the raw
// free-form mapping from the stored definition; the typed per-kind config
// structs below are decoded from it at load time.
type Node struct {
	ID          string   `json:"id"`
	Kind        NodeKind `json:"kind"`
	Integration string   `json:"integration,omitempty"`
	Config      JSONB    `json:"config,omitempty"`
	Position    Position `json:"position,omitempty"`
}

// Position is the node's placement in the visual editor. The engine
// ignores it.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Connection is a directed edge between two nodes. An optional predicate
// gates traversal out of condition nodes.
type Connection struct {
	FromNode  string     `json:"from_node"`
	ToNode    string     `json:"to_node"`
	Condition *Predicate `json:"condition,omitempty"`
}

// Predicate is a single (field, operator, value) test evaluated against
// the execution context.
type Predicate struct {
	Field    string      `json:"field"`
	Operator string      `json:"operator"` // equals, contains, greater_than, less_than
	Value    interface{} `json:"value"`
}

// TriggerConfig configures a trigger node.
type TriggerConfig struct {
	Event string `json:"event,omitempty"`
}

// ActionConfig configures an action node.
type ActionConfig struct {
	ActionID string                 `json:"action_id"`
	Params   map[string]interface{} `json:"params,omitempty"`
}

// ConditionConfig configures a condition node.
type ConditionConfig struct {
	Field    string      `json:"field" validate:"required"`
	Operator string      `json:"operator" validate:"required,oneof=equals contains greater_than less_than"`
	Value    interface{} `json:"value"`
}

// DelayConfig configures a delay node.
type DelayConfig struct {
	DelaySeconds float64 `json:"delay_seconds" validate:"gte=0"`
}

// AIConfig configures an ai node.
type AIConfig struct {
	Prompt      string  `json:"prompt" validate:"required"`
	Model       string  `json:"model,omitempty"`
	TaskType    string  `json:"task_type,omitempty"`
	Temperature float64 `json:"temperature,omitempty" validate:"gte=0,lte=2"`
	MaxTokens   int     `json:"max_tokens,omitempty" validate:"gte=0"`
}

// DecodeConfig decodes the node's raw config mapping into the typed
// config struct for its kind. The caller passes a pointer to the
// appropriate struct.
func (n *Node) DecodeConfig(out interface{}) error {
	raw := n.Config
	if raw == nil {
		raw = JSONB{}
	}

	bytes, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("failed to marshal node config: %w", err)
	}

	if err := json.Unmarshal(bytes, out); err != nil {
		return fmt.Errorf("failed to decode config for node %s: %w", n.ID, err)
	}

	return nil
}

// NodeByID returns the node with the given id, or nil if absent.
func (w *Workflow) NodeByID(id string) *Node {
	for i := range w.Nodes {
		if w.Nodes[i].ID == id {
			return &w.Nodes[i]
		}
	}
	return nil
}

// TriggerNodes returns all trigger-kind nodes in declaration order.
func (w *Workflow) TriggerNodes() []Node {
	var triggers []Node
	for _, node := range w.Nodes {
		if node.Kind == NodeKindTrigger {
			triggers = append(triggers, node)
		}
	}
	return triggers
}

// ConnectionsFrom returns all connections leaving the given node, in
// declaration order.
func (w *Workflow) ConnectionsFrom(nodeID string) []Connection {
	var out []Connection
	for _, conn := range w.Connections {
		if conn.FromNode == nodeID {
			out = append(out, conn)
		}
	}
	return out
}
