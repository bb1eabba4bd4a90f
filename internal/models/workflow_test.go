package models

import (
	"testing"
)

func TestDecodeConfig(t *testing.T) {
	node := Node{
		ID:   "check",
		Kind: NodeKindCondition,
		Config: JSONB{
			"field":    "lead.score",
			"operator": "greater_than",
			"value":    80.0,
		},
	}

	var cfg ConditionConfig
	if err := node.DecodeConfig(&cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Field != "lead.score" || cfg.Operator != "greater_than" {
		t.Errorf("unexpected decode result: %+v", cfg)
	}
	if cfg.Value != 80.0 {
		t.Errorf("expected value 80.0, got %v", cfg.Value)
	}
}

func TestDecodeConfigNilConfig(t *testing.T) {
	node := Node{ID: "t1", Kind: NodeKindTrigger}

	var cfg TriggerConfig
	if err := node.DecodeConfig(&cfg); err != nil {
		t.Fatalf("nil config must decode to zero value, got %v", err)
	}
	if cfg.Event != "" {
		t.Errorf("expected zero value, got %+v", cfg)
	}
}

func TestDecodeConfigTypeMismatch(t *testing.T) {
	node := Node{
		ID:     "a1",
		Kind:   NodeKindAction,
		Config: JSONB{"action_id": 42},
	}

	var cfg ActionConfig
	if err := node.DecodeConfig(&cfg); err == nil {
		t.Fatal("expected error for mismatched config types")
	}
}

func TestWorkflowHelpers(t *testing.T) {
	w := &Workflow{
		Nodes: []Node{
			{ID: "t1", Kind: NodeKindTrigger},
			{ID: "a1", Kind: NodeKindAction},
			{ID: "t2", Kind: NodeKindTrigger},
		},
		Connections: []Connection{
			{FromNode: "t1", ToNode: "a1"},
			{FromNode: "t2", ToNode: "a1"},
			{FromNode: "a1", ToNode: "t2"},
		},
	}

	if n := w.NodeByID("a1"); n == nil || n.Kind != NodeKindAction {
		t.Errorf("NodeByID(a1) = %v", n)
	}
	if n := w.NodeByID("ghost"); n != nil {
		t.Errorf("expected nil for unknown id, got %v", n)
	}

	triggers := w.TriggerNodes()
	if len(triggers) != 2 || triggers[0].ID != "t1" || triggers[1].ID != "t2" {
		t.Errorf("TriggerNodes must preserve declaration order, got %v", triggers)
	}

	conns := w.ConnectionsFrom("a1")
	if len(conns) != 1 || conns[0].ToNode != "t2" {
		t.Errorf("ConnectionsFrom(a1) = %v", conns)
	}
	if conns := w.ConnectionsFrom("ghost"); len(conns) != 0 {
		t.Errorf("expected no connections for unknown node, got %v", conns)
	}
}
