package validators

import (
	"strings"
	"testing"

	"github.com/flowmesh/flowmesh/internal/models"
)

func validWorkflow() *models.Workflow {
	return &models.Workflow{
		ID:   "wf-1",
		Name: "lead scoring",
		Nodes: []models.Node{
			{ID: "start", Kind: models.NodeKindTrigger, Config: models.JSONB{"event": "lead.created"}},
			{
				ID:   "check",
				Kind: models.NodeKindCondition,
				Config: models.JSONB{
					"field":    "lead.score",
					"operator": "greater_than",
					"value":    80.0,
				},
			},
			{
				ID:          "notify",
				Kind:        models.NodeKindAction,
				Integration: "slack",
				Config:      models.JSONB{"action_id": "send_message"},
			},
		},
		Connections: []models.Connection{
			{FromNode: "start", ToNode: "check"},
			{FromNode: "check", ToNode: "notify"},
		},
	}
}

func TestValidateAcceptsValidWorkflow(t *testing.T) {
	v := NewWorkflowValidator()

	if err := v.Validate(validWorkflow()); err != nil {
		t.Fatalf("expected valid workflow, got %v", err)
	}
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(w *models.Workflow)
		wantMsg string
	}{
		{
			name:    "missing id",
			mutate:  func(w *models.Workflow) { w.ID = "" },
			wantMsg: "id is required",
		},
		{
			name:    "missing name",
			mutate:  func(w *models.Workflow) { w.Name = "" },
			wantMsg: "name is required",
		},
		{
			name:    "no nodes",
			mutate:  func(w *models.Workflow) { w.Nodes = nil },
			wantMsg: "at least one node",
		},
		{
			name: "duplicate node ids",
			mutate: func(w *models.Workflow) {
				w.Nodes = append(w.Nodes, models.Node{ID: "start", Kind: models.NodeKindTrigger})
			},
			wantMsg: "duplicate node id",
		},
		{
			name: "unknown node kind",
			mutate: func(w *models.Workflow) {
				w.Nodes[0].Kind = "cron"
			},
			wantMsg: "invalid kind",
		},
		{
			name: "condition missing operator",
			mutate: func(w *models.Workflow) {
				w.Nodes[1].Config = models.JSONB{"field": "lead.score", "value": 80.0}
			},
			wantMsg: "config invalid",
		},
		{
			name: "condition operator outside supported set",
			mutate: func(w *models.Workflow) {
				w.Nodes[1].Config["operator"] = "regex"
			},
			wantMsg: "config invalid",
		},
		{
			name: "action with integration but no action_id",
			mutate: func(w *models.Workflow) {
				w.Nodes[2].Config = models.JSONB{}
			},
			wantMsg: "action_id is required",
		},
		{
			name: "connection to unknown node",
			mutate: func(w *models.Workflow) {
				w.Connections = append(w.Connections, models.Connection{FromNode: "notify", ToNode: "ghost"})
			},
			wantMsg: "unknown node",
		},
		{
			name: "delay with negative duration",
			mutate: func(w *models.Workflow) {
				w.Nodes = append(w.Nodes, models.Node{
					ID:     "wait",
					Kind:   models.NodeKindDelay,
					Config: models.JSONB{"delay_seconds": -5.0},
				})
			},
			wantMsg: "config invalid",
		},
		{
			name: "ai node without prompt",
			mutate: func(w *models.Workflow) {
				w.Nodes = append(w.Nodes, models.Node{
					ID:     "summarize",
					Kind:   models.NodeKindAI,
					Config: models.JSONB{"model": "gpt-4o"},
				})
			},
			wantMsg: "config invalid",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewWorkflowValidator()
			w := validWorkflow()
			tt.mutate(w)

			err := v.Validate(w)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("expected error containing %q, got %q", tt.wantMsg, err.Error())
			}
		})
	}
}

func TestValidateCollectsAllErrors(t *testing.T) {
	v := NewWorkflowValidator()

	w := &models.Workflow{}
	err := v.Validate(w)
	if err == nil {
		t.Fatal("expected validation error")
	}

	for _, want := range []string{"id is required", "name is required", "at least one node"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected combined error to contain %q, got %q", want, err.Error())
		}
	}
}
