package engine

import (
	"context"
	"testing"

	"github.com/flowmesh/flowmesh/pkg/logger"
	"github.com/google/uuid"
)

func TestContextBuilderSeedsTriggerInput(t *testing.T) {
	cb := NewContextBuilder(nil, logger.NewForTesting())

	input := map[string]interface{}{
		"lead": map[string]interface{}{"score": 92.0},
	}

	execContext := cb.Build(input)

	if execContext["lead"] == nil {
		t.Error("expected trigger input in context")
	}
	if execContext["_meta"] == nil {
		t.Error("expected _meta enrichment")
	}
	if execContext["_computed"] == nil {
		t.Error("expected _computed enrichment")
	}

	// Builds are independent: mutating one context must not leak into
	// another
	execContext["node1"] = map[string]interface{}{"status": "success"}
	second := cb.Build(input)
	if _, ok := second["node1"]; ok {
		t.Error("contexts must not be shared across builds")
	}
}

func TestContextBuilderEmptyInput(t *testing.T) {
	cb := NewContextBuilder(nil, logger.NewForTesting())

	execContext := cb.Build(nil)
	if len(execContext) != 2 {
		t.Errorf("expected only enrichment keys, got %v", execContext)
	}
}

func TestContextBuilderSnapshotWithoutRedis(t *testing.T) {
	cb := NewContextBuilder(nil, logger.NewForTesting())
	id := uuid.New()

	if err := cb.CacheSnapshot(context.Background(), id, map[string]interface{}{"a": 1}); err != nil {
		t.Errorf("nil redis must degrade silently, got %v", err)
	}

	snapshot, err := cb.GetSnapshot(context.Background(), id)
	if err != nil {
		t.Errorf("nil redis must degrade silently, got %v", err)
	}
	if snapshot != nil {
		t.Error("expected nil snapshot without redis")
	}
}
