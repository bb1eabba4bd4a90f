package engine

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
)

func TestRegistryCancelLifecycle(t *testing.T) {
	registry := NewExecutionRegistry()

	ctx, cancel := context.WithCancel(context.Background())
	id := uuid.New()

	registry.Register(id, cancel)
	if registry.Count() != 1 {
		t.Fatalf("expected 1 running execution, got %d", registry.Count())
	}

	if !registry.Cancel(id) {
		t.Fatal("expected Cancel to report true for a registered id")
	}
	if ctx.Err() == nil {
		t.Error("expected the execution context to be cancelled")
	}

	registry.Deregister(id)
	if registry.Count() != 0 {
		t.Errorf("expected empty registry, got %d", registry.Count())
	}

	if registry.Cancel(id) {
		t.Error("expected Cancel to report false after deregistration")
	}
}

func TestRegistryCancelUnknownID(t *testing.T) {
	registry := NewExecutionRegistry()

	if registry.Cancel(uuid.New()) {
		t.Error("expected false for an id that was never registered")
	}
	if registry.Count() != 0 {
		t.Error("cancel of unknown id must not mutate the registry")
	}
}

func TestRegistryDeregisterUnknownID(t *testing.T) {
	registry := NewExecutionRegistry()

	// Must not panic
	registry.Deregister(uuid.New())
}

func TestRegistryConcurrentAccess(t *testing.T) {
	registry := NewExecutionRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			id := uuid.New()
			_, cancel := context.WithCancel(context.Background())

			registry.Register(id, cancel)
			registry.Cancel(id)
			registry.Deregister(id)
		}()
	}
	wg.Wait()

	if registry.Count() != 0 {
		t.Errorf("expected empty registry after churn, got %d", registry.Count())
	}
}
