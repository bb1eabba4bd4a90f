package integrations

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/flowmesh/flowmesh/internal/ai"
	"github.com/flowmesh/flowmesh/pkg/config"
	"github.com/flowmesh/flowmesh/pkg/llm"
	"github.com/flowmesh/flowmesh/pkg/logger"
)

// Fake integration handler
type fakeHandler struct {
	executeF func(action string, cfg map[string]interface{}) (map[string]interface{}, error)
}

func (f *fakeHandler) Execute(ctx context.Context, action string, config map[string]interface{}, execContext map[string]interface{}) (map[string]interface{}, error) {
	if f.executeF != nil {
		return f.executeF(action, config)
	}
	return map[string]interface{}{"done": true}, nil
}

// Fake llm.Client
type fakeAIClient struct {
	chatF func(req *llm.ChatRequest) (*llm.ChatResponse, error)
}

func (f *fakeAIClient) Chat(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	if f.chatF != nil {
		return f.chatF(req)
	}
	return &llm.ChatResponse{
		Content:   "generated text",
		Model:     "fake-model",
		Provider:  llm.ProviderAnthropic,
		CreatedAt: time.Now(),
	}, nil
}

func (f *fakeAIClient) GetProvider() llm.Provider { return llm.ProviderAnthropic }
func (f *fakeAIClient) Close() error              { return nil }

func newTestRouter(t *testing.T) *ai.Router {
	t.Helper()
	router := ai.NewRouterForTesting(3, logger.NewForTesting())
	router.Register(config.ProviderConfig{
		Name:              "anthropic",
		APIKey:            "test-key",
		RequestsPerSecond: 1000,
	}, &fakeAIClient{})
	return router
}

func TestDispatchRegisteredHandler(t *testing.T) {
	d := NewDispatcher(nil, logger.NewForTesting())
	d.RegisterHandler("crm", &fakeHandler{
		executeF: func(action string, cfg map[string]interface{}) (map[string]interface{}, error) {
			return map[string]interface{}{"contact_id": "c-42"}, nil
		},
	})

	result := d.Execute(context.Background(), "crm", "create_contact", nil, nil)

	if !result.Succeeded() {
		t.Fatalf("expected success, got %s: %s", result.Status, result.Error)
	}
	if result.MockExecution {
		t.Error("registered handler must not be marked as mock")
	}
	if result.Result["contact_id"] != "c-42" {
		t.Errorf("expected handler output, got %v", result.Result)
	}
}

func TestDispatchUnknownIntegrationMocks(t *testing.T) {
	d := NewDispatcher(nil, logger.NewForTesting())

	result := d.Execute(context.Background(), "unregistered_crm", "create_contact", nil, nil)

	if !result.Succeeded() {
		t.Fatalf("expected mock success, got %s", result.Status)
	}
	if !result.MockExecution {
		t.Error("expected mock_execution flag for unknown integration")
	}
	if result.Result["integration"] != "unregistered_crm" || result.Result["action"] != "create_contact" {
		t.Errorf("placeholder must echo the request, got %v", result.Result)
	}
}

func TestDispatchHandlerErrorIsData(t *testing.T) {
	d := NewDispatcher(nil, logger.NewForTesting())
	d.RegisterHandler("flaky", &fakeHandler{
		executeF: func(action string, cfg map[string]interface{}) (map[string]interface{}, error) {
			return nil, errors.New("connection refused")
		},
	})

	result := d.Execute(context.Background(), "flaky", "ping", nil, nil)

	if result.Succeeded() {
		t.Fatal("expected error status")
	}
	if result.Error != "connection refused" {
		t.Errorf("expected the handler error preserved, got %q", result.Error)
	}
}

func TestDispatchRecoversFromPanic(t *testing.T) {
	d := NewDispatcher(nil, logger.NewForTesting())
	d.RegisterHandler("broken", &fakeHandler{
		executeF: func(action string, cfg map[string]interface{}) (map[string]interface{}, error) {
			panic("handler bug")
		},
	})

	result := d.Execute(context.Background(), "broken", "anything", nil, nil)

	if result.Succeeded() {
		t.Fatal("expected error status after panic")
	}
	if result.Error == "" {
		t.Error("expected panic converted to an error message")
	}
}

func TestDispatchReservedAIIntegration(t *testing.T) {
	d := NewDispatcher(newTestRouter(t), logger.NewForTesting())

	cfg := map[string]interface{}{"prompt": "Summarize the account history"}
	result := d.Execute(context.Background(), "ai", "ai.complete", cfg, map[string]interface{}{
		"account": map[string]interface{}{"tier": "gold"},
	})

	if !result.Succeeded() {
		t.Fatalf("expected success, got %s: %s", result.Status, result.Error)
	}
	if result.Result["content"] != "generated text" {
		t.Errorf("expected completion content, got %v", result.Result)
	}
	if result.Result["provider"] != "anthropic" {
		t.Errorf("expected provider recorded, got %v", result.Result)
	}
}

func TestDispatchProviderNamedIntegration(t *testing.T) {
	d := NewDispatcher(newTestRouter(t), logger.NewForTesting())

	result := d.Execute(context.Background(), "anthropic", "ai.complete",
		map[string]interface{}{"prompt": "Classify"}, nil)

	if !result.Succeeded() {
		t.Fatalf("expected AI path for provider-named integration, got %s: %s", result.Status, result.Error)
	}
}

func TestDispatchAIFailureIsData(t *testing.T) {
	router := ai.NewRouterForTesting(3, logger.NewForTesting())
	router.Register(config.ProviderConfig{
		Name:              "anthropic",
		APIKey:            "test-key",
		RequestsPerSecond: 1000,
	}, &fakeAIClient{
		chatF: func(req *llm.ChatRequest) (*llm.ChatResponse, error) {
			return nil, errors.New("overloaded")
		},
	})

	d := NewDispatcher(router, logger.NewForTesting())

	result := d.Execute(context.Background(), "ai", "ai.complete",
		map[string]interface{}{"prompt": "hi"}, nil)

	if result.Succeeded() {
		t.Fatal("expected error status when all providers fail")
	}
	if result.Error == "" {
		t.Error("expected router error preserved in result")
	}
}

func TestDispatchWithoutRouterFallsBackToMock(t *testing.T) {
	d := NewDispatcher(nil, logger.NewForTesting())

	// No router configured: "ai" is just another unknown integration
	result := d.Execute(context.Background(), "ai", "ai.complete",
		map[string]interface{}{"prompt": "hi"}, nil)

	if !result.Succeeded() || !result.MockExecution {
		t.Errorf("expected mock fallback without a router, got %+v", result)
	}
}

func TestDeriveTaskType(t *testing.T) {
	tests := []struct {
		action string
		want   string
	}{
		{"generate_code_review", "code_generation"},
		{"summarize_thread", "summarization"},
		{"classify_lead", "classification"},
		{"analyze_sentiment", "analysis"},
		{"chat_reply", "chat"},
		{"ai.complete", "text_generation"},
	}

	for _, tt := range tests {
		if got := deriveTaskType(tt.action); got != tt.want {
			t.Errorf("deriveTaskType(%q) = %q, want %q", tt.action, got, tt.want)
		}
	}
}
