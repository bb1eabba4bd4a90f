package integrations

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/flowmesh/flowmesh/pkg/logger"
)

func TestInterpolate(t *testing.T) {
	execContext := map[string]interface{}{
		"lead": map[string]interface{}{
			"name":  "Acme Corp",
			"score": 92.0,
		},
	}

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"no placeholders", "plain text", "plain text"},
		{"single placeholder", "Lead: ${lead.name}", "Lead: Acme Corp"},
		{"numeric value", "Score is ${lead.score}", "Score is 92"},
		{"multiple placeholders", "${lead.name} scored ${lead.score}", "Acme Corp scored 92"},
		{"missing path renders empty", "Owner: ${lead.owner}", "Owner: "},
		{"unterminated placeholder left intact", "Broken ${lead.name", "Broken ${lead.name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := interpolate(tt.input, execContext); got != tt.want {
				t.Errorf("interpolate(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestInterpolateMapPreservesTypes(t *testing.T) {
	execContext := map[string]interface{}{
		"lead": map[string]interface{}{"score": 92.0},
	}

	data := map[string]interface{}{
		"score":   "${lead.score}",
		"message": "score is ${lead.score}",
		"nested": map[string]interface{}{
			"inner": "${lead.score}",
		},
		"untouched": 7,
	}

	result := interpolateMap(data, execContext)

	// A value that is exactly one placeholder keeps the original type
	if result["score"] != 92.0 {
		t.Errorf("expected raw value 92.0, got %v (%T)", result["score"], result["score"])
	}
	if result["message"] != "score is 92" {
		t.Errorf("expected interpolated string, got %v", result["message"])
	}
	nested, ok := result["nested"].(map[string]interface{})
	if !ok || nested["inner"] != 92.0 {
		t.Errorf("expected recursion into nested maps, got %v", result["nested"])
	}
	if result["untouched"] != 7 {
		t.Errorf("non-string values must pass through, got %v", result["untouched"])
	}
}

func TestWebhookHandlerPostsPayload(t *testing.T) {
	var received map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&received)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	h := NewWebhookHandler(logger.NewForTesting())

	config := map[string]interface{}{
		"url":    server.URL,
		"method": "POST",
		"body": map[string]interface{}{
			"lead": "${lead.name}",
		},
	}
	execContext := map[string]interface{}{
		"lead": map[string]interface{}{"name": "Acme Corp"},
	}

	output, err := h.Execute(context.Background(), "call", config, execContext)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if received["lead"] != "Acme Corp" {
		t.Errorf("expected interpolated body, got %v", received)
	}
	if output["status_code"] != 200 {
		t.Errorf("expected status 200 in output, got %v", output["status_code"])
	}
}

func TestWebhookHandlerErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	h := NewWebhookHandler(logger.NewForTesting())

	_, err := h.Execute(context.Background(), "call", map[string]interface{}{"url": server.URL}, nil)
	if err == nil {
		t.Fatal("expected error for upstream 502")
	}
}

func TestWebhookHandlerRequiresURL(t *testing.T) {
	h := NewWebhookHandler(logger.NewForTesting())

	_, err := h.Execute(context.Background(), "call", map[string]interface{}{}, nil)
	if err == nil {
		t.Fatal("expected error when url is missing")
	}
}

func TestSlackHandlerWithoutWebhookLogsOnly(t *testing.T) {
	h := NewSlackHandler(logger.NewForTesting())

	output, err := h.Execute(context.Background(), "send_message",
		map[string]interface{}{"message": "hello ${user}"},
		map[string]interface{}{"user": "dana"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if output["message"] != "hello dana" {
		t.Errorf("expected interpolated message, got %v", output["message"])
	}
}

func TestSlackHandlerPostsToWebhook(t *testing.T) {
	var received map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&received)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	h := NewSlackHandler(logger.NewForTesting())

	_, err := h.Execute(context.Background(), "send_message", map[string]interface{}{
		"webhook_url": server.URL,
		"message":     "deal closed",
	}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if received["text"] != "deal closed" {
		t.Errorf("expected slack payload, got %v", received)
	}
}
