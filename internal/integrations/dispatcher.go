package integrations

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/flowmesh/flowmesh/internal/ai"
	"github.com/flowmesh/flowmesh/internal/models"
	"github.com/flowmesh/flowmesh/pkg/llm"
	"github.com/flowmesh/flowmesh/pkg/logger"
	"github.com/flowmesh/flowmesh/pkg/metrics"
)

// Handler executes one action against one concrete integration. The config
// is the action node's params; the execution context is read-only input.
type Handler interface {
	Execute(ctx context.Context, action string, config map[string]interface{}, execContext map[string]interface{}) (map[string]interface{}, error)
}

// Dispatcher routes an (integration, action) pair to its handler. All
// failures, including panics inside handlers, are converted to an
// IntegrationResult with error status; the dispatcher never lets an
// integration failure escape as an error.
type Dispatcher struct {
	handlers map[string]Handler
	router   *ai.Router
	metrics  *metrics.Metrics
	logger   *logger.Logger
}

// NewDispatcher creates a dispatcher with the built-in handler table.
func NewDispatcher(router *ai.Router, log *logger.Logger) *Dispatcher {
	d := &Dispatcher{
		handlers: make(map[string]Handler),
		router:   router,
		logger:   log,
	}

	d.RegisterHandler("slack", NewSlackHandler(log))
	d.RegisterHandler("email", NewEmailHandler(log))
	d.RegisterHandler("webhook", NewWebhookHandler(log))

	return d
}

// SetMetrics enables per-call instrumentation.
func (d *Dispatcher) SetMetrics(m *metrics.Metrics) {
	d.metrics = m
}

// RegisterHandler adds or replaces the handler for an integration name.
func (d *Dispatcher) RegisterHandler(integration string, h Handler) {
	d.handlers[integration] = h
}

// Execute runs one action against one integration and always returns a
// structured result.
func (d *Dispatcher) Execute(
	ctx context.Context,
	integration string,
	action string,
	config map[string]interface{},
	execContext map[string]interface{},
) *models.IntegrationResult {
	result := &models.IntegrationResult{
		Integration: integration,
		Action:      action,
		Timestamp:   time.Now(),
	}
	defer func() {
		if d.metrics != nil {
			d.metrics.IntegrationCallsTotal.WithLabelValues(integration, result.Status).Inc()
		}
	}()

	// AI-capable integrations bypass the handler table. "ai" is the
	// reserved name used by ai-kind nodes that name no provider.
	if d.router != nil && (integration == "ai" || d.router.HasProvider(integration)) {
		return d.executeAI(ctx, integration, action, config, execContext, result)
	}

	handler, ok := d.handlers[integration]
	if !ok {
		// Degraded mode: integrations without a wired handler succeed with
		// a deterministic placeholder so referencing workflows keep running.
		d.logger.Infof("No handler for integration %s, returning mock result", integration)
		result.Status = "success"
		result.MockExecution = true
		result.Result = map[string]interface{}{
			"integration": integration,
			"action":      action,
			"message":     fmt.Sprintf("Mock execution of %s.%s", integration, action),
		}
		return result
	}

	output, err := d.invoke(ctx, handler, action, config, execContext)
	if err != nil {
		d.logger.Warnf("Integration %s action %s failed: %v", integration, action, err)
		result.Status = "error"
		result.Error = err.Error()
		return result
	}

	result.Status = "success"
	result.Result = output
	return result
}

// invoke calls a handler with panic recovery so a misbehaving integration
// cannot crash the traversal.
func (d *Dispatcher) invoke(
	ctx context.Context,
	handler Handler,
	action string,
	config map[string]interface{},
	execContext map[string]interface{},
) (output map[string]interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("integration handler panicked: %v", r)
		}
	}()

	return handler.Execute(ctx, action, config, execContext)
}

// executeAI routes an AI-typed call through the provider router.
func (d *Dispatcher) executeAI(
	ctx context.Context,
	integration string,
	action string,
	config map[string]interface{},
	execContext map[string]interface{},
	result *models.IntegrationResult,
) *models.IntegrationResult {
	prompt, _ := config["prompt"].(string)
	if prompt == "" {
		prompt = fmt.Sprintf("Execute the %s action.", action)
	}

	model, _ := config["model"].(string)
	temperature, _ := config["temperature"].(float64)
	maxTokens := 0
	switch v := config["max_tokens"].(type) {
	case float64:
		maxTokens = int(v)
	case int:
		maxTokens = v
	}

	req := ai.CompletionRequest{
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: prompt},
		},
		SystemPrompt:    contextSummary(execContext),
		TaskType:        deriveTaskType(action),
		ModelPreference: model,
		Temperature:     temperature,
		MaxTokens:       maxTokens,
	}

	completion, err := d.router.Complete(ctx, req)
	if err != nil {
		d.logger.Warnf("AI completion via %s failed: %v", integration, err)
		result.Status = "error"
		result.Error = err.Error()
		return result
	}

	result.Status = "success"
	result.Result = map[string]interface{}{
		"content":  completion.Content,
		"provider": completion.Provider,
		"model":    completion.Model,
		"attempts": completion.Attempts,
	}
	return result
}

// deriveTaskType maps an action id to a provider-routing task category.
func deriveTaskType(action string) string {
	switch {
	case strings.Contains(action, "code"):
		return "code_generation"
	case strings.Contains(action, "summar"):
		return "summarization"
	case strings.Contains(action, "classif"):
		return "classification"
	case strings.Contains(action, "analy"):
		return "analysis"
	case strings.Contains(action, "chat"):
		return "chat"
	default:
		return "text_generation"
	}
}

// contextSummary renders the context's top-level keys for the model. Values
// are omitted to keep prompts bounded.
func contextSummary(execContext map[string]interface{}) string {
	if len(execContext) == 0 {
		return "You are executing a step of an automated workflow. No prior context is available."
	}

	keys := make([]string, 0, len(execContext))
	for k := range execContext {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	return fmt.Sprintf(
		"You are executing a step of an automated workflow. The execution context contains the keys: %s.",
		strings.Join(keys, ", "),
	)
}
