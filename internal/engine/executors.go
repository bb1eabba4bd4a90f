package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/flowmesh/flowmesh/internal/models"
	"github.com/flowmesh/flowmesh/pkg/logger"
)

// AIIntegration is the reserved integration name routing to the AI
// provider router when an ai node names no integration of its own.
const AIIntegration = "ai"

// aiCompleteAction is the reserved action id for ai-kind nodes.
const aiCompleteAction = "ai.complete"

// IntegrationDispatcher executes one action against one integration. The
// concrete implementation lives in the integrations package; the engine
// only needs this narrow surface.
type IntegrationDispatcher interface {
	Execute(ctx context.Context, integration, action string, config map[string]interface{}, execContext map[string]interface{}) *models.IntegrationResult
}

// ExecutorFunc runs one node given its definition and the live execution
// context, returning the structured output merged into the context under
// the node's id. An error return is fatal for the whole execution;
// recoverable integration failures come back as data inside the output.
type ExecutorFunc func(ctx context.Context, node *models.Node, execContext map[string]interface{}) (map[string]interface{}, error)

// NodeExecutorRegistry maps a node's kind to the function that knows how
// to run it. The table is fixed at construction and read-only afterward.
type NodeExecutorRegistry struct {
	executors    map[models.NodeKind]ExecutorFunc
	dispatcher   IntegrationDispatcher
	evaluator    *Evaluator
	defaultDelay time.Duration
	logger       *logger.Logger
}

// NewNodeExecutorRegistry creates a registry with executors for all five
// built-in node kinds.
func NewNodeExecutorRegistry(dispatcher IntegrationDispatcher, defaultDelay time.Duration, log *logger.Logger) *NodeExecutorRegistry {
	if defaultDelay <= 0 {
		defaultDelay = time.Second
	}

	r := &NodeExecutorRegistry{
		executors:    make(map[models.NodeKind]ExecutorFunc),
		dispatcher:   dispatcher,
		evaluator:    NewEvaluator(),
		defaultDelay: defaultDelay,
		logger:       log,
	}

	r.executors[models.NodeKindTrigger] = r.executeTrigger
	r.executors[models.NodeKindAction] = r.executeAction
	r.executors[models.NodeKindCondition] = r.executeCondition
	r.executors[models.NodeKindDelay] = r.executeDelay
	r.executors[models.NodeKindAI] = r.executeAI

	return r
}

// Execute dispatches a node to the executor for its kind.
func (r *NodeExecutorRegistry) Execute(ctx context.Context, node *models.Node, execContext map[string]interface{}) (map[string]interface{}, error) {
	executor, ok := r.executors[node.Kind]
	if !ok {
		return nil, fmt.Errorf("unsupported node kind: %s", node.Kind)
	}
	return executor(ctx, node, execContext)
}

// executeTrigger produces a descriptive marker. Triggers have no side
// effect; the trigger input is already in the context.
func (r *NodeExecutorRegistry) executeTrigger(ctx context.Context, node *models.Node, execContext map[string]interface{}) (map[string]interface{}, error) {
	var cfg models.TriggerConfig
	if err := node.DecodeConfig(&cfg); err != nil {
		return nil, err
	}

	output := map[string]interface{}{
		"type":         "trigger",
		"activated_at": time.Now().Unix(),
	}
	if cfg.Event != "" {
		output["event"] = cfg.Event
	}
	return output, nil
}

// executeAction delegates to the Integration Dispatcher when the node
// names an integration; otherwise it runs the custom-action placeholder,
// an extension point for user-defined logic.
func (r *NodeExecutorRegistry) executeAction(ctx context.Context, node *models.Node, execContext map[string]interface{}) (map[string]interface{}, error) {
	if node.Integration == "" {
		return map[string]interface{}{
			"type":     "custom_action",
			"executed": true,
		}, nil
	}

	var cfg models.ActionConfig
	if err := node.DecodeConfig(&cfg); err != nil {
		return nil, err
	}

	result := r.dispatcher.Execute(ctx, node.Integration, cfg.ActionID, node.Config, execContext)
	return result.AsMap(), nil
}

// executeCondition evaluates the node's predicate and records the boolean
// for edge selection by the traversal engine.
func (r *NodeExecutorRegistry) executeCondition(ctx context.Context, node *models.Node, execContext map[string]interface{}) (map[string]interface{}, error) {
	var cfg models.ConditionConfig
	if err := node.DecodeConfig(&cfg); err != nil {
		return nil, err
	}

	result, err := r.evaluator.Evaluate(&models.Predicate{
		Field:    cfg.Field,
		Operator: cfg.Operator,
		Value:    cfg.Value,
	}, execContext)
	if err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"type":     "condition",
		"field":    cfg.Field,
		"operator": cfg.Operator,
		"result":   result,
	}, nil
}

// executeDelay suspends the branch for the configured duration. This is
// the only node kind that deliberately blocks; it wakes early on
// cancellation.
func (r *NodeExecutorRegistry) executeDelay(ctx context.Context, node *models.Node, execContext map[string]interface{}) (map[string]interface{}, error) {
	var cfg models.DelayConfig
	if err := node.DecodeConfig(&cfg); err != nil {
		return nil, err
	}

	delay := time.Duration(cfg.DelaySeconds * float64(time.Second))
	if delay <= 0 {
		delay = r.defaultDelay
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(delay):
	}

	return map[string]interface{}{
		"type":          "delay",
		"delay_seconds": delay.Seconds(),
	}, nil
}

// executeAI delegates to the Integration Dispatcher with the reserved AI
// action. The dispatcher includes the prompt and a summary of context keys
// in the provider request.
func (r *NodeExecutorRegistry) executeAI(ctx context.Context, node *models.Node, execContext map[string]interface{}) (map[string]interface{}, error) {
	var cfg models.AIConfig
	if err := node.DecodeConfig(&cfg); err != nil {
		return nil, err
	}

	integration := node.Integration
	if integration == "" {
		integration = AIIntegration
	}

	result := r.dispatcher.Execute(ctx, integration, aiCompleteAction, node.Config, execContext)
	return result.AsMap(), nil
}
