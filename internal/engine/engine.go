package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/flowmesh/flowmesh/internal/models"
	"github.com/flowmesh/flowmesh/pkg/logger"
	"github.com/flowmesh/flowmesh/pkg/metrics"
	"github.com/google/uuid"
)

// ErrNoTriggerNode is returned for workflows without a trigger node. No
// execution record is created in that case.
var ErrNoTriggerNode = errors.New("workflow has no trigger node")

// errCancelled signals cooperative cancellation inside a traversal.
var errCancelled = errors.New("execution cancelled")

// ExecutionRepository persists execution records. The engine writes
// records; it never touches workflow definitions.
type ExecutionRepository interface {
	CreateExecution(ctx context.Context, execution *models.Execution) error
	UpdateExecution(ctx context.Context, execution *models.Execution) error
}

// Engine drives workflow runs to a terminal state. One Execute call
// traverses the graph on a single goroutine; multiple runs proceed
// concurrently, each owning its context exclusively. Constructed once at
// process start and passed by reference; all mutable state lives on the
// struct.
type Engine struct {
	executors      *NodeExecutorRegistry
	registry       *ExecutionRegistry
	contextBuilder *ContextBuilder
	repo           ExecutionRepository
	metrics        *metrics.Metrics
	logger         *logger.Logger
	nodeTimeout    time.Duration
}

// Option configures optional engine collaborators.
type Option func(*Engine)

// WithRepository attaches execution persistence.
func WithRepository(repo ExecutionRepository) Option {
	return func(e *Engine) { e.repo = repo }
}

// WithMetrics attaches Prometheus instrumentation.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithContextBuilder replaces the default in-memory context builder.
func WithContextBuilder(cb *ContextBuilder) Option {
	return func(e *Engine) { e.contextBuilder = cb }
}

// WithNodeTimeout bounds each node execution. Zero disables the limit.
func WithNodeTimeout(d time.Duration) Option {
	return func(e *Engine) { e.nodeTimeout = d }
}

// New creates a workflow engine.
func New(executors *NodeExecutorRegistry, log *logger.Logger, opts ...Option) *Engine {
	e := &Engine{
		executors:      executors,
		registry:       NewExecutionRegistry(),
		contextBuilder: NewContextBuilder(nil, log),
		logger:         log,
		nodeTimeout:    30 * time.Second,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Registry exposes the execution registry for inspection.
func (e *Engine) Registry() *ExecutionRegistry {
	return e.registry
}

// Execute runs a workflow to a terminal state. Each trigger node starts an
// independent branch; branches share one execution context, so partial
// results from one branch are visible to the next. The returned execution
// carries the terminal status; the error return is non-nil only for
// structural problems or fatal node failures.
func (e *Engine) Execute(
	ctx context.Context,
	workflow *models.Workflow,
	triggerInput map[string]interface{},
) (*models.Execution, error) {
	triggers := workflow.TriggerNodes()
	if len(triggers) == 0 {
		return nil, fmt.Errorf("workflow %s: %w", workflow.ID, ErrNoTriggerNode)
	}

	e.logger.Infof("Starting workflow execution: %s (workflow: %s)", workflow.Name, workflow.ID)

	execution := &models.Execution{
		ID:           uuid.New(),
		WorkflowID:   workflow.ID,
		UserID:       workflow.UserID,
		Status:       models.ExecutionStatusRunning,
		TriggerInput: triggerInput,
		StartedAt:    time.Now(),
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	e.registry.Register(execution.ID, cancel)
	defer e.registry.Deregister(execution.ID)

	if e.metrics != nil {
		e.metrics.ActiveExecutions.Inc()
		defer e.metrics.ActiveExecutions.Dec()
	}

	if e.repo != nil {
		if err := e.repo.CreateExecution(ctx, execution); err != nil {
			return nil, fmt.Errorf("failed to create execution record: %w", err)
		}
	}

	execContext := e.contextBuilder.Build(triggerInput)

	var runErr error
	for _, trigger := range triggers {
		if err := e.traverseBranch(runCtx, workflow, trigger, execContext); err != nil {
			runErr = err
			break
		}
	}

	execution.Context = execContext

	switch {
	case runErr == nil:
		e.complete(ctx, execution, models.ExecutionStatusSuccess, "")
		e.logger.Infof("Workflow execution completed: %s", execution.ID)
		return execution, nil

	case errors.Is(runErr, errCancelled):
		e.complete(ctx, execution, models.ExecutionStatusCancelled, "")
		e.logger.Infof("Workflow execution cancelled: %s", execution.ID)
		return execution, nil

	default:
		e.complete(ctx, execution, models.ExecutionStatusFailed, runErr.Error())
		e.logger.Errorf("Workflow execution failed: %s: %v", execution.ID, runErr)
		return execution, runErr
	}
}

// Cancel signals cooperative cancellation to a running execution. The
// traversal observes the signal at the next node boundary. Returns false
// when the id is not currently running.
func (e *Engine) Cancel(executionID uuid.UUID) bool {
	return e.registry.Cancel(executionID)
}

// traverseBranch walks the graph from one trigger node until the branch
// terminates. The visited set guards against cycles: re-entering a node
// already executed in this branch ends the branch without error.
func (e *Engine) traverseBranch(
	ctx context.Context,
	workflow *models.Workflow,
	start models.Node,
	execContext map[string]interface{},
) error {
	visited := make(map[string]bool)
	current := &start

	for current != nil {
		// Cancellation is cooperative and observed between node
		// executions only; an in-flight call finishes first.
		if ctx.Err() != nil {
			return fmt.Errorf("%w: %v", errCancelled, ctx.Err())
		}

		if visited[current.ID] {
			e.logger.Warnf("Cycle detected at node %s, terminating branch", current.ID)
			return nil
		}
		visited[current.ID] = true

		output, err := e.executeNode(ctx, current, execContext)
		if err != nil {
			if ctx.Err() != nil {
				return fmt.Errorf("%w: %v", errCancelled, ctx.Err())
			}
			return fmt.Errorf("node %s failed: %w", current.ID, err)
		}

		// Merge the node's output under its id before advancing, so
		// downstream predicates can reference it.
		execContext[current.ID] = output

		nextID, err := e.nextNode(current, output, workflow, execContext)
		if err != nil {
			return err
		}
		if nextID == "" {
			return nil
		}

		next := workflow.NodeByID(nextID)
		if next == nil {
			return fmt.Errorf("connection references unknown node: %s", nextID)
		}
		current = next
	}

	return nil
}

// executeNode runs one node via the executor registry with the per-node
// timeout applied.
func (e *Engine) executeNode(ctx context.Context, node *models.Node, execContext map[string]interface{}) (map[string]interface{}, error) {
	nodeCtx := ctx
	if e.nodeTimeout > 0 {
		var cancel context.CancelFunc
		nodeCtx, cancel = context.WithTimeout(ctx, e.nodeTimeout)
		defer cancel()
	}

	e.logger.Infof("Executing node: %s (kind: %s)", node.ID, node.Kind)

	start := time.Now()
	output, err := e.executors.Execute(nodeCtx, node, execContext)

	if e.metrics != nil {
		e.metrics.NodeExecutionsTotal.WithLabelValues(string(node.Kind)).Inc()
		e.metrics.NodeDuration.WithLabelValues(string(node.Kind)).Observe(time.Since(start).Seconds())
	}

	return output, err
}

// nextNode selects the outgoing edge to follow. Condition nodes use
// first-match edge selection over the connection predicates; all other
// kinds take the first outgoing connection. Dropping multi-edge fan-out
// for non-condition nodes is a known limitation of the traversal.
func (e *Engine) nextNode(
	current *models.Node,
	output map[string]interface{},
	workflow *models.Workflow,
	execContext map[string]interface{},
) (string, error) {
	conns := workflow.ConnectionsFrom(current.ID)
	if len(conns) == 0 {
		return "", nil
	}

	if current.Kind != models.NodeKindCondition {
		return conns[0].ToNode, nil
	}

	evaluator := e.executors.evaluator
	for _, conn := range conns {
		if conn.Condition == nil {
			return conn.ToNode, nil
		}

		match, err := evaluator.Evaluate(conn.Condition, execContext)
		if err != nil {
			return "", fmt.Errorf("edge predicate on %s -> %s: %w", conn.FromNode, conn.ToNode, err)
		}
		if match {
			return conn.ToNode, nil
		}
	}

	// No edge matched; the branch terminates normally.
	return "", nil
}

// complete records the single terminal transition for an execution.
func (e *Engine) complete(ctx context.Context, execution *models.Execution, status models.ExecutionStatus, errorMsg string) {
	now := time.Now()
	execution.CompletedAt = &now
	duration := int(now.Sub(execution.StartedAt).Milliseconds())
	execution.DurationMs = &duration
	execution.Status = status

	if errorMsg != "" {
		execution.ErrorMessage = &errorMsg
	}

	if e.metrics != nil {
		e.metrics.ExecutionsTotal.WithLabelValues(string(status)).Inc()
		e.metrics.ExecutionDuration.WithLabelValues(string(status)).Observe(now.Sub(execution.StartedAt).Seconds())
	}

	if e.repo != nil {
		if err := e.repo.UpdateExecution(ctx, execution); err != nil {
			e.logger.Errorf("Failed to update execution record: %v", err)
		}
	}

	if err := e.contextBuilder.CacheSnapshot(ctx, execution.ID, execution.Context); err != nil {
		e.logger.Warnf("Failed to cache context snapshot: %v", err)
	}
}
