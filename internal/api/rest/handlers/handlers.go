package handlers

import (
	"github.com/flowmesh/flowmesh/internal/engine"
	"github.com/flowmesh/flowmesh/pkg/logger"
)

// Handlers aggregates all HTTP handlers
type Handlers struct {
	Health    *HealthHandler
	Execution *ExecutionHandler
}

// HealthCheckers holds all health check dependencies
type HealthCheckers struct {
	DB    HealthChecker
	Redis HealthChecker
}

// NewHandlers creates a new handlers instance
func NewHandlers(
	log *logger.Logger,
	eng *engine.Engine,
	workflows WorkflowSource,
	reader ExecutionReader,
	healthCheckers *HealthCheckers,
	version string,
) *Handlers {
	return &Handlers{
		Health:    NewHealthHandler(log, healthCheckers.DB, healthCheckers.Redis, version),
		Execution: NewExecutionHandler(log, eng, workflows, reader),
	}
}
