package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/flowmesh/flowmesh/internal/engine"
	"github.com/flowmesh/flowmesh/internal/models"
	"github.com/flowmesh/flowmesh/internal/validators"
	"github.com/flowmesh/flowmesh/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// WorkflowSource resolves stored workflow definitions. Workflow CRUD lives
// outside the engine; this only reads snapshots.
type WorkflowSource interface {
	GetWorkflowByID(ctx context.Context, id string) (*models.Workflow, error)
}

// ExecutionReader reads persisted execution records.
type ExecutionReader interface {
	GetExecutionByID(ctx context.Context, id uuid.UUID) (*models.Execution, error)
	ListExecutions(ctx context.Context, workflowID *string, status *models.ExecutionStatus, limit, offset int) ([]models.Execution, int64, error)
}

// ExecutionHandler handles execution-related HTTP requests
type ExecutionHandler struct {
	logger    *logger.Logger
	engine    *engine.Engine
	validator *validators.WorkflowValidator
	workflows WorkflowSource
	reader    ExecutionReader
}

// ExecuteRequest is the body of POST /workflows/{id}/execute
type ExecuteRequest struct {
	TriggerInput map[string]interface{} `json:"trigger_input"`
}

// ExecuteInlineRequest is the body of POST /executions: a complete workflow
// definition plus trigger input, for callers without a stored workflow.
type ExecuteInlineRequest struct {
	Workflow     *models.Workflow       `json:"workflow"`
	TriggerInput map[string]interface{} `json:"trigger_input"`
}

// CancelResponse is the body of POST /executions/{id}/cancel
type CancelResponse struct {
	Cancelled bool `json:"cancelled"`
}

// NewExecutionHandler creates a new execution handler. workflows and reader
// may be nil when the engine runs without a store.
func NewExecutionHandler(log *logger.Logger, eng *engine.Engine, workflows WorkflowSource, reader ExecutionReader) *ExecutionHandler {
	return &ExecutionHandler{
		logger:    log,
		engine:    eng,
		validator: validators.NewWorkflowValidator(),
		workflows: workflows,
		reader:    reader,
	}
}

// ExecuteWorkflow handles POST /api/v1/workflows/{id}/execute
func (h *ExecutionHandler) ExecuteWorkflow(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if h.workflows == nil {
		writeError(w, http.StatusNotImplemented, "workflow store not configured")
		return
	}

	workflow, err := h.workflows.GetWorkflowByID(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusNotFound, "workflow not found")
		return
	}

	var req ExecuteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	h.execute(w, r, workflow, req.TriggerInput)
}

// ExecuteInline handles POST /api/v1/executions
func (h *ExecutionHandler) ExecuteInline(w http.ResponseWriter, r *http.Request) {
	var req ExecuteInlineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Workflow == nil {
		writeError(w, http.StatusBadRequest, "workflow is required")
		return
	}

	h.execute(w, r, req.Workflow, req.TriggerInput)
}

func (h *ExecutionHandler) execute(w http.ResponseWriter, r *http.Request, workflow *models.Workflow, triggerInput map[string]interface{}) {
	if err := h.validator.Validate(workflow); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if triggerInput == nil {
		triggerInput = make(map[string]interface{})
	}

	execution, err := h.engine.Execute(r.Context(), workflow, triggerInput)
	if err != nil {
		if errors.Is(err, engine.ErrNoTriggerNode) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if execution == nil {
			h.logger.WithError(err).Error("Execution failed without record")
			writeError(w, http.StatusInternalServerError, "execution failed")
			return
		}
		// Failed executions are still returned with their terminal record
	}

	writeJSON(w, http.StatusOK, execution)
}

// CancelExecution handles POST /api/v1/executions/{id}/cancel
func (h *ExecutionHandler) CancelExecution(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid execution ID")
		return
	}

	cancelled := h.engine.Cancel(id)

	status := http.StatusOK
	if !cancelled {
		status = http.StatusNotFound
	}
	writeJSON(w, status, CancelResponse{Cancelled: cancelled})
}

// GetExecution handles GET /api/v1/executions/{id}
func (h *ExecutionHandler) GetExecution(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid execution ID")
		return
	}

	if h.reader == nil {
		writeError(w, http.StatusNotImplemented, "execution persistence not configured")
		return
	}

	execution, err := h.reader.GetExecutionByID(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusNotFound, "execution not found")
		return
	}

	writeJSON(w, http.StatusOK, execution)
}

// ListExecutions handles GET /api/v1/executions
func (h *ExecutionHandler) ListExecutions(w http.ResponseWriter, r *http.Request) {
	if h.reader == nil {
		writeError(w, http.StatusNotImplemented, "execution persistence not configured")
		return
	}

	var workflowID *string
	if v := r.URL.Query().Get("workflow_id"); v != "" {
		workflowID = &v
	}

	var status *models.ExecutionStatus
	if v := r.URL.Query().Get("status"); v != "" {
		s := models.ExecutionStatus(v)
		status = &s
	}

	page := parsePositiveInt(r.URL.Query().Get("page"), 1, 10000)
	pageSize := parsePositiveInt(r.URL.Query().Get("page_size"), 20, 100)

	executions, total, err := h.reader.ListExecutions(r.Context(), workflowID, status, pageSize, (page-1)*pageSize)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list executions")
		writeError(w, http.StatusInternalServerError, "failed to list executions")
		return
	}

	writeJSON(w, http.StatusOK, models.ExecutionListResponse{
		Executions: executions,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
	})
}

func parsePositiveInt(value string, fallback, max int) int {
	n, err := strconv.Atoi(value)
	if err != nil || n < 1 || n > max {
		return fallback
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
