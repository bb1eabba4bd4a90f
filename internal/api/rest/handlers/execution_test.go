package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/flowmesh/flowmesh/internal/engine"
	"github.com/flowmesh/flowmesh/internal/models"
	"github.com/flowmesh/flowmesh/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// Stub dispatcher for handler tests
type stubDispatcher struct{}

func (stubDispatcher) Execute(ctx context.Context, integration, action string, config map[string]interface{}, execContext map[string]interface{}) *models.IntegrationResult {
	return &models.IntegrationResult{
		Status:      "success",
		Integration: integration,
		Action:      action,
		Timestamp:   time.Now(),
	}
}

// Mock WorkflowSource
type mockWorkflowSource struct {
	getFunc func(ctx context.Context, id string) (*models.Workflow, error)
}

func (m *mockWorkflowSource) GetWorkflowByID(ctx context.Context, id string) (*models.Workflow, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, id)
	}
	return nil, errors.New("not found")
}

// Mock ExecutionReader
type mockExecutionReader struct {
	getFunc  func(ctx context.Context, id uuid.UUID) (*models.Execution, error)
	listFunc func(ctx context.Context, workflowID *string, status *models.ExecutionStatus, limit, offset int) ([]models.Execution, int64, error)
}

func (m *mockExecutionReader) GetExecutionByID(ctx context.Context, id uuid.UUID) (*models.Execution, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, id)
	}
	return nil, errors.New("not found")
}

func (m *mockExecutionReader) ListExecutions(ctx context.Context, workflowID *string, status *models.ExecutionStatus, limit, offset int) ([]models.Execution, int64, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, workflowID, status, limit, offset)
	}
	return []models.Execution{}, 0, nil
}

func newHandlerEngine() *engine.Engine {
	log := logger.NewForTesting()
	executors := engine.NewNodeExecutorRegistry(stubDispatcher{}, 10*time.Millisecond, log)
	return engine.New(executors, log)
}

func newTestRouter(h *ExecutionHandler) *chi.Mux {
	r := chi.NewRouter()
	r.Post("/workflows/{id}/execute", h.ExecuteWorkflow)
	r.Post("/executions", h.ExecuteInline)
	r.Get("/executions/{id}", h.GetExecution)
	r.Post("/executions/{id}/cancel", h.CancelExecution)
	r.Get("/executions", h.ListExecutions)
	return r
}

func simpleWorkflow() *models.Workflow {
	return &models.Workflow{
		ID:   "wf-1",
		Name: "simple",
		Nodes: []models.Node{
			{ID: "start", Kind: models.NodeKindTrigger},
			{
				ID:          "notify",
				Kind:        models.NodeKindAction,
				Integration: "slack",
				Config:      models.JSONB{"action_id": "send_message"},
			},
		},
		Connections: []models.Connection{
			{FromNode: "start", ToNode: "notify"},
		},
	}
}

func TestExecuteInline(t *testing.T) {
	h := NewExecutionHandler(logger.NewForTesting(), newHandlerEngine(), nil, nil)
	router := newTestRouter(h)

	body, _ := json.Marshal(ExecuteInlineRequest{
		Workflow:     simpleWorkflow(),
		TriggerInput: map[string]interface{}{"lead": "acme"},
	})

	req := httptest.NewRequest("POST", "/executions", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var execution models.Execution
	if err := json.Unmarshal(rec.Body.Bytes(), &execution); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if execution.Status != models.ExecutionStatusSuccess {
		t.Errorf("expected success status, got %s", execution.Status)
	}
}

func TestExecuteInlineInvalidWorkflow(t *testing.T) {
	h := NewExecutionHandler(logger.NewForTesting(), newHandlerEngine(), nil, nil)
	router := newTestRouter(h)

	workflow := simpleWorkflow()
	workflow.Name = ""
	body, _ := json.Marshal(ExecuteInlineRequest{Workflow: workflow})

	req := httptest.NewRequest("POST", "/executions", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for invalid workflow, got %d", rec.Code)
	}
}

func TestExecuteInlineNoTrigger(t *testing.T) {
	h := NewExecutionHandler(logger.NewForTesting(), newHandlerEngine(), nil, nil)
	router := newTestRouter(h)

	workflow := simpleWorkflow()
	workflow.Nodes = workflow.Nodes[1:]
	workflow.Connections = nil
	body, _ := json.Marshal(ExecuteInlineRequest{Workflow: workflow})

	req := httptest.NewRequest("POST", "/executions", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for trigger-less workflow, got %d", rec.Code)
	}
}

func TestExecuteStoredWorkflow(t *testing.T) {
	source := &mockWorkflowSource{
		getFunc: func(ctx context.Context, id string) (*models.Workflow, error) {
			if id != "wf-1" {
				return nil, errors.New("not found")
			}
			return simpleWorkflow(), nil
		},
	}

	h := NewExecutionHandler(logger.NewForTesting(), newHandlerEngine(), source, nil)
	router := newTestRouter(h)

	req := httptest.NewRequest("POST", "/workflows/wf-1/execute",
		bytes.NewReader([]byte(`{"trigger_input": {"lead": "acme"}}`)))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestExecuteStoredWorkflowNotFound(t *testing.T) {
	h := NewExecutionHandler(logger.NewForTesting(), newHandlerEngine(), &mockWorkflowSource{}, nil)
	router := newTestRouter(h)

	req := httptest.NewRequest("POST", "/workflows/ghost/execute", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestCancelExecutionInvalidID(t *testing.T) {
	h := NewExecutionHandler(logger.NewForTesting(), newHandlerEngine(), nil, nil)
	router := newTestRouter(h)

	req := httptest.NewRequest("POST", "/executions/not-a-uuid/cancel", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestCancelExecutionUnknownID(t *testing.T) {
	h := NewExecutionHandler(logger.NewForTesting(), newHandlerEngine(), nil, nil)
	router := newTestRouter(h)

	req := httptest.NewRequest("POST", "/executions/"+uuid.NewString()+"/cancel", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}

	var resp CancelResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if resp.Cancelled {
		t.Error("expected cancelled=false for unknown id")
	}
}

func TestGetExecution(t *testing.T) {
	id := uuid.New()
	reader := &mockExecutionReader{
		getFunc: func(ctx context.Context, got uuid.UUID) (*models.Execution, error) {
			if got != id {
				return nil, errors.New("not found")
			}
			return &models.Execution{ID: id, Status: models.ExecutionStatusSuccess}, nil
		},
	}

	h := NewExecutionHandler(logger.NewForTesting(), newHandlerEngine(), nil, reader)
	router := newTestRouter(h)

	req := httptest.NewRequest("GET", "/executions/"+id.String(), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var execution models.Execution
	if err := json.Unmarshal(rec.Body.Bytes(), &execution); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if execution.ID != id {
		t.Errorf("expected execution %s, got %s", id, execution.ID)
	}
}

func TestListExecutionsPagination(t *testing.T) {
	var gotLimit, gotOffset int
	reader := &mockExecutionReader{
		listFunc: func(ctx context.Context, workflowID *string, status *models.ExecutionStatus, limit, offset int) ([]models.Execution, int64, error) {
			gotLimit, gotOffset = limit, offset
			return []models.Execution{{ID: uuid.New()}}, 1, nil
		},
	}

	h := NewExecutionHandler(logger.NewForTesting(), newHandlerEngine(), nil, reader)
	router := newTestRouter(h)

	req := httptest.NewRequest("GET", "/executions?page=3&page_size=10&status=failed", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if gotLimit != 10 || gotOffset != 20 {
		t.Errorf("expected limit=10 offset=20, got %d/%d", gotLimit, gotOffset)
	}
}
