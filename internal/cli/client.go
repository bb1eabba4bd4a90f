package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/flowmesh/flowmesh/internal/models"
)

// Client is a thin HTTP client for the engine API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

func (c *Client) doRequest(method, path string, body interface{}) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequest(method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}

	return resp, nil
}

// HealthCheck verifies the API is reachable
func (c *Client) HealthCheck() error {
	resp, err := c.doRequest("GET", "/health", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("API returned status %d", resp.StatusCode)
	}

	return nil
}

// ExecuteWorkflow runs an inline workflow definition and waits for the
// terminal execution record.
func (c *Client) ExecuteWorkflow(workflow *models.Workflow, triggerInput map[string]interface{}) (*models.Execution, error) {
	payload := map[string]interface{}{
		"workflow":      workflow,
		"trigger_input": triggerInput,
	}

	resp, err := c.doRequest("POST", "/api/v1/executions", payload)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("execution request failed: %s (status: %d)", string(body), resp.StatusCode)
	}

	var execution models.Execution
	if err := json.NewDecoder(resp.Body).Decode(&execution); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &execution, nil
}

// GetExecution retrieves an execution record by ID
func (c *Client) GetExecution(id string) (*models.Execution, error) {
	resp, err := c.doRequest("GET", "/api/v1/executions/"+id, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("failed to get execution: %s (status: %d)", string(body), resp.StatusCode)
	}

	var execution models.Execution
	if err := json.NewDecoder(resp.Body).Decode(&execution); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &execution, nil
}

// CancelExecution requests cancellation of a running execution. Returns
// whether the execution was found and cancelled.
func (c *Client) CancelExecution(id string) (bool, error) {
	resp, err := c.doRequest("POST", "/api/v1/executions/"+id+"/cancel", nil)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	var result struct {
		Cancelled bool `json:"cancelled"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return false, fmt.Errorf("failed to decode response: %w", err)
	}

	return result.Cancelled, nil
}

// ListExecutions retrieves recent executions, optionally filtered
func (c *Client) ListExecutions(workflowID, status string, limit int) (*models.ExecutionListResponse, error) {
	params := url.Values{}
	if workflowID != "" {
		params.Set("workflow_id", workflowID)
	}
	if status != "" {
		params.Set("status", status)
	}
	if limit > 0 {
		params.Set("page_size", strconv.Itoa(limit))
	}

	path := "/api/v1/executions"
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	resp, err := c.doRequest("GET", path, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("failed to list executions: %s (status: %d)", string(body), resp.StatusCode)
	}

	var result models.ExecutionListResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &result, nil
}
