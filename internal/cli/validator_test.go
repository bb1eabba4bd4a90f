package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempWorkflow(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "workflow.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestValidateWorkflowFile(t *testing.T) {
	path := writeTempWorkflow(t, `{
		"id": "wf-1",
		"name": "lead scoring",
		"nodes": [
			{"id": "start", "kind": "trigger"},
			{"id": "notify", "kind": "action", "integration": "slack",
			 "config": {"action_id": "send_message"}}
		],
		"connections": [
			{"from_node": "start", "to_node": "notify"}
		]
	}`)

	result, err := ValidateWorkflowFile(path)
	require.NoError(t, err)
	assert.True(t, result.Valid)
	assert.Empty(t, result.Errors)
}

func TestValidateWorkflowFileInvalidJSON(t *testing.T) {
	path := writeTempWorkflow(t, `{not json`)

	result, err := ValidateWorkflowFile(path)
	require.NoError(t, err)
	assert.False(t, result.Valid)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "Invalid JSON")
}

func TestValidateWorkflowFileInvalidDefinition(t *testing.T) {
	path := writeTempWorkflow(t, `{"id": "", "name": "", "nodes": []}`)

	result, err := ValidateWorkflowFile(path)
	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.NotEmpty(t, result.Errors)
}

func TestValidateWorkflowFileMissing(t *testing.T) {
	_, err := ValidateWorkflowFile(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}
