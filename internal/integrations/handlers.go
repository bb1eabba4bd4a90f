package integrations

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/flowmesh/flowmesh/pkg/logger"
	"github.com/google/uuid"
)

// SlackHandler posts messages to a Slack incoming webhook. Without a
// webhook_url in the action config it logs and reports the message as
// delivered, matching the other notification placeholders.
type SlackHandler struct {
	logger     *logger.Logger
	httpClient *http.Client
}

// NewSlackHandler creates a Slack integration handler
func NewSlackHandler(log *logger.Logger) *SlackHandler {
	return &SlackHandler{
		logger: log,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (h *SlackHandler) Execute(
	ctx context.Context,
	action string,
	config map[string]interface{},
	execContext map[string]interface{},
) (map[string]interface{}, error) {
	switch action {
	case "send_message":
		channel, _ := config["channel"].(string)
		message, _ := config["message"].(string)
		message = interpolate(message, execContext)

		if webhookURL, ok := config["webhook_url"].(string); ok && webhookURL != "" {
			payload := map[string]interface{}{"text": message}
			if channel != "" {
				payload["channel"] = channel
			}
			if _, err := postJSON(ctx, h.httpClient, webhookURL, payload, nil); err != nil {
				return nil, fmt.Errorf("slack webhook call failed: %w", err)
			}
		} else {
			h.logger.Infof("Slack message to %s: %s", channel, message)
		}

		return map[string]interface{}{
			"channel": channel,
			"message": message,
			"sent_at": time.Now().Unix(),
		}, nil

	default:
		return nil, fmt.Errorf("unsupported slack action: %s", action)
	}
}

// EmailHandler delivers email notifications. Delivery is a logged
// placeholder pending an SMTP transport.
type EmailHandler struct {
	logger *logger.Logger
}

// NewEmailHandler creates an email integration handler
func NewEmailHandler(log *logger.Logger) *EmailHandler {
	return &EmailHandler{logger: log}
}

func (h *EmailHandler) Execute(
	ctx context.Context,
	action string,
	config map[string]interface{},
	execContext map[string]interface{},
) (map[string]interface{}, error) {
	switch action {
	case "send", "send_email":
		to, _ := config["to"].(string)
		subject, _ := config["subject"].(string)
		body, _ := config["body"].(string)

		subject = interpolate(subject, execContext)
		body = interpolate(body, execContext)

		h.logger.Infof("Email sent to %s: %s", to, subject)

		return map[string]interface{}{
			"to":      to,
			"subject": subject,
			"body":    body,
			"sent_at": time.Now().Unix(),
		}, nil

	default:
		return nil, fmt.Errorf("unsupported email action: %s", action)
	}
}

// WebhookHandler calls an arbitrary HTTP endpoint.
type WebhookHandler struct {
	logger     *logger.Logger
	httpClient *http.Client
}

// NewWebhookHandler creates a webhook integration handler
func NewWebhookHandler(log *logger.Logger) *WebhookHandler {
	return &WebhookHandler{
		logger: log,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (h *WebhookHandler) Execute(
	ctx context.Context,
	action string,
	config map[string]interface{},
	execContext map[string]interface{},
) (map[string]interface{}, error) {
	url, _ := config["url"].(string)
	if url == "" {
		return nil, fmt.Errorf("webhook URL is required")
	}

	method, _ := config["method"].(string)
	if method == "" {
		method = http.MethodPost
	}

	headers := make(map[string]string)
	if raw, ok := config["headers"].(map[string]interface{}); ok {
		for k, v := range raw {
			if s, ok := v.(string); ok {
				headers[k] = s
			}
		}
	}

	var body map[string]interface{}
	if raw, ok := config["body"].(map[string]interface{}); ok {
		body = interpolateMap(raw, execContext)
	}

	h.logger.Infof("Calling webhook: %s %s", method, url)

	statusCode, respBody, err := doRequest(ctx, h.httpClient, method, url, body, headers)
	if err != nil {
		return nil, fmt.Errorf("webhook request failed: %w", err)
	}

	result := map[string]interface{}{
		"url":         url,
		"method":      method,
		"status_code": statusCode,
		"response":    respBody,
		"called_at":   time.Now().Unix(),
	}

	if statusCode >= 400 {
		return result, fmt.Errorf("webhook returned error status: %d", statusCode)
	}

	return result, nil
}

func postJSON(ctx context.Context, client *http.Client, url string, payload map[string]interface{}, headers map[string]string) (int, error) {
	status, _, err := doRequest(ctx, client, http.MethodPost, url, payload, headers)
	return status, err
}

func doRequest(
	ctx context.Context,
	client *http.Client,
	method, url string,
	payload map[string]interface{},
	headers map[string]string,
) (int, string, error) {
	var bodyBytes []byte
	var err error

	if payload != nil {
		bodyBytes, err = json.Marshal(payload)
		if err != nil {
			return 0, "", fmt.Errorf("failed to marshal request body: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return 0, "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Flowmesh/1.0")
	req.Header.Set("X-Request-ID", uuid.New().String())
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := client.Do(req)
	if err != nil {
		return 0, "", err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, "", fmt.Errorf("failed to read response: %w", err)
	}

	return resp.StatusCode, string(respBody), nil
}

// interpolate replaces ${path} references in a string with values from
// context using dot notation.
func interpolate(value string, execContext map[string]interface{}) string {
	if !strings.Contains(value, "${") {
		return value
	}

	var out strings.Builder
	rest := value
	for {
		start := strings.Index(rest, "${")
		if start < 0 {
			out.WriteString(rest)
			break
		}
		end := strings.Index(rest[start:], "}")
		if end < 0 {
			out.WriteString(rest)
			break
		}

		out.WriteString(rest[:start])
		path := rest[start+2 : start+end]
		if v := contextValue(path, execContext); v != nil {
			out.WriteString(fmt.Sprintf("%v", v))
		}
		rest = rest[start+end+1:]
	}

	return out.String()
}

// interpolateMap replaces ${path} references in string values, recursing
// into nested maps.
func interpolateMap(data map[string]interface{}, execContext map[string]interface{}) map[string]interface{} {
	result := make(map[string]interface{})

	for key, value := range data {
		switch v := value.(type) {
		case string:
			if strings.HasPrefix(v, "${") && strings.HasSuffix(v, "}") {
				path := strings.TrimSuffix(strings.TrimPrefix(v, "${"), "}")
				result[key] = contextValue(path, execContext)
			} else {
				result[key] = interpolate(v, execContext)
			}
		case map[string]interface{}:
			result[key] = interpolateMap(v, execContext)
		default:
			result[key] = value
		}
	}

	return result
}

// contextValue retrieves a value from context using dot notation.
func contextValue(path string, execContext map[string]interface{}) interface{} {
	parts := strings.Split(path, ".")
	current := execContext

	for i, part := range parts {
		val, exists := current[part]
		if !exists {
			return nil
		}

		if i == len(parts)-1 {
			return val
		}

		nextMap, ok := val.(map[string]interface{})
		if !ok {
			return nil
		}
		current = nextMap
	}

	return nil
}
