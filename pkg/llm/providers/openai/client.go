package openai

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/flowmesh/flowmesh/pkg/llm"
	"github.com/sashabaranov/go-openai"
)

// Client implements the LLM Client interface for OpenAI
type Client struct {
	client *openai.Client
	config *llm.Config
}

// NewClient creates a new OpenAI client
func NewClient(config *llm.Config) (*Client, error) {
	if config.APIKey == "" {
		return nil, llm.ErrInvalidAPIKey
	}

	clientConfig := openai.DefaultConfig(config.APIKey)

	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}

	if config.Timeout > 0 {
		clientConfig.HTTPClient = &http.Client{
			Timeout: config.Timeout,
		}
	}

	return &Client{
		client: openai.NewClientWithConfig(clientConfig),
		config: config,
	}, nil
}

// Chat sends a chat completion request
func (c *Client) Chat(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	if len(req.Messages) == 0 {
		return nil, llm.NewError(llm.ProviderOpenAI, llm.ErrorTypeInvalidRequest, "messages cannot be empty", nil)
	}

	resp, err := c.client.CreateChatCompletion(ctx, c.buildRequest(req))
	if err != nil {
		return nil, c.mapError(err)
	}

	return c.mapResponse(&resp), nil
}

// GetProvider returns the provider type
func (c *Client) GetProvider() llm.Provider {
	return llm.ProviderOpenAI
}

// Close closes the client
func (c *Client) Close() error {
	// OpenAI client doesn't require explicit cleanup
	return nil
}

// buildRequest converts our request to OpenAI format
func (c *Client) buildRequest(req *llm.ChatRequest) openai.ChatCompletionRequest {
	model := req.Model
	if model == "" {
		model = c.config.DefaultModel
	}
	if model == "" {
		model = openai.GPT4o
	}

	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages)+1)

	// System prompt goes first on the OpenAI API
	if req.SystemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    string(llm.RoleSystem),
			Content: req.SystemPrompt,
		})
	}

	for _, msg := range req.Messages {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    string(msg.Role),
			Content: msg.Content,
		})
	}

	openaiReq := openai.ChatCompletionRequest{
		Model:    model,
		Messages: messages,
	}

	if req.MaxTokens > 0 {
		openaiReq.MaxTokens = req.MaxTokens
	}

	if req.Temperature > 0 {
		openaiReq.Temperature = float32(req.Temperature)
	}

	return openaiReq
}

// mapResponse converts OpenAI response to our format
func (c *Client) mapResponse(resp *openai.ChatCompletionResponse) *llm.ChatResponse {
	var content string
	var finishReason string
	if len(resp.Choices) > 0 {
		content = resp.Choices[0].Message.Content
		finishReason = string(resp.Choices[0].FinishReason)
	}

	return &llm.ChatResponse{
		ID:       resp.ID,
		Content:  content,
		Model:    resp.Model,
		Provider: llm.ProviderOpenAI,
		Usage: &llm.TokenUsage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
		FinishReason: finishReason,
		CreatedAt:    time.Unix(resp.Created, 0),
	}
}

// mapError converts OpenAI errors to our error format
func (c *Client) mapError(err error) error {
	if err == nil {
		return nil
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusBadRequest:
			return llm.NewError(llm.ProviderOpenAI, llm.ErrorTypeInvalidRequest, apiErr.Message, err)
		case http.StatusUnauthorized, http.StatusForbidden:
			return llm.NewError(llm.ProviderOpenAI, llm.ErrorTypeAuthentication, apiErr.Message, err)
		case http.StatusTooManyRequests:
			return llm.NewError(llm.ProviderOpenAI, llm.ErrorTypeRateLimit, apiErr.Message, err)
		case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable:
			return llm.NewError(llm.ProviderOpenAI, llm.ErrorTypeServiceUnavailable, apiErr.Message, err)
		default:
			return llm.NewError(llm.ProviderOpenAI, llm.ErrorTypeUnknown, apiErr.Message, err)
		}
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return llm.NewError(llm.ProviderOpenAI, llm.ErrorTypeTimeout, "request timeout", err)
	}

	return llm.NewError(llm.ProviderOpenAI, llm.ErrorTypeUnknown, err.Error(), err)
}
