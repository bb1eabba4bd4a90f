package llm

import (
	"context"
	"time"
)

// Provider represents the LLM provider type
type Provider string

const (
	ProviderAnthropic Provider = "anthropic"
	ProviderOpenAI    Provider = "openai"
)

// Client defines the interface for LLM providers
type Client interface {
	// Chat sends a chat completion request and returns the response
	Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error)

	// GetProvider returns the provider type
	GetProvider() Provider

	// Close closes the client and releases resources
	Close() error
}

// ChatRequest represents a chat completion request
type ChatRequest struct {
	// Messages contains the conversation history
	Messages []Message `json:"messages"`

	// Model specifies which model to use; empty selects the provider default
	Model string `json:"model,omitempty"`

	// MaxTokens is the maximum number of tokens to generate
	MaxTokens int `json:"max_tokens,omitempty"`

	// Temperature controls randomness (0.0 to 1.0)
	Temperature float64 `json:"temperature,omitempty"`

	// SystemPrompt is the system message (for providers that support it)
	SystemPrompt string `json:"system_prompt,omitempty"`
}

// Message represents a single message in a conversation
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Role represents the role of a message sender
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatResponse represents a chat completion response
type ChatResponse struct {
	// ID is the unique identifier for this completion
	ID string `json:"id"`

	// Content is the generated text
	Content string `json:"content"`

	// Model is the model that was used
	Model string `json:"model"`

	// Provider is the LLM provider that produced the response
	Provider Provider `json:"provider"`

	// Usage contains token usage information
	Usage *TokenUsage `json:"usage"`

	// FinishReason indicates why generation stopped
	FinishReason string `json:"finish_reason"`

	// CreatedAt is when the completion was created
	CreatedAt time.Time `json:"created_at"`
}

// TokenUsage represents token usage statistics
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Config represents LLM client configuration
type Config struct {
	// Provider specifies which LLM provider to use
	Provider Provider `json:"provider"`

	// APIKey is the authentication key
	APIKey string `json:"api_key"`

	// BaseURL is the API base URL (optional, for custom endpoints)
	BaseURL string `json:"base_url,omitempty"`

	// DefaultModel is the model to use if not specified in requests
	DefaultModel string `json:"default_model,omitempty"`

	// Timeout for API requests
	Timeout time.Duration `json:"timeout"`
}
