package ai

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/flowmesh/flowmesh/pkg/config"
	"github.com/flowmesh/flowmesh/pkg/llm"
	"github.com/flowmesh/flowmesh/pkg/llm/providers/anthropic"
	"github.com/flowmesh/flowmesh/pkg/llm/providers/openai"
	"github.com/flowmesh/flowmesh/pkg/logger"
	"github.com/flowmesh/flowmesh/pkg/metrics"
	"golang.org/x/time/rate"
)

// ErrNoProviderConfigured is returned when no provider has credentials
// loaded.
var ErrNoProviderConfigured = errors.New("no AI provider configured")

// AllProvidersFailedError is returned after exhausting the fallback order.
type AllProvidersFailedError struct {
	Attempts     int
	LastProvider string
	LastErr      error
}

func (e *AllProvidersFailedError) Error() string {
	return fmt.Sprintf("all AI providers failed after %d attempts, last provider %s: %v",
		e.Attempts, e.LastProvider, e.LastErr)
}

func (e *AllProvidersFailedError) Unwrap() error {
	return e.LastErr
}

// taskRoutes maps a task category to the providers capable of serving it,
// in priority order. Unknown task types fall back to defaultOrder.
var taskRoutes = map[string][]string{
	"text_generation": {"anthropic", "openai"},
	"code_generation": {"anthropic", "openai"},
	"analysis":        {"anthropic", "openai"},
	"summarization":   {"openai", "anthropic"},
	"classification":  {"openai", "anthropic"},
	"chat":            {"anthropic", "openai"},
}

var defaultOrder = []string{"anthropic", "openai"}

// CompletionRequest describes one completion to route.
type CompletionRequest struct {
	Messages        []llm.Message
	SystemPrompt    string
	TaskType        string
	ModelPreference string
	Temperature     float64
	MaxTokens       int
}

// CompletionResult reports the outcome of a routed completion. Callers must
// not assume the originally preferred provider answered.
type CompletionResult struct {
	Content   string          `json:"content"`
	Provider  string          `json:"provider"`
	Model     string          `json:"model"`
	Attempts  int             `json:"attempts"`
	Usage     *llm.TokenUsage `json:"usage,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

type provider struct {
	cfg     config.ProviderConfig
	client  llm.Client
	limiter *rate.Limiter
}

// Router selects an AI provider per request and falls back through the
// capable-provider order on failure. Safe for concurrent use.
type Router struct {
	mu          sync.Mutex
	providers   map[string]*provider
	maxAttempts int
	timeout     time.Duration
	usage       map[string]int64
	metrics     *metrics.Metrics
	logger      *logger.Logger
}

// SetMetrics enables per-attempt instrumentation.
func (r *Router) SetMetrics(m *metrics.Metrics) {
	r.metrics = m
}

// NewRouter builds a router from the loaded provider configuration,
// constructing a real client per configured provider.
func NewRouter(cfg config.AIConfig, log *logger.Logger) (*Router, error) {
	r := NewRouterForTesting(cfg.MaxAttempts, log)
	r.timeout = cfg.Timeout

	for _, pc := range cfg.Providers {
		clientCfg := &llm.Config{
			APIKey:  pc.APIKey,
			BaseURL: pc.BaseURL,
			Timeout: cfg.Timeout,
		}
		if len(pc.Models) > 0 {
			clientCfg.DefaultModel = pc.Models[0]
		}

		var client llm.Client
		var err error

		switch pc.Name {
		case "anthropic":
			clientCfg.Provider = llm.ProviderAnthropic
			client, err = anthropic.NewClient(clientCfg)
		case "openai":
			clientCfg.Provider = llm.ProviderOpenAI
			client, err = openai.NewClient(clientCfg)
		default:
			return nil, fmt.Errorf("unknown AI provider: %s", pc.Name)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to build %s client: %w", pc.Name, err)
		}

		r.Register(pc, client)
	}

	return r, nil
}

// NewRouterForTesting builds an empty router; tests register fake clients
// with Register.
func NewRouterForTesting(maxAttempts int, log *logger.Logger) *Router {
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	return &Router{
		providers:   make(map[string]*provider),
		maxAttempts: maxAttempts,
		usage:       make(map[string]int64),
		logger:      log,
	}
}

// Register adds a provider to the routing table.
func (r *Router) Register(cfg config.ProviderConfig, client llm.Client) {
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 10
	}
	r.providers[cfg.Name] = &provider{
		cfg:     cfg,
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(rps), rps),
	}
}

// Complete routes one completion request, retrying against the next
// eligible provider on failure, up to the configured attempt budget.
func (r *Router) Complete(ctx context.Context, req CompletionRequest) (*CompletionResult, error) {
	candidates := r.candidatesFor(req)
	if len(candidates) == 0 {
		return nil, ErrNoProviderConfigured
	}

	var attempts int
	var lastProvider string
	var lastErr error

	for _, name := range candidates {
		if attempts >= r.maxAttempts {
			break
		}

		p := r.providers[name]
		attempts++
		lastProvider = name

		if err := p.limiter.Wait(ctx); err != nil {
			lastErr = err
			break
		}

		chatReq := &llm.ChatRequest{
			Messages:     req.Messages,
			SystemPrompt: req.SystemPrompt,
			Temperature:  req.Temperature,
			MaxTokens:    r.clampTokens(p, req.MaxTokens),
		}
		if req.ModelPreference != "" && p.hasModel(req.ModelPreference) {
			chatReq.Model = req.ModelPreference
		}

		resp, err := p.client.Chat(ctx, chatReq)
		if err != nil {
			lastErr = err
			if r.metrics != nil {
				r.metrics.AIRequestsTotal.WithLabelValues(name, "error").Inc()
			}
			r.logger.Warnf("AI provider %s failed (attempt %d/%d): %v", name, attempts, r.maxAttempts, err)
			if ctx.Err() != nil {
				break
			}
			// A malformed request fails identically everywhere; auth
			// errors are provider-specific, so those still fall through.
			if !llm.IsRetryable(err) {
				var provErr *llm.Error
				if errors.As(err, &provErr) && provErr.Type == llm.ErrorTypeInvalidRequest {
					break
				}
			}
			continue
		}

		r.recordUsage(name)
		if r.metrics != nil {
			r.metrics.AIRequestsTotal.WithLabelValues(name, "success").Inc()
		}

		return &CompletionResult{
			Content:   resp.Content,
			Provider:  string(resp.Provider),
			Model:     resp.Model,
			Attempts:  attempts,
			Usage:     resp.Usage,
			Timestamp: resp.CreatedAt,
		}, nil
	}

	return nil, &AllProvidersFailedError{
		Attempts:     attempts,
		LastProvider: lastProvider,
		LastErr:      lastErr,
	}
}

// candidatesFor resolves the provider fallback order for a request. A model
// preference naming a configured provider (or one of its models) puts that
// provider first; the rest of the order follows, deduplicated.
func (r *Router) candidatesFor(req CompletionRequest) []string {
	order, ok := taskRoutes[req.TaskType]
	if !ok {
		order = defaultOrder
	}

	var preferred string
	if req.ModelPreference != "" {
		if _, ok := r.providers[req.ModelPreference]; ok {
			preferred = req.ModelPreference
		} else {
			for name, p := range r.providers {
				if p.hasModel(req.ModelPreference) {
					preferred = name
					break
				}
			}
		}
	}

	seen := make(map[string]bool)
	var out []string

	appendIfConfigured := func(name string) {
		if seen[name] {
			return
		}
		if _, ok := r.providers[name]; !ok {
			return
		}
		seen[name] = true
		out = append(out, name)
	}

	if preferred != "" {
		appendIfConfigured(preferred)
	}
	for _, name := range order {
		appendIfConfigured(name)
	}
	for _, name := range defaultOrder {
		appendIfConfigured(name)
	}

	return out
}

func (r *Router) clampTokens(p *provider, maxTokens int) int {
	if p.cfg.MaxTokens > 0 && maxTokens > p.cfg.MaxTokens {
		return p.cfg.MaxTokens
	}
	return maxTokens
}

func (r *Router) recordUsage(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.usage[name]++
}

// Usage returns a snapshot of the per-provider success counters. For
// observability only.
func (r *Router) Usage() map[string]int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]int64, len(r.usage))
	for k, v := range r.usage {
		out[k] = v
	}
	return out
}

// HasProvider reports whether the given integration name is backed by a
// configured AI provider.
func (r *Router) HasProvider(name string) bool {
	_, ok := r.providers[name]
	return ok
}

// Close releases all provider clients.
func (r *Router) Close() error {
	var firstErr error
	for _, p := range r.providers {
		if err := p.client.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (p *provider) hasModel(model string) bool {
	for _, m := range p.cfg.Models {
		if m == model {
			return true
		}
	}
	return false
}
