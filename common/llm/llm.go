package llm

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"
)

// Provider constants for LLM provider selection.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// Message roles understood by the pipeline.
const (
	RoleSystem = "system"
	RoleUser   = "user"
)

// Message represents a conversation message.
type Message struct {
	Role    string // "system" or "user"
	Content string
}

// Completion is the LLM's response to a chat request.
type Completion struct {
	Content          string
	PromptTokens     int
	CompletionTokens int
}

// Client is the message-based LLM contract consumed by the pipeline.
// Temperature is fixed at construction time; use a Pool to share instances
// across call sites that need the same temperature.
type Client interface {
	Chat(ctx context.Context, messages []Message) (*Completion, error)
	Model() string
}

// Config holds LLM client configuration.
type Config struct {
	Provider   string // "openai" or "anthropic"
	APIKey     string // Required: API key for the provider
	BaseURL    string // Optional: custom API endpoint
	Model      string // Model name (e.g., "gpt-4o-mini", "claude-sonnet-4-5-20250514")
	MaxTokens  int
	Timeout    time.Duration // Per-call timeout applied by the transport
	MaxRetries int           // Bounded transport-level retries
}

// New creates a Client for the configured provider at the given temperature.
// Defaults to OpenAI if no provider is specified.
func New(cfg Config, temperature float64) (Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	provider := cfg.Provider
	if provider == "" {
		provider = ProviderOpenAI
	}

	switch provider {
	case ProviderOpenAI:
		return newOpenAIClient(cfg, temperature)
	case ProviderAnthropic:
		return newAnthropicClient(cfg, temperature)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", provider)
	}
}

// ClientPool hands out temperature-keyed clients. Tests substitute a stub
// pool returning scripted clients.
type ClientPool interface {
	Client(temperature float64) (Client, error)
}

// Pool memoizes Client construction per temperature. Responses are never
// memoized. Safe for concurrent use.
type Pool struct {
	cfg Config

	mu      sync.Mutex
	clients map[string]Client
}

func NewPool(cfg Config) *Pool {
	return &Pool{cfg: cfg, clients: make(map[string]Client)}
}

// Client returns the shared instance for the given temperature, constructing
// it on first use.
func (p *Pool) Client(temperature float64) (Client, error) {
	key := strconv.FormatFloat(temperature, 'f', -1, 64)

	p.mu.Lock()
	defer p.mu.Unlock()

	if c, ok := p.clients[key]; ok {
		return c, nil
	}

	c, err := New(p.cfg, temperature)
	if err != nil {
		return nil, err
	}
	p.clients[key] = c
	return c, nil
}
