package llm

import (
	"context"
	"time"

	"github.com/BaSui01/pipeflow/types"
)

// ResponseFormat constrains the shape of a completion. With Type
// "json_schema" the provider is asked to emit JSON conforming to
// JSONSchema; providers that only support "json_object" mode still get
// the schema inlined into the prompt by the caller.
type ResponseFormat struct {
	Type       string            `json:"type"` // "text", "json_object" or "json_schema"
	JSONSchema *JSONSchemaFormat `json:"json_schema,omitempty"`
}

// JSONSchemaFormat names a schema for structured output mode.
type JSONSchemaFormat struct {
	Name   string            `json:"name"`
	Strict bool              `json:"strict,omitempty"`
	Schema *types.JSONSchema `json:"schema"`
}

// ChatRequest is a provider-neutral chat completion request.
type ChatRequest struct {
	TraceID        string          `json:"trace_id"`
	Model          string          `json:"model"`
	Messages       []types.Message `json:"messages"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	Temperature    float32         `json:"temperature,omitempty"`
	TopP           float32         `json:"top_p,omitempty"`
	Stop           []string        `json:"stop,omitempty"`
	ResponseFormat *ResponseFormat `json:"response_format,omitempty"`
	Timeout        time.Duration   `json:"timeout,omitempty"`
}

// ChatUsage reports token consumption for a completion.
type ChatUsage struct {
	PromptTokens     int `json:"prompt_tokens,omitempty"`
	CompletionTokens int `json:"completion_tokens,omitempty"`
	TotalTokens      int `json:"total_tokens,omitempty"`
}

// ChatChoice is a single completion candidate.
type ChatChoice struct {
	Index        int           `json:"index"`
	FinishReason string        `json:"finish_reason,omitempty"`
	Message      types.Message `json:"message"`
}

// ChatResponse is a provider-neutral chat completion response.
type ChatResponse struct {
	ID        string       `json:"id,omitempty"`
	Provider  string       `json:"provider,omitempty"`
	Model     string       `json:"model"`
	Choices   []ChatChoice `json:"choices"`
	Usage     ChatUsage    `json:"usage,omitempty"`
	CreatedAt time.Time    `json:"created_at,omitempty"`
}

// Content returns the text of the first choice, or "" when the response
// carries no choices.
func (r *ChatResponse) Content() string {
	if r == nil || len(r.Choices) == 0 {
		return ""
	}
	return r.Choices[0].Message.Content
}

// HealthStatus reports the outcome of a provider liveness probe.
type HealthStatus struct {
	Healthy bool          `json:"healthy"`
	Latency time.Duration `json:"latency"`
}

// Provider is the uniform adapter the router calls. Implementations map
// their transport failures onto *types.Error so callers can branch on
// code and retryability without knowing the provider.
type Provider interface {
	// Completion performs a synchronous chat completion.
	Completion(ctx context.Context, req *ChatRequest) (*ChatResponse, error)

	// HealthCheck performs a lightweight liveness probe.
	HealthCheck(ctx context.Context) (*HealthStatus, error)

	// Name returns the provider's unique identifier.
	Name() string
}
