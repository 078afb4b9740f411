package openaicompat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/BaSui01/pipeflow/llm"
	"github.com/BaSui01/pipeflow/types"
)

// Config holds the settings for an OpenAI-compatible provider.
type Config struct {
	// ProviderName is the unique identifier reported by Name().
	ProviderName string

	// APIKey authenticates requests via a Bearer header.
	APIKey string

	// BaseURL is the API root (e.g. "https://api.openai.com").
	BaseURL string

	// DefaultModel is used when the request does not name a model.
	DefaultModel string

	// Timeout is the HTTP client timeout. Defaults to 30s if zero.
	Timeout time.Duration

	// EndpointPath is the chat completions path. Defaults to "/v1/chat/completions".
	EndpointPath string

	// ModelsEndpoint is the models list path used by HealthCheck.
	// Defaults to "/v1/models".
	ModelsEndpoint string

	// RequestsPerSecond caps the local request rate. Zero disables limiting.
	RequestsPerSecond float64

	// Burst is the rate limiter burst size. Defaults to 1 when limiting is on.
	Burst int
}

// Provider is an llm.Provider over the OpenAI chat-completions protocol.
type Provider struct {
	cfg     Config
	client  *http.Client
	logger  *zap.Logger
	limiter *rate.Limiter
}

// New creates a provider with the given config.
func New(cfg Config, logger *zap.Logger) *Provider {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	if cfg.EndpointPath == "" {
		cfg.EndpointPath = "/v1/chat/completions"
	}
	if cfg.ModelsEndpoint == "" {
		cfg.ModelsEndpoint = "/v1/models"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}
	return &Provider{
		cfg:     cfg,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
		limiter: limiter,
	}
}

// Name returns the provider name.
func (p *Provider) Name() string { return p.cfg.ProviderName }

func (p *Provider) endpoint(path string) string {
	return fmt.Sprintf("%s%s", strings.TrimRight(p.cfg.BaseURL, "/"), path)
}

func (p *Provider) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
}

// wire format

type wireMessage struct {
	Role    string `json:"role"`
	Content string `json:"content,omitempty"`
	Name    string `json:"name,omitempty"`
}

type wireRequest struct {
	Model          string              `json:"model"`
	Messages       []wireMessage       `json:"messages"`
	MaxTokens      int                 `json:"max_tokens,omitempty"`
	Temperature    float32             `json:"temperature,omitempty"`
	TopP           float32             `json:"top_p,omitempty"`
	Stop           []string            `json:"stop,omitempty"`
	ResponseFormat *llm.ResponseFormat `json:"response_format,omitempty"`
}

type wireChoice struct {
	Index        int         `json:"index"`
	FinishReason string      `json:"finish_reason"`
	Message      wireMessage `json:"message"`
}

type wireUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type wireResponse struct {
	ID      string       `json:"id"`
	Model   string       `json:"model"`
	Choices []wireChoice `json:"choices"`
	Usage   *wireUsage   `json:"usage,omitempty"`
	Created int64        `json:"created,omitempty"`
}

// Completion performs a non-streaming chat completion.
func (p *Provider) Completion(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return nil, types.NewError(types.ErrRateLimited, err.Error()).WithAgent(p.Name())
		}
	}

	traceID := req.TraceID
	if traceID == "" {
		traceID = uuid.NewString()
	}
	model := req.Model
	if model == "" {
		model = p.cfg.DefaultModel
	}

	body := wireRequest{
		Model:          model,
		Messages:       toWireMessages(req.Messages),
		MaxTokens:      req.MaxTokens,
		Temperature:    req.Temperature,
		TopP:           req.TopP,
		Stop:           req.Stop,
		ResponseFormat: req.ResponseFormat,
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint(p.cfg.EndpointPath), bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	p.setHeaders(httpReq)
	httpReq.Header.Set("X-Trace-Id", traceID)

	start := time.Now()
	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, types.NewError(types.ErrUpstreamError, err.Error()).
			WithAgent(p.Name()).WithRetryable(true)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		msg := llm.ReadErrorMessage(resp.Body)
		mapped := llm.MapHTTPError(resp.StatusCode, msg, p.Name())
		p.logger.Warn("completion failed",
			zap.String("provider", p.Name()),
			zap.String("trace_id", traceID),
			zap.Int("status", resp.StatusCode),
			zap.String("code", string(mapped.Code)))
		return nil, mapped
	}

	var wire wireResponse
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return nil, types.NewError(types.ErrUpstreamError, err.Error()).
			WithAgent(p.Name()).WithRetryable(true)
	}

	result := toChatResponse(wire, p.Name())
	p.logger.Debug("completion ok",
		zap.String("provider", p.Name()),
		zap.String("trace_id", traceID),
		zap.String("model", result.Model),
		zap.Int("total_tokens", result.Usage.TotalTokens),
		zap.Duration("latency", time.Since(start)))
	return result, nil
}

// HealthCheck probes the models endpoint.
func (p *Provider) HealthCheck(ctx context.Context) (*llm.HealthStatus, error) {
	start := time.Now()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, p.endpoint(p.cfg.ModelsEndpoint), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	p.setHeaders(httpReq)

	resp, err := p.client.Do(httpReq)
	latency := time.Since(start)
	if err != nil {
		return &llm.HealthStatus{Healthy: false, Latency: latency}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg := llm.ReadErrorMessage(resp.Body)
		return &llm.HealthStatus{Healthy: false, Latency: latency},
			fmt.Errorf("%s health check failed: status=%d msg=%s", p.Name(), resp.StatusCode, msg)
	}
	return &llm.HealthStatus{Healthy: true, Latency: latency}, nil
}

func toWireMessages(msgs []types.Message) []wireMessage {
	out := make([]wireMessage, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, wireMessage{
			Role:    string(m.Role),
			Content: m.Content,
			Name:    m.Name,
		})
	}
	return out
}

func toChatResponse(wire wireResponse, provider string) *llm.ChatResponse {
	choices := make([]llm.ChatChoice, 0, len(wire.Choices))
	for _, c := range wire.Choices {
		choices = append(choices, llm.ChatChoice{
			Index:        c.Index,
			FinishReason: c.FinishReason,
			Message: types.Message{
				Role:    types.RoleAssistant,
				Content: c.Message.Content,
				Name:    c.Message.Name,
			},
		})
	}
	resp := &llm.ChatResponse{
		ID:       wire.ID,
		Provider: provider,
		Model:    wire.Model,
		Choices:  choices,
	}
	if wire.Usage != nil {
		resp.Usage = llm.ChatUsage{
			PromptTokens:     wire.Usage.PromptTokens,
			CompletionTokens: wire.Usage.CompletionTokens,
			TotalTokens:      wire.Usage.TotalTokens,
		}
	}
	if wire.Created != 0 {
		resp.CreatedAt = time.Unix(wire.Created, 0)
	}
	return resp
}
