// Package mocks holds test doubles for external dependencies.
package mocks

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/BaSui01/pipeflow/llm"
	"github.com/BaSui01/pipeflow/types"
)

// ProviderCall records one Completion invocation.
type ProviderCall struct {
	Request  *llm.ChatRequest
	Response *llm.ChatResponse
	Error    error
}

// Provider is a scriptable llm.Provider. One built by NewProvider answers
// every request with "Mock response"; configure it with the With* builders.
type Provider struct {
	mu sync.RWMutex

	response string
	err      error

	promptTokens     int
	completionTokens int

	delay          time.Duration
	failAfter      int
	callCount      int
	completionFunc func(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error)

	calls []ProviderCall
}

// NewProvider creates a provider that succeeds with a fixed response.
func NewProvider() *Provider {
	return &Provider{
		response:         "Mock response",
		promptTokens:     10,
		completionTokens: 20,
	}
}

// WithResponse sets the fixed completion content.
func (m *Provider) WithResponse(response string) *Provider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.response = response
	return m
}

// WithDecision sets the completion content to a routing decision
// document with the given outcome and reasoning.
func (m *Provider) WithDecision(outcome, reasoning string) *Provider {
	doc, _ := json.Marshal(map[string]string{
		"outcome":   outcome,
		"reasoning": reasoning,
	})
	return m.WithResponse(string(doc))
}

// WithError makes every Completion fail with err.
func (m *Provider) WithError(err error) *Provider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
	return m
}

// WithFailAfter lets the first n calls succeed and fails the rest.
func (m *Provider) WithFailAfter(n int) *Provider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failAfter = n
	return m
}

// WithDelay makes Completion sleep before answering.
func (m *Provider) WithDelay(d time.Duration) *Provider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delay = d
	return m
}

// WithCompletionFunc replaces the canned behaviour entirely.
func (m *Provider) WithCompletionFunc(fn func(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error)) *Provider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.completionFunc = fn
	return m
}

// Name implements llm.Provider.
func (m *Provider) Name() string { return "mock" }

// HealthCheck implements llm.Provider. Always healthy.
func (m *Provider) HealthCheck(ctx context.Context) (*llm.HealthStatus, error) {
	return &llm.HealthStatus{Healthy: true, Latency: 10 * time.Millisecond}, nil
}

// Completion implements llm.Provider.
func (m *Provider) Completion(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.callCount++

	if m.delay > 0 {
		timer := time.NewTimer(m.delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	if m.failAfter > 0 && m.callCount > m.failAfter {
		err := types.NewError(types.ErrUpstreamError, "mock provider: failing after configured call budget").
			WithRetryable(true)
		m.calls = append(m.calls, ProviderCall{Request: req, Error: err})
		return nil, err
	}
	if m.err != nil {
		m.calls = append(m.calls, ProviderCall{Request: req, Error: m.err})
		return nil, m.err
	}
	if m.completionFunc != nil {
		resp, err := m.completionFunc(ctx, req)
		m.calls = append(m.calls, ProviderCall{Request: req, Response: resp, Error: err})
		return resp, err
	}

	resp := &llm.ChatResponse{
		ID:       "mock-response-id",
		Provider: "mock",
		Model:    req.Model,
		Choices: []llm.ChatChoice{{
			FinishReason: "stop",
			Message:      types.NewAssistantMessage(m.response),
		}},
		Usage: llm.ChatUsage{
			PromptTokens:     m.promptTokens,
			CompletionTokens: m.completionTokens,
			TotalTokens:      m.promptTokens + m.completionTokens,
		},
		CreatedAt: time.Now(),
	}
	m.calls = append(m.calls, ProviderCall{Request: req, Response: resp})
	return resp, nil
}

// Calls returns a copy of the recorded invocations.
func (m *Provider) Calls() []ProviderCall {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]ProviderCall{}, m.calls...)
}

// CallCount returns how many times Completion ran.
func (m *Provider) CallCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.callCount
}

// LastCall returns the most recent invocation, or nil.
func (m *Provider) LastCall() *ProviderCall {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.calls) == 0 {
		return nil
	}
	call := m.calls[len(m.calls)-1]
	return &call
}

// Reset clears the recorded calls and any configured error.
func (m *Provider) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
	m.callCount = 0
	m.err = nil
}
