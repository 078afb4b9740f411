package openaicompat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BaSui01/pipeflow/llm"
	"github.com/BaSui01/pipeflow/types"
)

func TestNewDefaults(t *testing.T) {
	tests := []struct {
		name         string
		cfg          Config
		wantEndpoint string
		wantModels   string
	}{
		{
			name:         "all defaults applied",
			cfg:          Config{ProviderName: "test"},
			wantEndpoint: "/v1/chat/completions",
			wantModels:   "/v1/models",
		},
		{
			name: "custom endpoint paths preserved",
			cfg: Config{
				ProviderName:   "custom",
				EndpointPath:   "/api/chat",
				ModelsEndpoint: "/api/models",
			},
			wantEndpoint: "/api/chat",
			wantModels:   "/api/models",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(tt.cfg, nil)
			require.NotNil(t, p)
			assert.Equal(t, tt.wantEndpoint, p.cfg.EndpointPath)
			assert.Equal(t, tt.wantModels, p.cfg.ModelsEndpoint)
			assert.Equal(t, tt.cfg.ProviderName, p.Name())
			assert.NotNil(t, p.client)
			assert.NotNil(t, p.logger)
		})
	}
}

func completionServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *Provider) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	p := New(Config{
		ProviderName: "test",
		APIKey:       "sk-test",
		BaseURL:      srv.URL,
		DefaultModel: "gpt-4o-mini",
	}, zap.NewNop())
	return srv, p
}

func TestCompletionSuccess(t *testing.T) {
	var gotReq wireRequest
	_, p := completionServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.Header.Get("X-Trace-Id"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		json.NewEncoder(w).Encode(wireResponse{
			ID:    "cmpl-1",
			Model: "gpt-4o-mini",
			Choices: []wireChoice{{
				Index:        0,
				FinishReason: "stop",
				Message:      wireMessage{Role: "assistant", Content: `{"outcome":"pass"}`},
			}},
			Usage:   &wireUsage{PromptTokens: 12, CompletionTokens: 5, TotalTokens: 17},
			Created: time.Now().Unix(),
		})
	})

	resp, err := p.Completion(context.Background(), &llm.ChatRequest{
		Messages: []types.Message{types.NewUserMessage("hello")},
		ResponseFormat: &llm.ResponseFormat{
			Type: "json_schema",
			JSONSchema: &llm.JSONSchemaFormat{
				Name:   "response",
				Strict: true,
				Schema: types.NewObjectSchema(),
			},
		},
	})
	require.NoError(t, err)

	// The default model fills in when the request has none.
	assert.Equal(t, "gpt-4o-mini", gotReq.Model)
	require.NotNil(t, gotReq.ResponseFormat)
	assert.Equal(t, "json_schema", gotReq.ResponseFormat.Type)

	assert.Equal(t, "test", resp.Provider)
	assert.Equal(t, `{"outcome":"pass"}`, resp.Content())
	assert.Equal(t, 17, resp.Usage.TotalTokens)
	assert.False(t, resp.CreatedAt.IsZero())
}

func TestCompletionErrorMapping(t *testing.T) {
	tests := []struct {
		name          string
		status        int
		body          string
		wantCode      types.ErrorCode
		wantRetryable bool
	}{
		{"unauthorized", http.StatusUnauthorized, `{"error":{"message":"bad key"}}`, types.ErrUnauthorized, false},
		{"rate limited", http.StatusTooManyRequests, `{"error":{"message":"slow down"}}`, types.ErrRateLimited, true},
		{"bad request", http.StatusBadRequest, `{"error":{"message":"missing model"}}`, types.ErrInvalidRequest, false},
		{"content filtered", http.StatusBadRequest, `{"error":{"message":"blocked by content_filter"}}`, types.ErrContentFiltered, false},
		{"gateway timeout", http.StatusGatewayTimeout, `upstream timed out`, types.ErrUpstreamTimeout, true},
		{"service unavailable", http.StatusServiceUnavailable, `try later`, types.ErrServiceUnavailable, true},
		{"internal error", http.StatusInternalServerError, `boom`, types.ErrUpstreamError, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, p := completionServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})

			_, err := p.Completion(context.Background(), &llm.ChatRequest{
				Messages: []types.Message{types.NewUserMessage("hi")},
			})
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, types.GetErrorCode(err))
			assert.Equal(t, tt.wantRetryable, types.IsRetryable(err))
		})
	}
}

func TestCompletionNetworkErrorIsRetryable(t *testing.T) {
	srv, p := completionServer(t, func(w http.ResponseWriter, r *http.Request) {})
	srv.Close()

	_, err := p.Completion(context.Background(), &llm.ChatRequest{
		Messages: []types.Message{types.NewUserMessage("hi")},
	})
	require.Error(t, err)
	assert.Equal(t, types.ErrUpstreamError, types.GetErrorCode(err))
	assert.True(t, types.IsRetryable(err))
}

func TestRateLimiterHonoursContext(t *testing.T) {
	p := New(Config{
		ProviderName:      "test",
		BaseURL:           "http://127.0.0.1:0",
		RequestsPerSecond: 0.001,
		Burst:             1,
	}, zap.NewNop())
	// Exhaust the burst token so the next call has to wait.
	require.NoError(t, p.limiter.Wait(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := p.Completion(ctx, &llm.ChatRequest{Messages: []types.Message{types.NewUserMessage("hi")}})
	require.Error(t, err)
	assert.Equal(t, types.ErrRateLimited, types.GetErrorCode(err))
}

func TestHealthCheck(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		_, p := completionServer(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v1/models", r.URL.Path)
			w.Write([]byte(`{"object":"list","data":[]}`))
		})
		status, err := p.HealthCheck(context.Background())
		require.NoError(t, err)
		assert.True(t, status.Healthy)
	})

	t.Run("unhealthy", func(t *testing.T) {
		_, p := completionServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
		status, err := p.HealthCheck(context.Background())
		require.Error(t, err)
		assert.False(t, status.Healthy)
	})
}
