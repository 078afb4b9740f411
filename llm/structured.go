package llm

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/google/uuid"

	"github.com/BaSui01/pipeflow/types"
)

// StructuredClient asks a provider for a schema-constrained completion and
// decodes the answer into a Go value. Models occasionally wrap JSON in
// markdown fences even in structured mode, so the decoder strips them.
type StructuredClient struct {
	provider Provider
}

// NewStructuredClient wraps a provider.
func NewStructuredClient(provider Provider) *StructuredClient {
	return &StructuredClient{provider: provider}
}

// Complete sends messages with a json_schema response format and decodes the
// first choice into out. A nil schema falls back to json_object mode.
func (c *StructuredClient) Complete(ctx context.Context, model string, messages []types.Message, schema *types.JSONSchema, out any) (*ChatResponse, error) {
	req := &ChatRequest{
		TraceID:  uuid.NewString(),
		Model:    model,
		Messages: messages,
	}
	if schema != nil {
		req.ResponseFormat = &ResponseFormat{
			Type: "json_schema",
			JSONSchema: &JSONSchemaFormat{
				Name:   "response",
				Strict: true,
				Schema: schema,
			},
		}
	} else {
		req.ResponseFormat = &ResponseFormat{Type: "json_object"}
	}

	resp, err := c.provider.Completion(ctx, req)
	if err != nil {
		return nil, err
	}
	content := resp.Content()
	if content == "" {
		return resp, types.NewError(types.ErrUpstreamError, "completion returned no content").
			WithAgent(c.provider.Name()).WithRetryable(true)
	}
	if err := json.Unmarshal([]byte(StripFences(content)), out); err != nil {
		return resp, types.NewErrorf(types.ErrUpstreamError, "structured completion is not valid JSON: %v", err).
			WithAgent(c.provider.Name()).WithRetryable(true)
	}
	return resp, nil
}

// StripFences removes a surrounding markdown code fence, if present.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		// Drop the language tag line ("json", "JSON", ...).
		s = s[i+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
