package llm

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/BaSui01/pipeflow/types"
)

func TestMapHTTPError(t *testing.T) {
	tests := []struct {
		name          string
		status        int
		msg           string
		wantCode      types.ErrorCode
		wantRetryable bool
	}{
		{"401", 401, "bad key", types.ErrUnauthorized, false},
		{"403", 403, "forbidden", types.ErrUnauthorized, false},
		{"429", 429, "slow down", types.ErrRateLimited, true},
		{"400 plain", 400, "bad payload", types.ErrInvalidRequest, false},
		{"400 content filter", 400, "rejected by content_filter", types.ErrContentFiltered, false},
		{"408", 408, "timeout", types.ErrUpstreamTimeout, true},
		{"502", 502, "bad gateway", types.ErrServiceUnavailable, true},
		{"503", 503, "unavailable", types.ErrServiceUnavailable, true},
		{"504", 504, "gateway timeout", types.ErrUpstreamTimeout, true},
		{"500", 500, "boom", types.ErrUpstreamError, true},
		{"418", 418, "teapot", types.ErrUpstreamError, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := MapHTTPError(tt.status, tt.msg, "openai")
			assert.Equal(t, tt.wantCode, err.Code)
			assert.Equal(t, tt.wantRetryable, err.Retryable)
			assert.Equal(t, tt.msg, err.Message)
			assert.Equal(t, "openai", err.Agent)
		})
	}
}

func TestReadErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"openai envelope", `{"error":{"message":"model not found","type":"invalid_request_error"}}`,
			"model not found (type: invalid_request_error)"},
		{"envelope without type", `{"error":{"message":"nope"}}`, "nope"},
		{"raw text fallback", "plain failure", "plain failure"},
		{"invalid json fallback", `{"oops`, `{"oops`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ReadErrorMessage(strings.NewReader(tt.body))
			assert.Equal(t, tt.want, got)
		})
	}
}
