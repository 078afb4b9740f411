package llm

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/BaSui01/pipeflow/types"
)

// MapHTTPError converts an upstream HTTP status into a *types.Error with
// the matching retryability flag. Shared by every HTTP-backed provider.
func MapHTTPError(status int, msg string, provider string) *types.Error {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return types.NewError(types.ErrUnauthorized, msg).WithAgent(provider)
	case http.StatusTooManyRequests:
		return types.NewError(types.ErrRateLimited, msg).WithAgent(provider).WithRetryable(true)
	case http.StatusBadRequest:
		lower := strings.ToLower(msg)
		if strings.Contains(lower, "content_filter") || strings.Contains(lower, "content policy") {
			return types.NewError(types.ErrContentFiltered, msg).WithAgent(provider)
		}
		return types.NewError(types.ErrInvalidRequest, msg).WithAgent(provider)
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		return types.NewError(types.ErrUpstreamTimeout, msg).WithAgent(provider).WithRetryable(true)
	case http.StatusServiceUnavailable, http.StatusBadGateway:
		return types.NewError(types.ErrServiceUnavailable, msg).WithAgent(provider).WithRetryable(true)
	default:
		e := types.NewError(types.ErrUpstreamError, msg).WithAgent(provider)
		return e.WithRetryable(status >= 500)
	}
}

// ReadErrorMessage extracts a human-readable message from an error body.
// OpenAI-compatible APIs wrap errors in {"error": {"message": ...}}; the
// raw body is the fallback.
func ReadErrorMessage(body io.Reader) string {
	data, err := io.ReadAll(body)
	if err != nil {
		return "failed to read error response"
	}

	var errResp struct {
		Error struct {
			Message string `json:"message"`
			Type    string `json:"type"`
			Code    any    `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(data, &errResp); err == nil && errResp.Error.Message != "" {
		if errResp.Error.Type != "" {
			return fmt.Sprintf("%s (type: %s)", errResp.Error.Message, errResp.Error.Type)
		}
		return errResp.Error.Message
	}
	return string(data)
}
