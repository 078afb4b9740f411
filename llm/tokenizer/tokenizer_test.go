package tokenizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// Encoding resolution is pure table lookup; actual BPE data is fetched
// lazily on first count and is not exercised here.
func TestForModelResolution(t *testing.T) {
	tests := []struct {
		model          string
		wantName       string
		wantMaxContext int
	}{
		{"gpt-4o-mini", "tiktoken[o200k_base]", 128000},
		{"gpt-4o-2024-08-06", "tiktoken[o200k_base]", 128000},
		{"gpt-4", "tiktoken[cl100k_base]", 8192},
		{"gpt-3.5-turbo-0125", "tiktoken[cl100k_base]", 16385},
		{"some-unknown-model", "tiktoken[cl100k_base]", 8192},
	}

	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			c := ForModel(tt.model)
			assert.Equal(t, tt.wantName, c.Name())
			assert.Equal(t, tt.wantMaxContext, c.MaxContext())
		})
	}
}
