// Package tokenizer counts prompt tokens so the router can budget the
// context it sends to a model. Counting is tiktoken-based and lazy; the
// encoding data is loaded on first use.
package tokenizer

import (
	"fmt"
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"

	"github.com/BaSui01/pipeflow/types"
)

// Counter counts tokens for a specific model family.
type Counter struct {
	model      string
	encoding   string
	maxContext int
	enc        *tiktoken.Tiktoken
	once       sync.Once
	initErr    error
}

var modelEncodings = map[string]struct {
	encoding   string
	maxContext int
}{
	"gpt-4o":        {encoding: "o200k_base", maxContext: 128000},
	"gpt-4o-mini":   {encoding: "o200k_base", maxContext: 128000},
	"gpt-4-turbo":   {encoding: "cl100k_base", maxContext: 128000},
	"gpt-4":         {encoding: "cl100k_base", maxContext: 8192},
	"gpt-3.5-turbo": {encoding: "cl100k_base", maxContext: 16385},
}

// ForModel creates a counter for the given model. Unknown models fall back
// to cl100k_base with an 8k context, after trying a prefix match so dated
// snapshots like "gpt-4o-2024-08-06" resolve to their family.
func ForModel(model string) *Counter {
	info, ok := modelEncodings[model]
	if !ok {
		// Longest prefix wins so "gpt-4o-..." resolves to gpt-4o, not gpt-4.
		best := -1
		for prefix, i := range modelEncodings {
			if len(prefix) > best && strings.HasPrefix(model, prefix) {
				info, ok = i, true
				best = len(prefix)
			}
		}
	}
	if !ok {
		info = struct {
			encoding   string
			maxContext int
		}{encoding: "cl100k_base", maxContext: 8192}
	}
	return &Counter{model: model, encoding: info.encoding, maxContext: info.maxContext}
}

func (c *Counter) init() error {
	c.once.Do(func() {
		enc, err := tiktoken.GetEncoding(c.encoding)
		if err != nil {
			c.initErr = fmt.Errorf("init tiktoken encoding %s: %w", c.encoding, err)
			return
		}
		c.enc = enc
	})
	return c.initErr
}

// CountText returns the token count for a raw string.
func (c *Counter) CountText(text string) (int, error) {
	if err := c.init(); err != nil {
		return 0, err
	}
	return len(c.enc.Encode(text, nil, nil)), nil
}

// CountMessages returns the token count for a chat transcript, including
// the per-message framing overhead the chat format adds.
func (c *Counter) CountMessages(messages []types.Message) (int, error) {
	if err := c.init(); err != nil {
		return 0, err
	}
	total := 0
	for _, msg := range messages {
		total += 4
		total += len(c.enc.Encode(msg.Content, nil, nil))
		total += len(c.enc.Encode(string(msg.Role), nil, nil))
	}
	total += 3
	return total, nil
}

// MaxContext returns the model's context window size in tokens.
func (c *Counter) MaxContext() int { return c.maxContext }

// Name identifies the underlying encoding.
func (c *Counter) Name() string { return fmt.Sprintf("tiktoken[%s]", c.encoding) }
