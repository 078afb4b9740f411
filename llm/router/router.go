package router

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/BaSui01/pipeflow/agent"
	"github.com/BaSui01/pipeflow/llm"
	"github.com/BaSui01/pipeflow/llm/tokenizer"
	"github.com/BaSui01/pipeflow/types"
)

// Router asks an LLM to choose among an agent's declared outcomes.
type Router struct {
	client      *llm.StructuredClient
	logger      *zap.Logger
	cache       *DecisionCache
	tokenBudget int
}

// Option configures a Router.
type Option func(*Router)

// WithLogger sets the logger. Defaults to a nop logger.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Router) { r.logger = logger }
}

// WithCache enables decision caching.
func WithCache(cache *DecisionCache) Option {
	return func(r *Router) { r.cache = cache }
}

// WithTokenBudget caps the tokens spent on the data dump in the prompt.
// Zero disables budgeting.
func WithTokenBudget(tokens int) Option {
	return func(r *Router) { r.tokenBudget = tokens }
}

// New creates a Router over the given provider.
func New(provider llm.Provider, opts ...Option) *Router {
	r := &Router{
		client: llm.NewStructuredClient(provider),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Route picks an outcome for def given the data its handler produced.
// On success it returns the chosen outcome name and a copy of data with
// the model's reasoning added under "llm_reasoning"; the input map is
// never mutated. An undeclared outcome name is reported as an
// LLM_ROUTER error; transport errors pass through unchanged.
func (r *Router) Route(ctx context.Context, def *agent.Definition, data types.Data) (string, types.Data, error) {
	cfg := def.LLMConfig()
	if cfg == nil {
		return "", nil, types.NewErrorf(types.ErrLLMRouter, "agent %q has no LLM routing config", def.Name()).
			WithAgent(def.Name())
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	outcomes := def.Outcomes()
	names := make([]string, len(outcomes))
	for i, o := range outcomes {
		names[i] = o.Name
	}

	cacheKey := ""
	if r.cache != nil {
		cacheKey = r.cache.Key(def.Name(), model, data)
		if decision, ok := r.cache.Get(ctx, cacheKey); ok {
			if _, declared := def.FindOutcome(decision.Outcome); declared {
				r.logger.Debug("routing decision served from cache",
					zap.String("agent", def.Name()),
					zap.String("outcome", decision.Outcome))
				return decision.Outcome, withReasoning(data, decision.Reasoning), nil
			}
		}
	}

	prompt := r.buildPrompt(cfg.Prompt, outcomes, names, data, model)
	var decision Decision
	resp, err := r.client.Complete(ctx, model,
		[]types.Message{types.NewUserMessage(prompt)},
		DecisionSchema(names), &decision)
	if err != nil {
		return "", nil, err
	}

	if _, ok := def.FindOutcome(decision.Outcome); !ok {
		return "", nil, types.NewErrorf(types.ErrLLMRouter,
			"model returned undeclared outcome %q (declared: %s)",
			decision.Outcome, strings.Join(names, ", ")).
			WithAgent(def.Name())
	}

	r.logger.Debug("routing decision",
		zap.String("agent", def.Name()),
		zap.String("model", model),
		zap.String("outcome", decision.Outcome),
		zap.Int("total_tokens", resp.Usage.TotalTokens))

	if r.cache != nil {
		r.cache.Set(ctx, cacheKey, decision)
	}
	return decision.Outcome, withReasoning(data, decision.Reasoning), nil
}

func withReasoning(data types.Data, reasoning string) types.Data {
	out := data.Clone()
	out[types.KeyLLMReasoning] = reasoning
	return out
}

// buildPrompt concatenates the configured prompt, the outcome list with
// descriptions, a dump of the current data and the exact-name constraint.
func (r *Router) buildPrompt(configured string, outcomes []agent.Outcome, names []string, data types.Data, model string) string {
	var b strings.Builder
	b.WriteString(configured)
	b.WriteString("\n\nPossible outcomes:\n")
	for _, o := range outcomes {
		if o.Description != "" {
			fmt.Fprintf(&b, "- %s: %s\n", o.Name, o.Description)
		} else {
			fmt.Fprintf(&b, "- %s\n", o.Name)
		}
	}
	b.WriteString("\nCurrent data:\n")
	b.WriteString(r.dumpData(data, model))
	fmt.Fprintf(&b, "\n\nRespond with a JSON object. The \"outcome\" field must be exactly one of: %s.",
		strings.Join(names, ", "))
	return b.String()
}

// dumpData renders data as indented JSON, truncated to the token budget
// when one is configured.
func (r *Router) dumpData(data types.Data, model string) string {
	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", map[string]any(data))
	}
	dump := string(raw)
	if r.tokenBudget <= 0 {
		return dump
	}

	counter := tokenizer.ForModel(model)
	count, err := counter.CountText(dump)
	if err != nil || count <= r.tokenBudget {
		return dump
	}
	// Proportional cut, then re-count until the dump fits.
	for count > r.tokenBudget && len(dump) > 0 {
		keep := len(dump) * r.tokenBudget / count
		if keep >= len(dump) {
			keep = len(dump) - 1
		}
		dump = dump[:keep]
		count, err = counter.CountText(dump)
		if err != nil {
			break
		}
	}
	return dump + "\n...(truncated)"
}
