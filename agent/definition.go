package agent

import (
	"context"

	"github.com/BaSui01/pipeflow/schema"
	"github.com/BaSui01/pipeflow/types"
)

// RoutingKind says what the engine does when an outcome is produced.
type RoutingKind int

const (
	// RouteTerminal ends the pipeline and surfaces the agent's output.
	RouteTerminal RoutingKind = iota
	// RouteForward hands the output to another agent as its input.
	RouteForward
	// RouteRetry re-invokes the same agent after a backoff delay.
	RouteRetry
)

// RoutingRule is the action attached to one outcome.
type RoutingRule struct {
	Kind RoutingKind
	// To is the target agent name. Meaningful only for RouteForward.
	To string
	// MaxAttempts bounds RouteRetry. Zero means the engine default.
	MaxAttempts int
}

// ForwardTo routes the outcome to the named agent.
func ForwardTo(name string) RoutingRule {
	return RoutingRule{Kind: RouteForward, To: name}
}

// RetrySelf re-runs the agent, at most maxAttempts times. Pass 0 to use
// the engine's default bound.
func RetrySelf(maxAttempts int) RoutingRule {
	return RoutingRule{Kind: RouteRetry, MaxAttempts: maxAttempts}
}

// Terminal ends the pipeline with this outcome.
func Terminal() RoutingRule {
	return RoutingRule{Kind: RouteTerminal}
}

// Outcome is one named result an agent may produce, with its routing rule.
type Outcome struct {
	Name        string
	Description string
	Rule        RoutingRule
}

// HandleFunc is the agent's task. It returns the outcome name and the
// output data; a non-nil error aborts the pipeline.
type HandleFunc func(ctx context.Context, input types.Data) (string, types.Data, error)

// LLMRouting configures model-based outcome overriding for one agent.
type LLMRouting struct {
	Model  string
	Prompt string
}

// Definition is the immutable description of one agent.
type Definition struct {
	name     string
	input    *schema.Schema
	output   *schema.Schema
	outcomes []Outcome
	handle   HandleFunc
	llm      *LLMRouting
}

// Name returns the agent name.
func (d *Definition) Name() string { return d.name }

// InputSchema returns the declared input schema. Never nil.
func (d *Definition) InputSchema() *schema.Schema { return d.input }

// OutputSchema returns the declared output schema. Never nil.
func (d *Definition) OutputSchema() *schema.Schema { return d.output }

// Outcomes returns the outcomes in declaration order.
func (d *Definition) Outcomes() []Outcome { return d.outcomes }

// FindOutcome looks up an outcome by exact name.
func (d *Definition) FindOutcome(name string) (Outcome, bool) {
	for _, o := range d.outcomes {
		if o.Name == name {
			return o, true
		}
	}
	return Outcome{}, false
}

// LLMConfig returns the LLM routing configuration, or nil when the agent
// does not use it.
func (d *Definition) LLMConfig() *LLMRouting { return d.llm }

// Handle returns the task handler.
func (d *Definition) Handle() HandleFunc { return d.handle }

// Builder assembles a Definition. Errors are collected and reported once
// at Build.
type Builder struct {
	name     string
	inputs   []schema.Field
	outputs  []schema.Field
	outcomes []Outcome
	handle   HandleFunc
	llm      *LLMRouting
}

// NewDefinition starts a builder for the named agent.
func NewDefinition(name string) *Builder {
	return &Builder{name: name}
}

// Input declares the agent's input fields.
func (b *Builder) Input(fields ...schema.Field) *Builder {
	b.inputs = append(b.inputs, fields...)
	return b
}

// Output declares the agent's output fields.
func (b *Builder) Output(fields ...schema.Field) *Builder {
	b.outputs = append(b.outputs, fields...)
	return b
}

// Outcome declares a named outcome with its routing rule. The optional
// description is surfaced to the LLM router.
func (b *Builder) Outcome(name string, rule RoutingRule, description ...string) *Builder {
	o := Outcome{Name: name, Rule: rule}
	if len(description) > 0 {
		o.Description = description[0]
	}
	b.outcomes = append(b.outcomes, o)
	return b
}

// Handle sets the task handler.
func (b *Builder) Handle(fn HandleFunc) *Builder {
	b.handle = fn
	return b
}

// LLMRouting enables model-based outcome overriding.
func (b *Builder) LLMRouting(model, prompt string) *Builder {
	b.llm = &LLMRouting{Model: model, Prompt: prompt}
	return b
}

// Build validates the declaration and returns the definition.
func (b *Builder) Build() (*Definition, error) {
	if b.name == "" {
		return nil, types.NewError(types.ErrInvalidAgentDef, "agent name must not be empty")
	}
	if b.handle == nil {
		return nil, types.NewErrorf(types.ErrInvalidAgentDef, "agent %q has no handler", b.name)
	}
	if len(b.outcomes) == 0 {
		return nil, types.NewErrorf(types.ErrInvalidAgentDef, "agent %q declares no outcomes", b.name)
	}
	seen := make(map[string]bool, len(b.outcomes))
	for _, o := range b.outcomes {
		if o.Name == "" {
			return nil, types.NewErrorf(types.ErrInvalidAgentDef, "agent %q declares an unnamed outcome", b.name)
		}
		if seen[o.Name] {
			return nil, types.NewErrorf(types.ErrInvalidAgentDef,
				"agent %q declares outcome %q twice", b.name, o.Name)
		}
		seen[o.Name] = true
		switch o.Rule.Kind {
		case RouteForward:
			if o.Rule.To == "" {
				return nil, types.NewErrorf(types.ErrInvalidAgentDef,
					"agent %q outcome %q forwards to no target", b.name, o.Name)
			}
		case RouteRetry:
			if o.Rule.MaxAttempts < 0 {
				return nil, types.NewErrorf(types.ErrInvalidAgentDef,
					"agent %q outcome %q has negative retry bound", b.name, o.Name)
			}
		}
	}

	input, err := schema.New(b.inputs...)
	if err != nil {
		return nil, types.NewErrorf(types.ErrInvalidAgentDef,
			"agent %q input schema: %v", b.name, err).WithCause(err)
	}
	output, err := schema.New(b.outputs...)
	if err != nil {
		return nil, types.NewErrorf(types.ErrInvalidAgentDef,
			"agent %q output schema: %v", b.name, err).WithCause(err)
	}
	// Translating both schemas refuses unknown field types at load time.
	for _, s := range []*schema.Schema{input, output} {
		if _, err := s.ToJSONSchema(); err != nil {
			return nil, types.NewErrorf(types.ErrInvalidAgentDef,
				"agent %q schema: %v", b.name, err).WithCause(err)
		}
	}

	return &Definition{
		name:     b.name,
		input:    input,
		output:   output,
		outcomes: b.outcomes,
		handle:   b.handle,
		llm:      b.llm,
	}, nil
}

// MustBuild is Build, panicking on error. Intended for start-up wiring.
func (b *Builder) MustBuild() *Definition {
	def, err := b.Build()
	if err != nil {
		panic(err)
	}
	return def
}
