package router

import "github.com/BaSui01/pipeflow/types"

// DefaultModel is used when an agent's routing config names no model.
const DefaultModel = "gpt-4o-mini"

// Decision is the structured answer the model must produce.
type Decision struct {
	Outcome   string `json:"outcome"`
	Reasoning string `json:"reasoning"`
	NextStep  string `json:"next_step,omitempty"`
}

// DecisionSchema returns the response schema sent with every routing call.
// Outcome names are enumerated so strict structured-output modes reject
// undeclared names before they ever reach validation.
func DecisionSchema(outcomes []string) *types.JSONSchema {
	enum := make([]any, len(outcomes))
	for i, name := range outcomes {
		enum[i] = name
	}
	outcome := types.NewStringSchema().
		WithDescription("The chosen outcome name. Must be exactly one of the declared outcomes.")
	outcome.Enum = enum

	s := types.NewObjectSchema()
	s.Title = "LLMDecision"
	s.AddProperty("outcome", outcome)
	s.AddProperty("reasoning", types.NewStringSchema().
		WithDescription("Short explanation of why this outcome was chosen."))
	s.AddProperty("next_step", types.NewStringSchema().
		WithDescription("Optional suggestion for what should happen next."))
	s.AddRequired("outcome", "reasoning")
	return s
}
