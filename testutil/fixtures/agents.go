// Package fixtures provides canned agent definitions for tests.
package fixtures

import (
	"context"
	"fmt"
	"strings"

	"github.com/BaSui01/pipeflow/agent"
	"github.com/BaSui01/pipeflow/schema"
	"github.com/BaSui01/pipeflow/types"
)

// GreeterChain registers a three-agent greeting pipeline: greeter picks
// a language, formatter decorates supported greetings, apologizer
// handles the rest.
func GreeterChain() *agent.Registry {
	registry := agent.NewRegistry()

	greetings := map[string]string{
		"en": "Hello",
		"es": "¡Hola",
		"fr": "Bonjour",
	}

	registry.MustRegister(agent.NewDefinition("greeter").
		Input(
			schema.String("name").WithRequired(),
			schema.String("language").WithDefault("en"),
		).
		Output(schema.String("greeting"), schema.String("language")).
		Outcome("supported_language", agent.ForwardTo("formatter")).
		Outcome("unsupported_language", agent.ForwardTo("apologizer")).
		Handle(func(ctx context.Context, input types.Data) (string, types.Data, error) {
			lang := input["language"].(string)
			prefix, ok := greetings[lang]
			if !ok {
				return "unsupported_language", types.Data{"greeting": "", "language": lang}, nil
			}
			return "supported_language", types.Data{
				"greeting": fmt.Sprintf("%s %s", prefix, input["name"]),
				"language": lang,
			}, nil
		}).
		MustBuild())

	registry.MustRegister(agent.NewDefinition("formatter").
		Input(schema.String("greeting").WithRequired(), schema.String("language")).
		Output(schema.String("message")).
		Outcome("done", agent.Terminal()).
		Handle(func(ctx context.Context, input types.Data) (string, types.Data, error) {
			return "done", types.Data{"message": strings.TrimSpace(input["greeting"].(string)) + "!"}, nil
		}).
		MustBuild())

	registry.MustRegister(agent.NewDefinition("apologizer").
		Input(schema.String("language")).
		Output(schema.String("message")).
		Outcome("done", agent.Terminal()).
		Handle(func(ctx context.Context, input types.Data) (string, types.Data, error) {
			lang, _ := input["language"].(string)
			return "done", types.Data{
				"message": fmt.Sprintf("Sorry, I cannot greet in %q yet.", lang),
			}, nil
		}).
		MustBuild())

	return registry
}

// ModerationAgent returns an agent whose outcome an LLM router may
// override: the handler always approves, the model decides for real.
func ModerationAgent() *agent.Definition {
	return agent.NewDefinition("moderator").
		Input(schema.String("comment").WithRequired()).
		Output(schema.String("comment")).
		Outcome("approved", agent.Terminal(), "comment is fine to publish").
		Outcome("rejected", agent.Terminal(), "comment violates the content policy").
		Handle(func(ctx context.Context, input types.Data) (string, types.Data, error) {
			return "approved", types.Data{"comment": input["comment"].(string)}, nil
		}).
		LLMRouting("gpt-4o-mini", "Review the comment and decide whether it can be published.").
		MustBuild()
}
