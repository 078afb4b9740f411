// Package pipeflow provides a top-level convenience entry point for
// running agent pipelines with minimal boilerplate.
//
// Usage:
//
//	import "github.com/BaSui01/pipeflow"
//
//	rt, err := pipeflow.New(registry, pipeflow.WithOpenAI("gpt-4o-mini"))
//	outcome, data, err := rt.Process(ctx, "greeter", types.Data{"name": "Maria"})
//
// This is a thin wrapper around [quick.New]; both produce identical
// results. Use this package when you prefer the shorter import path.
package pipeflow

import (
	"github.com/BaSui01/pipeflow/agent"
	"github.com/BaSui01/pipeflow/quick"
)

// Runtime bundles an engine with its supervisor.
type Runtime = quick.Runtime

// Option configures the runtime created by [New].
type Option = quick.Option

// New assembles a [Runtime] over the given registry.
func New(registry *agent.Registry, opts ...Option) (*Runtime, error) {
	return quick.New(registry, opts...)
}

// Re-export the runtime options so callers never need to import quick/.

// WithProvider sets a pre-built LLM provider for outcome routing.
var WithProvider = quick.WithProvider

// WithOpenAI routes outcomes through the OpenAI API. Key from OPENAI_API_KEY.
var WithOpenAI = quick.WithOpenAI

// WithDeepSeek routes outcomes through the DeepSeek API. Key from DEEPSEEK_API_KEY.
var WithDeepSeek = quick.WithDeepSeek

// WithAPIKey overrides the API key for provider shortcuts.
var WithAPIKey = quick.WithAPIKey

// WithBaseURL overrides the provider base URL for provider shortcuts.
var WithBaseURL = quick.WithBaseURL

// WithLogger sets a custom zap logger.
var WithLogger = quick.WithLogger

// WithConfig applies a loaded configuration.
var WithConfig = quick.WithConfig

// WithMetrics registers the engine's Prometheus collectors.
var WithMetrics = quick.WithMetrics

// WithEngineOptions forwards extra options to the engine constructor.
var WithEngineOptions = quick.WithEngineOptions
