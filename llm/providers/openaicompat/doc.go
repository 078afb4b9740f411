// Package openaicompat implements llm.Provider against any API that speaks
// the OpenAI chat-completions wire format. OpenAI itself, Azure-hosted
// deployments and most self-hosted gateways work unchanged; only the base
// URL, key and default model differ.
package openaicompat
