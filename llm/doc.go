// Package llm defines the provider abstraction the routing layer talks to:
// chat completion requests and responses, structured-output response formats,
// HTTP error mapping, and a small client for decoding schema-constrained
// completions into Go values.
//
// Concrete transports live under llm/providers. The engine only ever sees the
// Provider interface, so tests substitute an in-memory implementation.
package llm
