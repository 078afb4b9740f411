// Package router picks agent outcomes with an LLM. Given an agent
// definition that carries routing config and the data the agent just
// produced, it builds a constrained prompt, asks the model for a
// structured decision and validates the answer against the declared
// outcome set. Invalid names and transport failures are reported to the
// caller, which falls back to the handler's own outcome.
//
// Decisions can be cached across pipelines through an optional local
// LRU with a Redis second level.
package router
