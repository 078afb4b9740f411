// Package agent holds the static description the pipeline engine consults at
// runtime: per-agent input/output schemas, ordered named outcomes with their
// routing rules, the task handler, and optional LLM routing configuration.
//
// Definitions are immutable after Build and safe for concurrent use. Agents
// reference each other by name; the Registry resolves names at routing time,
// which keeps self-loops and mutually recursive pipelines free of
// construction-order problems.
package agent
