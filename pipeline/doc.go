// Package pipeline executes agent chains. The Engine drives one pipeline
// per Process call with an iterative loop: validate input, run the
// handler, validate output, optionally let the LLM router override the
// outcome, then follow the outcome's routing rule until a terminal
// outcome or a fatal error. The Supervisor runs pipelines in isolated
// goroutines and converts panics into PIPELINE_CRASHED errors.
//
// Pipeline IDs come from a process-wide atomic counter; every data map
// the engine surfaces carries the id under "_pipeline_id".
package pipeline
