package types

// Data is the associative payload handed from agent to agent. Keys beginning
// with an underscore are reserved for the engine.
type Data map[string]any

// Reserved keys carried inside Data through every agent invocation.
const (
	// KeyPipelineID holds the process-unique pipeline run identifier.
	// Assigned once at the top-level process call, immutable afterwards.
	KeyPipelineID = "_pipeline_id"

	// KeyRetryAttempt counts retries of the current agent. Zero initially,
	// incremented only by a Retry routing rule, reset when the pipeline
	// moves to a different agent.
	KeyRetryAttempt = "_retry_attempt"

	// KeyLLMReasoning is added by the LLM router when it overrides the
	// outcome chosen by the agent's own handler.
	KeyLLMReasoning = "llm_reasoning"
)

// Clone returns a shallow copy of d. A nil map clones to an empty one so
// callers can always write to the result.
func (d Data) Clone() Data {
	out := make(Data, len(d)+2)
	for k, v := range d {
		out[k] = v
	}
	return out
}

// PipelineID extracts the pipeline ID, tolerating the numeric widenings a
// JSON round-trip introduces. Returns 0 when absent.
func (d Data) PipelineID() int64 {
	return d.intValue(KeyPipelineID)
}

// RetryAttempt extracts the retry counter. Returns 0 when absent.
func (d Data) RetryAttempt() int {
	return int(d.intValue(KeyRetryAttempt))
}

func (d Data) intValue(key string) int64 {
	switch v := d[key].(type) {
	case int:
		return int64(v)
	case int32:
		return int64(v)
	case int64:
		return v
	case float64:
		return int64(v)
	default:
		return 0
	}
}
