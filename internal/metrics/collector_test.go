package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector("pipeflow", reg)

	c.PipelineStarted()
	c.PipelineStarted()
	c.PipelineCompleted("success", 10*time.Millisecond)
	c.PipelineCompleted("RETRY_EXHAUSTED", 5*time.Millisecond)
	c.AgentInvocation("greeter", "supported_language", time.Millisecond)
	c.RetryAttempt("poller")
	c.RetryAttempt("poller")
	c.LLMRouting("override", 2*time.Millisecond)
	c.CacheHit()
	c.CacheMiss()

	assert.Equal(t, 2.0, testutil.ToFloat64(c.pipelinesStarted))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.pipelinesCompleted.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.pipelinesCompleted.WithLabelValues("RETRY_EXHAUSTED")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.agentInvocationsTotal.WithLabelValues("greeter", "supported_language")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.retryAttemptsTotal.WithLabelValues("poller")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.llmRoutingTotal.WithLabelValues("override")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.cacheHits))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.cacheMisses))
}

func TestCollectorRegistersOnGivenRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector("pipeflow", reg)

	// Vecs only surface after their first observation.
	c.PipelineStarted()
	c.AgentInvocation("greeter", "done", time.Millisecond)
	c.LLMRouting("fallback", time.Millisecond)

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "pipeflow_pipelines_started_total")
	assert.Contains(t, names, "pipeflow_agent_invocations_total")
	assert.Contains(t, names, "pipeflow_llm_routing_total")

	// A second collector on a fresh registry must not collide.
	NewCollector("pipeflow", prometheus.NewRegistry())
}
