// Package metrics provides internal metrics collection.
// This package is internal and should not be imported by external projects.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector aggregates the engine's Prometheus metrics.
type Collector struct {
	pipelinesStarted   prometheus.Counter
	pipelinesCompleted *prometheus.CounterVec
	pipelineDuration   prometheus.Histogram

	agentInvocationsTotal *prometheus.CounterVec
	agentDuration         *prometheus.HistogramVec
	retryAttemptsTotal    *prometheus.CounterVec

	llmRoutingTotal    *prometheus.CounterVec
	llmRoutingDuration prometheus.Histogram

	cacheHits   prometheus.Counter
	cacheMisses prometheus.Counter
}

// NewCollector registers the engine metrics on reg. Pass a dedicated
// registry in tests to avoid duplicate registration panics.
func NewCollector(namespace string, reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)
	c := &Collector{}

	c.pipelinesStarted = factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "pipelines_started_total",
		Help:      "Total number of pipelines started",
	})
	c.pipelinesCompleted = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "pipelines_completed_total",
		Help:      "Total number of pipelines finished, by result",
	}, []string{"result"})
	c.pipelineDuration = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "pipeline_duration_seconds",
		Help:      "End-to-end pipeline duration in seconds",
		Buckets:   prometheus.DefBuckets,
	})

	c.agentInvocationsTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "agent_invocations_total",
		Help:      "Total number of agent invocations, by agent and outcome",
	}, []string{"agent", "outcome"})
	c.agentDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "agent_duration_seconds",
		Help:      "Single agent invocation duration in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"agent"})
	c.retryAttemptsTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "retry_attempts_total",
		Help:      "Total number of retry attempts, by agent",
	}, []string{"agent"})

	c.llmRoutingTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "llm_routing_total",
		Help:      "Total number of LLM routing decisions, by status",
	}, []string{"status"})
	c.llmRoutingDuration = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "llm_routing_duration_seconds",
		Help:      "LLM routing call duration in seconds",
		Buckets:   prometheus.DefBuckets,
	})

	c.cacheHits = factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "decision_cache_hits_total",
		Help:      "Total number of decision cache hits",
	})
	c.cacheMisses = factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "decision_cache_misses_total",
		Help:      "Total number of decision cache misses",
	})

	return c
}

// PipelineStarted records a new pipeline.
func (c *Collector) PipelineStarted() {
	c.pipelinesStarted.Inc()
}

// PipelineCompleted records the end of a pipeline. result is "success"
// or the error code that aborted it.
func (c *Collector) PipelineCompleted(result string, duration time.Duration) {
	c.pipelinesCompleted.WithLabelValues(result).Inc()
	c.pipelineDuration.Observe(duration.Seconds())
}

// AgentInvocation records one agent invocation and its chosen outcome.
func (c *Collector) AgentInvocation(agentName, outcome string, duration time.Duration) {
	c.agentInvocationsTotal.WithLabelValues(agentName, outcome).Inc()
	c.agentDuration.WithLabelValues(agentName).Observe(duration.Seconds())
}

// RetryAttempt records one retry of an agent.
func (c *Collector) RetryAttempt(agentName string) {
	c.retryAttemptsTotal.WithLabelValues(agentName).Inc()
}

// LLMRouting records a routing call. status is "override", "fallback"
// or "cache_hit".
func (c *Collector) LLMRouting(status string, duration time.Duration) {
	c.llmRoutingTotal.WithLabelValues(status).Inc()
	c.llmRoutingDuration.Observe(duration.Seconds())
}

// CacheHit records a decision cache hit.
func (c *Collector) CacheHit() { c.cacheHits.Inc() }

// CacheMiss records a decision cache miss.
func (c *Collector) CacheMiss() { c.cacheMisses.Inc() }
