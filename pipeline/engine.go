package pipeline

import (
	"context"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/BaSui01/pipeflow/agent"
	"github.com/BaSui01/pipeflow/internal/metrics"
	"github.com/BaSui01/pipeflow/types"
)

// Config is the process-wide, read-only engine configuration.
type Config struct {
	DefaultRetryAttempts int
	Backoff              BackoffStrategy
	BaseDelay            time.Duration
}

// DefaultConfig returns the baseline configuration.
func DefaultConfig() Config {
	return Config{
		DefaultRetryAttempts: 3,
		Backoff:              BackoffExponential,
		BaseDelay:            DefaultBaseDelay,
	}
}

// OutcomeRouter overrides handler-chosen outcomes. *router.Router is the
// production implementation.
type OutcomeRouter interface {
	Route(ctx context.Context, def *agent.Definition, data types.Data) (string, types.Data, error)
}

// Engine executes pipelines against a registry of agent definitions.
type Engine struct {
	registry *agent.Registry
	router   OutcomeRouter
	logger   *zap.Logger
	metrics  *metrics.Collector
	tracer   trace.Tracer
	cfg      Config

	ids   atomic.Int64
	sleep func(ctx context.Context, d time.Duration) error
}

// Option configures an Engine.
type Option func(*Engine)

// WithRouter enables LLM outcome routing for agents that declare it.
func WithRouter(r OutcomeRouter) Option {
	return func(e *Engine) { e.router = r }
}

// WithLogger sets the logger. Defaults to a nop logger.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithConfig overrides the default configuration.
func WithConfig(cfg Config) Option {
	return func(e *Engine) { e.cfg = cfg }
}

// WithMetrics attaches a metrics collector.
func WithMetrics(c *metrics.Collector) Option {
	return func(e *Engine) { e.metrics = c }
}

// WithTracerProvider selects the tracer provider for per-agent spans.
// Defaults to the global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(e *Engine) { e.tracer = tp.Tracer("pipeflow/pipeline") }
}

// NewEngine creates an engine over the given registry.
func NewEngine(registry *agent.Registry, opts ...Option) *Engine {
	e := &Engine{
		registry: registry,
		logger:   zap.NewNop(),
		tracer:   otel.Tracer("pipeflow/pipeline"),
		cfg:      DefaultConfig(),
		sleep:    sleepContext,
	}
	if e.cfg.DefaultRetryAttempts == 0 {
		e.cfg.DefaultRetryAttempts = 3
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Process runs one whole pipeline starting at the named agent and blocks
// until it terminates. On success the returned data always carries
// "_pipeline_id"; on error the outcome name is empty and the data nil.
func (e *Engine) Process(ctx context.Context, agentName string, input types.Data) (string, types.Data, error) {
	def, err := e.registry.Resolve(agentName)
	if err != nil {
		return "", nil, err
	}
	return e.run(ctx, def, input)
}

// run is the iterative worker loop: one iteration per agent invocation,
// stepping through Forward and Retry hand-offs without recursion.
func (e *Engine) run(ctx context.Context, def *agent.Definition, input types.Data) (string, types.Data, error) {
	start := time.Now()
	data := input.Clone()

	// Callers may pre-populate the id to continue an existing pipeline.
	pipelineID := data.PipelineID()
	if pipelineID <= 0 {
		pipelineID = e.ids.Add(1)
		data[types.KeyPipelineID] = pipelineID
	}
	if e.metrics != nil {
		e.metrics.PipelineStarted()
	}

	outcome, out, err := e.loop(ctx, def, data, pipelineID)
	if e.metrics != nil {
		result := "success"
		if err != nil {
			result = string(types.GetErrorCode(err))
		}
		e.metrics.PipelineCompleted(result, time.Since(start))
	}
	return outcome, out, err
}

func (e *Engine) loop(ctx context.Context, def *agent.Definition, data types.Data, pipelineID int64) (string, types.Data, error) {
	for {
		outcome, out, err := e.invoke(ctx, def, data, pipelineID)
		if err != nil {
			return "", nil, err
		}

		matched, ok := def.FindOutcome(outcome)
		if !ok {
			err := types.NewErrorf(types.ErrUnknownOutcome,
				"agent %q produced undeclared outcome %q", def.Name(), outcome).
				WithAgent(def.Name())
			e.logger.Error("unknown outcome",
				zap.String("agent", def.Name()),
				zap.Int64("pipeline_id", pipelineID),
				zap.String("outcome", outcome))
			return "", nil, err
		}

		switch matched.Rule.Kind {
		case agent.RouteTerminal:
			e.logger.Info("completed",
				zap.String("agent", def.Name()),
				zap.Int64("pipeline_id", pipelineID),
				zap.String("outcome", outcome))
			return outcome, out, nil

		case agent.RouteForward:
			next, err := e.registry.Resolve(matched.Rule.To)
			if err != nil {
				return "", nil, err
			}
			e.logger.Info("forwarding",
				zap.String("agent", def.Name()),
				zap.Int64("pipeline_id", pipelineID),
				zap.String("outcome", outcome),
				zap.String("to", matched.Rule.To))
			// The retry count belongs to the agent being left behind.
			delete(out, types.KeyRetryAttempt)
			def, data = next, out

		case agent.RouteRetry:
			maxAttempts := matched.Rule.MaxAttempts
			if maxAttempts == 0 {
				maxAttempts = e.cfg.DefaultRetryAttempts
			}
			attempt := out.RetryAttempt() + 1
			if attempt > maxAttempts {
				err := types.NewErrorf(types.ErrRetryExhausted,
					"Max retry attempts (%d) exceeded", maxAttempts).
					WithAgent(def.Name())
				e.logger.Error("retry exhausted",
					zap.String("agent", def.Name()),
					zap.Int64("pipeline_id", pipelineID),
					zap.Int("max_attempts", maxAttempts))
				return "", nil, err
			}
			out[types.KeyRetryAttempt] = attempt
			delay := RetryDelay(e.cfg.Backoff, attempt, e.cfg.BaseDelay)
			e.logger.Info("retry attempt",
				zap.String("agent", def.Name()),
				zap.Int64("pipeline_id", pipelineID),
				zap.Int("attempt", attempt),
				zap.Duration("delay", delay))
			if e.metrics != nil {
				e.metrics.RetryAttempt(def.Name())
			}
			if err := e.sleep(ctx, delay); err != nil {
				return "", nil, types.NewError(types.ErrUserTask, "retry backoff interrupted").
					WithAgent(def.Name()).WithCause(err)
			}
			data = out
		}
	}
}

// invoke runs a single agent: default merge, input validation, handler,
// output validation, context propagation and the optional LLM override.
func (e *Engine) invoke(ctx context.Context, def *agent.Definition, data types.Data, pipelineID int64) (string, types.Data, error) {
	ctx, span := e.tracer.Start(ctx, "pipeline.agent",
		trace.WithAttributes(
			attribute.String("agent", def.Name()),
			attribute.Int64("pipeline_id", pipelineID)))
	defer span.End()

	start := time.Now()
	e.logger.Info("starting",
		zap.String("agent", def.Name()),
		zap.Int64("pipeline_id", pipelineID))

	merged := def.InputSchema().MergeDefaults(data)
	if verr := def.InputSchema().Validate(merged); verr != nil {
		err := asEngineError(verr, def.Name())
		span.RecordError(err)
		e.logger.Error("input validation failed",
			zap.String("agent", def.Name()),
			zap.Int64("pipeline_id", pipelineID),
			zap.Error(err))
		return "", nil, err
	}

	inAttempt := merged.RetryAttempt()

	outcome, out, err := def.Handle()(ctx, merged)
	if err != nil {
		taskErr := types.NewErrorf(types.ErrUserTask, "handle_task failed: %v", err).
			WithAgent(def.Name()).WithCause(err)
		span.RecordError(taskErr)
		e.logger.Error("task failed",
			zap.String("agent", def.Name()),
			zap.Int64("pipeline_id", pipelineID),
			zap.Error(err))
		return "", nil, taskErr
	}
	if out == nil {
		out = types.Data{}
	}

	if verr := def.OutputSchema().Validate(out); verr != nil {
		err := asEngineError(verr, def.Name())
		span.RecordError(err)
		e.logger.Error("output validation failed",
			zap.String("agent", def.Name()),
			zap.Int64("pipeline_id", pipelineID),
			zap.Error(err))
		return "", nil, err
	}

	out[types.KeyPipelineID] = pipelineID
	if _, present := out[types.KeyRetryAttempt]; !present && inAttempt > 0 {
		out[types.KeyRetryAttempt] = inAttempt
	}

	if cfg := def.LLMConfig(); cfg != nil && e.router != nil {
		routeStart := time.Now()
		llmOutcome, llmData, rerr := e.router.Route(ctx, def, out)
		if rerr != nil {
			// Non-fatal: keep the handler's outcome.
			e.logger.Warn("llm routing failed, keeping handler outcome",
				zap.String("agent", def.Name()),
				zap.Int64("pipeline_id", pipelineID),
				zap.String("outcome", outcome),
				zap.Error(rerr))
			if e.metrics != nil {
				e.metrics.LLMRouting("fallback", time.Since(routeStart))
			}
		} else {
			outcome, out = llmOutcome, llmData
			if e.metrics != nil {
				e.metrics.LLMRouting("override", time.Since(routeStart))
			}
		}
	}

	span.SetAttributes(attribute.String("outcome", outcome))
	if e.metrics != nil {
		e.metrics.AgentInvocation(def.Name(), outcome, time.Since(start))
	}
	return outcome, out, nil
}

func asEngineError(err error, agentName string) error {
	if e, ok := err.(*types.Error); ok {
		return e.WithAgent(agentName)
	}
	return types.NewError(types.ErrValidation, err.Error()).WithAgent(agentName)
}
