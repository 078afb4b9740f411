// Package quick wires a ready-to-run pipeline runtime with minimal
// boilerplate. It delegates to pipeline, llm/router and the provider
// packages internally.
//
// The package lives under quick/ (not root) so the root package can
// re-export it without an import cycle.
//
// Usage:
//
//	rt, err := quick.New(registry, quick.WithOpenAI("gpt-4o-mini"))
//	outcome, data, err := rt.Process(ctx, "greeter", types.Data{"name": "Maria"})
package quick

import (
	"context"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/BaSui01/pipeflow/agent"
	"github.com/BaSui01/pipeflow/config"
	"github.com/BaSui01/pipeflow/internal/metrics"
	"github.com/BaSui01/pipeflow/llm"
	"github.com/BaSui01/pipeflow/llm/providers/openaicompat"
	"github.com/BaSui01/pipeflow/llm/router"
	"github.com/BaSui01/pipeflow/pipeline"
	"github.com/BaSui01/pipeflow/types"
)

// Runtime bundles an engine with its supervisor.
type Runtime struct {
	registry   *agent.Registry
	engine     *pipeline.Engine
	supervisor *pipeline.Supervisor
	provider   llm.Provider
	cfg        *config.Config
}

// Option configures the runtime created by New.
type Option func(*options)

type options struct {
	cfg      *config.Config
	provider llm.Provider
	logger   *zap.Logger

	// Provider shortcut fields, used when provider is nil.
	providerName string
	model        string
	apiKey       string
	baseURL      string

	registerer prometheus.Registerer
	engineOpts []pipeline.Option
}

// WithProvider sets a pre-built LLM provider for outcome routing.
func WithProvider(p llm.Provider) Option {
	return func(o *options) { o.provider = p }
}

// WithOpenAI routes outcomes through the OpenAI API with the given
// model. The API key is read from OPENAI_API_KEY.
func WithOpenAI(model string) Option {
	return func(o *options) {
		o.providerName = "openai"
		o.model = model
		if o.apiKey == "" {
			o.apiKey = os.Getenv("OPENAI_API_KEY")
		}
	}
}

// WithDeepSeek routes outcomes through the DeepSeek API with the given
// model. The API key is read from DEEPSEEK_API_KEY.
func WithDeepSeek(model string) Option {
	return func(o *options) {
		o.providerName = "deepseek"
		o.baseURL = "https://api.deepseek.com"
		o.model = model
		if o.apiKey == "" {
			o.apiKey = os.Getenv("DEEPSEEK_API_KEY")
		}
	}
}

// WithAPIKey overrides the API key for provider shortcuts.
func WithAPIKey(key string) Option {
	return func(o *options) { o.apiKey = key }
}

// WithBaseURL overrides the provider base URL for provider shortcuts.
func WithBaseURL(url string) Option {
	return func(o *options) { o.baseURL = url }
}

// WithLogger sets a custom zap logger. Defaults to zap.NewNop().
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithConfig applies a loaded configuration. Defaults to config.Default().
func WithConfig(cfg *config.Config) Option {
	return func(o *options) { o.cfg = cfg }
}

// WithMetrics registers the engine's Prometheus collectors on reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(o *options) { o.registerer = reg }
}

// WithEngineOptions forwards extra options to the engine constructor.
func WithEngineOptions(opts ...pipeline.Option) Option {
	return func(o *options) { o.engineOpts = append(o.engineOpts, opts...) }
}

// New assembles a Runtime over the given registry. Without a provider
// option the engine runs with handler-chosen outcomes only.
func New(registry *agent.Registry, opts ...Option) (*Runtime, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.cfg == nil {
		o.cfg = config.Default()
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}

	p := o.provider
	if p == nil && o.providerName != "" {
		if o.apiKey == "" {
			return nil, fmt.Errorf("API key is required for %s: set the environment variable or use WithAPIKey", o.providerName)
		}
		p = openaicompat.New(openaicompat.Config{
			ProviderName:      o.providerName,
			APIKey:            o.apiKey,
			BaseURL:           o.baseURL,
			DefaultModel:      o.model,
			Timeout:           o.cfg.LLM.Timeout,
			RequestsPerSecond: o.cfg.LLM.RequestsPerSecond,
			Burst:             o.cfg.LLM.Burst,
		}, o.logger)
	}

	engineOpts := []pipeline.Option{
		pipeline.WithLogger(o.logger),
		pipeline.WithConfig(EngineConfig(o.cfg)),
	}
	if o.registerer != nil {
		engineOpts = append(engineOpts, pipeline.WithMetrics(metrics.NewCollector("pipeflow", o.registerer)))
	}
	if p != nil {
		routerOpts := []router.Option{router.WithLogger(o.logger)}
		if cache := buildCache(o.cfg, o.logger); cache != nil {
			routerOpts = append(routerOpts, router.WithCache(cache))
		}
		engineOpts = append(engineOpts, pipeline.WithRouter(router.New(p, routerOpts...)))
	}
	engineOpts = append(engineOpts, o.engineOpts...)

	engine := pipeline.NewEngine(registry, engineOpts...)
	return &Runtime{
		registry:   registry,
		engine:     engine,
		supervisor: pipeline.NewSupervisor(engine, o.logger),
		provider:   p,
		cfg:        o.cfg,
	}, nil
}

// EngineConfig translates the loaded configuration into engine settings.
func EngineConfig(cfg *config.Config) pipeline.Config {
	backoff := pipeline.BackoffExponential
	if cfg.Engine.RetryBackoff == "linear" {
		backoff = pipeline.BackoffLinear
	}
	return pipeline.Config{
		DefaultRetryAttempts: cfg.Engine.DefaultRetryAttempts,
		Backoff:              backoff,
		BaseDelay:            cfg.Engine.RetryBaseDelay,
	}
}

func buildCache(cfg *config.Config, logger *zap.Logger) *router.DecisionCache {
	if !cfg.Cache.EnableLocal && !cfg.Cache.EnableRedis {
		return nil
	}
	cacheCfg := &router.CacheConfig{
		EnableLocal:  cfg.Cache.EnableLocal,
		LocalMaxSize: cfg.Cache.LocalMaxSize,
		LocalTTL:     cfg.Cache.LocalTTL,
		EnableRedis:  cfg.Cache.EnableRedis && cfg.Cache.RedisAddr != "",
		RedisTTL:     cfg.Cache.RedisTTL,
	}
	var rdb *redis.Client
	if cacheCfg.EnableRedis {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.RedisPass,
			DB:       cfg.Cache.RedisDB,
		})
	}
	return router.NewDecisionCache(rdb, cacheCfg, logger)
}

// Registry returns the runtime's agent registry.
func (r *Runtime) Registry() *agent.Registry { return r.registry }

// Engine returns the underlying engine.
func (r *Runtime) Engine() *pipeline.Engine { return r.engine }

// Provider returns the configured LLM provider, or nil.
func (r *Runtime) Provider() llm.Provider { return r.provider }

// Process runs one supervised pipeline and blocks for its result.
func (r *Runtime) Process(ctx context.Context, agentName string, input types.Data) (string, types.Data, error) {
	return r.supervisor.Process(ctx, agentName, input)
}

// StartPipeline runs one supervised pipeline without blocking.
func (r *Runtime) StartPipeline(ctx context.Context, agentName string, input types.Data) <-chan pipeline.Result {
	return r.supervisor.StartPipeline(ctx, agentName, input)
}

// ProcessAll fans one pipeline per input out concurrently, capped by the
// configured max_concurrent.
func (r *Runtime) ProcessAll(ctx context.Context, agentName string, inputs []types.Data) []pipeline.Result {
	return r.supervisor.ProcessAll(ctx, agentName, inputs, r.cfg.Engine.MaxConcurrent)
}
