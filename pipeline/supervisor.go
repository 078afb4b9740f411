package pipeline

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/BaSui01/pipeflow/types"
)

// Result is the terminal outcome of one pipeline run.
type Result struct {
	Outcome string
	Data    types.Data
	Err     error
}

// Supervisor runs each pipeline in its own goroutine and observes it:
// a panicking worker is reported as PIPELINE_CRASHED, never restarted,
// and cannot disturb sibling pipelines.
type Supervisor struct {
	engine *Engine
	logger *zap.Logger
}

// NewSupervisor wraps an engine.
func NewSupervisor(engine *Engine, logger *zap.Logger) *Supervisor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Supervisor{engine: engine, logger: logger}
}

// StartPipeline spawns a worker for one pipeline and returns the channel
// its single Result will be delivered on.
func (s *Supervisor) StartPipeline(ctx context.Context, agentName string, input types.Data) <-chan Result {
	ch := make(chan Result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("pipeline crashed",
					zap.String("agent", agentName),
					zap.Any("panic", r))
				ch <- Result{Err: types.NewErrorf(types.ErrPipelineCrashed,
					"pipeline worker crashed: %v", r).WithAgent(agentName)}
			}
		}()
		outcome, data, err := s.engine.Process(ctx, agentName, input)
		ch <- Result{Outcome: outcome, Data: data, Err: err}
	}()
	return ch
}

// Process runs one pipeline and blocks for its result.
func (s *Supervisor) Process(ctx context.Context, agentName string, input types.Data) (string, types.Data, error) {
	res := <-s.StartPipeline(ctx, agentName, input)
	return res.Outcome, res.Data, res.Err
}

// ProcessAll runs one pipeline per input concurrently and returns the
// results in input order. Individual failures are reported per slot;
// concurrency caps at limit (0 means unbounded).
func (s *Supervisor) ProcessAll(ctx context.Context, agentName string, inputs []types.Data, limit int) []Result {
	results := make([]Result, len(inputs))
	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, input := range inputs {
		g.Go(func() error {
			results[i] = <-s.StartPipeline(ctx, agentName, input)
			return nil
		})
	}
	_ = g.Wait()
	return results
}
