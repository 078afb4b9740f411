package pipeline

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/pipeflow/agent"
	"github.com/BaSui01/pipeflow/schema"
	"github.com/BaSui01/pipeflow/types"
)

func supervisorRegistry(t *testing.T) *agent.Registry {
	t.Helper()
	registry := agent.NewRegistry()
	registry.MustRegister(agent.NewDefinition("echo").
		Input(schema.String("name").WithRequired()).
		Output(schema.String("greeting")).
		Outcome("done", agent.Terminal()).
		Handle(func(ctx context.Context, input types.Data) (string, types.Data, error) {
			return "done", types.Data{"greeting": "hello " + input["name"].(string)}, nil
		}).
		MustBuild())
	registry.MustRegister(agent.NewDefinition("bomb").
		Input(schema.Any("payload")).
		Output(schema.Any("unused")).
		Outcome("done", agent.Terminal()).
		Handle(func(ctx context.Context, input types.Data) (string, types.Data, error) {
			panic("boom")
		}).
		MustBuild())
	return registry
}

func TestSupervisorRecoversPanic(t *testing.T) {
	sup := NewSupervisor(NewEngine(supervisorRegistry(t)), nil)

	_, _, err := sup.Process(context.Background(), "bomb", types.Data{"payload": 1})
	require.Error(t, err)
	assert.Equal(t, types.ErrPipelineCrashed, types.GetErrorCode(err))
	assert.Contains(t, err.Error(), "boom")
}

func TestSupervisorPanicDoesNotDisturbSiblings(t *testing.T) {
	sup := NewSupervisor(NewEngine(supervisorRegistry(t)), nil)
	ctx := context.Background()

	crash := sup.StartPipeline(ctx, "bomb", types.Data{"payload": 1})
	ok := sup.StartPipeline(ctx, "echo", types.Data{"name": "Maria"})

	crashRes := <-crash
	okRes := <-ok

	assert.Equal(t, types.ErrPipelineCrashed, types.GetErrorCode(crashRes.Err))
	require.NoError(t, okRes.Err)
	assert.Equal(t, "done", okRes.Outcome)
	assert.Equal(t, "hello Maria", okRes.Data["greeting"])
}

func TestConcurrentPipelinesGetDistinctIDs(t *testing.T) {
	sup := NewSupervisor(NewEngine(supervisorRegistry(t)), nil)
	ctx := context.Background()

	const n = 5
	var wg sync.WaitGroup
	results := make([]Result, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = <-sup.StartPipeline(ctx, "echo", types.Data{"name": "X"})
		}()
	}
	wg.Wait()

	seen := map[int64]bool{}
	for _, res := range results {
		require.NoError(t, res.Err)
		id := res.Data.PipelineID()
		assert.Positive(t, id)
		assert.False(t, seen[id], "pipeline id %d assigned twice", id)
		seen[id] = true
	}
	assert.Len(t, seen, n)
}

func TestProcessAllPreservesInputOrder(t *testing.T) {
	sup := NewSupervisor(NewEngine(supervisorRegistry(t)), nil)

	inputs := make([]types.Data, 8)
	for i := range inputs {
		inputs[i] = types.Data{"name": fmt.Sprintf("user-%d", i)}
	}
	results := sup.ProcessAll(context.Background(), "echo", inputs, 3)

	require.Len(t, results, len(inputs))
	for i, res := range results {
		require.NoError(t, res.Err)
		assert.Equal(t, fmt.Sprintf("hello user-%d", i), res.Data["greeting"])
	}
}

func TestProcessAllReportsPerSlotFailures(t *testing.T) {
	registry := supervisorRegistry(t)
	sup := NewSupervisor(NewEngine(registry), nil)

	results := sup.ProcessAll(context.Background(), "echo", []types.Data{
		{"name": "ok"},
		{},
		{"name": "also ok"},
	}, 0)

	require.Len(t, results, 3)
	assert.NoError(t, results[0].Err)
	assert.Equal(t, types.ErrValidation, types.GetErrorCode(results[1].Err))
	assert.NoError(t, results[2].Err)
}
