package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultIsValid(t *testing.T) {
	assert.NoError(t, Default().Validate())
}

func TestDefaultValues(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 3, cfg.Engine.DefaultRetryAttempts)
	assert.Equal(t, "exponential", cfg.Engine.RetryBackoff)
	assert.Equal(t, time.Second, cfg.Engine.RetryBaseDelay)
	assert.Zero(t, cfg.Engine.MaxConcurrent)

	assert.Equal(t, "gpt-4o-mini", cfg.LLM.DefaultModel)
	assert.Equal(t, 30*time.Second, cfg.LLM.Timeout)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, []string{"stdout"}, cfg.Log.OutputPaths)

	assert.Equal(t, 1000, cfg.Cache.LocalMaxSize)
	assert.Equal(t, 5*time.Minute, cfg.Cache.LocalTTL)
	assert.Equal(t, time.Hour, cfg.Cache.RedisTTL)

	assert.Equal(t, "pipeflow", cfg.Telemetry.ServiceName)
}

func TestDefaultReturnsFreshCopies(t *testing.T) {
	a := Default()
	a.Engine.DefaultRetryAttempts = 99
	assert.Equal(t, 3, Default().Engine.DefaultRetryAttempts)
}
