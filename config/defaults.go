package config

import "time"

// Default returns the built-in configuration every load starts from.
func Default() *Config {
	return &Config{
		Server:    DefaultServer(),
		Engine:    DefaultEngine(),
		LLM:       DefaultLLM(),
		Cache:     DefaultCache(),
		Log:       DefaultLog(),
		Telemetry: DefaultTelemetry(),
	}
}

// DefaultServer returns the default operational endpoint settings.
func DefaultServer() ServerConfig {
	return ServerConfig{
		HTTPPort:        8080,
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    30 * time.Second,
		ShutdownTimeout: 15 * time.Second,
	}
}

// DefaultEngine returns the default pipeline execution settings.
func DefaultEngine() EngineConfig {
	return EngineConfig{
		DefaultRetryAttempts: 3,
		RetryBackoff:         "exponential",
		RetryBaseDelay:       time.Second,
	}
}

// DefaultLLM returns the default model provider settings.
func DefaultLLM() LLMConfig {
	return LLMConfig{
		Provider:     "openai",
		BaseURL:      "https://api.openai.com",
		DefaultModel: "gpt-4o-mini",
		Timeout:      30 * time.Second,
	}
}

// DefaultCache returns the default decision cache settings. Redis stays
// off until an address is configured.
func DefaultCache() CacheConfig {
	return CacheConfig{
		EnableLocal:  true,
		LocalMaxSize: 1000,
		LocalTTL:     5 * time.Minute,
		RedisTTL:     time.Hour,
	}
}

// DefaultLog returns the default logging settings.
func DefaultLog() LogConfig {
	return LogConfig{
		Level:       "debug",
		Format:      "json",
		OutputPaths: []string{"stdout"},
	}
}

// DefaultTelemetry returns the default tracing settings.
func DefaultTelemetry() TelemetryConfig {
	return TelemetryConfig{
		ServiceName: "pipeflow",
		SampleRate:  1.0,
	}
}
