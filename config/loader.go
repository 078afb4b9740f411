package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full process configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server" env:"SERVER"`
	Engine    EngineConfig    `yaml:"engine" env:"ENGINE"`
	LLM       LLMConfig       `yaml:"llm" env:"LLM"`
	Cache     CacheConfig     `yaml:"cache" env:"CACHE"`
	Log       LogConfig       `yaml:"log" env:"LOG"`
	Telemetry TelemetryConfig `yaml:"telemetry" env:"TELEMETRY"`
}

// ServerConfig configures the operational HTTP endpoint.
type ServerConfig struct {
	HTTPPort        int           `yaml:"http_port" env:"HTTP_PORT"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"WRITE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
}

// EngineConfig holds the pipeline execution knobs.
type EngineConfig struct {
	// DefaultRetryAttempts bounds Retry outcomes that declare no bound.
	DefaultRetryAttempts int `yaml:"default_retry_attempts" env:"DEFAULT_RETRY_ATTEMPTS"`
	// RetryBackoff is "exponential" or "linear".
	RetryBackoff   string        `yaml:"retry_backoff" env:"RETRY_BACKOFF"`
	RetryBaseDelay time.Duration `yaml:"retry_base_delay" env:"RETRY_BASE_DELAY"`
	// MaxConcurrent caps Supervisor.ProcessAll fan-out. 0 means unbounded.
	MaxConcurrent int `yaml:"max_concurrent" env:"MAX_CONCURRENT"`
}

// LLMConfig configures the outcome-routing model provider.
type LLMConfig struct {
	Provider          string        `yaml:"provider" env:"PROVIDER"`
	APIKey            string        `yaml:"api_key" env:"API_KEY"`
	BaseURL           string        `yaml:"base_url" env:"BASE_URL"`
	DefaultModel      string        `yaml:"default_model" env:"DEFAULT_MODEL"`
	Timeout           time.Duration `yaml:"timeout" env:"TIMEOUT"`
	RequestsPerSecond float64       `yaml:"requests_per_second" env:"REQUESTS_PER_SECOND"`
	Burst             int           `yaml:"burst" env:"BURST"`
}

// CacheConfig configures the routing-decision cache.
type CacheConfig struct {
	EnableLocal  bool          `yaml:"enable_local" env:"ENABLE_LOCAL"`
	LocalMaxSize int           `yaml:"local_max_size" env:"LOCAL_MAX_SIZE"`
	LocalTTL     time.Duration `yaml:"local_ttl" env:"LOCAL_TTL"`
	EnableRedis  bool          `yaml:"enable_redis" env:"ENABLE_REDIS"`
	RedisAddr    string        `yaml:"redis_addr" env:"REDIS_ADDR"`
	RedisPass    string        `yaml:"redis_password" env:"REDIS_PASSWORD"`
	RedisDB      int           `yaml:"redis_db" env:"REDIS_DB"`
	RedisTTL     time.Duration `yaml:"redis_ttl" env:"REDIS_TTL"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level" env:"LEVEL"`
	// Format is json or console.
	Format      string   `yaml:"format" env:"FORMAT"`
	OutputPaths []string `yaml:"output_paths" env:"OUTPUT_PATHS"`
}

// TelemetryConfig configures tracing.
type TelemetryConfig struct {
	Enabled     bool    `yaml:"enabled" env:"ENABLED"`
	ServiceName string  `yaml:"service_name" env:"SERVICE_NAME"`
	SampleRate  float64 `yaml:"sample_rate" env:"SAMPLE_RATE"`
}

// Loader assembles a Config with defaults, file and env precedence.
type Loader struct {
	configPath string
	envPrefix  string
	validators []func(*Config) error
}

// NewLoader creates a loader with the PIPEFLOW env prefix.
func NewLoader() *Loader {
	return &Loader{envPrefix: "PIPEFLOW"}
}

// WithConfigPath points the loader at a YAML file. A missing file is not
// an error; the defaults stand.
func (l *Loader) WithConfigPath(path string) *Loader {
	l.configPath = path
	return l
}

// WithEnvPrefix overrides the environment-variable prefix.
func (l *Loader) WithEnvPrefix(prefix string) *Loader {
	l.envPrefix = prefix
	return l
}

// WithValidator adds a validation hook run after loading.
func (l *Loader) WithValidator(v func(*Config) error) *Loader {
	l.validators = append(l.validators, v)
	return l
}

// Load resolves the configuration: defaults, then file, then env.
func (l *Loader) Load() (*Config, error) {
	cfg := Default()

	if l.configPath != "" {
		if err := l.loadFromFile(cfg); err != nil {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}
	if err := l.setFieldsFromEnv(reflect.ValueOf(cfg).Elem(), l.envPrefix); err != nil {
		return nil, fmt.Errorf("load config from env: %w", err)
	}
	for _, v := range l.validators {
		if err := v(cfg); err != nil {
			return nil, fmt.Errorf("config validation: %w", err)
		}
	}
	return cfg, nil
}

func (l *Loader) loadFromFile(cfg *Config) error {
	data, err := os.ReadFile(l.configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

func (l *Loader) setFieldsFromEnv(v reflect.Value, prefix string) error {
	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		envTag := t.Field(i).Tag.Get("env")
		if envTag == "" || envTag == "-" {
			continue
		}
		envKey := prefix + "_" + envTag

		if field.Kind() == reflect.Struct && field.Type() != reflect.TypeOf(time.Duration(0)) {
			if err := l.setFieldsFromEnv(field, envKey); err != nil {
				return err
			}
			continue
		}
		envValue := os.Getenv(envKey)
		if envValue == "" {
			continue
		}
		if err := setFieldValue(field, envValue); err != nil {
			return fmt.Errorf("set %s: %w", envKey, err)
		}
	}
	return nil
}

func setFieldValue(field reflect.Value, value string) error {
	if !field.CanSet() {
		return nil
	}
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(value)
			if err != nil {
				return err
			}
			field.SetInt(int64(d))
			return nil
		}
		i, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return err
		}
		field.SetInt(i)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		field.SetFloat(f)
	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(b)
	case reflect.Slice:
		if field.Type().Elem().Kind() == reflect.String {
			parts := strings.Split(value, ",")
			for i := range parts {
				parts[i] = strings.TrimSpace(parts[i])
			}
			field.Set(reflect.ValueOf(parts))
		}
	}
	return nil
}

// MustLoad loads the configuration from path, panicking on failure.
func MustLoad(path string) *Config {
	cfg, err := NewLoader().WithConfigPath(path).Load()
	if err != nil {
		panic(fmt.Sprintf("load config: %v", err))
	}
	return cfg
}

// Validate checks cross-field consistency.
func (c *Config) Validate() error {
	var errs []string
	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		errs = append(errs, "invalid HTTP port")
	}
	if c.Engine.DefaultRetryAttempts <= 0 {
		errs = append(errs, "default_retry_attempts must be positive")
	}
	if c.Engine.RetryBackoff != "exponential" && c.Engine.RetryBackoff != "linear" {
		errs = append(errs, fmt.Sprintf("unknown retry_backoff %q", c.Engine.RetryBackoff))
	}
	if c.Engine.RetryBaseDelay <= 0 {
		errs = append(errs, "retry_base_delay must be positive")
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Sprintf("unknown log level %q", c.Log.Level))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config validation errors: %s", strings.Join(errs, "; "))
	}
	return nil
}
