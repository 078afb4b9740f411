// Package config loads runtime configuration with a fixed precedence:
// built-in defaults, then an optional YAML file, then PIPEFLOW_-prefixed
// environment variables.
package config
