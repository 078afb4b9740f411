package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/BaSui01/pipeflow/config"
	"github.com/BaSui01/pipeflow/quick"
	"github.com/BaSui01/pipeflow/testutil/fixtures"
	"github.com/BaSui01/pipeflow/types"
)

// Build-time injected.
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		runServe(os.Args[2:])
	case "run":
		runPipeline(os.Args[2:])
	case "version":
		printVersion()
	case "health":
		runHealthCheck(os.Args[2:])
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func loadConfig(configPath string) *config.Config {
	loader := config.NewLoader()
	if configPath != "" {
		loader = loader.WithConfigPath(configPath)
	}
	cfg, err := loader.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid config: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

func runServe(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	fs.Parse(args)

	cfg := loadConfig(*configPath)
	logger := initLogger(cfg.Log)
	defer logger.Sync()

	logger.Info("Starting pipeflow",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
		zap.String("git_commit", GitCommit))

	runtimeOpts := []quick.Option{
		quick.WithConfig(cfg),
		quick.WithLogger(logger),
		quick.WithMetrics(prometheus.DefaultRegisterer),
	}
	if cfg.LLM.APIKey != "" {
		runtimeOpts = append(runtimeOpts,
			quick.WithOpenAI(cfg.LLM.DefaultModel),
			quick.WithAPIKey(cfg.LLM.APIKey),
			quick.WithBaseURL(cfg.LLM.BaseURL))
	}

	registry := fixtures.GreeterChain()
	registry.MustRegister(fixtures.ModerationAgent())

	rt, err := quick.New(registry, runtimeOpts...)
	if err != nil {
		logger.Fatal("Failed to assemble runtime", zap.Error(err))
	}

	server := NewServer(cfg, rt, logger)
	if err := server.Start(); err != nil {
		logger.Fatal("Failed to start server", zap.Error(err))
	}
	server.WaitForShutdown()

	logger.Info("pipeflow stopped")
}

func runPipeline(args []string) {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	input := fs.String("input", "{}", "Pipeline input as a JSON object")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: pipeflow run <agent> [--input '{...}']")
		os.Exit(1)
	}
	agentName := fs.Arg(0)
	// Flag parsing stops at the agent name; parse the flags that follow it.
	fs.Parse(fs.Args()[1:])

	var data types.Data
	if err := json.Unmarshal([]byte(*input), &data); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid --input: %v\n", err)
		os.Exit(1)
	}

	cfg := loadConfig(*configPath)
	logger := initLogger(cfg.Log)
	defer logger.Sync()

	registry := fixtures.GreeterChain()
	registry.MustRegister(fixtures.ModerationAgent())

	opts := []quick.Option{quick.WithConfig(cfg), quick.WithLogger(logger)}
	if cfg.LLM.APIKey != "" {
		opts = append(opts,
			quick.WithOpenAI(cfg.LLM.DefaultModel),
			quick.WithAPIKey(cfg.LLM.APIKey),
			quick.WithBaseURL(cfg.LLM.BaseURL))
	}
	rt, err := quick.New(registry, opts...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to assemble runtime: %v\n", err)
		os.Exit(1)
	}

	outcome, out, err := rt.Process(context.Background(), agentName, data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Pipeline failed: %v\n", err)
		os.Exit(1)
	}

	result, _ := json.MarshalIndent(map[string]any{"outcome": outcome, "data": out}, "", "  ")
	fmt.Println(string(result))
}

func runHealthCheck(args []string) {
	fs := flag.NewFlagSet("health", flag.ExitOnError)
	addr := fs.String("addr", "http://localhost:8080", "Server address")
	fs.Parse(args)

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(*addr + "/healthz")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Health check failed: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		fmt.Fprintf(os.Stderr, "Health check failed: status %d\n", resp.StatusCode)
		os.Exit(1)
	}
	fmt.Println("OK")
}

func printVersion() {
	fmt.Printf("pipeflow %s\n", Version)
	fmt.Printf("  Build Time: %s\n", BuildTime)
	fmt.Printf("  Git Commit: %s\n", GitCommit)
}

func printUsage() {
	fmt.Println(`pipeflow - agent pipeline engine

Usage:
  pipeflow <command> [options]

Commands:
  serve     Start the operational HTTP server (/metrics, /healthz)
  run       Run a bundled demo pipeline from the terminal
  version   Show version information
  health    Check server health
  help      Show this help message

Options for 'serve' and 'run':
  --config <path>   Path to configuration file (YAML)

Examples:
  pipeflow serve
  pipeflow serve --config /etc/pipeflow/config.yaml
  pipeflow run greeter --input '{"name":"Maria","language":"es"}'
  pipeflow health --addr http://localhost:8080
  pipeflow version`)
}

func initLogger(cfg config.LogConfig) *zap.Logger {
	var level zapcore.Level
	switch cfg.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "info":
		level = zapcore.InfoLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	var encoderConfig zapcore.EncoderConfig
	encoding := "json"
	if cfg.Format == "console" {
		encoderConfig = zap.NewDevelopmentEncoderConfig()
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoding = "console"
	} else {
		encoderConfig = zap.NewProductionEncoderConfig()
		encoderConfig.TimeKey = "timestamp"
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	outputs := cfg.OutputPaths
	if len(outputs) == 0 {
		outputs = []string{"stdout"}
	}

	zapConfig := zap.Config{
		Level:            zap.NewAtomicLevelAt(level),
		Development:      encoding == "console",
		Encoding:         encoding,
		EncoderConfig:    encoderConfig,
		OutputPaths:      outputs,
		ErrorOutputPaths: []string{"stderr"},
	}

	logger, err := zapConfig.Build(
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.ErrorLevel),
	)
	if err != nil {
		logger, _ = zap.NewProduction()
	}
	return logger
}
