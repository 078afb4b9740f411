package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/BaSui01/pipeflow/config"
	"github.com/BaSui01/pipeflow/quick"
)

// Server is the operational HTTP surface: Prometheus metrics and a
// health probe that reaches through to the LLM provider when one is
// configured.
type Server struct {
	cfg        *config.Config
	rt         *quick.Runtime
	logger     *zap.Logger
	httpServer *http.Server
	shutdown   chan os.Signal
}

// NewServer builds the server around an assembled runtime.
func NewServer(cfg *config.Config, rt *quick.Runtime, logger *zap.Logger) *Server {
	s := &Server{
		cfg:      cfg,
		rt:       rt,
		logger:   logger,
		shutdown: make(chan os.Signal, 1),
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", s.handleHealthz)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		Handler:      mux,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	return s
}

type healthResponse struct {
	Status   string `json:"status"`
	Provider string `json:"provider,omitempty"`
	Latency  string `json:"latency,omitempty"`
	Error    string `json:"error,omitempty"`
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok"}
	code := http.StatusOK

	if p := s.rt.Provider(); p != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		resp.Provider = p.Name()
		status, err := p.HealthCheck(ctx)
		switch {
		case err != nil:
			resp.Status = "degraded"
			resp.Error = err.Error()
			code = http.StatusServiceUnavailable
		case !status.Healthy:
			resp.Status = "degraded"
			resp.Latency = status.Latency.String()
			code = http.StatusServiceUnavailable
		default:
			resp.Latency = status.Latency.String()
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(resp)
}

// Start begins serving in the background.
func (s *Server) Start() error {
	signal.Notify(s.shutdown, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		s.logger.Info("HTTP server listening", zap.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("HTTP server failed", zap.Error(err))
			s.shutdown <- syscall.SIGTERM
		}
	}()
	return nil
}

// WaitForShutdown blocks until a termination signal, then drains the
// server within the configured shutdown timeout.
func (s *Server) WaitForShutdown() {
	sig := <-s.shutdown
	s.logger.Info("Shutting down", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Warn("Graceful shutdown incomplete", zap.Error(err))
	}
}
