package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/vk/dagwalk/internal/ctxlog"
	"github.com/vk/dagwalk/internal/metrics"
)

// healthHandler answers liveness probes.
func (a *App) healthHandler(w http.ResponseWriter, r *http.Request) {
	a.logger.Debug("Health check endpoint hit.", "remote_addr", r.RemoteAddr, "path", r.URL.Path)
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "OK")
}

// Handler returns the HTTP handler served on the health check port.
func (a *App) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", a.healthHandler)
	mux.Handle("/metrics", metrics.Handler(a.registry))
	return mux
}

// startHealthCheckServer runs the health check HTTP server in the background.
// It returns once the port is bound so that probes never race the run.
func (a *App) startHealthCheckServer(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)
	if a.config.HealthcheckPort <= 0 {
		logger.Debug("Health check server not started: disabled")
		return nil
	}

	addr := fmt.Sprintf(":%d", a.config.HealthcheckPort)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("health check server: %w", err)
	}
	a.httpServer = &http.Server{
		Handler:           a.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("🩺 Health check server starting", "address", fmt.Sprintf("http://localhost%s/health", addr))
		// Serve returns http.ErrServerClosed on graceful shutdown.
		if err := a.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Health check server failed unexpectedly", "error", err)
		}
	}()
	return nil
}

func (a *App) closeHealthCheckServer(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)
	if a.httpServer == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	logger.Info("🩺 Shutting down health check server...")
	if err := a.httpServer.Shutdown(ctx); err != nil {
		logger.Error("Health check server shutdown failed", "error", err)
		return err
	}
	a.httpServer = nil
	logger.Debug("Health check server shut down gracefully.")
	return nil
}
