package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aretw0/auraflow"
	httpapi "github.com/aretw0/auraflow/pkg/adapters/http"
)

// ShutdownTimeout bounds the graceful stop of the HTTP server.
const ShutdownTimeout = 5 * time.Second

// Handler builds the chat API of a host.
func Handler(h *Host) http.Handler {
	return httpapi.NewHandler(h.Engine,
		httpapi.WithLogger(h.Logger),
		httpapi.WithStreams(h.Streams),
		httpapi.WithMetrics(promhttp.HandlerFor(h.Registry, promhttp.HandlerOpts{})),
		httpapi.WithVersion(auraflow.Version),
	)
}

// RunServe serves the chat API on addr and applies version changes to every
// session until ctx is cancelled.
func RunServe(ctx context.Context, h *Host, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           Handler(h),
		ReadHeaderTimeout: 10 * time.Second,
	}

	if h.Watcher != nil {
		go func() {
			if err := h.Engine.Watch(ctx, h.Watcher); err != nil && !errors.Is(err, context.Canceled) {
				h.Logger.Error("workflow watch stopped", "err", err)
			}
		}()
	}

	serverErrors := make(chan error, 1)
	go func() {
		h.Logger.Info("starting auraflow server", "addr", addr, "version", auraflow.Version)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		h.Logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			h.Logger.Warn("graceful shutdown did not complete", "timeout", ShutdownTimeout, "err", err)
			return srv.Close()
		}
		h.Logger.Info("server stopped gracefully")
		return nil
	}
}
