package health

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// Run serves handler on addr until ctx is cancelled, then shuts down
// gracefully. It returns once the listener has stopped.
func Run(ctx context.Context, addr string, service string, handler http.Handler, readHeaderTimeout time.Duration) error {
	if readHeaderTimeout <= 0 {
		return fmt.Errorf("read_header_timeout must be specified in config")
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	slog.Info("HTTP server listening", "service", service, "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	slog.Info("HTTP server stopped", "service", service)
	return nil
}

func AddrFor(port int) (string, error) {
	if port <= 0 {
		return "", fmt.Errorf("port must be greater than 0, got %d", port)
	}
	return fmt.Sprintf(":%d", port), nil
}
