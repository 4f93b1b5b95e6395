package observe

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	metricsPath     = "/metrics"
	shutdownTimeout = 5 * time.Second
)

// Handler serves g on /metrics, wrapped in [Middleware]. A nil g means
// [prometheus.DefaultGatherer].
func Handler(m *Metrics, g prometheus.Gatherer) http.Handler {
	if g == nil {
		g = prometheus.DefaultGatherer
	}
	mux := http.NewServeMux()
	mux.Handle("GET "+metricsPath, promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
	return Middleware(m)(mux)
}

// Serve listens on addr and serves [Handler] until ctx is cancelled. It
// returns once the listener is closed. A nil error means a clean shutdown.
func Serve(ctx context.Context, addr string, m *Metrics, g prometheus.Gatherer) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return serve(ctx, ln, m, g)
}

func serve(ctx context.Context, ln net.Listener, m *Metrics, g prometheus.Gatherer) error {
	srv := &http.Server{
		Handler:           Handler(m, g),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("metrics endpoint listening", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		<-errCh
		return nil
	}
}
