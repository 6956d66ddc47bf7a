package healthcheck

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// NormalizeListen turns a bare port ("3000") into ":3000". Anything else is
// returned trimmed.
func NormalizeListen(listen string) string {
	listen = strings.TrimSpace(listen)
	if listen == "" {
		return ""
	}
	if _, err := strconv.Atoi(listen); err == nil {
		return ":" + listen
	}
	return listen
}

// ListenAddr joins bind and port. An empty bind listens on all interfaces.
func ListenAddr(bind string, port int) string {
	if port <= 0 {
		return ""
	}
	return net.JoinHostPort(strings.TrimSpace(bind), strconv.Itoa(port))
}

func Handler(service string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = fmt.Fprintf(w, "%s is running\n", service)
	})
	return mux
}

// StartServer listens on addr and serves Handler until ctx is done or the
// returned server is shut down.
func StartServer(ctx context.Context, logger *slog.Logger, addr string, service string) (*http.Server, error) {
	if logger == nil {
		logger = slog.Default()
	}
	addr = NormalizeListen(addr)
	if addr == "" {
		return nil, fmt.Errorf("health listen address is required")
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", addr, err)
	}
	srv := &http.Server{
		Handler:           Handler(service),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("health_server_start", "addr", ln.Addr().String(), "service", service)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("health_server_error", "addr", addr, "error", err.Error())
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	return srv, nil
}
