package daemon

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/harun/agentq/internal/observability"
	"github.com/rs/zerolog"
)

type metricsServer struct {
	addr   string
	server *http.Server
	ln     net.Listener
	logger zerolog.Logger
}

func newMetricsServer(addr string, logger zerolog.Logger) *metricsServer {
	mux := http.NewServeMux()
	mux.Handle("/metrics", observability.MetricsHandler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return &metricsServer{
		addr: addr,
		server: &http.Server{
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: logger,
	}
}

// Start binds the listener synchronously so address errors surface to the caller
func (m *metricsServer) Start(wg *sync.WaitGroup) error {
	ln, err := net.Listen("tcp", m.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", m.addr, err)
	}
	m.ln = ln

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := m.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			m.logger.Error().Err(err).Msg("Metrics server failed")
		}
	}()

	m.logger.Info().Str("addr", ln.Addr().String()).Msg("Metrics server listening")
	return nil
}

// Addr returns the bound address once started
func (m *metricsServer) Addr() string {
	if m.ln == nil {
		return m.addr
	}
	return m.ln.Addr().String()
}

func (m *metricsServer) Shutdown(ctx context.Context) error {
	return m.server.Shutdown(ctx)
}
