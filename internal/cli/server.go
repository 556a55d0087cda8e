package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/SmitUplenchwar2687/Rewind/internal/archive"
	"github.com/SmitUplenchwar2687/Rewind/internal/event"
	"github.com/SmitUplenchwar2687/Rewind/internal/server"
)

// monitor is a running monitor server.
type monitor struct {
	srv   *server.Server
	hub   *server.Hub
	errCh chan error
	addr  string
	log   zerolog.Logger
}

// startMonitor binds addr synchronously so bind errors surface before a
// capture or replay starts, then serves in the background.
func startMonitor(addr string, a *archive.Archive, log zerolog.Logger) (*monitor, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("starting monitor: %w", err)
	}
	hub := server.NewHub(log)
	m := &monitor{
		hub:   hub,
		errCh: make(chan error, 1),
		addr:  ln.Addr().String(),
		log:   log,
		srv: server.New(addr, server.Options{
			Hub:     hub,
			Archive: a,
			Logger:  log,
		}),
	}
	go func() {
		m.errCh <- m.srv.StartOnListener(ln)
	}()
	return m, nil
}

// sink returns the event sink for m, which may be nil.
func (m *monitor) sink() event.Sink {
	if m == nil {
		return nil
	}
	return m.hub
}

func (m *monitor) stop() {
	if m == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := m.srv.Shutdown(ctx); err != nil {
		m.log.Warn().Err(err).Msg("monitor shutdown")
	}
}

func newMonitorCmd() *cobra.Command {
	var (
		addr       string
		configPath string
		storage    storageOptions
	)

	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "Start the standalone monitor server",
		Long: `Starts the HTTP monitor on its own, serving the archived session library.

Endpoints:
  GET /                      Service info
  GET /health                Health check
  GET /metrics               Prometheus metrics
  GET /dashboard/            Live capture and replay dashboard
  WS  /ws                    WebSocket event feed
  GET /api/sessions          Archived sessions, newest first
  GET /api/sessions/{ref}    Download a session file by id or name

"record" and "play" accept --monitor to run the same server alongside a
capture or replay.`,
		Example: `  rewind monitor
  rewind monitor --addr :9090 --storage redis --redis-host localhost:6379`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("addr") {
				addr = cfg.Monitor.Addr
			}
			log, err := newLogger(cmd, cfg.Log)
			if err != nil {
				return err
			}

			a, err := storage.open(cmd, cfg.Archive, log)
			if err != nil {
				return err
			}
			defer a.Close()

			m, err := startMonitor(addr, a, log)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "\n  Rewind Monitor\n")
			fmt.Fprintf(cmd.OutOrStdout(), "  ────────────────────────────────────\n")
			fmt.Fprintf(cmd.OutOrStdout(), "  Dashboard:  http://%s/dashboard/\n", m.addr)
			fmt.Fprintf(cmd.OutOrStdout(), "  Sessions:   http://%s/api/sessions\n", m.addr)
			fmt.Fprintf(cmd.OutOrStdout(), "  WebSocket:  ws://%s/ws\n", m.addr)
			fmt.Fprintf(cmd.OutOrStdout(), "  ────────────────────────────────────\n\n")

			ctx, stop := signalContext(cmd)
			defer stop()

			select {
			case err := <-m.errCh:
				return err
			case <-ctx.Done():
				log.Info().Msg("shutting down")
				m.stop()
				if err := <-m.errCh; err != nil && !errors.Is(err, context.Canceled) {
					return err
				}
				return nil
			}
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "address to listen on")
	cmd.Flags().StringVar(&configPath, "config", "", "path to JSON or TOML config file")
	storage.addFlags(cmd)

	return cmd
}
