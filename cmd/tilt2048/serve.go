package main

import (
	"context"
	"errors"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/tilt2048/internal/platform/tui"
	"github.com/vovakirdan/tilt2048/internal/platform/web"
	"github.com/vovakirdan/tilt2048/internal/storage"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(a *app) *cobra.Command {
	var (
		sshAddr  string
		httpAddr string
		hostKey  string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the SSH and HTTP servers",
		Long: `Start the SSH server, the HTTP API, or both.

Each SSH connection gets its own session with a board picker. HTTP clients
create games with POST /api/games and watch them over a websocket at
/api/games/{id}/ws. All players share one leaderboard.

Pass an empty address to disable a server.

Host key handling:
  - If --host-key is provided, uses that key file
  - Otherwise, auto-generates a key at ~/.tilt2048/host_key

Examples:
  tilt2048 serve                       # SSH on :23234, HTTP on :8048
  tilt2048 serve --ssh :2222           # SSH on port 2222
  tilt2048 serve --http ""             # SSH only
  tilt2048 serve --db ./scores.db      # Use specific database

Users can connect with:
  ssh localhost -p 23234`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := a.cfg
			if cmd.Flags().Changed("ssh") {
				cfg.Server.SSHAddr = sshAddr
			}
			if cmd.Flags().Changed("http") {
				cfg.Server.HTTPAddr = httpAddr
			}
			if cmd.Flags().Changed("host-key") {
				cfg.Server.HostKeyPath = hostKey
			}
			if cfg.Server.SSHAddr == "" && cfg.Server.HTTPAddr == "" {
				return errors.New("serve: both --ssh and --http are disabled")
			}

			logger := a.logger
			store, err := storage.Open(cfg.Storage.DBPath)
			if err != nil {
				return err
			}
			defer store.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			type server interface {
				ListenAndServe() error
				Shutdown(context.Context) error
			}
			var servers []server

			if cfg.Server.SSHAddr != "" {
				s, err := tui.NewSSHServer(cfg, store, logger)
				if err != nil {
					return err
				}
				servers = append(servers, s)
				logger.Info("ssh server", "addr", cfg.Server.SSHAddr, "connect", "ssh localhost -p "+portOf(cfg.Server.SSHAddr))
			}
			if cfg.Server.HTTPAddr != "" {
				servers = append(servers, web.NewServer(cfg, store, logger))
				logger.Info("http server", "addr", cfg.Server.HTTPAddr)
			}

			errs := make(chan error, len(servers))
			for _, s := range servers {
				go func() { errs <- s.ListenAndServe() }()
			}

			var runErr error
			select {
			case <-ctx.Done():
				logger.Info("shutting down")
			case runErr = <-errs:
				logger.Error("server stopped", "error", runErr)
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			for _, s := range servers {
				if err := s.Shutdown(shutdownCtx); err != nil {
					logger.Warn("shutdown", "error", err)
				}
			}
			return runErr
		},
	}
	cmd.Flags().StringVar(&sshAddr, "ssh", "", "SSH server address (default from config, :23234)")
	cmd.Flags().StringVar(&httpAddr, "http", "", "HTTP server address (default from config, :8048)")
	cmd.Flags().StringVar(&hostKey, "host-key", "", "Path to host key file (auto-generated if not specified)")
	return cmd
}

// portOf returns the port part of a listen address.
func portOf(addr string) string {
	if _, port, err := net.SplitHostPort(addr); err == nil {
		return port
	}
	return addr
}
