package handlers

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"trendbrief/internal/config"
	"trendbrief/internal/logger"
	"trendbrief/internal/render"
	"trendbrief/internal/server"
)

const shutdownTimeout = 10 * time.Second

// NewServeCmd creates the serve command for exposing a digest over HTTP
func NewServeCmd() *cobra.Command {
	var (
		port int
		host string
	)

	cmd := &cobra.Command{
		Use:   "serve [digest.json]",
		Short: "Serve a written digest over HTTP",
		Long: `Start a read-only HTTP server over one digest.

Endpoints:
  • GET /health
  • GET /api/status and /api/metrics
  • GET /api/digest/, /api/digest/exclusives
  • GET /api/digest/stories/{rank} and /api/digest/stories/{rank}/appearances
  • GET /digest.md

Examples:
  # Serve the configured digest on port 8080
  trendbrief serve

  # Serve an archived digest on a custom port
  trendbrief serve digest_archive/2025-03-01/noon.json --port 3000`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.GetDigest().Output
			if len(args) == 1 {
				path = args[0]
			}
			return runServe(cmd.Context(), path, port, host)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "HTTP server port (default from config: 8080)")
	cmd.Flags().StringVar(&host, "host", "", "HTTP server host (default from config: 0.0.0.0)")

	return cmd
}

func runServe(ctx context.Context, path string, port int, host string) error {
	log := logger.Get()

	d, err := render.ReadDigest(path)
	if err != nil {
		return err
	}

	serverCfg := config.GetServer()
	if port != 0 {
		serverCfg.Port = port
	}
	if host != "" {
		serverCfg.Host = host
	}

	srv := server.New(d, serverCfg)

	serverErrors := make(chan error, 1)
	go func() {
		log.Info(fmt.Sprintf("Server listening on http://%s:%d", serverCfg.Host, serverCfg.Port))
		log.Info("Press Ctrl+C to stop")
		serverErrors <- srv.Start()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(shutdown)

	if ctx == nil {
		ctx = context.Background()
	}

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		log.Info("Server shutdown initiated", "signal", sig.String())
	case <-ctx.Done():
		log.Info("Server shutdown initiated", "reason", ctx.Err())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown failed", "error", err)
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("Server stopped successfully")
	return nil
}
