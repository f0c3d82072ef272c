package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/gemora/internal/devserver"
	"github.com/felixgeelhaar/gemora/internal/version"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the in-memory development backend",
	Long: `Run an in-memory implementation of the Gemora backend API for local
development. Tokens are real HS256 JWTs carrying the role, and admin routes
enforce the ADMIN role. Nothing is persisted.

With --seed the server starts with demo data:
  admin@gemora.lk / admin123  (ADMIN)
  user@gemora.lk  / user123   (USER)
plus pending and approved gem listings and open support tickets.

The server shuts down gracefully on SIGINT or SIGTERM.

Example:
  # Start on the default address with demo data
  gemora serve --seed

  # Point the client at it
  gemora auth login --email admin@gemora.lk`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var (
	serveAddress         string
	serveSeed            bool
	serveSecret          string
	serveTokenTTL        time.Duration
	serveShutdownTimeout time.Duration
	serveReadTimeout     time.Duration
	serveWriteTimeout    time.Duration
)

func init() {
	serveCmd.Flags().StringVar(&serveAddress, "address", "127.0.0.1:8080", "Address to listen on")
	serveCmd.Flags().BoolVar(&serveSeed, "seed", false, "Load demo accounts, gems and tickets")
	serveCmd.Flags().StringVar(&serveSecret, "secret", "", "Token signing secret (random when empty)")
	serveCmd.Flags().DurationVar(&serveTokenTTL, "token-ttl", time.Hour, "Lifetime of issued tokens")
	serveCmd.Flags().DurationVar(&serveShutdownTimeout, "shutdown-timeout", 10*time.Second, "Maximum time to wait for connections to drain during shutdown")
	serveCmd.Flags().DurationVar(&serveReadTimeout, "read-timeout", 10*time.Second, "Maximum duration for reading the entire request")
	serveCmd.Flags().DurationVar(&serveWriteTimeout, "write-timeout", 10*time.Second, "Maximum duration before timing out writes of the response")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	srv, err := devserver.New(devserver.Config{
		Address:         serveAddress,
		Secret:          []byte(serveSecret),
		TokenTTL:        serveTokenTTL,
		Seed:            serveSeed,
		ShutdownTimeout: serveShutdownTimeout,
		ReadTimeout:     serveReadTimeout,
		WriteTimeout:    serveWriteTimeout,
	}, devserver.WithLogger(run.logger), devserver.WithMetrics(run.metrics, run.registry))
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	listener, err := net.Listen("tcp", serveAddress)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", serveAddress, err)
	}
	addr := listener.Addr().String()

	fmt.Fprintf(out, "Gemora development backend %s\n", version.Short())
	fmt.Fprintf(out, "Listening on: http://%s\n", addr)
	fmt.Fprintf(out, "API base URL: http://%s/api\n", addr)
	fmt.Fprintf(out, "Health:       http://%s/healthz\n", addr)
	fmt.Fprintf(out, "Metrics:      http://%s/metrics\n", addr)
	if serveSeed {
		fmt.Fprintf(out, "Demo admin:   %s / %s\n", devserver.SeedAdminEmail, devserver.SeedAdminPassword)
		fmt.Fprintf(out, "Demo user:    %s / %s\n", devserver.SeedUserEmail, devserver.SeedUserPassword)
	}
	fmt.Fprintf(out, "\nPress Ctrl+C to stop the server\n")

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- srv.Serve(listener)
	}()

	select {
	case err := <-serverErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)

	case <-ctx.Done():
		fmt.Fprintln(out, "\nInitiating graceful shutdown...")

		if err := srv.Shutdown(context.WithoutCancel(ctx)); err != nil {
			return fmt.Errorf("shutdown error: %w", err)
		}
		<-serverErr

		fmt.Fprintln(out, "Server stopped gracefully")
		return nil
	}
}
