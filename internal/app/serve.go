package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/addonsweep/internal/web"
)

const shutdownTimeout = 10 * time.Second

var (
	serveListen string

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Serve the listing and removal form over HTTP",
		Long: `Start a web server showing the four-group listing with a checkbox next
to every removable extension.

Each page load runs a fresh classification. Removal requests carry a
per-session security token; a request without a valid token is refused and
nothing is removed. Batches are executed one at a time.

The server binds to serve.listen (default 127.0.0.1:8089). It has no login
of its own: put it behind the host's administrator authentication or keep it
on the loopback interface.`,
		Example: `  # Serve on the default address
  addonsweep serve

  # Serve on another port
  addonsweep serve --listen 127.0.0.1:9000`,
		RunE: runServe,
	}
)

func init() {
	serveCmd.Flags().StringVar(&serveListen, "listen", "", "listen address (overrides serve.listen)")
	RootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	e, err := openEnv(ctx)
	if err != nil {
		return err
	}
	defer e.Close()

	addr := e.cfg.Serve.Listen
	if serveListen != "" {
		addr = serveListen
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           web.New(e.engine, e.remover, e.logger).Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	e.logger.Info("listening", "addr", addr, "prefix", e.cfg.Product.Prefix)
	fmt.Fprintf(cmd.OutOrStdout(), "Serving on http://%s (Ctrl+C to stop)\n", addr)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		e.logger.Info("shutting down", "signal", sig.String())
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}
