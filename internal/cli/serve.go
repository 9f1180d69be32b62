package cli

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

	"typeindex/internal/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Serve similarity search and index administration over HTTP.

When an API key is present in the environment the durable store is opened and
the index is reconciled against the catalog in the background. Otherwise the
server starts in in-memory mode and waits for POST /api/connect.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	logger := newLogger()

	app, err := NewApp(GetRootDir(), cfg, logger)
	if err != nil {
		return err
	}
	defer app.Close()

	if app.Creds.Available() {
		if err := app.Connect(""); err != nil {
			logger.Warn("startup connect failed, staying in in-memory mode: %v", err)
		}
	} else {
		logger.Info("no API key in %s, waiting for /api/connect", cfg.Embedding.APIKeyEnv)
	}

	addr := cfg.Server.Addr
	if serveAddr != "" {
		addr = serveAddr
	}
	handlers := server.NewHandlers(app.Search, app.Lifecycle, app, logger)
	srv := server.New(addr, handlers, logger)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-stop:
		logger.Info("shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}
