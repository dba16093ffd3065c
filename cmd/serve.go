package cmd

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
	"go.uber.org/zap"

	"worktally/web"
)

var (
	serveHost string
	servePort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the JSON API for entries, reports and settings",
	Long: `Start an HTTP server exposing the JSON API.

Routes:
  POST   /api/entries
  GET    /api/entries/{workItemId}/{userId}
  DELETE /api/entries/{workItemId}/{userId}
  GET    /api/workitems/{workItemId}/total
  GET    /api/rows?from=&to=&user=&type=&workItem=
  GET    /api/summary?...&top=
  GET    /api/export.csv?...
  GET    /api/settings
  PATCH  /api/settings

Loaded records are cached and dropped whenever the configured notifier
reports a change, so writes from other processes show up once their
notification arrives. The API has no authentication; bind it to a trusted
interface.`,
	Example: `
  # Serve on localhost:8080
  worktally serve

  # Serve on all interfaces
  worktally serve --host 0.0.0.0 --port 9090
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		handler := web.NewServer(a.entries(), a.reports(), a.settings(),
			web.WithLogger(a.logger.Named("web")),
			web.WithTopN(a.cfg.Report.TopN),
		)
		if err := handler.Watch(ctx, a.notifier); err != nil {
			// The cache then only refreshes after writes made through this server.
			a.logger.Warn("change notifications unavailable", zap.Error(err))
		}

		addr := fmt.Sprintf("%s:%d", serveHost, servePort)
		server := &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			errCh <- server.ListenAndServe()
		}()

		a.logger.Info("listening", zap.String("addr", addr))
		fmt.Printf("Listening on http://%s\n", addr)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(sigCh)

		select {
		case err := <-errCh:
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		case <-sigCh:
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer shutdownCancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("shutdown server: %w", err)
			}
			err := <-errCh
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveHost, "host", "localhost", "Interface to bind")
	serveCmd.Flags().IntVar(&servePort, "port", 8080, "HTTP port")
}
