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

	"github.com/gin-gonic/gin"
	"github.com/iksnae/darkscan/internal"
	"github.com/iksnae/darkscan/internal/stubserver"
	"github.com/spf13/cobra"
)

var (
	stubAddr string
	stubMode string
)

const shutdownTimeout = 5 * time.Second

// stubServerCmd represents the stub-server command
var stubServerCmd = &cobra.Command{
	Use:   "stub-server",
	Short: "Run a local stand-in for the analysis service",
	Long: `Run a local analysis service that returns deterministic results.

The same image always gets the same score. Use --mode to reproduce
failures: html-gateway (HTML page with status 200), reject (HTTP 500)
or malformed-history.

  darkscan stub-server --addr 127.0.0.1:8001
  darkscan --base-url http://127.0.0.1:8001 analyze shot.png`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		mode, err := stubserver.ParseMode(stubMode)
		if err != nil {
			return err
		}
		if verbose {
			gin.SetMode(gin.DebugMode)
		} else {
			gin.SetMode(gin.ReleaseMode)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		srv := &http.Server{
			Addr:              stubAddr,
			Handler:           stubserver.New(stubserver.WithMode(mode)),
			ReadHeaderTimeout: 10 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			internal.PrintInfo(fmt.Sprintf("Stub analysis service listening on http://%s (mode: %s)", stubAddr, mode))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()

		select {
		case err := <-errCh:
			if err != nil {
				return fmt.Errorf("stub server failed: %w", err)
			}
			return nil
		case <-ctx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down stub server: %w", err)
		}
		internal.LogInfo("Stub server stopped")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(stubServerCmd)
	stubServerCmd.Flags().StringVar(&stubAddr, "addr", "127.0.0.1:8001", "Listen address")
	stubServerCmd.Flags().StringVar(&stubMode, "mode", string(stubserver.ModeNormal), "Response mode (normal, html-gateway, reject, malformed-history)")
}
