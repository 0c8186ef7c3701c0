package commands

import (
	"context"
	"fmt"
	"net/http"
	"os/exec"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/adminkit-dev/adminkit/internal/cli/console"
	"github.com/adminkit-dev/adminkit/internal/logger"
)

const defaultConsoleAddr = "127.0.0.1:9528"

// NewConsoleCmd creates the console command
func NewConsoleCmd() *cobra.Command {
	var addr string
	var open bool

	cmd := &cobra.Command{
		Use:   "console",
		Short: "Serve the admin console locally",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConsole(cmd.Context(), addr, open)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", defaultConsoleAddr, "Listen address")
	cmd.Flags().BoolVar(&open, "open", false, "Open the console in a browser")

	return cmd
}

func newConsoleHandler(opts []Option) (*console.Console, *sessionEnv, error) {
	env, err := newSessionEnv(opts)
	if err != nil {
		return nil, nil, err
	}
	return console.New(env.store, env.table, logger.GetLogger()), env, nil
}

func runConsole(ctx context.Context, addr string, open bool, opts ...Option) error {
	handler, env, err := newConsoleHandler(opts)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(orBackground(ctx), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	consoleURL := fmt.Sprintf("http://%s", addr)
	fmt.Fprintf(env.out, "Console for %s (%s) at %s\n", env.server.Alias, env.server.URL, consoleURL)
	if open {
		if err := openBrowser(consoleURL); err != nil {
			fmt.Fprintf(env.errOut, "⚠ Could not open browser automatically: %v\n", err)
		}
	}

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("console server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func openBrowser(url string) error {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}

	return cmd.Start()
}

