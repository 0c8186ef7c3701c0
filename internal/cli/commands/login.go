package commands

import (
	"context"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/adminkit-dev/adminkit/internal/cli/session"
)

// NewLoginCmd creates the login command
func NewLoginCmd() *cobra.Command {
	var username, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authenticate with an admin API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(cmd.Context(), username, password)
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "Username (or set ADMINKIT_USERNAME)")
	cmd.Flags().StringVar(&password, "password", "", "Password (or set ADMINKIT_PASSWORD, will prompt if not provided)")

	return cmd
}

func runLogin(ctx context.Context, username, password string, opts ...Option) error {
	if ctx == nil {
		ctx = context.Background()
	}

	// Check for environment variables (useful for CI/CD)
	if username == "" {
		username = os.Getenv("ADMINKIT_USERNAME")
	}
	if password == "" {
		password = os.Getenv("ADMINKIT_PASSWORD")
	}

	if strings.TrimSpace(username) == "" {
		return fmt.Errorf("username is required (use --username flag or ADMINKIT_USERNAME env var)")
	}

	env, err := newSessionEnv(opts)
	if err != nil {
		return err
	}

	// Prompt for password if not provided via flag or env var
	if password == "" {
		if !term.IsTerminal(int(syscall.Stdin)) {
			return fmt.Errorf("password is required in non-interactive mode (use --password flag or ADMINKIT_PASSWORD env var)")
		}
		fmt.Fprint(env.out, "Password: ")
		bytePassword, err := term.ReadPassword(int(syscall.Stdin))
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		password = string(bytePassword)
		fmt.Fprintln(env.out) // New line after password input
	}

	fmt.Fprintf(env.out, "Logging in to %s (%s)...\n", env.server.Alias, env.server.URL)

	if err := env.store.Login(ctx, session.Credentials{Username: username, Password: password}); err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	fmt.Fprintln(env.out, "✓ Login successful!")

	info, err := env.store.GetInfo(ctx)
	if err != nil {
		fmt.Fprintf(env.errOut, "Warning: could not load profile: %v\n", err)
		return nil
	}
	fmt.Fprintf(env.out, "  User: %s\n", info.Name)
	if len(info.Roles) > 0 {
		fmt.Fprintf(env.out, "  Roles: %s\n", strings.Join(info.Roles, ", "))
	}

	return nil
}
