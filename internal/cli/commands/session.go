package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/adminkit-dev/adminkit/internal/cli/router"
	"github.com/adminkit-dev/adminkit/internal/cli/session"
	"github.com/adminkit-dev/adminkit/internal/util"
)

// NewInfoCmd creates the info command
func NewInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show the profile of the logged-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInfo(cmd.Context())
		},
	}
}

// NewLogoutCmd creates the logout command
func NewLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Log out and revoke the stored token",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogout(cmd.Context())
		},
	}
}

// NewResetTokenCmd creates the reset-token command
func NewResetTokenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset-token",
		Short: "Forget the stored token without contacting the server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResetToken(cmd.Context())
		},
	}
}

// NewRoutesCmd creates the routes command
func NewRoutesCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "routes",
		Short: "List the console routes available to you",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRoutes(cmd.Context(), all)
		},
	}

	cmd.Flags().BoolVarP(&all, "all", "a", false, "Include hidden routes")

	return cmd
}

func orBackground(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}

func runInfo(ctx context.Context, opts ...Option) error {
	env, err := newSessionEnv(opts)
	if err != nil {
		return err
	}
	if err := env.requireToken(); err != nil {
		return err
	}

	info, err := env.store.GetInfo(orBackground(ctx))
	if err != nil {
		if errors.Is(err, session.ErrLoginAgain) {
			return fmt.Errorf("verification failed: %w", err)
		}
		return err
	}

	w := tabwriter.NewWriter(env.out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Server:\t%s (%s)\n", env.server.Alias, env.server.URL)
	fmt.Fprintf(w, "Name:\t%s\n", info.Name)
	fmt.Fprintf(w, "Roles:\t%s\n", strings.Join(info.Roles, ", "))
	if info.Introduction != "" {
		fmt.Fprintf(w, "Introduction:\t%s\n", info.Introduction)
	}
	if info.Avatar != "" {
		fmt.Fprintf(w, "Avatar:\t%s\n", info.Avatar)
	}
	if lastLogin := formatLastLogin(info.LastLoginAt, time.Now()); lastLogin != "" {
		fmt.Fprintf(w, "Last login:\t%s\n", lastLogin)
	}
	return w.Flush()
}

// formatLastLogin renders the server timestamp relative to now, or returns
// the raw value when it cannot be parsed
func formatLastLogin(value string, now time.Time) string {
	if value == "" {
		return ""
	}
	t, err := util.ParseTime(value, time.Local)
	if err != nil {
		return value
	}
	return fmt.Sprintf("%s (%s)", util.FormatRelative(t, now, ""), util.FormatPattern(t, util.DefaultPattern))
}

func runLogout(ctx context.Context, opts ...Option) error {
	env, err := newSessionEnv(opts)
	if err != nil {
		return err
	}
	if env.store.State().Token == "" {
		fmt.Fprintln(env.out, "Not logged in")
		return nil
	}

	if err := env.store.Logout(orBackground(ctx)); err != nil {
		return fmt.Errorf("logout failed: %w", err)
	}

	fmt.Fprintf(env.out, "✓ Logged out of %s\n", env.server.Alias)
	return nil
}

func runResetToken(ctx context.Context, opts ...Option) error {
	env, err := newSessionEnv(opts)
	if err != nil {
		return err
	}

	if err := env.store.ResetToken(orBackground(ctx)); err != nil {
		return err
	}

	fmt.Fprintf(env.out, "✓ Local token for %s removed\n", env.server.Alias)
	return nil
}

func runRoutes(ctx context.Context, all bool, opts ...Option) error {
	env, err := newSessionEnv(opts)
	if err != nil {
		return err
	}
	if err := env.requireToken(); err != nil {
		return err
	}

	if _, err := env.store.GenerateRoutes(orBackground(ctx)); err != nil {
		return err
	}

	dynamic := make(map[string]bool)
	for _, r := range env.table.Dynamic() {
		dynamic[r.Path] = true
	}

	w := tabwriter.NewWriter(env.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PATH\tNAME\tTITLE\tREDIRECT\tTIER")
	for _, r := range env.table.Routes() {
		if r.Hidden && !all {
			continue
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", r.Path, dash(r.Name), dash(r.Title), dash(r.Redirect), tier(r, dynamic))
	}
	return w.Flush()
}

func tier(r router.Route, dynamic map[string]bool) string {
	if dynamic[r.Path] {
		return "dynamic"
	}
	return "constant"
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
