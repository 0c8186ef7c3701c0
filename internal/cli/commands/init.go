package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/adminkit-dev/adminkit/internal/cli/config"
)

type initOptions struct {
	insecure bool
	out      io.Writer
}

// NewInitCmd creates the init command
func NewInitCmd() *cobra.Command {
	opts := &initOptions{}

	cmd := &cobra.Command{
		Use:   "init <server-url>",
		Short: "Add an admin API server to adminkit.json",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.out = cmd.OutOrStdout()
			return runInitWithOptions(args, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.insecure, "insecure", false, "Accept self-signed certificates from this server")

	return cmd
}

func runInitWithOptions(args []string, opts *initOptions) error {
	out := opts.out
	if out == nil {
		out = os.Stdout
	}

	serverURL, err := config.NormalizeURL(args[0])
	if err != nil {
		return err
	}

	currentDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get current directory: %w", err)
	}

	configPath := filepath.Join(currentDir, config.ConfigFileName)

	var cfg *config.Config
	isNewConfig := false

	// Check if config already exists
	if _, err := os.Stat(configPath); err == nil {
		cfg, err = config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load existing config: %w", err)
		}
		fmt.Fprintf(out, "Found existing %s\n", config.ConfigFileName)
	} else {
		cfg = &config.Config{
			Servers: []config.Server{},
		}
		isNewConfig = true
	}

	if _, err := cfg.GetServerByURL(serverURL); err == nil {
		fmt.Fprintf(out, "Server %s already exists in %s\n", serverURL, config.ConfigFileName)
	} else {
		alias := "production"
		if len(cfg.Servers) > 0 {
			alias = fmt.Sprintf("server-%d", len(cfg.Servers)+1)
		}

		cfg.Servers = append(cfg.Servers, config.Server{
			URL:      serverURL,
			Alias:    alias,
			Insecure: opts.insecure,
		})

		if err := config.Save(configPath, cfg); err != nil {
			return err
		}

		if isNewConfig {
			fmt.Fprintf(out, "✓ Created ./%s with server %s (%s)\n", config.ConfigFileName, serverURL, alias)
		} else {
			fmt.Fprintf(out, "✓ Added server %s (%s) to ./%s\n", serverURL, alias, config.ConfigFileName)
		}
	}

	fmt.Fprintln(out, "\nNext steps:")
	fmt.Fprintf(out, "  1. Create the first admin with POST %s/api/setup (skip if done)\n", serverURL)
	fmt.Fprintln(out, "  2. Run 'adminkit login' to authenticate")

	return nil
}
