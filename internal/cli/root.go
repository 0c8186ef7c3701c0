package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/adminkit-dev/adminkit/internal/cli/commands"
	"github.com/adminkit-dev/adminkit/internal/logger"
)

var version = "dev" // Will be set during build

var rootCmd = &cobra.Command{
	Use:   "adminkit",
	Short: "adminkit - Admin console sessions from the terminal",
	Long: `adminkit CLI - Log in to an admin API, inspect your profile and routes,
and serve the admin console locally.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Logs go to stderr so command output stays pipeable
		level := os.Getenv("ADMINKIT_LOG_LEVEL")
		if level == "" {
			level = "warn"
		}
		logger.InitWithWriter(os.Stderr, level, "console")
	},
}

func init() {
	commands.BindGlobalFlags(rootCmd)

	// Add version command
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "adminkit version %s\n", version)
		},
	})

	// Add all subcommands
	rootCmd.AddCommand(commands.NewInitCmd())
	rootCmd.AddCommand(commands.NewSelectServerCmd())
	rootCmd.AddCommand(commands.NewLoginCmd())
	rootCmd.AddCommand(commands.NewInfoCmd())
	rootCmd.AddCommand(commands.NewLogoutCmd())
	rootCmd.AddCommand(commands.NewResetTokenCmd())
	rootCmd.AddCommand(commands.NewRoutesCmd())
	rootCmd.AddCommand(commands.NewConsoleCmd())
}

// Execute runs the root command
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}
