package commands

import (
	"github.com/spf13/cobra"

	"github.com/agmortgage/agbank/internal/buildinfo"
	"github.com/agmortgage/agbank/internal/config"
)

// options are the persistent flags shared by every subcommand.
type options struct {
	home       string
	configPath string
	envFile    string
	apiURL     string
	logLevel   string
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:     "agbank",
		Short:   "Retail banking client for loans and savings",
		Version: buildinfo.String(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.home, "home", config.DefaultHome(), "directory holding config, session and activity log")
	flags.StringVar(&opts.configPath, "config", "", "config file (default <home>/"+config.FileName+")")
	flags.StringVar(&opts.envFile, "env-file", ".env", "dotenv file with AGBANK_* overrides")
	flags.StringVar(&opts.apiURL, "api-url", "", "backend base URL, overrides config")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level, overrides config")

	rootCmd.AddCommand(
		newLoginCommand(opts),
		newRegisterCommand(opts),
		newLogoutCommand(opts),
		newWhoamiCommand(opts),
		newPasswordCommand(),
		newLoansCommand(opts),
		newSavingsCommand(opts),
		newUsersCommand(opts),
		newSummaryCommand(opts),
		newRefreshCommand(opts),
		newActivityCommand(opts),
		newMockServerCommand(opts),
		newConfigCommand(opts),
	)

	return rootCmd
}
