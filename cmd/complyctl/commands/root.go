package commands

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	configPath string
	verbose    bool
	jsonOutput bool
)

var buildVersion = "dev"

// Execute runs the root command
func Execute(ctx context.Context, version, commit, buildDate string) error {
	buildVersion = version
	rootCmd := newRootCommand(version, commit, buildDate)
	return rootCmd.ExecuteContext(ctx)
}

func newRootCommand(version, commit, buildDate string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "complyctl",
		Short: "ComplyEasy - compliance dashboard from the command line",
		Long: `complyctl drives a ComplyEasy workspace: risks, compliance frameworks,
the audit trail, billing, the team and integrations.

Every command runs against the store named in the configuration file
(complyeasy.yaml by default) and acts as the signed-in user. Sign in with
"complyctl login <email>".`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output in JSON format")

	rootCmd.AddCommand(newInitCommand())
	rootCmd.AddCommand(newLoginCommand())
	rootCmd.AddCommand(newVerifyCommand())
	rootCmd.AddCommand(newLogoutCommand())
	rootCmd.AddCommand(newWhoamiCommand())
	rootCmd.AddCommand(newRegisterCommand())
	rootCmd.AddCommand(newRisksCommand())
	rootCmd.AddCommand(newFrameworksCommand())
	rootCmd.AddCommand(newAuditCommand())
	rootCmd.AddCommand(newBillingCommand())
	rootCmd.AddCommand(newTeamCommand())
	rootCmd.AddCommand(newIntegrationsCommand())
	rootCmd.AddCommand(newAICommand())
	rootCmd.AddCommand(newWatchCommand())

	return rootCmd
}
