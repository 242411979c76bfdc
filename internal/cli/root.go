package cli

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	configPath string
	profile    string
)

// Execute runs the CLI.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	envConfig := os.Getenv("CONFIG_PATH")
	if envConfig == "" {
		envConfig = "config/config.yaml"
	}

	cmd := &cobra.Command{
		Use:           "trivia",
		Short:         "Terminal client for real-time multiplayer trivia",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", envConfig, "path to YAML config")
	cmd.PersistentFlags().StringVar(&profile, "profile", "", "identity profile, lets several players share one machine")
	cmd.AddCommand(NewHostCmd(&configPath))
	cmd.AddCommand(NewJoinCmd(&configPath))
	cmd.AddCommand(NewResumeCmd(&configPath))
	cmd.AddCommand(NewSetsCmd(&configPath))
	cmd.AddCommand(NewHistoryCmd(&configPath))
	cmd.AddCommand(NewMigrateCmd(&configPath))
	return cmd
}
