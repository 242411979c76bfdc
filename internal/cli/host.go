package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"trivia-client/internal/app"
)

// NewHostCmd creates a room from a trivia set and plays it as host.
func NewHostCmd(configPath *string) *cobra.Command {
	var setID, name string
	cmd := &cobra.Command{
		Use:   "host",
		Short: "Create a room from a trivia set and host it",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			d, cleanup, err := buildDeps(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			set, err := d.sets.GetSet(cmd.Context(), setID)
			if err != nil {
				return fmt.Errorf("load trivia set %s: %w", setID, err)
			}
			client, err := d.newClient()
			if err != nil {
				return err
			}
			return runSession(cmd.Context(), client, os.Stdin, cmd.OutOrStdout(), func(ctx context.Context) error {
				return client.Create(ctx, name, set)
			})
		},
	}
	cmd.Flags().StringVar(&setID, "set", "", "trivia set id")
	cmd.Flags().StringVar(&name, "name", "Host", "display name")
	_ = cmd.MarkFlagRequired("set")
	return cmd
}

// NewJoinCmd joins an existing room by code.
func NewJoinCmd(configPath *string) *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "join <code>",
		Short: "Join a room by its code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, cleanup, err := sessionClient(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer cleanup()
			return runSession(cmd.Context(), client, os.Stdin, cmd.OutOrStdout(), func(ctx context.Context) error {
				return client.Join(ctx, args[0], name)
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "display name")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

// NewResumeCmd rejoins the room recorded in the stored identity.
func NewResumeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "resume",
		Short: "Rejoin the game this profile was last in",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, cleanup, err := sessionClient(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer cleanup()
			return runSession(cmd.Context(), client, os.Stdin, cmd.OutOrStdout(), client.Resume)
		},
	}
}

func sessionClient(ctx context.Context, configPath string) (*app.Client, func(), error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, nil, err
	}
	d, cleanup, err := buildDeps(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	client, err := d.newClient()
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return client, cleanup, nil
}
