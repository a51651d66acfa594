package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"murmur/internal/api"
	"murmur/internal/queueaccess"
)

func newSettingsCommand(ctx *commandContext) *cobra.Command {
	settingsCmd := &cobra.Command{
		Use:   "settings",
		Short: "View or change runtime settings",
	}

	getCmd := &cobra.Command{
		Use:   "get",
		Short: "Show current settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withAccess(cmd, func(c context.Context, s queueaccess.Session) error {
				settings, err := s.Access.Settings(c)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "whisper_model: %s\n", settings.WhisperModel)
				return nil
			})
		},
	}

	setModelCmd := &cobra.Command{
		Use:   "set-model <name>",
		Short: "Set the transcription model used for subsequent jobs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withAccess(cmd, func(c context.Context, s queueaccess.Session) error {
				settings, err := s.Access.UpdateSettings(c, api.Settings{WhisperModel: args[0]})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Transcription model set to %s\n", settings.WhisperModel)
				return nil
			})
		},
	}

	settingsCmd.AddCommand(getCmd, setModelCmd)
	return settingsCmd
}
