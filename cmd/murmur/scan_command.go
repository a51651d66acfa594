package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"murmur/internal/queueaccess"
)

func newScanCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "scan",
		Short: "Scan monitored folders for new audio files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withAccess(cmd, func(c context.Context, s queueaccess.Session) error {
				count, err := s.Access.Scan(c)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				switch count {
				case 0:
					fmt.Fprintln(out, "Scan complete: no new audio files found")
				case 1:
					fmt.Fprintln(out, "Scan complete: 1 new job queued")
				default:
					fmt.Fprintf(out, "Scan complete: %d new jobs queued\n", count)
				}
				if count > 0 && !s.Remote {
					fmt.Fprintln(out, "Daemon not running; jobs will be transcribed once it starts")
				}
				return nil
			})
		},
	}
}
