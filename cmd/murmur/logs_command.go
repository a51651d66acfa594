package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"murmur/internal/queue"
	"murmur/internal/queueaccess"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show the activity log, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withAccess(cmd, func(c context.Context, s queueaccess.Session) error {
				entries, err := s.Access.Logs(c, limit)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, entries)
				}
				out := cmd.OutOrStdout()
				if len(entries) == 0 {
					fmt.Fprintln(out, "Activity log is empty")
					return nil
				}
				for _, entry := range entries {
					fmt.Fprintf(out, "%s  %-7s  %s\n", formatTime(entry.Timestamp), entry.Level, entry.Message)
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", queue.DefaultLogLimit, "Maximum entries to show")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}
