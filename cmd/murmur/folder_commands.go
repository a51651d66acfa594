package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"murmur/internal/config"
	"murmur/internal/queue"
	"murmur/internal/queueaccess"
)

func newFoldersCommand(ctx *commandContext) *cobra.Command {
	foldersCmd := &cobra.Command{
		Use:   "folders",
		Short: "Manage monitored folders",
	}
	foldersCmd.AddCommand(newFoldersListCommand(ctx))
	foldersCmd.AddCommand(newFoldersAddCommand(ctx))
	foldersCmd.AddCommand(newFoldersToggleCommand(ctx, "enable", "Resume scanning a folder", true))
	foldersCmd.AddCommand(newFoldersToggleCommand(ctx, "disable", "Stop scanning a folder", false))
	return foldersCmd
}

func newFoldersListCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List monitored folders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withAccess(cmd, func(c context.Context, s queueaccess.Session) error {
				folders, err := s.Access.ListFolders(c)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, folders)
				}
				out := cmd.OutOrStdout()
				if len(folders) == 0 {
					fmt.Fprintln(out, "No monitored folders. Add one with `murmur folders add <path>`.")
					return nil
				}
				fmt.Fprintln(out, renderTable(
					[]string{"ID", "Path", "Monitoring", "Added"},
					folderRows(folders),
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}

func folderRows(folders []*queue.Folder) [][]string {
	rows := make([][]string, 0, len(folders))
	for _, folder := range folders {
		rows = append(rows, []string{
			strconv.FormatInt(folder.ID, 10),
			folder.Path,
			monitoringLabel(folder.MonitoringEnabled),
			formatTime(folder.CreatedAt),
		})
	}
	return rows
}

func monitoringLabel(enabled bool) string {
	if enabled {
		return "enabled"
	}
	return "disabled"
}

func newFoldersAddCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "add <path>",
		Short: "Register a folder for monitoring",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.ExpandPath(args[0])
			if err != nil {
				return fmt.Errorf("resolve folder path: %w", err)
			}
			return ctx.withAccess(cmd, func(c context.Context, s queueaccess.Session) error {
				folder, err := s.Access.AddFolder(c, path)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added folder #%d: %s\n", folder.ID, folder.Path)
				return nil
			})
		},
	}
}

func newFoldersToggleCommand(ctx *commandContext, verb, short string, enabled bool) *cobra.Command {
	return &cobra.Command{
		Use:   verb + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			return ctx.withAccess(cmd, func(c context.Context, s queueaccess.Session) error {
				folder, err := s.Access.SetMonitoring(c, ids[0], enabled)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Monitoring %s for folder #%d: %s\n", monitoringLabel(folder.MonitoringEnabled), folder.ID, folder.Path)
				return nil
			})
		},
	}
}
