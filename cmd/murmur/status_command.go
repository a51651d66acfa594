package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"murmur/internal/api"
	"murmur/internal/queueaccess"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon, worker, and job status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withAccess(cmd, func(c context.Context, s queueaccess.Session) error {
				status, err := s.Access.Status(c)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, status)
				}
				out := cmd.OutOrStdout()
				for _, line := range statusLines(status, s.Remote, shouldColorize(out)) {
					fmt.Fprintln(out, line)
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}

func statusLines(status api.StatusResponse, remote, colorize bool) []string {
	lines := renderSectionHeader("System", colorize)
	if remote {
		lines = append(lines, renderStatusLine("Daemon", statusOK, "running", colorize))
	} else {
		lines = append(lines, renderStatusLine("Daemon", statusWarn, "not running; showing database state", colorize))
	}

	worker := status.Worker
	switch {
	case !remote:
	case worker.CurrentJob != nil:
		lines = append(lines, renderStatusLine("Worker", statusInfo,
			fmt.Sprintf("transcribing job #%d (%s)", worker.CurrentJob.ID, worker.CurrentJob.FileName), colorize))
	case worker.Running:
		lines = append(lines, renderStatusLine("Worker", statusOK, "idle", colorize))
	default:
		lines = append(lines, renderStatusLine("Worker", statusWarn, "stopped", colorize))
	}
	if strings.TrimSpace(worker.LastError) != "" {
		lines = append(lines, renderStatusLine("Last error", statusError, worker.LastError, colorize))
	}
	lines = append(lines, renderStatusLine("Model", statusInfo, status.Settings.WhisperModel, colorize))
	if len(status.Extensions) > 0 {
		lines = append(lines, renderStatusLine("Extensions", statusInfo, strings.Join(status.Extensions, " "), colorize))
	}

	jobs := worker.Jobs
	lines = append(lines, "")
	lines = append(lines, renderSectionHeader("Jobs", colorize)...)
	lines = append(lines,
		renderStatusLine("Queued", statusInfo, fmt.Sprint(jobs.Queued), colorize),
		renderStatusLine("Transcribing", statusInfo, fmt.Sprint(jobs.Transcribing), colorize),
		renderStatusLine("Complete", statusOK, fmt.Sprint(jobs.Complete), colorize),
	)
	errorKind := statusOK
	if jobs.Error > 0 {
		errorKind = statusError
	}
	lines = append(lines, renderStatusLine("Error", errorKind, fmt.Sprint(jobs.Error), colorize))
	return lines
}
