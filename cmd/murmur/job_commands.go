package main

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"murmur/internal/queue"
	"murmur/internal/queueaccess"
)

func newJobsCommand(ctx *commandContext) *cobra.Command {
	jobsCmd := &cobra.Command{
		Use:   "jobs",
		Short: "Inspect and retry transcription jobs",
	}
	jobsCmd.AddCommand(newJobsListCommand(ctx))
	jobsCmd.AddCommand(newJobsShowCommand(ctx))
	jobsCmd.AddCommand(newJobsRetryCommand(ctx))
	return jobsCmd
}

func newJobsListCommand(ctx *commandContext) *cobra.Command {
	var statuses []string
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List jobs, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withAccess(cmd, func(c context.Context, s queueaccess.Session) error {
				jobs, err := s.Access.ListJobs(c, statuses)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, jobs)
				}
				out := cmd.OutOrStdout()
				if len(jobs) == 0 {
					fmt.Fprintln(out, "No jobs")
					return nil
				}
				fmt.Fprintln(out, renderTable(
					[]string{"ID", "File", "Status", "Retries", "Added", "Completed"},
					jobRows(jobs),
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}
	cmd.Flags().StringSliceVarP(&statuses, "status", "s", nil, "Filter by status (Queued, Transcribing, Complete, Error)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}

func jobRows(jobs []*queue.Job) [][]string {
	rows := make([][]string, 0, len(jobs))
	for _, job := range jobs {
		rows = append(rows, []string{
			strconv.FormatInt(job.ID, 10),
			job.FileName,
			string(job.Status),
			strconv.Itoa(job.RetryCount),
			formatTime(job.DateAdded),
			formatOptionalTime(job.DateCompleted),
		})
	}
	return rows
}

func newJobsShowCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one job in detail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			return ctx.withAccess(cmd, func(c context.Context, s queueaccess.Session) error {
				job, err := s.Access.GetJob(c, ids[0])
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, job)
				}
				printJob(cmd.OutOrStdout(), job)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}

func printJob(out io.Writer, job *queue.Job) {
	fmt.Fprintf(out, "Job #%d\n", job.ID)
	fmt.Fprintf(out, "  %-12s %s\n", "File:", job.FileName)
	fmt.Fprintf(out, "  %-12s %s\n", "Path:", job.FilePath)
	fmt.Fprintf(out, "  %-12s %s\n", "Status:", job.Status)
	fmt.Fprintf(out, "  %-12s %d\n", "Retries:", job.RetryCount)
	fmt.Fprintf(out, "  %-12s %s\n", "Added:", formatTime(job.DateAdded))
	fmt.Fprintf(out, "  %-12s %s\n", "Completed:", formatOptionalTime(job.DateCompleted))
	if job.OutputPath != "" {
		fmt.Fprintf(out, "  %-12s %s\n", "Transcript:", job.OutputPath)
	}
	if job.ErrorMessage != "" {
		fmt.Fprintf(out, "  %-12s %s\n", "Error:", job.ErrorMessage)
	}
}

func newJobsRetryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "retry [id...]",
		Short: "Re-queue failed jobs with a fresh retry budget (all failed jobs when no ids are given)",
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			return ctx.withAccess(cmd, func(c context.Context, s queueaccess.Session) error {
				updated, err := s.Access.RetryJobs(c, ids)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if updated == 0 {
					fmt.Fprintln(out, "No failed jobs to retry")
					return nil
				}
				fmt.Fprintf(out, "Re-queued %d failed job(s)\n", updated)
				return nil
			})
		},
	}
}
