package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nexuscore/agentcore/internal/scheduler"
)

func buildJobsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "manage scheduled agent jobs",
	}
	cmd.AddCommand(
		buildJobsListCmd(),
		buildJobsAddOneShotCmd(),
		buildJobsAddCronCmd(),
		buildJobsAddIntervalCmd(),
		buildJobsRemoveCmd(),
		buildJobsPauseCmd(),
		buildJobsResumeCmd(),
	)
	return cmd
}

func buildJobsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "list every registered job and its next run time",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := buildStack(configPath)
			if err != nil {
				return err
			}
			defer s.audit.Close()
			for _, j := range s.scheduler.List() {
				status := "active"
				if j.Paused {
					status = "paused"
				}
				fmt.Printf("%-20s %-10s %-8s next=%s\n", j.Name, j.Kind, status, j.NextRun.Format("2006-01-02T15:04:05"))
			}
			return nil
		},
	}
}

func buildJobsAddOneShotCmd() *cobra.Command {
	var notify bool
	cmd := &cobra.Command{
		Use:   "add-one-shot <name> <delay> <prompt>",
		Short: "schedule a single firing after a delay (e.g. 30m, 2h)",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := buildStack(configPath)
			if err != nil {
				return err
			}
			defer s.audit.Close()
			delay, err := scheduler.ParseDelay(args[1])
			if err != nil {
				return err
			}
			return s.scheduler.AddOneShot(args[0], delay, args[2], notify)
		},
	}
	cmd.Flags().BoolVar(&notify, "notify", true, "notify unless the job's response is a heartbeat")
	return cmd
}

func buildJobsAddCronCmd() *cobra.Command {
	var notify bool
	cmd := &cobra.Command{
		Use:   "add-cron <name> <expression> <prompt>",
		Short: "schedule a recurring job on a standard 5-field cron expression",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := buildStack(configPath)
			if err != nil {
				return err
			}
			defer s.audit.Close()
			return s.scheduler.AddCron(args[0], args[1], args[2], notify)
		},
	}
	cmd.Flags().BoolVar(&notify, "notify", true, "notify unless the job's response is a heartbeat")
	return cmd
}

func buildJobsAddIntervalCmd() *cobra.Command {
	var notify bool
	var minutes int
	cmd := &cobra.Command{
		Use:   "add-interval <name> <prompt>",
		Short: "schedule a job that fires every --minutes",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := buildStack(configPath)
			if err != nil {
				return err
			}
			defer s.audit.Close()
			return s.scheduler.AddInterval(args[0], minutes, args[1], notify)
		},
	}
	cmd.Flags().IntVar(&minutes, "minutes", 60, "interval in minutes")
	cmd.Flags().BoolVar(&notify, "notify", true, "notify unless the job's response is a heartbeat")
	return cmd
}

func buildJobsRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <name>",
		Short: "delete a job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := buildStack(configPath)
			if err != nil {
				return err
			}
			defer s.audit.Close()
			return s.scheduler.Remove(args[0])
		},
	}
}

func buildJobsPauseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pause <name>",
		Short: "suspend a job's firing without deleting it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := buildStack(configPath)
			if err != nil {
				return err
			}
			defer s.audit.Close()
			return s.scheduler.Pause(args[0])
		},
	}
}

func buildJobsResumeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resume <name>",
		Short: "resume a paused job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := buildStack(configPath)
			if err != nil {
				return err
			}
			defer s.audit.Close()
			return s.scheduler.Resume(args[0])
		},
	}
}
