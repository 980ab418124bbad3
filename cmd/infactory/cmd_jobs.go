package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/infactory-io/infactory-go/pkg/infactory"
	"github.com/infactory-io/infactory-go/pkg/stream"
)

func init() {
	rootCmd.AddCommand(jobsCmd)
	jobsCmd.AddCommand(jobsWatchCmd)
}

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Inspect background jobs",
}

var jobsWatchCmd = &cobra.Command{
	Use:   "watch <job-id>",
	Short: "Follow the progress of a job until it finishes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, logger, err := newClient()
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()
		ctx := cmd.Context()

		job, err := client.Jobs.Get(ctx, args[0]).Unwrap()
		if err != nil {
			return fmt.Errorf("get job: %w", err)
		}
		fmt.Printf("%s\t%s\n", job.ID, job.Status)
		if job.Status.IsTerminal() {
			return nil
		}

		sub, err := client.Jobs.Subscribe(ctx, job.ID, stream.SinkFunc(func(ev stream.Event) error {
			switch ev.Kind {
			case stream.EventStatusMessage:
				j, ok := infactory.JobFromEvent(ev)
				if !ok {
					return nil
				}
				fmt.Printf("%s\t%s\n", j.ID, j.Status)
				if j.Error != "" {
					fmt.Printf("\terror: %s\n", j.Error)
				}
				if j.Status.IsTerminal() {
					return stream.ErrStop
				}
			case stream.EventNotice, stream.EventContentDelta:
				fmt.Printf("\t%s\n", ev.Text)
			}
			return nil
		}))
		if err != nil {
			return fmt.Errorf("watch job: %w", err)
		}

		err = sub.Wait()
		if errors.Is(err, stream.ErrStreamCanceled) {
			// interrupted by the user
			return nil
		}
		return err
	},
}
